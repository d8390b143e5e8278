package analytics

import (
	"context"
	"net/http"
	"strconv"

	"billetter/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	repo   Repository
	events EventChecker
}

// EventChecker verifies the event exists before aggregating.
type EventChecker interface {
	Exists(ctx context.Context, eventID int64) (bool, error)
}

func NewController(repo Repository, events EventChecker) *Controller {
	return &Controller{repo: repo, events: events}
}

// GET /api/analytics?id={event_id}
func (c *Controller) GetEventAnalytics(ctx *gin.Context) {
	eventID, err := strconv.ParseInt(ctx.Query("id"), 10, 64)
	if err != nil || eventID <= 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "ID события должен быть > 0"})
		return
	}

	exists, err := c.events.Exists(ctx.Request.Context(), eventID)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}
	if !exists {
		ctx.JSON(http.StatusNotFound, gin.H{"message": "Событие не найдено"})
		return
	}

	stats, err := c.repo.GetEventAnalytics(ctx.Request.Context(), eventID)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, stats)
}
