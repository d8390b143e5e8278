package events

import (
	"net/http"

	"billetter/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// GET /api/events
func (c *Controller) SearchEvents(ctx *gin.Context) {
	var q SearchQuery
	if err := ctx.ShouldBindQuery(&q); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Некорректные параметры запроса"})
		return
	}

	events, err := c.service.Search(ctx.Request.Context(), q)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, events)
}
