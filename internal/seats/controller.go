package seats

import (
	"net/http"

	"billetter/internal/shared/middleware"
	"billetter/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// GET /api/seats
func (c *Controller) ListSeats(ctx *gin.Context) {
	var q ListQuery
	if err := ctx.ShouldBindQuery(&q); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Некорректные параметры запроса"})
		return
	}

	seats, err := c.service.List(ctx.Request.Context(), q)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, seats)
}

// PATCH /api/seats/select
func (c *Controller) SelectSeat(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)

	var req SelectSeatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "booking_id и seat_id должны быть > 0"})
		return
	}

	if err := c.service.Select(ctx.Request.Context(), user.UserID, req.BookingID, req.SeatID); err != nil {
		response.RespondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Место успешно добавлено в бронь"})
}

// PATCH /api/seats/release
func (c *Controller) ReleaseSeat(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)

	var req ReleaseSeatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "seat_id должен быть > 0"})
		return
	}

	if err := c.service.Release(ctx.Request.Context(), user.UserID, req.SeatID); err != nil {
		response.RespondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Место успешно освобождено"})
}
