package bookings

import (
	"errors"
	"net/http"
	"strconv"

	"billetter/internal/shared/middleware"
	"billetter/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// POST /api/bookings
func (c *Controller) CreateBooking(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)

	var req CreateBookingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": bindingMessage(err, "event_id должен быть > 0")})
		return
	}

	id, err := c.service.Create(ctx.Request.Context(), user.UserID, req.EventID)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, CreateBookingResponse{ID: id})
}

// GET /api/bookings
func (c *Controller) GetUserBookings(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)

	bookings, err := c.service.ListForUser(ctx.Request.Context(), user.UserID)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, bookings)
}

// PATCH /api/bookings/cancel
func (c *Controller) CancelBooking(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)

	var req CancelBookingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": bindingMessage(err, "booking_id должен быть > 0")})
		return
	}

	if err := c.service.Cancel(ctx.Request.Context(), user.UserID, req.BookingID); err != nil {
		response.RespondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Бронь успешно отменена"})
}

// PATCH /api/bookings/initiatePayment
func (c *Controller) InitiatePayment(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)

	var req InitiatePaymentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": bindingMessage(err, "booking_id должен быть > 0")})
		return
	}

	result, err := c.service.InitiatePayment(ctx.Request.Context(), user.UserID, req.BookingID)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, result)
}

// GET /api/bookings/:id/payment-status
func (c *Controller) GetPaymentStatus(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)

	bookingID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || bookingID <= 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "ID бронирования должен быть > 0"})
		return
	}

	status, err := c.service.PaymentStatus(ctx.Request.Context(), user.UserID, bookingID)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, status)
}

// bindingMessage keeps validator noise out of client responses.
func bindingMessage(err error, fallback string) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return fallback
	}
	return "Некорректное тело запроса"
}
