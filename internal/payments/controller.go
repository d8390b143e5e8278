package payments

import (
	"errors"
	"net/http"

	"billetter/pkg/logger"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Controller struct {
	dispatcher *Dispatcher
	lifecycle  *Lifecycle
	breaker    *CircuitBreaker
}

func NewController(dispatcher *Dispatcher, lifecycle *Lifecycle, breaker *CircuitBreaker) *Controller {
	return &Controller{
		dispatcher: dispatcher,
		lifecycle:  lifecycle,
		breaker:    breaker,
	}
}

// POST /api/webhook/payment
//
// Always answers 200: the gateway retries non-200 responses and every
// handler is idempotent, so acknowledging is always safe.
func (c *Controller) PaymentWebhook(ctx *gin.Context) {
	var notification WebhookNotification
	if err := ctx.ShouldBindJSON(&notification); err != nil {
		logger.GetDefault().Warn("malformed webhook body", "error", err)
		ctx.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	c.dispatcher.ProcessNotification(ctx.Request.Context(), notification.PaymentID, notification.Status)
	ctx.JSON(http.StatusOK, gin.H{"received": true})
}

// GET /api/payments/success
//
// Landing for the gateway redirect. It may race with the webhook: both
// funnel into the same conditional handlers so the second becomes a
// no-op.
func (c *Controller) PaymentSuccess(ctx *gin.Context) {
	if paymentID := ctx.Query("paymentId"); paymentID != "" {
		c.resolveFromLanding(ctx, paymentID, true)
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Оплата прошла успешно. Билеты отправлены на вашу почту."})
}

// GET /api/payments/fail
func (c *Controller) PaymentFail(ctx *gin.Context) {
	if paymentID := ctx.Query("paymentId"); paymentID != "" {
		c.resolveFromLanding(ctx, paymentID, false)
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Оплата не прошла. Попробуйте еще раз."})
}

// GET /api/payments/circuit-breaker-status
func (c *Controller) CircuitBreakerStatus(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, c.breaker.Snapshot())
}

func (c *Controller) resolveFromLanding(ctx *gin.Context, paymentID string, success bool) {
	log := logger.GetDefault()

	bookingID, eventID, err := c.lifecycle.ResolveBooking(ctx.Request.Context(), paymentID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error("failed to resolve landing payment", "payment_id", paymentID, "error", err)
		}
		return
	}

	if success {
		err = c.lifecycle.ProcessSuccessfulPayment(ctx.Request.Context(), paymentID, bookingID, eventID)
	} else {
		err = c.lifecycle.ProcessFailedPayment(ctx.Request.Context(), paymentID, bookingID, eventID)
	}
	if err != nil {
		log.Error("failed to resolve payment from landing", "payment_id", paymentID, "error", err)
	}
}
