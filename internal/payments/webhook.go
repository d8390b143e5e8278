package payments

import (
	"context"
	"errors"

	"billetter/pkg/logger"

	"gorm.io/gorm"
)

// GatewayAPI is the slice of the gateway client the dispatcher needs.
type GatewayAPI interface {
	CheckPaymentStatus(ctx context.Context, paymentID string) (*CheckResponse, error)
	ConfirmPayment(ctx context.Context, paymentID string, amount int64, orderID string) (*ConfirmResponse, error)
}

// Dispatcher routes gateway notifications into the lifecycle handlers.
// The webhook is the source of truth for payment resolution; landing
// pages and the cleanup service funnel into the same handlers.
type Dispatcher struct {
	lifecycle *Lifecycle
	gateway   GatewayAPI
	db        *gorm.DB
}

func NewDispatcher(lifecycle *Lifecycle, gateway GatewayAPI, db *gorm.DB) *Dispatcher {
	return &Dispatcher{
		lifecycle: lifecycle,
		gateway:   gateway,
		db:        db,
	}
}

// ProcessNotification handles one (paymentId, status) pair. It never
// returns an error to the caller: the gateway retries on non-200, and a
// failed handler will be retried by the cleanup service anyway.
func (d *Dispatcher) ProcessNotification(ctx context.Context, paymentID, status string) {
	log := logger.GetDefault()
	log.Info("payment webhook", "payment_id", paymentID, "status", status)

	bookingID, eventID, err := d.lifecycle.ResolveBooking(ctx, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("webhook for unknown payment", "payment_id", paymentID)
		} else {
			log.Error("failed to resolve webhook payment", "payment_id", paymentID, "error", err)
		}
		return
	}

	switch status {
	case GatewayStatusConfirmed:
		if err := d.lifecycle.ProcessSuccessfulPayment(ctx, paymentID, bookingID, eventID); err != nil {
			log.Error("failed to process successful payment", "payment_id", paymentID, "error", err)
		}

	case GatewayStatusAuthorized:
		d.settleAuthorized(ctx, paymentID, bookingID, eventID)

	case GatewayStatusCancelled, GatewayStatusFailed, GatewayStatusExpired, GatewayStatusRefunded:
		if err := d.lifecycle.ProcessFailedPayment(ctx, paymentID, bookingID, eventID); err != nil {
			log.Error("failed to process failed payment", "payment_id", paymentID, "error", err)
		}

	case GatewayStatusNew:
		// Gateway acknowledged the order; nothing to do yet.

	default:
		log.Warn("unknown payment status in webhook", "payment_id", paymentID, "status", status)
	}
}

// settleAuthorized re-checks an authorized payment and captures it. When
// the breaker is open the transaction stays pending and the cleanup
// service picks it up on a later sweep.
func (d *Dispatcher) settleAuthorized(ctx context.Context, paymentID string, bookingID, eventID int64) {
	log := logger.GetDefault()

	check, err := d.gateway.CheckPaymentStatus(ctx, paymentID)
	if err != nil {
		log.Warn("authorized payment left pending", "payment_id", paymentID, "error", err)
		return
	}
	if check.Status == nil {
		log.Warn("check returned no status", "payment_id", paymentID)
		return
	}

	switch *check.Status {
	case GatewayStatusConfirmed:
		// Already captured on the gateway side.

	case GatewayStatusAuthorized:
		amount, orderID, err := d.transactionAmount(ctx, paymentID)
		if err != nil {
			log.Error("failed to load transaction for confirm", "payment_id", paymentID, "error", err)
			return
		}
		confirm, err := d.gateway.ConfirmPayment(ctx, paymentID, amount, orderID)
		if err != nil {
			log.Warn("confirm failed, payment left pending", "payment_id", paymentID, "error", err)
			return
		}
		if !confirm.Success {
			log.Warn("gateway refused confirm", "payment_id", paymentID)
			return
		}

	default:
		log.Warn("authorized payment no longer capturable", "payment_id", paymentID, "status", *check.Status)
		return
	}

	if err := d.lifecycle.ProcessSuccessfulPayment(ctx, paymentID, bookingID, eventID); err != nil {
		log.Error("failed to process successful payment", "payment_id", paymentID, "error", err)
	}
}

// transactionAmount rebuilds the confirm parameters from the stored
// transaction (amount back in minor units).
func (d *Dispatcher) transactionAmount(ctx context.Context, paymentID string) (int64, string, error) {
	var row struct {
		Amount  float64
		OrderID string
	}
	err := d.db.WithContext(ctx).Raw(
		`SELECT amount, order_id FROM payment_transactions WHERE transaction_id = ?`,
		paymentID).Scan(&row).Error
	if err != nil {
		return 0, "", err
	}
	if row.OrderID == "" {
		return 0, "", gorm.ErrRecordNotFound
	}
	return int64(row.Amount * 100), row.OrderID, nil
}
