package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"billetter/internal/payments"
	"billetter/internal/seats"
	"billetter/internal/shared/apperror"
	"billetter/pkg/logger"
	"billetter/pkg/metrics"

	"gorm.io/gorm"
)

// PaymentGateway is the slice of the gateway client the booking flow
// needs. Errors it returns are already classified.
type PaymentGateway interface {
	CreatePayment(ctx context.Context, amount int64, orderID, description, email string) (*payments.InitResponse, error)
}

type Service interface {
	Create(ctx context.Context, userID, eventID int64) (int64, error)
	ListForUser(ctx context.Context, userID int64) ([]BookingResponse, error)
	Cancel(ctx context.Context, userID, bookingID int64) error
	InitiatePayment(ctx context.Context, userID, bookingID int64) (*PaymentInitiatedResponse, error)
	PaymentStatus(ctx context.Context, userID, bookingID int64) (*PaymentStatusResponse, error)
}

type service struct {
	repo    Repository
	gateway PaymentGateway
	locks   *seats.LockStore
	facade  *seats.CacheFacade
}

func NewService(repo Repository, gateway PaymentGateway, locks *seats.LockStore, facade *seats.CacheFacade) Service {
	return &service{
		repo:    repo,
		gateway: gateway,
		locks:   locks,
		facade:  facade,
	}
}

// Create inserts a fresh booking. Clients get a new id on every call;
// idempotence is not part of the contract.
func (s *service) Create(ctx context.Context, userID, eventID int64) (int64, error) {
	if eventID <= 0 {
		return 0, apperror.New(apperror.Validation, "event_id должен быть > 0")
	}

	booking := &Booking{
		EventID: eventID,
		UserID:  userID,
		Status:  StatusCreated,
	}
	if err := s.repo.Create(ctx, booking); err != nil {
		return 0, fmt.Errorf("failed to create booking: %w", err)
	}

	return booking.ID, nil
}

func (s *service) ListForUser(ctx context.Context, userID int64) ([]BookingResponse, error) {
	return s.repo.ListWithSeats(ctx, userID)
}

// Cancel frees the booking's RESERVED seats and marks it cancelled. SOLD
// seats are never freed here; a paid booking is refused outright.
func (s *service) Cancel(ctx context.Context, userID, bookingID int64) error {
	belongs, err := s.repo.BelongsToUser(ctx, bookingID, userID)
	if err != nil {
		return fmt.Errorf("failed to check booking ownership: %w", err)
	}
	if !belongs {
		return apperror.New(apperror.Forbidden, "Бронирование не найдено или не принадлежит вам")
	}

	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.New(apperror.SeatConflict, "Бронирование не найдено")
		}
		return fmt.Errorf("failed to get booking: %w", err)
	}
	if booking.Status == StatusPaid {
		return apperror.New(apperror.Conflict, "Нельзя отменить оплаченное бронирование")
	}

	freed, err := s.repo.CancelTx(ctx, bookingID)
	if err != nil {
		return fmt.Errorf("failed to cancel booking: %w", err)
	}

	// Post-commit cleanup is best-effort; TTL and the cleanup service
	// make it eventually consistent.
	if err := s.locks.ReleaseMany(ctx, freed); err != nil {
		logger.GetDefault().Warn("failed to clear seat locks after cancel", "booking_id", bookingID, "error", err)
	}
	s.facade.Invalidate(ctx, booking.EventID)

	return nil
}

// InitiatePayment registers the booking's reserved seats with the
// payment gateway. Seats stay RESERVED while the payment is pending; the
// cleanup service releases them if it never resolves.
func (s *service) InitiatePayment(ctx context.Context, userID, bookingID int64) (*PaymentInitiatedResponse, error) {
	agg, err := s.repo.GetPaymentAggregate(ctx, bookingID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.SeatConflict, "Бронирование не найдено или в нем нет мест")
		}
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	if agg.TotalPrice <= 0 {
		return nil, apperror.New(apperror.Validation, "Некорректная стоимость бронирования")
	}

	// Amount goes to the gateway in minor units.
	amount := int64(agg.TotalPrice * 100)
	orderID := fmt.Sprintf("booking-%d-%d", bookingID, time.Now().Unix())
	description := fmt.Sprintf("%s - %d билет(ов)", agg.EventTitle, agg.SeatCount)

	resp, err := s.gateway.CreatePayment(ctx, amount, orderID, description, agg.UserEmail)
	if err != nil {
		return nil, err
	}
	if resp.PaymentID == nil {
		return nil, apperror.New(apperror.BadGateway, "Не удалось получить ID платежа от шлюза")
	}

	if err := s.repo.CreatePaymentTx(ctx, bookingID, *resp.PaymentID, orderID, agg.TotalPrice); err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	metrics.PaymentsInitiated.Inc()
	logger.GetDefault().Info("payment created",
		"booking_id", bookingID, "payment_id", *resp.PaymentID, "amount", agg.TotalPrice)

	result := &PaymentInitiatedResponse{
		Success:   true,
		PaymentID: *resp.PaymentID,
		Amount:    agg.TotalPrice,
		Currency:  payments.Currency,
		ExpiresAt: resp.ExpiresAt,
	}
	if resp.PaymentURL != nil {
		result.PaymentURL = *resp.PaymentURL
	}
	return result, nil
}

func (s *service) PaymentStatus(ctx context.Context, userID, bookingID int64) (*PaymentStatusResponse, error) {
	lp, err := s.repo.GetLatestPayment(ctx, bookingID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.NotFound, "Платеж для данного бронирования не найден")
		}
		return nil, fmt.Errorf("failed to get payment status: %w", err)
	}

	return &PaymentStatusResponse{
		Success:       true,
		BookingID:     bookingID,
		PaymentStatus: lp.Status,
		PaymentID:     lp.TransactionID,
	}, nil
}
