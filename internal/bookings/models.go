package bookings

import "time"

type Booking struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	EventID   int64     `json:"event_id" gorm:"not null;index"`
	UserID    int64     `json:"user_id" gorm:"not null;index"`
	Status    Status    `json:"status" gorm:"not null;default:'created'"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Booking) TableName() string { return "bookings" }

// CreateBookingRequest represents the request to create a booking
type CreateBookingRequest struct {
	EventID int64 `json:"event_id" binding:"required,gt=0"`
}

// CreateBookingResponse carries the fresh booking id
type CreateBookingResponse struct {
	ID int64 `json:"id"`
}

// CancelBookingRequest represents the request to cancel a booking
type CancelBookingRequest struct {
	BookingID int64 `json:"booking_id" binding:"required,gt=0"`
}

// InitiatePaymentRequest represents the request to start payment
type InitiatePaymentRequest struct {
	BookingID int64 `json:"booking_id" binding:"required,gt=0"`
}

// BookingSeat is one seat id inside a booking listing
type BookingSeat struct {
	ID int64 `json:"id"`
}

// BookingResponse is one booking with its seats
type BookingResponse struct {
	ID      int64         `json:"id"`
	EventID int64         `json:"event_id"`
	Seats   []BookingSeat `json:"seats"`
}

// PaymentInitiatedResponse is returned once the gateway accepted the order
type PaymentInitiatedResponse struct {
	Success    bool    `json:"success"`
	PaymentURL string  `json:"payment_url"`
	PaymentID  string  `json:"payment_id"`
	Amount     float64 `json:"amount"`
	Currency   string  `json:"currency"`
	ExpiresAt  *string `json:"expires_at,omitempty"`
}

// PaymentStatusResponse is the latest payment state of a booking
type PaymentStatusResponse struct {
	Success       bool   `json:"success"`
	BookingID     int64  `json:"booking_id"`
	PaymentStatus string `json:"payment_status"`
	PaymentID     string `json:"payment_id"`
}
