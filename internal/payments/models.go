package payments

import "time"

// PaymentTransaction is one attempt to collect money for a booking. A
// booking may accumulate several over time; the most recent by CreatedAt
// is authoritative.
type PaymentTransaction struct {
	ID            int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	BookingID     int64     `json:"booking_id" gorm:"not null;index"`
	TransactionID string    `json:"transaction_id" gorm:"not null;uniqueIndex"`
	OrderID       string    `json:"order_id" gorm:"not null"`
	Amount        float64   `json:"amount" gorm:"not null"`
	Status        string    `json:"status" gorm:"not null;default:'pending';index"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime;index"`
	UpdatedAt     time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (PaymentTransaction) TableName() string { return "payment_transactions" }

// Transaction statuses
const (
	TxPending   = "pending"
	TxCompleted = "completed"
	TxFailed    = "failed"
	TxExpired   = "expired"
)

// Gateway payment statuses seen in webhooks and check responses
const (
	GatewayStatusNew        = "NEW"
	GatewayStatusAuthorized = "AUTHORIZED"
	GatewayStatusConfirmed  = "CONFIRMED"
	GatewayStatusCancelled  = "CANCELLED"
	GatewayStatusFailed     = "FAILED"
	GatewayStatusExpired    = "EXPIRED"
	GatewayStatusRefunded   = "REFUNDED"
)

// WebhookNotification is the body posted by the gateway
type WebhookNotification struct {
	PaymentID string `json:"paymentId"`
	Status    string `json:"status"`
}

// InitRequest is the wire request for PaymentInit/init
type InitRequest struct {
	TeamSlug        string `json:"teamSlug"`
	Token           string `json:"token"`
	Amount          int64  `json:"amount"`
	OrderID         string `json:"orderId"`
	Currency        string `json:"currency"`
	Description     string `json:"description"`
	SuccessURL      string `json:"successURL"`
	FailURL         string `json:"failURL"`
	NotificationURL string `json:"notificationURL"`
	Email           string `json:"email,omitempty"`
	Language        string `json:"language"`
}

// InitResponse is the wire response for PaymentInit/init
type InitResponse struct {
	Success    bool    `json:"success"`
	PaymentID  *string `json:"paymentId"`
	PaymentURL *string `json:"paymentURL"`
	ExpiresAt  *string `json:"expiresAt"`
	Code       *int    `json:"code"`
	Message    *string `json:"message"`
}

// CheckRequest is the wire request for PaymentCheck/check
type CheckRequest struct {
	TeamSlug  string `json:"teamSlug"`
	Token     string `json:"token"`
	PaymentID string `json:"paymentId"`
}

// CheckResponse is the wire response for PaymentCheck/check
type CheckResponse struct {
	Success bool    `json:"success"`
	Status  *string `json:"status"`
	Code    *int    `json:"code"`
	Message *string `json:"message"`
}

// ConfirmRequest is the wire request for PaymentConfirm/confirm
type ConfirmRequest struct {
	TeamSlug  string `json:"teamSlug"`
	Token     string `json:"token"`
	PaymentID string `json:"paymentId"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	OrderID   string `json:"orderId"`
}

// ConfirmResponse is the wire response for PaymentConfirm/confirm
type ConfirmResponse struct {
	Success bool    `json:"success"`
	Status  *string `json:"status"`
	Code    *int    `json:"code"`
	Message *string `json:"message"`
}
