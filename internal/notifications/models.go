package notifications

import (
	"encoding/json"
	"strconv"
	"time"
)

// Event types published to the booking topic
const (
	EventBookingConfirmed = "booking.confirmed"
	EventBookingReleased  = "booking.released"
)

// BookingEvent is the message published after a payment resolves.
// Downstream consumers (ticket delivery, email) feed off this topic.
type BookingEvent struct {
	EventID    string    `json:"event_id"` // message id, not the concert
	Type       string    `json:"type"`
	BookingID  int64     `json:"booking_id"`
	ConcertID  int64     `json:"concert_id"`
	PaymentID  string    `json:"payment_id"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ToJSON serializes the event for the wire.
func (e *BookingEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// PartitionKey routes all events of one booking to one partition so
// consumers observe them in order.
func (e *BookingEvent) PartitionKey() string {
	return "booking-" + strconv.FormatInt(e.BookingID, 10)
}
