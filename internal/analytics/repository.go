package analytics

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// EventAnalytics is the per-event sales aggregate.
type EventAnalytics struct {
	EventID       int64   `json:"event_id"`
	TotalSeats    int     `json:"total_seats"`
	SoldSeats     int     `json:"sold_seats"`
	ReservedSeats int     `json:"reserved_seats"`
	FreeSeats     int     `json:"free_seats"`
	TotalRevenue  string `json:"total_revenue"`
	BookingsCount int    `json:"bookings_count"`
}

type Repository interface {
	GetEventAnalytics(ctx context.Context, eventID int64) (*EventAnalytics, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetEventAnalytics(ctx context.Context, eventID int64) (*EventAnalytics, error) {
	var row struct {
		TotalSeats    int
		SoldSeats     int
		ReservedSeats int
		FreeSeats     int
		TotalRevenue  float64
		BookingsCount int
	}

	err := r.db.WithContext(ctx).Raw(`
		SELECT
			COUNT(s.id) AS total_seats,
			COUNT(s.id) FILTER (WHERE s.status = 'SOLD') AS sold_seats,
			COUNT(s.id) FILTER (WHERE s.status = 'RESERVED') AS reserved_seats,
			COUNT(s.id) FILTER (WHERE s.status IN ('FREE', 'AVAILABLE')) AS free_seats,
			COALESCE(SUM(s.price) FILTER (WHERE s.status = 'SOLD'), 0) AS total_revenue,
			COUNT(DISTINCT b.id) FILTER (WHERE b.status = 'paid') AS bookings_count
		FROM seats s
		LEFT JOIN bookings b ON b.id = s.booking_id AND b.status = 'paid'
		WHERE s.event_id = ?`, eventID).
		Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load analytics: %w", err)
	}

	return &EventAnalytics{
		EventID:       eventID,
		TotalSeats:    row.TotalSeats,
		SoldSeats:     row.SoldSeats,
		ReservedSeats: row.ReservedSeats,
		FreeSeats:     row.FreeSeats,
		TotalRevenue:  fmt.Sprintf("%.2f", row.TotalRevenue),
		BookingsCount: row.BookingsCount,
	}, nil
}
