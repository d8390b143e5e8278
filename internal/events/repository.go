package events

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	GetUpcoming(ctx context.Context) ([]Event, error)
	Exists(ctx context.Context, eventID int64) (bool, error)
	Search(ctx context.Context, q SearchQuery) ([]Event, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetUpcoming(ctx context.Context) ([]Event, error) {
	var events []Event
	err := r.db.WithContext(ctx).
		Where("datetime_start > ?", time.Now().UTC()).
		Order("datetime_start").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}
	return events, nil
}

func (r *repository) Exists(ctx context.Context, eventID int64) (bool, error) {
	var exists bool
	err := r.db.WithContext(ctx).Raw(
		`SELECT EXISTS(SELECT 1 FROM events WHERE id = ?)`, eventID).
		Scan(&exists).Error
	if err != nil {
		return false, fmt.Errorf("failed to check event: %w", err)
	}
	return exists, nil
}

func (r *repository) Search(ctx context.Context, q SearchQuery) ([]Event, error) {
	query := r.db.WithContext(ctx).Model(&Event{})

	if q.Query != "" {
		pattern := "%" + q.Query + "%"
		query = query.Where("title ILIKE ? OR description ILIKE ?", pattern, pattern)
	}
	if q.Date != "" {
		day, err := time.Parse("2006-01-02", q.Date)
		if err != nil {
			return nil, fmt.Errorf("invalid date filter: %w", err)
		}
		query = query.Where("datetime_start >= ? AND datetime_start < ?", day, day.Add(24*time.Hour))
	}

	var events []Event
	offset := (q.Page - 1) * q.PageSize
	err := query.
		Order("datetime_start").
		Offset(offset).
		Limit(q.PageSize).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search events: %w", err)
	}
	return events, nil
}
