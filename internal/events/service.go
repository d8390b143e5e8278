package events

import (
	"context"
	"fmt"
	"time"

	"billetter/internal/shared/constants"
	"billetter/pkg/cache"
	"billetter/pkg/logger"
)

// EventResponse is the public listing shape.
type EventResponse struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

type Service interface {
	// GetEvents returns the cached upcoming-events list.
	GetEvents(ctx context.Context) ([]Event, error)

	// Search runs the filtered listing behind its own cache.
	Search(ctx context.Context, q SearchQuery) ([]EventResponse, error)
}

type service struct {
	repo      Repository
	cache     cache.Service
	eventsTTL time.Duration
	searchTTL time.Duration
}

func NewService(repo Repository, cacheService cache.Service, eventsTTL, searchTTL time.Duration) Service {
	return &service{
		repo:      repo,
		cache:     cacheService,
		eventsTTL: eventsTTL,
		searchTTL: searchTTL,
	}
}

func (s *service) GetEvents(ctx context.Context) ([]Event, error) {
	var events []Event
	if err := s.cache.Get(ctx, constants.KEY_EVENTS, &events); err == nil {
		return events, nil
	}

	events, err := s.repo.GetUpcoming(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, constants.KEY_EVENTS, events, s.eventsTTL); err != nil {
		logger.GetDefault().Warn("failed to cache events", "error", err)
	}
	return events, nil
}

func (s *service) Search(ctx context.Context, q SearchQuery) ([]EventResponse, error) {
	q.Normalize()

	// The unfiltered first page is the hot path; serve it off the shared
	// events list instead of a per-query cache entry.
	if q.Query == "" && q.Date == "" && q.Page == 1 {
		events, err := s.GetEvents(ctx)
		if err != nil {
			return nil, err
		}
		if len(events) > q.PageSize {
			events = events[:q.PageSize]
		}
		result := make([]EventResponse, 0, len(events))
		for _, e := range events {
			result = append(result, EventResponse{ID: e.ID, Title: e.Title})
		}
		return result, nil
	}

	key := constants.BuildSearchKey(q.Query, q.Date, q.Page, q.PageSize)

	var cached []EventResponse
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	}

	events, err := s.repo.Search(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to search events: %w", err)
	}

	result := make([]EventResponse, 0, len(events))
	for _, e := range events {
		result = append(result, EventResponse{ID: e.ID, Title: e.Title})
	}

	if err := s.cache.Set(ctx, key, result, s.searchTTL); err != nil {
		logger.GetDefault().Warn("failed to cache search results", "error", err)
	}
	return result, nil
}
