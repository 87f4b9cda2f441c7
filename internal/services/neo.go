// Package services provides business logic
package services

import (
	"context"
	"time"

	"cosmicwatch/internal/domain"
)

// NeoFetcher is the upstream surface the NEO service needs.
type NeoFetcher interface {
	FetchFeed(ctx context.Context, startDate, endDate time.Time) (*domain.RawFeedPayload, error)
	FetchLookup(ctx context.Context, asteroidID string) (*domain.RawAsteroid, error)
	FeedEndpoint() string
	LookupEndpoint(asteroidID string) string
}

// NeoService handles NEO feed and lookup logic on top of the upstream client.
type NeoService struct {
	client NeoFetcher
}

// NewNeoService creates a new NEO service
func NewNeoService(client NeoFetcher) *NeoService {
	return &NeoService{client: client}
}

// FetchFeedRange fetches the raw feed for an arbitrary date range, walking
// the provider's 7-day window limit in sequential chunks. An inverted range
// yields an empty payload without touching upstream. Pagination links come
// from the first window; the element count is recomputed from the merged
// per-date records. A failing window fails the whole range.
func (s *NeoService) FetchFeedRange(ctx context.Context, startDate, endDate time.Time) (*domain.RawFeedPayload, error) {
	if endDate.Before(startDate) {
		return domain.EmptyFeedPayload(), nil
	}

	if int(endDate.Sub(startDate).Hours()/24) <= 7 {
		return s.client.FetchFeed(ctx, startDate, endDate)
	}

	merged := map[string][]domain.RawAsteroid{}
	links := map[string]any{}
	first := true

	for cursor := startDate; !cursor.After(endDate); cursor = cursor.AddDate(0, 0, 7) {
		chunkEnd := cursor.AddDate(0, 0, 6)
		if chunkEnd.After(endDate) {
			chunkEnd = endDate
		}

		chunk, err := s.client.FetchFeed(ctx, cursor, chunkEnd)
		if err != nil {
			return nil, err
		}

		if first {
			first = false
			if chunk.Links != nil {
				links = chunk.Links
			}
		}
		for day, rows := range chunk.NearEarthObjects {
			merged[day] = append(merged[day], rows...)
		}
	}

	total := 0
	for _, rows := range merged {
		total += len(rows)
	}
	return &domain.RawFeedPayload{
		Links:            links,
		ElementCount:     total,
		NearEarthObjects: merged,
	}, nil
}

// Feed returns the normalized, risk-scored feed response for a date range.
func (s *NeoService) Feed(ctx context.Context, startDate, endDate time.Time) (*domain.FeedResponse, error) {
	payload, err := s.FetchFeedRange(ctx, startDate, endDate)
	if err != nil {
		return nil, err
	}
	items := normalizeFeedPayload(payload)
	return buildFeedResponse(s.client.FeedEndpoint(), startDate, endDate, items), nil
}

// Lookup returns the normalized response for a single asteroid.
func (s *NeoService) Lookup(ctx context.Context, asteroidID string) (*domain.LookupResponse, error) {
	payload, err := s.client.FetchLookup(ctx, asteroidID)
	if err != nil {
		return nil, err
	}
	item := normalizeLookupPayload(payload)
	return buildLookupResponse(s.client.LookupEndpoint(asteroidID), item), nil
}

// TodaySummary counts today's feed items by risk category.
func (s *NeoService) TodaySummary(ctx context.Context) (*domain.TodaySummary, error) {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	feed, err := s.Feed(ctx, today, today)
	if err != nil {
		return nil, err
	}

	summary := &domain.TodaySummary{
		Date:  today.Format("2006-01-02"),
		Total: len(feed.Items),
	}
	for _, item := range feed.Items {
		switch item.RiskCategory {
		case "High":
			summary.HighRisk++
		case "Medium":
			summary.MediumRisk++
		default:
			summary.LowRisk++
		}
	}
	return summary, nil
}
