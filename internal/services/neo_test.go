package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"cosmicwatch/internal/domain"
)

// fakeFetcher serves canned windows and records every upstream call.
type fakeFetcher struct {
	calls   [][2]string
	fail    error
	payload func(start, end string) *domain.RawFeedPayload
	lookup  *domain.RawAsteroid
}

func (f *fakeFetcher) FetchFeed(_ context.Context, startDate, endDate time.Time) (*domain.RawFeedPayload, error) {
	start := startDate.Format("2006-01-02")
	end := endDate.Format("2006-01-02")
	f.calls = append(f.calls, [2]string{start, end})
	if f.fail != nil {
		return nil, f.fail
	}
	return f.payload(start, end), nil
}

func (f *fakeFetcher) FetchLookup(_ context.Context, _ string) (*domain.RawAsteroid, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	return f.lookup, nil
}

func (f *fakeFetcher) FeedEndpoint() string { return "https://example.test/feed" }

func (f *fakeFetcher) LookupEndpoint(id string) string { return "https://example.test/neo/" + id }

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

// windowedPayload yields one record per day of the window, keyed per date.
func windowedPayload(start, end string) *domain.RawFeedPayload {
	payload := domain.EmptyFeedPayload()
	payload.Links = map[string]any{"self": start + ".." + end}
	for cursor := day(start); !cursor.After(day(end)); cursor = cursor.AddDate(0, 0, 1) {
		date := cursor.Format("2006-01-02")
		payload.NearEarthObjects[date] = []domain.RawAsteroid{{ID: "neo-" + date}}
		payload.ElementCount++
	}
	return payload
}

func TestFetchFeedRangeDegenerate(t *testing.T) {
	fetcher := &fakeFetcher{payload: windowedPayload}
	svc := NewNeoService(fetcher)

	payload, err := svc.FetchFeedRange(context.Background(), day("2025-06-10"), day("2025-06-09"))
	if err != nil {
		t.Fatalf("degenerate range must not error: %v", err)
	}
	if payload.ElementCount != 0 || len(payload.NearEarthObjects) != 0 {
		t.Errorf("degenerate range must be empty, got %+v", payload)
	}
	if len(fetcher.calls) != 0 {
		t.Errorf("degenerate range made %d upstream calls, want 0", len(fetcher.calls))
	}
}

func TestFetchFeedRangeSingleWindow(t *testing.T) {
	fetcher := &fakeFetcher{payload: windowedPayload}
	svc := NewNeoService(fetcher)

	if _, err := svc.FetchFeedRange(context.Background(), day("2025-06-01"), day("2025-06-08")); err != nil {
		t.Fatalf("FetchFeedRange: %v", err)
	}
	if len(fetcher.calls) != 1 {
		t.Fatalf("7-day span must be one call, got %d", len(fetcher.calls))
	}
	if fetcher.calls[0] != [2]string{"2025-06-01", "2025-06-08"} {
		t.Errorf("call window = %v", fetcher.calls[0])
	}
}

func TestFetchFeedRangeMergesWindows(t *testing.T) {
	fetcher := &fakeFetcher{payload: windowedPayload}
	svc := NewNeoService(fetcher)

	merged, err := svc.FetchFeedRange(context.Background(), day("2025-06-01"), day("2025-06-16"))
	if err != nil {
		t.Fatalf("FetchFeedRange: %v", err)
	}

	want := [][2]string{
		{"2025-06-01", "2025-06-07"},
		{"2025-06-08", "2025-06-14"},
		{"2025-06-15", "2025-06-16"},
	}
	if len(fetcher.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", fetcher.calls, want)
	}
	for i, w := range want {
		if fetcher.calls[i] != w {
			t.Errorf("call %d = %v, want %v", i, fetcher.calls[i], w)
		}
	}

	if merged.ElementCount != 16 {
		t.Errorf("element count = %d, want 16", merged.ElementCount)
	}
	if len(merged.NearEarthObjects) != 16 {
		t.Errorf("dates = %d, want 16", len(merged.NearEarthObjects))
	}
	if merged.Links["self"] != "2025-06-01..2025-06-07" {
		t.Errorf("links must come from the first window, got %v", merged.Links)
	}

	// Merging the same span in two calls must agree with the one-shot merge.
	left, err := svc.FetchFeedRange(context.Background(), day("2025-06-01"), day("2025-06-08"))
	if err != nil {
		t.Fatalf("left half: %v", err)
	}
	right, err := svc.FetchFeedRange(context.Background(), day("2025-06-09"), day("2025-06-16"))
	if err != nil {
		t.Fatalf("right half: %v", err)
	}
	if left.ElementCount+right.ElementCount != merged.ElementCount {
		t.Errorf("split merge count %d+%d != %d", left.ElementCount, right.ElementCount, merged.ElementCount)
	}
	for date := range merged.NearEarthObjects {
		inLeft := len(left.NearEarthObjects[date])
		inRight := len(right.NearEarthObjects[date])
		if inLeft+inRight != len(merged.NearEarthObjects[date]) {
			t.Errorf("date %s: split has %d entries, merged has %d", date, inLeft+inRight, len(merged.NearEarthObjects[date]))
		}
	}
}

func TestFetchFeedRangeWindowFailurePropagates(t *testing.T) {
	wantErr := errors.New("window blew up")
	fetcher := &fakeFetcher{fail: wantErr}
	svc := NewNeoService(fetcher)

	_, err := svc.FetchFeedRange(context.Background(), day("2025-06-01"), day("2025-06-20"))
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
}

func TestFeedEnvelope(t *testing.T) {
	fetcher := &fakeFetcher{payload: windowedPayload}
	svc := NewNeoService(fetcher)

	feed, err := svc.Feed(context.Background(), day("2025-06-01"), day("2025-06-03"))
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if feed.StartDate != "2025-06-01" || feed.EndDate != "2025-06-03" {
		t.Errorf("request echo = %s..%s", feed.StartDate, feed.EndDate)
	}
	if feed.AsteroidCount != len(feed.Items) || feed.AsteroidCount != 3 {
		t.Errorf("asteroid count = %d, items = %d", feed.AsteroidCount, len(feed.Items))
	}
	if feed.Meta.Source != "NASA NeoWs" || feed.Meta.SourceFormat != "JSON" {
		t.Errorf("meta = %+v", feed.Meta)
	}
	if feed.Meta.SourceEndpoint != "https://example.test/feed" {
		t.Errorf("meta endpoint = %q", feed.Meta.SourceEndpoint)
	}
	for _, item := range feed.Items {
		if item.RiskCategory == "" {
			t.Errorf("item %s missing risk category", item.ID)
		}
	}
}

func TestLookupEnvelope(t *testing.T) {
	record := rawAsteroid("3542519", 100.0, 200.0, false, earthApproach("2025-09-01", "11", "4000000"))
	fetcher := &fakeFetcher{lookup: &record}
	svc := NewNeoService(fetcher)

	resp, err := svc.Lookup(context.Background(), "3542519")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if resp.Item == nil || resp.Item.ID != "3542519" {
		t.Fatalf("item = %+v", resp.Item)
	}
	if resp.Meta.SourceEndpoint != "https://example.test/neo/3542519" {
		t.Errorf("meta endpoint = %q", resp.Meta.SourceEndpoint)
	}
}
