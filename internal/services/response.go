package services

import (
	"time"

	"cosmicwatch/internal/domain"
)

const processingVersion = "1.0.0"

func buildMeta(sourceEndpoint string) domain.Meta {
	return domain.Meta{
		Source:            "NASA NeoWs",
		SourceEndpoint:    sourceEndpoint,
		SourceFormat:      "JSON",
		RetrievedAtUTC:    time.Now().UTC().Format(time.RFC3339Nano),
		ProcessingVersion: processingVersion,
		Normalization: domain.Normalization{
			DiameterUnit:            "m",
			VelocityUnit:            "km/s",
			DistanceUnit:            "km",
			CloseApproachDateFormat: "YYYY-MM-DD",
			NullPolicy:              "missing numeric values are returned as null",
		},
	}
}

func buildFeedResponse(endpoint string, startDate, endDate time.Time, items []domain.NormalizedAsteroid) *domain.FeedResponse {
	return &domain.FeedResponse{
		Meta:          buildMeta(endpoint),
		StartDate:     startDate.Format("2006-01-02"),
		EndDate:       endDate.Format("2006-01-02"),
		AsteroidCount: len(items),
		Items:         items,
	}
}

func buildLookupResponse(endpoint string, item *domain.LookupAsteroid) *domain.LookupResponse {
	return &domain.LookupResponse{
		Meta: buildMeta(endpoint),
		Item: item,
	}
}
