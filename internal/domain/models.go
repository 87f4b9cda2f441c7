// Package domain provides domain models for the application
package domain

import (
	"time"
)

// RawFeedPayload is the NeoWs feed payload shape: asteroid records grouped
// by calendar date, plus provider pagination metadata.
type RawFeedPayload struct {
	Links            map[string]any           `json:"links"`
	ElementCount     int                      `json:"element_count"`
	NearEarthObjects map[string][]RawAsteroid `json:"near_earth_objects"`
}

// EmptyFeedPayload returns a payload with no records and empty metadata.
func EmptyFeedPayload() *RawFeedPayload {
	return &RawFeedPayload{
		Links:            map[string]any{},
		ElementCount:     0,
		NearEarthObjects: map[string][]RawAsteroid{},
	}
}

// RawAsteroid is one upstream asteroid record. Numeric fields are kept as
// `any` because the provider is not consistent about types; normalization
// degrades anything unparsable to null rather than failing.
type RawAsteroid struct {
	ID                     string                      `json:"id"`
	NeoReferenceID         string                      `json:"neo_reference_id"`
	Name                   string                      `json:"name"`
	NasaJplURL             string                      `json:"nasa_jpl_url"`
	EstimatedDiameter      map[string]RawDiameterRange `json:"estimated_diameter"`
	IsPotentiallyHazardous any                         `json:"is_potentially_hazardous_asteroid"`
	CloseApproachData      []RawCloseApproach          `json:"close_approach_data"`
	OrbitalData            map[string]any              `json:"orbital_data"`
}

// RawDiameterRange holds estimated diameter bounds for one unit.
type RawDiameterRange struct {
	EstimatedDiameterMin any `json:"estimated_diameter_min"`
	EstimatedDiameterMax any `json:"estimated_diameter_max"`
}

// RawCloseApproach is one close-approach entry of an asteroid record.
type RawCloseApproach struct {
	CloseApproachDate string         `json:"close_approach_date"`
	OrbitingBody      string         `json:"orbiting_body"`
	RelativeVelocity  map[string]any `json:"relative_velocity"`
	MissDistance      map[string]any `json:"miss_distance"`
}

// SourceRecord carries provenance for a normalized item.
type SourceRecord struct {
	NeoReferenceID     string `json:"neo_reference_id"`
	CloseApproachIndex *int   `json:"close_approach_index"`
}

// NormalizedAsteroid is one feed item after normalization and risk scoring.
// Derived numeric fields are nullable; risk score and category always exist.
type NormalizedAsteroid struct {
	ID                     string       `json:"id"`
	Name                   string       `json:"name"`
	NasaJplURL             string       `json:"nasa_jpl_url"`
	CloseApproachDate      string       `json:"close_approach_date"`
	OrbitingBody           string       `json:"orbiting_body"`
	EstimatedDiameterM     *float64     `json:"estimated_diameter_m"`
	EstimatedDiameterKm    *float64     `json:"estimated_diameter_km"`
	RelativeVelocityKps    *float64     `json:"relative_velocity_kps"`
	RelativeVelocityKph    *float64     `json:"relative_velocity_kph"`
	MissDistanceKm         *float64     `json:"miss_distance_km"`
	IsPotentiallyHazardous bool         `json:"is_potentially_hazardous"`
	RiskScore              int          `json:"risk_score"`
	RiskCategory           string       `json:"risk_category"`
	SourceRecord           SourceRecord `json:"source_record"`
}

// OrbitalElements carries the orbital parameters exposed on lookups.
type OrbitalElements struct {
	SemiMajorAxisAu           *float64 `json:"semi_major_axis_au"`
	Eccentricity              *float64 `json:"eccentricity"`
	InclinationDeg            *float64 `json:"inclination_deg"`
	AscendingNodeLongitudeDeg *float64 `json:"ascending_node_longitude_deg"`
	PerihelionArgumentDeg     *float64 `json:"perihelion_argument_deg"`
	MeanAnomalyDeg            *float64 `json:"mean_anomaly_deg"`
	MeanMotionDegPerDay       *float64 `json:"mean_motion_deg_per_day"`
	EpochOsculation           any      `json:"epoch_osculation"`
}

// LookupAsteroid is a single-asteroid lookup after normalization.
type LookupAsteroid struct {
	ID                     string          `json:"id"`
	Name                   string          `json:"name"`
	NasaJplURL             string          `json:"nasa_jpl_url"`
	CloseApproachDate      *string         `json:"close_approach_date"`
	OrbitingBody           *string         `json:"orbiting_body"`
	EstimatedDiameterM     *float64        `json:"estimated_diameter_m"`
	EstimatedDiameterKm    *float64        `json:"estimated_diameter_km"`
	RelativeVelocityKps    *float64        `json:"relative_velocity_kps"`
	RelativeVelocityKph    *float64        `json:"relative_velocity_kph"`
	MissDistanceKm         *float64        `json:"miss_distance_km"`
	IsPotentiallyHazardous bool            `json:"is_potentially_hazardous"`
	RiskScore              int             `json:"risk_score"`
	RiskCategory           string          `json:"risk_category"`
	RawCloseApproachCount  int             `json:"raw_close_approach_count"`
	OrbitalElements        OrbitalElements `json:"orbital_elements"`
}

// Normalization documents the unit and null conventions of responses.
type Normalization struct {
	DiameterUnit            string `json:"diameter_unit"`
	VelocityUnit            string `json:"velocity_unit"`
	DistanceUnit            string `json:"distance_unit"`
	CloseApproachDateFormat string `json:"close_approach_date_format"`
	NullPolicy              string `json:"null_policy"`
}

// Meta is the metadata block attached to every feed/lookup response.
type Meta struct {
	Source            string        `json:"source"`
	SourceEndpoint    string        `json:"source_endpoint"`
	SourceFormat      string        `json:"source_format"`
	RetrievedAtUTC    string        `json:"retrieved_at_utc"`
	ProcessingVersion string        `json:"processing_version"`
	Normalization     Normalization `json:"normalization"`
}

// FeedResponse is the public envelope for a date-range feed request.
type FeedResponse struct {
	Meta          Meta                 `json:"meta"`
	StartDate     string               `json:"start_date"`
	EndDate       string               `json:"end_date"`
	AsteroidCount int                  `json:"asteroid_count"`
	Items         []NormalizedAsteroid `json:"items"`
}

// LookupResponse is the public envelope for a single-asteroid lookup.
type LookupResponse struct {
	Meta Meta            `json:"meta"`
	Item *LookupAsteroid `json:"item"`
}

// TodaySummary aggregates today's feed by risk category.
type TodaySummary struct {
	Date       string `json:"date"`
	Total      int    `json:"total"`
	HighRisk   int    `json:"high_risk"`
	MediumRisk int    `json:"medium_risk"`
	LowRisk    int    `json:"low_risk"`
}

// User is a registered account.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// WatchlistItem is one saved asteroid on a user's watchlist.
type WatchlistItem struct {
	AsteroidID        string    `json:"asteroid_id"`
	AsteroidName      string    `json:"asteroid_name"`
	RiskCategory      *string   `json:"risk_category"`
	RiskScore         *int      `json:"risk_score"`
	CloseApproachDate *string   `json:"close_approach_date"`
	CreatedAt         time.Time `json:"created_at"`
}

// TokenResponse is returned by register and login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        User   `json:"user"`
}

// RegisterRequest is the register payload.
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,min=5,max=255"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// WatchItemUpsert is the watchlist create/update payload.
type WatchItemUpsert struct {
	AsteroidID        string  `json:"asteroid_id" binding:"required,max=64"`
	AsteroidName      string  `json:"asteroid_name" binding:"required,max=255"`
	RiskCategory      *string `json:"risk_category" binding:"omitempty,max=32"`
	RiskScore         *int    `json:"risk_score"`
	CloseApproachDate *string `json:"close_approach_date" binding:"omitempty,max=32"`
}

// Health represents health check response
type Health struct {
	Status string    `json:"status"`
	Now    time.Time `json:"now"`
}

// ApiError represents an error response
type ApiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorBody wraps an ApiError in the response envelope.
type ErrorBody struct {
	Error ApiError `json:"error"`
}

// ErrorResponse creates an error response body
func ErrorResponse(code, message string) ErrorBody {
	return ErrorBody{Error: ApiError{Code: code, Message: message}}
}
