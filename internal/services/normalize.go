package services

import (
	"math"
	"sort"
	"strconv"

	"cosmicwatch/internal/domain"
)

// toFloat coerces an upstream JSON value to a float. Absent or unparsable
// values become nil, never an error.
func toFloat(v any) *float64 {
	switch val := v.(type) {
	case float64:
		return &val
	case int:
		f := float64(val)
		return &f
	case string:
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return &f
		}
		return nil
	default:
		return nil
	}
}

// toBool treats anything that is not a JSON boolean true as false.
func toBool(v any) bool {
	b, ok := v.(bool)
	return ok && b
}

func roundTo(v float64, decimals int) float64 {
	factor := math.Pow(10, float64(decimals))
	return math.Round(v*factor) / factor
}

func roundPtr(v *float64, decimals int) *float64 {
	if v == nil {
		return nil
	}
	r := roundTo(*v, decimals)
	return &r
}

// riskAnalysis computes the deterministic risk score and category for one
// asteroid. Missing inputs contribute zero points to their dimension. The
// maximum possible score is 125.
func riskAnalysis(diameterM, missDistanceKm, velocityKps *float64, hazardous bool) (int, string) {
	score := 0
	if hazardous {
		score += 50
	}

	if diameterM != nil {
		switch {
		case *diameterM >= 1000:
			score += 30
		case *diameterM >= 300:
			score += 20
		case *diameterM >= 140:
			score += 10
		}
	}

	if missDistanceKm != nil {
		switch {
		case *missDistanceKm <= 750000:
			score += 30
		case *missDistanceKm <= 3000000:
			score += 20
		case *missDistanceKm <= 7500000:
			score += 10
		}
	}

	if velocityKps != nil {
		switch {
		case *velocityKps >= 25:
			score += 15
		case *velocityKps >= 15:
			score += 10
		case *velocityKps >= 8:
			score += 5
		}
	}

	switch {
	case score >= 70:
		return score, "High"
	case score >= 40:
		return score, "Medium"
	default:
		return score, "Low"
	}
}

// pickCloseApproach selects the entry that best represents the record:
// the entry matching the feed date around Earth, else the first Earth entry,
// else the first entry, else an empty placeholder with a nil index.
func pickCloseApproach(asteroid *domain.RawAsteroid, approachDate string) (*int, domain.RawCloseApproach) {
	entries := asteroid.CloseApproachData
	for i, entry := range entries {
		if entry.CloseApproachDate == approachDate && entry.OrbitingBody == "Earth" {
			idx := i
			return &idx, entry
		}
	}
	for i, entry := range entries {
		if entry.OrbitingBody == "Earth" {
			idx := i
			return &idx, entry
		}
	}
	if len(entries) > 0 {
		idx := 0
		return &idx, entries[0]
	}
	return nil, domain.RawCloseApproach{}
}

// averageDiameterM derives the mean of the estimated diameter bounds in
// meters. With a single bound present that bound is used; with none, nil.
func averageDiameterM(asteroid *domain.RawAsteroid) *float64 {
	meters := asteroid.EstimatedDiameter["meters"]
	minD := toFloat(meters.EstimatedDiameterMin)
	maxD := toFloat(meters.EstimatedDiameterMax)
	switch {
	case minD != nil && maxD != nil:
		avg := (*minD + *maxD) / 2
		return &avg
	case maxD != nil:
		return maxD
	case minD != nil:
		return minD
	default:
		return nil
	}
}

// normalizeFeedPayload flattens a raw by-date feed payload into risk-scored
// items sorted by score descending. The sort is stable and dates are walked
// in calendar order, so equal scores keep their encounter order.
func normalizeFeedPayload(payload *domain.RawFeedPayload) []domain.NormalizedAsteroid {
	dates := make([]string, 0, len(payload.NearEarthObjects))
	for day := range payload.NearEarthObjects {
		dates = append(dates, day)
	}
	sort.Strings(dates)

	items := make([]domain.NormalizedAsteroid, 0, payload.ElementCount)
	for _, day := range dates {
		for i := range payload.NearEarthObjects[day] {
			asteroid := &payload.NearEarthObjects[day][i]
			closeIdx, closeData := pickCloseApproach(asteroid, day)

			avgDiameterM := averageDiameterM(asteroid)
			velocityKps := toFloat(closeData.RelativeVelocity["kilometers_per_second"])
			missDistanceKm := toFloat(closeData.MissDistance["kilometers"])
			hazardous := toBool(asteroid.IsPotentiallyHazardous)

			score, category := riskAnalysis(avgDiameterM, missDistanceKm, velocityKps, hazardous)

			approachDate := closeData.CloseApproachDate
			if approachDate == "" {
				approachDate = day
			}
			orbitingBody := closeData.OrbitingBody
			if orbitingBody == "" {
				orbitingBody = "Earth"
			}

			items = append(items, domain.NormalizedAsteroid{
				ID:                     asteroid.ID,
				Name:                   asteroid.Name,
				NasaJplURL:             asteroid.NasaJplURL,
				CloseApproachDate:      approachDate,
				OrbitingBody:           orbitingBody,
				EstimatedDiameterM:     roundPtr(avgDiameterM, 3),
				EstimatedDiameterKm:    roundPtr(scalePtr(avgDiameterM, 1.0/1000), 6),
				RelativeVelocityKps:    roundPtr(velocityKps, 6),
				RelativeVelocityKph:    roundPtr(scalePtr(velocityKps, 3600), 3),
				MissDistanceKm:         roundPtr(missDistanceKm, 3),
				IsPotentiallyHazardous: hazardous,
				RiskScore:              score,
				RiskCategory:           category,
				SourceRecord: domain.SourceRecord{
					NeoReferenceID:     asteroid.NeoReferenceID,
					CloseApproachIndex: closeIdx,
				},
			})
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].RiskScore > items[j].RiskScore
	})
	return items
}

func scalePtr(v *float64, factor float64) *float64 {
	if v == nil {
		return nil
	}
	scaled := *v * factor
	return &scaled
}

// normalizeLookupPayload normalizes a single lookup record. The first
// close-approach entry represents the record; orbital elements are carried
// through with the same null-tolerant parsing as everything else.
func normalizeLookupPayload(payload *domain.RawAsteroid) *domain.LookupAsteroid {
	avgDiameterM := averageDiameterM(payload)

	var approachDate, orbitingBody *string
	var velocityKps, missDistanceKm *float64
	if len(payload.CloseApproachData) > 0 {
		closeData := payload.CloseApproachData[0]
		approachDate = &closeData.CloseApproachDate
		orbitingBody = &closeData.OrbitingBody
		velocityKps = toFloat(closeData.RelativeVelocity["kilometers_per_second"])
		missDistanceKm = toFloat(closeData.MissDistance["kilometers"])
	}

	hazardous := toBool(payload.IsPotentiallyHazardous)
	score, category := riskAnalysis(avgDiameterM, missDistanceKm, velocityKps, hazardous)

	orbital := payload.OrbitalData
	return &domain.LookupAsteroid{
		ID:                     payload.ID,
		Name:                   payload.Name,
		NasaJplURL:             payload.NasaJplURL,
		CloseApproachDate:      approachDate,
		OrbitingBody:           orbitingBody,
		EstimatedDiameterM:     roundPtr(avgDiameterM, 3),
		EstimatedDiameterKm:    roundPtr(scalePtr(avgDiameterM, 1.0/1000), 6),
		RelativeVelocityKps:    roundPtr(velocityKps, 6),
		RelativeVelocityKph:    roundPtr(scalePtr(velocityKps, 3600), 3),
		MissDistanceKm:         roundPtr(missDistanceKm, 3),
		IsPotentiallyHazardous: hazardous,
		RiskScore:              score,
		RiskCategory:           category,
		RawCloseApproachCount:  len(payload.CloseApproachData),
		OrbitalElements: domain.OrbitalElements{
			SemiMajorAxisAu:           toFloat(orbital["semi_major_axis"]),
			Eccentricity:              toFloat(orbital["eccentricity"]),
			InclinationDeg:            toFloat(orbital["inclination"]),
			AscendingNodeLongitudeDeg: toFloat(orbital["ascending_node_longitude"]),
			PerihelionArgumentDeg:     toFloat(orbital["perihelion_argument"]),
			MeanAnomalyDeg:            toFloat(orbital["mean_anomaly"]),
			MeanMotionDegPerDay:       toFloat(orbital["mean_motion"]),
			EpochOsculation:           orbital["epoch_osculation"],
		},
	}
}
