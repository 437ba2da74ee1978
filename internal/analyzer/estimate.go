package analyzer

import (
	"math"
	"time"

	"realcapital/server/internal/models"
)

// Subject describes the analyzed property for the estimator. Any nil
// dimension is skipped when weighting comparables.
type Subject struct {
	Rooms        *float64
	Floor        *int
	SizeSqm      *float64
	BuildingYear *int
}

const defaultSubjectSize = 80.0

// EstimateValue computes the weighted-comparables value estimate.
//
// Closed sales are preferred; active listings join the pool only when
// fewer than three closed sales carry a usable price per sqm. Each
// candidate starts at weight 1.0 and is multiplied by recency, room,
// floor, and building-age similarity factors. The mid estimate is the
// weighted mean price per sqm times the subject size (falling back to the
// candidates' mean size, then 80 sqm), banded at +/-8%.
//
// Returns nil when no usable comparable exists.
func EstimateValue(comparables []models.ComparableProperty, subject Subject, now time.Time) *models.ValueEstimation {
	valid := filterUsable(comparables, false)
	if len(valid) < 3 {
		valid = filterUsable(comparables, true)
	}
	if len(valid) == 0 {
		return nil
	}

	var weightedSum, weightSum float64
	for _, comp := range valid {
		weight := comparableWeight(comp, subject, now)
		weightedSum += *comp.PricePerSqm() * weight
		weightSum += weight
	}

	avgPriceSqm := weightedSum / weightSum

	size := defaultSubjectSize
	if subject.SizeSqm != nil && *subject.SizeSqm > 0 {
		size = *subject.SizeSqm
	} else if mean := meanSize(valid); mean > 0 {
		size = mean
	}

	midPrice := avgPriceSqm * size

	confidence := models.ConfidenceLow
	switch {
	case len(valid) >= 10:
		confidence = models.ConfidenceHigh
	case len(valid) >= 5:
		confidence = models.ConfidenceMedium
	}

	return &models.ValueEstimation{
		EstimatedPriceLow:    math.Round(midPrice * 0.92),
		EstimatedPriceMid:    math.Round(midPrice),
		EstimatedPriceHigh:   math.Round(midPrice * 1.08),
		EstimatedPricePerSqm: math.Round(avgPriceSqm),
		Confidence:           confidence,
		ComparableCount:      len(valid),
		Methodology:          "weighted average of similar transactions adjusted for size, floor, building age and recency",
	}
}

func filterUsable(comparables []models.ComparableProperty, includeListings bool) []models.ComparableProperty {
	var out []models.ComparableProperty
	for _, c := range comparables {
		if !includeListings && c.IsListed {
			continue
		}
		if c.Price > 0 && c.PricePerSqm() != nil {
			out = append(out, c)
		}
	}
	return out
}

// comparableWeight compounds the similarity and recency factors. A
// dimension missing on either side leaves the weight untouched.
func comparableWeight(comp models.ComparableProperty, subject Subject, now time.Time) float64 {
	weight := 1.0

	if comp.DealDate != nil {
		monthsAgo := now.Sub(*comp.DealDate).Hours() / 24 / 30
		switch {
		case monthsAgo <= 6:
			weight *= 1.5
		case monthsAgo <= 12:
			weight *= 1.2
		case monthsAgo > 36:
			weight *= 0.6
		}
	}

	if subject.Rooms != nil && comp.Rooms != nil {
		roomDiff := math.Abs(*subject.Rooms - *comp.Rooms)
		switch {
		case roomDiff == 0:
			weight *= 1.3
		case roomDiff <= 1:
			// within one room: no adjustment
		default:
			weight *= 0.7
		}
	}

	if subject.Floor != nil && comp.Floor != nil {
		floorDiff := abs(*subject.Floor - *comp.Floor)
		switch {
		case floorDiff <= 1:
			weight *= 1.2
		case floorDiff > 5:
			weight *= 0.8
		}
	}

	if subject.BuildingYear != nil && comp.BuildingYear != nil {
		yearDiff := abs(*subject.BuildingYear - *comp.BuildingYear)
		switch {
		case yearDiff <= 5:
			weight *= 1.2
		case yearDiff > 20:
			weight *= 0.8
		}
	}

	return weight
}

func meanSize(comparables []models.ComparableProperty) float64 {
	var sum float64
	var n int
	for _, c := range comparables {
		if c.SizeSqm != nil && *c.SizeSqm > 0 {
			sum += *c.SizeSqm
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
