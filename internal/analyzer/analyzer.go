// Package analyzer turns raw transaction and listing collections into
// price statistics and a weighted-comparables value estimate. Every
// function is pure and stateless; the reference time is injected so
// results are reproducible.
package analyzer

import (
	"fmt"
	"math"
	"sort"
	"time"

	"realcapital/server/internal/models"
)

// Building-age brackets, years since construction.
var ageBrackets = []struct {
	label string
	low   int
	high  int
}{
	{"חדש (0-5 שנים)", 0, 5},
	{"חדש יחסית (6-15 שנים)", 6, 15},
	{"ותיק (16-30 שנים)", 16, 30},
	{"ישן (30+ שנים)", 31, 200},
}

// BuildComparables merges closed sales and active listings into the
// source-agnostic comparable shape used by the estimator.
func BuildComparables(transactions []models.Transaction, listings []models.Listing) []models.ComparableProperty {
	comparables := make([]models.ComparableProperty, 0, len(transactions)+len(listings))

	for i := range transactions {
		tx := &transactions[i]
		comparables = append(comparables, models.ComparableProperty{
			Source:       "nadlan.gov.il",
			Address:      tx.Address,
			Price:        tx.DealAmount,
			Rooms:        tx.Rooms,
			Floor:        tx.Floor,
			SizeSqm:      tx.SizeSqm,
			BuildingYear: tx.BuildingYear,
			DealDate:     tx.DealDate,
			PropertyType: tx.PropertyType,
			IsListed:     false,
		})
	}

	for i := range listings {
		l := &listings[i]
		comparables = append(comparables, models.ComparableProperty{
			Source:       "yad2",
			Address:      l.Address,
			Price:        l.Price,
			Rooms:        l.Rooms,
			Floor:        l.Floor,
			SizeSqm:      l.SizeSqm,
			BuildingYear: l.BuildingYear,
			DealDate:     l.DateListed,
			PropertyType: l.PropertyType,
			IsListed:     true,
		})
	}

	return comparables
}

// AnalyzeFloorPrices groups priced transactions by floor and emits one
// row per floor with at least one transaction carrying both a size and
// an amount, sorted by floor ascending.
func AnalyzeFloorPrices(transactions []models.Transaction) []models.FloorPriceAnalysis {
	byFloor := make(map[int][]*models.Transaction)
	for i := range transactions {
		tx := &transactions[i]
		if tx.Floor != nil && tx.DealAmount > 0 {
			byFloor[*tx.Floor] = append(byFloor[*tx.Floor], tx)
		}
	}

	floors := make([]int, 0, len(byFloor))
	for floor := range byFloor {
		floors = append(floors, floor)
	}
	sort.Ints(floors)

	var results []models.FloorPriceAnalysis
	for _, floor := range floors {
		txs := byFloor[floor]

		var sqmSum, totalSum float64
		var sqmCount int
		for _, tx := range txs {
			if p := tx.PricePerSqm(); p != nil {
				sqmSum += *p
				sqmCount++
			}
			totalSum += tx.DealAmount
		}

		if sqmCount == 0 {
			continue
		}

		results = append(results, models.FloorPriceAnalysis{
			Floor:            floor,
			AvgPricePerSqm:   math.Round(sqmSum / float64(sqmCount)),
			TransactionCount: len(txs),
			AvgTotalPrice:    math.Round(totalSum / float64(len(txs))),
		})
	}

	return results
}

// AnalyzeBuildingAge buckets transactions with a plausible construction
// year into fixed age brackets. The premium percentage of a bracket is
// relative to the mean across all bracketed transactions, not the global
// input mean.
func AnalyzeBuildingAge(transactions []models.Transaction, now time.Time) []models.BuildingAgeAnalysis {
	currentYear := now.Year()

	bucketed := make([][]*models.Transaction, len(ageBrackets))
	for i := range transactions {
		tx := &transactions[i]
		if tx.BuildingYear == nil || *tx.BuildingYear <= 1900 || tx.DealAmount <= 0 {
			continue
		}
		age := currentYear - *tx.BuildingYear
		for b, bracket := range ageBrackets {
			if age >= bracket.low && age <= bracket.high {
				bucketed[b] = append(bucketed[b], tx)
				break
			}
		}
	}

	var overallSum float64
	var overallCount int
	for _, txs := range bucketed {
		for _, tx := range txs {
			if p := tx.PricePerSqm(); p != nil {
				overallSum += *p
				overallCount++
			}
		}
	}
	var overallAvg float64
	if overallCount > 0 {
		overallAvg = overallSum / float64(overallCount)
	}

	var results []models.BuildingAgeAnalysis
	for b, bracket := range ageBrackets {
		txs := bucketed[b]
		if len(txs) == 0 {
			continue
		}

		var sqmSum float64
		var sqmCount int
		var yearSum, yearCount int
		for _, tx := range txs {
			if p := tx.PricePerSqm(); p != nil {
				sqmSum += *p
				sqmCount++
			}
			if tx.BuildingYear != nil {
				yearSum += *tx.BuildingYear
				yearCount++
			}
		}
		if sqmCount == 0 {
			continue
		}

		avgSqm := sqmSum / float64(sqmCount)

		var premium *float64
		if overallAvg > 0 {
			p := roundTo1((avgSqm - overallAvg) / overallAvg * 100)
			premium = &p
		}

		var avgYear *int
		if yearCount > 0 {
			y := int(math.Round(float64(yearSum) / float64(yearCount)))
			avgYear = &y
		}

		results = append(results, models.BuildingAgeAnalysis{
			Category:         bracket.label,
			AvgPricePerSqm:   math.Round(avgSqm),
			TransactionCount: len(txs),
			AvgBuildingYear:  avgYear,
			PricePremiumPct:  premium,
		})
	}

	return results
}

// AnalyzePriceTrends buckets transactions carrying both a date and a
// price per sqm into calendar quarters. Quarters with no data are simply
// absent; the change percentage is against the previous populated
// quarter in chronological order, nil for the first.
func AnalyzePriceTrends(transactions []models.Transaction) []models.PriceTrend {
	byQuarter := make(map[string][]float64)
	for i := range transactions {
		tx := &transactions[i]
		p := tx.PricePerSqm()
		if tx.DealDate == nil || p == nil {
			continue
		}
		quarter := (int(tx.DealDate.Month())-1)/3 + 1
		period := fmt.Sprintf("%d-Q%d", tx.DealDate.Year(), quarter)
		byQuarter[period] = append(byQuarter[period], *p)
	}

	periods := make([]string, 0, len(byQuarter))
	for period := range byQuarter {
		periods = append(periods, period)
	}
	// "YYYY-Qn" sorts chronologically as a string.
	sort.Strings(periods)

	var results []models.PriceTrend
	var prevAvg float64
	for _, period := range periods {
		prices := byQuarter[period]
		var sum float64
		for _, p := range prices {
			sum += p
		}
		avg := math.Round(sum / float64(len(prices)))

		var change *float64
		if prevAvg > 0 {
			c := roundTo1((avg - prevAvg) / prevAvg * 100)
			change = &c
		}

		results = append(results, models.PriceTrend{
			Period:           period,
			AvgPricePerSqm:   avg,
			TransactionCount: len(prices),
			ChangePct:        change,
		})
		prevAvg = avg
	}

	return results
}

func roundTo1(f float64) float64 {
	return math.Round(f*10) / 10
}
