package models

import (
	"math"
	"time"
)

// Confidence tiers for the value estimation, derived from the size of the
// comparable pool.
const (
	ConfidenceLow    = "low"
	ConfidenceMedium = "medium"
	ConfidenceHigh   = "high"
)

// FloorPriceAnalysis is one row of the per-floor price breakdown. Rows are
// only produced for floors with at least one priced transaction.
type FloorPriceAnalysis struct {
	Floor            int     `json:"floor"`
	AvgPricePerSqm   float64 `json:"avg_price_per_sqm"`
	TransactionCount int     `json:"transaction_count"`
	AvgTotalPrice    float64 `json:"avg_total_price"`
}

// BuildingAgeAnalysis is one row of the building-age bracket breakdown.
// PricePremiumPct is relative to the mean across all bracketed
// transactions and is nil when that mean is zero.
type BuildingAgeAnalysis struct {
	Category         string   `json:"category"`
	AvgPricePerSqm   float64  `json:"avg_price_per_sqm"`
	TransactionCount int      `json:"transaction_count"`
	AvgBuildingYear  *int     `json:"avg_building_year"`
	PricePremiumPct  *float64 `json:"price_premium_pct"`
}

// PriceTrend is one populated calendar quarter ("2024-Q1"). ChangePct is
// against the previous populated quarter, nil for the first.
type PriceTrend struct {
	Period           string   `json:"period"`
	AvgPricePerSqm   float64  `json:"avg_price_per_sqm"`
	TransactionCount int      `json:"transaction_count"`
	ChangePct        *float64 `json:"change_pct"`
}

// ValueEstimation is the weighted-comparables estimate: mid price with a
// +/-8% band, rounded per-sqm figure, and a confidence tier.
type ValueEstimation struct {
	EstimatedPriceLow    float64 `json:"estimated_price_low"`
	EstimatedPriceMid    float64 `json:"estimated_price_mid"`
	EstimatedPriceHigh   float64 `json:"estimated_price_high"`
	EstimatedPricePerSqm float64 `json:"estimated_price_per_sqm"`
	Confidence           string  `json:"confidence"`
	ComparableCount      int     `json:"comparable_count"`
	Methodology          string  `json:"methodology"`
}

// MarketAnalysisReport is the aggregate data product of one analysis run.
// It is built once by the orchestrator and read-only afterwards, except
// for AISummary which may be filled in after the rest is final.
type MarketAnalysisReport struct {
	SubjectAddress      string `json:"subject_address"`
	SubjectPropertyType string `json:"subject_property_type"`
	SubjectCity         string `json:"subject_city"`
	SubjectNeighborhood string `json:"subject_neighborhood"`
	SubjectStreet       string `json:"subject_street"`

	Transactions    []Transaction        `json:"transactions"`
	CurrentListings []Listing            `json:"current_listings"`
	Comparables     []ComparableProperty `json:"comparables"`

	FloorAnalysis   []FloorPriceAnalysis  `json:"floor_analysis"`
	BuildingAge     []BuildingAgeAnalysis `json:"building_age_analysis"`
	PriceTrends     []PriceTrend          `json:"price_trends"`
	ValueEstimate   *ValueEstimation      `json:"value_estimation"`
	AISummary       string                `json:"ai_summary"`
	ReportDate      time.Time             `json:"report_date"`
	DataSourcesUsed []string              `json:"data_sources_used"`
	Errors          []string              `json:"errors"`
}

// AvgPricePerSqmStreet is the mean price per sqm across the report's
// transaction collection, or nil when no transaction carries one.
func (r *MarketAnalysisReport) AvgPricePerSqmStreet() *float64 {
	var sum float64
	var n int
	for i := range r.Transactions {
		if p := r.Transactions[i].PricePerSqm(); p != nil {
			sum += *p
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := math.Round(sum / float64(n))
	return &avg
}

func (r *MarketAnalysisReport) TotalTransactions() int { return len(r.Transactions) }

func (r *MarketAnalysisReport) TotalListings() int { return len(r.CurrentListings) }
