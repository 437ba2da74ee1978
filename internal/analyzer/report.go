package analyzer

import (
	"fmt"
	"time"

	"realcapital/server/internal/address"
	"realcapital/server/internal/models"
)

// ReportInput carries everything one analysis run collected before
// assembly: the three registry scopes in priority order, the active
// listings, and the subject profile.
type ReportInput struct {
	Address                  string
	PropertyType             string
	TransactionsStreet       []models.Transaction
	TransactionsNeighborhood []models.Transaction
	TransactionsCity         []models.Transaction
	Listings                 []models.Listing
	Subject                  Subject
}

// GenerateReport merges the scoped transaction lists (street first,
// deduplicated by address, amount and date), runs all analyses, and
// assembles the report. The AI summary and run errors are filled in by
// the orchestrator afterwards.
func GenerateReport(in ReportInput, now time.Time) *models.MarketAnalysisReport {
	parts := address.Parse(in.Address)

	var all []models.Transaction
	seen := make(map[string]struct{})
	for _, scope := range [][]models.Transaction{
		in.TransactionsStreet,
		in.TransactionsNeighborhood,
		in.TransactionsCity,
	} {
		for _, tx := range scope {
			key := dedupeKey(tx)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			all = append(all, tx)
		}
	}

	comparables := BuildComparables(all, in.Listings)

	sources := []string{"nadlan.gov.il"}
	if len(in.Listings) > 0 {
		sources = append(sources, "yad2.co.il")
	}

	return &models.MarketAnalysisReport{
		SubjectAddress:      in.Address,
		SubjectPropertyType: in.PropertyType,
		SubjectCity:         parts.City,
		SubjectNeighborhood: parts.Neighborhood,
		SubjectStreet:       parts.Street,
		Transactions:        all,
		CurrentListings:     in.Listings,
		Comparables:         comparables,
		FloorAnalysis:       AnalyzeFloorPrices(all),
		BuildingAge:         AnalyzeBuildingAge(all, now),
		PriceTrends:         AnalyzePriceTrends(all),
		ValueEstimate:       EstimateValue(comparables, in.Subject, now),
		ReportDate:          now,
		DataSourcesUsed:     sources,
	}
}

func dedupeKey(tx models.Transaction) string {
	date := ""
	if tx.DealDate != nil {
		date = tx.DealDate.Format("2006-01-02")
	}
	return fmt.Sprintf("%s_%.0f_%s", tx.Address, tx.DealAmount, date)
}
