// Package orchestrator sequences one full market analysis run: address
// resolution, scoped transaction fetches, listing search, analysis, and
// the optional AI narrative. Steps run sequentially with pacing between
// registry scopes; any source failure degrades to an empty step result
// and a recorded message, never an aborted run.
package orchestrator

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"realcapital/server/internal/address"
	"realcapital/server/internal/analyzer"
	"realcapital/server/internal/models"
	"realcapital/server/internal/yad2"
)

// State is one stage of the analysis pipeline.
type State int

const (
	StateResolving State = iota
	StateFetchingStreet
	StateFetchingNeighborhood
	StateFetchingCity
	StateFetchingListings
	StateAnalyzing
	StateSummarizing
	StateDone
)

func (s State) String() string {
	switch s {
	case StateResolving:
		return "resolving"
	case StateFetchingStreet:
		return "fetching_street"
	case StateFetchingNeighborhood:
		return "fetching_neighborhood"
	case StateFetchingCity:
		return "fetching_city"
	case StateFetchingListings:
		return "fetching_listings"
	case StateAnalyzing:
		return "analyzing"
	case StateSummarizing:
		return "summarizing"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// ProgressObserver receives pipeline stage transitions. Fractions are
// monotonically non-decreasing and end at 1.0. Publish is fire-and-forget;
// observer panics are isolated from the pipeline.
type ProgressObserver interface {
	Publish(message string, fraction float64)
}

// ProgressFunc adapts a plain function to the observer interface.
type ProgressFunc func(message string, fraction float64)

func (f ProgressFunc) Publish(message string, fraction float64) { f(message, fraction) }

// TransactionSource is the registry client surface the pipeline needs.
type TransactionSource interface {
	GetTransactionsForAddress(ctx context.Context, addr string, maxPages, roomFilter int) []models.Transaction
	SearchNeighborhood(ctx context.Context, city, neighborhood string) []models.Transaction
	SearchCity(ctx context.Context, city string) []models.Transaction
}

// ListingSource is the marketplace client surface the pipeline needs.
type ListingSource interface {
	SearchSimilar(ctx context.Context, subject yad2.Subject) []models.Listing
}

// Summarizer narrates a finished report. Implementations never fail;
// they return a placeholder instead.
type Summarizer interface {
	Summarize(ctx context.Context, report *models.MarketAnalysisReport) string
}

// Request describes one analysis run. Optional subject details improve
// estimation accuracy when present.
type Request struct {
	Address      string   `json:"address"`
	PropertyType string   `json:"property_type"`
	Rooms        *float64 `json:"rooms"`
	Floor        *int     `json:"floor"`
	SizeSqm      *float64 `json:"size_sqm"`
	BuildingYear *int     `json:"building_year"`
	Price        *float64 `json:"price"`
	IncludeAI    bool     `json:"include_ai"`
}

// Orchestrator runs analysis pipelines. Runs are isolated; the only
// shared state is the source clients' pacing.
type Orchestrator struct {
	transactions TransactionSource
	listings     ListingSource
	summarizer   Summarizer
	logger       *logrus.Logger

	// pause between registry scopes, overridable in tests
	scopePause time.Duration
	now        func() time.Time
}

// New creates an orchestrator over the given collaborators.
func New(transactions TransactionSource, listings ListingSource, summarizer Summarizer, logger *logrus.Logger) *Orchestrator {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Orchestrator{
		transactions: transactions,
		listings:     listings,
		summarizer:   summarizer,
		logger:       logger,
		scopePause:   time.Second,
		now:          time.Now,
	}
}

// Run executes the full pipeline and always returns a report, even when
// every external source failed; the caller detects an all-empty report
// from its collections.
func (o *Orchestrator) Run(ctx context.Context, req Request, obs ProgressObserver) *models.MarketAnalysisReport {
	progress := func(state State, msg string, fraction float64) {
		o.logger.WithFields(logrus.Fields{
			"state":    state.String(),
			"progress": fraction,
		}).Info(msg)
		if obs == nil {
			return
		}
		func() {
			// Observer failures are the caller's bug, not the pipeline's.
			defer func() {
				if r := recover(); r != nil {
					o.logger.WithField("panic", r).Warn("Progress observer panicked")
				}
			}()
			obs.Publish(msg, fraction)
		}()
	}

	progress(StateResolving, "Starting market analysis", 0.0)

	parts := address.Parse(req.Address)
	var errors []string

	// Street scope
	progress(StateFetchingStreet, "Fetching street-level transactions", 0.05)
	txStreet := o.transactions.GetTransactionsForAddress(ctx, req.Address, 5, 0)
	if len(txStreet) == 0 {
		errors = append(errors, fmt.Sprintf("no street-level transactions found for %q", req.Address))
	}
	progress(StateFetchingStreet, fmt.Sprintf("Found %d street-level transactions", len(txStreet)), 0.15)

	o.pause(ctx)

	// Neighborhood scope
	var txNeighborhood []models.Transaction
	if parts.City != "" && parts.Neighborhood != "" {
		progress(StateFetchingNeighborhood, fmt.Sprintf("Fetching transactions for neighborhood %s", parts.Neighborhood), 0.20)
		txNeighborhood = o.transactions.SearchNeighborhood(ctx, parts.City, parts.Neighborhood)
		if len(txNeighborhood) == 0 {
			errors = append(errors, fmt.Sprintf("no transactions found for neighborhood %q", parts.Neighborhood))
		}
		progress(StateFetchingNeighborhood, fmt.Sprintf("Found %d neighborhood transactions", len(txNeighborhood)), 0.30)
		o.pause(ctx)
	}

	// City scope
	var txCity []models.Transaction
	if parts.City != "" {
		progress(StateFetchingCity, fmt.Sprintf("Fetching transactions for city %s", parts.City), 0.35)
		txCity = o.transactions.SearchCity(ctx, parts.City)
		if len(txCity) == 0 {
			errors = append(errors, fmt.Sprintf("no transactions found for city %q", parts.City))
		}
		progress(StateFetchingCity, fmt.Sprintf("Found %d city transactions", len(txCity)), 0.45)
	}

	// Listings
	progress(StateFetchingListings, "Fetching current listings", 0.50)
	var listings []models.Listing
	if parts.City != "" {
		listings = o.listings.SearchSimilar(ctx, yad2.Subject{
			City:         parts.City,
			PropertyType: req.PropertyType,
			Rooms:        req.Rooms,
			Price:        req.Price,
			Neighborhood: parts.Neighborhood,
		})
		if len(listings) == 0 {
			errors = append(errors, fmt.Sprintf("no active listings found in %q", parts.City))
		}
	}
	progress(StateFetchingListings, fmt.Sprintf("Found %d current listings", len(listings)), 0.60)

	// Analysis
	progress(StateAnalyzing, "Analyzing market data", 0.65)
	report := analyzer.GenerateReport(analyzer.ReportInput{
		Address:                  req.Address,
		PropertyType:             req.PropertyType,
		TransactionsStreet:       txStreet,
		TransactionsNeighborhood: txNeighborhood,
		TransactionsCity:         txCity,
		Listings:                 listings,
		Subject: analyzer.Subject{
			Rooms:        req.Rooms,
			Floor:        req.Floor,
			SizeSqm:      req.SizeSqm,
			BuildingYear: req.BuildingYear,
		},
	}, o.now())
	report.Errors = errors
	progress(StateAnalyzing, "Analysis complete", 0.75)

	// Narrative
	if req.IncludeAI {
		progress(StateSummarizing, "Generating AI summary", 0.80)
		report.AISummary = o.summarizer.Summarize(ctx, report)
		progress(StateSummarizing, "AI summary complete", 0.95)
	}

	progress(StateDone, "Report ready", 1.0)

	o.logger.WithFields(logrus.Fields{
		"transactions": report.TotalTransactions(),
		"listings":     report.TotalListings(),
		"comparables":  len(report.Comparables),
		"errors":       len(report.Errors),
	}).Info("Market analysis complete")

	return report
}

func (o *Orchestrator) pause(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(o.scopePause):
	}
}
