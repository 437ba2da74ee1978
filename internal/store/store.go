// Package store is the session-level transaction cache: registry fetches
// and manually imported registry exports are kept in a local sqlite
// database so an agent can filter and re-use comparables across analyses
// without re-scraping. It is a cache, not a system of record.
package store

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"realcapital/server/internal/models"
)

// Record is one cached transaction row. The synthetic ID keys dedupe
// across repeated fetches of the same registry data.
type Record struct {
	ID           string     `gorm:"primaryKey" json:"id"`
	Source       string     `json:"source"`
	Address      string     `json:"address"`
	Street       string     `json:"street"`
	City         string     `json:"city"`
	Neighborhood string     `json:"neighborhood"`
	Lat          *float64   `json:"lat"`
	Lng          *float64   `json:"lng"`
	PropertyType string     `json:"property_type"`
	Rooms        *float64   `json:"rooms"`
	Floor        *int       `json:"floor"`
	SizeSqm      *float64   `json:"size_sqm"`
	BuildingYear *int       `json:"building_year"`
	DealAmount   float64    `json:"deal_amount"`
	DealDate     *time.Time `json:"deal_date"`
	DealNature   string     `json:"deal_nature"`
	Gush         string     `json:"gush"`
	Parcel       string     `json:"parcel"`
	SourceRef    string     `json:"source_ref"`
	ImportedAt   time.Time  `json:"imported_at"`
}

func (Record) TableName() string { return "transactions" }

// PricePerSqm returns the deal amount per square meter, or nil.
func (r *Record) PricePerSqm() *float64 {
	if r.SizeSqm == nil || *r.SizeSqm <= 0 || r.DealAmount <= 0 {
		return nil
	}
	p := r.DealAmount / *r.SizeSqm
	return &p
}

// Filter restricts ListTransactions. Zero values skip the dimension.
// Radius filtering needs all three of RadiusKm, CenterLat and CenterLng
// and only matches records carrying coordinates.
type Filter struct {
	City         string
	Street       string
	PropertyType string
	MinRooms     *float64
	MaxRooms     *float64
	MinSqm       *float64
	MaxSqm       *float64
	MinPrice     *float64
	MaxPrice     *float64
	DateFrom     *time.Time
	DateTo       *time.Time
	RadiusKm     *float64
	CenterLat    *float64
	CenterLng    *float64
}

// Store wraps the sqlite cache.
type Store struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewStore opens (or creates) the cache database and migrates its schema.
func NewStore(dbPath string, logger *logrus.Logger) (*Store, error) {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}

	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("migrate cache schema: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// SaveTransactions caches registry transactions, skipping rows already
// present (dedupe by gush/parcel/date identity). Returns how many rows
// were newly inserted.
func (s *Store) SaveTransactions(transactions []models.Transaction) (int, error) {
	if len(transactions) == 0 {
		return 0, nil
	}

	records := make([]Record, 0, len(transactions))
	for i := range transactions {
		records = append(records, fromTransaction(&transactions[i]))
	}

	result := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&records)
	if result.Error != nil {
		return 0, fmt.Errorf("cache transactions: %w", result.Error)
	}

	s.logger.WithFields(logrus.Fields{
		"offered":  len(records),
		"inserted": result.RowsAffected,
	}).Info("Cached transactions")

	return int(result.RowsAffected), nil
}

// ListTransactions returns cached rows matching the filter, newest deal
// first. The SQL-expressible dimensions run in the query; the radius
// filter runs in memory over the result.
func (s *Store) ListTransactions(f Filter) ([]Record, error) {
	q := s.db.Model(&Record{})

	if f.City != "" {
		q = q.Where("city LIKE ?", "%"+f.City+"%")
	}
	if f.Street != "" {
		q = q.Where("street LIKE ?", "%"+f.Street+"%")
	}
	if f.PropertyType != "" {
		q = q.Where("property_type = ?", f.PropertyType)
	}
	if f.MinRooms != nil {
		q = q.Where("rooms >= ?", *f.MinRooms)
	}
	if f.MaxRooms != nil {
		q = q.Where("rooms <= ?", *f.MaxRooms)
	}
	if f.MinSqm != nil {
		q = q.Where("size_sqm >= ?", *f.MinSqm)
	}
	if f.MaxSqm != nil {
		q = q.Where("size_sqm <= ?", *f.MaxSqm)
	}
	if f.MinPrice != nil {
		q = q.Where("deal_amount >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("deal_amount <= ?", *f.MaxPrice)
	}
	if f.DateFrom != nil {
		q = q.Where("deal_date >= ?", *f.DateFrom)
	}
	if f.DateTo != nil {
		q = q.Where("deal_date <= ?", *f.DateTo)
	}

	var records []Record
	if err := q.Order("deal_date DESC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list cached transactions: %w", err)
	}

	if f.RadiusKm != nil && f.CenterLat != nil && f.CenterLng != nil {
		center := orb.Point{*f.CenterLng, *f.CenterLat}
		filtered := records[:0]
		for _, r := range records {
			if r.Lat == nil || r.Lng == nil {
				continue
			}
			if geo.Distance(orb.Point{*r.Lng, *r.Lat}, center) <= *f.RadiusKm*1000 {
				filtered = append(filtered, r)
			}
		}
		records = filtered
	}

	return records, nil
}

// Clear empties the cache.
func (s *Store) Clear() error {
	if err := s.db.Where("1 = 1").Delete(&Record{}).Error; err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	return nil
}

// CompsSummary are the headline statistics of a selected comparable set.
type CompsSummary struct {
	Count           int      `json:"count"`
	AvgPrice        float64  `json:"avg_price"`
	MedianPrice     float64  `json:"median_price"`
	AvgPricePerSqm  float64  `json:"avg_price_per_sqm"`
	MinPrice        float64  `json:"min_price"`
	MaxPrice        float64  `json:"max_price"`
	Confidence      string   `json:"confidence"`
	EstimatedValue  *float64 `json:"estimated_value"`
	SubjectDeltaPct *float64 `json:"subject_delta_pct"`
}

// SummarizeComps computes comparable statistics over records with a
// positive amount. When a subject size is known the average per-sqm
// yields an estimated value; with a subject price also known, the delta
// between asking and estimate.
func SummarizeComps(records []Record, subjectPrice, subjectSqm *float64) CompsSummary {
	var valid []Record
	for _, r := range records {
		if r.DealAmount > 0 {
			valid = append(valid, r)
		}
	}
	if len(valid) == 0 {
		return CompsSummary{Confidence: models.ConfidenceLow}
	}

	prices := make([]float64, 0, len(valid))
	for _, r := range valid {
		prices = append(prices, r.DealAmount)
	}
	sort.Float64s(prices)

	n := len(prices)
	var sum float64
	for _, p := range prices {
		sum += p
	}

	median := prices[n/2]
	if n%2 == 0 {
		median = (prices[n/2-1] + prices[n/2]) / 2
	}

	var sqmSum float64
	var sqmCount int
	for _, r := range valid {
		if p := r.PricePerSqm(); p != nil {
			sqmSum += *p
			sqmCount++
		}
	}
	var avgSqm float64
	if sqmCount > 0 {
		avgSqm = sqmSum / float64(sqmCount)
	}

	confidence := models.ConfidenceLow
	switch {
	case n >= 7:
		confidence = models.ConfidenceHigh
	case n >= 3:
		confidence = models.ConfidenceMedium
	}

	summary := CompsSummary{
		Count:          n,
		AvgPrice:       sum / float64(n),
		MedianPrice:    median,
		AvgPricePerSqm: avgSqm,
		MinPrice:       prices[0],
		MaxPrice:       prices[n-1],
		Confidence:     confidence,
	}

	if subjectSqm != nil && *subjectSqm > 0 && avgSqm > 0 {
		estimated := avgSqm * *subjectSqm
		summary.EstimatedValue = &estimated
		if subjectPrice != nil && *subjectPrice > 0 {
			delta := (*subjectPrice - estimated) / estimated * 100
			summary.SubjectDeltaPct = &delta
		}
	}

	return summary
}

func fromTransaction(tx *models.Transaction) Record {
	parts := splitAddress(tx.Address)
	date := ""
	if tx.DealDate != nil {
		date = tx.DealDate.Format("2006-01-02")
	}

	return Record{
		ID:           fmt.Sprintf("nadlan_%s_%s_%s_%.0f", tx.Gush, tx.Parcel, date, tx.DealAmount),
		Source:       "nadlan_api",
		Address:      tx.Address,
		Street:       parts.street,
		City:         parts.city,
		PropertyType: tx.PropertyType,
		Rooms:        tx.Rooms,
		Floor:        tx.Floor,
		SizeSqm:      tx.SizeSqm,
		BuildingYear: tx.BuildingYear,
		DealAmount:   tx.DealAmount,
		DealDate:     tx.DealDate,
		DealNature:   tx.DealNature,
		Gush:         tx.Gush,
		Parcel:       tx.Parcel,
		ImportedAt:   time.Now(),
	}
}

type addrParts struct {
	street string
	city   string
}

// splitAddress extracts street and city from a registry-formatted
// "street number, city" address.
func splitAddress(addr string) addrParts {
	segments := strings.Split(addr, ",")
	if len(segments) < 2 {
		return addrParts{street: strings.TrimSpace(addr)}
	}
	return addrParts{
		street: strings.TrimSpace(segments[0]),
		city:   strings.TrimSpace(segments[len(segments)-1]),
	}
}
