package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm/clause"
)

// Column-header aliases recognized in manual registry/map exports.
var columnAliases = map[string][]string{
	"address":       {"כתובת", "כתובת מלאה", "address", "כתובת הנכס"},
	"street":        {"רחוב", "שם רחוב", "street"},
	"city":          {"עיר", "ישוב", "city"},
	"neighborhood":  {"שכונה", "neighborhood"},
	"deal_amount":   {"סכום עסקה", "מחיר", "price", "deal_amount", "ערך עסקה"},
	"deal_date":     {"תאריך עסקה", "תאריך", "date", "deal_date"},
	"size_sqm":      {"שטח", "שטח מ\"ר", "שטח (מ\"ר)", "area", "size_sqm"},
	"rooms":         {"חדרים", "מספר חדרים", "rooms"},
	"floor":         {"קומה", "floor"},
	"building_year": {"שנת בנייה", "שנה", "year_built"},
	"property_type": {"סוג נכס", "property_type", "type"},
	"gush":          {"גוש", "gush"},
	"parcel":        {"חלקה", "parcel"},
	"lat":           {"latitude", "lat", "קו רוחב"},
	"lng":           {"longitude", "lng", "lon", "קו אורך"},
	"source_ref":    {"מקור", "reference", "מזהה"},
}

// ImportCSV reads a manually exported CSV, maps its headers through the
// alias table, and caches every row with a positive deal amount. Rows
// that cannot be used are reported as per-row messages, not failures,
// and rows already cached from an earlier import are skipped.
// Returns the inserted count and the row messages.
func (s *Store) ImportCSV(r io.Reader, sourceLabel string) (int, []string, error) {
	if sourceLabel == "" {
		sourceLabel = "manual_csv"
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return 0, nil, fmt.Errorf("read csv header: %w", err)
	}
	columns := mapColumns(header)

	var records []Record
	var rowErrors []string
	rowNum := 1

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		rowNum++
		if err != nil {
			rowErrors = append(rowErrors, fmt.Sprintf("row %d: %v", rowNum, err))
			continue
		}

		get := func(name string) string {
			idx, ok := columns[name]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		amount := csvFloat(get("deal_amount"))
		if amount == nil || *amount <= 0 {
			rowErrors = append(rowErrors, fmt.Sprintf("row %d: missing or invalid deal amount, skipped", rowNum))
			continue
		}

		propertyType := get("property_type")
		if propertyType == "" {
			propertyType = "דירה"
		}

		records = append(records, Record{
			ID:           fmt.Sprintf("%s_%d_%s", sourceLabel, rowNum, get("deal_date")),
			Source:       sourceLabel,
			Address:      get("address"),
			Street:       get("street"),
			City:         get("city"),
			Neighborhood: get("neighborhood"),
			Lat:          csvFloat(get("lat")),
			Lng:          csvFloat(get("lng")),
			PropertyType: propertyType,
			Rooms:        csvFloat(get("rooms")),
			Floor:        csvInt(get("floor")),
			SizeSqm:      csvFloat(get("size_sqm")),
			BuildingYear: csvInt(get("building_year")),
			DealAmount:   *amount,
			DealDate:     csvDate(get("deal_date")),
			DealNature:   "מכירה",
			Gush:         get("gush"),
			Parcel:       get("parcel"),
			SourceRef:    get("source_ref"),
			ImportedAt:   time.Now(),
		})
	}

	if len(records) == 0 {
		return 0, rowErrors, nil
	}

	result := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&records)
	if result.Error != nil {
		return 0, rowErrors, fmt.Errorf("cache imported rows: %w", result.Error)
	}
	inserted := int(result.RowsAffected)

	s.logger.WithFields(logrus.Fields{
		"inserted": inserted,
		"skipped":  len(rowErrors),
		"source":   sourceLabel,
	}).Info("Imported transactions from CSV")

	return inserted, rowErrors, nil
}

func mapColumns(header []string) map[string]int {
	columns := make(map[string]int)
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF")))
		for canonical, aliases := range columnAliases {
			if _, taken := columns[canonical]; taken {
				continue
			}
			for _, alias := range aliases {
				if strings.ToLower(alias) == h {
					columns[canonical] = i
					break
				}
			}
		}
	}
	return columns
}

func csvFloat(s string) *float64 {
	s = strings.NewReplacer(",", "", "₪", "", "מ\"ר", "").Replace(s)
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

func csvInt(s string) *int {
	f := csvFloat(s)
	if f == nil {
		return nil
	}
	i := int(*f)
	return &i
}

func csvDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02", "02/01/2006", "02.01.2006", "2006/01/02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
