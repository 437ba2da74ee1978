package models

import (
	"math"
	"time"
)

// Transaction is a single closed sale record from the government registry.
type Transaction struct {
	Address        string     `json:"address"`
	DealAmount     float64    `json:"deal_amount"`
	DealDate       *time.Time `json:"deal_date"`
	Rooms          *float64   `json:"rooms"`
	Floor          *int       `json:"floor"`
	SizeSqm        *float64   `json:"size_sqm"`
	BuildingYear   *int       `json:"building_year"`
	BuildingFloors *int       `json:"building_floors"`
	DealNature     string     `json:"deal_nature"`
	ProjectName    string     `json:"project_name"`
	Gush           string     `json:"gush"`
	Parcel         string     `json:"parcel"`
	PropertyType   string     `json:"property_type"`
	TrendNegative  *bool      `json:"trend_negative"`
}

// PricePerSqm returns the rounded deal amount per square meter, or nil
// when either the size or the amount is missing/non-positive.
func (t *Transaction) PricePerSqm() *float64 {
	return pricePerSqm(t.DealAmount, t.SizeSqm)
}

// BuildingAge returns the age of the building at the given time, or nil
// when the construction year is missing or implausible (<=1900).
func (t *Transaction) BuildingAge(now time.Time) *int {
	return buildingAge(t.BuildingYear, now)
}

// Listing is a currently-advertised-for-sale unit from the marketplace feed.
type Listing struct {
	ListingID     string     `json:"listing_id"`
	Address       string     `json:"address"`
	Price         float64    `json:"price"`
	Rooms         *float64   `json:"rooms"`
	Floor         *int       `json:"floor"`
	SizeSqm       *float64   `json:"size_sqm"`
	PropertyType  string     `json:"property_type"`
	Description   string     `json:"description"`
	DateListed    *time.Time `json:"date_listed"`
	ImageURLs     []string   `json:"image_urls"`
	URL           string     `json:"url"`
	City          string     `json:"city"`
	Neighborhood  string     `json:"neighborhood"`
	Street        string     `json:"street"`
	IsNewBuilding bool       `json:"is_new_building"`
	BuildingYear  *int       `json:"building_year"`
}

// PricePerSqm returns the rounded asking price per square meter, or nil.
func (l *Listing) PricePerSqm() *float64 {
	return pricePerSqm(l.Price, l.SizeSqm)
}

// ComparableProperty is a source-agnostic merge of a Transaction or a
// Listing used by the value estimator. IsListed distinguishes active ads
// from closed sales.
type ComparableProperty struct {
	Source       string     `json:"source"`
	Address      string     `json:"address"`
	Price        float64    `json:"price"`
	Rooms        *float64   `json:"rooms"`
	Floor        *int       `json:"floor"`
	SizeSqm      *float64   `json:"size_sqm"`
	BuildingYear *int       `json:"building_year"`
	DealDate     *time.Time `json:"deal_date"`
	PropertyType string     `json:"property_type"`
	IsListed     bool       `json:"is_listed"`
}

func (c *ComparableProperty) PricePerSqm() *float64 {
	return pricePerSqm(c.Price, c.SizeSqm)
}

func (c *ComparableProperty) BuildingAge(now time.Time) *int {
	return buildingAge(c.BuildingYear, now)
}

func pricePerSqm(amount float64, sizeSqm *float64) *float64 {
	if sizeSqm == nil || *sizeSqm <= 0 || amount <= 0 {
		return nil
	}
	v := math.Round(amount / *sizeSqm)
	return &v
}

func buildingAge(year *int, now time.Time) *int {
	if year == nil || *year <= 1900 {
		return nil
	}
	age := now.Year() - *year
	return &age
}
