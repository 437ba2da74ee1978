package yad2

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"

	"realcapital/server/internal/models"
)

type feedResponse struct {
	Data struct {
		Feed feedData `json:"feed"`
	} `json:"data"`
}

type feedData struct {
	FeedItems  []feedItem `json:"feed_items"`
	TotalPages int        `json:"total_pages"`
}

// feedItem is one raw feed entry. Field presence is inconsistent across
// item types, so everything is loosely typed and coerced per field.
type feedItem struct {
	Type             string          `json:"type"`
	ID               any             `json:"id"`
	Token            string          `json:"token"`
	Price            any             `json:"price"`
	Rooms            any             `json:"rooms"`
	Floor            any             `json:"floor"`
	SquareMeters     any             `json:"square_meters"`
	SquareMeter      any             `json:"squaremeter"`
	PropertyTypeText string          `json:"property_type_text"`
	SubTypeText      string          `json:"sub_type_text"`
	InfoText         string          `json:"info_text"`
	Description      string          `json:"description"`
	Date             string          `json:"date"`
	DateUpdated      string          `json:"DateUpdated"`
	Images           json.RawMessage `json:"images"`
	LinkToken        string          `json:"link_token"`
	Link             string          `json:"link"`
	Title            string          `json:"title"`
	City             string          `json:"city"`
	Neighborhood     string          `json:"neighborhood"`
	Street           string          `json:"street"`
	IsNewBuilding    any             `json:"is_new_building"`
	BuildingYear     any             `json:"building_year"`
}

var nonNumericRe = regexp.MustCompile(`[^\d.]`)

// parseListing coerces a raw feed item into the canonical listing shape,
// or returns nil when the item cannot be interpreted as a listing.
func parseListing(item feedItem) *models.Listing {
	price := coerceFloat(item.Price)

	addressParts := make([]string, 0, 3)
	for _, p := range []string{item.Street, item.Neighborhood, item.City} {
		if p != "" {
			addressParts = append(addressParts, p)
		}
	}
	address := strings.Join(addressParts, ", ")
	if address == "" {
		address = item.Title
	}

	id := coerceString(item.ID)
	if id == "" {
		id = item.Token
	}

	size := coerceFloat(item.SquareMeters)
	if size == 0 {
		size = coerceFloat(item.SquareMeter)
	}

	propertyType := item.PropertyTypeText
	if propertyType == "" {
		propertyType = item.SubTypeText
	}

	description := item.InfoText
	if description == "" {
		description = item.Description
	}

	listingURL := item.LinkToken
	if listingURL == "" {
		listingURL = item.Link
	}

	return &models.Listing{
		ListingID:     id,
		Address:       address,
		Price:         price,
		Rooms:         floatPtr(coerceFloat(item.Rooms)),
		Floor:         intPtr(coerceFloat(item.Floor)),
		SizeSqm:       floatPtr(size),
		PropertyType:  propertyType,
		Description:   description,
		DateListed:    parseListingDate(item.Date, item.DateUpdated),
		ImageURLs:     parseImages(item.Images),
		URL:           listingURL,
		City:          item.City,
		Neighborhood:  item.Neighborhood,
		Street:        item.Street,
		IsNewBuilding: coerceBool(item.IsNewBuilding),
		BuildingYear:  intPtr(coerceFloat(item.BuildingYear)),
	}
}

func parseListingDate(candidates ...string) *time.Time {
	for _, s := range candidates {
		if s == "" {
			continue
		}
		s = strings.TrimSuffix(s, "Z")
		for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, s); err == nil {
				return &t
			}
		}
	}
	return nil
}

// parseImages handles both image shapes the feed emits: a flat list of
// URL strings and a list of {src|url} objects. At most five are kept.
func parseImages(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var urls []string

	var asStrings []string
	if err := json.Unmarshal(raw, &asStrings); err == nil {
		urls = asStrings
	} else {
		var asObjects []struct {
			Src string `json:"src"`
			URL string `json:"url"`
		}
		if err := json.Unmarshal(raw, &asObjects); err != nil {
			return nil
		}
		for _, img := range asObjects {
			if img.Src != "" {
				urls = append(urls, img.Src)
			} else if img.URL != "" {
				urls = append(urls, img.URL)
			}
		}
	}

	out := make([]string, 0, 5)
	for _, u := range urls {
		if u == "" {
			continue
		}
		out = append(out, u)
		if len(out) == 5 {
			break
		}
	}
	return out
}

func coerceFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		cleaned := nonNumericRe.ReplaceAllString(n, "")
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func coerceString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return ""
	}
}

func coerceBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case float64:
		return b != 0
	default:
		return false
	}
}

func floatPtr(f float64) *float64 {
	if f == 0 {
		return nil
	}
	return &f
}

func intPtr(f float64) *int {
	if f == 0 {
		return nil
	}
	i := int(f)
	return &i
}
