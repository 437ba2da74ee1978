package yad2

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseListing(t *testing.T) {
	item := feedItem{
		ID:               12345.0,
		Price:            "2,100,000 ₪",
		Rooms:            "4",
		Floor:            3.0,
		SquareMeters:     95.0,
		PropertyTypeText: "דירה",
		Date:             "2026-08-01 10:30:00",
		Street:           "הרצל",
		Neighborhood:     "פלורנטין",
		City:             "תל אביב",
	}

	l := parseListing(item)

	assert.NotNil(t, l)
	assert.Equal(t, "12345", l.ListingID)
	assert.Equal(t, 2100000.0, l.Price)
	assert.Equal(t, 4.0, *l.Rooms)
	assert.Equal(t, 3, *l.Floor)
	assert.Equal(t, 95.0, *l.SizeSqm)
	assert.Equal(t, "הרצל, פלורנטין, תל אביב", l.Address)
	assert.NotNil(t, l.DateListed)
}

func TestParseImages(t *testing.T) {
	flat := parseImages(json.RawMessage(`["http://a/1.jpg", "", "http://a/2.jpg"]`))
	assert.Equal(t, []string{"http://a/1.jpg", "http://a/2.jpg"}, flat)

	objects := parseImages(json.RawMessage(`[{"src":"http://a/1.jpg"},{"url":"http://a/2.jpg"},{}]`))
	assert.Equal(t, []string{"http://a/1.jpg", "http://a/2.jpg"}, objects)

	// capped at five
	many := parseImages(json.RawMessage(`["1","2","3","4","5","6","7"]`))
	assert.Len(t, many, 5)

	assert.Nil(t, parseImages(nil))
	assert.Nil(t, parseImages(json.RawMessage(`"garbage"`)))
}

func TestParseListingDate(t *testing.T) {
	assert.NotNil(t, parseListingDate("2026-08-01T10:30:00"))
	assert.NotNil(t, parseListingDate("", "2026-08-01"))
	assert.Nil(t, parseListingDate("", "not a date"))
	assert.Nil(t, parseListingDate())
}
