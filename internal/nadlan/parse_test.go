package nadlan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDate(t *testing.T) {
	epoch := parseDate("/Date(1700000000000)/")
	assert.NotNil(t, epoch)
	assert.Equal(t, time.UnixMilli(1700000000000).UTC(), *epoch)

	iso := parseDate("2024-05-17T00:00:00")
	assert.NotNil(t, iso)
	assert.Equal(t, time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC), *iso)

	dateOnly := parseDate("2024-05-17")
	assert.NotNil(t, dateOnly)

	assert.Nil(t, parseDate(""))
	assert.Nil(t, parseDate(nil))
	assert.Nil(t, parseDate("not a date"))
}

func TestParseTransaction(t *testing.T) {
	raw := map[string]any{
		"FULLADRESS":            "הרצל 15, תל אביב",
		"DEALAMOUNT":            "1,850,000",
		"DEALDATETIME":          "/Date(1700000000000)/",
		"ASSETROOMNUM":          3.5,
		"FLOORNO":               "2",
		"DEALAREAMETER":         82.0,
		"BUILDINGYEAR":          2010.0,
		"BUILDINGFLOORS":        8.0,
		"DEALNATUREDESCRIPTION": "דירה בבית קומות",
		"GUSH":                  "6638",
		"PARCEL":                "42",
		"TYPE":                  "דירה",
		"TREND_IS_NEGATIVE":     false,
	}

	tx := parseTransaction(raw)

	assert.Equal(t, "הרצל 15, תל אביב", tx.Address)
	assert.Equal(t, 1850000.0, tx.DealAmount)
	assert.NotNil(t, tx.DealDate)
	assert.Equal(t, 3.5, *tx.Rooms)
	assert.Equal(t, 2, *tx.Floor)
	assert.Equal(t, 82.0, *tx.SizeSqm)
	assert.Equal(t, 2010, *tx.BuildingYear)
	assert.Equal(t, 8, *tx.BuildingFloors)
	assert.Equal(t, "6638", tx.Gush)
	assert.Equal(t, "דירה", tx.PropertyType)
	assert.NotNil(t, tx.TrendNegative)
	assert.False(t, *tx.TrendNegative)
}

func TestParseTransactionMissingFields(t *testing.T) {
	tx := parseTransaction(map[string]any{
		"DISPLAYADRESS": "אלנבי 20",
		"DEALAMOUNT":    1000000.0,
	})

	assert.Equal(t, "אלנבי 20", tx.Address)
	assert.Nil(t, tx.Rooms)
	assert.Nil(t, tx.Floor)
	assert.Nil(t, tx.SizeSqm)
	assert.Nil(t, tx.BuildingYear)
	assert.Nil(t, tx.DealDate)
	assert.Nil(t, tx.TrendNegative)
}

func TestFloorCoercion(t *testing.T) {
	// an explicit "0" is the ground floor, not a missing value
	ground := asFloorPtr("0")
	assert.NotNil(t, ground)
	assert.Equal(t, 0, *ground)

	assert.Nil(t, asFloorPtr(""))
	assert.Nil(t, asFloorPtr(nil))
	assert.Nil(t, asFloorPtr("קרקע"))

	fifth := asFloorPtr(5.0)
	assert.NotNil(t, fifth)
	assert.Equal(t, 5, *fifth)
}

func TestNumericCoercion(t *testing.T) {
	assert.Equal(t, 1850000.0, asFloat("1,850,000"))
	assert.Equal(t, 42.5, asFloat(42.5))
	assert.Equal(t, 0.0, asFloat("n/a"))
	assert.Equal(t, 0.0, asFloat(nil))

	// zero means unknown on year-like fields
	assert.Nil(t, asIntPtr(0.0))
	assert.Nil(t, asIntPtr(""))
	year := asIntPtr(2010.0)
	assert.NotNil(t, year)
	assert.Equal(t, 2010, *year)
}
