package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fptr(f float64) *float64 { return &f }
func iptr(i int) *int         { return &i }

func TestTransactionPricePerSqm(t *testing.T) {
	tx := Transaction{DealAmount: 1500000, SizeSqm: fptr(83)}
	p := tx.PricePerSqm()
	assert.NotNil(t, p)
	assert.Equal(t, 18072.0, *p) // rounded to whole shekels

	assert.Nil(t, (&Transaction{DealAmount: 1500000}).PricePerSqm())
	assert.Nil(t, (&Transaction{DealAmount: 1500000, SizeSqm: fptr(0)}).PricePerSqm())
	assert.Nil(t, (&Transaction{DealAmount: 0, SizeSqm: fptr(83)}).PricePerSqm())
}

func TestListingPricePerSqm(t *testing.T) {
	l := Listing{Price: 2000000, SizeSqm: fptr(100)}
	p := l.PricePerSqm()
	assert.NotNil(t, p)
	assert.Equal(t, 20000.0, *p)

	assert.Nil(t, (&Listing{Price: 2000000}).PricePerSqm())
}

func TestBuildingAge(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	tx := Transaction{BuildingYear: iptr(2016)}
	age := tx.BuildingAge(now)
	assert.NotNil(t, age)
	assert.Equal(t, 10, *age)

	assert.Nil(t, (&Transaction{}).BuildingAge(now))
	// implausible construction years are treated as missing
	assert.Nil(t, (&Transaction{BuildingYear: iptr(1900)}).BuildingAge(now))
	assert.Nil(t, (&Transaction{BuildingYear: iptr(0)}).BuildingAge(now))
}

func TestReportAverages(t *testing.T) {
	r := MarketAnalysisReport{
		Transactions: []Transaction{
			{DealAmount: 1000, SizeSqm: fptr(10)},
			{DealAmount: 3000, SizeSqm: fptr(10)},
			{DealAmount: 500}, // no size, excluded from the average
		},
		CurrentListings: []Listing{{Price: 1500000}},
	}

	avg := r.AvgPricePerSqmStreet()
	assert.NotNil(t, avg)
	assert.Equal(t, 200.0, *avg)
	assert.Equal(t, 3, r.TotalTransactions())
	assert.Equal(t, 1, r.TotalListings())

	empty := MarketAnalysisReport{}
	assert.Nil(t, empty.AvgPricePerSqmStreet())
}
