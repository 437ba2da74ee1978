package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realcapital/server/internal/models"
)

func fptr(f float64) *float64 { return &f }
func iptr(i int) *int         { return &i }

func testStore(t *testing.T) *Store {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	s, err := NewStore(filepath.Join(t.TempDir(), "cache.db"), logger)
	require.NoError(t, err)
	return s
}

func sampleTx(gush string, amount float64) models.Transaction {
	date := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	return models.Transaction{
		Address:      "הרצל 15, תל אביב",
		DealAmount:   amount,
		DealDate:     &date,
		SizeSqm:      fptr(80),
		Rooms:        fptr(3.5),
		PropertyType: "דירה",
		Gush:         gush,
		Parcel:       "42",
	}
}

func TestSaveTransactionsDedupes(t *testing.T) {
	s := testStore(t)

	inserted, err := s.SaveTransactions([]models.Transaction{
		sampleTx("6638", 1800000),
		sampleTx("6639", 2000000),
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, inserted)

	// the same registry rows again are silently skipped
	inserted, err = s.SaveTransactions([]models.Transaction{sampleTx("6638", 1800000)})
	assert.NoError(t, err)
	assert.Zero(t, inserted)

	records, err := s.ListTransactions(Filter{})
	assert.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, "הרצל 15", records[0].Street)
	assert.Equal(t, "תל אביב", records[0].City)
}

func TestListTransactionsFilters(t *testing.T) {
	s := testStore(t)

	small := sampleTx("1", 1500000)
	small.SizeSqm = fptr(60)
	big := sampleTx("2", 3200000)
	big.SizeSqm = fptr(140)
	big.Rooms = fptr(5)

	_, err := s.SaveTransactions([]models.Transaction{small, big})
	require.NoError(t, err)

	records, err := s.ListTransactions(Filter{MaxPrice: fptr(2000000)})
	assert.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 1500000.0, records[0].DealAmount)

	records, err = s.ListTransactions(Filter{MinSqm: fptr(100), MinRooms: fptr(4)})
	assert.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 3200000.0, records[0].DealAmount)

	records, err = s.ListTransactions(Filter{City: "תל אביב"})
	assert.NoError(t, err)
	assert.Len(t, records, 2)

	records, err = s.ListTransactions(Filter{City: "חיפה"})
	assert.NoError(t, err)
	assert.Empty(t, records)
}

func TestListTransactionsRadius(t *testing.T) {
	s := testStore(t)

	near := Record{ID: "near", DealAmount: 1000000, Lat: fptr(32.06), Lng: fptr(34.77)}
	far := Record{ID: "far", DealAmount: 1000000, Lat: fptr(32.80), Lng: fptr(35.00)}
	noCoords := Record{ID: "none", DealAmount: 1000000}
	require.NoError(t, s.db.Create(&[]Record{near, far, noCoords}).Error)

	records, err := s.ListTransactions(Filter{
		RadiusKm:  fptr(5),
		CenterLat: fptr(32.06),
		CenterLng: fptr(34.78),
	})

	assert.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, "near", records[0].ID)
}

func TestClear(t *testing.T) {
	s := testStore(t)

	_, err := s.SaveTransactions([]models.Transaction{sampleTx("1", 1000000)})
	require.NoError(t, err)

	assert.NoError(t, s.Clear())

	records, err := s.ListTransactions(Filter{})
	assert.NoError(t, err)
	assert.Empty(t, records)
}

func TestSummarizeComps(t *testing.T) {
	records := []Record{
		{DealAmount: 1000000, SizeSqm: fptr(100)},
		{DealAmount: 2000000, SizeSqm: fptr(100)},
		{DealAmount: 3000000, SizeSqm: fptr(100)},
		{DealAmount: 0}, // unpriced, excluded
	}

	summary := SummarizeComps(records, fptr(2200000), fptr(100))

	assert.Equal(t, 3, summary.Count)
	assert.Equal(t, 2000000.0, summary.AvgPrice)
	assert.Equal(t, 2000000.0, summary.MedianPrice)
	assert.Equal(t, 20000.0, summary.AvgPricePerSqm)
	assert.Equal(t, 1000000.0, summary.MinPrice)
	assert.Equal(t, 3000000.0, summary.MaxPrice)
	assert.Equal(t, models.ConfidenceMedium, summary.Confidence)

	assert.NotNil(t, summary.EstimatedValue)
	assert.Equal(t, 2000000.0, *summary.EstimatedValue)
	assert.NotNil(t, summary.SubjectDeltaPct)
	assert.InDelta(t, 10.0, *summary.SubjectDeltaPct, 1e-9)
}

func TestSummarizeCompsConfidence(t *testing.T) {
	build := func(n int) []Record {
		out := make([]Record, n)
		for i := range out {
			out[i] = Record{DealAmount: 1000000}
		}
		return out
	}

	assert.Equal(t, models.ConfidenceLow, SummarizeComps(build(2), nil, nil).Confidence)
	assert.Equal(t, models.ConfidenceMedium, SummarizeComps(build(3), nil, nil).Confidence)
	assert.Equal(t, models.ConfidenceHigh, SummarizeComps(build(7), nil, nil).Confidence)
	assert.Equal(t, models.ConfidenceLow, SummarizeComps(nil, nil, nil).Confidence)
}

func TestSplitAddress(t *testing.T) {
	parts := splitAddress("הרצל 15, תל אביב")
	assert.Equal(t, "הרצל 15", parts.street)
	assert.Equal(t, "תל אביב", parts.city)

	bare := splitAddress("הרצל 15")
	assert.Equal(t, "הרצל 15", bare.street)
	assert.Empty(t, bare.city)
}
