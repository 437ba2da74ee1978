package store

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportCSVHebrewHeaders(t *testing.T) {
	s := testStore(t)

	csvData := `כתובת,עיר,מחיר,תאריך עסקה,חדרים,קומה,שטח,שנת בנייה
"הרצל 15, תל אביב",תל אביב,"1,850,000",2025-06-01,3.5,2,82,2010
"אלנבי 20, תל אביב",תל אביב,2100000,15/03/2025,4,5,95,2015
"ריק, תל אביב",תל אביב,,2025-01-01,3,1,70,2000`

	inserted, rowErrors, err := s.ImportCSV(strings.NewReader(csvData), "")

	assert.NoError(t, err)
	assert.Equal(t, 2, inserted)
	assert.Len(t, rowErrors, 1)
	assert.Contains(t, rowErrors[0], "row 4")

	records, err := s.ListTransactions(Filter{})
	require.NoError(t, err)
	require.Len(t, records, 2)

	for _, r := range records {
		assert.Equal(t, "manual_csv", r.Source)
		assert.Equal(t, "דירה", r.PropertyType) // default when the column is absent
		assert.NotNil(t, r.DealDate)
	}

	byAmount := map[float64]Record{}
	for _, r := range records {
		byAmount[r.DealAmount] = r
	}
	first := byAmount[1850000]
	assert.Equal(t, "הרצל 15, תל אביב", first.Address)
	assert.Equal(t, 3.5, *first.Rooms)
	assert.Equal(t, 2, *first.Floor)
	assert.Equal(t, 82.0, *first.SizeSqm)
	assert.Equal(t, 2010, *first.BuildingYear)
}

func TestImportCSVEnglishHeaders(t *testing.T) {
	s := testStore(t)

	csvData := `address,city,price,date,rooms,type
"Herzl 15, Tel Aviv",Tel Aviv,1500000,2025-06-01,3,פנטהאוז`

	inserted, rowErrors, err := s.ImportCSV(strings.NewReader(csvData), "map_export")

	assert.NoError(t, err)
	assert.Equal(t, 1, inserted)
	assert.Empty(t, rowErrors)

	records, err := s.ListTransactions(Filter{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "map_export", records[0].Source)
	assert.Equal(t, "פנטהאוז", records[0].PropertyType)
}

func TestImportCSVBOMHeader(t *testing.T) {
	s := testStore(t)

	// Excel exports prefix the first header cell with a byte-order mark
	csvData := "\ufeffכתובת,מחיר\n\"הרצל 15, תל אביב\",1500000\n"

	inserted, rowErrors, err := s.ImportCSV(strings.NewReader(csvData), "")

	assert.NoError(t, err)
	assert.Equal(t, 1, inserted)
	assert.Empty(t, rowErrors)

	records, err := s.ListTransactions(Filter{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "הרצל 15, תל אביב", records[0].Address)
}

func TestImportCSVReimportSkipsKnownRows(t *testing.T) {
	s := testStore(t)

	csvData := `כתובת,מחיר,תאריך עסקה
"הרצל 15, תל אביב",1500000,2025-06-01
"אלנבי 20, תל אביב",2100000,2025-03-15`

	inserted, rowErrors, err := s.ImportCSV(strings.NewReader(csvData), "export_a")
	assert.NoError(t, err)
	assert.Equal(t, 2, inserted)
	assert.Empty(t, rowErrors)

	// the same export again inserts nothing and does not error
	inserted, rowErrors, err = s.ImportCSV(strings.NewReader(csvData), "export_a")
	assert.NoError(t, err)
	assert.Zero(t, inserted)
	assert.Empty(t, rowErrors)

	records, err := s.ListTransactions(Filter{})
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestImportCSVAllRowsInvalid(t *testing.T) {
	s := testStore(t)

	csvData := "כתובת,מחיר\nבדיקה,לא מספר\nבדיקה 2,"

	inserted, rowErrors, err := s.ImportCSV(strings.NewReader(csvData), "")

	assert.NoError(t, err)
	assert.Zero(t, inserted)
	assert.Len(t, rowErrors, 2)
}

func TestImportCSVBadHeader(t *testing.T) {
	s := testStore(t)

	_, _, err := s.ImportCSV(strings.NewReader(""), "")

	assert.Error(t, err)
}

func TestCSVCoercion(t *testing.T) {
	price := csvFloat("1,850,000 ₪")
	assert.NotNil(t, price)
	assert.Equal(t, 1850000.0, *price)

	assert.Nil(t, csvFloat(""))
	assert.Nil(t, csvFloat("n/a"))

	assert.NotNil(t, csvDate("2025-06-01"))
	assert.NotNil(t, csvDate("15/03/2025"))
	assert.NotNil(t, csvDate("15.03.2025"))
	assert.Nil(t, csvDate("not a date"))
	assert.Nil(t, csvDate(""))
}
