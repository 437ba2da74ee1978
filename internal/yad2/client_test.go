package yad2

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"realcapital/server/config"
)

func fptr(f float64) *float64 { return &f }

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.Config{}
	cfg.Yad2.FeedURL = server.URL
	cfg.Yad2.RequestDelay = 0
	cfg.Yad2.Timeout = 5

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	return NewClient(cfg, logger)
}

func feedPage(items []map[string]any, totalPages int) map[string]any {
	return map[string]any{
		"data": map[string]any{
			"feed": map[string]any{
				"feed_items":  items,
				"total_pages": totalPages,
			},
		},
	}
}

func TestSearchFiltersPromotionalItems(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(feedPage([]map[string]any{
			{"id": "a1", "price": 1500000.0, "city": "תל אביב", "street": "הרצל"},
			{"type": "ad", "id": "promo", "price": 1.0},
			{"type": "banner", "id": "b1"},
			{"type": "commercialContent", "id": "c1"},
			{"id": "a2", "price": "1,850,000 ₪", "city": "תל אביב"},
			{"id": "a3"}, // no price, dropped
		}, 1))
	}))

	listings := client.Search(context.Background(), SearchQuery{City: "תל אביב"})

	assert.Len(t, listings, 2)
	assert.Equal(t, "a1", listings[0].ListingID)
	assert.Equal(t, "הרצל, תל אביב", listings[0].Address)
	assert.Equal(t, 1850000.0, listings[1].Price)
}

func TestSearchQueryEncoding(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, config.CityCodes["תל אביב"], q.Get("city"))
		assert.Equal(t, config.PropertyTypeCodes["דירה"], q.Get("property"))
		assert.Equal(t, "2.5-4.5", q.Get("rooms"))
		assert.Equal(t, "1400000-2600000", q.Get("price"))
		json.NewEncoder(w).Encode(feedPage(nil, 1))
	}))

	client.Search(context.Background(), SearchQuery{
		City:         "תל אביב",
		PropertyType: "דירה",
		RoomsMin:     2.5,
		RoomsMax:     4.5,
		PriceMin:     1400000,
		PriceMax:     2600000,
	})
}

func TestSearchStopsOnForbidden(t *testing.T) {
	var calls atomic.Int32
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			json.NewEncoder(w).Encode(feedPage([]map[string]any{
				{"id": "a1", "price": 1500000.0, "city": "תל אביב"},
			}, 5))
			return
		}
		w.WriteHeader(http.StatusForbidden)
	}))

	listings := client.Search(context.Background(), SearchQuery{City: "תל אביב", MaxPages: 5})

	// the block is a soft stop: no retries, keep what was collected
	assert.Len(t, listings, 1)
	assert.Equal(t, int32(2), calls.Load())
}

func TestSearchRespectsTotalPages(t *testing.T) {
	var calls atomic.Int32
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		json.NewEncoder(w).Encode(feedPage([]map[string]any{
			{"id": "a1", "price": 1500000.0, "city": "תל אביב"},
		}, 1))
	}))

	client.Search(context.Background(), SearchQuery{City: "תל אביב", MaxPages: 10})

	assert.Equal(t, int32(1), calls.Load())
}

func TestSearchTreatsMissingTotalPagesAsOne(t *testing.T) {
	var calls atomic.Int32
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		json.NewEncoder(w).Encode(feedPage([]map[string]any{
			{"id": "a1", "price": 1500000.0, "city": "תל אביב"},
		}, 0))
	}))

	listings := client.Search(context.Background(), SearchQuery{City: "תל אביב", MaxPages: 10})

	assert.Len(t, listings, 1)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSearchNeighborhoodFilter(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(feedPage([]map[string]any{
			{"id": "a1", "price": 1500000.0, "city": "תל אביב", "neighborhood": "פלורנטין"},
			{"id": "a2", "price": 1600000.0, "city": "תל אביב", "neighborhood": "נווה צדק"},
		}, 1))
	}))

	listings := client.Search(context.Background(), SearchQuery{
		City:         "תל אביב",
		Neighborhood: "פלורנטין",
	})

	assert.Len(t, listings, 1)
	assert.Equal(t, "a1", listings[0].ListingID)
}

func TestSearchSimilarWindows(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "2-4", q.Get("rooms"))
		assert.Equal(t, "1400000-2600000", q.Get("price"))
		json.NewEncoder(w).Encode(feedPage(nil, 1))
	}))

	client.SearchSimilar(context.Background(), Subject{
		City:  "תל אביב",
		Rooms: fptr(3),
		Price: fptr(2000000),
	})
}

func TestSearchSimilarDefaults(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		// unknown rooms default to a 3-room subject
		assert.Equal(t, "2-4", q.Get("rooms"))
		assert.Empty(t, q.Get("price"))
		json.NewEncoder(w).Encode(feedPage(nil, 1))
	}))

	client.SearchSimilar(context.Background(), Subject{City: "תל אביב"})
}
