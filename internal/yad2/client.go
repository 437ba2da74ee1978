// Package yad2 implements the marketplace listings client: feed search
// with pagination, promotional-item filtering, and soft-stop handling
// when the feed blocks automated access.
package yad2

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"realcapital/server/config"
	"realcapital/server/internal/models"
)

// SearchQuery are the feed search filters. Zero values omit the filter.
type SearchQuery struct {
	City         string
	PropertyType string
	RoomsMin     float64
	RoomsMax     float64
	PriceMin     float64
	PriceMax     float64
	Neighborhood string
	MaxPages     int
}

// Subject describes the analyzed property for similar-listing searches.
type Subject struct {
	City         string
	PropertyType string
	Rooms        *float64
	Price        *float64
	Neighborhood string
}

// Client fetches current for-sale listings from the marketplace feed.
// Like the registry client it never propagates transport errors for
// normal degraded operation; it returns whatever was collected.
type Client struct {
	feedURL      string
	requestDelay time.Duration
	logger       *logrus.Logger
	httpClient   *http.Client

	paceMu   sync.Mutex
	lastCall time.Time
}

// NewClient creates a listings client from the process configuration.
func NewClient(cfg *config.Config, logger *logrus.Logger) *Client {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Client{
		feedURL:      cfg.Yad2.FeedURL,
		requestDelay: time.Duration(cfg.Yad2.RequestDelay) * time.Second,
		logger:       logger,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Yad2.Timeout) * time.Second,
		},
	}
}

func (c *Client) pace() {
	c.paceMu.Lock()
	defer c.paceMu.Unlock()

	if elapsed := time.Since(c.lastCall); elapsed < c.requestDelay {
		time.Sleep(c.requestDelay - elapsed)
	}
	c.lastCall = time.Now()
}

// Search pages through the feed for listings matching the query.
// Promotional feed items are discarded by type tag. An HTTP 403 stops
// pagination immediately and returns what was already collected.
func (c *Client) Search(ctx context.Context, q SearchQuery) []models.Listing {
	var listings []models.Listing

	params := url.Values{}
	if code, ok := config.CityCodes[q.City]; ok {
		params.Set("city", code)
	}
	if code, ok := config.PropertyTypeCodes[q.PropertyType]; ok {
		params.Set("property", code)
	}
	if q.RoomsMin > 0 {
		max := q.RoomsMax
		if max <= 0 {
			max = 12
		}
		params.Set("rooms", fmt.Sprintf("%g-%g", q.RoomsMin, max))
	}
	if q.PriceMin > 0 {
		max := q.PriceMax
		if max <= 0 {
			max = 50000000
		}
		params.Set("price", fmt.Sprintf("%d-%d", int(q.PriceMin), int(max)))
	}

	maxPages := q.MaxPages
	if maxPages <= 0 {
		maxPages = 2
	}

	for page := 1; page <= maxPages; page++ {
		c.pace()

		params.Set("page", fmt.Sprintf("%d", page))

		feed, blocked, err := c.fetchPage(ctx, params)
		if err != nil {
			c.logger.WithError(err).WithField("page", page).Error("Listing page fetch failed")
			break
		}
		if blocked {
			// Anti-bot cutoff: keep what we have, no retries.
			c.logger.Warn("Feed blocked request (403), stopping pagination")
			break
		}

		if len(feed.FeedItems) == 0 {
			c.logger.WithField("page", page).Info("No more listings")
			break
		}

		pageCount := 0
		for _, item := range feed.FeedItems {
			if isPromotional(item.Type) {
				continue
			}
			listing := parseListing(item)
			if listing == nil || listing.Price <= 0 {
				continue
			}
			if q.Neighborhood != "" && !strings.Contains(listing.Neighborhood, q.Neighborhood) {
				continue
			}
			listings = append(listings, *listing)
			pageCount++
		}

		c.logger.WithFields(logrus.Fields{
			"page":     page,
			"listings": pageCount,
		}).Info("Fetched listing page")

		// A feed without total_pages is treated as single-page.
		totalPages := feed.TotalPages
		if totalPages <= 0 {
			totalPages = 1
		}
		if page >= totalPages {
			break
		}
	}

	c.logger.WithField("total", len(listings)).Info("Listing search complete")
	return listings
}

func (c *Client) fetchPage(ctx context.Context, params url.Values) (*feedData, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, false, fmt.Errorf("build feed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "he-IL,he;q=0.9")
	req.Header.Set("Referer", "https://www.yad2.co.il/realestate/forsale")
	req.Header.Set("Origin", "https://www.yad2.co.il")
	req.Header.Set("User-Agent",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("feed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		return nil, true, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("feed request: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("read feed response: %w", err)
	}

	var envelope feedResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, false, fmt.Errorf("parse feed response: %w", err)
	}
	return &envelope.Data.Feed, false, nil
}

// SearchSimilar searches for listings comparable to the subject: a room
// window of subject±1 (floored at 1) and, when a price is known, a price
// window of 0.7x-1.3x.
func (c *Client) SearchSimilar(ctx context.Context, s Subject) []models.Listing {
	rooms := 3.0
	if s.Rooms != nil {
		rooms = *s.Rooms
	}
	roomsMin := rooms - 1
	if roomsMin < 1 {
		roomsMin = 1
	}

	var priceMin, priceMax float64
	if s.Price != nil && *s.Price > 0 {
		priceMin = *s.Price * 0.7
		priceMax = *s.Price * 1.3
	}

	return c.Search(ctx, SearchQuery{
		City:         s.City,
		PropertyType: s.PropertyType,
		RoomsMin:     roomsMin,
		RoomsMax:     rooms + 1,
		PriceMin:     priceMin,
		PriceMax:     priceMax,
		Neighborhood: s.Neighborhood,
		MaxPages:     2,
	})
}

func isPromotional(itemType string) bool {
	switch itemType {
	case "ad", "banner", "commercialContent":
		return true
	}
	return false
}
