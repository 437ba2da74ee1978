// Package nadlan implements the client for the government real-estate
// transaction registry: location resolution and paginated deal fetching
// with rate-limit pacing, retry with backoff, and anti-bot evasion.
package nadlan

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"realcapital/server/config"
	"realcapital/server/internal/models"
)

// Browser identities rotated across requests.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:124.0) Gecko/20100101 Firefox/124.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.3 Safari/605.1.15",
}

// Client talks to the registry's REST endpoints. All degraded outcomes
// (transport errors, malformed payloads, empty results) are handled
// inside the client: callers receive partial or empty results, never an
// error for normal network instability.
type Client struct {
	baseURL      string
	relayURL     string
	relayKey     string
	requestDelay time.Duration
	maxRetries   int
	logger       *logrus.Logger
	httpClient   *http.Client
	uaCounter    atomic.Uint32

	// paces page fetches across all runs in the process
	paceMu   sync.Mutex
	lastCall time.Time
}

// NewClient creates a registry client from the process configuration.
func NewClient(cfg *config.Config, logger *logrus.Logger) *Client {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Client{
		baseURL:      cfg.Nadlan.BaseURL,
		relayURL:     cfg.Nadlan.RelayURL,
		relayKey:     cfg.Nadlan.RelayKey,
		requestDelay: time.Duration(cfg.Nadlan.RequestDelay) * time.Second,
		maxRetries:   cfg.Nadlan.MaxRetries,
		logger:       logger,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Nadlan.Timeout) * time.Second,
		},
	}
}

func (c *Client) nextUserAgent() string {
	n := c.uaCounter.Add(1)
	return userAgents[int(n)%len(userAgents)]
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "he-IL,he;q=0.9,en-US;q=0.8,en;q=0.7")
	req.Header.Set("Content-Type", "application/json;charset=UTF-8")
	req.Header.Set("Origin", "https://www.nadlan.gov.il")
	req.Header.Set("Referer", "https://www.nadlan.gov.il/")
	req.Header.Set("User-Agent", c.nextUserAgent())
}

// relayWrap routes the target URL through the fetch relay when a key is
// configured. The relay is transport only; responses are identical.
func (c *Client) relayWrap(target string) string {
	if c.relayKey == "" {
		return target
	}
	return fmt.Sprintf("%s?api_key=%s&url=%s&render=false",
		c.relayURL, c.relayKey, url.QueryEscape(target))
}

// pace blocks until the configured inter-page delay has elapsed since the
// previous page fetch anywhere in the process.
func (c *Client) pace() {
	c.paceMu.Lock()
	defer c.paceMu.Unlock()

	if elapsed := time.Since(c.lastCall); elapsed < c.requestDelay {
		time.Sleep(c.requestDelay - elapsed)
	}
	c.lastCall = time.Now()
}

// Resolve turns a free-text address/city/neighborhood query into the
// location handle the paging endpoint understands. A nil result is a
// normal outcome for addresses with no registry presence; transport
// errors and malformed responses are logged and also yield nil.
func (c *Client) Resolve(ctx context.Context, query string) *QueryParams {
	target := fmt.Sprintf("%s/GetDataByQuery?query=%s", c.baseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.relayWrap(target), nil)
	if err != nil {
		c.logger.WithError(err).Error("Failed to build resolve request")
		return nil
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).WithField("query", query).Error("Resolve request failed")
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.WithFields(logrus.Fields{
			"query":  query,
			"status": resp.StatusCode,
		}).Warn("Resolve returned non-200 status")
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.WithError(err).Error("Failed to read resolve response")
		return nil
	}

	var raw resolveResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		c.logger.WithError(err).WithField("query", query).Error("Failed to parse resolve response")
		return nil
	}

	if asString(raw.ObjectID) == "" && raw.DescLayerID == "" {
		c.logger.WithField("query", query).Info("No registry presence for query")
		return nil
	}

	params := &QueryParams{
		ObjectID:          asString(raw.ObjectID),
		ObjectIDType:      defaultStr(raw.ObjectIDType, "text"),
		ObjectKey:         defaultStr(raw.ObjectKey, "UNIQ_ID"),
		CurrentLevel:      7, // ADDRESS level
		ResultLabel:       defaultStr(raw.ResultLabel, query),
		ResultType:        asString(raw.ResultType),
		DescLayerID:       raw.DescLayerID,
		X:                 asFloat(raw.X),
		Y:                 asFloat(raw.Y),
		OriginalSearch:    query,
		OrderByDescending: true,
		Gush:              asString(raw.Gush),
		Parcel:            asString(raw.Parcel),
	}
	if raw.CurrentLevel != nil {
		params.CurrentLevel = *raw.CurrentLevel
	}

	c.logger.WithFields(logrus.Fields{
		"query": query,
		"level": params.CurrentLevel,
	}).Info("Resolved registry location")

	return params
}

// GetTransactions pages through the registry's deal records for a
// resolved location. Records without a positive deal amount are dropped.
// Each page is retried with exponential backoff up to the configured
// attempt limit; when a page keeps failing the accumulated result is
// returned as-is.
func (c *Client) GetTransactions(ctx context.Context, params *QueryParams, maxPages, roomFilter int) []models.Transaction {
	var transactions []models.Transaction

	for page := 1; page <= maxPages; page++ {
		c.pace()

		data, err := c.fetchPage(ctx, params, page, roomFilter)
		if err != nil {
			c.logger.WithError(err).WithField("page", page).Error("Giving up on page, returning partial result")
			break
		}

		if len(data.AllResults) == 0 {
			c.logger.WithField("page", page).Info("No more results")
			break
		}

		for _, raw := range data.AllResults {
			tx := parseTransaction(raw)
			if tx.DealAmount > 0 {
				transactions = append(transactions, tx)
			}
		}

		c.logger.WithFields(logrus.Fields{
			"page":    page,
			"records": len(data.AllResults),
		}).Info("Fetched transaction page")

		if data.IsLastPage == nil || *data.IsLastPage {
			break
		}
	}

	c.logger.WithField("total", len(transactions)).Info("Transaction fetch complete")
	return transactions
}

// fetchPage posts one page request, retrying with exponential backoff.
func (c *Client) fetchPage(ctx context.Context, params *QueryParams, page, roomFilter int) (*dealsResponse, error) {
	payload := dealsRequest{
		ObjectID:             params.ObjectID,
		ObjectIDType:         params.ObjectIDType,
		ObjectKey:            params.ObjectKey,
		CurrentLavel:         params.CurrentLevel,
		PageNo:               page,
		FillterRoomNum:       roomFilter,
		ResultLable:          params.ResultLabel,
		ResultType:           params.ResultType,
		DescLayerID:          params.DescLayerID,
		X:                    params.X,
		Y:                    params.Y,
		OriginalSearchString: params.OriginalSearch,
		OrderByFilled:        params.OrderByField,
		OrderByDescending:    params.OrderByDescending,
		Gush:                 params.Gush,
		Parcel:               params.Parcel,
		QueryMapParams:       map[string]any{},
		IsHistorical:         params.IsHistorical,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal page payload: %w", err)
	}

	target := c.relayWrap(c.baseURL + "/GetAssestAndDeals")

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt*attempt) * time.Second
			c.logger.WithFields(logrus.Fields{
				"attempt": attempt + 1,
				"backoff": backoff.String(),
				"page":    page,
			}).Warn("Retrying page fetch")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("build page request: %w", err)
		}
		c.setHeaders(req)

		data, err := c.doPage(req)
		if err != nil {
			lastErr = err
			continue
		}
		return data, nil
	}

	return nil, fmt.Errorf("page %d failed after %d attempts: %w", page, c.maxRetries, lastErr)
}

func (c *Client) doPage(req *http.Request) (*dealsResponse, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("page request: %w", err)
	}
	defer resp.Body.Close()

	// Rate-limit and anti-bot blocks get the same retry path as any
	// other transport failure; backoff grows between attempts.
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("page request: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read page response: %w", err)
	}

	var data dealsResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("parse page response: %w", err)
	}
	return &data, nil
}

// GetTransactionsForAddress resolves a free-text address and fetches its
// transactions in one call. A resolution miss yields an empty slice.
func (c *Client) GetTransactionsForAddress(ctx context.Context, addr string, maxPages, roomFilter int) []models.Transaction {
	params := c.Resolve(ctx, addr)
	if params == nil {
		return nil
	}
	return c.GetTransactions(ctx, params, maxPages, roomFilter)
}

// SearchNeighborhood fetches transactions scoped to one neighborhood.
func (c *Client) SearchNeighborhood(ctx context.Context, city, neighborhood string) []models.Transaction {
	query := fmt.Sprintf("%s, %s", neighborhood, city)
	return c.GetTransactionsForAddress(ctx, query, 3, 0)
}

// SearchCity fetches transactions for an entire city at a coarser page
// budget.
func (c *Client) SearchCity(ctx context.Context, city string) []models.Transaction {
	return c.GetTransactionsForAddress(ctx, city, 2, 0)
}

// GetStreets lists the registry's street names for a city.
func (c *Client) GetStreets(ctx context.Context, city string) []string {
	target := fmt.Sprintf("%s/GetStreetsListByCityAndStartsWith?CityName=%s&startWithKey=-1",
		c.baseURL, url.QueryEscape(city))
	return c.lookup(ctx, target)
}

// GetNeighborhoods lists the registry's neighborhood names for a city.
func (c *Client) GetNeighborhoods(ctx context.Context, city string) []string {
	target := fmt.Sprintf("%s/GetNeighborhoodsListByCity?CityName=%s",
		c.baseURL, url.QueryEscape(city))
	return c.lookup(ctx, target)
}

func (c *Client) lookup(ctx context.Context, target string) []string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.relayWrap(target), nil)
	if err != nil {
		c.logger.WithError(err).Error("Failed to build lookup request")
		return nil
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).Error("Lookup request failed")
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.WithField("status", resp.StatusCode).Warn("Lookup returned non-200 status")
		return nil
	}

	var items []lookupItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		c.logger.WithError(err).Error("Failed to parse lookup response")
		return nil
	}

	names := make([]string, 0, len(items))
	for _, item := range items {
		if item.Text != "" {
			names = append(names, item.Text)
		}
	}
	return names
}

func defaultStr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
