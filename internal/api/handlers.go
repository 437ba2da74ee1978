package api

import (
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"realcapital/server/config"
	"realcapital/server/internal/nadlan"
	"realcapital/server/internal/orchestrator"
	"realcapital/server/internal/store"
)

type Handler struct {
	orchestrator *orchestrator.Orchestrator
	registry     *nadlan.Client
	store        *store.Store
	logger       *logrus.Logger
}

func NewHandler(orch *orchestrator.Orchestrator, registry *nadlan.Client, st *store.Store, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Handler{
		orchestrator: orch,
		registry:     registry,
		store:        st,
		logger:       logger,
	}
}

// Analyze runs a full market analysis for the posted request. The run
// always produces a report; degraded runs carry their messages in the
// report's error list.
func (h *Handler) Analyze(c *gin.Context) {
	var req orchestrator.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Error("Failed to parse analyze request")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request parameters"})
		return
	}
	if req.Address == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "address is required"})
		return
	}

	runID := uuid.NewString()
	log := h.logger.WithFields(logrus.Fields{
		"run_id":  runID,
		"address": req.Address,
	})
	log.Info("Starting analysis run")
	started := time.Now()

	report := h.orchestrator.Run(c.Request.Context(), req, nil)

	// Cache fetched transactions for the transactions browser.
	if h.store != nil && len(report.Transactions) > 0 {
		if _, err := h.store.SaveTransactions(report.Transactions); err != nil {
			log.WithError(err).Error("Failed to cache run transactions")
		}
	}

	log.WithFields(logrus.Fields{
		"duration_ms":  time.Since(started).Milliseconds(),
		"transactions": report.TotalTransactions(),
		"listings":     report.TotalListings(),
	}).Info("Analysis run complete")

	c.JSON(http.StatusOK, gin.H{
		"run_id": runID,
		"report": report,
	})
}

// GetCities returns the cities with a known marketplace code.
func (h *Handler) GetCities(c *gin.Context) {
	c.JSON(http.StatusOK, config.CityNames())
}

// GetStreets proxies the registry's street lookup for a city.
func (h *Handler) GetStreets(c *gin.Context) {
	city := c.Query("city")
	if city == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "city is required"})
		return
	}
	c.JSON(http.StatusOK, h.registry.GetStreets(c.Request.Context(), city))
}

// GetNeighborhoods proxies the registry's neighborhood lookup for a city.
func (h *Handler) GetNeighborhoods(c *gin.Context) {
	city := c.Query("city")
	if city == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "city is required"})
		return
	}
	c.JSON(http.StatusOK, h.registry.GetNeighborhoods(c.Request.Context(), city))
}

// GetTransactions lists cached transactions matching the query filters.
func (h *Handler) GetTransactions(c *gin.Context) {
	filter := store.Filter{
		City:         c.Query("city"),
		Street:       c.Query("street"),
		PropertyType: c.Query("property_type"),
		MinRooms:     queryFloat(c, "min_rooms"),
		MaxRooms:     queryFloat(c, "max_rooms"),
		MinSqm:       queryFloat(c, "min_sqm"),
		MaxSqm:       queryFloat(c, "max_sqm"),
		MinPrice:     queryFloat(c, "min_price"),
		MaxPrice:     queryFloat(c, "max_price"),
		RadiusKm:     queryFloat(c, "radius_km"),
		CenterLat:    queryFloat(c, "center_lat"),
		CenterLng:    queryFloat(c, "center_lng"),
	}

	records, err := h.store.ListTransactions(filter)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list cached transactions")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list transactions"})
		return
	}

	summary := store.SummarizeComps(records, queryFloat(c, "subject_price"), queryFloat(c, "subject_sqm"))
	c.JSON(http.StatusOK, gin.H{
		"transactions": records,
		"summary":      summary,
	})
}

// ImportTransactions imports a manually exported CSV into the cache.
func (h *Handler) ImportTransactions(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	f, err := file.Open()
	if err != nil {
		h.logger.WithError(err).Error("Failed to open uploaded file")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read upload"})
		return
	}
	defer f.Close()

	inserted, rowErrors, err := h.store.ImportCSV(f, c.PostForm("source"))
	if err != nil {
		h.logger.WithError(err).Error("Failed to import CSV")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to import file"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"inserted":   inserted,
		"row_errors": rowErrors,
	})
}

// ClearTransactions empties the session cache.
func (h *Handler) ClearTransactions(c *gin.Context) {
	if err := h.store.Clear(); err != nil {
		h.logger.WithError(err).Error("Failed to clear transaction cache")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear transactions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func queryFloat(c *gin.Context, name string) *float64 {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &f
}
