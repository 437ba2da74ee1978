// Package ai generates a natural-language synthesis of a finished market
// analysis report via a text-generation API. The summarizer degrades to a
// fixed placeholder whenever the credential is absent or the call fails;
// the report is always valid without it.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"realcapital/server/config"
	"realcapital/server/internal/models"
)

// Placeholder is returned whenever a narrative cannot be generated.
const Placeholder = "סיכום AI לא זמין - יש להגדיר ANTHROPIC_API_KEY בקובץ .env"

// Summarizer calls the messages API to narrate a report.
type Summarizer struct {
	apiKey     string
	baseURL    string
	model      string
	maxTokens  int
	logger     *logrus.Logger
	httpClient *http.Client
}

// NewSummarizer creates a summarizer from the process configuration.
func NewSummarizer(cfg *config.Config, logger *logrus.Logger) *Summarizer {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Summarizer{
		apiKey:    cfg.AI.APIKey,
		baseURL:   cfg.AI.BaseURL,
		model:     cfg.AI.Model,
		maxTokens: cfg.AI.MaxTokens,
		logger:    logger,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.AI.Timeout) * time.Second,
		},
	}
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

// Summarize produces the report narrative, or the placeholder when the
// credential is missing or the call fails. It never returns an error.
func (s *Summarizer) Summarize(ctx context.Context, report *models.MarketAnalysisReport) string {
	if s.apiKey == "" {
		s.logger.Warn("AI credential not configured, skipping summary")
		return Placeholder
	}

	prompt := BuildPrompt(report)

	payload, err := json.Marshal(messagesRequest{
		Model:     s.model,
		MaxTokens: s.maxTokens,
		Messages:  []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		s.logger.WithError(err).Error("Failed to marshal summary request")
		return Placeholder
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.baseURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		s.logger.WithError(err).Error("Failed to build summary request")
		return Placeholder
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", s.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.WithError(err).Error("Summary request failed")
		return Placeholder
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		s.logger.WithError(err).Error("Failed to read summary response")
		return Placeholder
	}

	if resp.StatusCode != http.StatusOK {
		s.logger.WithFields(logrus.Fields{
			"status": resp.StatusCode,
			"body":   truncate(string(body), 300),
		}).Error("Summary request returned non-200 status")
		return Placeholder
	}

	var parsed messagesResponse
	if err := json.Unmarshal(body, &parsed); err != nil || len(parsed.Content) == 0 {
		s.logger.WithError(err).Error("Failed to parse summary response")
		return Placeholder
	}

	summary := parsed.Content[0].Text
	s.logger.WithField("chars", len(summary)).Info("AI summary generated")
	return summary
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return fmt.Sprintf("%s...", s[:n])
}
