// Package notestore wraps the remote note store: a PostgREST-style HTTP API
// holding the community notes and alerts tables. It exposes list and insert
// operations with typed results; all filtering for display happens client
// side in the render pipeline.
package notestore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/lsnmst/idjwi-alert-system/internal/alerts"
	"github.com/lsnmst/idjwi-alert-system/internal/errors"
	"github.com/lsnmst/idjwi-alert-system/internal/logging"
	"github.com/lsnmst/idjwi-alert-system/internal/notes"
	"github.com/lsnmst/idjwi-alert-system/internal/observability/metrics"
)

// Package-level logger specific to the notestore service
var (
	logger          *slog.Logger
	serviceLevelVar = new(slog.LevelVar)
	closeLogger     func() error
)

func init() {
	var err error
	logFilePath := filepath.Join("logs", "notestore.log")
	serviceLevelVar.Set(slog.LevelInfo)

	logger, closeLogger, err = logging.NewFileLogger(logFilePath, "notestore", serviceLevelVar)
	if err != nil {
		log.Printf("Failed to initialize notestore file logger at %s: %v. Service logging disabled.", logFilePath, err)
		fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: serviceLevelVar})
		logger = slog.New(fbHandler).With("service", "notestore")
		closeLogger = func() error { return nil }
	}
}

// Field projections requested from the store. The note projection is fixed:
// validation filtering is the render pipeline's responsibility, so the
// validated flag is always fetched, never filtered server side.
const (
	notesProjection  = "id,geom,title,description,category,validated,created_at,created_by_name"
	alertsProjection = "geom,alert_value,alert_date"
)

// Config holds note store client configuration.
type Config struct {
	BaseURL     string
	APIKey      string
	NotesTable  string
	AlertsTable string
	Timeout     time.Duration
	RetryMax    int // attempts for transient list failures
}

// DefaultConfig returns configuration defaults.
func DefaultConfig() Config {
	return Config{
		NotesTable:  "community_notes",
		AlertsTable: "alerts",
		Timeout:     10 * time.Second,
		RetryMax:    3,
	}
}

// Client is the remote note store client.
type Client struct {
	config     Config
	httpClient *http.Client
	metrics    *metrics.AnnotationMetrics
}

// NewClient creates a note store client. The metrics argument may be nil.
func NewClient(config Config, m *metrics.AnnotationMetrics) (*Client, error) {
	if config.BaseURL == "" {
		return nil, errors.Newf("note store base URL is required").
			Category(errors.CategoryConfiguration).
			Component("notestore").
			Build()
	}
	if config.NotesTable == "" {
		config.NotesTable = DefaultConfig().NotesTable
	}
	if config.AlertsTable == "" {
		config.AlertsTable = DefaultConfig().AlertsTable
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	if config.RetryMax == 0 {
		config.RetryMax = DefaultConfig().RetryMax
	}

	client := &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		metrics:    m,
	}

	logger.Info("Note store client initialized",
		"base_url", config.BaseURL,
		"notes_table", config.NotesTable,
		"alerts_table", config.AlertsTable,
		"timeout", config.Timeout,
		"api_key_configured", config.APIKey != "")

	return client, nil
}

// Close cleans up client resources.
func (c *Client) Close() {
	if closeLogger != nil {
		if err := closeLogger(); err != nil {
			log.Printf("Error closing notestore logger: %v", err)
		}
	}
}

// ListNotes requests all notes with the fixed field projection. Transient
// failures are retried; the caller decides what the rows mean for display.
func (c *Client) ListNotes(ctx context.Context) ([]notes.Note, error) {
	listURL := c.tableURL(c.config.NotesTable, notesProjection)

	var rows []notes.Note
	if err := c.doRequestWithRetry(ctx, "list_notes", http.MethodGet, listURL, nil, &rows); err != nil {
		return nil, err
	}

	logger.Debug("Listed notes", "count", len(rows))
	return rows, nil
}

// InsertNote submits a new note. The payload never carries id, validated or
// created_at: those are store-assigned. The created row is not returned; the
// next refresh picks it up subject to moderation timing. Inserts are not
// retried since they are not idempotent.
func (c *Client) InsertNote(ctx context.Context, payload notes.InsertPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Newf("failed to encode note payload: %w", err).
			Category(errors.CategoryValidation).
			Component("notestore").
			Build()
	}

	insertURL := fmt.Sprintf("%s/rest/v1/%s", c.config.BaseURL, c.config.NotesTable)
	if err := c.doRequest(ctx, "insert_note", http.MethodPost, insertURL, body, nil); err != nil {
		return err
	}

	logger.Info("Note inserted", "category", payload.Category, "title_len", len(payload.Title))
	return nil
}

// ListAlerts requests all deforestation alert rows.
func (c *Client) ListAlerts(ctx context.Context) ([]alerts.Alert, error) {
	listURL := c.tableURL(c.config.AlertsTable, alertsProjection)

	var rows []alerts.Alert
	if err := c.doRequestWithRetry(ctx, "list_alerts", http.MethodGet, listURL, nil, &rows); err != nil {
		return nil, err
	}

	logger.Debug("Listed alerts", "count", len(rows))
	return rows, nil
}

func (c *Client) tableURL(table, projection string) string {
	return fmt.Sprintf("%s/rest/v1/%s?select=%s", c.config.BaseURL, table, url.QueryEscape(projection))
}

// doRequest performs one HTTP request against the store with auth headers
// and enhanced error reporting.
func (c *Client) doRequest(ctx context.Context, operation, method, requestURL string, body []byte, result any) error {
	start := time.Now()

	reqCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	var bodyReader io.Reader = http.NoBody
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(reqCtx, method, requestURL, bodyReader)
	if err != nil {
		c.metrics.RecordStoreRequest(operation, "error", time.Since(start))
		return errors.Newf("failed to create HTTP request: %w", err).
			Category(errors.CategoryNetwork).
			Context("method", method).
			Context("url", requestURL).
			Component("notestore").
			Build()
	}

	req.Header.Set("apikey", c.config.APIKey)
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
		// The insert result row is unused; the follow-up refresh fetches it
		req.Header.Set("Prefer", "return=minimal")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordStoreRequest(operation, "error", time.Since(start))
		logger.Error("Store request failed",
			"operation", operation,
			"method", method,
			"url", requestURL,
			"error", err)
		return errors.Newf("store request failed: %w", err).
			Category(errors.CategoryNetwork).
			Context("operation", operation).
			Context("url", requestURL).
			Component("notestore").
			Build()
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.RecordStoreRequest(operation, "error", time.Since(start))
		return errors.Newf("failed to read store response: %w", err).
			Category(errors.CategoryNetwork).
			Context("operation", operation).
			Context("status_code", resp.StatusCode).
			Component("notestore").
			Build()
	}

	if resp.StatusCode >= 400 {
		c.metrics.RecordStoreRequest(operation, "error", time.Since(start))

		preview := string(bodyBytes)
		if len(preview) > 500 {
			preview = preview[:500] + "..."
		}
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			logger.Error("Store authentication failed",
				"operation", operation,
				"status_code", resp.StatusCode,
				"response_body", preview,
				"api_key_configured", c.config.APIKey != "")
		} else {
			logger.Warn("Store error response",
				"operation", operation,
				"status_code", resp.StatusCode,
				"response_body", preview)
		}

		return errors.Newf("store error (status %d): %s", resp.StatusCode, preview).
			Category(getErrorCategory(resp.StatusCode)).
			Context("operation", operation).
			Context("status_code", resp.StatusCode).
			Context("url", requestURL).
			Component("notestore").
			Build()
	}

	if result != nil {
		contentType := resp.Header.Get("Content-Type")
		if !strings.Contains(strings.ToLower(contentType), "application/json") {
			c.metrics.RecordStoreRequest(operation, "error", time.Since(start))
			return errors.Newf("store returned non-JSON response (Content-Type: %s)", contentType).
				Category(errors.CategoryNetwork).
				Context("operation", operation).
				Context("content_type", contentType).
				Component("notestore").
				Build()
		}
		if err := json.Unmarshal(bodyBytes, result); err != nil {
			c.metrics.RecordStoreRequest(operation, "error", time.Since(start))
			logger.Error("Failed to parse store response",
				"operation", operation,
				"error", err,
				"response_size", len(bodyBytes))
			return errors.Newf("failed to parse store response: %w", err).
				Category(errors.CategoryParsing).
				Context("operation", operation).
				Context("response_size", len(bodyBytes)).
				Component("notestore").
				Build()
		}
	}

	duration := time.Since(start)
	c.metrics.RecordStoreRequest(operation, "success", duration)
	logger.Debug("Store request successful",
		"operation", operation,
		"status_code", resp.StatusCode,
		"duration_ms", duration.Milliseconds())

	return nil
}

// doRequestWithRetry wraps doRequest with retry for transient failures.
// Only used for idempotent list operations.
func (c *Client) doRequestWithRetry(ctx context.Context, operation, method, requestURL string, body []byte, result any) error {
	var lastErr error

	for attempt := 0; attempt < c.config.RetryMax; attempt++ {
		err := c.doRequest(ctx, operation, method, requestURL, body, result)
		if err == nil {
			return nil
		}

		var enhancedErr *errors.EnhancedError
		if errors.As(err, &enhancedErr) {
			// Configuration and validation errors won't heal on retry
			if enhancedErr.Category == errors.CategoryConfiguration ||
				enhancedErr.Category == errors.CategoryValidation ||
				enhancedErr.Category == errors.CategoryNotFound {
				return err
			}
			if statusCode, ok := enhancedErr.Context["status_code"].(int); ok {
				if statusCode >= 400 && statusCode < 500 && statusCode != http.StatusTooManyRequests {
					return err
				}
			}
		}

		lastErr = err
		if ctx.Err() != nil {
			return lastErr
		}

		if attempt < c.config.RetryMax-1 {
			delay := time.Duration(attempt+1) * 500 * time.Millisecond
			logger.Warn("Store request failed, retrying",
				"operation", operation,
				"attempt", attempt+1,
				"max_retries", c.config.RetryMax,
				"delay_ms", delay.Milliseconds(),
				"error", err.Error())

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return lastErr
}

// getErrorCategory maps an HTTP status code to an error category.
func getErrorCategory(statusCode int) errors.ErrorCategory {
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.CategoryConfiguration
	case http.StatusTooManyRequests:
		return errors.CategoryLimit
	case http.StatusNotFound:
		return errors.CategoryNotFound
	default:
		return errors.CategoryNetwork
	}
}
