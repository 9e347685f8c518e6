// Package session resolves the identity of the submitting user from the
// store's auth endpoint. Resolution is best-effort: any failure yields the
// anonymous identity so submission is never blocked on auth.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/lsnmst/idjwi-alert-system/internal/logging"
)

// Package-level logger specific to session service
var (
	logger          *slog.Logger
	serviceLevelVar = new(slog.LevelVar)
	closeLogger     func() error
)

func init() {
	var err error
	logFilePath := filepath.Join("logs", "session.log")
	serviceLevelVar.Set(slog.LevelInfo)

	logger, closeLogger, err = logging.NewFileLogger(logFilePath, "session", serviceLevelVar)
	if err != nil {
		log.Printf("Failed to initialize session file logger at %s: %v. Service logging disabled.", logFilePath, err)
		fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: serviceLevelVar})
		logger = slog.New(fbHandler).With("service", "session")
		closeLogger = func() error { return nil }
	}
}

// Identity is the best-effort identity of the current session.
type Identity struct {
	UserID      string // store user id, empty when anonymous
	DisplayName string // email or the anonymous fallback label
}

// Anonymous reports whether no authenticated user backs this identity.
func (id Identity) Anonymous() bool {
	return id.UserID == ""
}

// Provider resolves the current session identity. Implementations never
// return an error; failures degrade to the anonymous identity.
type Provider interface {
	Identity(ctx context.Context) Identity
}

// Config holds session client configuration.
type Config struct {
	BaseURL        string
	APIKey         string
	AccessToken    string // user JWT; empty means anonymous session
	Timeout        time.Duration
	CacheTTL       time.Duration
	AnonymousLabel string
}

// DefaultConfig returns configuration defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:        5 * time.Second,
		CacheTTL:       5 * time.Minute,
		AnonymousLabel: "anonymous",
	}
}

// Client resolves identity against a Supabase-style auth endpoint
// (GET {base}/auth/v1/user) and caches the result.
type Client struct {
	config     Config
	httpClient *http.Client
	cache      *cache.Cache
}

const identityCacheKey = "identity"

// NewClient creates a session client.
func NewClient(config Config) *Client {
	if config.Timeout == 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	if config.CacheTTL == 0 {
		config.CacheTTL = DefaultConfig().CacheTTL
	}
	if config.AnonymousLabel == "" {
		config.AnonymousLabel = DefaultConfig().AnonymousLabel
	}
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		cache:      cache.New(config.CacheTTL, config.CacheTTL*2),
	}
}

// Identity implements Provider.
func (c *Client) Identity(ctx context.Context) Identity {
	if cached, found := c.cache.Get(identityCacheKey); found {
		if id, ok := cached.(Identity); ok {
			return id
		}
	}

	id := c.resolve(ctx)
	c.cache.Set(identityCacheKey, id, cache.DefaultExpiration)
	return id
}

// Invalidate drops the cached identity, forcing re-resolution on next use.
func (c *Client) Invalidate() {
	c.cache.Delete(identityCacheKey)
}

func (c *Client) anonymous() Identity {
	return Identity{DisplayName: c.config.AnonymousLabel}
}

// authUserResponse is the subset of the auth endpoint response we use.
type authUserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (c *Client) resolve(ctx context.Context) Identity {
	if c.config.AccessToken == "" {
		return c.anonymous()
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	url := fmt.Sprintf("%s/auth/v1/user", c.config.BaseURL)
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, http.NoBody)
	if err != nil {
		logger.Warn("Failed to build auth request, falling back to anonymous", "error", err)
		return c.anonymous()
	}
	req.Header.Set("apikey", c.config.APIKey)
	req.Header.Set("Authorization", "Bearer "+c.config.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Warn("Auth request failed, falling back to anonymous", "error", err)
		return c.anonymous()
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		logger.Warn("Auth request rejected, falling back to anonymous",
			"status_code", resp.StatusCode)
		return c.anonymous()
	}

	var user authUserResponse
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		logger.Warn("Failed to decode auth response, falling back to anonymous", "error", err)
		return c.anonymous()
	}
	if user.ID == "" {
		return c.anonymous()
	}

	display := user.Email
	if display == "" {
		display = c.config.AnonymousLabel
	}

	logger.Debug("Resolved session identity", "user_id", user.ID)
	return Identity{UserID: user.ID, DisplayName: display}
}

// Close releases client resources.
func (c *Client) Close() {
	if closeLogger != nil {
		if err := closeLogger(); err != nil {
			log.Printf("Error closing session logger: %v", err)
		}
	}
}

// Static is a Provider returning a fixed identity. Useful in tests and
// headless runs.
type Static struct {
	ID Identity
}

// Identity implements Provider.
func (s Static) Identity(context.Context) Identity {
	return s.ID
}
