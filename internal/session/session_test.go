package session

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBaseURL = "https://unit.supabase.co"

func newTestClient(t *testing.T, token string) *Client {
	t.Helper()
	c := NewClient(Config{
		BaseURL:     testBaseURL,
		APIKey:      "anon-key",
		AccessToken: token,
		Timeout:     2 * time.Second,
		CacheTTL:    time.Minute,
	})
	httpmock.ActivateNonDefault(c.httpClient)
	t.Cleanup(httpmock.DeactivateAndReset)
	return c
}

func TestIdentityAnonymousWithoutToken(t *testing.T) {
	c := newTestClient(t, "")

	id := c.Identity(context.Background())

	assert.True(t, id.Anonymous())
	assert.Equal(t, "anonymous", id.DisplayName)
	assert.Zero(t, httpmock.GetTotalCallCount(), "anonymous session must not hit the auth endpoint")
}

func TestIdentityResolvesUser(t *testing.T) {
	c := newTestClient(t, "user-jwt")
	httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/auth/v1/user",
		httpmock.NewStringResponder(http.StatusOK, `{"id":"user-123","email":"ranger@example.org"}`))

	id := c.Identity(context.Background())

	require.False(t, id.Anonymous())
	assert.Equal(t, "user-123", id.UserID)
	assert.Equal(t, "ranger@example.org", id.DisplayName)
}

func TestIdentityCachesResolution(t *testing.T) {
	c := newTestClient(t, "user-jwt")
	httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/auth/v1/user",
		httpmock.NewStringResponder(http.StatusOK, `{"id":"user-123","email":"ranger@example.org"}`))

	first := c.Identity(context.Background())
	second := c.Identity(context.Background())

	assert.Equal(t, first, second)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())

	c.Invalidate()
	_ = c.Identity(context.Background())
	assert.Equal(t, 2, httpmock.GetTotalCallCount())
}

func TestIdentityFallsBackOnAuthFailure(t *testing.T) {
	tests := []struct {
		name      string
		responder httpmock.Responder
	}{
		{"unauthorized", httpmock.NewStringResponder(http.StatusUnauthorized, `{"msg":"invalid token"}`)},
		{"server error", httpmock.NewStringResponder(http.StatusInternalServerError, "boom")},
		{"bad json", httpmock.NewStringResponder(http.StatusOK, `{invalid`)},
		{"empty user id", httpmock.NewStringResponder(http.StatusOK, `{"email":"x@example.org"}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, "user-jwt")
			httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/auth/v1/user", tt.responder)

			id := c.Identity(context.Background())

			assert.True(t, id.Anonymous())
			assert.Equal(t, "anonymous", id.DisplayName)
		})
	}
}

func TestStaticProvider(t *testing.T) {
	p := Static{ID: Identity{UserID: "u", DisplayName: "u@example.org"}}
	assert.Equal(t, "u", p.Identity(context.Background()).UserID)
}
