package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/video-guides/internal/auth"
	"github.com/sakif/video-guides/internal/config"
	"github.com/sakif/video-guides/internal/model"
)

const testSecret = "server-test-secret-0123456789"

// fakeProcessor answers like the real service with a fixed recipe.
func fakeProcessor(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"success": true,
			"title": "Weeknight Ramen",
			"output": "## Steps\n1. Boil",
			"thumbnail_url": "https://cdn.example/ramen.jpg",
			"ingredients": [{"name": "noodles", "quantity": "200", "unit": "g"}],
			"metadata": {"mime_type": "video/mp4", "has_thumbnail": true}
		}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestServer(t *testing.T, processorURL string) *Server {
	t.Helper()
	cfg := &config.Config{
		Port:               8080,
		DBPath:             ":memory:",
		JWTSecret:          testSecret,
		SessionTTL:         time.Hour,
		GitHubClientID:     "id",
		GitHubClientSecret: "secret",
		GitHubCallbackURL:  "http://localhost:8080/auth/github/callback",
		ProcessorURL:       processorURL,
		ProcessorAPIKey:    "test-key",
		ProcessorTimeout:   5 * time.Second,
		DefaultCredits:     3,
	}
	s, err := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedUser(t *testing.T, s *Server, credits int) (*model.User, string) {
	t.Helper()
	ctx := context.Background()
	user := &model.User{GitHubID: 7, Login: "cook", Credits: credits}
	require.NoError(t, s.db.Upsert(ctx, user))
	require.NoError(t, s.db.UpdateEntitlement(ctx, user.ID, credits, model.SubscriptionNone))

	tokens, err := auth.NewTokenService(testSecret, time.Hour)
	require.NoError(t, err)
	token, err := tokens.Generate(user.ID)
	require.NoError(t, err)
	return user, token
}

func request(t *testing.T, s *Server, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}

func TestServer_AnalysisFlow(t *testing.T) {
	var calls atomic.Int32
	s := newTestServer(t, fakeProcessor(t, &calls).URL)
	user, token := seedUser(t, s, 2)

	body := `{"videoUrl":"https://www.youtube.com/watch?v=ramen1","type":"cooking"}`

	// first request pays
	rr := request(t, s, http.MethodPost, "/api/analyses", token, body)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var created model.VideoAnalysis
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&created))
	assert.Equal(t, "Weeknight Ramen", created.Title)
	assert.Equal(t, model.PlatformYouTube, created.Platform)
	assert.NotEmpty(t, rr.Header().Get("Content-Type"))

	stored, err := s.db.GetUserByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Credits)

	// same URL again is served from the cache
	rr = request(t, s, http.MethodPost, "/api/analyses", token, body)
	require.Equal(t, http.StatusOK, rr.Code)
	var cached model.VideoAnalysis
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&cached))
	assert.Equal(t, created.ID, cached.ID)
	assert.Equal(t, int32(1), calls.Load())

	stored, err = s.db.GetUserByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Credits)

	// readable by id and listed in history
	rr = request(t, s, http.MethodGet, "/api/analyses/"+created.ID, token, "")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = request(t, s, http.MethodGet, "/api/analyses", token, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var history []model.VideoAnalysis
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&history))
	assert.NotEmpty(t, history)
}

func TestServer_Routes(t *testing.T) {
	var calls atomic.Int32
	s := newTestServer(t, fakeProcessor(t, &calls).URL)
	_, token := seedUser(t, s, 0)

	tests := []struct {
		name       string
		method     string
		path       string
		token      string
		body       string
		wantStatus int
	}{
		{"validate-url is public", http.MethodGet, "/api/validate-url?url=https://vimeo.com/1", "", "", http.StatusOK},
		{"validate-url with a session", http.MethodGet, "/api/validate-url?url=https://youtu.be/x", token, "", http.StatusOK},
		{"validate-url ignores a bad token", http.MethodGet, "/api/validate-url?url=https://youtu.be/x", "garbage", "", http.StatusOK},
		{"analyses need a session", http.MethodPost, "/api/analyses", "", `{}`, http.StatusUnauthorized},
		{"me needs a session", http.MethodGet, "/api/me", "", "", http.StatusUnauthorized},
		{"me", http.MethodGet, "/api/me", token, "", http.StatusOK},
		{"no credits", http.MethodPost, "/api/analyses", token,
			`{"videoUrl":"https://www.tiktok.com/@chef/video/1","type":"cooking"}`, http.StatusPaymentRequired},
		{"unknown analysis", http.MethodGet, "/api/analyses/nope", token, "", http.StatusNotFound},
		{"login redirects", http.MethodGet, "/auth/github/login", "", "", http.StatusTemporaryRedirect},
		{"logout", http.MethodPost, "/auth/logout", "", "", http.StatusOK},
		{"unknown route", http.MethodGet, "/nope", "", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := request(t, s, tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.wantStatus, rr.Code, rr.Body.String())
		})
	}

	assert.Zero(t, calls.Load(), "no request above should reach the processor")
}

func TestNew_BadProcessorURL(t *testing.T) {
	cfg := &config.Config{
		DBPath:           ":memory:",
		JWTSecret:        testSecret,
		SessionTTL:       time.Hour,
		ProcessorTimeout: time.Second,
	}
	_, err := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}
