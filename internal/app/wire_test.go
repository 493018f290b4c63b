package app

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bancalot/platform/internal/infra"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *infra.Config {
	return &infra.Config{
		BusinessTimezone:     "UTC",
		DefaultCutoffMinutes: 5,
		CORSAllowedOrigins:   "*",
		OutboxBatchSize:      100,
		OutboxPollInterval:   time.Second,
		SubmitRateLimit:      10,
		SubmitRateWindow:     time.Minute,
	}
}

func TestNewRouter_Routes(t *testing.T) {
	c, err := NewRouter(RouterDeps{Config: testConfig(), Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	require.NoError(t, err)
	assert.Nil(t, c.RuleCache)

	var routes []string
	require.NoError(t, chi.Walk(c.Router, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, method+" "+strings.TrimSuffix(route, "/"))
		return nil
	}))

	for _, want := range []string{
		"GET /health",
		"GET /rules/effective",
		"GET /sellers/{sellerID}/daily-sales",
		"POST /tickets",
		"POST /tickets/admission",
		"GET /tickets/{ticketID}/payout",
		"POST /tickets/{ticketID}/payments",
		"POST /payments/{paymentID}/reverse",
		"POST /admin/rules",
	} {
		assert.Contains(t, routes, want)
	}
}

func TestNewRouter_ValidatesBeforeDatabase(t *testing.T) {
	c, err := NewRouter(RouterDeps{Config: testConfig(), Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	c.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/rules/effective?bank_id=nope", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestNewRouter_BadTimezone(t *testing.T) {
	cfg := testConfig()
	cfg.BusinessTimezone = "Nowhere/Land"
	_, err := NewRouter(RouterDeps{Config: cfg, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	assert.Error(t, err)
}
