package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/quantfold/lobsim/params"
	"github.com/quantfold/lobsim/pkg/api"
	"github.com/quantfold/lobsim/pkg/sim"
	"github.com/quantfold/lobsim/pkg/util"
)

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) After(d time.Duration) <-chan time.Time {
	// Never fires: the tests drive ticks by hand.
	return make(chan time.Time)
}

var _ util.Clock = (*manualClock)(nil)

func newTestServer(t *testing.T) (*api.Server, *sim.Simulation) {
	t.Helper()
	cfg := params.Default()
	cfg.Simulation.Seed = 42
	s := sim.New(cfg.Simulation, zap.NewNop().Sugar(), &manualClock{now: time.Unix(1700000000, 0)})
	return api.NewServer(s, zap.NewNop().Sugar(), cfg.Server.AllowedOrigins), s
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doRequest(t, srv.Handler(), "GET", "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var out map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "ok", out["status"])
}

func TestGetOrderbook(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doRequest(t, srv.Handler(), "GET", "/api/v1/orderbook", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var out api.OrderbookResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))

	require.Len(t, out.Bids, 5)
	require.Len(t, out.Asks, 5)
	assert.Equal(t, "49.95", out.Bids[0].Price.String())
	assert.Equal(t, "50.05", out.Asks[0].Price.String())
	assert.Equal(t, "50", out.LastPrice.String())
	assert.Equal(t, "0.1", out.Spread.String())
}

func TestGetTrades(t *testing.T) {
	srv, simulation := newTestServer(t)
	for i := 0; i < 100; i++ {
		simulation.Tick()
	}

	rec := doRequest(t, srv.Handler(), "GET", "/api/v1/trades", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var all []api.TradeInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	require.NotEmpty(t, all)

	rec = doRequest(t, srv.Handler(), "GET", "/api/v1/trades?limit=3", "")
	var limited []api.TradeInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &limited))
	assert.LessOrEqual(t, len(limited), 3)
}

func TestGetTradesInvalidLimit(t *testing.T) {
	srv, _ := newTestServer(t)
	for _, q := range []string{"abc", "-1"} {
		rec := doRequest(t, srv.Handler(), "GET", "/api/v1/trades?limit="+q, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, "limit=%s", q)
	}
}

func TestGetStats(t *testing.T) {
	srv, simulation := newTestServer(t)
	for i := 0; i < 10; i++ {
		simulation.Tick()
	}

	rec := doRequest(t, srv.Handler(), "GET", "/api/v1/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var out api.StatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Contains(t, []string{"neutral", "up", "down"}, out.Regime)
	assert.Equal(t, int64(10), out.CycleCount)
	assert.NotEmpty(t, out.SpreadHistory)
}

func TestSimulationStartStop(t *testing.T) {
	srv, simulation := newTestServer(t)
	h := srv.Handler()

	rec := doRequest(t, h, "GET", "/api/v1/simulation", "")
	var status api.SimulationStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.False(t, status.Running)

	rec = doRequest(t, h, "POST", "/api/v1/simulation/start", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.True(t, status.Running)
	assert.True(t, simulation.IsRunning())

	rec = doRequest(t, h, "POST", "/api/v1/simulation/stop", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.False(t, status.Running)
	assert.False(t, simulation.IsRunning())
}

func TestSetInterval(t *testing.T) {
	srv, simulation := newTestServer(t)
	h := srv.Handler()

	rec := doRequest(t, h, "POST", "/api/v1/simulation/interval", `{"intervalMs":250}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var status api.SimulationStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, int64(250), status.IntervalMs)
	assert.Equal(t, 250*time.Millisecond, simulation.TickInterval())
}

func TestSetIntervalRejectsNonPositive(t *testing.T) {
	srv, simulation := newTestServer(t)
	h := srv.Handler()

	for _, body := range []string{`{"intervalMs":0}`, `{"intervalMs":-100}`, `not json`} {
		rec := doRequest(t, h, "POST", "/api/v1/simulation/interval", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %s", body)

		var e api.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
		assert.NotEmpty(t, e.Error)
	}

	// The configured interval is untouched.
	assert.Equal(t, params.Default().Simulation.TickInterval, simulation.TickInterval())
}

func TestUnknownRouteIs404(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doRequest(t, srv.Handler(), "GET", "/api/v1/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
