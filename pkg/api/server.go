package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/quantfold/lobsim/pkg/sim"
	"github.com/quantfold/lobsim/pkg/sim/book"
	"github.com/quantfold/lobsim/pkg/sim/match"
)

// Server exposes the simulation's control/query boundary over REST and
// pushes per-tick updates over WebSocket.
type Server struct {
	sim     *sim.Simulation
	router  *mux.Router
	hub     *Hub
	log     *zap.SugaredLogger
	origins []string
}

func NewServer(simulation *sim.Simulation, logger *zap.SugaredLogger, origins []string) *Server {
	s := &Server{
		sim:     simulation,
		router:  mux.NewRouter(),
		hub:     NewHub(logger),
		log:     logger,
		origins: origins,
	}
	s.setupRoutes()

	// Per-tick push: the driver invokes these outside its state lock.
	simulation.OnTick = s.broadcastTick
	simulation.OnTrade = s.broadcastTrade
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	// Query endpoints
	api.HandleFunc("/orderbook", s.handleGetOrderbook).Methods("GET")
	api.HandleFunc("/trades", s.handleGetTrades).Methods("GET")
	api.HandleFunc("/stats", s.handleGetStats).Methods("GET")
	api.HandleFunc("/simulation", s.handleGetSimulation).Methods("GET")

	// Control endpoints
	api.HandleFunc("/simulation/start", s.handleStart).Methods("POST")
	api.HandleFunc("/simulation/stop", s.handleStop).Methods("POST")
	api.HandleFunc("/simulation/interval", s.handleSetInterval).Methods("POST")

	// WebSocket endpoint
	s.router.HandleFunc("/ws", s.handleWebSocket)

	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Start runs the WebSocket hub and blocks serving HTTP.
func (s *Server) Start(addr string) error {
	go s.hub.Run()

	c := cors.New(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})

	s.log.Infow("api_server_starting", "addr", addr)
	return http.ListenAndServe(addr, c.Handler(s.router))
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler { return s.router }

// ==============================
// REST Handlers
// ==============================

func (s *Server) handleGetOrderbook(w http.ResponseWriter, r *http.Request) {
	snap := s.sim.Snapshot()
	respondJSON(w, OrderbookResponse{
		Bids:      toAPILevels(snap.BuyLevels),
		Asks:      toAPILevels(snap.SellLevels),
		LastPrice: snap.LastTrade,
		Spread:    snap.Spread,
		Timestamp: time.Now().UnixMilli(),
	})
}

func (s *Server) handleGetTrades(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if q := r.URL.Query().Get("limit"); q != "" {
		v, err := strconv.Atoi(q)
		if err != nil || v < 0 {
			respondError(w, http.StatusBadRequest, "invalid limit", q)
			return
		}
		limit = v
	}

	trades := s.sim.Trades(limit)
	out := make([]TradeInfo, len(trades))
	for i, t := range trades {
		out[i] = toAPITrade(t)
	}
	respondJSON(w, out)
}

func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	snap := s.sim.Snapshot()
	respondJSON(w, StatsResponse{
		Regime:        snap.Regime,
		Volatility:    snap.Volatility,
		Slope:         snap.Slope,
		SpreadHistory: snap.SpreadHistory,
		TotalVolume:   snap.TotalVolume,
		TradeCount:    snap.TradeCount,
		CycleCount:    snap.CycleCount,
	})
}

func (s *Server) handleGetSimulation(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, SimulationStatus{
		Running:    s.sim.IsRunning(),
		IntervalMs: s.sim.TickInterval().Milliseconds(),
		CycleCount: s.sim.CycleCount(),
	})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	s.sim.Start()
	s.handleGetSimulation(w, r)
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.sim.Stop()
	s.handleGetSimulation(w, r)
}

func (s *Server) handleSetInterval(w http.ResponseWriter, r *http.Request) {
	var req IntervalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := s.sim.SetTickInterval(time.Duration(req.IntervalMs) * time.Millisecond); err != nil {
		respondError(w, http.StatusBadRequest, "invalid interval", err.Error())
		return
	}
	s.handleGetSimulation(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

// ==============================
// Broadcast Methods (called from the driver)
// ==============================

func (s *Server) broadcastTick(snap sim.Snapshot) {
	now := time.Now().UnixMilli()
	s.hub.BroadcastToChannel("orderbook", OrderbookUpdate{
		Type:      "orderbook",
		Bids:      toAPILevels(snap.BuyLevels),
		Asks:      toAPILevels(snap.SellLevels),
		LastPrice: snap.LastTrade,
		Spread:    snap.Spread,
		Cycle:     snap.CycleCount,
		Timestamp: now,
	})
	s.hub.BroadcastToChannel("stats", StatsUpdate{
		Type:          "stats",
		Regime:        snap.Regime,
		Volatility:    snap.Volatility,
		Slope:         snap.Slope,
		SpreadHistory: snap.SpreadHistory,
		TotalVolume:   snap.TotalVolume,
		TradeCount:    snap.TradeCount,
		Cycle:         snap.CycleCount,
	})
}

func (s *Server) broadcastTrade(t match.Trade) {
	s.hub.BroadcastToChannel("trades", TradeUpdate{
		Type:  "trade",
		ID:    t.ID,
		Price: t.Price,
		Qty:   t.Qty,
		Time:  t.Time,
		Side:  t.Side.String(),
	})
}

// ==============================
// Helper Functions
// ==============================

func toAPILevels(levels []book.Level) []PriceLevel {
	out := make([]PriceLevel, len(levels))
	for i, l := range levels {
		out[i] = PriceLevel{Price: l.Price, Qty: l.Qty, Orders: l.Orders}
	}
	return out
}

func toAPITrade(t match.Trade) TradeInfo {
	return TradeInfo{
		ID:    t.ID,
		Price: t.Price,
		Qty:   t.Qty,
		Time:  t.Time,
		Side:  t.Side.String(),
	}
}

func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, error string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   error,
		Message: message,
	})
}
