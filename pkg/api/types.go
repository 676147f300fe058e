package api

// API response types for REST endpoints and WebSocket messages

import (
	"github.com/shopspring/decimal"
)

// ==============================
// REST Response Types
// ==============================

// PriceLevel is one aggregated book level.
type PriceLevel struct {
	Price  decimal.Decimal `json:"price"`
	Qty    decimal.Decimal `json:"qty"`
	Orders int             `json:"orders"`
}

// OrderbookResponse is the current book state, bids high to low and asks
// low to high.
type OrderbookResponse struct {
	Bids      []PriceLevel    `json:"bids"`
	Asks      []PriceLevel    `json:"asks"`
	LastPrice decimal.Decimal `json:"lastPrice"`
	Spread    decimal.Decimal `json:"spread"`
	Timestamp int64           `json:"timestamp"` // Unix milliseconds
}

// TradeInfo is one executed trade, as rendered on the tape.
type TradeInfo struct {
	ID    int64           `json:"id"`
	Price decimal.Decimal `json:"price"`
	Qty   decimal.Decimal `json:"qty"`
	Time  string          `json:"time"`
	Side  string          `json:"side"`
}

// StatsResponse carries the market-state accumulators and signals.
type StatsResponse struct {
	Regime        string            `json:"regime"` // "up", "down", "neutral"
	Volatility    float64           `json:"volatility"`
	Slope         float64           `json:"slope"`
	SpreadHistory []decimal.Decimal `json:"spreadHistory"` // oldest first
	TotalVolume   decimal.Decimal   `json:"totalVolume"`
	TradeCount    int64             `json:"tradeCount"`
	CycleCount    int64             `json:"cycleCount"`
}

// SimulationStatus reports the driver's control state.
type SimulationStatus struct {
	Running    bool  `json:"running"`
	IntervalMs int64 `json:"intervalMs"`
	CycleCount int64 `json:"cycleCount"`
}

// ErrorResponse is returned for all errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ==============================
// REST Request Types
// ==============================

// IntervalRequest is the payload for POST /api/v1/simulation/interval.
type IntervalRequest struct {
	IntervalMs int64 `json:"intervalMs"`
}

// ==============================
// WebSocket Message Types
// ==============================

// WSSubscribeRequest is sent by a client to manage channel subscriptions.
type WSSubscribeRequest struct {
	Op       string   `json:"op"`       // "subscribe" or "unsubscribe"
	Channels []string `json:"channels"` // "orderbook", "trades", "stats"
}

// OrderbookUpdate is broadcast on every tick.
type OrderbookUpdate struct {
	Type      string          `json:"type"` // "orderbook"
	Bids      []PriceLevel    `json:"bids"`
	Asks      []PriceLevel    `json:"asks"`
	LastPrice decimal.Decimal `json:"lastPrice"`
	Spread    decimal.Decimal `json:"spread"`
	Cycle     int64           `json:"cycle"`
	Timestamp int64           `json:"timestamp"`
}

// TradeUpdate is broadcast when a trade executes.
type TradeUpdate struct {
	Type  string          `json:"type"` // "trade"
	ID    int64           `json:"id"`
	Price decimal.Decimal `json:"price"`
	Qty   decimal.Decimal `json:"qty"`
	Time  string          `json:"time"`
	Side  string          `json:"side"`
}

// StatsUpdate is broadcast on every tick.
type StatsUpdate struct {
	Type          string            `json:"type"` // "stats"
	Regime        string            `json:"regime"`
	Volatility    float64           `json:"volatility"`
	Slope         float64           `json:"slope"`
	SpreadHistory []decimal.Decimal `json:"spreadHistory"`
	TotalVolume   decimal.Decimal   `json:"totalVolume"`
	TradeCount    int64             `json:"tradeCount"`
	Cycle         int64             `json:"cycle"`
}
