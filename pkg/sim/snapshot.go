package sim

import (
	"github.com/shopspring/decimal"

	"github.com/quantfold/lobsim/pkg/sim/book"
	"github.com/quantfold/lobsim/pkg/sim/match"
)

// snapshotTradeLimit bounds the tape slice carried by per-tick snapshots.
const snapshotTradeLimit = 50

// Snapshot is a read-only copy of all derived display state. It is safe to
// retain: every slice is freshly allocated and decimals are immutable.
type Snapshot struct {
	BuyLevels     []book.Level
	SellLevels    []book.Level
	LastTrade     decimal.Decimal
	Spread        decimal.Decimal
	SpreadHistory []decimal.Decimal
	Regime        string
	Volatility    float64
	Slope         float64
	TotalVolume   decimal.Decimal
	TradeCount    int64
	CycleCount    int64
	RecentTrades  []match.Trade
}

// Snapshot captures the full current state, all trades included.
func (s *Simulation) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked(0)
}

func (s *Simulation) snapshotLocked(tradeLimit int) Snapshot {
	spread := decimal.Zero
	if bb, okB := s.book.BestBid(); okB {
		if ba, okA := s.book.BestAsk(); okA {
			spread = ba.Sub(bb)
		}
	}
	return Snapshot{
		BuyLevels:     s.book.BidLevels(),
		SellLevels:    s.book.AskLevels(),
		LastTrade:     s.engine.LastTradePrice(),
		Spread:        spread,
		SpreadHistory: s.predictor.Window(),
		Regime:        s.regime.State().String(),
		Volatility:    s.regime.Volatility(),
		Slope:         s.predictor.Slope(),
		TotalVolume:   s.engine.TotalVolume(),
		TradeCount:    s.engine.TradeCount(),
		CycleCount:    s.cycle,
		RecentTrades:  s.engine.Trades(tradeLimit),
	}
}
