// Package gen produces the synthetic order flow: side, size and price are
// drawn from the current market state plus randomness.
package gen

import (
	"math"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quantfold/lobsim/pkg/sim/book"
	"github.com/quantfold/lobsim/pkg/sim/regime"
)

const (
	aggressiveProb = 0.2
	baseQtyMin     = 5.0
	baseQtySpan    = 20.0
	contrarianMult = 1.5
)

var (
	bandLow  = decimal.RequireFromString("0.9")
	bandHigh = decimal.RequireFromString("1.1")
	edgeGap  = decimal.RequireFromString("0.1")
)

// View is the read-only market state a single order is generated from.
type View struct {
	BestBid    decimal.Decimal
	HasBid     bool
	BestAsk    decimal.Decimal
	HasAsk     bool
	LastTrade  decimal.Decimal
	Slope      float64
	Regime     regime.State
	Volatility float64
	Now        time.Time
}

// Generator draws orders from a seeded RNG and hands out monotonically
// increasing order ids. Generating an order has no side effect beyond
// consuming the next id.
type Generator struct {
	rng    *rand.Rand
	nextID uint64
}

func NewGenerator(rng *rand.Rand, startID uint64) *Generator {
	return &Generator{rng: rng, nextID: startID}
}

// Generate builds one order. The price is clamped into the ±10% band
// around the last trade price as the final step, after the aggressive
// override and after rounding, so the band holds unconditionally.
func (g *Generator) Generate(v View) *book.Order {
	priceMove := v.Slope + v.Regime.Bias() + (g.rng.Float64()-0.5)*v.Volatility
	side := g.chooseSide(v.Regime)

	qty := baseQtyMin + g.rng.Float64()*baseQtySpan
	if contrarian(side, v.Slope) {
		qty *= contrarianMult
	}

	var raw float64
	if side == book.Buy {
		anchor := v.LastTrade.Sub(edgeGap).InexactFloat64()
		if v.HasBid {
			anchor = v.BestBid.InexactFloat64()
		}
		adjustment := 0.0
		if v.Slope < 0 {
			adjustment = 2 * math.Abs(v.Slope)
		}
		raw = anchor + priceMove*0.5 + adjustment
		if v.HasAsk && g.rng.Float64() < aggressiveProb {
			// Aggressive order: price just past the best ask to cross now.
			raw = v.BestAsk.InexactFloat64() + g.rng.Float64()*0.01
		}
	} else {
		anchor := v.LastTrade.Add(edgeGap).InexactFloat64()
		if v.HasAsk {
			anchor = v.BestAsk.InexactFloat64()
		}
		adjustment := 0.0
		if v.Slope > 0 {
			adjustment = 2 * math.Abs(v.Slope)
		}
		raw = anchor - priceMove*0.5 - adjustment
		if v.HasBid && g.rng.Float64() < aggressiveProb {
			raw = v.BestBid.InexactFloat64() - g.rng.Float64()*0.01
		}
	}

	price := clampToBand(decimal.NewFromFloat(raw).Round(2), v.LastTrade)

	id := g.nextID
	g.nextID++
	return &book.Order{
		ID:        id,
		Side:      side,
		Price:     price,
		Qty:       decimal.NewFromFloat(qty).Round(1),
		Timestamp: v.Now,
	}
}

func (g *Generator) chooseSide(state regime.State) book.Side {
	buyProb := 0.5
	switch state {
	case regime.Up:
		buyProb = 0.65
	case regime.Down:
		buyProb = 0.35
	}
	if g.rng.Float64() < buyProb {
		return book.Buy
	}
	return book.Sell
}

// contrarian reports whether the order fades the trend: buying into a
// falling spread or selling into a rising one. Such orders are sized up.
func contrarian(side book.Side, slope float64) bool {
	return (side == book.Buy && slope < 0) || (side == book.Sell && slope > 0)
}

// clampToBand bounds a 2-decimal price into [last*0.9, last*1.1]. The band
// edges are rounded inward so the clamped price stays a valid 2-decimal
// value inside the band.
func clampToBand(price, last decimal.Decimal) decimal.Decimal {
	lo := last.Mul(bandLow).RoundCeil(2)
	hi := last.Mul(bandHigh).RoundFloor(2)
	if price.LessThan(lo) {
		return lo
	}
	if price.GreaterThan(hi) {
		return hi
	}
	return price
}

// NextID exposes the id counter for snapshot/diagnostic purposes.
func (g *Generator) NextID() uint64 { return g.nextID }
