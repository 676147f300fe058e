package book

import (
	"sort"

	"github.com/shopspring/decimal"
)

var (
	pruneLow  = decimal.RequireFromString("0.95")
	pruneHigh = decimal.RequireFromString("1.05")
	two       = decimal.NewFromInt(2)
)

// PruneStale evicts resting orders too far from the current midprice: buys
// at or below mid*0.95 and sells at or above mid*1.05. A one-sided or empty
// book is left untouched. Returns the number of evicted orders.
func (ob *OrderBook) PruneStale() int {
	bb, okB := ob.BestBid()
	ba, okA := ob.BestAsk()
	if !okB || !okA {
		return 0
	}
	mid := bb.Add(ba).Div(two)
	cutLow := mid.Mul(pruneLow)
	cutHigh := mid.Mul(pruneHigh)

	evicted := 0
	for k, q := range ob.bids {
		if keyPrice(k).LessThanOrEqual(cutLow) {
			evicted += len(q)
			delete(ob.bids, k)
		}
	}
	for k, q := range ob.asks {
		if keyPrice(k).GreaterThanOrEqual(cutHigh) {
			evicted += len(q)
			delete(ob.asks, k)
		}
	}
	return evicted
}

// CapDepth bounds each side to at most max resting orders, retaining the
// top-ranked ones: best price first, most recent first among equal prices.
// Returns the number of evicted orders.
func (ob *OrderBook) CapDepth(max int) int {
	evicted := ob.capSide(Buy, max)
	evicted += ob.capSide(Sell, max)
	return evicted
}

func (ob *OrderBook) capSide(s Side, max int) int {
	if ob.Depth(s) <= max {
		return 0
	}

	all := ob.Orders(s)
	sort.Slice(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if !a.Price.Equal(b.Price) {
			if s == Buy {
				return a.Price.GreaterThan(b.Price)
			}
			return a.Price.LessThan(b.Price)
		}
		return a.Timestamp.After(b.Timestamp)
	})
	keep := all[:max]

	// Rebuild the side; FIFO order within a level is timestamp order.
	levels := make(map[int64][]*Order, len(keep))
	for _, o := range keep {
		k := priceKey(o.Price)
		levels[k] = append(levels[k], o)
	}
	for _, q := range levels {
		sort.Slice(q, func(i, j int) bool { return q[i].Timestamp.Before(q[j].Timestamp) })
	}
	if s == Buy {
		ob.bids = levels
	} else {
		ob.asks = levels
	}
	return len(all) - max
}
