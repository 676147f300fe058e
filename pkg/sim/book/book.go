package book

import (
	"sort"

	"github.com/shopspring/decimal"
)

// OrderBook holds resting orders grouped into price levels, one FIFO queue
// per level. A level exists iff its queue is non-empty; levels are deleted
// the moment their last order is removed.
//
// The book is not safe for concurrent use. All mutation happens on the
// simulation driver's tick, which owns the lock.
type OrderBook struct {
	bids map[int64][]*Order // price cents -> FIFO queue
	asks map[int64][]*Order
}

func NewOrderBook() *OrderBook {
	return &OrderBook{
		bids: make(map[int64][]*Order),
		asks: make(map[int64][]*Order),
	}
}

func (ob *OrderBook) side(s Side) map[int64][]*Order {
	if s == Buy {
		return ob.bids
	}
	return ob.asks
}

// Insert appends the order at the FIFO tail of its side/price level,
// creating the level if absent.
func (ob *OrderBook) Insert(o *Order) {
	k := priceKey(o.Price)
	levels := ob.side(o.Side)
	levels[k] = append(levels[k], o)
}

// BestBid returns the highest bid price, or false if no bids rest.
func (ob *OrderBook) BestBid() (decimal.Decimal, bool) {
	if len(ob.bids) == 0 {
		return decimal.Zero, false
	}
	best := int64(0)
	first := true
	for k := range ob.bids {
		if first || k > best {
			best = k
			first = false
		}
	}
	return keyPrice(best), true
}

// BestAsk returns the lowest ask price, or false if no asks rest.
func (ob *OrderBook) BestAsk() (decimal.Decimal, bool) {
	if len(ob.asks) == 0 {
		return decimal.Zero, false
	}
	best := int64(0)
	first := true
	for k := range ob.asks {
		if first || k < best {
			best = k
			first = false
		}
	}
	return keyPrice(best), true
}

// PeekBest returns the FIFO-oldest order at the side's best price level.
func (ob *OrderBook) PeekBest(s Side) (*Order, bool) {
	var (
		p  decimal.Decimal
		ok bool
	)
	if s == Buy {
		p, ok = ob.BestBid()
	} else {
		p, ok = ob.BestAsk()
	}
	if !ok {
		return nil, false
	}
	q := ob.side(s)[priceKey(p)]
	if len(q) == 0 {
		return nil, false
	}
	return q[0], true
}

// RemoveOrReduce removes the order when newQty <= 0, deleting its level if
// now empty. Otherwise it replaces the quantity in place; the order keeps
// its queue position (quantity reduction does not re-rank FIFO priority).
// Returns false if the order is unknown.
func (ob *OrderBook) RemoveOrReduce(id uint64, newQty decimal.Decimal) bool {
	for _, levels := range []map[int64][]*Order{ob.bids, ob.asks} {
		for k, q := range levels {
			for i, o := range q {
				if o.ID != id {
					continue
				}
				if newQty.Sign() <= 0 {
					levels[k] = append(q[:i], q[i+1:]...)
					if len(levels[k]) == 0 {
						delete(levels, k)
					}
				} else {
					o.Qty = newQty
				}
				return true
			}
		}
	}
	return false
}

// BidLevels returns the bid side as (price, total qty, order count) tuples,
// best (highest) price first. The view is recomputed from the canonical
// order storage on every call and never mutates the book.
func (ob *OrderBook) BidLevels() []Level {
	return ob.levels(ob.bids, func(a, b int64) bool { return a > b })
}

// AskLevels returns the ask side best (lowest) price first.
func (ob *OrderBook) AskLevels() []Level {
	return ob.levels(ob.asks, func(a, b int64) bool { return a < b })
}

func (ob *OrderBook) levels(side map[int64][]*Order, better func(a, b int64) bool) []Level {
	keys := make([]int64, 0, len(side))
	for k := range side {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return better(keys[i], keys[j]) })

	out := make([]Level, 0, len(keys))
	for _, k := range keys {
		q := side[k]
		total := decimal.Zero
		for _, o := range q {
			total = total.Add(o.Qty)
		}
		out = append(out, Level{Price: keyPrice(k), Qty: total, Orders: len(q)})
	}
	return out
}

// Depth counts resting orders on one side.
func (ob *OrderBook) Depth(s Side) int {
	n := 0
	for _, q := range ob.side(s) {
		n += len(q)
	}
	return n
}

// Orders returns all resting orders on one side in no particular order.
// Intended for housekeeping and tests.
func (ob *OrderBook) Orders(s Side) []*Order {
	out := make([]*Order, 0, ob.Depth(s))
	for _, q := range ob.side(s) {
		out = append(out, q...)
	}
	return out
}

// SideQty sums resting quantity on one side.
func (ob *OrderBook) SideQty(s Side) decimal.Decimal {
	total := decimal.Zero
	for _, q := range ob.side(s) {
		for _, o := range q {
			total = total.Add(o.Qty)
		}
	}
	return total
}
