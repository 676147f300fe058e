package match_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfold/lobsim/pkg/sim/book"
	"github.com/quantfold/lobsim/pkg/sim/match"
)

type stubClock struct{ now time.Time }

func (c stubClock) Now() time.Time                         { return c.now }
func (c stubClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func order(id uint64, side book.Side, price, qty string, at time.Time) *book.Order {
	return &book.Order{ID: id, Side: side, Price: d(price), Qty: d(qty), Timestamp: at}
}

func newEngine() *match.Engine {
	return match.NewEngine(stubClock{now: time.Unix(1700000000, 0)}, d("50.00"))
}

func TestMatchOnceNoCross(t *testing.T) {
	ob := book.NewOrderBook()
	now := time.Now()
	ob.Insert(order(1, book.Buy, "49.95", "10.5", now))
	ob.Insert(order(2, book.Sell, "50.05", "7.8", now))

	e := newEngine()
	assert.False(t, e.MatchOnce(ob), "49.95 bid does not cross 50.05 ask")

	// Book unchanged.
	assert.Equal(t, 1, ob.Depth(book.Buy))
	assert.Equal(t, 1, ob.Depth(book.Sell))
	assert.Zero(t, e.TradeCount())
	assert.True(t, e.LastTradePrice().Equal(d("50.00")))
}

func TestMatchOnceEmptySide(t *testing.T) {
	tests := []struct {
		name string
		side book.Side
	}{
		{"only bids", book.Buy},
		{"only asks", book.Sell},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ob := book.NewOrderBook()
			ob.Insert(order(1, tt.side, "50.00", "5.0", time.Now()))
			assert.False(t, newEngine().MatchOnce(ob))
		})
	}
}

func TestMatchOnceEqualQuantities(t *testing.T) {
	ob := book.NewOrderBook()
	now := time.Now()
	ob.Insert(order(1, book.Buy, "50.10", "10.0", now))
	ob.Insert(order(2, book.Sell, "50.00", "10.0", now))

	e := newEngine()
	require.True(t, e.MatchOnce(ob))

	trades := e.Trades(0)
	require.Len(t, trades, 1)
	assert.True(t, trades[0].Price.Equal(d("50.05")), "price is the mean of the crossing prices")
	assert.True(t, trades[0].Qty.Equal(d("10.0")))

	// Both orders removed, both top levels cleared.
	assert.Zero(t, ob.Depth(book.Buy))
	assert.Zero(t, ob.Depth(book.Sell))
	assert.True(t, e.LastTradePrice().Equal(d("50.05")))
	assert.Equal(t, int64(1), e.TradeCount())
	assert.True(t, e.TotalVolume().Equal(d("10.0")))
}

func TestMatchOncePartialFill(t *testing.T) {
	ob := book.NewOrderBook()
	now := time.Now()
	ob.Insert(order(1, book.Buy, "50.10", "15.0", now))
	ob.Insert(order(2, book.Sell, "50.00", "5.0", now))

	e := newEngine()
	require.True(t, e.MatchOnce(ob))

	trades := e.Trades(0)
	require.Len(t, trades, 1)
	assert.True(t, trades[0].Price.Equal(d("50.05")))
	assert.True(t, trades[0].Qty.Equal(d("5.0")), "trade qty is the smaller order")

	// Sell removed; buy reduced in place, same level, same position.
	assert.Zero(t, ob.Depth(book.Sell))
	head, ok := ob.PeekBest(book.Buy)
	require.True(t, ok)
	assert.Equal(t, uint64(1), head.ID)
	assert.True(t, head.Qty.Equal(d("10.0")))
}

func TestQuantityConservation(t *testing.T) {
	ob := book.NewOrderBook()
	now := time.Now()
	ob.Insert(order(1, book.Buy, "50.10", "12.5", now))
	ob.Insert(order(2, book.Buy, "49.90", "3.0", now))
	ob.Insert(order(3, book.Sell, "50.00", "4.5", now))
	ob.Insert(order(4, book.Sell, "50.30", "6.0", now))

	buyBefore := ob.SideQty(book.Buy)
	sellBefore := ob.SideQty(book.Sell)

	e := newEngine()
	require.True(t, e.MatchOnce(ob))
	tradeQty := e.Trades(1)[0].Qty

	assert.True(t, ob.SideQty(book.Buy).Equal(buyBefore.Sub(tradeQty)))
	assert.True(t, ob.SideQty(book.Sell).Equal(sellBefore.Sub(tradeQty)))
}

func TestNoResidualZeroOrders(t *testing.T) {
	ob := book.NewOrderBook()
	now := time.Now()
	ob.Insert(order(1, book.Buy, "50.10", "5.0", now))
	ob.Insert(order(2, book.Sell, "50.00", "5.0", now))
	ob.Insert(order(3, book.Sell, "50.00", "2.0", now.Add(time.Second)))

	e := newEngine()
	_, ceilingHit := e.MatchToFixpoint(ob)
	assert.False(t, ceilingHit)

	for _, s := range []book.Side{book.Buy, book.Sell} {
		for _, o := range ob.Orders(s) {
			assert.True(t, o.Qty.Sign() > 0, "order %d rests with qty %s", o.ID, o.Qty)
		}
	}
}

func TestPriceTimePriority(t *testing.T) {
	ob := book.NewOrderBook()
	now := time.Now()

	// Two bid levels: the worse-priced bid must not trade while the better
	// one rests.
	ob.Insert(order(1, book.Buy, "50.05", "5.0", now))
	ob.Insert(order(2, book.Buy, "50.10", "5.0", now.Add(time.Second)))
	ob.Insert(order(3, book.Sell, "50.00", "5.0", now))

	e := newEngine()
	require.True(t, e.MatchOnce(ob))

	// The 50.10 bid was consumed; the 50.05 bid still rests untouched.
	head, ok := ob.PeekBest(book.Buy)
	require.True(t, ok)
	assert.Equal(t, uint64(1), head.ID)
	assert.True(t, head.Qty.Equal(d("5.0")))
}

func TestFIFOFairnessAtLevel(t *testing.T) {
	ob := book.NewOrderBook()
	now := time.Now()
	ob.Insert(order(1, book.Buy, "50.10", "5.0", now))
	ob.Insert(order(2, book.Buy, "50.10", "5.0", now.Add(time.Second)))
	ob.Insert(order(3, book.Sell, "50.00", "5.0", now))

	e := newEngine()
	require.True(t, e.MatchOnce(ob))

	// A (earlier) matched before B (later).
	head, ok := ob.PeekBest(book.Buy)
	require.True(t, ok)
	assert.Equal(t, uint64(2), head.ID)
}

func TestMatchToFixpointDrainsCrossing(t *testing.T) {
	ob := book.NewOrderBook()
	now := time.Now()
	for i := 0; i < 5; i++ {
		ob.Insert(order(uint64(i+1), book.Buy, "50.10", "1.0", now.Add(time.Duration(i)*time.Millisecond)))
		ob.Insert(order(uint64(i+100), book.Sell, "50.00", "1.0", now.Add(time.Duration(i)*time.Millisecond)))
	}

	e := newEngine()
	matches, ceilingHit := e.MatchToFixpoint(ob)
	assert.Equal(t, 5, matches)
	assert.False(t, ceilingHit)
	assert.Zero(t, ob.Depth(book.Buy))
	assert.Zero(t, ob.Depth(book.Sell))
}

func TestMatchToFixpointCeiling(t *testing.T) {
	ob := book.NewOrderBook()
	now := time.Now()
	for i := 0; i < match.MaxIterations+5; i++ {
		ob.Insert(order(uint64(i+1), book.Buy, "50.10", "1.0", now.Add(time.Duration(i)*time.Millisecond)))
		ob.Insert(order(uint64(i+1000), book.Sell, "50.00", "1.0", now.Add(time.Duration(i)*time.Millisecond)))
	}

	e := newEngine()
	matches, ceilingHit := e.MatchToFixpoint(ob)
	assert.Equal(t, match.MaxIterations, matches, "fixpoint stops at the ceiling")
	assert.True(t, ceilingHit)

	// Unresolved crossing is left for the next tick.
	assert.Equal(t, 5, ob.Depth(book.Buy))
	assert.Equal(t, 5, ob.Depth(book.Sell))

	matches, ceilingHit = e.MatchToFixpoint(ob)
	assert.Equal(t, 5, matches)
	assert.False(t, ceilingHit)
}

func TestTradesLimit(t *testing.T) {
	ob := book.NewOrderBook()
	now := time.Now()
	for i := 0; i < 3; i++ {
		ob.Insert(order(uint64(i+1), book.Buy, "50.10", "1.0", now))
		ob.Insert(order(uint64(i+10), book.Sell, "50.00", "1.0", now))
	}

	e := newEngine()
	e.MatchToFixpoint(ob)

	assert.Len(t, e.Trades(0), 3)
	assert.Len(t, e.Trades(2), 2)
	assert.Len(t, e.Trades(10), 3)
}
