// Package match crosses the book under price-time priority and keeps the
// resulting trade tape.
package match

import (
	"github.com/shopspring/decimal"

	"github.com/quantfold/lobsim/pkg/monitor"
	"github.com/quantfold/lobsim/pkg/sim/book"
	"github.com/quantfold/lobsim/pkg/util"
)

// MaxIterations bounds the work done by MatchToFixpoint within one tick.
// Hitting it is not an error; unresolved crossing carries to the next tick.
const MaxIterations = 100

// Trade is an executed cross. Price is the mean of the two crossing limit
// prices, Qty the smaller of the two order quantities. Immutable once made.
type Trade struct {
	ID    int64
	Price decimal.Decimal
	Qty   decimal.Decimal
	Time  string
	Side  book.Side // side of the incoming order that completed the cross
}

// Engine owns the trade tape and the market accumulators fed by it.
type Engine struct {
	clock util.Clock

	trades    []Trade // newest first
	lastTrade decimal.Decimal
	volume    decimal.Decimal
	count     int64
}

func NewEngine(clock util.Clock, lastTrade decimal.Decimal) *Engine {
	return &Engine{
		clock:     clock,
		lastTrade: lastTrade,
		volume:    decimal.Zero,
	}
}

// MatchOnce crosses the FIFO-oldest order at the best bid level against the
// FIFO-oldest at the best ask level. Returns false, mutating nothing, when
// either side is empty or the book does not cross.
func (e *Engine) MatchOnce(ob *book.OrderBook) bool {
	bestBid, okB := ob.BestBid()
	bestAsk, okA := ob.BestAsk()
	if !okB || !okA || bestBid.LessThan(bestAsk) {
		return false
	}

	buyOrder, _ := ob.PeekBest(book.Buy)
	sellOrder, _ := ob.PeekBest(book.Sell)

	tradePrice := bestBid.Add(bestAsk).Div(decimal.NewFromInt(2)).Round(2)
	tradeQty := decimal.Min(buyOrder.Qty, sellOrder.Qty).Round(1)

	now := e.clock.Now()
	e.pushTrade(Trade{
		ID:    now.UnixMilli(),
		Price: tradePrice,
		Qty:   tradeQty,
		Time:  now.Format("15:04:05"),
		Side:  takerSide(buyOrder, sellOrder),
	})

	// Remainder resolution: the strictly larger order stays resting with a
	// reduced quantity, everything else leaves the book. Equal quantities
	// remove both; a zero-quantity order never rests.
	switch buyOrder.Qty.Cmp(sellOrder.Qty) {
	case 1:
		ob.RemoveOrReduce(buyOrder.ID, buyOrder.Qty.Sub(tradeQty).Round(1))
		ob.RemoveOrReduce(sellOrder.ID, decimal.Zero)
	case -1:
		ob.RemoveOrReduce(sellOrder.ID, sellOrder.Qty.Sub(tradeQty).Round(1))
		ob.RemoveOrReduce(buyOrder.ID, decimal.Zero)
	default:
		ob.RemoveOrReduce(buyOrder.ID, decimal.Zero)
		ob.RemoveOrReduce(sellOrder.ID, decimal.Zero)
	}
	return true
}

// MatchToFixpoint calls MatchOnce until the book no longer crosses or the
// iteration ceiling is reached. Returns the match count and whether the
// ceiling was hit.
func (e *Engine) MatchToFixpoint(ob *book.OrderBook) (int, bool) {
	matches := 0
	for matches < MaxIterations {
		if !e.MatchOnce(ob) {
			return matches, false
		}
		matches++
	}
	monitor.MatchCeilingHits.Inc()
	return matches, true
}

func (e *Engine) pushTrade(t Trade) {
	e.trades = append([]Trade{t}, e.trades...)
	e.lastTrade = t.Price
	e.volume = e.volume.Add(t.Qty)
	e.count++

	monitor.TradesTotal.Inc()
	monitor.TradeVolume.Add(t.Qty.InexactFloat64())
}

// takerSide reports which side arrived later; the newer order is treated as
// the aggressor for the trade feed.
func takerSide(buy, sell *book.Order) book.Side {
	if buy.Timestamp.After(sell.Timestamp) {
		return book.Buy
	}
	return book.Sell
}

// Trades returns up to limit trades, newest first; limit <= 0 means all.
func (e *Engine) Trades(limit int) []Trade {
	n := len(e.trades)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Trade, n)
	copy(out, e.trades[:n])
	return out
}

func (e *Engine) LastTradePrice() decimal.Decimal { return e.lastTrade }
func (e *Engine) TotalVolume() decimal.Decimal    { return e.volume }
func (e *Engine) TradeCount() int64               { return e.count }
