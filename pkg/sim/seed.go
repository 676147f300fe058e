package sim

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/quantfold/lobsim/pkg/sim/book"
)

// initialLastTrade anchors the seed book around 50.00.
var initialLastTrade = decimal.RequireFromString("50.00")

// firstGeneratedID leaves headroom above the seed order ids.
const firstGeneratedID = 100

// seedOrders builds the fixed opening book: five bids and five asks at
// 0.05 increments around 50.00, timestamps strictly increasing per side so
// FIFO priority is well-defined from the start.
func seedOrders(now time.Time) []*book.Order {
	type row struct {
		price string
		qty   string
	}
	bids := []row{
		{"49.95", "10.5"},
		{"49.90", "15.2"},
		{"49.85", "8.7"},
		{"49.80", "20.3"},
		{"49.75", "12.1"},
	}
	asks := []row{
		{"50.05", "7.8"},
		{"50.10", "13.4"},
		{"50.15", "9.2"},
		{"50.20", "18.6"},
		{"50.25", "11.3"},
	}

	orders := make([]*book.Order, 0, len(bids)+len(asks))
	id := uint64(1)
	for i, r := range bids {
		orders = append(orders, &book.Order{
			ID:        id,
			Side:      book.Buy,
			Price:     decimal.RequireFromString(r.price),
			Qty:       decimal.RequireFromString(r.qty),
			Timestamp: now.Add(time.Duration(i-5) * time.Second),
		})
		id++
	}
	for i, r := range asks {
		orders = append(orders, &book.Order{
			ID:        id,
			Side:      book.Sell,
			Price:     decimal.RequireFromString(r.price),
			Qty:       decimal.RequireFromString(r.qty),
			Timestamp: now.Add(time.Duration(i-5) * time.Second),
		})
		id++
	}
	return orders
}
