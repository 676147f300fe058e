package book

import (
	"time"

	"github.com/shopspring/decimal"
)

type Side int8

const (
	Buy  Side = 1
	Sell Side = -1
)

func (s Side) String() string {
	if s == Buy {
		return "buy"
	}
	return "sell"
}

// Order is a resting limit order. Price is quoted at 2-decimal resolution,
// Qty at 1-decimal resolution. The book owns the order while it rests;
// a filled, pruned or evicted order is removed, not archived.
type Order struct {
	ID        uint64
	Side      Side
	Price     decimal.Decimal
	Qty       decimal.Decimal
	Timestamp time.Time
}

// Level is a derived view of one price level: aggregate quantity and the
// number of resting orders at that price.
type Level struct {
	Price  decimal.Decimal
	Qty    decimal.Decimal
	Orders int
}

// priceKey maps a 2-decimal price onto integer cents for level indexing.
func priceKey(p decimal.Decimal) int64 {
	return p.Shift(2).IntPart()
}

// keyPrice is the inverse of priceKey.
func keyPrice(k int64) decimal.Decimal {
	return decimal.New(k, -2)
}
