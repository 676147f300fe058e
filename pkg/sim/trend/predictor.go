// Package trend derives a short-horizon trend signal from recent spreads.
package trend

import "github.com/shopspring/decimal"

const (
	// WindowSize bounds the retained spread history.
	WindowSize = 20
	// Lookback is the number of most recent samples the regression uses.
	Lookback = 5
)

// Predictor keeps a bounded FIFO window of spread samples and fits an
// ordinary-least-squares line through the most recent ones. The slope is a
// dimensionless direction signal, not a price.
type Predictor struct {
	window []decimal.Decimal
}

func NewPredictor() *Predictor {
	return &Predictor{window: make([]decimal.Decimal, 0, WindowSize)}
}

// Record pushes a spread sample, evicting the oldest beyond WindowSize.
// Non-positive spreads are ignored.
func (p *Predictor) Record(spread decimal.Decimal) {
	if spread.Sign() <= 0 {
		return
	}
	p.window = append(p.window, spread)
	if len(p.window) > WindowSize {
		p.window = p.window[1:]
	}
}

// Slope returns the OLS slope of the last Lookback samples against their
// indices, or 0 with fewer than Lookback samples.
func (p *Predictor) Slope() float64 {
	if len(p.window) < Lookback {
		return 0
	}
	recent := p.window[len(p.window)-Lookback:]

	xMean := float64(Lookback-1) / 2
	yMean := 0.0
	for _, s := range recent {
		yMean += s.InexactFloat64()
	}
	yMean /= Lookback

	num, den := 0.0, 0.0
	for i, s := range recent {
		dx := float64(i) - xMean
		num += dx * (s.InexactFloat64() - yMean)
		den += dx * dx
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// Window returns a copy of the retained samples, oldest first.
func (p *Predictor) Window() []decimal.Decimal {
	out := make([]decimal.Decimal, len(p.window))
	copy(out, p.window)
	return out
}

// Len reports the number of retained samples.
func (p *Predictor) Len() int { return len(p.window) }
