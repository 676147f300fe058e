// Package regime models the three-state stochastic market regime driving
// the synthetic order flow.
package regime

import "math/rand"

type State int8

const (
	Neutral State = iota
	Up
	Down
)

func (s State) String() string {
	switch s {
	case Up:
		return "up"
	case Down:
		return "down"
	default:
		return "neutral"
	}
}

// Bias is the per-state drift added to the generator's price move.
func (s State) Bias() float64 {
	switch s {
	case Up:
		return 0.02
	case Down:
		return -0.02
	default:
		return 0
	}
}

const (
	transitionProb = 0.05
	volFloor       = 0.05
	volSpan        = 0.15
)

// Regime holds the current state and its volatility parameter. Each tick,
// with probability 0.05, the state is redrawn uniformly (self-transition
// allowed) together with a fresh volatility in [0.05, 0.20). There is no
// terminal state.
type Regime struct {
	rng   *rand.Rand
	state State
	vol   float64
}

func New(rng *rand.Rand) *Regime {
	return &Regime{rng: rng, state: Neutral, vol: 0.1}
}

func (r *Regime) Tick() {
	if r.rng.Float64() >= transitionProb {
		return
	}
	r.state = []State{Neutral, Up, Down}[r.rng.Intn(3)]
	r.vol = volFloor + r.rng.Float64()*volSpan
}

func (r *Regime) State() State        { return r.state }
func (r *Regime) Volatility() float64 { return r.vol }
