// Package sim sequences the simulation: it owns the book, the matching
// engine, the trend predictor, the regime and the order generator, and
// advances them in a strict per-tick order.
package sim

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/quantfold/lobsim/params"
	"github.com/quantfold/lobsim/pkg/monitor"
	"github.com/quantfold/lobsim/pkg/sim/book"
	"github.com/quantfold/lobsim/pkg/sim/gen"
	"github.com/quantfold/lobsim/pkg/sim/match"
	"github.com/quantfold/lobsim/pkg/sim/regime"
	"github.com/quantfold/lobsim/pkg/sim/trend"
	"github.com/quantfold/lobsim/pkg/util"
)

// Simulation is the single owner of all mutable market state. Mutation
// happens only inside Tick; external reads go through Snapshot, which is
// synchronized against the tick so no torn state is ever observed.
type Simulation struct {
	mu    sync.RWMutex
	log   *zap.SugaredLogger
	clock util.Clock
	rng   *rand.Rand
	cfg   params.Simulation

	book      *book.OrderBook
	engine    *match.Engine
	predictor *trend.Predictor
	regime    *regime.Regime
	generator *gen.Generator

	cycle int64

	running    bool
	interval   time.Duration
	intervalCh chan time.Duration
	stopCh     chan struct{}

	// OnTick and OnTrade are invoked after each tick, outside the state
	// lock. Set them before Start.
	OnTick  func(Snapshot)
	OnTrade func(match.Trade)
}

func New(cfg params.Simulation, logger *zap.SugaredLogger, clock util.Clock) *Simulation {
	seed := cfg.Seed
	if seed == 0 {
		seed = clock.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	ob := book.NewOrderBook()
	now := clock.Now()
	for _, o := range seedOrders(now) {
		ob.Insert(o)
	}

	return &Simulation{
		log:        logger,
		clock:      clock,
		rng:        rng,
		cfg:        cfg,
		book:       ob,
		engine:     match.NewEngine(clock, initialLastTrade),
		predictor:  trend.NewPredictor(),
		regime:     regime.New(rng),
		generator:  gen.NewGenerator(rng, firstGeneratedID),
		interval:   cfg.TickInterval,
		intervalCh: make(chan time.Duration, 1),
	}
}

// Tick advances the simulation one cycle: record spread, update regime,
// generate orders, match to fixpoint, housekeeping. Callable directly in
// tests; the scheduler calls it on the configured interval.
func (s *Simulation) Tick() {
	s.mu.Lock()
	s.cycle++

	// (a) record the spread while it is positive
	if bb, okB := s.book.BestBid(); okB {
		if ba, okA := s.book.BestAsk(); okA {
			s.predictor.Record(ba.Sub(bb))
		}
	}

	// (b) regime transition
	s.regime.Tick()

	// (c) synthetic order flow
	span := s.cfg.OrdersMax - s.cfg.OrdersMin + 1
	n := s.cfg.OrdersMin + s.rng.Intn(span)
	for i := 0; i < n; i++ {
		s.book.Insert(s.generator.Generate(s.viewLocked()))
	}
	monitor.OrdersGenerated.Add(float64(n))

	// (d) cross until quiescent
	tradesBefore := s.engine.TradeCount()
	matches, ceilingHit := s.engine.MatchToFixpoint(s.book)
	if ceilingHit {
		s.log.Warnw("match_ceiling_hit", "cycle", s.cycle, "matches", matches)
	}

	// (e) prune far-from-mid orders on cadence
	evicted := 0
	if s.cycle%int64(s.cfg.PruneEvery) == 0 {
		evicted += s.book.PruneStale()
	}

	// (f) cap depth every tick
	evicted += s.book.CapDepth(s.cfg.DepthCap)
	if evicted > 0 {
		monitor.OrdersEvicted.Add(float64(evicted))
	}

	monitor.Cycles.Inc()
	monitor.BookDepth.WithLabelValues("buy").Set(float64(s.book.Depth(book.Buy)))
	monitor.BookDepth.WithLabelValues("sell").Set(float64(s.book.Depth(book.Sell)))

	// Only trades made this tick; Trades(0) would return the whole tape.
	var newTrades []match.Trade
	if delta := int(s.engine.TradeCount() - tradesBefore); delta > 0 {
		newTrades = s.engine.Trades(delta)
	}
	snap := s.snapshotLocked(snapshotTradeLimit)
	s.mu.Unlock()

	if s.OnTrade != nil {
		// Deliver oldest first so consumers see tape order.
		for i := len(newTrades) - 1; i >= 0; i-- {
			s.OnTrade(newTrades[i])
		}
	}
	if s.OnTick != nil {
		s.OnTick(snap)
	}
}

// viewLocked assembles the generator's read-only input. Caller holds mu.
func (s *Simulation) viewLocked() gen.View {
	v := gen.View{
		LastTrade:  s.engine.LastTradePrice(),
		Slope:      s.predictor.Slope(),
		Regime:     s.regime.State(),
		Volatility: s.regime.Volatility(),
		Now:        s.clock.Now(),
	}
	v.BestBid, v.HasBid = s.book.BestBid()
	v.BestAsk, v.HasAsk = s.book.BestAsk()
	return v
}

// Start launches the tick scheduler. Idempotent while running.
func (s *Simulation) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	stopCh := make(chan struct{})
	s.stopCh = stopCh
	interval := s.interval
	s.mu.Unlock()

	s.log.Infow("simulation_started", "interval_ms", interval.Milliseconds())
	go s.run(stopCh, interval)
}

// run is the scheduler loop: one pending timer at a time; an interval
// change replaces the pending wait instead of overlapping it.
func (s *Simulation) run(stop <-chan struct{}, interval time.Duration) {
	wait := s.clock.After(interval)
	for {
		select {
		case <-stop:
			return
		case d := <-s.intervalCh:
			interval = d
			wait = s.clock.After(interval)
		case <-wait:
			s.Tick()
			wait = s.clock.After(interval)
		}
	}
}

// Stop halts the scheduler. A tick in flight completes first; stop is
// observed between ticks.
func (s *Simulation) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()
	s.log.Info("simulation_stopped")
}

func (s *Simulation) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// SetTickInterval changes the tick cadence. Takes effect on the next
// scheduled tick without losing run state.
func (s *Simulation) SetTickInterval(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("tick interval must be positive, got %v", d)
	}
	s.mu.Lock()
	s.interval = d
	running := s.running
	s.mu.Unlock()

	if running {
		// Replace any stale pending reschedule before queueing this one.
		select {
		case <-s.intervalCh:
		default:
		}
		s.intervalCh <- d
	}
	s.log.Infow("tick_interval_changed", "interval_ms", d.Milliseconds())
	return nil
}

func (s *Simulation) TickInterval() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.interval
}

func (s *Simulation) CycleCount() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cycle
}

// Trades returns up to limit trades, newest first; limit <= 0 means all.
func (s *Simulation) Trades(limit int) []match.Trade {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.Trades(limit)
}
