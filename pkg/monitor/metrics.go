package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	TradesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lobsim_trades_total",
		Help: "Total trades executed by the matching engine.",
	})

	TradeVolume = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lobsim_trade_volume_total",
		Help: "Total traded quantity.",
	})

	OrdersGenerated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lobsim_orders_generated_total",
		Help: "Total synthetic orders generated.",
	})

	MatchCeilingHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lobsim_match_ceiling_hits_total",
		Help: "Ticks where matching stopped at the iteration ceiling.",
	})

	OrdersEvicted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lobsim_orders_evicted_total",
		Help: "Orders removed by stale pruning or depth capping.",
	})

	BookDepth = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "lobsim_book_depth",
		Help: "Resting orders per side after housekeeping.",
	}, []string{"side"})

	Cycles = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lobsim_cycles_total",
		Help: "Simulation ticks executed.",
	})
)

func InitMetrics() {
	prometheus.MustRegister(TradesTotal)
	prometheus.MustRegister(TradeVolume)
	prometheus.MustRegister(OrdersGenerated)
	prometheus.MustRegister(MatchCeilingHits)
	prometheus.MustRegister(OrdersEvicted)
	prometheus.MustRegister(BookDepth)
	prometheus.MustRegister(Cycles)
}
