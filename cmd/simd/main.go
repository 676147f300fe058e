package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quantfold/lobsim/params"
	"github.com/quantfold/lobsim/pkg/api"
	"github.com/quantfold/lobsim/pkg/monitor"
	"github.com/quantfold/lobsim/pkg/sim"
	"github.com/quantfold/lobsim/pkg/util"
)

func main() {
	// Load config from .env file and environment variables
	cfg := params.LoadFromEnv("")

	logger, err := util.NewLogger(cfg.Server.LogFile)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	monitor.InitMetrics()

	simulation := sim.New(cfg.Simulation, sugar, util.RealClock{})
	sugar.Infow("simulation_initialized",
		"tick_ms", cfg.Simulation.TickInterval.Milliseconds(),
		"depth_cap", cfg.Simulation.DepthCap,
		"seed", cfg.Simulation.Seed)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- API server ----
	apiServer := api.NewServer(simulation, sugar, cfg.Server.AllowedOrigins)
	go func() {
		if err := apiServer.Start(cfg.Server.Addr); err != nil {
			sugar.Fatalw("api_server_failed", "err", err)
		}
	}()

	// Autostart unless the operator wants to drive it over the API.
	if os.Getenv("SIM_AUTOSTART") != "false" {
		simulation.Start()
	}

	// Progress logging loop
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			simulation.Stop()
			sugar.Info("shutting_down")
			return
		case <-ticker.C:
			snap := simulation.Snapshot()
			sugar.Infow("simulation_progress",
				"cycle", snap.CycleCount,
				"last_price", snap.LastTrade,
				"spread", snap.Spread,
				"trades", snap.TradeCount,
				"volume", snap.TotalVolume,
				"regime", snap.Regime)
		}
	}
}
