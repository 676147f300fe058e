package params

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Simulation struct {
	TickInterval time.Duration
	// Seed for the simulation RNG; 0 means seed from the clock.
	Seed int64
	// DepthCap bounds resting orders per side after each tick.
	DepthCap int
	// PruneEvery is the tick cadence of stale-order pruning.
	PruneEvery int
	// OrdersMin/OrdersMax bound the orders generated per tick (inclusive).
	OrdersMin int
	OrdersMax int
}

type Server struct {
	Addr           string
	AllowedOrigins []string
	LogFile        string
}

type Config struct {
	Simulation Simulation
	Server     Server
}

func Default() Config {
	return Config{
		Simulation: Simulation{
			TickInterval: 1000 * time.Millisecond,
			Seed:         0,
			DepthCap:     100,
			PruneEvery:   5,
			OrdersMin:    1,
			OrdersMax:    3,
		},
		Server: Server{
			Addr:           ":8080",
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:3001"},
			LogFile:        "",
		},
	}
}

// LoadFromEnv loads configuration from a .env file (if present) and
// environment variables. Priority: ENV > .env file > defaults.
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	if ms := os.Getenv("SIM_TICK_MS"); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil && v > 0 {
			cfg.Simulation.TickInterval = time.Duration(v) * time.Millisecond
		}
	}
	if seed := os.Getenv("SIM_SEED"); seed != "" {
		if v, err := strconv.ParseInt(seed, 10, 64); err == nil {
			cfg.Simulation.Seed = v
		}
	}
	if depthCap := os.Getenv("SIM_DEPTH_CAP"); depthCap != "" {
		if v, err := strconv.Atoi(depthCap); err == nil && v > 0 {
			cfg.Simulation.DepthCap = v
		}
	}
	if every := os.Getenv("SIM_PRUNE_EVERY"); every != "" {
		if v, err := strconv.Atoi(every); err == nil && v > 0 {
			cfg.Simulation.PruneEvery = v
		}
	}
	if addr := os.Getenv("API_ADDR"); addr != "" {
		cfg.Server.Addr = addr
	}
	if origins := os.Getenv("API_ALLOWED_ORIGINS"); origins != "" {
		cfg.Server.AllowedOrigins = strings.Split(origins, ",")
	}
	if logFile := os.Getenv("LOG_FILE"); logFile != "" {
		cfg.Server.LogFile = logFile
	}

	return cfg
}
