// Command coalitionsim runs the cabinet formation simulation: seat
// allocation, coalition search, negotiation, and governance, one simulated
// day at a time, observable over HTTP.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"

	"github.com/talgya/formateur/internal/api"
	"github.com/talgya/formateur/internal/election"
	"github.com/talgya/formateur/internal/engine"
	"github.com/talgya/formateur/internal/persistence"
	"github.com/talgya/formateur/internal/scenario"
)

func main() {
	godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("Formateur — Cabinet Formation Simulation")

	seed := envInt64("SEED", 42)
	dbPath := envStr("DB_PATH", "data/formation.db")
	apiPort := int(envInt64("API_PORT", 8080))

	// ── Scenario ──────────────────────────────────────────────────────
	sc, err := loadScenario(seed)
	if err != nil {
		slog.Error("failed to load scenario", "error", err)
		os.Exit(1)
	}
	parties, weights, issues := sc.Build()

	slog.Info("scenario loaded",
		"name", sc.Name,
		"parties", len(parties),
		"seats", sc.TotalSeats,
		"issues", len(issues),
	)
	for _, p := range parties {
		slog.Info("party", "id", p.ID, "name", p.Name, "votes", humanize.Comma(p.Votes))
	}

	// ── Database ──────────────────────────────────────────────────────
	os.MkdirAll("data", 0755)
	db, err := persistence.Open(dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", dbPath)

	// ── Formation Cycle ───────────────────────────────────────────────
	cfg := engine.DefaultConfig()
	cfg.TotalSeats = sc.TotalSeats
	cfg.Threshold = sc.Threshold
	cfg.Seed = seed
	if sc.Search != nil {
		cfg.Search = *sc.Search
	}
	if sc.Negotiation != nil {
		cfg.Negotiation = *sc.Negotiation
	}

	cycle, err := engine.NewCycle(parties, weights, issues, cfg)
	if err != nil {
		slog.Error("failed to start formation cycle", "error", err)
		os.Exit(1)
	}
	slog.Info("parliament seated",
		"parties", len(cycle.Result.Order),
		"majority", election.Majority(cycle.Result.TotalSeats),
		"candidates", len(cycle.Candidates),
	)

	if err := db.SaveCycle(cycle); err != nil {
		slog.Error("initial save failed", "error", err)
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	adminKey := os.Getenv("ADMIN_KEY")
	if adminKey == "" {
		slog.Warn("ADMIN_KEY not set — admin POST endpoints will be disabled")
	}

	runner := engine.NewRunner()
	server := &api.Server{
		Cycle:    cycle,
		Runner:   runner,
		DB:       db,
		Port:     apiPort,
		AdminKey: adminKey,
	}
	server.Start()

	// One simulated day per tick; save daily so a restart loses nothing.
	// The save reads the cycle, so it stays inside the same Sync section
	// that admin handlers use to mutate it.
	runner.OnDay = func(day int) {
		server.Sync(func() {
			cycle.TickDay()
			if err := db.SaveCycle(cycle); err != nil {
				slog.Error("daily save failed", "error", err)
			}
		})
	}

	// ── Start ─────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		runner.Stop()
	}()

	fmt.Printf("\n%s: %d parties contesting %d seats.\n",
		sc.Name, len(parties), sc.TotalSeats)
	fmt.Printf("API: http://localhost:%d/api/v1/status\n", apiPort)
	fmt.Println("Starting formation... (Ctrl+C to stop)")

	runner.Run()

	// Final save on shutdown. The HTTP server is still up, so this read
	// also goes through the state lock.
	slog.Info("final save...")
	server.Sync(func() {
		if err := db.SaveCycle(cycle); err != nil {
			slog.Error("final save failed", "error", err)
		}
	})

	fmt.Println("Simulation stopped. Formation state saved.")
}

// loadScenario picks the electorate: an explicit YAML file via SCENARIO,
// a synthetic one via SCENARIO=generate, or the built-in 2023 reference.
func loadScenario(seed int64) (scenario.Scenario, error) {
	switch path := os.Getenv("SCENARIO"); path {
	case "":
		return scenario.Netherlands2023(), nil
	case "generate":
		gen := scenario.DefaultGenConfig()
		gen.Seed = seed
		return scenario.Generate(gen), nil
	default:
		return scenario.LoadFile(path)
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}
