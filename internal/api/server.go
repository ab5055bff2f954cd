// Package api provides the HTTP API for observing a formation cycle.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/talgya/formateur/internal/election"
	"github.com/talgya/formateur/internal/engine"
	"github.com/talgya/formateur/internal/government"
	"github.com/talgya/formateur/internal/persistence"
	"github.com/talgya/formateur/internal/politics"
)

// Server serves the formation state over HTTP.
type Server struct {
	Cycle    *engine.Cycle
	Runner   *engine.Runner
	DB       *persistence.DB
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.

	// mu guards Cycle against the tick loop. The runner's day callback
	// must advance the cycle through Sync.
	mu sync.Mutex
}

// Sync runs fn under the state lock. The tick loop uses this to advance
// the cycle while handlers are reading it.
func (s *Server) Sync(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	// The history endpoint reads the database on every request.
	historyLimiter := NewRateLimiter(120, time.Hour)

	mux := http.NewServeMux()

	// Public endpoints (GET, read-only — anyone can follow the talks).
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/parties", s.handleParties)
	mux.HandleFunc("/api/v1/candidates", s.handleCandidates)
	mux.HandleFunc("/api/v1/negotiation", s.handleNegotiation)
	mux.HandleFunc("/api/v1/government", s.handleGovernment)
	mux.HandleFunc("/api/v1/events", s.handleEvents)
	mux.HandleFunc("/api/v1/history", RateLimitMiddleware(historyLimiter, s.handleHistory))

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))
	mux.HandleFunc("/api/v1/abandon", s.adminOnly(s.handleAbandon))
	mux.HandleFunc("/api/v1/event", s.adminOnly(s.handlePoliticalEvent))
	mux.HandleFunc("/api/v1/snapshot", s.adminOnly(s.handleSnapshot))

	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		handler := corsMiddleware(mux)
		if err := http.ListenAndServe(addr, handler); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// corsMiddleware adds CORS headers for allowed frontend origins. Set the
// CORS_ORIGINS env var to a comma-separated list of allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth on POST requests.
// GET requests pass through (for endpoints that support both).
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no ADMIN_KEY set)", http.StatusForbidden)
				return
			}

			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}

		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.Cycle
	status := map[string]any{
		"day":         c.Day,
		"state":       c.State().String(),
		"total_seats": c.Result.TotalSeats,
		"majority":    election.Majority(c.Result.TotalSeats),
		"parties":     len(c.Result.Order),
		"candidates":  len(c.Candidates),
	}
	if s.Runner != nil {
		status["speed"] = s.Runner.Speed()
		status["running"] = s.Runner.Running()
	}
	if c.State() == engine.CycleFailed {
		status["failure"] = c.Failure()
	}
	if cand := c.CurrentCandidate(); len(cand.Parties) > 0 {
		status["current_candidate"] = cand.Key()
	}
	writeJSON(w, status)
}

func (s *Server) handleParties(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	type partySummary struct {
		ID       politics.PartyID   `json:"id"`
		Name     string             `json:"name"`
		Votes    int64              `json:"votes"`
		Seats    int                `json:"seats"`
		Economic float64            `json:"economic"`
		Social   float64            `json:"social"`
		Excludes []politics.PartyID `json:"excludes,omitempty"`
	}

	result := make([]partySummary, 0, len(s.Cycle.Parties))
	for _, p := range s.Cycle.Parties {
		result = append(result, partySummary{
			ID:       p.ID,
			Name:     p.Name,
			Votes:    p.Votes,
			Seats:    p.Seats,
			Economic: p.EconomicAxis,
			Social:   p.SocialAxis,
			Excludes: p.Exclusions,
		})
	}
	writeJSON(w, result)
}

func (s *Server) handleCandidates(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	type candidateSummary struct {
		Rank          int                `json:"rank"`
		Parties       []politics.PartyID `json:"parties"`
		TotalSeats    int                `json:"total_seats"`
		Compatibility float64            `json:"compatibility"`
		Difficulty    float64            `json:"difficulty"`
		Score         float64            `json:"score"`
	}

	result := make([]candidateSummary, 0, len(s.Cycle.Candidates))
	for i, c := range s.Cycle.Candidates {
		result = append(result, candidateSummary{
			Rank:          i,
			Parties:       c.Parties,
			TotalSeats:    c.TotalSeats,
			Compatibility: c.Compatibility,
			Difficulty:    c.Difficulty,
			Score:         c.Score,
		})
	}
	writeJSON(w, result)
}

func (s *Server) handleNegotiation(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, active := s.Cycle.Negotiation()
	if !active {
		http.Error(w, "no active negotiation", http.StatusNotFound)
		return
	}
	writeJSON(w, snap)
}

func (s *Server) handleGovernment(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	gov := s.Cycle.Government()
	if gov == nil {
		http.Error(w, "no sitting government", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]any{
		"government": gov,
		"in_crisis":  gov.InCrisis(),
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	events := s.Cycle.Events

	// Optional category filter ("election", "search", "negotiation",
	// "government").
	if cat := r.URL.Query().Get("category"); cat != "" {
		var filtered []engine.Event
		for _, e := range events {
			if e.Category == cat {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}

	start := 0
	if len(events) > limit {
		start = len(events) - limit
	}

	writeJSON(w, events[start:])
}

// handleHistory serves persisted events, newest first. Unlike /events this
// survives restarts, at the cost of a database read.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}

	limit := 100
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}

	events, err := s.DB.RecentEvents(limit)
	if err != nil {
		slog.Error("history read failed", "error", err)
		http.Error(w, "history read failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, events)
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if s.Runner == nil {
		http.Error(w, "runner not attached", http.StatusServiceUnavailable)
		return
	}

	if r.Method == http.MethodPost {
		var req struct {
			Speed float64 `json:"speed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Speed < 0 || req.Speed > 1000 {
			http.Error(w, "speed must be 0-1000", http.StatusBadRequest)
			return
		}
		s.Runner.SetSpeed(req.Speed)
		slog.Info("speed changed", "speed", req.Speed)
	}

	writeJSON(w, map[string]float64{"speed": s.Runner.Speed()})
}

// handleAbandon requests a cooperative stop of the running negotiation; it
// lands at the next day boundary.
func (s *Server) handleAbandon(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Cycle.State() != engine.CycleNegotiating {
		http.Error(w, "no negotiation to abandon", http.StatusConflict)
		return
	}
	s.Cycle.Abandon()
	slog.Info("abandon requested", "candidate", s.Cycle.CurrentCandidate().Key())
	writeJSON(w, map[string]string{"message": "abandon requested"})
}

// handlePoliticalEvent injects an external shock into the sitting
// government.
func (s *Server) handlePoliticalEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Name      string  `json:"name"`
		Magnitude float64 `json:"magnitude"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "name required", http.StatusBadRequest)
		return
	}
	if req.Magnitude < -100 || req.Magnitude > 100 {
		http.Error(w, "magnitude must be -100..100", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Cycle.State() != engine.CycleGoverning {
		http.Error(w, "no sitting government", http.StatusConflict)
		return
	}

	crisis := s.Cycle.ApplyPolitical(government.PoliticalEvent{Name: req.Name, Magnitude: req.Magnitude})
	resp := map[string]any{
		"crisis": crisis,
		"state":  s.Cycle.State().String(),
	}
	if gov := s.Cycle.Government(); gov != nil {
		resp["stability"] = gov.Stability
	}
	writeJSON(w, resp)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.DB.SaveCycle(s.Cycle); err != nil {
		slog.Error("snapshot save failed", "error", err)
		http.Error(w, "snapshot failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"day":     s.Cycle.Day,
		"message": "snapshot saved",
	})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
