// Package election converts raw vote totals into parliamentary seats using
// the D'Hondt highest-averages method with an electoral threshold.
package election

import (
	"errors"
	"fmt"

	"github.com/talgya/formateur/internal/politics"
)

var (
	// ErrInvalidInput marks malformed election data. Fail fast; nothing
	// downstream may run on bad inputs.
	ErrInvalidInput = errors.New("election: invalid input")

	// ErrNoEligibleParties means every party fell below the threshold.
	ErrNoEligibleParties = errors.New("election: no party reaches the threshold")
)

// Result is a completed seat allocation. Seats always sums to TotalSeats
// exactly; below-threshold parties are absent from the map.
type Result struct {
	TotalSeats int                      `json:"total_seats"`
	Threshold  float64                  `json:"threshold"`
	Seats      map[politics.PartyID]int `json:"seats"`
	// Order lists eligible parties in input order, the deterministic
	// tie-break order used during allocation.
	Order []politics.PartyID `json:"order"`
}

// Majority is the seat count needed to govern: more than half the chamber.
func Majority(totalSeats int) int {
	return totalSeats/2 + 1
}

// Allocate distributes totalSeats over the parties by D'Hondt. Parties below
// threshold (a fraction of total valid votes, [0,1)) receive nothing.
// Quotient ties break by input order, then lexically by ID. Seat counts are
// integers throughout; no floating-point rounding can drift the total.
func Allocate(parties []politics.Party, totalSeats int, threshold float64) (Result, error) {
	if totalSeats <= 0 {
		return Result{}, fmt.Errorf("%w: total seats must be positive, got %d", ErrInvalidInput, totalSeats)
	}
	if threshold < 0 || threshold >= 1 {
		return Result{}, fmt.Errorf("%w: threshold must be in [0,1), got %v", ErrInvalidInput, threshold)
	}

	var totalVotes int64
	for i := range parties {
		if parties[i].Votes < 0 {
			return Result{}, fmt.Errorf("%w: party %s has negative votes", ErrInvalidInput, parties[i].ID)
		}
		totalVotes += parties[i].Votes
	}

	type contender struct {
		id    politics.PartyID
		votes int64
		seats int
	}

	var eligible []contender
	for i := range parties {
		p := &parties[i]
		if totalVotes == 0 || float64(p.Votes) < threshold*float64(totalVotes) {
			continue
		}
		if p.Votes == 0 {
			continue
		}
		eligible = append(eligible, contender{id: p.ID, votes: p.Votes})
	}
	if len(eligible) == 0 {
		return Result{}, ErrNoEligibleParties
	}

	// Contenders iterate in input order, so a strict > comparison gives the
	// stated tie-break: input order first, then lexical ID (which can only
	// matter if two entries shared a position, i.e. never).
	for s := 0; s < totalSeats; s++ {
		best := 0
		for i := 1; i < len(eligible); i++ {
			// Compare votes/(seats+1) exactly via cross-multiplication.
			lhs := eligible[i].votes * int64(eligible[best].seats+1)
			rhs := eligible[best].votes * int64(eligible[i].seats+1)
			if lhs > rhs {
				best = i
			}
		}
		eligible[best].seats++
	}

	res := Result{
		TotalSeats: totalSeats,
		Threshold:  threshold,
		Seats:      make(map[politics.PartyID]int, len(eligible)),
		Order:      make([]politics.PartyID, 0, len(eligible)),
	}
	for _, c := range eligible {
		res.Seats[c.id] = c.seats
		res.Order = append(res.Order, c.id)
	}
	return res, nil
}

// ApplySeats writes an allocation back onto the party slice. Parties not in
// the result get zero seats.
func ApplySeats(parties []politics.Party, res Result) {
	for i := range parties {
		parties[i].Seats = res.Seats[parties[i].ID]
	}
}
