// Package persistence provides SQLite-based formation state storage.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/formateur/internal/coalition"
	"github.com/talgya/formateur/internal/engine"
	"github.com/talgya/formateur/internal/government"
	"github.com/talgya/formateur/internal/politics"
)

// DB wraps a SQLite connection for formation state persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS parties (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		votes INTEGER NOT NULL,
		seats INTEGER NOT NULL,
		economic_axis REAL NOT NULL,
		social_axis REAL NOT NULL,
		positions_json TEXT NOT NULL,
		exclusions_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS candidates (
		rank INTEGER PRIMARY KEY,
		parties_json TEXT NOT NULL,
		total_seats INTEGER NOT NULL,
		compatibility REAL NOT NULL,
		difficulty REAL NOT NULL,
		score REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		day INTEGER NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS governments (
		id TEXT PRIMARY KEY,
		prime_minister TEXT NOT NULL,
		stability REAL NOT NULL,
		parties_json TEXT NOT NULL,
		ministries_json TEXT NOT NULL,
		agreement_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS formation_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_day ON events(day);
	CREATE INDEX IF NOT EXISTS idx_events_category ON events(category);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveParties writes the full party list to the database (full replace).
func (db *DB) SaveParties(parties []politics.Party) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM parties"); err != nil {
		return err
	}

	stmt, err := tx.Preparex(`INSERT INTO parties
		(id, name, votes, seats, economic_axis, social_axis, positions_json, exclusions_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range parties {
		posJSON, _ := json.Marshal(p.IssuePositions)
		exclJSON, _ := json.Marshal(p.Exclusions)

		_, err := stmt.Exec(
			p.ID, p.Name, p.Votes, p.Seats,
			p.EconomicAxis, p.SocialAxis,
			string(posJSON), string(exclJSON),
		)
		if err != nil {
			return fmt.Errorf("insert party %s: %w", p.ID, err)
		}
	}

	return tx.Commit()
}

// LoadParties reads the party list back, in stored order.
func (db *DB) LoadParties() ([]politics.Party, error) {
	type row struct {
		ID             string  `db:"id"`
		Name           string  `db:"name"`
		Votes          int64   `db:"votes"`
		Seats          int     `db:"seats"`
		EconomicAxis   float64 `db:"economic_axis"`
		SocialAxis     float64 `db:"social_axis"`
		PositionsJSON  string  `db:"positions_json"`
		ExclusionsJSON string  `db:"exclusions_json"`
	}

	var rows []row
	if err := db.conn.Select(&rows, "SELECT * FROM parties ORDER BY votes DESC, id"); err != nil {
		return nil, err
	}

	parties := make([]politics.Party, 0, len(rows))
	for _, r := range rows {
		p := politics.Party{
			ID:           politics.PartyID(r.ID),
			Name:         r.Name,
			Votes:        r.Votes,
			Seats:        r.Seats,
			EconomicAxis: r.EconomicAxis,
			SocialAxis:   r.SocialAxis,
		}
		if err := json.Unmarshal([]byte(r.PositionsJSON), &p.IssuePositions); err != nil {
			return nil, fmt.Errorf("party %s positions: %w", r.ID, err)
		}
		if err := json.Unmarshal([]byte(r.ExclusionsJSON), &p.Exclusions); err != nil {
			return nil, fmt.Errorf("party %s exclusions: %w", r.ID, err)
		}
		parties = append(parties, p)
	}
	return parties, nil
}

// SaveCandidates writes the ranked coalition list (full replace).
func (db *DB) SaveCandidates(cands []coalition.Candidate) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM candidates"); err != nil {
		return err
	}

	for i, c := range cands {
		partiesJSON, _ := json.Marshal(c.Parties)
		_, err := tx.Exec(`INSERT INTO candidates
			(rank, parties_json, total_seats, compatibility, difficulty, score)
			VALUES (?, ?, ?, ?, ?, ?)`,
			i, string(partiesJSON), c.TotalSeats, c.Compatibility, c.Difficulty, c.Score,
		)
		if err != nil {
			return fmt.Errorf("insert candidate %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// SaveEvents replaces the event log with the cycle's full log. The cycle
// keeps every event in memory, so a replace stays consistent across
// repeated daily saves without duplicating rows.
func (db *DB) SaveEvents(events []engine.Event) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM events"); err != nil {
		return err
	}

	for _, e := range events {
		_, err := tx.Exec(
			"INSERT INTO events (day, description, category) VALUES (?, ?, ?)",
			e.Day, e.Description, e.Category,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// SaveGovernment stores the sitting government, or clears the table when
// gov is nil.
func (db *DB) SaveGovernment(gov *government.Government) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM governments"); err != nil {
		return err
	}

	if gov != nil {
		partiesJSON, _ := json.Marshal(gov.Parties)
		ministriesJSON, _ := json.Marshal(gov.Ministries)
		agreementJSON, _ := json.Marshal(gov.Agreement)

		_, err := tx.Exec(`INSERT INTO governments
			(id, prime_minister, stability, parties_json, ministries_json, agreement_json)
			VALUES (?, ?, ?, ?, ?, ?)`,
			gov.ID, gov.PrimeMinister, gov.Stability,
			string(partiesJSON), string(ministriesJSON), string(agreementJSON),
		)
		if err != nil {
			return fmt.Errorf("insert government %s: %w", gov.ID, err)
		}
	}

	return tx.Commit()
}

// LoadGovernment reads the stored government. Returns (nil, nil) when no
// government is sitting.
func (db *DB) LoadGovernment() (*government.Government, error) {
	type row struct {
		ID             string  `db:"id"`
		PrimeMinister  string  `db:"prime_minister"`
		Stability      float64 `db:"stability"`
		PartiesJSON    string  `db:"parties_json"`
		MinistriesJSON string  `db:"ministries_json"`
		AgreementJSON  string  `db:"agreement_json"`
	}

	var r row
	err := db.conn.Get(&r, "SELECT * FROM governments LIMIT 1")
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	gov := &government.Government{
		ID:            r.ID,
		PrimeMinister: politics.PartyID(r.PrimeMinister),
		Stability:     r.Stability,
	}
	if err := json.Unmarshal([]byte(r.PartiesJSON), &gov.Parties); err != nil {
		return nil, fmt.Errorf("government parties: %w", err)
	}
	if err := json.Unmarshal([]byte(r.MinistriesJSON), &gov.Ministries); err != nil {
		return nil, fmt.Errorf("government ministries: %w", err)
	}
	if err := json.Unmarshal([]byte(r.AgreementJSON), &gov.Agreement); err != nil {
		return nil, fmt.Errorf("government agreement: %w", err)
	}
	return gov, nil
}

// SaveMeta stores a key-value pair in formation metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO formation_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM formation_meta WHERE key = ?", key)
	return value, err
}

// SaveCycle performs a full save of the formation cycle.
func (db *DB) SaveCycle(c *engine.Cycle) error {
	slog.Info("saving formation state",
		"parties", len(c.Parties), "candidates", len(c.Candidates), "day", c.Day)

	if err := db.SaveParties(c.Parties); err != nil {
		return fmt.Errorf("save parties: %w", err)
	}
	if err := db.SaveCandidates(c.Candidates); err != nil {
		return fmt.Errorf("save candidates: %w", err)
	}
	if err := db.SaveEvents(c.Events); err != nil {
		return fmt.Errorf("save events: %w", err)
	}
	if err := db.SaveGovernment(c.Government()); err != nil {
		return fmt.Errorf("save government: %w", err)
	}
	if err := db.SaveMeta("last_day", fmt.Sprintf("%d", c.Day)); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	if err := db.SaveMeta("state", c.State().String()); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}

	return nil
}

// RecentEvents returns the most recent N events, newest first.
func (db *DB) RecentEvents(limit int) ([]engine.Event, error) {
	var events []engine.Event
	err := db.conn.Select(&events,
		"SELECT day, description, category FROM events ORDER BY id DESC LIMIT ?",
		limit,
	)
	return events, err
}
