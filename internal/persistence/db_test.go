package persistence

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/talgya/formateur/internal/engine"
	"github.com/talgya/formateur/internal/government"
	"github.com/talgya/formateur/internal/politics"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "formation.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPartiesRoundTrip(t *testing.T) {
	db := openTestDB(t)

	parties := []politics.Party{
		{
			ID: "a", Name: "Alpha", Votes: 500000, Seats: 60,
			EconomicAxis: -3, SocialAxis: 2,
			IssuePositions: map[politics.IssueID]float64{"climate": -4},
			Exclusions:     []politics.PartyID{"b"},
		},
		{
			ID: "b", Name: "Beta", Votes: 300000, Seats: 40,
			IssuePositions: map[politics.IssueID]float64{},
			Exclusions:     []politics.PartyID{},
		},
	}
	if err := db.SaveParties(parties); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := db.LoadParties()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(got, parties) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, parties)
	}

	// A second save replaces, never appends.
	if err := db.SaveParties(parties[:1]); err != nil {
		t.Fatalf("resave: %v", err)
	}
	got, err = db.LoadParties()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("after replace: %d parties, want 1", len(got))
	}
}

func TestEventsReplaceAndRecent(t *testing.T) {
	db := openTestDB(t)

	events := []engine.Event{
		{Day: 1, Description: "parliament seated", Category: "election"},
		{Day: 2, Description: "talks open", Category: "negotiation"},
		{Day: 3, Description: "talks collapse", Category: "negotiation"},
	}
	if err := db.SaveEvents(events); err != nil {
		t.Fatalf("save: %v", err)
	}
	// Daily saves re-persist the whole log; rows must not duplicate.
	if err := db.SaveEvents(events); err != nil {
		t.Fatalf("resave: %v", err)
	}

	recent, err := db.RecentEvents(2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("recent = %d events, want 2", len(recent))
	}
	if recent[0].Day != 3 || recent[1].Day != 2 {
		t.Errorf("recent not newest-first: %+v", recent)
	}
}

func TestGovernmentRoundTrip(t *testing.T) {
	db := openTestDB(t)

	gov := &government.Government{
		ID:            "gov-1",
		Parties:       []politics.PartyID{"a", "b"},
		PrimeMinister: "a",
		Ministries: map[politics.PartyID][]government.Ministry{
			"a": {"Finance", "Defence"},
			"b": {"Foreign Affairs"},
		},
		Agreement: []politics.AgreementPoint{{Issue: "climate", Position: -1.5}},
		Stability: 64.5,
	}
	if err := db.SaveGovernment(gov); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := db.LoadGovernment()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got == nil {
		t.Fatal("government not found")
	}
	if got.ID != gov.ID || got.PrimeMinister != gov.PrimeMinister || got.Stability != gov.Stability {
		t.Errorf("scalar fields mismatch: %+v", got)
	}
	if !reflect.DeepEqual(got.Ministries, gov.Ministries) {
		t.Errorf("ministries mismatch: %+v", got.Ministries)
	}
	if !reflect.DeepEqual(got.Agreement, gov.Agreement) {
		t.Errorf("agreement mismatch: %+v", got.Agreement)
	}

	// A nil save clears the sitting government.
	if err := db.SaveGovernment(nil); err != nil {
		t.Fatalf("clear: %v", err)
	}
	got, err = db.LoadGovernment()
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("government should be cleared, got %+v", got)
	}
}

func TestMeta(t *testing.T) {
	db := openTestDB(t)

	if err := db.SaveMeta("state", "negotiating"); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveMeta("state", "governing"); err != nil {
		t.Fatal(err)
	}

	v, err := db.GetMeta("state")
	if err != nil {
		t.Fatal(err)
	}
	if v != "governing" {
		t.Errorf("meta = %q, want governing", v)
	}

	if _, err := db.GetMeta("missing"); err == nil {
		t.Error("missing key should error")
	}
}

func TestSaveCycle(t *testing.T) {
	db := openTestDB(t)

	parties := []politics.Party{
		{ID: "a", Votes: 400000, IssuePositions: map[politics.IssueID]float64{"tax": 1}},
		{ID: "b", Votes: 300000, IssuePositions: map[politics.IssueID]float64{"tax": -1}},
	}
	cfg := engine.DefaultConfig()
	cfg.Negotiation.BaseResolveChance = 1
	cfg.Negotiation.DisruptionChance = 0

	c, err := engine.NewCycle(parties, nil, []politics.IssueID{"tax"}, cfg)
	if err != nil {
		t.Fatalf("cycle: %v", err)
	}
	for i := 0; i < 20 && c.State() == engine.CycleNegotiating; i++ {
		c.TickDay()
	}

	if err := db.SaveCycle(c); err != nil {
		t.Fatalf("save cycle: %v", err)
	}

	day, err := db.GetMeta("last_day")
	if err != nil || day == "0" {
		t.Errorf("last_day = %q, err %v", day, err)
	}
	loaded, err := db.LoadParties()
	if err != nil || len(loaded) != 2 {
		t.Fatalf("loaded %d parties, err %v", len(loaded), err)
	}
	if loaded[0].Seats == 0 {
		t.Error("seat allocation not persisted")
	}
}
