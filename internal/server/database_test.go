package server

import (
	"path/filepath"
	"testing"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestScoreRecordingAndRanking(t *testing.T) {
	db := newTestDB(t)

	uid, err := db.CreateUser("alice", "alice", "hash")
	if err != nil {
		t.Fatal(err)
	}

	db.RecordScore(uid, "alice", "evader", 10)
	db.RecordScore(uid, "alice", "pursuer", 3)
	db.RecordScore(uid, "alice", "evader", 7)

	top, err := db.TopScores(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(top) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(top))
	}
	if top[0].Score != 10 || top[1].Score != 7 {
		t.Errorf("expected 10,7 got %d,%d", top[0].Score, top[1].Score)
	}
	if top[0].Role != "evader" {
		t.Errorf("expected evader, got %s", top[0].Role)
	}
}

func TestGetUserByUsernameAbsent(t *testing.T) {
	db := newTestDB(t)

	u, err := db.GetUserByUsername("nobody")
	if err != nil {
		t.Fatal(err)
	}
	if u != nil {
		t.Error("absent user should be nil, not an error")
	}
}

func TestUsernameUnique(t *testing.T) {
	db := newTestDB(t)

	if _, err := db.CreateUser("bob", "bob", "h"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.CreateUser("bob", "bob", "h"); err == nil {
		t.Error("duplicate username should violate the unique constraint")
	}

	exists, err := db.UsernameExists("bob")
	if err != nil || !exists {
		t.Errorf("bob should exist: %v %v", exists, err)
	}
}

func TestSettingsUpsert(t *testing.T) {
	db := newTestDB(t)

	if got := db.GetSetting("k"); got != "" {
		t.Errorf("absent key should be empty, got %q", got)
	}
	db.SetSetting("k", "v1")
	db.SetSetting("k", "v2")
	if got := db.GetSetting("k"); got != "v2" {
		t.Errorf("expected v2, got %q", got)
	}
}
