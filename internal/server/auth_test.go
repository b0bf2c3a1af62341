package server

import (
	"path/filepath"
	"testing"
)

func newTestAuth(t *testing.T) *Auth {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "auth.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewAuth(db)
}

func TestRegisterAndLogin(t *testing.T) {
	auth := newTestAuth(t)

	id, token, err := auth.Register("bob", "password")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if id == 0 || token == "" {
		t.Fatal("register should return an id and a token")
	}

	uid, username, err := auth.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if uid != id || username != "bob" {
		t.Errorf("token claims mismatch: %d %s", uid, username)
	}

	if _, _, err := auth.Login("bob", "password", "1.2.3.4"); err != nil {
		t.Errorf("login with the right password: %v", err)
	}
	if _, _, err := auth.Login("bob", "wrong", "1.2.3.4"); err == nil {
		t.Error("login with the wrong password should fail")
	}
}

func TestRegisterValidation(t *testing.T) {
	auth := newTestAuth(t)

	if _, _, err := auth.Register("x", "password"); err == nil {
		t.Error("one-character username should be rejected")
	}
	if _, _, err := auth.Register("bob", "abc"); err == nil {
		t.Error("short password should be rejected")
	}

	if _, _, err := auth.Register("carol", "password"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, _, err := auth.Register("carol", "password2"); err == nil {
		t.Error("duplicate username should be rejected")
	}
}

func TestValidateGarbageToken(t *testing.T) {
	auth := newTestAuth(t)
	if _, _, err := auth.ValidateToken("not.a.jwt"); err == nil {
		t.Error("garbage token should fail validation")
	}
}

func TestLoginRateLimit(t *testing.T) {
	auth := newTestAuth(t)
	auth.Register("dave", "password")

	for i := 0; i < maxLoginAttempts; i++ {
		auth.Login("dave", "wrong", "9.9.9.9")
	}
	if _, _, err := auth.Login("dave", "password", "9.9.9.9"); err == nil {
		t.Error("attempts past the window limit should be rejected")
	}
	// A different source is unaffected
	if _, _, err := auth.Login("dave", "password", "8.8.8.8"); err != nil {
		t.Errorf("unrelated ip should still log in: %v", err)
	}
}

func TestSecretPersistsAcrossRestart(t *testing.T) {
	dir := t.TempDir()
	db, err := OpenDB(filepath.Join(dir, "auth.db"))
	if err != nil {
		t.Fatal(err)
	}

	auth1 := NewAuth(db)
	_, token, err := auth1.Register("erin", "password")
	if err != nil {
		t.Fatal(err)
	}

	// A second Auth over the same database must accept the old token
	auth2 := NewAuth(db)
	if _, _, err := auth2.ValidateToken(token); err != nil {
		t.Errorf("token should survive an auth restart: %v", err)
	}
	db.Close()
}
