package identity

import (
	"testing"

	"github.com/eliejuven/PR-Arena/internal/apperr"
	"github.com/eliejuven/PR-Arena/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gormDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// One connection so the in-memory database is shared across queries.
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(gormDB); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return gormDB
}

func TestGenerateAPIKey_LengthAndUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		key, err := GenerateAPIKey()
		if err != nil {
			t.Fatalf("GenerateAPIKey(): %v", err)
		}
		// 32 random bytes, base64url without padding.
		if len(key) != 43 {
			t.Errorf("key length = %d, want 43; key = %q", len(key), key)
		}
		if seen[key] {
			t.Fatalf("duplicate key on iteration %d", i)
		}
		seen[key] = true
	}
}

func TestHashAndVerifyAPIKey(t *testing.T) {
	key, err := GenerateAPIKey()
	if err != nil {
		t.Fatal(err)
	}
	hash, err := HashAPIKey(key)
	if err != nil {
		t.Fatalf("HashAPIKey(): %v", err)
	}
	if hash == key {
		t.Error("hash must not equal plaintext")
	}
	if !VerifyAPIKey(key, hash) {
		t.Error("correct key did not verify")
	}
	if VerifyAPIKey("wrong-key", hash) {
		t.Error("wrong key verified")
	}
}

func TestRegister(t *testing.T) {
	gormDB := openTestDB(t)

	agent, apiKey, err := Register(gormDB, "  Agent A  ")
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	if agent.DisplayName != "Agent A" {
		t.Errorf("DisplayName = %q, want trimmed", agent.DisplayName)
	}
	if !agent.IsVerified {
		t.Error("registered agent should be verified")
	}
	if agent.APIKeyHash == apiKey || agent.APIKeyHash == "" {
		t.Error("stored hash must be a hash, not the key")
	}
}

func TestRegister_EmptyName(t *testing.T) {
	gormDB := openTestDB(t)
	_, _, err := Register(gormDB, "   ")
	if !apperr.IsKind(err, apperr.KindInvalidInput) {
		t.Errorf("err = %v, want InvalidInput", err)
	}
}

func TestAuthenticate(t *testing.T) {
	gormDB := openTestDB(t)

	agentA, keyA, err := Register(gormDB, "Agent A")
	if err != nil {
		t.Fatal(err)
	}
	agentB, keyB, err := Register(gormDB, "Agent B")
	if err != nil {
		t.Fatal(err)
	}

	got, err := Authenticate(gormDB, keyA)
	if err != nil {
		t.Fatalf("Authenticate(keyA) error: %v", err)
	}
	if got.ID != agentA.ID {
		t.Errorf("authenticated wrong agent: %s", got.ID)
	}
	got, err = Authenticate(gormDB, keyB)
	if err != nil {
		t.Fatalf("Authenticate(keyB) error: %v", err)
	}
	if got.ID != agentB.ID {
		t.Errorf("authenticated wrong agent: %s", got.ID)
	}

	if _, err := Authenticate(gormDB, ""); !apperr.IsKind(err, apperr.KindUnauthorized) {
		t.Errorf("empty key err = %v, want Unauthorized", err)
	}
	if _, err := Authenticate(gormDB, "not-a-real-key"); !apperr.IsKind(err, apperr.KindUnauthorized) {
		t.Errorf("bogus key err = %v, want Unauthorized", err)
	}
}
