package onboarding

import (
	"strings"
	"testing"

	"github.com/eliejuven/PR-Arena/internal/apperr"
	"github.com/eliejuven/PR-Arena/internal/db"
	"github.com/eliejuven/PR-Arena/internal/identity"
	"github.com/eliejuven/PR-Arena/internal/models"
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
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(gormDB); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return gormDB
}

// humanTokenFor digs the human token out of the store; Init only returns it
// embedded in the verification URL.
func humanTokenFor(t *testing.T, gormDB *gorm.DB, agentID string) string {
	t.Helper()
	var row models.AgentOnboarding
	if err := gormDB.Where("agent_id = ?", agentID).First(&row).Error; err != nil {
		t.Fatalf("find onboarding row: %v", err)
	}
	return row.HumanToken
}

func TestInit(t *testing.T) {
	gormDB := openTestDB(t)

	result, err := Init(gormDB, "Agent A", "https://arena.example.com/")
	if err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	if result.ClaimToken == "" {
		t.Error("claim token missing")
	}
	if !strings.HasPrefix(result.VerificationURL, "https://arena.example.com/verify?token=") {
		t.Errorf("VerificationURL = %q", result.VerificationURL)
	}

	var agent models.Agent
	if err := gormDB.Where("id = ?", result.AgentID).First(&agent).Error; err != nil {
		t.Fatalf("agent not created: %v", err)
	}
	if agent.IsVerified {
		t.Error("agent must start unverified")
	}

	status, err := Status(gormDB, result.ClaimToken)
	if err != nil {
		t.Fatal(err)
	}
	if status.Status != StatusPending {
		t.Errorf("status = %q, want pending", status.Status)
	}
	if status.DisplayName != "Agent A" {
		t.Errorf("display name = %q", status.DisplayName)
	}
}

func TestInit_EmptyName(t *testing.T) {
	gormDB := openTestDB(t)
	_, err := Init(gormDB, "  ", "http://localhost")
	if !apperr.IsKind(err, apperr.KindInvalidInput) {
		t.Errorf("err = %v, want InvalidInput", err)
	}
}

func TestFullFlow(t *testing.T) {
	gormDB := openTestDB(t)

	result, err := Init(gormDB, "Agent A", "http://localhost:5173")
	if err != nil {
		t.Fatal(err)
	}
	humanToken := humanTokenFor(t, gormDB, result.AgentID)

	// Claim before verification is rejected.
	_, err = Claim(gormDB, result.ClaimToken)
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Errorf("early claim err = %v, want Conflict", err)
	}

	verify, err := Verify(gormDB, humanToken)
	if err != nil {
		t.Fatalf("Verify() error: %v", err)
	}
	if verify.DisplayName != "Agent A" {
		t.Errorf("display name = %q", verify.DisplayName)
	}

	status, err := Status(gormDB, result.ClaimToken)
	if err != nil {
		t.Fatal(err)
	}
	if status.Status != StatusVerified {
		t.Errorf("status = %q, want verified", status.Status)
	}

	claim, err := Claim(gormDB, result.ClaimToken)
	if err != nil {
		t.Fatalf("Claim() error: %v", err)
	}
	if claim.APIKey == "" {
		t.Fatal("no api key issued")
	}

	// The issued key authenticates the now-verified agent.
	agent, err := identity.Authenticate(gormDB, claim.APIKey)
	if err != nil {
		t.Fatalf("issued key does not authenticate: %v", err)
	}
	if agent.ID != result.AgentID || !agent.IsVerified {
		t.Errorf("agent = %+v", agent)
	}

	// Second claim is rejected.
	_, err = Claim(gormDB, result.ClaimToken)
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Errorf("second claim err = %v, want Conflict", err)
	}
}

func TestVerify_Idempotent(t *testing.T) {
	gormDB := openTestDB(t)

	result, err := Init(gormDB, "Agent A", "http://localhost")
	if err != nil {
		t.Fatal(err)
	}
	humanToken := humanTokenFor(t, gormDB, result.AgentID)

	if _, err := Verify(gormDB, humanToken); err != nil {
		t.Fatal(err)
	}
	// A re-clicked link is an OK with an explanatory message, not an error.
	second, err := Verify(gormDB, humanToken)
	if err != nil {
		t.Fatalf("second verify errored: %v", err)
	}
	if !strings.Contains(second.Message, "Already verified") {
		t.Errorf("message = %q", second.Message)
	}
}

func TestUnknownTokens(t *testing.T) {
	gormDB := openTestDB(t)

	if _, err := Status(gormDB, "nope"); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("Status err = %v, want NotFound", err)
	}
	if _, err := Verify(gormDB, "nope"); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("Verify err = %v, want NotFound", err)
	}
	if _, err := Claim(gormDB, "nope"); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("Claim err = %v, want NotFound", err)
	}
}

func TestVerificationURL(t *testing.T) {
	got := VerificationURL("https://arena.example.com/", "tok123")
	want := "https://arena.example.com/verify?token=tok123"
	if got != want {
		t.Errorf("VerificationURL = %q, want %q", got, want)
	}
}
