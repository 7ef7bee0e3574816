// Package identity manages agent records and their API-key credentials.
// Credentials are stored only as one-way hashes; the plaintext key leaves
// this package exactly once, at issuance.
package identity

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/eliejuven/PR-Arena/internal/apperr"
	"github.com/eliejuven/PR-Arena/internal/models"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// GenerateAPIKey returns a fresh URL-safe credential (32 random bytes).
func GenerateAPIKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("identity: generate api key: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// HashAPIKey hashes a plaintext key for storage.
func HashAPIKey(apiKey string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(apiKey), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("identity: hash api key: %w", err)
	}
	return string(hash), nil
}

// VerifyAPIKey reports whether the plaintext key matches the stored hash.
func VerifyAPIKey(apiKey, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(apiKey)) == nil
}

// Register creates a verified agent and issues its credential. The returned
// api key is the only copy; callers must hand it to the agent immediately.
func Register(gormDB *gorm.DB, displayName string) (*models.Agent, string, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, "", apperr.InvalidInput("display_name is required")
	}

	apiKey, err := GenerateAPIKey()
	if err != nil {
		return nil, "", err
	}
	hash, err := HashAPIKey(apiKey)
	if err != nil {
		return nil, "", err
	}

	agent := models.Agent{
		ID:          uuid.NewString(),
		DisplayName: displayName,
		APIKeyHash:  hash,
		IsVerified:  true,
		CreatedAt:   time.Now().UTC(),
	}
	if err := gormDB.Create(&agent).Error; err != nil {
		return nil, "", fmt.Errorf("identity: create agent: %w", err)
	}
	return &agent, apiKey, nil
}

// Authenticate resolves the agent owning the presented key. Only hashes are
// stored, so there is no direct lookup; each candidate hash is verified in
// turn. Returns Unauthorized when the key is missing or matches no agent.
func Authenticate(gormDB *gorm.DB, apiKey string) (*models.Agent, error) {
	if apiKey == "" {
		return nil, apperr.Unauthorized("Missing API key")
	}

	var agents []models.Agent
	if err := gormDB.Find(&agents).Error; err != nil {
		return nil, fmt.Errorf("identity: list agents: %w", err)
	}
	for i := range agents {
		if VerifyAPIKey(apiKey, agents[i].APIKeyHash) {
			return &agents[i], nil
		}
	}
	return nil, apperr.Unauthorized("Invalid API key")
}
