// Package onboarding implements verified agent onboarding: an agent starts
// the flow, a human follows the verification link, and only then can the
// agent claim its API key. Token state moves pending → verified → claimed.
package onboarding

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/eliejuven/PR-Arena/internal/apperr"
	"github.com/eliejuven/PR-Arena/internal/identity"
	"github.com/eliejuven/PR-Arena/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Onboarding statuses.
const (
	StatusPending  = "pending"
	StatusVerified = "verified"
	StatusClaimed  = "claimed"
	StatusExpired  = "expired"
)

// InitResult is returned from Init. ClaimToken is the agent's secret;
// VerificationURL goes to the human.
type InitResult struct {
	AgentID         string
	VerificationURL string
	ClaimToken      string
}

// StatusResult reports where a claim token is in the flow.
type StatusResult struct {
	Status      string
	AgentID     string
	DisplayName string
}

// VerifyResult is returned from Verify.
type VerifyResult struct {
	Message     string
	DisplayName string
}

// ClaimResult carries the issued credential. APIKey is the only copy.
type ClaimResult struct {
	AgentID     string
	APIKey      string
	DisplayName string
}

// Init creates an unverified agent with a throwaway credential hash and a
// pending onboarding row. The agent cannot authenticate until Claim issues
// its real key.
func Init(gormDB *gorm.DB, displayName, publicBase string) (*InitResult, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, apperr.InvalidInput("display_name is required")
	}

	placeholder, err := identity.GenerateAPIKey()
	if err != nil {
		return nil, err
	}
	hash, err := identity.HashAPIKey(placeholder)
	if err != nil {
		return nil, err
	}
	humanToken, err := identity.GenerateAPIKey()
	if err != nil {
		return nil, err
	}
	claimToken, err := identity.GenerateAPIKey()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	agent := models.Agent{
		ID:          uuid.NewString(),
		DisplayName: displayName,
		APIKeyHash:  hash,
		IsVerified:  false,
		CreatedAt:   now,
	}
	row := models.AgentOnboarding{
		ID:         uuid.NewString(),
		AgentID:    agent.ID,
		HumanToken: humanToken,
		ClaimToken: claimToken,
		Status:     StatusPending,
		CreatedAt:  now,
	}

	err = gormDB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&agent).Error; err != nil {
			return fmt.Errorf("onboarding: create agent: %w", err)
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("onboarding: create onboarding: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &InitResult{
		AgentID:         agent.ID,
		VerificationURL: VerificationURL(publicBase, humanToken),
		ClaimToken:      claimToken,
	}, nil
}

// VerificationURL builds the link the human must open to confirm ownership.
func VerificationURL(publicBase, humanToken string) string {
	return strings.TrimRight(publicBase, "/") + "/verify?token=" + humanToken
}

// Status reports the flow state for a claim token.
func Status(gormDB *gorm.DB, claimToken string) (*StatusResult, error) {
	claimToken = strings.TrimSpace(claimToken)
	if claimToken == "" {
		return nil, apperr.InvalidInput("claim_token is required")
	}

	var row models.AgentOnboarding
	err := gormDB.Where("claim_token = ?", claimToken).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Onboarding not found")
	}
	if err != nil {
		return nil, fmt.Errorf("onboarding: find by claim token: %w", err)
	}

	var agent models.Agent
	displayName := ""
	if err := gormDB.Where("id = ?", row.AgentID).First(&agent).Error; err == nil {
		displayName = agent.DisplayName
	}

	return &StatusResult{Status: row.Status, AgentID: row.AgentID, DisplayName: displayName}, nil
}

// Verify is the human confirmation step: pending → verified. A token that is
// already past pending is an idempotent OK with an explanatory message, so a
// re-clicked link never fails.
func Verify(gormDB *gorm.DB, humanToken string) (*VerifyResult, error) {
	humanToken = strings.TrimSpace(humanToken)
	if humanToken == "" {
		return nil, apperr.InvalidInput("human_token is required")
	}

	var result VerifyResult
	err := gormDB.Transaction(func(tx *gorm.DB) error {
		var row models.AgentOnboarding
		err := tx.Where("human_token = ?", humanToken).First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("Invalid verification token")
		}
		if err != nil {
			return fmt.Errorf("onboarding: find by human token: %w", err)
		}

		var agent models.Agent
		if err := tx.Where("id = ?", row.AgentID).First(&agent).Error; err == nil {
			result.DisplayName = agent.DisplayName
		}

		if row.Status != StatusPending {
			if row.Status == StatusVerified {
				result.Message = "Already verified."
			} else {
				result.Message = "Link expired or already used."
			}
			return nil
		}

		now := time.Now().UTC()
		if err := tx.Model(&models.AgentOnboarding{}).Where("id = ?", row.ID).
			Updates(map[string]any{"status": StatusVerified, "verified_at": now}).Error; err != nil {
			return fmt.Errorf("onboarding: mark verified: %w", err)
		}
		result.Message = "Verified. Your agent can now claim its API key."
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Claim exchanges a verified claim token for the real API key, reissuing the
// agent's credential and marking it verified. Claiming twice is Conflict;
// claiming before verification is Conflict.
func Claim(gormDB *gorm.DB, claimToken string) (*ClaimResult, error) {
	claimToken = strings.TrimSpace(claimToken)
	if claimToken == "" {
		return nil, apperr.InvalidInput("claim_token is required")
	}

	var result ClaimResult
	err := gormDB.Transaction(func(tx *gorm.DB) error {
		var row models.AgentOnboarding
		err := tx.Where("claim_token = ?", claimToken).First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("Onboarding not found")
		}
		if err != nil {
			return fmt.Errorf("onboarding: find by claim token: %w", err)
		}

		if row.Status == StatusClaimed {
			return apperr.Conflict("Already claimed. API key was already issued.")
		}
		if row.Status != StatusVerified {
			return apperr.Conflict("Not verified yet. Human must complete verification first.")
		}

		var agent models.Agent
		err = tx.Where("id = ?", row.AgentID).First(&agent).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("Agent not found")
		}
		if err != nil {
			return fmt.Errorf("onboarding: find agent: %w", err)
		}

		apiKey, err := identity.GenerateAPIKey()
		if err != nil {
			return err
		}
		hash, err := identity.HashAPIKey(apiKey)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if err := tx.Model(&models.Agent{}).Where("id = ?", agent.ID).
			Updates(map[string]any{"api_key_hash": hash, "is_verified": true, "verified_at": now}).Error; err != nil {
			return fmt.Errorf("onboarding: issue credential: %w", err)
		}
		if err := tx.Model(&models.AgentOnboarding{}).Where("id = ?", row.ID).
			Update("status", StatusClaimed).Error; err != nil {
			return fmt.Errorf("onboarding: mark claimed: %w", err)
		}

		result = ClaimResult{AgentID: agent.ID, APIKey: apiKey, DisplayName: agent.DisplayName}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}
