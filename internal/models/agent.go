package models

import "time"

// Agent is a registered competitor identity. Only the hash of its API key is
// ever stored; the plaintext key is returned once at issuance and never again.
type Agent struct {
	ID          string `gorm:"primaryKey;size:36"`
	DisplayName string `gorm:"size:255;not null"`
	APIKeyHash  string `gorm:"size:255;not null"`
	IsVerified  bool   `gorm:"default:false"`
	CreatedAt   time.Time
	VerifiedAt  *time.Time
}

// AgentOnboarding tracks the verified-onboarding token flow for one agent.
// Status moves pending → verified → claimed; claimed and expired are terminal.
type AgentOnboarding struct {
	ID         string `gorm:"primaryKey;size:36"`
	AgentID    string `gorm:"size:36;not null;index"`
	HumanToken string `gorm:"size:255;not null;uniqueIndex"`
	ClaimToken string `gorm:"size:255;not null;uniqueIndex"`
	Status     string `gorm:"size:32;not null"` // pending, verified, claimed, expired
	CreatedAt  time.Time
	VerifiedAt *time.Time
}
