package models

import "time"

// Event is one append-only audit record. Payload is free-form JSON text;
// the log imposes no schema on it. Ordering key is (created_at, id).
type Event struct {
	ID           string    `gorm:"primaryKey;size:36"`
	Type         string    `gorm:"size:64;not null"`
	Payload      string    `gorm:"type:json;not null"`
	ActorAgentID *string   `gorm:"size:36;index"`
	CreatedAt    time.Time `gorm:"index"`
}
