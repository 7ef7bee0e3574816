package arena

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/eliejuven/PR-Arena/internal/apperr"
	"github.com/eliejuven/PR-Arena/internal/events"
	"github.com/eliejuven/PR-Arena/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Submit records agentID's single pitch for the currently open round. The
// open round is resolved fresh inside the transaction, not taken from the
// caller. A second submission by the same agent in the same round is a hard
// Conflict; submissions are immutable afterwards.
func Submit(gormDB *gorm.DB, agentID, text string) (*models.Submission, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.InvalidInput("Text is required")
	}

	var submission models.Submission
	err := gormDB.Transaction(func(tx *gorm.DB) error {
		round, err := openRound(tx)
		if err != nil {
			return err
		}

		var existing models.Submission
		err = tx.Where("round_id = ? AND agent_id = ?", round.ID, agentID).First(&existing).Error
		if err == nil {
			return apperr.Conflict("Submission already exists for this agent in current round")
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("arena: find submission: %w", err)
		}

		submission = models.Submission{
			ID:        uuid.NewString(),
			RoundID:   round.ID,
			AgentID:   agentID,
			Text:      text,
			CreatedAt: time.Now().UTC(),
		}
		if err := tx.Create(&submission).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.Conflict("Submission already exists for this agent in current round")
			}
			return fmt.Errorf("arena: create submission: %w", err)
		}

		if _, err := events.Log(tx, EventSubmissionCreated, map[string]any{
			"round_id":      round.ID,
			"submission_id": submission.ID,
			"agent_id":      agentID,
		}, &agentID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &submission, nil
}
