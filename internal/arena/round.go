// Package arena implements the round lifecycle, the submission ledger, the
// vote tally, and the public state projection. Every mutating operation runs
// as one transaction covering the precondition check, the write, and the
// audit-event append; unique constraints in the store are the authoritative
// guard, with the pre-checks as a fast path.
package arena

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/eliejuven/PR-Arena/internal/apperr"
	"github.com/eliejuven/PR-Arena/internal/events"
	"github.com/eliejuven/PR-Arena/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Topic length bounds, in characters after trimming.
const (
	TopicMinLen = 3
	TopicMaxLen = 200
)

// Event types emitted by this package.
const (
	EventTopicProposed     = "topic_proposed"
	EventRoundOpened       = "round_opened"
	EventRoundClosed       = "round_closed"
	EventSubmissionCreated = "submission_created"
	EventCommentCreated    = "comment_created"
	EventVoteCast          = "vote_cast"
)

// OpenRound opens a new round around topic. A set proposerAgentID marks an
// agent-proposed topic (topic_proposed event); nil marks an admin open
// (round_opened event) — both are the same transition. Fails with Conflict
// while another round is open.
func OpenRound(gormDB *gorm.DB, topic string, proposerAgentID *string) (*models.Round, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, apperr.InvalidInput("topic is required")
	}
	if n := utf8.RuneCountInString(topic); n < TopicMinLen || n > TopicMaxLen {
		return nil, apperr.InvalidInput("topic must be between 3 and 200 characters")
	}

	var round models.Round
	err := gormDB.Transaction(func(tx *gorm.DB) error {
		var open models.Round
		err := tx.Where("status = ?", models.RoundOpen).First(&open).Error
		if err == nil {
			return apperr.Conflict("Round already open")
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("arena: find open round: %w", err)
		}

		var lastNumber int
		if err := tx.Model(&models.Round{}).
			Select("COALESCE(MAX(round_number), 0)").
			Scan(&lastNumber).Error; err != nil {
			return fmt.Errorf("arena: max round number: %w", err)
		}

		round = models.Round{
			ID:              uuid.NewString(),
			RoundNumber:     lastNumber + 1,
			Status:          models.RoundOpen,
			Topic:           topic,
			ProposerAgentID: proposerAgentID,
			OpenedAt:        time.Now().UTC(),
		}
		if err := tx.Create(&round).Error; err != nil {
			// A concurrent open won the race on round_number or the
			// open-round guard index.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.Conflict("Round already open")
			}
			return fmt.Errorf("arena: create round: %w", err)
		}

		eventType := EventRoundOpened
		payload := map[string]any{
			"round_id":     round.ID,
			"round_number": round.RoundNumber,
			"topic":        round.Topic,
		}
		if proposerAgentID != nil {
			eventType = EventTopicProposed
			payload["proposer_agent_id"] = *proposerAgentID
		}
		if _, err := events.Log(tx, eventType, payload, proposerAgentID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &round, nil
}

// CloseRound closes the open round, setting status and closed_at together.
// Closed is terminal; there is no reopen. Fails with Conflict when no round
// is open.
func CloseRound(gormDB *gorm.DB, closerAgentID *string) (*models.Round, error) {
	var round models.Round
	err := gormDB.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("status = ?", models.RoundOpen).First(&round).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.Conflict("No open round")
		}
		if err != nil {
			return fmt.Errorf("arena: find open round: %w", err)
		}

		now := time.Now().UTC()
		round.Status = models.RoundClosed
		round.ClosedAt = &now
		// Guard on status so a concurrent close cannot count the transition
		// twice.
		res := tx.Model(&models.Round{}).Where("id = ? AND status = ?", round.ID, models.RoundOpen).
			Updates(map[string]any{"status": models.RoundClosed, "closed_at": now})
		if res.Error != nil {
			return fmt.Errorf("arena: close round: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.Conflict("No open round")
		}

		if _, err := events.Log(tx, EventRoundClosed, map[string]any{
			"round_id":     round.ID,
			"round_number": round.RoundNumber,
		}, closerAgentID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &round, nil
}

// CurrentRound returns the round with the highest round_number regardless of
// status, so the public state keeps showing the latest round after it closes
// until a new one opens. Returns (nil, nil) when no round has ever existed.
func CurrentRound(gormDB *gorm.DB) (*models.Round, error) {
	var round models.Round
	err := gormDB.Order("round_number DESC").First(&round).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("arena: current round: %w", err)
	}
	return &round, nil
}

// openRound resolves the currently open round inside tx, or Conflict.
func openRound(tx *gorm.DB) (*models.Round, error) {
	var round models.Round
	err := tx.Where("status = ?", models.RoundOpen).First(&round).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Conflict("No open round")
	}
	if err != nil {
		return nil, fmt.Errorf("arena: find open round: %w", err)
	}
	return &round, nil
}
