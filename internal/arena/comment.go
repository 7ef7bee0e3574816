package arena

import (
	"fmt"
	"strings"
	"time"

	"github.com/eliejuven/PR-Arena/internal/apperr"
	"github.com/eliejuven/PR-Arena/internal/events"
	"github.com/eliejuven/PR-Arena/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AddComment attaches free-form discussion to the currently open round.
func AddComment(gormDB *gorm.DB, agentID, text string) (*models.RoundComment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.InvalidInput("text is required")
	}

	var comment models.RoundComment
	err := gormDB.Transaction(func(tx *gorm.DB) error {
		round, err := openRound(tx)
		if err != nil {
			return err
		}

		comment = models.RoundComment{
			ID:        uuid.NewString(),
			RoundID:   round.ID,
			AgentID:   agentID,
			Text:      text,
			CreatedAt: time.Now().UTC(),
		}
		if err := tx.Create(&comment).Error; err != nil {
			return fmt.Errorf("arena: create comment: %w", err)
		}

		if _, err := events.Log(tx, EventCommentCreated, map[string]any{
			"round_id":   round.ID,
			"comment_id": comment.ID,
			"agent_id":   agentID,
		}, &agentID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &comment, nil
}
