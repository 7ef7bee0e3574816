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

// Vote outcomes. Duplicate is a distinguished success, not an error, so
// blind-retrying voters are never penalized.
const (
	VoteStatusOK        = "ok"
	VoteStatusDuplicate = "duplicate"
)

// Tally holds per-submission vote counts.
type Tally struct {
	Agrees    int `json:"agrees"`
	Disagrees int `json:"disagrees"`
}

// LeaderboardEntry is one agent's lifetime standing.
type LeaderboardEntry struct {
	AgentID   string `json:"agent_id"`
	AgentName string `json:"agent_name"`
	Score     int    `json:"score"`
}

// CastVote records an agree/disagree vote by voterKey on a submission in the
// open round. An unrecognized value is coerced to agree rather than
// rejected, keeping blind callers usable. A repeat (submission, voter) vote
// returns VoteStatusDuplicate with no write and no event, and never
// overwrites the original value.
func CastVote(gormDB *gorm.DB, submissionID, voterKey, value string) (string, error) {
	voterKey = strings.TrimSpace(voterKey)
	if voterKey == "" {
		return "", apperr.InvalidInput("voter_key is required")
	}
	if _, err := uuid.Parse(submissionID); err != nil {
		return "", apperr.InvalidInput("Invalid submission_id")
	}

	value = strings.ToLower(strings.TrimSpace(value))
	if value != models.VoteAgree && value != models.VoteDisagree {
		value = models.VoteAgree
	}

	status := VoteStatusOK
	err := gormDB.Transaction(func(tx *gorm.DB) error {
		var submission models.Submission
		err := tx.Where("id = ?", submissionID).First(&submission).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("Submission not found")
		}
		if err != nil {
			return fmt.Errorf("arena: find submission: %w", err)
		}

		var round models.Round
		err = tx.Where("id = ?", submission.RoundID).First(&round).Error
		if err != nil || round.Status != models.RoundOpen {
			return apperr.Conflict("Round is not open")
		}

		var existing models.Vote
		err = tx.Where("submission_id = ? AND voter_key = ?", submission.ID, voterKey).
			First(&existing).Error
		if err == nil {
			status = VoteStatusDuplicate
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("arena: find vote: %w", err)
		}

		vote := models.Vote{
			ID:           uuid.NewString(),
			SubmissionID: submission.ID,
			VoterKey:     voterKey,
			Value:        value,
			CreatedAt:    time.Now().UTC(),
		}
		if err := tx.Create(&vote).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// Lost a race with the same voter; same outcome as the
				// pre-check fast path.
				status = VoteStatusDuplicate
				return nil
			}
			return fmt.Errorf("arena: create vote: %w", err)
		}

		if _, err := events.Log(tx, EventVoteCast, map[string]any{
			"submission_id": submission.ID,
		}, nil); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return status, nil
}

// TallyFor counts agree and disagree votes for one submission.
func TallyFor(gormDB *gorm.DB, submissionID string) (Tally, error) {
	var t Tally
	err := gormDB.Raw(`
		SELECT
			COALESCE(SUM(CASE WHEN value = ? THEN 1 ELSE 0 END), 0) AS agrees,
			COALESCE(SUM(CASE WHEN value = ? THEN 1 ELSE 0 END), 0) AS disagrees
		FROM votes
		WHERE submission_id = ?`,
		models.VoteAgree, models.VoteDisagree, submissionID).Scan(&t).Error
	if err != nil {
		return Tally{}, fmt.Errorf("arena: tally: %w", err)
	}
	return t, nil
}

// Leaderboard ranks agents by lifetime agree votes across all rounds, score
// descending with display name breaking ties. Agents without a submission do
// not appear.
func Leaderboard(gormDB *gorm.DB) ([]LeaderboardEntry, error) {
	var entries []LeaderboardEntry
	err := gormDB.Raw(`
		SELECT
			agents.id AS agent_id,
			agents.display_name AS agent_name,
			COALESCE(SUM(CASE WHEN votes.value = ? THEN 1 ELSE 0 END), 0) AS score
		FROM agents
		JOIN submissions ON submissions.agent_id = agents.id
		LEFT JOIN votes ON votes.submission_id = submissions.id
		GROUP BY agents.id, agents.display_name
		ORDER BY score DESC, agents.display_name ASC`,
		models.VoteAgree).Scan(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("arena: leaderboard: %w", err)
	}
	return entries, nil
}
