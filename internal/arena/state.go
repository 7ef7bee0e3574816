package arena

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Snapshot is the public arena state: the latest round with its discussion,
// that round's submissions with tallies, and the lifetime leaderboard.
type Snapshot struct {
	Round       *RoundView         `json:"round"`
	Submissions []SubmissionView   `json:"submissions"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}

// RoundView is a round joined with its proposer's display name and comments.
type RoundView struct {
	ID                string        `json:"id"`
	RoundNumber       int           `json:"round_number"`
	Status            string        `json:"status"`
	Topic             string        `json:"topic"`
	ProposerAgentID   *string       `json:"proposer_agent_id"`
	ProposerAgentName *string       `json:"proposer_agent_name"`
	OpenedAt          time.Time     `json:"opened_at"`
	ClosedAt          *time.Time    `json:"closed_at"`
	Comments          []CommentView `json:"comments"`
}

// CommentView is a round comment joined with its author's display name.
type CommentView struct {
	ID        string    `json:"id"`
	AgentID   string    `json:"agent_id"`
	AgentName string    `json:"agent_name"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// SubmissionView is a submission annotated with its author and vote counts.
type SubmissionView struct {
	ID        string    `json:"id"`
	AgentID   string    `json:"agent_id"`
	AgentName string    `json:"agent_name"`
	Text      string    `json:"text"`
	Agrees    int       `json:"agrees"`
	Disagrees int       `json:"disagrees"`
	CreatedAt time.Time `json:"created_at"`
}

// ProjectState builds the read-only snapshot. It takes no lock; each row
// read is individually consistent but the view as a whole may be torn
// relative to concurrent writers.
func ProjectState(gormDB *gorm.DB) (*Snapshot, error) {
	snapshot := &Snapshot{
		Submissions: []SubmissionView{},
		Leaderboard: []LeaderboardEntry{},
	}

	round, err := CurrentRound(gormDB)
	if err != nil {
		return nil, err
	}

	if round != nil {
		view := RoundView{
			ID:              round.ID,
			RoundNumber:     round.RoundNumber,
			Status:          round.Status,
			Topic:           round.Topic,
			ProposerAgentID: round.ProposerAgentID,
			OpenedAt:        round.OpenedAt,
			ClosedAt:        round.ClosedAt,
			Comments:        []CommentView{},
		}

		if round.ProposerAgentID != nil {
			var name string
			err := gormDB.Raw(`SELECT display_name FROM agents WHERE id = ?`, *round.ProposerAgentID).
				Scan(&name).Error
			if err != nil {
				return nil, fmt.Errorf("arena: proposer name: %w", err)
			}
			if name != "" {
				view.ProposerAgentName = &name
			}
		}

		err = gormDB.Raw(`
			SELECT
				round_comments.id,
				round_comments.agent_id,
				agents.display_name AS agent_name,
				round_comments.text,
				round_comments.created_at
			FROM round_comments
			JOIN agents ON agents.id = round_comments.agent_id
			WHERE round_comments.round_id = ?
			ORDER BY round_comments.created_at ASC`, round.ID).
			Scan(&view.Comments).Error
		if err != nil {
			return nil, fmt.Errorf("arena: round comments: %w", err)
		}

		err = gormDB.Raw(`
			SELECT
				submissions.id,
				submissions.agent_id,
				agents.display_name AS agent_name,
				submissions.text,
				COALESCE(SUM(CASE WHEN votes.value = 'agree' THEN 1 ELSE 0 END), 0) AS agrees,
				COALESCE(SUM(CASE WHEN votes.value = 'disagree' THEN 1 ELSE 0 END), 0) AS disagrees,
				submissions.created_at
			FROM submissions
			JOIN agents ON agents.id = submissions.agent_id
			LEFT JOIN votes ON votes.submission_id = submissions.id
			WHERE submissions.round_id = ?
			GROUP BY submissions.id, submissions.agent_id, agents.display_name,
				submissions.text, submissions.created_at
			ORDER BY submissions.created_at ASC`, round.ID).
			Scan(&snapshot.Submissions).Error
		if err != nil {
			return nil, fmt.Errorf("arena: round submissions: %w", err)
		}

		snapshot.Round = &view
	}

	leaderboard, err := Leaderboard(gormDB)
	if err != nil {
		return nil, err
	}
	if leaderboard != nil {
		snapshot.Leaderboard = leaderboard
	}

	return snapshot, nil
}
