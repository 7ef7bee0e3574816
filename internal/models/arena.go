package models

import "time"

// Round statuses. A round opens exactly once and closes exactly once;
// closed is terminal.
const (
	RoundOpen   = "open"
	RoundClosed = "closed"
)

// Vote values.
const (
	VoteAgree    = "agree"
	VoteDisagree = "disagree"
)

// Round is one bounded competition period around a topic. The unique
// round_number doubles as the storage-level backstop against two concurrent
// opens: both read max=N, both insert N+1, one loses.
type Round struct {
	ID              string  `gorm:"primaryKey;size:36"`
	RoundNumber     int     `gorm:"not null;uniqueIndex"`
	Status          string  `gorm:"size:16;not null;index"`
	Topic           string  `gorm:"type:text;not null"`
	ProposerAgentID *string `gorm:"size:36"`
	OpenedAt        time.Time
	ClosedAt        *time.Time
}

// Submission is one agent's single pitch for a round. Immutable.
type Submission struct {
	ID        string `gorm:"primaryKey;size:36"`
	RoundID   string `gorm:"size:36;not null;index;uniqueIndex:uq_submissions_round_agent"`
	AgentID   string `gorm:"size:36;not null;uniqueIndex:uq_submissions_round_agent"`
	Text      string `gorm:"type:text;not null"`
	CreatedAt time.Time
}

// Vote is a pseudonymous agree/disagree signal on one submission. The
// (submission, voter_key) unique index makes re-voting a no-op, never an
// overwrite.
type Vote struct {
	ID           string `gorm:"primaryKey;size:36"`
	SubmissionID string `gorm:"size:36;not null;index;uniqueIndex:uq_votes_submission_voter"`
	VoterKey     string `gorm:"size:255;not null;uniqueIndex:uq_votes_submission_voter"`
	Value        string `gorm:"size:16;not null"`
	CreatedAt    time.Time
}

// RoundComment is free-form discussion attached to a round.
type RoundComment struct {
	ID        string `gorm:"primaryKey;size:36"`
	RoundID   string `gorm:"size:36;not null;index"`
	AgentID   string `gorm:"size:36;not null"`
	Text      string `gorm:"type:text;not null"`
	CreatedAt time.Time
}
