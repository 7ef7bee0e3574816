package arena

import (
	"testing"

	"github.com/eliejuven/PR-Arena/internal/apperr"
	"github.com/google/uuid"
)

func TestCastVote(t *testing.T) {
	gormDB := openTestDB(t)
	agent := seedAgent(t, gormDB, "Agent A")
	if _, err := OpenRound(gormDB, "Eco bottles", nil); err != nil {
		t.Fatal(err)
	}
	submission, err := Submit(gormDB, agent.ID, "Eco bottles save plastic")
	if err != nil {
		t.Fatal(err)
	}

	status, err := CastVote(gormDB, submission.ID, "v1", "agree")
	if err != nil {
		t.Fatalf("CastVote() error: %v", err)
	}
	if status != VoteStatusOK {
		t.Errorf("status = %q, want ok", status)
	}
	if n := countEvents(t, gormDB, EventVoteCast); n != 1 {
		t.Errorf("vote_cast events = %d, want 1", n)
	}

	tally, err := TallyFor(gormDB, submission.ID)
	if err != nil {
		t.Fatal(err)
	}
	if tally.Agrees != 1 || tally.Disagrees != 0 {
		t.Errorf("tally = %+v, want 1/0", tally)
	}
}

func TestCastVote_Duplicate(t *testing.T) {
	gormDB := openTestDB(t)
	agent := seedAgent(t, gormDB, "Agent A")
	if _, err := OpenRound(gormDB, "Eco bottles", nil); err != nil {
		t.Fatal(err)
	}
	submission, err := Submit(gormDB, agent.ID, "A pitch")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := CastVote(gormDB, submission.ID, "v1", "agree"); err != nil {
		t.Fatal(err)
	}
	// A repeat vote is a distinguished success, not an error, and must not
	// overwrite the original value.
	status, err := CastVote(gormDB, submission.ID, "v1", "disagree")
	if err != nil {
		t.Fatalf("duplicate vote returned error: %v", err)
	}
	if status != VoteStatusDuplicate {
		t.Errorf("status = %q, want duplicate", status)
	}

	tally, err := TallyFor(gormDB, submission.ID)
	if err != nil {
		t.Fatal(err)
	}
	if tally.Agrees != 1 || tally.Disagrees != 0 {
		t.Errorf("tally = %+v, want unchanged 1/0", tally)
	}
	if n := countEvents(t, gormDB, EventVoteCast); n != 1 {
		t.Errorf("vote_cast events = %d, want 1 (no event for duplicate)", n)
	}
}

func TestCastVote_Validation(t *testing.T) {
	gormDB := openTestDB(t)

	_, err := CastVote(gormDB, uuid.NewString(), "   ", "agree")
	if !apperr.IsKind(err, apperr.KindInvalidInput) {
		t.Errorf("empty voter_key err = %v, want InvalidInput", err)
	}

	_, err = CastVote(gormDB, "not-a-uuid", "v1", "agree")
	if !apperr.IsKind(err, apperr.KindInvalidInput) {
		t.Errorf("bad submission_id err = %v, want InvalidInput", err)
	}
}

func TestCastVote_SubmissionNotFound(t *testing.T) {
	gormDB := openTestDB(t)

	_, err := CastVote(gormDB, uuid.NewString(), "v1", "agree")
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("err = %v, want NotFound", err)
	}
}

func TestCastVote_ClosedRound(t *testing.T) {
	gormDB := openTestDB(t)
	agent := seedAgent(t, gormDB, "Agent A")
	if _, err := OpenRound(gormDB, "Eco bottles", nil); err != nil {
		t.Fatal(err)
	}
	submission, err := Submit(gormDB, agent.ID, "A pitch")
	if err != nil {
		t.Fatal(err)
	}
	// A vote while open succeeds; the same submission rejects votes after
	// close even though it persists.
	if _, err := CastVote(gormDB, submission.ID, "early", "agree"); err != nil {
		t.Fatal(err)
	}
	if _, err := CloseRound(gormDB, nil); err != nil {
		t.Fatal(err)
	}

	_, err = CastVote(gormDB, submission.ID, "late", "agree")
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Errorf("err = %v, want Conflict", err)
	}
}

func TestCastVote_ValueCoercion(t *testing.T) {
	gormDB := openTestDB(t)
	agent := seedAgent(t, gormDB, "Agent A")
	if _, err := OpenRound(gormDB, "Eco bottles", nil); err != nil {
		t.Fatal(err)
	}
	submission, err := Submit(gormDB, agent.ID, "A pitch")
	if err != nil {
		t.Fatal(err)
	}

	// Unrecognized and empty values coerce to agree; case is normalized.
	votes := []struct {
		voter string
		value string
	}{
		{"v1", ""},
		{"v2", "banana"},
		{"v3", "AGREE"},
		{"v4", " Disagree "},
	}
	for _, v := range votes {
		if _, err := CastVote(gormDB, submission.ID, v.voter, v.value); err != nil {
			t.Fatalf("CastVote(%q, %q): %v", v.voter, v.value, err)
		}
	}

	tally, err := TallyFor(gormDB, submission.ID)
	if err != nil {
		t.Fatal(err)
	}
	if tally.Agrees != 3 || tally.Disagrees != 1 {
		t.Errorf("tally = %+v, want 3/1", tally)
	}
}

func TestLeaderboard(t *testing.T) {
	gormDB := openTestDB(t)
	alice := seedAgent(t, gormDB, "Alice")
	bob := seedAgent(t, gormDB, "Bob")
	// Carol never submits, so she must not appear on the leaderboard.
	seedAgent(t, gormDB, "Carol")

	// Round 1: Alice gets 2 agrees and a disagree, Bob gets 1 agree.
	if _, err := OpenRound(gormDB, "Round one", nil); err != nil {
		t.Fatal(err)
	}
	subAlice, err := Submit(gormDB, alice.ID, "Alice pitch")
	if err != nil {
		t.Fatal(err)
	}
	subBob, err := Submit(gormDB, bob.ID, "Bob pitch")
	if err != nil {
		t.Fatal(err)
	}
	for _, voter := range []string{"v1", "v2"} {
		if _, err := CastVote(gormDB, subAlice.ID, voter, "agree"); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := CastVote(gormDB, subAlice.ID, "v3", "disagree"); err != nil {
		t.Fatal(err)
	}
	if _, err := CastVote(gormDB, subBob.ID, "v1", "agree"); err != nil {
		t.Fatal(err)
	}
	if _, err := CloseRound(gormDB, nil); err != nil {
		t.Fatal(err)
	}

	// Round 2: Bob gains another agree, lifting him level with Alice.
	if _, err := OpenRound(gormDB, "Round two", nil); err != nil {
		t.Fatal(err)
	}
	subBob2, err := Submit(gormDB, bob.ID, "Bob again")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := CastVote(gormDB, subBob2.ID, "v9", "agree"); err != nil {
		t.Fatal(err)
	}

	entries, err := Leaderboard(gormDB)
	if err != nil {
		t.Fatalf("Leaderboard() error: %v", err)
	}

	// Carol never submitted, so she is absent.
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2: %+v", len(entries), entries)
	}
	// Tie at score 2 breaks by display name ascending: Alice before Bob.
	if entries[0].AgentName != "Alice" || entries[0].Score != 2 {
		t.Errorf("entries[0] = %+v, want Alice:2", entries[0])
	}
	if entries[1].AgentName != "Bob" || entries[1].Score != 2 {
		t.Errorf("entries[1] = %+v, want Bob:2", entries[1])
	}
}
