package apperr

import (
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want Kind
	}{
		{InvalidInput("bad"), KindInvalidInput},
		{Unauthorized("nope"), KindUnauthorized},
		{Conflict("taken"), KindConflict},
		{NotFound("gone"), KindNotFound},
		{fmt.Errorf("plain"), KindUnknown},
		{nil, KindUnknown},
	}
	for _, tt := range tests {
		if got := KindOf(tt.err); got != tt.want {
			t.Errorf("KindOf(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestKindOf_Wrapped(t *testing.T) {
	err := fmt.Errorf("outer: %w", Conflict("Round already open"))
	if !IsKind(err, KindConflict) {
		t.Errorf("wrapped conflict not detected, kind = %v", KindOf(err))
	}
}

func TestError_Message(t *testing.T) {
	err := NotFound("Submission not found")
	if err.Error() != "Submission not found" {
		t.Errorf("Error() = %q", err.Error())
	}
}
