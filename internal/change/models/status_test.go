package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestTransitionClosure pins the full transition table: every pair not
// listed as legal must be rejected.
func TestTransitionClosure(t *testing.T) {
	legal := map[Status]map[Status]bool{
		StatusDraft:            {StatusSubmitted: true, StatusPendingApproval: true, StatusCancelled: true},
		StatusSubmitted:        {StatusDraft: true, StatusApproved: true, StatusScheduled: true, StatusCancelled: true},
		StatusPendingApproval:  {StatusDraft: true, StatusApproved: true, StatusRejected: true, StatusCancelled: true},
		StatusApproved:         {StatusScheduled: true, StatusInImplementation: true, StatusCancelled: true},
		StatusScheduled:        {StatusInImplementation: true, StatusCancelled: true},
		StatusInImplementation: {StatusCompleted: true, StatusCancelled: true},
		StatusCompleted:        {StatusClosed: true, StatusCancelled: true},
		StatusClosed:           {},
		StatusRejected:         {StatusCancelled: true},
		StatusCancelled:        {},
	}

	for _, from := range AllStatuses() {
		for _, to := range AllStatuses() {
			assert.Equal(t, legal[from][to], from.CanTransitionTo(to),
				"transition %s -> %s", from, to)
		}
	}
}

func TestCancelReachableFromAllButClosedAndCancelled(t *testing.T) {
	for _, status := range AllStatuses() {
		want := status != StatusClosed && status != StatusCancelled
		assert.Equal(t, want, status.CanTransitionTo(StatusCancelled), "from %s", status)
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, StatusClosed.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, StatusRejected.IsTerminal(), "rejected changes can still be cancelled")
	assert.False(t, StatusDraft.IsTerminal())
	assert.False(t, StatusCompleted.IsTerminal())
}

func TestIsEditable(t *testing.T) {
	editable := map[Status]bool{
		StatusDraft:           true,
		StatusSubmitted:       true,
		StatusPendingApproval: true,
	}
	for _, status := range AllStatuses() {
		assert.Equal(t, editable[status], status.IsEditable(), "status %s", status)
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in   string
		want Status
	}{
		{"draft", StatusDraft},
		{"PENDING_APPROVAL", StatusPendingApproval},
		{"  In_Implementation ", StatusInImplementation},
		{"closed", StatusClosed},
		{"", StatusDraft},
		{"nonsense", StatusDraft},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseStatus(tt.in), "input %q", tt.in)
	}
}

func TestAllowedNextReturnsCopy(t *testing.T) {
	next := StatusDraft.AllowedNext()
	next[0] = StatusClosed
	assert.False(t, StatusDraft.CanTransitionTo(StatusClosed), "mutating the returned slice must not affect the table")
}
