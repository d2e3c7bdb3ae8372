package calls

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCallStatus_Terminal(t *testing.T) {
	open := []CallStatus{CallStatusQueued, CallStatusRinging, CallStatusInProgress}
	done := []CallStatus{CallStatusCompleted, CallStatusFailed, CallStatusNoAnswer, CallStatusBusy, CallStatusCanceled}
	for _, s := range open {
		assert.False(t, s.Terminal(), s)
	}
	for _, s := range done {
		assert.True(t, s.Terminal(), s)
	}
}

func TestStatusForCause(t *testing.T) {
	tests := map[string]CallStatus{
		"":                     CallStatusCompleted,
		"NORMAL_CLEARING":      CallStatusCompleted,
		"user_busy":            CallStatusBusy,
		"NO_ANSWER":            CallStatusNoAnswer,
		"ORIGINATOR_CANCEL":    CallStatusCanceled,
		"NETWORK_OUT_OF_ORDER": CallStatusFailed,
	}
	for cause, want := range tests {
		assert.Equal(t, want, StatusForCause(cause), cause)
	}
}
