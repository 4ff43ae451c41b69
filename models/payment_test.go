package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusTransitions(t *testing.T) {
	t.Run("pending may move to any terminal status", func(t *testing.T) {
		for _, to := range []string{StatusCompleted, StatusCancelled, StatusFailed} {
			assert.True(t, CanTransition(StatusPending, to), "pending -> %s", to)
		}
	})

	t.Run("terminal statuses never transition", func(t *testing.T) {
		for _, from := range []string{StatusCompleted, StatusCancelled, StatusFailed} {
			for _, to := range []string{StatusPending, StatusCompleted, StatusCancelled, StatusFailed} {
				assert.False(t, CanTransition(from, to), "%s -> %s", from, to)
			}
		}
	})

	t.Run("IsTerminal matches the terminal set", func(t *testing.T) {
		assert.False(t, (&Payment{Status: StatusPending}).IsTerminal())
		assert.True(t, (&Payment{Status: StatusCompleted}).IsTerminal())
		assert.True(t, (&Payment{Status: StatusCancelled}).IsTerminal())
		assert.True(t, (&Payment{Status: StatusFailed}).IsTerminal())
	})
}
