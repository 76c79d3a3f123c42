package workflows

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplicationMachineStrict(t *testing.T) {
	sm := NewApplicationStateMachine(true)

	assert.True(t, sm.CanTransition("DRAFT", "SUBMITTED"))
	assert.True(t, sm.CanTransition("SUBMITTED", "UNDER_REVIEW"))
	assert.True(t, sm.CanTransition("UNDER_REVIEW", "APPROVED"))
	assert.False(t, sm.CanTransition("DRAFT", "APPROVED"))
	assert.False(t, sm.CanTransition("APPROVED", "REJECTED"))
	assert.False(t, sm.CanTransition("REJECTED", "DRAFT"))
}

func TestApplicationMachinePermissive(t *testing.T) {
	sm := NewApplicationStateMachine(false)

	assert.True(t, sm.CanTransition("APPROVED", "DRAFT"))
	assert.True(t, sm.CanTransition("DRAFT", "REJECTED"))
	assert.False(t, sm.CanTransition("DRAFT", "PUBLISHED"))
}

func TestProgramMachine(t *testing.T) {
	strict := NewProgramStateMachine(true)
	assert.True(t, strict.CanTransition("DRAFT", "PUBLISHED"))
	assert.True(t, strict.CanTransition("CLOSED", "ARCHIVED"))
	assert.False(t, strict.CanTransition("ARCHIVED", "PUBLISHED"))

	loose := NewProgramStateMachine(false)
	assert.True(t, loose.CanTransition("ARCHIVED", "DRAFT"))
	assert.False(t, loose.CanTransition("UNKNOWN", "DRAFT"))
}
