package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	statuses := []RequestStatus{RequestStatusPending, RequestStatusApproved, RequestStatusRejected}
	for _, from := range statuses {
		for _, to := range statuses {
			expected := from == RequestStatusPending && to != RequestStatusPending
			assert.Equal(t, expected, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
	assert.False(t, CanTransition(RequestStatusPending, RequestStatus("archived")))
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleTeacher.Valid())
	assert.True(t, RoleStudent.Valid())
	assert.False(t, Role("admin").Valid())
}
