package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    FormStatus
		to      FormStatus
		allowed bool
	}{
		{"draft to published", StatusDraft, StatusPublished, true},
		{"published back to draft", StatusPublished, StatusDraft, true},
		{"draft to archived", StatusDraft, StatusArchived, true},
		{"published to archived", StatusPublished, StatusArchived, true},
		{"archived is terminal", StatusArchived, StatusDraft, false},
		{"archived stays archived", StatusArchived, StatusPublished, false},
		{"no self transition", StatusDraft, StatusDraft, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanTransition(tt.from, tt.to))
		})
	}
}

func TestEditable(t *testing.T) {
	assert.True(t, (&Form{Status: StatusDraft}).Editable())
	assert.True(t, (&Form{Status: StatusPublished}).Editable())
	assert.False(t, (&Form{Status: StatusArchived}).Editable())
}

func TestBuildDedupeKey(t *testing.T) {
	email := " Ada@Example.com "
	studentID := "S-001"
	both := SubmissionPolicy{
		DedupeBy:              datatypes.JSONSlice[DedupeKey]{DedupeByEmail, DedupeByStudentID},
		OneAttemptPerIdentity: true,
	}

	t.Run("policy disabled yields no key", func(t *testing.T) {
		policy := SubmissionPolicy{DedupeBy: datatypes.JSONSlice[DedupeKey]{DedupeByEmail}}
		assert.Nil(t, BuildDedupeKey(policy, &email, nil))
	})

	t.Run("email is lowercased and trimmed", func(t *testing.T) {
		policy := SubmissionPolicy{
			DedupeBy:              datatypes.JSONSlice[DedupeKey]{DedupeByEmail},
			OneAttemptPerIdentity: true,
		}
		key := BuildDedupeKey(policy, &email, nil)
		require.NotNil(t, key)
		assert.Equal(t, "email:ada@example.com", *key)
	})

	t.Run("student id kept exact", func(t *testing.T) {
		policy := SubmissionPolicy{
			DedupeBy:              datatypes.JSONSlice[DedupeKey]{DedupeByStudentID},
			OneAttemptPerIdentity: true,
		}
		key := BuildDedupeKey(policy, nil, &studentID)
		require.NotNil(t, key)
		assert.Equal(t, "sid:S-001", *key)
	})

	t.Run("both identity parts join in order", func(t *testing.T) {
		key := BuildDedupeKey(both, &email, &studentID)
		require.NotNil(t, key)
		assert.Equal(t, "email:ada@example.com|sid:S-001", *key)
	})

	t.Run("missing identity parts yield no key", func(t *testing.T) {
		empty := ""
		assert.Nil(t, BuildDedupeKey(both, nil, nil))
		assert.Nil(t, BuildDedupeKey(both, &empty, &empty))
	})
}
