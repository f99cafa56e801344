package utils

import (
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSlugFromTitle(t *testing.T) {
	tests := []struct {
		name      string
		title     string
		maxLength int
		expected  string
	}{
		{
			name:     "simple title",
			title:    "Course Feedback 2026",
			expected: "course-feedback-2026",
		},
		{
			name:     "punctuation stripped",
			title:    "What's up? (Round #2)",
			expected: "whats-up-round-2",
		},
		{
			name:     "underscores and whitespace collapse",
			title:    "weekly___check   in",
			expected: "weekly-check-in",
		},
		{
			name:     "leading and trailing separators trimmed",
			title:    "  --hello world--  ",
			expected: "hello-world",
		},
		{
			name:      "truncation does not leave trailing hyphen",
			title:     "abcde fghij",
			maxLength: 6,
			expected:  "abcde",
		},
		{
			name:     "empty title",
			title:    "!!!",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GenerateSlugFromTitle(tt.title, tt.maxLength)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestGenerateSlugFromTitle_Deterministic(t *testing.T) {
	first := GenerateSlugFromTitle("Midterm Attendance — Section B", 0)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, GenerateSlugFromTitle("Midterm Attendance — Section B", 0))
	}
}

func TestCreateUniqueSlug_BaseAvailable(t *testing.T) {
	noCollision := func(ctx context.Context, slug string) (bool, error) { return false, nil }

	slug, err := CreateUniqueSlug(context.Background(), "my-form", noCollision)
	require.NoError(t, err)
	assert.Equal(t, "my-form", slug)
}

func TestCreateUniqueSlug_SuffixGrows(t *testing.T) {
	var candidates []string
	exists := func(ctx context.Context, slug string) (bool, error) {
		candidates = append(candidates, slug)
		// Base and first two suffixed attempts collide.
		return len(candidates) <= 3, nil
	}

	slug, err := CreateUniqueSlug(context.Background(), "my-form", exists)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(slug, "my-form-"))

	// Attempt 1 suffix has 4 characters, attempt 2 has 5, attempt 3 has 6.
	require.Len(t, candidates, 4)
	assert.Len(t, strings.TrimPrefix(candidates[1], "my-form-"), 4)
	assert.Len(t, strings.TrimPrefix(candidates[2], "my-form-"), 5)
	assert.Len(t, strings.TrimPrefix(candidates[3], "my-form-"), 6)
}

func TestCreateUniqueSlug_ExhaustionFallsBackToTimestamp(t *testing.T) {
	calls := 0
	alwaysTaken := func(ctx context.Context, slug string) (bool, error) {
		calls++
		return true, nil
	}

	slug, err := CreateUniqueSlug(context.Background(), "my-form", alwaysTaken)
	require.NoError(t, err)

	// Terminates within the documented bound: base + 5 suffixed attempts.
	assert.Equal(t, 6, calls)
	assert.Regexp(t, regexp.MustCompile(`^my-form-\d+[a-z0-9]{6}$`), slug)
}

func TestCreateUniqueRandomSlug(t *testing.T) {
	t.Run("first candidate accepted", func(t *testing.T) {
		noCollision := func(ctx context.Context, slug string) (bool, error) { return false, nil }

		slug, err := CreateUniqueRandomSlug(context.Background(), noCollision, 0)
		require.NoError(t, err)
		assert.Len(t, slug, DefaultRandomSlugLength)
		assert.Regexp(t, regexp.MustCompile(`^[a-z0-9]+$`), slug)
	})

	t.Run("escalates length then falls back", func(t *testing.T) {
		var lengths []int
		alwaysTaken := func(ctx context.Context, slug string) (bool, error) {
			lengths = append(lengths, len(slug))
			return true, nil
		}

		slug, err := CreateUniqueRandomSlug(context.Background(), alwaysTaken, 10)
		require.NoError(t, err)

		require.Len(t, lengths, 20)
		for _, n := range lengths[:10] {
			assert.Equal(t, 10, n)
		}
		for _, n := range lengths[10:] {
			assert.Equal(t, 14, n)
		}
		assert.Len(t, slug, 21)
	})
}
