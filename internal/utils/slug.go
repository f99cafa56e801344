package utils

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"
)

// Slug allocation for public form identifiers. Generation is best-effort:
// the existence check narrows collisions but the storage layer's unique
// constraint on the slug column is the source of truth, and callers retry
// allocation when an insert reports a constraint violation.

const (
	// DefaultSlugMaxLength bounds title-derived slugs.
	DefaultSlugMaxLength = 60

	// DefaultRandomSlugLength is used for artifacts that are not
	// title-derived (anonymous/public links).
	DefaultRandomSlugLength = 10

	slugAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// ExistsFunc reports whether a candidate slug is already taken.
type ExistsFunc func(ctx context.Context, slug string) (bool, error)

// ErrSlugExhausted is returned when no usable identifier could be produced
// within the retry bound. Statistically negligible; treated as fatal.
var ErrSlugExhausted = fmt.Errorf("slug allocation exhausted")

var (
	slugStrip    = regexp.MustCompile(`[^\w\s-]`)
	slugCollapse = regexp.MustCompile(`[\s_]+`)
	slugTrim     = regexp.MustCompile(`^-+|-+$`)
)

// GenerateSlugFromTitle derives a deterministic URL-safe slug from a title:
// lower-cased, punctuation stripped, whitespace/underscore runs collapsed
// into single hyphens, trimmed, and truncated to maxLength without leaving
// a trailing hyphen. maxLength <= 0 selects DefaultSlugMaxLength.
func GenerateSlugFromTitle(title string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = DefaultSlugMaxLength
	}

	slug := strings.ToLower(title)
	slug = slugStrip.ReplaceAllString(slug, "")
	slug = slugCollapse.ReplaceAllString(slug, "-")
	slug = slugTrim.ReplaceAllString(slug, "")

	if len(slug) > maxLength {
		slug = slug[:maxLength]
		slug = strings.TrimRight(slug, "-")
	}

	return slug
}

// CreateUniqueSlug allocates a slug based on baseSlug. The bare base is
// tried first; on collision up to 5 candidates with a random suffix of
// growing length (starting at 4 characters) are tried; if every attempt
// collides, a timestamp-plus-random composite is returned without a
// further check.
func CreateUniqueSlug(ctx context.Context, baseSlug string, exists ExistsFunc) (string, error) {
	taken, err := exists(ctx, baseSlug)
	if err != nil {
		return "", fmt.Errorf("slug existence check failed: %w", err)
	}
	if !taken {
		return baseSlug, nil
	}

	for attempt := 0; attempt < 5; attempt++ {
		suffix, err := randomString(4 + attempt)
		if err != nil {
			return "", err
		}
		candidate := fmt.Sprintf("%s-%s", baseSlug, suffix)

		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("slug existence check failed: %w", err)
		}
		if !taken {
			return candidate, nil
		}
	}

	// Last resort: collision odds on a timestamp composite are negligible.
	suffix, err := randomString(6)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%d%s", baseSlug, time.Now().UnixMilli(), suffix), nil
}

// CreateUniqueRandomSlug allocates a fully random lowercase-alphanumeric
// slug of the given length (<= 0 selects DefaultRandomSlugLength). Up to
// 10 candidates are tried at the requested length, then 10 more at
// length+4, then a 21-character identifier is returned unchecked.
func CreateUniqueRandomSlug(ctx context.Context, exists ExistsFunc, length int) (string, error) {
	if length <= 0 {
		length = DefaultRandomSlugLength
	}

	for _, n := range []int{length, length + 4} {
		for attempt := 0; attempt < 10; attempt++ {
			candidate, err := randomString(n)
			if err != nil {
				return "", err
			}

			taken, err := exists(ctx, candidate)
			if err != nil {
				return "", fmt.Errorf("slug existence check failed: %w", err)
			}
			if !taken {
				return candidate, nil
			}
		}
	}

	return randomString(21)
}

func randomString(n int) (string, error) {
	var b strings.Builder
	b.Grow(n)
	max := big.NewInt(int64(len(slugAlphabet)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		b.WriteByte(slugAlphabet[idx.Int64()])
	}
	return b.String(), nil
}
