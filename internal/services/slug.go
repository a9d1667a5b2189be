package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// slugify generates a URL-friendly slug from a group name.
func slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return '-'
	}, s)
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	s = strings.Trim(s, "-")
	if s == "" {
		s = "group"
	}
	return s
}

// uniqueSlug returns a slug no group uses yet. On lookup errors it falls back
// to a random suffix rather than blocking group creation; the unique index
// still has the final say.
func uniqueSlug(ctx context.Context, exists func(context.Context, string) (bool, error), name string) string {
	base := slugify(name)
	slug := base
	for attempt := 0; attempt < 5; attempt++ {
		taken, err := exists(ctx, slug)
		if err != nil {
			break
		}
		if !taken {
			return slug
		}
		slug = base + "-" + uuid.NewString()[:8]
	}
	return base + "-" + uuid.NewString()
}
