package domain

import (
	"regexp"
	"strings"
	"time"
)

// Column represents one ordered bucket of items. Key is the stable slug the
// remote service addresses moves by; membership is derived from each item's
// ColumnKey, never stored on the column itself.
type Column struct {
	Key       string
	Name      string
	Color     string
	Position  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewColumn(key, name, color string, position int, now time.Time) (Column, error) {
	key = strings.TrimSpace(key)
	name = strings.TrimSpace(name)
	color = strings.TrimSpace(color)
	if key == "" || key != SlugFromName(key) {
		return Column{}, ErrInvalidKey
	}
	if name == "" {
		return Column{}, ErrInvalidName
	}
	if position < 0 {
		return Column{}, ErrInvalidPosition
	}
	if color == "" {
		color = "gray"
	}

	return Column{
		Key:       key,
		Name:      name,
		Color:     color,
		Position:  position,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}, nil
}

var (
	slugStripPattern    = regexp.MustCompile(`[^a-z0-9\s_-]`)
	slugCollapsePattern = regexp.MustCompile(`[\s-]+`)
)

// SlugFromName derives a stable column key from a display name.
func SlugFromName(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = slugStripPattern.ReplaceAllString(slug, "")
	slug = slugCollapsePattern.ReplaceAllString(slug, "_")
	return strings.Trim(slug, "_")
}
