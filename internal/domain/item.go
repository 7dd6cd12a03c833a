package domain

import (
	"slices"
	"strings"
	"time"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

var validPriorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// Item is one card on the board. ColumnKey and Position are the ordering
// keys the board reads; everything else is display payload owned by the
// remote authority.
type Item struct {
	ID          string
	ColumnKey   string
	Position    int
	Title       string
	Description string
	Assignee    string
	Priority    Priority
	DueAt       *time.Time
	Labels      []string
	Comments    []Comment
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ArchivedAt  *time.Time
}

// Comment is one discussion entry on an item, ordered oldest first. Comments
// are owned by the remote authority and carried for display only.
type Comment struct {
	ID        string
	Author    string
	Content   string
	CreatedAt time.Time
}

type ItemInput struct {
	ID          string
	ColumnKey   string
	Position    int
	Title       string
	Description string
	Assignee    string
	Priority    Priority
	DueAt       *time.Time
	Labels      []string
}

func NewItem(in ItemInput, now time.Time) (Item, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.ColumnKey = strings.TrimSpace(in.ColumnKey)
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Assignee = strings.TrimSpace(in.Assignee)

	if in.ID == "" {
		return Item{}, ErrInvalidID
	}
	if in.ColumnKey == "" {
		return Item{}, ErrInvalidKey
	}
	if in.Title == "" {
		return Item{}, ErrInvalidTitle
	}
	if in.Position < 0 {
		return Item{}, ErrInvalidPosition
	}

	if in.Priority == "" {
		in.Priority = PriorityMedium
	}
	if !slices.Contains(validPriorities, in.Priority) {
		return Item{}, ErrInvalidPriority
	}

	return Item{
		ID:          in.ID,
		ColumnKey:   in.ColumnKey,
		Position:    in.Position,
		Title:       in.Title,
		Description: in.Description,
		Assignee:    in.Assignee,
		Priority:    in.Priority,
		DueAt:       normalizeDueAt(in.DueAt),
		Labels:      normalizeLabels(in.Labels),
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}, nil
}

func (i *Item) Move(columnKey string, position int, now time.Time) error {
	columnKey = strings.TrimSpace(columnKey)
	if columnKey == "" {
		return ErrInvalidKey
	}
	if position < 0 {
		return ErrInvalidPosition
	}
	i.ColumnKey = columnKey
	i.Position = position
	i.UpdatedAt = now.UTC()
	return nil
}

func (i *Item) Archive(now time.Time) {
	ts := now.UTC()
	i.ArchivedAt = &ts
	i.UpdatedAt = ts
}

func (i *Item) Restore(now time.Time) {
	i.ArchivedAt = nil
	i.UpdatedAt = now.UTC()
}

func normalizeDueAt(dueAt *time.Time) *time.Time {
	if dueAt == nil {
		return nil
	}
	ts := dueAt.UTC().Truncate(time.Second)
	return &ts
}

func normalizeLabels(labels []string) []string {
	out := make([]string, 0, len(labels))
	seen := map[string]struct{}{}
	for _, raw := range labels {
		label := strings.ToLower(strings.TrimSpace(raw))
		if label == "" {
			continue
		}
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}
	slices.Sort(out)
	return out
}
