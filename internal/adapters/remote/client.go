// Package remote implements the reconciliation gateway against the
// situation-room REST backend.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/evielund/sitboard/internal/app"
	"github.com/evielund/sitboard/internal/domain"
)

// maxResponseBodyBytes limits decoded JSON payload size for fail-closed
// response handling.
const maxResponseBodyBytes int64 = 1 << 20

// defaultTimeout bounds each request when the caller supplies no client.
const defaultTimeout = 10 * time.Second

// Client is the HTTP reconciliation gateway. It satisfies app.Gateway.
type Client struct {
	baseURL string
	http    *http.Client
}

// apiError mirrors the backend's structured error payload.
type apiError struct {
	Detail string `json:"detail"`
}

// itemPayload mirrors the backend task schema. Timestamps arrive as naive
// local-less isoformat strings and are parsed by parseWireTime.
type itemPayload struct {
	ID                 int64            `json:"id"`
	Status             string           `json:"status"`
	Position           int              `json:"position"`
	Title              string           `json:"title"`
	Description        string           `json:"description"`
	Assignee           string           `json:"assignee"`
	Priority           string           `json:"priority"`
	DueDate            *string          `json:"due_date"`
	IsRecurring        bool             `json:"is_recurring"`
	RecurrenceInterval string           `json:"recurrence_interval"`
	IsArchived         bool             `json:"is_archived"`
	Labels             []labelPayload   `json:"labels"`
	Comments           []commentPayload `json:"comments"`
	CreatedAt          string           `json:"created_at"`
	UpdatedAt          string           `json:"updated_at"`
	CompletedAt        *string          `json:"completed_at"`
}

// labelPayload mirrors the backend label schema. The board only keeps names.
type labelPayload struct {
	ID    *int64 `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// commentPayload mirrors the backend comment schema.
type commentPayload struct {
	ID        int64  `json:"id"`
	Author    string `json:"author"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

// columnPayload mirrors the backend column schema.
type columnPayload struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Color    string `json:"color"`
	Position int    `json:"position"`
}

// movePayload is the move request body. Position carries the destination
// rank value, not a list index.
type movePayload struct {
	Status   string `json:"status"`
	Position int    `json:"position"`
}

// NewClient constructs a gateway for one backend base URL. A nil httpClient
// gets a timeout-bounded default.
func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("remote base url is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{baseURL: baseURL, http: httpClient}, nil
}

// ListItems fetches every task ordered by position.
func (c *Client) ListItems(ctx context.Context) ([]domain.Item, error) {
	var payload []itemPayload
	if err := c.do(ctx, http.MethodGet, "/api/tasks", nil, &payload); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	items := make([]domain.Item, 0, len(payload))
	for _, p := range payload {
		item, err := p.toDomain()
		if err != nil {
			return nil, fmt.Errorf("list tasks: %w", err)
		}
		items = append(items, item)
	}
	return items, nil
}

// ListColumns fetches every column ordered by position.
func (c *Client) ListColumns(ctx context.Context) ([]domain.Column, error) {
	var payload []columnPayload
	if err := c.do(ctx, http.MethodGet, "/api/columns", nil, &payload); err != nil {
		return nil, fmt.Errorf("list columns: %w", err)
	}
	columns := make([]domain.Column, 0, len(payload))
	for _, p := range payload {
		columns = append(columns, domain.Column{
			Key:      p.Slug,
			Name:     p.Name,
			Color:    p.Color,
			Position: p.Position,
		})
	}
	return columns, nil
}

// MoveItem dispatches one move command and returns the canonical item. The
// backend keeps sparse 1-based ranks and shifts everything at or above the
// requested value, so the board's insertion index is first translated to the
// destination column's actual rank values.
func (c *Client) MoveItem(ctx context.Context, itemID, columnKey string, position int) (domain.Item, error) {
	rank, err := c.destinationRank(ctx, itemID, columnKey, position)
	if err != nil {
		return domain.Item{}, fmt.Errorf("move task %q: %w", itemID, err)
	}
	body := movePayload{Status: columnKey, Position: rank}
	var payload itemPayload
	path := "/api/tasks/" + url.PathEscape(itemID) + "/move"
	if err := c.do(ctx, http.MethodPost, path, body, &payload); err != nil {
		return domain.Item{}, fmt.Errorf("move task %q: %w", itemID, err)
	}
	item, err := payload.toDomain()
	if err != nil {
		return domain.Item{}, fmt.Errorf("move task %q: %w", itemID, err)
	}
	return item, nil
}

// destinationRank maps a post-removal insertion index onto the destination
// column's current rank values: the rank of the item the move displaces, or
// one past the last rank for appends, or 1 into an empty column.
func (c *Client) destinationRank(ctx context.Context, itemID, columnKey string, position int) (int, error) {
	items, err := c.ListItems(ctx)
	if err != nil {
		return 0, err
	}
	dest := make([]domain.Item, 0, len(items))
	for _, item := range items {
		if item.ColumnKey != columnKey || item.ID == itemID {
			continue
		}
		dest = append(dest, item)
	}
	if len(dest) == 0 {
		return 1, nil
	}
	if position < 0 {
		position = 0
	}
	if position < len(dest) {
		return dest[position].Position, nil
	}
	return dest[len(dest)-1].Position + 1, nil
}

// do runs one JSON round trip against the backend.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", app.ErrPersist, err)
	}
	defer func() { _ = resp.Body.Close() }()

	content, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", app.ErrNotFound, errorDetail(content))
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: status %d: %s", app.ErrPersist, resp.StatusCode, errorDetail(content))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(content, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// errorDetail extracts the backend's error message, falling back to the raw
// body.
func errorDetail(content []byte) string {
	var apiErr apiError
	if err := json.Unmarshal(content, &apiErr); err == nil && strings.TrimSpace(apiErr.Detail) != "" {
		return apiErr.Detail
	}
	detail := strings.TrimSpace(string(content))
	if detail == "" {
		return "no error detail"
	}
	return detail
}

// wireTimeLayouts are accepted timestamp shapes, most specific first. The
// backend emits naive isoformat strings without a zone offset; those are
// taken as UTC.
var wireTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// parseWireTime parses one backend timestamp string.
func parseWireTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range wireTimeLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("parse timestamp %q", value)
}

// parseWireTimePtr parses an optional backend timestamp string.
func parseWireTimePtr(value *string) (*time.Time, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	ts, err := parseWireTime(*value)
	if err != nil {
		return nil, err
	}
	return &ts, nil
}

// toDomain maps the wire schema onto the board item.
func (p itemPayload) toDomain() (domain.Item, error) {
	createdAt, err := parseWireTime(p.CreatedAt)
	if err != nil {
		return domain.Item{}, fmt.Errorf("task %d created_at: %w", p.ID, err)
	}
	updatedAt, err := parseWireTime(p.UpdatedAt)
	if err != nil {
		return domain.Item{}, fmt.Errorf("task %d updated_at: %w", p.ID, err)
	}
	dueAt, err := parseWireTimePtr(p.DueDate)
	if err != nil {
		return domain.Item{}, fmt.Errorf("task %d due_date: %w", p.ID, err)
	}

	labels := make([]string, 0, len(p.Labels))
	for _, label := range p.Labels {
		labels = append(labels, label.Name)
	}
	comments := make([]domain.Comment, 0, len(p.Comments))
	for _, comment := range p.Comments {
		commentedAt, err := parseWireTime(comment.CreatedAt)
		if err != nil {
			return domain.Item{}, fmt.Errorf("task %d comment %d created_at: %w", p.ID, comment.ID, err)
		}
		comments = append(comments, domain.Comment{
			ID:        strconv.FormatInt(comment.ID, 10),
			Author:    comment.Author,
			Content:   comment.Content,
			CreatedAt: commentedAt,
		})
	}

	item := domain.Item{
		ID:          strconv.FormatInt(p.ID, 10),
		ColumnKey:   p.Status,
		Position:    p.Position,
		Title:       p.Title,
		Description: p.Description,
		Assignee:    p.Assignee,
		Priority:    domain.Priority(p.Priority),
		DueAt:       dueAt,
		Labels:      labels,
		Comments:    comments,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}
	if p.IsArchived {
		ts := updatedAt
		item.ArchivedAt = &ts
	}
	return item, nil
}
