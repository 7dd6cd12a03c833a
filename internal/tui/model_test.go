package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/evielund/sitboard/internal/app"
	"github.com/evielund/sitboard/internal/domain"
	"github.com/evielund/sitboard/internal/drag"
	"github.com/evielund/sitboard/internal/hittest"
)

type moveCall struct {
	itemID    string
	columnKey string
	position  int
}

type fakeService struct {
	columns []domain.Column
	items   []domain.Item
	loadErr error
	moveErr error
	// settledAt, when set, is where a successful move actually lands,
	// emulating a backend that resolves the drop differently than asked.
	settledAt *moveCall
	moves     []moveCall
}

func newFakeService(t *testing.T, layout map[string][]string) *fakeService {
	t.Helper()
	now := time.Date(2026, 8, 21, 12, 0, 0, 0, time.UTC)
	keys := make([]string, 0, len(layout))
	for key := range layout {
		keys = append(keys, key)
	}
	// Column order follows the conventional workflow so tests read
	// left-to-right.
	order := []string{"todo", "in_progress", "done"}
	sorted := make([]string, 0, len(keys))
	for _, key := range order {
		if _, ok := layout[key]; ok {
			sorted = append(sorted, key)
		}
	}
	for _, key := range keys {
		found := false
		for _, s := range sorted {
			if s == key {
				found = true
				break
			}
		}
		if !found {
			sorted = append(sorted, key)
		}
	}

	f := &fakeService{}
	for pos, key := range sorted {
		col, err := domain.NewColumn(key, strings.ToUpper(key[:1])+key[1:], "gray", pos, now)
		if err != nil {
			t.Fatalf("NewColumn(%s) error = %v", key, err)
		}
		f.columns = append(f.columns, col)
		for idx, id := range layout[key] {
			item, err := domain.NewItem(domain.ItemInput{
				ID:        id,
				ColumnKey: key,
				Position:  idx,
				Title:     "Task " + id,
			}, now.Add(time.Duration(idx)*time.Minute))
			if err != nil {
				t.Fatalf("NewItem(%s) error = %v", id, err)
			}
			f.items = append(f.items, item)
		}
	}
	return f
}

func (f *fakeService) LoadBoard(context.Context) (domain.Board, error) {
	if f.loadErr != nil {
		return domain.Board{}, f.loadErr
	}
	return domain.ReplaceAll(f.items, f.columns), nil
}

func (f *fakeService) MoveItem(_ context.Context, itemID, columnKey string, position int) (domain.Item, error) {
	if f.moveErr != nil {
		return domain.Item{}, f.moveErr
	}
	f.moves = append(f.moves, moveCall{itemID: itemID, columnKey: columnKey, position: position})
	if f.settledAt != nil {
		columnKey = f.settledAt.columnKey
		position = f.settledAt.position
	}
	board := domain.ReplaceAll(f.items, f.columns).ApplyMove(itemID, columnKey, position)
	flat := make([]domain.Item, 0, len(f.items))
	for _, col := range board.Columns() {
		flat = append(flat, board.ItemsIn(col.Key)...)
	}
	f.items = flat
	item, ok := board.Item(itemID)
	if !ok {
		return domain.Item{}, app.ErrNotFound
	}
	return item, nil
}

func (f *fakeService) order(columnKey string) []string {
	ids := make([]string, 0)
	for _, item := range f.items {
		if item.ColumnKey == columnKey {
			ids = append(ids, item.ID)
		}
	}
	return ids
}

func loadReadyModel(t *testing.T, m Model) Model {
	t.Helper()
	return applyMsg(t, applyCmd(t, m, m.Init()), tea.WindowSizeMsg{Width: 120, Height: 40})
}

func applyMsg(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	updated, cmd := m.Update(msg)
	out, ok := updated.(Model)
	if !ok {
		t.Fatalf("expected Model, got %T", updated)
	}
	return applyCmd(t, out, cmd)
}

func applyCmd(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	out := m
	currentCmd := cmd
	for i := 0; i < 6 && currentCmd != nil; i++ {
		msg := currentCmd()
		updated, nextCmd := out.Update(msg)
		casted, ok := updated.(Model)
		if !ok {
			t.Fatalf("expected Model, got %T", updated)
		}
		out = casted
		currentCmd = nextCmd
	}
	return out
}

func keyRune(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func newTestModel(svc Service) Model {
	return NewModel(svc, WithPollInterval(0))
}

func TestModelLoadAndNavigation(t *testing.T) {
	svc := newFakeService(t, map[string][]string{
		"todo": {"a", "b"},
		"done": {"c"},
	})
	m := loadReadyModel(t, newTestModel(svc))

	if got := len(m.board.Columns()); got != 2 {
		t.Fatalf("expected 2 columns loaded, got %d", got)
	}
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyRight})
	if m.selectedColumn != 1 {
		t.Fatalf("expected selectedColumn=1, got %d", m.selectedColumn)
	}
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyLeft})
	if m.selectedColumn != 0 {
		t.Fatalf("expected selectedColumn=0, got %d", m.selectedColumn)
	}
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyDown})
	if m.selectedItem != 1 {
		t.Fatalf("expected selectedItem=1, got %d", m.selectedItem)
	}
}

func TestModelLoadError(t *testing.T) {
	svc := newFakeService(t, map[string][]string{"todo": nil})
	svc.loadErr = errors.New("gateway down")
	m := loadReadyModel(t, newTestModel(svc))
	if m.err == nil || !strings.Contains(m.err.Error(), "gateway down") {
		t.Fatalf("expected load error surfaced, got %v", m.err)
	}
	if v := m.View(); v.Content == nil || v.MouseMode != tea.MouseModeCellMotion {
		t.Fatal("expected error view with mouse enabled")
	}
}

func TestModelKeyboardGrabAndDropAcrossColumns(t *testing.T) {
	svc := newFakeService(t, map[string][]string{
		"todo": {"a", "b"},
		"done": {},
	})
	m := loadReadyModel(t, newTestModel(svc))

	m = applyMsg(t, m, keyRune('g'))
	if m.controller.State() != drag.StateActive {
		t.Fatalf("expected active drag, state = %v", m.controller.State())
	}
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyRight})
	if m.grabColumn != 1 {
		t.Fatalf("expected marker in column 1, got %d", m.grabColumn)
	}
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})

	if len(svc.moves) != 1 {
		t.Fatalf("expected 1 move dispatched, got %d", len(svc.moves))
	}
	if got := svc.moves[0]; got.itemID != "a" || got.columnKey != "done" || got.position != 0 {
		t.Fatalf("unexpected move %+v", got)
	}
	if m.controller.State() != drag.StateIdle {
		t.Fatalf("expected idle after settle, state = %v", m.controller.State())
	}
	if got := svc.order("done"); len(got) != 1 || got[0] != "a" {
		t.Fatalf("done order = %v, want [a]", got)
	}
	if got := svc.order("todo"); len(got) != 1 || got[0] != "b" {
		t.Fatalf("todo order = %v, want [b]", got)
	}
}

func TestModelKeyboardDropWithoutMovingIsNoop(t *testing.T) {
	svc := newFakeService(t, map[string][]string{
		"todo": {"a", "b"},
	})
	m := loadReadyModel(t, newTestModel(svc))

	m = applyMsg(t, m, keyRune('g'))
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})

	if len(svc.moves) != 0 {
		t.Fatalf("expected no move dispatched, got %v", svc.moves)
	}
	if m.controller.State() != drag.StateIdle {
		t.Fatalf("expected idle after no-op drop, state = %v", m.controller.State())
	}
}

func TestModelKeyboardGrabCancel(t *testing.T) {
	svc := newFakeService(t, map[string][]string{
		"todo": {"a"},
		"done": {},
	})
	m := loadReadyModel(t, newTestModel(svc))

	m = applyMsg(t, m, keyRune('g'))
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyRight})
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEscape})

	if len(svc.moves) != 0 {
		t.Fatalf("expected no move after cancel, got %v", svc.moves)
	}
	if m.controller.State() != drag.StateIdle {
		t.Fatalf("expected idle after cancel, state = %v", m.controller.State())
	}
	if got := svc.order("todo"); len(got) != 1 || got[0] != "a" {
		t.Fatalf("todo order = %v, want [a]", got)
	}
}

func TestModelMouseDragAcrossColumns(t *testing.T) {
	svc := newFakeService(t, map[string][]string{
		"todo": {"a", "b"},
		"done": {},
	})
	m := loadReadyModel(t, newTestModel(svc))

	src := m.cardRect(0, 0)
	press := tea.MouseClickMsg{X: src.X + 1, Y: src.Y + 1, Button: tea.MouseLeft}
	m = applyMsg(t, m, press)
	if m.controller.State() != drag.StateActive {
		t.Fatalf("expected active drag after press, state = %v", m.controller.State())
	}

	dest := m.columnZone(1)
	motion := tea.MouseMotionMsg{X: dest.X + dest.W/2, Y: dest.Y + 4, Button: tea.MouseLeft}
	m = applyMsg(t, m, motion)
	if !m.hoverOK || m.hover.ColumnKey != "done" {
		t.Fatalf("expected hover over done column, got %+v ok=%v", m.hover, m.hoverOK)
	}

	release := tea.MouseReleaseMsg{X: motion.X, Y: motion.Y, Button: tea.MouseLeft}
	m = applyMsg(t, m, release)

	if len(svc.moves) != 1 {
		t.Fatalf("expected 1 move dispatched, got %d", len(svc.moves))
	}
	if got := svc.moves[0]; got.itemID != "a" || got.columnKey != "done" || got.position != 0 {
		t.Fatalf("unexpected move %+v", got)
	}
	if m.controller.State() != drag.StateIdle {
		t.Fatalf("expected idle after settle, state = %v", m.controller.State())
	}
}

func TestModelMousePressReleaseInPlaceIsNoop(t *testing.T) {
	svc := newFakeService(t, map[string][]string{
		"todo": {"a", "b"},
	})
	m := loadReadyModel(t, newTestModel(svc))

	src := m.cardRect(0, 1)
	m = applyMsg(t, m, tea.MouseClickMsg{X: src.X + 1, Y: src.Y + 1, Button: tea.MouseLeft})
	m = applyMsg(t, m, tea.MouseReleaseMsg{X: src.X + 1, Y: src.Y + 1, Button: tea.MouseLeft})

	if len(svc.moves) != 0 {
		t.Fatalf("expected no move for in-place release, got %v", svc.moves)
	}
	if m.selectedItem != 1 {
		t.Fatalf("expected press to move cursor, selectedItem = %d", m.selectedItem)
	}
}

func TestModelMouseDragWithinColumnShiftsNeighbors(t *testing.T) {
	svc := newFakeService(t, map[string][]string{
		"todo": {"dragged", "old1", "old2"},
	})
	m := loadReadyModel(t, newTestModel(svc))

	src := m.cardRect(0, 0)
	m = applyMsg(t, m, tea.MouseClickMsg{X: src.X + 1, Y: src.Y + 1, Button: tea.MouseLeft})

	// Hover past the last card so the drop appends to the column.
	zone := m.columnZone(0)
	bottomY := zone.Y + zone.H - 1
	m = applyMsg(t, m, tea.MouseMotionMsg{X: src.X + 1, Y: bottomY, Button: tea.MouseLeft})
	m = applyMsg(t, m, tea.MouseReleaseMsg{X: src.X + 1, Y: bottomY, Button: tea.MouseLeft})

	if len(svc.moves) != 1 {
		t.Fatalf("expected 1 move dispatched, got %d", len(svc.moves))
	}
	if got := svc.order("todo"); len(got) != 3 || got[0] != "old1" || got[1] != "old2" || got[2] != "dragged" {
		t.Fatalf("todo order = %v, want [old1 old2 dragged]", got)
	}
}

func TestModelRefreshDeferredWhileDragging(t *testing.T) {
	svc := newFakeService(t, map[string][]string{
		"todo": {"a"},
		"done": {"z"},
	})
	m := loadReadyModel(t, newTestModel(svc))

	m = applyMsg(t, m, keyRune('g'))

	refreshed := newFakeService(t, map[string][]string{
		"todo": {"a", "late"},
		"done": {"z"},
	})
	board, err := refreshed.LoadBoard(context.Background())
	if err != nil {
		t.Fatalf("LoadBoard() error = %v", err)
	}
	updated, _ := m.Update(loadedMsg{board: board})
	m = updated.(Model)

	if got := len(m.board.ItemsIn("todo")); got != 1 {
		t.Fatalf("expected refresh stashed during drag, todo has %d items", got)
	}

	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEscape})
	if got := len(m.board.ItemsIn("todo")); got != 2 {
		t.Fatalf("expected stashed refresh applied after cancel, todo has %d items", got)
	}
}

func TestModelMoveFailureFallsBackToCanonical(t *testing.T) {
	svc := newFakeService(t, map[string][]string{
		"todo": {"a"},
		"done": {},
	})
	m := loadReadyModel(t, newTestModel(svc))

	svc.moveErr = errors.New("boom")
	m = applyMsg(t, m, keyRune('g'))
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyRight})
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})

	if m.controller.State() != drag.StateIdle {
		t.Fatalf("expected idle after failed settle, state = %v", m.controller.State())
	}
	if !strings.Contains(m.status, "move failed") {
		t.Fatalf("expected failure status, got %q", m.status)
	}
	// The canonical reload leaves the card where the server says it is.
	if got := m.board.ItemsIn("todo"); len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("todo after failure = %v, want [a]", got)
	}
}

func TestModelCanonicalRefreshOverridesOptimism(t *testing.T) {
	svc := newFakeService(t, map[string][]string{
		"todo": {"a", "b", "c"},
		"done": {},
	})
	// The backend keeps the card in todo at the bottom instead of the
	// destination the gesture asked for.
	svc.settledAt = &moveCall{columnKey: "todo", position: 2}
	m := loadReadyModel(t, newTestModel(svc))

	m = applyMsg(t, m, keyRune('g'))
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyRight})
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})

	if len(svc.moves) != 1 || svc.moves[0].columnKey != "done" {
		t.Fatalf("unexpected dispatched moves %v", svc.moves)
	}
	if got := m.board.ItemsIn("done"); len(got) != 0 {
		t.Fatalf("done after settle = %v, want empty", got)
	}
	todo := m.board.ItemsIn("todo")
	ids := make([]string, 0, len(todo))
	for _, item := range todo {
		ids = append(ids, item.ID)
	}
	if len(ids) != 3 || ids[0] != "b" || ids[1] != "c" || ids[2] != "a" {
		t.Fatalf("todo after settle = %v, want [b c a]", ids)
	}
}

func TestModelMouseWheel(t *testing.T) {
	svc := newFakeService(t, map[string][]string{
		"todo": {"a", "b"},
	})
	m := loadReadyModel(t, newTestModel(svc))

	m = applyMsg(t, m, tea.MouseWheelMsg{Button: tea.MouseWheelDown})
	if m.selectedItem != 1 {
		t.Fatalf("expected selectedItem=1 after wheel down, got %d", m.selectedItem)
	}
	m = applyMsg(t, m, tea.MouseWheelMsg{Button: tea.MouseWheelUp})
	if m.selectedItem != 0 {
		t.Fatalf("expected selectedItem=0 after wheel up, got %d", m.selectedItem)
	}
}

func TestModelDetailOverlay(t *testing.T) {
	svc := newFakeService(t, map[string][]string{
		"todo": {"a"},
	})
	m := loadReadyModel(t, newTestModel(svc))

	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	if !m.showDetail || m.detailID != "a" {
		t.Fatalf("expected detail overlay for a, showDetail=%v detailID=%q", m.showDetail, m.detailID)
	}
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEscape})
	if m.showDetail {
		t.Fatal("expected detail overlay closed")
	}
}

func TestModelDetailOverlayShowsComments(t *testing.T) {
	svc := newFakeService(t, map[string][]string{
		"todo": {"a", "b"},
	})
	svc.items[0].Comments = []domain.Comment{{
		ID:        "9",
		Author:    "eva",
		Content:   "rebooted the switch",
		CreatedAt: time.Date(2026, 8, 30, 11, 30, 0, 0, time.UTC),
	}}
	m := loadReadyModel(t, newTestModel(svc))

	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	overlay := m.renderDetailOverlay(m.board, lipgloss.Color("62"), lipgloss.Color("241"))
	if !strings.Contains(overlay, "Comments (1)") {
		t.Fatalf("expected comment section header, got:\n%s", overlay)
	}
	if !strings.Contains(overlay, "eva") || !strings.Contains(overlay, "rebooted") {
		t.Fatalf("expected comment author and body, got:\n%s", overlay)
	}

	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEscape})
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyDown})
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	overlay = m.renderDetailOverlay(m.board, lipgloss.Color("62"), lipgloss.Color("241"))
	if !strings.Contains(overlay, "(no comments yet)") {
		t.Fatalf("expected empty comment placeholder, got:\n%s", overlay)
	}
}

func TestModelQuitKey(t *testing.T) {
	m := newTestModel(newFakeService(t, map[string][]string{"todo": nil}))
	updated, cmd := m.Update(tea.KeyPressMsg{Code: 'q', Text: "q"})
	if updated == nil {
		t.Fatal("expected model return value")
	}
	if cmd == nil {
		t.Fatal("expected quit cmd")
	}
}

func TestModelDropCandidatesMatchLayout(t *testing.T) {
	svc := newFakeService(t, map[string][]string{
		"todo": {"a", "b"},
		"done": {"c"},
	})
	m := loadReadyModel(t, newTestModel(svc))

	columns, items := m.dropCandidates(m.board)
	if len(columns) != 2 {
		t.Fatalf("expected 2 column zones, got %d", len(columns))
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 card zones, got %d", len(items))
	}
	for _, item := range items {
		center := hittest.Point{X: item.Bounds.X + item.Bounds.W/2, Y: item.Bounds.Y + 1}
		target, ok := hittest.Resolve(center, item.Bounds, columns, items)
		if !ok || target.ItemID != item.ItemID {
			t.Fatalf("card %q does not resolve to itself, got %+v ok=%v", item.ItemID, target, ok)
		}
	}
}
