package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/evielund/sitboard/internal/domain"
	"github.com/evielund/sitboard/internal/drag"
	"github.com/evielund/sitboard/internal/hittest"
)

// Service represents service data used by this package.
type Service interface {
	LoadBoard(context.Context) (domain.Board, error)
	MoveItem(context.Context, string, string, int) (domain.Item, error)
}

// Model represents model data used by this package.
type Model struct {
	svc Service

	ready  bool
	width  int
	height int
	err    error

	status string

	help help.Model
	keys keyMap

	fields         FieldConfig
	pollEvery      time.Duration
	columnMinWidth int
	clock          func() time.Time

	board domain.Board

	controller *drag.Controller
	viaKeys    bool
	pointer    hittest.Point
	hover      hittest.Target
	hoverOK    bool

	// grabColumn/grabIndex track the keyboard gesture's insertion marker in
	// the controller's visible order. grabIndex == len(order) appends.
	grabColumn int
	grabIndex  int

	selectedColumn int
	selectedItem   int

	showDetail bool
	detailID   string
	markdown   markdownRenderer

	// pendingBoard stashes a canonical refresh that arrived mid-gesture so
	// the active drag keeps its snapshot until it settles or cancels.
	pendingBoard *domain.Board
}

// loadedMsg carries message data through update handling.
type loadedMsg struct {
	board domain.Board
	err   error
}

// moveSettledMsg carries the gateway's answer to one dispatched move.
type moveSettledMsg struct {
	cmd  drag.Command
	item domain.Item
	err  error
}

// pollTickMsg triggers a periodic canonical refresh.
type pollTickMsg time.Time

// NewModel constructs a new value for this package.
func NewModel(svc Service, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	m := Model{
		svc:       svc,
		status:    "loading...",
		help:      h,
		keys:      newKeyMap(),
		fields:    DefaultFieldConfig(),
		pollEvery: 30 * time.Second,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	m.controller = drag.NewController(m.clock)
	return m
}

// Init handles init.
func (m Model) Init() tea.Cmd {
	if poll := m.pollTick(); poll != nil {
		return tea.Batch(m.loadData, poll)
	}
	return m.loadData
}

// Update updates state for the requested operation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		if m.controller.State() != drag.StateIdle {
			board := msg.board
			m.pendingBoard = &board
			return m, nil
		}
		m.err = nil
		m.board = msg.board
		m.pendingBoard = nil
		m.clampSelections()
		if m.status == "" || m.status == "loading..." || m.status == "refreshing..." {
			m.status = "ready"
		}
		return m, nil

	case moveSettledMsg:
		m.controller.Settle()
		if msg.err != nil {
			m.status = fmt.Sprintf("move failed: %v", msg.err)
		} else {
			m.status = fmt.Sprintf("moved to %s", msg.cmd.ColumnKey)
		}
		// The canonical order wins over the optimistic one, success or not.
		return m, m.loadData

	case pollTickMsg:
		if m.controller.State() != drag.StateIdle {
			return m, m.pollTick()
		}
		return m, tea.Batch(m.loadData, m.pollTick())

	case tea.KeyPressMsg:
		if m.showDetail {
			return m.handleDetailKey(msg)
		}
		if m.controller.State() == drag.StateActive && m.viaKeys {
			return m.handleGrabKey(msg)
		}
		return m.handleNormalKey(msg)

	case tea.MouseClickMsg:
		return m.handleMousePress(msg)

	case tea.MouseMotionMsg:
		return m.handleMouseMotion(msg)

	case tea.MouseReleaseMsg:
		return m.handleMouseRelease(msg)

	case tea.MouseWheelMsg:
		return m.handleMouseWheel(msg)

	default:
		return m, nil
	}
}

// loadData loads required data for the current operation.
func (m Model) loadData() tea.Msg {
	board, err := m.svc.LoadBoard(context.Background())
	return loadedMsg{board: board, err: err}
}

// dispatchMove sends one move command to the gateway.
func (m Model) dispatchMove(cmd drag.Command) tea.Cmd {
	return func() tea.Msg {
		item, err := m.svc.MoveItem(context.Background(), cmd.ItemID, cmd.ColumnKey, cmd.Position)
		return moveSettledMsg{cmd: cmd, item: item, err: err}
	}
}

// pollTick schedules the next periodic refresh.
func (m Model) pollTick() tea.Cmd {
	if m.pollEvery <= 0 {
		return nil
	}
	return tea.Tick(m.pollEvery, func(t time.Time) tea.Msg {
		return pollTickMsg(t)
	})
}

// activeBoard returns the board the screen should render right now: the
// controller's snapshot while a gesture is in flight, the canonical board
// otherwise.
func (m Model) activeBoard() domain.Board {
	if m.controller.State() != drag.StateIdle {
		return m.controller.Board()
	}
	return m.board
}

// handleNormalKey handles normal key.
func (m Model) handleNormalKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.reload):
		m.status = "refreshing..."
		return m, m.loadData

	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.left):
		m.selectedColumn--
		m.clampSelections()
		return m, nil

	case key.Matches(msg, m.keys.right):
		m.selectedColumn++
		m.clampSelections()
		return m, nil

	case key.Matches(msg, m.keys.up):
		m.selectedItem--
		m.clampSelections()
		return m, nil

	case key.Matches(msg, m.keys.down):
		m.selectedItem++
		m.clampSelections()
		return m, nil

	case key.Matches(msg, m.keys.grab):
		return m.startKeyboardGrab()

	case key.Matches(msg, m.keys.detail):
		item, ok := m.itemAtCursor()
		if !ok {
			return m, nil
		}
		m.showDetail = true
		m.detailID = item.ID
		return m, nil

	default:
		return m, nil
	}
}

// startKeyboardGrab lifts the card under the cursor for keyboard movement.
func (m Model) startKeyboardGrab() (tea.Model, tea.Cmd) {
	if m.controller.State() != drag.StateIdle {
		return m, nil
	}
	item, ok := m.itemAtCursor()
	if !ok {
		m.status = "nothing to grab"
		return m, nil
	}
	if _, err := m.controller.Start(m.board, item.ID); err != nil {
		m.status = err.Error()
		return m, nil
	}
	m.viaKeys = true
	m.grabColumn = m.selectedColumn
	m.grabIndex = m.selectedItem
	m.status = fmt.Sprintf("grabbed %q", item.Title)
	return m, nil
}

// handleGrabKey moves the keyboard insertion marker or ends the gesture.
func (m Model) handleGrabKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.cancel):
		m.controller.Cancel()
		m.viaKeys = false
		m.status = "drag cancelled"
		m.applyPendingBoard()
		return m, nil

	case key.Matches(msg, m.keys.left):
		m.grabColumn--
		m.clampGrab()
		return m, nil

	case key.Matches(msg, m.keys.right):
		m.grabColumn++
		m.clampGrab()
		return m, nil

	case key.Matches(msg, m.keys.up):
		m.grabIndex--
		m.clampGrab()
		return m, nil

	case key.Matches(msg, m.keys.down):
		m.grabIndex++
		m.clampGrab()
		return m, nil

	case key.Matches(msg, m.keys.drop):
		target := m.grabTarget()
		return m.finishDrop(&target)

	default:
		return m, nil
	}
}

// handleDetailKey handles detail key.
func (m Model) handleDetailKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.cancel), key.Matches(msg, m.keys.detail):
		m.showDetail = false
		m.detailID = ""
		return m, nil
	default:
		return m, nil
	}
}

// handleMousePress handles mouse press.
func (m Model) handleMousePress(msg tea.MouseClickMsg) (tea.Model, tea.Cmd) {
	if msg.Button != tea.MouseLeft || m.help.ShowAll {
		return m, nil
	}
	if m.showDetail {
		m.showDetail = false
		m.detailID = ""
		return m, nil
	}
	if m.controller.State() != drag.StateIdle {
		return m, nil
	}

	p := hittest.Point{X: msg.X, Y: msg.Y}
	colIdx, itemIdx, onCard := m.cardAt(m.board, p)
	if !onCard {
		if ci, inColumn := m.columnAt(m.board, p); inColumn {
			m.selectedColumn = ci
			m.clampSelections()
		}
		return m, nil
	}

	m.selectedColumn = colIdx
	m.selectedItem = itemIdx
	column := m.board.Columns()[colIdx]
	item := m.board.ItemsIn(column.Key)[itemIdx]
	if _, err := m.controller.Start(m.board, item.ID); err != nil {
		m.status = err.Error()
		return m, nil
	}
	m.viaKeys = false
	m.pointer = p
	m.hover = hittest.Target{ColumnKey: column.Key, ItemID: item.ID}
	m.hoverOK = true
	m.status = fmt.Sprintf("dragging %q", item.Title)
	return m, nil
}

// handleMouseMotion handles mouse motion.
func (m Model) handleMouseMotion(msg tea.MouseMotionMsg) (tea.Model, tea.Cmd) {
	if m.controller.State() != drag.StateActive || m.viaKeys {
		return m, nil
	}
	m.pointer = hittest.Point{X: msg.X, Y: msg.Y}
	board := m.controller.Board()
	columns, items := m.dropCandidates(board)
	m.hover, m.hoverOK = hittest.Resolve(m.pointer, m.pointerRect(m.pointer), columns, items)
	return m, nil
}

// handleMouseRelease handles mouse release.
func (m Model) handleMouseRelease(msg tea.MouseReleaseMsg) (tea.Model, tea.Cmd) {
	if msg.Button != tea.MouseLeft {
		return m, nil
	}
	if m.controller.State() != drag.StateActive || m.viaKeys {
		return m, nil
	}
	m.pointer = hittest.Point{X: msg.X, Y: msg.Y}
	board := m.controller.Board()
	columns, items := m.dropCandidates(board)
	target, ok := hittest.Resolve(m.pointer, m.pointerRect(m.pointer), columns, items)
	if !ok {
		return m.finishDrop(nil)
	}
	return m.finishDrop(&target)
}

// finishDrop ends the gesture for both input paths. A changed drop renders
// the optimistic order immediately and dispatches the command; everything
// else cancels in place.
func (m Model) finishDrop(target *hittest.Target) (tea.Model, tea.Cmd) {
	board, cmd, ok := m.controller.Drop(target)
	m.viaKeys = false
	m.hoverOK = false
	if !ok {
		m.status = ""
		m.applyPendingBoard()
		return m, nil
	}
	m.board = board
	m.clampSelections()
	m.status = "saving..."
	return m, m.dispatchMove(cmd)
}

// handleMouseWheel handles mouse wheel.
func (m Model) handleMouseWheel(msg tea.MouseWheelMsg) (tea.Model, tea.Cmd) {
	if m.help.ShowAll || m.showDetail || m.controller.State() != drag.StateIdle {
		return m, nil
	}
	items := m.itemsAtColumn()
	if len(items) == 0 {
		return m, nil
	}
	switch msg.Button {
	case tea.MouseWheelUp:
		if m.selectedItem > 0 {
			m.selectedItem--
		}
	case tea.MouseWheelDown:
		if m.selectedItem < len(items)-1 {
			m.selectedItem++
		}
	}
	return m, nil
}

// grabTarget maps the keyboard marker onto a drop target. The marker indexes
// the visible order of the gesture's board snapshot; pointing past the last
// card appends to the column.
func (m Model) grabTarget() hittest.Target {
	board := m.controller.Board()
	columns := board.Columns()
	if len(columns) == 0 {
		return hittest.Target{}
	}
	column := columns[clamp(m.grabColumn, 0, len(columns)-1)]
	order := m.controller.VisibleOrder(column.Key)
	if m.grabIndex < len(order) {
		return hittest.Target{ColumnKey: column.Key, ItemID: order[m.grabIndex]}
	}
	return hittest.Target{ColumnKey: column.Key}
}

// clampGrab keeps the keyboard marker inside the board.
func (m *Model) clampGrab() {
	board := m.controller.Board()
	columns := board.Columns()
	if len(columns) == 0 {
		m.grabColumn = 0
		m.grabIndex = 0
		return
	}
	m.grabColumn = clamp(m.grabColumn, 0, len(columns)-1)
	order := m.controller.VisibleOrder(columns[m.grabColumn].Key)
	m.grabIndex = clamp(m.grabIndex, 0, len(order))
}

// applyPendingBoard promotes a refresh that arrived mid-gesture.
func (m *Model) applyPendingBoard() {
	if m.pendingBoard == nil || m.controller.State() != drag.StateIdle {
		return
	}
	m.board = *m.pendingBoard
	m.pendingBoard = nil
	m.clampSelections()
}

// clampSelections clamps selections.
func (m *Model) clampSelections() {
	columns := m.board.Columns()
	if len(columns) == 0 {
		m.selectedColumn = 0
		m.selectedItem = 0
		return
	}
	m.selectedColumn = clamp(m.selectedColumn, 0, len(columns)-1)
	items := m.board.ItemsIn(columns[m.selectedColumn].Key)
	if len(items) == 0 {
		m.selectedItem = 0
		return
	}
	m.selectedItem = clamp(m.selectedItem, 0, len(items)-1)
}

// itemsAtColumn returns the cursor column's items.
func (m Model) itemsAtColumn() []domain.Item {
	columns := m.board.Columns()
	if len(columns) == 0 {
		return nil
	}
	return m.board.ItemsIn(columns[clamp(m.selectedColumn, 0, len(columns)-1)].Key)
}

// itemAtCursor returns the item under the keyboard cursor.
func (m Model) itemAtCursor() (domain.Item, bool) {
	items := m.itemsAtColumn()
	if len(items) == 0 {
		return domain.Item{}, false
	}
	return items[clamp(m.selectedItem, 0, len(items)-1)], true
}

// clamp clamps the requested operation.
func clamp(v, minV, maxV int) int {
	if maxV < minV {
		return minV
	}
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

// fitLines fits lines.
func fitLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	switch {
	case len(lines) > maxLines:
		if maxLines == 1 {
			lines = []string{"…"}
		} else {
			lines = append(lines[:maxLines-1], "…")
		}
	case len(lines) < maxLines:
		padding := make([]string, maxLines-len(lines))
		lines = append(lines, padding...)
	}
	return strings.Join(lines, "\n")
}

// overlayOnContent overlays on content.
func overlayOnContent(base, overlay string, width, height int) string {
	if width <= 0 || height <= 0 {
		if strings.TrimSpace(overlay) == "" {
			return base
		}
		return overlay + "\n\n" + base
	}

	base = fitLines(base, height)
	canvas := lipgloss.NewCanvas(width, height)
	baseLayer := lipgloss.NewLayer(base).X(0).Y(0).Z(0)
	centeredOverlay := lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		overlay,
	)
	overlayLayer := lipgloss.NewLayer(centeredOverlay).X(0).Y(0).Z(10)

	canvas.Compose(baseLayer)
	canvas.Compose(overlayLayer)
	return canvas.Render()
}

// truncate truncates the requested operation.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}
	if max <= 1 {
		return string(rs[:max])
	}
	return string(rs[:max-1]) + "…"
}
