package tui

import (
	"github.com/evielund/sitboard/internal/domain"
	"github.com/evielund/sitboard/internal/hittest"
)

// Layout constants shared by the renderer and the pointer geometry. Cards
// render at a fixed height so hit zones stay in lockstep with what is on
// screen.
const (
	// cardHeight covers the title line, the secondary line, and the
	// separator row below each card.
	cardHeight = 3
	// cardTopOffset skips the column border, padding, and header line.
	cardTopOffset = 3
	// cardLeftInset skips the column border plus horizontal padding.
	cardLeftInset = 3
	// columnOverhead is border (2) + padding (4) + margin-right (1) per column.
	columnOverhead = 7
)

// columnWidth returns column width.
func (m Model) columnWidth() int {
	return m.columnWidthFor(m.width)
}

// columnWidthFor returns column width for.
func (m Model) columnWidthFor(boardWidth int) int {
	minW := m.columnMinWidth
	if minW < 10 {
		minW = 24
	}
	columns := m.board.Columns()
	if len(columns) == 0 {
		return minW
	}
	w := 28
	if boardWidth > 0 {
		usable := boardWidth - len(columns)*columnOverhead
		candidate := usable / len(columns)
		if candidate > 0 {
			w = candidate
		}
	}
	if w < minW {
		return minW
	}
	if w > 42 {
		return 42
	}
	return w
}

// columnSpan returns the full horizontal footprint of one column.
func (m Model) columnSpan() int {
	return m.columnWidth() + columnOverhead
}

// columnHeight returns column height.
func (m Model) columnHeight() int {
	headerLines := 2
	footerLines := 4
	h := m.height - headerLines - footerLines
	if h < 14 {
		return 14
	}
	return h
}

// boardTop handles board top.
func (m Model) boardTop() int {
	// mouse coordinates from tea are 1-based; header plus spacer above the
	// column row
	return 3
}

// cardCapacity returns how many cards fit inside one column box.
func (m Model) cardCapacity() int {
	inner := m.columnHeight() - cardTopOffset - 2
	if inner < cardHeight {
		return 1
	}
	return inner / cardHeight
}

// columnZone returns the hit zone of the column at idx. Zones tile the board
// row without gaps so a pointer between boxes still lands in a column.
func (m Model) columnZone(idx int) hittest.Rect {
	return hittest.Rect{
		X: idx * m.columnSpan(),
		Y: m.boardTop(),
		W: m.columnSpan(),
		H: m.columnHeight(),
	}
}

// cardRect returns the hit zone of a card by column and row index.
func (m Model) cardRect(colIdx, itemIdx int) hittest.Rect {
	return hittest.Rect{
		X: colIdx*m.columnSpan() + cardLeftInset,
		Y: m.boardTop() + cardTopOffset + itemIdx*cardHeight,
		W: m.columnWidth(),
		H: cardHeight,
	}
}

// dropCandidates projects the rendered board into hit-test candidates. Cards
// scrolled out of the column window are not droppable.
func (m Model) dropCandidates(b domain.Board) (columns, items []hittest.Candidate) {
	capacity := m.cardCapacity()
	for colIdx, column := range b.Columns() {
		columns = append(columns, hittest.Candidate{
			ColumnKey: column.Key,
			Bounds:    m.columnZone(colIdx),
		})
		for itemIdx, item := range b.ItemsIn(column.Key) {
			if itemIdx >= capacity {
				break
			}
			items = append(items, hittest.Candidate{
				ColumnKey: column.Key,
				ItemID:    item.ID,
				Bounds:    m.cardRect(colIdx, itemIdx),
			})
		}
	}
	return columns, items
}

// columnAt returns the index of the column zone under the pointer.
func (m Model) columnAt(b domain.Board, p hittest.Point) (int, bool) {
	for ci := range b.Columns() {
		if m.columnZone(ci).Contains(p) {
			return ci, true
		}
	}
	return 0, false
}

// cardAt returns the column and row index of the card under the pointer.
func (m Model) cardAt(b domain.Board, p hittest.Point) (colIdx, itemIdx int, ok bool) {
	ci, found := m.columnAt(b, p)
	if !found {
		return 0, 0, false
	}
	capacity := m.cardCapacity()
	items := b.ItemsIn(b.Columns()[ci].Key)
	for ii := range items {
		if ii >= capacity {
			break
		}
		if m.cardRect(ci, ii).Contains(p) {
			return ci, ii, true
		}
	}
	return ci, 0, false
}

// pointerRect approximates the dragged card as a card-sized rect centered on
// the pointer.
func (m Model) pointerRect(p hittest.Point) hittest.Rect {
	w := m.columnWidth()
	return hittest.Rect{
		X: p.X - w/2,
		Y: p.Y - 1,
		W: w,
		H: cardHeight,
	}
}
