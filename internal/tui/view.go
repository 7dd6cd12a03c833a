package tui

import (
	"fmt"
	"image/color"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/evielund/sitboard/internal/domain"
	"github.com/evielund/sitboard/internal/drag"
)

// columnColors maps the palette names the service uses to terminal colors.
var columnColors = map[string]color.Color{
	"gray":   lipgloss.Color("241"),
	"amber":  lipgloss.Color("214"),
	"green":  lipgloss.Color("34"),
	"red":    lipgloss.Color("203"),
	"blue":   lipgloss.Color("39"),
	"purple": lipgloss.Color("135"),
}

// colorFor returns the terminal color for a column palette name.
func colorFor(name string) color.Color {
	if c, ok := columnColors[strings.ToLower(strings.TrimSpace(name))]; ok {
		return c
	}
	return lipgloss.Color("241")
}

// View handles view.
func (m Model) View() tea.View {
	if m.err != nil {
		v := tea.NewView("error: " + m.err.Error() + "\n\npress r to retry • q quit\n")
		v.MouseMode = tea.MouseModeCellMotion
		v.AltScreen = true
		return v
	}
	if !m.ready {
		v := tea.NewView("loading...")
		v.MouseMode = tea.MouseModeCellMotion
		v.AltScreen = true
		return v
	}

	board := m.activeBoard()
	accent := lipgloss.Color("62")
	muted := lipgloss.Color("241")
	dim := lipgloss.Color("239")

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	statusStyle := lipgloss.NewStyle().Foreground(dim)

	header := titleStyle.Render("sitboard")
	if session, ok := m.controller.Session(); ok {
		header += statusStyle.Render("  [" + m.controller.State().String() + "] " + truncate(session.Snapshot.Title, 32))
	}

	body := m.renderColumns(board, accent, muted, dim)

	sections := []string{header, "", body}
	if m.controller.State() == drag.StateActive {
		if m.viaKeys {
			sections = append(sections, statusStyle.Render("arrows move marker • enter drop • esc cancel"))
		} else {
			sections = append(sections, statusStyle.Render("release to drop"))
		}
	}
	if strings.TrimSpace(m.status) != "" && m.status != "ready" {
		sections = append(sections, statusStyle.Render(m.status))
	}
	content := strings.Join(sections, "\n")

	helpBubble := m.help
	helpBubble.ShowAll = false
	helpBubble.SetWidth(maxInt(0, m.width-2))
	helpLine := lipgloss.NewStyle().
		Foreground(muted).
		BorderTop(true).
		BorderForeground(dim).
		Padding(0, 1).
		Width(maxInt(0, m.width)).
		Render(helpBubble.View(m.keys))

	if m.height > 0 {
		helpHeight := lipgloss.Height(helpLine)
		content = fitLines(content, maxInt(0, m.height-helpHeight))
	}

	fullContent := content + "\n" + helpLine
	overlay := ""
	if m.showDetail {
		overlay = m.renderDetailOverlay(board, accent, muted)
	} else if m.help.ShowAll {
		overlay = m.renderHelpOverlay(accent, muted)
	}
	if overlay != "" {
		overlayHeight := lipgloss.Height(fullContent)
		if m.height > 0 {
			overlayHeight = m.height
		}
		fullContent = overlayOnContent(fullContent, overlay, maxInt(1, m.width), maxInt(1, overlayHeight))
	}

	v := tea.NewView(fullContent)
	v.MouseMode = tea.MouseModeCellMotion
	v.AltScreen = true
	return v
}

// renderColumns renders the board row. Card rows are fixed-height so the
// output lines up with dropCandidates.
func (m Model) renderColumns(board domain.Board, accent, muted, dim color.Color) string {
	columns := board.Columns()
	if len(columns) == 0 {
		return lipgloss.NewStyle().Foreground(muted).Render("no columns; press r to refresh")
	}

	colWidth := m.columnWidth()
	colHeight := m.columnHeight()
	innerHeight := maxInt(1, colHeight-4)

	baseColStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dim).
		Padding(1, 2).
		MarginRight(1).
		Width(colWidth)

	dragging := m.controller.State() == drag.StateActive
	var draggedID string
	if session, ok := m.controller.Session(); ok {
		draggedID = session.ItemID
	}

	views := make([]string, 0, len(columns))
	for colIdx, column := range columns {
		items := board.ItemsIn(column.Key)
		colColor := colorFor(column.Color)
		headerText := fmt.Sprintf("%s (%d)", column.Name, len(items))
		if dragging && m.appendMarkerAt(colIdx, len(items)) {
			headerText += " ▾"
		}
		lines := []string{lipgloss.NewStyle().Bold(true).Foreground(colColor).Render(headerText)}

		if len(items) == 0 {
			lines = append(lines, lipgloss.NewStyle().Foreground(dim).Render("(empty)"))
		}
		for itemIdx, item := range items {
			lines = append(lines, m.renderCard(colIdx, itemIdx, item, colWidth, draggedID, accent, muted, dim)...)
		}

		style := baseColStyle
		switch {
		case dragging && m.hoverOK && m.hover.ColumnKey == column.Key:
			style = style.BorderForeground(colColor)
		case dragging && m.viaKeys && m.grabColumn == colIdx:
			style = style.BorderForeground(colColor)
		case !dragging && colIdx == m.selectedColumn:
			style = style.BorderForeground(accent)
		}
		views = append(views, style.Render(fitLines(strings.Join(lines, "\n"), innerHeight)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, views...)
}

// renderCard renders one card as exactly cardHeight lines.
func (m Model) renderCard(colIdx, itemIdx int, item domain.Item, colWidth int, draggedID string, accent, muted, dim color.Color) []string {
	dragging := m.controller.State() == drag.StateActive

	prefix := "  "
	titleStyle := lipgloss.NewStyle()
	subStyle := lipgloss.NewStyle().Foreground(muted)
	switch {
	case dragging && item.ID == draggedID:
		prefix = "◌ "
		titleStyle = titleStyle.Foreground(dim)
		subStyle = subStyle.Foreground(dim)
	case dragging && m.markerOnCard(colIdx, itemIdx, item.ID):
		prefix = "▸ "
		titleStyle = titleStyle.Foreground(lipgloss.Color("212")).Bold(true)
	case !dragging && colIdx == m.selectedColumn && itemIdx == m.selectedItem:
		prefix = "│ "
		titleStyle = titleStyle.Foreground(lipgloss.Color("212")).Bold(true)
	}

	title := prefix + truncate(item.Title, maxInt(1, colWidth-4))
	sub := prefix + truncate(m.cardSecondary(item), maxInt(1, colWidth-4))
	return []string{titleStyle.Render(title), subStyle.Render(sub), ""}
}

// markerOnCard reports whether the drop marker sits on this card.
func (m Model) markerOnCard(colIdx, itemIdx int, itemID string) bool {
	if m.viaKeys {
		return m.grabColumn == colIdx && m.grabIndex == itemIdx
	}
	return m.hoverOK && m.hover.ItemID == itemID
}

// appendMarkerAt reports whether the drop marker points past the column's
// last card.
func (m Model) appendMarkerAt(colIdx, itemCount int) bool {
	board := m.activeBoard()
	columns := board.Columns()
	if colIdx >= len(columns) {
		return false
	}
	if m.viaKeys {
		return m.grabColumn == colIdx && m.grabIndex >= itemCount
	}
	return m.hoverOK && !m.hover.IsItem() && m.hover.ColumnKey == columns[colIdx].Key
}

// cardSecondary builds the card's second line from the configured fields.
func (m Model) cardSecondary(item domain.Item) string {
	parts := make([]string, 0, 3)
	if m.fields.ShowPriority {
		parts = append(parts, string(item.Priority))
	}
	if m.fields.ShowDueDate && item.DueAt != nil {
		parts = append(parts, "due "+item.DueAt.Local().Format("01-02"))
	}
	if m.fields.ShowLabels && len(item.Labels) > 0 {
		visible := item.Labels
		extra := 0
		if len(visible) > 2 {
			visible = visible[:2]
			extra = len(item.Labels) - 2
		}
		label := "#" + strings.Join(visible, ",#")
		if extra > 0 {
			label += fmt.Sprintf("+%d", extra)
		}
		parts = append(parts, label)
	}
	return strings.Join(parts, " · ")
}

// renderDetailOverlay renders the card detail modal.
func (m Model) renderDetailOverlay(board domain.Board, accent, muted color.Color) string {
	item, ok := board.Item(m.detailID)
	if !ok {
		return ""
	}
	width := clamp(m.width-12, 32, 80)

	doc := &strings.Builder{}
	fmt.Fprintf(doc, "# %s\n\n", item.Title)
	meta := []string{"priority: " + string(item.Priority)}
	if item.Assignee != "" {
		meta = append(meta, "assignee: "+item.Assignee)
	}
	if item.DueAt != nil {
		meta = append(meta, "due: "+item.DueAt.Local().Format(time.DateOnly))
	}
	if len(item.Labels) > 0 {
		meta = append(meta, "labels: "+strings.Join(item.Labels, ", "))
	}
	fmt.Fprintf(doc, "%s\n", strings.Join(meta, " · "))
	if strings.TrimSpace(item.Description) != "" {
		fmt.Fprintf(doc, "\n%s\n", item.Description)
	}

	rendered := m.markdown.render(doc.String(), width-4)
	if rendered == "" {
		rendered = item.Title
	}

	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(accent)
	hintStyle := lipgloss.NewStyle().Foreground(muted)
	comments := m.commentLines(item.Comments, width-6, sectionStyle, hintStyle)

	footer := lipgloss.NewStyle().Foreground(muted).Render("esc close")
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(1, 2).
		Width(width).
		Render(rendered + "\n\n" + strings.Join(comments, "\n") + "\n\n" + footer)
}

// renderHelpOverlay renders the expanded key help modal.
func (m Model) renderHelpOverlay(accent, muted color.Color) string {
	helpBubble := m.help
	helpBubble.ShowAll = true
	helpBubble.SetWidth(maxInt(24, m.width-16))
	title := lipgloss.NewStyle().Bold(true).Foreground(accent).Render("Sitboard Help")
	body := helpBubble.View(m.keys)
	footer := lipgloss.NewStyle().Foreground(muted).Render("? close")
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(1, 2).
		Render(title + "\n\n" + body + "\n\n" + footer)
}

// maxInt returns the larger of the provided values.
func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
