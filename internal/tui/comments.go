package tui

import (
	"fmt"
	"strings"
	"time"

	"charm.land/lipgloss/v2"
	"github.com/evielund/sitboard/internal/domain"
)

// commentLines renders an item's discussion into detail-overlay body lines.
func (m Model) commentLines(comments []domain.Comment, width int, sectionStyle, hintStyle lipgloss.Style) []string {
	lines := []string{sectionStyle.Render(fmt.Sprintf("Comments (%d)", len(comments)))}
	if len(comments) == 0 {
		lines = append(lines, hintStyle.Render("(no comments yet)"))
		return lines
	}

	for idx, comment := range comments {
		author := strings.TrimSpace(comment.Author)
		if author == "" {
			author = "anonymous"
		}
		lines = append(lines, hintStyle.Render(fmt.Sprintf("%s • %s", author, formatCommentTimestamp(comment.CreatedAt))))

		body := m.markdown.render(comment.Content, width)
		if strings.TrimSpace(body) == "" {
			body = "(empty comment)"
		}
		for _, line := range splitMarkdownLines(body) {
			lines = append(lines, "  "+line)
		}
		if idx < len(comments)-1 {
			lines = append(lines, "")
		}
	}
	return lines
}

// splitMarkdownLines splits rendered markdown while preserving empty rows.
func splitMarkdownLines(rendered string) []string {
	if rendered == "" {
		return []string{""}
	}
	return strings.Split(strings.TrimRight(rendered, "\n"), "\n")
}

// formatCommentTimestamp formats one comment timestamp for display.
func formatCommentTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Local().Format("2006-01-02 15:04")
}
