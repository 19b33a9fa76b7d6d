package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/afnanahmadtariq/collab-pm/internal/domain"
	"github.com/afnanahmadtariq/collab-pm/internal/dto"
)

// palette follows Tokyo Night
var (
	colorDim     = lipgloss.Color("#565f89")
	colorPrimary = lipgloss.Color("#7aa2f7")
	colorSuccess = lipgloss.Color("#9ece6a")
	colorWarning = lipgloss.Color("#e0af68")
	colorError   = lipgloss.Color("#f7768e")
)

type boardStyles struct {
	title    lipgloss.Style
	column   lipgloss.Style
	id       lipgloss.Style
	priority map[domain.Priority]lipgloss.Style
}

// newBoardStyles binds styles to out. Writers that are not terminals get plain text.
func newBoardStyles(out io.Writer) boardStyles {
	r := lipgloss.NewRenderer(out)
	return boardStyles{
		title:  r.NewStyle().Bold(true).Foreground(colorPrimary),
		column: r.NewStyle().Bold(true),
		id:     r.NewStyle().Foreground(colorDim),
		priority: map[domain.Priority]lipgloss.Style{
			domain.PriorityLow:    r.NewStyle().Foreground(colorDim),
			domain.PriorityMedium: r.NewStyle().Foreground(colorSuccess),
			domain.PriorityHigh:   r.NewStyle().Foreground(colorWarning),
			domain.PriorityUrgent: r.NewStyle().Foreground(colorError).Bold(true),
		},
	}
}

// renderBoard draws columns in order with their tasks indented below
func (st boardStyles) renderBoard(b dto.BoardResponse) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s\n", st.title.Render(b.Name), st.id.Render("["+shortID(b.ID)+"]"))
	for _, c := range b.Columns {
		header := st.column
		if c.Color != "" {
			header = header.Foreground(lipgloss.Color(c.Color))
		}
		fmt.Fprintf(&sb, "%s %s\n",
			header.Render("== "+c.Name),
			st.id.Render(fmt.Sprintf("[%s] (%d)", shortID(c.ID), len(c.Tasks))))
		for _, t := range c.Tasks {
			priority := string(t.Priority)
			if style, ok := st.priority[t.Priority]; ok {
				priority = style.Render(priority)
			}
			fmt.Fprintf(&sb, "  %d. %s %s %s\n", t.Position, t.Title, st.id.Render("["+shortID(t.ID)+"]"), priority)
		}
	}
	return sb.String()
}
