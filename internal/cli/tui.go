package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	lio "github.com/matzehuels/landscape/pkg/io"
)

// List styles
var (
	listDimStyle    = lipgloss.NewStyle().Foreground(colorDim)
	listHeaderStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

// headerRow is the row index lipgloss passes for the header.
const headerRow = -1

// maxPreviewMembers caps the member ids shown for the selected cluster.
const maxPreviewMembers = 12

// =============================================================================
// ClusterBrowser - Interactive hierarchy navigation
// =============================================================================

// crumb remembers where the browser was before descending.
type crumb struct {
	depth  int
	parent string
	cursor int
	offset int
}

// ClusterBrowser is the bubbletea model for walking a cluster hierarchy.
// Enter descends into the sub-clusters of the selected cluster and
// backspace returns to the parent level.
type ClusterBrowser struct {
	Summary lio.Summary
	Depth   int
	Parent  string // "" at the top level
	Cursor  int
	Offset  int
	Height  int

	path []crumb
}

// NewClusterBrowser creates a browser positioned at the top level.
func NewClusterBrowser(s lio.Summary) ClusterBrowser {
	return ClusterBrowser{Summary: s, Height: 15}
}

// visible returns the clusters listed at the current position.
func (m ClusterBrowser) visible() []lio.ClusterSummary {
	if m.Depth >= len(m.Summary.Levels) {
		return nil
	}
	all := m.Summary.Levels[m.Depth].Clusters
	if m.Depth == 0 {
		return all
	}
	var out []lio.ClusterSummary
	for _, c := range all {
		if c.Parent == m.Parent {
			out = append(out, c)
		}
	}
	return out
}

// selected returns the cluster under the cursor.
func (m ClusterBrowser) selected() (lio.ClusterSummary, bool) {
	vis := m.visible()
	if m.Cursor < 0 || m.Cursor >= len(vis) {
		return lio.ClusterSummary{}, false
	}
	return vis[m.Cursor], true
}

func (m ClusterBrowser) Init() tea.Cmd {
	return nil
}

func (m ClusterBrowser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.visible())-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter", "right", "l":
			c, ok := m.selected()
			if !ok || m.Depth+1 >= len(m.Summary.Levels) {
				return m, nil
			}
			m.path = append(m.path, crumb{m.Depth, m.Parent, m.Cursor, m.Offset})
			m.Depth++
			m.Parent = c.Label
			m.Cursor, m.Offset = 0, 0
		case "backspace", "left", "h":
			if len(m.path) == 0 {
				return m, nil
			}
			last := m.path[len(m.path)-1]
			m.path = m.path[:len(m.path)-1]
			m.Depth, m.Parent, m.Cursor, m.Offset = last.depth, last.parent, last.cursor, last.offset
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 10
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m ClusterBrowser) View() string {
	var b strings.Builder

	title := "Clusters"
	if m.Parent != "" {
		title = fmt.Sprintf("Clusters in %s", m.Parent)
	}
	b.WriteString(StyleTitle.Render(title))
	if m.Depth < len(m.Summary.Levels) {
		b.WriteString(listDimStyle.Render("  " + m.Summary.Levels[m.Depth].Column))
	}
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ sub-clusters  ⌫ back  q quit"))
	b.WriteString("\n\n")

	vis := m.visible()
	end := min(m.Offset+m.Height, len(vis))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		c := vis[i]
		rows = append(rows, []string{cursor, c.Label, c.Name, fmt.Sprintf("%d", c.Size)})
	}

	t := clusterTable(rows).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == headerRow {
				return listHeaderStyle
			}
			if m.Offset+row == m.Cursor {
				return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
			}
			if col == 3 {
				return StyleNumber
			}
			return lipgloss.NewStyle()
		})
	b.WriteString(t.Render())
	b.WriteString("\n\n")

	if c, ok := m.selected(); ok {
		b.WriteString(listDimStyle.Render("  members: " + formatMembers(c.Members)))
		b.WriteString("\n")
	}
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", min(m.Cursor+1, len(vis)), len(vis))))

	return b.String()
}

// =============================================================================
// Helpers
// =============================================================================

func clusterTable(rows [][]string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Label", "Name", "Size").
		Rows(rows...)
}

// formatMembers lists the first row ids of a cluster.
func formatMembers(ids []int) string {
	n := min(len(ids), maxPreviewMembers)
	parts := make([]string, n)
	for i := range n {
		parts[i] = fmt.Sprintf("%d", ids[i])
	}
	s := strings.Join(parts, ", ")
	if len(ids) > n {
		s += fmt.Sprintf(", … (%d more)", len(ids)-n)
	}
	return s
}

// renderLevel renders one hierarchy level as a static table.
func renderLevel(ls lio.LevelSummary) string {
	rows := make([][]string, len(ls.Clusters))
	for i, c := range ls.Clusters {
		rows[i] = []string{"", c.Label, c.Name, fmt.Sprintf("%d", c.Size)}
	}
	return clusterTable(rows).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == headerRow {
				return listHeaderStyle
			}
			return lipgloss.NewStyle()
		}).
		Render()
}
