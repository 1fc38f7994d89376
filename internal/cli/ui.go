package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/landscape/pkg/pipeline"
)

// stdout receives all status output; tests swap it.
var stdout io.Writer = os.Stdout

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - headings
	colorGreen  = lipgloss.Color("35")  // Green - success, cache hits
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - commands
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - labels
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleHighlight for level and cluster names.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)

	StyleDim    = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue  = lipgloss.NewStyle().Foreground(colorWhite)
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleHit     = lipgloss.NewStyle().Foreground(colorGreen)
	styleKey     = lipgloss.NewStyle().Foreground(colorGray).Width(12)
	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// =============================================================================
// Status Lines
// =============================================================================

func printStatus(icon string, style lipgloss.Style, msg string) {
	fmt.Fprintln(stdout, style.Render(icon)+" "+msg)
}

func printSuccess(format string, args ...any) {
	printStatus(iconSuccess, styleIconSuccess, fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	printStatus(iconError, styleIconError, fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	printStatus(iconWarning, styleIconWarning, styleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	printStatus(iconInfo, styleIconInfo, fmt.Sprintf(format, args...))
}

// printDetail prints an indented, muted line.
func printDetail(format string, args ...any) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints an output file line.
func printFile(path string) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Fprintln(stdout, styleKey.Render(key)+" "+StyleValue.Render(value))
}

func printNextStep(description, cmd string) {
	fmt.Fprintln(stdout, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

func printNewline() {
	fmt.Fprintln(stdout)
}

// =============================================================================
// Run Statistics
// =============================================================================

// printStats prints graph sizes and the cache state of each cached stage
// on one line.
func printStats(s pipeline.Stats, c pipeline.CacheInfo) {
	parts := []string{
		StyleDim.Render(fmt.Sprintf("%d nodes", s.Nodes)),
		StyleDim.Render(fmt.Sprintf("%d edges", s.Edges)),
		StyleDim.Render(fmt.Sprintf("%d clusters", s.Clusters)),
		cacheState("similarity", c.SimilarityHit),
		cacheState("layout", c.LayoutHit),
	}
	fmt.Fprintln(stdout, "  "+strings.Join(parts, StyleDim.Render(" · ")))
}

func cacheState(stage string, hit bool) string {
	if hit {
		return styleHit.Render(stage + " cached")
	}
	return StyleDim.Render(stage + " fresh")
}

// printTimings prints the duration of each stage.
func printTimings(s pipeline.Stats) {
	stages := []struct {
		name string
		d    time.Duration
	}{
		{"similarity", s.SimilarityTime},
		{"sparsify", s.SparsifyTime},
		{"cluster", s.ClusterTime},
		{"naming", s.NamingTime},
		{"layout", s.LayoutTime},
	}
	for _, st := range stages {
		printKeyValue(st.name, st.d.Round(time.Millisecond).String())
	}
}
