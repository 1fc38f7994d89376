package cli

import (
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	lio "github.com/matzehuels/landscape/pkg/io"
)

// inspectCommand creates the inspect command for browsing a run summary.
func (c *CLI) inspectCommand() *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "inspect [summary.json]",
		Short: "Browse the cluster hierarchy of a finished run",
		Example: `  # Interactive browser
  landscape inspect out/summary.json

  # Print every level as a table
  landscape inspect out/summary.json --plain`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := lio.ImportSummary(args[0])
			if err != nil {
				return err
			}
			if plain {
				printSummary(cmd.OutOrStdout(), s)
				return nil
			}
			_, err = tea.NewProgram(NewClusterBrowser(s), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "print tables instead of the interactive browser")
	return cmd
}

// printSummary writes the run header and one table per hierarchy level.
func printSummary(w io.Writer, s lio.Summary) {
	fmt.Fprintln(w, StyleTitle.Render("Run "+s.RunID))
	fmt.Fprintln(w, StyleDim.Render(fmt.Sprintf("%d nodes · %d edges · %d clusters · %d placed",
		s.Stats.Nodes, s.Stats.Edges, s.Stats.Clusters, s.Stats.Placed)))
	if s.Merge != nil && len(s.Merge.Merges) > 0 {
		fmt.Fprintln(w, StyleDim.Render(fmt.Sprintf("%d small clusters merged", len(s.Merge.Merges))))
	}
	for _, ls := range s.Levels {
		fmt.Fprintln(w)
		fmt.Fprintln(w, StyleHighlight.Render(ls.Column))
		fmt.Fprintln(w, renderLevel(ls))
	}
}
