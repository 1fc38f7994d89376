package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/landscape/pkg/community"
	"github.com/matzehuels/landscape/pkg/layout"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate a shell completion script for landscape on stdout.

  $ source <(landscape completion bash)
  $ landscape completion zsh > "${fpath[1]}/_landscape"
  $ landscape completion fish | source
  PS> landscape completion powershell | Out-String | Invoke-Expression`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, w := cmd.Root(), cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(w, true)
			case "zsh":
				return root.GenZshCompletion(w)
			case "fish":
				return root.GenFishCompletion(w, true)
			default:
				return root.GenPowerShellCompletionWithDesc(w)
			}
		},
	}
}

// registerOptionCompletions completes the closed option sets of cmd's
// --method and --layout flags.
func registerOptionCompletions(cmd *cobra.Command) {
	fixed := func(values ...string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return values, cobra.ShellCompDirectiveNoFileComp
		}
	}
	_ = cmd.RegisterFlagCompletionFunc("method", fixed(community.MethodLouvain, community.MethodLeiden))
	_ = cmd.RegisterFlagCompletionFunc("layout", fixed(layout.Strategies()...))
}
