package arg

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var blockCmd = &cobra.Command{
	Use:   "block",
	Short: "Manage the sites blocked during focus",
}

var blockAddCmd = &cobra.Command{
	Use:   "add <site>...",
	Short: "Block one or more sites",
	Long: `Add sites to the block list. URLs are reduced to their domain.
Examples:
  fwctl block add reddit.com
  fwctl block add https://www.youtube.com/watch?v=abc`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := openState()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, raw := range args {
			domain, added, err := mgr.AddSite(raw)
			if err != nil {
				return fmt.Errorf("%s: %w", raw, err)
			}
			if added {
				fmt.Fprintf(out, "Blocked %s\n", domain)
			} else {
				fmt.Fprintf(out, "%s is already blocked\n", domain)
			}
		}
		return nil
	},
}

var blockRemoveCmd = &cobra.Command{
	Use:     "remove <site>...",
	Aliases: []string{"rm"},
	Short:   "Unblock one or more sites",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := openState()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, raw := range args {
			removed, err := mgr.RemoveSite(raw)
			if err != nil {
				return err
			}
			if removed {
				fmt.Fprintf(out, "Unblocked %s\n", raw)
			} else {
				fmt.Fprintf(out, "%s was not blocked\n", raw)
			}
		}
		return nil
	},
}

var blockListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List blocked sites",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := openState()
		if err != nil {
			return err
		}
		list, err := mgr.LoadBlockList()
		if err != nil {
			return err
		}
		if list == nil {
			list = []string{}
		}
		return render(cmd.OutOrStdout(), outputFormat(), list, func(w io.Writer) {
			if len(list) == 0 {
				fmt.Fprintln(w, "No sites blocked.")
				return
			}
			for _, domain := range list {
				fmt.Fprintln(w, domain)
			}
		})
	},
}

func init() {
	blockCmd.AddCommand(blockAddCmd, blockRemoveCmd, blockListCmd)
	rootCmd.AddCommand(blockCmd)
}
