package arg

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Show the blocking rules currently applied",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, client, err := connect()
		if err != nil {
			return err
		}
		defer conn.Close()

		ctx, cancel := callContext(cmd)
		defer cancel()
		rules, err := client.Rules(ctx)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), outputFormat(), rules, func(w io.Writer) {
			if len(rules) == 0 {
				fmt.Fprintln(w, "No rules applied.")
				return
			}
			for _, r := range rules {
				fmt.Fprintf(w, "%3d  %-40s -> %s\n", r.ID, r.Condition.URLFilter, r.Action.Redirect.URL)
			}
		})
	},
}

func init() {
	rootCmd.AddCommand(rulesCmd)
}
