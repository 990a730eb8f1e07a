package arg

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/SoarinFerret/FocusWarden/internal/session"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the timer state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, client, err := connect()
		if err != nil {
			return err
		}
		defer conn.Close()

		ctx, cancel := callContext(cmd)
		defer cancel()
		st, err := client.State(ctx)
		if err != nil {
			return err
		}
		return printStatus(cmd.OutOrStdout(), outputFormat(), st)
	},
}

func printStatus(w io.Writer, format string, st session.Status) error {
	return render(w, format, st, func(w io.Writer) {
		state := "paused"
		if st.Running {
			state = "running"
		}
		fmt.Fprintf(w, "%s %s (phase %d, %s)\n", st.Mode.Label(), session.FormatClock(st.RemainingSeconds), st.Phase, state)
	})
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
