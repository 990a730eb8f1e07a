package arg

import (
	"github.com/spf13/cobra"

	"github.com/SoarinFerret/FocusWarden/internal/session"
)

var startSeconds int

var startCmd = &cobra.Command{
	Use:     "start [focus|short_break|long_break]",
	Aliases: []string{"resume"},
	Short:   "Start or resume the timer",
	Long: `Start the timer. With a mode the timer switches to that mode first; with
--seconds the remaining time is overridden. Starting a running timer does nothing.
Examples:
  fwctl start
  fwctl start short
  fwctl start focus --seconds 600`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var mode session.Mode
		if len(args) == 1 {
			m, err := session.ParseMode(args[0])
			if err != nil {
				return err
			}
			mode = m
		}

		conn, client, err := connect()
		if err != nil {
			return err
		}
		defer conn.Close()

		ctx, cancel := callContext(cmd)
		defer cancel()
		st, err := client.Start(ctx, mode, startSeconds)
		if err != nil {
			return err
		}
		return printStatus(cmd.OutOrStdout(), outputFormat(), st)
	},
}

func init() {
	startCmd.Flags().IntVar(&startSeconds, "seconds", 0, "override the remaining time in seconds")
	rootCmd.AddCommand(startCmd)
}
