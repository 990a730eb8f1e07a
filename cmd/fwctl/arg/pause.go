package arg

import (
	"github.com/spf13/cobra"
)

var pauseCmd = &cobra.Command{
	Use:     "pause",
	Aliases: []string{"p"},
	Short:   "Pause the timer",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, client, err := connect()
		if err != nil {
			return err
		}
		defer conn.Close()

		ctx, cancel := callContext(cmd)
		defer cancel()
		st, err := client.Pause(ctx)
		if err != nil {
			return err
		}
		return printStatus(cmd.OutOrStdout(), outputFormat(), st)
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Stop the timer and refill the current mode",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, client, err := connect()
		if err != nil {
			return err
		}
		defer conn.Close()

		ctx, cancel := callContext(cmd)
		defer cancel()
		st, err := client.Reset(ctx)
		if err != nil {
			return err
		}
		return printStatus(cmd.OutOrStdout(), outputFormat(), st)
	},
}

func init() {
	rootCmd.AddCommand(pauseCmd)
	rootCmd.AddCommand(resetCmd)
}
