package arg

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/SoarinFerret/FocusWarden/internal/broadcast"
	"github.com/SoarinFerret/FocusWarden/internal/ipc"
	"github.com/SoarinFerret/FocusWarden/internal/tui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the timer in an interactive view",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, client, err := connect()
		if err != nil {
			return err
		}
		defer conn.Close()

		sub, err := ipc.Subscribe(conn)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		var followErr error
		events := make(chan broadcast.Event, 16)
		go func() {
			defer close(events)
			followErr = sub.Follow(ctx, func(e broadcast.Event) {
				select {
				case events <- e:
				case <-ctx.Done():
				}
			})
		}()

		// followErr is written before events is closed and only read after.
		model := tui.New(client, events).WithStreamErr(func() error { return followErr })
		_, err = tea.NewProgram(model, tea.WithContext(ctx)).Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
