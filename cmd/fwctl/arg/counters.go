package arg

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/SoarinFerret/FocusWarden/internal/session"
)

var resetCounters bool

var countersCmd = &cobra.Command{
	Use:   "counters",
	Short: "Show completed phases per mode",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := openState()
		if err != nil {
			return err
		}
		var s session.Settings
		if resetCounters {
			s, err = mgr.UpdateSettings(func(s *session.Settings) error {
				s.SessionCounters = session.SessionCounters{}
				return nil
			})
		} else {
			s, err = mgr.Settings()
		}
		if err != nil {
			return err
		}
		c := s.SessionCounters
		return render(cmd.OutOrStdout(), outputFormat(), c, func(w io.Writer) {
			for _, m := range session.Modes {
				fmt.Fprintf(w, "%-12s %d\n", m.Label()+":", c.Get(m))
			}
		})
	},
}

func init() {
	countersCmd.Flags().BoolVar(&resetCounters, "reset", false, "set all counters to zero")
	rootCmd.AddCommand(countersCmd)
}
