package arg

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/SoarinFerret/FocusWarden/internal/history"
	"github.com/SoarinFerret/FocusWarden/internal/session"
)

var statsDays int

type statsRow struct {
	Mode           session.Mode `json:"mode" yaml:"mode"`
	Count          int          `json:"count" yaml:"count"`
	RunningSeconds int64        `json:"running_seconds" yaml:"running_seconds"`
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize completed phases from the history",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := history.Open(historyPath())
		if err != nil {
			return err
		}
		defer db.Close()

		since := startOfDay(time.Now()).AddDate(0, 0, -(statsDays - 1))
		ctx, cancel := callContext(cmd)
		defer cancel()
		sum, err := db.Summary(ctx, since)
		if err != nil {
			return err
		}
		return printStats(cmd.OutOrStdout(), outputFormat(), statsRows(sum), since)
	},
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func statsRows(sum map[session.Mode]history.Totals) []statsRow {
	rows := make([]statsRow, 0, len(session.Modes))
	for _, m := range session.Modes {
		t := sum[m]
		rows = append(rows, statsRow{Mode: m, Count: t.Count, RunningSeconds: t.RunningSeconds})
	}
	return rows
}

func printStats(w io.Writer, format string, rows []statsRow, since time.Time) error {
	return render(w, format, rows, func(w io.Writer) {
		fmt.Fprintf(w, "Since %s\n", since.Format("2006-01-02"))
		for _, r := range rows {
			fmt.Fprintf(w, "%-12s %3d  %s\n", r.Mode.Label()+":", r.Count, session.FormatMinutes(r.RunningSeconds))
		}
	})
}

func init() {
	statsCmd.Flags().IntVar(&statsDays, "days", 1, "number of days to include, counting today")
	rootCmd.AddCommand(statsCmd)
}
