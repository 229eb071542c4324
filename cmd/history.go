package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/m72elite/m72/pkg/daystore"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent days against the calorie goal, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		days, _ := cmd.Flags().GetInt("days")
		if days <= 0 {
			return fmt.Errorf("--days must be positive")
		}

		sess, err := openSession(cmd, false)
		if err != nil {
			return err
		}
		defer sess.Close()

		today := sess.store.Today()
		goal := sess.store.Settings().CalorieGoal
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, " \tDATE\tDAY\tNET\tSTATUS\t(goal %.0f kcal)\n", goal)
		for _, h := range sess.store.History(today, days) {
			sel := " "
			if h.Selected {
				sel = ">"
			}
			net := "-"
			if h.Status != daystore.StatusEmpty {
				net = formatKcal(h.NetKcal)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n", sel, h.Date, h.Date.Format("Mon"), net, statusMark(h.Status))
		}
		w.Flush()
		return nil
	},
}

func statusMark(s daystore.DayStatus) string {
	switch s {
	case daystore.StatusGood:
		return "on target"
	case daystore.StatusBad:
		return "over"
	}
	return ""
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("days", "n", 14, "Number of days to show")
}
