package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/m72elite/m72/internal/utils"
	"github.com/m72elite/m72/pkg/calendar"
	"github.com/m72elite/m72/pkg/daystore"
	"github.com/spf13/cobra"
)

var trendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Show calorie and macro trends per day, ISO week or month",
	Long: `Show calorie and macro trends for the last --days days ending today.
Days without any record count as zero. Weekly and monthly rows show the mean
per day of the group. With --logged-only, days that were never opened are left
out instead.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rawMode, _ := cmd.Flags().GetString("mode")
		days, _ := cmd.Flags().GetInt("days")
		loggedOnly, _ := cmd.Flags().GetBool("logged-only")

		mode, err := daystore.ParseMode(rawMode)
		if err != nil {
			return err
		}
		if days <= 0 {
			return fmt.Errorf("--days must be positive")
		}

		sess, err := openSession(cmd, false)
		if err != nil {
			return err
		}
		defer sess.Close()

		today := sess.store.Today()
		var points []daystore.PeriodTotals
		if loggedOnly {
			points, err = sess.store.AggregateRange(mode, calendar.Window(today, days))
		} else {
			points, err = sess.store.AggregateWindow(mode, today, days)
		}
		if err != nil {
			return err
		}
		if len(points) == 0 {
			fmt.Println("No data in range.")
			return nil
		}

		goal := sess.store.Settings().CalorieGoal
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "PERIOD\tDAYS\tEATEN\tBURNED\tNET\tVS GOAL\tPROTEIN\tCARBS\tFAT\t")
		for _, p := range points {
			fmt.Fprintf(w, "%s\t%d\t%.0f\t%.0f\t%.0f\t%+.0f\t%g\t%g\t%g\t\n",
				p.Label, p.Days, p.EatenKcal, p.BurnKcal, p.NetKcal, p.NetKcal-goal,
				utils.Round1(p.Protein), utils.Round1(p.Carb), utils.Round1(p.Fat))
		}
		w.Flush()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(trendCmd)
	trendCmd.Flags().StringP("mode", "m", "daily", "Grouping: daily, weekly or monthly")
	trendCmd.Flags().IntP("days", "n", 7, "Number of days to include, ending today")
	trendCmd.Flags().Bool("logged-only", false, "Skip days that have no record instead of counting them as zero")
}
