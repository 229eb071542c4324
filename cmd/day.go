package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/m72elite/m72/internal/utils"
	"github.com/m72elite/m72/pkg/daystore"
	"github.com/spf13/cobra"
)

var dayCmd = &cobra.Command{
	Use:   "day [date]",
	Short: "Show the logs and progress of a day (default: selected day)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession(cmd, false)
		if err != nil {
			return err
		}
		defer sess.Close()

		d := sess.store.SelectedDate()
		if len(args) == 1 {
			if d, err = parseDateArg(args[0], sess.store.Today()); err != nil {
				return err
			}
		}

		rec, _ := sess.store.Lookup(d)
		p := sess.store.Progress(d)
		settings := sess.store.Settings()

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]interface{}{
				"date":     d,
				"record":   rec,
				"progress": p,
			})
		}

		fmt.Printf("%s (%s)\n\n", formatDay(d, sess.store.Today()), d)
		fmt.Printf("Calories  %s / %.0f kcal  (%.0f%%, %.0f left)\n", formatKcal(p.NetKcal), p.Goal, p.Percent, p.Remaining)
		fmt.Printf("          eaten %s, burned %s\n", formatKcal(p.EatenKcal), formatKcal(p.BurnKcal))
		fmt.Printf("Protein   %s\n", macroBar(p.Protein, settings.ProteinTarget))
		fmt.Printf("Carbs     %s\n", macroBar(p.Carb, settings.CarbTarget))
		fmt.Printf("Fat       %s\n", macroBar(p.Fat, settings.FatTarget))
		fmt.Printf("Water     %d x 250 ml (%.2f L)\n\n", p.WaterUnits, p.WaterLitres)

		printLogs(rec.Logs, sess.store.ActiveMeal())
		return nil
	},
}

func formatKcal(v float64) string {
	return fmt.Sprintf("%.0f kcal", v)
}

func macroBar(v, target float64) string {
	const width = 20
	filled := 0
	if target > 0 {
		filled = int(v / target * width)
	}
	filled = max(0, min(width, filled))
	return fmt.Sprintf("[%s%s] %g / %.0f g", strings.Repeat("#", filled), strings.Repeat(".", width-filled), utils.Round1(v), target)
}

func printLogs(logs []daystore.LogEntry, active daystore.Meal) {
	if len(logs) == 0 {
		fmt.Println("Nothing logged yet.")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, meal := range daystore.Meals {
		var entries []daystore.LogEntry
		var kcal float64
		for _, e := range logs {
			if e.Meal == meal {
				entries = append(entries, e)
				kcal += e.Kcal
			}
		}
		if len(entries) == 0 {
			continue
		}
		marker := ""
		if meal == active {
			marker = " *"
		}
		fmt.Fprintf(w, "%s%s\t\t%s\t\t\n", strings.ToUpper(string(meal)), marker, formatKcal(kcal))
		for _, e := range entries {
			fmt.Fprintf(w, "  %s x%g\t%s\t%s\tP%g C%g F%g\t%s\n",
				e.Name, e.Quantity, e.Unit, formatKcal(e.Kcal), utils.Round1(e.Protein), utils.Round1(e.Carb), utils.Round1(e.Fat), shortID(e.ID))
		}
	}
	w.Flush()
}

// shortID trims UUIDs for display; log commands accept any unique prefix.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	rootCmd.AddCommand(dayCmd)
	dayCmd.Flags().Bool("json", false, "Print the day as JSON")
}
