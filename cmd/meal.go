package cmd

import (
	"fmt"

	"github.com/m72elite/m72/pkg/daystore"
	"github.com/spf13/cobra"
)

var mealCmd = &cobra.Command{
	Use:       "meal [Breakfast|Lunch|Snack|Dinner]",
	Short:     "Show or change the meal new log entries go to",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"Breakfast", "Lunch", "Snack", "Dinner"},
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession(cmd, len(args) == 1)
		if err != nil {
			return err
		}
		defer sess.Close()

		if len(args) == 0 {
			fmt.Println(sess.store.ActiveMeal())
			return nil
		}
		m, err := daystore.ParseMeal(args[0])
		if err != nil {
			return err
		}
		if err := sess.store.SetMeal(sess.ctx, m); err != nil {
			return err
		}
		fmt.Printf("Active meal: %s\n", m)
		return nil
	},
}

var selectCmd = &cobra.Command{
	Use:   "select [date]",
	Short: "Show or change the selected day (YYYY-MM-DD, today, yesterday, +N, -N)",
	Example: `  m72 select yesterday
  m72 select -- -7
  m72 select 2024-03-01`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession(cmd, len(args) == 1)
		if err != nil {
			return err
		}
		defer sess.Close()

		today := sess.store.Today()
		if len(args) == 0 {
			d := sess.store.SelectedDate()
			fmt.Printf("%s (%s)\n", d, formatDay(d, today))
			return nil
		}

		d, err := parseDateArg(args[0], today)
		if err != nil {
			return err
		}
		if err := sess.store.SelectDate(sess.ctx, d); err != nil {
			return err
		}
		fmt.Printf("Selected %s (%s)\n", d, formatDay(d, today))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mealCmd)
	rootCmd.AddCommand(selectCmd)
}
