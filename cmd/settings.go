package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change goals, macro targets and sync settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession(cmd, false)
		if err != nil {
			return err
		}
		defer sess.Close()

		st := sess.store.Settings()
		fmt.Printf("Calorie goal:  %.0f kcal\n", st.CalorieGoal)
		fmt.Printf("Protein:       %g g\n", st.ProteinTarget)
		fmt.Printf("Carbs:         %g g\n", st.CarbTarget)
		fmt.Printf("Fat:           %g g\n", st.FatTarget)
		if st.SyncURL == "" {
			fmt.Println("Sync:          off")
		} else {
			token := "none"
			if st.SyncToken != "" {
				token = "set"
			}
			fmt.Printf("Sync:          %s (token %s)\n", st.SyncURL, token)
		}
		fmt.Printf("Active meal:   %s\n", sess.store.ActiveMeal())
		fmt.Printf("Selected day:  %s\n", sess.store.SelectedDate())
		fmt.Printf("Database:      %s\n", sess.path)
		return nil
	},
}

var settingsGoalCmd = &cobra.Command{
	Use:   "goal <kcal>",
	Short: "Set the daily calorie goal (kept within 800-5000)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kcal, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("invalid kcal %q", args[0])
		}

		sess, err := openSession(cmd, true)
		if err != nil {
			return err
		}
		defer sess.Close()

		stored, err := sess.store.SetCalorieGoal(sess.ctx, kcal)
		if err != nil {
			return err
		}
		if stored != kcal {
			fmt.Printf("Calorie goal clamped to %.0f kcal\n", stored)
			return nil
		}
		fmt.Printf("Calorie goal set to %.0f kcal\n", stored)
		return nil
	},
}

var settingsMacrosCmd = &cobra.Command{
	Use:   "macros <protein> <carb> <fat>",
	Short: "Set the daily macro targets in grams",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		var v [3]float64
		for i, a := range args {
			f, err := strconv.ParseFloat(a, 64)
			if err != nil {
				return fmt.Errorf("invalid grams %q", a)
			}
			v[i] = f
		}

		sess, err := openSession(cmd, true)
		if err != nil {
			return err
		}
		defer sess.Close()

		st, err := sess.store.SetMacroTargets(sess.ctx, v[0], v[1], v[2])
		if err != nil {
			return err
		}
		fmt.Printf("Targets: protein %g g, carbs %g g, fat %g g\n", st.ProteinTarget, st.CarbTarget, st.FatTarget)
		return nil
	},
}

var settingsSyncCmd = &cobra.Command{
	Use:   "sync [url] [token]",
	Short: "Set the webhook URL and token (no arguments or --off disables sync)",
	Args:  cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var url, token string
		if off, _ := cmd.Flags().GetBool("off"); !off {
			if len(args) > 0 {
				url = args[0]
			}
			if len(args) > 1 {
				token = args[1]
			}
		}

		sess, err := openSession(cmd, true)
		if err != nil {
			return err
		}
		defer sess.Close()

		if err := sess.store.SetSync(sess.ctx, url, token); err != nil {
			return err
		}
		if url == "" {
			fmt.Println("Sync disabled")
			return nil
		}
		fmt.Printf("Sync target set to %s\n", url)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsGoalCmd)
	settingsCmd.AddCommand(settingsMacrosCmd)
	settingsCmd.AddCommand(settingsSyncCmd)

	settingsSyncCmd.Flags().Bool("off", false, "Disable sync")
}
