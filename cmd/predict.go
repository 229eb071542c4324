package cmd

import (
	"fmt"

	"github.com/m72elite/m72/pkg/calendar"
	"github.com/m72elite/m72/pkg/daystore"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Project when the target weight will be reached",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		target := viper.GetFloat64("goal.targetweight")
		if cmd.Flags().Changed("target") {
			target, _ = cmd.Flags().GetFloat64("target")
		}
		if target <= 0 {
			return fmt.Errorf("target weight must be positive")
		}

		sess, err := openSession(cmd, false)
		if err != nil {
			return err
		}
		defer sess.Close()

		p := sess.store.PredictGoal(target)
		switch p.Status {
		case daystore.InsufficientData:
			fmt.Printf("Need at least two weight samples to project (have %d).\n", p.Samples)
		case daystore.Reached:
			fmt.Printf("Target of %g kg reached: latest weight is %g kg.\n", target, p.Latest)
		case daystore.Steady:
			fmt.Printf("No downward trend yet (%g kg -> %g kg over %d samples); no projection for %g kg.\n", p.Earliest, p.Latest, p.Samples, target)
		case daystore.Projected:
			d := calendar.MustParse(p.Date)
			fmt.Printf("At %.2f kg per sample you reach %g kg in about %d days, around %s (%s).\n",
				p.Velocity, target, p.DaysAhead, d, d.Format("Mon, Jan 2 2006"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(predictCmd)
	predictCmd.Flags().Float64P("target", "t", daystore.DefaultTargetWeight, "Target weight in kg (default: goal.targetweight from config)")
}
