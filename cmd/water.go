package cmd

import (
	"fmt"
	"strconv"

	"github.com/m72elite/m72/pkg/daystore"
	"github.com/spf13/cobra"
)

var waterCmd = &cobra.Command{
	Use:   "water [units]",
	Short: "Add water in 250 ml units (use -- -1 to take one back)",
	Example: `  m72 water          # one glass
  m72 water 2
  m72 water -- -1`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		delta := 1
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid number of units %q", args[0])
			}
			delta = n
		}

		sess, err := openSession(cmd, true)
		if err != nil {
			return err
		}
		defer sess.Close()

		d, err := sess.targetDate(cmd)
		if err != nil {
			return err
		}
		units, err := sess.store.AdjustWater(sess.ctx, d, delta)
		if err != nil {
			return err
		}
		fmt.Printf("Water on %s: %d units (%.2f L)\n", d, units, float64(units)*daystore.WaterUnitLitres)
		return nil
	},
}

var burnCmd = &cobra.Command{
	Use:   "burn <kcal>",
	Short: "Set the exercise burn of a day, or add to it with --add",
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

		d, err := sess.targetDate(cmd)
		if err != nil {
			return err
		}
		var burn float64
		if add, _ := cmd.Flags().GetBool("add"); add {
			burn, err = sess.store.AddBurn(sess.ctx, d, kcal)
		} else {
			burn, err = sess.store.SetBurn(sess.ctx, d, kcal)
		}
		if err != nil {
			return err
		}
		fmt.Printf("Burn on %s: %s\n", d, formatKcal(burn))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(waterCmd)
	rootCmd.AddCommand(burnCmd)
	addDateFlag(waterCmd)
	addDateFlag(burnCmd)
	burnCmd.Flags().BoolP("add", "a", false, "Add to the current burn instead of replacing it")
}
