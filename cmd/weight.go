package cmd

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var weightCmd = &cobra.Command{
	Use:   "weight <kg>",
	Short: "Record body weight for a day (one sample per day)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kg, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("invalid weight %q", args[0])
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
		if err := sess.store.RecordWeight(sess.ctx, d, kg); err != nil {
			return err
		}
		fmt.Printf("Weight on %s: %g kg\n", d, kg)
		return nil
	},
}

var weightLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List recorded weights, oldest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession(cmd, false)
		if err != nil {
			return err
		}
		defer sess.Close()

		samples := sess.store.Weights()
		if len(samples) == 0 {
			fmt.Println("No weights recorded yet.")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "DATE\tKG\tCHANGE\t")
		for i, s := range samples {
			change := ""
			if i > 0 {
				change = fmt.Sprintf("%+.1f", s.Value-samples[i-1].Value)
			}
			fmt.Fprintf(w, "%s\t%g\t%s\t\n", s.Date, s.Value, change)
		}
		w.Flush()
		return nil
	},
}

var weightRmCmd = &cobra.Command{
	Use:   "rm <date>",
	Short: "Delete the weight sample of a day",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession(cmd, true)
		if err != nil {
			return err
		}
		defer sess.Close()

		d, err := parseDateArg(args[0], sess.store.Today())
		if err != nil {
			return err
		}
		removed, err := sess.store.DeleteWeight(sess.ctx, d)
		if err != nil {
			return err
		}
		if !removed {
			fmt.Printf("No weight recorded on %s\n", d)
			return nil
		}
		fmt.Printf("Removed weight of %s\n", d)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(weightCmd)
	weightCmd.AddCommand(weightLsCmd)
	weightCmd.AddCommand(weightRmCmd)
	addDateFlag(weightCmd)
}
