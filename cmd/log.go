package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/m72elite/m72/pkg/catalog"
	"github.com/m72elite/m72/pkg/daystore"
	"github.com/spf13/cobra"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Add, edit or remove food log entries",
}

var logAddCmd = &cobra.Command{
	Use:   "add <food> [qty]",
	Short: "Log a food by id or by a name that matches exactly one food",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		qty := 1.0
		if len(args) == 2 {
			v, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid quantity %q", args[1])
			}
			qty = v
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
		food, err := resolveFood(sess.store, args[0])
		if err != nil {
			return err
		}
		meal := sess.store.ActiveMeal()
		if raw, _ := cmd.Flags().GetString("meal"); raw != "" {
			if meal, err = daystore.ParseMeal(raw); err != nil {
				return err
			}
		}

		entry, err := sess.store.LogFood(sess.ctx, d, food, qty, meal)
		if err != nil {
			return err
		}
		fmt.Printf("Logged %s x%g (%s) to %s on %s [%s]\n", entry.Name, entry.Quantity, formatKcal(entry.Kcal), entry.Meal, d, shortID(entry.ID))
		return nil
	},
}

var logEditCmd = &cobra.Command{
	Use:   "edit <id> <qty>",
	Short: "Change the quantity of a log entry",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		qty, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid quantity %q", args[1])
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
		rec, _ := sess.store.Lookup(d)
		id, err := resolveLogID(rec.Logs, args[0])
		if err != nil {
			return err
		}
		found, err := sess.store.EditLog(sess.ctx, d, id, qty)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("no log entry %q on %s", args[0], d)
		}
		fmt.Printf("Updated %s on %s\n", shortID(id), d)
		return nil
	},
}

var logRmCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"delete"},
	Short:   "Remove a log entry",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession(cmd, true)
		if err != nil {
			return err
		}
		defer sess.Close()

		d, err := sess.targetDate(cmd)
		if err != nil {
			return err
		}
		rec, _ := sess.store.Lookup(d)
		id, err := resolveLogID(rec.Logs, args[0])
		if err != nil {
			return err
		}
		if err := sess.store.DeleteLog(sess.ctx, d, id); err != nil {
			return err
		}
		fmt.Printf("Removed %s from %s\n", shortID(id), d)
		return nil
	},
}

type foodFinder interface {
	FindFood(id string) (catalog.Food, bool)
	SearchFoods(q string) []catalog.Food
}

// resolveFood finds a food by exact id first, then by a name search that
// must match exactly one food.
func resolveFood(f foodFinder, q string) (catalog.Food, error) {
	if food, ok := f.FindFood(q); ok {
		return food, nil
	}
	matches := f.SearchFoods(q)
	switch len(matches) {
	case 0:
		return catalog.Food{}, fmt.Errorf("no food matches %q (see `m72 foods search`)", q)
	case 1:
		return matches[0], nil
	}
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.ID)
	}
	return catalog.Food{}, fmt.Errorf("%q matches several foods: %s", q, strings.Join(ids, ", "))
}

// resolveLogID expands a unique id prefix to the full entry id.
func resolveLogID(logs []daystore.LogEntry, prefix string) (string, error) {
	var found []string
	for _, e := range logs {
		if e.ID == prefix {
			return e.ID, nil
		}
		if strings.HasPrefix(e.ID, prefix) {
			found = append(found, e.ID)
		}
	}
	switch len(found) {
	case 0:
		return "", fmt.Errorf("no log entry with id %q", prefix)
	case 1:
		return found[0], nil
	}
	return "", fmt.Errorf("id prefix %q is ambiguous", prefix)
}

func init() {
	rootCmd.AddCommand(logCmd)
	logCmd.AddCommand(logAddCmd)
	logCmd.AddCommand(logEditCmd)
	logCmd.AddCommand(logRmCmd)

	for _, c := range []*cobra.Command{logAddCmd, logEditCmd, logRmCmd} {
		addDateFlag(c)
	}
	logAddCmd.Flags().StringP("meal", "m", "", "Meal to log to: Breakfast, Lunch, Snack or Dinner (default: active meal)")
}
