package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/m72elite/m72/internal/utils"
	"github.com/m72elite/m72/pkg/catalog"
	"github.com/m72elite/m72/pkg/whttp"
	"github.com/spf13/cobra"
)

var foodsCmd = &cobra.Command{
	Use:   "foods",
	Short: "Browse the food catalog and manage custom foods and favorites",
}

var foodsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all foods, custom ones first (* marks favorites)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession(cmd, false)
		if err != nil {
			return err
		}
		defer sess.Close()

		favOnly, _ := cmd.Flags().GetBool("favorites")
		printFoods(sess.store.Foods(), sess.store.Favorites(), favOnly)
		return nil
	},
}

var foodsSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search foods by name",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession(cmd, false)
		if err != nil {
			return err
		}
		defer sess.Close()

		matches := sess.store.SearchFoods(strings.Join(args, " "))
		if len(matches) == 0 {
			fmt.Println("No foods found.")
			return nil
		}
		printFoods(matches, sess.store.Favorites(), false)
		return nil
	},
}

var foodsAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add or replace a custom food",
	Example: `  m72 foods add "Greek Yogurt" --unit "170 g" --kcal 100 --protein 17 --carb 6 --fat 0.7`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f := catalog.Food{Name: strings.Join(args, " ")}
		f.ID, _ = cmd.Flags().GetString("id")
		f.Unit, _ = cmd.Flags().GetString("unit")
		f.Kcal, _ = cmd.Flags().GetFloat64("kcal")
		f.Protein, _ = cmd.Flags().GetFloat64("protein")
		f.Carb, _ = cmd.Flags().GetFloat64("carb")
		f.Fat, _ = cmd.Flags().GetFloat64("fat")

		sess, err := openSession(cmd, true)
		if err != nil {
			return err
		}
		defer sess.Close()

		saved, err := sess.store.AddCustomFood(sess.ctx, f)
		if err != nil {
			return err
		}
		fmt.Printf("Saved %s as %s\n", saved.Name, saved.ID)
		return nil
	},
}

var foodsRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a custom food (entries already logged are kept)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession(cmd, true)
		if err != nil {
			return err
		}
		defer sess.Close()

		removed, err := sess.store.DeleteCustomFood(sess.ctx, args[0])
		if err != nil {
			return err
		}
		if !removed {
			return fmt.Errorf("no custom food with id %q", args[0])
		}
		fmt.Printf("Removed %s\n", args[0])
		return nil
	},
}

var foodsFavCmd = &cobra.Command{
	Use:   "fav <id>",
	Short: "Toggle a food as favorite",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession(cmd, true)
		if err != nil {
			return err
		}
		defer sess.Close()

		on, err := sess.store.ToggleFavorite(sess.ctx, args[0])
		if err != nil {
			return err
		}
		if on {
			fmt.Printf("%s is now a favorite\n", args[0])
		} else {
			fmt.Printf("%s is no longer a favorite\n", args[0])
		}
		return nil
	},
}

var foodsImportCmd = &cobra.Command{
	Use:   "import <file|url>",
	Short: "Import custom foods from an HTML table (id, name, unit, kcal, protein, carb, fat)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		proxy, _ := cmd.Flags().GetString("proxy")
		src, err := openFoodSource(cmd.Context(), args[0], proxy)
		if err != nil {
			return err
		}
		defer src.Close()

		foods, err := catalog.ParseHTMLTable(src)
		if err != nil {
			return err
		}
		if len(foods) == 0 {
			return fmt.Errorf("no food rows found in %s", args[0])
		}

		if dry, _ := cmd.Flags().GetBool("dry-run"); dry {
			printFoods(foods, nil, false)
			return nil
		}

		sess, err := openSession(cmd, true)
		if err != nil {
			return err
		}
		defer sess.Close()

		for _, f := range foods {
			if _, err := sess.store.AddCustomFood(sess.ctx, f); err != nil {
				utils.Log.Warnf("Skipping %q: %v", f.Name, err)
			}
		}
		fmt.Printf("Imported %d foods\n", len(foods))
		return nil
	},
}

func openFoodSource(ctx context.Context, src, proxy string) (io.ReadCloser, error) {
	if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
		return os.Open(src)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	client, err := whttp.NewClient(proxy, 30*time.Second)
	if err != nil {
		return nil, err
	}
	res, err := whttp.SendHTTPRequest(ctx, &whttp.WHTTPReq{Method: "GET", URL: src}, client)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != 200 {
		return nil, fmt.Errorf("fetching %s: HTTP %d %s", src, res.StatusCode, res.HTTPTitle)
	}
	return io.NopCloser(strings.NewReader(res.BodyString)), nil
}

func printFoods(foods []catalog.Food, favorites []string, favOnly bool) {
	fav := make(map[string]bool, len(favorites))
	for _, id := range favorites {
		fav[id] = true
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, " \tID\tNAME\tUNIT\tKCAL\tP\tC\tF")
	for _, f := range foods {
		if favOnly && !fav[f.ID] {
			continue
		}
		star := " "
		if fav[f.ID] {
			star = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%g\t%g\t%g\t%g\n", star, f.ID, f.Name, f.Unit, f.Kcal, f.Protein, f.Carb, f.Fat)
	}
	w.Flush()
}

func init() {
	rootCmd.AddCommand(foodsCmd)
	foodsCmd.AddCommand(foodsLsCmd)
	foodsCmd.AddCommand(foodsSearchCmd)
	foodsCmd.AddCommand(foodsAddCmd)
	foodsCmd.AddCommand(foodsRmCmd)
	foodsCmd.AddCommand(foodsFavCmd)
	foodsCmd.AddCommand(foodsImportCmd)

	foodsLsCmd.Flags().BoolP("favorites", "f", false, "Only list favorites")

	foodsAddCmd.Flags().String("id", "", "Food id (default: generated)")
	foodsAddCmd.Flags().StringP("unit", "u", "", "Serving label, e.g. \"100 g\"")
	foodsAddCmd.Flags().Float64P("kcal", "k", 0, "Calories per serving")
	foodsAddCmd.Flags().Float64P("protein", "p", 0, "Protein per serving (g)")
	foodsAddCmd.Flags().Float64P("carb", "c", 0, "Carbs per serving (g)")
	foodsAddCmd.Flags().Float64P("fat", "f", 0, "Fat per serving (g)")

	foodsImportCmd.Flags().Bool("dry-run", false, "Print the parsed foods without saving them")
}
