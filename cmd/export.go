package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/m72elite/m72/pkg/daystore"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the whole document as JSON or YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")

		sess, err := openSession(cmd, false)
		if err != nil {
			return err
		}
		defer sess.Close()

		body, err := encodeDocument(sess.store, format)
		if err != nil {
			return err
		}

		var w io.Writer = os.Stdout
		if output != "" && output != "-" {
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}
		_, err = w.Write(body)
		return err
	},
}

func encodeDocument(store *daystore.Store, format string) ([]byte, error) {
	switch format {
	case "json", "":
		raw, err := store.Serialize()
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if err := json.Indent(&buf, raw, "", "  "); err != nil {
			return nil, err
		}
		buf.WriteByte('\n')
		return buf.Bytes(), nil
	case "yaml", "yml":
		var (
			out []byte
			err error
		)
		store.View(func(doc *daystore.Document) {
			out, err = yaml.Marshal(doc)
		})
		return out, err
	}
	return nil, fmt.Errorf("unknown export format %q (want json or yaml)", format)
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all logs, weights, foods and settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return fmt.Errorf("this deletes everything in the slot; run again with --yes (consider `m72 export` first)")
		}

		sess, err := openSession(cmd, true)
		if err != nil {
			return err
		}
		defer sess.Close()

		if err := sess.store.ClearAll(sess.ctx); err != nil {
			return err
		}
		fmt.Println("All data cleared.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(resetCmd)

	exportCmd.Flags().StringP("format", "f", "json", "Output format: json or yaml")
	exportCmd.Flags().StringP("output", "o", "", "Write to a file instead of stdout")
	resetCmd.Flags().Bool("yes", false, "Confirm the reset")
}
