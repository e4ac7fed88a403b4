package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/claude/workoutlog/internal/models"
	"github.com/spf13/cobra"
)

var (
	exportFormat string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the completed workouts as JSON or TOML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportFormat != "json" && exportFormat != "toml" {
			return fmt.Errorf("unknown format %q (want json or toml)", exportFormat)
		}
		return withApp(cmd, func(a *app) (err error) {
			out := cmd.OutOrStdout()
			if exportOutput != "" {
				f, err := os.Create(exportOutput)
				if err != nil {
					return err
				}
				defer func() {
					if cerr := f.Close(); err == nil {
						err = cerr
					}
				}()
				out = f
			}
			return writeExport(out, exportFormat, models.Completed(a.repo.History()))
		})
	},
}

// writeExport encodes workouts as {"workouts": [...]}. TOML output goes through
// the JSON form so exercises keep their "type" tag.
func writeExport(w io.Writer, format string, workouts []models.Workout) error {
	if workouts == nil {
		workouts = []models.Workout{}
	}
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"workouts": workouts})
	case "toml":
		raw, err := json.Marshal(workouts)
		if err != nil {
			return err
		}
		var generic []map[string]any
		if err := json.Unmarshal(raw, &generic); err != nil {
			return err
		}
		return toml.NewEncoder(w).Encode(map[string]any{"workouts": generic})
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "json or toml")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "file to write (default stdout)")
	rootCmd.AddCommand(exportCmd)
}
