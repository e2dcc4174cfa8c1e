package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/Ramsey-B/iris/pkg/fields"
	"github.com/Ramsey-B/iris/pkg/noise"
	"github.com/spf13/cobra"
)

var sampleRecord = map[string]string{
	fields.Name:    "Ramesh Kumar",
	fields.DOB:     "19-04-2001",
	fields.Phone:   "9876543210",
	fields.Address: "B12/3 Gandhi Street MG Road",
	fields.Gender:  "male",
}

func newNoiseCommand() *cobra.Command {
	var (
		seed     int64
		file     string
		typoRate float64
		swapRate float64
	)

	cmd := &cobra.Command{
		Use:   "noise",
		Short: "Print a record before and after OCR-style noise",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			clean := sampleRecord
			if file != "" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				if clean, err = readRecord(f); err != nil {
					return err
				}
			}

			g := noise.NewGenerator(seed)
			g.TypoRate = typoRate
			g.SwapRate = swapRate

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]map[string]string{
				"clean": clean,
				"noisy": g.Record(clean),
			})
		},
	}
	cmd.Flags().Int64Var(&seed, "seed", 1, "random seed")
	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON object of field values (default: built-in sample)")
	cmd.Flags().Float64Var(&typoRate, "typo-rate", noise.DefaultTypoRate, "per-letter typo probability")
	cmd.Flags().Float64Var(&swapRate, "swap-rate", noise.DefaultSwapRate, "adjacent token swap probability")
	return cmd
}

func readRecord(r io.Reader) (map[string]string, error) {
	var record map[string]string
	if err := json.NewDecoder(r).Decode(&record); err != nil {
		return nil, fmt.Errorf("record must be a JSON object of strings: %w", err)
	}
	return fields.CanonicalizeRecord(record), nil
}
