package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/Ramsey-B/iris/pkg/fields"
	"github.com/Ramsey-B/iris/pkg/verification"
	"github.com/spf13/cobra"
)

// csvFields are the fields compared for every labelled row. Each appears as a
// <field>_ocr and <field>_user column.
var csvFields = []string{fields.Name, fields.DOB, fields.Phone, fields.Address, fields.Gender}

func newVerifyCSVCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify-csv FILE",
		Short: "Verify every row of a labelled CSV and print a decision summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			v, err := root.verifier()
			if err != nil {
				return err
			}
			return verifyCSV(cmd.Context(), v, f, cmd.OutOrStdout())
		},
	}
}

func verifyCSV(ctx context.Context, v *verification.Verifier, in io.Reader, out io.Writer) error {
	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[name] = i
	}

	cell := func(row []string, name string) string {
		if i, ok := columns[name]; ok && i < len(row) {
			return row[i]
		}
		return ""
	}

	writer := csv.NewWriter(out)
	summary := []string{"label", "decision", "overall_confidence"}
	for _, field := range csvFields {
		summary = append(summary, "field_"+field)
	}
	if err := writer.Write(summary); err != nil {
		return err
	}

	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}

		ocr := make(map[string]string, len(csvFields))
		user := make(map[string]string, len(csvFields))
		for _, field := range csvFields {
			ocr[field] = cell(row, field+"_ocr")
			user[field] = cell(row, field+"_user")
		}

		result, err := v.Verify(ctx, ocr, user, verification.Options{})
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}

		record := []string{
			cell(row, "label"),
			string(result.Decision),
			strconv.FormatFloat(result.OverallScore, 'f', 4, 64),
		}
		for _, field := range csvFields {
			score, ok := result.FieldScores[field]
			if !ok {
				record = append(record, "")
				continue
			}
			record = append(record, strconv.FormatFloat(score, 'f', 4, 64))
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
