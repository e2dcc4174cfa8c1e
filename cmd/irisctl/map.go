package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/Ramsey-B/iris/pkg/mapper"
	"github.com/spf13/cobra"
)

func newMapCommand(root *rootOptions) *cobra.Command {
	var file, documentType string

	cmd := &cobra.Command{
		Use:   "map",
		Short: "Print the fields extracted from an OCR transcript as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			docType, err := mapper.ParseDocumentType(documentType)
			if err != nil {
				return err
			}

			var in io.Reader = cmd.InOrStdin()
			if file != "" && file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			raw, err := io.ReadAll(in)
			if err != nil {
				return err
			}

			v, err := root.verifier()
			if err != nil {
				return err
			}

			extracted := v.MapFields(cmd.Context(), string(raw), docType)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"fields":         extracted,
				"missing_fields": docType.MissingFields(extracted),
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "transcript file (default stdin)")
	cmd.Flags().StringVarP(&documentType, "document-type", "t", "", "document type used to filter fields")
	return cmd
}
