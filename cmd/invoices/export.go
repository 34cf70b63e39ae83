package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/stormkeep/invoices/internal/render"
	"github.com/stormkeep/invoices/internal/services"
)

var (
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export <invoice-id>",
	Short: "Render an invoice to an HTML or PDF file",
	Example: `  # Write invoice_INV-0001.pdf into the current directory
  invoices export 1

  # HTML into ./out
  invoices export 1 --format html --out out`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil || id == 0 {
			return fmt.Errorf("invalid invoice id %q", args[0])
		}
		format, err := render.ParseFormat(exportFormat)
		if err != nil {
			return err
		}

		rt, err := bootstrap(false)
		if err != nil {
			return err
		}
		defer rt.close()

		invoices := services.NewInvoiceService(rt.db)
		docs := services.NewDocumentService(invoices, services.NewCompanyService(rt.db), render.NewEngine())
		doc, err := docs.Export(cmd.Context(), uint(id), format)
		if err != nil {
			return err
		}

		if err := os.MkdirAll(exportOut, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
		path := filepath.Join(exportOut, doc.Filename)
		if err := os.WriteFile(path, doc.Body, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		rt.log.Info().Str("file", path).Int("bytes", len(doc.Body)).Msg("invoice exported")
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "pdf", "output format: html or pdf")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", ".", "output directory")
	rootCmd.AddCommand(exportCmd)
}
