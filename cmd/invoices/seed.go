package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/stormkeep/invoices/internal/services"
)

var seedDemo bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the default company profile (and optional demo data)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := bootstrap(true)
		if err != nil {
			return err
		}
		defer rt.close()

		company, err := services.NewCompanyService(rt.db).EnsureDefault(cmd.Context())
		if err != nil {
			return err
		}
		rt.log.Info().Uint("company_id", company.ID).Str("name", company.Name).Msg("company profile ready")

		if seedDemo {
			return seedDemoData(cmd.Context(), rt.db)
		}
		return nil
	},
}

func init() {
	seedCmd.Flags().BoolVar(&seedDemo, "demo", false, "also create a demo recipient and invoice")
	rootCmd.AddCommand(seedCmd)
}

// seedDemoData adds one recipient and one invoice unless the recipient already exists.
func seedDemoData(ctx context.Context, conn *gorm.DB) error {
	recipients := services.NewRecipientService(conn)
	r, err := recipients.Create(ctx, services.RecipientInput{
		ClientName:   "Acme Co",
		AddressLine1: "1 Industrial Way",
		City:         "Springfield",
		State:        "IL",
		ZipCode:      "62701",
		Email:        "billing@acme.example",
		Phone:        "555-0142",
	})
	if errors.Is(err, services.ErrUniqueness) {
		return nil
	}
	if err != nil {
		return err
	}
	_, err = services.NewInvoiceService(conn).Create(ctx, services.InvoiceInput{
		RecipientID: r.ID,
		DateCreated: "2024-03-01",
		DateDue:     "2024-03-31",
		LineItems: []services.LineItemInput{
			{Description: "Widget", Quantity: "2", UnitPrice: "10.00"},
			{Description: "Install", Quantity: "1", UnitPrice: "25.00"},
		},
	})
	return err
}
