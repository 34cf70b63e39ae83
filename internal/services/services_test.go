package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/stormkeep/invoices/internal/db"
	"github.com/stormkeep/invoices/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", name)
	conn, err := gorm.Open(sqlite.Open(dsn), db.GormConfig(zerolog.Nop(), false))
	require.NoError(t, err, "open db")
	require.NoError(t, db.AutoMigrate(conn), "migrate")
	return conn
}

func seedRecipient(t *testing.T, conn *gorm.DB, name string) *models.Recipient {
	t.Helper()
	r, err := NewRecipientService(conn).Create(context.Background(), recipientInput(name))
	require.NoError(t, err)
	return r
}

// recipientInput returns a complete, valid recipient named name.
func recipientInput(name string) RecipientInput {
	return RecipientInput{
		ClientName:   name,
		AddressLine1: "1 Industrial Way",
		City:         "Springfield",
		State:        "IL",
		ZipCode:      "62701",
		Email:        "billing@example.com",
		Phone:        "555-0100",
	}
}

func items(descs ...LineItemInput) []LineItemInput { return descs }

func item(desc, qty, price string) LineItemInput {
	return LineItemInput{Description: desc, Quantity: Numeric(qty), UnitPrice: Numeric(price)}
}

func invoiceInput(recipientID uint, lines ...LineItemInput) InvoiceInput {
	return InvoiceInput{RecipientID: recipientID, DateCreated: "2024-03-01", Status: "OUTSTANDING", LineItems: lines}
}
