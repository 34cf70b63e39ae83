package services

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/stormkeep/invoices/internal/models"
)

// Numeric is a number as submitted, before conversion. JSON numbers and JSON strings are
// both accepted so that a bad value surfaces as a MalformationError instead of a decode error.
type Numeric string

func (n *Numeric) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = Numeric(s)
		return nil
	}
	if bytes.Equal(b, []byte("null")) {
		*n = ""
		return nil
	}
	*n = Numeric(b)
	return nil
}

// Float parses the value; NaN and infinities are rejected.
func (n Numeric) Float() (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(string(n)), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, strconv.ErrRange
	}
	return f, nil
}

// LineItemInput is one submitted line-item descriptor.
type LineItemInput struct {
	Description string  `json:"description" validate:"max=500"`
	Quantity    Numeric `json:"quantity"`
	UnitPrice   Numeric `json:"unit_price"`
}

// BuildLineItems converts descriptors, in order, into unsaved line items and their sum.
// The first non-numeric quantity or unit price aborts with a MalformationError.
func BuildLineItems(inputs []LineItemInput) ([]models.LineItem, float64, error) {
	items := make([]models.LineItem, 0, len(inputs))
	var sum float64
	for i, in := range inputs {
		qty, err := in.Quantity.Float()
		if err != nil {
			return nil, 0, &MalformationError{Index: i, Field: "quantity", Value: string(in.Quantity), Err: err}
		}
		price, err := in.UnitPrice.Float()
		if err != nil {
			return nil, 0, &MalformationError{Index: i, Field: "unit_price", Value: string(in.UnitPrice), Err: err}
		}
		item := models.LineItem{
			Description: strings.TrimSpace(in.Description),
			Quantity:    qty,
			UnitPrice:   price,
		}
		item.Total = item.ComputeTotal()
		sum += item.Total
		items = append(items, item)
	}
	return items, sum, nil
}

// replaceLineItems discards every stored item of inv and inserts items in order.
// It must run inside the transaction that saves inv.
func replaceLineItems(tx *gorm.DB, inv *models.Invoice, items []models.LineItem) error {
	if err := tx.Where("invoice_id = ?", inv.ID).Delete(&models.LineItem{}).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].ID = 0
		items[i].InvoiceID = inv.ID
	}
	if len(items) > 0 {
		if err := tx.Create(&items).Error; err != nil {
			return err
		}
	}
	inv.LineItems = items
	return nil
}
