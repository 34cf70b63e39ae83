// Package render turns a stored invoice into a printable HTML or PDF document.
package render

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/stormkeep/invoices/internal/models"
)

// View is the deterministic, preformatted input shared by both document forms.
type View struct {
	Number      string
	DateCreated string
	DateDue     string
	Status      string
	Company     Party
	Recipient   Party
	Items       []LineView
	Total       string
	// Stamped into document metadata; taken from the invoice so equal snapshots render equally.
	Generated time.Time
}

// Party is a name and address block; every field may be blank.
type Party struct {
	Name    string
	Address []string
	Email   string
	Phone   string
}

// Blank reports whether there is nothing to print for the party.
func (p Party) Blank() bool {
	return p.Name == "" && len(p.Address) == 0 && p.Email == "" && p.Phone == ""
}

type LineView struct {
	Description string
	Quantity    string
	UnitPrice   string
	Total       string
}

// Money formats an amount with exactly two decimals, rounding half away from zero.
func Money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// Quantity formats a quantity in its shortest exact decimal form ("2", "1.5").
func Quantity(v float64) string {
	return decimal.NewFromFloat(v).String()
}

// NewView projects inv and company onto a View. company may be nil, which
// leaves the company block blank. inv.Recipient and inv.LineItems must be loaded.
func NewView(inv *models.Invoice, company *models.CompanySettings) View {
	v := View{
		Number:      inv.Number,
		DateCreated: inv.DateCreated.Format(models.DateLayout),
		Status:      string(inv.Status),
		Total:       Money(inv.TotalDue),
		Generated:   inv.UpdatedAt.UTC(),
	}
	if inv.DateDue != nil {
		v.DateDue = inv.DateDue.Format(models.DateLayout)
	}
	if company != nil {
		v.Company = Party{
			Name:    company.Name,
			Address: company.AddressLines(),
			Email:   company.Email,
			Phone:   company.Phone,
		}
	}
	if r := inv.Recipient; r != nil {
		v.Recipient = Party{
			Name:    r.ClientName,
			Address: r.AddressLines(),
			Email:   r.Email,
			Phone:   r.Phone,
		}
	}
	v.Items = make([]LineView, 0, len(inv.LineItems))
	for _, it := range inv.LineItems {
		v.Items = append(v.Items, LineView{
			Description: it.Description,
			Quantity:    Quantity(it.Quantity),
			UnitPrice:   Money(it.UnitPrice),
			Total:       Money(it.Total),
		})
	}
	return v
}
