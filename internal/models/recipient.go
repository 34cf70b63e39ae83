package models

import (
	"strings"
	"time"
)

// Recipient is a client invoices are addressed to.
type Recipient struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ClientName   string `gorm:"size:100;not null;uniqueIndex" json:"client_name"`
	AddressLine1 string `gorm:"size:100" json:"address_line1,omitempty"`
	AddressLine2 string `gorm:"size:100" json:"address_line2,omitempty"`
	City         string `gorm:"size:50" json:"city,omitempty"`
	State        string `gorm:"size:50" json:"state,omitempty"`
	ZipCode      string `gorm:"size:20" json:"zip_code,omitempty"`
	Email        string `gorm:"size:100" json:"email,omitempty"`
	Phone        string `gorm:"size:50" json:"phone,omitempty"`
}

// AddressLines returns the non-empty postal address lines in print order.
func (r *Recipient) AddressLines() []string {
	if r == nil {
		return nil
	}
	return addressLines(r.AddressLine1, r.AddressLine2, r.City, r.State, r.ZipCode)
}

// FullAddress returns the address as a multi-line string.
func (r *Recipient) FullAddress() string {
	return strings.Join(r.AddressLines(), "\n")
}
