package models

import (
	"strings"
	"time"
)

// CompanySettings holds the issuing company's details printed on every invoice.
// A single row is expected; see services.CompanyService for the accessor.
type CompanySettings struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name         string `gorm:"size:100;not null" json:"name"`
	AddressLine1 string `gorm:"size:100;not null" json:"address_line1"`
	AddressLine2 string `gorm:"size:100" json:"address_line2,omitempty"`
	City         string `gorm:"size:50;not null" json:"city"`
	State        string `gorm:"size:50;not null" json:"state"`
	ZipCode      string `gorm:"size:20;not null" json:"zip_code"`
	Email        string `gorm:"size:100;not null" json:"email"`
	Phone        string `gorm:"size:50;not null" json:"phone"`
}

// AddressLines returns the non-empty postal address lines in print order.
func (c *CompanySettings) AddressLines() []string {
	if c == nil {
		return nil
	}
	return addressLines(c.AddressLine1, c.AddressLine2, c.City, c.State, c.ZipCode)
}

// addressLines joins city, state and zip the way they are printed on a letter.
func addressLines(line1, line2, city, state, zip string) []string {
	var lines []string
	for _, l := range []string{line1, line2} {
		if s := strings.TrimSpace(l); s != "" {
			lines = append(lines, s)
		}
	}
	locality := strings.TrimSpace(city)
	region := strings.TrimSpace(strings.TrimSpace(state) + " " + strings.TrimSpace(zip))
	switch {
	case locality != "" && region != "":
		lines = append(lines, locality+", "+region)
	case locality != "":
		lines = append(lines, locality)
	case region != "":
		lines = append(lines, region)
	}
	return lines
}
