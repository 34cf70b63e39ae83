package models

import (
	"fmt"
	"strings"
	"time"
)

// InvoiceStatus represents the payment status of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusOutstanding InvoiceStatus = "OUTSTANDING"
	InvoiceStatusPaid        InvoiceStatus = "PAID"
)

// ParseInvoiceStatus accepts the canonical status names, case-insensitively.
func ParseInvoiceStatus(s string) (InvoiceStatus, error) {
	switch st := InvoiceStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case InvoiceStatusOutstanding, InvoiceStatusPaid:
		return st, nil
	}
	return "", fmt.Errorf("unknown invoice status %q", s)
}

// IsPaid returns true if the invoice has been settled.
func (s InvoiceStatus) IsPaid() bool { return s == InvoiceStatusPaid }

// DateLayout is the calendar date format used for invoice dates in forms and documents.
const DateLayout = "2006-01-02"

// Invoice represents a billing invoice addressed to a single recipient.
type Invoice struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Assigned once on creation, never reused.
	Number string `gorm:"column:invoice_number;size:50;not null;uniqueIndex" json:"invoice_number"`

	RecipientID uint       `gorm:"index;not null" json:"recipient_id"`
	Recipient   *Recipient `gorm:"foreignKey:RecipientID;constraint:OnDelete:RESTRICT" json:"recipient,omitempty"`

	DateCreated time.Time  `gorm:"not null;index" json:"date_created"`
	DateDue     *time.Time `json:"date_due,omitempty"`

	Status InvoiceStatus `gorm:"size:20;not null;default:'OUTSTANDING'" json:"status"`

	// Sum of LineItems totals as of the last save.
	TotalDue float64 `gorm:"not null;default:0" json:"total_due"`

	LineItems []LineItem `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"line_items,omitempty"`
}

// SumLineItems adds up the stored line totals.
func (i *Invoice) SumLineItems() float64 {
	var total float64
	for _, item := range i.LineItems {
		total += item.Total
	}
	return total
}

// IsOverdue reports whether an outstanding invoice is past its due date at the given time.
func (i *Invoice) IsOverdue(now time.Time) bool {
	if i.Status.IsPaid() || i.DateDue == nil {
		return false
	}
	return now.After(i.DateDue.AddDate(0, 0, 1))
}

// LineItem represents one billable row on an invoice.
type LineItem struct {
	ID uint `gorm:"primaryKey" json:"id"`

	InvoiceID uint `gorm:"index;not null" json:"invoice_id"`

	Description string  `gorm:"size:500;not null" json:"description"`
	Quantity    float64 `gorm:"not null" json:"quantity"`
	UnitPrice   float64 `gorm:"not null" json:"unit_price"`
	// Quantity * UnitPrice, stored as computed at save time.
	Total float64 `gorm:"not null" json:"total"`
}

// ComputeTotal returns Quantity * UnitPrice without rounding.
func (item *LineItem) ComputeTotal() float64 {
	return item.Quantity * item.UnitPrice
}
