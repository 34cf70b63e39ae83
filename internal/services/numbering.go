package services

import (
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stormkeep/invoices/internal/models"
)

// InvoiceNumberPrefix precedes the zero-padded sequence value.
const InvoiceNumberPrefix = "INV-"

// maxNumberRetries bounds how often a save is retried after losing a number race.
const maxNumberRetries = 3

// FormatInvoiceNumber renders n as INV-0001; values past 9999 simply widen.
func FormatInvoiceNumber(n int) string {
	return fmt.Sprintf("%s%04d", InvoiceNumberPrefix, n)
}

// ParseInvoiceNumber returns the integer after the first "-" of an invoice number.
func ParseInvoiceNumber(s string) (int, bool) {
	_, suffix, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(suffix)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// NextInvoiceNumber derives the identifier following latest, the number of the most
// recently inserted invoice ("" when there is none). floor is the highest value ever
// issued, so numbers freed by deleting the newest invoice are not handed out again.
// An unparsable latest number counts as zero; the result is never empty.
func NextInvoiceNumber(latest string, floor int) string {
	n, _ := ParseInvoiceNumber(latest)
	if floor > n {
		n = floor
	}
	return FormatInvoiceNumber(n + 1)
}

// assignInvoiceNumber computes the next number inside tx and advances the persisted sequence.
// On postgres the sequence row is locked so concurrent creators queue behind each other;
// the unique index on invoice_number remains the final guard.
func assignInvoiceNumber(tx *gorm.DB) (string, error) {
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Sequence{Name: models.SequenceInvoice}).Error; err != nil {
		return "", fmt.Errorf("ensure invoice sequence: %w", err)
	}

	q := tx
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var seq models.Sequence
	if err := q.Where("name = ?", models.SequenceInvoice).First(&seq).Error; err != nil {
		return "", fmt.Errorf("load invoice sequence: %w", err)
	}

	var latest []models.Invoice
	if err := tx.Select("id", "invoice_number").Order("id desc").Limit(1).Find(&latest).Error; err != nil {
		return "", fmt.Errorf("load latest invoice: %w", err)
	}
	last := ""
	if len(latest) > 0 {
		last = latest[0].Number
	}

	number := NextInvoiceNumber(last, seq.Value)
	value, _ := ParseInvoiceNumber(number)
	if err := tx.Model(&models.Sequence{}).Where("name = ?", models.SequenceInvoice).
		Update("value", value).Error; err != nil {
		return "", fmt.Errorf("advance invoice sequence: %w", err)
	}
	return number, nil
}
