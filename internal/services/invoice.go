package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stormkeep/invoices/internal/logger"
	"github.com/stormkeep/invoices/internal/models"
	"github.com/stormkeep/invoices/validation"
)

// InvoiceInput is a validated create or edit submission.
type InvoiceInput struct {
	RecipientID uint            `json:"recipient_id" validate:"required"`
	DateCreated string          `json:"date_created" validate:"required"`
	DateDue     string          `json:"date_due"`
	Status      string          `json:"status" validate:"omitempty,oneof=OUTSTANDING PAID"`
	LineItems   []LineItemInput `json:"line_items" validate:"dive"`
}

// ListOptions narrows InvoiceService.List.
type ListOptions struct {
	Status      models.InvoiceStatus
	RecipientID uint
}

type InvoiceService struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewInvoiceService(db *gorm.DB) *InvoiceService {
	return &InvoiceService{db: db, log: logger.WithComponent("invoices")}
}

// invoiceFields is InvoiceInput after parsing, ready to copy onto an entity.
type invoiceFields struct {
	recipientID uint
	dateCreated time.Time
	dateDue     *time.Time
	status      models.InvoiceStatus
	items       []models.LineItem
	total       float64
}

func (f *invoiceFields) apply(inv *models.Invoice) {
	inv.RecipientID = f.recipientID
	inv.DateCreated = f.dateCreated
	inv.DateDue = f.dateDue
	inv.Status = f.status
	inv.TotalDue = f.total
}

// prepare validates in, resolves the recipient and converts the line items.
func (s *InvoiceService) prepare(ctx context.Context, in InvoiceInput) (*invoiceFields, error) {
	lines := make([]LineItemInput, len(in.LineItems))
	for i, li := range in.LineItems {
		li.Description = strings.TrimSpace(li.Description)
		lines[i] = li
	}
	in.LineItems = lines
	v := validation.Struct(in)
	in.Status = strings.ToUpper(strings.TrimSpace(in.Status))

	f := &invoiceFields{recipientID: in.RecipientID, status: models.InvoiceStatusOutstanding}
	if in.Status != "" {
		if st, err := models.ParseInvoiceStatus(in.Status); err == nil {
			f.status = st
			delete(v, "status")
		}
	}
	if in.DateCreated != "" {
		d, err := time.Parse(models.DateLayout, strings.TrimSpace(in.DateCreated))
		if err != nil {
			v.Add("date_created", "invalid_date")
		}
		f.dateCreated = d
	}
	if strings.TrimSpace(in.DateDue) != "" {
		d, err := time.Parse(models.DateLayout, strings.TrimSpace(in.DateDue))
		if err != nil {
			v.Add("date_due", "invalid_date")
		} else {
			f.dateDue = &d
		}
	}
	if in.RecipientID != 0 {
		var n int64
		if err := s.db.WithContext(ctx).Model(&models.Recipient{}).Where("id = ?", in.RecipientID).Count(&n).Error; err != nil {
			return nil, err
		}
		if n == 0 {
			v.Add("recipient_id", "unknown_recipient")
		}
	}
	if !v.Empty() {
		return nil, &ValidationError{Fields: v}
	}

	items, total, err := BuildLineItems(in.LineItems)
	if err != nil {
		return nil, err
	}
	f.items, f.total = items, total
	return f, nil
}

// List returns invoices newest first with their recipient.
func (s *InvoiceService) List(ctx context.Context, opts ListOptions) ([]models.Invoice, error) {
	q := s.db.WithContext(ctx).Preload("Recipient")
	if opts.Status != "" {
		q = q.Where("status = ?", opts.Status)
	}
	if opts.RecipientID != 0 {
		q = q.Where("recipient_id = ?", opts.RecipientID)
	}
	var invs []models.Invoice
	if err := q.Order("date_created desc").Order("id desc").Find(&invs).Error; err != nil {
		return nil, err
	}
	return invs, nil
}

// Get loads an invoice with its recipient and line items in entry order.
func (s *InvoiceService) Get(ctx context.Context, id uint) (*models.Invoice, error) {
	var inv models.Invoice
	err := s.db.WithContext(ctx).
		Preload("Recipient").
		Preload("LineItems", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&inv, id).Error
	if err != nil {
		return nil, notFound(err, "invoice", id)
	}
	return &inv, nil
}

// Create numbers and stores a new invoice together with its line items.
// A lost race for the number is retried with a fresh one.
func (s *InvoiceService) Create(ctx context.Context, in InvoiceInput) (*models.Invoice, error) {
	f, err := s.prepare(ctx, in)
	if err != nil {
		return nil, err
	}

	var inv models.Invoice
	for attempt := 1; attempt <= maxNumberRetries; attempt++ {
		inv = models.Invoice{}
		f.apply(&inv)
		items := append([]models.LineItem(nil), f.items...)

		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			number, err := assignInvoiceNumber(tx)
			if err != nil {
				return err
			}
			inv.Number = number
			if err := tx.Omit(clause.Associations).Create(&inv).Error; err != nil {
				return err
			}
			return replaceLineItems(tx, &inv, items)
		})
		if err == nil {
			s.log.Info().Uint("invoice_id", inv.ID).Str("number", inv.Number).
				Int("line_items", len(inv.LineItems)).Float64("total_due", inv.TotalDue).Msg("invoice created")
			return &inv, nil
		}
		if !isUniqueViolation(err) {
			return nil, err
		}
		s.log.Warn().Str("number", inv.Number).Int("attempt", attempt).Msg("invoice number taken, retrying")
	}
	return nil, &UniquenessError{Entity: "invoice", Field: "invoice_number", Value: inv.Number}
}

// Update replaces the scalar fields and every line item of an existing invoice.
// The invoice number is kept.
func (s *InvoiceService) Update(ctx context.Context, id uint, in InvoiceInput) (*models.Invoice, error) {
	f, err := s.prepare(ctx, in)
	if err != nil {
		return nil, err
	}

	var inv models.Invoice
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx
		if tx.Dialector.Name() == "postgres" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := q.First(&inv, id).Error; err != nil {
			return notFound(err, "invoice", id)
		}
		f.apply(&inv)
		if err := tx.Omit(clause.Associations).Save(&inv).Error; err != nil {
			return err
		}
		return replaceLineItems(tx, &inv, append([]models.LineItem(nil), f.items...))
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Uint("invoice_id", inv.ID).Int("line_items", len(inv.LineItems)).
		Float64("total_due", inv.TotalDue).Msg("invoice updated")
	return &inv, nil
}

// Delete removes an invoice and all of its line items.
func (s *InvoiceService) Delete(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inv models.Invoice
		if err := tx.Select("id").First(&inv, id).Error; err != nil {
			return notFound(err, "invoice", id)
		}
		if err := tx.Where("invoice_id = ?", id).Delete(&models.LineItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&inv).Error
	})
	if err == nil {
		s.log.Info().Uint("invoice_id", id).Msg("invoice deleted")
	}
	return err
}

// SetStatus marks an invoice PAID or OUTSTANDING.
func (s *InvoiceService) SetStatus(ctx context.Context, id uint, status string) (*models.Invoice, error) {
	st, err := models.ParseInvoiceStatus(status)
	if err != nil {
		return nil, &ValidationError{Fields: validation.Violations{"status": "invalid_choice"}}
	}
	res := s.db.WithContext(ctx).Model(&models.Invoice{}).Where("id = ?", id).Update("status", st)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, &NotFoundError{Entity: "invoice", ID: id}
	}
	s.log.Info().Uint("invoice_id", id).Str("status", string(st)).Msg("invoice status changed")
	return s.Get(ctx, id)
}

// IsNotFound reports whether err is, or wraps, a NotFoundError.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
