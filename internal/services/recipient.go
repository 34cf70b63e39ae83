package services

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/stormkeep/invoices/internal/logger"
	"github.com/stormkeep/invoices/internal/models"
	"github.com/stormkeep/invoices/validation"
)

// RecipientInput carries the editable recipient fields.
type RecipientInput struct {
	ClientName   string `json:"client_name" validate:"required,max=100"`
	AddressLine1 string `json:"address_line1" validate:"required,max=100"`
	AddressLine2 string `json:"address_line2" validate:"max=100"`
	City         string `json:"city" validate:"required,max=50"`
	State        string `json:"state" validate:"required,max=50"`
	ZipCode      string `json:"zip_code" validate:"required,max=20"`
	Email        string `json:"email" validate:"required,email,max=100"`
	Phone        string `json:"phone" validate:"required,max=50"`
}

func (in *RecipientInput) trim() {
	for _, p := range []*string{&in.ClientName, &in.AddressLine1, &in.AddressLine2, &in.City, &in.State, &in.ZipCode, &in.Email, &in.Phone} {
		*p = strings.TrimSpace(*p)
	}
}

// apply copies the input onto r field by field.
func (in *RecipientInput) apply(r *models.Recipient) {
	r.ClientName = in.ClientName
	r.AddressLine1 = in.AddressLine1
	r.AddressLine2 = in.AddressLine2
	r.City = in.City
	r.State = in.State
	r.ZipCode = in.ZipCode
	r.Email = in.Email
	r.Phone = in.Phone
}

// RecipientInputFrom returns the input that reproduces r, for pre-filling edit forms.
func RecipientInputFrom(r *models.Recipient) RecipientInput {
	return RecipientInput{
		ClientName:   r.ClientName,
		AddressLine1: r.AddressLine1,
		AddressLine2: r.AddressLine2,
		City:         r.City,
		State:        r.State,
		ZipCode:      r.ZipCode,
		Email:        r.Email,
		Phone:        r.Phone,
	}
}

type RecipientService struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewRecipientService(db *gorm.DB) *RecipientService {
	return &RecipientService{db: db, log: logger.WithComponent("recipients")}
}

// List returns all recipients ordered by name.
func (s *RecipientService) List(ctx context.Context) ([]models.Recipient, error) {
	var out []models.Recipient
	if err := s.db.WithContext(ctx).Order("client_name asc").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *RecipientService) Get(ctx context.Context, id uint) (*models.Recipient, error) {
	var r models.Recipient
	if err := s.db.WithContext(ctx).First(&r, id).Error; err != nil {
		return nil, notFound(err, "recipient", id)
	}
	return &r, nil
}

func (s *RecipientService) Create(ctx context.Context, in RecipientInput) (*models.Recipient, error) {
	in.trim()
	if v := validation.Struct(in); !v.Empty() {
		return nil, &ValidationError{Fields: v}
	}
	var r models.Recipient
	in.apply(&r)
	if err := s.db.WithContext(ctx).Create(&r).Error; err != nil {
		return nil, s.translate(err, in.ClientName)
	}
	s.log.Info().Uint("recipient_id", r.ID).Str("client_name", r.ClientName).Msg("recipient created")
	return &r, nil
}

func (s *RecipientService) Update(ctx context.Context, id uint, in RecipientInput) (*models.Recipient, error) {
	in.trim()
	if v := validation.Struct(in); !v.Empty() {
		return nil, &ValidationError{Fields: v}
	}
	r, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	in.apply(r)
	if err := s.db.WithContext(ctx).Save(r).Error; err != nil {
		return nil, s.translate(err, in.ClientName)
	}
	s.log.Info().Uint("recipient_id", r.ID).Msg("recipient updated")
	return r, nil
}

// Delete removes a recipient that no invoice refers to. Otherwise it returns an
// InUseError and nothing changes.
func (s *RecipientService) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var r models.Recipient
		if err := tx.Select("id").First(&r, id).Error; err != nil {
			return notFound(err, "recipient", id)
		}
		var refs int64
		if err := tx.Model(&models.Invoice{}).Where("recipient_id = ?", id).Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 {
			return &InUseError{Entity: "recipient", ID: id, References: refs}
		}
		if err := tx.Delete(&r).Error; err != nil {
			return err
		}
		s.log.Info().Uint("recipient_id", id).Msg("recipient deleted")
		return nil
	})
}

func (s *RecipientService) translate(err error, name string) error {
	if isUniqueViolation(err) {
		return &UniquenessError{Entity: "recipient", Field: "client_name", Value: name}
	}
	return err
}
