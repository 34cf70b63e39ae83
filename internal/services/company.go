package services

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/stormkeep/invoices/internal/logger"
	"github.com/stormkeep/invoices/internal/models"
	"github.com/stormkeep/invoices/validation"
)

// CompanyInput carries the editable company settings.
type CompanyInput struct {
	Name         string `json:"name" validate:"required,max=100"`
	AddressLine1 string `json:"address_line1" validate:"required,max=100"`
	AddressLine2 string `json:"address_line2" validate:"max=100"`
	City         string `json:"city" validate:"required,max=50"`
	State        string `json:"state" validate:"required,max=50"`
	ZipCode      string `json:"zip_code" validate:"required,max=20"`
	Email        string `json:"email" validate:"required,email,max=100"`
	Phone        string `json:"phone" validate:"required,max=50"`
}

// DefaultCompany is the profile seeded on first start.
var DefaultCompany = CompanyInput{
	Name:         "StormKeep Inc.",
	AddressLine1: "123 Corporate Blvd",
	AddressLine2: "Suite 400",
	City:         "Capital City",
	State:        "ST",
	ZipCode:      "12345",
	Email:        "info@stormkeep.com",
	Phone:        "555-123-4567",
}

func (in *CompanyInput) apply(c *models.CompanySettings) {
	c.Name = strings.TrimSpace(in.Name)
	c.AddressLine1 = strings.TrimSpace(in.AddressLine1)
	c.AddressLine2 = strings.TrimSpace(in.AddressLine2)
	c.City = strings.TrimSpace(in.City)
	c.State = strings.TrimSpace(in.State)
	c.ZipCode = strings.TrimSpace(in.ZipCode)
	c.Email = strings.TrimSpace(in.Email)
	c.Phone = strings.TrimSpace(in.Phone)
}

// CompanyInputFrom returns the input that reproduces c, for pre-filling the settings form.
func CompanyInputFrom(c *models.CompanySettings) CompanyInput {
	if c == nil {
		return CompanyInput{}
	}
	return CompanyInput{
		Name:         c.Name,
		AddressLine1: c.AddressLine1,
		AddressLine2: c.AddressLine2,
		City:         c.City,
		State:        c.State,
		ZipCode:      c.ZipCode,
		Email:        c.Email,
		Phone:        c.Phone,
	}
}

// CompanyService owns the single company profile.
type CompanyService struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewCompanyService(db *gorm.DB) *CompanyService {
	return &CompanyService{db: db, log: logger.WithComponent("company")}
}

// Get returns the active profile (lowest id) or nil, nil when none exists yet.
func (s *CompanyService) Get(ctx context.Context) (*models.CompanySettings, error) {
	var c models.CompanySettings
	err := s.db.WithContext(ctx).Order("id").First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// EnsureDefault returns the active profile, creating it from DefaultCompany when absent.
func (s *CompanyService) EnsureDefault(ctx context.Context) (*models.CompanySettings, error) {
	var c *models.CompanySettings
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		scoped := &CompanyService{db: tx, log: s.log}
		existing, err := scoped.Get(ctx)
		if err != nil {
			return err
		}
		if existing != nil {
			c = existing
			return nil
		}
		c = &models.CompanySettings{}
		DefaultCompany.apply(c)
		return tx.Create(c).Error
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Update validates in and writes it onto the active profile, creating one if needed.
func (s *CompanyService) Update(ctx context.Context, in CompanyInput) (*models.CompanySettings, error) {
	if v := validation.Struct(in); !v.Empty() {
		return nil, &ValidationError{Fields: v}
	}
	c, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	if c == nil {
		c = &models.CompanySettings{}
	}
	in.apply(c)
	if err := s.db.WithContext(ctx).Save(c).Error; err != nil {
		return nil, err
	}
	s.log.Info().Uint("company_id", c.ID).Msg("company settings updated")
	return c, nil
}

// Exists reports whether a profile has been configured.
func (s *CompanyService) Exists(ctx context.Context) (bool, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.CompanySettings{}).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}
