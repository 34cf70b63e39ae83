package services

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/stormkeep/invoices/internal/logger"
	"github.com/stormkeep/invoices/internal/render"
)

// DocumentService exports stored invoices as HTML or PDF documents.
type DocumentService struct {
	invoices *InvoiceService
	company  *CompanyService
	renderer render.Renderer
	log      zerolog.Logger
}

func NewDocumentService(invoices *InvoiceService, company *CompanyService, renderer render.Renderer) *DocumentService {
	return &DocumentService{invoices: invoices, company: company, renderer: renderer, log: logger.WithComponent("documents")}
}

// Export renders invoice id in format f. A missing company profile yields a blank company block.
func (s *DocumentService) Export(ctx context.Context, id uint, f render.Format) (*render.Document, error) {
	inv, err := s.invoices.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	company, err := s.company.Get(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := render.Render(s.renderer, render.NewView(inv, company), f)
	if err != nil {
		s.log.Error().Err(err).Uint("invoice_id", id).Str("format", string(f)).Msg("export failed")
		return nil, err
	}
	s.log.Debug().Uint("invoice_id", id).Str("format", string(f)).Int("bytes", len(doc.Body)).Msg("invoice exported")
	return doc, nil
}
