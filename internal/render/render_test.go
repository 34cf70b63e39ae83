package render

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stormkeep/invoices/internal/models"
)

func sampleInvoice() *models.Invoice {
	due := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	return &models.Invoice{
		ID:          1,
		UpdatedAt:   time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC),
		Number:      "INV-0001",
		DateCreated: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		DateDue:     &due,
		Status:      models.InvoiceStatusOutstanding,
		TotalDue:    30,
		Recipient:   &models.Recipient{ClientName: "Acme Co", City: "Springfield", State: "IL", ZipCode: "62701"},
		LineItems:   []models.LineItem{{Description: "Widget", Quantity: 3, UnitPrice: 10, Total: 30}},
	}
}

func sampleCompany() *models.CompanySettings {
	return &models.CompanySettings{
		Name: "StormKeep Inc.", AddressLine1: "123 Corporate Blvd", City: "Capital City",
		State: "ST", ZipCode: "12345", Email: "info@stormkeep.com", Phone: "555-123-4567",
	}
}

func TestMoney(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{30, "30.00"},
		{0, "0.00"},
		{0.1 + 0.2, "0.30"},
		{2.005, "2.01"},
		{1234.5, "1234.50"},
		{-3.456, "-3.46"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.in), func(t *testing.T) {
			if got := Money(tt.in); got != tt.want {
				t.Errorf("Money(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestQuantity(t *testing.T) {
	if got := Quantity(2); got != "2" {
		t.Errorf("Quantity(2) = %q", got)
	}
	if got := Quantity(1.5); got != "1.5" {
		t.Errorf("Quantity(1.5) = %q", got)
	}
}

func TestNewView(t *testing.T) {
	v := NewView(sampleInvoice(), sampleCompany())
	if v.Number != "INV-0001" || v.Total != "30.00" || v.DateDue != "2024-04-01" {
		t.Fatalf("unexpected view: %+v", v)
	}
	if v.Recipient.Name != "Acme Co" || len(v.Recipient.Address) != 1 || v.Recipient.Address[0] != "Springfield, IL 62701" {
		t.Fatalf("unexpected recipient: %+v", v.Recipient)
	}
	if len(v.Items) != 1 || v.Items[0].UnitPrice != "10.00" || v.Items[0].Quantity != "3" {
		t.Fatalf("unexpected items: %+v", v.Items)
	}

	blank := NewView(sampleInvoice(), nil)
	if !blank.Company.Blank() {
		t.Fatalf("expected blank company without a profile, got %+v", blank.Company)
	}
}

func TestHTML(t *testing.T) {
	out, err := NewEngine().HTML(NewView(sampleInvoice(), sampleCompany()))
	if err != nil {
		t.Fatalf("HTML: %v", err)
	}
	s := string(out)
	for _, want := range []string{"<!DOCTYPE html>", "Acme Co", "INV-0001", "30.00", "StormKeep Inc.", "size: A4"} {
		if !strings.Contains(s, want) {
			t.Errorf("HTML output missing %q", want)
		}
	}
}

func TestHTMLEscapesContent(t *testing.T) {
	inv := sampleInvoice()
	inv.LineItems[0].Description = "<script>alert(1)</script>"
	out, err := NewEngine().HTML(NewView(inv, nil))
	if err != nil {
		t.Fatalf("HTML: %v", err)
	}
	if bytes.Contains(out, []byte("<script>")) {
		t.Fatalf("description was not escaped")
	}
}

func TestHTMLDeterministic(t *testing.T) {
	v := NewView(sampleInvoice(), sampleCompany())
	a, _ := NewEngine().HTML(v)
	b, _ := NewEngine().HTML(v)
	if !bytes.Equal(a, b) {
		t.Fatalf("same view rendered differently")
	}
}

func TestPDF(t *testing.T) {
	e := &Engine{CompressPDF: false}
	out, err := e.PDF(NewView(sampleInvoice(), sampleCompany()))
	if err != nil {
		t.Fatalf("PDF: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Fatalf("output is not a PDF: %q", out[:min(len(out), 16)])
	}
	for _, want := range []string{"Acme Co", "INV-0001", "30.00"} {
		if !bytes.Contains(out, []byte(want)) {
			t.Errorf("PDF output missing %q", want)
		}
	}
}

func TestPDFWithoutCompanyAndManyItems(t *testing.T) {
	inv := sampleInvoice()
	inv.LineItems = nil
	for i := 0; i < 80; i++ {
		inv.LineItems = append(inv.LineItems, models.LineItem{
			Description: strings.Repeat("Consulting hours ", 1+i%4),
			Quantity:    1, UnitPrice: 1, Total: 1,
		})
	}
	inv.TotalDue = 80
	out, err := (&Engine{}).PDF(NewView(inv, nil))
	if err != nil {
		t.Fatalf("PDF: %v", err)
	}
	if !bytes.Contains(out, []byte("/Count 3")) && !bytes.Contains(out, []byte("/Count 2")) && !bytes.Contains(out, []byte("/Count 4")) {
		t.Fatalf("expected a multi-page document")
	}
}

type failingRenderer struct{}

func (failingRenderer) HTML(View) ([]byte, error) { return nil, errors.New("template broke") }
func (failingRenderer) PDF(View) ([]byte, error)  { return nil, errors.New("engine broke") }

func TestRenderWrapsFailures(t *testing.T) {
	doc, err := Render(failingRenderer{}, View{Number: "INV-0009"}, FormatPDF)
	if doc != nil {
		t.Fatalf("expected no document on failure")
	}
	var re *RenderError
	if !errors.As(err, &re) || re.Format != FormatPDF || !errors.Is(err, ErrRender) {
		t.Fatalf("expected RenderError, got %v", err)
	}
}

func TestRenderDocument(t *testing.T) {
	doc, err := Render(NewEngine(), NewView(sampleInvoice(), nil), FormatHTML)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if doc.Filename != "invoice_INV-0001.html" || !strings.HasPrefix(doc.ContentType, "text/html") {
		t.Fatalf("unexpected document meta: %s %s", doc.Filename, doc.ContentType)
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("PDF"); err != nil || f != FormatPDF {
		t.Fatalf("ParseFormat(PDF) = %v, %v", f, err)
	}
	if _, err := ParseFormat("docx"); err == nil {
		t.Fatalf("expected error for docx")
	}
	if got := Filename("INV-0042", FormatPDF); got != "invoice_INV-0042.pdf" {
		t.Fatalf("Filename() = %q", got)
	}
}
