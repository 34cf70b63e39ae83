package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/stormkeep/invoices/internal/db"
	"github.com/stormkeep/invoices/internal/models"
	"github.com/stormkeep/invoices/internal/render"
	"github.com/stormkeep/invoices/internal/services"
)

func newTestApp(t *testing.T, withCompany bool) (http.Handler, *gorm.DB) {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", name)), db.GormConfig(zerolog.Nop(), false))
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(conn))
	if withCompany {
		_, err := services.NewCompanyService(conn).EnsureDefault(t.Context())
		require.NoError(t, err)
	}
	return NewApp(conn, &render.Engine{}).Handler(), conn
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func doForm(t *testing.T, h http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func testRecipient(name string) services.RecipientInput {
	return services.RecipientInput{
		ClientName:   name,
		AddressLine1: "1 Industrial Way",
		City:         "Springfield",
		State:        "IL",
		ZipCode:      "62701",
		Email:        "billing@example.com",
		Phone:        "555-0100",
	}
}

func recipientForm(in services.RecipientInput) url.Values {
	return url.Values{
		"client_name":   {in.ClientName},
		"address_line1": {in.AddressLine1},
		"city":          {in.City},
		"state":         {in.State},
		"zip_code":      {in.ZipCode},
		"email":         {in.Email},
		"phone":         {in.Phone},
	}
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestFirstRunRedirectsToSettings(t *testing.T) {
	h, _ := newTestApp(t, false)

	rec := get(h, "/invoices")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/settings", rec.Header().Get("Location"))

	assert.Equal(t, http.StatusOK, get(h, "/settings").Code)
	assert.Equal(t, http.StatusOK, get(h, "/health").Code)

	rec = doJSON(t, h, http.MethodGet, "/invoices", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doForm(t, h, "/settings", url.Values{
		"name": {"Northwind"}, "address_line1": {"1 Main St"}, "city": {"Gotham"},
		"state": {"NY"}, "zip_code": {"10001"}, "email": {"hi@northwind.test"}, "phone": {"555"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	assert.Equal(t, http.StatusOK, get(h, "/invoices").Code)
}

func TestSettingsValidationRedisplaysForm(t *testing.T) {
	h, _ := newTestApp(t, false)
	rec := doForm(t, h, "/settings", url.Values{"name": {"Only a name"}, "email": {"broken"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid email address")
	assert.Contains(t, rec.Body.String(), "Only a name")
}

func TestInvoiceJSONLifecycle(t *testing.T) {
	h, _ := newTestApp(t, true)

	rec := doJSON(t, h, http.MethodPost, "/recipients", testRecipient("Acme Co"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	recipient := decode[models.Recipient](t, rec)

	rec = doJSON(t, h, http.MethodPost, "/invoices", map[string]any{
		"recipient_id": recipient.ID,
		"date_created": "2024-03-01",
		"line_items": []map[string]any{
			{"description": "Widget", "quantity": 2, "unit_price": 10},
			{"description": "Install", "quantity": "1", "unit_price": "25.00"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	inv := decode[models.Invoice](t, rec)
	assert.Equal(t, "INV-0001", inv.Number)
	assert.Equal(t, 45.0, inv.TotalDue)
	assert.Len(t, inv.LineItems, 2)
	assert.Equal(t, models.InvoiceStatusOutstanding, inv.Status)

	rec = doJSON(t, h, http.MethodPut, fmt.Sprintf("/invoices/%d", inv.ID), map[string]any{
		"recipient_id": recipient.ID,
		"date_created": "2024-03-01",
		"line_items":   []map[string]any{{"description": "Widget", "quantity": 3, "unit_price": 10}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	inv = decode[models.Invoice](t, rec)
	assert.Equal(t, 30.0, inv.TotalDue)
	require.Len(t, inv.LineItems, 1)
	assert.Equal(t, "Widget", inv.LineItems[0].Description)

	rec = doJSON(t, h, http.MethodPost, fmt.Sprintf("/invoices/%d/status", inv.ID), map[string]string{"status": "PAID"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, models.InvoiceStatusPaid, decode[models.Invoice](t, rec).Status)

	rec = get(h, fmt.Sprintf("/invoices/%d/export/pdf", inv.ID))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="invoice_INV-0001.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))

	rec = get(h, fmt.Sprintf("/invoices/%d/export/html", inv.ID))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "invoice_INV-0001.html")
	assert.Contains(t, rec.Body.String(), "30.00")

	rec = doJSON(t, h, http.MethodGet, "/invoices", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Invoice](t, rec), 1)

	rec = doJSON(t, h, http.MethodDelete, fmt.Sprintf("/invoices/%d", inv.ID), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = doJSON(t, h, http.MethodGet, fmt.Sprintf("/invoices/%d", inv.ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInvoiceErrorsMapToStatus(t *testing.T) {
	h, conn := newTestApp(t, true)
	r, err := services.NewRecipientService(conn).Create(t.Context(), testRecipient("Acme Co"))
	require.NoError(t, err)

	rec := doJSON(t, h, http.MethodPost, "/invoices", map[string]any{
		"recipient_id": r.ID,
		"date_created": "2024-03-01",
		"line_items":   []map[string]any{{"description": "Bad", "quantity": "lots", "unit_price": 1}},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "malformed_line_item")

	rec = doJSON(t, h, http.MethodPost, "/invoices", map[string]any{
		"recipient_id": r.ID,
		"date_created": "2024-03-01",
		"line_items":   []map[string]any{{"description": strings.Repeat("x", 501), "quantity": 1, "unit_price": 1}},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `"line_items.0.description":"too_long"`)

	rec = doJSON(t, h, http.MethodPost, "/invoices", map[string]any{"date_created": "2024-03-01"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "recipient_id")

	rec = doJSON(t, h, http.MethodGet, "/invoices/999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = doJSON(t, h, http.MethodGet, "/invoices/abc", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, http.StatusNotFound, get(h, "/invoices/999/export/pdf").Code)

	req := httptest.NewRequest(http.MethodPost, "/invoices", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	out := httptest.NewRecorder()
	h.ServeHTTP(out, req)
	assert.Equal(t, http.StatusBadRequest, out.Code)

	var n int64
	conn.Model(&models.Invoice{}).Count(&n)
	assert.EqualValues(t, 0, n)
}

func TestInvoiceFormFlow(t *testing.T) {
	h, conn := newTestApp(t, true)
	r, err := services.NewRecipientService(conn).Create(t.Context(), testRecipient("Acme Co"))
	require.NoError(t, err)

	rec := doForm(t, h, "/invoices", url.Values{
		"recipient_id":     {fmt.Sprint(r.ID)},
		"date_created":     {"2024-03-01"},
		"status":           {"OUTSTANDING"},
		"item_description": {"Widget", "Install", ""},
		"item_quantity":    {"2", "1", ""},
		"item_unit_price":  {"10", "25", ""},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	loc := rec.Header().Get("Location")
	assert.Equal(t, "/invoices/1", loc)

	page := get(h, loc)
	require.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), "INV-0001")
	assert.Contains(t, page.Body.String(), "45.00")

	rec = doForm(t, h, "/invoices/1", url.Values{
		"recipient_id":     {fmt.Sprint(r.ID)},
		"date_created":     {"2024-03-01"},
		"item_description": {"Widget"},
		"item_quantity":    {"three"},
		"item_unit_price":  {"10"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Must be a number")
	assert.Contains(t, rec.Body.String(), `value="three"`)

	var inv models.Invoice
	require.NoError(t, conn.Preload("LineItems").First(&inv, 1).Error)
	assert.Equal(t, 45.0, inv.TotalDue, "rejected edit must leave the invoice untouched")
	assert.Len(t, inv.LineItems, 2)

	for _, path := range []string{"/invoices", "/invoices/new", "/invoices/1/edit", "/recipients", "/recipients/new", "/settings"} {
		assert.Equal(t, http.StatusOK, get(h, path).Code, path)
	}
}

func TestRecipientConflicts(t *testing.T) {
	h, conn := newTestApp(t, true)

	rec := doJSON(t, h, http.MethodPost, "/recipients", testRecipient("Acme Co"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	acme := decode[models.Recipient](t, rec)

	rec = doJSON(t, h, http.MethodPost, "/recipients", testRecipient("Acme Co"))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "already_exists")

	_, err := services.NewInvoiceService(conn).Create(t.Context(), services.InvoiceInput{RecipientID: acme.ID, DateCreated: "2024-03-01"})
	require.NoError(t, err)

	rec = doJSON(t, h, http.MethodDelete, fmt.Sprintf("/recipients/%d", acme.ID), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "in_use")

	rec = doForm(t, h, fmt.Sprintf("/recipients/%d/delete", acme.ID), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "Still referenced by invoices")

	rec = doForm(t, h, "/recipients", recipientForm(testRecipient("Acme Co")))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "Already exists")

	partial := recipientForm(testRecipient("Initech"))
	partial.Del("city")
	rec = doForm(t, h, "/recipients", partial)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Required")
}

func TestLanguagePreference(t *testing.T) {
	h, _ := newTestApp(t, true)

	rec := get(h, "/invoices?lang=fr")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Factures")
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "lang=fr")

	req := httptest.NewRequest(http.MethodGet, "/invoices", nil)
	req.Header.Set("Accept-Language", "fr-CA,fr;q=0.9")
	out := httptest.NewRecorder()
	h.ServeHTTP(out, req)
	assert.Contains(t, out.Body.String(), "Aucune facture")
}

func TestRequestIDHeader(t *testing.T) {
	h, _ := newTestApp(t, true)
	rec := get(h, "/health")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestStylesheet(t *testing.T) {
	h, _ := newTestApp(t, false)

	page := get(h, "/settings")
	require.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), `href="/static/app.css?v=`)

	css := get(h, "/static/app.css")
	require.Equal(t, http.StatusOK, css.Code)
	assert.Contains(t, css.Header().Get("Content-Type"), "text/css")
	assert.Contains(t, css.Body.String(), ".field-error")
}
