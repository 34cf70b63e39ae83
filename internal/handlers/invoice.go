package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/stormkeep/invoices/httpx"
	"github.com/stormkeep/invoices/internal/logger"
	"github.com/stormkeep/invoices/internal/models"
	"github.com/stormkeep/invoices/internal/render"
	"github.com/stormkeep/invoices/internal/services"
	"github.com/stormkeep/invoices/view"
)

type InvoiceHandler struct {
	invoices   *services.InvoiceService
	recipients *services.RecipientService
	documents  *services.DocumentService
	log        zerolog.Logger
}

func NewInvoiceHandler(invoices *services.InvoiceService, recipients *services.RecipientService, documents *services.DocumentService) *InvoiceHandler {
	return &InvoiceHandler{
		invoices:   invoices,
		recipients: recipients,
		documents:  documents,
		log:        logger.WithComponent("http.invoices"),
	}
}

// bindInvoice reads an InvoiceInput from a JSON body or from form fields.
// Form line items arrive as repeated item_description / item_quantity / item_unit_price
// fields; rows left completely blank are ignored.
func bindInvoice(r *http.Request) (services.InvoiceInput, error) {
	var in services.InvoiceInput
	if httpx.IsJSONBody(r) {
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			return in, fmt.Errorf("decode invoice: %w", err)
		}
		return in, nil
	}
	if err := r.ParseForm(); err != nil {
		return in, fmt.Errorf("parse form: %w", err)
	}
	if id, err := strconv.ParseUint(strings.TrimSpace(r.PostForm.Get("recipient_id")), 10, 64); err == nil {
		in.RecipientID = uint(id)
	}
	in.DateCreated = r.PostForm.Get("date_created")
	in.DateDue = r.PostForm.Get("date_due")
	in.Status = r.PostForm.Get("status")

	descs := r.PostForm["item_description"]
	qtys := r.PostForm["item_quantity"]
	prices := r.PostForm["item_unit_price"]
	n := max(len(descs), len(qtys), len(prices))
	at := func(vals []string, i int) string {
		if i < len(vals) {
			return strings.TrimSpace(vals[i])
		}
		return ""
	}
	for i := 0; i < n; i++ {
		item := services.LineItemInput{
			Description: at(descs, i),
			Quantity:    services.Numeric(at(qtys, i)),
			UnitPrice:   services.Numeric(at(prices, i)),
		}
		if item.Description == "" && item.Quantity == "" && item.UnitPrice == "" {
			continue
		}
		in.LineItems = append(in.LineItems, item)
	}
	return in, nil
}

// inputFromInvoice pre-fills the edit form from a stored invoice.
func inputFromInvoice(inv *models.Invoice) services.InvoiceInput {
	in := services.InvoiceInput{
		RecipientID: inv.RecipientID,
		DateCreated: view.Date(inv.DateCreated),
		DateDue:     view.Date(inv.DateDue),
		Status:      string(inv.Status),
	}
	for _, li := range inv.LineItems {
		in.LineItems = append(in.LineItems, services.LineItemInput{
			Description: li.Description,
			Quantity:    services.Numeric(decimal.NewFromFloat(li.Quantity).String()),
			UnitPrice:   services.Numeric(decimal.NewFromFloat(li.UnitPrice).String()),
		})
	}
	return in
}

func (h *InvoiceHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, inv *models.Invoice, in services.InvoiceInput, err error) {
	recipients, lerr := h.recipients.List(r.Context())
	if lerr != nil {
		writeError(w, r, h.log, lerr)
		return
	}
	if len(in.LineItems) == 0 {
		in.LineItems = []services.LineItemInput{{}}
	}
	data := map[string]any{
		"Invoice":    inv,
		"Form":       in,
		"Recipients": recipients,
		"Statuses":   []models.InvoiceStatus{models.InvoiceStatusOutstanding, models.InvoiceStatusPaid},
	}
	if err != nil {
		data["Errors"] = violations(err)
		data["Error"] = err.Error()
	}
	if rerr := view.RenderStatus(w, r, status, "invoices/form.html", data); rerr != nil {
		h.log.Error().Err(rerr).Msg("render invoice form")
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
	}
}

func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	var opts services.ListOptions
	if s := r.URL.Query().Get("status"); s != "" {
		if st, err := models.ParseInvoiceStatus(s); err == nil {
			opts.Status = st
		}
	}
	if id, err := strconv.ParseUint(r.URL.Query().Get("recipient_id"), 10, 64); err == nil {
		opts.RecipientID = uint(id)
	}
	list, err := h.invoices.List(r.Context(), opts)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, list)
		return
	}
	if err := view.Render(w, r, "invoices/list.html", map[string]any{
		"Invoices": list,
		"Status":   string(opts.Status),
	}); err != nil {
		h.log.Error().Err(err).Msg("render invoice list")
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
	}
}

func (h *InvoiceHandler) New(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, nil, services.InvoiceInput{DateCreated: view.Date(timeNow())}, nil)
}

func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	in, err := bindInvoice(r)
	if err != nil {
		badRequest(w, r, h.log, err)
		return
	}
	inv, err := h.invoices.Create(r.Context(), in)
	if err != nil {
		if isFormError(err) && !httpx.WantsJSON(r) {
			status, _ := statusFor(err)
			h.renderForm(w, r, status, nil, in, err)
			return
		}
		writeError(w, r, h.log, err)
		return
	}
	if httpx.WantsJSON(r) {
		h.respondInvoice(w, r, http.StatusCreated, inv.ID)
		return
	}
	seeOther(w, r, fmt.Sprintf("/invoices/%d", inv.ID))
}

func (h *InvoiceHandler) View(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		badID(w, r)
		return
	}
	inv, err := h.invoices.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, inv)
		return
	}
	if err := view.Render(w, r, "invoices/view.html", map[string]any{
		"Invoice": inv,
		"Overdue": inv.IsOverdue(timeNow()),
	}); err != nil {
		h.log.Error().Err(err).Msg("render invoice")
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
	}
}

func (h *InvoiceHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		badID(w, r)
		return
	}
	inv, err := h.invoices.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	h.renderForm(w, r, http.StatusOK, inv, inputFromInvoice(inv), nil)
}

func (h *InvoiceHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		badID(w, r)
		return
	}
	in, err := bindInvoice(r)
	if err != nil {
		badRequest(w, r, h.log, err)
		return
	}
	inv, err := h.invoices.Update(r.Context(), id, in)
	if err != nil {
		if isFormError(err) && !httpx.WantsJSON(r) {
			current, gerr := h.invoices.Get(r.Context(), id)
			if gerr != nil {
				writeError(w, r, h.log, gerr)
				return
			}
			status, _ := statusFor(err)
			h.renderForm(w, r, status, current, in, err)
			return
		}
		writeError(w, r, h.log, err)
		return
	}
	if httpx.WantsJSON(r) {
		h.respondInvoice(w, r, http.StatusOK, inv.ID)
		return
	}
	seeOther(w, r, fmt.Sprintf("/invoices/%d", inv.ID))
}

func (h *InvoiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		badID(w, r)
		return
	}
	if err := h.invoices.Delete(r.Context(), id); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if httpx.WantsJSON(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	seeOther(w, r, "/invoices")
}

// UpdateStatus flips an invoice between OUTSTANDING and PAID.
func (h *InvoiceHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		badID(w, r)
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if httpx.IsJSONBody(r) {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			badRequest(w, r, h.log, err)
			return
		}
	} else {
		body.Status = r.FormValue("status")
	}
	inv, err := h.invoices.SetStatus(r.Context(), id, body.Status)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, inv)
		return
	}
	seeOther(w, r, fmt.Sprintf("/invoices/%d", id))
}

func (h *InvoiceHandler) ExportHTML(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, render.FormatHTML)
}

func (h *InvoiceHandler) ExportPDF(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, render.FormatPDF)
}

func (h *InvoiceHandler) export(w http.ResponseWriter, r *http.Request, f render.Format) {
	id, ok := pathID(r)
	if !ok {
		badID(w, r)
		return
	}
	doc, err := h.documents.Export(r.Context(), id, f)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	httpx.Attachment(w, doc.ContentType, doc.Filename, doc.Body)
}

func (h *InvoiceHandler) respondInvoice(w http.ResponseWriter, r *http.Request, status int, id uint) {
	inv, err := h.invoices.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	httpx.JSON(w, status, inv)
}
