package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/stormkeep/invoices/httpx"
	"github.com/stormkeep/invoices/internal/logger"
	"github.com/stormkeep/invoices/internal/services"
	"github.com/stormkeep/invoices/view"
)

type CompanyHandler struct {
	company *services.CompanyService
	log     zerolog.Logger
}

func NewCompanyHandler(company *services.CompanyService) *CompanyHandler {
	return &CompanyHandler{company: company, log: logger.WithComponent("http.company")}
}

// Edit shows the company settings form.
func (h *CompanyHandler) Edit(w http.ResponseWriter, r *http.Request) {
	settings, err := h.company.Get(r.Context())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if httpx.WantsJSON(r) {
		if settings == nil {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		httpx.JSON(w, http.StatusOK, settings)
		return
	}
	// A first run shows the form pre-filled with the defaults.
	form := services.DefaultCompany
	if settings != nil {
		form = services.CompanyInputFrom(settings)
	}
	h.renderForm(w, r, http.StatusOK, form, settings == nil, nil)
}

// Update saves the company settings.
func (h *CompanyHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in services.CompanyInput
	if httpx.IsJSONBody(r) {
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			badRequest(w, r, h.log, fmt.Errorf("decode company: %w", err))
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			badRequest(w, r, h.log, err)
			return
		}
		in = services.CompanyInput{
			Name:         r.PostForm.Get("name"),
			AddressLine1: r.PostForm.Get("address_line1"),
			AddressLine2: r.PostForm.Get("address_line2"),
			City:         r.PostForm.Get("city"),
			State:        r.PostForm.Get("state"),
			ZipCode:      r.PostForm.Get("zip_code"),
			Email:        r.PostForm.Get("email"),
			Phone:        r.PostForm.Get("phone"),
		}
	}

	settings, err := h.company.Update(r.Context(), in)
	if err != nil {
		if isFormError(err) && !httpx.WantsJSON(r) {
			status, _ := statusFor(err)
			h.renderForm(w, r, status, in, false, err)
			return
		}
		writeError(w, r, h.log, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, settings)
		return
	}
	seeOther(w, r, "/settings?saved=1")
}

func (h *CompanyHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, form services.CompanyInput, firstRun bool, err error) {
	data := map[string]any{
		"Form":     form,
		"FirstRun": firstRun,
		"Saved":    r.URL.Query().Get("saved") == "1",
	}
	if err != nil {
		data["Errors"] = violations(err)
		data["Error"] = err.Error()
	}
	if rerr := view.RenderStatus(w, r, status, "company/edit.html", data); rerr != nil {
		h.log.Error().Err(rerr).Msg("render company settings")
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
	}
}
