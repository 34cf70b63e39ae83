package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/stormkeep/invoices/httpx"
	"github.com/stormkeep/invoices/internal/logger"
	"github.com/stormkeep/invoices/internal/models"
	"github.com/stormkeep/invoices/internal/services"
	"github.com/stormkeep/invoices/validation"
	"github.com/stormkeep/invoices/view"
)

type RecipientHandler struct {
	recipients *services.RecipientService
	log        zerolog.Logger
}

func NewRecipientHandler(recipients *services.RecipientService) *RecipientHandler {
	return &RecipientHandler{recipients: recipients, log: logger.WithComponent("http.recipients")}
}

func bindRecipient(r *http.Request) (services.RecipientInput, error) {
	var in services.RecipientInput
	if httpx.IsJSONBody(r) {
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			return in, fmt.Errorf("decode recipient: %w", err)
		}
		return in, nil
	}
	if err := r.ParseForm(); err != nil {
		return in, fmt.Errorf("parse form: %w", err)
	}
	in.ClientName = r.PostForm.Get("client_name")
	in.AddressLine1 = r.PostForm.Get("address_line1")
	in.AddressLine2 = r.PostForm.Get("address_line2")
	in.City = r.PostForm.Get("city")
	in.State = r.PostForm.Get("state")
	in.ZipCode = r.PostForm.Get("zip_code")
	in.Email = r.PostForm.Get("email")
	in.Phone = r.PostForm.Get("phone")
	return in, nil
}

func (h *RecipientHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, rec *models.Recipient, in services.RecipientInput, err error) {
	data := map[string]any{"Recipient": rec, "Form": in}
	if err != nil {
		data["Errors"] = violations(err)
		data["Error"] = err.Error()
	}
	if rerr := view.RenderStatus(w, r, status, "recipients/form.html", data); rerr != nil {
		h.log.Error().Err(rerr).Msg("render recipient form")
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
	}
}

func (h *RecipientHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.recipients.List(r.Context())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, list)
		return
	}
	if err := view.Render(w, r, "recipients/list.html", map[string]any{"Recipients": list}); err != nil {
		h.log.Error().Err(err).Msg("render recipient list")
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
	}
}

func (h *RecipientHandler) New(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, nil, services.RecipientInput{}, nil)
}

func (h *RecipientHandler) Create(w http.ResponseWriter, r *http.Request) {
	in, err := bindRecipient(r)
	if err != nil {
		badRequest(w, r, h.log, err)
		return
	}
	rec, err := h.recipients.Create(r.Context(), in)
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
		httpx.JSON(w, http.StatusCreated, rec)
		return
	}
	seeOther(w, r, "/recipients")
}

func (h *RecipientHandler) View(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		badID(w, r)
		return
	}
	rec, err := h.recipients.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, rec)
		return
	}
	seeOther(w, r, fmt.Sprintf("/recipients/%d/edit", id))
}

func (h *RecipientHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		badID(w, r)
		return
	}
	rec, err := h.recipients.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	h.renderForm(w, r, http.StatusOK, rec, services.RecipientInputFrom(rec), nil)
}

func (h *RecipientHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		badID(w, r)
		return
	}
	in, err := bindRecipient(r)
	if err != nil {
		badRequest(w, r, h.log, err)
		return
	}
	rec, err := h.recipients.Update(r.Context(), id, in)
	if err != nil {
		if isFormError(err) && !httpx.WantsJSON(r) {
			status, _ := statusFor(err)
			h.renderForm(w, r, status, &models.Recipient{ID: id}, in, err)
			return
		}
		writeError(w, r, h.log, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, rec)
		return
	}
	seeOther(w, r, "/recipients")
}

func (h *RecipientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		badID(w, r)
		return
	}
	err := h.recipients.Delete(r.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrInUse) && !httpx.WantsJSON(r) {
			list, lerr := h.recipients.List(r.Context())
			if lerr != nil {
				writeError(w, r, h.log, lerr)
				return
			}
			if rerr := view.RenderStatus(w, r, http.StatusConflict, "recipients/list.html", map[string]any{
				"Recipients": list,
				"Errors":     validation.Violations{"recipient": "in_use"},
				"Error":      err.Error(),
			}); rerr != nil {
				h.log.Error().Err(rerr).Msg("render recipient list")
				http.Error(w, "Failed to render template", http.StatusInternalServerError)
			}
			return
		}
		writeError(w, r, h.log, err)
		return
	}
	if httpx.WantsJSON(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	seeOther(w, r, "/recipients")
}
