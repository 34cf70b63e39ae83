package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/stormkeep/invoices/httpx"
	"github.com/stormkeep/invoices/internal/render"
	"github.com/stormkeep/invoices/internal/services"
	"github.com/stormkeep/invoices/validation"
)

// statusFor maps a service error to its HTTP status and a short error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, services.ErrValidation):
		return http.StatusUnprocessableEntity, "validation_failed"
	case errors.Is(err, services.ErrMalformed):
		return http.StatusUnprocessableEntity, "malformed_line_item"
	case errors.Is(err, services.ErrUniqueness):
		return http.StatusConflict, "already_exists"
	case errors.Is(err, services.ErrInUse):
		return http.StatusConflict, "in_use"
	case errors.Is(err, render.ErrRender):
		return http.StatusInternalServerError, "render_failed"
	}
	return http.StatusInternalServerError, "internal_error"
}

// violations turns form-level service errors into field codes for templates and JSON details.
func violations(err error) validation.Violations {
	var (
		ve *services.ValidationError
		ue *services.UniquenessError
		me *services.MalformationError
	)
	switch {
	case errors.As(err, &ve):
		return ve.Fields
	case errors.As(err, &ue):
		return validation.Violations{ue.Field: "already_exists"}
	case errors.As(err, &me):
		v := validation.Violations{"line_items": "invalid_number"}
		v.Add("line_items."+strconv.Itoa(me.Index)+"."+me.Field, "invalid_number")
		return v
	}
	return nil
}

// isFormError reports whether err should re-display the submitted form.
func isFormError(err error) bool {
	return errors.Is(err, services.ErrValidation) ||
		errors.Is(err, services.ErrUniqueness) ||
		errors.Is(err, services.ErrMalformed)
}

// writeError answers a failed request in the format the client asked for.
func writeError(w http.ResponseWriter, r *http.Request, log zerolog.Logger, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	if httpx.WantsJSON(r) {
		var details any
		if v := violations(err); v != nil {
			details = v
		}
		httpx.JSONError(w, status, code, details)
		return
	}
	switch {
	case status == http.StatusNotFound:
		http.NotFound(w, r)
	case status >= http.StatusInternalServerError:
		http.Error(w, http.StatusText(status), status)
	default:
		http.Error(w, err.Error(), status)
	}
}

func pathID(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// badID answers a non-numeric {id} path segment as not found.
func badID(w http.ResponseWriter, r *http.Request) {
	if httpx.WantsJSON(r) {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	http.NotFound(w, r)
}

func seeOther(w http.ResponseWriter, r *http.Request, to string) {
	http.Redirect(w, r, to, http.StatusSeeOther)
}

// badRequest answers a body that could not be decoded at all.
func badRequest(w http.ResponseWriter, r *http.Request, log zerolog.Logger, err error) {
	log.Debug().Err(err).Str("path", r.URL.Path).Msg("unreadable request body")
	if httpx.WantsJSON(r) || httpx.IsJSONBody(r) {
		httpx.JSONError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	http.Error(w, "Bad Request", http.StatusBadRequest)
}

var timeNow = time.Now
