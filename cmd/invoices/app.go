package main

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/stormkeep/invoices/httpx"
	"github.com/stormkeep/invoices/i18n"
	"github.com/stormkeep/invoices/internal/db"
	"github.com/stormkeep/invoices/internal/handlers"
	"github.com/stormkeep/invoices/internal/logger"
	"github.com/stormkeep/invoices/internal/render"
	"github.com/stormkeep/invoices/internal/services"
	"github.com/stormkeep/invoices/static"
	"github.com/stormkeep/invoices/view"
)

// App is the main application handler that sets up all routes.
type App struct {
	mux     *http.ServeMux
	db      *gorm.DB
	company *services.CompanyService
	log     zerolog.Logger

	invoices   *handlers.InvoiceHandler
	recipients *handlers.RecipientHandler
	settings   *handlers.CompanyHandler

	handler http.Handler
}

// NewApp wires services and handlers over conn.
func NewApp(conn *gorm.DB, renderer render.Renderer) *App {
	invoiceSvc := services.NewInvoiceService(conn)
	recipientSvc := services.NewRecipientService(conn)
	companySvc := services.NewCompanyService(conn)
	documentSvc := services.NewDocumentService(invoiceSvc, companySvc, renderer)

	app := &App{
		mux:        http.NewServeMux(),
		db:         conn,
		company:    companySvc,
		log:        logger.WithComponent("http"),
		invoices:   handlers.NewInvoiceHandler(invoiceSvc, recipientSvc, documentSvc),
		recipients: handlers.NewRecipientHandler(recipientSvc),
		settings:   handlers.NewCompanyHandler(companySvc),
	}
	app.setupRoutes()
	app.handler = app.chain()
	return app
}

// Handler returns the mux wrapped in the global middleware chain.
func (a *App) Handler() http.Handler { return a.handler }

// chain applies, outermost first: request id, access log, panic recovery,
// language preferences, first-run guard.
func (a *App) chain() http.Handler {
	var h http.Handler = a.mux
	h = a.requireCompany(h)
	h = withPreferences(h)
	h = httpx.Recover(a.log)(h)
	h = httpx.Logging(a.log)(h)
	return httpx.RequestID(h)
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

// setupRoutes configures all application routes.
func (a *App) setupRoutes() {
	a.mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/invoices", http.StatusSeeOther)
	})
	a.mux.HandleFunc("GET /health", a.health)
	a.mux.HandleFunc("GET /healthz", a.health)

	ih := a.invoices
	a.mux.HandleFunc("GET /invoices", ih.List)
	a.mux.HandleFunc("GET /invoices/new", ih.New)
	a.mux.HandleFunc("POST /invoices", ih.Create)
	a.mux.HandleFunc("GET /invoices/{id}", ih.View)
	a.mux.HandleFunc("GET /invoices/{id}/edit", ih.Edit)
	a.mux.HandleFunc("POST /invoices/{id}", ih.Update)
	a.mux.HandleFunc("PUT /invoices/{id}", ih.Update)
	a.mux.HandleFunc("POST /invoices/{id}/delete", ih.Delete)
	a.mux.HandleFunc("DELETE /invoices/{id}", ih.Delete)
	a.mux.HandleFunc("POST /invoices/{id}/status", ih.UpdateStatus)
	a.mux.HandleFunc("GET /invoices/{id}/export/html", ih.ExportHTML)
	a.mux.HandleFunc("GET /invoices/{id}/export/pdf", ih.ExportPDF)

	rh := a.recipients
	a.mux.HandleFunc("GET /recipients", rh.List)
	a.mux.HandleFunc("GET /recipients/new", rh.New)
	a.mux.HandleFunc("POST /recipients", rh.Create)
	a.mux.HandleFunc("GET /recipients/{id}", rh.View)
	a.mux.HandleFunc("GET /recipients/{id}/edit", rh.Edit)
	a.mux.HandleFunc("POST /recipients/{id}", rh.Update)
	a.mux.HandleFunc("PUT /recipients/{id}", rh.Update)
	a.mux.HandleFunc("POST /recipients/{id}/delete", rh.Delete)
	a.mux.HandleFunc("DELETE /recipients/{id}", rh.Delete)

	sh := a.settings
	a.mux.HandleFunc("GET /settings", sh.Edit)
	a.mux.HandleFunc("POST /settings", sh.Update)
	a.mux.HandleFunc("PUT /settings", sh.Update)
	a.mux.HandleFunc("GET /setup", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/settings", http.StatusMovedPermanently)
	})

	a.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static.FS)))
}

func (a *App) health(w http.ResponseWriter, r *http.Request) {
	if err := db.Ping(a.db.WithContext(r.Context())); err != nil {
		a.log.Error().Err(err).Msg("health check failed")
		httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// setupExempt lists path prefixes reachable before a company profile exists.
var setupExempt = []string{"/settings", "/setup", "/static/", "/health"}

// requireCompany sends every other request to /settings until a company profile is saved.
func (a *App) requireCompany(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, p := range setupExempt {
			if strings.HasPrefix(r.URL.Path, p) {
				next.ServeHTTP(w, r)
				return
			}
		}
		ok, err := a.company.Exists(r.Context())
		if err != nil {
			a.log.Error().Err(err).Msg("company lookup failed")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if !ok {
			if httpx.WantsJSON(r) {
				httpx.JSONError(w, http.StatusConflict, "setup_required", "company settings must be saved first")
				return
			}
			http.Redirect(w, r, "/settings", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withPreferences injects language and theme preferences from query, cookie or Accept-Language.
func withPreferences(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		lang := i18n.DetectLanguage(r.Header.Get("Accept-Language"))
		if c, err := r.Cookie("lang"); err == nil && c.Value != "" {
			lang = i18n.Normalize(c.Value)
		}
		if q := r.URL.Query().Get("lang"); q != "" {
			lang = i18n.Normalize(q)
			http.SetCookie(w, &http.Cookie{
				Name:     "lang",
				Value:    lang,
				Path:     "/",
				MaxAge:   86400 * 365,
				HttpOnly: true,
			})
		}
		ctx = i18n.WithLang(ctx, lang)

		theme := ""
		if c, err := r.Cookie("theme"); err == nil {
			theme = c.Value
		}
		if q := r.URL.Query().Get("theme"); q != "" {
			theme = q
			http.SetCookie(w, &http.Cookie{Name: "theme", Value: theme, Path: "/", MaxAge: 86400 * 30})
		}
		if theme == "light" || theme == "dark" {
			ctx = view.WithTheme(ctx, theme)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
