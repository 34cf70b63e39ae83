// Package i18n negotiates the UI language and translates message codes.
package i18n

import (
	"context"
	"strings"

	"golang.org/x/text/language"
)

// Default is the language used when nothing else matches.
const Default = "en"

var supported = []language.Tag{language.English, language.French}

var matcher = language.NewMatcher(supported)

type langKey struct{}

// WithLang returns a new context carrying the chosen language.
func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, langKey{}, lang)
}

// LangFromContext returns the language stored by WithLang, or Default.
func LangFromContext(ctx context.Context) string {
	if l, ok := ctx.Value(langKey{}).(string); ok && l != "" {
		return l
	}
	return Default
}

// DetectLanguage picks the best supported base language for an Accept-Language header value.
func DetectLanguage(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return Default
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return Default
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return Default
	}
	base, _ := supported[idx].Base()
	return base.String()
}

// Normalize maps an arbitrary language value (cookie, query) to a supported code.
func Normalize(lang string) string {
	return DetectLanguage(lang)
}

// T translates code into lang, falling back to the default language and then to the code itself.
func T(lang, code string) string {
	if m, ok := catalog[lang]; ok {
		if s, ok := m[code]; ok {
			return s
		}
	}
	if s, ok := catalog[Default][code]; ok {
		return s
	}
	return code
}

var catalog = map[string]map[string]string{
	"en": {
		"app_name":          "StormKeep Invoices",
		"invoices":          "Invoices",
		"invoice":           "Invoice",
		"new_invoice":       "New Invoice",
		"edit_invoice":      "Edit Invoice",
		"recipients":        "Recipients",
		"recipient":         "Recipient",
		"new_recipient":     "New Recipient",
		"edit_recipient":    "Edit Recipient",
		"settings":          "Company Settings",
		"number":            "Number",
		"date_created":      "Date Created",
		"date_due":          "Date Due",
		"status":            "Status",
		"total_due":         "Total Due",
		"description":       "Description",
		"quantity":          "Quantity",
		"unit_price":        "Unit Price",
		"line_total":        "Total",
		"line_items":        "Line Items",
		"add_line":          "Add line",
		"save":              "Save",
		"edit":              "Edit",
		"delete":            "Delete",
		"view":              "View",
		"mark_paid":         "Mark as paid",
		"mark_outstanding":  "Mark as outstanding",
		"export_html":       "Export HTML",
		"export_pdf":        "Export PDF",
		"client_name":       "Client Name",
		"name":              "Name",
		"address_line1":     "Address Line 1",
		"address_line2":     "Address Line 2",
		"city":              "City",
		"state":             "State",
		"zip_code":          "Zip Code",
		"email":             "Email",
		"phone":             "Phone",
		"no_invoices":       "No invoices yet.",
		"no_recipients":     "No recipients yet.",
		"OUTSTANDING":       "Outstanding",
		"PAID":              "Paid",
		"required":          "Required",
		"too_long":          "Too long",
		"invalid_email":     "Invalid email address",
		"invalid_choice":    "Invalid choice",
		"invalid_number":    "Must be a number",
		"invalid_date":      "Invalid date",
		"unknown_recipient": "Unknown recipient",
		"already_exists":    "Already exists",
		"in_use":            "Still referenced by invoices",
		"setup_required":    "Please configure your company before creating invoices.",
		"saved":             "Saved.",
		"overdue":           "Overdue",
	},
	"fr": {
		"app_name":          "StormKeep Factures",
		"invoices":          "Factures",
		"invoice":           "Facture",
		"new_invoice":       "Nouvelle facture",
		"edit_invoice":      "Modifier la facture",
		"recipients":        "Destinataires",
		"recipient":         "Destinataire",
		"new_recipient":     "Nouveau destinataire",
		"edit_recipient":    "Modifier le destinataire",
		"settings":          "Paramètres de l'entreprise",
		"number":            "Numéro",
		"date_created":      "Date d'émission",
		"date_due":          "Échéance",
		"status":            "Statut",
		"total_due":         "Total dû",
		"description":       "Description",
		"quantity":          "Quantité",
		"unit_price":        "Prix unitaire",
		"line_total":        "Total",
		"line_items":        "Lignes",
		"add_line":          "Ajouter une ligne",
		"save":              "Enregistrer",
		"edit":              "Modifier",
		"delete":            "Supprimer",
		"view":              "Voir",
		"mark_paid":         "Marquer payée",
		"mark_outstanding":  "Marquer impayée",
		"export_html":       "Exporter HTML",
		"export_pdf":        "Exporter PDF",
		"client_name":       "Nom du client",
		"name":              "Nom",
		"address_line1":     "Adresse ligne 1",
		"address_line2":     "Adresse ligne 2",
		"city":              "Ville",
		"state":             "Région",
		"zip_code":          "Code postal",
		"email":             "Email",
		"phone":             "Téléphone",
		"no_invoices":       "Aucune facture.",
		"no_recipients":     "Aucun destinataire.",
		"OUTSTANDING":       "Impayée",
		"PAID":              "Payée",
		"required":          "Requis",
		"too_long":          "Trop long",
		"invalid_email":     "Adresse email invalide",
		"invalid_choice":    "Choix invalide",
		"invalid_number":    "Doit être un nombre",
		"invalid_date":      "Date invalide",
		"unknown_recipient": "Destinataire inconnu",
		"already_exists":    "Existe déjà",
		"in_use":            "Encore utilisé par des factures",
		"setup_required":    "Veuillez configurer votre entreprise avant de créer des factures.",
		"saved":             "Enregistré.",
		"overdue":           "En retard",
	},
}
