package render

import (
	"bytes"
	"embed"
	"html/template"
	"sync"
)

//go:embed templates/invoice.html
var templatesFS embed.FS

var (
	invoiceTplOnce sync.Once
	invoiceTpl     *template.Template
	invoiceTplErr  error
)

func invoiceTemplate() (*template.Template, error) {
	invoiceTplOnce.Do(func() {
		invoiceTpl, invoiceTplErr = template.ParseFS(templatesFS, "templates/invoice.html")
	})
	return invoiceTpl, invoiceTplErr
}

// HTML renders v as a standalone HTML document with inline print styles.
func (e *Engine) HTML(v View) ([]byte, error) {
	t, err := invoiceTemplate()
	if err != nil {
		return nil, &RenderError{Format: FormatHTML, Err: err}
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, v); err != nil {
		return nil, &RenderError{Format: FormatHTML, Err: err}
	}
	return buf.Bytes(), nil
}
