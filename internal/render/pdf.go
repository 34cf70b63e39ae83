package render

import (
	"bytes"
	"fmt"

	"github.com/phpdave11/gofpdf"
)

// A4 portrait in millimetres with a 1cm margin on every side.
const (
	pageMargin   = 10.0
	footerHeight = 6.0
	contentWidth = 210.0 - 2*pageMargin
	ptToMM       = 25.4 / 72

	fontFamily = "Helvetica"
	sizeH1     = 20.0
	sizeH2     = 16.0
	sizeBody   = 10.0
	sizeSmall  = 8.0
	sizeTotal  = 14.0
	sizeGrand  = 18.0
)

// Table column widths; they add up to contentWidth.
var columns = [4]float64{100, 25, 32.5, 32.5}

type rgb struct{ r, g, b int }

var (
	colorText   = rgb{51, 51, 51}
	colorMuted  = rgb{119, 119, 119}
	colorBorder = rgb{238, 238, 238}
	colorHead   = rgb{248, 248, 248}
	colorStripe = rgb{252, 252, 252}
	colorAccent = rgb{0, 123, 255}
)

// lineHeight is the 1.5 line spacing for a font size in points, in mm.
func lineHeight(pt float64) float64 { return pt * 1.5 * ptToMM }

type pdfDoc struct {
	*gofpdf.Fpdf
	tr func(string) string
}

func (d *pdfDoc) font(style string, size float64, c rgb) {
	d.SetFont(fontFamily, style, size)
	d.SetTextColor(c.r, c.g, c.b)
}

// text writes one full-width or fixed-width line and moves below it.
func (d *pdfDoc) text(w float64, size float64, s, align string) {
	d.CellFormat(w, lineHeight(size), d.tr(s), "", 2, align, false, 0, "")
}

// PDF renders v as an A4 document. Output is assembled in memory; on failure nothing is returned.
func (e *Engine) PDF(v View) ([]byte, error) {
	f := gofpdf.New("P", "mm", "A4", "")
	d := &pdfDoc{Fpdf: f, tr: f.UnicodeTranslatorFromDescriptor("")}

	d.SetMargins(pageMargin, pageMargin, pageMargin)
	d.SetAutoPageBreak(true, pageMargin+footerHeight)
	d.SetCompression(e.CompressPDF)
	d.SetCreationDate(v.Generated)
	d.SetTitle("Invoice "+v.Number, true)
	d.SetCreator("StormKeep Invoices", true)
	d.SetDrawColor(colorBorder.r, colorBorder.g, colorBorder.b)
	d.AliasNbPages("")
	d.SetFooterFunc(func() {
		d.SetY(-(pageMargin + footerHeight))
		d.font("", sizeSmall, colorMuted)
		d.CellFormat(0, footerHeight, d.tr(fmt.Sprintf("%s - Page %d/{nb}", v.Number, d.PageNo())), "", 0, "C", false, 0, "")
	})

	d.AddPage()
	d.header(v)
	d.billTo(v.Recipient)
	d.items(v.Items)
	d.totals(v.Total)

	if d.Err() {
		return nil, &RenderError{Format: FormatPDF, Err: d.Error()}
	}
	var buf bytes.Buffer
	if err := d.Output(&buf); err != nil {
		return nil, &RenderError{Format: FormatPDF, Err: err}
	}
	return buf.Bytes(), nil
}

// header prints the company block on the left and the invoice metadata on the right.
func (d *pdfDoc) header(v View) {
	const leftW, rightX = 110.0, pageMargin + 120.0
	top := d.GetY()

	if !v.Company.Blank() {
		d.font("B", sizeH1, colorText)
		d.text(leftW, sizeH1, v.Company.Name, "L")
		d.font("", sizeBody, colorText)
		for _, line := range partyLines(v.Company) {
			d.text(leftW, sizeBody, line, "L")
		}
	}
	leftBottom := d.GetY()

	d.SetXY(rightX, top)
	d.font("B", sizeH2, colorText)
	d.text(0, sizeH2, "INVOICE", "L")
	meta := [][2]string{{"Number", v.Number}, {"Date", v.DateCreated}}
	if v.DateDue != "" {
		meta = append(meta, [2]string{"Due", v.DateDue})
	}
	meta = append(meta, [2]string{"Status", v.Status})
	for _, kv := range meta {
		d.SetX(rightX)
		d.font("", sizeSmall, colorMuted)
		d.CellFormat(22, lineHeight(sizeBody), d.tr(kv[0]), "", 0, "L", false, 0, "")
		d.font("", sizeBody, colorText)
		d.text(0, sizeBody, kv[1], "L")
	}

	if leftBottom > d.GetY() {
		d.SetY(leftBottom)
	}
	d.Ln(lineHeight(sizeBody))
}

func (d *pdfDoc) billTo(p Party) {
	d.font("", sizeSmall, colorMuted)
	d.text(0, sizeSmall, "BILL TO", "L")
	d.font("B", sizeBody, colorText)
	d.text(0, sizeBody, p.Name, "L")
	d.font("", sizeBody, colorText)
	for _, line := range partyLines(p) {
		d.text(0, sizeBody, line, "L")
	}
	d.Ln(lineHeight(sizeBody))
}

func (d *pdfDoc) tableHeader() {
	d.font("B", sizeBody, colorText)
	d.SetFillColor(colorHead.r, colorHead.g, colorHead.b)
	labels := [4]string{"Description", "Quantity", "Unit Price", "Total"}
	for i, l := range labels {
		align := "R"
		if i == 0 {
			align = "L"
		}
		d.CellFormat(columns[i], lineHeight(sizeBody)+2, d.tr(l), "1", 0, align, true, 0, "")
	}
	d.Ln(-1)
	d.font("", sizeBody, colorText)
}

// items draws the line-item table, wrapping long descriptions and repeating the
// header row after each page break.
func (d *pdfDoc) items(items []LineView) {
	_, pageH := d.GetPageSize()
	limit := pageH - pageMargin - footerHeight
	lh := lineHeight(sizeBody)

	d.tableHeader()
	for i, it := range items {
		lines := d.SplitLines([]byte(d.tr(it.Description)), columns[0]-2*d.GetCellMargin())
		if len(lines) == 0 {
			lines = [][]byte{nil}
		}
		h := float64(len(lines)) * lh
		if d.GetY()+h > limit {
			d.AddPage()
			d.tableHeader()
		}

		fill := i%2 == 1
		style := "D"
		if fill {
			d.SetFillColor(colorStripe.r, colorStripe.g, colorStripe.b)
			style = "FD"
		}
		x, y := d.GetXY()
		d.Rect(x, y, columns[0], h, style)
		for j, line := range lines {
			d.SetXY(x, y+float64(j)*lh)
			d.CellFormat(columns[0], lh, string(line), "", 0, "L", false, 0, "")
		}
		d.SetXY(x+columns[0], y)
		for c, val := range [3]string{it.Quantity, it.UnitPrice, it.Total} {
			d.CellFormat(columns[c+1], h, d.tr(val), "1", 0, "R", fill, 0, "")
		}
		d.SetXY(x, y+h)
	}
	d.Ln(lh)
}

func (d *pdfDoc) totals(total string) {
	d.font("B", sizeTotal, colorText)
	d.text(contentWidth, sizeTotal, "Total Due", "R")
	d.font("B", sizeGrand, colorAccent)
	d.text(contentWidth, sizeGrand, total, "R")
}

func partyLines(p Party) []string {
	lines := append([]string(nil), p.Address...)
	if p.Email != "" {
		lines = append(lines, p.Email)
	}
	if p.Phone != "" {
		lines = append(lines, p.Phone)
	}
	return lines
}
