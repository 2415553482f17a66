package printing

import (
	"bytes"
	"embed"
	"html/template"
	"time"

	"github.com/cobranzas/backend/internal/domain/printing"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

//go:embed templates/*.html
var templateFS embed.FS

const receiptTemplate = "receipt.html"

// TemplateEngine renders receipts into HTML
type TemplateEngine struct {
	tag      language.Tag
	location *time.Location
	currency string
	receipt  *template.Template
}

// TemplateEngineOption configures the template engine
type TemplateEngineOption func(*TemplateEngine)

// WithLanguage sets the language used for casing and number formatting
func WithLanguage(tag language.Tag) TemplateEngineOption {
	return func(e *TemplateEngine) {
		e.tag = tag
	}
}

// WithLocation sets the time zone dates are printed in
func WithLocation(loc *time.Location) TemplateEngineOption {
	return func(e *TemplateEngine) {
		if loc != nil {
			e.location = loc
		}
	}
}

// WithCurrencySymbol sets the symbol printed before amounts
func WithCurrencySymbol(symbol string) TemplateEngineOption {
	return func(e *TemplateEngine) {
		e.currency = symbol
	}
}

// NewTemplateEngine creates a template engine with the embedded receipt layout.
// Defaults to Spanish formatting in UTC with a "$" symbol.
func NewTemplateEngine(opts ...TemplateEngineOption) (*TemplateEngine, error) {
	e := &TemplateEngine{
		tag:      language.Spanish,
		location: time.UTC,
		currency: "$",
	}
	for _, opt := range opts {
		opt(e)
	}

	tmpl, err := template.New(receiptTemplate).Funcs(e.funcMap()).ParseFS(templateFS, "templates/"+receiptTemplate)
	if err != nil {
		return nil, NewRenderError(ErrCodeInvalidHTML, "failed to parse receipt template", err)
	}
	e.receipt = tmpl
	return e, nil
}

func (e *TemplateEngine) funcMap() template.FuncMap {
	title := cases.Title(e.tag)
	upper := cases.Upper(e.tag)
	printer := message.NewPrinter(e.tag)

	return template.FuncMap{
		"title": func(s string) string { return title.String(s) },
		"upper": func(s string) string { return upper.String(s) },
		"formatMoney": func(d decimal.Decimal) string {
			return e.currency + " " + printer.Sprint(number.Decimal(d.Round(2).InexactFloat64(), number.Scale(2)))
		},
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.In(e.location).Format("02/01/2006")
		},
		"formatDateTime": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.In(e.location).Format("02/01/2006 15:04")
		},
	}
}

type receiptView struct {
	*printing.Receipt
	Roll bool
}

// RenderReceipt renders a receipt laid out for the given paper
func (e *TemplateEngine) RenderReceipt(receipt *printing.Receipt, paper printing.PaperSize) (string, error) {
	if receipt == nil {
		return "", NewRenderError(ErrCodeInvalidHTML, "receipt is nil", nil)
	}

	var buf bytes.Buffer
	view := receiptView{Receipt: receipt, Roll: paper.IsReceipt()}
	if err := e.receipt.Execute(&buf, view); err != nil {
		return "", NewRenderError(ErrCodeRenderFailed, "failed to execute receipt template", err)
	}
	return buf.String(), nil
}
