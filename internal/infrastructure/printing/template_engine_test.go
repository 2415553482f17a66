package printing

import (
	"strings"
	"testing"
	"time"

	"github.com/cobranzas/backend/internal/domain/printing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func sampleReceipt() *printing.Receipt {
	id := uuid.MustParse("7c1d2e3f-1111-4222-8333-444455556666")
	return &printing.Receipt{
		CollectionID:    id,
		Number:          printing.ReceiptNumber(id),
		CompanyName:     "Créditos del Sur",
		CollectedAt:     time.Date(2026, 5, 14, 15, 30, 0, 0, time.UTC),
		CollectorName:   "juan gómez",
		CustomerName:    "ana pérez",
		CustomerAddress: "Belgrano 120",
		CustomerCity:    "rosario",
		Lines: []printing.ReceiptLine{
			{
				SaleDate:         time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
				Products:         "Heladera, Lavarropas",
				Ordinal:          3,
				InstallmentCount: 12,
				Amount:           decimal.NewFromInt(15000),
				Remaining:        decimal.RequireFromString("250.5"),
			},
		},
		Total:          decimal.NewFromInt(15000),
		PendingBalance: decimal.NewFromInt(120000),
	}
}

func TestTemplateEngine_RenderReceipt(t *testing.T) {
	engine, err := NewTemplateEngine(WithLanguage(language.English))
	require.NoError(t, err)

	out, err := engine.RenderReceipt(sampleReceipt(), printing.PaperSizeA5)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, "Recibo N° <strong>7c1d2e3f</strong>")
	assert.Contains(t, out, "CRÉDITOS DEL SUR")
	assert.Contains(t, out, "Cobrador: Juan Gómez")
	assert.Contains(t, out, "<strong>Ana Pérez</strong>")
	assert.Contains(t, out, "Belgrano 120, Rosario")
	assert.Contains(t, out, "14/05/2026 15:30")
	assert.Contains(t, out, "<td>10/01/2026</td>")
	assert.Contains(t, out, "<td>3/12</td>")
	assert.Contains(t, out, "$ 15,000.00")
	assert.Contains(t, out, "$ 250.50")
	assert.Contains(t, out, "$ 120,000.00")
	assert.NotContains(t, out, "receipt-roll\"")
}

func TestTemplateEngine_SpanishNumbers(t *testing.T) {
	engine, err := NewTemplateEngine()
	require.NoError(t, err)

	out, err := engine.RenderReceipt(sampleReceipt(), printing.PaperSizeA4)
	require.NoError(t, err)
	assert.Contains(t, out, "15.000,00")
	assert.Contains(t, out, "250,50")
}

func TestTemplateEngine_RollLayout(t *testing.T) {
	engine, err := NewTemplateEngine()
	require.NoError(t, err)

	out, err := engine.RenderReceipt(sampleReceipt(), printing.PaperSizeReceipt58MM)
	require.NoError(t, err)
	assert.Contains(t, out, `<body class="receipt-roll">`)
}

func TestTemplateEngine_EscapesContent(t *testing.T) {
	engine, err := NewTemplateEngine()
	require.NoError(t, err)

	receipt := sampleReceipt()
	receipt.Lines[0].Products = "<script>alert(1)</script>"
	out, err := engine.RenderReceipt(receipt, printing.PaperSizeA4)
	require.NoError(t, err)
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "&lt;script&gt;")
}

func TestTemplateEngine_Location(t *testing.T) {
	loc := time.FixedZone("ART", -3*60*60)
	engine, err := NewTemplateEngine(WithLocation(loc), WithCurrencySymbol("ARS"))
	require.NoError(t, err)

	out, err := engine.RenderReceipt(sampleReceipt(), printing.PaperSizeA4)
	require.NoError(t, err)
	assert.Contains(t, out, "14/05/2026 12:30")
	assert.Contains(t, out, "ARS ")
}

func TestTemplateEngine_NilReceipt(t *testing.T) {
	engine, err := NewTemplateEngine()
	require.NoError(t, err)

	_, err = engine.RenderReceipt(nil, printing.PaperSizeA4)
	assert.Error(t, err)
}
