package report

import (
	"time"

	"github.com/cobranzas/backend/internal/domain/report"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Report names used in export file names and metrics
const (
	ReportPendingBalance = "pending_balance"
	ReportDefaulters     = "defaulters"
	ReportDelivery       = "delivery"
)

// Output formats
const (
	FormatJSON = "json"
	FormatXLSX = "xlsx"
)

// XLSXContentType is the media type of exported workbooks
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// PendingBalanceFilter narrows the pending balance report.
// CollectorID matches the effective collector of the sale or its customer.
type PendingBalanceFilter struct {
	CollectorID *uuid.UUID `form:"-"`
	CustomerID  *uuid.UUID `form:"-"`
	City        string     `form:"city" binding:"max=100"`
}

// DefaultersFilter selects sales without a payment for more than Days days
// as of AsOf. Zero values use today and the configured default.
type DefaultersFilter struct {
	PendingBalanceFilter
	AsOf *time.Time `form:"as_of" time_format:"2006-01-02"`
	Days int        `form:"days" binding:"omitempty,min=1,max=3650"`
}

// DeliveryFilter selects delivered collections collected in [From, To).
// Without dates the manifest covers today.
type DeliveryFilter struct {
	From        *time.Time `form:"from" time_format:"2006-01-02"`
	To          *time.Time `form:"to" time_format:"2006-01-02"`
	CollectorID *uuid.UUID `form:"-"`
}

// PendingBalanceReport lists every collectible sale with money still owed
type PendingBalanceReport struct {
	GeneratedAt  time.Time                  `json:"generated_at"`
	Rows         []report.PendingBalanceRow `json:"rows"`
	TotalPending decimal.Decimal            `json:"total_pending" swaggertype:"string"`
}

// DefaultersReport lists sales in default, most overdue first
type DefaultersReport struct {
	AsOf         time.Time             `json:"as_of"`
	Days         int                   `json:"days"`
	Rows         []report.DefaulterRow `json:"rows"`
	TotalPending decimal.Decimal       `json:"total_pending" swaggertype:"string"`
}

// ExportResult is a generated report file
type ExportResult struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"-"`
	// ArchiveKey and DownloadURL are set when the export was archived
	ArchiveKey  string `json:"archive_key,omitempty"`
	DownloadURL string `json:"download_url,omitempty"`
}

// Table is one worksheet of an export
type Table struct {
	Sheet   string
	Title   string
	Headers []string
	Rows    [][]any
	Footer  []any
}
