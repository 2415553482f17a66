package printing

// Receipt output formats
const (
	FormatPDF  = "pdf"
	FormatHTML = "html"
)

// Content types of rendered receipts
const (
	PDFContentType  = "application/pdf"
	HTMLContentType = "text/html; charset=utf-8"
)

// ReceiptQuery selects the receipt format
type ReceiptQuery struct {
	Format string `form:"format" binding:"omitempty,oneof=pdf html"`
}

// ReceiptDocument is a rendered receipt ready to be served
type ReceiptDocument struct {
	Filename    string
	ContentType string
	Format      string
	Data        []byte
	ArchiveKey  string // Object key when the PDF was archived
}
