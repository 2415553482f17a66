// Package printing holds the page layout of printable documents
package printing

import "github.com/cobranzas/backend/internal/domain/shared"

// PaperSize represents the paper a receipt is printed on
type PaperSize string

const (
	PaperSizeA4          PaperSize = "A4"           // 210mm x 297mm
	PaperSizeA5          PaperSize = "A5"           // 148mm x 210mm
	PaperSizeReceipt58MM PaperSize = "RECEIPT_58MM" // 58mm thermal roll
	PaperSizeReceipt80MM PaperSize = "RECEIPT_80MM" // 80mm thermal roll
)

// IsValid checks if the PaperSize is a valid value
func (p PaperSize) IsValid() bool {
	switch p {
	case PaperSizeA4, PaperSizeA5, PaperSizeReceipt58MM, PaperSizeReceipt80MM:
		return true
	}
	return false
}

// String returns the string representation of PaperSize
func (p PaperSize) String() string {
	return string(p)
}

// Dimensions returns the paper dimensions in millimeters.
// Thermal rolls have no fixed height and report 0.
func (p PaperSize) Dimensions() (width, height int) {
	switch p {
	case PaperSizeA5:
		return 148, 210
	case PaperSizeReceipt58MM:
		return 58, 0
	case PaperSizeReceipt80MM:
		return 80, 0
	default:
		return 210, 297
	}
}

// IsReceipt returns true for thermal roll paper
func (p PaperSize) IsReceipt() bool {
	return p == PaperSizeReceipt58MM || p == PaperSizeReceipt80MM
}

// ParsePaperSize parses a configured paper size, defaulting to A5
func ParsePaperSize(s string) (PaperSize, error) {
	if s == "" {
		return PaperSizeA5, nil
	}
	p := PaperSize(s)
	if !p.IsValid() {
		return "", shared.NewValidationError("Unknown paper size: " + s)
	}
	return p, nil
}

// Orientation represents the page orientation
type Orientation string

const (
	OrientationPortrait  Orientation = "PORTRAIT"
	OrientationLandscape Orientation = "LANDSCAPE"
)

// IsValid checks if the Orientation is a valid value
func (o Orientation) IsValid() bool {
	return o == OrientationPortrait || o == OrientationLandscape
}

// Margins represents the page margins in millimeters
type Margins struct {
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
}

// NewMargins creates a new Margins value object
func NewMargins(top, right, bottom, left int) (Margins, error) {
	if top < 0 || right < 0 || bottom < 0 || left < 0 {
		return Margins{}, shared.NewValidationError("Margins cannot be negative")
	}
	if top > 100 || right > 100 || bottom > 100 || left > 100 {
		return Margins{}, shared.NewValidationError("Margins cannot exceed 100mm")
	}
	return Margins{Top: top, Right: right, Bottom: bottom, Left: left}, nil
}

// MarginsFor returns the default margins for a paper size
func MarginsFor(p PaperSize) Margins {
	if p.IsReceipt() {
		return Margins{Top: 2, Right: 2, Bottom: 2, Left: 2}
	}
	return Margins{Top: 10, Right: 10, Bottom: 10, Left: 10}
}
