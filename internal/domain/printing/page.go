package printing

import "github.com/procurement/backend/internal/domain/shared"

// PaperSize represents the paper size for printing
type PaperSize string

const (
	PaperSizeA4     PaperSize = "A4"     // 210mm x 297mm
	PaperSizeLetter PaperSize = "LETTER" // 216mm x 279mm
	PaperSizeLegal  PaperSize = "LEGAL"  // 216mm x 356mm
)

// IsValid checks if the PaperSize is a valid value
func (p PaperSize) IsValid() bool {
	switch p {
	case PaperSizeA4, PaperSizeLetter, PaperSizeLegal:
		return true
	}
	return false
}

// String returns the string representation of PaperSize
func (p PaperSize) String() string {
	return string(p)
}

// Dimensions returns the paper dimensions in millimeters (width, height)
func (p PaperSize) Dimensions() (width, height int) {
	switch p {
	case PaperSizeLetter:
		return 216, 279
	case PaperSizeLegal:
		return 216, 356
	default:
		return 210, 297
	}
}

// Orientation represents the page orientation for printing
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
	for _, v := range []int{top, right, bottom, left} {
		if v < 0 {
			return Margins{}, shared.NewDomainError("INVALID_MARGINS", "Margins cannot be negative")
		}
		if v > 100 {
			return Margins{}, shared.NewDomainError("INVALID_MARGINS", "Margins cannot exceed 100mm")
		}
	}
	return Margins{Top: top, Right: right, Bottom: bottom, Left: left}, nil
}

// DefaultMargins returns the page margins used for vouchers
func DefaultMargins() Margins {
	return Margins{Top: 12, Right: 12, Bottom: 12, Left: 12}
}

// Layout is the page setup a document is printed with
type Layout struct {
	PaperSize   PaperSize
	Orientation Orientation
	Margins     Margins
}

// VoucherLayout is the page setup of check vouchers
func VoucherLayout() Layout {
	return Layout{
		PaperSize:   PaperSizeA4,
		Orientation: OrientationPortrait,
		Margins:     DefaultMargins(),
	}
}
