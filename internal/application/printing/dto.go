package printing

import (
	"strings"

	"github.com/procurement/backend/internal/domain/shared"
)

// PDFContentType is the media type of printed documents
const PDFContentType = "application/pdf"

// ErrPrintingUnavailable is returned when no PDF renderer is configured
var ErrPrintingUnavailable = shared.NewDomainError("PRINTING_UNAVAILABLE", "Voucher printing is not configured")

// VoucherPDF is a printed voucher ready for download
type VoucherPDF struct {
	FileName string
	Content  []byte
}

func voucherFileName(voucherNumber string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, voucherNumber)
	return "voucher-" + safe + ".pdf"
}
