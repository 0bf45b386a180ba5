package procurement

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Document number prefixes
const (
	PurchaseOrderNumberPrefix    = "PO"
	CheckRequisitionNumberPrefix = "CR"
)

// DocumentNumberPeriod returns the per-month prefix, e.g. "PO-202610-"
func DocumentNumberPeriod(prefix string, at time.Time) string {
	return fmt.Sprintf("%s-%s-", prefix, at.UTC().Format("200601"))
}

// FormatDocumentNumber builds "<prefix>-YYYYMM-NNNN"
func FormatDocumentNumber(prefix string, at time.Time, seq int) string {
	return fmt.Sprintf("%s%04d", DocumentNumberPeriod(prefix, at), seq)
}

// ParseDocumentSequence extracts the trailing sequence of a document number
func ParseDocumentSequence(number string) (int, bool) {
	idx := strings.LastIndex(number, "-")
	if idx < 0 || idx == len(number)-1 {
		return 0, false
	}
	seq, err := strconv.Atoi(number[idx+1:])
	if err != nil || seq < 0 {
		return 0, false
	}
	return seq, true
}
