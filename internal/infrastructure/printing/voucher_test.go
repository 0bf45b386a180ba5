package printing

import (
	"context"
	"testing"
	"time"

	"github.com/procurement/backend/internal/domain/printing"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRenderer struct {
	req *RenderRequest
	err error
}

func (r *recordingRenderer) Render(_ context.Context, req *RenderRequest) ([]byte, error) {
	r.req = req
	if r.err != nil {
		return nil, r.err
	}
	return []byte("%PDF-1.4 voucher"), nil
}

func (r *recordingRenderer) Close() error { return nil }

func sampleVoucher() *printing.Voucher {
	released := time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)
	return &printing.Voucher{
		VoucherNumber: "CV-2026-001",
		CheckNumber:   "000123",
		BankName:      "BPI",
		Payee:         "Acme <Supply>",
		Amount:        decimal.RequireFromString("1234567.5"),
		Released:      &released,
		Lines: []printing.VoucherLine{
			{RequisitionNumber: "CR-202610-0001", Payee: "Acme <Supply>", Purpose: "Steel", Amount: decimal.RequireFromString("1234567.5")},
		},
		PreparedBy: "treasurer",
		PrintedAt:  time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC),
		Layout:     printing.VoucherLayout(),
	}
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0.00"},
		{"4000", "4,000.00"},
		{"1234567.5", "1,234,567.50"},
		{"0.015", "0.02"},
		{"-2500.25", "-2,500.25"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, formatMoney(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestVoucherPrinter_RenderHTML(t *testing.T) {
	p := NewVoucherPrinter(&recordingRenderer{})

	html, err := p.RenderHTML(sampleVoucher())
	require.NoError(t, err)

	assert.Contains(t, html, "CV-2026-001")
	assert.Contains(t, html, "PHP 1,234,567.50")
	assert.Contains(t, html, "Oct 14, 2026")
	assert.Contains(t, html, "Acme &lt;Supply&gt;")
	assert.NotContains(t, html, "Remarks:")
	assert.Contains(t, html, "Printed 2026-10-15 08:00 UTC")
}

func TestVoucherPrinter_PrintVoucher(t *testing.T) {
	renderer := &recordingRenderer{}
	p := NewVoucherPrinter(renderer)

	pdf, err := p.PrintVoucher(context.Background(), sampleVoucher())
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4 voucher"), pdf)

	require.NotNil(t, renderer.req)
	assert.Equal(t, printing.PaperSizeA4, renderer.req.Layout.PaperSize)
	assert.Equal(t, "Check Voucher CV-2026-001", renderer.req.Title)
	assert.NotEmpty(t, renderer.req.FooterHTML)
}

func TestVoucherPrinter_RendererError(t *testing.T) {
	renderer := &recordingRenderer{err: NewRenderError(ErrCodeRenderTimeout, "timed out", nil)}
	_, err := NewVoucherPrinter(renderer).PrintVoucher(context.Background(), sampleVoucher())

	var rerr *RenderError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, ErrCodeRenderTimeout, rerr.Code)
}
