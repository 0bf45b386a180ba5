package printing

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/procurement/backend/internal/domain/printing"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var amountPrinter = message.NewPrinter(language.English)

var voucherFuncs = template.FuncMap{
	"money": formatMoney,
	"date":  formatDate,
}

var voucherTemplate = template.Must(template.New("voucher").Funcs(voucherFuncs).Parse(voucherHTML))

// VoucherPrinter renders check vouchers to PDF
type VoucherPrinter struct {
	renderer PDFRenderer
}

// NewVoucherPrinter creates a new VoucherPrinter
func NewVoucherPrinter(renderer PDFRenderer) *VoucherPrinter {
	return &VoucherPrinter{renderer: renderer}
}

// RenderHTML renders the voucher body
func (p *VoucherPrinter) RenderHTML(v *printing.Voucher) (string, error) {
	var buf bytes.Buffer
	if err := voucherTemplate.Execute(&buf, v); err != nil {
		return "", NewRenderError(ErrCodeTemplateFailed, "failed to render voucher template", err)
	}
	return buf.String(), nil
}

// PrintVoucher renders the voucher and prints it to PDF
func (p *VoucherPrinter) PrintVoucher(ctx context.Context, v *printing.Voucher) ([]byte, error) {
	html, err := p.RenderHTML(v)
	if err != nil {
		return nil, err
	}
	return p.renderer.Render(ctx, &RenderRequest{
		HTML:       html,
		Layout:     v.Layout,
		Title:      "Check Voucher " + v.VoucherNumber,
		FooterHTML: `<div style="font-size:8px;width:100%;text-align:center"><span class="pageNumber"></span> / <span class="totalPages"></span></div>`,
	})
}

// formatMoney groups thousands and keeps exactly two decimals
func formatMoney(d decimal.Decimal) string {
	d = d.Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	whole := d.Truncate(0)
	cents := d.Sub(whole).Shift(2).IntPart()
	return fmt.Sprintf("%s%s.%02d", sign, amountPrinter.Sprintf("%d", whole.IntPart()), cents)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("Jan 2, 2006")
}

const voucherHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>Check Voucher {{.VoucherNumber}}</title>
<style>
  body { font-family: Arial, Helvetica, sans-serif; font-size: 12px; color: #111; }
  h1 { font-size: 18px; text-align: center; margin: 0 0 12px; letter-spacing: 2px; }
  table { width: 100%; border-collapse: collapse; }
  .meta td { padding: 3px 4px; }
  .meta td.label { width: 22%; font-weight: bold; }
  .lines { margin-top: 14px; }
  .lines th, .lines td { border: 1px solid #444; padding: 4px 6px; }
  .lines th { background: #eee; text-align: left; }
  .num { text-align: right; white-space: nowrap; }
  .total td { font-weight: bold; }
  .signatures { margin-top: 40px; }
  .signatures td { width: 33%; padding-top: 30px; text-align: center; border-top: 1px solid #444; }
</style>
</head>
<body>
<h1>CHECK VOUCHER</h1>
<table class="meta">
  <tr><td class="label">Voucher No.</td><td>{{.VoucherNumber}}</td><td class="label">Check No.</td><td>{{.CheckNumber}}</td></tr>
  <tr><td class="label">Payee</td><td>{{.Payee}}</td><td class="label">Bank</td><td>{{.BankName}}</td></tr>
  <tr><td class="label">Scheduled</td><td>{{date .Scheduled}}</td><td class="label">Printed</td><td>{{date .Printing}}</td></tr>
  <tr><td class="label">Released</td><td>{{date .Released}}</td><td class="label">Amount</td><td class="num">PHP {{money .Amount}}</td></tr>
</table>
<table class="lines">
  <thead><tr><th>Requisition</th><th>Payee</th><th>Purpose</th><th class="num">Amount</th></tr></thead>
  <tbody>
  {{- range .Lines}}
  <tr><td>{{.RequisitionNumber}}</td><td>{{.Payee}}</td><td>{{.Purpose}}</td><td class="num">{{money .Amount}}</td></tr>
  {{- end}}
  <tr class="total"><td colspan="3">Total</td><td class="num">{{money .Amount}}</td></tr>
  </tbody>
</table>
{{- if .Remarks}}
<p><strong>Remarks:</strong> {{.Remarks}}</p>
{{- end}}
<table class="signatures">
  <tr><td>Prepared by{{if .PreparedBy}}<br>{{.PreparedBy}}{{end}}</td><td>Approved by</td><td>Received by</td></tr>
</table>
<p style="font-size:9px;color:#666">Printed {{.PrintedAt.Format "2006-01-02 15:04 MST"}}</p>
</body>
</html>
`
