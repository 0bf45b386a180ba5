// Package printing renders check vouchers to PDF.
//
// A voucher is executed against an html/template and the resulting page is
// printed by headless Chrome over the DevTools protocol:
//
//	renderer := NewChromedpRenderer(cfg.Printing, logger)
//	defer renderer.Close()
//	pdf, err := NewVoucherPrinter(renderer).PrintVoucher(ctx, voucher)
package printing
