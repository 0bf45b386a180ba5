package printing

import (
	"context"
	"testing"

	"github.com/procurement/backend/internal/domain/printing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintParams(t *testing.T) {
	tests := []struct {
		name      string
		layout    printing.Layout
		width     int
		height    int
		landscape bool
	}{
		{"voucher", printing.VoucherLayout(), 210, 297, false},
		{"letter", printing.Layout{PaperSize: printing.PaperSizeLetter}, 216, 279, false},
		{"legal landscape", printing.Layout{PaperSize: printing.PaperSizeLegal, Orientation: printing.OrientationLandscape}, 216, 356, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := printParams(&RenderRequest{HTML: "<p>CV</p>", Layout: tt.layout})
			assert.InDelta(t, inches(tt.width), p.PaperWidth, 0.001)
			assert.InDelta(t, inches(tt.height), p.PaperHeight, 0.001)
			assert.Equal(t, tt.landscape, p.Landscape)
			assert.True(t, p.PrintBackground)
			assert.False(t, p.DisplayHeaderFooter)
		})
	}
}

func TestPrintParams_VoucherMargins(t *testing.T) {
	p := printParams(&RenderRequest{HTML: "<p>CV</p>", Layout: printing.VoucherLayout()})
	for _, m := range []float64{p.MarginTop, p.MarginRight, p.MarginBottom, p.MarginLeft} {
		assert.InDelta(t, 12/25.4, m, 0.001)
	}
}

func TestPrintParams_FooterReservesSpace(t *testing.T) {
	margins, err := printing.NewMargins(2, 2, 2, 2)
	require.NoError(t, err)

	p := printParams(&RenderRequest{
		HTML:       "<p>CV</p>",
		Layout:     printing.Layout{PaperSize: printing.PaperSizeA4, Margins: margins},
		FooterHTML: `<span class="pageNumber"></span>`,
	})
	assert.True(t, p.DisplayHeaderFooter)
	assert.InDelta(t, inches(2), p.MarginTop, 0.001)
	assert.InDelta(t, inches(footerReserveMM), p.MarginBottom, 0.001)
	assert.Equal(t, `<span class="pageNumber"></span>`, p.FooterTemplate)
}

func TestRender_RejectsBadRequests(t *testing.T) {
	r := &ChromedpRenderer{}
	var rerr *RenderError

	_, err := r.Render(context.Background(), nil)
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, ErrCodeInvalidRequest, rerr.Code)

	_, err = r.Render(context.Background(), &RenderRequest{HTML: "<p>x</p>", Layout: printing.Layout{PaperSize: "A5"}})
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, ErrCodeInvalidRequest, rerr.Code)

	_, err = r.Render(context.Background(), &RenderRequest{HTML: "<p>x</p>", Layout: printing.VoucherLayout()})
	assert.ErrorIs(t, err, ErrRendererUnavailable)
	assert.NoError(t, r.Close())
}
