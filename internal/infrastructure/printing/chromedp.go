package printing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/procurement/backend/internal/domain/printing"
	"github.com/procurement/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

const defaultRenderTimeout = 30 * time.Second

// footerReserveMM keeps room for the page footer below the content
const footerReserveMM = 10

// ChromedpRenderer prints HTML through headless Chrome. With a ChromeURL it
// attaches to a running browser, otherwise it launches one per render.
type ChromedpRenderer struct {
	timeout     time.Duration
	logger      *zap.Logger
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

// NewChromedpRenderer creates the renderer. No browser is started until the
// first render.
func NewChromedpRenderer(cfg config.PrintingConfig, logger *zap.Logger) *ChromedpRenderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultRenderTimeout
	}

	r := &ChromedpRenderer{timeout: timeout, logger: logger.Named("chromedp")}
	if cfg.ChromeURL != "" {
		r.allocCtx, r.allocCancel = chromedp.NewRemoteAllocator(context.Background(), cfg.ChromeURL)
	} else {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.DisableGPU,
			chromedp.NoSandbox,
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("font-render-hinting", "none"),
		)
		r.allocCtx, r.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	}
	return r
}

// Render loads the HTML into a blank tab and prints it
func (r *ChromedpRenderer) Render(ctx context.Context, req *RenderRequest) ([]byte, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if r.allocCtx == nil {
		return nil, ErrRendererUnavailable
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tabCtx, tabCancel := chromedp.NewContext(r.allocCtx, chromedp.WithLogf(r.logger.Sugar().Debugf))
	defer tabCancel()
	// the tab must die with the request
	stop := context.AfterFunc(ctx, tabCancel)
	defer stop()

	var pdf []byte
	err := chromedp.Run(tabCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, req.HTML).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdf, _, err = printParams(req).Do(ctx)
			return err
		}),
	)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, NewRenderError(ErrCodeRenderTimeout, fmt.Sprintf("rendering %q timed out after %v", req.Title, r.timeout), err)
		}
		return nil, NewRenderError(ErrCodeRenderFailed, fmt.Sprintf("rendering %q failed", req.Title), err)
	}
	if len(pdf) == 0 {
		return nil, NewRenderError(ErrCodeRenderFailed, "chrome returned an empty document", nil)
	}

	r.logger.Debug("PDF rendered",
		zap.String("title", req.Title),
		zap.Int("bytes", len(pdf)),
		zap.Duration("duration", time.Since(start)))
	return pdf, nil
}

// Close stops the browser or drops the remote connection
func (r *ChromedpRenderer) Close() error {
	if r.allocCancel != nil {
		r.allocCancel()
	}
	return nil
}

func validateRequest(req *RenderRequest) error {
	switch {
	case req == nil || strings.TrimSpace(req.HTML) == "":
		return NewRenderError(ErrCodeInvalidRequest, "document is empty", nil)
	case !req.Layout.PaperSize.IsValid():
		return NewRenderError(ErrCodeInvalidRequest, "unsupported paper size "+string(req.Layout.PaperSize), nil)
	case req.Layout.Orientation != "" && !req.Layout.Orientation.IsValid():
		return NewRenderError(ErrCodeInvalidRequest, "unsupported orientation "+string(req.Layout.Orientation), nil)
	}
	return nil
}

// printParams converts the millimeter layout to Chrome's inch based
// parameters
func printParams(req *RenderRequest) *page.PrintToPDFParams {
	width, height := req.Layout.PaperSize.Dimensions()
	m := req.Layout.Margins
	bottom := m.Bottom
	if req.FooterHTML != "" && bottom < footerReserveMM {
		bottom = footerReserveMM
	}

	p := page.PrintToPDF().
		WithPaperWidth(inches(width)).
		WithPaperHeight(inches(height)).
		WithMarginTop(inches(m.Top)).
		WithMarginRight(inches(m.Right)).
		WithMarginBottom(inches(bottom)).
		WithMarginLeft(inches(m.Left)).
		WithLandscape(req.Layout.Orientation == printing.OrientationLandscape).
		WithPrintBackground(true).
		WithPreferCSSPageSize(false)
	if req.FooterHTML != "" {
		p = p.WithDisplayHeaderFooter(true).
			WithHeaderTemplate("<span></span>").
			WithFooterTemplate(req.FooterHTML)
	}
	return p
}

func inches(mm int) float64 {
	return float64(mm) / 25.4
}

var _ PDFRenderer = (*ChromedpRenderer)(nil)
