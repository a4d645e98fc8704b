package report

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"hotfire/internal/config"
)

// PDFRenderer prints HTML documents with headless Chrome.
type PDFRenderer struct {
	// ExecPath overrides Chrome discovery when set.
	ExecPath string
	// NoSandbox is needed when running as root in containers.
	NoSandbox bool
	Timeout   time.Duration
	Logger    *slog.Logger
}

// NewPDFRenderer returns a renderer with the default timeout.
func NewPDFRenderer(execPath string, logger *slog.Logger) *PDFRenderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFRenderer{
		ExecPath: execPath,
		Timeout:  config.PDFRenderTimeout,
		Logger:   logger.With(slog.String("component", "pdf_renderer")),
	}
}

// Render prints doc to PDF.
func (r *PDFRenderer) Render(ctx context.Context, doc *Document) ([]byte, error) {
	var html bytes.Buffer
	if err := doc.WriteHTML(&html); err != nil {
		return nil, err
	}
	return r.Print(ctx, html.String())
}

// Print loads html into a blank page and prints it with backgrounds.
func (r *PDFRenderer) Print(ctx context.Context, html string) ([]byte, error) {
	start := time.Now()
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = config.PDFRenderTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if r.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(r.ExecPath))
	}
	if r.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	var pdf []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdf, _, err = page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			return err
		}),
	)
	if err != nil {
		r.Logger.ErrorContext(ctx, "pdf render failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("print pdf: %w", err)
	}

	r.Logger.InfoContext(ctx, "pdf rendered",
		slog.Int("bytes", len(pdf)),
		slog.Duration("duration", time.Since(start)))
	return pdf, nil
}
