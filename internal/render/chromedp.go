package render

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// Paper sizes in inches, as Chrome expects them.
var paperSizes = map[string][2]float64{
	"A4":     {210 / 25.4, 297 / 25.4},
	"LETTER": {8.5, 11},
}

// ChromeConfig contains configuration for the headless Chrome converter.
type ChromeConfig struct {
	// RemoteURL is the DevTools URL of a running Chrome. When empty a local
	// browser is launched on first use.
	RemoteURL string
	// NoSandbox runs Chrome without sandbox (required as root in containers).
	NoSandbox bool
	// Paper is "A4" or "Letter".
	Paper string
	// MarginInches is applied on every side.
	MarginInches float64
	Logger       *zap.Logger
}

// ChromeConverter converts HTML to PDF through the Chrome DevTools Protocol.
// One browser is shared by every conversion; each conversion gets its own tab.
type ChromeConverter struct {
	config      ChromeConfig
	logger      *zap.Logger
	allocCtx    context.Context
	allocCancel context.CancelFunc
	browserCtx  context.Context
	browserStop context.CancelFunc

	startOnce sync.Once
	startErr  error
}

// NewChromeConverter creates the browser allocator. The browser process
// itself starts with the first conversion.
func NewChromeConverter(config ChromeConfig) (*ChromeConverter, error) {
	if config.Paper == "" {
		config.Paper = "A4"
	}
	if _, ok := paperSizes[strings.ToUpper(config.Paper)]; !ok {
		return nil, fmt.Errorf("unsupported paper size %q", config.Paper)
	}
	if config.MarginInches == 0 {
		config.MarginInches = 0.4
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &ChromeConverter{config: config, logger: logger}

	if config.RemoteURL != "" {
		c.allocCtx, c.allocCancel = chromedp.NewRemoteAllocator(context.Background(), config.RemoteURL)
	} else {
		c.allocCtx, c.allocCancel = chromedp.NewExecAllocator(context.Background(), c.allocatorOptions()...)
	}

	c.browserCtx, c.browserStop = chromedp.NewContext(c.allocCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			c.logger.Debug(fmt.Sprintf(format, args...))
		}),
	)

	return c, nil
}

func (c *ChromeConverter) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("font-render-hinting", "none"),
	)

	if c.config.NoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}

	return opts
}

// Convert renders html in a fresh tab and prints it to PDF. The deadline of
// ctx bounds the whole conversion.
func (c *ChromeConverter) Convert(ctx context.Context, html string) ([]byte, error) {
	if strings.TrimSpace(html) == "" {
		return nil, NewRenderError(ErrCodeInvalidHTML, "HTML content is empty", nil)
	}

	if err := c.start(); err != nil {
		return nil, NewRenderError(ErrCodeRenderFailed, "failed to start browser", err)
	}

	tabCtx, tabCancel := chromedp.NewContext(c.browserCtx)
	defer tabCancel()

	// Propagate the caller's cancellation into the tab.
	stop := context.AfterFunc(ctx, tabCancel)
	defer stop()

	size := paperSizes[strings.ToUpper(c.config.Paper)]
	margin := c.config.MarginInches

	var pdf []byte
	err := chromedp.Run(tabCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, wrapDocument(html)).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(size[0]).
				WithPaperHeight(size[1]).
				WithMarginTop(margin).
				WithMarginRight(margin).
				WithMarginBottom(margin).
				WithMarginLeft(margin).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = data
			return nil
		}),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("conversion interrupted: %w", ctx.Err())
		}
		c.logger.Error("chromedp conversion failed", zap.Error(err))
		return nil, NewRenderError(ErrCodeRenderFailed, "chromedp execution failed", err)
	}

	return pdf, nil
}

// start launches (or attaches to) the browser once, so later tabs share it.
func (c *ChromeConverter) start() error {
	c.startOnce.Do(func() {
		c.startErr = chromedp.Run(c.browserCtx)
	})
	return c.startErr
}

// Close shuts the browser down.
func (c *ChromeConverter) Close() error {
	if c.browserStop != nil {
		c.browserStop()
	}
	if c.allocCancel != nil {
		c.allocCancel()
	}
	return nil
}

// wrapDocument completes an HTML fragment into a UTF-8 document.
func wrapDocument(html string) string {
	lower := strings.ToLower(html)
	if strings.Contains(lower, "<!doctype") || strings.Contains(lower, "<html") {
		return html
	}

	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><head><meta charset="UTF-8"></head><body>`)
	b.WriteString(html)
	b.WriteString(`</body></html>`)
	return b.String()
}

var _ PDFConverter = (*ChromeConverter)(nil)
