package duration

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/spigell/assessment-recommender/internal/logger"
	"github.com/spigell/assessment-recommender/internal/utils"
)

const (
	TierStatic   = "static"
	TierRendered = "rendered"

	defaultSettleDelay   = 2 * time.Second
	defaultRenderTimeout = 30 * time.Second
)

// Source returns the HTML of an assessment detail page.
type Source interface {
	Name() string
	Fetch(ctx context.Context, url string) (string, error)
}

// Getter is satisfied by pages.Client.
type Getter interface {
	Get(ctx context.Context, url string) (string, error)
}

// StaticSource fetches the page with a plain HTTP GET.
type StaticSource struct {
	Getter Getter
}

func (s StaticSource) Name() string { return TierStatic }

func (s StaticSource) Fetch(ctx context.Context, url string) (string, error) {
	return s.Getter.Get(ctx, url)
}

// BrowserConfig controls the headless browser used by RenderedSource.
type BrowserConfig struct {
	ExecPath      string
	Headless      bool
	UserAgent     string
	SettleDelay   time.Duration
	RenderTimeout time.Duration
}

// RenderedSource loads the page in headless Chrome, waits for client side
// scripts to settle and returns the resulting DOM. Every call starts and
// stops its own browser.
type RenderedSource struct {
	cfg    BrowserConfig
	logger *zap.Logger
}

func NewRenderedSource(cfg BrowserConfig, log *zap.Logger) *RenderedSource {
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = defaultSettleDelay
	}
	if cfg.RenderTimeout <= 0 {
		cfg.RenderTimeout = defaultRenderTimeout
	}

	return &RenderedSource{cfg: cfg, logger: logger.OrNop(log)}
}

func (r *RenderedSource) Name() string { return TierRendered }

func (r *RenderedSource) Fetch(ctx context.Context, url string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", r.cfg.Headless),
	)
	if r.cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(r.cfg.UserAgent))
	}
	if r.cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(r.cfg.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	runCtx, cancel := context.WithTimeout(browserCtx, r.cfg.RenderTimeout)
	defer cancel()

	r.logger.Debug("render page", logger.PageFields(url, TierRendered)...)

	var html string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.ActionFunc(func(ctx context.Context) error {
			return utils.WaitFor(ctx, r.cfg.SettleDelay)
		}),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", url, err)
	}

	return html, nil
}
