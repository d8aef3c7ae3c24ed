package fetcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"go.uber.org/zap"
)

// RodRenderer renders pages in headless Chrome with stealth patches
// applied. The browser is started on first use and shared by all calls.
type RodRenderer struct {
	controlURL string
	userAgent  string
	idle       time.Duration
	logger     *zap.Logger

	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	failed  error
}

// NewRodRenderer creates a renderer. controlURL connects to an already
// running browser; empty launches a local one.
func NewRodRenderer(controlURL, userAgent string, idle time.Duration, logger *zap.Logger) *RodRenderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if idle <= 0 {
		idle = 500 * time.Millisecond
	}
	return &RodRenderer{controlURL: controlURL, userAgent: userAgent, idle: idle, logger: logger}
}

func (r *RodRenderer) connect() (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil {
		return r.browser, nil
	}
	if r.failed != nil {
		return nil, r.failed
	}

	wsURL := r.controlURL
	if wsURL == "" {
		l := launcher.New().
			Headless(true).
			Set("disable-blink-features", "AutomationControlled")
		u, err := l.Launch()
		if err != nil {
			r.failed = fmt.Errorf("%w: launch: %v", ErrBrowserUnavailable, err)
			return nil, r.failed
		}
		wsURL = u
		r.lnch = l
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		r.failed = fmt.Errorf("%w: connect: %v", ErrBrowserUnavailable, err)
		return nil, r.failed
	}
	r.logger.Info("browser started", zap.String("control_url", wsURL))
	r.browser = b
	return b, nil
}

// Render navigates to url, waits for the network to go idle and returns the
// document markup. The browser does not expose the navigation status, so a
// page that loads is reported as 200.
func (r *RodRenderer) Render(ctx context.Context, url string) (string, int, error) {
	b, err := r.connect()
	if err != nil {
		return "", 0, err
	}

	page, err := stealth.Page(b)
	if err != nil {
		return "", 0, fmt.Errorf("open tab: %w", err)
	}
	defer page.Close()

	page = page.Context(ctx)
	if r.userAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: r.userAgent}); err != nil {
			r.logger.Debug("user agent override failed", zap.Error(err))
		}
	}

	wait := page.WaitRequestIdle(r.idle, nil, nil, nil)
	if err := page.Navigate(url); err != nil {
		return "", 0, fmt.Errorf("navigate %s: %w", url, err)
	}
	wait()

	html, err := page.HTML()
	if err != nil {
		return "", 0, fmt.Errorf("read document: %w", err)
	}
	return html, 200, nil
}

// Close shuts the browser down.
func (r *RodRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	if r.browser != nil {
		err = r.browser.Close()
		r.browser = nil
	}
	if r.lnch != nil {
		r.lnch.Cleanup()
		r.lnch = nil
	}
	return err
}
