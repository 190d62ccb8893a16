// Package headless fetches note pages with a real browser for sessions the
// plain HTTP engine cannot satisfy.
package headless

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/lihongqing2001-gif/XhsInsight/internal/engine/notepage"
	"github.com/lihongqing2001-gif/XhsInsight/internal/insight"
)

// Config controls the behavior of the headless engine.
type Config struct {
	MaxParallel       int
	UserAgent         string
	NavigationTimeout time.Duration
}

// Engine implements insight.FetchEngine using chromedp and headless Chrome.
// A missing browser binary is reported as insight.ErrEngineUnavailable so the
// orchestrator falls back instead of burning credentials.
type Engine struct {
	cfg         Config
	limiter     chan struct{}
	allocator   context.Context
	allocCancel context.CancelFunc
	logger      *zap.Logger

	probeOnce sync.Once
	probeErr  error
}

// New creates a headless engine backed by chromedp.
func New(cfg Config, logger *zap.Logger) (*Engine, error) {
	if cfg.MaxParallel < 0 {
		return nil, fmt.Errorf("max parallel must be >= 0")
	}
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = 45 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	var limiter chan struct{}
	if cfg.MaxParallel > 0 {
		limiter = make(chan struct{}, cfg.MaxParallel)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("enable-automation", false),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &Engine{
		cfg:         cfg,
		limiter:     limiter,
		allocator:   allocCtx,
		allocCancel: allocCancel,
		logger:      logger,
	}, nil
}

// Close cancels the allocator context.
func (e *Engine) Close() {
	e.allocCancel()
}

// Fetch navigates to the note page with the credential installed as the
// session cookie and parses the rendered DOM.
func (e *Engine) Fetch(ctx context.Context, noteURL string, credential string) (insight.NoteContent, error) {
	if err := e.browserReady(); err != nil {
		return insight.NoteContent{}, err
	}
	if err := e.acquire(ctx); err != nil {
		return insight.NoteContent{}, err
	}
	defer e.release()

	taskCtx, taskCancel := chromedp.NewContext(e.allocator)
	defer taskCancel()

	taskCtx, cancel := context.WithTimeout(taskCtx, e.cfg.NavigationTimeout)
	defer cancel()

	html, finalURL, err := e.runHeadless(taskCtx, noteURL, credential)
	if err != nil {
		return insight.NoteContent{}, err
	}
	if strings.Contains(finalURL, "/login") || notepage.IsLoginWall([]byte(html)) {
		return insight.NoteContent{}, fmt.Errorf("redirected to login: %w", insight.ErrAuthRejected)
	}

	return notepage.Parse(noteURL, []byte(html))
}

// browserReady probes once for a usable Chrome binary. chromedp reports a
// missing browser only at Run time with an opaque exec error, so checking up
// front keeps the unavailability signal clean.
func (e *Engine) browserReady() error {
	e.probeOnce.Do(func() {
		for _, bin := range []string{"google-chrome", "chromium", "chromium-browser", "headless-shell"} {
			if _, err := exec.LookPath(bin); err == nil {
				return
			}
		}
		e.probeErr = fmt.Errorf("no chrome binary on PATH: %w", insight.ErrEngineUnavailable)
	})
	return e.probeErr
}

func (e *Engine) runHeadless(ctx context.Context, noteURL string, credential string) (string, string, error) {
	var (
		html     string
		finalURL string
	)
	actions := []chromedp.Action{
		e.networkSetupAction(credential),
		chromedp.Navigate(noteURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(500 * time.Millisecond),
		chromedp.Location(&finalURL),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	}
	if err := chromedp.Run(ctx, actions...); err != nil {
		return "", "", fmt.Errorf("chromedp run: %w", err)
	}
	return html, finalURL, nil
}

func (e *Engine) networkSetupAction(credential string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := network.Enable().Do(ctx); err != nil {
			return fmt.Errorf("enable network domain: %w", err)
		}
		if e.cfg.UserAgent != "" {
			if err := emulation.SetUserAgentOverride(e.cfg.UserAgent).Do(ctx); err != nil {
				return fmt.Errorf("set user-agent: %w", err)
			}
		}
		headers := network.Headers{"Cookie": credential}
		if err := network.SetExtraHTTPHeaders(headers).Do(ctx); err != nil {
			return fmt.Errorf("set cookie header: %w", err)
		}
		return nil
	})
}

func (e *Engine) acquire(ctx context.Context) error {
	if e.limiter == nil {
		return nil
	}
	select {
	case e.limiter <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("headless slot wait canceled: %w", ctx.Err())
	}
}

func (e *Engine) release() {
	if e.limiter == nil {
		return
	}
	select {
	case <-e.limiter:
	default:
	}
}
