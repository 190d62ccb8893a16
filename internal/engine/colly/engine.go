// Package collyengine implements the platform fetch engine using gocolly.
package collyengine

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/lihongqing2001-gif/XhsInsight/internal/engine/notepage"
	"github.com/lihongqing2001-gif/XhsInsight/internal/engine/signer"
	"github.com/lihongqing2001-gif/XhsInsight/internal/insight"
)

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Engine fetches note pages with the Colly collector, presenting the pooled
// credential as the session cookie and signing each request via the external
// signer.
type Engine struct {
	cfg           Config
	signer        *signer.Signer
	baseCollector *colly.Collector
	logger        *zap.Logger
}

// New builds an Engine.
func New(cfg Config, sig *signer.Signer, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := colly.NewCollector(colly.Async(false))
	c.IgnoreRobotsTxt = true
	c.WithTransport(newHTTPTransport())

	return &Engine{
		cfg:           cfg,
		signer:        sig,
		baseCollector: c,
		logger:        logger,
	}
}

// Fetch retrieves and parses one note page. A missing JS runtime surfaces as
// insight.ErrEngineUnavailable before any credential is presented to the
// platform, so unavailable environments never consume pool state.
func (e *Engine) Fetch(ctx context.Context, noteURL string, credential string) (insight.NoteContent, error) {
	parsed, err := url.Parse(noteURL)
	if err != nil {
		return insight.NoteContent{}, fmt.Errorf("parse note url: %w", err)
	}

	sig, err := e.signer.Sign(ctx, parsed.Path, credential)
	if err != nil {
		return insight.NoteContent{}, err
	}

	var (
		body     []byte
		status   int
		fetchErr error
	)
	collector := e.baseCollector.Clone()
	if e.cfg.UserAgent != "" {
		collector.UserAgent = e.cfg.UserAgent
	}
	timeout := e.cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	collector.SetRequestTimeout(timeout)

	collector.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Cookie", credential)
		r.Headers.Set("X-S", sig.XS)
		r.Headers.Set("X-T", sig.XT)
	})
	collector.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = append([]byte(nil), r.Body...)
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
			body = append([]byte(nil), r.Body...)
		}
		fetchErr = err
	})

	if err := e.runCollector(ctx, collector, noteURL); err != nil {
		return insight.NoteContent{}, err
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return insight.NoteContent{}, fmt.Errorf("status %d: %w", status, insight.ErrAuthRejected)
	}
	if fetchErr != nil {
		return insight.NoteContent{}, fmt.Errorf("fetch note page: %w", fetchErr)
	}
	if notepage.IsLoginWall(body) {
		return insight.NoteContent{}, fmt.Errorf("login required: %w", insight.ErrAuthRejected)
	}

	return notepage.Parse(noteURL, body)
}

func (e *Engine) runCollector(ctx context.Context, collector *colly.Collector, noteURL string) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(noteURL)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("visit note page: %w", err)
		}
		return nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
