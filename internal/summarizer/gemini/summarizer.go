// Package gemini summarizes note content with the Gemini generateContent API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lihongqing2001-gif/XhsInsight/internal/metrics"
)

// Config captures the parameters required to call the API.
type Config struct {
	Endpoint string
	Model    string
	APIKey   string
	Timeout  time.Duration
}

// Summarizer calls the Gemini REST API. Summarization errors are reported to
// the caller verbatim and never retried here.
type Summarizer struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

// New constructs a Summarizer.
func New(cfg Config, logger *zap.Logger) (*Summarizer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://generativelanguage.googleapis.com"
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Init()
	return &Summarizer{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}, nil
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Summarize produces an analysis of the note.
func (s *Summarizer) Summarize(ctx context.Context, title string, body string, topComments []string) (string, error) {
	payload, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: buildPrompt(title, body, topComments)}}}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent",
		strings.TrimRight(s.cfg.Endpoint, "/"), s.cfg.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", s.cfg.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		metrics.ObserveSummaryFailure()
		return "", fmt.Errorf("call summarizer: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		metrics.ObserveSummaryFailure()
		return "", fmt.Errorf("read summarizer response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		metrics.ObserveSummaryFailure()
		return "", fmt.Errorf("summarizer returned status %d", resp.StatusCode)
	}

	var decoded generateResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		metrics.ObserveSummaryFailure()
		return "", fmt.Errorf("decode summarizer response: %w", err)
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		metrics.ObserveSummaryFailure()
		return "", fmt.Errorf("summarizer returned no candidates")
	}
	return strings.TrimSpace(decoded.Candidates[0].Content.Parts[0].Text), nil
}

func buildPrompt(title string, body string, topComments []string) string {
	var b strings.Builder
	b.WriteString("你是一名内容分析助手。请阅读以下笔记并输出一段简洁的中文分析，")
	b.WriteString("涵盖主题、亮点与受众反应。\n\n")
	fmt.Fprintf(&b, "标题：%s\n\n正文：\n%s\n", title, body)
	if len(topComments) > 0 {
		b.WriteString("\n热门评论：\n")
		for _, c := range topComments {
			fmt.Fprintf(&b, "- %s\n", c)
		}
	}
	return b.String()
}
