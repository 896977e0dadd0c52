// Package gemini transcribes document photos with a Gemini vision model.
// The reply must be the JSON described by llm.TranscriptionJSONSchema.
package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"github.com/joseph-ayodele/docscan/internal/common"
	"github.com/joseph-ayodele/docscan/internal/llm"
	"github.com/joseph-ayodele/docscan/internal/progress"
	"github.com/joseph-ayodele/docscan/internal/provider"
)

const (
	DefaultModel = "gemini-1.5-flash"
	// fallbackConfidence applies when the model omits a confidence.
	fallbackConfidence = 80.0
)

type Config struct {
	APIKey    string
	Model     string
	Languages []string
	Timeout   time.Duration
}

type Client struct {
	cfg    Config
	gen    llm.Generator
	prompt string
	log    *slog.Logger
}

type Option func(*Client)

// WithGenerator replaces the Gemini API call.
func WithGenerator(g llm.Generator) Option {
	return func(c *Client) { c.gen = g }
}

func New(cfg Config, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	c := &Client{cfg: cfg, log: logger, prompt: llm.BuildTranscriptionPrompt(cfg.Languages)}
	c.gen = llm.GeneratorFunc(c.generate)
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) Name() string { return common.ProviderGemini }

func (c *Client) Recognize(ctx context.Context, img provider.Image, _ *progress.Reporter) (provider.Result, error) {
	rid := uuid.New().String()
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	raw, err := c.gen.Generate(ctx, c.prompt, img.Data, img.ContentType())
	if err != nil {
		c.log.Debug("gemini.call_error", "req_id", rid, "model", c.cfg.Model, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return provider.Result{}, common.Unavailable(c.Name(), err)
	}
	tr, changed, err := llm.ParseTranscription(raw)
	if len(changed) > 0 {
		c.log.Debug("gemini.sanitized", "req_id", rid, "changes", changed)
	}
	if err != nil {
		c.log.Debug("gemini.reply_invalid", "req_id", rid, "error", err, "raw", truncate(raw, 300))
		return provider.Result{}, common.Invalid(c.Name(), err.Error())
	}

	conf := tr.Confidence
	if conf == 0 {
		conf = fallbackConfidence
	}
	c.log.Info("gemini.ok",
		"req_id", rid,
		"model", c.cfg.Model,
		"chars", len(tr.Text),
		"confidence", conf,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return provider.Result{Text: tr.Text, Confidence: conf, Provider: c.Name()}, nil
}

func (c *Client) generate(ctx context.Context, prompt string, img []byte, mimeType string) (string, error) {
	if c.cfg.APIKey == "" {
		return "", fmt.Errorf("GEMINI_API_KEY is empty")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(c.cfg.APIKey))
	if err != nil {
		return "", fmt.Errorf("genai client: %w", err)
	}
	defer func() {
		if cerr := cl.Close(); cerr != nil {
			c.log.Warn("gemini.close_failed", "error", cerr)
		}
	}()

	m := cl.GenerativeModel(c.cfg.Model)
	temp := float32(0)
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      &temp,
		ResponseMIMEType: "application/json",
	}
	m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(prompt)}}

	resp, err := m.GenerateContent(ctx,
		genai.Text("Transcribe this document."),
		&genai.Blob{MIMEType: mimeType, Data: img},
	)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	return firstText(resp), nil
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, p := range cand.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
