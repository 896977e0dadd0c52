// Package ocrspace is the OCR.space parse/image provider.
package ocrspace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docscan/internal/common"
	"github.com/joseph-ayodele/docscan/internal/ocr"
	"github.com/joseph-ayodele/docscan/internal/progress"
	"github.com/joseph-ayodele/docscan/internal/provider"
)

const (
	DefaultEndpoint = "https://api.ocr.space/parse/image"
	exitSuccess     = 1
)

type Config struct {
	APIKey   string
	Endpoint string
	Language string // default "eng"
	Engine   int    // OCREngine; default 2
	Timeout  time.Duration
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *slog.Logger
}

// New returns a client; httpClient may be nil.
func New(cfg Config, httpClient *http.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	if cfg.Engine == 0 {
		cfg.Engine = 2
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{cfg: cfg, httpClient: httpClient, log: logger}
}

func (c *Client) Name() string { return common.ProviderOCRSpace }

type parseResponse struct {
	ParsedResults []struct {
		ParsedText string `json:"ParsedText"`
	} `json:"ParsedResults"`
	OCRExitCode           int             `json:"OCRExitCode"`
	IsErroredOnProcessing bool            `json:"IsErroredOnProcessing"`
	ErrorMessage          json.RawMessage `json:"ErrorMessage"`
}

// Recognize posts the image as multipart form data. A reply is usable only
// when OCRExitCode is 1 and the first parsed result carries text.
func (c *Client) Recognize(ctx context.Context, img provider.Image, _ *progress.Reporter) (provider.Result, error) {
	rid := uuid.New().String()
	start := time.Now()

	if c.cfg.APIKey == "" {
		return provider.Result{}, common.Unavailable(c.Name(), fmt.Errorf("OCRSPACE_API_KEY is empty"))
	}

	body, contentType, err := c.form(img)
	if err != nil {
		return provider.Result{}, common.Unavailable(c.Name(), err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, body)
	if err != nil {
		return provider.Result{}, common.Unavailable(c.Name(), err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("apikey", c.cfg.APIKey)

	c.log.Debug("ocrspace.request", "req_id", rid, "bytes", len(img.Data), "engine", c.cfg.Engine)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return provider.Result{}, common.Unavailable(c.Name(), fmt.Errorf("ocrspace http error: %w", err))
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			c.log.Warn("ocrspace.response_body_close_error", "req_id", rid, "error", err)
		}
	}(resp.Body)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return provider.Result{}, common.Unavailable(c.Name(), fmt.Errorf("read body: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return provider.Result{}, common.Unavailable(c.Name(),
			fmt.Errorf("ocrspace status %d: %s", resp.StatusCode, truncate(string(raw), 256)))
	}

	var pr parseResponse
	if err := json.Unmarshal(raw, &pr); err != nil {
		return provider.Result{}, common.Invalid(c.Name(), "decode response: "+err.Error())
	}
	if pr.OCRExitCode != exitSuccess || len(pr.ParsedResults) == 0 {
		return provider.Result{}, common.Invalid(c.Name(),
			fmt.Sprintf("exit code %d: %s", pr.OCRExitCode, errorMessage(pr.ErrorMessage)))
	}
	text := pr.ParsedResults[0].ParsedText
	if strings.TrimSpace(text) == "" {
		return provider.Result{}, common.Invalid(c.Name(), "empty parsed text")
	}

	conf := ocr.HeuristicConfidence(text)
	c.log.Info("ocrspace.ok",
		"req_id", rid,
		"chars", len(text),
		"confidence", conf,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return provider.Result{Text: text, Confidence: conf, Provider: c.Name()}, nil
}

func (c *Client) form(img provider.Image) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	name := img.Name
	if name == "" {
		name = "image" + extFor(img.ContentType())
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, name))
	h.Set("Content-Type", img.ContentType())
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(img.Data); err != nil {
		return nil, "", err
	}

	fields := [][2]string{
		{"language", c.cfg.Language},
		{"isOverlayRequired", "false"},
		{"detectOrientation", "true"},
		{"scale", "true"},
		{"OCREngine", strconv.Itoa(c.cfg.Engine)},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// errorMessage flattens ErrorMessage, which is a string or a list of strings.
func errorMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "no error message"
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, "; ")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func extFor(mime string) string {
	switch mime {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/bmp":
		return ".bmp"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
