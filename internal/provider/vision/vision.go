// Package vision is the Google Cloud Vision DOCUMENT_TEXT_DETECTION provider.
package vision

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/api/option"
	visionapi "google.golang.org/api/vision/v1"

	"github.com/joseph-ayodele/docscan/internal/common"
	"github.com/joseph-ayodele/docscan/internal/progress"
	"github.com/joseph-ayodele/docscan/internal/provider"
)

const (
	featureDocumentText = "DOCUMENT_TEXT_DETECTION"
	// fallbackConfidence applies when the annotation carries no page confidence.
	fallbackConfidence = 90.0
)

type Config struct {
	APIKey        string
	Endpoint      string // override for tests or regional endpoints
	LanguageHints []string
	Timeout       time.Duration
}

type Client struct {
	cfg Config
	svc *visionapi.Service
	log *slog.Logger
}

// New builds the Vision service. httpClient may be nil; when set it replaces
// the transport, so the API key must then be carried by the client itself.
func New(ctx context.Context, cfg Config, httpClient *http.Client, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(cfg.LanguageHints) == 0 {
		cfg.LanguageHints = []string{"en", "hi"}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(strings.TrimRight(cfg.Endpoint, "/")+"/"))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	svc, err := visionapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("vision service: %w", err)
	}
	return &Client{cfg: cfg, svc: svc, log: logger}, nil
}

func (c *Client) Name() string { return common.ProviderVision }

// Recognize sends the image inline with the English and Hindi hints. An error
// entry or a missing full-text annotation makes the reply invalid.
func (c *Client) Recognize(ctx context.Context, img provider.Image, _ *progress.Reporter) (provider.Result, error) {
	rid := uuid.New().String()
	start := time.Now()

	if c.cfg.APIKey == "" {
		return provider.Result{}, common.Unavailable(c.Name(), fmt.Errorf("GOOGLE_VISION_API_KEY is empty"))
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req := &visionapi.BatchAnnotateImagesRequest{
		Requests: []*visionapi.AnnotateImageRequest{{
			Image:        &visionapi.Image{Content: img.Base64()},
			Features:     []*visionapi.Feature{{Type: featureDocumentText}},
			ImageContext: &visionapi.ImageContext{LanguageHints: c.cfg.LanguageHints},
		}},
	}
	resp, err := c.svc.Images.Annotate(req).Context(ctx).Do()
	if err != nil {
		c.log.Debug("vision.http_error", "req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return provider.Result{}, common.Unavailable(c.Name(), err)
	}
	if len(resp.Responses) == 0 {
		return provider.Result{}, common.Invalid(c.Name(), "no responses")
	}
	r := resp.Responses[0]
	if r.Error != nil && r.Error.Code != 0 {
		return provider.Result{}, common.Invalid(c.Name(), fmt.Sprintf("error %d: %s", r.Error.Code, r.Error.Message))
	}
	if r.FullTextAnnotation == nil || strings.TrimSpace(r.FullTextAnnotation.Text) == "" {
		return provider.Result{}, common.Invalid(c.Name(), "no full text annotation")
	}

	conf := pageConfidence(r.FullTextAnnotation)
	c.log.Info("vision.ok",
		"req_id", rid,
		"chars", len(r.FullTextAnnotation.Text),
		"confidence", conf,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return provider.Result{Text: r.FullTextAnnotation.Text, Confidence: conf, Provider: c.Name()}, nil
}

func pageConfidence(a *visionapi.TextAnnotation) float64 {
	var sum float64
	var n int
	for _, p := range a.Pages {
		if p != nil && p.Confidence > 0 {
			sum += p.Confidence
			n++
		}
	}
	if n == 0 {
		return fallbackConfidence
	}
	return sum / float64(n) * 100
}
