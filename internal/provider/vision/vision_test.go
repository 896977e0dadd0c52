package vision

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docscan/internal/common"
	"github.com/joseph-ayodele/docscan/internal/provider"
)

func newClient(t *testing.T, reply string) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/images:annotate", r.URL.Path)
		var body struct {
			Requests []struct {
				Image struct {
					Content string `json:"content"`
				} `json:"image"`
				Features []struct {
					Type string `json:"type"`
				} `json:"features"`
				ImageContext struct {
					LanguageHints []string `json:"languageHints"`
				} `json:"imageContext"`
			} `json:"requests"`
		}
		raw, _ := io.ReadAll(r.Body)
		if assert.NoError(t, json.Unmarshal(raw, &body)) && assert.Len(t, body.Requests, 1) {
			req := body.Requests[0]
			assert.Equal(t, "aW1n", req.Image.Content)
			assert.Equal(t, "DOCUMENT_TEXT_DETECTION", req.Features[0].Type)
			assert.Equal(t, []string{"en", "hi"}, req.ImageContext.LanguageHints)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), Config{APIKey: "k", Endpoint: srv.URL}, srv.Client(), nil)
	require.NoError(t, err)
	return c
}

func TestRecognize_OK(t *testing.T) {
	c := newClient(t, `{"responses":[{"fullTextAnnotation":{"text":"INCOME TAX DEPARTMENT\nABCDE1234F","pages":[{"confidence":0.8}]}}]}`)

	res, err := c.Recognize(context.Background(), provider.Image{Data: []byte("img")}, nil)
	require.NoError(t, err)

	assert.Equal(t, "INCOME TAX DEPARTMENT\nABCDE1234F", res.Text)
	assert.InDelta(t, 80.0, res.Confidence, 0.001)
	assert.Equal(t, common.ProviderVision, res.Provider)
}

func TestRecognize_FallbackConfidence(t *testing.T) {
	c := newClient(t, `{"responses":[{"fullTextAnnotation":{"text":"AADHAAR"}}]}`)

	res, err := c.Recognize(context.Background(), provider.Image{Data: []byte("img")}, nil)
	require.NoError(t, err)
	assert.Equal(t, fallbackConfidence, res.Confidence)
}

func TestRecognize_Invalid(t *testing.T) {
	for name, reply := range map[string]string{
		"error shape":   `{"responses":[{"error":{"code":3,"message":"Bad image data."}}]}`,
		"no annotation": `{"responses":[{}]}`,
		"no responses":  `{"responses":[]}`,
	} {
		t.Run(name, func(t *testing.T) {
			c := newClient(t, reply)
			_, err := c.Recognize(context.Background(), provider.Image{Data: []byte("img")}, nil)
			assert.ErrorIs(t, err, common.ErrProviderResponseInvalid)
		})
	}
}

func TestRecognize_MissingKey(t *testing.T) {
	c, err := New(context.Background(), Config{}, http.DefaultClient, nil)
	require.NoError(t, err)
	_, err = c.Recognize(context.Background(), provider.Image{Data: []byte("img")}, nil)
	assert.ErrorIs(t, err, common.ErrProviderUnavailable)
}
