package core

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docscan/constants"
	"github.com/joseph-ayodele/docscan/internal/common"
	"github.com/joseph-ayodele/docscan/internal/ocr"
	"github.com/joseph-ayodele/docscan/internal/repository"
	"github.com/joseph-ayodele/docscan/internal/services/scan"
)

type engine struct{ text string }

func (e engine) Recognize(_ context.Context, _ []byte, p ocr.Progress) (ocr.Result, error) {
	ocr.Report(p, 50)
	return ocr.Result{Text: e.text, Confidence: 77}, nil
}

func (engine) Close() error { return nil }

func factory(text string) ocr.Factory {
	return func() (ocr.Engine, error) { return engine{text: text}, nil }
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 3, 3))))
	return buf.Bytes()
}

func TestBuild_LocalOnlyWithoutCredentials(t *testing.T) {
	cfg := common.DefaultConfig()
	app, err := Build(context.Background(), cfg, slog.Default(), WithEngineFactory(factory("ELECTION COMMISSION OF INDIA\nABC1234567")))
	require.NoError(t, err)
	defer app.Close()

	assert.Equal(t, []string{common.ProviderLocal}, app.Router.Providers())
	require.NotNil(t, app.Records)
	require.NotNil(t, app.Exporter)

	res, err := app.Scans.Scan(context.Background(), scan.Request{Name: "voter.png", Front: pngBytes(t)})
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, constants.VoterID, res.Records[0].DocumentType)
	assert.Equal(t, common.ProviderLocal, res.Records[0].Provider)

	stored, err := app.Scans.List(context.Background(), repository.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestBuild_Stateless(t *testing.T) {
	app, err := Build(context.Background(), common.DefaultConfig(), nil, Stateless(), WithEngineFactory(factory("x")))
	require.NoError(t, err)
	assert.Nil(t, app.DB)
	assert.Nil(t, app.Exporter)
	app.Close()
}

func TestBuild_RejectsBadConfig(t *testing.T) {
	cfg := common.DefaultConfig()
	cfg.OCR.Engine = "paddle"
	_, err := Build(context.Background(), cfg, nil)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestBuildProviders_Order(t *testing.T) {
	cfg := common.DefaultConfig()
	cfg.OCR.Providers = []string{common.ProviderGemini, common.ProviderOCRSpace, common.ProviderVision, common.ProviderLocal}
	cfg.OCRSpace.APIKey = "k1"
	cfg.Gemini.APIKey = "k2"

	ps, err := BuildProviders(context.Background(), cfg, factory("x"), slog.Default())
	require.NoError(t, err)
	names := make([]string, 0, len(ps))
	for _, p := range ps {
		names = append(names, p.Name())
	}
	assert.Equal(t, []string{"gemini", "ocrspace", "local"}, names)

	cfg.OCR.Providers = []string{"tesseract.js", common.ProviderLocal}
	_, err = BuildProviders(context.Background(), cfg, factory("x"), slog.Default())
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}
