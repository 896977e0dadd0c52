package local

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docscan/constants"
	"github.com/joseph-ayodele/docscan/internal/common"
	"github.com/joseph-ayodele/docscan/internal/ocr"
	"github.com/joseph-ayodele/docscan/internal/progress"
	"github.com/joseph-ayodele/docscan/internal/provider"
)

type fakeEngine struct {
	text   string
	err    error
	got    []byte
	closed int
}

func (f *fakeEngine) Recognize(_ context.Context, img []byte, p ocr.Progress) (ocr.Result, error) {
	f.got = img
	ocr.Report(p, 30)
	if f.err != nil {
		return ocr.Result{}, f.err
	}
	ocr.Report(p, 80)
	return ocr.Result{Text: f.text, Confidence: 71}, nil
}

func (f *fakeEngine) Close() error { f.closed++; return nil }

func factoryOf(engines ...*fakeEngine) (ocr.Factory, *int) {
	n := 0
	return func() (ocr.Engine, error) {
		e := engines[n]
		n++
		return e, nil
	}, &n
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		img.Set(x, x, color.RGBA{R: 200, G: 10, B: 10, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type fakeHEIC struct{ out []byte }

func (f fakeHEIC) ToPNG(context.Context, []byte) ([]byte, error) { return f.out, nil }

func TestRecognize_PassesEngineProgressThrough(t *testing.T) {
	eng := &fakeEngine{text: "GOVERNMENT OF INDIA"}
	factory, _ := factoryOf(eng)
	var seen []int
	rep := progress.New(func(p int) { seen = append(seen, p) })
	var stages []constants.Stage
	rep.OnTransition(func(_, to constants.Stage) { stages = append(stages, to) })

	res, err := New(factory, nil).Recognize(context.Background(), provider.NewImage("a.png", pngBytes(t)), rep)
	require.NoError(t, err)
	assert.Equal(t, "GOVERNMENT OF INDIA", res.Text)
	assert.Equal(t, common.ProviderLocal, res.Provider)
	assert.Equal(t, []int{progress.Preprocessed, 30, 80}, seen)
	assert.Equal(t, []constants.Stage{constants.StagePreprocessing, constants.StageRecognizing}, stages)
	assert.Equal(t, 1, eng.closed)
}

func TestRecognize_PreprocessMilestoneAfterRemoteAttempt(t *testing.T) {
	eng := &fakeEngine{text: "x"}
	factory, _ := factoryOf(eng)
	var seen []int
	rep := progress.New(func(p int) { seen = append(seen, p) })
	rep.Report(progress.Submitted)

	_, err := New(factory, nil).Recognize(context.Background(), provider.NewImage("a.png", pngBytes(t)), rep)
	require.NoError(t, err)
	assert.Equal(t, []int{progress.Submitted, 30, 80}, seen)
}

func TestRecognize_EnginePerRequest(t *testing.T) {
	a, b := &fakeEngine{text: "one"}, &fakeEngine{text: "two"}
	factory, acquired := factoryOf(a, b)
	p := New(factory, nil)

	r1, err := p.Recognize(context.Background(), provider.NewImage("", pngBytes(t)), nil)
	require.NoError(t, err)
	r2, err := p.Recognize(context.Background(), provider.NewImage("", pngBytes(t)), nil)
	require.NoError(t, err)
	assert.Equal(t, "one", r1.Text)
	assert.Equal(t, "two", r2.Text)
	assert.Equal(t, 2, *acquired)
	assert.Equal(t, 1, a.closed)
	assert.Equal(t, 1, b.closed)
}

func TestRecognize_ErrorsReleaseEngine(t *testing.T) {
	failing := &fakeEngine{err: errors.New("tesseract crashed")}
	blank := &fakeEngine{text: "  \n"}
	factory, _ := factoryOf(failing, blank)
	p := New(factory, nil)
	rep := progress.New(nil)

	_, err := p.Recognize(context.Background(), provider.NewImage("", pngBytes(t)), rep)
	assert.ErrorIs(t, err, common.ErrProviderUnavailable)
	assert.Equal(t, constants.StageRecognizing, rep.Stage())

	_, err = p.Recognize(context.Background(), provider.NewImage("", pngBytes(t)), nil)
	assert.ErrorIs(t, err, common.ErrProviderResponseInvalid)

	assert.Equal(t, 1, failing.closed)
	assert.Equal(t, 1, blank.closed)
}

func TestRecognize_UndecodableInputReachesEngine(t *testing.T) {
	eng := &fakeEngine{text: "x"}
	factory, _ := factoryOf(eng)
	_, err := New(factory, nil).Recognize(context.Background(), provider.Image{Data: []byte("not an image"), MIME: "image/jpeg"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("not an image"), eng.got)
}

func TestRecognize_HEIC(t *testing.T) {
	heic := []byte("\x00\x00\x00\x18ftypheic\x00\x00\x00\x00")
	eng := &fakeEngine{text: "x"}
	factory, _ := factoryOf(eng)

	_, err := New(factory, nil).Recognize(context.Background(), provider.NewImage("a.heic", heic), nil)
	assert.ErrorIs(t, err, ocr.ErrHEICUnsupported)

	_, err = New(factory, nil, WithHEICConverter(fakeHEIC{out: pngBytes(t)})).
		Recognize(context.Background(), provider.NewImage("a.heic", heic), nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), eng.got[:4])
}

func TestRecognize_NoFactory(t *testing.T) {
	_, err := New(nil, nil).Recognize(context.Background(), provider.NewImage("", pngBytes(t)), nil)
	assert.ErrorIs(t, err, common.ErrProviderUnavailable)
}
