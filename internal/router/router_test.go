package router

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docscan/constants"
	"github.com/joseph-ayodele/docscan/internal/common"
	"github.com/joseph-ayodele/docscan/internal/metrics"
	"github.com/joseph-ayodele/docscan/internal/progress"
	"github.com/joseph-ayodele/docscan/internal/provider"
)

type fake struct {
	name        string
	text        string
	err         error
	incremental bool
	calls       int
	milestones  []int
}

func (f *fake) Name() string { return f.name }

func (f *fake) ReportsProgress() bool { return f.incremental }

func (f *fake) Recognize(_ context.Context, _ provider.Image, rep *progress.Reporter) (provider.Result, error) {
	f.calls++
	if f.incremental {
		_ = rep.Enter(constants.StagePreprocessing)
		_ = rep.Enter(constants.StageRecognizing)
	}
	for _, m := range f.milestones {
		rep.Report(m)
	}
	if f.err != nil {
		return provider.Result{}, f.err
	}
	return provider.Result{Text: f.text, Confidence: 88, Provider: f.name}, nil
}

func img() provider.Image { return provider.Image{Data: []byte("img"), MIME: "image/jpeg"} }

func collect() (*progress.Reporter, *[]int) {
	var seen []int
	return progress.New(func(p int) { seen = append(seen, p) }), &seen
}

func TestNew_Validation(t *testing.T) {
	local := &fake{name: common.ProviderLocal}
	a := &fake{name: common.ProviderOCRSpace}

	_, err := New(nil, nil)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
	_, err = New([]provider.Provider{a}, nil)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
	_, err = New([]provider.Provider{local, a}, nil)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
	_, err = New([]provider.Provider{a, a, local}, nil)
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	r, err := New([]provider.Provider{a, local}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"ocrspace", "local"}, r.Providers())
}

func TestRecognize_FallsBackWithoutTouchingLocal(t *testing.T) {
	a := &fake{name: common.ProviderOCRSpace, err: common.Unavailable("ocrspace", errors.New("dial tcp: timeout"))}
	b := &fake{name: common.ProviderVision, text: "INCOME TAX DEPARTMENT"}
	local := &fake{name: common.ProviderLocal, text: "never", incremental: true}
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	r, err := New([]provider.Provider{a, b, local}, nil, WithMetrics(m))
	require.NoError(t, err)
	rep, seen := collect()

	res, attempts, err := r.RecognizeAttempts(context.Background(), img(), rep)
	require.NoError(t, err)
	assert.Equal(t, "INCOME TAX DEPARTMENT", res.Text)
	assert.Equal(t, common.ProviderVision, res.Provider)
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)
	assert.Zero(t, local.calls)
	assert.Equal(t, []int{10, 100}, *seen)
	require.Len(t, attempts, 2)
	assert.Equal(t, constants.OutcomeUnavailable, attempts[0].Outcome)
	assert.Equal(t, constants.OutcomeOK, attempts[1].Outcome)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderAttempts.WithLabelValues("ocrspace", "unavailable")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderAttempts.WithLabelValues("vision", "ok")))
}

func TestRecognize_EmptyTextIsAFailure(t *testing.T) {
	a := &fake{name: common.ProviderOCRSpace, text: " \n "}
	local := &fake{name: common.ProviderLocal, text: "GOVERNMENT OF INDIA", incremental: true, milestones: []int{30, 80}}
	r, err := New([]provider.Provider{a, local}, nil)
	require.NoError(t, err)
	rep, seen := collect()

	res, attempts, err := r.RecognizeAttempts(context.Background(), img(), rep)
	require.NoError(t, err)
	assert.Equal(t, common.ProviderLocal, res.Provider)
	assert.Equal(t, constants.OutcomeInvalid, attempts[0].Outcome)
	assert.Equal(t, []int{10, 30, 80, 100}, *seen)
	assert.Equal(t, constants.StageRecognizing, rep.Stage())
}

func TestRecognize_AllFail(t *testing.T) {
	a := &fake{name: common.ProviderOCRSpace, err: common.Invalid("ocrspace", "exit code 3")}
	local := &fake{name: common.ProviderLocal, err: errors.New("tesseract: no such file"), incremental: true, milestones: []int{30}}
	m := metrics.New(prometheus.NewRegistry())
	r, err := New([]provider.Provider{a, local}, nil, WithMetrics(m))
	require.NoError(t, err)
	rep, seen := collect()

	_, err = r.Recognize(context.Background(), img(), rep)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrAllProvidersExhausted)
	assert.Contains(t, err.Error(), "tesseract: no such file")
	assert.Equal(t, constants.StageFailed, rep.Stage())
	assert.Equal(t, []int{10, 30}, *seen)
	assert.NotContains(t, *seen, 100)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Exhausted))

	rep.Report(99)
	rep.Complete()
	assert.Equal(t, []int{10, 30}, *seen)
}

func TestRecognize_ProgressNeverDecreases(t *testing.T) {
	a := &fake{name: common.ProviderOCRSpace, err: errors.New("x"), milestones: []int{50}}
	b := &fake{name: common.ProviderVision, err: errors.New("y")}
	local := &fake{name: common.ProviderLocal, text: "ok", incremental: true, milestones: []int{20, 60, 95}}
	r, err := New([]provider.Provider{a, b, local}, nil)
	require.NoError(t, err)
	rep, seen := collect()

	_, err = r.Recognize(context.Background(), img(), rep)
	require.NoError(t, err)
	for i := 1; i < len(*seen); i++ {
		assert.Greater(t, (*seen)[i], (*seen)[i-1])
	}
	assert.Equal(t, 100, (*seen)[len(*seen)-1])
}

func TestRecognize_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	a := &fake{name: common.ProviderOCRSpace, err: errors.New("boom")}
	local := &fake{name: common.ProviderLocal, text: "ok", incremental: true}
	r, err := New([]provider.Provider{
		provider.Func{ProviderName: "canceler", Fn: func(ctx context.Context, _ provider.Image, _ *progress.Reporter) (provider.Result, error) {
			cancel()
			return provider.Result{}, ctx.Err()
		}},
		a, local,
	}, nil)
	require.NoError(t, err)
	rep, seen := collect()

	_, err = r.Recognize(ctx, img(), rep)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, common.ErrAllProvidersExhausted)
	assert.Zero(t, a.calls)
	assert.Zero(t, local.calls)
	assert.Equal(t, []int{10}, *seen)
}

func TestRecognize_NilReporter(t *testing.T) {
	local := &fake{name: common.ProviderLocal, text: "ok"}
	r, err := New([]provider.Provider{local}, nil)
	require.NoError(t, err)
	res, err := r.Recognize(context.Background(), img(), nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Text)
}
