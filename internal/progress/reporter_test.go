package progress

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docscan/constants"
)

type recorder struct {
	mu     sync.Mutex
	values []int
}

func (r *recorder) sink(p int) {
	r.mu.Lock()
	r.values = append(r.values, p)
	r.mu.Unlock()
}

func TestReporter_Monotonic(t *testing.T) {
	rec := &recorder{}
	r := New(rec.sink)

	r.Report(10)
	r.Report(5)
	r.Report(10)
	r.Report(40)
	r.Report(100)
	r.Report(120)
	r.Complete()
	r.Complete()
	r.Report(50)

	assert.Equal(t, []int{10, 40, 99, 100}, rec.values)
}

func TestReporter_FailSilences(t *testing.T) {
	rec := &recorder{}
	r := New(rec.sink)

	r.Report(10)
	r.Fail()
	r.Report(50)
	r.Complete()

	assert.Equal(t, []int{10}, rec.values)
}

func TestReporter_NilSafe(t *testing.T) {
	var r *Reporter
	assert.NotPanics(t, func() {
		r.Report(10)
		r.Complete()
		r.Fail()
		_ = r.Enter(constants.StageRecognizing)
	})
	assert.Equal(t, -1, r.Last())

	withoutSink := New(nil)
	assert.NotPanics(t, func() { withoutSink.Complete() })
	assert.Equal(t, 100, withoutSink.Last())
}

func TestReporter_Stages(t *testing.T) {
	t.Run("remote success path", func(t *testing.T) {
		r := New(nil)
		for _, s := range []constants.Stage{
			constants.StageRecognizing,
			constants.StageClassifying,
			constants.StageExtracting,
			constants.StageDone,
		} {
			require.NoError(t, r.Enter(s))
		}
		assert.Equal(t, constants.StageDone, r.Stage())
	})

	t.Run("fallback to local engine", func(t *testing.T) {
		r := New(nil)
		require.NoError(t, r.Enter(constants.StageRecognizing))
		require.NoError(t, r.Enter(constants.StageRecognizing))
		require.NoError(t, r.Enter(constants.StagePreprocessing))
		require.NoError(t, r.Enter(constants.StageRecognizing))
		require.NoError(t, r.Enter(constants.StageClassifying))
	})

	t.Run("failed only from recognizing", func(t *testing.T) {
		r := New(nil)
		assert.Error(t, r.Enter(constants.StageFailed))
		require.NoError(t, r.Enter(constants.StagePreprocessing))
		assert.Error(t, r.Enter(constants.StageFailed))
		require.NoError(t, r.Enter(constants.StageRecognizing))
		require.NoError(t, r.Enter(constants.StageFailed))
		assert.Error(t, r.Enter(constants.StageRecognizing))
	})

	t.Run("failed silences sink", func(t *testing.T) {
		rec := &recorder{}
		r := New(rec.sink)
		require.NoError(t, r.Enter(constants.StageRecognizing))
		r.Report(10)
		require.NoError(t, r.Enter(constants.StageFailed))
		r.Complete()
		assert.Equal(t, []int{10}, rec.values)
	})

	t.Run("transition hook", func(t *testing.T) {
		var seen []string
		r := New(nil)
		r.OnTransition(func(from, to constants.Stage) {
			seen = append(seen, string(from)+">"+string(to))
		})
		require.NoError(t, r.Enter(constants.StageRecognizing))
		require.NoError(t, r.Enter(constants.StageRecognizing))
		assert.Equal(t, []string{"PENDING>RECOGNIZING"}, seen)
	})
}

func TestReporter_ConcurrentReportsStayIncreasing(t *testing.T) {
	rec := &recorder{}
	r := New(rec.sink)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for p := base; p < 99; p += 8 {
				r.Report(p)
			}
		}(i)
	}
	wg.Wait()
	r.Complete()

	require.NotEmpty(t, rec.values)
	for i := 1; i < len(rec.values); i++ {
		assert.Greater(t, rec.values[i], rec.values[i-1])
	}
	assert.Equal(t, 100, rec.values[len(rec.values)-1])
}
