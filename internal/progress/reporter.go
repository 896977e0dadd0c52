// Package progress carries a monotonic percentage and the per-request stage
// machine through preprocessing and recognition.
package progress

import (
	"fmt"
	"sync"

	"github.com/joseph-ayodele/docscan/constants"
)

// Sink receives progress percentages in 0..100.
type Sink func(percent int)

// Milestones synthesized for providers that expose no incremental signal.
// Preprocessed is reported by the local path once the image is prepared.
const (
	Preprocessed = 5
	Submitted    = 10
	Complete     = 100
)

var transitions = map[constants.Stage][]constants.Stage{
	constants.StagePending:       {constants.StagePreprocessing, constants.StageRecognizing},
	constants.StagePreprocessing: {constants.StageRecognizing},
	constants.StageRecognizing:   {constants.StageRecognizing, constants.StagePreprocessing, constants.StageClassifying, constants.StageFailed},
	constants.StageClassifying:   {constants.StageExtracting},
	constants.StageExtracting:    {constants.StageDone},
}

// Reporter guards a Sink so that it only ever sees strictly increasing values,
// at most one 100, and nothing after a failure. A nil *Reporter is valid and
// drops everything.
type Reporter struct {
	mu     sync.Mutex
	sink   Sink
	last   int
	done   bool
	failed bool
	stage  constants.Stage
	onStep func(from, to constants.Stage)
}

// New returns a Reporter in the PENDING stage. sink may be nil.
func New(sink Sink) *Reporter {
	return &Reporter{sink: sink, last: -1, stage: constants.StagePending}
}

// OnTransition registers a hook invoked after every accepted stage change.
func (r *Reporter) OnTransition(fn func(from, to constants.Stage)) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.onStep = fn
	r.mu.Unlock()
}

// Report forwards p if it is larger than anything sent so far. Values are
// clamped to 0..99; only Complete may emit 100.
func (r *Reporter) Report(p int) {
	if r == nil {
		return
	}
	if p < 0 {
		p = 0
	}
	if p >= Complete {
		p = Complete - 1
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emitLocked(p)
}

// Complete emits the single terminal 100. Later calls are ignored.
func (r *Reporter) Complete() {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emitLocked(Complete)
}

// Fail silences the reporter; nothing reaches the sink afterwards.
func (r *Reporter) Fail() {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.failed = true
	r.mu.Unlock()
}

func (r *Reporter) emitLocked(p int) {
	if r.done || r.failed || p <= r.last {
		return
	}
	r.last = p
	if p == Complete {
		r.done = true
	}
	if r.sink != nil {
		r.sink(p)
	}
}

// Last returns the most recent forwarded value, or -1.
func (r *Reporter) Last() int {
	if r == nil {
		return -1
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// Stage returns the current stage.
func (r *Reporter) Stage() constants.Stage {
	if r == nil {
		return constants.StagePending
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stage
}

// Enter moves the request to stage to. Entering FAILED also silences the sink.
func (r *Reporter) Enter(to constants.Stage) error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	from := r.stage
	ok := false
	for _, next := range transitions[from] {
		if next == to {
			ok = true
			break
		}
	}
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("progress: illegal transition %s -> %s", from, to)
	}
	r.stage = to
	if to == constants.StageFailed {
		r.failed = true
	}
	hook := r.onStep
	r.mu.Unlock()

	if hook != nil && from != to {
		hook(from, to)
	}
	return nil
}
