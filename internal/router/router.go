// Package router runs recognition providers in priority order and returns the
// first usable result. The local engine always closes the chain.
package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docscan/constants"
	"github.com/joseph-ayodele/docscan/internal/common"
	"github.com/joseph-ayodele/docscan/internal/metrics"
	"github.com/joseph-ayodele/docscan/internal/progress"
	"github.com/joseph-ayodele/docscan/internal/provider"
)

// Attempt is the outcome of one provider call.
type Attempt struct {
	Provider string
	Outcome  constants.ProviderOutcome
	Err      error
	Elapsed  time.Duration
}

type Router struct {
	providers []provider.Provider
	metrics   *metrics.Metrics
	log       *slog.Logger
}

type Option func(*Router)

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Router) { r.metrics = m }
}

// New validates the chain: at least one provider, names unique, local last.
func New(providers []provider.Provider, logger *slog.Logger, opts ...Option) (*Router, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(providers) == 0 {
		return nil, common.NewAppError(common.CodeConfig, "no providers configured", common.ErrInvalidInput)
	}
	seen := make(map[string]struct{}, len(providers))
	for i, p := range providers {
		if p == nil {
			return nil, common.NewAppError(common.CodeConfig, fmt.Sprintf("provider %d is nil", i), common.ErrInvalidInput)
		}
		if _, dup := seen[p.Name()]; dup {
			return nil, common.NewAppError(common.CodeConfig, "duplicate provider "+p.Name(), common.ErrInvalidInput)
		}
		seen[p.Name()] = struct{}{}
		if p.Name() == common.ProviderLocal && i != len(providers)-1 {
			return nil, common.NewAppError(common.CodeConfig, "local provider must be last", common.ErrInvalidInput)
		}
	}
	if last := providers[len(providers)-1]; last.Name() != common.ProviderLocal {
		return nil, common.NewAppError(common.CodeConfig, "provider chain must end with the local engine", common.ErrInvalidInput)
	}
	r := &Router{providers: providers, log: logger}
	for _, o := range opts {
		o(r)
	}
	return r, nil
}

// Providers returns the chain names in order.
func (r *Router) Providers() []string {
	out := make([]string, len(r.providers))
	for i, p := range r.providers {
		out[i] = p.Name()
	}
	return out
}

// Recognize returns the first provider result with non-blank text. On success
// the reporter receives its single 100; on exhaustion it enters FAILED and the
// error wraps common.ErrAllProvidersExhausted with the last failure.
func (r *Router) Recognize(ctx context.Context, img provider.Image, rep *progress.Reporter) (provider.Result, error) {
	res, _, err := r.RecognizeAttempts(ctx, img, rep)
	return res, err
}

// RecognizeAttempts is Recognize plus the per-provider outcomes, in order.
func (r *Router) RecognizeAttempts(ctx context.Context, img provider.Image, rep *progress.Reporter) (provider.Result, []Attempt, error) {
	rid := uuid.New().String()
	start := time.Now()
	attempts := make([]Attempt, 0, len(r.providers))

	var lastErr error
	lastName := ""
	for _, p := range r.providers {
		if err := ctx.Err(); err != nil {
			rep.Fail()
			return provider.Result{}, attempts, err
		}

		res, a := r.attempt(ctx, p, img, rep)
		attempts = append(attempts, a)
		if a.Err == nil {
			rep.Complete()
			r.log.Info("router.ok",
				"req_id", rid,
				"provider", res.Provider,
				"attempts", len(attempts),
				"confidence", res.Confidence,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return res, attempts, nil
		}
		if a.Outcome == constants.OutcomeCanceled {
			rep.Fail()
			return provider.Result{}, attempts, ctx.Err()
		}
		r.log.Warn("router.attempt.failed",
			"req_id", rid,
			"provider", p.Name(),
			"outcome", a.Outcome,
			"error", a.Err,
			"elapsed_ms", a.Elapsed.Milliseconds(),
		)
		lastErr, lastName = a.Err, p.Name()
	}

	if err := rep.Enter(constants.StageFailed); err != nil {
		r.log.Debug("router.stage", "req_id", rid, "error", err)
	}
	rep.Fail()
	r.metrics.IncExhausted()
	r.log.Error("router.exhausted",
		"req_id", rid,
		"providers", r.Providers(),
		"error", lastErr,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return provider.Result{}, attempts, common.Exhausted(lastName, lastErr)
}

// attempt runs one provider. Remote providers get the synthesized
// "submitted" milestone since they expose no progress of their own.
func (r *Router) attempt(ctx context.Context, p provider.Provider, img provider.Image, rep *progress.Reporter) (res provider.Result, a Attempt) {
	a.Provider = p.Name()
	start := time.Now()
	defer func() {
		a.Elapsed = time.Since(start)
		r.metrics.ObserveAttempt(a.Provider, a.Outcome, a.Elapsed)
	}()

	if !provider.IsIncremental(p) {
		if err := rep.Enter(constants.StageRecognizing); err != nil {
			r.log.Debug("router.stage", "provider", p.Name(), "error", err)
		}
		rep.Report(progress.Submitted)
	}

	res, err := p.Recognize(ctx, img, rep)
	switch {
	case err != nil && ctx.Err() != nil:
		a.Outcome, a.Err = constants.OutcomeCanceled, ctx.Err()
	case err != nil:
		a.Outcome, a.Err = classify(err), err
	case strings.TrimSpace(res.Text) == "":
		a.Outcome, a.Err = constants.OutcomeInvalid, common.Invalid(p.Name(), "empty text")
	default:
		if res.Provider == "" {
			res.Provider = p.Name()
		}
		a.Outcome = constants.OutcomeOK
	}
	if a.Err != nil {
		return provider.Result{}, a
	}
	return res, a
}

func classify(err error) constants.ProviderOutcome {
	if errors.Is(err, common.ErrProviderResponseInvalid) {
		return constants.OutcomeInvalid
	}
	return constants.OutcomeUnavailable
}
