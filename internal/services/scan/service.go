// Package scan is the use case behind every surface: validate an upload,
// skip images already scanned, run the pipeline and hand the records to
// persistence and export.
package scan

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/docscan/constants"
	"github.com/joseph-ayodele/docscan/internal/common"
	"github.com/joseph-ayodele/docscan/internal/entity"
	"github.com/joseph-ayodele/docscan/internal/pipeline"
	"github.com/joseph-ayodele/docscan/internal/progress"
	"github.com/joseph-ayodele/docscan/internal/provider"
	"github.com/joseph-ayodele/docscan/internal/repository"
)

// Appender receives saved records, e.g. a Google Sheet.
type Appender interface {
	Append(ctx context.Context, recs ...entity.Record) error
}

// Request is one capture: a front image and an optional back.
type Request struct {
	Name      string
	Front     []byte
	Back      []byte
	Force     bool // scan even if this image was seen before
	FrontSink progress.Sink
	BackSink  progress.Sink
}

// Result lists the records of a request. Deduplicated is set when they were
// loaded from storage instead of scanned.
type Result struct {
	Records      []entity.Record
	ContentHash  string
	Deduplicated bool
	// BackErr is a failure of the back side when the front succeeded.
	BackErr error
}

type Service struct {
	proc     *pipeline.Processor
	records  repository.RecordRepository
	appender Appender
	maxBytes int
	logger   *slog.Logger
}

type Option func(*Service)

func WithAppender(a Appender) Option {
	return func(s *Service) { s.appender = a }
}

// WithMaxImageBytes rejects larger uploads.
func WithMaxImageBytes(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxBytes = n
		}
	}
}

// NewService wires the pipeline to storage. records may be nil for a
// stateless scan.
func NewService(proc *pipeline.Processor, records repository.RecordRepository, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{proc: proc, records: records, maxBytes: 10 << 20, logger: logger}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ContentHash is the dedupe key of a capture.
func ContentHash(front, back []byte) string {
	h := sha256.New()
	h.Write(front)
	if len(back) > 0 {
		h.Write([]byte{0})
		h.Write(back)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (s *Service) validate(req Request) error {
	v := common.NewValidator().
		Field(pipeline.SideFront, req.Front, common.Required, common.MaxBytes(s.maxBytes)).
		Field(pipeline.SideBack, req.Back, common.MaxBytes(s.maxBytes))
	if err := v.Error(); err != nil {
		return err
	}
	for side, b := range map[string][]byte{pipeline.SideFront: req.Front, pipeline.SideBack: req.Back} {
		if len(b) > 0 && !isImage(b) {
			return fmt.Errorf("%w: %s is not an image (%s)", common.ErrInvalidInput, side, constants.SniffMIME(b))
		}
	}
	return nil
}

func isImage(b []byte) bool {
	return strings.HasPrefix(constants.SniffMIME(b), "image/")
}

// Scan runs a capture end to end. The error is non-nil only when the front
// side produced no record.
func (s *Service) Scan(ctx context.Context, req Request) (Result, error) {
	if err := s.validate(req); err != nil {
		return Result{}, err
	}
	hash := ContentHash(req.Front, req.Back)
	res := Result{ContentHash: hash}
	rid := common.RequestIDFromContext(ctx)

	if s.records != nil && !req.Force {
		prior, err := s.records.FindByHash(ctx, hash)
		if err != nil {
			s.logger.Warn("scan.dedupe_lookup_failed", "req_id", rid, "hash", hash, "error", err)
		} else if len(prior) > 0 {
			s.logger.Info("scan.deduplicated", "req_id", rid, "hash", hash, "records", len(prior))
			res.Records, res.Deduplicated = prior, true
			return res, nil
		}
	}

	front := provider.NewImage(req.Name, req.Front)
	var back provider.Image
	if len(req.Back) > 0 {
		back = provider.NewImage(req.Name, req.Back)
	}
	sides := s.proc.ScanSides(ctx, front, back, req.FrontSink, req.BackSink)
	if sides.FrontErr != nil {
		return Result{}, sides.FrontErr
	}
	res.BackErr = sides.BackErr
	res.Records = sides.Records()

	if s.records != nil {
		for _, rec := range res.Records {
			if err := s.records.Save(ctx, rec, hash); err != nil {
				return res, common.WrapError(err, "save record")
			}
		}
	}
	if s.appender != nil {
		if err := s.appender.Append(ctx, res.Records...); err != nil {
			s.logger.Warn("scan.append_failed", "req_id", rid, "hash", hash, "error", err)
		}
	}
	return res, nil
}

// Get returns a stored record.
func (s *Service) Get(ctx context.Context, id string) (*entity.Record, error) {
	if s.records == nil {
		return nil, common.ErrNotFound
	}
	uid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return s.records.Get(ctx, uid)
}

// List returns stored records, newest first.
func (s *Service) List(ctx context.Context, f repository.ListFilter) ([]entity.Record, error) {
	if s.records == nil {
		return nil, nil
	}
	return s.records.List(ctx, f)
}
