package extract

import (
	"log/slog"
	"maps"
	"runtime/debug"

	"github.com/joseph-ayodele/docscan/constants"
)

// Fields maps field names to extracted values. A field is absent when no rule
// produced a value for it.
type Fields map[constants.FieldName]string

// Clone returns a copy of f.
func (f Fields) Clone() Fields {
	return maps.Clone(f)
}

// Engine dispatches recognized text to the extractor for its document type.
type Engine struct {
	extractors map[constants.DocumentType]Extractor
	logger     *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithExtractor replaces the rule table for one document type.
func WithExtractor(t constants.DocumentType, x Extractor) EngineOption {
	return func(e *Engine) { e.extractors[t] = x }
}

// NewEngine returns an engine using the default rule tables.
func NewEngine(logger *slog.Logger, opts ...EngineOption) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{extractors: DefaultExtractors(), logger: logger}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract runs the rules for dt over raw. It never panics: a failing rule
// ends extraction and the fields found so far are returned.
func (e *Engine) Extract(raw string, dt constants.DocumentType) (fields Fields) {
	fields = Fields{}
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("extract.panic",
				"document_type", dt,
				"fields", len(fields),
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()

	x, ok := e.extractors[dt]
	if !ok {
		x = e.extractors[constants.Other]
	}
	doc := NewDocument(raw)
	for _, r := range x.Rules {
		if _, done := fields[r.Field]; done {
			continue
		}
		if v, ok := r.Eval(doc); ok {
			fields[r.Field] = v
		}
	}
	assignDates(doc.Raw, x.Dates, x.Buckets, fields)

	e.logger.Debug("extract.done", "document_type", dt, "fields", len(fields))
	return fields
}

var defaultEngine = NewEngine(nil)

// Extract runs the default engine.
func Extract(raw string, dt constants.DocumentType) Fields {
	return defaultEngine.Extract(raw, dt)
}
