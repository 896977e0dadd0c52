package utils

import (
	"fmt"
	"strings"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/docscan/constants"
	"github.com/joseph-ayodele/docscan/internal/common"
	"github.com/joseph-ayodele/docscan/internal/entity"
	"github.com/joseph-ayodele/docscan/internal/repository"
)

func ParseYMD(s string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	// strip time to midnight UTC to match DATE semantics
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// ParseFilter builds a list filter from wire values. Dates are YYYY-MM-DD and
// both ends are inclusive; an empty document type means all types.
func ParseFilter(docType, from, to string, limit int) (repository.ListFilter, error) {
	var f repository.ListFilter
	if dt := strings.TrimSpace(docType); dt != "" {
		f.DocumentType = constants.CanonicalizeDocumentType(dt)
		if f.DocumentType == constants.Other && !strings.EqualFold(dt, string(constants.Other)) {
			return f, fmt.Errorf("%w: unknown document_type %q (one of %s)", common.ErrInvalidInput, dt,
				strings.Join(constants.AsStringSlice(), ", "))
		}
	}
	if fd := strings.TrimSpace(from); fd != "" {
		t, err := ParseYMD(fd)
		if err != nil {
			return f, fmt.Errorf("%w: from_date invalid (YYYY-MM-DD): %v", common.ErrInvalidInput, err)
		}
		f.From = &t
	}
	if td := strings.TrimSpace(to); td != "" {
		t, err := ParseYMD(td)
		if err != nil {
			return f, fmt.Errorf("%w: to_date invalid (YYYY-MM-DD): %v", common.ErrInvalidInput, err)
		}
		end := t.Add(24*time.Hour - time.Nanosecond)
		f.To = &end
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return f, fmt.Errorf("%w: to_date is before from_date", common.ErrInvalidInput)
	}
	if limit < 0 {
		return f, fmt.Errorf("%w: limit must not be negative", common.ErrInvalidInput)
	}
	f.Limit = limit
	return f, nil
}

// RecordMap is the wire shape of a record shared by the gRPC and HTTP surfaces.
func RecordMap(r entity.Record) map[string]any {
	fields := make(map[string]any, len(r.Fields))
	for k, v := range r.Fields {
		fields[string(k)] = v
	}
	m := map[string]any{
		"id":             r.ID.String(),
		"document_type":  string(r.DocumentType),
		"document_label": r.DocumentType.Label(),
		"raw_text":       r.RawText,
		"fields":         fields,
		"confidence":     r.Confidence,
		"provider":       r.Provider,
		"scanned_at":     r.ScannedAt.UTC().Format(time.RFC3339Nano),
	}
	if r.Side != "" {
		m["side"] = r.Side
	}
	if r.SourceName != "" {
		m["source_name"] = r.SourceName
	}
	return m
}

func ToPBRecord(r entity.Record) (*structpb.Struct, error) {
	return structpb.NewStruct(RecordMap(r))
}

func ToPBRecords(recs []entity.Record) (*structpb.ListValue, error) {
	items := make([]any, 0, len(recs))
	for _, r := range recs {
		items = append(items, RecordMap(r))
	}
	return structpb.NewList(items)
}

// FromPBRecord is the inverse of ToPBRecord, used by clients.
func FromPBRecord(s *structpb.Struct) (entity.Record, error) {
	m := s.AsMap()
	str := func(k string) string { v, _ := m[k].(string); return v }

	var rec entity.Record
	if id := str("id"); id != "" {
		if err := rec.ID.UnmarshalText([]byte(id)); err != nil {
			return rec, fmt.Errorf("record id: %w", err)
		}
	}
	rec.DocumentType = constants.DocumentType(str("document_type"))
	rec.RawText = str("raw_text")
	rec.Provider = str("provider")
	rec.Side = str("side")
	rec.SourceName = str("source_name")
	rec.Confidence, _ = m["confidence"].(float64)
	if at := str("scanned_at"); at != "" {
		t, err := time.Parse(time.RFC3339Nano, at)
		if err != nil {
			return rec, fmt.Errorf("scanned_at: %w", err)
		}
		rec.ScannedAt = t
	}
	if fields, ok := m["fields"].(map[string]any); ok {
		rec.Fields = make(map[constants.FieldName]string, len(fields))
		for k, v := range fields {
			s, _ := v.(string)
			rec.Fields[constants.FieldName(k)] = s
		}
	}
	return rec, nil
}
