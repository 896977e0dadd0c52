package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docscan/constants"
)

// Record is one recognized identity document, as handed to persistence and export.
type Record struct {
	ID           uuid.UUID                      `json:"id"`
	DocumentType constants.DocumentType         `json:"document_type"`
	RawText      string                         `json:"raw_text"`
	Fields       map[constants.FieldName]string `json:"fields"`
	Confidence   float64                        `json:"confidence"`
	Provider     string                         `json:"provider"`
	Side         string                         `json:"side,omitempty"` // "front" | "back" for two-sided scans
	SourceName   string                         `json:"source_name,omitempty"`
	ScannedAt    time.Time                      `json:"scanned_at"`
}

// Field returns the value of name, or "".
func (r Record) Field(name constants.FieldName) string {
	return r.Fields[name]
}
