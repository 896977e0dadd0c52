// Package export writes scanned records to spreadsheets: an XLSX workbook
// for download and a row append to a Google Sheet.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/docscan/constants"
	"github.com/joseph-ayodele/docscan/internal/entity"
	"github.com/joseph-ayodele/docscan/internal/repository"
)

const sheetName = "Documents"

// Headers are the workbook columns, in order.
var Headers = []string{
	"Timestamp",
	"Document Type",
	"Name",
	"ID Number",
	"Date of Birth",
	"Gender",
	"Address",
	"Father Name",
	"Husband Name",
	"Nationality",
	"Issue Date",
	"Expiry Date",
	"Place of Issue",
	"District",
	"State",
	"Pincode",
	"Constituency",
	"Provider",
	"Confidence",
	"Raw Text",
}

// Service is a tiny façade over the record repository that produces XLSX bytes.
type Service struct {
	records repository.RecordRepository
	logger  *slog.Logger
}

func NewService(records repository.RecordRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{records: records, logger: logger}
}

// ExportXLSX returns a workbook of the records matching f, newest first.
// If only from is provided the window ends today.
func (s *Service) ExportXLSX(ctx context.Context, f repository.ListFilter) ([]byte, error) {
	start := time.Now()
	if f.From != nil && f.To == nil {
		now := time.Now().UTC()
		f.To = &now
	}
	recs, err := s.records.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	out, err := WriteXLSX(recs)
	if err != nil {
		return nil, err
	}
	s.logger.Info("export.xlsx.ok",
		"rows", len(recs),
		"document_type", f.DocumentType,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

// Row flattens rec into the Headers column order.
func Row(rec entity.Record) []any {
	return []any{
		rec.ScannedAt.UTC().Format(time.RFC3339),
		rec.DocumentType.Label(),
		rec.Field(constants.FieldHolderName),
		IDNumber(rec),
		rec.Field(constants.FieldDateOfBirth),
		rec.Field(constants.FieldGender),
		rec.Field(constants.FieldAddress),
		rec.Field(constants.FieldFatherName),
		rec.Field(constants.FieldHusbandName),
		rec.Field(constants.FieldNationality),
		rec.Field(constants.FieldIssueDate),
		rec.Field(constants.FieldExpiryDate),
		rec.Field(constants.FieldPlaceOfIssue),
		rec.Field(constants.FieldDistrict),
		rec.Field(constants.FieldState),
		rec.Field(constants.FieldPincode),
		rec.Field(constants.FieldConstituency),
		rec.Provider,
		rec.Confidence,
		rec.RawText,
	}
}

// IDNumber returns the primary document number, whatever field holds it.
func IDNumber(rec entity.Record) string {
	if v := rec.Field(constants.IdentifierField(rec.DocumentType)); v != "" {
		return v
	}
	for _, f := range []constants.FieldName{
		constants.FieldIDNumber, constants.FieldAadhaarNumber,
		constants.FieldPassportNumber, constants.FieldPANNumber,
	} {
		if v := rec.Field(f); v != "" {
			return v
		}
	}
	return ""
}

// WriteXLSX renders recs into a single-sheet workbook.
func WriteXLSX(recs []entity.Record) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if index, _ := f.GetSheetIndex(sheetName); index == -1 {
		if _, err := f.NewSheet(sheetName); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheetName)
	f.SetActiveSheet(activeIndex)
	_ = f.DeleteSheet("Sheet1")

	for i, h := range Headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, h)
	}
	for r, rec := range recs {
		for c, v := range Row(rec) {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			_ = f.SetCellValue(sheetName, cell, v)
		}
	}

	// Widen a few columns
	_ = f.SetColWidth(sheetName, "A", "A", 22) // timestamp
	_ = f.SetColWidth(sheetName, "B", "B", 16) // type
	_ = f.SetColWidth(sheetName, "C", "D", 24) // name, id
	_ = f.SetColWidth(sheetName, "G", "G", 60) // address
	_ = f.SetColWidth(sheetName, "T", "T", 80) // raw text

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
