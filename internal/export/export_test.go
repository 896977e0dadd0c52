package export

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/docscan/constants"
	"github.com/joseph-ayodele/docscan/internal/entity"
	"github.com/joseph-ayodele/docscan/internal/repository"
)

func sample() entity.Record {
	return entity.Record{
		ID:           uuid.New(),
		DocumentType: constants.Aadhaar,
		RawText:      "GOVERNMENT OF INDIA\n1234 5678 9012",
		Fields: map[constants.FieldName]string{
			constants.FieldAadhaarNumber: "1234 5678 9012",
			constants.FieldHolderName:    "RAVI KUMAR",
			constants.FieldDateOfBirth:   "01/01/1990",
		},
		Confidence: 91,
		Provider:   "vision",
		ScannedAt:  time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestWriteXLSX(t *testing.T) {
	b, err := WriteXLSX([]entity.Record{sample()})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, Headers, rows[0])
	assert.Equal(t, "2024-05-01T10:00:00Z", rows[1][0])
	assert.Equal(t, "Aadhaar Card", rows[1][1])
	assert.Equal(t, "RAVI KUMAR", rows[1][2])
	assert.Equal(t, "1234 5678 9012", rows[1][3])
	assert.Equal(t, "01/01/1990", rows[1][4])
	assert.Equal(t, "GOVERNMENT OF INDIA\n1234 5678 9012", rows[1][len(Headers)-1])
}

func TestIDNumber_FallsBack(t *testing.T) {
	rec := sample()
	rec.DocumentType = constants.Other
	assert.Equal(t, "1234 5678 9012", IDNumber(rec))
	assert.Empty(t, IDNumber(entity.Record{}))
}

type memRepo struct {
	repository.RecordRepository
	got  repository.ListFilter
	recs []entity.Record
}

func (m *memRepo) List(_ context.Context, f repository.ListFilter) ([]entity.Record, error) {
	m.got = f
	return m.recs, nil
}

func TestExportXLSX_ClosesOpenWindow(t *testing.T) {
	repo := &memRepo{recs: []entity.Record{sample()}}
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	b, err := NewService(repo, nil).ExportXLSX(context.Background(), repository.ListFilter{From: &from})
	require.NoError(t, err)
	assert.NotEmpty(t, b)
	require.NotNil(t, repo.got.To)
	assert.True(t, repo.got.To.After(from))
}

func TestSheetsAppend(t *testing.T) {
	var body struct {
		Values [][]any `json:"values"`
	}
	var path, input string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		input = r.URL.Query().Get("valueInputOption")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"spreadsheetId":"sheet-1"}`))
	}))
	defer srv.Close()

	a, err := NewSheetsAppender(context.Background(), SheetsConfig{SpreadsheetID: "sheet-1", Endpoint: srv.URL}, srv.Client(), nil)
	require.NoError(t, err)
	require.NoError(t, a.Append(context.Background(), sample()))

	assert.Equal(t, "/v4/spreadsheets/sheet-1/values/Sheet1!A:C:append", path)
	assert.Equal(t, "RAW", input)
	require.Len(t, body.Values, 1)
	assert.Equal(t, "2024-05-01T10:00:00Z", body.Values[0][0])
	assert.Equal(t, "aadhaar", body.Values[0][1])

	var fields map[string]string
	require.NoError(t, json.Unmarshal([]byte(body.Values[0][2].(string)), &fields))
	assert.Equal(t, "RAVI KUMAR", fields["name"])
	assert.Equal(t, "aadhaar", fields["documentType"])
}

func TestNewSheetsAppender_RequiresID(t *testing.T) {
	_, err := NewSheetsAppender(context.Background(), SheetsConfig{}, nil, nil)
	assert.Error(t, err)
}
