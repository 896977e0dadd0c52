package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/joseph-ayodele/docscan/internal/entity"
)

type SheetsConfig struct {
	SpreadsheetID   string
	Range           string // default Sheet1!A:C
	CredentialsFile string // service account JSON
	Endpoint        string
}

// SheetsAppender appends one row per record: timestamp, document type and
// the JSON of the extracted fields.
type SheetsAppender struct {
	cfg SheetsConfig
	svc *sheets.Service
	log *slog.Logger
}

// NewSheetsAppender builds the Sheets client. When httpClient is set it is
// used as-is and must carry its own auth.
func NewSheetsAppender(ctx context.Context, cfg SheetsConfig, httpClient *http.Client, logger *slog.Logger) (*SheetsAppender, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("sheets: spreadsheet id is empty")
	}
	if cfg.Range == "" {
		cfg.Range = "Sheet1!A:C"
	}
	var opts []option.ClientOption
	switch {
	case httpClient != nil:
		opts = append(opts, option.WithHTTPClient(httpClient))
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile), option.WithScopes(sheets.SpreadsheetsScope))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(strings.TrimRight(cfg.Endpoint, "/")+"/"))
	}
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &SheetsAppender{cfg: cfg, svc: svc, log: logger}, nil
}

// SheetRow is the appended row for rec.
func SheetRow(rec entity.Record) ([]any, error) {
	payload := map[string]any{"documentType": string(rec.DocumentType)}
	for k, v := range rec.Fields {
		payload[string(k)] = v
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return []any{rec.ScannedAt.UTC().Format(time.RFC3339), string(rec.DocumentType), string(b)}, nil
}

// Append writes recs in one call.
func (a *SheetsAppender) Append(ctx context.Context, recs ...entity.Record) error {
	if len(recs) == 0 {
		return nil
	}
	start := time.Now()
	values := make([][]any, 0, len(recs))
	for _, rec := range recs {
		row, err := SheetRow(rec)
		if err != nil {
			return fmt.Errorf("sheets row %s: %w", rec.ID, err)
		}
		values = append(values, row)
	}
	_, err := a.svc.Spreadsheets.Values.
		Append(a.cfg.SpreadsheetID, a.cfg.Range, &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		a.log.Error("export.sheets.failed", "rows", len(values), "error", err)
		return fmt.Errorf("sheets append: %w", err)
	}
	a.log.Info("export.sheets.ok", "rows", len(values), "elapsed_ms", time.Since(start).Milliseconds())
	return nil
}
