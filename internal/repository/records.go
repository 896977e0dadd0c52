package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/docscan/constants"
	"github.com/joseph-ayodele/docscan/internal/common"
	"github.com/joseph-ayodele/docscan/internal/entity"
)

const recordsTable = "records"

// scanned_at is stored as fixed-width UTC text so that it sorts lexically on
// both dialects.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

var recordColumns = []string{
	"id", "document_type", "raw_text", "fields", "confidence",
	"provider", "side", "source_name", "content_hash", "scanned_at",
}

// ListFilter narrows List. Zero values mean no constraint.
type ListFilter struct {
	DocumentType constants.DocumentType
	From, To     *time.Time
	Limit        int
}

type RecordRepository interface {
	Save(ctx context.Context, rec entity.Record, contentHash string) error
	Get(ctx context.Context, id uuid.UUID) (*entity.Record, error)
	// FindByHash returns the records scanned from an image with this content hash.
	FindByHash(ctx context.Context, contentHash string) ([]entity.Record, error)
	// List returns records newest first.
	List(ctx context.Context, f ListFilter) ([]entity.Record, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type recordRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewRecordRepository(db *DB, logger *slog.Logger) RecordRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &recordRepository{db: db, logger: logger}
}

func (r *recordRepository) builder() *entsql.DialectBuilder {
	return entsql.Dialect(r.db.dialect)
}

func (r *recordRepository) Save(ctx context.Context, rec entity.Record, contentHash string) error {
	if rec.ID == uuid.Nil {
		return fmt.Errorf("%w: record id is empty", common.ErrInvalidInput)
	}
	fields := rec.Fields
	if fields == nil {
		fields = map[constants.FieldName]string{}
	}
	fj, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}
	q, args := r.builder().Insert(recordsTable).
		Columns(recordColumns...).
		Values(
			rec.ID.String(), string(rec.DocumentType), rec.RawText, string(fj), rec.Confidence,
			rec.Provider, rec.Side, rec.SourceName, contentHash, rec.ScannedAt.UTC().Format(timeLayout),
		).Query()
	if err := r.db.drv.Exec(ctx, q, args, nil); err != nil {
		r.logger.Error("failed to save record", "record_id", rec.ID, "error", err)
		return fmt.Errorf("%w: %w", common.ErrDatabase, err)
	}
	r.logger.Debug("record saved", "record_id", rec.ID, "document_type", rec.DocumentType)
	return nil
}

func (r *recordRepository) Get(ctx context.Context, id uuid.UUID) (*entity.Record, error) {
	b := r.builder()
	q, args := b.Select(recordColumns...).
		From(b.Table(recordsTable)).
		Where(entsql.EQ("id", id.String())).
		Query()
	recs, err := r.query(ctx, q, args)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("record %s: %w", id, common.ErrNotFound)
	}
	return &recs[0], nil
}

func (r *recordRepository) FindByHash(ctx context.Context, contentHash string) ([]entity.Record, error) {
	if contentHash == "" {
		return nil, nil
	}
	b := r.builder()
	q, args := b.Select(recordColumns...).
		From(b.Table(recordsTable)).
		Where(entsql.EQ("content_hash", contentHash)).
		OrderBy(entsql.Desc("side")).
		Query()
	return r.query(ctx, q, args)
}

func (r *recordRepository) List(ctx context.Context, f ListFilter) ([]entity.Record, error) {
	b := r.builder()
	var preds []*entsql.Predicate
	if f.DocumentType != "" {
		preds = append(preds, entsql.EQ("document_type", string(f.DocumentType)))
	}
	if f.From != nil {
		preds = append(preds, entsql.GTE("scanned_at", f.From.UTC().Format(timeLayout)))
	}
	if f.To != nil {
		preds = append(preds, entsql.LTE("scanned_at", f.To.UTC().Format(timeLayout)))
	}
	sel := b.Select(recordColumns...).From(b.Table(recordsTable))
	if len(preds) > 0 {
		sel = sel.Where(entsql.And(preds...))
	}
	sel = sel.OrderBy(entsql.Desc("scanned_at"), entsql.Desc("side"))
	if f.Limit > 0 {
		sel = sel.Limit(f.Limit)
	}
	q, args := sel.Query()
	recs, err := r.query(ctx, q, args)
	if err != nil {
		r.logger.Error("failed to list records", "error", err)
		return nil, err
	}
	return recs, nil
}

func (r *recordRepository) Delete(ctx context.Context, id uuid.UUID) error {
	q, args := r.builder().Delete(recordsTable).Where(entsql.EQ("id", id.String())).Query()
	var res sql.Result
	if err := r.db.drv.Exec(ctx, q, args, &res); err != nil {
		return fmt.Errorf("%w: %w", common.ErrDatabase, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("record %s: %w", id, common.ErrNotFound)
	}
	return nil
}

func (r *recordRepository) query(ctx context.Context, q string, args []any) ([]entity.Record, error) {
	var rows entsql.Rows
	if err := r.db.drv.Query(ctx, q, args, &rows); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrDatabase, err)
	}
	defer func() { _ = rows.Close() }()

	var out []entity.Record
	for rows.Next() {
		var (
			id, dt, raw, fj, prov, side, src, hash, at string
			conf                                      float64
		)
		if err := rows.Scan(&id, &dt, &raw, &fj, &conf, &prov, &side, &src, &hash, &at); err != nil {
			return nil, fmt.Errorf("%w: scan: %w", common.ErrDatabase, err)
		}
		rec, err := toRecord(id, dt, raw, fj, conf, prov, side, src, at)
		if err != nil {
			r.logger.Warn("skipping unreadable record", "record_id", id, "error", err)
			continue
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrDatabase, err)
	}
	return out, nil
}

func toRecord(id, dt, raw, fj string, conf float64, prov, side, src, at string) (entity.Record, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return entity.Record{}, err
	}
	var fields map[constants.FieldName]string
	if err := json.Unmarshal([]byte(fj), &fields); err != nil {
		return entity.Record{}, fmt.Errorf("fields: %w", err)
	}
	ts, err := time.Parse(timeLayout, at)
	if err != nil {
		return entity.Record{}, errors.Join(fmt.Errorf("scanned_at %q", at), err)
	}
	return entity.Record{
		ID:           uid,
		DocumentType: constants.CanonicalizeDocumentType(dt),
		RawText:      raw,
		Fields:       fields,
		Confidence:   conf,
		Provider:     prov,
		Side:         side,
		SourceName:   src,
		ScannedAt:    ts,
	}, nil
}
