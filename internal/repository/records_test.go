package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docscan/constants"
	"github.com/joseph-ayodele/docscan/internal/common"
	"github.com/joseph-ayodele/docscan/internal/entity"
)

func openMemory(t *testing.T) RecordRepository {
	t.Helper()
	db, err := Open(context.Background(), Config{}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { Close(db, nil) })
	require.NoError(t, HealthCheck(context.Background(), db, time.Second, nil))
	return NewRecordRepository(db, nil)
}

func record(dt constants.DocumentType, at time.Time, fields map[constants.FieldName]string) entity.Record {
	return entity.Record{
		ID:           uuid.New(),
		DocumentType: dt,
		RawText:      "raw " + string(dt),
		Fields:       fields,
		Confidence:   87.5,
		Provider:     common.ProviderVision,
		SourceName:   "photo.jpg",
		ScannedAt:    at,
	}
}

func TestRecords_SaveGet(t *testing.T) {
	repo := openMemory(t)
	ctx := context.Background()
	at := time.Date(2024, 5, 1, 10, 30, 0, 123456789, time.UTC)
	rec := record(constants.Aadhaar, at, map[constants.FieldName]string{
		constants.FieldAadhaarNumber: "1234 5678 9012",
		constants.FieldHolderName:    "RAVI KUMAR",
	})
	rec.Side = "front"

	require.NoError(t, repo.Save(ctx, rec, "abc"))
	got, err := repo.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.True(t, rec.ScannedAt.Equal(got.ScannedAt))
	got.ScannedAt = rec.ScannedAt
	assert.Equal(t, rec, *got)

	_, err = repo.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestRecords_ListNewestFirstAndFilters(t *testing.T) {
	repo := openMemory(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	old := record(constants.PAN, base, nil)
	mid := record(constants.Aadhaar, base.Add(time.Hour), nil)
	newest := record(constants.PAN, base.Add(2*time.Hour), nil)
	for _, r := range []entity.Record{mid, old, newest} {
		require.NoError(t, repo.Save(ctx, r, ""))
	}

	all, err := repo.List(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []uuid.UUID{newest.ID, mid.ID, old.ID}, []uuid.UUID{all[0].ID, all[1].ID, all[2].ID})
	assert.NotNil(t, all[2].Fields)

	pans, err := repo.List(ctx, ListFilter{DocumentType: constants.PAN, Limit: 1})
	require.NoError(t, err)
	require.Len(t, pans, 1)
	assert.Equal(t, newest.ID, pans[0].ID)

	from := base.Add(30 * time.Minute)
	to := base.Add(90 * time.Minute)
	window, err := repo.List(ctx, ListFilter{From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, mid.ID, window[0].ID)
}

func TestRecords_FindByHashAndDelete(t *testing.T) {
	repo := openMemory(t)
	ctx := context.Background()
	now := time.Now().UTC()
	front := record(constants.Aadhaar, now, nil)
	front.Side = "front"
	back := record(constants.Aadhaar, now, nil)
	back.Side = "back"
	require.NoError(t, repo.Save(ctx, back, "h1"))
	require.NoError(t, repo.Save(ctx, front, "h1"))

	got, err := repo.FindByHash(ctx, "h1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "front", got[0].Side)

	none, err := repo.FindByHash(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, none)

	require.NoError(t, repo.Delete(ctx, front.ID))
	assert.ErrorIs(t, repo.Delete(ctx, front.ID), common.ErrNotFound)
}

func TestRecords_SaveRejectsNilID(t *testing.T) {
	repo := openMemory(t)
	err := repo.Save(context.Background(), entity.Record{}, "")
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}
