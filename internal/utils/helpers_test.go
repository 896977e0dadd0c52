package utils

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/docscan/constants"
	"github.com/joseph-ayodele/docscan/internal/common"
	"github.com/joseph-ayodele/docscan/internal/entity"
)

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter(" PAN card ", "2024-03-01", "2024-03-01", 5)
	require.NoError(t, err)
	assert.Equal(t, constants.PAN, f.DocumentType)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), *f.From)
	assert.Equal(t, time.Date(2024, 3, 1, 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC), *f.To)
	assert.Equal(t, 5, f.Limit)

	f, err = ParseFilter("other", "", "", 0)
	require.NoError(t, err)
	assert.Equal(t, constants.Other, f.DocumentType)
	assert.Nil(t, f.From)
	assert.Nil(t, f.To)

	f, err = ParseFilter("", "", "", 0)
	require.NoError(t, err)
	assert.Empty(t, f.DocumentType)
}

func TestParseFilter_Rejects(t *testing.T) {
	cases := map[string][4]any{
		"unknown type": {"library card", "", "", 0},
		"bad from":     {"", "01/03/2024", "", 0},
		"bad to":       {"", "", "2024-13-01", 0},
		"reversed":     {"", "2024-03-02", "2024-03-01", 0},
		"negative":     {"", "", "", -1},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseFilter(c[0].(string), c[1].(string), c[2].(string), c[3].(int))
			assert.ErrorIs(t, err, common.ErrInvalidInput)
		})
	}
}

func TestPBRecord_KeepsFields(t *testing.T) {
	rec := entity.Record{
		ID:           uuid.New(),
		DocumentType: constants.PAN,
		RawText:      "INCOME TAX DEPARTMENT\nABCDE1234F",
		Fields:       map[constants.FieldName]string{constants.FieldPANNumber: "ABCDE1234F"},
		Confidence:   87.5,
		Provider:     common.ProviderLocal,
		Side:         "front",
		ScannedAt:    time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}

	pb, err := ToPBRecord(rec)
	require.NoError(t, err)
	assert.Equal(t, rec.DocumentType.Label(), pb.Fields["document_label"].GetStringValue())
	_, hasSource := pb.Fields["source_name"]
	assert.False(t, hasSource)

	back, err := FromPBRecord(pb)
	require.NoError(t, err)
	assert.Equal(t, rec, back)
}

func TestFromPBRecord_BadID(t *testing.T) {
	list, err := ToPBRecords([]entity.Record{{ID: uuid.New(), ScannedAt: time.Now()}})
	require.NoError(t, err)
	require.Len(t, list.Values, 1)

	s := list.Values[0].GetStructValue()
	s.Fields["id"] = structpb.NewStringValue("not-a-uuid")
	_, err = FromPBRecord(s)
	assert.Error(t, err)
}
