package backup

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docscan/constants"
	"github.com/joseph-ayodele/docscan/internal/entity"
)

func TestSealOpenRecords(t *testing.T) {
	recs := []entity.Record{{
		ID:           uuid.New(),
		DocumentType: constants.PAN,
		RawText:      "INCOME TAX DEPARTMENT",
		Fields:       map[constants.FieldName]string{constants.FieldPANNumber: "ABCDE1234F"},
		Confidence:   80,
		Provider:     "local",
		ScannedAt:    time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}}

	blob, err := SealRecords(recs, "s3cret")
	require.NoError(t, err)

	got, err := OpenRecords(blob, "s3cret")
	require.NoError(t, err)
	assert.Equal(t, recs, got)
}

func TestEncrypt_Layout(t *testing.T) {
	blob, err := Encrypt([]byte("hello"), "pw")
	require.NoError(t, err)
	raw, err := base64.StdEncoding.DecodeString(blob)
	require.NoError(t, err)
	// salt + nonce + plaintext + GCM tag
	assert.Len(t, raw, SaltSize+NonceSize+5+16)

	other, err := Encrypt([]byte("hello"), "pw")
	require.NoError(t, err)
	assert.NotEqual(t, blob, other)
}

func TestDecrypt_Failures(t *testing.T) {
	blob, err := Encrypt([]byte("hello"), "right")
	require.NoError(t, err)

	_, err = Decrypt(blob, "wrong")
	assert.ErrorIs(t, err, ErrDecrypt)
	_, err = Decrypt("not base64!", "right")
	assert.ErrorIs(t, err, ErrDecrypt)
	_, err = Decrypt(base64.StdEncoding.EncodeToString([]byte("short")), "right")
	assert.ErrorIs(t, err, ErrDecrypt)
	_, err = Decrypt(blob, "")
	assert.ErrorIs(t, err, ErrNoPassphrase)
	_, err = Encrypt([]byte("x"), "")
	assert.ErrorIs(t, err, ErrNoPassphrase)
}
