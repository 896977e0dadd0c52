// Package backup seals records into a passphrase-encrypted blob:
// base64(salt || nonce || AES-256-GCM ciphertext), key from PBKDF2-SHA256.
package backup

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"

	"github.com/joseph-ayodele/docscan/internal/entity"
)

const (
	Iterations = 100_000
	SaltSize   = 16
	NonceSize  = 12
	KeySize    = 32
)

var (
	ErrNoPassphrase = errors.New("backup: passphrase is empty")
	// ErrDecrypt covers a wrong passphrase as well as a corrupted blob.
	ErrDecrypt = errors.New("backup: cannot decrypt")
)

func deriveKey(passphrase string, salt []byte) []byte {
	return pbkdf2.Key([]byte(passphrase), salt, Iterations, KeySize, sha256.New)
}

// Encrypt seals plaintext with a fresh salt and nonce.
func Encrypt(plaintext []byte, passphrase string) (string, error) {
	if passphrase == "" {
		return "", ErrNoPassphrase
	}
	buf := make([]byte, SaltSize+NonceSize)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("backup: random: %w", err)
	}
	salt, nonce := buf[:SaltSize], buf[SaltSize:]

	gcm, err := newGCM(passphrase, salt)
	if err != nil {
		return "", err
	}
	sealed := gcm.Seal(buf, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt.
func Decrypt(blob, passphrase string) ([]byte, error) {
	if passphrase == "" {
		return nil, ErrNoPassphrase
	}
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecrypt, err)
	}
	if len(raw) < SaltSize+NonceSize+16 {
		return nil, fmt.Errorf("%w: blob too short", ErrDecrypt)
	}
	salt, nonce, ct := raw[:SaltSize], raw[SaltSize:SaltSize+NonceSize], raw[SaltSize+NonceSize:]
	gcm, err := newGCM(passphrase, salt)
	if err != nil {
		return nil, err
	}
	pt, err := gcm.Open(nil, nonce, ct, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecrypt, err)
	}
	return pt, nil
}

func newGCM(passphrase string, salt []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(deriveKey(passphrase, salt))
	if err != nil {
		return nil, fmt.Errorf("backup: cipher: %w", err)
	}
	return cipher.NewGCM(block)
}

// SealRecords encrypts the JSON of recs.
func SealRecords(recs []entity.Record, passphrase string) (string, error) {
	if recs == nil {
		recs = []entity.Record{}
	}
	b, err := json.Marshal(recs)
	if err != nil {
		return "", fmt.Errorf("backup: marshal: %w", err)
	}
	return Encrypt(b, passphrase)
}

// OpenRecords decrypts a blob produced by SealRecords.
func OpenRecords(blob, passphrase string) ([]entity.Record, error) {
	b, err := Decrypt(blob, passphrase)
	if err != nil {
		return nil, err
	}
	var recs []entity.Record
	if err := json.Unmarshal(b, &recs); err != nil {
		return nil, fmt.Errorf("backup: unmarshal: %w", err)
	}
	return recs, nil
}
