package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/colloquy/pkg/domain"
	"github.com/aretw0/colloquy/pkg/ports"
)

// EnvelopePrefix marks encrypted record text.
const EnvelopePrefix = "enc:v1:"

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

// sealed is the plaintext inside an envelope.
type sealed struct {
	Text     string           `json:"text,omitempty"`
	Location *domain.Location `json:"location,omitempty"`
}

type encryptionMiddleware struct {
	next   ports.AuditLog
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that seals the text and location
// of audit records with AES-GCM. The stored record keeps its ids, kind, choice
// and time; its text becomes an envelope and its location is cleared.
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	if len(config.ActiveKey) != 32 {
		panic("active key must be 32 bytes (AES-256)")
	}
	return func(next ports.AuditLog) ports.AuditLog {
		return &encryptionMiddleware{
			next:   next,
			config: config,
		}
	}
}

func (m *encryptionMiddleware) Record(ctx context.Context, rec domain.AuditRecord) error {
	if rec.Text == "" && rec.Location == nil {
		return m.next.Record(ctx, rec)
	}

	plainText, err := json.Marshal(sealed{Text: rec.Text, Location: rec.Location})
	if err != nil {
		return fmt.Errorf("failed to marshal record content: %w", err)
	}
	ciphertext, err := encrypt(plainText, m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt record content: %w", err)
	}

	rec.Text = EnvelopePrefix + base64.StdEncoding.EncodeToString(ciphertext)
	rec.Location = nil
	return m.next.Record(ctx, rec)
}

// Decrypt restores the text and location of a record written through the
// encryption middleware. Records without an envelope are returned unchanged.
func Decrypt(config EncryptionConfig, rec domain.AuditRecord) (domain.AuditRecord, error) {
	encoded, ok := strings.CutPrefix(rec.Text, EnvelopePrefix)
	if !ok {
		return rec, nil
	}

	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return rec, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	// Try Active, then Fallback
	plainText, err := decryptWithRotation(ciphertext, config.ActiveKey, config.FallbackKeys)
	if err != nil {
		return rec, fmt.Errorf("failed to decrypt record %s: %w", rec.ID, err)
	}

	var content sealed
	if err := json.Unmarshal(plainText, &content); err != nil {
		return rec, fmt.Errorf("failed to unmarshal decrypted content: %w", err)
	}
	rec.Text = content.Text
	rec.Location = content.Location
	return rec, nil
}

// Helpers

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}
	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}
	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	ciphertextBytes := ciphertext[gcm.NonceSize():]

	return gcm.Open(nil, nonce, ciphertextBytes, nil)
}
