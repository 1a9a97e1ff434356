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

	"github.com/aretw0/blade/pkg/domain"
	"github.com/aretw0/blade/pkg/ports"
)

// EnvelopePrefix marks a phrase field holding an encrypted payload.
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

// ParseKey decodes a base64 AES-256 key.
func ParseKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("history key is not valid base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("history key must be 32 bytes (AES-256), got %d", len(key))
	}
	return key, nil
}

// payload is the part of a record hidden by the envelope.
type payload struct {
	Phrase string        `json:"phrase,omitempty"`
	Params domain.Params `json:"params,omitempty"`
}

type encryptionMiddleware struct {
	next   ports.HistoryStore
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that seals the phrase and params of
// every record with AES-GCM. Name, operator, mode and timestamp stay readable
// for listings. Records written before encryption was enabled are returned unchanged.
func NewEncryptionMiddleware(config EncryptionConfig) (Middleware, error) {
	if len(config.ActiveKey) != 32 {
		return nil, errors.New("active key must be 32 bytes (AES-256)")
	}
	return func(next ports.HistoryStore) ports.HistoryStore {
		return &encryptionMiddleware{
			next:   next,
			config: config,
		}
	}, nil
}

func (m *encryptionMiddleware) Record(ctx context.Context, rec domain.EnrichedRecord) error {
	// 1. Serialize the sensitive part
	plainText, err := json.Marshal(payload{Phrase: rec.Phrase, Params: rec.Params})
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	// 2. Encrypt
	ciphertext, err := encrypt(plainText, m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt record: %w", err)
	}

	// 3. Create envelope
	rec.Phrase = EnvelopePrefix + base64.StdEncoding.EncodeToString(ciphertext)
	rec.Params = nil

	return m.next.Record(ctx, rec)
}

func (m *encryptionMiddleware) Recent(ctx context.Context, n int) ([]domain.EnrichedRecord, error) {
	recs, err := m.next.Recent(ctx, n)
	if err != nil {
		return nil, err
	}
	for i, rec := range recs {
		sealed, ok := strings.CutPrefix(rec.Phrase, EnvelopePrefix)
		if !ok {
			continue
		}
		p, err := m.open(sealed)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", rec.Name, err)
		}
		recs[i].Phrase = p.Phrase
		recs[i].Params = p.Params
	}
	return recs, nil
}

func (m *encryptionMiddleware) open(sealed string) (payload, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return payload{}, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	// Try Active, then Fallback
	plainText, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return payload{}, fmt.Errorf("failed to decrypt record: %w", err)
	}

	var p payload
	if err := json.Unmarshal(plainText, &p); err != nil {
		return payload{}, fmt.Errorf("failed to unmarshal decrypted record: %w", err)
	}
	return p, nil
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
	// Try active key first
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}

	// Try fallbacks in order
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
