// Package crypto defines the encryption boundary for customer PII and ships
// a local AES-GCM implementation for development and tests. Production
// deployments swap in a KMS-backed EncryptionService.
package crypto

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	crand "crypto/rand"
	"fmt"
	"io"

	"github.com/yourorg/payment-router/internal/payerrors"
)

// EncryptionService encrypts and decrypts opaque byte payloads. DecryptBatch
// is all-or-nothing: a single failing entry fails the whole call, so callers
// never see a partially decrypted record.
type EncryptionService interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
	DecryptBatch(ctx context.Context, ciphertexts map[string][]byte) (map[string][]byte, error)
}

// AESGCMService is a local AES-256-GCM EncryptionService. The nonce is
// prepended to each ciphertext.
type AESGCMService struct {
	aead cipher.AEAD
}

// NewAESGCMService builds an AESGCMService from a 32-byte key.
func NewAESGCMService(key []byte) (*AESGCMService, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes, got %d: %w", len(key), payerrors.ErrEncryptionFailed)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", payerrors.ErrEncryptionFailed)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init gcm: %w", payerrors.ErrEncryptionFailed)
	}
	return &AESGCMService{aead: aead}, nil
}

// Encrypt seals plaintext under a fresh random nonce.
func (s *AESGCMService) Encrypt(_ context.Context, plaintext []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(crand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("nonce generation: %w", payerrors.ErrEncryptionFailed)
	}
	return s.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt opens a nonce-prefixed ciphertext.
func (s *AESGCMService) Decrypt(_ context.Context, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < s.aead.NonceSize() {
		return nil, fmt.Errorf("ciphertext shorter than nonce: %w", payerrors.ErrDecryptionFailed)
	}
	nonce, sealed := ciphertext[:s.aead.NonceSize()], ciphertext[s.aead.NonceSize():]
	plaintext, err := s.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("open ciphertext: %w", payerrors.ErrDecryptionFailed)
	}
	return plaintext, nil
}

// DecryptBatch decrypts every entry or none.
func (s *AESGCMService) DecryptBatch(ctx context.Context, ciphertexts map[string][]byte) (map[string][]byte, error) {
	out := make(map[string][]byte, len(ciphertexts))
	for name, ct := range ciphertexts {
		pt, err := s.Decrypt(ctx, ct)
		if err != nil {
			return nil, fmt.Errorf("batch entry %q: %w", name, err)
		}
		out[name] = pt
	}
	return out, nil
}
