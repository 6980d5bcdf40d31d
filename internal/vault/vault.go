// Package vault encrypts and decrypts the per-user AI provider credential
// with a single process-wide key.
//
// Stored values have the form hex(nonce) + ":" + hex(ciphertext). The
// ciphertext is sealed with XChaCha20-Poly1305, so a wrong key, a corrupted
// value or a tampered value all fail to open.
package vault

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/pageza/pantrycoach/backend/internal/apperr"
)

const (
	// KeySize is the required length of the process-wide key in bytes.
	KeySize = chacha20poly1305.KeySize

	// CredentialPrefix is the prefix every provider key starts with.
	CredentialPrefix = "sk-"

	// MinCredentialLength is the shortest provider key accepted by LooksValid.
	MinCredentialLength = 20

	separator = ":"
)

// Vault holds the process-wide key. It is safe for concurrent use.
type Vault struct {
	key []byte
}

// New builds a Vault from a configured key. The key may be given as 64 hex
// characters or as exactly 32 raw bytes; anything else is a configuration error.
func New(key string) (*Vault, error) {
	raw, err := parseKey(key)
	if err != nil {
		return nil, err
	}
	return &Vault{key: raw}, nil
}

func parseKey(key string) ([]byte, error) {
	if len(key) == hex.EncodedLen(KeySize) {
		if decoded, err := hex.DecodeString(key); err == nil {
			return decoded, nil
		}
	}
	if len(key) == KeySize {
		return []byte(key), nil
	}
	return nil, fmt.Errorf("encryption key must be %d bytes or %d hex characters, got %d characters",
		KeySize, hex.EncodedLen(KeySize), len(key))
}

// Encrypt seals secret with a fresh random nonce.
func (v *Vault) Encrypt(secret string) (string, error) {
	aead, err := chacha20poly1305.NewX(v.key)
	if err != nil {
		return "", &apperr.EncryptionError{Err: err}
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", &apperr.EncryptionError{Err: fmt.Errorf("failed to read nonce: %w", err)}
	}

	sealed := aead.Seal(nil, nonce, []byte(secret), nil)
	return hex.EncodeToString(nonce) + separator + hex.EncodeToString(sealed), nil
}

// Decrypt opens a value produced by Encrypt.
func (v *Vault) Decrypt(ciphertext string) (string, error) {
	parts := strings.Split(ciphertext, separator)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", &apperr.DecryptionError{Reason: "expected iv:ciphertext"}
	}

	nonce, err := hex.DecodeString(parts[0])
	if err != nil {
		return "", &apperr.DecryptionError{Reason: "iv is not hex", Err: err}
	}
	sealed, err := hex.DecodeString(parts[1])
	if err != nil {
		return "", &apperr.DecryptionError{Reason: "ciphertext is not hex", Err: err}
	}

	aead, err := chacha20poly1305.NewX(v.key)
	if err != nil {
		return "", &apperr.DecryptionError{Reason: "invalid key", Err: err}
	}
	if len(nonce) != aead.NonceSize() {
		return "", &apperr.DecryptionError{Reason: fmt.Sprintf("iv must be %d bytes", aead.NonceSize())}
	}

	plain, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", &apperr.DecryptionError{Reason: "cipher rejected data", Err: err}
	}
	return string(plain), nil
}

// LooksValid is a shape check only. It never contacts the provider.
func (v *Vault) LooksValid(secret string) bool {
	return LooksValid(secret)
}

// LooksValid reports whether secret has the shape of a provider key.
func LooksValid(secret string) bool {
	if len(secret) < MinCredentialLength {
		return false
	}
	if !strings.HasPrefix(secret, CredentialPrefix) {
		return false
	}
	return !strings.ContainsAny(secret, " \t\r\n")
}
