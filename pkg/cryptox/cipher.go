package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// KeySize is the length of a vault encryption key in bytes (AES-256).
const KeySize = 32

var (
	// ErrConfig reports that no encryption key was configured. The vault
	// refuses to start without one.
	ErrConfig = errors.New("cryptox: encryption key not configured")

	// ErrMalformedKey reports key material that is not a base64 encoding of
	// KeySize bytes. It wraps ErrConfig.
	ErrMalformedKey = fmt.Errorf("%w: key must be the base64 encoding of %d bytes", ErrConfig, KeySize)

	// ErrCrypto reports ciphertext that could not be authenticated, either
	// because it was tampered with or because it was sealed with another key.
	ErrCrypto = errors.New("cryptox: ciphertext rejected")
)

// KeySource describes where the encryption key comes from. Path wins over Key
// when both are set.
type KeySource struct {
	Key  string // base64 key material, usually VAULT_ENCRYPTION_KEY
	Path string // file containing base64 key material
}

func (s KeySource) read() (string, error) {
	if s.Path != "" {
		data, err := os.ReadFile(s.Path)
		if err != nil {
			return "", fmt.Errorf("%w: read key file: %v", ErrConfig, err)
		}
		return string(data), nil
	}
	if strings.TrimSpace(s.Key) == "" {
		return "", ErrConfig
	}
	return s.Key, nil
}

// Cipher seals and opens opaque byte strings with AES-256-GCM.
// The sealed format is base64url([12-byte nonce][ciphertext][16-byte tag]).
// A Cipher is safe for concurrent use.
type Cipher struct {
	aead cipher.AEAD
}

// LoadCipher reads the key described by src and builds a Cipher. It fails
// closed: a missing key yields ErrConfig and malformed material yields
// ErrMalformedKey. There is no fallback key.
func LoadCipher(src KeySource) (*Cipher, error) {
	material, err := src.read()
	if err != nil {
		return nil, err
	}

	key, err := DecodeKey(material)
	if err != nil {
		return nil, err
	}

	return NewCipher(key)
}

// NewCipher builds a Cipher from a raw KeySize-byte key.
func NewCipher(key []byte) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, ErrMalformedKey
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &Cipher{aead: gcm}, nil
}

// DecodeKey parses base64 key material. Surrounding whitespace and quotes
// (a common artefact of hand-edited .env files) are ignored. Both the standard
// and URL-safe alphabets are accepted, padded or not.
func DecodeKey(material string) ([]byte, error) {
	material = strings.TrimSpace(material)
	material = strings.Trim(material, `"'`)
	if material == "" {
		return nil, ErrConfig
	}

	encodings := []*base64.Encoding{
		base64.URLEncoding,
		base64.RawURLEncoding,
		base64.StdEncoding,
		base64.RawStdEncoding,
	}
	for _, enc := range encodings {
		key, err := enc.DecodeString(material)
		if err == nil && len(key) == KeySize {
			return key, nil
		}
	}

	return nil, ErrMalformedKey
}

// GenerateKey returns fresh key material in the form LoadCipher expects.
func GenerateKey() (string, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}
	return base64.URLEncoding.EncodeToString(key), nil
}

// Encrypt seals plaintext with a random nonce. Sealing the same plaintext
// twice yields different ciphertexts.
func (c *Cipher) Encrypt(plaintext []byte) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, plaintext, nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decrypt opens ciphertext produced by Encrypt. Any input that was not
// produced by Encrypt under the same key fails with ErrCrypto.
func (c *Cipher) Decrypt(ciphertext string) ([]byte, error) {
	sealed, err := base64.RawURLEncoding.DecodeString(ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: not base64url", ErrCrypto)
	}

	nonceSize := c.aead.NonceSize()
	if len(sealed) < nonceSize+c.aead.Overhead() {
		return nil, fmt.Errorf("%w: ciphertext too short", ErrCrypto)
	}

	nonce, body := sealed[:nonceSize], sealed[nonceSize:]
	plaintext, err := c.aead.Open(nil, nonce, body, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCrypto, err)
	}

	return plaintext, nil
}

// EncryptString is Encrypt for string values.
func (c *Cipher) EncryptString(plaintext string) (string, error) {
	return c.Encrypt([]byte(plaintext))
}

// DecryptString is Decrypt for string values.
func (c *Cipher) DecryptString(ciphertext string) (string, error) {
	plaintext, err := c.Decrypt(ciphertext)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// SelfTest performs an encrypt/decrypt round trip. Used by readiness checks
// and the keycheck command.
func (c *Cipher) SelfTest() error {
	const probe = "cryptox-self-test"

	sealed, err := c.EncryptString(probe)
	if err != nil {
		return err
	}

	opened, err := c.DecryptString(sealed)
	if err != nil {
		return err
	}
	if opened != probe {
		return fmt.Errorf("%w: round trip mismatch", ErrCrypto)
	}
	return nil
}
