package cryptox_test

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/aussiebroadwan/credvault/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func newTestCipher(t *testing.T) *cryptox.Cipher {
	t.Helper()
	key, err := cryptox.GenerateKey()
	require.NoError(t, err)

	c, err := cryptox.LoadCipher(cryptox.KeySource{Key: key})
	require.NoError(t, err)
	return c
}

func TestLoadCipher_FailsClosed(t *testing.T) {
	tests := []struct {
		name    string
		src     cryptox.KeySource
		wantErr error
	}{
		{"missing key", cryptox.KeySource{}, cryptox.ErrConfig},
		{"blank key", cryptox.KeySource{Key: "   "}, cryptox.ErrConfig},
		{"not base64", cryptox.KeySource{Key: "not a key at all!"}, cryptox.ErrMalformedKey},
		{"wrong length", cryptox.KeySource{Key: base64.StdEncoding.EncodeToString([]byte("short"))}, cryptox.ErrMalformedKey},
		{"missing file", cryptox.KeySource{Path: filepath.Join(t.TempDir(), "absent")}, cryptox.ErrConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := cryptox.LoadCipher(tt.src)
			require.Nil(t, c)
			require.ErrorIs(t, err, tt.wantErr)
			require.ErrorIs(t, err, cryptox.ErrConfig, "every key failure is a configuration error")
		})
	}
}

func TestLoadCipher_AcceptsEncodingsAndFile(t *testing.T) {
	raw := make([]byte, cryptox.KeySize)
	for i := range raw {
		raw[i] = byte(i * 7)
	}

	for _, material := range []string{
		base64.StdEncoding.EncodeToString(raw),
		base64.RawStdEncoding.EncodeToString(raw),
		base64.URLEncoding.EncodeToString(raw),
		`"` + base64.URLEncoding.EncodeToString(raw) + `"`,
		"  " + base64.RawURLEncoding.EncodeToString(raw) + "\n",
	} {
		_, err := cryptox.LoadCipher(cryptox.KeySource{Key: material})
		require.NoError(t, err, material)
	}

	path := filepath.Join(t.TempDir(), "vault.key")
	require.NoError(t, os.WriteFile(path, []byte(base64.StdEncoding.EncodeToString(raw)+"\n"), 0o600))

	fromFile, err := cryptox.LoadCipher(cryptox.KeySource{Path: path, Key: "ignored"})
	require.NoError(t, err)
	require.NoError(t, fromFile.SelfTest())
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	c := newTestCipher(t)

	for _, plaintext := range []string{"", "bearer-token", "a longer token with spaces and ünïcödé"} {
		sealed, err := c.EncryptString(plaintext)
		require.NoError(t, err)
		require.NotEqual(t, plaintext, sealed)

		opened, err := c.DecryptString(sealed)
		require.NoError(t, err)
		require.Equal(t, plaintext, opened)
	}
}

func TestEncrypt_RandomNonce(t *testing.T) {
	c := newTestCipher(t)

	sealed1, err := c.EncryptString("same")
	require.NoError(t, err)
	sealed2, err := c.EncryptString("same")
	require.NoError(t, err)

	require.NotEqual(t, sealed1, sealed2, "multiple encryptions should produce different ciphertexts")
}

func TestDecrypt_RejectsForeignInput(t *testing.T) {
	c := newTestCipher(t)
	other := newTestCipher(t)

	sealed, err := c.EncryptString("bearer-token")
	require.NoError(t, err)

	raw, err := base64.RawURLEncoding.DecodeString(sealed)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xFF
	tampered := base64.RawURLEncoding.EncodeToString(raw)

	tests := []struct {
		name       string
		cipher     *cryptox.Cipher
		ciphertext string
	}{
		{"garbage", c, "invalid-encrypted-data"},
		{"not base64", c, "%%%"},
		{"too short", c, base64.RawURLEncoding.EncodeToString([]byte("short"))},
		{"tampered tag", c, tampered},
		{"wrong key", other, sealed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plaintext, err := tt.cipher.Decrypt(tt.ciphertext)
			require.ErrorIs(t, err, cryptox.ErrCrypto)
			require.Nil(t, plaintext)
		})
	}
}

func TestRedactedToken(t *testing.T) {
	tok := cryptox.NewRedactedToken("super-secret")

	require.Equal(t, "super-secret", tok.Value())
	require.Equal(t, "[REDACTED]", tok.String())
	require.NotContains(t, tok.GoString(), "super-secret")

	js, err := tok.MarshalJSON()
	require.NoError(t, err)
	require.JSONEq(t, `"[REDACTED]"`, string(js))

	require.True(t, cryptox.NewRedactedToken("").IsEmpty())
}
