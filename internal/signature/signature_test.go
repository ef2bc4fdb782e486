package signature

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	return key
}

func TestSignVerify_RoundTrip(t *testing.T) {
	key := generateKey(t)
	message := []byte(`{"orderId":"ord-1","transAmount":12345}`)

	sig, err := Sign(message, key)
	require.NoError(t, err)
	assert.NotEmpty(t, sig)

	assert.True(t, Verify(message, sig, &key.PublicKey))
}

func TestVerify_TamperedMessage(t *testing.T) {
	key := generateKey(t)
	message := []byte(`{"orderId":"ord-1","transAmount":12345}`)

	sig, err := Sign(message, key)
	require.NoError(t, err)

	// Flipping any single byte must break verification.
	for i := range message {
		tampered := make([]byte, len(message))
		copy(tampered, message)
		tampered[i] ^= 0x01

		assert.False(t, Verify(tampered, sig, &key.PublicKey),
			"verification must fail with byte %d flipped", i)
	}
}

func TestVerify_WrongKey(t *testing.T) {
	key := generateKey(t)
	otherKey := generateKey(t)
	message := []byte("payload")

	sig, err := Sign(message, key)
	require.NoError(t, err)

	assert.False(t, Verify(message, sig, &otherKey.PublicKey))
}

func TestVerify_Malformed(t *testing.T) {
	key := generateKey(t)
	message := []byte("payload")

	t.Run("EmptySignature", func(t *testing.T) {
		assert.False(t, Verify(message, "", &key.PublicKey))
	})

	t.Run("NotBase64", func(t *testing.T) {
		assert.False(t, Verify(message, "%%%not-base64%%%", &key.PublicKey))
	})

	t.Run("GarbageBytes", func(t *testing.T) {
		assert.False(t, Verify(message, "aGVsbG8=", &key.PublicKey))
	})

	t.Run("NilKey", func(t *testing.T) {
		assert.False(t, Verify(message, "aGVsbG8=", nil))
	})
}

func TestSign_NilKey(t *testing.T) {
	_, err := Sign([]byte("payload"), nil)
	assert.Error(t, err)
}

func TestParsePrivateKey(t *testing.T) {
	key := generateKey(t)

	t.Run("SEC1", func(t *testing.T) {
		der, err := x509.MarshalECPrivateKey(key)
		require.NoError(t, err)
		pemData := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der})

		parsed, err := ParsePrivateKey(pemData)
		require.NoError(t, err)
		assert.True(t, key.Equal(parsed))
	})

	t.Run("PKCS8", func(t *testing.T) {
		der, err := x509.MarshalPKCS8PrivateKey(key)
		require.NoError(t, err)
		pemData := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})

		parsed, err := ParsePrivateKey(pemData)
		require.NoError(t, err)
		assert.True(t, key.Equal(parsed))
	})

	t.Run("NotPEM", func(t *testing.T) {
		_, err := ParsePrivateKey([]byte("not a key"))
		assert.Error(t, err)
	})
}

func TestParsePublicKey(t *testing.T) {
	key := generateKey(t)

	t.Run("PKIX", func(t *testing.T) {
		der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
		require.NoError(t, err)
		pemData := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})

		parsed, err := ParsePublicKey(pemData)
		require.NoError(t, err)
		assert.True(t, key.PublicKey.Equal(parsed))
	})

	t.Run("NotPEM", func(t *testing.T) {
		_, err := ParsePublicKey([]byte("not a key"))
		assert.Error(t, err)
	})
}
