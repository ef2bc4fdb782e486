package signature

import (
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
)

// Sign computes an ECDSA signature over the SHA-256 digest of the raw message
// bytes and returns it base64-encoded. The gateway verifies with the mirror
// scheme, so the message must be the exact serialized body that goes on the
// wire.
func Sign(message []byte, priv *ecdsa.PrivateKey) (string, error) {
	if priv == nil {
		return "", errors.New("nil private key")
	}

	digest := sha256.Sum256(message)
	sig, err := ecdsa.SignASN1(rand.Reader, priv, digest[:])
	if err != nil {
		return "", fmt.Errorf("failed to sign message: %w", err)
	}

	return base64.StdEncoding.EncodeToString(sig), nil
}

// Verify reports whether sig is a valid signature of message under pub.
// It never returns an error: a malformed signature, wrong key or tampered
// message all yield false. Nothing downstream may touch a message that
// fails this check.
func Verify(message []byte, sig string, pub *ecdsa.PublicKey) bool {
	if pub == nil || sig == "" {
		return false
	}

	raw, err := base64.StdEncoding.DecodeString(sig)
	if err != nil {
		return false
	}

	digest := sha256.Sum256(message)
	return ecdsa.VerifyASN1(pub, digest[:], raw)
}

// ParsePrivateKey parses a PEM-encoded PKCS#8 or SEC1 ECDSA private key.
func ParsePrivateKey(pemData []byte) (*ecdsa.PrivateKey, error) {
	block, _ := pem.Decode(pemData)
	if block == nil {
		return nil, errors.New("no PEM block found in private key material")
	}

	if key, err := x509.ParseECPrivateKey(block.Bytes); err == nil {
		return key, nil
	}

	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	ecKey, ok := key.(*ecdsa.PrivateKey)
	if !ok {
		return nil, errors.New("private key is not an ECDSA key")
	}
	return ecKey, nil
}

// ParsePublicKey parses a PEM-encoded PKIX ECDSA public key.
func ParsePublicKey(pemData []byte) (*ecdsa.PublicKey, error) {
	block, _ := pem.Decode(pemData)
	if block == nil {
		return nil, errors.New("no PEM block found in public key material")
	}

	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}

	ecKey, ok := key.(*ecdsa.PublicKey)
	if !ok {
		return nil, errors.New("public key is not an ECDSA key")
	}
	return ecKey, nil
}
