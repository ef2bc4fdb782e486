package config

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_USER", "testuser")
	t.Setenv("DB_PASSWORD", "testpass")
	t.Setenv("DB_NAME", "testdb")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("APP_ENV", "test")
}

func TestLoadConfig(t *testing.T) {
	t.Run("Success loading from env", func(t *testing.T) {
		setBaseEnv(t)
		t.Setenv("VTMONEY_ENV", "preprod")
		t.Setenv("VTMONEY_MERCHANT_CODE", "MC001")
		t.Setenv("VTMONEY_ACCESS_TOKEN", "token-123")
		t.Setenv("VTMONEY_TIMEOUT_SECONDS", "30")
		t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
		t.Setenv("FAILED_ORDER_POLICY", "keep")

		cfg := LoadConfig()

		assert.Equal(t, "localhost", cfg.DBHost)
		assert.Equal(t, "8080", cfg.AppPort)
		assert.Equal(t, "preprod", cfg.GatewayEnv)
		assert.Equal(t, "MC001", cfg.MerchantCode)
		assert.Equal(t, "token-123", cfg.GatewayAccessToken)
		assert.Equal(t, 30, cfg.GatewayTimeoutSeconds)
		assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
		assert.Equal(t, FailedOrderKeep, cfg.FailedOrderPolicy)
	})

	t.Run("Defaults", func(t *testing.T) {
		setBaseEnv(t)
		t.Setenv("VTMONEY_ENV", "")
		t.Setenv("VTMONEY_TIMEOUT_SECONDS", "")
		t.Setenv("FAILED_ORDER_POLICY", "")
		t.Setenv("KAFKA_BROKERS", "")
		t.Setenv("NOTIFICATION_TOPIC", "")

		cfg := LoadConfig()

		assert.Equal(t, "sandbox", cfg.GatewayEnv)
		assert.Equal(t, 15, cfg.GatewayTimeoutSeconds)
		assert.Equal(t, FailedOrderDelete, cfg.FailedOrderPolicy)
		assert.Equal(t, "payment-notifications", cfg.NotificationTopic)
		assert.Nil(t, cfg.KafkaBrokers)
	})
}

func testKeyPEMs(t *testing.T) (privPEM, pubPEM string) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	privDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)

	privPEM = string(pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: privDER}))
	pubPEM = string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER}))
	return privPEM, pubPEM
}

func TestResolveGatewayEnvironment(t *testing.T) {
	privPEM, pubPEM := testKeyPEMs(t)

	valid := &Config{
		GatewayEnv:            "sandbox",
		MerchantCode:          "MC001",
		GatewayAccessToken:    "token-123",
		MerchantPrivateKeyPEM: privPEM,
		GatewayPublicKeyPEM:   pubPEM,
		GatewayTimeoutSeconds: 20,
		PaymentExpireMinutes:  15,
	}

	t.Run("Success", func(t *testing.T) {
		env, err := ResolveGatewayEnvironment(valid)
		require.NoError(t, err)

		assert.Equal(t, "sandbox", env.Name)
		assert.Equal(t, "https://sandbox-api.vtmoney.vn", env.APIURL)
		assert.Equal(t, "MC001", env.MerchantCode)
		assert.Equal(t, 20*time.Second, env.RequestTimeout)
		assert.NotNil(t, env.MerchantPrivateKey)
		assert.NotNil(t, env.GatewayPublicKey)
	})

	t.Run("UnknownEnvironment", func(t *testing.T) {
		cfg := *valid
		cfg.GatewayEnv = "staging"

		_, err := ResolveGatewayEnvironment(&cfg)
		assert.Error(t, err)
	})

	t.Run("MissingMerchantCode", func(t *testing.T) {
		cfg := *valid
		cfg.MerchantCode = ""

		_, err := ResolveGatewayEnvironment(&cfg)
		assert.Error(t, err)
	})

	t.Run("BadPrivateKey", func(t *testing.T) {
		cfg := *valid
		cfg.MerchantPrivateKeyPEM = "not a key"

		_, err := ResolveGatewayEnvironment(&cfg)
		assert.Error(t, err)
	})

	t.Run("BadPublicKey", func(t *testing.T) {
		cfg := *valid
		cfg.GatewayPublicKeyPEM = "not a key"

		_, err := ResolveGatewayEnvironment(&cfg)
		assert.Error(t, err)
	})
}
