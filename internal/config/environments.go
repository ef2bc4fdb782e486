package config

import (
	"crypto/ecdsa"
	"fmt"
	"time"

	"vimart-be/internal/signature"
)

// GatewayEnvironment is the immutable per-environment snapshot handed to the
// gateway client at startup: base URL, merchant credentials and key material.
type GatewayEnvironment struct {
	Name               string
	APIURL             string
	MerchantCode       string
	AccessToken        string
	MerchantPrivateKey *ecdsa.PrivateKey
	GatewayPublicKey   *ecdsa.PublicKey
	ReturnURL          string
	CancelURL          string
	IPNURL             string
	RequestTimeout     time.Duration
	ExpireAfter        int // minutes
}

var gatewayBaseURLs = map[string]string{
	"sandbox":    "https://sandbox-api.vtmoney.vn",
	"preprod":    "https://preprod-api.vtmoney.vn",
	"production": "https://api.vtmoney.vn",
}

// ResolveGatewayEnvironment selects the gateway base URL for the configured
// environment and parses the merchant key material. Called once at startup;
// the result is shared read-only from then on.
func ResolveGatewayEnvironment(cfg *Config) (*GatewayEnvironment, error) {
	apiURL, ok := gatewayBaseURLs[cfg.GatewayEnv]
	if !ok {
		return nil, fmt.Errorf("unknown gateway environment: %q", cfg.GatewayEnv)
	}

	if cfg.MerchantCode == "" {
		return nil, fmt.Errorf("merchant code not configured for environment %s", cfg.GatewayEnv)
	}

	priv, err := signature.ParsePrivateKey([]byte(cfg.MerchantPrivateKeyPEM))
	if err != nil {
		return nil, fmt.Errorf("merchant private key: %w", err)
	}

	pub, err := signature.ParsePublicKey([]byte(cfg.GatewayPublicKeyPEM))
	if err != nil {
		return nil, fmt.Errorf("gateway public key: %w", err)
	}

	return &GatewayEnvironment{
		Name:               cfg.GatewayEnv,
		APIURL:             apiURL,
		MerchantCode:       cfg.MerchantCode,
		AccessToken:        cfg.GatewayAccessToken,
		MerchantPrivateKey: priv,
		GatewayPublicKey:   pub,
		ReturnURL:          cfg.ReturnURL,
		CancelURL:          cfg.CancelURL,
		IPNURL:             cfg.IPNURL,
		RequestTimeout:     time.Duration(cfg.GatewayTimeoutSeconds) * time.Second,
		ExpireAfter:        cfg.PaymentExpireMinutes,
	}, nil
}
