package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func signToken(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	require.NoError(t, err)
	return signed
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuth(t *testing.T) {
	t.Run("ValidToken", func(t *testing.T) {
		var gotSub string
		inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotSub, _ = MerchantUserFromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		})

		tokenStr := signToken(t, testSecret, jwt.MapClaims{
			"sub": "ops@vimart.vn",
			"exp": time.Now().Add(time.Hour).Unix(),
		})

		req := httptest.NewRequest(http.MethodPost, "/api/payments/O1/initiate", nil)
		req.Header.Set("Authorization", "Bearer "+tokenStr)
		rec := httptest.NewRecorder()
		RequireAuth(testSecret)(inner).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ops@vimart.vn", gotSub)
	})

	t.Run("MissingToken", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/payments/O1/initiate", nil)
		rec := httptest.NewRecorder()
		RequireAuth(testSecret)(okHandler()).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("WrongSecret", func(t *testing.T) {
		tokenStr := signToken(t, []byte("other-secret"), jwt.MapClaims{"sub": "ops@vimart.vn"})

		req := httptest.NewRequest(http.MethodPost, "/api/payments/O1/initiate", nil)
		req.Header.Set("Authorization", "Bearer "+tokenStr)
		rec := httptest.NewRecorder()
		RequireAuth(testSecret)(okHandler()).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("ExpiredToken", func(t *testing.T) {
		tokenStr := signToken(t, testSecret, jwt.MapClaims{
			"sub": "ops@vimart.vn",
			"exp": time.Now().Add(-time.Hour).Unix(),
		})

		req := httptest.NewRequest(http.MethodPost, "/api/payments/O1/initiate", nil)
		req.Header.Set("Authorization", "Bearer "+tokenStr)
		rec := httptest.NewRecorder()
		RequireAuth(testSecret)(okHandler()).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Run("PartnerRoutesUseStrictTier", func(t *testing.T) {
		handler := RateLimitMiddleware(okHandler())

		var lastCode int
		for i := 0; i < burstStrict+1; i++ {
			req := httptest.NewRequest(http.MethodPost, "/partner/ipn", nil)
			req.RemoteAddr = "203.0.113.9:1234"
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			lastCode = rec.Code
		}

		assert.Equal(t, http.StatusTooManyRequests, lastCode)
	})

	t.Run("GeneralTierAllowsLargerBurst", func(t *testing.T) {
		handler := RateLimitMiddleware(okHandler())

		for i := 0; i < burstStrict+1; i++ {
			req := httptest.NewRequest(http.MethodGet, "/api/payments/O1/status", nil)
			req.RemoteAddr = "203.0.113.10:1234"
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusOK, rec.Code)
		}
	})

	t.Run("IdentitiesAreIsolated", func(t *testing.T) {
		handler := RateLimitMiddleware(okHandler())

		for i := 0; i < burstStrict; i++ {
			req := httptest.NewRequest(http.MethodPost, "/partner/ipn", nil)
			req.RemoteAddr = "203.0.113.11:1234"
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
		}

		req := httptest.NewRequest(http.MethodPost, "/partner/ipn", nil)
		req.RemoteAddr = "203.0.113.12:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
