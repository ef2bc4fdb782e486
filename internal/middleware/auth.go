package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const (
	MerchantUserKey contextKey = "merchantUser"
	TokenClaimsKey  contextKey = "jwtClaims"
)

// RequireAuth gates the merchant API behind a bearer token. The partner
// callback routes must NOT sit behind this: the gateway authenticates with
// message signatures, not JWTs.
func RequireAuth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				unauthorized(w, "missing bearer token")
				return
			}

			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
			token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return secret, nil
			})
			if err != nil || !token.Valid {
				unauthorized(w, "invalid token")
				return
			}

			ctx := r.Context()
			if claims, ok := token.Claims.(jwt.MapClaims); ok {
				ctx = context.WithValue(ctx, TokenClaimsKey, claims)
				if sub, ok := claims["sub"].(string); ok {
					ctx = context.WithValue(ctx, MerchantUserKey, sub)
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// MerchantUserFromContext returns the authenticated subject, if any.
func MerchantUserFromContext(ctx context.Context) (string, bool) {
	sub, ok := ctx.Value(MerchantUserKey).(string)
	return sub, ok
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}
