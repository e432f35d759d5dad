package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/wolfman30/creator-sales-engine/internal/tenancy"
)

type contextKey string

const creatorClaimsKey contextKey = "creatorClaims"

// CreatorClaims are the claims carried by a creator session token. The
// subject is the creator ID.
type CreatorClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role,omitempty"`
}

// CreatorJWT enforces an HMAC-signed JWT and scopes the request to the
// creator named in the sub claim.
func CreatorJWT(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				writeAuthError(w, "creator auth disabled")
				return
			}
			auth := r.Header.Get("Authorization")
			if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
				writeAuthError(w, "missing authorization header")
				return
			}
			tokenString := strings.TrimPrefix(auth, "Bearer ")
			claims := CreatorClaims{}
			token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				writeAuthError(w, "invalid token")
				return
			}
			if strings.TrimSpace(claims.Subject) == "" {
				writeAuthError(w, "token has no subject")
				return
			}
			ctx := context.WithValue(r.Context(), creatorClaimsKey, claims)
			ctx = tenancy.WithCreatorID(ctx, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CreatorClaimsFromContext returns creator JWT claims if present.
func CreatorClaimsFromContext(ctx context.Context) (CreatorClaims, bool) {
	claims, ok := ctx.Value(creatorClaimsKey).(CreatorClaims)
	return claims, ok
}

func writeAuthError(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}
