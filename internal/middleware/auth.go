package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/wayfare-app/api/internal/domain"
)

// ctxKey is unexported so no other package can collide with our context keys.
type ctxKey int

const identityKey ctxKey = 0

// authClaims is the token shape minted by the identity provider: the user ID
// in the standard subject claim, the verified address in a private claim.
type authClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// WithIdentity returns a context carrying the authenticated identity.
// Exported for handler tests that bypass the Authenticator.
func WithIdentity(ctx context.Context, identity domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFrom extracts the authenticated identity from the context. The
// second return is false on requests that never passed the Authenticator.
func IdentityFrom(ctx context.Context) (domain.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(domain.Identity)
	return identity, ok
}

// NewAuthenticator returns a middleware that verifies the Authorization
// bearer token on every request and stores the resulting identity in the
// request context. Tokens are HS256 JWTs signed with the secret shared with
// the identity provider; anything else is rejected with 401 AUTH_REQUIRED,
// including expired tokens and tokens whose subject is not a UUID.
func NewAuthenticator(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := verifyRequest(r, secret)
			if !ok {
				writeAuthRequired(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

func verifyRequest(r *http.Request, secret []byte) (domain.Identity, bool) {
	raw, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !found || raw == "" {
		return domain.Identity{}, false
	}

	var claims authClaims
	_, err := jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return domain.Identity{}, false
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return domain.Identity{}, false
	}
	return domain.Identity{ID: userID, Email: claims.Email}, true
}

// writeAuthRequired emits the API's error envelope. Written out by hand
// here to keep the middleware free of a handler package dependency.
func writeAuthRequired(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"code":    "AUTH_REQUIRED",
		"message": "authentication required",
	})
}
