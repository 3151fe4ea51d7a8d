package httpx

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/pkg/errors"
)

// Claims is what the identity provider puts in a session token.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Auth checks HS256 bearer tokens. A nil *Auth lets every request through,
// which is how the server runs without AUTH_JWT_SECRET.
type Auth struct {
	secret []byte
	admin  string
}

func NewAuth(secret, adminEmail string) *Auth {
	if secret == "" {
		return nil
	}
	return &Auth{secret: []byte(secret), admin: strings.ToLower(strings.TrimSpace(adminEmail))}
}

type ctxKey struct{}

// EmailFrom returns the caller's email, or "" for anonymous requests.
func EmailFrom(ctx context.Context) string {
	email, _ := ctx.Value(ctxKey{}).(string)
	return email
}

// Issue signs a token for email. Used by tooling and tests; production
// tokens come from the identity provider.
func (a *Auth) Issue(email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func (a *Auth) parse(raw string) (string, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return "", err
	}
	email := strings.ToLower(strings.TrimSpace(claims.Email))
	if email == "" {
		return "", errors.New("token has no email")
	}
	return email, nil
}

// Identify attaches the bearer token's email to the request context.
// Requests without a token continue anonymously; a bad token is rejected.
func (a *Auth) Identify(next http.Handler) http.Handler {
	if a == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		if h == "" {
			next.ServeHTTP(w, r)
			return
		}
		raw, ok := strings.CutPrefix(h, "Bearer ")
		if !ok {
			writeJSON(w, http.StatusUnauthorized, message{Message: "Invalid authorization header"})
			return
		}
		email, err := a.parse(strings.TrimSpace(raw))
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, message{Message: "Invalid or expired token"})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, email)))
	})
}

func (a *Auth) RequireUser(next http.Handler) http.Handler {
	if a == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if EmailFrom(r.Context()) == "" {
			writeJSON(w, http.StatusUnauthorized, message{Message: "Login required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin admits only the configured admin email.
func (a *Auth) RequireAdmin(next http.Handler) http.Handler {
	if a == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email := EmailFrom(r.Context())
		switch {
		case email == "":
			writeJSON(w, http.StatusUnauthorized, message{Message: "Login required"})
		case email != a.admin:
			writeJSON(w, http.StatusForbidden, message{Message: "Admin access required"})
		default:
			next.ServeHTTP(w, r)
		}
	})
}
