package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/exploremore-ph/exploremore/internal/rbac"
)

const issuer = "exploremore"

var ErrNoToken = errors.New("no token")

type AuthService struct {
	hmac       []byte
	ttl        time.Duration
	CookieName string
	now        func() time.Time
}

func NewAuthService(secret string, ttl time.Duration, cookieName string) *AuthService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if cookieName == "" {
		cookieName = "token"
	}
	return &AuthService{hmac: []byte(secret), ttl: ttl, CookieName: cookieName, now: time.Now}
}

func (a *AuthService) TTL() time.Duration { return a.ttl }

type Claims struct {
	Sub  string `json:"sub"`
	Role string `json:"role"` // "user" or "admin"
	jwt.RegisteredClaims
}

func (a *AuthService) IssueJWT(sub, role string) (string, time.Time, error) {
	now := a.now()
	exp := now.Add(a.ttl)
	claims := &Claims{
		Sub:  sub,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   sub,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString(a.hmac)
	return s, exp, err
}

func (a *AuthService) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return a.hmac, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return nil, err
	}
	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || c.Sub == "" {
		return nil, errors.New("invalid token")
	}
	return c, nil
}

// TokenFromRequest prefers the Authorization header and falls back to the
// session cookie set at login.
func (a *AuthService) TokenFromRequest(r *http.Request) (string, error) {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer ")), nil
	}
	if c, err := r.Cookie(a.CookieName); err == nil && c.Value != "" {
		return c.Value, nil
	}
	return "", ErrNoToken
}

func (a *AuthService) claims(r *http.Request) (*Claims, error) {
	tok, err := a.TokenFromRequest(r)
	if err != nil {
		return nil, err
	}
	return a.Parse(tok)
}

// JWTMiddleware rejects requests without a valid token and stores the
// subject and claimed role in the request context.
func JWTMiddleware(a *AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := a.claims(r)
			if errors.Is(err, ErrNoToken) {
				http.Error(w, "missing token", http.StatusUnauthorized)
				return
			}
			if err != nil {
				http.Error(w, "bad token", http.StatusUnauthorized)
				return
			}
			ctx := rbac.WithRole(WithSubject(r.Context(), c.Sub), c.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalJWT is JWTMiddleware for public routes: a valid token populates
// the context, anything else passes through anonymously.
func OptionalJWT(a *AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if c, err := a.claims(r); err == nil {
				r = r.WithContext(rbac.WithRole(WithSubject(r.Context(), c.Sub), c.Role))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SetSessionCookie stores tok in an HttpOnly cookie that expires with it.
func (a *AuthService) SetSessionCookie(w http.ResponseWriter, tok string, exp time.Time, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.CookieName,
		Value:    tok,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  exp,
	})
}

func (a *AuthService) ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
