package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/DanielPopoola/church-donations/internal/application"
	"github.com/DanielPopoola/church-donations/internal/interfaces/rest"
	"github.com/golang-jwt/jwt/v5"
)

// Principal is the registered donor behind a bearer token.
type Principal struct {
	UserID string
	Name   string
}

// Claims is the token payload issued by the church account service.
type Claims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

type principalKey struct{}

var errNoToken = errors.New("no bearer token")

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the authenticated donor, if any.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// Auth validates HS256 bearer tokens.
type Auth struct {
	secret []byte
	logger *slog.Logger
}

func NewAuth(secret string, logger *slog.Logger) *Auth {
	return &Auth{secret: []byte(secret), logger: logger}
}

// RequireUser rejects requests without a valid token.
func (a *Auth) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := a.authenticate(r)
		if err != nil {
			rest.WriteError(w, application.NewUnauthorizedError("authentication required"), a.logger)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

// OptionalUser lets anonymous requests through as guests. A token that is
// present but invalid is still rejected.
func (a *Auth) OptionalUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := a.authenticate(r)
		switch {
		case errors.Is(err, errNoToken):
			next.ServeHTTP(w, r)
		case err != nil:
			rest.WriteError(w, application.NewUnauthorizedError("invalid bearer token"), a.logger)
		default:
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		}
	})
}

func (a *Auth) authenticate(r *http.Request) (Principal, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return Principal{}, errNoToken
	}

	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return Principal{}, errors.New("malformed authorization header")
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		a.logger.Debug("bearer token rejected", "error", err)
		return Principal{}, err
	}

	if claims.Subject == "" {
		return Principal{}, errors.New("token has no subject")
	}

	return Principal{UserID: claims.Subject, Name: claims.Name}, nil
}
