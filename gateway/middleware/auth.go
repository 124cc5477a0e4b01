package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"nsmarket/observability/logging"
)

type contextKey string

// ContextKeySubject carries the authenticated token subject, when present.
const ContextKeySubject contextKey = "gateway.subject"

// AuthConfig controls bearer-token verification for mutating routes.
type AuthConfig struct {
	// HMACSecret signs and verifies tokens. An empty secret disables
	// authentication entirely, which is only sensible in development.
	HMACSecret string
	ClockSkew  time.Duration
}

// Authenticator verifies HMAC-signed bearer tokens.
type Authenticator struct {
	secret []byte
	skew   time.Duration
	logger *slog.Logger
}

// NewAuthenticator builds an authenticator from config.
func NewAuthenticator(cfg AuthConfig, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	skew := cfg.ClockSkew
	if skew <= 0 {
		skew = 2 * time.Minute
	}
	return &Authenticator{
		secret: []byte(strings.TrimSpace(cfg.HMACSecret)),
		skew:   skew,
		logger: logger.With(slog.String("component", "auth")),
	}
}

// Enabled reports whether a verification secret is configured.
func (a *Authenticator) Enabled() bool {
	return len(a.secret) > 0
}

// Middleware rejects requests without a valid bearer token. When no secret is
// configured the middleware passes everything through.
func (a *Authenticator) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !a.Enabled() {
				next.ServeHTTP(w, r)
				return
			}
			tokenString := extractBearer(r.Header.Get("Authorization"))
			if tokenString == "" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}
			subject, err := a.verify(tokenString)
			if err != nil {
				a.logger.Warn("token validation failed",
					slog.String("error", err.Error()),
					logging.MaskField("token", tokenString))
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), ContextKeySubject, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (a *Authenticator) verify(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, jwt.WithLeeway(a.skew))
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", errors.New("token invalid")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("claims not map")
	}
	subject, _ := claims["sub"].(string)
	return subject, nil
}

// Subject returns the token subject stored on the request context, if any.
func Subject(ctx context.Context) string {
	subject, _ := ctx.Value(ContextKeySubject).(string)
	return subject
}

func extractBearer(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
