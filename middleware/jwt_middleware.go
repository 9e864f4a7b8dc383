package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"triptracker/utils/errors"
)

type contextKey string

const mailKey contextKey = "mail"

func JWTMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			tokenString := bearerToken(r)
			if tokenString == "" {
				WriteError(w, errors.ErrUnauthorized)
				return
			}
			mail, err := MailFromToken(tokenString, jwtSecret)
			if err != nil {
				WriteError(w, errors.ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithMail(r.Context(), mail)))
		})
	}
}

// bearerToken reads the Authorization header. Tokens are never taken from
// the query string.
func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(authHeader, "Bearer ")
}

// MailFromToken validates an HMAC signed token and returns its mail claim.
func MailFromToken(tokenString, jwtSecret string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.NewAPIError("INVALID_TOKEN", "Unexpected signing method", http.StatusUnauthorized)
		}
		return []byte(jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return "", errors.ErrUnauthorized
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.ErrUnauthorized
	}
	mail, ok := claims["mail"].(string)
	if !ok || mail == "" {
		return "", errors.ErrUnauthorized
	}
	return mail, nil
}

func WithMail(ctx context.Context, mail string) context.Context {
	return context.WithValue(ctx, mailKey, mail)
}

// MailFromContext returns the authenticated mail set by JWTMiddleware.
func MailFromContext(ctx context.Context) (string, bool) {
	mail, ok := ctx.Value(mailKey).(string)
	return mail, ok && mail != ""
}
