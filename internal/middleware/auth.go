// Package middleware содержит HTTP middleware тестового сервера банковского API.
package middleware

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/jwtauth/v5"
)

// ClientCodeClaim — claim токена с кодом клиента.
const ClientCodeClaim = "client_code"

const (
	tokenAlgo = "HS256"
	tokenTTL  = 24 * time.Hour
)

// AuthMiddleware выпускает и проверяет Bearer-токены (JWT HS256).
type AuthMiddleware struct {
	tokenAuth *jwtauth.JWTAuth
	ttl       time.Duration
}

// NewAuthMiddleware создаёт новый экземпляр AuthMiddleware с указанным секретным ключом.
// Пустой секрет заменяется случайным: токены тогда живут до перезапуска сервера.
func NewAuthMiddleware(secret string) *AuthMiddleware {
	key := []byte(secret)
	if len(key) == 0 {
		randomKey := make([]byte, 32)
		if _, err := rand.Read(randomKey); err == nil {
			key = randomKey
		} else {
			key = []byte("default-secret-key")
		}
	}

	return &AuthMiddleware{
		tokenAuth: jwtauth.New(tokenAlgo, key, nil),
		ttl:       tokenTTL,
	}
}

// IssueToken выпускает токен для клиента.
func (a *AuthMiddleware) IssueToken(clientCode string) (string, error) {
	claims := map[string]any{ClientCodeClaim: clientCode}
	jwtauth.SetIssuedNow(claims)
	jwtauth.SetExpiry(claims, time.Now().Add(a.ttl))

	_, token, err := a.tokenAuth.Encode(claims)
	if err != nil {
		return "", fmt.Errorf("encode token: %w", err)
	}
	return token, nil
}

// Middleware проверяет заголовок Authorization и кладёт код клиента в контекст запроса.
// Без токена или с недействительным токеном отвечает 401 с JSON-телом.
func (a *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return jwtauth.Verifier(a.tokenAuth)(a.authenticate(next))
}

func (a *AuthMiddleware) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())
		if err != nil || token == nil {
			message := "Not authenticated"
			if err != nil && !errors.Is(err, jwtauth.ErrNoTokenFound) {
				message = "Could not validate credentials"
			}
			WriteJSONError(w, http.StatusUnauthorized, message)
			return
		}

		code, ok := claims[ClientCodeClaim].(string)
		if !ok || code == "" {
			WriteJSONError(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}

		ctx := context.WithValue(r.Context(), clientCodeKey, code)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type contextKey string

const clientCodeKey contextKey = "clientCode"

// ClientCodeFromContext извлекает код клиента из контекста запроса.
func ClientCodeFromContext(ctx context.Context) (string, bool) {
	code, ok := ctx.Value(clientCodeKey).(string)
	return code, ok
}

// WriteJSONError отвечает телом {"message": ...} с указанным статусом.
func WriteJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}
