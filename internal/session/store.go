// Package session хранит токен аутентификации и закэшированного пользователя между запусками.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mmeshcher/bank-client/internal/model"
)

//go:generate mockgen -source=store.go -destination=mocks/store_mock.go -package=mocks

// Ключи постоянного хранилища.
const (
	TokenKey = "auth_token"
	UserKey  = "user"
)

// ErrCorrupted возвращается декодером, если сохранённая сессия не разбирается.
var ErrCorrupted = errors.New("stored session is corrupted")

// Store описывает постоянное хранилище сессии.
// Get никогда не возвращает ошибку: пустой результат означает, что нужна повторная аутентификация.
type Store interface {
	Set(ctx context.Context, token string, user model.User) error
	Get(ctx context.Context) (*model.Session, bool)
	Clear(ctx context.Context) error
}

func encode(token string, user model.User) (map[string]string, error) {
	raw, err := json.Marshal(user)
	if err != nil {
		return nil, fmt.Errorf("encode user: %w", err)
	}
	return map[string]string{
		TokenKey: token,
		UserKey:  string(raw),
	}, nil
}

// decode собирает сессию из двух ключей. Без любого из ключей сессия считается пустой, это не ошибка.
func decode(values map[string]string) (*model.Session, bool, error) {
	token, ok := values[TokenKey]
	if !ok || token == "" {
		return nil, false, nil
	}
	rawUser, ok := values[UserKey]
	if !ok || rawUser == "" {
		return nil, false, nil
	}

	var user model.User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrCorrupted, err)
	}

	return &model.Session{Token: token, User: user}, true, nil
}
