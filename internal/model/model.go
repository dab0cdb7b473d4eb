// Package model содержит доменные сущности банковского клиента и их JSON-представление.
package model

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

func init() {
	// Бэкенд принимает и отдаёт суммы числами, а не строками.
	decimal.MarshalJSONWithoutQuotes = true
}

// User представляет клиента банка.
type User struct {
	ID         ID     `json:"id"`
	ClientCode string `json:"client_code"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	City       string `json:"city"`
	Age        *int   `json:"age,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
}

// Session описывает подтверждение аутентификации: токен и закэшированного пользователя.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Profile содержит снимок профиля клиента. Поля, не описанные явно, сохраняются в Extra.
type Profile struct {
	Name           string          `json:"name"`
	Age            int             `json:"age"`
	Status         string          `json:"status"`
	AverageBalance decimal.Decimal `json:"average_balance"`
	City           string          `json:"city"`

	Extra map[string]json.RawMessage `json:"-"`
}

type profileAlias Profile

// UnmarshalJSON разбирает профиль, сохраняя расширенные поля.
func (p *Profile) UnmarshalJSON(data []byte) error {
	var alias profileAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	extra, err := splitExtra(data, "name", "age", "status", "average_balance", "city")
	if err != nil {
		return err
	}
	*p = Profile(alias)
	p.Extra = extra
	return nil
}

// MarshalJSON сериализует профиль вместе с расширенными полями.
func (p Profile) MarshalJSON() ([]byte, error) {
	return mergeExtra(profileAlias(p), p.Extra)
}

// Balance содержит текущий баланс клиента. Поля, не описанные явно, сохраняются в Extra.
type Balance struct {
	CurrentBalance decimal.Decimal `json:"current_balance"`
	Currency       string          `json:"currency"`
	LastUpdated    string          `json:"last_updated"`

	Extra map[string]json.RawMessage `json:"-"`
}

type balanceAlias Balance

// UnmarshalJSON разбирает баланс, сохраняя расширенные поля.
func (b *Balance) UnmarshalJSON(data []byte) error {
	var alias balanceAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	extra, err := splitExtra(data, "current_balance", "currency", "last_updated")
	if err != nil {
		return err
	}
	*b = Balance(alias)
	b.Extra = extra
	return nil
}

// MarshalJSON сериализует баланс вместе с расширенными полями.
func (b Balance) MarshalJSON() ([]byte, error) {
	return mergeExtra(balanceAlias(b), b.Extra)
}

// RegisterInput содержит поля регистрации нового клиента.
type RegisterInput struct {
	ClientCode      string `json:"client_code"`
	Name            string `json:"name"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	City            string `json:"city,omitempty"`
	Status          string `json:"status,omitempty"`
	Age             *int   `json:"age,omitempty"`
}

// Credentials описывает тело запроса входа.
type Credentials struct {
	ClientCode string `json:"clientCode"`
	Password   string `json:"password"`
}

// Created описывает результат создания записи: сервер возвращает либо запись, либо подтверждение.
type Created[T any] struct {
	Record  *T     `json:"record,omitempty"`
	Message string `json:"message,omitempty"`
}

// Download содержит выгрузку уведомлений в исходном виде.
type Download struct {
	Filename    string
	ContentType string
	Data        []byte
}
