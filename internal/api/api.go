// Package api описывает операции банковского API и их реализацию поверх HTTP.
//
// Gateway выбирается один раз при старте приложения: HTTPGateway для настоящего
// сервера или mock.Gateway для работы без него.
package api

import (
	"context"
	"net/url"

	"github.com/mmeshcher/bank-client/internal/httpclient"
	"github.com/mmeshcher/bank-client/internal/model"
)

// AuthAPI — регистрация, вход и текущий пользователь.
type AuthAPI interface {
	Register(ctx context.Context, in model.RegisterInput) (*model.Session, error)
	Login(ctx context.Context, clientCode, password string) (*model.Session, error)
	CurrentUser(ctx context.Context) (*model.User, error)
	// Logout очищает локальную сессию и не завершается ошибкой.
	Logout(ctx context.Context)
}

// ClientAPI — профиль и баланс клиента.
type ClientAPI interface {
	Profile(ctx context.Context) (*model.Profile, error)
	Balance(ctx context.Context) (*model.Balance, error)
}

// TransactionsAPI — список и создание транзакций.
type TransactionsAPI interface {
	Transactions(ctx context.Context, params url.Values) ([]model.Transaction, error)
	CreateTransaction(ctx context.Context, in model.TransactionInput) (*model.Created[model.Transaction], error)
	CreateTransactionJSON(ctx context.Context, in model.TransactionInput) (*model.Created[model.Transaction], error)
}

// TransfersAPI — список и создание переводов.
type TransfersAPI interface {
	Transfers(ctx context.Context, params url.Values) ([]model.Transfer, error)
	CreateTransfer(ctx context.Context, in model.TransferInput) (*model.Created[model.Transfer], error)
	CreateTransferJSON(ctx context.Context, in model.TransferInput) (*model.Created[model.Transfer], error)
}

// PushAPI — уведомления, рекомендации и выгрузка уведомлений.
type PushAPI interface {
	LatestPush(ctx context.Context) (*model.PushNotification, error)
	GeneratePush(ctx context.Context) (*model.PushNotification, error)
	Recommendation(ctx context.Context, clientCode string) (*model.Recommendation, error)
	DownloadPushes(ctx context.Context) (*model.Download, error)
}

// Gateway объединяет все операции банковского API.
type Gateway interface {
	AuthAPI
	ClientAPI
	TransactionsAPI
	TransfersAPI
	PushAPI
}

// SessionManager — то, что операциям нужно от сессии. *session.Manager удовлетворяет интерфейсу.
type SessionManager interface {
	httpclient.TokenSource
	Session(ctx context.Context) (*model.Session, bool)
	Set(ctx context.Context, token string, user model.User) error
	Clear(ctx context.Context) error
}
