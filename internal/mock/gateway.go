package mock

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/bank-client/internal/api"
	"github.com/mmeshcher/bank-client/internal/apierror"
	"github.com/mmeshcher/bank-client/internal/model"
	"github.com/mmeshcher/bank-client/internal/money"
	"github.com/mmeshcher/bank-client/internal/validation"
)

// DefaultLatency — искусственная задержка ответа шлюза.
const DefaultLatency = 300 * time.Millisecond

// Gateway реализует api.Gateway поверх Backend с имитацией сетевой задержки.
type Gateway struct {
	backend  *Backend
	sessions api.SessionManager
	latency  time.Duration
	logger   *zap.Logger
}

var _ api.Gateway = (*Gateway)(nil)

// NewGateway создаёт шлюз. Отрицательная задержка заменяется нулём.
func NewGateway(backend *Backend, sessions api.SessionManager, latency time.Duration, logger *zap.Logger) *Gateway {
	if latency < 0 {
		latency = 0
	}
	return &Gateway{
		backend:  backend,
		sessions: sessions,
		latency:  latency,
		logger:   logger,
	}
}

// wait имитирует сеть: отмена контекста прерывает ожидание как сетевая ошибка.
func (g *Gateway) wait(ctx context.Context) error {
	if g.latency == 0 {
		if err := ctx.Err(); err != nil {
			return apierror.Network(err)
		}
		return nil
	}
	timer := time.NewTimer(g.latency)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return apierror.Network(ctx.Err())
	case <-timer.C:
		return nil
	}
}

// authorize находит клиента по токену сессии. Неизвестный токен сбрасывает сессию,
// как ответ 401 от настоящего сервера.
func (g *Gateway) authorize(ctx context.Context, op string) (string, error) {
	if err := g.wait(ctx); err != nil {
		return "", err
	}

	code, ok := g.backend.ClientCodeFor(g.sessions.Token(ctx))
	if !ok {
		g.sessions.Expire(ctx, "mock "+op+" unauthorized")
		return "", apierror.Unauthorized("")
	}
	return code, nil
}

func (g *Gateway) Register(ctx context.Context, in model.RegisterInput) (*model.Session, error) {
	if err := g.wait(ctx); err != nil {
		return nil, err
	}

	user, err := g.backend.Register(ctx, in)
	if err != nil {
		return nil, toAPIError(err)
	}
	return g.startSession(ctx, user)
}

func (g *Gateway) Login(ctx context.Context, clientCode, password string) (*model.Session, error) {
	if err := validation.Credentials(clientCode, password); err != nil {
		return nil, err
	}
	if err := g.wait(ctx); err != nil {
		return nil, err
	}

	user, err := g.backend.Authenticate(ctx, clientCode, password)
	if err != nil {
		return nil, toAPIError(err)
	}
	return g.startSession(ctx, user)
}

func (g *Gateway) startSession(ctx context.Context, user *model.User) (*model.Session, error) {
	sess := &model.Session{Token: g.backend.IssueToken(user.ClientCode), User: *user}
	if err := g.sessions.Set(ctx, sess.Token, sess.User); err != nil {
		return nil, err
	}
	g.logger.Info("mock session started", zap.String("client_code", user.ClientCode))
	return sess, nil
}

func (g *Gateway) CurrentUser(ctx context.Context) (*model.User, error) {
	code, err := g.authorize(ctx, "current user")
	if err != nil {
		return nil, err
	}
	user, err := g.backend.User(ctx, code)
	if err != nil {
		return nil, toAPIError(err)
	}
	if sess, ok := g.sessions.Session(ctx); ok {
		if err := g.sessions.Set(ctx, sess.Token, *user); err != nil {
			g.logger.Warn("refresh stored user", zap.Error(err))
		}
	}
	return user, nil
}

func (g *Gateway) Logout(ctx context.Context) {
	if err := g.sessions.Clear(ctx); err != nil {
		g.logger.Warn("clear session on logout", zap.Error(err))
	}
}

func (g *Gateway) Profile(ctx context.Context) (*model.Profile, error) {
	code, err := g.authorize(ctx, "profile")
	if err != nil {
		return nil, err
	}
	profile, err := g.backend.Profile(ctx, code)
	return profile, toAPIError(err)
}

func (g *Gateway) Balance(ctx context.Context) (*model.Balance, error) {
	code, err := g.authorize(ctx, "balance")
	if err != nil {
		return nil, err
	}
	balance, err := g.backend.Balance(ctx, code)
	if err != nil {
		return nil, toAPIError(err)
	}
	balance.Currency = money.NormalizeCurrency(balance.Currency)
	return balance, nil
}

func (g *Gateway) Transactions(ctx context.Context, params url.Values) ([]model.Transaction, error) {
	code, err := g.authorize(ctx, "transactions")
	if err != nil {
		return nil, err
	}
	items, err := g.backend.Transactions(ctx, code, params)
	return items, toAPIError(err)
}

// CreateTransaction и CreateTransactionJSON в памяти различаются только названием:
// кодировать тело здесь не нужно.
func (g *Gateway) CreateTransaction(ctx context.Context, in model.TransactionInput) (*model.Created[model.Transaction], error) {
	return g.createTransaction(ctx, in)
}

func (g *Gateway) CreateTransactionJSON(ctx context.Context, in model.TransactionInput) (*model.Created[model.Transaction], error) {
	return g.createTransaction(ctx, in)
}

func (g *Gateway) createTransaction(ctx context.Context, in model.TransactionInput) (*model.Created[model.Transaction], error) {
	if err := validation.Transaction(in); err != nil {
		return nil, err
	}
	code, err := g.authorize(ctx, "create transaction")
	if err != nil {
		return nil, err
	}
	tx, err := g.backend.CreateTransaction(ctx, code, in)
	if err != nil {
		return nil, toAPIError(err)
	}
	return &model.Created[model.Transaction]{Record: tx, Message: "Transaction created successfully"}, nil
}

func (g *Gateway) Transfers(ctx context.Context, params url.Values) ([]model.Transfer, error) {
	code, err := g.authorize(ctx, "transfers")
	if err != nil {
		return nil, err
	}
	items, err := g.backend.Transfers(ctx, code, params)
	return items, toAPIError(err)
}

func (g *Gateway) CreateTransfer(ctx context.Context, in model.TransferInput) (*model.Created[model.Transfer], error) {
	return g.createTransfer(ctx, in)
}

func (g *Gateway) CreateTransferJSON(ctx context.Context, in model.TransferInput) (*model.Created[model.Transfer], error) {
	return g.createTransfer(ctx, in)
}

func (g *Gateway) createTransfer(ctx context.Context, in model.TransferInput) (*model.Created[model.Transfer], error) {
	if err := validation.Transfer(in); err != nil {
		return nil, err
	}
	code, err := g.authorize(ctx, "create transfer")
	if err != nil {
		return nil, err
	}
	tr, err := g.backend.CreateTransfer(ctx, code, in)
	if err != nil {
		return nil, toAPIError(err)
	}
	return &model.Created[model.Transfer]{Record: tr, Message: "Transfer created successfully"}, nil
}

func (g *Gateway) LatestPush(ctx context.Context) (*model.PushNotification, error) {
	code, err := g.authorize(ctx, "latest push")
	if err != nil {
		return nil, err
	}
	push, err := g.backend.LatestPush(ctx, code)
	return push, toAPIError(err)
}

func (g *Gateway) GeneratePush(ctx context.Context) (*model.PushNotification, error) {
	code, err := g.authorize(ctx, "generate push")
	if err != nil {
		return nil, err
	}
	push, err := g.backend.GeneratePush(ctx, code)
	return push, toAPIError(err)
}

func (g *Gateway) Recommendation(ctx context.Context, clientCode string) (*model.Recommendation, error) {
	if clientCode == "" {
		return nil, apierror.Validation("client code is required")
	}
	if _, err := g.authorize(ctx, "recommendation"); err != nil {
		return nil, err
	}
	rec, err := g.backend.Recommendation(ctx, clientCode)
	return rec, toAPIError(err)
}

func (g *Gateway) DownloadPushes(ctx context.Context) (*model.Download, error) {
	code, err := g.authorize(ctx, "download pushes")
	if err != nil {
		return nil, err
	}
	data, err := g.backend.ExportPushes(ctx, code)
	if err != nil {
		return nil, toAPIError(err)
	}
	return &model.Download{
		Filename:    ExportFilename(code),
		ContentType: "text/csv",
		Data:        data,
	}, nil
}

// toAPIError приводит ошибки бэкенда к тем же классам, что и ответы настоящего сервера.
func toAPIError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *apierror.Error
	if errors.As(err, &apiErr) {
		return err
	}

	switch {
	case errors.Is(err, ErrInvalidCredentials):
		e := apierror.InvalidCredentials()
		e.Err = err
		return e
	case errors.Is(err, ErrClientExists):
		return &apierror.Error{Kind: apierror.KindConflict, StatusCode: http.StatusConflict, Message: err.Error(), Err: err}
	case errors.Is(err, ErrUnknownClient), errors.Is(err, ErrNoPushes):
		return &apierror.Error{Kind: apierror.KindNotFound, StatusCode: http.StatusNotFound, Message: err.Error(), Err: err}
	case errors.Is(err, ErrInsufficientFunds):
		return &apierror.Error{Kind: apierror.KindDomain, StatusCode: http.StatusBadRequest, Message: err.Error(), Err: err}
	}
	return &apierror.Error{Kind: apierror.KindServer, StatusCode: http.StatusInternalServerError, Message: apierror.MsgServer, Err: err}
}
