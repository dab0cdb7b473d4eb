package handler

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mmeshcher/bank-client/internal/api"
	"github.com/mmeshcher/bank-client/internal/apierror"
	"github.com/mmeshcher/bank-client/internal/httpclient"
	"github.com/mmeshcher/bank-client/internal/middleware"
	"github.com/mmeshcher/bank-client/internal/mock"
	"github.com/mmeshcher/bank-client/internal/model"
	"github.com/mmeshcher/bank-client/internal/session"
)

type stack struct {
	gateway  *api.HTTPGateway
	sessions *session.Manager
}

// newStack поднимает сервер поверх бэкенда в памяти и клиент, который к нему ходит.
func newStack(t *testing.T) stack {
	t.Helper()

	logger := zap.NewNop()
	h := NewHandler(mock.NewBackend(logger), logger, middleware.NewAuthMiddleware("e2e-secret"))
	srv := httptest.NewServer(h.SetupRouter())
	t.Cleanup(srv.Close)

	sessions := session.NewManager(session.NewMemoryStore(), logger)
	client := httpclient.New(httpclient.Config{BaseURL: srv.URL}, sessions, logger)

	return stack{
		gateway:  api.NewHTTPGateway(client, sessions, logger),
		sessions: sessions,
	}
}

func TestEndToEnd_DemoClient(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)

	sess, err := s.gateway.Login(ctx, mock.DemoClientCode, mock.DemoPassword)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
	assert.Equal(t, mock.DemoClientCode, sess.User.ClientCode)
	assert.Equal(t, sess.Token, s.sessions.Token(ctx))

	me, err := s.gateway.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, mock.DemoClientCode, me.ClientCode)

	balance, err := s.gateway.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, "KZT", balance.Currency)
	before := balance.CurrentBalance

	txs, err := s.gateway.Transactions(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, txs, 6)

	transfers, err := s.gateway.Transfers(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, transfers, 3)

	created, err := s.gateway.CreateTransaction(ctx, model.TransactionInput{
		Amount:      decimal.NewFromInt(750),
		Type:        model.TransactionCredit,
		Category:    "Bonus",
		Description: "Cashback",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.Message)
	require.NotNil(t, created.Record)
	assert.Equal(t, "Bonus", created.Record.Category)

	createdJSON, err := s.gateway.CreateTransactionJSON(ctx, model.TransactionInput{
		Amount:      decimal.NewFromInt(250),
		Type:        model.TransactionDebit,
		Category:    "Food",
		Description: "Lunch",
	})
	require.NoError(t, err)
	require.NotNil(t, createdJSON.Record)
	assert.True(t, createdJSON.Record.Amount.Equal(decimal.NewFromInt(-250)))

	balance, err = s.gateway.Balance(ctx)
	require.NoError(t, err)
	assert.True(t, balance.CurrentBalance.Equal(before.Add(decimal.NewFromInt(500))),
		"balance %s, want %s + 500", balance.CurrentBalance, before)

	txs, err = s.gateway.Transactions(ctx, map[string][]string{"category": {"Bonus"}})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, model.FlowIn, txs[0].Flow())

	push, err := s.gateway.GeneratePush(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, push.Message)

	rec, err := s.gateway.Recommendation(ctx, mock.DemoClientCode)
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ProductName)

	dl, err := s.gateway.DownloadPushes(ctx)
	require.NoError(t, err)
	assert.Equal(t, "pushes_"+mock.DemoClientCode+".csv", dl.Filename)
	assert.Contains(t, string(dl.Data), push.Message)

	s.gateway.Logout(ctx)
	assert.Empty(t, s.sessions.Token(ctx))
}

func TestEndToEnd_Transfers(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)

	_, err := s.gateway.Login(ctx, mock.DemoClientCode, mock.DemoPassword)
	require.NoError(t, err)

	in := model.TransferInput{
		Type:             model.TransferOutgoing,
		Amount:           decimal.NewFromInt(5000),
		Recipient:        "Dana",
		RecipientAccount: "4400 4302 1234 5679",
		Description:      "Rent share",
	}

	created, err := s.gateway.CreateTransfer(ctx, in)
	require.NoError(t, err)
	require.NotNil(t, created.Record)
	assert.Equal(t, model.DirectionOutgoing, created.Record.Direction())

	created, err = s.gateway.CreateTransferJSON(ctx, in)
	require.NoError(t, err)
	require.NotNil(t, created.Record)

	in.Amount = decimal.NewFromInt(1_000_000_000)
	_, err = s.gateway.CreateTransferJSON(ctx, in)
	require.Error(t, err)
	assert.True(t, apierror.Is(err, apierror.KindDomain), "got %v", err)
}

func TestEndToEnd_InvalidCredentials(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)

	_, err := s.gateway.Login(ctx, mock.DemoClientCode, "wrong-password")
	require.Error(t, err)
	assert.True(t, apierror.Is(err, apierror.KindInvalidCredentials), "got %v", err)
	assert.Empty(t, s.sessions.Token(ctx))
}

func TestEndToEnd_ForeignTokenExpiresSession(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)

	foreign, err := middleware.NewAuthMiddleware("another-server").IssueToken(mock.DemoClientCode)
	require.NoError(t, err)
	require.NoError(t, s.sessions.Set(ctx, foreign, model.User{ClientCode: mock.DemoClientCode}))

	var events []session.ExpiredEvent
	s.sessions.Subscribe(func(e session.ExpiredEvent) { events = append(events, e) })

	_, err = s.gateway.Balance(ctx)
	require.Error(t, err)
	assert.True(t, apierror.Is(err, apierror.KindUnauthorized), "got %v", err)
	assert.Len(t, events, 1)
	assert.Empty(t, s.sessions.Token(ctx))
}
