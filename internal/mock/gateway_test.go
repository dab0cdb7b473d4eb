package mock

import (
	"bytes"
	"context"
	"encoding/csv"
	"net/url"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mmeshcher/bank-client/internal/apierror"
	"github.com/mmeshcher/bank-client/internal/model"
	"github.com/mmeshcher/bank-client/internal/session"
)

func newTestGateway(t *testing.T) (*Gateway, *session.Manager) {
	t.Helper()
	sessions := session.NewManager(session.NewMemoryStore(), zap.NewNop())
	return NewGateway(NewBackend(zap.NewNop()), sessions, 0, zap.NewNop()), sessions
}

func login(t *testing.T, g *Gateway) *model.Session {
	t.Helper()
	sess, err := g.Login(context.Background(), DemoClientCode, DemoPassword)
	require.NoError(t, err)
	return sess
}

func TestGateway_LoginRoundTrip(t *testing.T) {
	g, sessions := newTestGateway(t)
	ctx := context.Background()

	sess := login(t, g)
	assert.NotEmpty(t, sess.Token)
	assert.Equal(t, DemoClientCode, sess.User.ClientCode)

	stored, ok := sessions.Session(ctx)
	require.True(t, ok)
	assert.Equal(t, sess.Token, stored.Token)
	assert.Equal(t, sess.User, stored.User)

	me, err := g.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, DemoClientCode, me.ClientCode)

	g.Logout(ctx)
	_, ok = sessions.Session(ctx)
	assert.False(t, ok)
}

func TestGateway_LoginInvalidCredentials(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		password string
	}{
		{name: "wrong password", code: DemoClientCode, password: "nope-nope"},
		{name: "unknown client", code: "9999", password: DemoPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, sessions := newTestGateway(t)
			_, err := g.Login(context.Background(), tt.code, tt.password)
			assert.True(t, apierror.Is(err, apierror.KindInvalidCredentials), "err = %v", err)
			_, ok := sessions.Session(context.Background())
			assert.False(t, ok)
		})
	}
}

func TestGateway_Register(t *testing.T) {
	g, sessions := newTestGateway(t)
	ctx := context.Background()

	in := model.RegisterInput{ClientCode: "2002", Name: "Timur", Password: "qwerty12", PasswordConfirm: "qwerty12", City: "Shymkent"}
	sess, err := g.Register(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "2002", sess.User.ClientCode)
	assert.Equal(t, sess.Token, sessions.Token(ctx))

	_, err = g.Register(ctx, in)
	assert.True(t, apierror.Is(err, apierror.KindConflict), "err = %v", err)

	in.ClientCode = DemoClientCode
	_, err = g.Register(ctx, in)
	assert.True(t, apierror.Is(err, apierror.KindConflict))

	relogin, err := g.Login(ctx, "2002", "qwerty12")
	require.NoError(t, err)
	assert.Equal(t, "Timur", relogin.User.Name)
}

func TestGateway_CreateTransactionJSON(t *testing.T) {
	g, _ := newTestGateway(t)
	ctx := context.Background()
	login(t, g)

	before, err := g.Balance(ctx)
	require.NoError(t, err)

	created, err := g.CreateTransactionJSON(ctx, model.TransactionInput{
		Amount:      decimal.NewFromInt(750),
		Type:        model.TransactionCredit,
		Category:    "Bonus",
		Description: "Performance bonus",
	})
	require.NoError(t, err)
	require.NotNil(t, created.Record)
	assert.True(t, created.Record.Amount.Equal(decimal.NewFromInt(750)))
	assert.Equal(t, "Bonus", created.Record.Category)
	assert.Equal(t, model.FlowIn, created.Record.Flow())

	after, err := g.Balance(ctx)
	require.NoError(t, err)
	assert.True(t, after.CurrentBalance.Equal(before.CurrentBalance.Add(decimal.NewFromInt(750))))

	items, err := g.Transactions(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, created.Record.ID, items[0].ID, "new transactions come first")
}

func TestGateway_DebitSignFollowsType(t *testing.T) {
	g, _ := newTestGateway(t)
	login(t, g)

	created, err := g.CreateTransaction(context.Background(), model.TransactionInput{
		Amount:      decimal.NewFromInt(2000),
		Type:        model.TransactionDebit,
		Category:    "Food",
		Description: "Lunch",
	})
	require.NoError(t, err)
	assert.Equal(t, "-2000", created.Record.Amount.String())
	assert.False(t, created.Record.TypeConflict())
}

func TestGateway_TransactionsIdempotentAndFiltered(t *testing.T) {
	g, _ := newTestGateway(t)
	ctx := context.Background()
	login(t, g)

	params := url.Values{"category": {"food"}}
	first, err := g.Transactions(ctx, params)
	require.NoError(t, err)
	second, err := g.Transactions(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	require.Len(t, first, 2)
	for _, tx := range first {
		assert.Equal(t, "Food", tx.Category)
	}

	page, err := g.Transactions(ctx, url.Values{"limit": {"2"}, "offset": {"1"}})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, model.ID("5"), page[0].ID)

	_, err = g.Transactions(ctx, url.Values{"limit": {"ten"}})
	assert.True(t, apierror.Is(err, apierror.KindValidation))
}

func TestGateway_CreateTransfer(t *testing.T) {
	g, _ := newTestGateway(t)
	ctx := context.Background()
	login(t, g)

	in := model.TransferInput{
		Type:             model.TransferOutgoing,
		Amount:           decimal.NewFromInt(1000),
		Recipient:        "Madina",
		RecipientAccount: "KZ86125KZT5004100100",
		Description:      "Gift",
	}
	created, err := g.CreateTransfer(ctx, in)
	require.NoError(t, err)
	require.NotNil(t, created.Record)
	assert.Equal(t, model.DirectionOutgoing, created.Record.Direction())

	createdJSON, err := g.CreateTransferJSON(ctx, in)
	require.NoError(t, err)
	assert.NotEqual(t, created.Record.ID, createdJSON.Record.ID)

	transfers, err := g.Transfers(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, createdJSON.Record.ID, transfers[0].ID)

	txs, err := g.Transactions(ctx, url.Values{"category": {"Transfers"}})
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "-1000", txs[0].Amount.String())

	in.Amount = decimal.NewFromInt(100_000_000)
	_, err = g.CreateTransferJSON(ctx, in)
	assert.True(t, apierror.Is(err, apierror.KindDomain), "err = %v", err)
}

func TestGateway_UnauthorizedExpiresSession(t *testing.T) {
	g, sessions := newTestGateway(t)
	ctx := context.Background()
	require.NoError(t, sessions.Set(ctx, "forged-token", model.User{ClientCode: DemoClientCode}))

	var events []session.ExpiredEvent
	sessions.Subscribe(func(e session.ExpiredEvent) { events = append(events, e) })

	_, err := g.Transactions(ctx, nil)
	assert.True(t, apierror.Is(err, apierror.KindUnauthorized))
	_, ok := sessions.Session(ctx)
	assert.False(t, ok)
	assert.Len(t, events, 1)
}

func TestGateway_Push(t *testing.T) {
	g, _ := newTestGateway(t)
	ctx := context.Background()
	login(t, g)

	latest, err := g.LatestPush(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, latest.Message)

	rec, err := g.Recommendation(ctx, DemoClientCode)
	require.NoError(t, err)
	assert.Equal(t, "Travel card", rec.ProductName)

	generated, err := g.GeneratePush(ctx)
	require.NoError(t, err)
	assert.Equal(t, rec.PushText, generated.Message)

	latest, err = g.LatestPush(ctx)
	require.NoError(t, err)
	assert.Equal(t, generated.ID, latest.ID)

	dl, err := g.DownloadPushes(ctx)
	require.NoError(t, err)
	assert.Equal(t, "pushes_1001.csv", dl.Filename)

	rows, err := csv.NewReader(bytes.NewReader(dl.Data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"id", "message", "type", "created_at", "read"}, rows[0])
	assert.Equal(t, generated.ID.String(), rows[1][0])

	_, err = g.Recommendation(ctx, "no-such-client")
	assert.True(t, apierror.Is(err, apierror.KindNotFound))
}

func TestGateway_LatencyHonoursContext(t *testing.T) {
	sessions := session.NewManager(session.NewMemoryStore(), zap.NewNop())
	g := NewGateway(NewBackend(zap.NewNop()), sessions, time.Second, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := g.Login(ctx, DemoClientCode, DemoPassword)
	assert.True(t, apierror.Is(err, apierror.KindNetwork), "err = %v", err)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestGateway_CancelledContextWithoutLatency(t *testing.T) {
	g, sessions := newTestGateway(t)
	login(t, g)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Login(ctx, DemoClientCode, DemoPassword)
	assert.True(t, apierror.Is(err, apierror.KindNetwork), "err = %v", err)

	_, err = g.Transactions(ctx, nil)
	assert.True(t, apierror.Is(err, apierror.KindNetwork), "err = %v", err)

	_, ok := sessions.Session(context.Background())
	assert.True(t, ok, "cancelled request must not drop the session")
}

func TestGateway_LatencyApplied(t *testing.T) {
	sessions := session.NewManager(session.NewMemoryStore(), zap.NewNop())
	g := NewGateway(NewBackend(zap.NewNop()), sessions, 30*time.Millisecond, zap.NewNop())

	start := time.Now()
	_, err := g.Login(context.Background(), DemoClientCode, DemoPassword)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}
