package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mmeshcher/bank-client/internal/api"
	"github.com/mmeshcher/bank-client/internal/config"
	"github.com/mmeshcher/bank-client/internal/mock"
)

func TestNew_MockWhenBaseURLMissing(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{
		SessionFile: filepath.Join(t.TempDir(), "session.json"),
	}

	a, err := New(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, ModeMock, a.Mode)
	assert.IsType(t, &mock.Gateway{}, a.Gateway)

	sess, err := a.Gateway.Login(ctx, mock.DemoClientCode, mock.DemoPassword)
	require.NoError(t, err)
	assert.Equal(t, sess.Token, a.Sessions.Token(ctx))
}

func TestNew_SessionSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{
		APIBaseURL:  "mock:",
		SessionFile: filepath.Join(t.TempDir(), "session.json"),
	}

	first, err := New(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	_, err = first.Gateway.Login(ctx, mock.DemoClientCode, mock.DemoPassword)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := New(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	defer second.Close()

	sess, ok := second.Sessions.Session(ctx)
	require.True(t, ok)
	assert.Equal(t, mock.DemoClientCode, sess.User.ClientCode)
}

func TestNew_HTTPGateway(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"current_balance": 100, "currency": "kzt"}`))
	}))
	defer srv.Close()

	ctx := context.Background()
	cfg := &config.Config{
		APIBaseURL:  srv.URL,
		SessionFile: filepath.Join(t.TempDir(), "session.json"),
	}

	a, err := New(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, ModeHTTP, a.Mode)
	assert.IsType(t, &api.HTTPGateway{}, a.Gateway)

	balance, err := a.Gateway.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, "KZT", balance.Currency)
	assert.Empty(t, gotAuth)
}
