// Package app собирает зависимости банковского клиента: хранилище сессии,
// менеджер сессии и шлюз к API. Выбор шлюза делается один раз при старте.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mmeshcher/bank-client/internal/api"
	"github.com/mmeshcher/bank-client/internal/config"
	"github.com/mmeshcher/bank-client/internal/httpclient"
	"github.com/mmeshcher/bank-client/internal/mock"
	"github.com/mmeshcher/bank-client/internal/session"
)

// Mode описывает выбранный шлюз.
type Mode string

const (
	ModeHTTP Mode = "http"
	ModeMock Mode = "mock"
)

// App содержит собранные зависимости клиента.
type App struct {
	Gateway  api.Gateway
	Sessions *session.Manager
	Mode     Mode

	closers []func() error
	logger  *zap.Logger
}

// New собирает клиент по конфигурации.
// Сессия хранится в Postgres, если задан DatabaseURI, иначе в файле.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{logger: logger}

	store, err := a.openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.Sessions = session.NewManager(store, logger)

	if cfg.UseMock() {
		a.Mode = ModeMock
		a.Gateway = mock.NewGateway(mock.NewBackend(logger), a.Sessions, cfg.MockLatency, logger)
		logger.Info("using in-memory bank backend", zap.Duration("latency", cfg.MockLatency))
		return a, nil
	}

	client := httpclient.New(httpclient.Config{
		BaseURL:         cfg.APIBaseURL,
		Timeout:         cfg.APITimeout,
		RateLimit:       cfg.RateLimit,
		BreakerFailures: cfg.BreakerFailures,
	}, a.Sessions, logger)

	a.Mode = ModeHTTP
	a.Gateway = api.NewHTTPGateway(client, a.Sessions, logger)
	logger.Info("using bank API", zap.String("base_url", client.BaseURL()))
	return a, nil
}

func (a *App) openStore(ctx context.Context, cfg *config.Config) (session.Store, error) {
	if cfg.DatabaseURI != "" {
		store, err := session.NewPostgresStore(ctx, cfg.DatabaseURI, a.logger)
		if err != nil {
			return nil, fmt.Errorf("open session database: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		return store, nil
	}

	path := cfg.SessionFile
	if path == "" {
		path = session.DefaultPath()
	}
	return session.NewFileStore(path, a.logger), nil
}

// Close освобождает ресурсы хранилища сессии.
func (a *App) Close() error {
	var firstErr error
	for _, c := range a.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
