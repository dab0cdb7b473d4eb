package session

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"net"
	"syscall"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/mmeshcher/bank-client/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore хранит сессию в таблице session_kv.
type PostgresStore struct {
	pool    *pgxpool.Pool
	logger  *zap.Logger
	backoff func() retry.Backoff
}

// NewPostgresStore подключается к базе и применяет миграции схемы сессии.
func NewPostgresStore(ctx context.Context, dsn string, logger *zap.Logger) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &PostgresStore{
		pool:   pool,
		logger: logger,
		backoff: func() retry.Backoff {
			return retry.WithMaxRetries(3, retry.NewFibonacci(time.Second))
		},
	}

	if err := s.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

func (s *PostgresStore) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// Close закрывает пул соединений.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) Set(ctx context.Context, token string, user model.User) error {
	values, err := encode(token, user)
	if err != nil {
		return err
	}

	return s.withRetry(ctx, func(ctx context.Context) error {
		tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		for key, value := range values {
			_, err := tx.Exec(ctx,
				`INSERT INTO session_kv (key, value) VALUES ($1, $2)
				 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
				key, value,
			)
			if err != nil {
				return fmt.Errorf("upsert %s: %w", key, err)
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
}

func (s *PostgresStore) Get(ctx context.Context) (*model.Session, bool) {
	values := make(map[string]string, 2)

	err := s.withRetry(ctx, func(ctx context.Context) error {
		rows, err := s.pool.Query(ctx,
			`SELECT key, value FROM session_kv WHERE key = ANY($1)`,
			[]string{TokenKey, UserKey},
		)
		if err != nil {
			return fmt.Errorf("select session: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var key, value string
			if err := rows.Scan(&key, &value); err != nil {
				return fmt.Errorf("scan session: %w", err)
			}
			values[key] = value
		}
		return rows.Err()
	})
	if err != nil {
		s.logger.Warn("load stored session", zap.Error(err))
		return nil, false
	}

	sess, ok, err := decode(values)
	if err != nil {
		s.logger.Warn("decode stored session", zap.Error(err))
		return nil, false
	}
	return sess, ok
}

func (s *PostgresStore) Clear(ctx context.Context) error {
	return s.withRetry(ctx, func(ctx context.Context) error {
		_, err := s.pool.Exec(ctx,
			`DELETE FROM session_kv WHERE key = ANY($1)`,
			[]string{TokenKey, UserKey},
		)
		if err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
		return nil
	})
}

func (s *PostgresStore) withRetry(ctx context.Context, fn retry.RetryFunc) error {
	return retry.Do(ctx, s.backoff(), func(ctx context.Context) error {
		err := fn(ctx)
		if err != nil && isRetryable(err) {
			s.logger.Debug("retrying session store operation", zap.Error(err))
			return retry.RetryableError(err)
		}
		return err
	})
}

// isRetryable сообщает, что ошибка временная: конфликт сериализации, дедлок или обрыв соединения.
// Сетевые сбои распознаются по типам ошибок, а не по тексту.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.SerializationFailure ||
			pgErr.Code == pgerrcode.DeadlockDetected ||
			pgerrcode.IsConnectionException(pgErr.Code)
	}

	if pgconn.SafeToRetry(err) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
		return true
	}

	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}
