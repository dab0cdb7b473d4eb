package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/mmeshcher/bank-client/internal/model"
)

// FileStore хранит сессию в JSON-файле вида {"auth_token": "...", "user": "{...}"}.
type FileStore struct {
	path   string
	logger *zap.Logger
	mu     sync.RWMutex
}

// NewFileStore создаёт файловое хранилище. Каталог создаётся при первой записи.
func NewFileStore(path string, logger *zap.Logger) *FileStore {
	return &FileStore{path: path, logger: logger}
}

// DefaultPath возвращает путь к файлу сессии в пользовательском каталоге конфигурации.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "bank-client", "session.json")
}

func (s *FileStore) Set(ctx context.Context, token string, user model.User) error {
	values, err := encode(token, user)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(values)
}

func (s *FileStore) Get(ctx context.Context) (*model.Session, bool) {
	s.mu.RLock()
	raw, err := os.ReadFile(s.path)
	s.mu.RUnlock()

	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("read session file", zap.String("path", s.path), zap.Error(err))
		}
		return nil, false
	}

	var values map[string]string
	if err := json.Unmarshal(raw, &values); err != nil {
		s.logger.Warn("session file is not valid json", zap.String("path", s.path), zap.Error(err))
		return nil, false
	}

	sess, ok, err := decode(values)
	if err != nil {
		s.logger.Warn("decode stored session", zap.String("path", s.path), zap.Error(err))
		return nil, false
	}
	return sess, ok
}

func (s *FileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

// write заменяет файл атомарно: пишет во временный файл рядом и переименовывает его.
func (s *FileStore) write(values map[string]string) error {
	raw, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return fmt.Errorf("chmod session file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}
