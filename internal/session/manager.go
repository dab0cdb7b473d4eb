package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/bank-client/internal/model"
)

// ExpiredEvent сообщает приложению, что сессия сброшена и нужно вернуть пользователя ко входу.
type ExpiredEvent struct {
	Reason string
	At     time.Time
}

// Manager оборачивает Store и рассылает событие истечения сессии подписчикам.
type Manager struct {
	store  Store
	logger *zap.Logger

	mu          sync.RWMutex
	subscribers map[int]func(ExpiredEvent)
	nextID      int
}

// NewManager создаёт менеджер сессии поверх хранилища.
func NewManager(store Store, logger *zap.Logger) *Manager {
	return &Manager{
		store:       store,
		logger:      logger,
		subscribers: make(map[int]func(ExpiredEvent)),
	}
}

// Token возвращает сохранённый токен или пустую строку.
func (m *Manager) Token(ctx context.Context) string {
	sess, ok := m.store.Get(ctx)
	if !ok {
		return ""
	}
	return sess.Token
}

// Session возвращает сохранённую сессию.
func (m *Manager) Session(ctx context.Context) (*model.Session, bool) {
	return m.store.Get(ctx)
}

// Set сохраняет сессию, заменяя предыдущую.
func (m *Manager) Set(ctx context.Context, token string, user model.User) error {
	return m.store.Set(ctx, token, user)
}

// Clear удаляет сессию без уведомления подписчиков.
func (m *Manager) Clear(ctx context.Context) error {
	return m.store.Clear(ctx)
}

// Expire удаляет сессию и уведомляет подписчиков. Ошибка очистки только логируется.
func (m *Manager) Expire(ctx context.Context, reason string) {
	if err := m.store.Clear(ctx); err != nil {
		m.logger.Error("clear expired session", zap.Error(err))
	}

	m.mu.RLock()
	handlers := make([]func(ExpiredEvent), 0, len(m.subscribers))
	for _, fn := range m.subscribers {
		handlers = append(handlers, fn)
	}
	m.mu.RUnlock()

	m.logger.Info("session expired", zap.String("reason", reason), zap.Int("subscribers", len(handlers)))

	event := ExpiredEvent{Reason: reason, At: time.Now()}
	for _, fn := range handlers {
		fn(event)
	}
}

// Subscribe регистрирует обработчик события истечения сессии и возвращает функцию отписки.
func (m *Manager) Subscribe(fn func(ExpiredEvent)) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subscribers[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subscribers, id)
		m.mu.Unlock()
	}
}
