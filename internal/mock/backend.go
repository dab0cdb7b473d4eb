// Package mock содержит банковский бэкенд в памяти процесса и шлюз поверх него.
// Используется, когда адрес настоящего API не настроен, и как основа тестового сервера.
package mock

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/bank-client/internal/apierror"
	"github.com/mmeshcher/bank-client/internal/model"
	"github.com/mmeshcher/bank-client/internal/money"
	"github.com/mmeshcher/bank-client/internal/validation"
)

var (
	// ErrClientExists возвращается при регистрации занятого кода клиента.
	ErrClientExists = errors.New("client code already registered")
	// ErrInvalidCredentials возвращается при неверном коде клиента или пароле.
	ErrInvalidCredentials = errors.New("invalid client code or password")
	// ErrUnknownClient возвращается, если клиента с таким кодом нет.
	ErrUnknownClient = errors.New("client not found")
	// ErrNoPushes возвращается, если у клиента ещё нет уведомлений.
	ErrNoPushes = errors.New("no push notifications yet")
	// ErrInsufficientFunds возвращается, если перевод больше баланса.
	ErrInsufficientFunds = errors.New("insufficient funds")
)

type account struct {
	user         model.User
	passwordHash []byte
	profile      model.Profile
	currency     string
	balance      decimal.Decimal
	updatedAt    time.Time

	transactions []model.Transaction
	transfers    []model.Transfer
	pushes       []model.PushNotification
}

// Backend хранит клиентов, токены, транзакции, переводы и уведомления в памяти.
// Изменения живут до завершения процесса.
type Backend struct {
	mu       sync.RWMutex
	accounts map[string]*account
	tokens   map[string]string

	now    func() time.Time
	logger *zap.Logger
}

// NewBackend создаёт бэкенд с демо-клиентом.
func NewBackend(logger *zap.Logger) *Backend {
	b := &Backend{
		accounts: make(map[string]*account),
		tokens:   make(map[string]string),
		now:      time.Now,
		logger:   logger,
	}
	b.seed()
	return b
}

// Register создаёт клиента. Код клиента должен быть свободен.
func (b *Backend) Register(ctx context.Context, in model.RegisterInput) (*model.User, error) {
	if err := validation.Register(in); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	code := strings.TrimSpace(in.ClientCode)

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.accounts[code]; ok {
		return nil, ErrClientExists
	}

	now := b.now()
	status := in.Status
	if status == "" {
		status = "Standard"
	}
	acc := &account{
		user: model.User{
			ID:         model.ID(uuid.NewString()),
			ClientCode: code,
			Name:       strings.TrimSpace(in.Name),
			Status:     status,
			City:       in.City,
			Age:        in.Age,
			CreatedAt:  now.UTC().Format(time.RFC3339),
		},
		passwordHash: hash,
		currency:     money.DefaultCurrency,
		balance:      decimal.Zero,
		updatedAt:    now,
	}
	acc.profile = model.Profile{Name: acc.user.Name, Status: status, City: in.City}
	if in.Age != nil {
		acc.profile.Age = *in.Age
	}
	b.accounts[code] = acc

	b.logger.Info("mock client registered", zap.String("client_code", code))
	user := acc.user
	return &user, nil
}

// Authenticate проверяет код клиента и пароль.
func (b *Backend) Authenticate(ctx context.Context, clientCode, password string) (*model.User, error) {
	b.mu.RLock()
	acc, ok := b.accounts[strings.TrimSpace(clientCode)]
	b.mu.RUnlock()

	if !ok {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	user := acc.user
	return &user, nil
}

// IssueToken выдаёт непрозрачный токен сессии для клиента.
func (b *Backend) IssueToken(clientCode string) string {
	token := uuid.NewString()

	b.mu.Lock()
	b.tokens[token] = clientCode
	b.mu.Unlock()

	return token
}

// ClientCodeFor возвращает клиента по токену, выданному IssueToken.
func (b *Backend) ClientCodeFor(token string) (string, bool) {
	if token == "" {
		return "", false
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	code, ok := b.tokens[token]
	return code, ok
}

// User возвращает клиента по коду.
func (b *Backend) User(ctx context.Context, clientCode string) (*model.User, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	acc, ok := b.accounts[clientCode]
	if !ok {
		return nil, ErrUnknownClient
	}
	user := acc.user
	return &user, nil
}

// Profile возвращает профиль клиента; средний баланс считается по текущему балансу.
func (b *Backend) Profile(ctx context.Context, clientCode string) (*model.Profile, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	acc, ok := b.accounts[clientCode]
	if !ok {
		return nil, ErrUnknownClient
	}
	profile := acc.profile
	profile.AverageBalance = acc.balance.Round(2)
	return &profile, nil
}

// Balance возвращает текущий баланс клиента.
func (b *Backend) Balance(ctx context.Context, clientCode string) (*model.Balance, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	acc, ok := b.accounts[clientCode]
	if !ok {
		return nil, ErrUnknownClient
	}
	return &model.Balance{
		CurrentBalance: acc.balance,
		Currency:       acc.currency,
		LastUpdated:    acc.updatedAt.UTC().Format(time.RFC3339),
	}, nil
}

// Transactions возвращает транзакции клиента, новые первыми.
// Поддерживаются параметры category, type, status, limit и offset.
func (b *Backend) Transactions(ctx context.Context, clientCode string, params map[string][]string) ([]model.Transaction, error) {
	page, err := parsePage(params)
	if err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	acc, ok := b.accounts[clientCode]
	if !ok {
		return nil, ErrUnknownClient
	}

	category, typ, status := first(params, "category"), first(params, "type"), first(params, "status")
	out := make([]model.Transaction, 0, len(acc.transactions))
	for _, tx := range acc.transactions {
		if category != "" && !strings.EqualFold(tx.Category, category) {
			continue
		}
		if typ != "" && !strings.EqualFold(string(tx.Type), typ) {
			continue
		}
		if status != "" && !strings.EqualFold(string(tx.Status), status) {
			continue
		}
		out = append(out, tx)
	}
	return paginate(out, page), nil
}

// CreateTransaction проводит транзакцию и меняет баланс.
// Знак суммы приводится к типу: credit даёт поступление, debit даёт списание.
func (b *Backend) CreateTransaction(ctx context.Context, clientCode string, in model.TransactionInput) (*model.Transaction, error) {
	if err := validation.Transaction(in); err != nil {
		return nil, err
	}

	amount, typ := signedAmount(in.Amount, in.Type)

	b.mu.Lock()
	defer b.mu.Unlock()

	acc, ok := b.accounts[clientCode]
	if !ok {
		return nil, ErrUnknownClient
	}

	now := b.now()
	date := in.Date
	if date == "" {
		date = now.UTC().Format(time.RFC3339)
	}
	tx := model.Transaction{
		ID:          model.ID(uuid.NewString()),
		Amount:      amount,
		Description: in.Description,
		Category:    in.Category,
		Date:        date,
		Status:      model.StatusCompleted,
		Reference:   reference("TX"),
		ClientCode:  clientCode,
		Type:        typ,
	}
	acc.transactions = slices.Insert(acc.transactions, 0, tx)
	acc.balance = acc.balance.Add(amount)
	acc.updatedAt = now

	return &tx, nil
}

// Transfers возвращает переводы клиента, новые первыми. Поддерживаются type, status, limit и offset.
func (b *Backend) Transfers(ctx context.Context, clientCode string, params map[string][]string) ([]model.Transfer, error) {
	page, err := parsePage(params)
	if err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	acc, ok := b.accounts[clientCode]
	if !ok {
		return nil, ErrUnknownClient
	}

	typ, status := first(params, "type"), first(params, "status")
	out := make([]model.Transfer, 0, len(acc.transfers))
	for _, tr := range acc.transfers {
		if typ != "" && !strings.EqualFold(string(tr.Type), typ) {
			continue
		}
		if status != "" && !strings.EqualFold(string(tr.Status), status) {
			continue
		}
		out = append(out, tr)
	}
	return paginate(out, page), nil
}

// CreateTransfer проводит перевод. Исходящий перевод списывает сумму с баланса
// и добавляет парную транзакцию в категории Transfers.
func (b *Backend) CreateTransfer(ctx context.Context, clientCode string, in model.TransferInput) (*model.Transfer, error) {
	if err := validation.Transfer(in); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	acc, ok := b.accounts[clientCode]
	if !ok {
		return nil, ErrUnknownClient
	}

	now := b.now()
	tr := model.Transfer{
		ID:               model.ID(uuid.NewString()),
		Type:             in.Type,
		Amount:           in.Amount.Abs(),
		Recipient:        in.Recipient,
		RecipientAccount: in.RecipientAccount,
		Description:      in.Description,
		Date:             now.UTC().Format(time.RFC3339),
		Status:           model.StatusCompleted,
		Reference:        reference("TR"),
	}

	delta := tr.Amount
	if tr.Direction() == model.DirectionOutgoing {
		if acc.balance.LessThan(tr.Amount) {
			return nil, ErrInsufficientFunds
		}
		delta = delta.Neg()
	}

	acc.transfers = slices.Insert(acc.transfers, 0, tr)
	acc.transactions = slices.Insert(acc.transactions, 0, model.Transaction{
		ID:          model.ID(uuid.NewString()),
		Amount:      delta,
		Description: transferDescription(tr),
		Category:    "Transfers",
		Date:        tr.Date,
		Status:      model.StatusCompleted,
		Reference:   tr.Reference,
		ClientCode:  clientCode,
		Type:        typeForAmount(delta),
	})
	acc.balance = acc.balance.Add(delta)
	acc.updatedAt = now

	return &tr, nil
}

func transferDescription(tr model.Transfer) string {
	if tr.Description != "" {
		return tr.Description
	}
	return "Transfer: " + tr.Recipient
}

func signedAmount(amount decimal.Decimal, typ model.TransactionType) (decimal.Decimal, model.TransactionType) {
	switch typ {
	case model.TransactionCredit:
		return amount.Abs(), typ
	case model.TransactionDebit:
		return amount.Abs().Neg(), typ
	}
	return amount, typeForAmount(amount)
}

func typeForAmount(amount decimal.Decimal) model.TransactionType {
	if amount.Sign() < 0 {
		return model.TransactionDebit
	}
	return model.TransactionCredit
}

func reference(prefix string) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + "-" + strings.ToUpper(id[:10])
}

type page struct {
	limit  int
	offset int
}

func parsePage(params map[string][]string) (page, error) {
	var p page
	if raw := first(params, "limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return p, apierror.Validation("limit must be a non-negative integer")
		}
		p.limit = n
	}
	if raw := first(params, "offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return p, apierror.Validation("offset must be a non-negative integer")
		}
		p.offset = n
	}
	return p, nil
}

func paginate[T any](items []T, p page) []T {
	if p.offset >= len(items) {
		return []T{}
	}
	items = items[p.offset:]
	if p.limit > 0 && p.limit < len(items) {
		items = items[:p.limit]
	}
	return slices.Clone(items)
}

func first(params map[string][]string, key string) string {
	if values := params[key]; len(values) > 0 {
		return strings.TrimSpace(values[0])
	}
	return ""
}
