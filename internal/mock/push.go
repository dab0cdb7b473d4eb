package mock

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmeshcher/bank-client/internal/model"
)

type product struct {
	name     string
	category string
	text     string
	priority int
}

// products сопоставляет категорию трат с продуктом, который стоит предложить.
var products = map[string]product{
	"Travel":      {name: "Travel card", category: "cards", text: "%s, get up to 4%% back on flights and hotels with the Travel card.", priority: 1},
	"Food":        {name: "Cashback card", category: "cards", text: "%s, your restaurant spend could earn 5%% cashback with our Cashback card.", priority: 1},
	"Shopping":    {name: "Premium card", category: "cards", text: "%s, Premium card gives extra cashback at partner stores.", priority: 2},
	"Transfers":   {name: "Multi-currency account", category: "accounts", text: "%s, send money abroad without conversion fees.", priority: 2},
	"Utilities":   {name: "Autopay", category: "services", text: "%s, set up Autopay and never miss a utility bill.", priority: 3},
	"Investments": {name: "Brokerage account", category: "investments", text: "%s, open a brokerage account in a few minutes.", priority: 2},
}

var defaultProduct = product{
	name:     "Savings deposit",
	category: "deposits",
	text:     "%s, keep your free balance in a savings deposit at 14%% per year.",
	priority: 3,
}

// LatestPush возвращает самое свежее уведомление клиента.
func (b *Backend) LatestPush(ctx context.Context, clientCode string) (*model.PushNotification, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	acc, ok := b.accounts[clientCode]
	if !ok {
		return nil, ErrUnknownClient
	}
	if len(acc.pushes) == 0 {
		return nil, ErrNoPushes
	}
	push := acc.pushes[0]
	return &push, nil
}

// GeneratePush формирует уведомление из текущей рекомендации и сохраняет его.
func (b *Backend) GeneratePush(ctx context.Context, clientCode string) (*model.PushNotification, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	acc, ok := b.accounts[clientCode]
	if !ok {
		return nil, ErrUnknownClient
	}

	rec := recommend(acc)
	push := model.PushNotification{
		ID:        model.ID(uuid.NewString()),
		Message:   rec.PushText,
		Type:      rec.Category,
		CreatedAt: b.now().UTC().Format(time.RFC3339),
	}
	acc.pushes = slices.Insert(acc.pushes, 0, push)
	return &push, nil
}

// Recommendation подбирает продукт по категории с наибольшими тратами.
func (b *Backend) Recommendation(ctx context.Context, clientCode string) (*model.Recommendation, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	acc, ok := b.accounts[clientCode]
	if !ok {
		return nil, ErrUnknownClient
	}
	rec := recommend(acc)
	return &rec, nil
}

// ExportPushes выгружает уведомления клиента в CSV.
func (b *Backend) ExportPushes(ctx context.Context, clientCode string) ([]byte, error) {
	b.mu.RLock()
	acc, ok := b.accounts[clientCode]
	var pushes []model.PushNotification
	if ok {
		pushes = slices.Clone(acc.pushes)
	}
	b.mu.RUnlock()

	if !ok {
		return nil, ErrUnknownClient
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"id", "message", "type", "created_at", "read"}); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, p := range pushes {
		row := []string{p.ID.String(), p.Message, p.Type, p.CreatedAt, strconv.FormatBool(p.Read)}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportFilename возвращает имя файла выгрузки уведомлений клиента.
func ExportFilename(clientCode string) string {
	return "pushes_" + clientCode + ".csv"
}

func recommend(acc *account) model.Recommendation {
	spend := make(map[string]decimal.Decimal)
	for _, tx := range acc.transactions {
		if tx.Amount.Sign() < 0 {
			spend[tx.Category] = spend[tx.Category].Add(tx.Amount.Abs())
		}
	}

	top, topAmount := "", decimal.Zero
	for category, amount := range spend {
		if amount.GreaterThan(topAmount) || (amount.Equal(topAmount) && category < top) {
			top, topAmount = category, amount
		}
	}

	p, ok := products[top]
	if !ok {
		p = defaultProduct
	}
	return model.Recommendation{
		ProductName: p.name,
		PushText:    fmt.Sprintf(p.text, acc.user.Name),
		Category:    p.category,
		Priority:    p.priority,
	}
}
