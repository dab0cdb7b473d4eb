package mock

import (
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/bank-client/internal/model"
)

// Демо-клиент, доступный сразу после старта.
const (
	DemoClientCode = "1001"
	DemoPassword   = "demo1234"
)

func (b *Backend) seed() {
	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}

	now := b.now().UTC()
	day := func(n int) string {
		return now.AddDate(0, 0, -n).Format(time.RFC3339)
	}
	age := 29

	acc := &account{
		user: model.User{
			ID:         "1",
			ClientCode: DemoClientCode,
			Name:       "Aigerim",
			Status:     "Premium",
			City:       "Almaty",
			Age:        &age,
			CreatedAt:  now.AddDate(-1, 0, 0).Format(time.RFC3339),
		},
		passwordHash: hash,
		currency:     "KZT",
		balance:      decimal.RequireFromString("482350.75"),
		updatedAt:    now,
	}
	acc.profile = model.Profile{
		Name:   acc.user.Name,
		Age:    age,
		Status: acc.user.Status,
		City:   acc.user.City,
	}

	acc.transactions = []model.Transaction{
		{ID: "6", Amount: decimal.RequireFromString("-12500"), Description: "Dinner at Navat", Category: "Food", Date: day(0), Status: model.StatusCompleted, Reference: "TX-SEED000006", ClientCode: DemoClientCode, Type: model.TransactionDebit},
		{ID: "5", Amount: decimal.RequireFromString("-86000"), Description: "Air Astana ALA-NQZ", Category: "Travel", Date: day(2), Status: model.StatusCompleted, Reference: "TX-SEED000005", ClientCode: DemoClientCode, Type: model.TransactionDebit},
		{ID: "4", Amount: decimal.RequireFromString("-7400.50"), Description: "Kaspi Magazin", Category: "Shopping", Date: day(3), Status: model.StatusPending, Reference: "TX-SEED000004", ClientCode: DemoClientCode, Type: model.TransactionDebit},
		{ID: "3", Amount: decimal.RequireFromString("350000"), Description: "Salary", Category: "Salary", Date: day(5), Status: model.StatusCompleted, Reference: "TX-SEED000003", ClientCode: DemoClientCode, Type: model.TransactionCredit},
		{ID: "2", Amount: decimal.RequireFromString("-18250.25"), Description: "Alseco utilities", Category: "Utilities", Date: day(9), Status: model.StatusCompleted, Reference: "TX-SEED000002", ClientCode: DemoClientCode, Type: model.TransactionDebit},
		{ID: "1", Amount: decimal.RequireFromString("-3200"), Description: "Coffee Boom", Category: "Food", Date: day(12), Status: model.StatusFailed, Reference: "TX-SEED000001", ClientCode: DemoClientCode, Type: model.TransactionDebit},
	}

	acc.transfers = []model.Transfer{
		{ID: "3", Type: model.TransferOutgoing, Amount: decimal.RequireFromString("25000"), Recipient: "Daniyar S.", RecipientAccount: "4400 4302 1234 5679", Description: "Rent share", Date: day(1), Status: model.StatusCompleted, Reference: "TR-SEED000003"},
		{ID: "2", Type: "card_in", Amount: decimal.RequireFromString("15000"), Recipient: "Aigerim", RecipientAccount: "KZ86125KZT5004100100", Description: "From Madina", Date: day(4), Status: model.StatusCompleted, Reference: "TR-SEED000002", ReportedDirection: model.DirectionIncoming},
		{ID: "1", Type: model.TransferInternal, Amount: decimal.RequireFromString("100000"), Recipient: "Aigerim", RecipientAccount: "KZ11125KZT1001300335", Description: "To savings", Date: day(8), Status: model.StatusCompleted, Reference: "TR-SEED000001"},
	}

	acc.pushes = []model.PushNotification{
		{ID: "1", Message: "Aigerim, get up to 4% back on flights and hotels with the Travel card.", Type: "cards", CreatedAt: day(1)},
	}

	b.accounts[DemoClientCode] = acc
}
