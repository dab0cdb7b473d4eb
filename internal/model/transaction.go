package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Status описывает статус обработки операции.
type Status string

const (
	StatusCompleted  Status = "completed"
	StatusPending    Status = "pending"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
	StatusProcessing Status = "processing"
)

// Valid сообщает, входит ли статус в известный набор.
func (s Status) Valid() bool {
	switch s {
	case StatusCompleted, StatusPending, StatusFailed, StatusCancelled, StatusProcessing:
		return true
	}
	return false
}

// TransactionType описывает явный тип транзакции.
type TransactionType string

const (
	TransactionCredit TransactionType = "credit"
	TransactionDebit  TransactionType = "debit"
)

// Flow — направление движения денег, выведенное из знака суммы.
type Flow string

const (
	FlowIn  Flow = "in"
	FlowOut Flow = "out"
)

// Transaction описывает операцию по счёту клиента.
// Положительная сумма означает поступление, отрицательная означает списание.
type Transaction struct {
	ID          ID              `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Date        string          `json:"date"`
	Status      Status          `json:"status"`
	Reference   string          `json:"reference"`
	ClientCode  string          `json:"client_code,omitempty"`
	Type        TransactionType `json:"type,omitempty"`
}

// Flow возвращает направление по знаку суммы. Поле Type при этом не учитывается.
func (t Transaction) Flow() Flow {
	if t.Amount.Sign() < 0 {
		return FlowOut
	}
	return FlowIn
}

// TypeConflict сообщает, что явный тип противоречит знаку суммы.
func (t Transaction) TypeConflict() bool {
	switch TransactionType(strings.ToLower(string(t.Type))) {
	case TransactionCredit:
		return t.Amount.Sign() < 0
	case TransactionDebit:
		return t.Amount.Sign() > 0
	}
	return false
}

// TransactionInput содержит поля создания транзакции.
type TransactionInput struct {
	Amount      decimal.Decimal `json:"amount"`
	Type        TransactionType `json:"type"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Date        string          `json:"date,omitempty"`
	ClientCode  string          `json:"client_code,omitempty"`
}
