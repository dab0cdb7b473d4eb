package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// TransferType описывает тип перевода.
type TransferType string

const (
	TransferOutgoing TransferType = "outgoing"
	TransferIncoming TransferType = "incoming"
	TransferInternal TransferType = "internal"
	TransferExternal TransferType = "external"
)

// Direction — каноническое направление перевода.
type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

// Transfer описывает перевод. Сумма всегда неотрицательна, направление задаётся типом.
type Transfer struct {
	ID                ID              `json:"id"`
	Type              TransferType    `json:"type"`
	Amount            decimal.Decimal `json:"amount"`
	Recipient         string          `json:"recipient"`
	RecipientAccount  string          `json:"recipient_account"`
	Description       string          `json:"description"`
	Date              string          `json:"date"`
	Status            Status          `json:"status"`
	Reference         string          `json:"reference"`
	ReportedDirection Direction       `json:"direction,omitempty"`
}

// Direction возвращает направление перевода.
// Приоритет: явное поле direction, затем тип incoming/outgoing, затем суффикс _in/_out.
// Внутренние и внешние переводы без других признаков считаются исходящими.
func (t Transfer) Direction() Direction {
	switch Direction(strings.ToLower(string(t.ReportedDirection))) {
	case DirectionIncoming:
		return DirectionIncoming
	case DirectionOutgoing:
		return DirectionOutgoing
	}

	if TransferTypeFromSuffix(string(t.Type)) == TransferIncoming {
		return DirectionIncoming
	}
	return DirectionOutgoing
}

// TransferTypeFromSuffix переводит тип операции с суффиксом (card_in, p2p_out) в канонический тип.
// Значения без суффикса возвращаются как есть.
func TransferTypeFromSuffix(raw string) TransferType {
	lower := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case lower == string(TransferIncoming), strings.HasSuffix(lower, "_in"):
		return TransferIncoming
	case lower == string(TransferOutgoing), strings.HasSuffix(lower, "_out"):
		return TransferOutgoing
	}
	return TransferType(lower)
}

// TransferInput содержит поля создания перевода.
type TransferInput struct {
	Type             TransferType    `json:"type"`
	Amount           decimal.Decimal `json:"amount"`
	Recipient        string          `json:"recipient"`
	RecipientAccount string          `json:"recipient_account"`
	Description      string          `json:"description"`
}
