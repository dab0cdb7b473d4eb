package validation

import (
	"strings"

	"github.com/mmeshcher/bank-client/internal/apierror"
	"github.com/mmeshcher/bank-client/internal/model"
)

const minPasswordLength = 6

// Credentials проверяет данные входа.
func Credentials(clientCode, password string) error {
	if strings.TrimSpace(clientCode) == "" {
		return apierror.Validation("client code is required")
	}
	if password == "" {
		return apierror.Validation("password is required")
	}
	return nil
}

// Register проверяет поля регистрации, включая подтверждение пароля.
func Register(in model.RegisterInput) error {
	if strings.TrimSpace(in.ClientCode) == "" {
		return apierror.Validation("client code is required")
	}
	if strings.TrimSpace(in.Name) == "" {
		return apierror.Validation("name is required")
	}
	if len(in.Password) < minPasswordLength {
		return apierror.Validation("password must be at least %d characters", minPasswordLength)
	}
	if in.Password != in.PasswordConfirm {
		return apierror.Validation("passwords do not match")
	}
	if in.Age != nil && (*in.Age < 0 || *in.Age > 150) {
		return apierror.Validation("age is out of range")
	}
	return nil
}

// Transaction проверяет поля создания транзакции.
func Transaction(in model.TransactionInput) error {
	if in.Amount.IsZero() {
		return apierror.Validation("amount must not be zero")
	}
	switch in.Type {
	case "", model.TransactionCredit, model.TransactionDebit:
	default:
		return apierror.Validation("unknown transaction type %q", in.Type)
	}
	if strings.TrimSpace(in.Category) == "" {
		return apierror.Validation("category is required")
	}
	if strings.TrimSpace(in.Description) == "" {
		return apierror.Validation("description is required")
	}
	return nil
}

// Transfer проверяет поля создания перевода. Номер карты получателя проверяется по Луну.
func Transfer(in model.TransferInput) error {
	if !in.Amount.IsPositive() {
		return apierror.Validation("amount must be positive")
	}
	if strings.TrimSpace(string(in.Type)) == "" {
		return apierror.Validation("transfer type is required")
	}
	if strings.TrimSpace(in.Recipient) == "" {
		return apierror.Validation("recipient is required")
	}
	account := strings.TrimSpace(in.RecipientAccount)
	if account == "" {
		return apierror.Validation("recipient account is required")
	}
	if looksLikeCard(account) && !IsValidCardNumber(account) {
		return apierror.Validation("recipient card number is invalid")
	}
	return nil
}
