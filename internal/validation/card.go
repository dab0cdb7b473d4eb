// Package validation содержит проверки входных данных до отправки запроса.
package validation

import (
	"strings"
	"unicode"
)

// IsValidCardNumber проверяет номер карты по алгоритму Луна. Пробелы между группами цифр допускаются.
func IsValidCardNumber(number string) bool {
	number = strings.ReplaceAll(number, " ", "")
	if len(number) < 13 || len(number) > 19 {
		return false
	}

	sum := 0
	double := false

	for i := len(number) - 1; i >= 0; i-- {
		ch := rune(number[i])
		if !unicode.IsDigit(ch) {
			return false
		}
		digit := int(ch - '0')
		if double {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
		double = !double
	}

	return sum%10 == 0
}

// looksLikeCard сообщает, что счёт получателя записан как номер карты (только цифры и пробелы).
func looksLikeCard(account string) bool {
	digits := 0
	for _, ch := range account {
		switch {
		case ch == ' ':
		case unicode.IsDigit(ch):
			digits++
		default:
			return false
		}
	}
	return digits >= 13
}
