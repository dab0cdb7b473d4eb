// Package money нормализует валюты и форматирует суммы для вывода.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// DefaultCurrency подставляется вместо неизвестных и служебных значений валюты.
const DefaultCurrency = "KZT"

var allowed = map[currency.Unit]string{
	currency.MustParseISO("KZT"): "₸",
	currency.USD:                 "$",
	currency.EUR:                 "€",
	currency.RUB:                 "₽",
}

// NormalizeCurrency возвращает ISO-код валюты из разрешённого списка или KZT.
// Заглушки вроде "string" и пустые значения тоже приводятся к KZT.
func NormalizeCurrency(code string) string {
	unit, err := currency.ParseISO(strings.TrimSpace(code))
	if err != nil {
		return DefaultCurrency
	}
	if _, ok := allowed[unit]; !ok {
		return DefaultCurrency
	}
	return unit.String()
}

// Symbol возвращает символ валюты после нормализации кода.
func Symbol(code string) string {
	unit := currency.MustParseISO(NormalizeCurrency(code))
	return allowed[unit]
}

// groupSeparator разделяет разряды так же, как русская локаль CLDR.
const groupSeparator = "\u00a0"

// Format форматирует сумму с двумя знаками после запятой и символом валюты.
// Разряды считаются по десятичной записи, поэтому большие суммы не теряют точность.
func Format(amount decimal.Decimal, code string) string {
	digits := amount.StringFixed(2)

	sign := ""
	if strings.HasPrefix(digits, "-") {
		sign, digits = "-", digits[1:]
	}
	whole, frac, _ := strings.Cut(digits, ".")

	var b strings.Builder
	b.WriteString(sign)
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteString(groupSeparator)
		}
		b.WriteRune(r)
	}
	b.WriteString(",")
	b.WriteString(frac)
	b.WriteString(" ")
	b.WriteString(Symbol(code))
	return b.String()
}
