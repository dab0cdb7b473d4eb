package money

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeCurrency(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{code: "KZT", want: "KZT"},
		{code: "usd", want: "USD"},
		{code: " EUR ", want: "EUR"},
		{code: "RUB", want: "RUB"},
		{code: "string", want: "KZT"},
		{code: "", want: "KZT"},
		{code: "GBP", want: "KZT"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeCurrency(tt.code))
		})
	}
}

func TestFormatFallsBackToKZT(t *testing.T) {
	var out string
	assert.NotPanics(t, func() {
		out = Format(decimal.RequireFromString("1234.5"), "string")
	})
	assert.True(t, strings.HasSuffix(out, " ₸"), "got %q", out)
	assert.Contains(t, out, "50")
}

func TestFormatUsesCurrencySymbol(t *testing.T) {
	assert.True(t, strings.HasSuffix(Format(decimal.NewFromInt(-10), "USD"), " $"))
	assert.True(t, strings.HasSuffix(Format(decimal.Zero, "EUR"), " €"))
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		code   string
		want   string
	}{
		{name: "zero", amount: "0", code: "KZT", want: "0,00 ₸"},
		{name: "small", amount: "750", code: "KZT", want: "750,00 ₸"},
		{name: "grouped", amount: "1234.5", code: "KZT", want: "1\u00a0234,50 ₸"},
		{name: "rounded half up", amount: "0.005", code: "USD", want: "0,01 $"},
		{name: "negative", amount: "-98765.432", code: "EUR", want: "-98\u00a0765,43 €"},
		{
			name:   "beyond float precision",
			amount: "12345678901234567.89",
			code:   "KZT",
			want:   "12\u00a0345\u00a0678\u00a0901\u00a0234\u00a0567,89 ₸",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(decimal.RequireFromString(tt.amount), tt.code))
		})
	}
}
