// Package money содержит unit тесты денежного типа.
package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// =====================================
// Тесты арифметики
// =====================================

// TestMoney_Add тестирует сложение сумм.
func TestMoney_Add(t *testing.T) {
	tests := []struct {
		name     string
		a        Money
		b        Money
		expected int64
	}{
		{
			name:     "положительные суммы",
			a:        New(1000, "EUR"),
			b:        New(500, "EUR"),
			expected: 1500,
		},
		{
			name:     "сложение с нулём",
			a:        New(1000, "EUR"),
			b:        Zero("EUR"),
			expected: 1000,
		},
		{
			name:     "отрицательная сумма",
			a:        New(1000, "EUR"),
			b:        New(-300, "EUR"),
			expected: 700,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.a.Add(tt.b)

			assert.Equal(t, tt.expected, result.Amount)
			assert.Equal(t, "EUR", result.Currency)
		})
	}
}

// TestMoney_AddChecked тестирует сложение с проверкой валюты.
func TestMoney_AddChecked(t *testing.T) {
	t.Run("одинаковые валюты", func(t *testing.T) {
		result, err := New(1000, "EUR").AddChecked(New(500, "EUR"))

		assert.NoError(t, err)
		assert.Equal(t, int64(1500), result.Amount)
	})

	t.Run("разные валюты", func(t *testing.T) {
		_, err := New(1000, "EUR").AddChecked(New(500, "USD"))

		assert.ErrorIs(t, err, ErrCurrencyMismatch)
	})

	t.Run("нулевая сумма без валюты совместима", func(t *testing.T) {
		result, err := New(1000, "EUR").AddChecked(Money{Amount: 500})

		assert.NoError(t, err)
		assert.Equal(t, int64(1500), result.Amount)
		assert.Equal(t, "EUR", result.Currency)
	})
}

// TestMoney_Sub тестирует вычитание сумм.
func TestMoney_Sub(t *testing.T) {
	result := New(2100, "EUR").Sub(New(2100, "EUR"))

	assert.True(t, result.IsZero())
	assert.Equal(t, "EUR", result.Currency)
}

// TestMoney_Multiply тестирует умножение суммы на количество.
func TestMoney_Multiply(t *testing.T) {
	tests := []struct {
		name     string
		amount   int64
		quantity int32
		expected int64
	}{
		{
			name:     "стандартное умножение",
			amount:   1000,
			quantity: 3,
			expected: 3000,
		},
		{
			name:     "умножение на 1",
			amount:   500,
			quantity: 1,
			expected: 500,
		},
		{
			name:     "умножение на 0",
			amount:   1000,
			quantity: 0,
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := New(tt.amount, "EUR").Multiply(tt.quantity)

			assert.Equal(t, tt.expected, result.Amount)
			assert.Equal(t, "EUR", result.Currency)
		})
	}
}

// =====================================
// Тесты предикатов и форматирования
// =====================================

// TestMoney_Predicates тестирует IsZero/IsPositive/IsNegative.
func TestMoney_Predicates(t *testing.T) {
	assert.True(t, Zero("EUR").IsZero())
	assert.True(t, New(100, "EUR").IsPositive())
	assert.True(t, New(-100, "EUR").IsNegative())
	assert.False(t, New(-100, "EUR").IsPositive())
}

// TestMoney_String тестирует форматирование суммы.
func TestMoney_String(t *testing.T) {
	tests := []struct {
		name     string
		money    Money
		expected string
	}{
		{
			name:     "сумма с валютой",
			money:    New(1050, "EUR"),
			expected: "10.50 EUR",
		},
		{
			name:     "отрицательная сумма",
			money:    New(-250, "USD"),
			expected: "-2.50 USD",
		},
		{
			name:     "без валюты",
			money:    Money{Amount: 2100},
			expected: "21.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.money.String())
		})
	}
}
