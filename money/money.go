// Package money предоставляет денежный тип для расчётов заказа.
// Сумма хранится в минимальных единицах (копейки, центы) для избежания
// проблем с плавающей точкой.
package money

import (
	"errors"
	"fmt"
)

// ErrCurrencyMismatch возвращается при операции над суммами в разных валютах.
var ErrCurrencyMismatch = errors.New("операция над суммами в разных валютах")

// Money — денежная сумма с валютой.
// Неизменяемый value type: все операции возвращают новое значение.
type Money struct {
	Currency string // ISO 4217 код валюты (USD, RUB, EUR)
	Amount   int64  // Сумма в минимальных единицах (копейки/центы)
}

// New создаёт денежную сумму в минимальных единицах.
func New(amount int64, currency string) Money {
	return Money{Currency: currency, Amount: amount}
}

// Zero возвращает нулевую сумму в указанной валюте.
func Zero(currency string) Money {
	return Money{Currency: currency}
}

// Add складывает две суммы.
// Валюты должны совпадать — проверяется вызывающим через SameCurrency,
// либо здесь через AddChecked.
func (m Money) Add(o Money) Money {
	return Money{Currency: m.Currency, Amount: m.Amount + o.Amount}
}

// AddChecked складывает две суммы с проверкой валюты.
func (m Money) AddChecked(o Money) (Money, error) {
	if !m.SameCurrency(o) {
		return Money{}, fmt.Errorf("%w: %s и %s", ErrCurrencyMismatch, m.Currency, o.Currency)
	}
	return m.Add(o), nil
}

// Sub вычитает сумму o из m.
func (m Money) Sub(o Money) Money {
	return Money{Currency: m.Currency, Amount: m.Amount - o.Amount}
}

// Multiply умножает сумму на количество.
// Используется для расчёта стоимости позиции (цена * количество).
func (m Money) Multiply(quantity int32) Money {
	return Money{
		Currency: m.Currency,
		Amount:   m.Amount * int64(quantity),
	}
}

// SameCurrency возвращает true, если валюты сумм совпадают.
// Нулевая сумма без валюты совместима с любой валютой.
func (m Money) SameCurrency(o Money) bool {
	return m.Currency == o.Currency || m.Currency == "" || o.Currency == ""
}

// IsZero возвращает true для нулевой суммы.
func (m Money) IsZero() bool {
	return m.Amount == 0
}

// IsPositive возвращает true для суммы больше нуля.
func (m Money) IsPositive() bool {
	return m.Amount > 0
}

// IsNegative возвращает true для суммы меньше нуля.
// Отрицательный баланс означает переплату по заказу.
func (m Money) IsNegative() bool {
	return m.Amount < 0
}

// Equals сравнивает суммы по значению и валюте.
func (m Money) Equals(o Money) bool {
	return m.Amount == o.Amount && m.Currency == o.Currency
}

// String возвращает сумму в читаемом формате, например "10.50 EUR".
func (m Money) String() string {
	sign := ""
	amount := m.Amount
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	if m.Currency == "" {
		return fmt.Sprintf("%s%d.%02d", sign, amount/100, amount%100)
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, amount/100, amount%100, m.Currency)
}
