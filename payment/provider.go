package payment

import (
	"context"
	"time"

	"example.com/shop-kernel/money"
)

// Options содержит дополнительные параметры запроса к провайдеру.
type Options struct {
	OrderNumber string      // Номер заказа для сверки на стороне провайдера
	Description string      // Описание списания (выписка по карте)
	Card        *CreditCard // Источник оплаты, если метод требует карту

	// Timeout ограничивает один вызов провайдера.
	// Ноль — применяется DefaultProviderTimeout.
	Timeout time.Duration
}

// Provider — граница платёжного провайдера.
// Purchase выполняет списание и возвращает один из трёх исходов:
// Success, Redirect или Failure. Ошибка возвращается только при
// транспортном сбое (таймаут, недоступность) — вызывающий обязан
// свернуть её в Failure, а не прерывать переход заказа.
type Provider interface {
	Purchase(ctx context.Context, amount money.Money, opts Options) (Outcome, error)
}

// Outcome — исход попытки оплаты.
// Закрытое множество: Success, Redirect, Failure. Обработчик перехода
// разбирает исход исчерпывающим type switch.
type Outcome interface {
	outcome()
}

// Success — списание прошло, сумма зачтена в баланс заказа.
type Success struct {
	Amount        money.Money // Фактически списанная сумма
	TransactionID string      // Идентификатор транзакции провайдера
}

// Redirect — оплата требует внешнего шага (например 3-D Secure).
// Платёж остаётся неоплаченным до завершения внешнего шага.
type Redirect struct {
	URL    string            // Адрес для перенаправления покупателя
	Method string            // HTTP метод внешнего шага (GET/POST)
	Params map[string]string // Параметры, которые нужно передать провайдеру
}

// Failure — оплата не прошла. Причина сохраняется на платеже
// для показа пользователю; состояние заказа не портится.
type Failure struct {
	Reason string // Причина отказа в человекочитаемом виде
	Code   string // Код отказа провайдера, если есть
}

func (Success) outcome()  {}
func (Redirect) outcome() {}
func (Failure) outcome()  {}
