package payment

import (
	"context"

	"github.com/google/uuid"

	"example.com/shop-kernel/money"
)

// =============================================================================
// LocalProvider — оплата без внешнего вызова
// =============================================================================

// LocalProvider проводит платёж без обращения к внешней системе.
// Используется для наложенного платежа и ручного зачисления:
// списание всегда считается успешным, деньги принимает курьер или касса.
type LocalProvider struct{}

// Purchase всегда возвращает Success на запрошенную сумму.
func (LocalProvider) Purchase(_ context.Context, amount money.Money, _ Options) (Outcome, error) {
	return Success{
		Amount:        amount,
		TransactionID: uuid.New().String(),
	}, nil
}

// =============================================================================
// BogusProvider — карточный провайдер для разработки и тестов
// =============================================================================

// Тестовые номера карт BogusProvider.
const (
	// BogusCardSuccess — списание проходит успешно.
	BogusCardSuccess = "1"

	// BogusCardDecline — списание отклоняется.
	BogusCardDecline = "2"

	// BogusCardError — провайдер отвечает ошибкой обработки.
	BogusCardError = "3"
)

// BogusProvider имитирует карточный шлюз.
// Исход определяется номером карты: "1" — успех, "2" — отказ,
// любой другой номер — ошибка обработки.
type BogusProvider struct{}

// Purchase проверяет карту и возвращает исход по её номеру.
func (BogusProvider) Purchase(_ context.Context, amount money.Money, opts Options) (Outcome, error) {
	if opts.Card == nil {
		return Failure{Reason: "не передан источник оплаты", Code: "no_card"}, nil
	}
	if err := opts.Card.Validate(); err != nil {
		return Failure{Reason: err.Error(), Code: "invalid_card"}, nil
	}

	switch opts.Card.Number {
	case BogusCardSuccess:
		return Success{Amount: amount, TransactionID: uuid.New().String()}, nil
	case BogusCardDecline:
		return Failure{Reason: "карта отклонена", Code: "card_declined"}, nil
	default:
		return Failure{Reason: "ошибка обработки карты", Code: "processing_error"}, nil
	}
}

// =============================================================================
// RedirectProvider — оплата через внешний шаг
// =============================================================================

// RedirectProvider имитирует провайдера, которому нужен внешний шаг
// (редирект покупателя на страницу банка, 3-D Secure).
// Списание не завершается синхронно: Purchase возвращает дескриптор
// перенаправления, платёж остаётся неоплаченным.
type RedirectProvider struct {
	URL string // Адрес внешнего шага
}

// Purchase возвращает Redirect с параметрами заказа.
func (p RedirectProvider) Purchase(_ context.Context, amount money.Money, opts Options) (Outcome, error) {
	return Redirect{
		URL:    p.URL,
		Method: "GET",
		Params: map[string]string{
			"order":  opts.OrderNumber,
			"amount": amount.String(),
		},
	}, nil
}
