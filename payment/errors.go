// Package payment содержит сущность платежа и границу платёжных провайдеров.
package payment

import "errors"

// Доменные ошибки платежей.
var (
	// ErrInvalidTransition — недопустимый переход состояния платежа.
	ErrInvalidTransition = errors.New("недопустимый переход состояния платежа")

	// ErrInvalidAmount — сумма платежа должна быть больше нуля.
	ErrInvalidAmount = errors.New("сумма платежа должна быть больше нуля")

	// ErrNoProvider — у метода оплаты не настроен провайдер.
	ErrNoProvider = errors.New("у метода оплаты не настроен провайдер")

	// ErrNoOrder — платёж не привязан к заказу.
	ErrNoOrder = errors.New("платёж не привязан к заказу")

	// ErrCardIncomplete — в данных карты не заполнены обязательные поля.
	ErrCardIncomplete = errors.New("не заполнены обязательные поля карты")

	// ErrCardExpired — срок действия карты истёк.
	ErrCardExpired = errors.New("срок действия карты истёк")
)
