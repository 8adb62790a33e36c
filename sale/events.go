package sale

import (
	"context"
	"time"
)

// TransitionEvent — событие перехода состояния заказа.
// Публикуется машиной состояний после каждого успешного перехода,
// включая компенсирующий partial_pay.
type TransitionEvent struct {
	OrderNumber string     `json:"order_number"` // Номер заказа
	Transition  string     `json:"transition"`   // Имя перехода
	From        OrderState `json:"from"`         // Состояние до перехода
	To          OrderState `json:"to"`           // Состояние после перехода
	OccurredAt  time.Time  `json:"occurred_at"`  // Момент перехода
}

// TransitionListener — подписчик на события переходов.
// Вызывается синхронно после смены состояния, до after-хуков перехода.
// Ошибки подписчика не влияют на переход — подписчик обязан
// обрабатывать их сам (логирование, повторная отправка).
type TransitionListener func(ctx context.Context, event TransitionEvent)
