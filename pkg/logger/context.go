package logger

import (
	"context"

	"github.com/rs/zerolog"
)

// Ключи для хранения значений в контексте.
// Используем приватный тип для избежания коллизий с другими пакетами.
type ctxKey string

const (
	// orderNumberKey - ключ для хранения номера заказа в контексте.
	// Номер заказа связывает все операции одной корзины: добавление позиций,
	// переходы состояния, вызовы провайдеров.
	orderNumberKey ctxKey = "order_number"

	// loggerKey - ключ для хранения логгера в контексте.
	// Позволяет передавать настроенный логгер через context.
	loggerKey ctxKey = "logger"
)

// WithOrderNumber добавляет номер заказа в контекст.
// Устанавливается на входе в операцию над корзиной (command handler),
// чтобы все вложенные логи несли order_number.
//
// Пример:
//
//	ctx = logger.WithOrderNumber(ctx, order.Number)
func WithOrderNumber(ctx context.Context, number string) context.Context {
	return context.WithValue(ctx, orderNumberKey, number)
}

// OrderNumberFromContext извлекает номер заказа из контекста.
// Возвращает пустую строку, если номер не установлен.
func OrderNumberFromContext(ctx context.Context) string {
	if number, ok := ctx.Value(orderNumberKey).(string); ok {
		return number
	}
	return ""
}

// WithLogger добавляет логгер в контекст.
// Полезно для передачи настроенного логгера через слои приложения.
func WithLogger(ctx context.Context, l zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext извлекает логгер из контекста и автоматически добавляет
// order_number, если он присутствует в контексте.
//
// Если логгер не был явно добавлен в контекст, возвращает глобальный логгер.
// Это основной способ получения логгера в доменном коде.
//
// Пример:
//
//	func (o *Order) ProcessPayments(ctx context.Context) (...) {
//	    log := logger.FromContext(ctx)
//	    log.Info().Msg("Начало обработки платежей")
//	    // ...
//	}
func FromContext(ctx context.Context) zerolog.Logger {
	var l zerolog.Logger
	if ctxLogger, ok := ctx.Value(loggerKey).(zerolog.Logger); ok {
		l = ctxLogger
	} else {
		l = log
	}

	if number := OrderNumberFromContext(ctx); number != "" {
		l = l.With().Str("order_number", number).Logger()
	}

	return l
}

// Ctx возвращает указатель на zerolog.Logger из контекста.
// Альтернативный способ использования, совместимый с zerolog.Ctx().
func Ctx(ctx context.Context) *zerolog.Logger {
	l := FromContext(ctx)
	return &l
}
