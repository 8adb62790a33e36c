// Package command реализует прикладной слой операций над корзиной:
// команды и их обработчики. Обработчик загружает заказ, выполняет
// доменную операцию через корзину и сохраняет результат.
package command

import (
	"context"
	"errors"

	"example.com/shop-kernel/money"
	"example.com/shop-kernel/sale"
)

var (
	// ErrOrderableNotFound возвращается, когда товар не найден в каталоге.
	ErrOrderableNotFound = errors.New("товар не найден в каталоге")

	// ErrItemNotFound возвращается, когда позиция отсутствует в заказе.
	ErrItemNotFound = errors.New("позиция не найдена в заказе")
)

// OrderRepository — минимальный контракт хранилища заказов,
// необходимый обработчикам команд.
type OrderRepository interface {
	FindByNumber(ctx context.Context, number string) (*sale.Order, error)
	Save(ctx context.Context, order *sale.Order) error
}

// Catalog находит покупаемые объекты по стабильному идентификатору.
type Catalog interface {
	FindOrderable(ctx context.Context, orderableID string) (sale.Orderable, error)
}

// =============================================================================
// Команды
// =============================================================================

// AddItemCommand — добавление товара в корзину.
// Пустой OrderNumber означает создание новой корзины.
type AddItemCommand struct {
	OrderNumber string
	OrderableID string
	Quantity    int32
}

// RemoveItemCommand — удаление позиции из корзины по идентификатору товара.
type RemoveItemCommand struct {
	OrderNumber string
	OrderableID string
}

// ProcessCommand — применение перехода жизненного цикла к заказу.
type ProcessCommand struct {
	OrderNumber string
	Transition  string
}

// AddPaymentCommand — добавление платежа к заказу.
// MethodCode должен быть известен каталогу методов оплаты.
// Amount в минорных единицах; nil означает оплату всего баланса.
type AddPaymentCommand struct {
	OrderNumber string
	MethodCode  string
	Amount      *money.Money
}

// SetShippingCommand — выбор метода доставки заказа.
type SetShippingCommand struct {
	OrderNumber string
	MethodCode  string
}
