package sale

import (
	"context"

	"example.com/shop-kernel/money"
	"example.com/shop-kernel/payment"
	"example.com/shop-kernel/pkg/logger"
	"example.com/shop-kernel/shipment"
)

// Cart — фасад над заказом и его машиной состояний.
// Единица взаимодействия для внешних вызовов: добавление позиций,
// методов оплаты и доставки, запрос перехода состояния.
//
// Корзина не хранится сама по себе — это фасад на время запроса;
// хранимым агрегатом является заказ.
type Cart struct {
	order   *Order
	machine *Machine
}

// NewCart создаёт пустую корзину.
// Заказ создаётся лениво при первом обращении.
func NewCart() *Cart {
	return &Cart{}
}

// NewCartWithOrder создаёт корзину вокруг существующего заказа
// (например, загруженного репозиторием по номеру).
func NewCartWithOrder(order *Order) *Cart {
	c := &Cart{}
	c.SetOrder(order)
	return c
}

// Order возвращает заказ корзины, лениво создавая его
// вместе с машиной состояний при первом обращении.
func (c *Cart) Order() *Order {
	if c.order == nil {
		c.SetOrder(NewOrder())
	}
	return c.order
}

// SetOrder привязывает заказ к корзине.
// Машина состояний всегда пересоздаётся: она связана с конкретным
// заказом, и замена заказа на существующей корзине обязана
// перепривязать машину к новому заказу.
func (c *Cart) SetOrder(order *Order) {
	c.order = order
	c.machine = NewMachine(order)
}

// Machine возвращает машину состояний, связанную с заказом корзины.
func (c *Cart) Machine() *Machine {
	c.Order() // гарантируем инициализацию
	return c.machine
}

// AddItem добавляет покупаемый объект в корзину.
//
// Если позиция с таким же OrderableID уже есть, её количество
// увеличивается и стоимость пересчитывается — дубликат не создаётся.
// Возвращается итоговая позиция (новая или обновлённая).
func (c *Cart) AddItem(orderable Orderable, quantity int32) (*OrderItem, error) {
	order := c.Order()

	if existing := order.ContainsItem(orderable.OrderableID()); existing != nil {
		if err := existing.IncreaseQuantity(quantity); err != nil {
			return nil, err
		}
		return existing, nil
	}

	item, err := NewOrderItem(orderable, quantity)
	if err != nil {
		return nil, err
	}

	if err := order.AddItem(item); err != nil {
		return nil, err
	}

	return item, nil
}

// RemoveItem удаляет позицию из корзины.
func (c *Cart) RemoveItem(item *OrderItem) error {
	return c.Order().RemoveItem(item)
}

// Items возвращает позиции заказа.
func (c *Cart) Items() []*OrderItem {
	return c.Order().Items
}

// ItemsCount возвращает количество позиций в заказе.
func (c *Cart) ItemsCount() int {
	return len(c.Order().Items)
}

// TotalQuantity возвращает суммарное количество единиц товара.
func (c *Cart) TotalQuantity() int32 {
	return c.Order().TotalQuantity()
}

// AddPaymentMethod создаёт платёж по методу оплаты и привязывает
// его к заказу. amount == nil означает "списать весь баланс заказа
// на момент оплаты".
func (c *Cart) AddPaymentMethod(method payment.Method, amount *money.Money) (*payment.Payment, error) {
	p := payment.New(method, amount)

	if err := c.Order().AddPayment(p); err != nil {
		return nil, err
	}

	return p, nil
}

// SetShippingMethod создаёт отгрузку по методу доставки и привязывает
// её к заказу; стоимость доставки становится корректировкой итога.
func (c *Cart) SetShippingMethod(method shipment.Method) (*shipment.Shipment, error) {
	s := shipment.New(method)

	if err := c.Order().AddShipment(s); err != nil {
		return nil, err
	}

	return s, nil
}

// ProcessTo применяет переход к заказу корзины.
//
// Обычный переход возвращает результат без полезной нагрузки;
// переход pay с провайдером, требующим внешнего шага, возвращает
// дескриптор перенаправления в Result.Redirect.
func (c *Cart) ProcessTo(ctx context.Context, transition string) (*TransitionResult, error) {
	ctx = logger.WithOrderNumber(ctx, c.Order().Number)
	return c.Machine().Apply(ctx, transition)
}
