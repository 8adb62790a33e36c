package sale

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"example.com/shop-kernel/money"
)

// Orderable — всё, что можно купить: вариант товара, услуга,
// произвольная позиция. Внешняя граница каталога.
type Orderable interface {
	// OrderableID возвращает стабильный идентификатор для дедупликации:
	// в заказе не бывает двух позиций с одним OrderableID.
	OrderableID() string

	// UnitPrice возвращает цену за единицу.
	UnitPrice() money.Money

	// Description возвращает описание для позиции заказа.
	Description() string
}

// OrderItem — позиция заказа.
// Дедупликация позиций идёт по OrderableID, сравнение по значению.
type OrderItem struct {
	ID          string      // UUID позиции
	OrderableID string      // Стабильный идентификатор покупаемого объекта
	Description string      // Описание (денормализовано для истории)
	UnitPrice   money.Money // Цена за единицу
	Quantity    int32       // Количество единиц
	TotalPrice  money.Money // Стоимость позиции (цена * количество)
	CreatedAt   time.Time   // Дата создания
	UpdatedAt   time.Time   // Дата обновления
}

// NewOrderItem создаёт позицию заказа из покупаемого объекта.
func NewOrderItem(orderable Orderable, quantity int32) (*OrderItem, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	now := time.Now()
	item := &OrderItem{
		ID:          uuid.New().String(),
		OrderableID: orderable.OrderableID(),
		Description: orderable.Description(),
		UnitPrice:   orderable.UnitPrice(),
		Quantity:    quantity,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	item.CalculateTotalPrice()

	return item, nil
}

// Validate проверяет корректность полей позиции заказа.
func (i *OrderItem) Validate() error {
	if strings.TrimSpace(i.OrderableID) == "" {
		return ErrInvalidOrderable
	}

	if i.Quantity <= 0 {
		return ErrInvalidQuantity
	}

	if i.UnitPrice.Amount <= 0 {
		return ErrInvalidUnitPrice
	}

	return nil
}

// SetQuantity устанавливает количество и пересчитывает стоимость позиции.
func (i *OrderItem) SetQuantity(quantity int32) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	i.Quantity = quantity
	i.CalculateTotalPrice()
	i.UpdatedAt = time.Now()
	return nil
}

// IncreaseQuantity увеличивает количество на delta и пересчитывает стоимость.
// Используется при добавлении уже присутствующего в заказе объекта.
func (i *OrderItem) IncreaseQuantity(delta int32) error {
	if delta <= 0 {
		return ErrInvalidQuantity
	}
	return i.SetQuantity(i.Quantity + delta)
}

// CalculateTotalPrice пересчитывает стоимость позиции (цена * количество).
func (i *OrderItem) CalculateTotalPrice() {
	i.TotalPrice = i.UnitPrice.Multiply(i.Quantity)
}
