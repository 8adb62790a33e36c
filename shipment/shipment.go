// Package shipment содержит сущность отгрузки и границу расчёта
// стоимости доставки.
package shipment

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"example.com/shop-kernel/money"
)

// Доменные ошибки отгрузок.
var (
	// ErrInvalidTransition — недопустимый переход состояния отгрузки.
	ErrInvalidTransition = errors.New("недопустимый переход состояния отгрузки")

	// ErrNoCalculator — у метода доставки не настроен калькулятор стоимости.
	ErrNoCalculator = errors.New("у метода доставки не настроен калькулятор стоимости")
)

// State — состояние отгрузки.
type State string

const (
	// StatePending — отгрузка создана, заказ ещё не передан в доставку.
	StatePending State = "pending"

	// StateShipped — заказ передан в доставку.
	StateShipped State = "shipped"
)

// Order — то, что доставке нужно знать о заказе для расчёта стоимости.
// Невладеющая обратная ссылка: калькуляторы читают итог и количество
// позиций, но заказом не управляют.
type Order interface {
	ItemsTotal() money.Money
	TotalQuantity() int32
}

// CostCalculator — граница расчёта стоимости доставки.
type CostCalculator interface {
	Compute(order Order) money.Money
}

// FlatRate — фиксированная стоимость доставки независимо от заказа.
type FlatRate struct {
	Cost money.Money
}

// Compute возвращает фиксированную стоимость.
func (c FlatRate) Compute(Order) money.Money {
	return c.Cost
}

// PerItemRate — базовая стоимость плюс наценка за каждую единицу товара.
type PerItemRate struct {
	Base    money.Money
	PerItem money.Money
}

// Compute возвращает базовую стоимость плюс наценку за количество.
func (c PerItemRate) Compute(order Order) money.Money {
	return c.Base.Add(c.PerItem.Multiply(order.TotalQuantity()))
}

// Method — метод доставки, доступный покупателю.
type Method struct {
	Code       string         // Машинный код метода ("courier", "pickup")
	Title      string         // Название для витрины
	Calculator CostCalculator // Калькулятор стоимости
}

// CalculateCost возвращает стоимость доставки заказа этим методом.
func (m Method) CalculateCost(order Order) (money.Money, error) {
	if m.Calculator == nil {
		return money.Money{}, ErrNoCalculator
	}
	return m.Calculator.Compute(order), nil
}

// Shipment — отгрузка заказа.
type Shipment struct {
	ID             string      // UUID отгрузки
	Method         Method      // Метод доставки
	Cost           money.Money // Стоимость, зафиксированная при привязке к заказу
	State          State       // Текущее состояние
	TrackingNumber *string     // Трек-номер (при shipped, если есть)
	CreatedAt      time.Time   // Дата создания
	UpdatedAt      time.Time   // Дата обновления

	order Order // Обратная ссылка, выставляется при привязке к заказу
}

// New создаёт отгрузку по методу доставки.
func New(method Method) *Shipment {
	now := time.Now()
	return &Shipment{
		ID:        uuid.New().String(),
		Method:    method,
		State:     StatePending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AttachTo привязывает отгрузку к заказу и фиксирует стоимость доставки.
// Вызывается заказом при добавлении отгрузки.
func (s *Shipment) AttachTo(order Order) error {
	cost, err := s.Method.CalculateCost(order)
	if err != nil {
		return err
	}
	s.order = order
	s.Cost = cost
	s.UpdatedAt = time.Now()
	return nil
}

// Rebind восстанавливает обратную ссылку на заказ без пересчёта
// стоимости. Используется при восстановлении отгрузки из хранилища,
// где стоимость уже зафиксирована.
func (s *Shipment) Rebind(order Order) {
	s.order = order
}

// Order возвращает заказ, к которому привязана отгрузка.
func (s *Shipment) Order() Order {
	return s.order
}

// IsShipped возвращает true, если заказ передан в доставку.
func (s *Shipment) IsShipped() bool {
	return s.State == StateShipped
}

// Ship переводит отгрузку в состояние shipped.
// trackingNumber может быть пустым, если перевозчик не выдаёт трек-номер.
func (s *Shipment) Ship(trackingNumber string) error {
	if s.State != StatePending {
		return ErrInvalidTransition
	}
	s.State = StateShipped
	if trackingNumber != "" {
		s.TrackingNumber = &trackingNumber
	}
	s.UpdatedAt = time.Now()
	return nil
}
