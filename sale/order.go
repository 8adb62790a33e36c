package sale

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"example.com/shop-kernel/money"
	"example.com/shop-kernel/payment"
	"example.com/shop-kernel/pkg/logger"
	"example.com/shop-kernel/shipment"
)

// OrderState — состояние заказа в жизненном цикле.
type OrderState string

const (
	// StateCart — заказ наполняется, начальное состояние.
	StateCart OrderState = "cart"

	// StateCheckout — оформление: выбор методов оплаты и доставки.
	StateCheckout OrderState = "checkout"

	// StatePartialPaid — заказ оплачен частично, баланс больше нуля.
	StatePartialPaid OrderState = "partial_paid"

	// StatePaid — заказ полностью оплачен.
	StatePaid OrderState = "paid"

	// StateProcessing — заказ собирается.
	StateProcessing OrderState = "processing"

	// StateSent — заказ передан в доставку.
	StateSent OrderState = "sent"

	// StateCancelled — заказ отменён. Терминальное, кроме перехода retry.
	StateCancelled OrderState = "cancelled"

	// StateDelivered — заказ доставлен покупателю. Терминальное.
	StateDelivered OrderState = "delivered"

	// StateReturned — заказ возвращён покупателем. Терминальное.
	StateReturned OrderState = "returned"
)

// IsTerminal возвращает true для финальных состояний.
// StateCancelled условно терминальное — из него возможен retry в checkout.
func (s OrderState) IsTerminal() bool {
	return s == StateCancelled || s == StateDelivered || s == StateReturned
}

// String возвращает строковое представление состояния (для логов).
func (s OrderState) String() string {
	return string(s)
}

// Order — агрегат заказа.
// Владеет позициями, платежами, отгрузками и корректировками:
// их время жизни равно времени жизни заказа. Итоги и баланс не хранятся,
// а вычисляются из компонентов при каждом обращении.
type Order struct {
	Number      string               // Номер заказа (UUID)
	Currency    string               // Валюта заказа; принимается от первой позиции
	State       OrderState           // Текущее состояние; меняется только машиной состояний
	Items       []*OrderItem         // Позиции заказа в порядке добавления
	Payments    []*payment.Payment   // Платежи по заказу
	Shipments   []*shipment.Shipment // Отгрузки заказа
	Adjustments []Adjustment         // Корректировки итога
	CreatedAt   time.Time            // Дата создания
	UpdatedAt   time.Time            // Дата последнего изменения
}

// NewOrder создаёт пустой заказ в состоянии cart.
func NewOrder() *Order {
	now := time.Now()
	return &Order{
		Number:    uuid.New().String(),
		State:     StateCart,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// touch обновляет метку времени изменения.
func (o *Order) touch() {
	o.UpdatedAt = time.Now()
}

// adoptCurrency принимает валюту от первой денежной суммы в заказе
// и проверяет совместимость последующих.
func (o *Order) adoptCurrency(m money.Money) error {
	if o.Currency == "" {
		o.Currency = m.Currency
		return nil
	}
	if !money.New(0, o.Currency).SameCurrency(m) {
		return fmt.Errorf("%w: заказ в %s, сумма в %s",
			money.ErrCurrencyMismatch, o.Currency, m.Currency)
	}
	return nil
}

// =============================================================================
// Позиции
// =============================================================================

// AddItem добавляет позицию в заказ.
// Дедупликация по OrderableID выполняется корзиной (Cart.AddItem);
// заказ принимает позицию как есть.
func (o *Order) AddItem(item *OrderItem) error {
	if err := item.Validate(); err != nil {
		return err
	}
	if err := o.adoptCurrency(item.UnitPrice); err != nil {
		return err
	}

	o.Items = append(o.Items, item)
	o.touch()
	return nil
}

// RemoveItem удаляет позицию из заказа.
func (o *Order) RemoveItem(item *OrderItem) error {
	for idx, it := range o.Items {
		if it.ID == item.ID {
			o.Items = append(o.Items[:idx], o.Items[idx+1:]...)
			o.touch()
			return nil
		}
	}
	return ErrItemNotFound
}

// ContainsItem возвращает позицию с таким же OrderableID или nil.
// Сравнение по значению идентификатора, не по ссылке.
func (o *Order) ContainsItem(orderableID string) *OrderItem {
	for _, it := range o.Items {
		if it.OrderableID == orderableID {
			return it
		}
	}
	return nil
}

// ItemByID возвращает позицию по её идентификатору или nil.
func (o *Order) ItemByID(id string) *OrderItem {
	for _, it := range o.Items {
		if it.ID == id {
			return it
		}
	}
	return nil
}

// ItemsTotal возвращает сумму стоимостей позиций.
func (o *Order) ItemsTotal() money.Money {
	total := money.Zero(o.Currency)
	for _, it := range o.Items {
		total = total.Add(it.TotalPrice)
	}
	return total
}

// TotalQuantity возвращает суммарное количество единиц товара в заказе.
func (o *Order) TotalQuantity() int32 {
	var total int32
	for _, it := range o.Items {
		total += it.Quantity
	}
	return total
}

// =============================================================================
// Корректировки
// =============================================================================

// AddAdjustment добавляет корректировку итога.
func (o *Order) AddAdjustment(a Adjustment) error {
	if err := o.adoptCurrency(a.Amount); err != nil {
		return err
	}
	o.Adjustments = append(o.Adjustments, a)
	o.touch()
	return nil
}

// RemoveAdjustmentsOwnedBy удаляет ровно те корректировки,
// которыми владеет сущность ownerID, и только их.
func (o *Order) RemoveAdjustmentsOwnedBy(ownerID string) {
	if ownerID == "" {
		return
	}
	kept := o.Adjustments[:0]
	for _, a := range o.Adjustments {
		if a.OwnerID != ownerID {
			kept = append(kept, a)
		}
	}
	o.Adjustments = kept
	o.touch()
}

// AdjustmentsTotal возвращает сумму живых корректировок.
func (o *Order) AdjustmentsTotal() money.Money {
	total := money.Zero(o.Currency)
	for _, a := range o.Adjustments {
		total = total.Add(a.Amount)
	}
	return total
}

// ShippingCost возвращает суммарную стоимость доставки заказа.
func (o *Order) ShippingCost() money.Money {
	total := money.Zero(o.Currency)
	for _, a := range o.Adjustments {
		if a.Label == LabelShipping {
			total = total.Add(a.Amount)
		}
	}
	return total
}

// =============================================================================
// Итоги и баланс
// =============================================================================

// TotalAmount возвращает итог заказа: позиции плюс живые корректировки.
// Инвариант: TotalAmount == ItemsTotal + AdjustmentsTotal после любой мутации.
func (o *Order) TotalAmount() money.Money {
	return o.ItemsTotal().Add(o.AdjustmentsTotal())
}

// PaidTotal возвращает сумму платежей в состоянии paid.
func (o *Order) PaidTotal() money.Money {
	total := money.Zero(o.Currency)
	for _, p := range o.Payments {
		total = total.Add(p.PaidAmount())
	}
	return total
}

// Balance возвращает баланс заказа: итог минус оплаченное.
// Положительный — покупатель должен, отрицательный — переплата.
func (o *Order) Balance() money.Money {
	return o.TotalAmount().Sub(o.PaidTotal())
}

// NeedsPayment возвращает true, если по заказу ещё есть долг.
func (o *Order) NeedsPayment() bool {
	return o.Balance().IsPositive()
}

// =============================================================================
// Платежи
// =============================================================================

// AddPayment добавляет платёж к заказу.
// Наценка метода оплаты становится корректировкой, принадлежащей платежу.
func (o *Order) AddPayment(p *payment.Payment) error {
	// Валюты проверяются до мутации: при несовпадении заказ не меняется.
	if p.Amount != nil {
		if err := o.adoptCurrency(*p.Amount); err != nil {
			return err
		}
	}
	if p.Method.Cost.IsPositive() {
		if err := o.adoptCurrency(p.Method.Cost); err != nil {
			return err
		}
	}

	p.AttachTo(o)
	o.Payments = append(o.Payments, p)

	if p.Method.Cost.IsPositive() {
		if err := o.AddAdjustment(NewAdjustment(LabelPaymentSurcharge, p.Method.Cost, p.ID)); err != nil {
			return err
		}
	}

	o.touch()
	return nil
}

// RemovePayment удаляет платёж и ровно его корректировки.
func (o *Order) RemovePayment(p *payment.Payment) error {
	for idx, existing := range o.Payments {
		if existing.ID == p.ID {
			o.Payments = append(o.Payments[:idx], o.Payments[idx+1:]...)
			o.RemoveAdjustmentsOwnedBy(p.ID)
			o.touch()
			return nil
		}
	}
	return ErrPaymentNotFound
}

// =============================================================================
// Отгрузки
// =============================================================================

// AddShipment добавляет отгрузку к заказу.
// Стоимость доставки фиксируется и становится корректировкой,
// принадлежащей отгрузке.
func (o *Order) AddShipment(s *shipment.Shipment) error {
	if err := s.AttachTo(o); err != nil {
		return err
	}
	if err := o.adoptCurrency(s.Cost); err != nil {
		return err
	}

	o.Shipments = append(o.Shipments, s)

	if err := o.AddAdjustment(NewAdjustment(LabelShipping, s.Cost, s.ID)); err != nil {
		return err
	}

	o.touch()
	return nil
}

// RemoveShipment удаляет отгрузку и ровно её корректировки.
func (o *Order) RemoveShipment(s *shipment.Shipment) error {
	for idx, existing := range o.Shipments {
		if existing.ID == s.ID {
			o.Shipments = append(o.Shipments[:idx], o.Shipments[idx+1:]...)
			o.RemoveAdjustmentsOwnedBy(s.ID)
			o.touch()
			return nil
		}
	}
	return ErrShipmentNotFound
}

// =============================================================================
// Обработка платежей
// =============================================================================

// PaymentFailure — неудачная попытка оплаты, выносимая в результат перехода.
type PaymentFailure struct {
	PaymentID string // ID платежа
	Method    string // Код метода оплаты
	Reason    string // Причина отказа
}

// ProcessOutcome — сводный результат обработки платежей заказа.
type ProcessOutcome struct {
	// Redirect — дескриптор внешнего шага, если какой-то платёж его требует.
	Redirect *payment.Redirect

	// Failures — отказы провайдеров. Отказ не прерывает переход:
	// платёж остаётся неоплаченным, баланс корректен.
	Failures []PaymentFailure
}

// ProcessPayments обрабатывает все неоплаченные платежи заказа.
//
// Вызывается машиной состояний после перехода в paid. Каждый платёж
// отдаётся провайдеру своего метода; исход сворачивается в состояние
// платежа. Порядок обработки — порядок добавления платежей: успешное
// списание уменьшает баланс для следующего платежа без явной суммы.
func (o *Order) ProcessPayments(ctx context.Context) (*ProcessOutcome, error) {
	log := logger.FromContext(ctx)
	result := &ProcessOutcome{}

	for _, p := range o.Payments {
		if p.IsPaid() {
			continue
		}

		outcome, err := p.Process(ctx, payment.Options{
			OrderNumber: o.Number,
			Description: fmt.Sprintf("Оплата заказа %s", o.Number),
		})
		if err != nil {
			return nil, fmt.Errorf("ошибка обработки платежа %s: %w", p.ID, err)
		}

		switch out := outcome.(type) {
		case payment.Success:
			// Состояние платежа уже обновлено в Process.
		case payment.Redirect:
			if result.Redirect == nil {
				redirect := out
				result.Redirect = &redirect
			}
		case payment.Failure:
			result.Failures = append(result.Failures, PaymentFailure{
				PaymentID: p.ID,
				Method:    p.Method.Code,
				Reason:    out.Reason,
			})
		}
	}

	log.Info().
		Str("balance", o.Balance().String()).
		Int("failures", len(result.Failures)).
		Bool("redirect", result.Redirect != nil).
		Msg("Платежи заказа обработаны")

	return result, nil
}
