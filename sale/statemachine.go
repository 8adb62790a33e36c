package sale

import (
	"context"
	"fmt"
	"time"

	"example.com/shop-kernel/payment"
	"example.com/shop-kernel/pkg/logger"
	"example.com/shop-kernel/pkg/metrics"
)

// Имена переходов жизненного цикла заказа.
const (
	TransitionCheckout   = "checkout"
	TransitionPay        = "pay"
	TransitionPartialPay = "partial_pay"
	TransitionProcess    = "process"
	TransitionSend       = "send"
	TransitionDeliver    = "deliver"
	TransitionReturn     = "return"
	TransitionCancel     = "cancel"
	TransitionRetry      = "retry"
)

// Transition — переход жизненного цикла: имя, допустимые исходные
// состояния и целевое состояние.
type Transition struct {
	Name string
	From []OrderState
	To   OrderState
}

// transitionTable — таблица переходов заказа.
// |------------+--------------------------+--------------|
// | переход    | из                       | в            |
// |------------+--------------------------+--------------|
// | checkout   | cart                     | checkout     |
// | pay        | checkout, partial_paid   | paid         |
// | partial_pay| paid, partial_paid       | partial_paid |
// | process    | paid                     | processing   |
// | send       | processing               | sent         |
// | deliver    | sent                     | delivered    |
// | return     | sent                     | returned     |
// | cancel     | paid, processing         | cancelled    |
// | retry      | cancelled                | checkout     |
// |------------+--------------------------+--------------|
var transitionTable = map[string]Transition{
	TransitionCheckout:   {Name: TransitionCheckout, From: []OrderState{StateCart}, To: StateCheckout},
	TransitionPay:        {Name: TransitionPay, From: []OrderState{StateCheckout, StatePartialPaid}, To: StatePaid},
	TransitionPartialPay: {Name: TransitionPartialPay, From: []OrderState{StatePaid, StatePartialPaid}, To: StatePartialPaid},
	TransitionProcess:    {Name: TransitionProcess, From: []OrderState{StatePaid}, To: StateProcessing},
	TransitionSend:       {Name: TransitionSend, From: []OrderState{StateProcessing}, To: StateSent},
	TransitionDeliver:    {Name: TransitionDeliver, From: []OrderState{StateSent}, To: StateDelivered},
	TransitionReturn:     {Name: TransitionReturn, From: []OrderState{StateSent}, To: StateReturned},
	TransitionCancel:     {Name: TransitionCancel, From: []OrderState{StatePaid, StateProcessing}, To: StateCancelled},
	TransitionRetry:      {Name: TransitionRetry, From: []OrderState{StateCancelled}, To: StateCheckout},
}

// TransitionResult — результат применения перехода.
type TransitionResult struct {
	Transition string     // Имя применённого перехода
	From       OrderState // Состояние до перехода
	To         OrderState // Конечное состояние, с учётом компенсаций

	// Redirect — дескриптор внешнего шага оплаты. Заполняется, когда
	// переход pay наткнулся на провайдера с перенаправлением.
	Redirect *payment.Redirect

	// Failures — отказы провайдеров при обработке платежей.
	Failures []PaymentFailure

	// RolledBack — true, если после pay сработала компенсация
	// и заказ вернулся в partial_paid.
	RolledBack bool
}

// afterHook — after-хук перехода: выполняется после смены состояния.
// Привязан к паре (исходные состояния, целевое состояние) — так же,
// как зарегистрированы хуки обработки платежей и компенсации.
type afterHook struct {
	from []OrderState
	to   OrderState
	do   func(ctx context.Context, m *Machine, res *TransitionResult) error
}

// Machine — машина состояний заказа.
// Связывается с одним заказом на всё время жизни; корзина пересоздаёт
// машину при замене заказа.
type Machine struct {
	order     *Order
	table     map[string]Transition
	after     []afterHook
	listeners []TransitionListener
}

// NewMachine создаёт машину состояний, связанную с заказом.
//
// Регистрируются стандартные after-хуки:
//   - checkout|partial_paid → paid: обработка неоплаченных платежей,
//     затем компенсация в partial_paid, если баланс остался положительным;
//   - processing → sent: перевод отгрузок в состояние shipped.
func NewMachine(order *Order) *Machine {
	m := &Machine{
		order: order,
		table: transitionTable,
	}

	payFrom := []OrderState{StateCheckout, StatePartialPaid}

	// Порядок хуков фиксирован: сначала списания, потом проверка баланса.
	m.after = []afterHook{
		{from: payFrom, to: StatePaid, do: processPaymentsHook},
		{from: payFrom, to: StatePaid, do: rollbackPaymentHook},
		{from: []OrderState{StateProcessing}, to: StateSent, do: shipShipmentsHook},
	}

	return m
}

// Order возвращает заказ, к которому привязана машина.
func (m *Machine) Order() *Order {
	return m.order
}

// Subscribe добавляет подписчика на события переходов.
func (m *Machine) Subscribe(l TransitionListener) {
	m.listeners = append(m.listeners, l)
}

// Can возвращает true, если переход допустим из текущего состояния.
func (m *Machine) Can(name string) bool {
	t, ok := m.table[name]
	if !ok {
		return false
	}
	return containsState(t.From, m.order.State)
}

// Apply применяет переход к заказу.
//
// Проверка допустимости локальна и выполняется до любых побочных
// эффектов: при недопустимом переходе возвращается ErrInvalidTransition,
// состояние и баланс заказа не меняются.
//
// After-хуки выполняются после смены состояния и могут применять
// компенсирующие переходы (pay → partial_pay при неполной оплате);
// поэтому Result.To — конечное состояние заказа, а не целевое
// состояние перехода.
func (m *Machine) Apply(ctx context.Context, name string) (*TransitionResult, error) {
	log := logger.FromContext(ctx)

	t, ok := m.table[name]
	if !ok {
		metrics.RecordTransition(name, "rejected")
		return nil, fmt.Errorf("%w: неизвестный переход %q", ErrInvalidTransition, name)
	}

	from := m.order.State
	if !containsState(t.From, from) {
		metrics.RecordTransition(name, "rejected")
		log.Warn().
			Str("transition", name).
			Str("from", from.String()).
			Msg("Переход недопустим из текущего состояния")
		return nil, fmt.Errorf("%w: %s недоступен из %s", ErrInvalidTransition, name, from)
	}

	m.order.State = t.To
	m.order.touch()

	metrics.RecordTransition(name, "applied")
	log.Info().
		Str("transition", name).
		Str("from", from.String()).
		Str("to", t.To.String()).
		Msg("Переход состояния заказа")

	m.notify(ctx, TransitionEvent{
		OrderNumber: m.order.Number,
		Transition:  name,
		From:        from,
		To:          t.To,
		OccurredAt:  time.Now(),
	})

	result := &TransitionResult{
		Transition: name,
		From:       from,
		To:         t.To,
	}

	for _, hook := range m.after {
		if hook.to != t.To || !containsState(hook.from, from) {
			continue
		}
		if err := hook.do(ctx, m, result); err != nil {
			return nil, err
		}
	}

	result.To = m.order.State

	return result, nil
}

// notify рассылает событие всем подписчикам.
func (m *Machine) notify(ctx context.Context, event TransitionEvent) {
	for _, l := range m.listeners {
		l(ctx, event)
	}
}

// containsState проверяет вхождение состояния в список.
func containsState(states []OrderState, s OrderState) bool {
	for _, state := range states {
		if state == s {
			return true
		}
	}
	return false
}

// =============================================================================
// Стандартные after-хуки
// =============================================================================

// processPaymentsHook обрабатывает неоплаченные платежи после перехода в paid.
// Исходы провайдеров складываются в результат перехода.
func processPaymentsHook(ctx context.Context, m *Machine, res *TransitionResult) error {
	outcome, err := m.order.ProcessPayments(ctx)
	if err != nil {
		return err
	}

	res.Redirect = outcome.Redirect
	res.Failures = outcome.Failures
	return nil
}

// rollbackPaymentHook — компенсирующий переход после pay.
//
// Состояние заказа оптимистично продвинуто в paid; если после обработки
// платежей баланс остался положительным (отказ, перенаправление,
// частичная сумма) — заказ возвращается в partial_paid. Это не ошибка,
// а механизм согласования состояния с фактическим балансом.
// Единственный триггер компенсации — баланс > 0, причина не важна.
func rollbackPaymentHook(ctx context.Context, m *Machine, res *TransitionResult) error {
	if !m.order.NeedsPayment() {
		return nil
	}

	if _, err := m.Apply(ctx, TransitionPartialPay); err != nil {
		return err
	}

	res.RolledBack = true
	metrics.RecordTransition(TransitionPay, "rolled_back")

	log := logger.FromContext(ctx)
	log.Info().
		Str("balance", m.order.Balance().String()).
		Msg("Заказ оплачен не полностью, компенсация в partial_paid")

	return nil
}

// shipShipmentsHook переводит отгрузки заказа в shipped после перехода в sent.
func shipShipmentsHook(ctx context.Context, m *Machine, _ *TransitionResult) error {
	for _, s := range m.order.Shipments {
		if s.IsShipped() {
			continue
		}
		if err := s.Ship(""); err != nil {
			return fmt.Errorf("ошибка отгрузки %s: %w", s.ID, err)
		}
	}
	return nil
}
