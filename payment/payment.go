package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"example.com/shop-kernel/money"
	"example.com/shop-kernel/pkg/logger"
	"example.com/shop-kernel/pkg/metrics"
)

// State — состояние платежа.
type State string

const (
	// StateUnpaid — платёж создан, списания ещё не было.
	StateUnpaid State = "unpaid"

	// StateRedirected — списание ожидает внешнего шага (3-D Secure и т.п.).
	StateRedirected State = "redirected"

	// StatePaid — списание прошло, сумма зачтена в баланс заказа.
	StatePaid State = "paid"
)

// DefaultProviderTimeout ограничивает вызов провайдера, если
// вызывающий не задал свой таймаут. Истечение таймаута — это
// Failure платежа, а не вечная блокировка перехода pay.
const DefaultProviderTimeout = 30 * time.Second

// allowedTransitions определяет валидные переходы состояний платежа.
var allowedTransitions = map[State][]State{
	StateUnpaid:     {StateRedirected, StatePaid},
	StateRedirected: {StatePaid},
	// StatePaid — терминальное состояние
}

// Order — то, что платёж знает о своём заказе.
// Невладеющая обратная ссылка: платёж читает баланс и итог,
// но жизненным циклом заказа не управляет.
type Order interface {
	Balance() money.Money
	TotalAmount() money.Money
}

// Payment — платёж по заказу.
type Payment struct {
	ID            string       // UUID платежа
	Amount        *money.Money // Сумма списания; nil — списать весь баланс заказа
	Method        Method       // Метод оплаты
	State         State        // Текущее состояние
	TransactionID *string      // Идентификатор транзакции провайдера (при paid)
	FailureReason *string      // Причина отказа (последняя неудачная попытка)
	CreatedAt     time.Time    // Дата создания
	UpdatedAt     time.Time    // Дата обновления

	order Order // Обратная ссылка, выставляется при привязке к заказу
}

// New создаёт платёж по методу оплаты.
// amount == nil означает "списать весь баланс заказа на момент оплаты".
func New(method Method, amount *money.Money) *Payment {
	now := time.Now()
	return &Payment{
		ID:        uuid.New().String(),
		Amount:    amount,
		Method:    method,
		State:     StateUnpaid,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AttachTo привязывает платёж к заказу.
// Вызывается заказом при добавлении платежа.
func (p *Payment) AttachTo(order Order) {
	p.order = order
}

// Order возвращает заказ, к которому привязан платёж.
func (p *Payment) Order() Order {
	return p.order
}

// CanTransitionTo проверяет, допустим ли переход в указанное состояние.
func (p *Payment) CanTransitionTo(newState State) bool {
	allowed, ok := allowedTransitions[p.State]
	if !ok {
		return false // Терминальное состояние
	}
	for _, state := range allowed {
		if state == newState {
			return true
		}
	}
	return false
}

// TransitionTo выполняет переход в новое состояние.
func (p *Payment) TransitionTo(newState State) error {
	if !p.CanTransitionTo(newState) {
		return ErrInvalidTransition
	}
	p.State = newState
	p.UpdatedAt = time.Now()
	return nil
}

// IsPaid возвращает true, если списание прошло.
func (p *Payment) IsPaid() bool {
	return p.State == StatePaid
}

// ChargeAmount возвращает сумму, которую нужно списать:
// явно заданную сумму платежа либо текущий баланс заказа.
func (p *Payment) ChargeAmount() (money.Money, error) {
	if p.Amount != nil {
		return *p.Amount, nil
	}
	if p.order == nil {
		return money.Money{}, ErrNoOrder
	}
	return p.order.Balance(), nil
}

// PaidAmount возвращает зачтённую сумму оплаченного платежа.
// Для неоплаченного платежа — ноль.
func (p *Payment) PaidAmount() money.Money {
	if !p.IsPaid() || p.Amount == nil {
		return money.Money{}
	}
	return *p.Amount
}

// Process выполняет списание через провайдера метода оплаты.
//
// Исход провайдера сворачивается в состояние платежа и никогда
// не прерывает переход заказа:
//   - Success: платёж становится paid, сумма и транзакция фиксируются;
//   - Redirect: платёж переходит в redirected, дескриптор отдаётся наверх;
//   - Failure (в т.ч. транспортный сбой или таймаут): платёж остаётся
//     неоплаченным, причина сохраняется в FailureReason.
//
// Ошибка возвращается только при структурных нарушениях: нет провайдера
// или платёж уже оплачен.
func (p *Payment) Process(ctx context.Context, opts Options) (Outcome, error) {
	if p.Method.Provider == nil {
		return nil, ErrNoProvider
	}
	if p.IsPaid() {
		return nil, ErrInvalidTransition
	}

	amount, err := p.ChargeAmount()
	if err != nil {
		return nil, err
	}

	// Источник оплаты берётся с метода, если вызывающий его не передал.
	if opts.Card == nil {
		opts.Card = p.Method.Source
	}

	log := logger.FromContext(ctx)

	tracer := otel.Tracer("shop-kernel/payment")
	ctx, span := tracer.Start(ctx, "payment.purchase", trace.WithAttributes(
		attribute.String("payment.id", p.ID),
		attribute.String("payment.method", p.Method.Code),
		attribute.Int64("payment.amount", amount.Amount),
	))
	defer span.End()

	// Вызов провайдера всегда идёт под таймаутом: зависший провайдер
	// сворачивается в Failure, а не блокирует переход заказа.
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultProviderTimeout
	}

	start := time.Now()
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	outcome, err := p.Method.Provider.Purchase(callCtx, amount, opts)
	cancel()
	if err != nil {
		// Недоступность провайдера — это Failure, а не сбой перехода.
		if errors.Is(err, context.DeadlineExceeded) {
			// Сработать мог и более короткий дедлайн вызывающего,
			// поэтому в причину идёт фактическое время ожидания.
			outcome = Failure{
				Reason: fmt.Sprintf("провайдер не ответил за %s",
					time.Since(start).Round(time.Millisecond)),
				Code: "timeout",
			}
		} else {
			outcome = Failure{Reason: err.Error()}
		}
	}

	switch o := outcome.(type) {
	case Success:
		charged := o.Amount
		p.Amount = &charged
		txID := o.TransactionID
		p.TransactionID = &txID
		p.FailureReason = nil
		if err := p.TransitionTo(StatePaid); err != nil {
			return nil, err
		}
		log.Info().
			Str("payment_id", p.ID).
			Str("method", p.Method.Code).
			Str("amount", charged.String()).
			Msg("Платёж успешно проведён")
	case Redirect:
		// Платёж остаётся неоплаченным до завершения внешнего шага.
		if p.State == StateUnpaid {
			_ = p.TransitionTo(StateRedirected)
		}
		log.Info().
			Str("payment_id", p.ID).
			Str("method", p.Method.Code).
			Str("url", o.URL).
			Msg("Платёж требует перенаправления покупателя")
	case Failure:
		reason := o.Reason
		p.FailureReason = &reason
		p.UpdatedAt = time.Now()
		log.Warn().
			Str("payment_id", p.ID).
			Str("method", p.Method.Code).
			Str("reason", reason).
			Msg("Платёж отклонён провайдером")
	}

	span.SetAttributes(attribute.String("payment.outcome", outcomeLabel(outcome)))
	metrics.RecordPayment(p.Method.Code, outcomeLabel(outcome), time.Since(start))

	return outcome, nil
}

// outcomeLabel возвращает метку исхода для метрик и трассировки.
func outcomeLabel(o Outcome) string {
	switch o.(type) {
	case Success:
		return "success"
	case Redirect:
		return "redirect"
	case Failure:
		return "failure"
	default:
		return "unknown"
	}
}
