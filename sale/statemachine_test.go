package sale

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/shop-kernel/money"
	"example.com/shop-kernel/payment"
	"example.com/shop-kernel/shipment"
)

// paidOrder — заказ с товаром и платежом, доведённый до checkout.
func paidOrder(t *testing.T, method payment.Method) *Machine {
	t.Helper()
	order := NewOrder()
	require.NoError(t, order.AddItem(mustItem(t, tshirt(), 1)))
	require.NoError(t, order.AddPayment(payment.New(method, nil)))

	m := NewMachine(order)
	_, err := m.Apply(context.Background(), TransitionCheckout)
	require.NoError(t, err)
	return m
}

// =====================================
// Тесты таблицы переходов
// =====================================

func TestMachine_Can(t *testing.T) {
	order := NewOrder()
	m := NewMachine(order)

	assert.True(t, m.Can(TransitionCheckout))
	assert.False(t, m.Can(TransitionPay))
	assert.False(t, m.Can("teleport"))
}

func TestMachine_InvalidTransitions(t *testing.T) {
	tests := []struct {
		name       string
		from       OrderState
		transition string
	}{
		{"pay из cart", StateCart, TransitionPay},
		{"checkout из checkout", StateCheckout, TransitionCheckout},
		{"send из paid", StatePaid, TransitionSend},
		{"cancel из sent", StateSent, TransitionCancel},
		{"retry из delivered", StateDelivered, TransitionRetry},
		{"deliver из returned", StateReturned, TransitionDeliver},
		{"неизвестный переход", StateCart, "teleport"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := NewOrder()
			order.State = tt.from
			m := NewMachine(order)

			result, err := m.Apply(context.Background(), tt.transition)

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidTransition)
			assert.Nil(t, result)
			assert.Equal(t, tt.from, order.State, "недопустимый переход не меняет состояние")
		})
	}
}

func TestMachine_HappyPath(t *testing.T) {
	m := paidOrder(t, codMethod())

	steps := []struct {
		transition string
		expected   OrderState
	}{
		{TransitionPay, StatePaid},
		{TransitionProcess, StateProcessing},
		{TransitionSend, StateSent},
		{TransitionDeliver, StateDelivered},
	}

	for _, step := range steps {
		result, err := m.Apply(context.Background(), step.transition)
		require.NoError(t, err, "переход %s", step.transition)
		assert.Equal(t, step.expected, result.To)
		assert.Equal(t, step.expected, m.Order().State)
	}

	assert.True(t, m.Order().State.IsTerminal())
}

func TestMachine_ReturnFromSent(t *testing.T) {
	m := paidOrder(t, codMethod())
	for _, tr := range []string{TransitionPay, TransitionProcess, TransitionSend} {
		_, err := m.Apply(context.Background(), tr)
		require.NoError(t, err)
	}

	result, err := m.Apply(context.Background(), TransitionReturn)
	require.NoError(t, err)
	assert.Equal(t, StateReturned, result.To)
}

func TestMachine_RetryOnlyFromCancelled(t *testing.T) {
	m := paidOrder(t, codMethod())
	_, err := m.Apply(context.Background(), TransitionPay)
	require.NoError(t, err)

	_, err = m.Apply(context.Background(), TransitionCancel)
	require.NoError(t, err)
	assert.Equal(t, StateCancelled, m.Order().State)

	// retry возвращает заказ на оформление
	result, err := m.Apply(context.Background(), TransitionRetry)
	require.NoError(t, err)
	assert.Equal(t, StateCheckout, result.To)
}

// =====================================
// Тесты оплаты и компенсации
// =====================================

func TestMachine_PayProcessesPayments(t *testing.T) {
	m := paidOrder(t, codMethod())

	result, err := m.Apply(context.Background(), TransitionPay)
	require.NoError(t, err)

	assert.Equal(t, StatePaid, result.To)
	assert.False(t, result.RolledBack)
	assert.Empty(t, result.Failures)
	assert.True(t, m.Order().Balance().IsZero())
	assert.True(t, m.Order().Payments[0].IsPaid())
}

func TestMachine_PayRollsBackOnDecline(t *testing.T) {
	declined := payment.NewMethod("credit_card", "Карта", payment.BogusProvider{}).
		WithSource(&payment.CreditCard{
			FirstName: "Иван", LastName: "Иванов",
			Number: payment.BogusCardDecline, Month: 12, Year: 2030,
		})
	m := paidOrder(t, declined)

	result, err := m.Apply(context.Background(), TransitionPay)
	require.NoError(t, err, "отказ провайдера — не ошибка перехода")

	// Оптимистичный paid компенсирован обратно в partial_paid
	assert.True(t, result.RolledBack)
	assert.Equal(t, StatePartialPaid, result.To)
	assert.Equal(t, StatePartialPaid, m.Order().State)

	require.Len(t, result.Failures, 1)
	assert.Equal(t, "credit_card", result.Failures[0].Method)
	assert.True(t, m.Order().NeedsPayment())
}

func TestMachine_PayRollsBackOnRedirect(t *testing.T) {
	ext := payment.NewMethod("e_payment", "Онлайн-оплата",
		payment.RedirectProvider{URL: "https://pay.example.com/start"})
	m := paidOrder(t, ext)

	result, err := m.Apply(context.Background(), TransitionPay)
	require.NoError(t, err)

	assert.True(t, result.RolledBack)
	assert.Equal(t, StatePartialPaid, result.To)
	require.NotNil(t, result.Redirect)
	assert.Equal(t, "https://pay.example.com/start", result.Redirect.URL)

	// Платёж ждёт внешнего шага
	assert.Equal(t, payment.StateRedirected, m.Order().Payments[0].State)
}

func TestMachine_PartialThenFullPayment(t *testing.T) {
	order := NewOrder()
	require.NoError(t, order.AddItem(mustItem(t, tshirt(), 1)))

	// Первый платёж покрывает только часть итога
	partial := money.New(400, "EUR")
	local := payment.NewMethod("credit_card", "Карта", payment.LocalProvider{})
	require.NoError(t, order.AddPayment(payment.New(local, &partial)))

	m := NewMachine(order)
	_, err := m.Apply(context.Background(), TransitionCheckout)
	require.NoError(t, err)

	result, err := m.Apply(context.Background(), TransitionPay)
	require.NoError(t, err)
	assert.True(t, result.RolledBack)
	assert.Equal(t, StatePartialPaid, m.Order().State)
	assert.Equal(t, money.New(600, "EUR"), order.Balance())

	// Добавляем платёж на остаток и повторяем pay из partial_paid
	require.NoError(t, order.AddPayment(payment.New(local, nil)))

	result, err = m.Apply(context.Background(), TransitionPay)
	require.NoError(t, err)
	assert.False(t, result.RolledBack)
	assert.Equal(t, StatePaid, result.To)
	assert.True(t, order.Balance().IsZero())
}

// =====================================
// Тесты хука отгрузки
// =====================================

func TestMachine_SendShipsShipments(t *testing.T) {
	m := paidOrder(t, codMethod())
	require.NoError(t, m.Order().AddShipment(shipment.New(courierMethod())))

	for _, tr := range []string{TransitionPay, TransitionProcess, TransitionSend} {
		_, err := m.Apply(context.Background(), tr)
		require.NoError(t, err)
	}

	require.Len(t, m.Order().Shipments, 1)
	assert.True(t, m.Order().Shipments[0].IsShipped())
}

// =====================================
// Тесты подписчиков
// =====================================

func TestMachine_Subscribe(t *testing.T) {
	m := paidOrder(t, codMethod())

	var events []TransitionEvent
	m.Subscribe(func(_ context.Context, e TransitionEvent) {
		events = append(events, e)
	})

	_, err := m.Apply(context.Background(), TransitionPay)
	require.NoError(t, err)

	require.Len(t, events, 1)
	assert.Equal(t, m.Order().Number, events[0].OrderNumber)
	assert.Equal(t, TransitionPay, events[0].Transition)
	assert.Equal(t, StateCheckout, events[0].From)
	assert.Equal(t, StatePaid, events[0].To)
}

func TestMachine_SubscribersSeeCompensation(t *testing.T) {
	declined := payment.NewMethod("credit_card", "Карта", payment.BogusProvider{}).
		WithSource(&payment.CreditCard{
			FirstName: "Иван", LastName: "Иванов",
			Number: payment.BogusCardDecline, Month: 12, Year: 2030,
		})
	m := paidOrder(t, declined)

	var transitions []string
	m.Subscribe(func(_ context.Context, e TransitionEvent) {
		transitions = append(transitions, e.Transition)
	})

	_, err := m.Apply(context.Background(), TransitionPay)
	require.NoError(t, err)

	// Компенсация — обычный переход и тоже публикуется
	assert.Equal(t, []string{TransitionPay, TransitionPartialPay}, transitions)
}
