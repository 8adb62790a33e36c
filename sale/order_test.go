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

// =====================================
// Вспомогательные типы
// =====================================

// stubOrderable — покупаемый объект для тестов.
type stubOrderable struct {
	id       string
	price    money.Money
	describe string
}

func (s stubOrderable) OrderableID() string    { return s.id }
func (s stubOrderable) UnitPrice() money.Money { return s.price }
func (s stubOrderable) Description() string    { return s.describe }

func tshirt() stubOrderable {
	return stubOrderable{id: "SKU-1", price: money.New(1000, "EUR"), describe: "Футболка"}
}

func mug() stubOrderable {
	return stubOrderable{id: "SKU-2", price: money.New(250, "EUR"), describe: "Кружка"}
}

func courierMethod() shipment.Method {
	return shipment.Method{
		Code:       "courier",
		Title:      "Курьер",
		Calculator: shipment.FlatRate{Cost: money.New(500, "EUR")},
	}
}

func codMethod() payment.Method {
	return payment.NewMethodWithCost(
		"cash_on_delivery", "Наложенный платёж",
		money.New(600, "EUR"), payment.LocalProvider{},
	)
}

func mustItem(t *testing.T, orderable Orderable, quantity int32) *OrderItem {
	t.Helper()
	item, err := NewOrderItem(orderable, quantity)
	require.NoError(t, err)
	return item
}

// =====================================
// Тесты позиций
// =====================================

func TestOrder_AddItem(t *testing.T) {
	t.Run("добавление позиции", func(t *testing.T) {
		order := NewOrder()
		require.NoError(t, order.AddItem(mustItem(t, tshirt(), 2)))

		assert.Equal(t, "EUR", order.Currency, "валюта принимается от первой позиции")
		assert.Equal(t, money.New(2000, "EUR"), order.ItemsTotal())
		assert.Equal(t, int32(2), order.TotalQuantity())
	})

	t.Run("несовпадение валют", func(t *testing.T) {
		order := NewOrder()
		require.NoError(t, order.AddItem(mustItem(t, tshirt(), 1)))

		usd := stubOrderable{id: "SKU-USD", price: money.New(100, "USD"), describe: "Доллары"}
		err := order.AddItem(mustItem(t, usd, 1))
		require.Error(t, err)
		assert.ErrorIs(t, err, money.ErrCurrencyMismatch)
		assert.Len(t, order.Items, 1)
	})

	t.Run("некорректное количество", func(t *testing.T) {
		_, err := NewOrderItem(tshirt(), 0)
		assert.ErrorIs(t, err, ErrInvalidQuantity)

		_, err = NewOrderItem(tshirt(), -1)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	})
}

func TestOrder_RemoveItem(t *testing.T) {
	order := NewOrder()
	item := mustItem(t, tshirt(), 1)
	require.NoError(t, order.AddItem(item))

	require.NoError(t, order.RemoveItem(item))
	assert.Empty(t, order.Items)

	assert.ErrorIs(t, order.RemoveItem(item), ErrItemNotFound)
}

func TestOrder_ContainsItem(t *testing.T) {
	order := NewOrder()
	require.NoError(t, order.AddItem(mustItem(t, tshirt(), 1)))

	assert.NotNil(t, order.ContainsItem("SKU-1"))
	assert.Nil(t, order.ContainsItem("SKU-2"))
}

// =====================================
// Тесты итогов и корректировок
// =====================================

func TestOrder_TotalsInvariant(t *testing.T) {
	order := NewOrder()
	require.NoError(t, order.AddItem(mustItem(t, tshirt(), 1)))
	require.NoError(t, order.AddItem(mustItem(t, mug(), 2)))

	// Итог всегда равен сумме позиций и живых корректировок
	check := func() {
		assert.Equal(t,
			order.ItemsTotal().Add(order.AdjustmentsTotal()),
			order.TotalAmount())
	}
	check()

	require.NoError(t, order.AddAdjustment(
		NewAdjustment("discount", money.New(-200, "EUR"), "")))
	check()
	assert.Equal(t, money.New(1300, "EUR"), order.TotalAmount())

	shp := shipment.New(courierMethod())
	require.NoError(t, order.AddShipment(shp))
	check()
	assert.Equal(t, money.New(1800, "EUR"), order.TotalAmount())

	require.NoError(t, order.RemoveShipment(shp))
	check()
	assert.Equal(t, money.New(1300, "EUR"), order.TotalAmount())
}

func TestOrder_PaymentSurcharge(t *testing.T) {
	order := NewOrder()
	require.NoError(t, order.AddItem(mustItem(t, tshirt(), 1)))

	p := payment.New(codMethod(), nil)
	require.NoError(t, order.AddPayment(p))

	// Наценка метода — корректировка, принадлежащая платежу
	assert.Equal(t, money.New(1600, "EUR"), order.TotalAmount())

	require.NoError(t, order.RemovePayment(p))
	assert.Empty(t, order.Payments)
	assert.Equal(t, money.New(1000, "EUR"), order.TotalAmount(),
		"удаление платежа убирает ровно его корректировки")
}

// Платёж с наценкой в чужой валюте отклоняется до мутации:
// заказ остаётся без платежа и без корректировки.
func TestOrder_AddPaymentCurrencyMismatch(t *testing.T) {
	order := NewOrder()
	require.NoError(t, order.AddItem(mustItem(t, tshirt(), 1)))

	method := payment.NewMethodWithCost(
		"cash_on_delivery", "Наложенный платёж",
		money.New(600, "USD"), payment.LocalProvider{},
	)

	err := order.AddPayment(payment.New(method, nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, money.ErrCurrencyMismatch)

	assert.Empty(t, order.Payments)
	assert.Empty(t, order.Adjustments)
	assert.Equal(t, money.New(1000, "EUR"), order.TotalAmount())
}

func TestOrder_RemoveAdjustmentsOwnedBy(t *testing.T) {
	order := NewOrder()
	require.NoError(t, order.AddAdjustment(
		NewAdjustment(LabelShipping, money.New(500, "EUR"), "owner-1")))
	require.NoError(t, order.AddAdjustment(
		NewAdjustment(LabelPaymentSurcharge, money.New(600, "EUR"), "owner-2")))
	require.NoError(t, order.AddAdjustment(
		NewAdjustment("manual", money.New(100, "EUR"), "")))

	order.RemoveAdjustmentsOwnedBy("owner-1")

	require.Len(t, order.Adjustments, 2)
	assert.Equal(t, money.New(700, "EUR"), order.AdjustmentsTotal())

	// Пустой владелец не трогает ручные корректировки
	order.RemoveAdjustmentsOwnedBy("")
	assert.Len(t, order.Adjustments, 2)
}

func TestOrder_ShippingCost(t *testing.T) {
	order := NewOrder()
	require.NoError(t, order.AddItem(mustItem(t, tshirt(), 1)))
	require.NoError(t, order.AddShipment(shipment.New(courierMethod())))

	assert.Equal(t, money.New(500, "EUR"), order.ShippingCost())
}

// Доставка с тарифом в чужой валюте отклоняется до мутации заказа.
func TestOrder_AddShipmentCurrencyMismatch(t *testing.T) {
	order := NewOrder()
	require.NoError(t, order.AddItem(mustItem(t, tshirt(), 1)))

	method := shipment.Method{
		Code:       "courier",
		Title:      "Курьер",
		Calculator: shipment.FlatRate{Cost: money.New(500, "USD")},
	}

	err := order.AddShipment(shipment.New(method))
	require.Error(t, err)
	assert.ErrorIs(t, err, money.ErrCurrencyMismatch)

	assert.Empty(t, order.Shipments)
	assert.Empty(t, order.Adjustments)
	assert.Equal(t, money.New(1000, "EUR"), order.TotalAmount())
}

// =====================================
// Тесты баланса
// =====================================

func TestOrder_Balance(t *testing.T) {
	order := NewOrder()
	require.NoError(t, order.AddItem(mustItem(t, tshirt(), 1)))

	assert.Equal(t, money.New(1000, "EUR"), order.Balance())
	assert.True(t, order.NeedsPayment())

	amount := money.New(400, "EUR")
	p := payment.New(payment.NewMethod("credit_card", "Карта", payment.LocalProvider{}), &amount)
	require.NoError(t, order.AddPayment(p))

	// Неоплаченный платёж в баланс не входит
	assert.Equal(t, money.New(1000, "EUR"), order.Balance())

	require.NoError(t, p.TransitionTo(payment.StatePaid))
	assert.Equal(t, money.New(400, "EUR"), order.PaidTotal())
	assert.Equal(t, money.New(600, "EUR"), order.Balance())
	assert.True(t, order.NeedsPayment())
}

// =====================================
// Тесты обработки платежей
// =====================================

func TestOrder_ProcessPayments(t *testing.T) {
	t.Run("успешное списание всего баланса", func(t *testing.T) {
		order := NewOrder()
		require.NoError(t, order.AddItem(mustItem(t, tshirt(), 1)))
		require.NoError(t, order.AddPayment(payment.New(codMethod(), nil)))

		outcome, err := order.ProcessPayments(context.Background())
		require.NoError(t, err)

		assert.Nil(t, outcome.Redirect)
		assert.Empty(t, outcome.Failures)
		assert.True(t, order.Balance().IsZero())
		assert.False(t, order.NeedsPayment())
	})

	t.Run("платежи обрабатываются по порядку", func(t *testing.T) {
		order := NewOrder()
		require.NoError(t, order.AddItem(mustItem(t, tshirt(), 1)))

		// Первый платёж с явной суммой, второй добирает остаток
		amount := money.New(300, "EUR")
		local := payment.NewMethod("credit_card", "Карта", payment.LocalProvider{})
		require.NoError(t, order.AddPayment(payment.New(local, &amount)))
		require.NoError(t, order.AddPayment(payment.New(local, nil)))

		_, err := order.ProcessPayments(context.Background())
		require.NoError(t, err)

		assert.True(t, order.Balance().IsZero())
		require.NotNil(t, order.Payments[1].Amount)
		assert.Equal(t, money.New(700, "EUR"), *order.Payments[1].Amount,
			"второй платёж списывает остаток после первого")
	})

	t.Run("отказ провайдера не прерывает обработку", func(t *testing.T) {
		order := NewOrder()
		require.NoError(t, order.AddItem(mustItem(t, tshirt(), 1)))

		declined := payment.NewMethod("credit_card", "Карта", payment.BogusProvider{}).
			WithSource(&payment.CreditCard{
				FirstName: "Иван", LastName: "Иванов",
				Number: payment.BogusCardDecline, Month: 12, Year: 2030,
			})
		amount := money.New(400, "EUR")
		require.NoError(t, order.AddPayment(payment.New(declined, &amount)))
		require.NoError(t, order.AddPayment(payment.New(codMethod(), nil)))

		outcome, err := order.ProcessPayments(context.Background())
		require.NoError(t, err)

		require.Len(t, outcome.Failures, 1)
		assert.Equal(t, "credit_card", outcome.Failures[0].Method)

		// Второй платёж списал весь баланс, включая недобор первого
		assert.True(t, order.Balance().IsZero())
	})

	t.Run("redirect выносится в результат", func(t *testing.T) {
		order := NewOrder()
		require.NoError(t, order.AddItem(mustItem(t, tshirt(), 1)))

		ext := payment.NewMethod("e_payment", "Онлайн-оплата",
			payment.RedirectProvider{URL: "https://pay.example.com/start"})
		require.NoError(t, order.AddPayment(payment.New(ext, nil)))

		outcome, err := order.ProcessPayments(context.Background())
		require.NoError(t, err)

		require.NotNil(t, outcome.Redirect)
		assert.Equal(t, "https://pay.example.com/start", outcome.Redirect.URL)
		assert.True(t, order.NeedsPayment(), "платёж ждёт внешнего шага и не зачтён")
	})
}
