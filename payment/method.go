package payment

import "example.com/shop-kernel/money"

// Method — метод оплаты, доступный покупателю.
// Cost — наценка метода (например, комиссия наложенного платежа).
// Наценка превращается в корректировку заказа при привязке платежа.
type Method struct {
	Code     string      // Машинный код метода ("cash_on_delivery", "credit_card")
	Title    string      // Название для витрины
	Cost     money.Money // Наценка метода, нулевая если нет
	Provider Provider    // Провайдер, выполняющий списание
	Source   *CreditCard // Источник оплаты для карточных методов, иначе nil
}

// WithSource возвращает копию метода с привязанным источником оплаты.
// Источник задаётся перед добавлением метода в корзину.
func (m Method) WithSource(card *CreditCard) Method {
	m.Source = card
	return m
}

// NewMethod создаёт метод оплаты без наценки.
func NewMethod(code, title string, provider Provider) Method {
	return Method{Code: code, Title: title, Provider: provider}
}

// NewMethodWithCost создаёт метод оплаты с наценкой.
func NewMethodWithCost(code, title string, cost money.Money, provider Provider) Method {
	return Method{Code: code, Title: title, Cost: cost, Provider: provider}
}
