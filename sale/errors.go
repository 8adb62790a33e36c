// Package sale содержит агрегат заказа, корзину и машину состояний
// жизненного цикла заказа.
package sale

import "errors"

// Доменные ошибки заказа.
// Используются для передачи бизнес-ошибок между слоями приложения.
var (
	// ErrInvalidTransition возвращается при попытке перехода, недопустимого
	// из текущего состояния заказа. Состояние и баланс не меняются.
	ErrInvalidTransition = errors.New("недопустимый переход состояния заказа")

	// ErrItemNotFound возвращается, когда позиция не найдена в заказе.
	ErrItemNotFound = errors.New("позиция не найдена в заказе")

	// ErrPaymentNotFound возвращается, когда платёж не найден в заказе.
	ErrPaymentNotFound = errors.New("платёж не найден в заказе")

	// ErrShipmentNotFound возвращается, когда отгрузка не найдена в заказе.
	ErrShipmentNotFound = errors.New("отгрузка не найдена в заказе")

	// ErrInvalidQuantity возвращается, когда количество меньше или равно нулю.
	ErrInvalidQuantity = errors.New("количество должно быть больше нуля")

	// ErrInvalidUnitPrice возвращается, когда цена за единицу меньше или равна нулю.
	ErrInvalidUnitPrice = errors.New("цена за единицу должна быть больше нуля")

	// ErrInvalidOrderable возвращается при пустом идентификаторе покупаемого объекта.
	ErrInvalidOrderable = errors.New("некорректный идентификатор покупаемого объекта")
)
