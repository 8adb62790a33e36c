package sale

import (
	"github.com/google/uuid"

	"example.com/shop-kernel/money"
)

// Метки корректировок, добавляемых ядром.
const (
	// LabelShipping — стоимость доставки.
	LabelShipping = "shipping"

	// LabelPaymentSurcharge — наценка метода оплаты (наложенный платёж и т.п.).
	LabelPaymentSurcharge = "payment-surcharge"
)

// Adjustment — именованная денежная корректировка итога заказа:
// стоимость доставки, наценка метода оплаты, скидка.
//
// OwnerID указывает на породившую корректировку сущность (платёж или
// отгрузку). При удалении владельца удаляются ровно его корректировки
// и только они — по совпадению OwnerID, без пересчёта с нуля.
type Adjustment struct {
	ID      string      // UUID корректировки
	Label   string      // Метка ("shipping", "payment-surcharge", ...)
	Amount  money.Money // Сумма; может быть нулевой или отрицательной (скидка)
	OwnerID string      // ID породившей сущности; пустой для ручных корректировок
}

// NewAdjustment создаёт корректировку с меткой и суммой.
// ownerID может быть пустым для корректировок без владельца (скидка оператора).
func NewAdjustment(label string, amount money.Money, ownerID string) Adjustment {
	return Adjustment{
		ID:      uuid.New().String(),
		Label:   label,
		Amount:  amount,
		OwnerID: ownerID,
	}
}
