package payment

import (
	"fmt"
	"time"
)

// CreditCard — источник оплаты для карточных методов.
// Номер карты хранится как есть только на время запроса к провайдеру;
// для отображения используется MaskedNumber.
type CreditCard struct {
	FirstName string // Имя держателя
	LastName  string // Фамилия держателя
	Number    string // Номер карты
	Month     int    // Месяц окончания срока действия (1-12)
	Year      int    // Год окончания срока действия (4 цифры)
}

// Validate проверяет заполненность и срок действия карты.
func (c *CreditCard) Validate() error {
	if c.FirstName == "" || c.LastName == "" || c.Number == "" {
		return ErrCardIncomplete
	}
	if c.Month < 1 || c.Month > 12 || c.Year == 0 {
		return ErrCardIncomplete
	}
	if c.IsExpired() {
		return ErrCardExpired
	}
	return nil
}

// IsExpired возвращает true, если срок действия карты истёк.
// Карта действительна до конца месяца окончания срока; сравнение
// ведётся в UTC, чтобы локальная таймзона не сдвигала границу.
func (c *CreditCard) IsExpired() bool {
	now := time.Now().UTC()
	endOfMonth := time.Date(c.Year, time.Month(c.Month), 1, 0, 0, 0, 0, time.UTC).
		AddDate(0, 1, 0)
	return !now.Before(endOfMonth)
}

// HolderName возвращает полное имя держателя карты.
func (c *CreditCard) HolderName() string {
	return c.FirstName + " " + c.LastName
}

// MaskedNumber возвращает номер карты с закрытыми цифрами,
// кроме последних четырёх.
func (c *CreditCard) MaskedNumber() string {
	if len(c.Number) <= 4 {
		return c.Number
	}
	return fmt.Sprintf("XXXX-XXXX-XXXX-%s", c.Number[len(c.Number)-4:])
}
