package payment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCreditCard_Validate(t *testing.T) {
	tests := []struct {
		name        string
		card        CreditCard
		expectedErr error
	}{
		{
			name: "валидная карта",
			card: CreditCard{
				FirstName: "Иван", LastName: "Иванов",
				Number: "4111111111111111", Month: 12, Year: 2030,
			},
			expectedErr: nil,
		},
		{
			name:        "пустая карта",
			card:        CreditCard{},
			expectedErr: ErrCardIncomplete,
		},
		{
			name: "нет фамилии",
			card: CreditCard{
				FirstName: "Иван", Number: "4111111111111111", Month: 12, Year: 2030,
			},
			expectedErr: ErrCardIncomplete,
		},
		{
			name: "некорректный месяц",
			card: CreditCard{
				FirstName: "Иван", LastName: "Иванов",
				Number: "4111111111111111", Month: 13, Year: 2030,
			},
			expectedErr: ErrCardIncomplete,
		},
		{
			name: "срок действия истёк",
			card: CreditCard{
				FirstName: "Иван", LastName: "Иванов",
				Number: "4111111111111111", Month: 1, Year: 2020,
			},
			expectedErr: ErrCardExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.card.Validate()
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCreditCard_IsExpired(t *testing.T) {
	// Карта действительна до конца месяца окончания срока
	expired := CreditCard{Month: 1, Year: 2020}
	assert.True(t, expired.IsExpired())

	valid := CreditCard{Month: 12, Year: 2099}
	assert.False(t, valid.IsExpired())

	// Граница считается в UTC: карта текущего месяца действительна
	// при любой локальной таймзоне.
	now := time.Now().UTC()
	current := CreditCard{Month: int(now.Month()), Year: now.Year()}
	assert.False(t, current.IsExpired())
}

func TestCreditCard_HolderName(t *testing.T) {
	card := CreditCard{FirstName: "Иван", LastName: "Иванов"}
	assert.Equal(t, "Иван Иванов", card.HolderName())
}

func TestCreditCard_MaskedNumber(t *testing.T) {
	tests := []struct {
		name     string
		number   string
		expected string
	}{
		{"полный номер", "4111111111111111", "XXXX-XXXX-XXXX-1111"},
		{"короткий номер", "1", "1"},
		{"ровно четыре цифры", "1234", "1234"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := CreditCard{Number: tt.number}
			assert.Equal(t, tt.expected, card.MaskedNumber())
		})
	}
}
