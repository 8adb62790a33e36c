package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/shop-kernel/money"
)

func TestProduct_DefaultVariant(t *testing.T) {
	t.Run("помеченный default", func(t *testing.T) {
		product := &Product{SKU: "product_1", Title: "Футболка"}
		product.AddVariant(&Variant{SKU: "SKU-1", Price: money.New(1000, "EUR")})
		product.AddVariant(&Variant{SKU: "SKU-1-XL", Price: money.New(1200, "EUR"), Default: true})

		require.NotNil(t, product.DefaultVariant())
		assert.Equal(t, "SKU-1-XL", product.DefaultVariant().SKU)
	})

	t.Run("без пометки — первый", func(t *testing.T) {
		product := &Product{SKU: "product_1"}
		product.AddVariant(&Variant{SKU: "SKU-1"})
		product.AddVariant(&Variant{SKU: "SKU-2"})

		assert.Equal(t, "SKU-1", product.DefaultVariant().SKU)
	})

	t.Run("без вариантов", func(t *testing.T) {
		product := &Product{SKU: "product_1"}
		assert.Nil(t, product.DefaultVariant())
	})
}

func TestVariant_Orderable(t *testing.T) {
	product := &Product{SKU: "product_1", Title: "Футболка"}
	variant := &Variant{SKU: "SKU-1", Price: money.New(1000, "EUR")}
	product.AddVariant(variant)

	assert.Equal(t, "SKU-1", variant.OrderableID())
	assert.Equal(t, money.New(1000, "EUR"), variant.UnitPrice())
	assert.Equal(t, "Футболка", variant.Description())
	assert.Same(t, product, variant.Product())

	// Вариант вне товара описывается собственным SKU
	orphan := &Variant{SKU: "SKU-X"}
	assert.Equal(t, "SKU-X", orphan.Description())
}
