// Package store содержит каталожные сущности, реализующие Orderable:
// товар и его варианты.
package store

import "example.com/shop-kernel/money"

// Product — товар каталога с набором вариантов.
type Product struct {
	SKU      string     // Артикул товара
	Title    string     // Название товара
	Variants []*Variant // Варианты товара (размер, цвет и т.д.)
}

// DefaultVariant возвращает вариант по умолчанию:
// помеченный default, иначе первый в списке.
func (p *Product) DefaultVariant() *Variant {
	for _, v := range p.Variants {
		if v.Default {
			return v
		}
	}
	if len(p.Variants) > 0 {
		return p.Variants[0]
	}
	return nil
}

// AddVariant добавляет вариант товара.
func (p *Product) AddVariant(v *Variant) {
	v.product = p
	p.Variants = append(p.Variants, v)
}

// Variant — покупаемый вариант товара.
// Реализует sale.Orderable: стабильный идентификатор (SKU),
// цена за единицу и описание.
type Variant struct {
	SKU     string      // Артикул варианта — стабильный идентификатор позиции
	Price   money.Money // Цена за единицу
	Default bool        // Вариант по умолчанию

	product *Product // Обратная ссылка на товар
}

// Product возвращает товар, которому принадлежит вариант.
func (v *Variant) Product() *Product {
	return v.product
}

// OrderableID возвращает стабильный идентификатор для дедупликации позиций.
func (v *Variant) OrderableID() string {
	return v.SKU
}

// UnitPrice возвращает цену за единицу.
func (v *Variant) UnitPrice() money.Money {
	return v.Price
}

// Description возвращает описание для позиции заказа.
func (v *Variant) Description() string {
	if v.product != nil {
		return v.product.Title
	}
	return v.SKU
}
