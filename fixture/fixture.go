// Package fixture загружает тестовые и демонстрационные данные магазина
// из YAML: товары, методы оплаты и методы доставки. Registry реализует
// каталоги, которыми пользуются обработчики команд и репозиторий.
package fixture

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"example.com/shop-kernel/money"
	"example.com/shop-kernel/payment"
	"example.com/shop-kernel/sale"
	"example.com/shop-kernel/shipment"
	"example.com/shop-kernel/store"
)

// ErrUnknownSKU возвращается, когда вариант с таким SKU отсутствует.
var ErrUnknownSKU = errors.New("неизвестный SKU")

// file — корневая структура YAML файла фикстур.
type file struct {
	Currency        string           `yaml:"currency"`
	Products        []productDef     `yaml:"products"`
	PaymentMethods  []paymentDef     `yaml:"payment_methods"`
	ShippingMethods []shippingDef    `yaml:"shipping_methods"`
}

type productDef struct {
	SKU      string       `yaml:"sku"`
	Title    string       `yaml:"title"`
	Variants []variantDef `yaml:"variants"`
}

type variantDef struct {
	SKU     string `yaml:"sku"`
	Price   int64  `yaml:"price"`
	Default bool   `yaml:"default"`
}

type paymentDef struct {
	Code        string `yaml:"code"`
	Title       string `yaml:"title"`
	Cost        int64  `yaml:"cost"`
	Provider    string `yaml:"provider"`
	RedirectURL string `yaml:"redirect_url"`
}

type shippingDef struct {
	Code    string `yaml:"code"`
	Title   string `yaml:"title"`
	Rate    string `yaml:"rate"`
	Cost    int64  `yaml:"cost"`
	Base    int64  `yaml:"base"`
	PerItem int64  `yaml:"per_item"`
}

// Registry — загруженный набор фикстур.
// Служит каталогом товаров (command.Catalog) и каталогом методов
// (command.MethodCatalog, repository.MethodCatalog).
type Registry struct {
	currency        string
	products        map[string]*store.Product
	variants        map[string]*store.Variant
	paymentMethods  map[string]payment.Method
	shippingMethods map[string]shipment.Method
}

// Load читает фикстуры из YAML файла. defaultCurrency применяется,
// когда файл не задаёт валюту; пустая строка означает EUR.
func Load(path, defaultCurrency string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения фикстур: %w", err)
	}
	return Parse(data, defaultCurrency)
}

// Parse разбирает фикстуры из YAML.
// Валюта файла имеет приоритет над defaultCurrency.
func Parse(data []byte, defaultCurrency string) (*Registry, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("ошибка разбора фикстур: %w", err)
	}

	if f.Currency == "" {
		f.Currency = defaultCurrency
	}
	if f.Currency == "" {
		f.Currency = "EUR"
	}

	r := &Registry{
		currency:        f.Currency,
		products:        make(map[string]*store.Product),
		variants:        make(map[string]*store.Variant),
		paymentMethods:  make(map[string]payment.Method),
		shippingMethods: make(map[string]shipment.Method),
	}

	for _, pd := range f.Products {
		product := &store.Product{SKU: pd.SKU, Title: pd.Title}
		for _, vd := range pd.Variants {
			variant := &store.Variant{
				SKU:     vd.SKU,
				Price:   money.New(vd.Price, f.Currency),
				Default: vd.Default,
			}
			product.AddVariant(variant)
			r.variants[variant.SKU] = variant
		}
		r.products[product.SKU] = product
	}

	for _, pd := range f.PaymentMethods {
		provider, err := buildProvider(pd)
		if err != nil {
			return nil, err
		}
		r.paymentMethods[pd.Code] = payment.NewMethodWithCost(
			pd.Code, pd.Title, money.New(pd.Cost, f.Currency), provider,
		)
	}

	for _, sd := range f.ShippingMethods {
		calculator, err := buildCalculator(sd, f.Currency)
		if err != nil {
			return nil, err
		}
		r.shippingMethods[sd.Code] = shipment.Method{
			Code:       sd.Code,
			Title:      sd.Title,
			Calculator: calculator,
		}
	}

	return r, nil
}

// buildProvider создаёт провайдера оплаты по описанию фикстуры.
func buildProvider(pd paymentDef) (payment.Provider, error) {
	switch pd.Provider {
	case "", "local":
		return payment.LocalProvider{}, nil
	case "bogus":
		return payment.BogusProvider{}, nil
	case "redirect":
		if pd.RedirectURL == "" {
			return nil, fmt.Errorf("метод %s: redirect провайдер требует redirect_url", pd.Code)
		}
		return payment.RedirectProvider{URL: pd.RedirectURL}, nil
	default:
		return nil, fmt.Errorf("метод %s: неизвестный провайдер %q", pd.Code, pd.Provider)
	}
}

// buildCalculator создаёт калькулятор стоимости доставки.
func buildCalculator(sd shippingDef, currency string) (shipment.CostCalculator, error) {
	switch sd.Rate {
	case "", "flat":
		return shipment.FlatRate{Cost: money.New(sd.Cost, currency)}, nil
	case "per_item":
		return shipment.PerItemRate{
			Base:    money.New(sd.Base, currency),
			PerItem: money.New(sd.PerItem, currency),
		}, nil
	default:
		return nil, fmt.Errorf("метод %s: неизвестный тариф %q", sd.Code, sd.Rate)
	}
}

// Currency возвращает валюту фикстур.
func (r *Registry) Currency() string {
	return r.currency
}

// Product возвращает товар по артикулу.
func (r *Registry) Product(sku string) (*store.Product, bool) {
	p, ok := r.products[sku]
	return p, ok
}

// FindOrderable возвращает вариант товара по SKU.
// Реализует каталог товаров для обработчиков команд.
func (r *Registry) FindOrderable(_ context.Context, sku string) (sale.Orderable, error) {
	v, ok := r.variants[sku]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSKU, sku)
	}
	return v, nil
}

// PaymentMethod возвращает метод оплаты по коду.
func (r *Registry) PaymentMethod(code string) (payment.Method, bool) {
	m, ok := r.paymentMethods[code]
	return m, ok
}

// ShippingMethod возвращает метод доставки по коду.
func (r *Registry) ShippingMethod(code string) (shipment.Method, bool) {
	m, ok := r.shippingMethods[code]
	return m, ok
}
