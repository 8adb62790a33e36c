// Package repository содержит реализацию доступа к данным для заказов.
package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"example.com/shop-kernel/money"
	"example.com/shop-kernel/payment"
	"example.com/shop-kernel/sale"
	"example.com/shop-kernel/shipment"
)

// ErrOrderNotFound возвращается, когда заказ не найден в БД.
var ErrOrderNotFound = errors.New("заказ не найден")

// MethodCatalog восстанавливает методы оплаты и доставки по коду.
// Провайдеры и калькуляторы стоимости не сериализуются: в БД хранится
// только код метода, а живая конфигурация подставляется при загрузке.
type MethodCatalog interface {
	// PaymentMethod возвращает метод оплаты по коду.
	PaymentMethod(code string) (payment.Method, bool)

	// ShippingMethod возвращает метод доставки по коду.
	ShippingMethod(code string) (shipment.Method, bool)
}

// OrderRepository определяет интерфейс для работы с заказами в БД.
type OrderRepository interface {
	// Save сохраняет агрегат заказа целиком: заказ, позиции, платежи,
	// отгрузки и корректировки в одной транзакции.
	Save(ctx context.Context, order *sale.Order) error

	// FindByNumber возвращает заказ по номеру со всеми компонентами.
	FindByNumber(ctx context.Context, number string) (*sale.Order, error)

	// Delete удаляет заказ вместе со всеми компонентами.
	Delete(ctx context.Context, number string) error
}

// =============================================================================
// GORM модели
// =============================================================================

// OrderModel — GORM модель для таблицы orders.
// Отделена от доменной сущности для гибкости. Суммы хранятся в минорных
// единицах, валюта — один раз на заказ (заказ одновалютный).
type OrderModel struct {
	Number      string            `gorm:"column:number;type:varchar(36);primaryKey"`
	Currency    string            `gorm:"column:currency;type:varchar(3);not null"`
	State       string            `gorm:"column:state;type:varchar(20);not null;index"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
	Items       []OrderItemModel  `gorm:"foreignKey:OrderNumber;references:Number"`
	Payments    []PaymentModel    `gorm:"foreignKey:OrderNumber;references:Number"`
	Shipments   []ShipmentModel   `gorm:"foreignKey:OrderNumber;references:Number"`
	Adjustments []AdjustmentModel `gorm:"foreignKey:OrderNumber;references:Number"`
}

// TableName возвращает имя таблицы в БД.
func (OrderModel) TableName() string {
	return "orders"
}

// OrderItemModel — GORM модель для таблицы order_items.
type OrderItemModel struct {
	ID          string    `gorm:"column:id;type:varchar(36);primaryKey"`
	OrderNumber string    `gorm:"column:order_number;type:varchar(36);not null;index"`
	OrderableID string    `gorm:"column:orderable_id;type:varchar(64);not null"`
	Description string    `gorm:"column:description;type:varchar(255);not null"`
	UnitPrice   int64     `gorm:"column:unit_price;not null"`
	Quantity    int32     `gorm:"column:quantity;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName возвращает имя таблицы в БД.
func (OrderItemModel) TableName() string {
	return "order_items"
}

// PaymentModel — GORM модель для таблицы payments.
// Amount nullable: NULL означает «списать весь баланс заказа».
type PaymentModel struct {
	ID            string    `gorm:"column:id;type:varchar(36);primaryKey"`
	OrderNumber   string    `gorm:"column:order_number;type:varchar(36);not null;index"`
	MethodCode    string    `gorm:"column:method_code;type:varchar(32);not null"`
	MethodTitle   string    `gorm:"column:method_title;type:varchar(255);not null"`
	MethodCost    int64     `gorm:"column:method_cost;not null"`
	Amount        *int64    `gorm:"column:amount"`
	State         string    `gorm:"column:state;type:varchar(20);not null"`
	TransactionID *string   `gorm:"column:transaction_id;type:varchar(64)"`
	FailureReason *string   `gorm:"column:failure_reason;type:text"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName возвращает имя таблицы в БД.
func (PaymentModel) TableName() string {
	return "payments"
}

// ShipmentModel — GORM модель для таблицы shipments.
type ShipmentModel struct {
	ID             string    `gorm:"column:id;type:varchar(36);primaryKey"`
	OrderNumber    string    `gorm:"column:order_number;type:varchar(36);not null;index"`
	MethodCode     string    `gorm:"column:method_code;type:varchar(32);not null"`
	MethodTitle    string    `gorm:"column:method_title;type:varchar(255);not null"`
	Cost           int64     `gorm:"column:cost;not null"`
	State          string    `gorm:"column:state;type:varchar(20);not null"`
	TrackingNumber *string   `gorm:"column:tracking_number;type:varchar(64)"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName возвращает имя таблицы в БД.
func (ShipmentModel) TableName() string {
	return "shipments"
}

// AdjustmentModel — GORM модель для таблицы adjustments.
type AdjustmentModel struct {
	ID          string `gorm:"column:id;type:varchar(36);primaryKey"`
	OrderNumber string `gorm:"column:order_number;type:varchar(36);not null;index"`
	Label       string `gorm:"column:label;type:varchar(64);not null"`
	Amount      int64  `gorm:"column:amount;not null"`
	OwnerID     string `gorm:"column:owner_id;type:varchar(36);not null;default:''"`
}

// TableName возвращает имя таблицы в БД.
func (AdjustmentModel) TableName() string {
	return "adjustments"
}

// =============================================================================
// Конвертация модель <-> домен
// =============================================================================

// orderModelFromDomain конвертирует агрегат заказа в GORM модели.
func orderModelFromDomain(o *sale.Order) *OrderModel {
	model := &OrderModel{
		Number:      o.Number,
		Currency:    o.Currency,
		State:       string(o.State),
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
		Items:       make([]OrderItemModel, len(o.Items)),
		Payments:    make([]PaymentModel, len(o.Payments)),
		Shipments:   make([]ShipmentModel, len(o.Shipments)),
		Adjustments: make([]AdjustmentModel, len(o.Adjustments)),
	}

	for i, item := range o.Items {
		model.Items[i] = OrderItemModel{
			ID:          item.ID,
			OrderNumber: o.Number,
			OrderableID: item.OrderableID,
			Description: item.Description,
			UnitPrice:   item.UnitPrice.Amount,
			Quantity:    item.Quantity,
			CreatedAt:   item.CreatedAt,
			UpdatedAt:   item.UpdatedAt,
		}
	}

	for i, p := range o.Payments {
		pm := PaymentModel{
			ID:            p.ID,
			OrderNumber:   o.Number,
			MethodCode:    p.Method.Code,
			MethodTitle:   p.Method.Title,
			MethodCost:    p.Method.Cost.Amount,
			State:         string(p.State),
			TransactionID: p.TransactionID,
			FailureReason: p.FailureReason,
			CreatedAt:     p.CreatedAt,
			UpdatedAt:     p.UpdatedAt,
		}
		if p.Amount != nil {
			amount := p.Amount.Amount
			pm.Amount = &amount
		}
		model.Payments[i] = pm
	}

	for i, s := range o.Shipments {
		model.Shipments[i] = ShipmentModel{
			ID:             s.ID,
			OrderNumber:    o.Number,
			MethodCode:     s.Method.Code,
			MethodTitle:    s.Method.Title,
			Cost:           s.Cost.Amount,
			State:          string(s.State),
			TrackingNumber: s.TrackingNumber,
			CreatedAt:      s.CreatedAt,
			UpdatedAt:      s.UpdatedAt,
		}
	}

	for i, a := range o.Adjustments {
		model.Adjustments[i] = AdjustmentModel{
			ID:          a.ID,
			OrderNumber: o.Number,
			Label:       a.Label,
			Amount:      a.Amount.Amount,
			OwnerID:     a.OwnerID,
		}
	}

	return model
}

// toDomain конвертирует GORM модели обратно в агрегат заказа.
// Живые методы оплаты и доставки подставляются из каталога;
// для незнакомого кода остаётся метод без провайдера.
func (m *OrderModel) toDomain(catalog MethodCatalog) *sale.Order {
	order := &sale.Order{
		Number:      m.Number,
		Currency:    m.Currency,
		State:       sale.OrderState(m.State),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
		Items:       make([]*sale.OrderItem, len(m.Items)),
		Payments:    make([]*payment.Payment, len(m.Payments)),
		Shipments:   make([]*shipment.Shipment, len(m.Shipments)),
		Adjustments: make([]sale.Adjustment, len(m.Adjustments)),
	}

	for i, im := range m.Items {
		item := &sale.OrderItem{
			ID:          im.ID,
			OrderableID: im.OrderableID,
			Description: im.Description,
			UnitPrice:   money.New(im.UnitPrice, m.Currency),
			Quantity:    im.Quantity,
			CreatedAt:   im.CreatedAt,
			UpdatedAt:   im.UpdatedAt,
		}
		item.CalculateTotalPrice()
		order.Items[i] = item
	}

	for i, pm := range m.Payments {
		method, ok := resolvePaymentMethod(catalog, pm, m.Currency)
		if !ok {
			method = payment.Method{
				Code:  pm.MethodCode,
				Title: pm.MethodTitle,
				Cost:  money.New(pm.MethodCost, m.Currency),
			}
		}

		p := &payment.Payment{
			ID:            pm.ID,
			Method:        method,
			State:         payment.State(pm.State),
			TransactionID: pm.TransactionID,
			FailureReason: pm.FailureReason,
			CreatedAt:     pm.CreatedAt,
			UpdatedAt:     pm.UpdatedAt,
		}
		if pm.Amount != nil {
			amount := money.New(*pm.Amount, m.Currency)
			p.Amount = &amount
		}
		p.AttachTo(order)
		order.Payments[i] = p
	}

	for i, sm := range m.Shipments {
		method, ok := resolveShippingMethod(catalog, sm)
		if !ok {
			method = shipment.Method{
				Code:  sm.MethodCode,
				Title: sm.MethodTitle,
			}
		}

		s := &shipment.Shipment{
			ID:             sm.ID,
			Method:         method,
			Cost:           money.New(sm.Cost, m.Currency),
			State:          shipment.State(sm.State),
			TrackingNumber: sm.TrackingNumber,
			CreatedAt:      sm.CreatedAt,
			UpdatedAt:      sm.UpdatedAt,
		}
		s.Rebind(order)
		order.Shipments[i] = s
	}

	for i, am := range m.Adjustments {
		order.Adjustments[i] = sale.Adjustment{
			ID:      am.ID,
			Label:   am.Label,
			Amount:  money.New(am.Amount, m.Currency),
			OwnerID: am.OwnerID,
		}
	}

	return order
}

func resolvePaymentMethod(catalog MethodCatalog, pm PaymentModel, currency string) (payment.Method, bool) {
	if catalog == nil {
		return payment.Method{}, false
	}
	method, ok := catalog.PaymentMethod(pm.MethodCode)
	if !ok {
		return payment.Method{}, false
	}
	// Наценка фиксируется на момент оформления, а не текущей конфигурации
	method.Cost = money.New(pm.MethodCost, currency)
	return method, true
}

func resolveShippingMethod(catalog MethodCatalog, sm ShipmentModel) (shipment.Method, bool) {
	if catalog == nil {
		return shipment.Method{}, false
	}
	return catalog.ShippingMethod(sm.MethodCode)
}

// =============================================================================
// GORM реализация
// =============================================================================

// orderRepository — GORM реализация OrderRepository.
type orderRepository struct {
	db      *gorm.DB
	catalog MethodCatalog
}

// NewOrderRepository создаёт новый репозиторий заказов.
// catalog может быть nil: тогда методы загружаются без провайдеров.
func NewOrderRepository(db *gorm.DB, catalog MethodCatalog) OrderRepository {
	return &orderRepository{db: db, catalog: catalog}
}

// Save сохраняет агрегат заказа в одной транзакции.
// Компоненты перезаписываются целиком: удаляются по номеру заказа
// и вставляются заново из текущего состояния агрегата.
func (r *orderRepository) Save(ctx context.Context, order *sale.Order) error {
	model := orderModelFromDomain(order)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteComponents(tx, order.Number); err != nil {
			return err
		}

		// Строка заказа upsert-ом, компоненты — чистой вставкой
		// после удаления старых
		row := *model
		row.Items = nil
		row.Payments = nil
		row.Shipments = nil
		row.Adjustments = nil
		if err := tx.Save(&row).Error; err != nil {
			return err
		}

		if len(model.Items) > 0 {
			if err := tx.Create(&model.Items).Error; err != nil {
				return err
			}
		}
		if len(model.Payments) > 0 {
			if err := tx.Create(&model.Payments).Error; err != nil {
				return err
			}
		}
		if len(model.Shipments) > 0 {
			if err := tx.Create(&model.Shipments).Error; err != nil {
				return err
			}
		}
		if len(model.Adjustments) > 0 {
			if err := tx.Create(&model.Adjustments).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// FindByNumber возвращает заказ по номеру со всеми компонентами.
func (r *orderRepository) FindByNumber(ctx context.Context, number string) (*sale.Order, error) {
	var model OrderModel

	if err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Payments").
		Preload("Shipments").
		Preload("Adjustments").
		Where("number = ?", number).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	return model.toDomain(r.catalog), nil
}

// Delete удаляет заказ вместе со всеми компонентами.
func (r *orderRepository) Delete(ctx context.Context, number string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteComponents(tx, number); err != nil {
			return err
		}

		result := tx.Where("number = ?", number).Delete(&OrderModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrOrderNotFound
		}
		return nil
	})
}

// deleteComponents удаляет дочерние записи заказа.
func deleteComponents(tx *gorm.DB, number string) error {
	for _, model := range []interface{}{
		&OrderItemModel{}, &PaymentModel{}, &ShipmentModel{}, &AdjustmentModel{},
	} {
		if err := tx.Where("order_number = ?", number).Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}
