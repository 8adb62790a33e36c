package command

import (
	"context"
	"fmt"
	"time"

	"example.com/shop-kernel/payment"
	"example.com/shop-kernel/pkg/logger"
	"example.com/shop-kernel/sale"
	"example.com/shop-kernel/shipment"
)

// MethodCatalog возвращает сконфигурированные методы оплаты и доставки.
type MethodCatalog interface {
	PaymentMethod(code string) (payment.Method, bool)
	ShippingMethod(code string) (shipment.Method, bool)
}

// =============================================================================
// AddItemHandler
// =============================================================================

// AddItemHandler обрабатывает добавление товара в корзину.
type AddItemHandler struct {
	repo    OrderRepository
	catalog Catalog
}

// NewAddItemHandler создаёт обработчик добавления товара.
func NewAddItemHandler(repo OrderRepository, catalog Catalog) *AddItemHandler {
	return &AddItemHandler{repo: repo, catalog: catalog}
}

// Handle добавляет товар в корзину и сохраняет заказ.
// При пустом номере заказа создаётся новая корзина.
func (h *AddItemHandler) Handle(ctx context.Context, cmd AddItemCommand) (*sale.Order, error) {
	cart, err := loadCart(ctx, h.repo, cmd.OrderNumber)
	if err != nil {
		return nil, err
	}

	orderable, err := h.catalog.FindOrderable(ctx, cmd.OrderableID)
	if err != nil {
		return nil, err
	}

	item, err := cart.AddItem(orderable, cmd.Quantity)
	if err != nil {
		return nil, err
	}

	order := cart.Order()
	if err := h.repo.Save(ctx, order); err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx)
	log.Info().
		Str("order_number", order.Number).
		Str("orderable_id", item.OrderableID).
		Int32("quantity", item.Quantity).
		Msg("Товар добавлен в корзину")

	return order, nil
}

// =============================================================================
// RemoveItemHandler
// =============================================================================

// RemoveItemHandler обрабатывает удаление позиции из корзины.
type RemoveItemHandler struct {
	repo OrderRepository
}

// NewRemoveItemHandler создаёт обработчик удаления позиции.
func NewRemoveItemHandler(repo OrderRepository) *RemoveItemHandler {
	return &RemoveItemHandler{repo: repo}
}

// Handle удаляет позицию из корзины и сохраняет заказ.
func (h *RemoveItemHandler) Handle(ctx context.Context, cmd RemoveItemCommand) (*sale.Order, error) {
	order, err := h.repo.FindByNumber(ctx, cmd.OrderNumber)
	if err != nil {
		return nil, err
	}

	item := order.ContainsItem(cmd.OrderableID)
	if item == nil {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, cmd.OrderableID)
	}

	cart := sale.NewCartWithOrder(order)
	if err := cart.RemoveItem(item); err != nil {
		return nil, err
	}

	if err := h.repo.Save(ctx, order); err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx)
	log.Info().
		Str("order_number", order.Number).
		Str("orderable_id", cmd.OrderableID).
		Msg("Позиция удалена из корзины")

	return order, nil
}

// =============================================================================
// AddPaymentHandler
// =============================================================================

// AddPaymentHandler обрабатывает добавление платежа к заказу.
type AddPaymentHandler struct {
	repo    OrderRepository
	methods MethodCatalog
}

// NewAddPaymentHandler создаёт обработчик добавления платежа.
func NewAddPaymentHandler(repo OrderRepository, methods MethodCatalog) *AddPaymentHandler {
	return &AddPaymentHandler{repo: repo, methods: methods}
}

// Handle добавляет платёж выбранным методом и сохраняет заказ.
func (h *AddPaymentHandler) Handle(ctx context.Context, cmd AddPaymentCommand) (*sale.Order, error) {
	order, err := h.repo.FindByNumber(ctx, cmd.OrderNumber)
	if err != nil {
		return nil, err
	}

	method, ok := h.methods.PaymentMethod(cmd.MethodCode)
	if !ok {
		return nil, fmt.Errorf("неизвестный метод оплаты: %s", cmd.MethodCode)
	}

	cart := sale.NewCartWithOrder(order)
	if _, err := cart.AddPaymentMethod(method, cmd.Amount); err != nil {
		return nil, err
	}

	if err := h.repo.Save(ctx, order); err != nil {
		return nil, err
	}

	return order, nil
}

// =============================================================================
// SetShippingHandler
// =============================================================================

// SetShippingHandler обрабатывает выбор метода доставки.
type SetShippingHandler struct {
	repo    OrderRepository
	methods MethodCatalog
}

// NewSetShippingHandler создаёт обработчик выбора доставки.
func NewSetShippingHandler(repo OrderRepository, methods MethodCatalog) *SetShippingHandler {
	return &SetShippingHandler{repo: repo, methods: methods}
}

// Handle добавляет отгрузку выбранным методом и сохраняет заказ.
func (h *SetShippingHandler) Handle(ctx context.Context, cmd SetShippingCommand) (*sale.Order, error) {
	order, err := h.repo.FindByNumber(ctx, cmd.OrderNumber)
	if err != nil {
		return nil, err
	}

	method, ok := h.methods.ShippingMethod(cmd.MethodCode)
	if !ok {
		return nil, fmt.Errorf("неизвестный метод доставки: %s", cmd.MethodCode)
	}

	cart := sale.NewCartWithOrder(order)
	if _, err := cart.SetShippingMethod(method); err != nil {
		return nil, err
	}

	if err := h.repo.Save(ctx, order); err != nil {
		return nil, err
	}

	return order, nil
}

// =============================================================================
// ProcessHandler
// =============================================================================

// ProcessHandler применяет переход жизненного цикла к заказу.
type ProcessHandler struct {
	repo OrderRepository

	// providerTimeout ограничивает переход, включая вызовы платёжных
	// провайдеров. Ноль — действует payment.DefaultProviderTimeout.
	providerTimeout time.Duration

	listeners []sale.TransitionListener
}

// NewProcessHandler создаёт обработчик переходов.
// providerTimeout ограничивает вызовы платёжных провайдеров при
// переходе pay; listeners подписываются на машину состояний каждого
// обрабатываемого заказа (например, publisher событий в Kafka).
func NewProcessHandler(repo OrderRepository, providerTimeout time.Duration, listeners ...sale.TransitionListener) *ProcessHandler {
	return &ProcessHandler{repo: repo, providerTimeout: providerTimeout, listeners: listeners}
}

// Handle применяет переход и сохраняет заказ.
// Результат перехода возвращается даже при частичном успехе:
// отказ провайдера или redirect — не ошибка обработчика.
func (h *ProcessHandler) Handle(ctx context.Context, cmd ProcessCommand) (*sale.TransitionResult, error) {
	order, err := h.repo.FindByNumber(ctx, cmd.OrderNumber)
	if err != nil {
		return nil, err
	}

	cart := sale.NewCartWithOrder(order)
	for _, l := range h.listeners {
		cart.Machine().Subscribe(l)
	}

	// Таймаут накрывает только переход: зависший провайдер сворачивается
	// в Failure, а Save идёт уже с родительским контекстом.
	transitionCtx := ctx
	if h.providerTimeout > 0 {
		var cancel context.CancelFunc
		transitionCtx, cancel = context.WithTimeout(ctx, h.providerTimeout)
		defer cancel()
	}

	result, err := cart.ProcessTo(transitionCtx, cmd.Transition)
	if err != nil {
		return nil, err
	}

	if err := h.repo.Save(ctx, order); err != nil {
		return nil, err
	}

	return result, nil
}

// loadCart загружает корзину по номеру заказа или создаёт новую.
func loadCart(ctx context.Context, repo OrderRepository, number string) (*sale.Cart, error) {
	if number == "" {
		return sale.NewCart(), nil
	}

	order, err := repo.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	return sale.NewCartWithOrder(order), nil
}
