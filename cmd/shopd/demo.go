package main

import (
	"context"

	"github.com/google/uuid"

	"example.com/shop-kernel/command"
	"example.com/shop-kernel/pkg/logger"
	"example.com/shop-kernel/sale"
	"example.com/shop-kernel/session"
)

// application — собранный слой команд ядра заказов.
type application struct {
	orders      command.OrderRepository
	addItem     *command.AddItemHandler
	addPayment  *command.AddPaymentHandler
	setShipping *command.SetShippingHandler
	process     *command.ProcessHandler
	sessions    *session.Store
}

// runDemo прогоняет сквозной сценарий оформления заказа:
// товар в корзину, курьерская доставка, наложенный платёж,
// checkout и оплата. Удобен как smoke-проверка живого окружения.
func (a *application) runDemo(ctx context.Context, sku string) error {
	log := logger.FromContext(ctx)
	sessionID := uuid.New().String()

	order, err := a.addItem.Handle(ctx, command.AddItemCommand{
		OrderableID: sku,
		Quantity:    1,
	})
	if err != nil {
		return err
	}
	if err := a.sessions.Put(ctx, sessionID, order); err != nil {
		return err
	}

	order, err = a.setShipping.Handle(ctx, command.SetShippingCommand{
		OrderNumber: order.Number,
		MethodCode:  "courier",
	})
	if err != nil {
		return err
	}

	order, err = a.addPayment.Handle(ctx, command.AddPaymentCommand{
		OrderNumber: order.Number,
		MethodCode:  "cash_on_delivery",
	})
	if err != nil {
		return err
	}

	for _, transition := range []string{sale.TransitionCheckout, sale.TransitionPay} {
		result, err := a.process.Handle(ctx, command.ProcessCommand{
			OrderNumber: order.Number,
			Transition:  transition,
		})
		if err != nil {
			return err
		}
		log.Info().
			Str("order_number", order.Number).
			Str("transition", result.Transition).
			Str("state", result.To.String()).
			Bool("rolled_back", result.RolledBack).
			Msg("Переход демо-сценария")
	}

	// Перечитываем заказ после переходов: обработчики работают
	// со свежей копией из репозитория.
	order, err = a.orders.FindByNumber(ctx, order.Number)
	if err != nil {
		return err
	}
	if err := a.sessions.Put(ctx, sessionID, order); err != nil {
		return err
	}

	log.Info().
		Str("order_number", order.Number).
		Str("total", order.TotalAmount().String()).
		Str("balance", order.Balance().String()).
		Msg("Демо-сценарий завершён")

	return nil
}
