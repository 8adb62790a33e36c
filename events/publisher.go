// Package events публикует события жизненного цикла заказа в Kafka.
// Подписывается на переходы машины состояний и отправляет каждое
// событие в топик orders.lifecycle с ключом — номером заказа.
package events

import (
	"context"
	"encoding/json"

	"example.com/shop-kernel/pkg/kafka"
	"example.com/shop-kernel/pkg/logger"
	"example.com/shop-kernel/sale"
)

// Publisher отправляет события переходов заказа в Kafka.
type Publisher struct {
	producer *kafka.Producer
	topic    string
}

// NewPublisher создаёт publisher поверх готового Kafka Producer.
// При пустом topic используется kafka.TopicOrderLifecycle.
func NewPublisher(producer *kafka.Producer, topic string) *Publisher {
	if topic == "" {
		topic = kafka.TopicOrderLifecycle
	}
	return &Publisher{
		producer: producer,
		topic:    topic,
	}
}

// Listener возвращает подписчика для sale.Machine.Subscribe.
//
// Ошибки отправки логируются и не прерывают переход: событие —
// побочный эффект, а не часть инварианта заказа.
func (p *Publisher) Listener() sale.TransitionListener {
	return func(ctx context.Context, event sale.TransitionEvent) {
		if err := p.Publish(ctx, event); err != nil {
			log := logger.FromContext(ctx)
			log.Error().
				Err(err).
				Str("transition", event.Transition).
				Msg("Не удалось опубликовать событие перехода")
		}
	}
}

// Publish отправляет одно событие перехода в Kafka.
func (p *Publisher) Publish(ctx context.Context, event sale.TransitionEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.producer.Send(ctx, p.topic, []byte(event.OrderNumber), value)
}
