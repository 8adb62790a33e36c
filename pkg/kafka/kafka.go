// Package kafka предоставляет обёртку над kafka-go для публикации
// событий жизненного цикла заказа.
package kafka

import "time"

// Топики событий заказа.
const (
	// TopicOrderLifecycle - топик событий переходов состояния заказа.
	TopicOrderLifecycle = "orders.lifecycle"
)

// Ключи для headers сообщений Kafka.
const (
	// HeaderOrderNumber - номер заказа, к которому относится событие.
	HeaderOrderNumber = "order_number"

	// HeaderTimestamp - временная метка создания сообщения.
	HeaderTimestamp = "timestamp"
)

// Config содержит настройки для подключения к Kafka.
type Config struct {
	// Brokers - список адресов брокеров Kafka.
	Brokers []string

	// BatchTimeout - максимальное время накопления batch перед отправкой.
	// По умолчанию 10ms — события заказа должны уходить быстро.
	BatchTimeout time.Duration
}
