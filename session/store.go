// Package session хранит снапшоты корзины в Redis.
// Снапшот — денормализованная проекция заказа для витрины: позиции,
// итоги и состояние. Источником истины остаётся сам заказ, снапшот
// живёт ограниченное время сессии покупателя.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"example.com/shop-kernel/pkg/logger"
	"example.com/shop-kernel/sale"
)

// ErrSessionNotFound возвращается, когда снапшот отсутствует или истёк.
var ErrSessionNotFound = errors.New("сессия корзины не найдена")

// keyPrefix — префикс ключей снапшотов в Redis.
const keyPrefix = "cart:session:"

// SnapshotItem — позиция корзины в снапшоте.
type SnapshotItem struct {
	OrderableID string `json:"orderable_id"`
	Description string `json:"description"`
	UnitPrice   int64  `json:"unit_price"`
	Quantity    int32  `json:"quantity"`
	TotalPrice  int64  `json:"total_price"`
}

// Snapshot — снапшот корзины для быстрого чтения без похода в БД.
type Snapshot struct {
	OrderNumber string         `json:"order_number"`
	Currency    string         `json:"currency"`
	State       string         `json:"state"`
	Items       []SnapshotItem `json:"items"`
	ItemsTotal  int64          `json:"items_total"`
	TotalAmount int64          `json:"total_amount"`
	Balance     int64          `json:"balance"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// SnapshotOf строит снапшот из текущего состояния заказа.
func SnapshotOf(order *sale.Order) *Snapshot {
	snapshot := &Snapshot{
		OrderNumber: order.Number,
		Currency:    order.Currency,
		State:       order.State.String(),
		Items:       make([]SnapshotItem, len(order.Items)),
		ItemsTotal:  order.ItemsTotal().Amount,
		TotalAmount: order.TotalAmount().Amount,
		Balance:     order.Balance().Amount,
		UpdatedAt:   order.UpdatedAt,
	}

	for i, item := range order.Items {
		snapshot.Items[i] = SnapshotItem{
			OrderableID: item.OrderableID,
			Description: item.Description,
			UnitPrice:   item.UnitPrice.Amount,
			Quantity:    item.Quantity,
			TotalPrice:  item.TotalPrice.Amount,
		}
	}

	return snapshot
}

// Store хранит снапшоты корзин в Redis с TTL сессии.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore создаёт хранилище снапшотов.
// При нулевом ttl снапшоты живут 24 часа.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &Store{client: client, ttl: ttl}
}

// Put сохраняет снапшот заказа для сессии и продлевает её TTL.
func (s *Store) Put(ctx context.Context, sessionID string, order *sale.Order) error {
	snapshot := SnapshotOf(order)

	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("ошибка сериализации снапшота: %w", err)
	}

	if err := s.client.Set(ctx, keyPrefix+sessionID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("ошибка записи снапшота в Redis: %w", err)
	}

	log := logger.FromContext(ctx)
	log.Debug().
		Str("session_id", sessionID).
		Str("state", snapshot.State).
		Msg("Снапшот корзины сохранён")

	return nil
}

// Get возвращает снапшот корзины по идентификатору сессии.
func (s *Store) Get(ctx context.Context, sessionID string) (*Snapshot, error) {
	data, err := s.client.Get(ctx, keyPrefix+sessionID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("ошибка чтения снапшота из Redis: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("ошибка десериализации снапшота: %w", err)
	}

	return &snapshot, nil
}

// Touch продлевает TTL сессии без изменения снапшота.
func (s *Store) Touch(ctx context.Context, sessionID string) error {
	ok, err := s.client.Expire(ctx, keyPrefix+sessionID, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("ошибка продления сессии: %w", err)
	}
	if !ok {
		return ErrSessionNotFound
	}
	return nil
}

// Delete удаляет снапшот сессии. Отсутствие снапшота не считается ошибкой.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, keyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("ошибка удаления снапшота: %w", err)
	}
	return nil
}
