// Package metrics предоставляет Prometheus метрики жизненного цикла заказа.
// Содержит счётчики переходов и платежей, гистограмму времени ответа
// провайдера и HTTP server для /metrics endpoint.
//
// Типы метрик в Prometheus:
//   - Counter: только растёт (переходы, платежи) — "сколько всего произошло"
//   - Histogram: распределение значений (время ответа провайдера)
//
// Использование:
//
//	go metrics.NewServer(":9090", "shop-kernel").Start()
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"example.com/shop-kernel/pkg/logger"
)

// =============================================================================
// Метрики — определяем что будем собирать
// =============================================================================

var (
	// TransitionsTotal — счётчик переходов состояния заказа.
	// result: "applied", "rejected" (недопустимый переход), "rolled_back"
	// (компенсация pay -> partial_pay).
	// PromQL пример: rate(order_transitions_total{transition="pay"}[5m])
	TransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_transitions_total",
			Help: "Общее количество переходов состояния заказа по переходу и результату",
		},
		[]string{"transition", "result"},
	)

	// PaymentsTotal — счётчик попыток оплаты по методу и исходу.
	// outcome: "success", "redirect", "failure".
	PaymentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Общее количество попыток оплаты по методу и исходу",
		},
		[]string{"method", "outcome"},
	)

	// ProviderDuration — гистограмма времени ответа платёжного провайдера.
	// PromQL пример: histogram_quantile(0.95, rate(payment_provider_duration_seconds_bucket[5m]))
	ProviderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "payment_provider_duration_seconds",
			Help: "Время ответа платёжного провайдера в секундах",
			// Провайдеры медленнее внутренних вызовов: от 10ms до 30s
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method"},
	)
)

// =============================================================================
// Вспомогательные функции для записи метрик
// =============================================================================

// RecordTransition записывает переход состояния заказа.
// result — "applied", "rejected" или "rolled_back".
func RecordTransition(transition, result string) {
	TransitionsTotal.WithLabelValues(transition, result).Inc()
}

// RecordPayment записывает попытку оплаты.
// outcome — "success", "redirect" или "failure".
func RecordPayment(method, outcome string, duration time.Duration) {
	PaymentsTotal.WithLabelValues(method, outcome).Inc()
	ProviderDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// =============================================================================
// HTTP Server для /metrics endpoint
// =============================================================================

// ReadinessChecker — функция проверки готовности.
// Возвращает nil если зависимости (MySQL, Redis, Kafka) доступны.
type ReadinessChecker func(ctx context.Context) error

// Server — HTTP сервер для экспорта метрик Prometheus.
type Server struct {
	httpServer     *http.Server
	service        string
	readinessCheck ReadinessChecker // опциональная проверка готовности для /readyz
}

// Option — функциональная опция для настройки Server.
type Option func(*Server)

// WithReadinessCheck добавляет проверку готовности для /readyz endpoint.
// Если checker возвращает ошибку — /readyz вернёт 503 Service Unavailable.
func WithReadinessCheck(checker ReadinessChecker) Option {
	return func(s *Server) {
		s.readinessCheck = checker
	}
}

// NewServer создаёт новый metrics server.
// addr — адрес для прослушивания (например ":9090")
// service — имя сервиса для логирования
func NewServer(addr, service string, opts ...Option) *Server {
	s := &Server{
		service: service,
	}

	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()

	// /metrics — endpoint для Prometheus
	mux.Handle("/metrics", promhttp.Handler())

	// /healthz — liveness probe для Kubernetes
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"alive"}`))
	})

	// /readyz — readiness probe для Kubernetes
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		// Если ReadinessChecker не установлен — считаем сервис готовым
		if s.readinessCheck == nil {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ready"}`))
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := s.readinessCheck(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			// Не выводим детали ошибки наружу (безопасность)
			_, _ = w.Write([]byte(`{"status":"not_ready"}`))
			logger.Warn().Err(err).Str("service", s.service).Msg("Readiness check failed")
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	})

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return s
}

// Start запускает HTTP сервер для метрик.
// Блокирующий вызов — запускать в горутине.
func (s *Server) Start() error {
	log := logger.With().Str("service", s.service).Logger()
	log.Info().Str("addr", s.httpServer.Addr).Msg("Запуск Metrics Server")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully останавливает сервер.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
