// shopd — демон ядра заказов: подключает хранилища, собирает слой
// команд и обслуживает операционные endpoints (/metrics, /healthz,
// /readyz). Транспорт прикладных команд подключается поверх собранных
// обработчиков.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"example.com/shop-kernel/command"
	"example.com/shop-kernel/events"
	"example.com/shop-kernel/fixture"
	"example.com/shop-kernel/pkg/config"
	"example.com/shop-kernel/pkg/db"
	"example.com/shop-kernel/pkg/healthcheck"
	"example.com/shop-kernel/pkg/kafka"
	"example.com/shop-kernel/pkg/logger"
	"example.com/shop-kernel/pkg/metrics"
	"example.com/shop-kernel/pkg/tracing"
	"example.com/shop-kernel/repository"
	"example.com/shop-kernel/session"
)

var (
	demoFlag = flag.Bool("demo", false, "выполнить сквозной сценарий оформления и выйти")
	demoSKU  = flag.String("demo-sku", "SKU-1", "SKU товара для демо-сценария")
)

func main() {
	flag.Parse()

	// Загружаем конфигурацию
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка загрузки конфигурации: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	logger.Init(logger.Config{
		Level:  cfg.App.LogLevel,
		Pretty: cfg.App.LogPretty,
	})

	log := logger.With().Str("service", "shopd").Logger()

	log.Info().
		Str("env", cfg.App.Env).
		Str("currency", cfg.Checkout.DefaultCurrency).
		Msg("Запуск ядра заказов")

	// Tracing (no-op, если выключен)
	shutdownTracer, err := tracing.InitTracer(tracing.Config{
		ServiceName:    cfg.App.Name,
		JaegerEndpoint: cfg.Jaeger.OTLPEndpoint(),
		Enabled:        cfg.Jaeger.Enabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Ошибка инициализации tracing")
	}

	// Подключаемся к MySQL
	gormDB, err := db.ConnectMySQL(cfg.MySQL, cfg.IsDevelopment())
	if err != nil {
		log.Fatal().Err(err).Msg("Ошибка подключения к MySQL")
	}
	log.Info().Msg("Подключение к MySQL установлено")

	// Подключаемся к Redis
	redisClient := db.ConnectRedis(cfg.Redis)

	// Kafka producer для событий жизненного цикла
	producer, err := kafka.NewProducer(kafka.Config{Brokers: cfg.Kafka.Brokers})
	if err != nil {
		log.Fatal().Err(err).Msg("Ошибка создания Kafka producer")
	}
	publisher := events.NewPublisher(producer, cfg.Kafka.LifecycleTopic)

	// Каталог товаров и методов из фикстур
	fixturesPath := os.Getenv("FIXTURES_PATH")
	if fixturesPath == "" {
		fixturesPath = "fixtures.yml"
	}
	registry, err := fixture.Load(fixturesPath, cfg.Checkout.DefaultCurrency)
	if err != nil {
		log.Fatal().Err(err).Str("path", fixturesPath).Msg("Ошибка загрузки фикстур")
	}

	// Слои приложения
	orderRepo := repository.NewOrderRepository(gormDB, registry)
	sessionStore := session.NewStore(redisClient, cfg.Checkout.SessionTTL)

	app := &application{
		orders:      orderRepo,
		addItem:     command.NewAddItemHandler(orderRepo, registry),
		addPayment:  command.NewAddPaymentHandler(orderRepo, registry),
		setShipping: command.NewSetShippingHandler(orderRepo, registry),
		process:     command.NewProcessHandler(orderRepo, cfg.Checkout.ProviderTimeout, publisher.Listener()),
		sessions:    sessionStore,
	}

	// Режим demo: прогнать сквозной сценарий оформления и выйти.
	if *demoFlag {
		if err := app.runDemo(context.Background(), *demoSKU); err != nil {
			log.Fatal().Err(err).Msg("Демо-сценарий завершился ошибкой")
		}
		return
	}

	// Операционный сервер: /metrics, /healthz, /readyz
	readiness := healthcheck.Composite(
		func(ctx context.Context) error { return healthcheck.CheckMySQL(ctx, gormDB) },
		func(ctx context.Context) error { return healthcheck.CheckRedis(ctx, redisClient) },
	)
	metricsServer := metrics.NewServer(cfg.Metrics.Addr(), cfg.App.Name,
		metrics.WithReadinessCheck(readiness))

	go func() {
		log.Info().Str("addr", cfg.Metrics.Addr()).Msg("Метрики доступны")
		if err := metricsServer.Start(); err != nil {
			log.Fatal().Err(err).Msg("Ошибка сервера метрик")
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Получен сигнал завершения, останавливаемся...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Ошибка остановки сервера метрик")
	}
	if err := producer.Close(); err != nil {
		log.Error().Err(err).Msg("Ошибка закрытия Kafka producer")
	}
	if err := redisClient.Close(); err != nil {
		log.Error().Err(err).Msg("Ошибка закрытия Redis")
	}
	if sqlDB, err := gormDB.DB(); err == nil && sqlDB != nil {
		if err := sqlDB.Close(); err != nil {
			log.Error().Err(err).Msg("Ошибка закрытия MySQL")
		}
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Ошибка остановки tracing")
	}

	log.Info().Msg("Ядро заказов остановлено")
}
