package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/adventure-world/internal/api"
	"github.com/annel0/adventure-world/internal/cache"
	"github.com/annel0/adventure-world/internal/config"
	"github.com/annel0/adventure-world/internal/engine"
	"github.com/annel0/adventure-world/internal/eventbus"
	"github.com/annel0/adventure-world/internal/logging"
	"github.com/annel0/adventure-world/internal/observability"
	"github.com/annel0/adventure-world/internal/physics"
	"github.com/annel0/adventure-world/internal/storage"
	"github.com/annel0/adventure-world/internal/world"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (по умолчанию ENV WORLD_CONFIG)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	if err := logging.InitDefaultLogger("server", cfg.Logging.Dir); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		logging.Warn("Неизвестный уровень логирования %q, используется INFO", cfg.Logging.Level)
		level = logging.INFO
	}
	logging.SetDefaultLevel(level)
	logging.GetLoggerManager().SetLevel(level)
	gin.SetMode(gin.ReleaseMode)

	logging.Info("🌍 Запуск инспектора процедурного мира (seed=%d, размер=%.0f)", cfg.World.Seed, cfg.World.TerrainSize)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.InitTelemetry(ctx, cfg.Telemetry)
	if err != nil {
		logging.Error("❌ Ошибка инициализации OpenTelemetry: %v", err)
		os.Exit(1)
	}

	// === ШИНА СОБЫТИЙ ===
	bus, err := newEventBus(cfg.EventBus)
	if err != nil {
		logging.Error("❌ Ошибка подключения к шине событий: %v", err)
		os.Exit(1)
	}
	if _, err := eventbus.StartLoggingListener(ctx, bus); err != nil {
		logging.Warn("LoggingListener не запущен: %v", err)
	}

	var journal *storage.Journal
	if cfg.Journal.Enabled {
		journal, err = storage.OpenJournal(cfg.Journal.Dir)
		if err != nil {
			logging.Error("❌ Ошибка открытия журнала событий: %v", err)
			os.Exit(1)
		}
		defer journal.Close()
		if err := journal.Attach(ctx, bus); err != nil {
			logging.Warn("Журнал событий не подписан на шину: %v", err)
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	exporter := eventbus.NewMetricsExporter(bus, registry)
	exporter.Start(10 * time.Second)

	var webhooks *api.WebhookForwarder
	if len(cfg.Server.Webhooks) > 0 {
		webhooks = api.NewWebhookForwarder(cfg.Server.Webhooks)
		if err := webhooks.Start(ctx, bus); err != nil {
			logging.Error("❌ Ошибка запуска webhook'ов: %v", err)
			os.Exit(1)
		}
	}

	// === МИР ===
	headless := engine.NewHeadless()
	manager, err := world.New(cfg.World, world.Options{
		Noise:    cfg.Noise,
		Renderer: headless,
		Physics:  physics.NewColliders(headless, headless),
		Metrics:  world.NewMetrics(registry),
		EventBus: bus,
	})
	if err != nil {
		logging.Error("❌ Неверная конфигурация мира: %v", err)
		os.Exit(1)
	}
	if err := manager.GenerateWorld(ctx); err != nil {
		logging.Error("❌ Ошибка генерации мира: %v", err)
		os.Exit(1)
	}
	info := manager.WorldInfo()
	logging.Info("✅ Мир построен: объектов %d, холмов %d, интерактивных %d", info.ObjectCount, info.HillCount, info.Interactables)

	artifacts, err := cache.New(cache.Config{
		RedisURL:      cfg.Cache.RedisURL,
		RedisPassword: cfg.Cache.RedisPassword,
		RedisDB:       cfg.Cache.RedisDB,
		TTL:           cfg.Cache.TTL,
		MaxEntries:    cfg.Cache.MaxEntries,
	})
	if err != nil {
		logging.Warn("Redis недоступен (%v), кеш артефактов в памяти", err)
		artifacts = cache.NewMemoryCache(cfg.Cache.TTL, cfg.Cache.MaxEntries)
	}
	defer artifacts.Close()

	// === REST ===
	restPort := fmt.Sprintf(":%d", cfg.Server.GetRESTPort())
	server := api.NewRestServer(api.Config{
		Port:       restPort,
		World:      manager,
		AdminToken: cfg.Server.GetAdminToken(),
		EventBus:   bus,
		Webhooks:   webhooks,
		Cache:      artifacts,
		Journal:    journal,
		Registry:   registry,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logging.Info("   🌐 REST API: http://localhost%s/api/world", restPort)
	logging.Info("   ❤️  Health check: http://localhost%s/health", restPort)
	logging.Info("   📈 Метрики: http://localhost%s/metrics", restPort)

	select {
	case <-ctx.Done():
		logging.Info("📡 Получен сигнал завершения, остановка...")
	case err := <-errCh:
		if err != nil {
			logging.Error("❌ REST сервер остановился: %v", err)
		}
	}

	// === GRACEFUL SHUTDOWN ===
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Stop(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		logging.Error("❌ Ошибка остановки REST API: %v", err)
	}
	manager.Dispose()
	if webhooks != nil {
		webhooks.Stop()
	}
	exporter.Stop()
	if err := bus.Close(); err != nil {
		logging.Warn("Ошибка закрытия шины событий: %v", err)
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logging.Warn("Ошибка остановки OpenTelemetry: %v", err)
	}

	logging.Info("👋 Сервер успешно остановлен")
}

// newEventBus выбирает JetStream при заданном URL, иначе шину в памяти
func newEventBus(cfg config.EventBusConfig) (eventbus.EventBus, error) {
	if cfg.URL == "" {
		return eventbus.NewMemoryBus(cfg.Buffer), nil
	}
	bus, err := eventbus.NewJetStreamBus(cfg.URL, cfg.Stream, time.Duration(cfg.Retention)*time.Hour)
	if err != nil {
		return nil, err
	}
	logging.Info("📨 Шина событий: JetStream %s, поток %s", cfg.URL, cfg.Stream)
	return bus, nil
}
