// Package app wires configuration, storage and services into the process
// shared by the serve, worker and remind commands.
package app

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"matchday/internal/cache"
	"matchday/internal/config"
	"matchday/internal/database"
	"matchday/internal/handler"
	"matchday/internal/metrics"
	"matchday/internal/queue"
	redisclient "matchday/internal/redis"
	"matchday/internal/repository"
	"matchday/internal/service"
	transporthttp "matchday/internal/transport/http"
	"matchday/internal/transport/http/middleware"
	"matchday/internal/worker"
)

// streamMaxLen caps the notification stream (approximate trimming).
const streamMaxLen = 100_000

// App holds the long-lived dependencies of one process.
type App struct {
	Config   *config.Config
	DB       *sqlx.DB
	Redis    *redisclient.Client
	Registry *prometheus.Registry
	Metrics  *metrics.NotificationMetrics

	Notifications *service.NotificationService
	Settings      *service.SettingsService
	Subscriptions *service.SubscriptionService

	Publisher queue.Publisher
	Consumer  queue.Consumer
}

// New connects to Postgres and Redis and builds every service.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}

	rc, err := redisclient.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		db.Close()
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.NewNotificationMetrics(reg)
	if err != nil {
		db.Close()
		rc.Close()
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	gateway, err := newGateway(ctx, cfg)
	if err != nil {
		db.Close()
		rc.Close()
		return nil, err
	}

	settingRepo := repository.NewNotificationSettingRepository(db)
	prefs := service.NewPreferenceResolver(settingRepo, cache.NewSettingsCache(rc.Client, cfg.SettingsCacheTTL))
	selector := service.NewRecipientSelector(prefs, repository.NewAudienceRepository(db), cfg.QuietHoursTZ, m)
	registry := service.NewDeviceTokenRegistry(repository.NewDeviceTokenRepository(db))
	breaker := service.NewCircuitBreaker(gateway.Name(), cfg.BreakerFailures, cfg.BreakerCooldown, m)
	dispatcher := service.NewPushDispatcher(registry, gateway, breaker, m, service.DispatcherConfig{
		Timeout:        cfg.PushTimeout,
		MaxConcurrency: cfg.PushConcurrency,
	})
	notifRepo := repository.NewNotificationRepository(db)

	notifications := service.NewNotificationService(service.NotificationServiceDeps{
		Selector:    selector,
		Persister:   service.NewNotificationPersister(notifRepo, m),
		Dispatcher:  dispatcher,
		Registry:    registry,
		NotifRepo:   notifRepo,
		MatchRepo:   repository.NewMatchRepository(db),
		CommentRepo: repository.NewCommentRepository(db),
		UserRepo:    repository.NewUserRepository(db),
		Location:    cfg.QuietHoursTZ,
	})

	log.Printf("[App] Ready: push=%s workers=%d concurrency=%d", gateway.Name(), cfg.WorkerCount, cfg.PushConcurrency)

	return &App{
		Config:        cfg,
		DB:            db,
		Redis:         rc,
		Registry:      reg,
		Metrics:       m,
		Notifications: notifications,
		Settings:      service.NewSettingsService(settingRepo, prefs),
		Subscriptions: service.NewSubscriptionService(repository.NewSubscriptionRepository(db)),
		Publisher:     queue.NewPublisher(rc.Client, streamMaxLen),
		Consumer:      queue.NewConsumer(rc.Client),
	}, nil
}

func newGateway(ctx context.Context, cfg *config.Config) (service.PushGateway, error) {
	switch cfg.PushProvider {
	case config.PushProviderFCM:
		c, err := service.NewFCMClient(ctx, cfg.FCMProjectID, cfg.FCMClientEmail, cfg.FCMPrivateKey)
		if err != nil {
			return nil, fmt.Errorf("init fcm: %w", err)
		}
		return c, nil
	case config.PushProviderExpo:
		return service.NewExpoPushClient(service.ExpoConfig{
			URL:         cfg.ExpoPushURL,
			AccessToken: cfg.ExpoAccessToken,
			RateLimit:   cfg.ExpoRateLimit,
			Timeout:     cfg.PushTimeout,
		}), nil
	default:
		return nil, fmt.Errorf("unknown push provider %q", cfg.PushProvider)
	}
}

// Router builds the HTTP API. The returned close func stops the rate limiter.
func (a *App) Router() (http.Handler, func()) {
	limiter := middleware.NewRateLimiter(rate.Limit(a.Config.RateLimitRPS), a.Config.RateLimitBurst)

	r := transporthttp.NewRouter(transporthttp.RouterConfig{
		NotificationHandler: handler.NewNotificationHandler(a.Notifications),
		DeviceHandler:       handler.NewDeviceHandler(a.Notifications),
		SettingsHandler:     handler.NewSettingsHandler(a.Settings, a.Subscriptions),
		AdminHandler:        handler.NewAdminHandler(a.Notifications),
		EventHandler:        handler.NewEventHandler(a.Publisher),
		JWTSecret:           a.Config.JWTSecret,
		AllowedOrigins:      a.Config.AllowedOrigins,
		RateLimiter:         limiter,
		MetricsHandler:      promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{ErrorHandling: promhttp.HTTPErrorOnError}),
	})
	return r, limiter.Close
}

// Workers builds the stream consumer pool.
func (a *App) Workers() *worker.Manager {
	cfg := worker.DefaultManagerConfig()
	cfg.WorkerCount = a.Config.WorkerCount
	cfg.Instance = a.Config.WorkerInstance
	return worker.NewManager(a.Consumer, worker.NewHandler(a.Notifications, a.Metrics), cfg)
}

// Close releases the database and Redis pools.
func (a *App) Close() {
	if err := a.Redis.Close(); err != nil {
		log.Printf("[App] Redis close: %v", err)
	}
	if err := a.DB.Close(); err != nil {
		log.Printf("[App] DB close: %v", err)
	}
}
