package app

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"skill_assess_backend/internal/config"
	"skill_assess_backend/internal/controller"
	"skill_assess_backend/internal/middleware"
	"skill_assess_backend/internal/repository"
	"skill_assess_backend/internal/service"
	"skill_assess_backend/pkg/configwatcher"
	"skill_assess_backend/pkg/events"
	"skill_assess_backend/pkg/logger"
	"skill_assess_backend/pkg/monitoring"
	"skill_assess_backend/pkg/security"
	"skill_assess_backend/pkg/tracing"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	services        *services
	publisher       events.Publisher
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

type repositories struct {
	test repository.TestRepository
}

type services struct {
	ai   *service.AIService
	test *service.TestService
}

type controllers struct {
	test   *controller.TestController
	health *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) applyConfig(cfg *config.Config) {
	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
}

func (a *App) initRepositories() *repositories {
	return &repositories{
		test: repository.NewMemoryTestRepository(),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config) *services {
	s := &services{}
	s.ai = service.NewAIService(cfg.AI)
	s.test = service.NewTestService(repos.test, s.ai, a.publisher, cfg.Assessment)

	// only the oracle endpoint is hot-reloadable; assessment policy needs a restart
	a.RegisterConfigCallback(func(newCfg *config.Config) {
		s.ai.UpdateConfig(newCfg.AI)
		logger.Log.Info("AI settings reloaded", zap.String("model", newCfg.AI.Model))
	})
	return s
}

func (a *App) initControllers(s *services) *controllers {
	return &controllers{
		test:   controller.NewTestController(s.test),
		health: controller.NewHealthController(s.test),
	}
}

func (a *App) initPublisher(cfg *config.Config) events.Publisher {
	if !cfg.Events.Enabled {
		return events.NoopPublisher{}
	}
	pub, err := events.NewAMQPPublisher(cfg.Events.AMQPURL, cfg.Events.Exchange)
	if err != nil {
		// events are best effort, the service runs without them
		logger.Log.Error("Failed to connect event publisher, events disabled", zap.Error(err))
		return events.NoopPublisher{}
	}
	logger.Log.Info("Event publisher connected", zap.String("exchange", cfg.Events.Exchange))
	return pub
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(middleware.RequestID())
	router.Use(middleware.AccessLog())
	router.Use(middleware.Recovery())
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	app := &App{Config: cfg}

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(cfg.Tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	app.publisher = app.initPublisher(cfg)

	repos := app.initRepositories()
	services := app.initServices(repos, cfg)
	app.services = services
	controllers := app.initControllers(services)

	monitoring.Init()

	router := gin.New()
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers)

	if cfg.AI.APIKey == "" {
		logger.Log.Warn("AI API key not set, every test will use fallback questions")
	}

	return app
}

func (a *App) watchConfig(ctx context.Context) {
	if a.Config.File == "" {
		return
	}
	go func() {
		if err := configwatcher.WatchConfig(ctx, a.Config.File, a.applyConfig); err != nil {
			logger.Log.Error("Config watcher stopped", zap.Error(err), zap.String("file", filepath.Base(a.Config.File)))
		}
	}()
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	watchCtx, stopWatching := context.WithCancel(context.Background())
	defer stopWatching()
	a.watchConfig(watchCtx)

	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	timeout := a.Config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	a.Close(ctx)
	logger.Log.Info("Server exiting")
}

// Close releases the event publisher and flushes pending spans.
func (a *App) Close(ctx context.Context) {
	if a.publisher != nil {
		a.publisher.Close()
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
}
