// Package app 负责组装 gin 引擎与后台组件，并管理服务的启动与优雅退出.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/github"
	"github.com/markbates/goth/providers/google"
	"github.com/rs/zerolog"

	"github.com/yeisme/codevault/pkg/api"
	"github.com/yeisme/codevault/pkg/configs"
	"github.com/yeisme/codevault/pkg/internal/jobs"
	"github.com/yeisme/codevault/pkg/internal/mq"
	"github.com/yeisme/codevault/pkg/internal/storage"
	"github.com/yeisme/codevault/pkg/log"
	"github.com/yeisme/codevault/pkg/metrics"
	"github.com/yeisme/codevault/pkg/middleware"
	"github.com/yeisme/codevault/pkg/queue"
	"github.com/yeisme/codevault/pkg/rule"
	"github.com/yeisme/codevault/pkg/scheduler"
	"github.com/yeisme/codevault/pkg/tracing"
)

// shutdownTimeout 优雅退出等待进行中请求的上限.
const shutdownTimeout = 10 * time.Second

type App struct {
	Engine *gin.Engine

	config   *configs.AppConfig
	manager  *storage.Manager
	sched    *scheduler.Scheduler
	consumer *mq.Consumer
	cancel   context.CancelFunc
}

// NewApp 加载配置并初始化全部依赖.
func NewApp(configPath string) (*App, error) {
	if err := configs.InitConfig(configPath); err != nil {
		return nil, fmt.Errorf("init config: %w", err)
	}

	log.Init()

	cfg := configs.GetConfig()

	if err := tracing.InitTracer(cfg.Tracing); err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	if err := metrics.InitMetrics(cfg.Metrics); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	manager, err := storage.Init(context.Background())
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	a, err := New(cfg, manager)
	if err != nil {
		_ = manager.Close()
		return nil, err
	}

	return a, nil
}

// New 用已初始化的存储组装应用，按配置启动定时任务与事件消费.
func New(cfg *configs.AppConfig, manager *storage.Manager) (*App, error) {
	// gin 的绑定校验与 rule 包共用同一个 validator 引擎
	rule.Engine()

	l := log.Logger()
	gin.DefaultWriter = log.NewGinWriter(l, zerolog.InfoLevel)
	gin.DefaultErrorWriter = log.NewGinWriter(l, zerolog.ErrorLevel)

	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	a := &App{config: cfg, manager: manager, cancel: cancel}

	if cfg.Jobs.Enabled {
		sched, err := scheduler.NewScheduler()
		if err != nil {
			cancel()
			return nil, fmt.Errorf("init scheduler: %w", err)
		}

		if err := jobs.RegisterCronJobs(ctx, sched, manager.Store, cfg.Jobs); err != nil {
			cancel()
			return nil, fmt.Errorf("register jobs: %w", err)
		}

		a.sched = sched
	}

	if cfg.Events.Enabled && cfg.Events.Consume && manager.MQ != nil {
		consumer, err := mq.StartConsumer(ctx, manager.MQ, queue.AllTopics()...)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("start event consumer: %w", err)
		}

		a.consumer = consumer
	}

	sessions := middleware.NewSessions(cfg.Auth)
	useProviders(cfg.Auth, sessions)

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		cancel()
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}

	engine.Use(middleware.Chain(
		gin.Recovery(),
		middleware.GinLoggerMiddleware(),
		middleware.TracingMiddleware(),
		middleware.PrometheusMiddleware(),
		middleware.CORSMiddleware(cfg.Server),
		gzip.Gzip(gzip.DefaultCompression),
		middleware.RateLimitMiddleware(cfg.RateLimit),
		middleware.CircuitBreakerMiddleware(cfg.CircuitBreaker),
		middleware.StorageMiddleware(manager),
		schedulerMiddleware(a.sched),
		sessions.Middleware(),
	)...)

	api.Register(engine, api.Options{
		Sessions:        sessions,
		RedeemPerMinute: cfg.Share.RedeemPerMinute,
		Admins:          cfg.Auth.Admins,
	})

	if err := metrics.StartMetricsServer(cfg.Metrics, engine); err != nil {
		cancel()
		return nil, fmt.Errorf("mount metrics: %w", err)
	}

	a.Engine = engine

	return a, nil
}

func schedulerMiddleware(sched *scheduler.Scheduler) gin.HandlerFunc {
	if sched == nil {
		return nil
	}

	return middleware.SchedulerMiddleware(sched)
}

// useProviders 注册已配置凭据的第三方登录提供方，gothic 与会话共用 Cookie 存储.
func useProviders(cfg configs.AuthConfig, sessions *middleware.Sessions) {
	cfg = cfg.WithDefaults()
	gothic.Store = sessions.Store()

	var providers []goth.Provider

	if p := cfg.Providers.Google; p.Enabled() {
		providers = append(providers, google.New(p.Key, p.Secret, cfg.CallbackBase+"/google/callback", p.Scopes...))
	}

	if p := cfg.Providers.GitHub; p.Enabled() {
		providers = append(providers, github.New(p.Key, p.Secret, cfg.CallbackBase+"/github/callback", p.Scopes...))
	}

	if len(providers) == 0 {
		return
	}

	goth.UseProviders(providers...)

	names := make([]string, 0, len(providers))
	for _, p := range providers {
		names = append(names, p.Name())
	}

	log.Logger().Info().Strs("providers", names).Msg("federated login enabled")
}

// Run 启动 HTTP 服务，收到 SIGINT/SIGTERM 后优雅退出.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.config.Server.Host, a.config.Server.Port),
		Handler:           a.Engine,
		ReadHeaderTimeout: a.config.Server.GetTimeoutDuration(),
	}

	if a.sched != nil {
		a.sched.Start()
	}

	errCh := make(chan error, 1)

	go func() {
		log.Logger().Info().Str("addr", srv.Addr).Str("version", configs.AppVersion).Msg("server listening")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}

		close(errCh)
	}()

	var runErr error

	select {
	case <-ctx.Done():
		log.Logger().Info().Msg("shutting down")
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Logger().Error().Err(err).Msg("http shutdown failed")
	}

	return errors.Join(runErr, a.Close(shutdownCtx))
}

// Close 停止后台组件并释放存储连接.
func (a *App) Close(ctx context.Context) error {
	a.cancel()

	var errs []error

	if a.sched != nil {
		errs = append(errs, a.sched.Stop())
	}

	if a.manager != nil {
		errs = append(errs, a.manager.Close())
	}

	a.consumer.Wait()

	errs = append(errs, tracing.ShutdownTracer(ctx))

	return errors.Join(errs...)
}
