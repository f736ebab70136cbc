package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sharetube/embed/internal/broker"
	"github.com/sharetube/embed/internal/controller"
	"github.com/sharetube/embed/internal/metrics"
	pageinmemory "github.com/sharetube/embed/internal/repository/page/inmemory"
	statusredis "github.com/sharetube/embed/internal/repository/status/redis"
	"github.com/sharetube/embed/internal/service/embed"
	"github.com/sharetube/embed/pkg/ctxlogger"
	"github.com/sharetube/embed/pkg/redisclient"
	"github.com/sharetube/embed/pkg/ytvideodata"
)

type AppConfig struct {
	Host          string        `json:"host"`
	Port          int           `json:"port"`
	LogLevel      string        `json:"log_level"`
	DeferLoading  bool          `json:"defer_loading"`
	AutoLoad      bool          `json:"auto_load"`
	FetchMetadata bool          `json:"fetch_metadata"`
	StatusExp     time.Duration `json:"status_exp"`
	CallTimeout   time.Duration `json:"call_timeout"`
	RedisPort     int           `json:"redis_port"`
	RedisHost     string        `json:"redis_host"`
	RedisPassword string        `json:"-"`
}

func (cfg *AppConfig) Validate() error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	if cfg.StatusExp <= 0 {
		return fmt.Errorf("status expiration must be greater than 0")
	}
	if cfg.CallTimeout <= 0 {
		return fmt.Errorf("call timeout must be greater than 0")
	}
	if cfg.AutoLoad && !cfg.DeferLoading {
		return fmt.Errorf("auto load requires deferred loading")
	}
	if _, err := parseLogLevel(cfg.LogLevel); err != nil {
		return err
	}
	return nil
}

func parseLogLevel(level string) (slog.Level, error) {
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	return logLevel, nil
}

type waiter interface {
	Wait()
}

// newHandler wires repositories, the page service and the controller.
func newHandler(cfg *AppConfig, rc *redis.Client, logger *slog.Logger) (http.Handler, waiter) {
	pageRepo := pageinmemory.NewRepo[*embed.Page](logger)
	statusRepo := statusredis.NewRepo(rc, cfg.StatusExp, logger)

	opts := []embed.Option{}
	if cfg.FetchMetadata {
		opts = append(opts, embed.WithVideoData(ytvideodata.NewClient(nil)))
	}

	embedService := embed.NewService(pageRepo, statusRepo, &embed.Config{
		Broker: broker.Options{
			DeferLoading: broker.DeferLoading{
				Enabled:  cfg.DeferLoading,
				AutoLoad: cfg.AutoLoad,
			},
		},
		CallTimeout:    cfg.CallTimeout,
		BrokerObserver: metrics.NewBrokerObserver(),
		BridgeObserver: metrics.NewBridgeObserver(),
	}, logger, opts...)

	return controller.NewController(embedService, logger).GetMux(), embedService
}

func Run(ctx context.Context, cfg *AppConfig) error {
	logLevel, err := parseLogLevel(cfg.LogLevel)
	if err != nil {
		return err
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}),
	}

	logger := slog.New(&h)
	slog.SetDefault(logger)

	rc, err := redisclient.NewRedisClient(ctx, &redisclient.Config{
		Port:     cfg.RedisPort,
		Host:     cfg.RedisHost,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		return fmt.Errorf("failed to create redis client: %w", err)
	}
	defer rc.Close()

	handler, embedService := newHandler(cfg, rc, logger)
	server := &http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), Handler: handler}

	// graceful shutdown
	serverCtx, serverStopCtx := context.WithCancel(ctx)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sig

		shutdownCtx, c := context.WithTimeout(serverCtx, 30*time.Second)
		defer c()

		go func() {
			<-shutdownCtx.Done()
			if shutdownCtx.Err() == context.DeadlineExceeded {
				log.Fatal("graceful shutdown timed out.. forcing exit.")
			}
		}()

		err := server.Shutdown(shutdownCtx)
		if err != nil {
			log.Fatal(err)
		}
		serverStopCtx()
	}()

	logger.InfoContext(serverCtx, "starting server", "address", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	<-serverCtx.Done()
	embedService.Wait()

	return nil
}
