package main // Entry point package

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Adityakbr01/sheryians-Clone-FullStack-sub000/internal/config"
	"github.com/Adityakbr01/sheryians-Clone-FullStack-sub000/internal/database"
	"github.com/Adityakbr01/sheryians-Clone-FullStack-sub000/internal/handler"
	"github.com/Adityakbr01/sheryians-Clone-FullStack-sub000/internal/kvstore"
	"github.com/Adityakbr01/sheryians-Clone-FullStack-sub000/internal/logger"
	"github.com/Adityakbr01/sheryians-Clone-FullStack-sub000/internal/metrics"
	"github.com/Adityakbr01/sheryians-Clone-FullStack-sub000/internal/middleware"
	"github.com/Adityakbr01/sheryians-Clone-FullStack-sub000/internal/profile"
	"github.com/Adityakbr01/sheryians-Clone-FullStack-sub000/internal/queue"
	"github.com/Adityakbr01/sheryians-Clone-FullStack-sub000/internal/repository"
	"github.com/Adityakbr01/sheryians-Clone-FullStack-sub000/internal/router"
	"github.com/Adityakbr01/sheryians-Clone-FullStack-sub000/internal/service"
	"github.com/Adityakbr01/sheryians-Clone-FullStack-sub000/internal/session"
	"github.com/Adityakbr01/sheryians-Clone-FullStack-sub000/internal/token"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(database.Options{
		User: cfg.DBUser, Pass: cfg.DBPass, Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName,
	})
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		return err
	}

	kv, closeKV, err := openKV(cfg, log)
	if err != nil {
		return err
	}
	defer closeKV()

	tokens, err := token.NewIssuer(token.Config{
		Issuer:        "auth",
		AccessSecret:  cfg.AccessSecret,
		RefreshSecret: cfg.RefreshSecret,
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
	})
	if err != nil {
		return err
	}

	m := metrics.New()
	sessions := session.NewStore(kv)
	svc := service.NewAuthService(service.Deps{
		Principals: repository.NewPrincipalRepo(db),
		Sessions:   sessions,
		Profiles:   profile.NewCache(kv, cfg.Cache),
		Tokens:     tokens,
		KV:         kv,
		Notifier:   service.NewRabbitNotifier(cfg.Notify.URL, cfg.Notify.Queue, log),
		Metrics:    m,
		Logger:     log,
	}, service.Options{OTPTTL: cfg.OTPTTL, BcryptCost: cfg.BcryptCost})

	if cfg.Notify.ConsumerEnabled {
		consumer := &queue.Consumer{
			URL:       cfg.Notify.URL,
			Queue:     cfg.Notify.Queue,
			Deliverer: &queue.FileDeliverer{Dir: cfg.Notify.LogDir},
			Log:       log,
		}
		go func() { _ = consumer.Run(ctx) }()
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(requestLogger(log))

	router.RegisterRoutes(e, kv, m)
	router.RegisterAuth(e,
		handler.NewAuthHandler(svc, session.CookieOptions{Secure: cfg.CookieSecure, Domain: cfg.CookieDomain}),
		middleware.SessionAuth(tokens, sessions, m, log),
	)

	errc := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		log.Info("listening", "addr", addr, "env", cfg.Env, "kv_backend", cfg.KVBackend)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", "error", err)
	}
	svc.Drain(shutdownCtx)
	return nil
}

// openKV picks the TTL store.  The memory backend loses every session on
// restart and is meant for local runs.
func openKV(cfg config.Config, log *slog.Logger) (kvstore.Store, func(), error) {
	if cfg.KVBackend == "memory" {
		log.Warn("using in-memory session store")
		return kvstore.NewMemory(), func() {}, nil
	}
	client, err := config.NewRedisClient(cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	return kvstore.NewRedis(client), func() { _ = client.Close() }, nil
}

func requestLogger(log *slog.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:   true,
		LogURIPath:  true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method, "path", v.URIPath, "status", v.Status,
				"latency_ms", v.Latency.Milliseconds(), "remote_ip", v.RemoteIP,
			}
			switch {
			case v.Status >= http.StatusInternalServerError:
				log.Error("request", append(attrs, "error", v.Error)...)
			case v.Status >= http.StatusBadRequest:
				log.Warn("request", attrs...)
			default:
				log.Info("request", attrs...)
			}
			return nil
		},
	})
}
