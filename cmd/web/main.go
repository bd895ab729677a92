package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"ignite/internal/config"
	"ignite/internal/edittoken"
	"ignite/internal/employeeapi"
	"ignite/internal/flash"
	"ignite/internal/form"
	"ignite/internal/logging"
	"ignite/internal/store"
	"ignite/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	log := logging.New("ignite-web", cfg.LogLevel, cfg.Production())
	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := runHTTP(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("http server failed")
	}
}

func runHTTP(ctx context.Context, cfg config.App, log zerolog.Logger) error {
	api := employeeapi.New(cfg.EmployeeAPIBaseURL, employeeapi.WithLogger(log))
	st := store.New(api, log)

	checks := map[string]web.HealthCheck{}

	var notes flash.Notifier
	if cfg.UseRedisFlash() {
		client := flash.NewRedisClient(cfg.RedisAddr)
		defer client.Close()
		r := flash.NewRedis(client, "ignite:flash", 16, 24*time.Hour)
		checks["redis"] = r.Healthy
		notes = r
		log.Info().Str("addr", cfg.RedisAddr).Msg("notifications kept in redis")
	} else {
		notes = flash.NewInMemory(16, 24*time.Hour)
		log.Info().Msg("notifications kept in memory")
	}

	tokens := edittoken.New(cfg.EditTokenKey, cfg.EditTokenIssuer, cfg.EditTokenTTL)

	router, err := web.NewRouter(web.Options{
		Store:           st,
		Add:             form.NewAdd(st, notes, log),
		Edit:            form.NewEdit(api, notes, tokens, log),
		Flash:           notes,
		Checks:          checks,
		Log:             log,
		CORSOrigins:     cfg.CORSOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		MaxUploadMemory: cfg.MaxUploadMemory,
		SecureCookies:   cfg.Production(),
	})
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Str("employeeService", cfg.EmployeeAPIBaseURL).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
