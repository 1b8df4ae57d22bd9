package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/leeforge/multicaptcha/cache"
	"github.com/leeforge/multicaptcha/captcha"
	"github.com/leeforge/multicaptcha/http/handler"
	"github.com/leeforge/multicaptcha/http/middleware"
	"github.com/leeforge/multicaptcha/metrics"
	"github.com/leeforge/multicaptcha/redis_client"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve captcha images and answer verification over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			return runServe(cmd.Context(), a)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	return cmd
}

func runServe(ctx context.Context, a *app) error {
	deps, err := openBackend(ctx, a)
	if err != nil {
		return err
	}
	defer deps.close()

	opts := []handler.Option{
		handler.WithSecureCookie(a.cfg.Server.SecureCookie),
		handler.WithMetrics(metrics.NewCollector()),
	}
	if rl := a.cfg.Server.RateLimit; rl.Requests > 0 {
		opts = append(opts, handler.WithRateLimiter(
			middleware.NewRateLimiter(deps.rate, rl.Requests, rl.Window),
		))
	}

	h, err := handler.New(a.cfg.Captcha, deps.store, a.logger, opts...)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         a.cfg.Server.Addr,
		Handler:      h.Routes(),
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("captcha server listening",
			zap.String("addr", srv.Addr),
			zap.String("store", a.cfg.Store.Driver),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	a.logger.Info("captcha server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

type backend struct {
	store captcha.AnswerStore
	rate  middleware.RateLimitBackend
	close func()
}

// openBackend 按 store.driver 创建答案存储和限流计数后端
func openBackend(ctx context.Context, a *app) (*backend, error) {
	switch a.cfg.Store.Driver {
	case "", "memory":
		store := cache.NewMemoryStore(a.cfg.Store.TTL)
		return &backend{
			store: store,
			rate:  middleware.NewMemoryRateBackend(),
			close: func() { _ = store.Close() },
		}, nil
	case "redis":
		client, err := redis_client.NewRedis(ctx, a.cfg.Redis, a.logger)
		if err != nil {
			return nil, err
		}
		return &backend{
			store: redis_client.NewAnswerStore(client, a.cfg.Redis.KeyPrefix, a.cfg.Store.TTL),
			rate:  redis_client.NewRateBackend(client, a.cfg.Redis.KeyPrefix),
			close: func() { _ = client.Close() },
		}, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q (want memory or redis)", a.cfg.Store.Driver)
	}
}
