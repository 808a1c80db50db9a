package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/go-chi/chi/v5"
	"github.com/samber/do"
	"github.com/serroba/record-service-go/internal/container"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func registerPackages(injector *do.Injector, options *container.Options) {
	do.ProvideValue(injector, options)
	container.LoggerPackage(injector)
	container.RedisPackage(injector)
	container.StoragePackage(injector)
	container.RateLimitPackage(injector)
	container.PublisherPackage(injector)
	container.HTTPPackage(injector)
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, options *container.Options) {
		injector := do.New()

		var server *http.Server

		hooks.OnStart(func() {
			bootstrap := zap.Must(zap.NewDevelopment())

			if options.Config != "" {
				if err := options.LoadFile(options.Config); err != nil {
					bootstrap.Fatal("failed to load configuration", zap.Error(err))
				}
			}

			if err := options.Validate(); err != nil {
				bootstrap.Fatal("invalid configuration", zap.Error(err))
			}

			registerPackages(injector, options)

			logger := do.MustInvoke[*zap.Logger](injector)

			router, err := do.Invoke[*chi.Mux](injector)
			if err != nil {
				logger.Fatal("failed to build router", zap.Error(err))
			}

			server = &http.Server{
				Addr:              fmt.Sprintf(":%d", options.Port),
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			logger.Info("server starting",
				zap.Int("port", options.Port),
				zap.Int("rate_limit", options.RateLimit),
				zap.Bool("tls", options.TLS()),
			)

			if options.TLS() {
				err = server.ListenAndServeTLS(options.TLSCert, options.TLSKey)
			} else {
				err = server.ListenAndServe()
			}

			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatal("server failed", zap.Error(err))
			}
		})

		hooks.OnStop(func() {
			logger, err := do.Invoke[*zap.Logger](injector)
			if err != nil {
				return
			}

			logger.Info("shutting down")

			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if server != nil {
				if err := server.Shutdown(ctx); err != nil {
					logger.Error("server shutdown error", zap.Error(err))
				}
			}

			if err := injector.Shutdown(); err != nil {
				logger.Error("service shutdown error", zap.Error(err))
			}

			logger.Info("shutdown complete")
			_ = logger.Sync()
		})
	})

	cli.Run()
}
