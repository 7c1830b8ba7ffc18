package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"github.com/electrosur/storefront/internal/cart"
	"github.com/electrosur/storefront/internal/config"
	"github.com/electrosur/storefront/internal/constants"
	"github.com/electrosur/storefront/internal/controller"
	"github.com/electrosur/storefront/internal/exchange"
	"github.com/electrosur/storefront/internal/infra"
	"github.com/electrosur/storefront/internal/log"
	"github.com/electrosur/storefront/internal/middleware"
	"github.com/electrosur/storefront/internal/notification"
	inOtel "github.com/electrosur/storefront/internal/otel"
	"github.com/electrosur/storefront/internal/repository"
	"github.com/electrosur/storefront/internal/service"
)

func RunServer(c context.Context) {
	c, span := inOtel.Tracer.Start(c, "RunServer")
	defer span.End()

	cfg := config.Get(c, constants.AppStorefrontService)

	logger := log.Get(
		filepath.Join("/var/log/", constants.AppStorefrontService+".log"),
		cfg.Application.Env,
	).
		With().
		Str(log.KeyAppName, constants.AppStorefrontService).
		Str(log.KeyTag, "main RunServer").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "initializing otel sdk").Logger()
	logger.Info().Msg("initializing otel sdk")
	c = logger.WithContext(c)
	shutdownFuncs, err := inOtel.InitOtelSdk(c, cfg.Otel)
	if err != nil {
		err = fmt.Errorf("failed initializing otel sdk with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	defer func() {
		logger.Info().Msg("shutting down otel")
		c = logger.WithContext(c)
		err = inOtel.ShutdownOtel(c, shutdownFuncs)
		if err != nil {
			err = fmt.Errorf("failed shutting down otel with error=%w", err)
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
		}
		logger.Info().Msg("shutdown otel")
	}()
	logger.Info().Msg("initialized otel sdk")

	logger = logger.With().Str(log.KeyProcess, "initializing database").Logger()
	logger.Info().Msg("initializing database")
	c = logger.WithContext(c)
	pool := infra.NewDatabaseClient(c, cfg.Database)
	defer func() {
		logger.Info().Msg("closing database")
		pool.Close()
		logger.Info().Msg("closed database")
	}()
	store := repository.NewStore(pool)
	logger.Info().Msg("initialized database")

	logger = logger.With().Str(log.KeyProcess, "initializing cache").Logger()
	logger.Info().Msg("initializing cache")
	c = logger.WithContext(c)
	cache := infra.NewCacheClient(c, cfg.Cache)
	defer func() {
		logger.Info().Msg("closing cache")
		err = cache.Close()
		if err != nil {
			err = fmt.Errorf("failed closing cache with error=%w", err)
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return
		}
		logger.Info().Msg("closed cache")
	}()
	logger.Info().Msg("initialized cache")

	logger = logger.With().Str(log.KeyProcess, "initializing services").Logger()
	logger.Info().Msg("initializing services")
	rates := exchange.NewGateway(exchange.NewRedisCache(cache), cfg.Exchange)
	notifier := notification.NewRedisNotifier(cache)
	cartService := service.NewCartService(store, cart.NewRedisStorage(cache))
	orderService := service.NewOrderService(store, rates, notifier)
	logger.Info().Msg("initialized services")

	logger = logger.With().Str(log.KeyProcess, "initializing router").Logger()
	logger.Info().Msg("initializing router")
	router := mux.NewRouter()
	router.Use(
		otelmux.Middleware(constants.AppStorefrontService),
		middleware.Logging,
		middleware.RecoverPanic,
	)
	router.Handle("/metrics", promhttp.Handler())
	controller.AttachCartController(router, cartService)
	controller.AttachRateController(router, rates)
	controller.AttachOrderController(router, orderService, cartService)
	logger.Info().Msg("initialized router")

	logger = logger.With().Str(log.KeyProcess, "initializing server").Logger()
	logger.Info().Msg("initializing server")
	server := http.Server{
		Addr: fmt.Sprintf("%s:%d", cfg.Application.Host, cfg.Application.Port),
		BaseContext: func(net.Listener) context.Context {
			lg := logger.With().
				Reset().
				Timestamp().
				Caller().
				Stack().
				Str(log.KeyAppName, constants.AppStorefrontService).
				Logger()
			return lg.WithContext(c)
		},
		Handler:      router,
		ReadTimeout:  45 * time.Second,
		WriteTimeout: 45 * time.Second,
	}
	defer func() {
		logger = logger.With().Str(log.KeyProcess, "shutting down server").Logger()
		logger.Info().Msg("shutting down server")
		err = server.Shutdown(c)
		if err != nil {
			err = fmt.Errorf("failed shutting down server with error=%w", err)
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
		}
		logger.Info().Msg("shutdown server")
	}()
	logger.Info().Msg("initialized server")

	go func() {
		logger := logger.With().Str(log.KeyProcess, "start server").Logger()
		logger.Info().Msgf("start listening request at %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			err = fmt.Errorf("encounter error=%w while running server", err)
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return
		}
		logger.Info().Msg("shutdown server")
	}()

	<-c.Done()
	logger = logger.With().Str(log.KeyProcess, "shutdown server").Logger()
	logger.Info().Msg("received interuption signal shutting down")
}
