package cmd

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"github.com/Alturino/storefront/cart/internal/controller"
	"github.com/Alturino/storefront/cart/internal/engine"
	cartOtel "github.com/Alturino/storefront/cart/internal/otel"
	"github.com/Alturino/storefront/cart/internal/service"
	"github.com/Alturino/storefront/cart/internal/session"
	"github.com/Alturino/storefront/cart/internal/store"
	"github.com/Alturino/storefront/cart/internal/view"
	"github.com/Alturino/storefront/internal/catalog"
	"github.com/Alturino/storefront/internal/config"
	"github.com/Alturino/storefront/internal/constants"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/i18n"
	"github.com/Alturino/storefront/internal/infra"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/middleware"
	"github.com/Alturino/storefront/internal/otel"
)

// newStore picks the persistent cart store named in the config. The returned
// close func releases whatever the store opened.
func newStore(c context.Context, cfg *config.Config, cache *redis.Client) (store.Store, func(), error) {
	switch cfg.Cart.Store {
	case constants.StorePostgres:
		db, err := infra.NewDatabaseClient(c, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		return store.NewPostgres(db), db.Close, nil
	case constants.StoreMemory:
		return store.NewMemory(), func() {}, nil
	case constants.StoreRedis, "":
		return store.NewRedis(cache, cfg.Cart.StoreTTL), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown cart store=%s", cfg.Cart.Store)
}

func RunCartService(c context.Context) {
	c, span := cartOtel.Tracer.Start(c, "RunCartService")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyAppName, constants.AppCartService).
		Str(log.KeyTag, "main RunCartService").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "init config").Logger()
	logger.Info().Msg("initializing config")
	c = logger.WithContext(c)
	cfg := config.InitConfig(c, constants.AppCartService)
	logger = logger.With().Any(log.KeyConfig, cfg).Logger()
	logger.Info().Msg("initialized config")

	logger = logger.With().Str(log.KeyProcess, "initializing otel sdk").Logger()
	logger.Info().Msg("initializing otel sdk")
	c = logger.WithContext(c)
	otelShutdowns, err := otel.InitOtelSdk(c, constants.AppCartService, cfg.Otel)
	if err != nil {
		err = fmt.Errorf("failed initializing otel sdk with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	defer func() {
		logger.Info().Msg("shutting down otel")
		if err := otel.ShutdownOtel(context.WithoutCancel(c), otelShutdowns); err != nil {
			err = fmt.Errorf("failed shutting down otel with error=%w", err)
			logger.Error().Err(err).Msg(err.Error())
			return
		}
		logger.Info().Msg("shutdown otel")
	}()
	logger.Info().Msg("initialized otel sdk")

	logger = logger.With().Str(log.KeyProcess, "initializing cache").Logger()
	logger.Info().Msg("initializing cache")
	c = logger.WithContext(c)
	cache := infra.NewCacheClient(c, cfg.Cache)
	defer func() {
		logger.Info().Msg("shutting down cache")
		if err := cache.Close(); err != nil {
			err = fmt.Errorf("failed shutting down cache with error=%w", err)
			logger.Error().Err(err).Msg(err.Error())
			return
		}
		logger.Info().Msg("shutdown cache")
	}()
	logger.Info().Msg("initialized cache")

	logger = logger.With().
		Str(log.KeyProcess, "initializing cart store").
		Str(log.KeyStoreBackend, cfg.Cart.Store).
		Logger()
	logger.Info().Msg("initializing cart store")
	c = logger.WithContext(c)
	cartStore, closeStore, err := newStore(c, cfg, cache)
	if err != nil {
		err = fmt.Errorf("failed initializing cart store with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	defer closeStore()
	logger.Info().Msg("initialized cart store")

	logger = logger.With().Str(log.KeyProcess, "initializing product resolver").Logger()
	logger.Info().Msg("initializing product resolver")
	c = logger.WithContext(c)
	var base catalog.Resolver
	if cfg.Cart.ProductServiceURL != "" {
		base = catalog.NewHTTPResolver(cfg.Cart.ProductServiceURL)
	} else {
		firestoreClient, err := infra.NewFirestoreClient(c, cfg.Firebase)
		if err != nil {
			otel.RecordError(err, span)
			return
		}
		defer firestoreClient.Close()
		base = catalog.NewFirestoreResolver(firestoreClient)
	}
	resolver := catalog.NewChain(c, base, cache, cfg.Cart.ProductCacheTTL, constants.AppCartService)
	logger.Info().Msg("initialized product resolver")

	logger = logger.With().Str(log.KeyProcess, "initializing session registry").Logger()
	logger.Info().Msg("initializing session registry")
	registry := session.NewRegistry(
		c,
		cartStore,
		engine.Options{Debounce: cfg.Cart.PersistDebounce},
		cfg.Cart.SessionIdleTimeout,
	)
	defer func() {
		logger.Info().Msg("closing session registry")
		if err := registry.Close(context.WithoutCancel(c)); err != nil {
			logger.Error().Err(err).Msg(err.Error())
			return
		}
		logger.Info().Msg("closed session registry")
	}()
	logger.Info().Msg("initialized session registry")

	logger = logger.With().Str(log.KeyProcess, "initializing cart service").Logger()
	logger.Info().Msg("initializing cart service")
	translator := i18n.NewTranslator(cfg.Cart.DefaultLocale)
	views := view.NewBuilder(resolver, translator, cfg.Cart.ResolverBatchLimit)
	cartService := service.NewCartService(registry, views, cfg.Cart.ShareBaseURL)
	logger.Info().Msg("initialized cart service")

	logger = logger.With().Str(log.KeyProcess, "initializing router").Logger()
	logger.Info().Msg("initializing router")
	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	api := router.NewRoute().Subrouter()
	api.Use(
		otelmux.Middleware(constants.AppCartService),
		middleware.Logging(logger),
		middleware.RecoverPanic,
		middleware.Session(cfg.Application.SecretKey, cfg.Cart.SessionTokenTTL),
	)
	controller.AttachCartController(api, cartService, translator)
	logger.Info().Msg("initialized router")

	logger = logger.With().Str(log.KeyProcess, "serving").Logger()
	c = logger.WithContext(c)
	server := inHttp.NewServer(c, cfg.Application.Host, cfg.Application.Port, router)
	if err = inHttp.Serve(c, server); err != nil {
		otel.RecordError(err, span)
	}
}
