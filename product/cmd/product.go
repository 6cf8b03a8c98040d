package cmd

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"github.com/Alturino/storefront/internal/auth"
	"github.com/Alturino/storefront/internal/catalog"
	"github.com/Alturino/storefront/internal/config"
	"github.com/Alturino/storefront/internal/constants"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/i18n"
	"github.com/Alturino/storefront/internal/infra"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/middleware"
	inOtel "github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/product/internal/controller"
	"github.com/Alturino/storefront/product/internal/otel"
	"github.com/Alturino/storefront/product/internal/service"
)

func RunProductService(c context.Context) {
	c, span := otel.Tracer.Start(c, "RunProductService")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyAppName, constants.AppProductService).
		Str(log.KeyTag, "main RunProductService").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "initializing config").Logger()
	logger.Info().Msg("initializing config")
	c = logger.WithContext(c)
	cfg := config.InitConfig(c, constants.AppProductService)
	logger = logger.With().Any(log.KeyConfig, cfg).Logger()
	logger.Info().Msg("initialized config")

	logger = logger.With().Str(log.KeyProcess, "initializing otel sdk").Logger()
	logger.Info().Msg("initializing otel sdk")
	c = logger.WithContext(c)
	shutdownFuncs, err := inOtel.InitOtelSdk(c, constants.AppProductService, cfg.Otel)
	if err != nil {
		err = fmt.Errorf("failed initializing otel sdk with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	logger.Info().Msg("initialized otel sdk")
	defer func() {
		logger.Info().Msg("shutting down otel")
		if err := inOtel.ShutdownOtel(context.WithoutCancel(c), shutdownFuncs); err != nil {
			err = fmt.Errorf("failed shutting down otel with error=%w", err)
			logger.Error().Err(err).Msg(err.Error())
			return
		}
		logger.Info().Msg("shutdown otel")
	}()

	logger = logger.With().Str(log.KeyProcess, "initializing cache").Logger()
	logger.Info().Msg("initializing cache")
	c = logger.WithContext(c)
	cache := infra.NewCacheClient(c, cfg.Cache)
	defer cache.Close()
	logger.Info().Msg("initialized cache")

	logger = logger.With().Str(log.KeyProcess, "initializing firebase").Logger()
	logger.Info().Msg("initializing firebase")
	c = logger.WithContext(c)
	firestoreClient, err := infra.NewFirestoreClient(c, cfg.Firebase)
	if err != nil {
		inOtel.RecordError(err, span)
		return
	}
	defer firestoreClient.Close()
	authClient, err := infra.NewFirebaseAuthClient(c, cfg.Firebase)
	if err != nil {
		inOtel.RecordError(err, span)
		return
	}
	logger.Info().Msg("initialized firebase")

	logger = logger.With().Str(log.KeyProcess, "initializing productService").Logger()
	logger.Info().Msg("initializing productService")
	base := catalog.NewFirestoreResolver(firestoreClient)
	resolver := catalog.NewChain(c, base, cache, cfg.Cart.ProductCacheTTL, constants.AppProductService)
	productService := service.NewProductService(resolver, catalog.NewFirestorePopularStore(firestoreClient), base)
	logger.Info().Msg("initialized productService")

	logger = logger.With().Str(log.KeyProcess, "initializing router").Logger()
	logger.Info().Msg("initializing router")
	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	api := router.NewRoute().Subrouter()
	api.Use(otelmux.Middleware(constants.AppProductService), middleware.Logging(logger), middleware.RecoverPanic)
	controller.AttachProductController(
		api,
		productService,
		i18n.NewTranslator(cfg.Cart.DefaultLocale),
		authClient,
		auth.NewFirestoreProfileRepository(firestoreClient),
	)
	logger.Info().Msg("initialized router")

	logger = logger.With().Str(log.KeyProcess, "serving").Logger()
	c = logger.WithContext(c)
	server := inHttp.NewServer(c, cfg.Application.Host, cfg.Application.Port, router)
	if err = inHttp.Serve(c, server); err != nil {
		inOtel.RecordError(err, span)
	}
}
