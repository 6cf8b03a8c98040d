package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/auth"
	"github.com/Alturino/storefront/internal/catalog"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/i18n"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/middleware"
	inOtel "github.com/Alturino/storefront/internal/otel"
	productErrors "github.com/Alturino/storefront/product/internal/errors"
	"github.com/Alturino/storefront/product/internal/otel"
	"github.com/Alturino/storefront/product/internal/service"
	"github.com/Alturino/storefront/product/pkg/request"
)

type ProductController struct {
	service    service.ProductService
	translator i18n.Translator
	validate   *validator.Validate
}

func AttachProductController(
	mux *mux.Router,
	service service.ProductService,
	translator i18n.Translator,
	verifier auth.TokenVerifier,
	profiles auth.ProfileRepository,
) {
	controller := ProductController{
		service:    service,
		translator: translator,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
	}

	router := mux.PathPrefix("/products").Subrouter()
	router.HandleFunc("", controller.FindProducts).Methods(http.MethodGet).Queries("ids", "{ids}")
	router.HandleFunc("", controller.ListProducts).Methods(http.MethodGet)
	router.HandleFunc("/popular", controller.PopularProducts).Methods(http.MethodGet)
	router.HandleFunc("/recent", controller.RecentProducts).Methods(http.MethodGet)

	admin := func(h http.HandlerFunc) http.Handler {
		return middleware.Auth(verifier)(middleware.RequireAdmin(profiles)(h))
	}
	router.Handle("/popular", admin(controller.SetPopularProducts)).Methods(http.MethodPut)

	// registered last so the fixed paths above win
	router.HandleFunc("/{productId}", controller.FindProductByID).Methods(http.MethodGet)
}

func (p ProductController) language(r *http.Request) i18n.Language {
	return p.translator.Negotiate(r.Header.Get(inHttp.KeyHeaderAcceptLang))
}

func (p ProductController) FindProducts(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "ProductController FindProducts")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "ProductController FindProducts").Logger()

	logger = logger.With().Str(log.KeyProcess, "validating query").Logger()
	logger.Trace().Msg("validating query")
	param := request.FindProducts{IDs: request.ParseIDs(r.URL.Query().Get("ids"))}
	if err := p.validate.StructCtx(c, param); err != nil {
		err = fmt.Errorf("failed validating query with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusBadRequest, err)
		return
	}

	logger = logger.With().Str(log.KeyProcess, "finding products").Strs(log.KeyProductIDs, param.IDs).Logger()
	logger.Info().Msg("finding products")
	c = logger.WithContext(c)
	products, err := p.service.FindProducts(c, param)
	if err != nil {
		statusCode := http.StatusBadGateway
		if errors.Is(err, productErrors.ErrTooManyProductIDs) || errors.Is(err, productErrors.ErrEmptyProductIDs) {
			statusCode = http.StatusBadRequest
		}
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, statusCode, err)
		return
	}
	logger.Info().Int(log.KeyResolvedCount, len(products)).Msg("found products")

	inHttp.WriteSuccess(c, w, http.StatusOK, "products found", map[string]interface{}{"products": products})
}

func (p ProductController) ListProducts(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "ProductController ListProducts")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "ProductController ListProducts").Logger()
	lang := p.language(r)

	logger = logger.With().Str(log.KeyProcess, "validating query").Logger()
	limit, err := request.ParseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusBadRequest, err)
		return
	}
	param := request.ListProducts{Limit: limit}
	if err := p.validate.StructCtx(c, param); err != nil {
		err = fmt.Errorf("failed validating query with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusBadRequest, err)
		return
	}

	logger = logger.With().Str(log.KeyProcess, "listing products").Logger()
	c = logger.WithContext(c)
	products, err := p.service.ListProducts(c, param)
	if err != nil {
		p.writeFetchFailed(c, w, lang, err)
		return
	}
	logger.Info().Int(log.KeyResolvedCount, len(products)).Msg("listed products")

	inHttp.WriteSuccess(c, w, http.StatusOK, "products found", map[string]interface{}{"products": products})
}

func (p ProductController) RecentProducts(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "ProductController RecentProducts")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "ProductController RecentProducts").Logger()
	lang := p.language(r)

	logger = logger.With().Str(log.KeyProcess, "validating query").Logger()
	limit, err := request.ParseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusBadRequest, err)
		return
	}
	param := request.RecentProducts{Limit: limit}
	if err := p.validate.StructCtx(c, param); err != nil {
		err = fmt.Errorf("failed validating query with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusBadRequest, err)
		return
	}

	logger = logger.With().Str(log.KeyProcess, "listing recent products").Logger()
	c = logger.WithContext(c)
	products, err := p.service.RecentProducts(c, param)
	if err != nil {
		p.writeFetchFailed(c, w, lang, err)
		return
	}
	logger.Info().Int(log.KeyResolvedCount, len(products)).Msg("listed recent products")

	inHttp.WriteSuccess(c, w, http.StatusOK, "products found", map[string]interface{}{"products": products})
}

func (p ProductController) FindProductByID(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "ProductController FindProductByID")
	defer span.End()

	productID := mux.Vars(r)["productId"]
	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "ProductController FindProductByID").
		Str(log.KeyProductID, productID).
		Str(log.KeyProcess, "finding product").
		Logger()
	lang := p.language(r)

	c = logger.WithContext(c)
	product, err := p.service.FindProductByID(c, productID)
	switch {
	case errors.Is(err, catalog.ErrProductNotFound):
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     inHttp.StatusFailed,
			"statusCode": http.StatusNotFound,
			"message":    p.translator.T(i18n.KeyProductNotFound, lang, nil),
		})
		return
	case err != nil:
		p.writeFetchFailed(c, w, lang, err)
		return
	}
	logger.Info().Msg("found product")

	inHttp.WriteSuccess(c, w, http.StatusOK, "product found", map[string]interface{}{"product": product})
}

func (p ProductController) writeFetchFailed(c context.Context, w http.ResponseWriter, lang i18n.Language, err error) {
	zerolog.Ctx(c).Error().Err(err).Msg(err.Error())
	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     inHttp.StatusFailed,
		"statusCode": http.StatusBadGateway,
		"message":    p.translator.T(i18n.KeyErrorFetchingProducts, lang, nil),
		"error":      err.Error(),
	})
}

func (p ProductController) PopularProducts(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "ProductController PopularProducts")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "ProductController PopularProducts").
		Str(log.KeyProcess, "finding popular products").
		Logger()
	lang := p.language(r)

	logger.Info().Msg("finding popular products")
	c = logger.WithContext(c)
	products, err := p.service.PopularProducts(c)
	switch {
	case errors.Is(err, catalog.ErrPopularNotConfigured):
		logger.Info().Err(err).Msg(err.Error())
		inHttp.WriteSuccess(c, w, http.StatusOK, p.translator.T(i18n.KeyNoPopularProductsConfigured, lang, nil),
			map[string]interface{}{"products": []catalog.Product{}})
		return
	case errors.Is(err, catalog.ErrPopularMisconfigured):
		logger.Warn().Err(err).Msg(err.Error())
		inHttp.WriteSuccess(c, w, http.StatusOK, p.translator.T(i18n.KeyErrorFetchingConfiguredPopularProducts, lang, nil),
			map[string]interface{}{"products": []catalog.Product{}})
		return
	case err != nil:
		err = fmt.Errorf("failed finding popular products with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     inHttp.StatusFailed,
			"statusCode": http.StatusBadGateway,
			"message":    p.translator.T(i18n.KeyErrorFetchingPopularProducts, lang, nil),
		})
		return
	}
	logger.Info().Msg("found popular products")

	inHttp.WriteSuccess(c, w, http.StatusOK, p.translator.T(i18n.KeyMostPopular, lang, nil),
		map[string]interface{}{"products": products})
}

func (p ProductController) SetPopularProducts(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "ProductController SetPopularProducts")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "ProductController SetPopularProducts").Logger()
	lang := p.language(r)
	countRequired := p.translator.T(i18n.KeyExactPopularProductsRequiredDesc, lang,
		map[string]interface{}{"count": catalog.PopularCount})

	logger = logger.With().Str(log.KeyProcess, "decoding request body").Logger()
	reqBody := request.SetPopular{}
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		err = fmt.Errorf("failed decoding request body with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusBadRequest, err)
		return
	}
	if err := p.validate.StructCtx(c, reqBody); err != nil {
		err = fmt.Errorf("failed validating request body with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     inHttp.StatusFailed,
			"statusCode": http.StatusBadRequest,
			"message":    countRequired,
			"error":      err.Error(),
		})
		return
	}

	logger = logger.With().Str(log.KeyProcess, "setting popular products").Logger()
	c = logger.WithContext(c)
	if err := p.service.SetPopularProducts(c, reqBody); err != nil {
		statusCode, message := http.StatusBadGateway, p.translator.T(i18n.KeyPopularProductsUpdatedErrorDesc, lang, nil)
		if errors.Is(err, catalog.ErrInvalidPopularProduct) {
			statusCode, message = http.StatusBadRequest, countRequired
		}
		inOtel.RecordError(err, span)
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     inHttp.StatusFailed,
			"statusCode": statusCode,
			"message":    message,
			"error":      err.Error(),
		})
		return
	}
	logger.Info().Msg("set popular products")

	inHttp.WriteSuccess(c, w, http.StatusOK, p.translator.T(i18n.KeyPopularProductsUpdatedSuccessTitle, lang, nil),
		map[string]interface{}{"productIds": reqBody.ProductIDs})
}
