package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/catalog"
	"github.com/Alturino/storefront/internal/log"
	inOtel "github.com/Alturino/storefront/internal/otel"
	productErrors "github.com/Alturino/storefront/product/internal/errors"
	"github.com/Alturino/storefront/product/internal/otel"
	"github.com/Alturino/storefront/product/pkg/request"
)

type ProductService struct {
	resolver catalog.Resolver
	popular  catalog.PopularStore
	browser  catalog.Browser
}

func NewProductService(
	resolver catalog.Resolver,
	popular catalog.PopularStore,
	browser catalog.Browser,
) ProductService {
	return ProductService{resolver: resolver, popular: popular, browser: browser}
}

// FindProducts returns the existing products among param.IDs in request order.
func (svc ProductService) FindProducts(c context.Context, param request.FindProducts) ([]catalog.Product, error) {
	c, span := otel.Tracer.Start(c, "ProductService FindProducts")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "ProductService FindProducts").
		Strs(log.KeyProductIDs, param.IDs).
		Logger()

	if len(param.IDs) == 0 {
		return nil, productErrors.ErrEmptyProductIDs
	}
	if len(param.IDs) > catalog.MaxBatch {
		err := fmt.Errorf("%w: got=%d max=%d", productErrors.ErrTooManyProductIDs, len(param.IDs), catalog.MaxBatch)
		inOtel.RecordError(err, span)
		return nil, err
	}

	logger = logger.With().Str(log.KeyProcess, "resolving products").Logger()
	logger.Trace().Msg("resolving products")
	c = logger.WithContext(c)
	products, err := svc.resolver.ResolveProducts(c, param.IDs)
	if err != nil {
		err = fmt.Errorf("failed resolving products with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	logger.Trace().Int(log.KeyResolvedCount, len(products)).Msg("resolved products")

	return catalog.Ordered(param.IDs, products), nil
}

func (svc ProductService) PopularProducts(c context.Context) ([]catalog.Product, error) {
	c, span := otel.Tracer.Start(c, "ProductService PopularProducts")
	defer span.End()

	products, err := catalog.ResolvePopular(c, svc.popular, svc.resolver)
	if err != nil {
		inOtel.RecordError(err, span)
		return nil, err
	}
	return products, nil
}

func (svc ProductService) SetPopularProducts(c context.Context, param request.SetPopular) error {
	c, span := otel.Tracer.Start(c, "ProductService SetPopularProducts")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "ProductService SetPopularProducts").
		Strs(log.KeyProductIDs, param.ProductIDs).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "saving popular products").Logger()
	logger.Info().Msg("saving popular products")
	c = logger.WithContext(c)
	if err := catalog.SetPopular(c, svc.popular, svc.resolver, param.ProductIDs); err != nil {
		err = fmt.Errorf("failed saving popular products with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("saved popular products")

	return nil
}

func (svc ProductService) FindProductByID(c context.Context, productID string) (catalog.Product, error) {
	c, span := otel.Tracer.Start(c, "ProductService FindProductByID")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "ProductService FindProductByID").
		Str(log.KeyProductID, productID).
		Str(log.KeyProcess, "resolving product").
		Logger()

	logger.Trace().Msg("resolving product")
	c = logger.WithContext(c)
	product, err := catalog.FindProduct(c, svc.resolver, productID)
	if err != nil {
		err = fmt.Errorf("failed resolving product with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		return catalog.Product{}, err
	}
	logger.Trace().Msg("resolved product")

	return product, nil
}

// ListProducts returns the catalogue ordered by title.
func (svc ProductService) ListProducts(c context.Context, param request.ListProducts) ([]catalog.Product, error) {
	c, span := otel.Tracer.Start(c, "ProductService ListProducts")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "ProductService ListProducts").
		Int("limit", param.Limit).
		Str(log.KeyProcess, "listing products").
		Logger()

	logger.Trace().Msg("listing products")
	c = logger.WithContext(c)
	products, err := svc.browser.ListProducts(c, param.Limit)
	if err != nil {
		err = fmt.Errorf("failed listing products with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	logger.Trace().Int(log.KeyResolvedCount, len(products)).Msg("listed products")

	return products, nil
}

// RecentProducts returns the newest products, DefaultRecentCount when no limit is given.
func (svc ProductService) RecentProducts(c context.Context, param request.RecentProducts) ([]catalog.Product, error) {
	c, span := otel.Tracer.Start(c, "ProductService RecentProducts")
	defer span.End()

	limit := param.Limit
	if limit <= 0 {
		limit = request.DefaultRecentCount
	}
	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "ProductService RecentProducts").
		Int("limit", limit).
		Str(log.KeyProcess, "listing recent products").
		Logger()

	logger.Trace().Msg("listing recent products")
	c = logger.WithContext(c)
	products, err := svc.browser.RecentProducts(c, limit)
	if err != nil {
		err = fmt.Errorf("failed listing recent products with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	logger.Trace().Int(log.KeyResolvedCount, len(products)).Msg("listed recent products")

	return products, nil
}
