package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
)

type productsEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Products []Product `json:"products"`
	} `json:"data"`
}

// HTTPResolver asks the product service for products instead of reading the document store.
type HTTPResolver struct {
	baseURL string
	client  *http.Client
}

func NewHTTPResolver(baseURL string) *HTTPResolver {
	return &HTTPResolver{baseURL: strings.TrimSuffix(baseURL, "/"), client: otelhttp.DefaultClient}
}

func (r *HTTPResolver) ResolveProducts(c context.Context, ids []string) (map[string]Product, error) {
	c, span := otel.Tracer.Start(c, "HTTPResolver ResolveProducts")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "HTTPResolver ResolveProducts").
		Strs(log.KeyProductIDs, ids).
		Logger()

	if len(ids) == 0 {
		return map[string]Product{}, nil
	}
	if len(ids) > MaxBatch {
		otel.RecordError(ErrBatchTooLarge, span)
		return nil, ErrBatchTooLarge
	}

	logger = logger.With().Str(log.KeyProcess, "requesting products").Logger()
	logger.Trace().Msg("requesting products")
	target := r.baseURL + "/products?" + url.Values{"ids": []string{strings.Join(ids, ",")}}.Encode()
	req, err := http.NewRequestWithContext(c, http.MethodGet, target, nil)
	if err != nil {
		err = fmt.Errorf("failed building products request with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	req.Header.Add(inHttp.KeyHeaderRequestID, log.RequestIDFromContext(c))
	resp, err := r.client.Do(req)
	if err != nil {
		err = fmt.Errorf("failed requesting products with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	body := productsEnvelope{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		err = fmt.Errorf("failed decoding products response with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		err = fmt.Errorf("product service answered statusCode=%d message=%s", resp.StatusCode, body.Message)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}

	products := make(map[string]Product, len(body.Data.Products))
	for _, p := range body.Data.Products {
		products[p.ID] = p
	}
	logger.Trace().Int(log.KeyResolvedCount, len(products)).Msg("requested products")
	return products, nil
}
