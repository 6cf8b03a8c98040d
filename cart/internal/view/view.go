package view

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Alturino/storefront/cart/internal/domain"
	"github.com/Alturino/storefront/cart/internal/metrics"
	"github.com/Alturino/storefront/cart/internal/otel"
	"github.com/Alturino/storefront/internal/catalog"
	"github.com/Alturino/storefront/internal/constants"
	"github.com/Alturino/storefront/internal/i18n"
	"github.com/Alturino/storefront/internal/log"
	inOtel "github.com/Alturino/storefront/internal/otel"
)

const DefaultMaxAttempts = 3

var ErrStale = errors.New("cart kept changing while resolving products")

// ResolutionError is a failed product lookup. It concerns the whole view, unlike a
// product that is simply missing from the catalog.
type ResolutionError struct {
	Err error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("failed resolving cart products with error=%s", e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// Source is anything holding the authoritative cart lines.
type Source interface {
	Snapshot() ([]domain.Line, uint64)
}

type ResolvedLine struct {
	ProductID         string          `json:"productId"`
	Title             string          `json:"title"`
	Description       string          `json:"description"`
	ImageURL          string          `json:"imageUrl"`
	DataAIHint        string          `json:"dataAiHint,omitempty"`
	Price             decimal.Decimal `json:"price"`
	Currency          string          `json:"currency"`
	Quantity          int             `json:"quantity"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	FormattedPrice    string          `json:"formattedPrice"`
	FormattedSubtotal string          `json:"formattedSubtotal"`
	ExcludedFromTotal bool            `json:"excludedFromTotal,omitempty"`
}

type Diagnostic struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type View struct {
	Lines          []ResolvedLine  `json:"lines"`
	Total          decimal.Decimal `json:"total"`
	Currency       string          `json:"currency"`
	FormattedTotal string          `json:"formattedTotal"`
	ItemCount      int             `json:"itemCount"`
	UniqueCount    int             `json:"uniqueCount"`
	Empty          bool            `json:"empty"`
	Truncated      bool            `json:"truncated"`
	Unresolved     []string        `json:"unresolved"`
	Diagnostics    []Diagnostic    `json:"diagnostics"`
	Version        uint64          `json:"version"`
}

type Builder struct {
	resolver    catalog.Resolver
	translator  i18n.Translator
	maxBatch    int
	maxAttempts int
}

func NewBuilder(resolver catalog.Resolver, translator i18n.Translator, maxBatch int) *Builder {
	if maxBatch <= 0 || maxBatch > catalog.MaxBatch {
		maxBatch = catalog.MaxBatch
	}
	return &Builder{
		resolver:    resolver,
		translator:  translator,
		maxBatch:    maxBatch,
		maxAttempts: DefaultMaxAttempts,
	}
}

// Build joins the current cart lines with their products. Lines whose product does not
// resolve are left out of the view and the total but stay in the cart.
func (b *Builder) Build(c context.Context, src Source, lang i18n.Language) (View, error) {
	c, span := otel.Tracer.Start(c, "Builder Build")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "Builder Build").Logger()

	lines, version := src.Snapshot()
	for attempt := 1; ; attempt++ {
		ids, truncated := b.requested(lines)
		if len(ids) == 0 {
			return b.join(lines, version, nil, false, lang), nil
		}

		logger = logger.With().
			Str(log.KeyProcess, "resolving products").
			Int("attempt", attempt).
			Uint64(log.KeyCartVersion, version).
			Logger()
		logger.Trace().Strs(log.KeyProductIDs, ids).Msg("resolving products")
		products, err := b.resolver.ResolveProducts(logger.WithContext(c), ids)
		if err != nil {
			err = &ResolutionError{Err: err}
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return View{}, err
		}
		logger.Trace().Int(log.KeyResolvedCount, len(products)).Msg("resolved products")

		current, currentVersion := src.Snapshot()
		currentIDs, _ := b.requested(current)
		if sameIDs(ids, currentIDs) {
			if truncated {
				metrics.ViewTruncated.Inc()
				logger.Warn().Int("uniqueIds", len(domain.UniqueIDs(current))).Msg("cart too large to resolve at once")
			}
			return b.join(current, currentVersion, products, truncated, lang), nil
		}

		metrics.ViewStaleRetries.Inc()
		logger.Debug().Uint64("currentVersion", currentVersion).Msg("cart changed while resolving, discarding response")
		if attempt >= b.maxAttempts {
			err = fmt.Errorf("failed building cart view after %d attempts with error=%w", attempt, ErrStale)
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return View{}, err
		}
		lines, version = current, currentVersion
	}
}

func (b *Builder) requested(lines []domain.Line) ([]string, bool) {
	ids := domain.UniqueIDs(lines)
	if len(ids) > b.maxBatch {
		return ids[:b.maxBatch], true
	}
	return ids, false
}

func (b *Builder) join(
	lines []domain.Line,
	version uint64,
	products map[string]catalog.Product,
	truncated bool,
	lang i18n.Language,
) View {
	v := View{
		Lines:       make([]ResolvedLine, 0, len(lines)),
		Total:       decimal.Zero,
		Currency:    constants.DefaultCurrency,
		ItemCount:   domain.TotalQuantity(lines),
		UniqueCount: len(lines),
		Empty:       len(lines) == 0,
		Truncated:   truncated,
		Unresolved:  []string{},
		Diagnostics: []Diagnostic{},
		Version:     version,
	}

	dominant := ""
	excluded := 0
	for _, l := range lines {
		p, ok := products[l.ProductID]
		if !ok {
			v.Unresolved = append(v.Unresolved, l.ProductID)
			continue
		}
		code := p.Currency
		if code == "" {
			code = constants.DefaultCurrency
		}
		if dominant == "" {
			dominant = code
		}
		subtotal := p.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
		line := ResolvedLine{
			ProductID:         l.ProductID,
			Title:             p.Title,
			Description:       p.Description,
			ImageURL:          p.ImageURL,
			DataAIHint:        p.DataAIHint,
			Price:             p.Price,
			Currency:          code,
			Quantity:          l.Quantity,
			Subtotal:          subtotal,
			FormattedPrice:    i18n.FormatMoney(lang, p.Price, code),
			FormattedSubtotal: i18n.FormatMoney(lang, subtotal, code),
		}
		if code != dominant {
			line.ExcludedFromTotal = true
			excluded++
		} else {
			v.Total = v.Total.Add(subtotal)
		}
		v.Lines = append(v.Lines, line)
	}
	if dominant != "" {
		v.Currency = dominant
	}
	v.FormattedTotal = i18n.FormatMoney(lang, v.Total, v.Currency)

	if truncated {
		v.Diagnostics = append(v.Diagnostics, Diagnostic{
			Code:    i18n.KeyCartTooLargeToResolve,
			Message: b.translator.T(i18n.KeyCartTooLargeToResolve, lang, map[string]any{"count": b.maxBatch}),
		})
	}
	if excluded > 0 {
		v.Diagnostics = append(v.Diagnostics, Diagnostic{
			Code:    i18n.KeyMixedCurrency,
			Message: b.translator.T(i18n.KeyMixedCurrency, lang, map[string]any{"count": excluded}),
		})
	}
	return v
}

func sameIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, id := range a {
		set[id] = struct{}{}
	}
	for _, id := range b {
		if _, ok := set[id]; !ok {
			return false
		}
	}
	return true
}
