package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/cart/internal/domain"
	"github.com/Alturino/storefront/cart/internal/otel"
	"github.com/Alturino/storefront/cart/internal/session"
	"github.com/Alturino/storefront/cart/internal/share"
	"github.com/Alturino/storefront/cart/internal/view"
	"github.com/Alturino/storefront/cart/pkg/request"
	"github.com/Alturino/storefront/cart/pkg/response"
	"github.com/Alturino/storefront/internal/i18n"
	"github.com/Alturino/storefront/internal/log"
	inOtel "github.com/Alturino/storefront/internal/otel"
)

type CartService struct {
	registry     *session.Registry
	views        *view.Builder
	shareBaseURL string
}

func NewCartService(registry *session.Registry, views *view.Builder, shareBaseURL string) CartService {
	return CartService{registry: registry, views: views, shareBaseURL: shareBaseURL}
}

func (svc CartService) do(
	c context.Context,
	sessionID uuid.UUID,
	tag string,
	fn func(c context.Context, s *session.Session) error,
) error {
	c, span := otel.Tracer.Start(c, tag)
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, tag).
		Str(log.KeySessionID, sessionID.String()).
		Logger()

	c = logger.WithContext(c)
	err := svc.registry.Do(c, sessionID, func(s *session.Session) error {
		return fn(c, s)
	})
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		return err
	}
	return nil
}

// FindCart returns the resolved cart of the session. A non-empty sharedItems token
// is handed to the share flow first; a malformed token is returned as error together
// with the unchanged cart.
func (svc CartService) FindCart(
	c context.Context,
	sessionID uuid.UUID,
	sharedItems string,
	lang i18n.Language,
) (response.Cart, error) {
	c, span := otel.Tracer.Start(c, "CartService FindCart")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "CartService FindCart").
		Str(log.KeySessionID, sessionID.String()).
		Str(log.KeyLocale, string(lang)).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "getting session").Logger()
	logger.Trace().Msg("getting session")
	c = logger.WithContext(c)
	s, err := svc.registry.Get(c, sessionID)
	if err != nil {
		err = fmt.Errorf("failed getting session with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}

	var shareErr error
	if sharedItems != "" {
		logger = logger.With().Str(log.KeyProcess, "receiving shared cart").Logger()
		logger.Trace().Msg("receiving shared cart")
		state, err := s.Flow.Receive(c, sharedItems)
		if err != nil {
			shareErr = err
		}
		logger.Trace().Str(log.KeyShareState, state.String()).Msg("received shared cart")
	}

	logger = logger.With().Str(log.KeyProcess, "building cart view").Logger()
	logger.Trace().Msg("building cart view")
	c = logger.WithContext(c)
	v, err := svc.views.Build(c, s.Engine, lang)
	if err != nil {
		err = fmt.Errorf("failed building cart view with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger.Trace().Int(log.KeyCartLines, len(v.Lines)).Msg("built cart view")

	return response.FromView(v, s.Flow), shareErr
}

func (svc CartService) Summary(c context.Context, sessionID uuid.UUID) (response.Summary, error) {
	summary := response.Summary{}
	err := svc.do(c, sessionID, "CartService Summary", func(c context.Context, s *session.Session) error {
		lines, version := s.Engine.Snapshot()
		summary = response.SummaryOf(lines, version)
		return nil
	})
	return summary, err
}

func (svc CartService) AddItem(c context.Context, sessionID uuid.UUID, param request.AddItem) error {
	return svc.do(c, sessionID, "CartService AddItem", func(c context.Context, s *session.Session) error {
		return s.Engine.AddLine(c, param.ProductID, param.Quantity)
	})
}

func (svc CartService) UpdateItem(c context.Context, sessionID uuid.UUID, productID string, quantity int) error {
	return svc.do(c, sessionID, "CartService UpdateItem", func(c context.Context, s *session.Session) error {
		return s.Engine.SetQuantity(c, productID, quantity)
	})
}

func (svc CartService) RemoveItem(c context.Context, sessionID uuid.UUID, productID string) error {
	return svc.do(c, sessionID, "CartService RemoveItem", func(c context.Context, s *session.Session) error {
		return s.Engine.RemoveLine(c, productID)
	})
}

func (svc CartService) ReplaceItems(c context.Context, sessionID uuid.UUID, param request.ReplaceItems) error {
	lines := make([]domain.Line, len(param.Items))
	for i, item := range param.Items {
		lines[i] = domain.Line{ProductID: item.ProductID, Quantity: item.Quantity}
	}
	return svc.do(c, sessionID, "CartService ReplaceItems", func(c context.Context, s *session.Session) error {
		return s.Engine.ReplaceAll(c, lines)
	})
}

func (svc CartService) ClearCart(c context.Context, sessionID uuid.UUID) error {
	return svc.do(c, sessionID, "CartService ClearCart", func(c context.Context, s *session.Session) error {
		return s.Engine.Clear(c)
	})
}

// ShareCart encodes the current cart into a share token and link.
func (svc CartService) ShareCart(c context.Context, sessionID uuid.UUID) (response.ShareLink, error) {
	link := response.ShareLink{}
	err := svc.do(c, sessionID, "CartService ShareCart", func(c context.Context, s *session.Session) error {
		lines := s.Engine.Lines()
		if len(lines) == 0 {
			return share.ErrEmptyCart
		}
		token, err := share.Encode(lines)
		if err != nil {
			return err
		}
		url, err := share.Link(svc.shareBaseURL, lines)
		if err != nil {
			return err
		}
		link = response.ShareLink{Token: token, URL: url}
		return nil
	})
	return link, err
}

func (svc CartService) ConfirmShared(c context.Context, sessionID uuid.UUID) ([]domain.Line, error) {
	var applied []domain.Line
	err := svc.do(c, sessionID, "CartService ConfirmShared", func(c context.Context, s *session.Session) error {
		lines, err := s.Flow.Confirm(c, s.Engine)
		applied = lines
		return err
	})
	return applied, err
}

func (svc CartService) CancelShared(c context.Context, sessionID uuid.UUID) error {
	return svc.do(c, sessionID, "CartService CancelShared", func(c context.Context, s *session.Session) error {
		return s.Flow.Cancel(c)
	})
}
