package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/electrosur/storefront/internal/cart"
	inErrors "github.com/electrosur/storefront/internal/errors"
	"github.com/electrosur/storefront/internal/log"
	"github.com/electrosur/storefront/internal/money"
	"github.com/electrosur/storefront/internal/order"
	"github.com/electrosur/storefront/internal/otel"
	"github.com/electrosur/storefront/internal/repository"
)

// CartService resolves which cart variant a session uses and implements
// the server-backed variant over the client's draft order.
type CartService struct {
	store   repository.OrderStore
	storage cart.Storage
}

func NewCartService(store repository.OrderStore, storage cart.Storage) *CartService {
	return &CartService{store: store, storage: storage}
}

// Resolve probes the server cart first: an authenticated session with a
// reachable draft order gets the server store, everything else falls back
// to the local store. The decision is re-probed on every call, it is not
// session state; an unreachable server cart is indistinguishable from
// "not logged in" by design.
func (s *CartService) Resolve(
	c context.Context,
	actor *order.Actor,
	sessionId string,
) cart.Store {
	c, span := otel.Tracer.Start(c, "CartService Resolve")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService Resolve").
		Str(log.KeySessionID, sessionId).
		Logger()

	if actor != nil {
		draft, err := s.store.FindDraftOrderByClient(c, actor.ID)
		if err == nil {
			logger.Info().
				Str(log.KeyOrderID, draft.ID.String()).
				Msg("resolved server cart")
			return &serverStore{store: s.store, orderID: draft.ID, clientID: actor.ID}
		}
		logger.Info().Err(err).Msg("no reachable server cart, falling back to local")
	}

	logger.Info().Msg("resolved local cart")
	return cart.NewLocalStore(s.storage, sessionId)
}

// ServerCart returns the authenticated session's server cart, creating
// the draft order on first use.
func (s *CartService) ServerCart(c context.Context, actor order.Actor) (cart.Store, error) {
	c, span := otel.Tracer.Start(c, "CartService ServerCart")
	defer span.End()

	store := &serverStore{store: s.store, clientID: actor.ID}
	err := store.ensureDraft(c)
	if err != nil {
		inErrors.HandleError(err, span)
		return nil, err
	}
	return store, nil
}

// AddProduct looks the product up in the catalog and adds it to the given
// cart store, whichever variant that is.
func (s *CartService) AddProduct(
	c context.Context,
	store cart.Store,
	productID uuid.UUID,
	quantity interface{},
) error {
	c, span := otel.Tracer.Start(c, "CartService AddProduct")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService AddProduct").
		Str(log.KeyProductID, productID.String()).
		Logger()

	product, err := s.store.FindProductById(c, productID)
	if err != nil {
		if s.store.IsNotFound(err) {
			err = fmt.Errorf("product=%s not found with error=%w", productID, inErrors.ErrItemNotFound)
			inErrors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return err
		}
		err = fmt.Errorf("failed finding product with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	c = logger.WithContext(c)
	return store.AddLine(c, product.CartProduct(), quantity)
}

// MigrateLocal merges the anonymous cart into the freshly authenticated
// session's draft order, line by line, then clears the local namespace.
// An existing draft line for the same product gains the local quantity.
func (s *CartService) MigrateLocal(
	c context.Context,
	actor order.Actor,
	sessionId string,
) (cart.Store, error) {
	c, span := otel.Tracer.Start(c, "CartService MigrateLocal")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService MigrateLocal").
		Str(log.KeyUserID, actor.ID.String()).
		Str(log.KeySessionID, sessionId).
		Logger()

	local := cart.NewLocalStore(s.storage, sessionId)
	lines, err := local.Lines(c)
	if err != nil {
		err = fmt.Errorf("failed reading local cart with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}

	server, err := s.ServerCart(c, actor)
	if err != nil {
		err = fmt.Errorf("failed resolving server cart with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}

	logger = logger.With().Int(log.KeyCartLines, len(lines)).Logger()
	logger.Info().Msg("migrating local cart lines")
	c = logger.WithContext(c)
	for _, l := range lines {
		product := cart.Product{
			ID:       l.ProductID,
			Name:     l.Name,
			SKU:      l.SKU,
			Price:    l.UnitPrice,
			Currency: l.Currency,
			TaxRate:  l.TaxRate,
		}
		err = server.AddLine(c, product, l.Quantity)
		if err != nil {
			err = fmt.Errorf(
				"failed migrating line for product=%s with error=%w",
				l.ProductID,
				err,
			)
			inErrors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return nil, err
		}
	}
	logger.Info().Msg("migrated local cart lines")

	err = local.Clear(c)
	if err != nil {
		// lines are already on the server; a stale local namespace only
		// risks a re-merge, which AddLine keeps idempotent per product
		logger.Warn().Err(err).Msg("failed clearing local cart after migration")
	}

	return server, nil
}

// serverStore is the cart contract over the client's draft order: every
// mutation is a round-trip, every read re-fetches, nothing is cached.
type serverStore struct {
	store    repository.OrderStore
	orderID  uuid.UUID
	clientID uuid.UUID
}

func (s *serverStore) ensureDraft(c context.Context) error {
	if s.orderID != uuid.Nil {
		return nil
	}

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "serverStore ensureDraft").
		Str(log.KeyUserID, s.clientID.String()).
		Logger()

	draft, err := s.store.FindDraftOrderByClient(c, s.clientID)
	if err == nil {
		s.orderID = draft.ID
		return nil
	}
	if !s.store.IsNotFound(err) {
		return fmt.Errorf("failed finding draft order with error=%w", err)
	}

	logger.Info().Msg("creating draft order")
	draft, err = s.store.InsertDraftOrder(c, repository.InsertDraftOrderParams{
		ID:        uuid.New(),
		OrderType: string(order.TypeOrder),
		Currency:  string(money.ARS),
		ClientID:  s.clientID,
	})
	if err != nil {
		return fmt.Errorf("failed creating draft order with error=%w", err)
	}
	logger.Info().Str(log.KeyOrderID, draft.ID.String()).Msg("created draft order")
	s.orderID = draft.ID
	return nil
}

func (s *serverStore) AddLine(c context.Context, product cart.Product, quantity interface{}) error {
	c, span := otel.Tracer.Start(c, "serverStore AddLine")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "serverStore AddLine").
		Str(log.KeyProductID, product.ID.String()).
		Logger()

	err := s.ensureDraft(c)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	qty := money.ToQuantity(quantity)
	taxRate := repository.NumericFromDecimal(product.TaxRate.Decimal)
	taxRate.Valid = product.TaxRate.Valid
	_, err = s.store.UpsertOrderItem(c, repository.UpsertOrderItemParams{
		ID:        uuid.New(),
		OrderID:   s.orderID,
		ProductID: product.ID,
		Name:      product.Name,
		Sku:       product.SKU,
		Quantity:  qty,
		UnitPrice: repository.NumericFromDecimal(product.Price),
		TaxRate:   taxRate,
		Currency:  string(product.Currency),
	})
	if err != nil {
		err = fmt.Errorf("failed adding line with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Int32(log.KeyQuantity, qty).Msg("added line to draft order")
	return nil
}

func (s *serverStore) SetQuantity(c context.Context, lineKey string, quantity interface{}) error {
	c, span := otel.Tracer.Start(c, "serverStore SetQuantity")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "serverStore SetQuantity").
		Str(log.KeyItemID, lineKey).
		Logger()

	err := s.ensureDraft(c)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	itemId, err := uuid.Parse(lineKey)
	if err != nil {
		err = fmt.Errorf("invalid itemId=%s with error=%w", lineKey, inErrors.ErrItemNotFound)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	qty := money.ToQuantity(quantity)
	rows, err := s.store.UpdateOrderItemQuantity(c, repository.UpdateOrderItemQuantityParams{
		ID:       itemId,
		OrderID:  s.orderID,
		Quantity: qty,
	})
	if err != nil {
		err = fmt.Errorf("failed setting line quantity with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	if rows == 0 {
		inErrors.HandleError(inErrors.ErrItemNotFound, span)
		logger.Error().Err(inErrors.ErrItemNotFound).Msg(inErrors.ErrItemNotFound.Error())
		return inErrors.ErrItemNotFound
	}
	logger.Info().Int32(log.KeyQuantity, qty).Msg("set line quantity on draft order")
	return nil
}

func (s *serverStore) RemoveLine(c context.Context, lineKey string) error {
	c, span := otel.Tracer.Start(c, "serverStore RemoveLine")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "serverStore RemoveLine").
		Str(log.KeyItemID, lineKey).
		Logger()

	err := s.ensureDraft(c)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	itemId, err := uuid.Parse(lineKey)
	if err != nil {
		err = fmt.Errorf("invalid itemId=%s with error=%w", lineKey, inErrors.ErrItemNotFound)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	rows, err := s.store.DeleteOrderItem(c, repository.DeleteOrderItemParams{
		ID:      itemId,
		OrderID: s.orderID,
	})
	if err != nil {
		err = fmt.Errorf("failed removing line with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	if rows == 0 {
		inErrors.HandleError(inErrors.ErrItemNotFound, span)
		logger.Error().Err(inErrors.ErrItemNotFound).Msg(inErrors.ErrItemNotFound.Error())
		return inErrors.ErrItemNotFound
	}
	logger.Info().Msg("removed line from draft order")
	return nil
}

func (s *serverStore) Clear(c context.Context) error {
	c, span := otel.Tracer.Start(c, "serverStore Clear")
	defer span.End()

	err := s.ensureDraft(c)
	if err != nil {
		inErrors.HandleError(err, span)
		return err
	}
	err = s.store.DeleteOrderItems(c, s.orderID)
	if err != nil {
		err = fmt.Errorf("failed clearing draft order with error=%w", err)
		inErrors.HandleError(err, span)
		return err
	}
	return nil
}

func (s *serverStore) Lines(c context.Context) ([]cart.Line, error) {
	c, span := otel.Tracer.Start(c, "serverStore Lines")
	defer span.End()

	err := s.ensureDraft(c)
	if err != nil {
		inErrors.HandleError(err, span)
		return nil, err
	}
	items, err := s.store.FindOrderItems(c, s.orderID)
	if err != nil {
		err = fmt.Errorf("failed finding draft order items with error=%w", err)
		inErrors.HandleError(err, span)
		return nil, err
	}
	lines := make([]cart.Line, 0, len(items))
	for _, item := range items {
		lines = append(lines, item.CartLine())
	}
	return lines, nil
}

func (s *serverStore) Totals(c context.Context) (cart.Totals, error) {
	lines, err := s.Lines(c)
	if err != nil {
		return cart.Totals{}, err
	}
	return cart.SumTotals(lines), nil
}
