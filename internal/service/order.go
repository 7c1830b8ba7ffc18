package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/electrosur/storefront/internal/cart"
	inErrors "github.com/electrosur/storefront/internal/errors"
	"github.com/electrosur/storefront/internal/exchange"
	"github.com/electrosur/storefront/internal/log"
	"github.com/electrosur/storefront/internal/money"
	"github.com/electrosur/storefront/internal/notification"
	"github.com/electrosur/storefront/internal/order"
	"github.com/electrosur/storefront/internal/otel"
	"github.com/electrosur/storefront/internal/repository"
)

// OrderService drives the order lifecycle: submission freezes the cart
// into an immutable snapshot, every later move is a role-gated
// compare-and-swap on the stored status.
type OrderService struct {
	store    repository.OrderStore
	rates    *exchange.Gateway
	notifier notification.Notifier
}

func NewOrderService(
	store repository.OrderStore,
	rates *exchange.Gateway,
	notifier notification.Notifier,
) *OrderService {
	return &OrderService{store: store, rates: rates, notifier: notifier}
}

// CurrentDraft returns the actor's draft order with its lines, or
// ErrNoDraftOrder when none exists yet.
func (s *OrderService) CurrentDraft(c context.Context, actor order.Actor) (order.Order, error) {
	c, span := otel.Tracer.Start(c, "OrderService CurrentDraft")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderService CurrentDraft").
		Str(log.KeyUserID, actor.ID.String()).
		Logger()

	draft, err := s.store.FindDraftOrderByClient(c, actor.ID)
	if err != nil {
		if s.store.IsNotFound(err) {
			return order.Order{}, inErrors.ErrNoDraftOrder
		}
		err = fmt.Errorf("failed finding draft order with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return order.Order{}, err
	}
	items, err := s.store.FindOrderItems(c, draft.ID)
	if err != nil {
		err = fmt.Errorf("failed finding draft order items with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return order.Order{}, err
	}
	return draft.Domain(items), nil
}

// FindOrder fetches an order visible to the actor: clients see their own,
// sellers the ones assigned to them, admins all.
func (s *OrderService) FindOrder(
	c context.Context,
	actor order.Actor,
	orderID uuid.UUID,
) (order.Order, error) {
	c, span := otel.Tracer.Start(c, "OrderService FindOrder")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderService FindOrder").
		Str(log.KeyOrderID, orderID.String()).
		Logger()

	row, err := s.store.FindOrderById(c, orderID)
	if err != nil {
		if s.store.IsNotFound(err) {
			return order.Order{}, inErrors.ErrOrderNotFound
		}
		err = fmt.Errorf("failed finding order with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return order.Order{}, err
	}

	o := row.Domain(nil)
	visible := actor.IsAdmin() ||
		(actor.IsClient() && o.ClientID == actor.ID) ||
		(actor.IsSeller() && o.SellerID != nil && *o.SellerID == actor.ID)
	if !visible {
		// existence is not leaked to actors outside the order
		inErrors.HandleError(inErrors.ErrOrderNotFound, span)
		return order.Order{}, inErrors.ErrOrderNotFound
	}

	items, err := s.store.FindOrderItems(c, orderID)
	if err != nil {
		err = fmt.Errorf("failed finding order items with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return order.Order{}, err
	}
	return row.Domain(items), nil
}

// FindOrders lists the orders the actor may see, most recent first.
func (s *OrderService) FindOrders(c context.Context, actor order.Actor) ([]order.Order, error) {
	c, span := otel.Tracer.Start(c, "OrderService FindOrders")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderService FindOrders").
		Str(log.KeyUserID, actor.ID.String()).
		Str(log.KeyRole, string(actor.Role)).
		Logger()

	var rows []repository.Order
	var err error
	switch {
	case actor.IsAdmin():
		rows, err = s.store.FindAllOrders(c)
	case actor.IsSeller():
		rows, err = s.store.FindOrdersBySeller(c, actor.ID)
	default:
		rows, err = s.store.FindOrdersByClient(c, actor.ID)
	}
	if err != nil {
		err = fmt.Errorf("failed finding orders with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}

	orders := make([]order.Order, 0, len(rows))
	for _, row := range rows {
		orders = append(orders, row.Domain(nil))
	}
	logger.Info().Int(log.KeyOrders, len(orders)).Msg("found orders")
	return orders, nil
}

// Submit freezes the actor's draft order: the cart lines are aggregated
// into settlement-currency items, totals are computed once, stock is
// decremented, and the order moves DRAFT -> SUBMITTED under a
// compare-and-swap. After this call the amounts never change again.
func (s *OrderService) Submit(c context.Context, actor order.Actor) (order.Order, error) {
	c, span := otel.Tracer.Start(c, "OrderService Submit")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderService Submit").
		Str(log.KeyUserID, actor.ID.String()).
		Str(log.KeyAction, string(order.ActionSubmit)).
		Logger()

	draft, err := s.store.FindDraftOrderByClient(c, actor.ID)
	if err != nil {
		if s.store.IsNotFound(err) {
			orderTransitions.WithLabelValues(string(order.ActionSubmit), outcomeError).Inc()
			return order.Order{}, inErrors.ErrNoDraftOrder
		}
		err = fmt.Errorf("failed finding draft order with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		orderTransitions.WithLabelValues(string(order.ActionSubmit), outcomeError).Inc()
		return order.Order{}, err
	}
	logger = logger.With().Str(log.KeyOrderID, draft.ID.String()).Logger()

	_, err = order.Transition(draft.Domain(nil), actor, order.ActionSubmit)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		orderTransitions.WithLabelValues(string(order.ActionSubmit), outcomeFor(err)).Inc()
		return order.Order{}, err
	}

	items, err := s.store.FindOrderItems(c, draft.ID)
	if err != nil {
		err = fmt.Errorf("failed finding draft order items with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		orderTransitions.WithLabelValues(string(order.ActionSubmit), outcomeError).Inc()
		return order.Order{}, err
	}
	lines := make([]cart.Line, 0, len(items))
	needsRate := false
	for _, item := range items {
		line := item.CartLine()
		if line.Currency == money.USD {
			needsRate = true
		}
		lines = append(lines, line)
	}

	// the rate is only consulted when a USD line is present; an ARS-only
	// cart submits fine with the rate provider down
	sellRate := decimal.Zero
	if needsRate {
		sellRate, err = s.rates.SellRate(c)
		if err != nil {
			inErrors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			orderTransitions.WithLabelValues(string(order.ActionSubmit), outcomeError).Inc()
			return order.Order{}, err
		}
		logger = logger.With().Str(log.KeySellRate, sellRate.String()).Logger()
	}

	snapshot, totals, err := order.Aggregate(draft.ID, lines, money.ARS, sellRate)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		orderTransitions.WithLabelValues(string(order.ActionSubmit), outcomeFor(err)).Inc()
		return order.Order{}, err
	}

	seq, err := s.store.NextOrderCode(c)
	if err != nil {
		err = fmt.Errorf("failed reserving order code with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		orderTransitions.WithLabelValues(string(order.ActionSubmit), outcomeError).Inc()
		return order.Order{}, err
	}
	code := orderCode(order.Type(draft.OrderType), seq)
	logger = logger.With().Str(log.KeyOrderCode, code).Logger()

	logger.Info().Str(log.KeyProcess, "submitting order").Msg("submitting order")
	err = s.store.InTx(c, func(tx repository.OrderStore) error {
		for _, item := range snapshot {
			rows, err := tx.DecreaseProductStock(c, repository.ProductStockParams{
				ID:       item.ProductID,
				Quantity: item.Quantity,
			})
			if err != nil {
				return fmt.Errorf("failed decrementing stock with error=%w", err)
			}
			if rows == 0 {
				return fmt.Errorf(
					"product=%s has insufficient stock with error=%w",
					item.ProductID,
					inErrors.ErrOutOfStock,
				)
			}
		}

		err := tx.DeleteOrderItems(c, draft.ID)
		if err != nil {
			return fmt.Errorf("failed replacing order items with error=%w", err)
		}
		args := make([]repository.InsertOrderItemParams, 0, len(snapshot))
		for _, item := range snapshot {
			args = append(args, repository.InsertOrderItemParams{
				ID:        item.ID,
				OrderID:   item.OrderID,
				ProductID: item.ProductID,
				Name:      item.Name,
				Sku:       item.SKU,
				Quantity:  item.Quantity,
				UnitPrice: repository.NumericFromDecimal(item.UnitPrice),
				TaxRate:   repository.NumericFromDecimal(item.TaxRate),
				Subtotal:  repository.NumericFromDecimal(item.Subtotal),
				Currency:  string(item.Currency),
			})
		}
		_, err = tx.InsertOrderItems(c, args)
		if err != nil {
			return fmt.Errorf("failed inserting order items with error=%w", err)
		}

		rows, err := tx.SubmitOrder(c, repository.SubmitOrderParams{
			ID:       draft.ID,
			Code:     code,
			Subtotal: repository.NumericFromDecimal(totals.Subtotal),
			TaxTotal: repository.NumericFromDecimal(totals.TaxTotal),
			Total:    repository.NumericFromDecimal(totals.Total),
			Currency: string(money.ARS),
		})
		if err != nil {
			return fmt.Errorf("failed submitting order with error=%w", err)
		}
		if rows == 0 {
			return inErrors.ErrStatusChanged
		}
		return nil
	})
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		orderTransitions.WithLabelValues(string(order.ActionSubmit), outcomeFor(err)).Inc()
		return order.Order{}, err
	}
	logger.Info().Msg("submitted order")
	orderTransitions.WithLabelValues(string(order.ActionSubmit), outcomeOk).Inc()

	submitted, err := s.store.FindOrderById(c, draft.ID)
	if err != nil {
		err = fmt.Errorf("failed re-reading submitted order with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return order.Order{}, err
	}
	result := submitted.Domain(nil)
	result.Items = snapshot

	s.notify(c, result, "order.submitted")
	return result, nil
}

// Confirm moves a submitted order to APPROVED.
func (s *OrderService) Confirm(c context.Context, actor order.Actor, orderID uuid.UUID) (order.Order, error) {
	return s.applyTransition(c, actor, orderID, order.ActionConfirm, "order.confirmed")
}

// Cancel aborts an order that has not entered fulfillment. Stock taken at
// submission is returned.
func (s *OrderService) Cancel(c context.Context, actor order.Actor, orderID uuid.UUID) (order.Order, error) {
	return s.applyTransition(c, actor, orderID, order.ActionCancel, "order.canceled")
}

// Fulfill marks an assigned order as picked and packed.
func (s *OrderService) Fulfill(c context.Context, actor order.Actor, orderID uuid.UUID) (order.Order, error) {
	return s.applyTransition(c, actor, orderID, order.ActionFulfill, "")
}

// Ship marks a fulfilled order as handed to the carrier.
func (s *OrderService) Ship(c context.Context, actor order.Actor, orderID uuid.UUID) (order.Order, error) {
	return s.applyTransition(c, actor, orderID, order.ActionShip, "order.shipped")
}

// Deliver closes the lifecycle.
func (s *OrderService) Deliver(c context.Context, actor order.Actor, orderID uuid.UUID) (order.Order, error) {
	return s.applyTransition(c, actor, orderID, order.ActionDeliver, "order.delivered")
}

// Assign attaches a seller to an approved order and moves it to ASSIGNED,
// in one compare-and-swap.
func (s *OrderService) Assign(
	c context.Context,
	actor order.Actor,
	orderID uuid.UUID,
	sellerID uuid.UUID,
) (order.Order, error) {
	c, span := otel.Tracer.Start(c, "OrderService Assign")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderService Assign").
		Str(log.KeyOrderID, orderID.String()).
		Str(log.KeyAction, string(order.ActionAssign)).
		Str(log.KeyUserID, sellerID.String()).
		Logger()

	row, err := s.store.FindOrderById(c, orderID)
	if err != nil {
		if s.store.IsNotFound(err) {
			orderTransitions.WithLabelValues(string(order.ActionAssign), outcomeError).Inc()
			return order.Order{}, inErrors.ErrOrderNotFound
		}
		err = fmt.Errorf("failed finding order with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		orderTransitions.WithLabelValues(string(order.ActionAssign), outcomeError).Inc()
		return order.Order{}, err
	}

	o := row.Domain(nil)
	_, err = order.Transition(o, actor, order.ActionAssign)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		orderTransitions.WithLabelValues(string(order.ActionAssign), outcomeFor(err)).Inc()
		return order.Order{}, err
	}

	seller, err := s.store.FindUserById(c, sellerID)
	if err != nil || seller.Role != string(order.RoleSeller) {
		if err != nil && !s.store.IsNotFound(err) {
			err = fmt.Errorf("failed finding seller with error=%w", err)
			inErrors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			orderTransitions.WithLabelValues(string(order.ActionAssign), outcomeError).Inc()
			return order.Order{}, err
		}
		err = fmt.Errorf("sellerId=%s is not a seller with error=%w", sellerID, inErrors.ErrNotPermitted)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		orderTransitions.WithLabelValues(string(order.ActionAssign), outcomeDenied).Inc()
		return order.Order{}, inErrors.ErrNotPermitted
	}

	rows, err := s.store.AssignOrderSeller(c, repository.AssignOrderSellerParams{
		ID:       orderID,
		SellerID: sellerID,
	})
	if err != nil {
		err = fmt.Errorf("failed assigning seller with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		orderTransitions.WithLabelValues(string(order.ActionAssign), outcomeError).Inc()
		return order.Order{}, err
	}
	if rows == 0 {
		inErrors.HandleError(inErrors.ErrStatusChanged, span)
		logger.Error().Err(inErrors.ErrStatusChanged).Msg(inErrors.ErrStatusChanged.Error())
		orderTransitions.WithLabelValues(string(order.ActionAssign), outcomeConflict).Inc()
		return order.Order{}, inErrors.ErrStatusChanged
	}
	logger.Info().Str(log.KeyOrderStatus, string(order.StatusAssigned)).Msg("assigned order")
	orderTransitions.WithLabelValues(string(order.ActionAssign), outcomeOk).Inc()

	return s.reload(c, orderID)
}

// applyTransition is the shared path for every plain status move: resolve
// the target through the transition table, persist it with a
// compare-and-swap on the source status, and treat zero affected rows as
// a concurrent change.
func (s *OrderService) applyTransition(
	c context.Context,
	actor order.Actor,
	orderID uuid.UUID,
	action order.Action,
	event string,
) (order.Order, error) {
	c, span := otel.Tracer.Start(c, fmt.Sprintf("OrderService %s", action))
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, fmt.Sprintf("OrderService %s", action)).
		Str(log.KeyOrderID, orderID.String()).
		Str(log.KeyAction, string(action)).
		Logger()

	row, err := s.store.FindOrderById(c, orderID)
	if err != nil {
		if s.store.IsNotFound(err) {
			orderTransitions.WithLabelValues(string(action), outcomeError).Inc()
			return order.Order{}, inErrors.ErrOrderNotFound
		}
		err = fmt.Errorf("failed finding order with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		orderTransitions.WithLabelValues(string(action), outcomeError).Inc()
		return order.Order{}, err
	}

	o := row.Domain(nil)
	logger = logger.With().Str(log.KeyOrderStatus, string(o.Status)).Logger()
	next, err := order.Transition(o, actor, action)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		orderTransitions.WithLabelValues(string(action), outcomeFor(err)).Inc()
		return order.Order{}, err
	}

	rows, err := s.store.UpdateOrderStatus(c, repository.UpdateOrderStatusParams{
		ID:         orderID,
		FromStatus: string(o.Status),
		ToStatus:   string(next),
	})
	if err != nil {
		err = fmt.Errorf("failed updating order status with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		orderTransitions.WithLabelValues(string(action), outcomeError).Inc()
		return order.Order{}, err
	}
	if rows == 0 {
		inErrors.HandleError(inErrors.ErrStatusChanged, span)
		logger.Error().Err(inErrors.ErrStatusChanged).Msg(inErrors.ErrStatusChanged.Error())
		orderTransitions.WithLabelValues(string(action), outcomeConflict).Inc()
		return order.Order{}, inErrors.ErrStatusChanged
	}
	logger.Info().
		Str(log.KeyOrderStatus, string(next)).
		Msgf("applied %s transition", action)
	orderTransitions.WithLabelValues(string(action), outcomeOk).Inc()

	if action == order.ActionCancel && o.Status != order.StatusDraft {
		s.restock(c, orderID)
	}

	result, err := s.reload(c, orderID)
	if err != nil {
		return order.Order{}, err
	}
	if event != "" {
		s.notify(c, result, event)
	}
	return result, nil
}

// restock returns submission-time stock after a cancel. Best effort: the
// cancel already landed, a failed restock is an operator follow-up, not a
// rollback.
func (s *OrderService) restock(c context.Context, orderID uuid.UUID) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderService restock").
		Str(log.KeyOrderID, orderID.String()).
		Logger()

	items, err := s.store.FindOrderItems(c, orderID)
	if err != nil {
		logger.Warn().Err(err).Msg("failed finding items to restock")
		return
	}
	for _, item := range items {
		err = s.store.IncreaseProductStock(c, repository.ProductStockParams{
			ID:       item.ProductID,
			Quantity: item.Quantity,
		})
		if err != nil {
			logger.Warn().
				Err(err).
				Str(log.KeyProductID, item.ProductID.String()).
				Msg("failed restocking product")
		}
	}
}

// notify publishes a lifecycle event. Failures are logged and dropped;
// the transition already committed and is never held hostage to the
// notification channel.
func (s *OrderService) notify(c context.Context, o order.Order, event string) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderService notify").
		Str(log.KeyOrderID, o.ID.String()).
		Str(log.KeyOrderCode, o.Code).
		Logger()

	client, err := s.store.FindUserById(c, o.ClientID)
	if err != nil {
		logger.Warn().Err(err).Msg("failed finding client for notification")
		return
	}
	err = s.notifier.Publish(c, notification.Event{
		OrderID:     o.ID,
		OrderCode:   o.Code,
		ClientName:  client.Name,
		ClientEmail: client.Email,
		Event:       event,
		At:          time.Now(),
	})
	if err != nil {
		logger.Warn().Err(err).Msg("failed publishing order event")
	}
}

func (s *OrderService) reload(c context.Context, orderID uuid.UUID) (order.Order, error) {
	row, err := s.store.FindOrderById(c, orderID)
	if err != nil {
		return order.Order{}, fmt.Errorf("failed re-reading order with error=%w", err)
	}
	items, err := s.store.FindOrderItems(c, orderID)
	if err != nil {
		return order.Order{}, fmt.Errorf("failed re-reading order items with error=%w", err)
	}
	return row.Domain(items), nil
}

// orderCode renders the human-facing code: quotes get the QT prefix,
// orders ORD, both with the shared zero-padded sequence.
func orderCode(t order.Type, seq int64) string {
	if t == order.TypeQuote {
		return fmt.Sprintf("QT-%06d", seq)
	}
	return fmt.Sprintf("ORD-%06d", seq)
}

func outcomeFor(err error) string {
	switch inErrors.KindOf(err) {
	case inErrors.KindConflict:
		return outcomeConflict
	case inErrors.KindForbidden, inErrors.KindUnauthorized:
		return outcomeDenied
	default:
		return outcomeError
	}
}
