package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/electrosur/storefront/internal"
	inErrors "github.com/electrosur/storefront/internal/errors"
	inHttp "github.com/electrosur/storefront/internal/http"
	"github.com/electrosur/storefront/internal/log"
	"github.com/electrosur/storefront/internal/middleware"
	"github.com/electrosur/storefront/internal/order"
	"github.com/electrosur/storefront/internal/otel"
	"github.com/electrosur/storefront/internal/request"
	"github.com/electrosur/storefront/internal/service"
)

type OrderController struct {
	orders *service.OrderService
	carts  *service.CartService
}

func AttachOrderController(
	router *mux.Router,
	orders *service.OrderService,
	carts *service.CartService,
) {
	controller := OrderController{orders: orders, carts: carts}

	sub := router.PathPrefix("/orders").Subrouter()
	sub.Use(middleware.Auth)
	sub.HandleFunc("", controller.CurrentDraft).Methods(http.MethodGet)
	sub.HandleFunc("", controller.UpdateOrder).Methods(http.MethodPatch)
	sub.HandleFunc("/items", controller.AddItem).Methods(http.MethodPost)
	sub.HandleFunc("/all", controller.FindOrders).Methods(http.MethodGet)
	sub.HandleFunc("/{orderId}", controller.FindOrderById).Methods(http.MethodGet)
	sub.HandleFunc("/{orderId}/confirm", controller.Confirm).Methods(http.MethodPatch)
	sub.HandleFunc("/{orderId}/cancel", controller.Cancel).Methods(http.MethodPatch)
	sub.HandleFunc("/{orderId}/assign", controller.Assign).Methods(http.MethodPatch)
	sub.HandleFunc("/{orderId}/fulfill", controller.Fulfill).Methods(http.MethodPatch)
	sub.HandleFunc("/{orderId}/ship", controller.Ship).Methods(http.MethodPatch)
	sub.HandleFunc("/{orderId}/deliver", controller.Deliver).Methods(http.MethodPatch)
}

func (s *OrderController) CurrentDraft(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "OrderController CurrentDraft")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderController CurrentDraft").
		Logger()

	actor, err := internal.ActorFromContext(c)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}

	logger = logger.With().Str(log.KeyProcess, "finding draft order").Logger()
	logger.Info().Msg("finding draft order")
	c = logger.WithContext(c)
	draft, err := s.orders.CurrentDraft(c, actor)
	if err != nil {
		err = fmt.Errorf("failed finding draft order with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Str(log.KeyOrderID, draft.ID.String()).Msg("found draft order")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "found draft order",
		"data": map[string]interface{}{
			"order": draft,
		},
	})
}

// UpdateOrder is the discriminated draft mutation endpoint: updateQty and
// removeItem edit the server cart, submit freezes it.
func (s *OrderController) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "OrderController UpdateOrder")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderController UpdateOrder").
		Logger()

	actor, err := internal.ActorFromContext(c)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}

	logger = logger.With().Str(log.KeyProcess, "decoding request body").Logger()
	logger.Info().Msg("decoding request body")
	param := request.UpdateOrder{}
	err = json.NewDecoder(r.Body).Decode(&param)
	if err != nil {
		err = fmt.Errorf("failed decoding request body with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, inErrors.ErrInvalidBody)
		return
	}
	logger.Info().Msg("decoded request body")

	logger = logger.With().Str(log.KeyProcess, "validating request body").Logger()
	logger.Info().Msg("validating request body")
	validate := validator.New(validator.WithRequiredStructEnabled())
	err = validate.StructCtx(c, param)
	if err != nil {
		err = fmt.Errorf("failed validating request body with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, inErrors.ErrInvalidBody)
		return
	}
	logger = logger.With().Str(log.KeyAction, param.Action).Logger()
	logger.Info().Msg("validated request body")

	logger = logger.With().Str(log.KeyProcess, "applying "+param.Action).Logger()
	logger.Info().Msg("applying " + param.Action)
	c = logger.WithContext(c)
	switch param.Action {
	case "submit":
		submitted, err := s.orders.Submit(c, actor)
		if err != nil {
			err = fmt.Errorf("failed submitting order with error=%w", err)
			inErrors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			inHttp.WriteErrorResponse(c, w, err)
			return
		}
		logger.Info().
			Str(log.KeyOrderCode, submitted.Code).
			Msg("submitted order")
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "success",
			"statusCode": http.StatusOK,
			"message":    "order submitted",
			"data": map[string]interface{}{
				"order": submitted,
			},
		})
		return
	case "updateQty":
		store, err := s.carts.ServerCart(c, actor)
		if err == nil {
			err = store.SetQuantity(c, param.ItemID, param.Quantity)
		}
		if err != nil {
			err = fmt.Errorf("failed updating quantity with error=%w", err)
			inErrors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			inHttp.WriteErrorResponse(c, w, err)
			return
		}
	case "removeItem":
		store, err := s.carts.ServerCart(c, actor)
		if err == nil {
			err = store.RemoveLine(c, param.ItemID)
		}
		if err != nil {
			err = fmt.Errorf("failed removing item with error=%w", err)
			inErrors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			inHttp.WriteErrorResponse(c, w, err)
			return
		}
	}
	logger.Info().Msg("applied " + param.Action)

	draft, err := s.orders.CurrentDraft(c, actor)
	if err != nil {
		err = fmt.Errorf("failed finding draft order with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "order updated",
		"data": map[string]interface{}{
			"order": draft,
		},
	})
}

func (s *OrderController) AddItem(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "OrderController AddItem")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderController AddItem").
		Logger()

	actor, err := internal.ActorFromContext(c)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}

	logger = logger.With().Str(log.KeyProcess, "decoding request body").Logger()
	logger.Info().Msg("decoding request body")
	param := request.AddItem{}
	err = json.NewDecoder(r.Body).Decode(&param)
	if err != nil {
		err = fmt.Errorf("failed decoding request body with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, inErrors.ErrInvalidBody)
		return
	}
	validate := validator.New(validator.WithRequiredStructEnabled())
	err = validate.StructCtx(c, param)
	if err != nil {
		err = fmt.Errorf("failed validating request body with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, inErrors.ErrInvalidBody)
		return
	}
	logger = logger.With().Str(log.KeyProductID, param.ProductID.String()).Logger()
	logger.Info().Msg("decoded request body")

	logger = logger.With().Str(log.KeyProcess, "adding item").Logger()
	logger.Info().Msg("adding item")
	c = logger.WithContext(c)
	store, err := s.carts.ServerCart(c, actor)
	if err == nil {
		err = s.carts.AddProduct(c, store, param.ProductID, param.Quantity)
	}
	if err != nil {
		err = fmt.Errorf("failed adding item with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Msg("added item")

	draft, err := s.orders.CurrentDraft(c, actor)
	if err != nil {
		err = fmt.Errorf("failed finding draft order with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusCreated,
		"message":    "item added",
		"data": map[string]interface{}{
			"order": draft,
		},
	})
}

func (s *OrderController) FindOrders(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "OrderController FindOrders")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderController FindOrders").
		Logger()

	actor, err := internal.ActorFromContext(c)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}

	logger = logger.With().Str(log.KeyProcess, "finding orders").Logger()
	logger.Info().Msg("finding orders")
	c = logger.WithContext(c)
	orders, err := s.orders.FindOrders(c, actor)
	if err != nil {
		err = fmt.Errorf("failed finding orders with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Int(log.KeyOrders, len(orders)).Msg("found orders")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "found orders",
		"data": map[string]interface{}{
			"orders": orders,
		},
	})
}

func (s *OrderController) FindOrderById(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "OrderController FindOrderById")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderController FindOrderById").
		Logger()

	actor, err := internal.ActorFromContext(c)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}

	orderId, err := parseOrderId(r)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger = logger.With().Str(log.KeyOrderID, orderId.String()).Logger()

	logger = logger.With().Str(log.KeyProcess, "finding order").Logger()
	logger.Info().Msg("finding order")
	c = logger.WithContext(c)
	found, err := s.orders.FindOrder(c, actor, orderId)
	if err != nil {
		err = fmt.Errorf("failed finding order with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Msg("found order")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "found order",
		"data": map[string]interface{}{
			"order": found,
		},
	})
}

func (s *OrderController) Confirm(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, order.ActionConfirm, s.orders.Confirm)
}

func (s *OrderController) Cancel(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, order.ActionCancel, s.orders.Cancel)
}

func (s *OrderController) Fulfill(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, order.ActionFulfill, s.orders.Fulfill)
}

func (s *OrderController) Ship(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, order.ActionShip, s.orders.Ship)
}

func (s *OrderController) Deliver(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, order.ActionDeliver, s.orders.Deliver)
}

func (s *OrderController) Assign(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "OrderController Assign")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderController Assign").
		Logger()

	actor, err := internal.ActorFromContext(c)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}

	orderId, err := parseOrderId(r)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger = logger.With().Str(log.KeyOrderID, orderId.String()).Logger()

	logger = logger.With().Str(log.KeyProcess, "decoding request body").Logger()
	logger.Info().Msg("decoding request body")
	param := request.AssignOrder{}
	err = json.NewDecoder(r.Body).Decode(&param)
	if err != nil {
		err = fmt.Errorf("failed decoding request body with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, inErrors.ErrInvalidBody)
		return
	}
	validate := validator.New(validator.WithRequiredStructEnabled())
	err = validate.StructCtx(c, param)
	if err != nil {
		err = fmt.Errorf("failed validating request body with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, inErrors.ErrInvalidBody)
		return
	}
	logger.Info().Msg("decoded request body")

	logger = logger.With().Str(log.KeyProcess, "assigning order").Logger()
	logger.Info().Msg("assigning order")
	c = logger.WithContext(c)
	assigned, err := s.orders.Assign(c, actor, orderId, param.SellerID)
	if err != nil {
		err = fmt.Errorf("failed assigning order with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Str(log.KeyOrderStatus, string(assigned.Status)).Msg("assigned order")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "order assigned",
		"data": map[string]interface{}{
			"order": assigned,
		},
	})
}

type transitionFunc func(c context.Context, actor order.Actor, orderID uuid.UUID) (order.Order, error)

func (s *OrderController) transition(
	w http.ResponseWriter,
	r *http.Request,
	action order.Action,
	apply transitionFunc,
) {
	c, span := otel.Tracer.Start(r.Context(), fmt.Sprintf("OrderController %s", action))
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, fmt.Sprintf("OrderController %s", action)).
		Str(log.KeyAction, string(action)).
		Logger()

	actor, err := internal.ActorFromContext(c)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}

	orderId, err := parseOrderId(r)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger = logger.With().Str(log.KeyOrderID, orderId.String()).Logger()

	logger = logger.With().Str(log.KeyProcess, "applying transition").Logger()
	logger.Info().Msg("applying transition")
	c = logger.WithContext(c)
	updated, err := apply(c, actor, orderId)
	if err != nil {
		err = fmt.Errorf("failed applying %s with error=%w", action, err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Str(log.KeyOrderStatus, string(updated.Status)).Msg("applied transition")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    fmt.Sprintf("order %s applied", action),
		"data": map[string]interface{}{
			"order": updated,
		},
	})
}

func parseOrderId(r *http.Request) (uuid.UUID, error) {
	raw := mux.Vars(r)["orderId"]
	orderId, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf(
			"failed validating orderId=%s with error=%w",
			raw,
			inErrors.ErrOrderNotFound,
		)
	}
	return orderId, nil
}
