package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/electrosur/storefront/internal"
	"github.com/electrosur/storefront/internal/cart"
	inErrors "github.com/electrosur/storefront/internal/errors"
	inHttp "github.com/electrosur/storefront/internal/http"
	"github.com/electrosur/storefront/internal/log"
	"github.com/electrosur/storefront/internal/middleware"
	"github.com/electrosur/storefront/internal/otel"
	"github.com/electrosur/storefront/internal/request"
	"github.com/electrosur/storefront/internal/service"
)

// CartController serves the anonymous cart. Sessions are keyed by the
// X-Session-Id header the storefront assigns on first visit; there is no
// authentication on these routes except /cart/migrate.
type CartController struct {
	carts *service.CartService
}

func AttachCartController(router *mux.Router, carts *service.CartService) {
	controller := CartController{carts: carts}

	sub := router.PathPrefix("/cart").Subrouter()
	sub.Handle("/migrate", middleware.Auth(http.HandlerFunc(controller.Migrate))).
		Methods(http.MethodPost)
	sub.HandleFunc("", controller.FindCart).Methods(http.MethodGet)
	sub.HandleFunc("", controller.AddItem).Methods(http.MethodPost)
	sub.HandleFunc("", controller.Clear).Methods(http.MethodDelete)
	sub.HandleFunc("/items/{itemId}", controller.SetQuantity).Methods(http.MethodPatch)
	sub.HandleFunc("/items/{itemId}", controller.RemoveItem).Methods(http.MethodDelete)
}

func (s *CartController) FindCart(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController FindCart")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController FindCart").
		Logger()

	store, err := s.resolve(r)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}

	logger = logger.With().Str(log.KeyProcess, "finding cart").Logger()
	logger.Info().Msg("finding cart")
	c = logger.WithContext(c)
	lines, err := store.Lines(c)
	if err != nil {
		err = fmt.Errorf("failed finding cart with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	totals, err := store.Totals(c)
	if err != nil {
		err = fmt.Errorf("failed computing cart totals with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Int(log.KeyCartLines, len(lines)).Msg("found cart")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "found cart",
		"data": map[string]interface{}{
			"lines":  lines,
			"totals": totals,
		},
	})
}

func (s *CartController) AddItem(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController AddItem")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController AddItem").
		Logger()

	store, err := s.resolve(r)
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

	logger = logger.With().Str(log.KeyProcess, "adding item to cart").Logger()
	logger.Info().Msg("adding item to cart")
	c = logger.WithContext(c)
	err = s.carts.AddProduct(c, store, param.ProductID, param.Quantity)
	if err != nil {
		err = fmt.Errorf("failed adding item to cart with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Msg("added item to cart")

	s.writeCart(c, w, store, http.StatusCreated, "item added")
}

func (s *CartController) SetQuantity(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController SetQuantity")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController SetQuantity").
		Str(log.KeyItemID, mux.Vars(r)["itemId"]).
		Logger()

	store, err := s.resolve(r)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}

	param := request.SetQuantity{}
	err = json.NewDecoder(r.Body).Decode(&param)
	if err != nil {
		err = fmt.Errorf("failed decoding request body with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, inErrors.ErrInvalidBody)
		return
	}

	logger = logger.With().Str(log.KeyProcess, "setting quantity").Logger()
	logger.Info().Msg("setting quantity")
	c = logger.WithContext(c)
	err = store.SetQuantity(c, mux.Vars(r)["itemId"], param.Quantity)
	if err != nil {
		err = fmt.Errorf("failed setting quantity with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Msg("set quantity")

	s.writeCart(c, w, store, http.StatusOK, "quantity updated")
}

func (s *CartController) RemoveItem(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController RemoveItem")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController RemoveItem").
		Str(log.KeyItemID, mux.Vars(r)["itemId"]).
		Logger()

	store, err := s.resolve(r)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}

	logger = logger.With().Str(log.KeyProcess, "removing item").Logger()
	logger.Info().Msg("removing item")
	c = logger.WithContext(c)
	err = store.RemoveLine(c, mux.Vars(r)["itemId"])
	if err != nil {
		err = fmt.Errorf("failed removing item with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Msg("removed item")

	s.writeCart(c, w, store, http.StatusOK, "item removed")
}

func (s *CartController) Clear(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController Clear")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController Clear").
		Logger()

	store, err := s.resolve(r)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}

	logger = logger.With().Str(log.KeyProcess, "clearing cart").Logger()
	logger.Info().Msg("clearing cart")
	c = logger.WithContext(c)
	err = store.Clear(c)
	if err != nil {
		err = fmt.Errorf("failed clearing cart with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Msg("cleared cart")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "cart cleared",
	})
}

// Migrate merges the anonymous cart into the just-authenticated session's
// draft order. It is the only authenticated route on this controller.
func (s *CartController) Migrate(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController Migrate")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController Migrate").
		Logger()

	actor, err := internal.ActorFromContext(c)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}

	sessionId := r.Header.Get(inHttp.KEY_HEADER_SESSION_ID)
	if sessionId == "" {
		inErrors.HandleError(inErrors.ErrInvalidBody, span)
		logger.Error().Err(inErrors.ErrInvalidBody).Msg("missing session id header")
		inHttp.WriteErrorResponse(c, w, inErrors.ErrInvalidBody)
		return
	}
	logger = logger.With().Str(log.KeySessionID, sessionId).Logger()

	logger = logger.With().Str(log.KeyProcess, "migrating cart").Logger()
	logger.Info().Msg("migrating cart")
	c = logger.WithContext(c)
	store, err := s.carts.MigrateLocal(c, actor, sessionId)
	if err != nil {
		err = fmt.Errorf("failed migrating cart with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Msg("migrated cart")

	s.writeCart(c, w, store, http.StatusOK, "cart migrated")
}

// resolve picks the cart store for the request. Authorization is optional
// here: a valid bearer token makes the resolver probe the server cart
// first, no token means the local store keyed by X-Session-Id. A token
// that is present but invalid is still rejected.
func (s *CartController) resolve(r *http.Request) (cart.Store, error) {
	c := r.Context()

	sessionId := r.Header.Get(inHttp.KEY_HEADER_SESSION_ID)
	if sessionId == "" {
		sessionId = uuid.NewString()
	}

	authorization := r.Header.Get("Authorization")
	if authorization == "" {
		return s.carts.Resolve(c, nil, sessionId), nil
	}

	token := strings.TrimPrefix(strings.TrimPrefix(authorization, "Bearer "), "bearer ")
	jwtToken, err := internal.VerifyToken(c, token)
	if err != nil {
		return nil, err
	}
	c = internal.AttachJwtToken(c, jwtToken)
	actor, err := internal.ActorFromContext(c)
	if err != nil {
		return nil, err
	}
	return s.carts.Resolve(c, &actor, sessionId), nil
}

func (s *CartController) writeCart(
	c context.Context,
	w http.ResponseWriter,
	store cart.Store,
	statusCode int,
	message string,
) {
	lines, err := store.Lines(c)
	if err != nil {
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": statusCode,
		"message":    message,
		"data": map[string]interface{}{
			"lines":  lines,
			"totals": cart.SumTotals(lines),
		},
	})
}
