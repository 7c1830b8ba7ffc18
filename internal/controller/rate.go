package controller

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	inErrors "github.com/electrosur/storefront/internal/errors"
	"github.com/electrosur/storefront/internal/exchange"
	inHttp "github.com/electrosur/storefront/internal/http"
	"github.com/electrosur/storefront/internal/log"
	"github.com/electrosur/storefront/internal/otel"
)

type RateController struct {
	rates *exchange.Gateway
}

func AttachRateController(router *mux.Router, rates *exchange.Gateway) {
	controller := RateController{rates: rates}

	sub := router.PathPrefix("/rates").Subrouter()
	sub.HandleFunc("/sell", controller.SellRate).Methods(http.MethodGet)
}

// SellRate answers with the current USD->ARS sell rate. When the rate is
// unavailable the response says so; it never carries a zero rate for the
// storefront to render as a price.
func (s *RateController) SellRate(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "RateController SellRate")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "RateController SellRate").
		Str(log.KeyProcess, "finding sell rate").
		Logger()

	logger.Info().Msg("finding sell rate")
	c = logger.WithContext(c)
	rate, err := s.rates.SellRate(c)
	if err != nil {
		err = fmt.Errorf("failed finding sell rate with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Str(log.KeySellRate, rate.String()).Msg("found sell rate")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "found sell rate",
		"data": map[string]interface{}{
			"currency": "USD",
			"sell":     rate,
		},
	})
}
