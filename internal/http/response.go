package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	inErrors "github.com/electrosur/storefront/internal/errors"
	"github.com/electrosur/storefront/internal/otel"
)

func WriteJsonResponse(
	c context.Context,
	w http.ResponseWriter,
	header map[string]string,
	body map[string]interface{},
) {
	c, span := otel.Tracer.Start(c, "WriteJsonResponse")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str("tag", "WriteJsonResponse").Logger()

	w.Header().Add(KEY_HEADER_CONTENT_TYPE, VALUE_HEADER_APPLICATION_JSON)
	for k, v := range header {
		w.Header().Add(k, v)
	}

	if v, ok := body["statusCode"]; ok {
		w.WriteHeader(v.(int))
	}

	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
}

// WriteErrorResponse maps the error taxonomy onto a status code and a
// machine-readable reason so clients can tell "not permitted" from
// "bad input" from "refetch and retry".
func WriteErrorResponse(c context.Context, w http.ResponseWriter, err error) {
	WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "failed",
		"statusCode": statusCodeFor(inErrors.KindOf(err)),
		"reason":     inErrors.ReasonOf(err),
		"message":    err.Error(),
	})
}

func statusCodeFor(kind inErrors.Kind) int {
	switch kind {
	case inErrors.KindValidation:
		return http.StatusBadRequest
	case inErrors.KindUnauthorized:
		return http.StatusUnauthorized
	case inErrors.KindForbidden:
		return http.StatusForbidden
	case inErrors.KindNotFound:
		return http.StatusNotFound
	case inErrors.KindConflict:
		return http.StatusConflict
	case inErrors.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
