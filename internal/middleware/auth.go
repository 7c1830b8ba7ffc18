package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/electrosur/storefront/internal"
	inErrors "github.com/electrosur/storefront/internal/errors"
	inHttp "github.com/electrosur/storefront/internal/http"
	"github.com/electrosur/storefront/internal/log"
)

func Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := zerolog.Ctx(r.Context()).With().Str(log.KeyTag, "middleware auth").Logger()
		c := logger.WithContext(r.Context())

		authorization := r.Header.Get("Authorization")
		if authorization == "" {
			logger.Error().
				Err(inErrors.ErrEmptyAuth).
				Msg(inErrors.ErrEmptyAuth.Error())
			inHttp.WriteErrorResponse(c, w, inErrors.ErrEmptyAuth)
			return
		}

		token := strings.TrimPrefix(strings.TrimPrefix(authorization, "Bearer "), "bearer ")
		jwtToken, err := internal.VerifyToken(c, token)
		if err != nil {
			logger.Error().Err(err).Msg(err.Error())
			inHttp.WriteErrorResponse(c, w, inErrors.ErrTokenInvalid)
			return
		}

		c = internal.AttachJwtToken(c, jwtToken)
		next.ServeHTTP(w, r.WithContext(c))
	})
}
