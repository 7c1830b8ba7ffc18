package internal

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/electrosur/storefront/internal/config"
	"github.com/electrosur/storefront/internal/constants"
	"github.com/electrosur/storefront/internal/errors"
	"github.com/electrosur/storefront/internal/log"
	"github.com/electrosur/storefront/internal/order"
	"github.com/electrosur/storefront/internal/otel"
)

// Claims is the session contract: the storefront only needs the subject,
// the back-office role and the email for notifications.
type Claims struct {
	Role  string `json:"role"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func VerifyToken(c context.Context, token string) (*jwt.Token, error) {
	c, span := otel.Tracer.Start(c, "VerifyToken")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "VerifyToken").
		Logger()

	cfg := config.Get(c, constants.AppStorefrontService)

	logger = logger.With().Str(log.KeyProcess, "parsing claims").Logger()
	logger.Trace().Msg("parsing claims")
	jwtToken, err := jwt.ParseWithClaims(token,
		&Claims{},
		func(t *jwt.Token) (interface{}, error) {
			return []byte(cfg.SecretKey), nil
		},
		jwt.WithAudience(constants.AudienceStorefront),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		err = fmt.Errorf("failed parsing claims with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		otel.RecordError(err, span)
		return nil, errors.ErrTokenInvalid
	}
	if !jwtToken.Valid {
		otel.RecordError(errors.ErrTokenInvalid, span)
		logger.Error().Err(errors.ErrTokenInvalid).Msg(errors.ErrTokenInvalid.Error())
		return nil, errors.ErrTokenInvalid
	}
	logger.Info().Msg("validated token")

	return jwtToken, nil
}

type jwtToken struct{}

func AttachJwtToken(c context.Context, jwt *jwt.Token) context.Context {
	return context.WithValue(c, jwtToken{}, jwt)
}

func JwtTokenFromContext(c context.Context) (*jwt.Token, bool) {
	t, ok := c.Value(jwtToken{}).(*jwt.Token)
	return t, ok
}

// ActorFromContext resolves the acting user from the verified token.
func ActorFromContext(c context.Context) (order.Actor, error) {
	c, span := otel.Tracer.Start(c, "ActorFromContext")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "ActorFromContext").Logger()

	token, ok := JwtTokenFromContext(c)
	if !ok {
		otel.RecordError(errors.ErrEmptyAuth, span)
		logger.Error().Err(errors.ErrEmptyAuth).Msg(errors.ErrEmptyAuth.Error())
		return order.Actor{}, errors.ErrEmptyAuth
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		otel.RecordError(errors.ErrTokenInvalid, span)
		logger.Error().Err(errors.ErrTokenInvalid).Msg(errors.ErrTokenInvalid.Error())
		return order.Actor{}, errors.ErrTokenInvalid
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		otel.RecordError(errors.ErrEmptySubject, span)
		logger.Error().Err(errors.ErrEmptySubject).Msg(errors.ErrEmptySubject.Error())
		return order.Actor{}, errors.ErrEmptySubject
	}

	userId, err := uuid.Parse(subject)
	if err != nil {
		err = fmt.Errorf("failed parsing subject=%s with error=%w", subject, err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return order.Actor{}, errors.ErrTokenInvalid
	}

	logger.Info().
		Str(log.KeyUserID, userId.String()).
		Str(log.KeyRole, claims.Role).
		Msg("resolved actor from token")

	return order.Actor{ID: userId, Role: order.Role(claims.Role), Email: claims.Email}, nil
}
