// Package notification emits order lifecycle events towards the external
// email/notification collaborator. Delivery is fire-and-forget: a failed
// publish never blocks or rolls back the transition that produced it.
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/electrosur/storefront/internal/constants"
	"github.com/electrosur/storefront/internal/log"
	"github.com/electrosur/storefront/internal/otel"
)

type Event struct {
	OrderID     uuid.UUID `json:"orderId"`
	OrderCode   string    `json:"orderCode"`
	ClientName  string    `json:"clientName"`
	ClientEmail string    `json:"clientEmail"`
	Event       string    `json:"event"`
	At          time.Time `json:"at"`
}

type Notifier interface {
	Publish(c context.Context, event Event) error
}

type redisNotifier struct {
	cache *redis.Client
}

func NewRedisNotifier(cache *redis.Client) Notifier {
	return redisNotifier{cache: cache}
}

func (n redisNotifier) Publish(c context.Context, event Event) error {
	c, span := otel.Tracer.Start(c, "redisNotifier Publish")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "redisNotifier Publish").
		Str(log.KeyChannel, constants.ChannelOrderEvents).
		Str(log.KeyOrderCode, event.OrderCode).
		Str("event", event.Event).
		Logger()

	payload, err := json.Marshal(event)
	if err != nil {
		err = fmt.Errorf("failed marshaling order event with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	err = n.cache.Publish(c, constants.ChannelOrderEvents, payload).Err()
	if err != nil {
		err = fmt.Errorf("failed publishing order event with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("published order event")
	return nil
}
