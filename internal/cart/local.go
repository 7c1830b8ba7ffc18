package cart

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/electrosur/storefront/internal/constants"
	inErrors "github.com/electrosur/storefront/internal/errors"
	"github.com/electrosur/storefront/internal/log"
	"github.com/electrosur/storefront/internal/money"
	"github.com/electrosur/storefront/internal/otel"
)

const localKeyPrefix = "storefront:cart:"

// LocalStore is the anonymous-session cart. Every mutation serializes the
// full line list back under the namespaced key and emits a change
// notification. An unreachable storage degrades reads to an empty cart
// instead of an error.
type LocalStore struct {
	storage   Storage
	sessionId string
}

func NewLocalStore(storage Storage, sessionId string) *LocalStore {
	return &LocalStore{storage: storage, sessionId: sessionId}
}

func (s *LocalStore) key() string {
	return localKeyPrefix + s.sessionId
}

func (s *LocalStore) load(c context.Context) []Line {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "LocalStore load").
		Str(log.KeyCacheKey, s.key()).
		Logger()

	payload, ok, err := s.storage.Load(c, s.key())
	if err != nil {
		err = fmt.Errorf("failed loading cart with error=%w", err)
		logger.Warn().Err(err).Msg("cart storage unreachable, degrading to empty cart")
		return nil
	}
	if !ok {
		return nil
	}

	lines := []Line{}
	err = json.Unmarshal(payload, &lines)
	if err != nil {
		err = fmt.Errorf("failed unmarshaling cart with error=%w", err)
		logger.Warn().Err(err).Msg("cart entry is corrupt, degrading to empty cart")
		return nil
	}
	return lines
}

func (s *LocalStore) save(c context.Context, lines []Line) error {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "LocalStore save").
		Str(log.KeyCacheKey, s.key()).
		Int(log.KeyCartLines, len(lines)).
		Logger()

	payload, err := json.Marshal(lines)
	if err != nil {
		err = fmt.Errorf("failed marshaling cart with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	err = s.storage.Save(c, s.key(), payload)
	if err != nil {
		err = fmt.Errorf("failed saving cart with error=%w", unavailable(err))
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	err = s.storage.Notify(c, constants.ChannelCartEvents, payload)
	if err != nil {
		// change notification is best effort, the write already landed
		logger.Warn().Err(err).Msg("failed notifying cart change")
	}
	return nil
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %s", inErrors.ErrCartUnavailable, err.Error())
}

func (s *LocalStore) AddLine(c context.Context, product Product, quantity interface{}) error {
	c, span := otel.Tracer.Start(c, "LocalStore AddLine")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "LocalStore AddLine").
		Str(log.KeyProductID, product.ID.String()).
		Logger()

	qty := money.ToQuantity(quantity)
	logger.Info().Int32(log.KeyQuantity, qty).Msg("adding line")
	lines := MergeLine(s.load(c), product, qty)

	err := s.save(logger.WithContext(c), lines)
	if err != nil {
		inErrors.HandleError(err, span)
		return err
	}
	logger.Info().Msg("added line")
	return nil
}

func (s *LocalStore) SetQuantity(c context.Context, lineKey string, quantity interface{}) error {
	c, span := otel.Tracer.Start(c, "LocalStore SetQuantity")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "LocalStore SetQuantity").
		Str(log.KeyItemID, lineKey).
		Logger()

	qty := money.ToQuantity(quantity)
	lines := s.load(c)
	found := false
	for i, l := range lines {
		if l.Key == lineKey {
			lines[i].Quantity = qty
			found = true
			break
		}
	}
	if !found {
		inErrors.HandleError(inErrors.ErrItemNotFound, span)
		logger.Error().Err(inErrors.ErrItemNotFound).Msg(inErrors.ErrItemNotFound.Error())
		return inErrors.ErrItemNotFound
	}

	err := s.save(logger.WithContext(c), lines)
	if err != nil {
		inErrors.HandleError(err, span)
		return err
	}
	logger.Info().Int32(log.KeyQuantity, qty).Msg("set line quantity")
	return nil
}

func (s *LocalStore) RemoveLine(c context.Context, lineKey string) error {
	c, span := otel.Tracer.Start(c, "LocalStore RemoveLine")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "LocalStore RemoveLine").
		Str(log.KeyItemID, lineKey).
		Logger()

	lines := s.load(c)
	kept := lines[:0]
	for _, l := range lines {
		if l.Key != lineKey {
			kept = append(kept, l)
		}
	}

	err := s.save(logger.WithContext(c), kept)
	if err != nil {
		inErrors.HandleError(err, span)
		return err
	}
	logger.Info().Msg("removed line")
	return nil
}

func (s *LocalStore) Clear(c context.Context) error {
	c, span := otel.Tracer.Start(c, "LocalStore Clear")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "LocalStore Clear").
		Str(log.KeyCacheKey, s.key()).
		Logger()

	err := s.storage.Delete(c, s.key())
	if err != nil {
		err = unavailable(err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("cleared cart")
	return nil
}

func (s *LocalStore) Lines(c context.Context) ([]Line, error) {
	c, span := otel.Tracer.Start(c, "LocalStore Lines")
	defer span.End()

	return s.load(c), nil
}

func (s *LocalStore) Totals(c context.Context) (Totals, error) {
	c, span := otel.Tracer.Start(c, "LocalStore Totals")
	defer span.End()

	return SumTotals(s.load(c)), nil
}
