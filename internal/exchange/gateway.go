// Package exchange fetches and caches the USD->ARS sell rate used to
// present USD-priced catalog lines in the settlement currency. A failed
// fetch surfaces as unavailable; the gateway never fabricates a rate.
package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/electrosur/storefront/internal/config"
	inErrors "github.com/electrosur/storefront/internal/errors"
	inHttp "github.com/electrosur/storefront/internal/http"
	"github.com/electrosur/storefront/internal/log"
	"github.com/electrosur/storefront/internal/money"
	"github.com/electrosur/storefront/internal/otel"
)

const cacheKeySellRate = "storefront:fx:usd:sell"

// Cache holds the last successful fetch for the session TTL.
type Cache interface {
	Get(c context.Context, key string) (string, error)
	Set(c context.Context, key, value string, ttl time.Duration) error
}

type redisCache struct {
	cache *redis.Client
}

func NewRedisCache(cache *redis.Client) Cache {
	return redisCache{cache: cache}
}

func (r redisCache) Get(c context.Context, key string) (string, error) {
	return r.cache.Get(c, key).Result()
}

func (r redisCache) Set(c context.Context, key, value string, ttl time.Duration) error {
	return r.cache.Set(c, key, value, ttl).Err()
}

type Gateway struct {
	client *http.Client
	cache  Cache
	url    string
	ttl    time.Duration
}

func NewGateway(cache Cache, cfg config.Exchange) *Gateway {
	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Gateway{
		client: otelhttp.DefaultClient,
		cache:  cache,
		url:    cfg.URL,
		ttl:    ttl,
	}
}

// SellRate returns the current USD->ARS sell rate, preferring the cached
// value. When both cache and upstream fail the caller gets
// ErrRateUnavailable and must omit the conversion rather than show zero.
func (g *Gateway) SellRate(c context.Context) (decimal.Decimal, error) {
	c, span := otel.Tracer.Start(c, "Gateway SellRate")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Gateway SellRate").
		Str(log.KeyCacheKey, cacheKeySellRate).
		Logger()

	cached, err := g.cache.Get(c, cacheKeySellRate)
	if err == nil {
		rate, parseErr := decimal.NewFromString(cached)
		if parseErr == nil && rate.IsPositive() {
			logger.Info().Str(log.KeySellRate, rate.String()).Msg("found sell rate in cache")
			return rate, nil
		}
	}

	logger = logger.With().Str(log.KeyProcess, "fetching sell rate").Logger()
	logger.Info().Msg("fetching sell rate")
	req, err := http.NewRequestWithContext(c, http.MethodGet, g.url, nil)
	if err != nil {
		err = fmt.Errorf("failed creating sell rate request with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return decimal.Zero, inErrors.ErrRateUnavailable
	}
	req.Header.Add(inHttp.KEY_HEADER_REQUEST_ID, log.RequestIDFromContext(c))
	resp, err := g.client.Do(req)
	if err != nil {
		err = fmt.Errorf("failed fetching sell rate with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return decimal.Zero, inErrors.ErrRateUnavailable
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		err = fmt.Errorf(
			"sell rate upstream returned status code=%d with error=%w",
			resp.StatusCode,
			inErrors.ErrRateUnavailable,
		)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return decimal.Zero, inErrors.ErrRateUnavailable
	}

	body := map[string]interface{}{}
	err = json.NewDecoder(resp.Body).Decode(&body)
	if err != nil {
		err = fmt.Errorf("failed decoding sell rate response with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return decimal.Zero, inErrors.ErrRateUnavailable
	}

	raw, ok := body["venta"]
	if !ok {
		raw = body["sell"]
	}
	rate := money.ToAmount(raw)
	if !rate.IsPositive() {
		inErrors.HandleError(inErrors.ErrRateUnavailable, span)
		logger.Error().
			Err(inErrors.ErrRateUnavailable).
			Msg("upstream answered without a usable sell rate")
		return decimal.Zero, inErrors.ErrRateUnavailable
	}
	logger.Info().Str(log.KeySellRate, rate.String()).Msg("fetched sell rate")

	err = g.cache.Set(c, cacheKeySellRate, rate.String(), g.ttl)
	if err != nil {
		// cache miss next time, the fetched rate is still good
		logger.Warn().Err(err).Msg("failed caching sell rate")
	}

	return rate, nil
}

// Convert presents a USD amount in ARS: priceARS = priceUSD x sellRate.
func (g *Gateway) Convert(c context.Context, usd decimal.Decimal) (decimal.Decimal, error) {
	rate, err := g.SellRate(c)
	if err != nil {
		return decimal.Zero, err
	}
	return usd.Mul(rate).Round(2), nil
}
