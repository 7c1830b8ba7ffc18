package cart

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Storage is the persistence behind the anonymous cart: one namespaced
// entry holding the serialized line list, plus a change channel other
// surfaces subscribe to.
type Storage interface {
	Load(c context.Context, key string) ([]byte, bool, error)
	Save(c context.Context, key string, payload []byte) error
	Delete(c context.Context, key string) error
	Notify(c context.Context, channel string, payload []byte) error
}

type redisStorage struct {
	cache *redis.Client
}

func NewRedisStorage(cache *redis.Client) Storage {
	return redisStorage{cache: cache}
}

func (s redisStorage) Load(c context.Context, key string) ([]byte, bool, error) {
	payload, err := s.cache.Get(c, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return payload, true, nil
}

func (s redisStorage) Save(c context.Context, key string, payload []byte) error {
	return s.cache.Set(c, key, payload, 0).Err()
}

func (s redisStorage) Delete(c context.Context, key string) error {
	return s.cache.Del(c, key).Err()
}

func (s redisStorage) Notify(c context.Context, channel string, payload []byte) error {
	return s.cache.Publish(c, channel, payload).Err()
}
