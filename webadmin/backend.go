package webadmin

import (
	"github.com/jrsteele09/go-webadmin/internal/config"
	"github.com/jrsteele09/go-webadmin/internal/errors"
	"github.com/jrsteele09/go-webadmin/sessions"
	"github.com/jrsteele09/go-webadmin/sessions/redisstore"
	"github.com/redis/go-redis/v9"
)

// NewBackend builds the storage selected by cfg. The returned close function
// releases connections owned by the backend.
func NewBackend(cfg config.SessionConfig, dataFolder string, redisClient redis.UniversalClient) (sessions.Backend, func() error, error) {
	var (
		backend sessions.Backend
		closer  = func() error { return nil }
	)

	switch cfg.GetStoreBackend() {
	case config.StoreBackendFile:
		fileBackend, err := sessions.NewFileBackend(dataFolder)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "[webadmin NewBackend]")
		}
		backend = fileBackend
	case config.StoreBackendRedis:
		if redisClient == nil {
			client := redis.NewClient(&redis.Options{Addr: cfg.GetRedisAddr()})
			redisClient = client
			closer = client.Close
		}
		backend = redisstore.New(redisClient)
	default:
		backend = sessions.NewInMemoryBackend()
	}

	if key := cfg.GetSealKey(); key != "" {
		sealed, err := sessions.NewSealedBackend(backend, key)
		if err != nil {
			_ = closer()
			return nil, nil, errors.Wrapf(err, "[webadmin NewBackend]")
		}
		backend = sealed
	}
	return backend, closer, nil
}
