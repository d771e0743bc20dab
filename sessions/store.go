package sessions

import (
	"encoding/json"

	"github.com/jrsteele09/go-webadmin/internal/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Backend is a tab or process scoped key/value store.
// Get returns errors.ErrNotFound for absent keys; Delete of an absent key is not an error.
type Backend interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

// Store persists the single session record under one fixed key
type Store struct {
	backend Backend
	key     string
	logger  zerolog.Logger
}

type StoreOption func(*Store)

func WithStoreLogger(logger zerolog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

func NewStore(backend Backend, key string, opts ...StoreOption) *Store {
	s := &Store{
		backend: backend,
		key:     key,
		logger:  log.Logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Key() string {
	return s.key
}

// Load never fails: absent, unreadable or malformed data all mean "no stored session"
func (s *Store) Load() (Record, bool) {
	data, err := s.backend.Get(s.key)
	if err != nil {
		if !errors.Is(err, errors.ErrNotFound) {
			s.logger.Warn().Err(err).Str("key", s.key).Msg("Failed to read session from storage")
		}
		return Record{}, false
	}

	record, err := decodeRecord(data)
	if err != nil {
		s.logger.Debug().Err(err).Str("key", s.key).Msg("Ignoring stored session")
		return Record{}, false
	}
	return record, true
}

func (s *Store) Save(record Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return errors.Wrapf(err, "[Store Save] encode session")
	}
	if err := s.backend.Set(s.key, data); err != nil {
		return errors.Wrapf(err, "[Store Save] write %s", s.key)
	}
	return nil
}

func (s *Store) Clear() error {
	if err := s.backend.Delete(s.key); err != nil {
		return errors.Wrapf(err, "[Store Clear] delete %s", s.key)
	}
	return nil
}

func decodeRecord(data []byte) (Record, error) {
	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return Record{}, errors.Wrapf(errors.ErrMalformedSession, "%v", err)
	}
	if record.AccessToken == "" {
		return Record{}, errors.Wrapf(errors.ErrMalformedSession, "missing access token")
	}
	if record.RefreshToken != "" && record.BaseURL == "" {
		return Record{}, errors.Wrapf(errors.ErrMalformedSession, "refresh token without base url")
	}
	return record, nil
}
