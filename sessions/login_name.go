package sessions

import (
	"github.com/jrsteele09/go-webadmin/internal/errors"
)

// LoginNameStore remembers the last account name used on the login page
type LoginNameStore struct {
	backend Backend
	key     string
}

func NewLoginNameStore(backend Backend, key string) *LoginNameStore {
	return &LoginNameStore{backend: backend, key: key}
}

// Get returns "" when nothing was remembered or storage is unreadable
func (s *LoginNameStore) Get() string {
	data, err := s.backend.Get(s.key)
	if err != nil {
		return ""
	}
	return string(data)
}

func (s *LoginNameStore) Set(name string) error {
	if name == "" {
		return s.backend.Delete(s.key)
	}
	if err := s.backend.Set(s.key, []byte(name)); err != nil {
		return errors.Wrapf(err, "[LoginNameStore Set]")
	}
	return nil
}
