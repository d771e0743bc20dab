package sessions

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/jrsteele09/go-webadmin/internal/errors"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	sealKeySize   = 32
	sealNonceSize = 24
)

var _ Backend = (*SealedBackend)(nil)

// SealedBackend encrypts values at rest with NaCl secretbox before handing them to the inner backend.
// The stored value is nonce || box.
type SealedBackend struct {
	inner Backend
	key   [sealKeySize]byte
}

// NewSealedBackend takes a hex encoded 32 byte key
func NewSealedBackend(inner Backend, hexKey string) (*SealedBackend, error) {
	raw, err := hex.DecodeString(hexKey)
	if err != nil || len(raw) != sealKeySize {
		return nil, errors.Wrapf(errors.ErrInvalidConfig, "seal key must be %d hex encoded bytes", sealKeySize)
	}
	b := &SealedBackend{inner: inner}
	copy(b.key[:], raw)
	return b, nil
}

func (b *SealedBackend) Get(key string) ([]byte, error) {
	sealed, err := b.inner.Get(key)
	if err != nil {
		return nil, err
	}
	if len(sealed) < sealNonceSize+secretbox.Overhead {
		return nil, errors.ErrSealedData
	}
	var nonce [sealNonceSize]byte
	copy(nonce[:], sealed[:sealNonceSize])
	opened, ok := secretbox.Open(nil, sealed[sealNonceSize:], &nonce, &b.key)
	if !ok {
		return nil, errors.ErrSealedData
	}
	return opened, nil
}

func (b *SealedBackend) Set(key string, value []byte) error {
	var nonce [sealNonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return errors.Wrapf(err, "[SealedBackend Set] nonce")
	}
	sealed := secretbox.Seal(nonce[:], value, &nonce, &b.key)
	return b.inner.Set(key, sealed)
}

func (b *SealedBackend) Delete(key string) error {
	return b.inner.Delete(key)
}
