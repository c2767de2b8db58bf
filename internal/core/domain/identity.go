package domain

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
)

// IdentitySize is the length of an Ed25519 public key.
const IdentitySize = 32

var ErrInvalidIdentity = errors.New("invalid identity")

// Identity is a signer's public key. Authorities, buyers and sellers are all identities.
type Identity [IdentitySize]byte

func ParseIdentity(s string) (Identity, error) {
	var id Identity
	raw, err := base58.Decode(s)
	if err != nil {
		return id, fmt.Errorf("%w: %v", ErrInvalidIdentity, err)
	}
	if len(raw) != IdentitySize {
		return id, fmt.Errorf("%w: length %d", ErrInvalidIdentity, len(raw))
	}
	copy(id[:], raw)
	return id, nil
}

func IdentityFromBytes(b []byte) (Identity, error) {
	var id Identity
	if len(b) != IdentitySize {
		return id, fmt.Errorf("%w: length %d", ErrInvalidIdentity, len(b))
	}
	copy(id[:], b)
	return id, nil
}

func (i Identity) String() string {
	return base58.Encode(i[:])
}

func (i Identity) Equal(other Identity) bool {
	return bytes.Equal(i[:], other[:])
}

func (i Identity) IsZero() bool {
	return i == Identity{}
}

func (i Identity) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

func (i *Identity) UnmarshalText(text []byte) error {
	parsed, err := ParseIdentity(string(text))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}
