package domain

import (
	"encoding/binary"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/sha3"
)

const itemAddressSeed = "item"

// Address is the storage key of an item record. It is derived from the item id,
// so two records with the same id always collide in storage.
type Address [32]byte

func ItemAddress(id uint64) Address {
	buf := make([]byte, 0, len(itemAddressSeed)+8)
	buf = append(buf, itemAddressSeed...)
	buf = binary.BigEndian.AppendUint64(buf, id)
	return Address(sha3.Sum256(buf))
}

func (a Address) String() string {
	return base58.Encode(a[:])
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}
