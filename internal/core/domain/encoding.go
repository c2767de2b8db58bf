package domain

import (
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/crypto/sha3"
)

// Account layout of an item record:
// discriminator(8) | id(8) | name length(4) | name(<=50) | quantity(8) | price(8) | authority(32)
const (
	discriminatorSize = 8
	ItemSpace         = discriminatorSize + 8 + 4 + MaxNameLength + 8 + 8 + IdentitySize
)

var (
	ErrNameTooLong     = errors.New("item name exceeds storage bound")
	ErrValueOutOfRange = errors.New("value out of storage range")
	ErrInvalidAccount  = errors.New("invalid item account data")
)

var itemDiscriminator = func() [discriminatorSize]byte {
	sum := sha3.Sum256([]byte("account:Item"))
	var d [discriminatorSize]byte
	copy(d[:], sum[:discriminatorSize])
	return d
}()

func (i Item) MarshalBinary() ([]byte, error) {
	if len(i.Name) > MaxNameLength {
		return nil, fmt.Errorf("%w: %d bytes", ErrNameTooLong, len(i.Name))
	}

	buf := make([]byte, 0, ItemSpace)
	buf = append(buf, itemDiscriminator[:]...)
	buf = binary.LittleEndian.AppendUint64(buf, i.ID)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(i.Name)))
	buf = append(buf, i.Name...)
	buf = binary.LittleEndian.AppendUint64(buf, i.Quantity)
	buf = binary.LittleEndian.AppendUint64(buf, i.Price)
	buf = append(buf, i.Authority[:]...)
	return buf, nil
}

func (i *Item) UnmarshalBinary(data []byte) error {
	const fixed = discriminatorSize + 8 + 4
	if len(data) < fixed {
		return fmt.Errorf("%w: short header", ErrInvalidAccount)
	}
	if [discriminatorSize]byte(data[:discriminatorSize]) != itemDiscriminator {
		return fmt.Errorf("%w: discriminator mismatch", ErrInvalidAccount)
	}

	id := binary.LittleEndian.Uint64(data[discriminatorSize:])
	nameLen := int(binary.LittleEndian.Uint32(data[discriminatorSize+8:]))
	if nameLen > MaxNameLength {
		return fmt.Errorf("%w: name length %d", ErrInvalidAccount, nameLen)
	}

	rest := data[fixed:]
	if len(rest) != nameLen+8+8+IdentitySize {
		return fmt.Errorf("%w: size %d", ErrInvalidAccount, len(data))
	}

	i.ID = id
	i.Name = string(rest[:nameLen])
	rest = rest[nameLen:]
	i.Quantity = binary.LittleEndian.Uint64(rest)
	i.Price = binary.LittleEndian.Uint64(rest[8:])
	copy(i.Authority[:], rest[16:])
	return nil
}
