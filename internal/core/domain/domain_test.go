package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fill(b byte) Identity {
	var id Identity
	for i := range id {
		id[i] = b
	}
	return id
}

func TestParseIdentity(t *testing.T) {
	id := fill(7)

	parsed, err := ParseIdentity(id.String())
	require.NoError(t, err)
	assert.True(t, parsed.Equal(id))

	_, err = ParseIdentity("0OIl")
	assert.ErrorIs(t, err, ErrInvalidIdentity)

	_, err = ParseIdentity("3mJr7AoUXx2Wqd")
	assert.ErrorIs(t, err, ErrInvalidIdentity)

	_, err = IdentityFromBytes([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrInvalidIdentity)
}

func TestIdentityJSON(t *testing.T) {
	type wrapper struct {
		Signer Identity `json:"signer"`
	}
	in := wrapper{Signer: fill(9)}

	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), in.Signer.String())

	var out wrapper
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)

	assert.True(t, Identity{}.IsZero())
	assert.False(t, out.Signer.IsZero())
}

func TestItemAddress(t *testing.T) {
	assert.Equal(t, ItemAddress(1), ItemAddress(1))
	assert.NotEqual(t, ItemAddress(1), ItemAddress(2))

	item := Item{ID: 42}
	assert.Equal(t, ItemAddress(42), item.Address())
	assert.NotEmpty(t, item.Address().String())
}

func TestItemBinary_RoundTrip(t *testing.T) {
	in := Item{
		ID:        ^uint64(0),
		Name:      "Lamp",
		Quantity:  ^uint64(0) - 1,
		Price:     12,
		Authority: fill(3),
		CreatedAt: time.Now(),
	}

	data, err := in.MarshalBinary()
	require.NoError(t, err)
	assert.LessOrEqual(t, len(data), ItemSpace)

	var out Item
	require.NoError(t, out.UnmarshalBinary(data))
	assert.Equal(t, in.ID, out.ID)
	assert.Equal(t, in.Name, out.Name)
	assert.Equal(t, in.Quantity, out.Quantity)
	assert.Equal(t, in.Price, out.Price)
	assert.Equal(t, in.Authority, out.Authority)
}

func TestItemBinary_NameBound(t *testing.T) {
	item := Item{Name: strings.Repeat("x", MaxNameLength)}
	data, err := item.MarshalBinary()
	require.NoError(t, err)
	assert.Len(t, data, ItemSpace)

	item.Name += "x"
	_, err = item.MarshalBinary()
	assert.ErrorIs(t, err, ErrNameTooLong)
}

func TestItemBinary_Corrupt(t *testing.T) {
	data, err := Item{ID: 1, Name: "a"}.MarshalBinary()
	require.NoError(t, err)

	var out Item
	assert.ErrorIs(t, out.UnmarshalBinary(data[:4]), ErrInvalidAccount)
	assert.ErrorIs(t, out.UnmarshalBinary(data[:len(data)-1]), ErrInvalidAccount)

	bad := append([]byte(nil), data...)
	bad[0] ^= 0xff
	assert.ErrorIs(t, out.UnmarshalBinary(bad), ErrInvalidAccount)
}
