package auth

import (
	"crypto/ed25519"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndVerify(t *testing.T) {
	id, priv, err := GenerateKey()
	require.NoError(t, err)

	token, err := SignToken(priv, time.Minute)
	require.NoError(t, err)

	got, err := NewVerifier(time.Minute).Verify(token)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestVerify_Rejects(t *testing.T) {
	_, priv, err := GenerateKey()
	require.NoError(t, err)
	_, other, err := GenerateKey()
	require.NoError(t, err)

	v := NewVerifier(time.Minute)

	_, err = v.Verify("")
	assert.ErrorIs(t, err, ErrMissingToken)

	expired, err := SignToken(priv, -time.Second)
	require.NoError(t, err)
	_, err = v.Verify(expired)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	// signed by one key, claiming another identity
	forged := jwt.NewWithClaims(jwt.SigningMethodEdDSA, jwt.RegisteredClaims{
		Subject:   IdentityOf(priv).String(),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	})
	forgedStr, err := forged.SignedString(other)
	require.NoError(t, err)
	_, err = v.Verify(forgedStr)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)

	noExp := jwt.NewWithClaims(jwt.SigningMethodEdDSA, jwt.RegisteredClaims{
		Subject:  IdentityOf(priv).String(),
		IssuedAt: jwt.NewNumericDate(time.Now()),
	})
	noExpStr, err := noExp.SignedString(priv)
	require.NoError(t, err)
	_, err = v.Verify(noExpStr)
	assert.ErrorIs(t, err, jwt.ErrTokenRequiredClaimMissing)

	hmac := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   IdentityOf(priv).String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	})
	hmacStr, err := hmac.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = v.Verify(hmacStr)
	assert.Error(t, err)
}

func TestVerify_MaxAge(t *testing.T) {
	_, priv, err := GenerateKey()
	require.NoError(t, err)

	token, err := SignToken(priv, time.Hour)
	require.NoError(t, err)

	v := NewVerifier(time.Minute)
	v.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	_, err = v.Verify(token)
	assert.True(t, errors.Is(err, ErrTokenTooOld), "got %v", err)
}

func TestPrivateKeyText(t *testing.T) {
	_, priv, err := GenerateKey()
	require.NoError(t, err)

	parsed, err := ParsePrivateKey(EncodePrivateKey(priv) + "\n")
	require.NoError(t, err)
	assert.True(t, priv.Equal(parsed))

	_, err = ParsePrivateKey(EncodePrivateKey(priv[:ed25519.SeedSize]))
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", BearerToken("Bearer abc"))
	assert.Equal(t, "abc", BearerToken("bearer abc"))
	assert.Empty(t, BearerToken("Basic abc"))
	assert.Empty(t, BearerToken(""))
}
