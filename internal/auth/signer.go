package auth

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mr-tron/base58"

	"github.com/rl1809/marketplace/internal/core/domain"
)

// DefaultMaxAge bounds how long after issuance a signer token is accepted.
const DefaultMaxAge = 5 * time.Minute

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrTokenTooOld  = errors.New("token exceeds max age")
	ErrInvalidKey   = errors.New("invalid private key")
)

// GenerateKey creates a signer key pair. The identity is the public key.
func GenerateKey() (domain.Identity, ed25519.PrivateKey, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return domain.Identity{}, nil, fmt.Errorf("generating key: %w", err)
	}
	id, err := domain.IdentityFromBytes(pub)
	if err != nil {
		return domain.Identity{}, nil, err
	}
	return id, priv, nil
}

func IdentityOf(priv ed25519.PrivateKey) domain.Identity {
	id, _ := domain.IdentityFromBytes(priv.Public().(ed25519.PublicKey))
	return id
}

func EncodePrivateKey(priv ed25519.PrivateKey) string {
	return base58.Encode(priv)
}

func ParsePrivateKey(s string) (ed25519.PrivateKey, error) {
	raw, err := base58.Decode(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w: length %d", ErrInvalidKey, len(raw))
	}
	return ed25519.PrivateKey(raw), nil
}

// SignToken issues a token asserting the key holder's identity.
func SignToken(priv ed25519.PrivateKey, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   IdentityOf(priv).String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	signed, err := token.SignedString(priv)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verifier checks signer tokens. The subject names the public key that must have
// produced the signature, so no key registry is needed.
type Verifier struct {
	maxAge time.Duration
	now    func() time.Time
}

func NewVerifier(maxAge time.Duration) *Verifier {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Verifier{maxAge: maxAge, now: time.Now}
}

func (v *Verifier) Verify(tokenStr string) (domain.Identity, error) {
	if tokenStr == "" {
		return domain.Identity{}, ErrMissingToken
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (any, error) {
		id, err := domain.ParseIdentity(claims.Subject)
		if err != nil {
			return nil, err
		}
		return ed25519.PublicKey(id[:]), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("parsing token: %w", err)
	}

	if claims.IssuedAt == nil {
		return domain.Identity{}, fmt.Errorf("parsing token: %w", jwt.ErrTokenRequiredClaimMissing)
	}
	if v.now().Sub(claims.IssuedAt.Time) > v.maxAge {
		return domain.Identity{}, ErrTokenTooOld
	}

	return domain.ParseIdentity(claims.Subject)
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
