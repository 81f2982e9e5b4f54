package jwtx

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AlgRS256 is the only signing algorithm the codec produces or accepts.
var AlgRS256 = jwt.SigningMethodRS256.Alg()

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")
	ErrUnsupported = errors.New("jwtx: unsupported token format")
	ErrExpired     = errors.New("jwtx: token expired")
)

// Codec maps identities to signed compact JWTs and back. Decode verifies the
// signature only: expiry and revocation are the caller's concern.
type Codec struct {
	keys   *KeyPair
	parser *jwt.Parser
}

// NewCodec returns a codec bound to the given key pair.
func NewCodec(keys *KeyPair) *Codec {
	return &Codec{
		keys:   keys,
		parser: jwt.NewParser(jwt.WithoutClaimsValidation()),
	}
}

// Keys exposes the key pair the codec signs with.
func (c *Codec) Keys() *KeyPair { return c.keys }

// Encode signs a claim set for id that expires lifetime after now. The output
// only depends on its inputs, RS256 (PKCS #1 v1.5) being deterministic.
func (c *Codec) Encode(id Identity, kind Kind, now time.Time, lifetime time.Duration) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodRS256, NewClaims(id, kind, now, lifetime))
	t.Header["kid"] = c.keys.kid

	signed, err := t.SignedString(c.keys.private)
	if err != nil {
		return "", fmt.Errorf("jwtx: sign %s token: %w", kind, err)
	}
	return signed, nil
}

// Decode parses tokenStr and verifies its signature against the public key.
func (c *Codec) Decode(tokenStr string) (Claims, error) {
	if strings.Count(tokenStr, ".") != 2 {
		return Claims{}, ErrMalformed
	}

	var claims Claims
	_, err := c.parser.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if t.Method == nil || t.Method.Alg() != AlgRS256 {
			return nil, fmt.Errorf("%w: alg %v", ErrUnsupported, t.Header["alg"])
		}
		return c.keys.public, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrUnsupported), errors.Is(err, jwt.ErrTokenUnverifiable):
			return Claims{}, fmt.Errorf("%w: %w", ErrUnsupported, err)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return Claims{}, fmt.Errorf("%w: %w", ErrInvalidSig, err)
		default:
			return Claims{}, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
	}

	if claims.Subject == "" || claims.ExpiresAt == nil {
		return Claims{}, fmt.Errorf("%w: missing sub or exp", ErrMalformed)
	}

	return claims, nil
}
