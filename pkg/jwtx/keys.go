package jwtx

import (
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// ErrKeyFormat is returned when key material cannot be decoded into a usable
// RSA key pair. It is fatal at startup.
var ErrKeyFormat = errors.New("jwtx: invalid key format")

// KeyPair is the RSA key pair used for every signing and verification
// operation. It is immutable once loaded and safe to share between goroutines.
type KeyPair struct {
	private *rsa.PrivateKey
	public  *rsa.PublicKey
	kid     string
}

// LoadKeyPair decodes base64 encoded key material: PKCS#8 DER for the private
// half and X.509 SubjectPublicKeyInfo DER for the public half. Both halves must
// be RSA and must belong together.
func LoadKeyPair(privateB64, publicB64 string) (*KeyPair, error) {
	privDER, err := decodeB64(privateB64)
	if err != nil {
		return nil, fmt.Errorf("%w: private key: %w", ErrKeyFormat, err)
	}
	pubDER, err := decodeB64(publicB64)
	if err != nil {
		return nil, fmt.Errorf("%w: public key: %w", ErrKeyFormat, err)
	}

	priv, err := x509.ParsePKCS8PrivateKey(privDER)
	if err != nil {
		return nil, fmt.Errorf("%w: parse PKCS8: %w", ErrKeyFormat, err)
	}
	rsaPriv, ok := priv.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: private key is not RSA", ErrKeyFormat)
	}

	pub, err := x509.ParsePKIXPublicKey(pubDER)
	if err != nil {
		return nil, fmt.Errorf("%w: parse SPKI: %w", ErrKeyFormat, err)
	}
	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: public key is not RSA", ErrKeyFormat)
	}

	// A mismatched pair would sign tokens nobody can verify.
	if !rsaPriv.PublicKey.Equal(rsaPub) {
		return nil, fmt.Errorf("%w: public key does not match private key", ErrKeyFormat)
	}

	return NewKeyPair(rsaPriv)
}

// NewKeyPair wraps an already parsed RSA private key.
func NewKeyPair(priv *rsa.PrivateKey) (*KeyPair, error) {
	if priv == nil {
		return nil, fmt.Errorf("%w: nil RSA key", ErrKeyFormat)
	}
	if err := priv.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyFormat, err)
	}

	spki, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyFormat, err)
	}
	sum := sha256.Sum256(spki)

	return &KeyPair{
		private: priv,
		public:  &priv.PublicKey,
		kid:     base64.RawURLEncoding.EncodeToString(sum[:12]),
	}, nil
}

// EncodeKeyPair is the inverse of LoadKeyPair.
func EncodeKeyPair(priv *rsa.PrivateKey) (privateB64, publicB64 string, err error) {
	privDER, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return "", "", fmt.Errorf("jwtx: marshal PKCS8: %w", err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		return "", "", fmt.Errorf("jwtx: marshal SPKI: %w", err)
	}
	return base64.StdEncoding.EncodeToString(privDER), base64.StdEncoding.EncodeToString(pubDER), nil
}

// KID is a stable identifier derived from the public key.
func (k *KeyPair) KID() string { return k.kid }

// Public returns the verification key.
func (k *KeyPair) Public() *rsa.PublicKey { return k.public }

// PublicJWK returns the public half for inclusion in a JWKS.
func (k *KeyPair) PublicJWK() JWK {
	return NewRSAJWK(k.kid, "sig", AlgRS256, k.public)
}

// decodeB64 accepts standard or URL alphabets, with or without padding, and
// tolerates line breaks from copy-pasted config values.
func decodeB64(s string) ([]byte, error) {
	s = strings.Join(strings.Fields(s), "")
	if s == "" {
		return nil, errors.New("empty")
	}
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	} {
		if b, err := enc.DecodeString(s); err == nil {
			return b, nil
		}
	}
	return nil, errors.New("not valid base64")
}
