package jwtx_test

import (
	"crypto/x509"
	"encoding/pem"
	"strings"
	"testing"

	"github.com/aussiebroadwan/tokengate/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestPublicJWK(t *testing.T) {
	kp, priv := newTestKeyPair(t)

	jwk := kp.PublicJWK()
	require.Equal(t, "RSA", jwk.Kty)
	require.Equal(t, "RS256", jwk.Alg)
	require.Equal(t, "sig", jwk.Use)
	require.Equal(t, kp.KID(), jwk.Kid)

	pub, err := jwk.RSAPublicKey()
	require.NoError(t, err)
	require.True(t, pub.Equal(&priv.PublicKey))
}

func TestJWK_PEM(t *testing.T) {
	kp, priv := newTestKeyPair(t)

	pemStr, err := kp.PublicJWK().PEM()
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(pemStr, "-----BEGIN PUBLIC KEY-----"))

	block, _ := pem.Decode([]byte(pemStr))
	require.NotNil(t, block)

	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	require.NoError(t, err)
	require.True(t, priv.PublicKey.Equal(parsed))
}

func TestJWK_UnsupportedKty(t *testing.T) {
	_, err := jwtx.JWK{Kty: "OKP"}.PEM()
	require.Error(t, err)
}
