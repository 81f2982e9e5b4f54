package jwtx_test

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/tokengate/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func newTestKeyPair(t *testing.T) (*jwtx.KeyPair, *rsa.PrivateKey) {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	kp, err := jwtx.NewKeyPair(priv)
	require.NoError(t, err)
	return kp, priv
}

var alice = jwtx.Identity{UserID: 7, Username: "alice", Roles: []string{"ADMIN", "ROLE_USER"}}

func TestCodecRoundTrip(t *testing.T) {
	kp, _ := newTestKeyPair(t)
	codec := jwtx.NewCodec(kp)
	now := time.Now()

	t.Run("access token carries roles", func(t *testing.T) {
		token, err := codec.Encode(alice, jwtx.KindAccess, now, time.Minute)
		require.NoError(t, err)
		require.Equal(t, 2, strings.Count(token, "."))

		claims, err := codec.Decode(token)
		require.NoError(t, err)
		require.Equal(t, "alice", claims.Subject)
		require.Equal(t, int64(7), claims.UserID)
		require.Equal(t, now.Add(time.Minute).Truncate(time.Millisecond).UnixMilli(), claims.ExpiresAt.UnixMilli())
		require.NotNil(t, claims.IssuedAt)

		id := claims.Identity()
		require.Equal(t, int64(7), id.UserID)
		require.Equal(t, "alice", id.Username)
		require.ElementsMatch(t, []string{"ROLE_ADMIN", "ROLE_USER"}, id.Roles)
	})

	t.Run("refresh token omits roles", func(t *testing.T) {
		token, err := codec.Encode(alice, jwtx.KindRefresh, now, time.Hour)
		require.NoError(t, err)

		claims, err := codec.Decode(token)
		require.NoError(t, err)
		require.Equal(t, "alice", claims.Subject)
		require.Equal(t, int64(7), claims.UserID)
		require.Empty(t, claims.Roles)
		require.Empty(t, claims.Identity().Roles)

		payload, err := base64.RawURLEncoding.DecodeString(strings.Split(token, ".")[1])
		require.NoError(t, err)
		require.NotContains(t, string(payload), "roles")
	})

	t.Run("deterministic for identical inputs", func(t *testing.T) {
		a, err := codec.Encode(alice, jwtx.KindAccess, now, time.Minute)
		require.NoError(t, err)
		b, err := codec.Encode(alice, jwtx.KindAccess, now, time.Minute)
		require.NoError(t, err)
		require.Equal(t, a, b)
	})

	t.Run("decode ignores expiry", func(t *testing.T) {
		token, err := codec.Encode(alice, jwtx.KindAccess, now.Add(-time.Hour), time.Minute)
		require.NoError(t, err)

		claims, err := codec.Decode(token)
		require.NoError(t, err)
		require.ErrorIs(t, claims.ValidateExpiry(now), jwtx.ErrExpired)
	})
}

func TestCodecHeader(t *testing.T) {
	kp, _ := newTestKeyPair(t)
	codec := jwtx.NewCodec(kp)

	token, err := codec.Encode(alice, jwtx.KindAccess, time.Now(), time.Minute)
	require.NoError(t, err)

	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	require.NoError(t, err)
	require.Equal(t, "RS256", parsed.Header["alg"])
	require.Equal(t, kp.KID(), parsed.Header["kid"])
}

func TestCodecRejectsForeignSignature(t *testing.T) {
	kp1, _ := newTestKeyPair(t)
	kp2, _ := newTestKeyPair(t)

	token, err := jwtx.NewCodec(kp2).Encode(alice, jwtx.KindAccess, time.Now(), time.Minute)
	require.NoError(t, err)

	_, err = jwtx.NewCodec(kp1).Decode(token)
	require.ErrorIs(t, err, jwtx.ErrInvalidSig)
}

func TestCodecRejectsTamperedPayload(t *testing.T) {
	kp, _ := newTestKeyPair(t)
	codec := jwtx.NewCodec(kp)

	token, err := codec.Encode(alice, jwtx.KindAccess, time.Now(), time.Minute)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	forged := `{"sub":"mallory","userId":1,"roles":"ADMIN","exp":9999999999}`
	parts[1] = base64.RawURLEncoding.EncodeToString([]byte(forged))

	_, err = codec.Decode(strings.Join(parts, "."))
	require.ErrorIs(t, err, jwtx.ErrInvalidSig)
}

func TestCodecMalformed(t *testing.T) {
	kp, _ := newTestKeyPair(t)
	codec := jwtx.NewCodec(kp)

	cases := map[string]string{
		"empty":            "",
		"one segment":      "abc",
		"two segments":     "abc.def",
		"four segments":    "a.b.c.d",
		"garbage segments": "!!!.@@@.###",
		"non-json header":  base64.RawURLEncoding.EncodeToString([]byte("nope")) + ".e30.sig",
		"non-json payload": base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"RS256"}`)) + ".bm9wZQ.sig",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := codec.Decode(token)
			require.ErrorIs(t, err, jwtx.ErrMalformed)
		})
	}
}

func TestCodecMissingRequiredClaims(t *testing.T) {
	kp, priv := newTestKeyPair(t)
	codec := jwtx.NewCodec(kp)

	sign := func(claims jwt.MapClaims) string {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(priv)
		require.NoError(t, err)
		return tok
	}

	t.Run("missing userId", func(t *testing.T) {
		_, err := codec.Decode(sign(jwt.MapClaims{"sub": "alice", "exp": 9999999999}))
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	})

	t.Run("missing sub", func(t *testing.T) {
		_, err := codec.Decode(sign(jwt.MapClaims{"userId": 7, "exp": 9999999999}))
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	})

	t.Run("missing exp", func(t *testing.T) {
		_, err := codec.Decode(sign(jwt.MapClaims{"sub": "alice", "userId": 7}))
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	})

	t.Run("foreign implementation with integer dates", func(t *testing.T) {
		claims, err := codec.Decode(sign(jwt.MapClaims{
			"sub":    "alice",
			"userId": 7,
			"roles":  "USER,ADMIN",
			"exp":    9999999999,
		}))
		require.NoError(t, err)
		require.Equal(t, int64(9999999999), claims.ExpiresAt.Unix())
		require.Equal(t, []string{"ROLE_USER", "ROLE_ADMIN"}, claims.Identity().Roles)
	})
}

func TestCodecUnsupportedAlgorithm(t *testing.T) {
	kp, _ := newTestKeyPair(t)
	codec := jwtx.NewCodec(kp)
	claims := jwt.MapClaims{"sub": "alice", "userId": 7, "exp": 9999999999}

	t.Run("HS256", func(t *testing.T) {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
		require.NoError(t, err)
		_, err = codec.Decode(tok)
		require.ErrorIs(t, err, jwtx.ErrUnsupported)
	})

	t.Run("none", func(t *testing.T) {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = codec.Decode(tok)
		require.ErrorIs(t, err, jwtx.ErrUnsupported)
	})

	t.Run("unknown alg", func(t *testing.T) {
		header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"XY999","typ":"JWT"}`))
		payload := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"alice","userId":7,"exp":9999999999}`))
		_, err := codec.Decode(header + "." + payload + ".c2ln")
		require.ErrorIs(t, err, jwtx.ErrUnsupported)
	})
}
