package http

import (
	"encoding/json"
	"net/http"

	"github.com/aussiebroadwan/tokengate/pkg/authsdk"
	"github.com/aussiebroadwan/tokengate/pkg/jwtx"
)

// JWKSHandler exposes the verification key so other services can check
// tokens without sharing the private key.
//
//	@Summary		Get JWKS
//	@Description	Returns the JSON Web Key Set holding the RS256 verification key.
//	@Tags			well-known
//	@Produce		json
//	@Success		200	{object}	authsdk.JWKSResponse	"The JSON Web Key Set"
//	@Router			/.well-known/jwks.json [get].
func JWKSHandler(keys *jwtx.KeyPair) http.HandlerFunc {
	set := authsdk.JWKSResponse{Keys: []jwtx.JWK{keys.PublicJWK()}}
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=300")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(set)
	}
}
