package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/tokengate/internal/auth/store"
	"github.com/aussiebroadwan/tokengate/pkg/authsdk"
	"github.com/aussiebroadwan/tokengate/pkg/httpx"
	"github.com/aussiebroadwan/tokengate/pkg/jwtx"
)

func healthResponse(startTime time.Time, version, status string, checks *authsdk.HealthChecks) authsdk.HealthResponse {
	return authsdk.HealthResponse{
		Status:  status,
		Uptime:  time.Since(startTime).Round(time.Second).String(),
		Version: version,
		Checks:  checks,
	}
}

// LivezHandler godoc
//
//	@Summary		Liveness check
//	@Description	Returns 200 while the process is serving requests.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse
//	@Router			/livez [get].
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, healthResponse(startTime, version, "ok", nil))
	}
}

// ReadyzHandler godoc
//
//	@Summary		Readiness check
//	@Description	Reports whether the user database answers and a signing key is loaded.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse
//	@Failure		503	{object}	authsdk.HealthResponse	"at least one check failed"
//	@Router			/readyz [get].
func ReadyzHandler(startTime time.Time, version string, st store.Store, keys *jwtx.KeyPair) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &authsdk.HealthChecks{Database: "ok", Signer: "ok"}
		ready := true

		if err := st.Ping(r.Context()); err != nil {
			checks.Database = "error: " + err.Error()
			ready = false
		}
		if keys == nil || keys.Public() == nil {
			checks.Signer = "error: no signing key"
			ready = false
		}

		if !ready {
			httpx.WriteJSON(w, http.StatusServiceUnavailable, healthResponse(startTime, version, "degraded", checks))
			return
		}
		httpx.WriteJSON(w, http.StatusOK, healthResponse(startTime, version, "ok", checks))
	}
}
