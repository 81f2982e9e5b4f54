package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	authhttp "github.com/aussiebroadwan/tokengate/internal/auth/http"
	"github.com/aussiebroadwan/tokengate/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/tokengate/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

func TestReadyzDegraded(t *testing.T) {
	st, err := sqlite.NewStore("file::memory:")
	require.NoError(t, err)
	require.NoError(t, st.Close())

	handler := authhttp.ReadyzHandler(time.Now(), "test", st, nil)
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body authsdk.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "degraded", body.Status)
	require.Contains(t, body.Checks.Database, "error")
	require.Contains(t, body.Checks.Signer, "error")
}

func TestLivez(t *testing.T) {
	handler := authhttp.LivezHandler(time.Now().Add(-time.Minute), "v1.2.3")
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body authsdk.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "ok", body.Status)
	require.Equal(t, "v1.2.3", body.Version)
	require.Equal(t, "1m0s", body.Uptime)
	require.Nil(t, body.Checks)
}
