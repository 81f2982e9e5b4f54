package auth_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/aussiebroadwan/tokengate/pkg/authsdk"
	"github.com/aussiebroadwan/tokengate/pkg/cryptox"
	"github.com/aussiebroadwan/tokengate/pkg/jwtx"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
 * Common constants and helper functions for auth service end-to-end tests.
 * This includes container setup and assertions.
 */

const (
	testImageName = "tokengate-auth-test:latest"

	adminUsername = "admin"
	adminPassword = "Admin123!"
)

// Key material shared by every container started in this run. Generated once
// in TestMain so JWKS assertions can compare against a known key.
var (
	privateKeyB64 string
	publicKeyB64  string
)

// TestMain builds the Docker image once before all tests and cleans it up
// after all tests complete.
func TestMain(m *testing.M) {
	priv, err := cryptox.GenerateRSAKey(2048)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generate key: %v\n", err)
		os.Exit(1)
	}
	privateKeyB64, publicKeyB64, err = jwtx.EncodeKeyPair(priv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode key: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stdout, "Building Auth Service Docker image...")
	if err := buildDockerImage(); err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to build Docker image: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done\n")

	exitCode := m.Run()

	fmt.Fprintf(os.Stdout, "Cleaning up Auth Service Docker image...")
	cleanupDockerImage()
	fmt.Fprintf(os.Stdout, " done\n")

	os.Exit(exitCode)
}

func buildDockerImage() error {
	cmd := exec.CommandContext(context.Background(), "docker", "build",
		"-t", testImageName,
		"-f", "../../../cmd/auth/Dockerfile",
		"../../../")
	cmd.Stdout = os.Stdout
	return cmd.Run()
}

func cleanupDockerImage() {
	cmd := exec.CommandContext(context.Background(), "docker", "rmi", "-f", testImageName)
	_ = cmd.Run() // image might not exist
}

// baseEnv is the container environment shared by every setup helper.
func baseEnv() map[string]string {
	return map[string]string{
		"AUTH_JWT_PRIVATE_KEY":    privateKeyB64,
		"AUTH_JWT_PUBLIC_KEY":     publicKeyB64,
		"AUTH_BOOTSTRAP_USERNAME": adminUsername,
		"AUTH_BOOTSTRAP_PASSWORD": adminPassword,
		"AUTH_BOOTSTRAP_ROLES":    "ADMIN,USER",
		"AUTH_DATABASE_FILE":      "/data/auth.db",
		"AUTH_PEPPER_FILE":        "/data/pepper",
		"AUTH_ACCESS_TOKEN_TTL":   "15m",
		"ENV":                     "test",
		"LOG_LEVEL":               "info",
		"LOG_FORMAT":              "json",
	}
}

// setupAuthContainer starts the auth service with relaxed rate limits and
// returns the base URL.
func setupAuthContainer(t *testing.T) (string, func()) {
	t.Helper()

	env := baseEnv()
	for _, profile := range []string{"STRICT", "MODERATE", "PUBLIC"} {
		env["RATELIMIT_"+profile+"_REQUESTS"] = "1000"
		env["RATELIMIT_"+profile+"_WINDOW_SEC"] = "60"
		env["RATELIMIT_"+profile+"_BURST"] = "1000"
	}
	return startContainer(t, env)
}

// setupAuthContainerWithDefaultRateLimits starts the auth service with the
// production rate limits. Only the rate limit tests should need this.
func setupAuthContainerWithDefaultRateLimits(t *testing.T) (string, func()) {
	t.Helper()
	return startContainer(t, baseEnv())
}

func startContainer(t *testing.T, env map[string]string) (string, func()) {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        testImageName,
		ExposedPorts: []string{"8080/tcp"},
		Env:          env,
		WaitingFor: wait.ForHTTP("/readyz").
			WithPort("8080/tcp").
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	mappedPort, err := container.MappedPort(ctx, "8080")
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	baseURL := fmt.Sprintf("http://%s:%s", host, mappedPort.Port())

	cleanup := func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return baseURL, cleanup
}

// loginAdmin logs in as the bootstrap admin.
func loginAdmin(t *testing.T, client *authsdk.SDKClient) *authsdk.Session {
	t.Helper()

	session, err := client.Login(t.Context(), adminUsername, adminPassword)
	require.NoError(t, err, "Login should succeed")
	require.NotNil(t, session)
	require.NotEmpty(t, session.AccessToken())
	require.NotEmpty(t, session.RefreshToken())
	return session
}

// requireOAuthError asserts err is an *authsdk.OAuth2Error with the given
// status and code.
func requireOAuthError(t *testing.T, err error, status int, code string) {
	t.Helper()
	require.Error(t, err)

	var oerr *authsdk.OAuth2Error
	require.True(t, errors.As(err, &oerr), "expected OAuth2Error, got %T: %v", err, err)
	require.Equal(t, status, oerr.StatusCode)
	require.Equal(t, code, oerr.Code)
}

// assertHealthy verifies a health check response is OK.
func assertHealthy(t *testing.T, health *authsdk.HealthResponse, err error) {
	t.Helper()
	require.NoError(t, err)
	require.NotNil(t, health)
	require.Equal(t, "ok", health.Status)
}
