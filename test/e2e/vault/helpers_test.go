package vault_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/aussiebroadwan/credvault/pkg/cryptox"
	"github.com/aussiebroadwan/credvault/pkg/vaultsdk"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
 * Container setup and shared assertions for the vault end-to-end tests.
 */

const (
	testImageName = "credvault-test:latest"

	fakeAuthPath = "/usr/local/bin/fake-auth"
	userPassword = "correct-horse-1"
)

// TestMain builds the Docker image once before all tests and removes it
// after they complete.
func TestMain(m *testing.M) {
	fmt.Fprintf(os.Stdout, "Building Vault Docker image...")

	if err := buildDockerImage(); err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to build Docker image: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done\n")

	exitCode := m.Run()

	fmt.Fprintf(os.Stdout, "Cleaning up Vault Docker image...")
	cleanupDockerImage()
	fmt.Fprintf(os.Stdout, " done\n")

	os.Exit(exitCode)
}

func buildDockerImage() error {
	cmd := exec.CommandContext(context.Background(), "docker", "build",
		"-t", testImageName,
		"-f", "../../../cmd/vault/Dockerfile",
		"../../../")
	cmd.Stdout = os.Stdout
	return cmd.Run()
}

func cleanupDockerImage() {
	cmd := exec.CommandContext(context.Background(), "docker", "rmi", "-f", testImageName)
	_ = cmd.Run() // image might not exist
}

// containerOptions tweaks the environment of a single test container.
type containerOptions struct {
	env               map[string]string
	defaultRateLimits bool
}

// setupVaultContainer starts the vault with relaxed rate limits and the fake
// authorization program, returning the base URL.
func setupVaultContainer(t *testing.T) (string, func()) {
	return setupVaultContainerWith(t, containerOptions{})
}

func setupVaultContainerWith(t *testing.T, opts containerOptions) (string, func()) {
	t.Helper()
	ctx := context.Background()

	key, err := cryptox.GenerateKey()
	require.NoError(t, err)

	env := map[string]string{
		"VAULT_ENCRYPTION_KEY":        key,
		"VAULT_HANDSHAKE_COMMAND":     fakeAuthPath,
		"VAULT_HANDSHAKE_URL_TIMEOUT": "10s",
		"VAULT_HANDSHAKE_TIMEOUT":     "30s",
		"ENV":                         "test",
		"LOG_LEVEL":                   "debug",
		"LOG_FORMAT":                  "json",
	}
	if !opts.defaultRateLimits {
		// Tests make many rapid requests that would trip the production limits.
		for _, profile := range []string{"STRICT", "MODERATE", "LENIENT"} {
			env["RATELIMIT_"+profile+"_REQUESTS"] = "1000"
			env["RATELIMIT_"+profile+"_BURST"] = "1000"
		}
	}
	for k, v := range opts.env {
		env[k] = v
	}

	req := testcontainers.ContainerRequest{
		Image:        testImageName,
		ExposedPorts: []string{"8080/tcp"},
		Env:          env,
		Files: []testcontainers.ContainerFile{{
			HostFilePath:      "testdata/fake-auth.sh",
			ContainerFilePath: fakeAuthPath,
			FileMode:          0o755,
		}},
		WaitingFor: wait.ForHTTP("/livez").
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

// registerUser registers a fresh account and returns its id.
func registerUser(t *testing.T, client *vaultsdk.Client, email string) string {
	t.Helper()

	resp, err := client.Register(t.Context(), email, userPassword)
	require.NoError(t, err)
	require.NotEmpty(t, resp.UserID)
	return resp.UserID
}

func assertHealthy(t *testing.T, health *vaultsdk.HealthResponse, err error) {
	t.Helper()

	require.NoError(t, err)
	require.NotNil(t, health)
	require.Equal(t, "ok", health.Status)
	require.NotEmpty(t, health.Version)
}
