package vault_test

import (
	"testing"

	"github.com/aussiebroadwan/credvault/pkg/vaultsdk"
	"github.com/stretchr/testify/require"
)

func TestLivezEndpoint(t *testing.T) {
	baseURL, cleanup := setupVaultContainer(t)
	defer cleanup()

	client := vaultsdk.NewClient(baseURL)

	health, err := client.GetLiveness(t.Context())
	assertHealthy(t, health, err)
}

// TestReadyzEndpoint verifies the database and cipher checks pass in a fresh
// container.
func TestReadyzEndpoint(t *testing.T) {
	baseURL, cleanup := setupVaultContainer(t)
	defer cleanup()

	client := vaultsdk.NewClient(baseURL)

	health, err := client.GetReadiness(t.Context())
	assertHealthy(t, health, err)
	require.NotNil(t, health.Checks)
	require.Equal(t, "ok", health.Checks.Database)
	require.Equal(t, "ok", health.Checks.Cipher)
}
