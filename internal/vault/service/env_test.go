package service

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/aussiebroadwan/credvault/internal/vault/store/drivers/sqlite"
	"github.com/aussiebroadwan/credvault/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	store    *sqlite.Store
	cipher   *cryptox.Cipher
	vault    *CredentialVault
	bridge   *StatusBridge
	accounts *AccountService
	clock    *testClock
}

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time { return c.now }

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	cipher := newTestCipher(t)
	vault := &CredentialVault{Store: st, Cipher: cipher}
	bridge := &StatusBridge{Store: st, Vault: vault}
	clock := &testClock{now: time.Now()}

	return &testEnv{
		store:  st,
		cipher: cipher,
		vault:  vault,
		bridge: bridge,
		accounts: &AccountService{
			Store:  st,
			Status: bridge,
			Now:    clock.Now,
		},
		clock: clock,
	}
}

func newTestCipher(t *testing.T) *cryptox.Cipher {
	t.Helper()
	key, err := cryptox.GenerateKey()
	require.NoError(t, err)
	cipher, err := cryptox.LoadCipher(cryptox.KeySource{Key: key})
	require.NoError(t, err)
	return cipher
}

func (e *testEnv) register(t *testing.T, email string) string {
	t.Helper()
	id, err := e.accounts.Register(context.Background(), email, "longenough1")
	require.NoError(t, err)
	return id
}

const helperEnv = "CREDVAULT_WANT_HELPER_PROCESS"

// helperCommand returns a handshake command that re-runs this test binary
// as a fake authorization program behaving according to mode.
func helperCommand(t *testing.T, mode string) []string {
	t.Helper()
	t.Setenv(helperEnv, "1")
	return []string{os.Args[0], "-test.run=^TestHelperProcess$", "--", mode}
}

// TestHelperProcess is the fake authorization program. Modes:
//
//	ok       print the URL, then the token "tok-<api key>"
//	hang     print the URL and wait to be killed
//	notoken  print the URL and exit
//	nourl    complain on stderr and exit 1
func TestHelperProcess(t *testing.T) {
	if os.Getenv(helperEnv) != "1" {
		return
	}

	args := os.Args
	for len(args) > 0 && args[0] != "--" {
		args = args[1:]
	}
	if len(args) < 3 {
		fmt.Fprintln(os.Stderr, "usage: -- mode apikey")
		os.Exit(2)
	}
	mode, apiKey := args[1], args[2]

	printURL := func() {
		fmt.Println("Starting authentication flow")
		fmt.Println(URLSentinel)
		fmt.Println("https://auth.example.test/authorize?key=" + apiKey)
	}

	switch mode {
	case "ok":
		printURL()
		time.Sleep(50 * time.Millisecond)
		fmt.Println("Waiting for callback...")
		fmt.Println(TokenSentinel)
		fmt.Println("tok-" + apiKey)
	case "hang":
		printURL()
		time.Sleep(time.Minute)
	case "notoken":
		printURL()
		fmt.Println("callback failed")
	case "nourl":
		fmt.Fprintln(os.Stderr, "error: invalid API key")
		os.Exit(1)
	}
	os.Exit(0)
}
