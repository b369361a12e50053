package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layer-3/walletauth/adapters/verifier"
)

const (
	devKey     = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	devAddress = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

func noEnv(string) string { return "" }

func TestRunPrintsAddress(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"-key", devKey, "-address"}, nil, &out, noEnv))
	assert.Equal(t, devAddress+"\n", out.String())
}

func TestRunSignsStdin(t *testing.T) {
	message := "localhost:3000 wants you to sign in with your Ethereum account:\n" + devAddress + "\n"

	var out bytes.Buffer
	require.NoError(t, run([]string{"-key", devKey}, strings.NewReader(message), &out, noEnv))

	sig := strings.TrimSpace(out.String())
	assert.NoError(t, verifier.NewEthVerifier().Verify(message, sig, devAddress))
}

func TestRunSignsFileWithKeyFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "challenge.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))

	env := func(name string) string {
		if name == "WALLET_PRIVATE_KEY" {
			return devKey
		}
		return ""
	}

	var out bytes.Buffer
	require.NoError(t, run([]string{"-message", path}, nil, &out, env))
	assert.NoError(t, verifier.NewEthVerifier().Verify("hello", strings.TrimSpace(out.String()), devAddress))
}

func TestRunErrors(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, run(nil, strings.NewReader("x"), &out, noEnv))
	assert.Error(t, run([]string{"-key", "0x1234"}, strings.NewReader("x"), &out, noEnv))
	assert.Error(t, run([]string{"-key", devKey}, strings.NewReader(""), &out, noEnv))
}
