package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsValidateDemo(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "demo"
	require.NoError(t, cfg.Validate())
}

func TestValidateServeRequiresChainAndWallet(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "serve"
	cfg.Chain.GameAddress = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "game_address")
	assert.Contains(t, err.Error(), "private_key or encrypted_key_path")
}

func TestLoadMergesFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
mode = "watch"

[chain]
rpc_url = "http://node:8545"
refresh_interval = "30s"

[rules]
min_garrison_tokens = 5
`), 0o644))

	t.Setenv("RISKD_CHAIN_RPC_URL", "http://override:8545")
	t.Setenv("RISKD_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "watch", cfg.Mode)
	assert.Equal(t, "http://override:8545", cfg.Chain.RPCURL, "env wins over file")
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, int64(5), cfg.Rules.MinGarrisonTokens)
	assert.Equal(t, "30s", cfg.Chain.RefreshInterval.Duration.String())
	// untouched sections keep their defaults
	assert.Equal(t, 8000, cfg.Server.Port)
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "turbo"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown mode "turbo"`)
}
