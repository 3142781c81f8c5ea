package wallet

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/predictrisk/engine/internal/config"
)

// anvil's first default account key, safe to embed
const testKeyHex = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

func TestEncryptDecryptRoundTrip(t *testing.T) {
	blob, err := Encrypt(testKeyHex, "hunter2")
	require.NoError(t, err)

	got, err := Decrypt(blob, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, testKeyHex, got)
}

func TestDecryptWrongPassword(t *testing.T) {
	blob, err := Encrypt(testKeyHex, "hunter2")
	require.NoError(t, err)

	_, err = Decrypt(blob, "wrong")
	assert.Error(t, err)
}

func TestEncryptRejectsBadKeys(t *testing.T) {
	_, err := Encrypt(testKeyHex, "")
	assert.Error(t, err)

	_, err = Encrypt("zz", "pw")
	assert.Error(t, err)

	_, err = Encrypt("abcd", "pw")
	assert.Error(t, err, "short keys rejected")
}

func TestLoadRawKey(t *testing.T) {
	key, err := Load(config.WalletConfig{PrivateKey: "0x" + testKeyHex})
	require.NoError(t, err)
	assert.NotNil(t, key)
}

func TestLoadEncryptedFile(t *testing.T) {
	blob, err := Encrypt(testKeyHex, "pw")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "key.json")
	require.NoError(t, os.WriteFile(path, blob, 0o600))

	key, err := Load(config.WalletConfig{EncryptedKeyPath: path, KeyPassword: "pw"})
	require.NoError(t, err)
	assert.NotNil(t, key)
}

func TestLoadNoSource(t *testing.T) {
	_, err := Load(config.WalletConfig{})
	assert.Error(t, err)
}
