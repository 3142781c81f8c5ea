// Package wallet resolves the acting player's private key, either from a raw
// hex string or from a password-encrypted key file.
package wallet

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/pbkdf2"

	"github.com/predictrisk/engine/internal/config"
)

const (
	// kdfIterations follows the OWASP minimum for PBKDF2-HMAC-SHA256.
	kdfIterations = 480_000
	saltLen       = 16
	aesKeyLen     = 32
	fileVersion   = 1
)

// keyFile is the on-disk layout of an encrypted wallet key.
type keyFile struct {
	Version    int    `json:"version"`
	Salt       string `json:"salt"`
	Nonce      string `json:"nonce"`
	Ciphertext string `json:"ciphertext"`
}

// Load resolves the wallet key from configuration. A raw private key takes
// precedence; otherwise the encrypted key file is decrypted with the
// configured password.
func Load(cfg config.WalletConfig) (*ecdsa.PrivateKey, error) {
	if cfg.PrivateKey != "" {
		key, err := parseHexKey(cfg.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("wallet: private_key: %w", err)
		}
		return key, nil
	}

	if cfg.EncryptedKeyPath != "" {
		blob, err := os.ReadFile(cfg.EncryptedKeyPath)
		if err != nil {
			return nil, fmt.Errorf("wallet: reading key file: %w", err)
		}
		keyHex, err := Decrypt(blob, cfg.KeyPassword)
		if err != nil {
			return nil, err
		}
		key, err := parseHexKey(keyHex)
		if err != nil {
			return nil, fmt.Errorf("wallet: decrypted key: %w", err)
		}
		return key, nil
	}

	return nil, errors.New("wallet: no key source configured (set private_key or encrypted_key_path)")
}

// Encrypt seals a hex private key with a password. Key derivation is
// PBKDF2-HMAC-SHA256, encryption AES-256-GCM; the output is a JSON blob
// readable by Load.
func Encrypt(privateKeyHex, password string) ([]byte, error) {
	if password == "" {
		return nil, errors.New("wallet: password must not be empty")
	}

	raw, err := hex.DecodeString(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("wallet: invalid key hex: %w", err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("wallet: expected 32-byte key, got %d bytes", len(raw))
	}

	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("wallet: generating salt: %w", err)
	}

	gcm, err := newGCM(password, salt)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("wallet: generating nonce: %w", err)
	}

	out := keyFile{
		Version:    fileVersion,
		Salt:       base64.StdEncoding.EncodeToString(salt),
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		Ciphertext: base64.StdEncoding.EncodeToString(gcm.Seal(nil, nonce, raw, nil)),
	}
	return json.MarshalIndent(out, "", "  ")
}

// Decrypt opens a blob produced by Encrypt and returns the bare hex key.
func Decrypt(blob []byte, password string) (string, error) {
	if password == "" {
		return "", errors.New("wallet: password must not be empty")
	}

	var stored keyFile
	if err := json.Unmarshal(blob, &stored); err != nil {
		return "", fmt.Errorf("wallet: parsing key file: %w", err)
	}
	if stored.Version != fileVersion {
		return "", fmt.Errorf("wallet: unsupported key file version %d", stored.Version)
	}

	salt, err := base64.StdEncoding.DecodeString(stored.Salt)
	if err != nil {
		return "", fmt.Errorf("wallet: decoding salt: %w", err)
	}
	nonce, err := base64.StdEncoding.DecodeString(stored.Nonce)
	if err != nil {
		return "", fmt.Errorf("wallet: decoding nonce: %w", err)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(stored.Ciphertext)
	if err != nil {
		return "", fmt.Errorf("wallet: decoding ciphertext: %w", err)
	}

	gcm, err := newGCM(password, salt)
	if err != nil {
		return "", err
	}

	plain, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("wallet: decryption failed (wrong password?): %w", err)
	}
	return hex.EncodeToString(plain), nil
}

func newGCM(password string, salt []byte) (cipher.AEAD, error) {
	derived := pbkdf2.Key([]byte(password), salt, kdfIterations, aesKeyLen, sha256.New)
	block, err := aes.NewCipher(derived)
	if err != nil {
		return nil, fmt.Errorf("wallet: creating cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("wallet: creating GCM: %w", err)
	}
	return gcm, nil
}

func parseHexKey(s string) (*ecdsa.PrivateKey, error) {
	return ethcrypto.HexToECDSA(strings.TrimPrefix(s, "0x"))
}
