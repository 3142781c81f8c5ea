// Package config defines the top-level configuration for the risk engine
// and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by RISKD_* environment variables.
type Config struct {
	Chain    ChainConfig    `toml:"chain"`
	Wallet   WalletConfig   `toml:"wallet"`
	Rules    RulesConfig    `toml:"rules"`
	Map      MapConfig      `toml:"map"`
	Markets  MarketsConfig  `toml:"markets"`
	Signer   SignerConfig   `toml:"signer"`
	Ledger   LedgerConfig   `toml:"ledger"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	Server   ServerConfig   `toml:"server"`
	Notify   NotifyConfig   `toml:"notify"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// ChainConfig holds the JSON-RPC endpoint, chain parameters, and the deployed
// contract addresses the engine talks to.
type ChainConfig struct {
	RPCURL          string   `toml:"rpc_url"`
	ChainID         int64    `toml:"chain_id"`
	GameAddress     string   `toml:"game_address"`
	ArmyToken       string   `toml:"army_token_address"`
	TerritoryNFT    string   `toml:"territory_nft_address"`
	BetEscrow       string   `toml:"bet_escrow_address"`
	RefreshInterval duration `toml:"refresh_interval"`
}

// WalletConfig holds the acting player's key material: either a raw hex key
// or an encrypted key file plus password.
type WalletConfig struct {
	PrivateKey       string `toml:"private_key"`
	EncryptedKeyPath string `toml:"encrypted_key_path"`
	KeyPassword      string `toml:"key_password"`
}

// RulesConfig holds the game-rule thresholds mirrored from the contract.
// These must match the deployed contract or the local eligibility checks
// will diverge from on-chain reverts.
type RulesConfig struct {
	// MinGarrisonTokens is the minimum garrison in whole tokens (18 decimals
	// applied internally). It bounds the attack size and the garrison left
	// behind on both the source and a conquered territory.
	MinGarrisonTokens int64 `toml:"min_garrison_tokens"`
	// AttackRatioNum/Den: an attack on a claimed territory must satisfy
	// amount*Den >= defenderGarrison*Num. 27/10 encodes 2.7x.
	AttackRatioNum int64 `toml:"attack_ratio_num"`
	AttackRatioDen int64 `toml:"attack_ratio_den"`
	// LossNum/Den: a successful attack consumes defenderGarrison*Num/Den
	// attacker tokens. 14/10 encodes 1.4x.
	LossNum int64 `toml:"loss_num"`
	LossDen int64 `toml:"loss_den"`
	// ClaimCooldown is the wait between daily army claims.
	ClaimCooldown duration `toml:"claim_cooldown"`
}

// MapConfig selects the adjacency-graph source.
type MapConfig struct {
	// Variant is "classic" (hardcoded 10-territory graph) or "world"
	// (CSV borders restricted to codes present in the SVG map).
	Variant    string `toml:"variant"`
	BordersCSV string `toml:"borders_csv"`
	WorldSVG   string `toml:"world_svg"`
}

// MarketsConfig holds the prediction-market data proxy parameters.
type MarketsConfig struct {
	ProxyHost string   `toml:"proxy_host"`
	QuoteTTL  duration `toml:"quote_ttl"`
}

// SignerConfig holds the off-chain bet-signing service endpoint.
type SignerConfig struct {
	BaseURL string `toml:"base_url"`
}

// LedgerConfig holds bet-ledger persistence parameters.
type LedgerConfig struct {
	// Backend is "file" or "postgres".
	Backend string `toml:"backend"`
	Path    string `toml:"path"`
	// MaxRecords caps the file ledger, newest first.
	MaxRecords int `toml:"max_records"`
}

// PostgresConfig holds PostgreSQL connection parameters for the postgres
// ledger backend.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters for the quote cache. An empty
// Addr disables the cache.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	APIKey      string   `toml:"api_key"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// The rule thresholds match the deployed game contract.
func Defaults() Config {
	return Config{
		Chain: ChainConfig{
			RPCURL:          "http://localhost:8545",
			ChainID:         31337,
			RefreshInterval: duration{15 * time.Second},
		},
		Rules: RulesConfig{
			MinGarrisonTokens: 10,
			AttackRatioNum:    27,
			AttackRatioDen:    10,
			LossNum:           14,
			LossDen:           10,
			ClaimCooldown:     duration{24 * time.Hour},
		},
		Map: MapConfig{
			Variant:    "classic",
			BordersCSV: "assets/world-borders.csv",
			WorldSVG:   "assets/world.svg",
		},
		Markets: MarketsConfig{
			ProxyHost: "https://gamma-api.polymarket.com",
			QuoteTTL:  duration{time.Minute},
		},
		Signer: SignerConfig{
			BaseURL: "http://localhost:3002",
		},
		Ledger: LedgerConfig{
			Backend:    "file",
			Path:       "bets.json",
			MaxRecords: 50,
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "riskd",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			DB:         0,
			PoolSize:   10,
			MaxRetries: 3,
		},
		Server: ServerConfig{
			Enabled:     true,
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Notify: NotifyConfig{
			Events: []string{"attack_confirmed", "bet_placed", "error"},
		},
		Mode:     "serve",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"serve": true,
	"watch": true,
	"demo":  true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validMapVariants enumerates the accepted values for Map.Variant.
var validMapVariants = map[string]bool{
	"classic": true,
	"world":   true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: serve, watch, demo)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Chain — required outside demo mode.
	if c.Mode != "demo" {
		if c.Chain.RPCURL == "" {
			errs = append(errs, "chain: rpc_url must not be empty")
		}
		if c.Chain.ChainID <= 0 {
			errs = append(errs, "chain: chain_id must be positive")
		}
		if c.Chain.GameAddress == "" {
			errs = append(errs, "chain: game_address must not be empty")
		}
		if c.Chain.ArmyToken == "" {
			errs = append(errs, "chain: army_token_address must not be empty")
		}
		if c.Chain.TerritoryNFT == "" {
			errs = append(errs, "chain: territory_nft_address must not be empty")
		}
	}

	// Wallet — serve mode submits transactions and needs a key.
	if c.Mode == "serve" {
		if c.Wallet.PrivateKey == "" && c.Wallet.EncryptedKeyPath == "" {
			errs = append(errs, "wallet: either private_key or encrypted_key_path must be set for mode serve")
		}
		if c.Wallet.EncryptedKeyPath != "" && c.Wallet.KeyPassword == "" {
			errs = append(errs, "wallet: key_password is required when encrypted_key_path is set")
		}
	}

	// Rules
	if c.Rules.MinGarrisonTokens <= 0 {
		errs = append(errs, "rules: min_garrison_tokens must be > 0")
	}
	if c.Rules.AttackRatioNum <= 0 || c.Rules.AttackRatioDen <= 0 {
		errs = append(errs, "rules: attack ratio numerator and denominator must be > 0")
	}
	if c.Rules.LossNum < 0 || c.Rules.LossDen <= 0 {
		errs = append(errs, "rules: loss numerator must be >= 0 and denominator > 0")
	}

	// Map
	if !validMapVariants[strings.ToLower(c.Map.Variant)] {
		errs = append(errs, fmt.Sprintf("map: unknown variant %q (valid: classic, world)", c.Map.Variant))
	}
	if strings.ToLower(c.Map.Variant) == "world" {
		if c.Map.BordersCSV == "" {
			errs = append(errs, "map: borders_csv is required for the world variant")
		}
		if c.Map.WorldSVG == "" {
			errs = append(errs, "map: world_svg is required for the world variant")
		}
	}

	// Markets
	if c.Markets.ProxyHost == "" {
		errs = append(errs, "markets: proxy_host must not be empty")
	}

	// Ledger
	switch strings.ToLower(c.Ledger.Backend) {
	case "file":
		if c.Ledger.Path == "" {
			errs = append(errs, "ledger: path must not be empty for the file backend")
		}
		if c.Ledger.MaxRecords < 1 {
			errs = append(errs, "ledger: max_records must be >= 1")
		}
	case "postgres":
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns < 0 || c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must be 0..pool_max_conns")
		}
	default:
		errs = append(errs, fmt.Sprintf("ledger: unknown backend %q (valid: file, postgres)", c.Ledger.Backend))
	}

	// Server
	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
