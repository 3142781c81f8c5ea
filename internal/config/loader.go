package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies RISKD_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known RISKD_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Chain ──
	setStr(&cfg.Chain.RPCURL, "RISKD_CHAIN_RPC_URL")
	setInt64(&cfg.Chain.ChainID, "RISKD_CHAIN_ID")
	setStr(&cfg.Chain.GameAddress, "RISKD_CHAIN_GAME_ADDRESS")
	setStr(&cfg.Chain.ArmyToken, "RISKD_CHAIN_ARMY_TOKEN_ADDRESS")
	setStr(&cfg.Chain.TerritoryNFT, "RISKD_CHAIN_TERRITORY_NFT_ADDRESS")
	setStr(&cfg.Chain.BetEscrow, "RISKD_CHAIN_BET_ESCROW_ADDRESS")
	setDuration(&cfg.Chain.RefreshInterval, "RISKD_CHAIN_REFRESH_INTERVAL")

	// ── Wallet ──
	setStr(&cfg.Wallet.PrivateKey, "RISKD_WALLET_PRIVATE_KEY")
	setStr(&cfg.Wallet.EncryptedKeyPath, "RISKD_WALLET_ENCRYPTED_KEY_PATH")
	setStr(&cfg.Wallet.KeyPassword, "RISKD_WALLET_KEY_PASSWORD")

	// ── Rules ──
	setInt64(&cfg.Rules.MinGarrisonTokens, "RISKD_RULES_MIN_GARRISON_TOKENS")
	setInt64(&cfg.Rules.AttackRatioNum, "RISKD_RULES_ATTACK_RATIO_NUM")
	setInt64(&cfg.Rules.AttackRatioDen, "RISKD_RULES_ATTACK_RATIO_DEN")
	setInt64(&cfg.Rules.LossNum, "RISKD_RULES_LOSS_NUM")
	setInt64(&cfg.Rules.LossDen, "RISKD_RULES_LOSS_DEN")
	setDuration(&cfg.Rules.ClaimCooldown, "RISKD_RULES_CLAIM_COOLDOWN")

	// ── Map ──
	setStr(&cfg.Map.Variant, "RISKD_MAP_VARIANT")
	setStr(&cfg.Map.BordersCSV, "RISKD_MAP_BORDERS_CSV")
	setStr(&cfg.Map.WorldSVG, "RISKD_MAP_WORLD_SVG")

	// ── Markets ──
	setStr(&cfg.Markets.ProxyHost, "RISKD_MARKETS_PROXY_HOST")
	setDuration(&cfg.Markets.QuoteTTL, "RISKD_MARKETS_QUOTE_TTL")

	// ── Signer ──
	setStr(&cfg.Signer.BaseURL, "RISKD_SIGNER_BASE_URL")

	// ── Ledger ──
	setStr(&cfg.Ledger.Backend, "RISKD_LEDGER_BACKEND")
	setStr(&cfg.Ledger.Path, "RISKD_LEDGER_PATH")
	setInt(&cfg.Ledger.MaxRecords, "RISKD_LEDGER_MAX_RECORDS")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "RISKD_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "RISKD_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "RISKD_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "RISKD_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "RISKD_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "RISKD_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "RISKD_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "RISKD_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "RISKD_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "RISKD_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "RISKD_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "RISKD_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "RISKD_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "RISKD_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "RISKD_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "RISKD_REDIS_TLS_ENABLED")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "RISKD_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "RISKD_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "RISKD_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "RISKD_SERVER_API_KEY")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "RISKD_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "RISKD_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "RISKD_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "RISKD_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "RISKD_MODE")
	setStr(&cfg.LogLevel, "RISKD_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
