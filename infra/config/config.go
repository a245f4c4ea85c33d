package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Config holds application-level configuration.
type Config struct {
	APIURL       string   // Meme backend REST base URL
	SessionPath  string   // Path to the session file (guest or wallet)
	StatePath    string   // Path to the local key-value store file
	LogPath      string   // Debug log file; the TUI owns stdout
	NATSURL      string   // Live updates broker
	DatabaseURL  string   // Optional: write tips straight to Postgres
	RedisAddr    string   // Token price cache
	KafkaBrokers []string // Optional: inconsistency reports
	WalletBridge string   // Local signer bridge that submits transfers
	SolanaRPC    string   // JSON-RPC endpoint used to confirm signatures
	TipToken     string   // Token symbol used for tips
	Preview      bool     // Render image thumbnails in the tip view
}

// Load reads configuration from environment variables.
//
//	TERMINALMEME_API          : backend URL (default: https://api.memes.example)
//	TERMINALMEME_SESSION      : session file (default: ~/.config/terminalmeme/session)
//	TERMINALMEME_STATE        : local store (default: ~/.config/terminalmeme/state.json)
//	TERMINALMEME_LOG          : debug log (default: ~/.config/terminalmeme/debug.log)
//	TERMINALMEME_NATS         : NATS URL (default: nats://127.0.0.1:4222)
//	TERMINALMEME_DATABASE_URL : Postgres DSN for tips (optional)
//	TERMINALMEME_REDIS        : Redis address (default: 127.0.0.1:6379)
//	TERMINALMEME_KAFKA        : comma separated brokers (optional)
//	TERMINALMEME_WALLET_BRIDGE: signer bridge (default: http://127.0.0.1:8787)
//	TERMINALMEME_SOLANA_RPC   : RPC URL (default: https://api.mainnet-beta.solana.com)
//	TERMINALMEME_TOKEN        : tip token symbol (default: SOL)
//	TERMINALMEME_PREVIEW      : "0" disables image thumbnails
func Load() (Config, error) {
	api := getenv("TERMINALMEME_API", "https://api.memes.example")
	parsed, err := url.Parse(api)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return Config{}, fmt.Errorf("invalid TERMINALMEME_API: must be an absolute URL")
	}
	if parsed.Scheme != "https" {
		return Config{}, fmt.Errorf("invalid TERMINALMEME_API: only https is allowed")
	}
	api = strings.TrimRight(parsed.String(), "/")

	rpc := getenv("TERMINALMEME_SOLANA_RPC", "https://api.mainnet-beta.solana.com")
	if u, err := url.Parse(rpc); err != nil || u.Host == "" {
		return Config{}, fmt.Errorf("invalid TERMINALMEME_SOLANA_RPC: must be an absolute URL")
	}

	dir, err := configDir()
	if err != nil {
		return Config{}, err
	}

	var brokers []string
	for _, b := range strings.Split(os.Getenv("TERMINALMEME_KAFKA"), ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}

	return Config{
		APIURL:       api,
		SessionPath:  getenv("TERMINALMEME_SESSION", filepath.Join(dir, "session")),
		StatePath:    getenv("TERMINALMEME_STATE", filepath.Join(dir, "state.json")),
		LogPath:      getenv("TERMINALMEME_LOG", filepath.Join(dir, "debug.log")),
		NATSURL:      getenv("TERMINALMEME_NATS", "nats://127.0.0.1:4222"),
		DatabaseURL:  strings.TrimSpace(os.Getenv("TERMINALMEME_DATABASE_URL")),
		RedisAddr:    getenv("TERMINALMEME_REDIS", "127.0.0.1:6379"),
		KafkaBrokers: brokers,
		WalletBridge: strings.TrimRight(getenv("TERMINALMEME_WALLET_BRIDGE", "http://127.0.0.1:8787"), "/"),
		SolanaRPC:    rpc,
		TipToken:     strings.ToUpper(getenv("TERMINALMEME_TOKEN", "SOL")),
		Preview:      getenv("TERMINALMEME_PREVIEW", "1") != "0",
	}, nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "terminalmeme"), nil
}
