package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server  ServerConfig
	Store   StoreConfig
	Backend BackendConfig
	Push    PushConfig
	Poll    PollConfig
	CORS    CORSConfig
	Session SessionConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string
	Host string
	Addr string // Combined host:port for convenience
}

// StoreConfig holds the durable session-store configuration
type StoreConfig struct {
	Path string
}

// BackendConfig holds the rental management backend configuration
type BackendConfig struct {
	BaseURL string
}

// PushConfig holds the real-time channel configuration
type PushConfig struct {
	URL string
}

// PollConfig holds the poll fallback configuration
type PollConfig struct {
	Interval time.Duration
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// SessionConfig holds credential-at-rest configuration.
// FernetKey is a base64-encoded 32-byte fernet key; when empty the
// bearer token is stored unencrypted (development only).
type SessionConfig struct {
	FernetKey string
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	pollInterval, err := time.ParseDuration(getEnv("POLL_INTERVAL", "15s"))
	if err != nil {
		return nil, fmt.Errorf("invalid POLL_INTERVAL: %w", err)
	}

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "4051"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		Store: StoreConfig{
			Path: getEnv("STORE_PATH", "./data/tenant_agent.db"),
		},
		Backend: BackendConfig{
			BaseURL: getEnv("BACKEND_URL", "http://localhost:4050"),
		},
		Push: PushConfig{
			URL: getEnv("PUSH_URL", "ws://localhost:4050/ws"),
		},
		Poll: PollConfig{
			Interval: pollInterval,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{
				"http://localhost:3000",
				"http://localhost",
			},
		},
		Session: SessionConfig{
			FernetKey: getEnv("SESSION_FERNET_KEY", ""),
		},
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	return config, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
