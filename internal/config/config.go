package config

import (
	"encoding/json"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	ServerAddress string    `json:"serverAddress"`
	DatabasePath  string    `json:"databasePath"`
	DatabaseURL   string    `json:"databaseUrl"`
	Push          Push      `json:"push"`
	Security      Security  `json:"security"`
	Bootstrap     Bootstrap `json:"bootstrap"`
	Fanout        Fanout    `json:"fanout"`
	Login         Login     `json:"login"`
}

// Push configuration for the FCM transport
type Push struct {
	CredentialsPath string `json:"credentialsPath"`
	Enabled         bool   `json:"enabled"`
}

// Security configuration
type Security struct {
	APIKey         string `json:"apiKey"`
	APIKeyHeader   string `json:"apiKeyHeader"`
	PreVerifyToken string `json:"preVerifyToken"`
}

// Bootstrap seeds the first staff principal on an empty database. The
// generated API key is logged once at startup and never stored in
// plaintext.
type Bootstrap struct {
	StaffEmail    string `json:"staffEmail"`
	StaffName     string `json:"staffName"`
	StaffPassword string `json:"staffPassword"`
}

// Fanout holds per-event-class rate budgets and shaping limits
type Fanout struct {
	ChatMaxPerMinute      int `json:"chatMaxPerMinute"`
	ScheduleMaxPerWindow  int `json:"scheduleMaxPerWindow"`
	ScheduleWindowMinutes int `json:"scheduleWindowMinutes"`
	BodyLimit             int `json:"bodyLimit"`
}

// Login holds the credential-check rate budget
type Login struct {
	MaxAttempts   int `json:"maxAttempts"`
	WindowMinutes int `json:"windowMinutes"`
}

// UsePostgres returns true if PostgreSQL should be used
func (c *Config) UsePostgres() bool {
	return c.DatabaseURL != ""
}

// Default configuration
func defaultConfig() *Config {
	return &Config{
		ServerAddress: ":5000",
		DatabasePath:  "tourlink.db",
		Push: Push{
			CredentialsPath: "firebase-credentials.json",
			Enabled:         true,
		},
		Security: Security{
			APIKey:       "CHANGE_THIS_TO_A_SECURE_API_KEY_AT_LEAST_32_CHARS",
			APIKeyHeader: "X-API-Key",
		},
		Fanout: Fanout{
			ChatMaxPerMinute:      12,
			ScheduleMaxPerWindow:  3,
			ScheduleWindowMinutes: 10,
			BodyLimit:             240,
		},
		Login: Login{
			MaxAttempts:   10,
			WindowMinutes: 15,
		},
	}
}

// Load loads configuration from file or environment
func Load() (*Config, error) {
	// A local .env is optional; real deployments set the environment
	godotenv.Load()

	cfg := defaultConfig()

	// Try to load from config file
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.json"
	}

	if data, err := os.ReadFile(configPath); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	// Override from environment variables
	if addr := os.Getenv("SERVER_ADDRESS"); addr != "" {
		cfg.ServerAddress = addr
	}
	if dbPath := os.Getenv("DATABASE_PATH"); dbPath != "" {
		cfg.DatabasePath = dbPath
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.DatabaseURL = dbURL
	}
	if credsPath := os.Getenv("PUSH_CREDENTIALS_PATH"); credsPath != "" {
		cfg.Push.CredentialsPath = credsPath
	}
	if enabled := os.Getenv("PUSH_ENABLED"); enabled != "" {
		cfg.Push.Enabled = enabled == "true" || enabled == "1"
	}
	if apiKey := os.Getenv("API_KEY"); apiKey != "" {
		cfg.Security.APIKey = apiKey
	}
	if token := os.Getenv("PRE_VERIFY_TOKEN"); token != "" {
		cfg.Security.PreVerifyToken = token
	}
	if email := os.Getenv("BOOTSTRAP_STAFF_EMAIL"); email != "" {
		cfg.Bootstrap.StaffEmail = email
	}
	if name := os.Getenv("BOOTSTRAP_STAFF_NAME"); name != "" {
		cfg.Bootstrap.StaffName = name
	}
	if password := os.Getenv("BOOTSTRAP_STAFF_PASSWORD"); password != "" {
		cfg.Bootstrap.StaffPassword = password
	}
	if max := os.Getenv("LOGIN_MAX_ATTEMPTS"); max != "" {
		if n, err := strconv.Atoi(max); err == nil && n > 0 {
			cfg.Login.MaxAttempts = n
		}
	}
	if window := os.Getenv("LOGIN_WINDOW_MINUTES"); window != "" {
		if n, err := strconv.Atoi(window); err == nil && n > 0 {
			cfg.Login.WindowMinutes = n
		}
	}

	return cfg, nil
}
