// Package config loads team service configuration from flags, environment variables and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Server  ServerConfig
	Storage StorageConfig
	Team    TeamConfig
	Hooks   HooksConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port           string        // default: 8080
	ReadTimeout    time.Duration // default: 15s
	WriteTimeout   time.Duration // default: 15s; 0 keeps SSE streams open
	IdleTimeout    time.Duration // default: 60s
	AllowedOrigins []string      // CORS origins; empty allows any
}

// StorageConfig locates the registry database and the invite store.
type StorageConfig struct {
	DataPath string // default: ~/.teamsvc
	// InviteStoreInMemory keeps pending invites in memory only. Invites are
	// short-lived, so losing them on restart is acceptable in development.
	InviteStoreInMemory bool
}

// RegistryPath is the SQLite database holding islands and players.
func (s StorageConfig) RegistryPath() string {
	return filepath.Join(s.DataPath, "registry.db")
}

// InvitePath is the Badger directory holding pending invites. Empty means in memory.
func (s StorageConfig) InvitePath() string {
	if s.InviteStoreInMemory {
		return ""
	}
	return filepath.Join(s.DataPath, "invites")
}

// TeamConfig holds invite rules.
type TeamConfig struct {
	// InviteCooldown is the minimum gap between invites from one island to
	// one player. Zero disables it.
	InviteCooldown time.Duration
	// DefaultMaxMembers applies to islands without their own cap.
	DefaultMaxMembers int
	// DefaultMinInviteRank applies to islands without their own setting.
	DefaultMinInviteRank int
	// CooldownSweepInterval controls how often expired cooldowns are dropped.
	CooldownSweepInterval time.Duration
	// InviteRatePerMinute caps invite commands per player. Zero disables it.
	InviteRatePerMinute int
	// InviteRateBurst is how many invite commands a player may send at once.
	InviteRateBurst int
}

// HooksConfig configures the external invite veto webhook.
type HooksConfig struct {
	WebhookURL        string
	WebhookTimeout    time.Duration
	WebhookFailClosed bool
}

// LoadConfig loads configuration from the process arguments.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load loads configuration with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("teamsvc", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")

	serverPort := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	corsOrigins := fs.String("cors-origins", "", "Comma-separated CORS origins (default: any)")

	dataPath := fs.String("data-path", "", "Directory for the registry and invite store")
	inviteInMemory := fs.String("invite-store-in-memory", "", "Keep pending invites in memory (default: false)")

	inviteCooldown := fs.String("invite-cooldown", "", "Minimum gap between invites to the same player (default: 60s)")
	maxMembers := fs.String("default-max-members", "", "Team size cap for islands without one (default: 4)")
	minInviteRank := fs.String("default-min-invite-rank", "", "Lowest rank allowed to invite (default: 500)")
	sweepInterval := fs.String("cooldown-sweep-interval", "", "How often expired cooldowns are dropped (default: 5m)")
	ratePerMinute := fs.String("invite-rate-per-minute", "", "Invite commands allowed per player per minute, 0 disables (default: 30)")
	rateBurst := fs.String("invite-rate-burst", "", "Invite command burst per player (default: 5)")

	webhookURL := fs.String("invite-webhook-url", "", "URL consulted before an invite is created")
	webhookTimeout := fs.String("invite-webhook-timeout", "", "Invite webhook timeout (default: 2s)")
	webhookFailClosed := fs.String("invite-webhook-fail-closed", "", "Cancel invites when the webhook fails (default: false)")

	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Port:           getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			AllowedOrigins: splitList(getConfigValue(*corsOrigins, "CORS_ALLOWED_ORIGINS", "")),
		},
		Storage: StorageConfig{
			DataPath:            getConfigValue(*dataPath, "DATA_PATH", ""),
			InviteStoreInMemory: getBoolConfigValue(*inviteInMemory, "INVITE_STORE_IN_MEMORY", false),
		},
		Hooks: HooksConfig{
			WebhookURL:        getConfigValue(*webhookURL, "INVITE_WEBHOOK_URL", ""),
			WebhookFailClosed: getBoolConfigValue(*webhookFailClosed, "INVITE_WEBHOOK_FAIL_CLOSED", false),
		},
	}

	var err error
	if cfg.Team.DefaultMaxMembers, err = getIntConfigValue(*maxMembers, "DEFAULT_MAX_MEMBERS", 4); err != nil {
		return nil, err
	}
	if cfg.Team.DefaultMinInviteRank, err = getIntConfigValue(*minInviteRank, "DEFAULT_MIN_INVITE_RANK", 500); err != nil {
		return nil, err
	}
	if cfg.Team.InviteRatePerMinute, err = getIntConfigValue(*ratePerMinute, "INVITE_RATE_PER_MINUTE", 30); err != nil {
		return nil, err
	}
	if cfg.Team.InviteRateBurst, err = getIntConfigValue(*rateBurst, "INVITE_RATE_BURST", 5); err != nil {
		return nil, err
	}

	durations := []struct {
		dst      *time.Duration
		flag     string
		envKey   string
		fallback string
	}{
		{&cfg.Server.ReadTimeout, *readTimeout, "SERVER_READ_TIMEOUT", "15s"},
		{&cfg.Server.WriteTimeout, *writeTimeout, "SERVER_WRITE_TIMEOUT", "15s"},
		{&cfg.Server.IdleTimeout, *idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"},
		{&cfg.Team.InviteCooldown, *inviteCooldown, "INVITE_COOLDOWN", "60s"},
		{&cfg.Team.CooldownSweepInterval, *sweepInterval, "COOLDOWN_SWEEP_INTERVAL", "5m"},
		{&cfg.Hooks.WebhookTimeout, *webhookTimeout, "INVITE_WEBHOOK_TIMEOUT", "2s"},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flag, d.envKey, d.fallback)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.envKey, raw, err)
		}
		*d.dst = parsed
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %q (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Storage.DataPath == "" {
		return errors.New("data path cannot be empty after expansion")
	}

	if c.Team.DefaultMaxMembers < 1 {
		return fmt.Errorf("default max members must be at least 1, got %d", c.Team.DefaultMaxMembers)
	}
	if c.Team.DefaultMinInviteRank < 0 {
		return fmt.Errorf("default min invite rank cannot be negative, got %d", c.Team.DefaultMinInviteRank)
	}
	if c.Team.InviteCooldown < 0 {
		return errors.New("invite cooldown cannot be negative")
	}
	if c.Team.CooldownSweepInterval < 0 {
		return errors.New("cooldown sweep interval cannot be negative")
	}
	if c.Team.InviteRatePerMinute < 0 {
		return errors.New("invite rate cannot be negative")
	}
	if c.Team.InviteRatePerMinute > 0 && c.Team.InviteRateBurst < 1 {
		return fmt.Errorf("invite rate burst must be at least 1, got %d", c.Team.InviteRateBurst)
	}

	if c.Hooks.WebhookURL != "" {
		u, err := url.Parse(c.Hooks.WebhookURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid invite webhook URL: %q", c.Hooks.WebhookURL)
		}
		if c.Hooks.WebhookTimeout <= 0 {
			return errors.New("invite webhook timeout must be positive")
		}
	}

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty, uses defaultPath.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandDataPath defaults the data directory to ~/.teamsvc.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	expanded, err := expandPath(c.Storage.DataPath, filepath.Join(homeDir, ".teamsvc"))
	if err != nil {
		return err
	}
	c.Storage.DataPath = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) (int, error) {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(strValue))
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", envKey, strValue, err)
	}
	return n, nil
}

// splitList parses a comma-separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		// Env vars already set take precedence over the file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
