// Package config holds the typed englishhub configuration. Values are
// layered by viper: defaults, then englishhub.yaml, then ENGLISHHUB_*
// environment variables, then command-line flags.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/englishhub/englishhub/internal/logging"
	"github.com/englishhub/englishhub/internal/model"
	"github.com/englishhub/englishhub/internal/store"
)

// EnvPrefix is prepended to every environment variable viper consults.
const EnvPrefix = "ENGLISHHUB"

// Backends lists the accepted storage.backend values.
var Backends = []string{"sqlite", "postgres", "mysql", "local"}

// Config is the complete runtime configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Log     LogConfig     `mapstructure:"log"`
	MCP     MCPConfig     `mapstructure:"mcp"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`

	// LoginRateLimit is the number of login attempts allowed per client IP
	// per minute. Zero disables the limit.
	LoginRateLimit int `mapstructure:"login_rate_limit"`

	// TrustProxyHeaders derives the client IP from forwarding headers.
	// Only safe behind a reverse proxy that sets them.
	TrustProxyHeaders bool `mapstructure:"trust_proxy_headers"`
}

// StorageConfig selects and tunes the storage backend.
type StorageConfig struct {
	Backend        string        `mapstructure:"backend"`
	DSN            string        `mapstructure:"dsn"`
	DataDir        string        `mapstructure:"data_dir"`
	MaxOpenConns   int           `mapstructure:"max_open_conns"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// AuthConfig controls admin credentials and sessions.
type AuthConfig struct {
	JWTSecret           string        `mapstructure:"jwt_secret"`
	SessionTTL          time.Duration `mapstructure:"session_ttl"`
	BcryptCost          int           `mapstructure:"bcrypt_cost"`
	AdminUsername       string        `mapstructure:"admin_username"`
	SeedPassword        string        `mapstructure:"seed_password"`
	RequireSeedPassword bool          `mapstructure:"require_seed_password"`
}

// LogConfig controls log output.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MCPConfig controls the MCP catalog server.
type MCPConfig struct {
	Transport string `mapstructure:"transport"`
	Port      int    `mapstructure:"port"`
}

// DefaultDataDir returns ~/.englishhub, or .englishhub when the home
// directory is unknown.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".englishhub"
	}
	return filepath.Join(home, ".englishhub")
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ShutdownTimeout: 30 * time.Second,
			CORSOrigins:     []string{"*"},
			LoginRateLimit:  10,
		},
		Storage: StorageConfig{
			Backend:        "sqlite",
			DataDir:        DefaultDataDir(),
			MaxOpenConns:   10,
			ConnectTimeout: 30 * time.Second,
		},
		Auth: AuthConfig{
			SessionTTL:    24 * time.Hour,
			BcryptCost:    bcrypt.DefaultCost,
			AdminUsername: model.DefaultAdminUsername,
		},
		Log: LogConfig{
			Level:  "info",
			Format: logging.FormatText,
		},
		MCP: MCPConfig{
			Transport: "stdio",
			Port:      3001,
		},
	}
}

// Bind registers every key's default on v and wires the environment:
// ENGLISHHUB_SECTION_KEY for each key, plus DATABASE_URL as a fallback for
// storage.dsn.
func Bind(v *viper.Viper) {
	d := Default()
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("server.cors_origins", d.Server.CORSOrigins)
	v.SetDefault("server.login_rate_limit", d.Server.LoginRateLimit)
	v.SetDefault("server.trust_proxy_headers", false)

	v.SetDefault("storage.backend", d.Storage.Backend)
	v.SetDefault("storage.dsn", "")
	v.SetDefault("storage.data_dir", d.Storage.DataDir)
	v.SetDefault("storage.max_open_conns", d.Storage.MaxOpenConns)
	v.SetDefault("storage.connect_timeout", d.Storage.ConnectTimeout)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.session_ttl", d.Auth.SessionTTL)
	v.SetDefault("auth.bcrypt_cost", d.Auth.BcryptCost)
	v.SetDefault("auth.admin_username", d.Auth.AdminUsername)
	v.SetDefault("auth.seed_password", "")
	v.SetDefault("auth.require_seed_password", false)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	v.SetDefault("mcp.transport", d.MCP.Transport)
	v.SetDefault("mcp.port", d.MCP.Port)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("storage.dsn", EnvPrefix+"_STORAGE_DSN", "DATABASE_URL")
}

// Load decodes v into a Config and validates it. Bind must have been called
// on v first.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Storage.Backend = strings.ToLower(strings.TrimSpace(cfg.Storage.Backend))
	cfg.Log.Format = strings.ToLower(strings.TrimSpace(cfg.Log.Format))
	cfg.MCP.Transport = strings.ToLower(strings.TrimSpace(cfg.MCP.Transport))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port: %d is out of range", c.Server.Port))
	}
	if c.Server.LoginRateLimit < 0 {
		errs = append(errs, errors.New("server.login_rate_limit: must not be negative"))
	}
	if !slices.Contains(Backends, c.Storage.Backend) {
		errs = append(errs, fmt.Errorf("storage.backend: %q is not one of %s", c.Storage.Backend, strings.Join(Backends, ", ")))
	}
	switch c.Storage.Backend {
	case "postgres", "mysql":
		if c.Storage.DSN == "" {
			errs = append(errs, fmt.Errorf("storage.dsn: required for the %s backend (or set DATABASE_URL)", c.Storage.Backend))
		}
	case "local":
		if c.Storage.DataDir == "" {
			errs = append(errs, errors.New("storage.data_dir: required for the local backend"))
		}
	}
	if c.Auth.SessionTTL <= 0 {
		errs = append(errs, errors.New("auth.session_ttl: must be positive"))
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("auth.bcrypt_cost: must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	if strings.TrimSpace(c.Auth.AdminUsername) == "" {
		errs = append(errs, errors.New("auth.admin_username: must not be empty"))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if !slices.Contains([]string{logging.FormatText, logging.FormatJSON, logging.FormatPretty}, c.Log.Format) {
		errs = append(errs, fmt.Errorf("log.format: %q is not one of text, json, pretty", c.Log.Format))
	}
	if c.MCP.Transport != "stdio" && c.MCP.Transport != "http" {
		errs = append(errs, fmt.Errorf("mcp.transport: %q is not one of stdio, http", c.MCP.Transport))
	}
	return errors.Join(errs...)
}

// Addr returns the HTTP listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Options converts the storage section into backend options.
func (s StorageConfig) Options() store.Options {
	return store.Options{
		DSN:            s.DSN,
		DataDir:        s.DataDir,
		MaxOpenConns:   s.MaxOpenConns,
		ConnectTimeout: s.ConnectTimeout,
	}
}

// SigningSecret returns the session signing key. When none is configured a
// random key is generated and generated is true; sessions then end with the
// process.
func (a AuthConfig) SigningSecret() (secret []byte, generated bool, err error) {
	if a.JWTSecret != "" {
		return []byte(a.JWTSecret), false, nil
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, false, fmt.Errorf("generate session secret: %w", err)
	}
	return []byte(hex.EncodeToString(buf)), true, nil
}

const redacted = "********"

// YAML renders the configuration with secrets masked.
func (c *Config) YAML() ([]byte, error) {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return redacted
	}
	view := map[string]any{
		"server": map[string]any{
			"host":                c.Server.Host,
			"port":                c.Server.Port,
			"shutdown_timeout":    c.Server.ShutdownTimeout.String(),
			"cors_origins":        c.Server.CORSOrigins,
			"login_rate_limit":    c.Server.LoginRateLimit,
			"trust_proxy_headers": c.Server.TrustProxyHeaders,
		},
		"storage": map[string]any{
			"backend":         c.Storage.Backend,
			"dsn":             RedactDSN(c.Storage.DSN),
			"data_dir":        c.Storage.DataDir,
			"max_open_conns":  c.Storage.MaxOpenConns,
			"connect_timeout": c.Storage.ConnectTimeout.String(),
		},
		"auth": map[string]any{
			"jwt_secret":            mask(c.Auth.JWTSecret),
			"session_ttl":           c.Auth.SessionTTL.String(),
			"bcrypt_cost":           c.Auth.BcryptCost,
			"admin_username":        c.Auth.AdminUsername,
			"seed_password":         mask(c.Auth.SeedPassword),
			"require_seed_password": c.Auth.RequireSeedPassword,
		},
		"log": map[string]any{
			"level":  c.Log.Level,
			"format": c.Log.Format,
		},
		"mcp": map[string]any{
			"transport": c.MCP.Transport,
			"port":      c.MCP.Port,
		},
	}
	return yaml.Marshal(view)
}

// RedactDSN hides the password in URL-style (postgres://u:p@h/db) and
// MySQL-style (u:p@tcp(h)/db) connection strings.
func RedactDSN(dsn string) string {
	if dsn == "" {
		return ""
	}
	if u, err := url.Parse(dsn); err == nil && u.Scheme != "" && u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), "xxxxx")
		}
		return u.String()
	}
	at := strings.LastIndex(dsn, "@")
	if at < 0 {
		return dsn
	}
	if colon := strings.Index(dsn[:at], ":"); colon >= 0 {
		return dsn[:colon+1] + "xxxxx" + dsn[at:]
	}
	return dsn
}
