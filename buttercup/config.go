package buttercup

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/disgoorg/log"
	"github.com/disgoorg/snowflake/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/topi314/buttercup/blossom"
)

const EnvPrefix = "BUTTERCUP_"

func DefaultConfig() Config {
	return Config{
		Log: LogConfig{
			Level: log.LevelInfo,
		},
		Discord: DiscordConfig{
			SyncCommands: true,
		},
		Blossom: BlossomConfig{
			BaseURL:       blossom.DefaultBaseURL,
			TokenLifetime: blossom.DefaultTokenLifetime,
			Timeout:       10 * time.Second,
		},
		Search: SearchConfig{
			DiscordPageSize: 5,
			RequestPageSize: 25,
			CacheCapacity:   10,
		},
		Database: DatabaseConfig{
			Type: DatabaseTypeSQLite,
			SQLite: SQLiteConfig{
				Path: "./buttercup.db",
			},
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     5432,
				Username: "postgres",
				Database: "buttercup",
				SSLMode:  "disable",
			},
		},
		Otel: OtelConfig{
			InstanceID: "01",
			Metrics: MetricsConfig{
				ListenAddr: ":8081",
				Endpoint:   "/metrics",
			},
		},
	}
}

// ReadConfig loads the yaml file at path and the BUTTERCUP_ environment variables on top of the defaults.
// Nested keys in environment variables are separated by a double underscore: BUTTERCUP_BLOSSOM__API_KEY.
func ReadConfig(path string) (Config, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return Config{}, fmt.Errorf("error loading config file %q: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil); err != nil {
		return Config{}, fmt.Errorf("error loading env config: %w", err)
	}

	cfg := DefaultConfig()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type Config struct {
	DevMode     bool           `koanf:"dev_mode"`
	DevGuildIDs []snowflake.ID `koanf:"dev_guild_ids"`
	Log         LogConfig      `koanf:"log"`
	Discord     DiscordConfig  `koanf:"discord"`
	Blossom     BlossomConfig  `koanf:"blossom"`
	Search      SearchConfig   `koanf:"search"`
	Database    DatabaseConfig `koanf:"database"`
	Otel        OtelConfig     `koanf:"otel"`
}

func (c Config) String() string {
	return fmt.Sprintf("\n DevMode: %t\n DevGuildIDs: %v\n Log: %s\n Discord: %s\n Blossom: %s\n Search: %s\n Database: %s\n Otel: %s\n",
		c.DevMode,
		c.DevGuildIDs,
		c.Log,
		c.Discord,
		c.Blossom,
		c.Search,
		c.Database,
		c.Otel,
	)
}

func (c Config) Validate() error {
	if err := c.Log.Validate(); err != nil {
		return err
	}
	if err := c.Discord.Validate(); err != nil {
		return err
	}
	if err := c.Blossom.Validate(); err != nil {
		return err
	}
	if err := c.Search.Validate(); err != nil {
		return err
	}
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if err := c.Otel.Validate(); err != nil {
		return err
	}
	return nil
}

type LogConfig struct {
	Level     log.Level `koanf:"level"`
	AddSource bool      `koanf:"add_source"`
}

func (c LogConfig) String() string {
	return fmt.Sprintf("\n  Level: %v\n  AddSource: %v",
		c.Level,
		c.AddSource,
	)
}

func (c LogConfig) Validate() error {
	if c.Level < log.LevelTrace || c.Level > log.LevelPanic {
		return fmt.Errorf("log.level must be one of: 0 (trace), 1 (debug), 2 (info), 3 (warn), 4 (error), 5 (fatal), 6 (panic)")
	}
	return nil
}

func (c LogConfig) Flags() int {
	flags := log.LstdFlags
	if c.AddSource {
		flags |= log.Lshortfile
	}
	return flags
}

type DiscordConfig struct {
	Token        string `koanf:"token"`
	SyncCommands bool   `koanf:"sync_commands"`
}

func (c DiscordConfig) String() string {
	return fmt.Sprintf("\n  Token: %s\n  SyncCommands: %t",
		strings.Repeat("*", len(c.Token)),
		c.SyncCommands,
	)
}

func (c DiscordConfig) Validate() error {
	if c.Token == "" {
		return fmt.Errorf("discord.token must be set")
	}
	return nil
}

type BlossomConfig struct {
	BaseURL       string        `koanf:"base_url"`
	Email         string        `koanf:"email"`
	Password      string        `koanf:"password"`
	APIKey        string        `koanf:"api_key"`
	TokenLifetime time.Duration `koanf:"token_lifetime"`
	Timeout       time.Duration `koanf:"timeout"`
}

func (c BlossomConfig) String() string {
	return fmt.Sprintf("\n  BaseURL: %s\n  Email: %s\n  Password: %s\n  APIKey: %s\n  TokenLifetime: %s\n  Timeout: %s",
		c.BaseURL,
		c.Email,
		strings.Repeat("*", len(c.Password)),
		strings.Repeat("*", len(c.APIKey)),
		c.TokenLifetime,
		c.Timeout,
	)
}

func (c BlossomConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("blossom.base_url must be set")
	}
	if c.Email == "" {
		return fmt.Errorf("blossom.email must be set")
	}
	if c.Password == "" {
		return fmt.Errorf("blossom.password must be set")
	}
	if c.APIKey == "" {
		return fmt.Errorf("blossom.api_key must be set")
	}
	return nil
}

func (c BlossomConfig) ClientConfig() blossom.Config {
	return blossom.Config{
		BaseURL:       c.BaseURL,
		Email:         c.Email,
		Password:      c.Password,
		APIKey:        c.APIKey,
		TokenLifetime: c.TokenLifetime,
		Timeout:       c.Timeout,
	}
}

type SearchConfig struct {
	DiscordPageSize int `koanf:"discord_page_size"`
	RequestPageSize int `koanf:"request_page_size"`
	CacheCapacity   int `koanf:"cache_capacity"`
}

func (c SearchConfig) String() string {
	return fmt.Sprintf("\n  DiscordPageSize: %d\n  RequestPageSize: %d\n  CacheCapacity: %d",
		c.DiscordPageSize,
		c.RequestPageSize,
		c.CacheCapacity,
	)
}

func (c SearchConfig) Validate() error {
	if c.DiscordPageSize <= 0 {
		return fmt.Errorf("search.discord_page_size must be greater than 0")
	}
	if c.RequestPageSize < c.DiscordPageSize {
		return fmt.Errorf("search.request_page_size must be at least search.discord_page_size")
	}
	if c.RequestPageSize%c.DiscordPageSize != 0 {
		return fmt.Errorf("search.request_page_size must be a multiple of search.discord_page_size")
	}
	if c.CacheCapacity <= 0 {
		return fmt.Errorf("search.cache_capacity must be greater than 0")
	}
	return nil
}

type DatabaseType string

const (
	DatabaseTypePostgres DatabaseType = "postgres"
	DatabaseTypeSQLite   DatabaseType = "sqlite"
)

type DatabaseConfig struct {
	Enabled  bool           `koanf:"enabled"`
	Type     DatabaseType   `koanf:"type"`
	Postgres PostgresConfig `koanf:"postgres"`
	SQLite   SQLiteConfig   `koanf:"sqlite"`
}

func (c DatabaseConfig) String() string {
	return fmt.Sprintf("\n  Enabled: %t\n  Type: %v\n  Postgres: %v\n  SQLite: %v",
		c.Enabled,
		c.Type,
		c.Postgres,
		c.SQLite,
	)
}

func (c DatabaseConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	switch c.Type {
	case DatabaseTypePostgres:
		return c.Postgres.Validate()
	case DatabaseTypeSQLite:
		return c.SQLite.Validate()
	default:
		return fmt.Errorf("unknown database type: %s", c.Type)
	}
}

type PostgresConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	Database string `koanf:"database"`
	SSLMode  string `koanf:"ssl_mode"`
}

func (c PostgresConfig) String() string {
	return fmt.Sprintf("\n   Host: %v\n   Port: %v\n   Username: %v\n   Password: %v\n   Database: %v\n   SSLMode: %v",
		c.Host,
		c.Port,
		c.Username,
		strings.Repeat("*", len(c.Password)),
		c.Database,
		c.SSLMode,
	)
}

func (c PostgresConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("database.postgres.host must be set")
	}
	if c.Port == 0 {
		return fmt.Errorf("database.postgres.port must be set")
	}
	if c.Username == "" {
		return fmt.Errorf("database.postgres.username must be set")
	}
	if c.Password == "" {
		return fmt.Errorf("database.postgres.password must be set")
	}
	if c.Database == "" {
		return fmt.Errorf("database.postgres.database must be set")
	}
	if c.SSLMode == "" {
		return fmt.Errorf("database.postgres.ssl_mode must be set")
	}
	return nil
}

// DataSourceName returns a postgres URL, so credentials with spaces or quotes survive.
func (c PostgresConfig) DataSourceName() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.Username, c.Password),
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.Database,
		RawQuery: url.Values{
			"sslmode":          {c.SSLMode},
			"application_name": {"buttercup"},
		}.Encode(),
	}
	return u.String()
}

type SQLiteConfig struct {
	Path string `koanf:"path"`
}

func (c SQLiteConfig) String() string {
	return fmt.Sprintf("\n   Path: %v",
		c.Path,
	)
}

func (c SQLiteConfig) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("database.sqlite.path must be set")
	}
	return nil
}

// DataSourceName waits for locks instead of failing, reactions write searches concurrently.
func (c SQLiteConfig) DataSourceName() string {
	return c.Path + "?" + url.Values{
		"_pragma": {"busy_timeout(5000)", "journal_mode(WAL)"},
	}.Encode()
}

type OtelConfig struct {
	Enabled    bool          `koanf:"enabled"`
	InstanceID string        `koanf:"instance_id"`
	Metrics    MetricsConfig `koanf:"metrics"`
}

func (c OtelConfig) String() string {
	return fmt.Sprintf("\n  Enabled: %t\n  InstanceID: %s\n  Metrics: %s",
		c.Enabled,
		c.InstanceID,
		c.Metrics,
	)
}

func (c OtelConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.InstanceID == "" {
		return fmt.Errorf("otel.instance_id must be set")
	}
	return c.Metrics.Validate()
}

type MetricsConfig struct {
	ListenAddr string `koanf:"listen_addr"`
	Endpoint   string `koanf:"endpoint"`
}

func (c MetricsConfig) String() string {
	return fmt.Sprintf("\n   ListenAddr: %v\n   Endpoint: %v",
		c.ListenAddr,
		c.Endpoint,
	)
}

func (c MetricsConfig) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("otel.metrics.listen_addr must be set")
	}
	if c.Endpoint == "" {
		return fmt.Errorf("otel.metrics.endpoint must be set")
	}
	return nil
}
