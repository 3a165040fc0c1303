package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	DataDir   string       `mapstructure:"data_dir"`
	ServerURL string       `mapstructure:"server_url"`
	LogLevel  string       `mapstructure:"log_level"`
	Server    ServerConfig `mapstructure:"server"`
	Redis     RedisConfig  `mapstructure:"redis"`
}

type ServerConfig struct {
	ListenAddr      string        `mapstructure:"listen_addr"`
	DatabaseURL     string        `mapstructure:"database_url"`
	SessionBackend  string        `mapstructure:"session_backend"` // db, redis
	SessionTTL      time.Duration `mapstructure:"session_ttl"`
	CookieName      string        `mapstructure:"cookie_name"`
	CookieSecure    bool          `mapstructure:"cookie_secure"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	SeedNewUsers    bool          `mapstructure:"seed_new_users"`
	PrettyLog       bool          `mapstructure:"pretty_log"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type RedisConfig struct {
	Addr           string        `mapstructure:"addr"`
	Username       string        `mapstructure:"username"`
	Password       string        `mapstructure:"password"`
	DB             int           `mapstructure:"db"`
	DialTimeout    time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	PoolSize       int           `mapstructure:"pool_size"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	RetryInterval  time.Duration `mapstructure:"retry_interval"`
	MaxWait        time.Duration `mapstructure:"max_wait"`
	PingTimeout    time.Duration `mapstructure:"ping_timeout"`
	WarnThreshold  int           `mapstructure:"warn_threshold"`
}

// Load resolves configuration from defaults, $DATA_DIR/config.yaml,
// BMVAULT_* environment variables and, when given, command line flags.
func Load(flags *pflag.FlagSet) (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	defaultDataDir := filepath.Join(homeDir, ".bmvault")

	v.SetDefault("data_dir", defaultDataDir)
	v.SetDefault("server_url", "http://localhost:5000")
	v.SetDefault("log_level", "info")

	v.SetDefault("server.listen_addr", ":5000")
	v.SetDefault("server.database_url", "")
	v.SetDefault("server.session_backend", "db")
	v.SetDefault("server.session_ttl", 24*time.Hour)
	v.SetDefault("server.cookie_name", "bmvault_session")
	v.SetDefault("server.cookie_secure", false)
	v.SetDefault("server.cors_origins", []string{"http://localhost:5173"})
	v.SetDefault("server.seed_new_users", true)
	v.SetDefault("server.pretty_log", true)
	v.SetDefault("server.request_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.username", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.connect_timeout", 30*time.Second)
	v.SetDefault("redis.retry_interval", 2*time.Second)
	v.SetDefault("redis.max_wait", 10*time.Second)
	v.SetDefault("redis.ping_timeout", 5*time.Second)
	v.SetDefault("redis.warn_threshold", 3)

	// Environment variable overrides: server.listen_addr -> BMVAULT_SERVER_LISTEN_ADDR
	v.SetEnvPrefix("BMVAULT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if f := flags.Lookup("data-dir"); f != nil {
			_ = v.BindPFlag("data_dir", f)
		}
		if f := flags.Lookup("server"); f != nil {
			_ = v.BindPFlag("server_url", f)
		}
	}

	// Config file lives in the data dir, which may itself come from env or flags
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(v.GetString("data_dir"))

	// Read config file if exists (ignore error if not found)
	_ = v.ReadInConfig()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.ServerURL = strings.TrimRight(cfg.ServerURL, "/")
	if cfg.Server.DatabaseURL == "" {
		cfg.Server.DatabaseURL = "sqlite:///" + cfg.ServerDBPath()
	}

	// Ensure data directory exists
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// SessionPath is where the client keeps its session token between runs.
func (c *Config) SessionPath() string {
	return filepath.Join(c.DataDir, "session")
}

// LogPath is the client log file.
func (c *Config) LogPath() string {
	return filepath.Join(c.DataDir, "bmvault.log")
}

// ServerDBPath is the default SQLite database used by `bmvault serve`.
func (c *Config) ServerDBPath() string {
	return filepath.Join(c.DataDir, "server.db")
}
