package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"burnwatch/internal/evmlog"
	"burnwatch/internal/model"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"

	defaultPollInterval   = 60 * time.Second
	defaultAmountDecimals = 6
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	DBDriver     string        `mapstructure:"db-driver"`
	DBPath       string        `mapstructure:"db-path"`
	PGDSN        string        `mapstructure:"pg-dsn"`
	Redis        Redis         `mapstructure:"redis"`
	PollInterval time.Duration `mapstructure:"-"`
	MaxRetries   int           `mapstructure:"max-retries"`
	RetryDelay   time.Duration `mapstructure:"retry-delay"`
	Telegram     Telegram      `mapstructure:"telegram"`
	EventsOut    string        `mapstructure:"events-out"`
	MetricsAddr  string        `mapstructure:"metrics-addr"`
	LogLevel     string        `mapstructure:"log-level"`
	Networks     []Network     `mapstructure:"networks"`
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type Telegram struct {
	BotToken string `mapstructure:"bot-token"`
	ChatID   string `mapstructure:"chat-id"`
	APIURL   string `mapstructure:"api-url"`
}

// Network is one entry of the networks list as written in the config file.
type Network struct {
	Name           string   `mapstructure:"name"`
	NetworkID      uint64   `mapstructure:"network-id"`
	RPC            RPC      `mapstructure:"rpc"`
	Contract       Contract `mapstructure:"contract"`
	ExplorerURL    string   `mapstructure:"explorer-url"`
	AmountDecimals *uint8   `mapstructure:"amount-decimals"`
}

type RPC struct {
	URL   string  `mapstructure:"url"`
	Key   string  `mapstructure:"key"`
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

type Contract struct {
	Address         string   `mapstructure:"address"`
	FromBlockHeight uint64   `mapstructure:"from-block-height"`
	Events          []string `mapstructure:"events"`
	ToBlock         string   `mapstructure:"to-block"`
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("WATCHER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault("db-driver", DriverSQLite)
	v.SetDefault("db-path", "./persist/checkpoints.db")
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-delay", 5*time.Second)
	v.SetDefault("log-level", "info")
	v.SetDefault("pg-dsn", "")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "burnwatch:")
	v.SetDefault("events-out", "")
	v.SetDefault("metrics-addr", "")
	v.SetDefault("telegram.api-url", "")
	v.SetDefault("telegram.bot-token", "")
	v.SetDefault("telegram.chat-id", "")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.PollInterval = pollInterval(v)

	return cfg, nil
}

// pollInterval prefers poll-interval and falls back to the legacy
// loop-timeout key, which counts seconds.
func pollInterval(v *viper.Viper) time.Duration {
	switch {
	case v.IsSet("poll-interval"):
		return v.GetDuration("poll-interval")
	case v.IsSet("loop-timeout"):
		return time.Duration(v.GetInt64("loop-timeout")) * time.Second
	default:
		return defaultPollInterval
	}
}

// Validate checks the global settings.
func (c Config) Validate() error {
	switch c.DBDriver {
	case DriverSQLite:
		if c.DBPath == "" {
			return errors.New("db-path is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.PGDSN == "" {
			return errors.New("pg-dsn is required for the postgres driver")
		}
	case DriverRedis:
		if c.Redis.Addr == "" {
			return errors.New("redis.addr is required for the redis driver")
		}
	default:
		return fmt.Errorf("unknown db-driver %q", c.DBDriver)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll-interval must be positive, got %s", c.PollInterval)
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("max-retries must be at least 1, got %d", c.MaxRetries)
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("retry-delay must not be negative, got %s", c.RetryDelay)
	}
	if c.Telegram.BotToken != "" && c.Telegram.ChatID == "" {
		return errors.New("telegram.chat-id is required when telegram.bot-token is set")
	}
	if len(c.Networks) == 0 {
		return errors.New("at least one network must be configured")
	}
	return nil
}

// Descriptors validates every network entry and converts it into a
// NetworkDescriptor. Contract addresses are lower-cased hex.
func (c Config) Descriptors() ([]model.NetworkDescriptor, error) {
	out := make([]model.NetworkDescriptor, 0, len(c.Networks))
	names := make(map[string]bool, len(c.Networks))
	contracts := make(map[string]string, len(c.Networks))

	for i, n := range c.Networks {
		d, err := n.descriptor()
		if err != nil {
			label := n.Name
			if label == "" {
				label = fmt.Sprintf("#%d", i)
			}
			return nil, fmt.Errorf("network %s: %w", label, err)
		}
		if names[d.Name] {
			return nil, fmt.Errorf("network %s: duplicate name", d.Name)
		}
		names[d.Name] = true
		if other, ok := contracts[d.ContractAddress]; ok {
			return nil, fmt.Errorf("network %s: contract %s already watched by %s", d.Name, d.ContractAddress, other)
		}
		contracts[d.ContractAddress] = d.Name
		out = append(out, d)
	}
	return out, nil
}

func (n Network) descriptor() (model.NetworkDescriptor, error) {
	name := strings.TrimSpace(n.Name)
	if name == "" {
		return model.NetworkDescriptor{}, errors.New("name is required")
	}
	if strings.TrimSpace(n.RPC.URL) == "" {
		return model.NetworkDescriptor{}, errors.New("rpc.url is required")
	}
	if n.RPC.RPS < 0 || n.RPC.Burst < 0 {
		return model.NetworkDescriptor{}, errors.New("rpc.rps and rpc.burst must not be negative")
	}

	addr, err := evmlog.ParseAddress(n.Contract.Address)
	if err != nil {
		return model.NetworkDescriptor{}, fmt.Errorf("contract.address: %w", err)
	}

	if len(n.Contract.Events) == 0 {
		return model.NetworkDescriptor{}, errors.New("contract.events must list the burn event")
	}
	topic, err := evmlog.ResolveTopic(n.Contract.Events[0])
	if err != nil {
		return model.NetworkDescriptor{}, fmt.Errorf("contract.events: %w", err)
	}

	bound, err := parseScanBound(n.Contract.ToBlock)
	if err != nil {
		return model.NetworkDescriptor{}, err
	}

	decimals := uint8(defaultAmountDecimals)
	if n.AmountDecimals != nil {
		decimals = *n.AmountDecimals
	}

	return model.NetworkDescriptor{
		Name:             name,
		NetworkID:        n.NetworkID,
		RPCEndpoint:      strings.TrimSpace(n.RPC.URL),
		RPCAuthKey:       n.RPC.Key,
		RPCRateLimit:     n.RPC.RPS,
		RPCBurst:         n.RPC.Burst,
		ContractAddress:  strings.ToLower(addr.Hex()),
		EventTopic:       topic.Hex(),
		StartBlockHeight: n.Contract.FromBlockHeight,
		ScanBound:        bound,
		ExplorerURL:      n.ExplorerURL,
		AmountDecimals:   decimals,
	}, nil
}

func parseScanBound(input string) (model.ScanBound, error) {
	switch model.ScanBound(strings.ToLower(strings.TrimSpace(input))) {
	case "", model.ScanFinalized:
		return model.ScanFinalized, nil
	case model.ScanLatest:
		return model.ScanLatest, nil
	case model.ScanHead:
		return model.ScanHead, nil
	default:
		return "", fmt.Errorf("contract.to-block must be finalized, latest or head, got %q", input)
	}
}
