package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"burnwatch/internal/model"
)

const sampleConfig = `
db-path: /var/lib/watcher/checkpoints.db
loop-timeout: 30
max-retries: 4
retry-delay: 2s
telegram:
  bot-token: "123:abc"
  chat-id: "-100200"
networks:
  - name: ethereum
    network-id: 1
    rpc:
      url: https://eth.example/rpc
      key: secret
      rps: 5
      burst: 2
    contract:
      address: "0xAbCdEf0123456789aBcDeF0123456789AbCdEf01"
      from-block-height: 19000000
      events:
        - "WPPCBurned (index_topic_1 address from, index_topic_2 address to, uint256 tokens, string externalAddress)"
    explorer-url: https://etherscan.io/tx/
  - name: bsc
    network-id: 56
    rpc:
      url: https://bsc.example/rpc
    contract:
      address: "0x1111111111111111111111111111111111111111"
      from-block-height: 100
      events:
        - "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"
      to-block: head
    amount-decimals: 18
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig), nil)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, DriverSQLite, cfg.DBDriver)
	assert.Equal(t, "/var/lib/watcher/checkpoints.db", cfg.DBPath)
	assert.Equal(t, 30*time.Second, cfg.PollInterval)
	assert.Equal(t, 4, cfg.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.RetryDelay)
	assert.Equal(t, "123:abc", cfg.Telegram.BotToken)
	assert.Equal(t, "-100200", cfg.Telegram.ChatID)
	assert.Equal(t, "info", cfg.LogLevel)
	require.Len(t, cfg.Networks, 2)

	descriptors, err := cfg.Descriptors()
	require.NoError(t, err)
	require.Len(t, descriptors, 2)

	eth := descriptors[0]
	assert.Equal(t, "ethereum", eth.Name)
	assert.Equal(t, uint64(1), eth.NetworkID)
	assert.Equal(t, "https://eth.example/rpc", eth.RPCEndpoint)
	assert.Equal(t, "secret", eth.RPCAuthKey)
	assert.Equal(t, 5.0, eth.RPCRateLimit)
	assert.Equal(t, 2, eth.RPCBurst)
	assert.Equal(t, "0xabcdef0123456789abcdef0123456789abcdef01", eth.ContractAddress)
	assert.Equal(t, uint64(19000000), eth.StartBlockHeight)
	assert.Equal(t, model.ScanFinalized, eth.ScanBound)
	assert.Equal(t, uint8(6), eth.AmountDecimals)
	assert.Len(t, eth.EventTopic, 66)

	bsc := descriptors[1]
	assert.Equal(t, "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef", bsc.EventTopic)
	assert.Equal(t, model.ScanHead, bsc.ScanBound)
	assert.Equal(t, uint8(18), bsc.AmountDecimals)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "networks: []\n"), nil)
	require.NoError(t, err)

	assert.Equal(t, "./persist/checkpoints.db", cfg.DBPath)
	assert.Equal(t, 60*time.Second, cfg.PollInterval)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, 5*time.Second, cfg.RetryDelay)
	assert.Equal(t, "burnwatch:", cfg.Redis.Prefix)
	assert.EqualError(t, cfg.Validate(), "at least one network must be configured")
}

func TestLoadEnvAndFlags(t *testing.T) {
	t.Setenv("WATCHER_MAX_RETRIES", "9")
	t.Setenv("WATCHER_TELEGRAM_CHAT_ID", "42")
	t.Setenv("WATCHER_REDIS_ADDR", "cache:6379")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Duration("poll-interval", time.Minute, "")
	flags.String("log-level", "info", "")
	require.NoError(t, flags.Parse([]string{"--poll-interval=15s", "--log-level=debug"}))

	cfg, err := Load(writeConfig(t, sampleConfig), flags)
	require.NoError(t, err)

	assert.Equal(t, 9, cfg.MaxRetries)
	assert.Equal(t, "42", cfg.Telegram.ChatID)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, 15*time.Second, cfg.PollInterval)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			DBDriver:     DriverSQLite,
			DBPath:       "x.db",
			PollInterval: time.Second,
			MaxRetries:   1,
			Networks:     []Network{{Name: "a"}},
		}
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.DBDriver = "mysql" }},
		{"postgres without dsn", func(c *Config) { c.DBDriver = DriverPostgres }},
		{"redis without addr", func(c *Config) { c.DBDriver = DriverRedis }},
		{"zero poll interval", func(c *Config) { c.PollInterval = 0 }},
		{"zero retries", func(c *Config) { c.MaxRetries = 0 }},
		{"negative delay", func(c *Config) { c.RetryDelay = -time.Second }},
		{"token without chat", func(c *Config) { c.Telegram.BotToken = "t" }},
		{"no networks", func(c *Config) { c.Networks = nil }},
	}

	require.NoError(t, base().Validate())
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDescriptorsRejectsInvalidNetworks(t *testing.T) {
	valid := func(name, address string) Network {
		return Network{
			Name: name,
			RPC:  RPC{URL: "http://node"},
			Contract: Contract{
				Address: address,
				Events:  []string{"Burned(uint256 tokens, string externalAddress)"},
			},
		}
	}

	cases := []struct {
		name     string
		networks []Network
		want     string
	}{
		{
			name:     "missing name",
			networks: []Network{valid("", "0x1111111111111111111111111111111111111111")},
			want:     "name is required",
		},
		{
			name: "missing rpc url",
			networks: func() []Network {
				n := valid("a", "0x1111111111111111111111111111111111111111")
				n.RPC.URL = ""
				return []Network{n}
			}(),
			want: "rpc.url is required",
		},
		{
			name:     "bad address",
			networks: []Network{valid("a", "0x1234")},
			want:     "contract.address",
		},
		{
			name: "no events",
			networks: func() []Network {
				n := valid("a", "0x1111111111111111111111111111111111111111")
				n.Contract.Events = nil
				return []Network{n}
			}(),
			want: "contract.events",
		},
		{
			name: "bad to-block",
			networks: func() []Network {
				n := valid("a", "0x1111111111111111111111111111111111111111")
				n.Contract.ToBlock = "safe"
				return []Network{n}
			}(),
			want: "contract.to-block",
		},
		{
			name: "duplicate contract",
			networks: []Network{
				valid("a", "0x1111111111111111111111111111111111111111"),
				valid("b", "0x1111111111111111111111111111111111111111"),
			},
			want: "already watched by a",
		},
		{
			name: "duplicate name",
			networks: []Network{
				valid("a", "0x1111111111111111111111111111111111111111"),
				valid("a", "0x2222222222222222222222222222222222222222"),
			},
			want: "duplicate name",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Config{Networks: tc.networks}.Descriptors()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}
