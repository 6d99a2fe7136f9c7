// Package config 命令行工具的配置加载
//
// 配置来源优先级：环境变量 > 配置文件 > 默认值。
// 环境变量统一使用 SAFE_ 前缀，层级以下划线分隔（eth.rpc_url → SAFE_ETH_RPC_URL），
// 另外 ETH_LIB 直接映射到 eth.lib。
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/safekit/safe-client-sdk-go/services"
)

// EnvPrefix 环境变量前缀
const EnvPrefix = "SAFE"

// 签名存储后端
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreBadger = "badger"
)

type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Eth     EthConfig     `mapstructure:"eth"`
	Safe    SafeConfig    `mapstructure:"safe"`
	Signer  SignerConfig  `mapstructure:"signer"`
	Service ServiceConfig `mapstructure:"service"`
	Store   StoreConfig   `mapstructure:"store"`
	Metrics MetricsConfig `mapstructure:"metrics"`

	// ContractNetworks 按链 ID 覆盖默认合约部署
	ContractNetworks services.ContractNetworksConfig `mapstructure:"contract_networks"`
}

type AppConfig struct {
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`
}

type EthConfig struct {
	// Lib 底层以太坊库：geth/ethers 或 jsonrpc/web3
	Lib       string        `mapstructure:"lib"`
	RPCURL    string        `mapstructure:"rpc_url"`
	Transport string        `mapstructure:"transport"`
	ChainID   int64         `mapstructure:"chain_id"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type SafeConfig struct {
	Address string `mapstructure:"address"`
	Version string `mapstructure:"version"`
	L1      bool   `mapstructure:"l1"`
}

type SignerConfig struct {
	PrivateKey   string `mapstructure:"private_key"`
	KeystorePath string `mapstructure:"keystore_path"`
	// Password keystore 密码，通常通过 SAFE_SIGNER_PASSWORD 传入
	Password string `mapstructure:"password"`
}

type ServiceConfig struct {
	URL       string        `mapstructure:"url"`
	RateLimit int           `mapstructure:"rate_limit"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type StoreConfig struct {
	Backend string        `mapstructure:"backend"`
	TTL     time.Duration `mapstructure:"ttl"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Badger  BadgerConfig  `mapstructure:"badger"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type BadgerConfig struct {
	Path string `mapstructure:"path"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// Load 加载配置
//
// path 为空时在当前目录与 ./config 下查找 safe.yaml，找不到文件不是错误。
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("safe")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// 与其他 Safe 工具共用的环境变量
	if err := v.BindEnv("eth.lib", EnvPrefix+"_ETH_LIB", "ETH_LIB"); err != nil {
		return nil, fmt.Errorf("bind ETH_LIB: %w", err)
	}

	// AutomaticEnv 只覆盖已知键，所有键都需要默认值
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 校验取值范围
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case StoreMemory, StoreRedis, StoreBadger:
	default:
		return fmt.Errorf("unknown signature store backend %q", c.Store.Backend)
	}
	if c.Store.TTL < 0 {
		return fmt.Errorf("store.ttl must not be negative")
	}
	if c.Service.RateLimit < 0 {
		return fmt.Errorf("service.rate_limit must not be negative")
	}
	if err := c.ContractNetworks.Validate(); err != nil {
		return fmt.Errorf("contract_networks: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("eth.lib", "geth")
	v.SetDefault("eth.rpc_url", "http://localhost:8545")
	v.SetDefault("eth.transport", "http")
	v.SetDefault("eth.chain_id", 0)
	v.SetDefault("eth.timeout", 30*time.Second)

	v.SetDefault("safe.address", "")
	v.SetDefault("safe.version", "")
	v.SetDefault("safe.l1", false)

	v.SetDefault("signer.private_key", "")
	v.SetDefault("signer.keystore_path", "")
	v.SetDefault("signer.password", "")

	v.SetDefault("service.url", "https://safe-transaction-goerli.safe.global")
	v.SetDefault("service.rate_limit", 10)
	v.SetDefault("service.timeout", 30*time.Second)

	v.SetDefault("store.backend", StoreBadger)
	v.SetDefault("store.ttl", time.Duration(0))
	v.SetDefault("store.redis.addr", "localhost:6379")
	v.SetDefault("store.redis.password", "")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("store.redis.prefix", "safe:signatures:")
	v.SetDefault("store.badger.path", "./data/signatures")

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.addr", ":9102")
}
