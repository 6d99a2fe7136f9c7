// Package factory 按配置选择以太坊库并创建 EthAdapter
package factory

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/safekit/safe-client-sdk-go/adapter"
	"github.com/safekit/safe-client-sdk-go/adapter/gethadapter"
	"github.com/safekit/safe-client-sdk-go/adapter/rpcadapter"
	"github.com/safekit/safe-client-sdk-go/client"
	"github.com/safekit/safe-client-sdk-go/types"
	"github.com/safekit/safe-client-sdk-go/wallet"
)

// Library 底层以太坊库
type Library string

const (
	// LibraryGeth go-ethereum ethclient + bind
	LibraryGeth Library = "geth"
	// LibraryJSONRPC SDK 自带 JSON-RPC 客户端
	LibraryJSONRPC Library = "jsonrpc"
)

var aliases = map[string]Library{
	"geth":     LibraryGeth,
	"ethers":   LibraryGeth,
	"jsonrpc":  LibraryJSONRPC,
	"json-rpc": LibraryJSONRPC,
	"web3":     LibraryJSONRPC,
}

// ParseLibrary 解析库名，大小写不敏感
func ParseLibrary(name string) (Library, error) {
	lib, ok := aliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", types.ErrUnsupportedAdapter.WithDetail("%q", name)
	}
	return lib, nil
}

// Config 适配器配置
type Config struct {
	// Library 库名：geth/ethers 或 jsonrpc/web3
	Library string
	RPCURL  string

	// Transport jsonrpc 使用的传输协议（http 或 websocket）
	Transport client.Protocol
	// Timeout 请求超时（秒）
	Timeout int
	Headers map[string]string
	// PollInterval jsonrpc 回执轮询间隔
	PollInterval time.Duration

	Signer wallet.Wallet
	Logger *zap.Logger
}

// NewAdapter 创建适配器
//
// 未知库名在任何网络访问之前返回 ErrUnsupportedAdapter。
func NewAdapter(ctx context.Context, cfg Config) (adapter.EthAdapter, error) {
	lib, err := ParseLibrary(cfg.Library)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug("creating eth adapter", zap.String("library", string(lib)), zap.String("rpc_url", cfg.RPCURL))

	switch lib {
	case LibraryGeth:
		return gethadapter.New(ctx, gethadapter.Config{
			RPCURL: cfg.RPCURL,
			Signer: cfg.Signer,
			Logger: logger,
		})
	default:
		clientCfg := client.DefaultConfig()
		clientCfg.Endpoint = cfg.RPCURL
		clientCfg.Headers = cfg.Headers
		clientCfg.Logger = logger
		if cfg.Transport != "" {
			clientCfg.Protocol = cfg.Transport
		}
		if cfg.Timeout > 0 {
			clientCfg.Timeout = cfg.Timeout
		}
		return rpcadapter.New(rpcadapter.Config{
			Client:       clientCfg,
			Signer:       cfg.Signer,
			PollInterval: cfg.PollInterval,
			Logger:       logger,
		})
	}
}
