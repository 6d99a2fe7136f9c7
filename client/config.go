package client

import (
	"go.uber.org/zap"
)

// Config 客户端配置
type Config struct {
	// Endpoint 节点端点地址
	Endpoint string

	// Protocol 协议类型
	Protocol Protocol

	// Timeout 单次请求超时时间（秒）
	Timeout int

	// Headers 附加请求头（例如节点服务商的 API Key）
	Headers map[string]string

	// 调试模式，打印请求与响应
	Debug bool

	// Logger 日志器，为空时不输出
	Logger *zap.Logger

	// Retry 重试配置，为空时使用 DefaultRetryConfig
	Retry *RetryConfig
}

// Protocol 协议类型
type Protocol string

const (
	ProtocolHTTP      Protocol = "http"
	ProtocolWebSocket Protocol = "websocket"
)

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Endpoint: "http://localhost:8545",
		Protocol: ProtocolHTTP,
		Timeout:  30,
		Debug:    false,
	}
}

func (c *Config) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}
