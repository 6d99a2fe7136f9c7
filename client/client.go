package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Client 以太坊 JSON-RPC 客户端接口
type Client interface {
	// Call 调用 JSON-RPC 方法，返回原始 result
	Call(ctx context.Context, method string, params ...interface{}) (json.RawMessage, error)

	// SendRawTransaction 广播已签名的原始交易
	SendRawTransaction(ctx context.Context, signedTx []byte) (common.Hash, error)

	// Close 关闭连接
	Close() error
}

// NewClient 按协议创建客户端
func NewClient(config *Config) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Protocol {
	case ProtocolHTTP, "":
		return NewHTTPClient(config)
	case ProtocolWebSocket:
		return NewWebSocketClient(config)
	default:
		return nil, NewNotSupportedError(fmt.Sprintf("protocol %s", config.Protocol))
	}
}

// CallFor 调用方法并将 result 解码到 out
func CallFor(ctx context.Context, c Client, out interface{}, method string, params ...interface{}) error {
	raw, err := c.Call(ctx, method, params...)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return NewInvalidResponseError(fmt.Sprintf("decode %s result: %v", method, err))
	}
	return nil
}

func sendRawTransaction(ctx context.Context, c Client, signedTx []byte) (common.Hash, error) {
	var hash common.Hash
	if err := CallFor(ctx, c, &hash, "eth_sendRawTransaction", hexutil.Encode(signedTx)); err != nil {
		return common.Hash{}, err
	}
	return hash, nil
}

// normalizeParams 保证 params 序列化为 JSON 数组
func normalizeParams(params []interface{}) []interface{} {
	if params == nil {
		return []interface{}{}
	}
	return params
}

func websocketEndpoint(endpoint string) string {
	switch {
	case strings.HasPrefix(endpoint, "http://"):
		return "ws://" + strings.TrimPrefix(endpoint, "http://")
	case strings.HasPrefix(endpoint, "https://"):
		return "wss://" + strings.TrimPrefix(endpoint, "https://")
	case strings.HasPrefix(endpoint, "ws://"), strings.HasPrefix(endpoint, "wss://"):
		return endpoint
	default:
		return "ws://" + endpoint
	}
}

// jsonRPCRequest JSON-RPC 请求结构
type jsonRPCRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      uint64        `json:"id"`
}

// jsonRPCResponse JSON-RPC 响应结构
type jsonRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *jsonRPCError   `json:"error,omitempty"`
	ID      uint64          `json:"id"`
}

// jsonRPCError JSON-RPC 错误结构
type jsonRPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
