package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// websocketClient WebSocket 客户端实现
//
// 单连接多路复用：请求按 ID 注册响应通道，readLoop 负责分发。
type websocketClient struct {
	endpoint string
	conn     *websocket.Conn
	logger   *zap.Logger
	timeout  time.Duration

	writeMu  sync.Mutex
	closed   atomic.Bool
	nextID   atomic.Uint64
	muReq    sync.Mutex
	requests map[uint64]chan *jsonRPCResponse
}

// NewWebSocketClient 创建 WebSocket 客户端
func NewWebSocketClient(config *Config) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	endpoint := websocketEndpoint(config.Endpoint)
	header := http.Header{}
	for k, v := range config.Headers {
		header.Set(k, v)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	conn, _, err := dialer.Dial(endpoint, header)
	if err != nil {
		return nil, NewNetworkError(fmt.Errorf("dial websocket %s: %w", endpoint, err))
	}

	timeout := time.Duration(config.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client := &websocketClient{
		endpoint: endpoint,
		conn:     conn,
		logger:   config.logger(),
		timeout:  timeout,
		requests: make(map[uint64]chan *jsonRPCResponse),
	}

	go client.readLoop()

	return client, nil
}

// readLoop 消息读取循环
func (c *websocketClient) readLoop() {
	defer c.failPending()

	for {
		var resp jsonRPCResponse
		if err := c.conn.ReadJSON(&resp); err != nil {
			if !c.closed.Load() {
				c.logger.Warn("websocket read failed", zap.String("endpoint", c.endpoint), zap.Error(err))
			}
			return
		}

		c.muReq.Lock()
		ch, exists := c.requests[resp.ID]
		if exists {
			delete(c.requests, resp.ID)
		}
		c.muReq.Unlock()

		if exists {
			ch <- &resp
		}
	}
}

// failPending 连接断开后关闭所有等待中的请求
func (c *websocketClient) failPending() {
	c.closed.Store(true)
	c.muReq.Lock()
	for id, ch := range c.requests {
		close(ch)
		delete(c.requests, id)
	}
	c.muReq.Unlock()
}

// Call 调用 JSON-RPC 方法
func (c *websocketClient) Call(ctx context.Context, method string, params ...interface{}) (json.RawMessage, error) {
	if c.closed.Load() {
		return nil, NewClosedError()
	}

	reqID := c.nextID.Add(1)
	req := jsonRPCRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  normalizeParams(params),
		ID:      reqID,
	}

	respCh := make(chan *jsonRPCResponse, 1)
	c.muReq.Lock()
	c.requests[reqID] = respCh
	c.muReq.Unlock()

	// gorilla/websocket 不支持并发写
	c.writeMu.Lock()
	err := c.conn.WriteJSON(req)
	c.writeMu.Unlock()
	if err != nil {
		c.forget(reqID)
		return nil, NewNetworkError(fmt.Errorf("write %s request: %w", method, err))
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case resp, ok := <-respCh:
		if !ok {
			return nil, NewNetworkError(fmt.Errorf("connection closed while waiting for %s", method))
		}
		if resp.Error != nil {
			return nil, NewRPCError(resp.Error.Code, resp.Error.Message, resp.Error.Data)
		}
		return resp.Result, nil

	case <-ctx.Done():
		c.forget(reqID)
		return nil, ctx.Err()

	case <-timer.C:
		c.forget(reqID)
		return nil, NewTimeoutError()
	}
}

func (c *websocketClient) forget(id uint64) {
	c.muReq.Lock()
	delete(c.requests, id)
	c.muReq.Unlock()
}

// SendRawTransaction 广播已签名的原始交易
func (c *websocketClient) SendRawTransaction(ctx context.Context, signedTx []byte) (common.Hash, error) {
	return sendRawTransaction(ctx, c, signedTx)
}

// Close 关闭连接
func (c *websocketClient) Close() error {
	if c.closed.CompareAndSwap(false, true) {
		c.writeMu.Lock()
		defer c.writeMu.Unlock()
		_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		return c.conn.Close()
	}
	return nil
}
