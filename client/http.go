package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// httpClient HTTP客户端实现
type httpClient struct {
	endpoint string
	client   *http.Client
	headers  map[string]string
	logger   *zap.Logger
	debug    bool
	nextID   atomic.Uint64
	retry    *RetryConfig
}

// NewHTTPClient 创建HTTP客户端
func NewHTTPClient(config *Config) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Endpoint == "" {
		return nil, NewInvalidResponseError("empty endpoint")
	}

	logger := config.logger()
	retryConfig := config.Retry
	if retryConfig == nil {
		retryConfig = DefaultRetryConfig()
		retryConfig.OnRetry = func(attempt int, err error) {
			logger.Warn("retrying JSON-RPC request", zap.Int("attempt", attempt), zap.Error(err))
		}
	}

	return &httpClient{
		endpoint: config.Endpoint,
		client:   &http.Client{Timeout: time.Duration(config.Timeout) * time.Second},
		headers:  config.Headers,
		logger:   logger,
		debug:    config.Debug,
		retry:    retryConfig,
	}, nil
}

// Call 调用JSON-RPC方法
func (c *httpClient) Call(ctx context.Context, method string, params ...interface{}) (json.RawMessage, error) {
	req := &jsonRPCRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  normalizeParams(params),
		ID:      c.nextID.Add(1),
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request failed: %w", err)
	}

	traceID := uuid.NewString()
	if c.debug {
		c.logger.Debug("JSON-RPC request",
			zap.String("method", method),
			zap.String("trace_id", traceID),
			zap.ByteString("body", reqBody))
	}

	var respBody []byte
	err = withRetry(ctx, func() error {
		// Body 只能读取一次，每次重试都重新构造请求
		httpReq, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(reqBody))
		if reqErr != nil {
			return fmt.Errorf("create request failed: %w", reqErr)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Accept", "application/json")
		httpReq.Header.Set("X-Request-ID", traceID)
		for k, v := range c.headers {
			httpReq.Header.Set(k, v)
		}

		httpResp, reqErr := c.client.Do(httpReq)
		if reqErr != nil {
			return NewNetworkError(reqErr)
		}
		defer func() {
			if cerr := httpResp.Body.Close(); cerr != nil {
				c.logger.Warn("failed to close response body", zap.Error(cerr))
			}
		}()

		body, reqErr := io.ReadAll(httpResp.Body)
		if reqErr != nil {
			return NewNetworkError(reqErr)
		}
		if httpResp.StatusCode != http.StatusOK {
			return &httpStatusError{StatusCode: httpResp.StatusCode, Body: string(body)}
		}
		respBody = body
		return nil
	}, c.retry)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}

	if c.debug {
		c.logger.Debug("JSON-RPC response",
			zap.String("method", method),
			zap.String("trace_id", traceID),
			zap.ByteString("body", respBody))
	}

	var jsonResp jsonRPCResponse
	if err := json.Unmarshal(respBody, &jsonResp); err != nil {
		return nil, NewInvalidResponseError(fmt.Sprintf("unmarshal %s response: %v", method, err))
	}
	if jsonResp.Error != nil {
		return nil, NewRPCError(jsonResp.Error.Code, jsonResp.Error.Message, jsonResp.Error.Data)
	}
	return jsonResp.Result, nil
}

// SendRawTransaction 广播已签名的原始交易
func (c *httpClient) SendRawTransaction(ctx context.Context, signedTx []byte) (common.Hash, error) {
	return sendRawTransaction(ctx, c, signedTx)
}

// Close 关闭连接（HTTP客户端只需释放空闲连接）
func (c *httpClient) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
