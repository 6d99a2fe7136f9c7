// Package txservice Safe 交易服务（Safe Transaction Service）REST 客户端
//
// 负责委托人（delegate）管理以及多签交易的提交、确认与查询。
// 地址参数在发出请求之前完成本地校验；服务端拒绝时原样返回服务端信息。
package txservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.uber.org/ratelimit"
	"go.uber.org/zap"

	"github.com/safekit/safe-client-sdk-go/client"
	"github.com/safekit/safe-client-sdk-go/logger"
	"github.com/safekit/safe-client-sdk-go/monitor"
	"github.com/safekit/safe-client-sdk-go/types"
)

const (
	// DefaultTimeout 单次请求超时
	DefaultTimeout = 30 * time.Second
	// DefaultRateLimit 每秒最多发出的请求数
	DefaultRateLimit = 10
)

// Client 交易服务客户端
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    ratelimit.Limiter
	cb         *gobreaker.CircuitBreaker
	logger     *zap.Logger
	metrics    *monitor.Metrics
	now        func() time.Time
}

type options struct {
	httpClient *http.Client
	timeout    time.Duration
	rateLimit  int
	logger     *zap.Logger
	metrics    *monitor.Metrics
	now        func() time.Time
}

// Option 客户端选项
type Option func(*options)

// WithHTTPClient 使用自定义 http.Client（忽略 WithTimeout）
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithTimeout 设置请求超时
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithRateLimit 设置每秒请求数上限，<=0 表示不限速
func WithRateLimit(perSecond int) Option {
	return func(o *options) { o.rateLimit = perSecond }
}

// WithLogger 设置日志器
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics 记录每个请求的端点与结果
func WithMetrics(m *monitor.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithClock 替换用于计算 TOTP 的时钟
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New 创建交易服务客户端
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("empty transaction service url")
	}

	o := &options{
		timeout:   DefaultTimeout,
		rateLimit: DefaultRateLimit,
		logger:    logger.Log,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: o.timeout}
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	limiter := ratelimit.NewUnlimited()
	if o.rateLimit > 0 {
		limiter = ratelimit.New(o.rateLimit)
	}

	log := o.logger.Named("txservice")
	return &Client{
		baseURL:    baseURL,
		httpClient: o.httpClient,
		limiter:    limiter,
		cb:         newCircuitBreaker(log),
		logger:     log,
		metrics:    o.metrics,
		now:        o.now,
	}, nil
}

// BaseURL 返回服务地址
func (c *Client) BaseURL() string {
	return c.baseURL
}

// GetServiceInfo 查询服务信息
func (c *Client) GetServiceInfo(ctx context.Context) (*ServiceInfo, error) {
	var info ServiceInfo
	if err := c.do(ctx, http.MethodGet, "/v1/about/", "about", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// do 发送请求并解析响应
//
// **流程**：
//  1. 限速等待
//  2. 经熔断器发送请求：网络错误与 5xx 计入熔断失败
//  3. 非 2xx 响应转换为 types.ServiceError，原样保留服务端信息
func (c *Client) do(ctx context.Context, method, path, endpoint string, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", endpoint, err)
		}
	}

	c.limiter.Take()
	traceID := uuid.NewString()
	c.logger.Debug("transaction service request",
		zap.String("method", method),
		zap.String("path", path),
		zap.String("trace_id", traceID))

	res, err := c.cb.Execute(func() (interface{}, error) {
		resp, err := c.send(ctx, method, path, payload, traceID)
		if err != nil {
			return nil, err
		}
		if resp.status >= http.StatusInternalServerError {
			return nil, types.ParseServiceError(resp.status, resp.body, traceID)
		}
		return resp, nil
	})
	if err != nil {
		c.metrics.ServiceRequest(endpoint, "error")
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	resp := res.(*response)
	c.metrics.ServiceRequest(endpoint, strconv.Itoa(resp.status))
	if resp.status < 200 || resp.status >= 300 {
		svcErr := types.ParseServiceError(resp.status, resp.body, traceID)
		c.logger.Debug("transaction service rejected request",
			zap.String("path", path),
			zap.Int("status", resp.status),
			zap.String("message", svcErr.Message),
			zap.String("trace_id", traceID))
		return svcErr
	}

	if out == nil || len(bytes.TrimSpace(resp.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return client.NewInvalidResponseError(fmt.Sprintf("decode %s response: %v", endpoint, err))
	}
	return nil
}

type response struct {
	status int
	body   []byte
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, traceID string) (*response, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", traceID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, client.NewNetworkError(err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn("failed to close response body", zap.Error(cerr))
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, client.NewNetworkError(err)
	}
	return &response{status: resp.StatusCode, body: body}, nil
}

func newCircuitBreaker(log *zap.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "txservice",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.7
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if to == gobreaker.StateOpen {
				log.Warn("transaction service seems down, stop allowing requests")
			}
			if from == gobreaker.StateOpen && to == gobreaker.StateHalfOpen {
				log.Info("checking transaction service status")
			}
			if from == gobreaker.StateHalfOpen && to == gobreaker.StateClosed {
				log.Info("transaction service seems ok, restart allowing requests")
			}
		},
	})
}
