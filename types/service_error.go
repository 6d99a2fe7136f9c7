package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ServiceError 链下交易服务返回的错误
//
// Message 原样保留服务端的描述（例如 "Signing owner is not an owner of the Safe"），
// SDK 不对其重新解释：Safe 是否存在、签名者是否为 owner 以服务端为准。
type ServiceError struct {
	StatusCode int
	Message    string
	Body       string
	TraceID    string
}

func (e *ServiceError) Error() string {
	return e.Message
}

// Is 使 errors.Is(err, ErrServiceRejected) 成立
func (e *ServiceError) Is(target error) bool {
	return target == ErrServiceRejected
}

// Contains 按子串匹配服务端信息
func (e *ServiceError) Contains(substr string) bool {
	return strings.Contains(e.Message, substr)
}

// IsServiceError 检查错误是否为 ServiceError
func IsServiceError(err error) (*ServiceError, bool) {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr, true
	}
	return nil, false
}

// ParseServiceError 从 HTTP 响应体解析服务端错误信息
//
// 服务端错误体没有统一格式，依次尝试 detail / message / data / nonFieldErrors /
// 首个字段错误，都没有时返回原始响应体。
func ParseServiceError(statusCode int, body []byte, traceID string) *ServiceError {
	svcErr := &ServiceError{
		StatusCode: statusCode,
		Body:       string(body),
		TraceID:    traceID,
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(body, &parsed); err == nil {
		for _, key := range []string{"detail", "message", "data", "nonFieldErrors", "non_field_errors"} {
			if msg := flattenMessage(parsed[key]); msg != "" {
				svcErr.Message = msg
				return svcErr
			}
		}
		keys := make([]string, 0, len(parsed))
		for key := range parsed {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if msg := flattenMessage(parsed[key]); msg != "" {
				svcErr.Message = msg
				return svcErr
			}
		}
	}

	if text := strings.TrimSpace(string(body)); text != "" {
		svcErr.Message = text
	} else {
		svcErr.Message = fmt.Sprintf("service responded with status %d", statusCode)
	}
	return svcErr
}

func flattenMessage(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case []interface{}:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if s := flattenMessage(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "; ")
	default:
		return ""
	}
}
