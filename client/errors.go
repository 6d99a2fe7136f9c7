package client

import (
	"errors"
	"fmt"
)

// Error 客户端错误
//
// RPCCode / Data 只在 Code 为 ErrCodeRPCError 时有值，保存节点返回的
// JSON-RPC 错误码与 data 字段（合约 revert 时为 revert 数据）。
type Error struct {
	Code    int
	Message string
	RPCCode int
	Data    interface{}
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("client error [%d]: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("client error [%d]: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorCode 返回 JSON-RPC 错误码
func (e *Error) ErrorCode() int {
	return e.RPCCode
}

// ErrorData 返回 JSON-RPC 错误附带的数据
func (e *Error) ErrorData() interface{} {
	return e.Data
}

// IsRPCError 检查错误是否为节点返回的 JSON-RPC 错误
func IsRPCError(err error) (*Error, bool) {
	var cliErr *Error
	if errors.As(err, &cliErr) && cliErr.Code == ErrCodeRPCError {
		return cliErr, true
	}
	return nil, false
}

// 错误码定义
const (
	ErrCodeNetwork         = 1000 // 网络错误
	ErrCodeTimeout         = 1001 // 超时错误
	ErrCodeInvalidResponse = 1002 // 无效响应
	ErrCodeRPCError        = 1003 // JSON-RPC错误
	ErrCodeNotSupported    = 1004 // 不支持的操作
	ErrCodeClosed          = 1005 // 连接已关闭
)

// NewNetworkError 创建网络错误
func NewNetworkError(err error) *Error {
	return &Error{
		Code:    ErrCodeNetwork,
		Message: "network error",
		Err:     err,
	}
}

// NewTimeoutError 创建超时错误
func NewTimeoutError() *Error {
	return &Error{
		Code:    ErrCodeTimeout,
		Message: "request timeout",
	}
}

// NewInvalidResponseError 创建无效响应错误
func NewInvalidResponseError(message string) *Error {
	return &Error{
		Code:    ErrCodeInvalidResponse,
		Message: message,
	}
}

// NewRPCError 创建JSON-RPC错误
func NewRPCError(code int, message string, data interface{}) *Error {
	msg := fmt.Sprintf("RPC error [%d]: %s", code, message)
	if data != nil {
		msg = fmt.Sprintf("%s, data: %v", msg, data)
	}
	return &Error{
		Code:    ErrCodeRPCError,
		Message: msg,
		RPCCode: code,
		Data:    data,
	}
}

// NewNotSupportedError 创建不支持的操作错误
func NewNotSupportedError(operation string) *Error {
	return &Error{
		Code:    ErrCodeNotSupported,
		Message: fmt.Sprintf("operation not supported: %s", operation),
	}
}

// NewClosedError 创建连接已关闭错误
func NewClosedError() *Error {
	return &Error{
		Code:    ErrCodeClosed,
		Message: "client is closed",
	}
}
