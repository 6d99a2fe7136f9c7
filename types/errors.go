package types

import (
	"errors"
	"fmt"
)

// SDKError SDK 错误类型
//
// Code 决定错误类别，errors.Is 按 Code 匹配，因此携带不同 Detail 的同类错误
// 与对应的哨兵错误（ErrInvalidAddress 等）判等。
type SDKError struct {
	Code    string
	Message string
	Detail  string
	Err     error
}

func (e *SDKError) Error() string {
	msg := e.Message
	if e.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *SDKError) Unwrap() error {
	return e.Err
}

// Is 按错误码匹配
func (e *SDKError) Is(target error) bool {
	var t *SDKError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// WithDetail 复制错误并附加细节
func (e *SDKError) WithDetail(format string, args ...interface{}) *SDKError {
	return &SDKError{
		Code:    e.Code,
		Message: e.Message,
		Detail:  fmt.Sprintf(format, args...),
		Err:     e.Err,
	}
}

// Wrap 复制错误并包装底层原因
func (e *SDKError) Wrap(err error) *SDKError {
	return &SDKError{
		Code:    e.Code,
		Message: e.Message,
		Detail:  e.Detail,
		Err:     err,
	}
}

// 错误码
const (
	ErrorCodeInvalidAddress      = "INVALID_ADDRESS"
	ErrorCodeChecksumMismatch    = "CHECKSUM_MISMATCH"
	ErrorCodeReservedAddress     = "RESERVED_ADDRESS"
	ErrorCodeZeroAddress         = "ZERO_ADDRESS"
	ErrorCodeSentinelAddress     = "SENTINEL_ADDRESS"
	ErrorCodeAlreadyPresent      = "ALREADY_PRESENT"
	ErrorCodeNotPresent          = "NOT_PRESENT"
	ErrorCodeThresholdViolation  = "THRESHOLD_VIOLATION"
	ErrorCodeUnsupportedVersion  = "UNSUPPORTED_VERSION"
	ErrorCodeContractNotDeployed = "CONTRACT_NOT_DEPLOYED"
	ErrorCodeUnsupportedAdapter  = "UNSUPPORTED_ADAPTER"
	ErrorCodeDuplicateSignature  = "DUPLICATE_SIGNATURE"
	ErrorCodeInvalidSignature    = "INVALID_SIGNATURE"
	ErrorCodeExecutionReverted   = "EXECUTION_REVERTED"
	ErrorCodeServiceRejected     = "SERVICE_REJECTED"
	ErrorCodeInvalidState        = "INVALID_STATE"
	ErrorCodeThresholdNotReached = "THRESHOLD_NOT_REACHED"
	ErrorCodeNoSigner            = "NO_SIGNER"
	ErrorCodeUnknownTransaction  = "UNKNOWN_TRANSACTION"
)

// 本地输入错误：在任何网络调用前检测，结果只取决于输入，不可重试
var (
	ErrInvalidAddress     = &SDKError{Code: ErrorCodeInvalidAddress, Message: "invalid address"}
	ErrChecksumMismatch   = &SDKError{Code: ErrorCodeChecksumMismatch, Message: "checksum address validation failed"}
	ErrUnsupportedVersion = &SDKError{Code: ErrorCodeUnsupportedVersion, Message: "unsupported Safe version"}
	ErrUnsupportedAdapter = &SDKError{Code: ErrorCodeUnsupportedAdapter, Message: "ethereum library not supported"}
)

// ErrReservedAddress 零地址与哨兵地址的公共父类
var ErrReservedAddress = &SDKError{Code: ErrorCodeReservedAddress, Message: "reserved address"}

var (
	ErrZeroAddress     = &SDKError{Code: ErrorCodeZeroAddress, Message: "zero address is reserved", Err: ErrReservedAddress}
	ErrSentinelAddress = &SDKError{Code: ErrorCodeSentinelAddress, Message: "sentinel address is reserved", Err: ErrReservedAddress}
)

// 链上状态相关错误
var (
	ErrAlreadyPresent      = &SDKError{Code: ErrorCodeAlreadyPresent, Message: "address already present"}
	ErrNotPresent          = &SDKError{Code: ErrorCodeNotPresent, Message: "address not present"}
	ErrThresholdViolation  = &SDKError{Code: ErrorCodeThresholdViolation, Message: "threshold violation"}
	ErrContractNotDeployed = &SDKError{Code: ErrorCodeContractNotDeployed, Message: "contract not deployed"}
	ErrExecutionReverted   = &SDKError{Code: ErrorCodeExecutionReverted, Message: "execution reverted"}
)

// 签名与生命周期错误
var (
	ErrDuplicateSignature  = &SDKError{Code: ErrorCodeDuplicateSignature, Message: "owner already signed this transaction"}
	ErrInvalidSignature    = &SDKError{Code: ErrorCodeInvalidSignature, Message: "invalid signature"}
	ErrInvalidState        = &SDKError{Code: ErrorCodeInvalidState, Message: "invalid transaction state"}
	ErrThresholdNotReached = &SDKError{Code: ErrorCodeThresholdNotReached, Message: "signature threshold not reached"}
	ErrNoSigner            = &SDKError{Code: ErrorCodeNoSigner, Message: "no signer configured"}
	ErrUnknownTransaction  = &SDKError{Code: ErrorCodeUnknownTransaction, Message: "unknown transaction"}
)

// ErrServiceRejected 链下服务拒绝请求，具体信息见 ServiceError
var ErrServiceRejected = &SDKError{Code: ErrorCodeServiceRejected, Message: "service rejected request"}
