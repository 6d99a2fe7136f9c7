package utils

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/safekit/safe-client-sdk-go/types"
)

// 链上 owners / modules 链表的保留地址
//
// 两者都是链表结构标记而不是可用条目，任何 enable/disable/add/remove 操作都必须拒绝。
var (
	// ZeroAddress 全零地址
	ZeroAddress = common.Address{}
	// SentinelAddress 链表头/尾哨兵地址 0x…01
	SentinelAddress = common.HexToAddress("0x0000000000000000000000000000000000000001")
)

// IsHexAddress 检查是否为结构合法的 0x 前缀 40 位十六进制地址
func IsHexAddress(addr string) bool {
	if !strings.HasPrefix(addr, "0x") && !strings.HasPrefix(addr, "0X") {
		return false
	}
	return common.IsHexAddress(addr)
}

// IsChecksumAddress 检查地址大小写是否与 EIP-55 编码完全一致
func IsChecksumAddress(addr string) bool {
	if !IsHexAddress(addr) {
		return false
	}
	return common.HexToAddress(addr).Hex() == addr
}

// ValidateAddress 校验地址格式与 EIP-55 校验和
//
// 大小写错误的地址直接拒绝，不做规范化。
func ValidateAddress(addr string) error {
	if addr == "" {
		return types.ErrInvalidAddress.WithDetail("empty address")
	}
	if !IsHexAddress(addr) {
		return types.ErrInvalidAddress.WithDetail("%q is not a 20-byte hex address", addr)
	}
	if !IsChecksumAddress(addr) {
		return types.ErrChecksumMismatch.WithDetail("%q, expected %s", addr, common.HexToAddress(addr).Hex())
	}
	return nil
}

// ParseAddress 校验并解析地址
func ParseAddress(addr string) (common.Address, error) {
	if err := ValidateAddress(addr); err != nil {
		return common.Address{}, err
	}
	return common.HexToAddress(addr), nil
}

// AssertMutable 校验可作为 owner/module 变更目标的地址
//
// 零地址与哨兵地址在校验和之前判断，任何大小写写法都会被拒绝。
func AssertMutable(addr string) error {
	if addr == "" || !IsHexAddress(addr) {
		return ValidateAddress(addr)
	}
	if err := AssertMutableAddress(common.HexToAddress(addr)); err != nil {
		return err
	}
	return ValidateAddress(addr)
}

// AssertMutableAddress 对已解析地址执行保留地址检查
func AssertMutableAddress(addr common.Address) error {
	switch addr {
	case ZeroAddress:
		return types.ErrZeroAddress
	case SentinelAddress:
		return types.ErrSentinelAddress
	}
	return nil
}

// IsReservedAddress 是否为零地址或哨兵地址
func IsReservedAddress(addr common.Address) bool {
	return addr == ZeroAddress || addr == SentinelAddress
}

// ContainsAddress 列表中是否包含地址
func ContainsAddress(list []common.Address, addr common.Address) bool {
	return IndexOfAddress(list, addr) >= 0
}

// IndexOfAddress 返回地址在列表中的位置，不存在时返回 -1
func IndexOfAddress(list []common.Address, addr common.Address) int {
	for i, item := range list {
		if item == addr {
			return i
		}
	}
	return -1
}

// PreviousInList 返回链表中 addr 的前驱，位于首位时为哨兵地址
func PreviousInList(list []common.Address, addr common.Address) (common.Address, bool) {
	idx := IndexOfAddress(list, addr)
	switch {
	case idx < 0:
		return common.Address{}, false
	case idx == 0:
		return SentinelAddress, true
	default:
		return list[idx-1], true
	}
}
