// Package signature 收集交易签名
//
// Store 按交易摘要保存各 owner 的签名。同一 owner 对同一摘要只能签名一次，
// 检查与写入在每个后端中都是原子的。签名本身不做密码学校验，
// 链上 execTransaction 会负责最终验证。
package signature

import (
	"bytes"
	"context"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"github.com/safekit/safe-client-sdk-go/types"
	"github.com/safekit/safe-client-sdk-go/utils"
)

// Store 签名存储
type Store interface {
	// Add 添加签名，owner 已签名时返回 ErrDuplicateSignature
	Add(ctx context.Context, digest common.Hash, sig types.SafeSignature) error

	// Count 已收集的签名数
	Count(ctx context.Context, digest common.Hash) (int, error)

	// IsExecutable 签名数是否达到门限
	IsExecutable(ctx context.Context, digest common.Hash, threshold uint64) (bool, error)

	// Collected 按 owner 地址升序返回签名
	Collected(ctx context.Context, digest common.Hash) ([]types.SafeSignature, error)

	// Discard 丢弃摘要的全部签名
	Discard(ctx context.Context, digest common.Hash) error
}

func validate(sig types.SafeSignature) error {
	if utils.IsReservedAddress(sig.Signer) {
		return types.ErrReservedAddress.WithDetail("signer %s", sig.Signer.Hex())
	}
	if len(sig.Data) == 0 {
		return types.ErrInvalidSignature.WithDetail("empty signature from %s", sig.Signer.Hex())
	}
	return nil
}

func duplicate(digest common.Hash, signer common.Address) error {
	return types.ErrDuplicateSignature.WithDetail("%s already signed %s", signer.Hex(), digest.Hex())
}

// sortBySigner 按 owner 地址升序排列，execTransaction 要求这一顺序
func sortBySigner(sigs []types.SafeSignature) {
	sort.Slice(sigs, func(i, j int) bool {
		return bytes.Compare(sigs[i].Signer.Bytes(), sigs[j].Signer.Bytes()) < 0
	})
}

// reached count >= threshold；门限 0 时任何签名数都满足
func reached(count int, threshold uint64) bool {
	return uint64(count) >= threshold
}
