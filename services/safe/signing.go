package safe

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/safekit/safe-client-sdk-go/services/transaction"
	"github.com/safekit/safe-client-sdk-go/types"
)

// ethSignVOffset eth_sign 签名在 v 上额外加 4，合约据此按 EIP-191 前缀恢复签名者
const ethSignVOffset = 4

// GetTransactionHash 按当前链 ID、钱包地址与版本重新计算交易摘要
func (s *Safe) GetTransactionHash(tx *types.SafeTransaction) (common.Hash, error) {
	return transaction.TransactionHash(s.chainID, s.address, s.version, tx.Data())
}

// SignTransactionHash 以 eth_sign 方式签名摘要，v ∈ {31, 32}
func (s *Safe) SignTransactionHash(ctx context.Context, hash common.Hash) (types.SafeSignature, error) {
	signer, ok := s.adapter.GetSignerAddress()
	if !ok {
		return types.SafeSignature{}, types.ErrNoSigner
	}
	sig, err := s.adapter.SignMessage(ctx, hash.Bytes())
	if err != nil {
		return types.SafeSignature{}, fmt.Errorf("sign transaction hash: %w", err)
	}
	sig[64] += ethSignVOffset
	return types.SafeSignature{Signer: signer, Data: sig}, nil
}

// SignTypedData 直接签名交易的 EIP-712 摘要，v ∈ {27, 28}
//
// 签名前重新计算摘要，与交易携带的摘要不一致时拒绝签名。
func (s *Safe) SignTypedData(ctx context.Context, tx *types.SafeTransaction) (types.SafeSignature, error) {
	signer, ok := s.adapter.GetSignerAddress()
	if !ok {
		return types.SafeSignature{}, types.ErrNoSigner
	}
	hash, err := s.GetTransactionHash(tx)
	if err != nil {
		return types.SafeSignature{}, err
	}
	if hash != tx.Hash() {
		return types.SafeSignature{}, fmt.Errorf("transaction hash mismatch: have %s, computed %s", tx.Hash().Hex(), hash.Hex())
	}
	sig, err := s.adapter.SignHash(ctx, hash)
	if err != nil {
		return types.SafeSignature{}, fmt.Errorf("sign typed data: %w", err)
	}
	return types.SafeSignature{Signer: signer, Data: sig}, nil
}

// SignTransaction 用适配器签名者签名并加入签名集合
func (s *Safe) SignTransaction(ctx context.Context, tx *types.SafeTransaction) (State, error) {
	sig, err := s.SignTypedData(ctx, tx)
	if err != nil {
		return 0, err
	}
	return s.AddSignature(ctx, tx.Hash(), sig)
}

// AddSignature 加入 owner 签名并返回交易的新状态
//
// 签名者必须是当前 owner；同一 owner 重复签名返回 ErrDuplicateSignature，状态不变。
func (s *Safe) AddSignature(ctx context.Context, hash common.Hash, sig types.SafeSignature) (State, error) {
	if _, err := s.activeState(hash, StatePartiallySigned); err != nil {
		return 0, err
	}

	isOwner, err := s.contract.IsOwner(ctx, sig.Signer)
	if err != nil {
		return 0, err
	}
	if !isOwner {
		s.metrics.SignatureRejected("not_owner")
		return 0, types.ErrNotPresent.WithDetail("signer %s is not an owner", sig.Signer.Hex())
	}

	if err := s.store.Add(ctx, hash, sig); err != nil {
		switch {
		case errors.Is(err, types.ErrDuplicateSignature):
			s.metrics.SignatureRejected("duplicate")
		default:
			s.metrics.SignatureRejected("invalid")
		}
		return 0, err
	}
	s.metrics.SignatureAdded()
	s.logger.Info("signature added", zap.String("hash", hash.Hex()), zap.String("signer", sig.Signer.Hex()))

	return s.refresh(ctx, hash)
}

// ApproveTransactionHash 由签名者在链上批准摘要，并记录对应的预验证签名
func (s *Safe) ApproveTransactionHash(ctx context.Context, hash common.Hash, opts *types.TransactionOptions) (State, error) {
	signer, ok := s.adapter.GetSignerAddress()
	if !ok {
		return 0, types.ErrNoSigner
	}
	if _, err := s.activeState(hash, StatePartiallySigned); err != nil {
		return 0, err
	}
	if _, err := s.contract.ApproveHash(ctx, hash, opts); err != nil {
		return 0, err
	}
	return s.AddSignature(ctx, hash, preValidatedSignature(signer))
}

// preValidatedSignature r = owner，s = 0，v = 1：由 approvedHashes 或 msg.sender 验证
func preValidatedSignature(owner common.Address) types.SafeSignature {
	data := make([]byte, 65)
	copy(data[12:32], owner.Bytes())
	data[64] = 1
	return types.SafeSignature{Signer: owner, Data: data}
}
