package safe

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/safekit/safe-client-sdk-go/services/transaction"
	"github.com/safekit/safe-client-sdk-go/types"
)

// CreateTransaction 构建普通交易，多笔调用经 MultiSend 打包
func (s *Safe) CreateTransaction(ctx context.Context, txs []types.MetaTransactionData, opts *transaction.Options) (*types.SafeTransaction, error) {
	return s.build(ctx, transaction.MultiSendIntent{Transactions: txs}, opts)
}

// CreateEnableModuleTx 构建启用模块交易
func (s *Safe) CreateEnableModuleTx(ctx context.Context, module string, opts *transaction.Options) (*types.SafeTransaction, error) {
	return s.build(ctx, transaction.EnableModuleIntent{Module: module}, opts)
}

// CreateDisableModuleTx 构建停用模块交易
func (s *Safe) CreateDisableModuleTx(ctx context.Context, module string, opts *transaction.Options) (*types.SafeTransaction, error) {
	return s.build(ctx, transaction.DisableModuleIntent{Module: module}, opts)
}

// CreateAddOwnerTx 构建添加 owner 交易，threshold 为空时保持当前门限
func (s *Safe) CreateAddOwnerTx(ctx context.Context, owner string, threshold *uint64, opts *transaction.Options) (*types.SafeTransaction, error) {
	return s.build(ctx, transaction.AddOwnerIntent{Owner: owner, Threshold: threshold}, opts)
}

// CreateRemoveOwnerTx 构建移除 owner 交易，threshold 为空时保持当前门限
func (s *Safe) CreateRemoveOwnerTx(ctx context.Context, owner string, threshold *uint64, opts *transaction.Options) (*types.SafeTransaction, error) {
	return s.build(ctx, transaction.RemoveOwnerIntent{Owner: owner, Threshold: threshold}, opts)
}

// CreateSwapOwnerTx 构建替换 owner 交易
func (s *Safe) CreateSwapOwnerTx(ctx context.Context, oldOwner, newOwner string, opts *transaction.Options) (*types.SafeTransaction, error) {
	return s.build(ctx, transaction.SwapOwnerIntent{Old: oldOwner, New: newOwner}, opts)
}

// CreateChangeThresholdTx 构建修改门限交易
func (s *Safe) CreateChangeThresholdTx(ctx context.Context, threshold uint64, opts *transaction.Options) (*types.SafeTransaction, error) {
	return s.build(ctx, transaction.ChangeThresholdIntent{Threshold: threshold}, opts)
}

// CreateRejectionTransaction 构建占用 nonce 的拒绝交易
func (s *Safe) CreateRejectionTransaction(ctx context.Context, nonce uint64) (*types.SafeTransaction, error) {
	return s.build(ctx, transaction.RejectionIntent{Nonce: nonce}, nil)
}

// ImportTransaction 登记由其他参与方构建的交易描述符
//
// 摘要在本地按当前钱包重新计算，nonce 不做校验，过期 nonce 在执行时被合约拒绝。
func (s *Safe) ImportTransaction(ctx context.Context, data types.SafeTransactionData) (*types.SafeTransaction, error) {
	if data.Operation > types.DelegateCall {
		return nil, fmt.Errorf("unknown operation %d", data.Operation)
	}
	data = data.Normalize()
	hash, err := transaction.TransactionHash(s.chainID, s.address, s.version, data)
	if err != nil {
		return nil, err
	}
	return s.register(ctx, types.NewSafeTransaction(data, hash), "import"), nil
}

func (s *Safe) build(ctx context.Context, intent transaction.Intent, opts *transaction.Options) (*types.SafeTransaction, error) {
	tx, err := s.builder.Build(ctx, intent, opts)
	if err != nil {
		return nil, err
	}
	return s.register(ctx, tx, intentName(intent)), nil
}

// register 登记待执行交易
//
// 同一摘要已有非终态交易时返回已登记的交易；终态（已放弃、已回滚、已执行）的记录
// 被新的 Built 记录替换，回滚交易遗留的签名先被丢弃。执行仍在进行时保留原记录。
func (s *Safe) register(ctx context.Context, tx *types.SafeTransaction, intent string) *types.SafeTransaction {
	hash := tx.Hash()

	s.mu.Lock()
	existing, ok := s.pending[hash]
	if ok && (!existing.state.Terminal() || existing.executing) {
		s.mu.Unlock()
		return existing.tx
	}
	stale := ok && existing.state == StateReverted
	s.mu.Unlock()

	if stale {
		if err := s.store.Discard(ctx, hash); err != nil {
			s.logger.Warn("discard signatures failed", zap.String("hash", hash.Hex()), zap.Error(err))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.pending[hash]; ok && cur != existing {
		return cur.tx
	}
	s.pending[hash] = &pendingTx{tx: tx, state: StateBuilt}
	s.metrics.TransactionBuilt(intent)
	if ok {
		s.logger.Info("transaction rebuilt",
			zap.String("intent", intent),
			zap.String("hash", hash.Hex()),
			zap.Stringer("previous", existing.state))
	} else {
		s.logger.Info("transaction built",
			zap.String("intent", intent),
			zap.String("hash", hash.Hex()),
			zap.Uint64("nonce", tx.Data().Nonce))
	}
	return tx
}

// intentName EnableModuleIntent → enable_module
func intentName(intent transaction.Intent) string {
	name := strings.TrimSuffix(fmt.Sprintf("%T", intent), "Intent")
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// GetTransaction 按摘要查找已登记交易
func (s *Safe) GetTransaction(hash common.Hash) (*types.SafeTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pending[hash]
	if !ok {
		return nil, unknown(hash)
	}
	return p.tx, nil
}

func unknown(hash common.Hash) error {
	return types.ErrUnknownTransaction.WithDetail("%s", hash.Hex())
}
