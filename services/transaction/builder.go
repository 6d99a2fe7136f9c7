// Package transaction 构建钱包交易描述符
//
// Builder 把意图（调用、批量调用、模块与 owner 管理）转换成 SafeTransaction：
// 先做本地地址校验，再并发读取链上状态，最后编码调用数据并计算摘要。
// 任何一步失败都不会返回部分结果。
package transaction

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/safekit/safe-client-sdk-go/adapter"
	"github.com/safekit/safe-client-sdk-go/types"
	"github.com/safekit/safe-client-sdk-go/utils"
)

// Builder 交易构建器
type Builder struct {
	contract          adapter.SafeContract
	chainID           int64
	version           types.SafeVersion
	multiSend         adapter.MultiSendContract
	multiSendCallOnly adapter.MultiSendContract
	logger            *zap.Logger
}

// BuilderOption 构建器选项
type BuilderOption func(*Builder)

// WithMultiSend 设置批量交易使用的 MultiSend / MultiSendCallOnly 合约
func WithMultiSend(multiSend, callOnly adapter.MultiSendContract) BuilderOption {
	return func(b *Builder) {
		b.multiSend = multiSend
		b.multiSendCallOnly = callOnly
	}
}

// WithLogger 设置日志
func WithLogger(logger *zap.Logger) BuilderOption {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBuilder 创建交易构建器
func NewBuilder(contract adapter.SafeContract, chainID int64, version types.SafeVersion, opts ...BuilderOption) *Builder {
	b := &Builder{
		contract: contract,
		chainID:  chainID,
		version:  version,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// SafeAddress 钱包地址
func (b *Builder) SafeAddress() common.Address {
	return b.contract.Address()
}

// Build 根据意图构建交易
//
// **流程**：
// 1. 校验意图中的地址（零地址、哨兵地址、校验和），失败时不发起任何链上请求
// 2. 并发读取所需的链上状态（owners / modules / threshold / nonce）
// 3. 检查前置条件并计算链表前驱
// 4. 编码调用数据，合并 Options，计算 EIP-712 摘要
func (b *Builder) Build(ctx context.Context, intent Intent, opts *Options) (*types.SafeTransaction, error) {
	if opts == nil {
		opts = &Options{}
	}

	var (
		data types.SafeTransactionData
		err  error
	)
	switch in := intent.(type) {
	case CallIntent:
		data, err = b.buildCall(ctx, in, opts)
	case MultiSendIntent:
		data, err = b.buildMultiSend(ctx, in, opts)
	case EnableModuleIntent:
		data, err = b.buildEnableModule(ctx, in, opts)
	case DisableModuleIntent:
		data, err = b.buildDisableModule(ctx, in, opts)
	case AddOwnerIntent:
		data, err = b.buildAddOwner(ctx, in, opts)
	case RemoveOwnerIntent:
		data, err = b.buildRemoveOwner(ctx, in, opts)
	case SwapOwnerIntent:
		data, err = b.buildSwapOwner(ctx, in, opts)
	case ChangeThresholdIntent:
		data, err = b.buildChangeThreshold(ctx, in, opts)
	case RejectionIntent:
		data = types.SafeTransactionData{To: b.SafeAddress(), Nonce: in.Nonce}
	default:
		return nil, fmt.Errorf("unsupported intent %T", intent)
	}
	if err != nil {
		return nil, err
	}

	data.SafeTxGas = opts.SafeTxGas
	data.BaseGas = opts.BaseGas
	data.GasPrice = opts.GasPrice
	data.GasToken = opts.GasToken
	data.RefundReceiver = opts.RefundReceiver
	data = data.Normalize()

	hash, err := TransactionHash(b.chainID, b.SafeAddress(), b.version, data)
	if err != nil {
		return nil, err
	}
	b.logger.Debug("built safe transaction",
		zap.String("intent", fmt.Sprintf("%T", intent)),
		zap.String("safe", b.SafeAddress().Hex()),
		zap.Uint64("nonce", data.Nonce),
		zap.String("hash", hash.Hex()))
	return types.NewSafeTransaction(data, hash), nil
}

func (b *Builder) buildCall(ctx context.Context, in CallIntent, opts *Options) (types.SafeTransactionData, error) {
	st, err := b.readState(ctx, 0, opts)
	if err != nil {
		return types.SafeTransactionData{}, err
	}
	return types.SafeTransactionData{
		To:        in.To,
		Value:     in.Value,
		Data:      append([]byte{}, in.Data...),
		Operation: in.Operation,
		Nonce:     st.nonce,
	}, nil
}

func (b *Builder) buildMultiSend(ctx context.Context, in MultiSendIntent, opts *Options) (types.SafeTransactionData, error) {
	switch len(in.Transactions) {
	case 0:
		return types.SafeTransactionData{}, fmt.Errorf("empty transaction batch")
	case 1:
		tx := in.Transactions[0]
		return b.buildCall(ctx, CallIntent{To: tx.To, Value: tx.Value, Data: tx.Data, Operation: tx.Operation}, opts)
	}

	target := b.multiSend
	if opts.OnlyCalls {
		target = b.multiSendCallOnly
		for i, tx := range in.Transactions {
			if tx.Operation != types.Call {
				return types.SafeTransactionData{}, fmt.Errorf("transaction %d: delegatecall not allowed with MultiSendCallOnly", i)
			}
		}
	}
	if target == nil {
		return types.SafeTransactionData{}, fmt.Errorf("multisend contract not configured")
	}

	payload, err := target.Encode("multiSend", utils.EncodeMultiSendData(in.Transactions))
	if err != nil {
		return types.SafeTransactionData{}, err
	}
	st, err := b.readState(ctx, 0, opts)
	if err != nil {
		return types.SafeTransactionData{}, err
	}
	return types.SafeTransactionData{
		To:        target.Address(),
		Data:      payload,
		Operation: types.DelegateCall,
		Nonce:     st.nonce,
	}, nil
}

func (b *Builder) buildEnableModule(ctx context.Context, in EnableModuleIntent, opts *Options) (types.SafeTransactionData, error) {
	module, err := parseMutable(in.Module)
	if err != nil {
		return types.SafeTransactionData{}, err
	}
	st, err := b.readState(ctx, needModules, opts)
	if err != nil {
		return types.SafeTransactionData{}, err
	}
	if utils.ContainsAddress(st.modules, module) {
		return types.SafeTransactionData{}, types.ErrAlreadyPresent.WithDetail("module %s is already enabled", module.Hex())
	}
	return b.selfCall(st, "enableModule", module)
}

func (b *Builder) buildDisableModule(ctx context.Context, in DisableModuleIntent, opts *Options) (types.SafeTransactionData, error) {
	module, err := parseMutable(in.Module)
	if err != nil {
		return types.SafeTransactionData{}, err
	}
	st, err := b.readState(ctx, needModules, opts)
	if err != nil {
		return types.SafeTransactionData{}, err
	}
	prev, ok := utils.PreviousInList(st.modules, module)
	if !ok {
		return types.SafeTransactionData{}, types.ErrNotPresent.WithDetail("module %s is not enabled", module.Hex())
	}
	return b.selfCall(st, "disableModule", prev, module)
}

func (b *Builder) buildAddOwner(ctx context.Context, in AddOwnerIntent, opts *Options) (types.SafeTransactionData, error) {
	owner, err := parseMutable(in.Owner)
	if err != nil {
		return types.SafeTransactionData{}, err
	}
	st, err := b.readState(ctx, needOwners|needThreshold, opts)
	if err != nil {
		return types.SafeTransactionData{}, err
	}
	if utils.ContainsAddress(st.owners, owner) {
		return types.SafeTransactionData{}, types.ErrAlreadyPresent.WithDetail("%s is already an owner", owner.Hex())
	}
	threshold := thresholdOrCurrent(in.Threshold, st.threshold)
	if err := checkThreshold(threshold, len(st.owners)+1); err != nil {
		return types.SafeTransactionData{}, err
	}
	return b.selfCall(st, "addOwnerWithThreshold", owner, new(big.Int).SetUint64(threshold))
}

func (b *Builder) buildRemoveOwner(ctx context.Context, in RemoveOwnerIntent, opts *Options) (types.SafeTransactionData, error) {
	owner, err := parseMutable(in.Owner)
	if err != nil {
		return types.SafeTransactionData{}, err
	}
	st, err := b.readState(ctx, needOwners|needThreshold, opts)
	if err != nil {
		return types.SafeTransactionData{}, err
	}
	prev, ok := utils.PreviousInList(st.owners, owner)
	if !ok {
		return types.SafeTransactionData{}, types.ErrNotPresent.WithDetail("%s is not an owner", owner.Hex())
	}
	threshold := thresholdOrCurrent(in.Threshold, st.threshold)
	if err := checkThreshold(threshold, len(st.owners)-1); err != nil {
		return types.SafeTransactionData{}, err
	}
	return b.selfCall(st, "removeOwner", prev, owner, new(big.Int).SetUint64(threshold))
}

func (b *Builder) buildSwapOwner(ctx context.Context, in SwapOwnerIntent, opts *Options) (types.SafeTransactionData, error) {
	oldOwner, err := parseMutable(in.Old)
	if err != nil {
		return types.SafeTransactionData{}, err
	}
	newOwner, err := parseMutable(in.New)
	if err != nil {
		return types.SafeTransactionData{}, err
	}
	st, err := b.readState(ctx, needOwners, opts)
	if err != nil {
		return types.SafeTransactionData{}, err
	}
	if utils.ContainsAddress(st.owners, newOwner) {
		return types.SafeTransactionData{}, types.ErrAlreadyPresent.WithDetail("%s is already an owner", newOwner.Hex())
	}
	prev, ok := utils.PreviousInList(st.owners, oldOwner)
	if !ok {
		return types.SafeTransactionData{}, types.ErrNotPresent.WithDetail("%s is not an owner", oldOwner.Hex())
	}
	return b.selfCall(st, "swapOwner", prev, oldOwner, newOwner)
}

func (b *Builder) buildChangeThreshold(ctx context.Context, in ChangeThresholdIntent, opts *Options) (types.SafeTransactionData, error) {
	st, err := b.readState(ctx, needOwners, opts)
	if err != nil {
		return types.SafeTransactionData{}, err
	}
	if err := checkThreshold(in.Threshold, len(st.owners)); err != nil {
		return types.SafeTransactionData{}, err
	}
	return b.selfCall(st, "changeThreshold", new(big.Int).SetUint64(in.Threshold))
}

// selfCall 构造对钱包自身的管理调用
func (b *Builder) selfCall(st *safeState, method string, args ...interface{}) (types.SafeTransactionData, error) {
	data, err := b.contract.Encode(method, args...)
	if err != nil {
		return types.SafeTransactionData{}, err
	}
	return types.SafeTransactionData{
		To:        b.SafeAddress(),
		Data:      data,
		Operation: types.Call,
		Nonce:     st.nonce,
	}, nil
}

const (
	needOwners = 1 << iota
	needModules
	needThreshold
)

type safeState struct {
	owners    []common.Address
	modules   []common.Address
	threshold uint64
	nonce     uint64
}

// readState 并发读取链上状态，任意一项失败则整体失败
func (b *Builder) readState(ctx context.Context, need int, opts *Options) (*safeState, error) {
	st := &safeState{}
	g, gctx := errgroup.WithContext(ctx)

	if need&needOwners != 0 {
		g.Go(func() error {
			owners, err := b.contract.GetOwners(gctx)
			if err != nil {
				return fmt.Errorf("read owners: %w", err)
			}
			st.owners = owners
			return nil
		})
	}
	if need&needModules != 0 {
		g.Go(func() error {
			modules, err := b.contract.GetModules(gctx)
			if err != nil {
				return fmt.Errorf("read modules: %w", err)
			}
			st.modules = modules
			return nil
		})
	}
	if need&needThreshold != 0 {
		g.Go(func() error {
			threshold, err := b.contract.GetThreshold(gctx)
			if err != nil {
				return fmt.Errorf("read threshold: %w", err)
			}
			st.threshold = threshold
			return nil
		})
	}
	if opts.Nonce != nil {
		st.nonce = *opts.Nonce
	} else {
		g.Go(func() error {
			nonce, err := b.contract.GetNonce(gctx)
			if err != nil {
				return fmt.Errorf("read nonce: %w", err)
			}
			st.nonce = nonce
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return st, nil
}

func parseMutable(addr string) (common.Address, error) {
	if err := utils.AssertMutable(addr); err != nil {
		return common.Address{}, err
	}
	return common.HexToAddress(addr), nil
}

func thresholdOrCurrent(requested *uint64, current uint64) uint64 {
	if requested != nil {
		return *requested
	}
	return current
}

// checkThreshold 门限必须落在 [1, owners]
func checkThreshold(threshold uint64, owners int) error {
	if threshold < 1 {
		return types.ErrThresholdViolation.WithDetail("threshold must be at least 1")
	}
	if owners < 0 || threshold > uint64(owners) {
		return types.ErrThresholdViolation.WithDetail("threshold %d exceeds %d owners", threshold, owners)
	}
	return nil
}
