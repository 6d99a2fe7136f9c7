// Package safe 多签钱包门面
//
// Safe 把链适配器、交易构建器与签名存储组合成一个面向单个钱包的入口：
// 读取链上状态、构建交易、收集签名并在达到门限后执行。
// 每笔构建出的交易按摘要登记，状态机见 State。
package safe

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/safekit/safe-client-sdk-go/adapter"
	"github.com/safekit/safe-client-sdk-go/contracts"
	"github.com/safekit/safe-client-sdk-go/logger"
	"github.com/safekit/safe-client-sdk-go/monitor"
	"github.com/safekit/safe-client-sdk-go/services"
	"github.com/safekit/safe-client-sdk-go/services/signature"
	"github.com/safekit/safe-client-sdk-go/services/transaction"
	"github.com/safekit/safe-client-sdk-go/types"
	"github.com/safekit/safe-client-sdk-go/utils"
)

// Config 钱包门面配置
type Config struct {
	Adapter     adapter.EthAdapter
	SafeAddress string // 钱包代理地址（EIP-55）

	// Version 合约版本，为空时读取链上 VERSION()
	Version types.SafeVersion

	ContractNetworks services.ContractNetworksConfig

	// Store 签名存储，默认进程内存储
	Store signature.Store

	Logger  *zap.Logger
	Metrics *monitor.Metrics

	// IsL1SafeMasterCopy 使用 L1 主合约 ABI（默认 L2）
	IsL1SafeMasterCopy bool
}

// Safe 多签钱包
type Safe struct {
	adapter          adapter.EthAdapter
	address          common.Address
	chainID          int64
	version          types.SafeVersion
	isL1             bool
	contractNetworks services.ContractNetworksConfig

	contract adapter.SafeContract
	builder  *transaction.Builder
	store    signature.Store
	logger   *zap.Logger
	metrics  *monitor.Metrics

	mu      sync.Mutex
	pending map[common.Hash]*pendingTx
}

type pendingTx struct {
	tx        *types.SafeTransaction
	state     State
	executing bool
	result    *types.TransactionResult
}

// Create 连接到已部署的钱包
//
// **流程**：
// 1. 本地校验钱包地址与自定义部署配置
// 2. 读取链 ID，未指定版本时读取链上 VERSION()
// 3. 按版本解析钱包合约与 MultiSend 句柄（不访问网络）
func Create(ctx context.Context, cfg Config) (*Safe, error) {
	if cfg.Adapter == nil {
		return nil, fmt.Errorf("safe: adapter is required")
	}
	address, err := utils.ParseAddress(cfg.SafeAddress)
	if err != nil {
		return nil, fmt.Errorf("safe address: %w", err)
	}
	if err := cfg.ContractNetworks.Validate(); err != nil {
		return nil, err
	}

	log := cfg.Logger
	if log == nil {
		log = logger.Log
	}
	store := cfg.Store
	if store == nil {
		store = signature.NewMemoryStore()
	}

	chainID, err := cfg.Adapter.GetChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("get chain id: %w", err)
	}

	s := &Safe{
		adapter:          cfg.Adapter,
		address:          address,
		chainID:          chainID,
		version:          cfg.Version,
		isL1:             cfg.IsL1SafeMasterCopy,
		contractNetworks: cfg.ContractNetworks,
		store:            store,
		logger:           log.With(zap.String("safe", address.Hex()), zap.Int64("chain_id", chainID)),
		metrics:          cfg.Metrics,
		pending:          make(map[common.Hash]*pendingTx),
	}

	if s.version == "" {
		probe, err := s.safeContract(ctx, types.DefaultSafeVersion)
		if err != nil {
			return nil, err
		}
		if s.version, err = probe.GetVersion(ctx); err != nil {
			return nil, fmt.Errorf("read safe version: %w", err)
		}
	}
	if _, err := contracts.Lookup(contracts.RoleSafe, s.version); err != nil {
		return nil, err
	}

	if s.contract, err = s.safeContract(ctx, s.version); err != nil {
		return nil, err
	}

	multiSend, err := cfg.Adapter.GetMultiSendContract(ctx, s.options(contracts.RoleMultiSend))
	if err != nil && !optionalContract(err) {
		return nil, err
	}
	callOnly, err := cfg.Adapter.GetMultiSendCallOnlyContract(ctx, s.options(contracts.RoleMultiSendCallOnly))
	if err != nil && !optionalContract(err) {
		return nil, err
	}

	s.builder = transaction.NewBuilder(s.contract, chainID, s.version,
		transaction.WithMultiSend(multiSend, callOnly),
		transaction.WithLogger(s.logger))

	s.logger.Debug("safe connected", zap.String("version", string(s.version)))
	return s, nil
}

// optionalContract 批量交易合约缺失不影响连接，使用时再报错
func optionalContract(err error) bool {
	return errors.Is(err, types.ErrContractNotDeployed) || errors.Is(err, types.ErrUnsupportedVersion)
}

func (s *Safe) options(role contracts.Role) adapter.ContractOptions {
	return s.contractNetworks.ContractOptions(role, s.chainID, s.version, s.isL1)
}

func (s *Safe) safeContract(ctx context.Context, version types.SafeVersion) (adapter.SafeContract, error) {
	opts := s.contractNetworks.ContractOptions(contracts.RoleSafe, s.chainID, version, s.isL1)
	addr := s.address
	opts.Address = &addr
	return s.adapter.GetSafeContract(ctx, opts)
}

// GetAddress 钱包地址
func (s *Safe) GetAddress() common.Address {
	return s.address
}

// GetVersion 合约版本
func (s *Safe) GetVersion() types.SafeVersion {
	return s.version
}

// GetChainID 链 ID
func (s *Safe) GetChainID() int64 {
	return s.chainID
}

// GetContract 钱包合约句柄
func (s *Safe) GetContract() adapter.SafeContract {
	return s.contract
}

func (s *Safe) GetNonce(ctx context.Context) (uint64, error) {
	return s.contract.GetNonce(ctx)
}

func (s *Safe) GetThreshold(ctx context.Context) (uint64, error) {
	return s.contract.GetThreshold(ctx)
}

func (s *Safe) GetOwners(ctx context.Context) ([]common.Address, error) {
	return s.contract.GetOwners(ctx)
}

func (s *Safe) GetModules(ctx context.Context) ([]common.Address, error) {
	return s.contract.GetModules(ctx)
}

// IsModuleEnabled 模块是否启用
func (s *Safe) IsModuleEnabled(ctx context.Context, module string) (bool, error) {
	addr, err := utils.ParseAddress(module)
	if err != nil {
		return false, err
	}
	return s.contract.IsModuleEnabled(ctx, addr)
}

// IsOwner 地址是否为 owner
func (s *Safe) IsOwner(ctx context.Context, owner string) (bool, error) {
	addr, err := utils.ParseAddress(owner)
	if err != nil {
		return false, err
	}
	return s.contract.IsOwner(ctx, addr)
}

// GetBalance 钱包原生币余额（wei）
func (s *Safe) GetBalance(ctx context.Context) (*big.Int, error) {
	return s.adapter.GetBalance(ctx, s.address)
}
