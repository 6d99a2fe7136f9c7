package safe

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"github.com/safekit/safe-client-sdk-go/adapter"
	"github.com/safekit/safe-client-sdk-go/contracts"
	"github.com/safekit/safe-client-sdk-go/logger"
	"github.com/safekit/safe-client-sdk-go/services"
	"github.com/safekit/safe-client-sdk-go/types"
	"github.com/safekit/safe-client-sdk-go/utils"
)

// SafeAccountConfig 新钱包的 setup 参数
type SafeAccountConfig struct {
	Owners          []string
	Threshold       uint64
	To              string // 可选的初始化委托调用目标
	Data            []byte
	FallbackHandler string
	PaymentToken    string
	Payment         *big.Int
	PaymentReceiver string
}

// FactoryConfig 部署器配置
type FactoryConfig struct {
	Adapter            adapter.EthAdapter
	Version            types.SafeVersion // 为空时使用 DefaultSafeVersion
	ContractNetworks   services.ContractNetworksConfig
	IsL1SafeMasterCopy bool
	Logger             *zap.Logger
}

// Factory 通过代理工厂部署新钱包
type Factory struct {
	adapter   adapter.EthAdapter
	chainID   int64
	version   types.SafeVersion
	singleton adapter.SafeContract
	proxy     adapter.ProxyFactoryContract
	logger    *zap.Logger
}

// NewFactory 创建部署器
func NewFactory(ctx context.Context, cfg FactoryConfig) (*Factory, error) {
	if cfg.Adapter == nil {
		return nil, fmt.Errorf("safe factory: adapter is required")
	}
	if err := cfg.ContractNetworks.Validate(); err != nil {
		return nil, err
	}
	version := cfg.Version
	if version == "" {
		version = types.DefaultSafeVersion
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Log
	}

	chainID, err := cfg.Adapter.GetChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("get chain id: %w", err)
	}
	singleton, err := cfg.Adapter.GetSafeContract(ctx,
		cfg.ContractNetworks.ContractOptions(contracts.RoleSafe, chainID, version, cfg.IsL1SafeMasterCopy))
	if err != nil {
		return nil, err
	}
	proxy, err := cfg.Adapter.GetProxyFactoryContract(ctx,
		cfg.ContractNetworks.ContractOptions(contracts.RoleProxyFactory, chainID, version, cfg.IsL1SafeMasterCopy))
	if err != nil {
		return nil, err
	}

	return &Factory{
		adapter:   cfg.Adapter,
		chainID:   chainID,
		version:   version,
		singleton: singleton,
		proxy:     proxy,
		logger:    log,
	}, nil
}

// Initializer 编码 setup 调用
func (f *Factory) Initializer(cfg SafeAccountConfig) ([]byte, error) {
	owners, err := validateAccount(cfg)
	if err != nil {
		return nil, err
	}
	to, err := optionalAddress(cfg.To)
	if err != nil {
		return nil, fmt.Errorf("setup to: %w", err)
	}
	fallback, err := optionalAddress(cfg.FallbackHandler)
	if err != nil {
		return nil, fmt.Errorf("fallback handler: %w", err)
	}
	paymentToken, err := optionalAddress(cfg.PaymentToken)
	if err != nil {
		return nil, fmt.Errorf("payment token: %w", err)
	}
	paymentReceiver, err := optionalAddress(cfg.PaymentReceiver)
	if err != nil {
		return nil, fmt.Errorf("payment receiver: %w", err)
	}
	payment := cfg.Payment
	if payment == nil {
		payment = new(big.Int)
	}
	data := cfg.Data
	if data == nil {
		data = []byte{}
	}

	return f.singleton.Encode("setup",
		owners, new(big.Int).SetUint64(cfg.Threshold), to, data,
		fallback, paymentToken, payment, paymentReceiver)
}

// PredictSafeAddress 计算 createProxyWithNonce 的 CREATE2 部署地址
func (f *Factory) PredictSafeAddress(ctx context.Context, cfg SafeAccountConfig, saltNonce *big.Int) (common.Address, error) {
	initializer, err := f.Initializer(cfg)
	if err != nil {
		return common.Address{}, err
	}
	proxyCode, err := f.proxy.ProxyCreationCode(ctx)
	if err != nil {
		return common.Address{}, err
	}
	return create2Address(f.proxy.Address(), f.singleton.Address(), initializer, saltOrZero(saltNonce), proxyCode), nil
}

// DeploySafe 部署新钱包，返回钱包地址与部署回执
func (f *Factory) DeploySafe(ctx context.Context, cfg SafeAccountConfig, saltNonce *big.Int, opts *types.TransactionOptions) (common.Address, *types.TransactionResult, error) {
	if _, ok := f.adapter.GetSignerAddress(); !ok {
		return common.Address{}, nil, types.ErrNoSigner
	}
	salt := saltOrZero(saltNonce)
	address, err := f.PredictSafeAddress(ctx, cfg, salt)
	if err != nil {
		return common.Address{}, nil, err
	}
	initializer, err := f.Initializer(cfg)
	if err != nil {
		return common.Address{}, nil, err
	}

	result, err := f.proxy.CreateProxyWithNonce(ctx, f.singleton.Address(), initializer, salt, opts)
	if err != nil {
		return common.Address{}, result, err
	}
	f.logger.Info("safe deployed",
		zap.String("safe", address.Hex()),
		zap.String("tx", result.Hash.Hex()),
		zap.String("version", string(f.version)))
	return address, result, nil
}

func validateAccount(cfg SafeAccountConfig) ([]common.Address, error) {
	owners := make([]common.Address, 0, len(cfg.Owners))
	for _, owner := range cfg.Owners {
		if err := utils.AssertMutable(owner); err != nil {
			return nil, fmt.Errorf("owner %s: %w", owner, err)
		}
		addr := common.HexToAddress(owner)
		if utils.ContainsAddress(owners, addr) {
			return nil, types.ErrAlreadyPresent.WithDetail("duplicate owner %s", addr.Hex())
		}
		owners = append(owners, addr)
	}
	if cfg.Threshold < 1 || cfg.Threshold > uint64(len(owners)) {
		return nil, types.ErrThresholdViolation.WithDetail("threshold %d with %d owners", cfg.Threshold, len(owners))
	}
	return owners, nil
}

func optionalAddress(addr string) (common.Address, error) {
	if addr == "" {
		return common.Address{}, nil
	}
	return utils.ParseAddress(addr)
}

func saltOrZero(salt *big.Int) *big.Int {
	if salt == nil {
		return new(big.Int)
	}
	return salt
}

// create2Address salt = keccak(keccak(initializer) ‖ saltNonce)，initCode = proxyCode ‖ singleton
func create2Address(factory, singleton common.Address, initializer []byte, saltNonce *big.Int, proxyCode []byte) common.Address {
	salt := crypto.Keccak256(crypto.Keccak256(initializer), common.LeftPadBytes(saltNonce.Bytes(), 32))
	initCode := append(append([]byte{}, proxyCode...), common.LeftPadBytes(singleton.Bytes(), 32)...)
	return crypto.CreateAddress2(factory, common.BytesToHash(salt), crypto.Keccak256(initCode))
}
