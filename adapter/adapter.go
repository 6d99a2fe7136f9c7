// Package adapter 定义链适配层
//
// EthAdapter 把"获取钱包合约 / MultiSend / MultiSendCallOnly / 代理工厂"解析成与版本、
// 底层以太坊库无关的合约句柄。gethadapter 与 rpcadapter 是两种实现，只需提供
// BoundContract 原语，其余行为（部署解析、延迟代码检查、合约读写）在本包共享。
package adapter

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/safekit/safe-client-sdk-go/contracts"
	"github.com/safekit/safe-client-sdk-go/types"
)

// EthAdapter 链适配器
type EthAdapter interface {
	// GetChainID 返回当前连接的链 ID
	GetChainID(ctx context.Context) (int64, error)

	// GetSignerAddress 返回签名账户地址，未配置签名者时 ok 为 false
	GetSignerAddress() (common.Address, bool)

	// SignMessage 按 EIP-191 签名消息，v ∈ {27, 28}
	SignMessage(ctx context.Context, msg []byte) ([]byte, error)

	// SignHash 直接签名 32 字节摘要，v ∈ {27, 28}
	SignHash(ctx context.Context, hash common.Hash) ([]byte, error)

	GetBalance(ctx context.Context, addr common.Address) (*big.Int, error)
	GetCode(ctx context.Context, addr common.Address) ([]byte, error)

	GetSafeContract(ctx context.Context, opts ContractOptions) (SafeContract, error)
	GetMultiSendContract(ctx context.Context, opts ContractOptions) (MultiSendContract, error)
	GetMultiSendCallOnlyContract(ctx context.Context, opts ContractOptions) (MultiSendContract, error)
	GetProxyFactoryContract(ctx context.Context, opts ContractOptions) (ProxyFactoryContract, error)

	// Close 释放底层连接
	Close() error
}

// ContractOptions 合约解析参数
//
// 优先级：CustomContractAddress > SingletonDeployment > 部署表默认地址。
type ContractOptions struct {
	Version types.SafeVersion
	ChainID int64

	// SingletonDeployment 调用方提供的部署描述
	SingletonDeployment *contracts.SingletonDeployment

	// CustomContractAddress 自定义合约地址（必须为 EIP-55 校验和格式）
	CustomContractAddress string
	// CustomContractABI 自定义合约 ABI，为空时使用部署表中的 ABI
	CustomContractABI string

	// Address 钱包代理地址，仅 GetSafeContract 使用
	Address *common.Address

	// IsL1 选择 L1 钱包主合约（默认 L2）
	IsL1 bool
}

// BoundContract 绑定到地址与 ABI 的合约原语，由各适配器实现
type BoundContract interface {
	Address() common.Address
	ABI() *abi.ABI

	// Call 执行只读调用并返回解码后的输出
	Call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error)

	// Transact 签名并发送交易，等待回执
	Transact(ctx context.Context, opts *types.TransactionOptions, method string, args ...interface{}) (*types.TransactionResult, error)

	// EstimateGas 估算从 from 发起调用所需 gas
	EstimateGas(ctx context.Context, from common.Address, data []byte) (uint64, error)
}

// SafeContract 钱包合约句柄
type SafeContract interface {
	Address() common.Address
	GetVersion(ctx context.Context) (types.SafeVersion, error)
	GetOwners(ctx context.Context) ([]common.Address, error)
	GetModules(ctx context.Context) ([]common.Address, error)
	IsModuleEnabled(ctx context.Context, module common.Address) (bool, error)
	IsOwner(ctx context.Context, owner common.Address) (bool, error)
	GetNonce(ctx context.Context) (uint64, error)
	GetThreshold(ctx context.Context) (uint64, error)

	// GetTransactionHash 由合约计算交易摘要，用于与本地计算结果对账
	GetTransactionHash(ctx context.Context, data types.SafeTransactionData) (common.Hash, error)

	// Call 执行任意只读方法
	Call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error)
	// Encode 编码调用数据
	Encode(method string, args ...interface{}) ([]byte, error)
	EstimateGas(ctx context.Context, from common.Address, data []byte) (uint64, error)

	// ExecTransaction 提交 execTransaction 并等待回执
	//
	// 回执状态为失败时同时返回结果与 ErrExecutionReverted。
	ExecTransaction(ctx context.Context, tx *types.SafeTransaction, signatures []byte, opts *types.TransactionOptions) (*types.TransactionResult, error)

	// ApproveHash 由当前签名者链上批准摘要
	ApproveHash(ctx context.Context, hash common.Hash, opts *types.TransactionOptions) (*types.TransactionResult, error)
}

// MultiSendContract MultiSend / MultiSendCallOnly 句柄
type MultiSendContract interface {
	Address() common.Address
	Encode(method string, args ...interface{}) ([]byte, error)
}

// ProxyFactoryContract 代理工厂句柄
type ProxyFactoryContract interface {
	Address() common.Address
	Encode(method string, args ...interface{}) ([]byte, error)
	ProxyCreationCode(ctx context.Context) ([]byte, error)
	CreateProxyWithNonce(ctx context.Context, singleton common.Address, initializer []byte, saltNonce *big.Int, opts *types.TransactionOptions) (*types.TransactionResult, error)
}
