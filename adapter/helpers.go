package adapter

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/safekit/safe-client-sdk-go/contracts"
	"github.com/safekit/safe-client-sdk-go/types"
	"github.com/safekit/safe-client-sdk-go/utils"
)

type multiSendContract struct {
	bound BoundContract
}

// NewMultiSendContract 构造 MultiSend 句柄
func NewMultiSendContract(bound BoundContract) MultiSendContract {
	return &multiSendContract{bound: bound}
}

func (c *multiSendContract) Address() common.Address {
	return c.bound.Address()
}

func (c *multiSendContract) Encode(method string, args ...interface{}) ([]byte, error) {
	return utils.EncodeFunctionData(*c.bound.ABI(), method, args...)
}

type proxyFactoryContract struct {
	bound BoundContract
	check *CodeCheck
}

// NewProxyFactoryContract 构造代理工厂句柄
func NewProxyFactoryContract(bound BoundContract, check *CodeCheck) ProxyFactoryContract {
	return &proxyFactoryContract{bound: bound, check: check}
}

func (c *proxyFactoryContract) Address() common.Address {
	return c.bound.Address()
}

func (c *proxyFactoryContract) Encode(method string, args ...interface{}) ([]byte, error) {
	return utils.EncodeFunctionData(*c.bound.ABI(), method, args...)
}

func (c *proxyFactoryContract) ProxyCreationCode(ctx context.Context) ([]byte, error) {
	if err := c.check.Ensure(ctx); err != nil {
		return nil, err
	}
	out, err := c.bound.Call(ctx, "proxyCreationCode")
	if err != nil {
		return nil, fmt.Errorf("proxyCreationCode: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("proxyCreationCode: empty result")
	}
	code, ok := out[0].([]byte)
	if !ok {
		return nil, fmt.Errorf("proxyCreationCode: unexpected output type %T", out[0])
	}
	return code, nil
}

func (c *proxyFactoryContract) CreateProxyWithNonce(ctx context.Context, singleton common.Address, initializer []byte, saltNonce *big.Int, opts *types.TransactionOptions) (*types.TransactionResult, error) {
	if err := c.check.Ensure(ctx); err != nil {
		return nil, err
	}
	result, err := c.bound.Transact(ctx, opts, "createProxyWithNonce", singleton, initializer, saltNonce)
	if err != nil {
		return nil, fmt.Errorf("createProxyWithNonce: %w", WrapRevert(err))
	}
	if !result.Success {
		return result, types.ErrExecutionReverted.WithDetail("createProxyWithNonce reverted in %s", result.Hash.Hex())
	}
	return result, nil
}

// Binder 由适配器实现：把解析结果绑定为 BoundContract
type Binder interface {
	Bind(binding *Binding) BoundContract
	GetCode(ctx context.Context, addr common.Address) ([]byte, error)
}

// Contracts 适配器共享的合约句柄工厂
type Contracts struct {
	binder Binder
}

// NewContracts 创建句柄工厂
func NewContracts(binder Binder) *Contracts {
	return &Contracts{binder: binder}
}

// GetSafeContract 获取钱包合约句柄
func (c *Contracts) GetSafeContract(_ context.Context, opts ContractOptions) (SafeContract, error) {
	b, err := ResolveSafe(opts)
	if err != nil {
		return nil, err
	}
	return NewSafeContract(c.binder.Bind(b), NewCodeCheck(b.Address, c.binder.GetCode)), nil
}

// GetMultiSendContract 获取 MultiSend 句柄
func (c *Contracts) GetMultiSendContract(_ context.Context, opts ContractOptions) (MultiSendContract, error) {
	b, err := Resolve(contracts.RoleMultiSend, opts)
	if err != nil {
		return nil, err
	}
	return NewMultiSendContract(c.binder.Bind(b)), nil
}

// GetMultiSendCallOnlyContract 获取 MultiSendCallOnly 句柄
func (c *Contracts) GetMultiSendCallOnlyContract(_ context.Context, opts ContractOptions) (MultiSendContract, error) {
	b, err := Resolve(contracts.RoleMultiSendCallOnly, opts)
	if err != nil {
		return nil, err
	}
	return NewMultiSendContract(c.binder.Bind(b)), nil
}

// GetProxyFactoryContract 获取代理工厂句柄
func (c *Contracts) GetProxyFactoryContract(_ context.Context, opts ContractOptions) (ProxyFactoryContract, error) {
	b, err := Resolve(contracts.RoleProxyFactory, opts)
	if err != nil {
		return nil, err
	}
	return NewProxyFactoryContract(c.binder.Bind(b), NewCodeCheck(b.Address, c.binder.GetCode)), nil
}
