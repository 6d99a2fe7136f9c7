// Package gethadapter 基于 go-ethereum ethclient 与 bind.BoundContract 的链适配器
package gethadapter

import (
	"context"
	"fmt"
	"math/big"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"github.com/safekit/safe-client-sdk-go/adapter"
	"github.com/safekit/safe-client-sdk-go/types"
	"github.com/safekit/safe-client-sdk-go/wallet"
)

// Config 适配器配置
type Config struct {
	// RPCURL 节点地址（http/https/ws/wss）
	RPCURL string
	// Signer 签名钱包，只读场景可为空
	Signer wallet.Wallet
	Logger *zap.Logger
}

// Adapter 以 ethclient 为后端的 EthAdapter
type Adapter struct {
	*adapter.Contracts

	client *ethclient.Client
	signer wallet.Wallet
	logger *zap.Logger
}

var _ adapter.EthAdapter = (*Adapter)(nil)

// New 连接节点并创建适配器
func New(ctx context.Context, cfg Config) (*Adapter, error) {
	client, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.RPCURL, err)
	}
	return NewWithClient(client, cfg.Signer, cfg.Logger), nil
}

// NewWithClient 使用已有的 ethclient 创建适配器
func NewWithClient(client *ethclient.Client, signer wallet.Wallet, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Adapter{
		client: client,
		signer: signer,
		logger: logger.With(zap.String("adapter", "geth")),
	}
	a.Contracts = adapter.NewContracts(a)
	return a
}

// GetChainID 返回链 ID
func (a *Adapter) GetChainID(ctx context.Context) (int64, error) {
	id, err := a.client.ChainID(ctx)
	if err != nil {
		return 0, fmt.Errorf("get chain id: %w", err)
	}
	return id.Int64(), nil
}

// GetSignerAddress 返回签名账户地址
func (a *Adapter) GetSignerAddress() (common.Address, bool) {
	if a.signer == nil {
		return common.Address{}, false
	}
	return a.signer.Address(), true
}

// SignMessage EIP-191 签名
func (a *Adapter) SignMessage(_ context.Context, msg []byte) ([]byte, error) {
	if a.signer == nil {
		return nil, types.ErrNoSigner
	}
	return a.signer.SignMessage(msg)
}

// SignHash 签名摘要
func (a *Adapter) SignHash(_ context.Context, hash common.Hash) ([]byte, error) {
	if a.signer == nil {
		return nil, types.ErrNoSigner
	}
	return a.signer.SignHash(hash.Bytes())
}

// GetBalance 查询余额
func (a *Adapter) GetBalance(ctx context.Context, addr common.Address) (*big.Int, error) {
	bal, err := a.client.BalanceAt(ctx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("get balance of %s: %w", addr.Hex(), err)
	}
	return bal, nil
}

// GetCode 查询合约代码
func (a *Adapter) GetCode(ctx context.Context, addr common.Address) ([]byte, error) {
	code, err := a.client.CodeAt(ctx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("get code of %s: %w", addr.Hex(), err)
	}
	return code, nil
}

// Bind 把解析结果绑定为 bind.BoundContract
func (a *Adapter) Bind(b *adapter.Binding) adapter.BoundContract {
	parsed := b.ABI
	return &boundContract{
		adapter:  a,
		address:  b.Address,
		abi:      &parsed,
		contract: bind.NewBoundContract(b.Address, parsed, a.client, a.client, a.client),
	}
}

// Close 关闭连接
func (a *Adapter) Close() error {
	a.client.Close()
	return nil
}

type boundContract struct {
	adapter  *Adapter
	address  common.Address
	abi      *abi.ABI
	contract *bind.BoundContract
}

func (c *boundContract) Address() common.Address { return c.address }

func (c *boundContract) ABI() *abi.ABI { return c.abi }

func (c *boundContract) Call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	var out []interface{}
	if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, method, args...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *boundContract) EstimateGas(ctx context.Context, from common.Address, data []byte) (uint64, error) {
	to := c.address
	return c.adapter.client.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &to, Data: data})
}

// Transact 使用 KeyedTransactor 签名发送并等待打包
func (c *boundContract) Transact(ctx context.Context, opts *types.TransactionOptions, method string, args ...interface{}) (*types.TransactionResult, error) {
	signer := c.adapter.signer
	if signer == nil {
		return nil, types.ErrNoSigner
	}

	chainID, err := c.adapter.client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("get chain id: %w", err)
	}
	auth, err := bind.NewKeyedTransactorWithChainID(signer.PrivateKey(), chainID)
	if err != nil {
		return nil, fmt.Errorf("create transactor: %w", err)
	}
	auth.Context = ctx

	if opts != nil {
		auth.GasLimit = opts.GasLimit
		auth.GasPrice = opts.GasPrice
		if opts.Nonce != nil {
			auth.Nonce = new(big.Int).SetUint64(*opts.Nonce)
		}
	}
	// 显式 gasPrice 使交易为 legacy 类型，与 rpcadapter 行为一致
	if auth.GasPrice == nil {
		if auth.GasPrice, err = c.adapter.client.SuggestGasPrice(ctx); err != nil {
			return nil, fmt.Errorf("suggest gas price: %w", err)
		}
	}

	tx, err := c.contract.Transact(auth, method, args...)
	if err != nil {
		return nil, err
	}
	c.adapter.logger.Debug("transaction sent",
		zap.String("method", method),
		zap.String("to", c.address.Hex()),
		zap.String("tx", tx.Hash().Hex()))

	receipt, err := bind.WaitMined(ctx, c.adapter.client, tx)
	if err != nil {
		return nil, fmt.Errorf("wait for %s: %w", tx.Hash().Hex(), err)
	}
	return &types.TransactionResult{
		Hash:        tx.Hash(),
		BlockNumber: receipt.BlockNumber.Uint64(),
		GasUsed:     receipt.GasUsed,
		Success:     receipt.Status == 1,
	}, nil
}
