// Package rpcadapter 基于 SDK 自带 JSON-RPC 客户端的链适配器
//
// 合约调用通过 abi.Pack/Unpack 手工编解码，交易在本地构造 legacy 交易签名后
// 以 eth_sendRawTransaction 广播，并轮询回执。
package rpcadapter

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/safekit/safe-client-sdk-go/adapter"
	"github.com/safekit/safe-client-sdk-go/client"
	"github.com/safekit/safe-client-sdk-go/types"
	"github.com/safekit/safe-client-sdk-go/wallet"
)

// DefaultPollInterval 回执轮询间隔
const DefaultPollInterval = time.Second

// Config 适配器配置
type Config struct {
	// Client JSON-RPC 客户端配置（HTTP 或 WebSocket）
	Client *client.Config
	// Signer 签名钱包，只读场景可为空
	Signer wallet.Wallet
	// PollInterval 回执轮询间隔，为 0 时使用 DefaultPollInterval
	PollInterval time.Duration
	Logger       *zap.Logger
}

// Adapter 以 client.Client 为后端的 EthAdapter
type Adapter struct {
	*adapter.Contracts

	rpc          client.Client
	signer       wallet.Wallet
	pollInterval time.Duration
	logger       *zap.Logger

	chainMu sync.Mutex
	chainID *big.Int
}

var _ adapter.EthAdapter = (*Adapter)(nil)

// New 创建适配器
func New(cfg Config) (*Adapter, error) {
	clientCfg := cfg.Client
	if clientCfg == nil {
		clientCfg = client.DefaultConfig()
	}
	if clientCfg.Logger == nil {
		clientCfg.Logger = cfg.Logger
	}
	rpc, err := client.NewClient(clientCfg)
	if err != nil {
		return nil, err
	}
	return NewWithClient(rpc, cfg.Signer, cfg.PollInterval, cfg.Logger), nil
}

// NewWithClient 使用已有 JSON-RPC 客户端创建适配器
func NewWithClient(rpc client.Client, signer wallet.Wallet, pollInterval time.Duration, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	a := &Adapter{
		rpc:          rpc,
		signer:       signer,
		pollInterval: pollInterval,
		logger:       logger.With(zap.String("adapter", "jsonrpc")),
	}
	a.Contracts = adapter.NewContracts(a)
	return a
}

// GetChainID 返回链 ID
func (a *Adapter) GetChainID(ctx context.Context) (int64, error) {
	id, err := a.chainIDBig(ctx)
	if err != nil {
		return 0, err
	}
	return id.Int64(), nil
}

// chainIDBig 链 ID 在连接生命周期内不变，成功后缓存
func (a *Adapter) chainIDBig(ctx context.Context) (*big.Int, error) {
	a.chainMu.Lock()
	defer a.chainMu.Unlock()
	if a.chainID != nil {
		return a.chainID, nil
	}

	var id hexutil.Big
	if err := client.CallFor(ctx, a.rpc, &id, "eth_chainId"); err != nil {
		return nil, fmt.Errorf("get chain id: %w", err)
	}
	a.chainID = (*big.Int)(&id)
	return a.chainID, nil
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
	var bal hexutil.Big
	if err := client.CallFor(ctx, a.rpc, &bal, "eth_getBalance", addr, "latest"); err != nil {
		return nil, fmt.Errorf("get balance of %s: %w", addr.Hex(), err)
	}
	return (*big.Int)(&bal), nil
}

// GetCode 查询合约代码
func (a *Adapter) GetCode(ctx context.Context, addr common.Address) ([]byte, error) {
	var code hexutil.Bytes
	if err := client.CallFor(ctx, a.rpc, &code, "eth_getCode", addr, "latest"); err != nil {
		return nil, fmt.Errorf("get code of %s: %w", addr.Hex(), err)
	}
	return code, nil
}

// Bind 绑定合约
func (a *Adapter) Bind(b *adapter.Binding) adapter.BoundContract {
	parsed := b.ABI
	return &boundContract{adapter: a, address: b.Address, abi: &parsed}
}

// Close 关闭连接
func (a *Adapter) Close() error {
	return a.rpc.Close()
}

type callMsg struct {
	From *common.Address `json:"from,omitempty"`
	To   common.Address  `json:"to"`
	Data hexutil.Bytes   `json:"data"`
}

type boundContract struct {
	adapter *Adapter
	address common.Address
	abi     *abi.ABI
}

func (c *boundContract) Address() common.Address { return c.address }

func (c *boundContract) ABI() *abi.ABI { return c.abi }

func (c *boundContract) Call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	var out hexutil.Bytes
	if err := client.CallFor(ctx, c.adapter.rpc, &out, "eth_call", callMsg{To: c.address, Data: data}, "latest"); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s returned no data", method)
	}
	values, err := c.abi.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return values, nil
}

func (c *boundContract) EstimateGas(ctx context.Context, from common.Address, data []byte) (uint64, error) {
	var gas hexutil.Uint64
	if err := client.CallFor(ctx, c.adapter.rpc, &gas, "eth_estimateGas", callMsg{From: &from, To: c.address, Data: data}); err != nil {
		return 0, err
	}
	return uint64(gas), nil
}

// Transact 本地构造并签名 legacy 交易，广播后轮询回执
func (c *boundContract) Transact(ctx context.Context, opts *types.TransactionOptions, method string, args ...interface{}) (*types.TransactionResult, error) {
	a := c.adapter
	if a.signer == nil {
		return nil, types.ErrNoSigner
	}
	if opts == nil {
		opts = &types.TransactionOptions{}
	}

	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	chainID, err := a.chainIDBig(ctx)
	if err != nil {
		return nil, err
	}
	from := a.signer.Address()

	var nonce uint64
	if opts.Nonce != nil {
		nonce = *opts.Nonce
	} else {
		var n hexutil.Uint64
		if err := client.CallFor(ctx, a.rpc, &n, "eth_getTransactionCount", from, "pending"); err != nil {
			return nil, fmt.Errorf("get nonce of %s: %w", from.Hex(), err)
		}
		nonce = uint64(n)
	}

	gasPrice := opts.GasPrice
	if gasPrice == nil {
		var p hexutil.Big
		if err := client.CallFor(ctx, a.rpc, &p, "eth_gasPrice"); err != nil {
			return nil, fmt.Errorf("get gas price: %w", err)
		}
		gasPrice = (*big.Int)(&p)
	}

	gasLimit := opts.GasLimit
	if gasLimit == 0 {
		if gasLimit, err = c.EstimateGas(ctx, from, data); err != nil {
			return nil, fmt.Errorf("estimate gas for %s: %w", method, err)
		}
	}

	to := c.address
	tx := ethtypes.NewTx(&ethtypes.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})
	signed, err := a.signer.SignTransaction(tx, chainID)
	if err != nil {
		return nil, err
	}
	raw, err := signed.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("encode transaction: %w", err)
	}

	hash, err := a.rpc.SendRawTransaction(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("send %s: %w", method, err)
	}
	a.logger.Debug("transaction sent",
		zap.String("method", method),
		zap.String("to", c.address.Hex()),
		zap.String("tx", hash.Hex()))

	return a.waitMined(ctx, hash)
}

type rpcReceipt struct {
	Status      hexutil.Uint64 `json:"status"`
	BlockNumber *hexutil.Big   `json:"blockNumber"`
	GasUsed     hexutil.Uint64 `json:"gasUsed"`
}

var errReceiptNotFound = errors.New("receipt not found")

// waitMined 轮询回执直到交易被打包或 ctx 结束
func (a *Adapter) waitMined(ctx context.Context, hash common.Hash) (*types.TransactionResult, error) {
	ticker := time.NewTicker(a.pollInterval)
	defer ticker.Stop()

	for {
		result, err := a.receipt(ctx, hash)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, errReceiptNotFound) {
			a.logger.Warn("receipt query failed", zap.String("tx", hash.Hex()), zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("wait for %s: %w", hash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}

func (a *Adapter) receipt(ctx context.Context, hash common.Hash) (*types.TransactionResult, error) {
	var r *rpcReceipt
	if err := client.CallFor(ctx, a.rpc, &r, "eth_getTransactionReceipt", hash); err != nil {
		return nil, err
	}
	if r == nil {
		return nil, errReceiptNotFound
	}
	result := &types.TransactionResult{
		Hash:    hash,
		GasUsed: uint64(r.GasUsed),
		Success: r.Status == 1,
	}
	if r.BlockNumber != nil {
		result.BlockNumber = (*big.Int)(r.BlockNumber).Uint64()
	}
	return result, nil
}
