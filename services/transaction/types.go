package transaction

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/safekit/safe-client-sdk-go/types"
)

// Intent 交易意图
//
// 只有本包定义的意图类型可以传给 Builder.Build。
type Intent interface {
	intent()
}

// CallIntent 单笔调用
type CallIntent struct {
	To        common.Address
	Value     *big.Int
	Data      []byte
	Operation types.OperationType
}

// MultiSendIntent 批量调用，经 MultiSend 合约以 DelegateCall 执行
//
// 只有一笔调用时退化为直接调用。
type MultiSendIntent struct {
	Transactions []types.MetaTransactionData
}

// EnableModuleIntent 启用模块
type EnableModuleIntent struct {
	Module string // 模块地址（EIP-55）
}

// DisableModuleIntent 停用模块
type DisableModuleIntent struct {
	Module string
}

// AddOwnerIntent 添加 owner
type AddOwnerIntent struct {
	Owner     string
	Threshold *uint64 // 新门限，为空时保持当前门限
}

// RemoveOwnerIntent 移除 owner
type RemoveOwnerIntent struct {
	Owner     string
	Threshold *uint64 // 新门限，为空时保持当前门限
}

// SwapOwnerIntent 替换 owner
type SwapOwnerIntent struct {
	Old string
	New string
}

// ChangeThresholdIntent 修改门限
type ChangeThresholdIntent struct {
	Threshold uint64
}

// RejectionIntent 拒绝交易：占用指定 nonce 的空交易，使同 nonce 的其他交易失效
type RejectionIntent struct {
	Nonce uint64
}

func (CallIntent) intent()            {}
func (MultiSendIntent) intent()       {}
func (EnableModuleIntent) intent()    {}
func (DisableModuleIntent) intent()   {}
func (AddOwnerIntent) intent()        {}
func (RemoveOwnerIntent) intent()     {}
func (SwapOwnerIntent) intent()       {}
func (ChangeThresholdIntent) intent() {}
func (RejectionIntent) intent()       {}

// Options 交易描述符的可选字段
type Options struct {
	Nonce          *uint64 // 为空时读取链上 nonce()
	SafeTxGas      *big.Int
	BaseGas        *big.Int
	GasPrice       *big.Int
	GasToken       common.Address
	RefundReceiver common.Address

	// OnlyCalls 批量交易使用 MultiSendCallOnly
	OnlyCalls bool
}
