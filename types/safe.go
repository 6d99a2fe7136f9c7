package types

import (
	"bytes"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// SafeVersion Safe 合约版本标签
type SafeVersion string

const (
	SafeVersion111 SafeVersion = "1.1.1"
	SafeVersion130 SafeVersion = "1.3.0"

	// DefaultSafeVersion 未显式指定时使用的版本
	DefaultSafeVersion = SafeVersion130
)

// Compare 按数字比较两个版本，a<b 返回 -1，相等返回 0，a>b 返回 1
func (v SafeVersion) Compare(other SafeVersion) int {
	a := strings.Split(string(v), ".")
	b := strings.Split(string(other), ".")
	for i := 0; i < len(a) || i < len(b); i++ {
		var x, y int
		if i < len(a) {
			x, _ = strconv.Atoi(a[i])
		}
		if i < len(b) {
			y, _ = strconv.Atoi(b[i])
		}
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
	}
	return 0
}

// AtLeast 当前版本是否不低于 other
func (v SafeVersion) AtLeast(other SafeVersion) bool {
	return v.Compare(other) >= 0
}

// OperationType Safe 执行的调用类型
type OperationType uint8

const (
	Call         OperationType = 0
	DelegateCall OperationType = 1
)

func (o OperationType) String() string {
	switch o {
	case Call:
		return "call"
	case DelegateCall:
		return "delegatecall"
	default:
		return fmt.Sprintf("operation(%d)", uint8(o))
	}
}

// MetaTransactionData 批量交易中的单个调用
type MetaTransactionData struct {
	To        common.Address `json:"to"`
	Value     *big.Int       `json:"value"`
	Data      hexutil.Bytes  `json:"data"`
	Operation OperationType  `json:"operation"`
}

// SafeTransactionData 交易描述符，字段与 Safe 合约 SafeTx 结构一一对应
type SafeTransactionData struct {
	To             common.Address `json:"to"`
	Value          *big.Int       `json:"value"`
	Data           hexutil.Bytes  `json:"data"`
	Operation      OperationType  `json:"operation"`
	SafeTxGas      *big.Int       `json:"safeTxGas"`
	BaseGas        *big.Int       `json:"baseGas"`
	GasPrice       *big.Int       `json:"gasPrice"`
	GasToken       common.Address `json:"gasToken"`
	RefundReceiver common.Address `json:"refundReceiver"`
	Nonce          uint64         `json:"nonce"`
}

// Normalize 将 nil 数值字段补为 0，返回副本
func (d SafeTransactionData) Normalize() SafeTransactionData {
	d.Value = orZero(d.Value)
	d.SafeTxGas = orZero(d.SafeTxGas)
	d.BaseGas = orZero(d.BaseGas)
	d.GasPrice = orZero(d.GasPrice)
	if d.Data == nil {
		d.Data = hexutil.Bytes{}
	}
	return d
}

// Copy 深拷贝
func (d SafeTransactionData) Copy() SafeTransactionData {
	out := d
	out.Value = copyBig(d.Value)
	out.SafeTxGas = copyBig(d.SafeTxGas)
	out.BaseGas = copyBig(d.BaseGas)
	out.GasPrice = copyBig(d.GasPrice)
	out.Data = append(hexutil.Bytes{}, d.Data...)
	return out
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}

func copyBig(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}

// SafeTransaction 已计算摘要的交易
//
// 摘要计算后描述符不可变：只暴露拷贝，没有任何 setter。
type SafeTransaction struct {
	data SafeTransactionData
	hash common.Hash
}

// NewSafeTransaction 由描述符与其摘要创建交易
func NewSafeTransaction(data SafeTransactionData, hash common.Hash) *SafeTransaction {
	return &SafeTransaction{data: data.Copy(), hash: hash}
}

// Data 返回描述符副本
func (t *SafeTransaction) Data() SafeTransactionData {
	return t.data.Copy()
}

// Hash 返回交易摘要
func (t *SafeTransaction) Hash() common.Hash {
	return t.hash
}

// SafeSignature 单个 owner 的签名
type SafeSignature struct {
	Signer common.Address `json:"signer"`
	Data   hexutil.Bytes  `json:"data"`
}

// EncodeSignatures 按给定顺序拼接签名（调用方负责按 owner 升序排列）
func EncodeSignatures(sigs []SafeSignature) []byte {
	var buf bytes.Buffer
	for _, sig := range sigs {
		buf.Write(sig.Data)
	}
	return buf.Bytes()
}

// TransactionResult 链上执行结果
type TransactionResult struct {
	Hash        common.Hash `json:"hash"`
	BlockNumber uint64      `json:"blockNumber"`
	GasUsed     uint64      `json:"gasUsed"`
	Success     bool        `json:"success"`
}

// TransactionOptions 发送链上交易的可选参数
type TransactionOptions struct {
	GasLimit uint64
	GasPrice *big.Int
	Nonce    *uint64
}
