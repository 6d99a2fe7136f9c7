package txservice

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Signer 对委托请求做 EIP-191 签名的身份
//
// wallet.Wallet 满足该接口。
type Signer interface {
	Address() common.Address
	SignMessage(msg []byte) ([]byte, error)
}

// AddDelegateConfig 添加委托人参数
type AddDelegateConfig struct {
	Safe     string
	Delegate string
	Label    string
	Signer   Signer
}

// DeleteDelegateConfig 删除委托人参数
type DeleteDelegateConfig struct {
	Safe     string
	Delegate string
	Signer   Signer
}

// Delegate 委托关系
type Delegate struct {
	Safe      string `json:"safe"`
	Delegate  string `json:"delegate"`
	Delegator string `json:"delegator"`
	Label     string `json:"label"`
}

// DelegateListResponse 委托人列表
type DelegateListResponse struct {
	Count    int        `json:"count"`
	Next     *string    `json:"next"`
	Previous *string    `json:"previous"`
	Results  []Delegate `json:"results"`
}

// ServiceInfo 交易服务基本信息
type ServiceInfo struct {
	Name       string                 `json:"name"`
	Version    string                 `json:"version"`
	APIVersion string                 `json:"api_version"`
	Secure     bool                   `json:"secure"`
	Settings   map[string]interface{} `json:"settings,omitempty"`
}

// SafeInfo 服务端索引的 Safe 状态
type SafeInfo struct {
	Address         string   `json:"address"`
	Nonce           uint64   `json:"nonce"`
	Threshold       uint64   `json:"threshold"`
	Owners          []string `json:"owners"`
	MasterCopy      string   `json:"masterCopy"`
	Modules         []string `json:"modules"`
	FallbackHandler string   `json:"fallbackHandler"`
	Version         string   `json:"version"`
}

// ProposeTransactionProps 提交待签名交易的参数
//
// SafeTxHash 必须是交易的 EIP-712 摘要，Signature 为 Sender 对该摘要的签名。
type ProposeTransactionProps struct {
	Safe       string
	Sender     string
	SafeTxHash common.Hash
	Data       ProposedTransactionData
	Signature  hexutil.Bytes
	Origin     string
}

// ProposedTransactionData 提交到服务端的交易字段
//
// 金额类字段按十进制字符串传输。
type ProposedTransactionData struct {
	To             string        `json:"to"`
	Value          string        `json:"value"`
	Data           hexutil.Bytes `json:"data,omitempty"`
	Operation      uint8         `json:"operation"`
	SafeTxGas      string        `json:"safeTxGas"`
	BaseGas        string        `json:"baseGas"`
	GasPrice       string        `json:"gasPrice"`
	GasToken       string        `json:"gasToken"`
	RefundReceiver string        `json:"refundReceiver"`
	Nonce          uint64        `json:"nonce"`
}

type proposeRequest struct {
	Safe string `json:"safe"`
	ProposedTransactionData
	ContractTransactionHash string        `json:"contractTransactionHash"`
	Sender                  string        `json:"sender"`
	Signature               hexutil.Bytes `json:"signature,omitempty"`
	Origin                  string        `json:"origin,omitempty"`
}

// Confirmation 单个 owner 的确认
type Confirmation struct {
	Owner           string        `json:"owner"`
	SubmissionDate  string        `json:"submissionDate"`
	TransactionHash *string       `json:"transactionHash"`
	Signature       hexutil.Bytes `json:"signature"`
	SignatureType   string        `json:"signatureType,omitempty"`
}

// SignatureResponse 确认接口的返回
type SignatureResponse struct {
	Signature hexutil.Bytes `json:"signature"`
}

// MultisigTransaction 服务端记录的多签交易
type MultisigTransaction struct {
	Safe                  string         `json:"safe"`
	To                    string         `json:"to"`
	Value                 string         `json:"value"`
	Data                  *hexutil.Bytes `json:"data"`
	Operation             uint8          `json:"operation"`
	GasToken              string         `json:"gasToken"`
	SafeTxGas             uint64         `json:"safeTxGas"`
	BaseGas               uint64         `json:"baseGas"`
	GasPrice              string         `json:"gasPrice"`
	RefundReceiver        string         `json:"refundReceiver"`
	Nonce                 uint64         `json:"nonce"`
	ExecutionDate         *string        `json:"executionDate"`
	SubmissionDate        string         `json:"submissionDate"`
	Modified              string         `json:"modified"`
	BlockNumber           *uint64        `json:"blockNumber"`
	TransactionHash       *string        `json:"transactionHash"`
	SafeTxHash            string         `json:"safeTxHash"`
	Executor              *string        `json:"executor"`
	IsExecuted            bool           `json:"isExecuted"`
	IsSuccessful          *bool          `json:"isSuccessful"`
	Origin                *string        `json:"origin"`
	ConfirmationsRequired *uint64        `json:"confirmationsRequired"`
	Confirmations         []Confirmation `json:"confirmations"`
	Signatures            *hexutil.Bytes `json:"signatures"`
}

// MultisigTransactionListResponse 多签交易列表
type MultisigTransactionListResponse struct {
	Count    int                   `json:"count"`
	Next     *string               `json:"next"`
	Previous *string               `json:"previous"`
	Results  []MultisigTransaction `json:"results"`
}

type delegateRequest struct {
	Safe      string        `json:"safe"`
	Delegate  string        `json:"delegate"`
	Label     string        `json:"label,omitempty"`
	Signature hexutil.Bytes `json:"signature"`
}

type confirmRequest struct {
	Signature hexutil.Bytes `json:"signature"`
}
