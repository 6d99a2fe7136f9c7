package transaction

import (
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/safekit/safe-client-sdk-go/types"
)

var safeTxType = []apitypes.Type{
	{Name: "to", Type: "address"},
	{Name: "value", Type: "uint256"},
	{Name: "data", Type: "bytes"},
	{Name: "operation", Type: "uint8"},
	{Name: "safeTxGas", Type: "uint256"},
	{Name: "baseGas", Type: "uint256"},
	{Name: "gasPrice", Type: "uint256"},
	{Name: "gasToken", Type: "address"},
	{Name: "refundReceiver", Type: "address"},
	{Name: "nonce", Type: "uint256"},
}

// TypedData 构造交易的 EIP-712 结构
//
// 1.3.0 起 domain 包含 chainId，更早的版本只有 verifyingContract。
func TypedData(chainID int64, safe common.Address, version types.SafeVersion, data types.SafeTransactionData) apitypes.TypedData {
	d := data.Normalize()

	domainType := []apitypes.Type{{Name: "verifyingContract", Type: "address"}}
	domain := apitypes.TypedDataDomain{VerifyingContract: safe.Hex()}
	if version.AtLeast(types.SafeVersion130) {
		domainType = append([]apitypes.Type{{Name: "chainId", Type: "uint256"}}, domainType...)
		domain.ChainId = math.NewHexOrDecimal256(chainID)
	}

	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": domainType,
			"SafeTx":       safeTxType,
		},
		PrimaryType: "SafeTx",
		Domain:      domain,
		Message: apitypes.TypedDataMessage{
			"to":             d.To.Hex(),
			"value":          d.Value.String(),
			"data":           []byte(d.Data),
			"operation":      strconv.Itoa(int(d.Operation)),
			"safeTxGas":      d.SafeTxGas.String(),
			"baseGas":        d.BaseGas.String(),
			"gasPrice":       d.GasPrice.String(),
			"gasToken":       d.GasToken.Hex(),
			"refundReceiver": d.RefundReceiver.Hex(),
			"nonce":          strconv.FormatUint(d.Nonce, 10),
		},
	}
}

// TransactionHash 计算交易摘要
//
// 纯函数：结果只取决于链 ID、钱包地址、合约版本与描述符，与合约 getTransactionHash 一致。
func TransactionHash(chainID int64, safe common.Address, version types.SafeVersion, data types.SafeTransactionData) (common.Hash, error) {
	hash, _, err := apitypes.TypedDataAndHash(TypedData(chainID, safe, version, data))
	if err != nil {
		return common.Hash{}, fmt.Errorf("hash safe transaction: %w", err)
	}
	return common.BytesToHash(hash), nil
}
