package utils

import (
	"bytes"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/safekit/safe-client-sdk-go/types"
)

// ParseABI 解析 JSON ABI
func ParseABI(abiJSON string) (abi.ABI, error) {
	if strings.TrimSpace(abiJSON) == "" {
		return abi.ABI{}, fmt.Errorf("empty ABI")
	}
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("parse ABI failed: %w", err)
	}
	return parsed, nil
}

// EncodeFunctionData 编码合约调用数据
func EncodeFunctionData(contractABI abi.ABI, method string, args ...interface{}) ([]byte, error) {
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("encode %s failed: %w", method, err)
	}
	return data, nil
}

// EncodeMultiSendData 将多笔调用按 MultiSend 格式紧凑编码
//
// 每笔调用编码为：operation(1) ‖ to(20) ‖ value(32) ‖ len(data)(32) ‖ data
func EncodeMultiSendData(txs []types.MetaTransactionData) []byte {
	var buf bytes.Buffer
	for _, tx := range txs {
		buf.WriteByte(byte(tx.Operation))
		buf.Write(tx.To.Bytes())
		buf.Write(math.U256Bytes(valueOrZero(tx.Value)))
		buf.Write(math.U256Bytes(new(big.Int).SetInt64(int64(len(tx.Data)))))
		buf.Write(tx.Data)
	}
	return buf.Bytes()
}

// DecodeMultiSendData 解码 MultiSend 紧凑编码
func DecodeMultiSendData(data []byte) ([]types.MetaTransactionData, error) {
	const headerLen = 1 + 20 + 32 + 32
	var txs []types.MetaTransactionData
	for offset := 0; offset < len(data); {
		if len(data)-offset < headerLen {
			return nil, fmt.Errorf("truncated multisend entry at offset %d", offset)
		}
		op := types.OperationType(data[offset])
		to := common.BytesToAddress(data[offset+1 : offset+21])
		value := new(big.Int).SetBytes(data[offset+21 : offset+53])
		size := new(big.Int).SetBytes(data[offset+53 : offset+85])
		offset += headerLen
		if !size.IsInt64() || size.Int64() > int64(len(data)-offset) {
			return nil, fmt.Errorf("invalid multisend data length at offset %d", offset)
		}
		n := int(size.Int64())
		txs = append(txs, types.MetaTransactionData{
			To:        to,
			Value:     value,
			Data:      append([]byte{}, data[offset:offset+n]...),
			Operation: op,
		})
		offset += n
	}
	return txs, nil
}

func valueOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
