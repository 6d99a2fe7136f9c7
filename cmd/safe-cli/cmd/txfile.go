package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"

	"github.com/safekit/safe-client-sdk-go/types"
)

// txFile 在多次调用、多个 owner 之间传递的交易文件
type txFile struct {
	Safe       common.Address            `json:"safe"`
	ChainID    int64                     `json:"chainId"`
	SafeTxHash common.Hash               `json:"safeTxHash"`
	Tx         types.SafeTransactionData `json:"tx"`
}

func writeTxFile(path string, safeAddr common.Address, chainID int64, tx *types.SafeTransaction) error {
	raw, err := json.MarshalIndent(txFile{
		Safe:       safeAddr,
		ChainID:    chainID,
		SafeTxHash: tx.Hash(),
		Tx:         tx.Data(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode transaction file: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write transaction file: %w", err)
	}
	return nil
}

func readTxFile(path string) (*txFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read transaction file: %w", err)
	}
	var f txFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode transaction file: %w", err)
	}
	return &f, nil
}

// importTxFile 在钱包中登记文件中的交易，并核对钱包、链与摘要
func importTxFile(ctx context.Context, sdk safeImporter, path string) (*types.SafeTransaction, error) {
	f, err := readTxFile(path)
	if err != nil {
		return nil, err
	}
	if f.Safe != sdk.GetAddress() {
		return nil, fmt.Errorf("transaction belongs to safe %s, connected to %s", f.Safe.Hex(), sdk.GetAddress().Hex())
	}
	if f.ChainID != sdk.GetChainID() {
		return nil, fmt.Errorf("transaction built for chain %d, connected to chain %d", f.ChainID, sdk.GetChainID())
	}
	tx, err := sdk.ImportTransaction(ctx, f.Tx)
	if err != nil {
		return nil, err
	}
	if tx.Hash() != f.SafeTxHash {
		return nil, fmt.Errorf("safeTxHash mismatch: file has %s, computed %s", f.SafeTxHash.Hex(), tx.Hash().Hex())
	}
	return tx, nil
}

type safeImporter interface {
	GetAddress() common.Address
	GetChainID() int64
	ImportTransaction(ctx context.Context, data types.SafeTransactionData) (*types.SafeTransaction, error)
}
