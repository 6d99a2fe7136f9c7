package txservice

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/safekit/safe-client-sdk-go/types"
)

// GetSafeInfo 查询服务端索引的 Safe 信息
func (c *Client) GetSafeInfo(ctx context.Context, safe string) (*SafeInfo, error) {
	if err := checkAddress(safe, msgInvalidSafe); err != nil {
		return nil, err
	}
	var info SafeInfo
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/v1/safes/%s/", safe), "safe_info", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// NewProposedTransactionData 由本地交易描述符生成服务端字段
func NewProposedTransactionData(tx *types.SafeTransaction) ProposedTransactionData {
	d := tx.Data().Normalize()
	return ProposedTransactionData{
		To:             d.To.Hex(),
		Value:          d.Value.String(),
		Data:           d.Data,
		Operation:      uint8(d.Operation),
		SafeTxGas:      d.SafeTxGas.String(),
		BaseGas:        d.BaseGas.String(),
		GasPrice:       d.GasPrice.String(),
		GasToken:       d.GasToken.Hex(),
		RefundReceiver: d.RefundReceiver.Hex(),
		Nonce:          d.Nonce,
	}
}

// ProposeTransaction 向服务端提交待签名交易及提交者的签名
func (c *Client) ProposeTransaction(ctx context.Context, props ProposeTransactionProps) error {
	if err := checkAddress(props.Safe, msgInvalidSafe); err != nil {
		return err
	}
	if err := checkAddress(props.Sender, msgInvalidSender); err != nil {
		return err
	}
	if props.SafeTxHash == (common.Hash{}) {
		return fmt.Errorf("invalid safeTxHash: %w", types.ErrInvalidSignature)
	}
	if err := checkDecimal(props.Data.Value, "value"); err != nil {
		return err
	}

	req := proposeRequest{
		Safe:                    props.Safe,
		ProposedTransactionData: props.Data,
		ContractTransactionHash: props.SafeTxHash.Hex(),
		Sender:                  props.Sender,
		Signature:               props.Signature,
		Origin:                  props.Origin,
	}
	path := fmt.Sprintf("/v1/safes/%s/multisig-transactions/", props.Safe)
	if err := c.do(ctx, http.MethodPost, path, "propose", req, nil); err != nil {
		return err
	}
	c.logger.Info("transaction proposed",
		zap.String("safe", props.Safe),
		zap.String("safe_tx_hash", props.SafeTxHash.Hex()),
		zap.Uint64("nonce", props.Data.Nonce))
	return nil
}

// ConfirmTransaction 为已提交的交易追加一个 owner 签名
func (c *Client) ConfirmTransaction(ctx context.Context, safeTxHash common.Hash, signature []byte) (*SignatureResponse, error) {
	if safeTxHash == (common.Hash{}) {
		return nil, fmt.Errorf("invalid safeTxHash: %w", types.ErrInvalidSignature)
	}
	if len(signature) == 0 {
		return nil, fmt.Errorf("empty signature: %w", types.ErrInvalidSignature)
	}
	var out SignatureResponse
	path := fmt.Sprintf("/v1/multisig-transactions/%s/confirmations/", safeTxHash.Hex())
	if err := c.do(ctx, http.MethodPost, path, "confirm", confirmRequest{Signature: signature}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetTransaction 按摘要查询多签交易
func (c *Client) GetTransaction(ctx context.Context, safeTxHash common.Hash) (*MultisigTransaction, error) {
	if safeTxHash == (common.Hash{}) {
		return nil, fmt.Errorf("invalid safeTxHash: %w", types.ErrInvalidSignature)
	}
	var tx MultisigTransaction
	path := fmt.Sprintf("/v1/multisig-transactions/%s/", safeTxHash.Hex())
	if err := c.do(ctx, http.MethodGet, path, "transaction", nil, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

// GetPendingTransactions 查询尚未执行、nonce 不低于当前值的交易
//
// currentNonce 为空时先读取服务端记录的 Safe nonce。
func (c *Client) GetPendingTransactions(ctx context.Context, safe string, currentNonce *uint64) (*MultisigTransactionListResponse, error) {
	if err := checkAddress(safe, msgInvalidSafe); err != nil {
		return nil, err
	}
	var nonce uint64
	if currentNonce != nil {
		nonce = *currentNonce
	} else {
		info, err := c.GetSafeInfo(ctx, safe)
		if err != nil {
			return nil, err
		}
		nonce = info.Nonce
	}

	query := url.Values{}
	query.Set("executed", "false")
	query.Set("nonce__gte", strconv.FormatUint(nonce, 10))
	path := fmt.Sprintf("/v1/safes/%s/multisig-transactions/?%s", safe, query.Encode())

	var list MultisigTransactionListResponse
	if err := c.do(ctx, http.MethodGet, path, "pending", nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func checkDecimal(v, field string) error {
	if v == "" {
		return nil
	}
	if _, ok := new(big.Int).SetString(v, 10); !ok {
		return fmt.Errorf("%s must be a decimal integer, got %q", field, v)
	}
	return nil
}
