package txservice

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/safekit/safe-client-sdk-go/types"
	"github.com/safekit/safe-client-sdk-go/utils"
)

// 本地校验失败时的错误信息，与服务端的说法保持一致
const (
	msgInvalidSafe     = "Invalid Safe address"
	msgInvalidDelegate = "Invalid Safe delegate address"
	msgInvalidSender   = "Invalid sender address"
	msgChecksum        = "Checksum address validation failed"
)

// totpPeriod 委托签名的时间窗口
const totpPeriod = 3600

// GetSafeDelegates 查询 Safe 的委托人列表
func (c *Client) GetSafeDelegates(ctx context.Context, safe string) (*DelegateListResponse, error) {
	if err := checkAddress(safe, msgInvalidSafe); err != nil {
		return nil, err
	}
	var list DelegateListResponse
	path := fmt.Sprintf("/v1/safes/%s/delegates/", safe)
	if err := c.do(ctx, http.MethodGet, path, "delegates", nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// AddSafeDelegate 为 Safe 添加委托人
//
// 签名者必须是 Safe 的 owner，这一点由服务端判断。
func (c *Client) AddSafeDelegate(ctx context.Context, cfg AddDelegateConfig) (*Delegate, error) {
	if err := checkAddress(cfg.Safe, msgInvalidSafe); err != nil {
		return nil, err
	}
	if err := checkAddress(cfg.Delegate, msgInvalidDelegate); err != nil {
		return nil, err
	}
	signature, err := c.delegateSignature(cfg.Delegate, cfg.Signer)
	if err != nil {
		return nil, err
	}

	req := delegateRequest{
		Safe:      cfg.Safe,
		Delegate:  cfg.Delegate,
		Label:     cfg.Label,
		Signature: signature,
	}
	var created Delegate
	path := fmt.Sprintf("/v1/safes/%s/delegates/", cfg.Safe)
	if err := c.do(ctx, http.MethodPost, path, "add_delegate", req, &created); err != nil {
		return nil, err
	}
	c.logger.Info("safe delegate added",
		zap.String("safe", cfg.Safe),
		zap.String("delegate", cfg.Delegate),
		zap.String("delegator", cfg.Signer.Address().Hex()))
	return &created, nil
}

// RemoveSafeDelegate 移除 Safe 的委托人
func (c *Client) RemoveSafeDelegate(ctx context.Context, cfg DeleteDelegateConfig) error {
	if err := checkAddress(cfg.Safe, msgInvalidSafe); err != nil {
		return err
	}
	if err := checkAddress(cfg.Delegate, msgInvalidDelegate); err != nil {
		return err
	}
	signature, err := c.delegateSignature(cfg.Delegate, cfg.Signer)
	if err != nil {
		return err
	}

	req := delegateRequest{
		Safe:      cfg.Safe,
		Delegate:  cfg.Delegate,
		Signature: signature,
	}
	path := fmt.Sprintf("/v1/safes/%s/delegates/%s/", cfg.Safe, url.PathEscape(cfg.Delegate))
	if err := c.do(ctx, http.MethodDelete, path, "remove_delegate", req, nil); err != nil {
		return err
	}
	c.logger.Info("safe delegate removed",
		zap.String("safe", cfg.Safe),
		zap.String("delegate", cfg.Delegate))
	return nil
}

// DelegateMessage 委托签名的明文：校验和地址 ‖ floor(unix 秒 / 3600)
func DelegateMessage(delegate common.Address, unixSeconds int64) []byte {
	return []byte(delegate.Hex() + strconv.FormatInt(unixSeconds/totpPeriod, 10))
}

func (c *Client) delegateSignature(delegate string, signer Signer) ([]byte, error) {
	if signer == nil {
		return nil, types.ErrNoSigner
	}
	msg := DelegateMessage(common.HexToAddress(delegate), c.now().Unix())
	sig, err := signer.SignMessage(msg)
	if err != nil {
		return nil, fmt.Errorf("sign delegate message: %w", err)
	}
	return sig, nil
}

// checkAddress 请求前的地址校验
//
// 空地址报 emptyMsg，其余格式或大小写问题统一报校验和错误，并包装底层分类错误。
func checkAddress(addr, emptyMsg string) error {
	if addr == "" {
		return fmt.Errorf("%s: %w", emptyMsg, types.ErrInvalidAddress)
	}
	if err := utils.ValidateAddress(addr); err != nil {
		return fmt.Errorf("%s: %w", msgChecksum, err)
	}
	return nil
}
