package adapter

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/safekit/safe-client-sdk-go/types"
)

// CodeGetter 读取合约字节码
type CodeGetter func(ctx context.Context, addr common.Address) ([]byte, error)

// CodeCheck 延迟检查地址上是否部署了合约
//
// 创建句柄时不访问网络，第一次链上调用时才执行 eth_getCode。
// 只记住成功结果，失败（包括没有代码）会在下次调用时重新检查。
type CodeCheck struct {
	addr    common.Address
	getCode CodeGetter

	mu       sync.Mutex
	deployed bool
}

// NewCodeCheck 创建检查器
func NewCodeCheck(addr common.Address, getCode CodeGetter) *CodeCheck {
	return &CodeCheck{addr: addr, getCode: getCode}
}

// Ensure 确认合约已部署，否则返回 ErrContractNotDeployed
func (c *CodeCheck) Ensure(ctx context.Context) error {
	if c == nil || c.getCode == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.deployed {
		return nil
	}

	code, err := c.getCode(ctx, c.addr)
	if err != nil {
		return err
	}
	if len(code) == 0 {
		return types.ErrContractNotDeployed.WithDetail("no contract code at %s", c.addr.Hex())
	}
	c.deployed = true
	return nil
}
