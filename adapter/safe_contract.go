package adapter

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/safekit/safe-client-sdk-go/types"
	"github.com/safekit/safe-client-sdk-go/utils"
)

// modulesPageSize 每次 getModulesPaginated 读取的条数
const modulesPageSize = 10

type safeContract struct {
	bound BoundContract
	check *CodeCheck
}

// NewSafeContract 在 BoundContract 上构造钱包合约句柄
func NewSafeContract(bound BoundContract, check *CodeCheck) SafeContract {
	return &safeContract{bound: bound, check: check}
}

func (c *safeContract) Address() common.Address {
	return c.bound.Address()
}

func (c *safeContract) Call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	if err := c.check.Ensure(ctx); err != nil {
		return nil, err
	}
	out, err := c.bound.Call(ctx, method, args...)
	if err != nil {
		return nil, fmt.Errorf("call %s on %s: %w", method, c.Address().Hex(), WrapRevert(err))
	}
	return out, nil
}

func (c *safeContract) Encode(method string, args ...interface{}) ([]byte, error) {
	return utils.EncodeFunctionData(*c.bound.ABI(), method, args...)
}

func (c *safeContract) EstimateGas(ctx context.Context, from common.Address, data []byte) (uint64, error) {
	if err := c.check.Ensure(ctx); err != nil {
		return 0, err
	}
	gas, err := c.bound.EstimateGas(ctx, from, data)
	if err != nil {
		return 0, WrapRevert(err)
	}
	return gas, nil
}

func (c *safeContract) GetVersion(ctx context.Context) (types.SafeVersion, error) {
	var version string
	if err := c.callSingle(ctx, &version, "VERSION"); err != nil {
		return "", err
	}
	return types.SafeVersion(version), nil
}

func (c *safeContract) GetOwners(ctx context.Context) ([]common.Address, error) {
	var owners []common.Address
	if err := c.callSingle(ctx, &owners, "getOwners"); err != nil {
		return nil, err
	}
	return owners, nil
}

// GetModules 按页遍历模块链表
func (c *safeContract) GetModules(ctx context.Context) ([]common.Address, error) {
	var modules []common.Address
	start := utils.SentinelAddress
	for {
		out, err := c.Call(ctx, "getModulesPaginated", start, big.NewInt(modulesPageSize))
		if err != nil {
			return nil, err
		}
		if len(out) != 2 {
			return nil, fmt.Errorf("getModulesPaginated: unexpected %d outputs", len(out))
		}
		page, ok1 := out[0].([]common.Address)
		next, ok2 := out[1].(common.Address)
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("getModulesPaginated: unexpected output types %T, %T", out[0], out[1])
		}
		modules = append(modules, page...)
		if len(page) < modulesPageSize || utils.IsReservedAddress(next) {
			return modules, nil
		}
		// v1.3.0 返回的 next 是下一页的首个模块而非游标，以本页末尾作为起点
		start = page[len(page)-1]
	}
}

func (c *safeContract) IsModuleEnabled(ctx context.Context, module common.Address) (bool, error) {
	var enabled bool
	if err := c.callSingle(ctx, &enabled, "isModuleEnabled", module); err != nil {
		return false, err
	}
	return enabled, nil
}

func (c *safeContract) IsOwner(ctx context.Context, owner common.Address) (bool, error) {
	var isOwner bool
	if err := c.callSingle(ctx, &isOwner, "isOwner", owner); err != nil {
		return false, err
	}
	return isOwner, nil
}

func (c *safeContract) GetNonce(ctx context.Context) (uint64, error) {
	return c.callUint64(ctx, "nonce")
}

func (c *safeContract) GetThreshold(ctx context.Context) (uint64, error) {
	return c.callUint64(ctx, "getThreshold")
}

func (c *safeContract) GetTransactionHash(ctx context.Context, data types.SafeTransactionData) (common.Hash, error) {
	d := data.Normalize()
	var hash [32]byte
	err := c.callSingle(ctx, &hash, "getTransactionHash",
		d.To, d.Value, []byte(d.Data), uint8(d.Operation),
		d.SafeTxGas, d.BaseGas, d.GasPrice, d.GasToken, d.RefundReceiver,
		new(big.Int).SetUint64(d.Nonce))
	if err != nil {
		return common.Hash{}, err
	}
	return common.Hash(hash), nil
}

func (c *safeContract) ExecTransaction(ctx context.Context, tx *types.SafeTransaction, signatures []byte, opts *types.TransactionOptions) (*types.TransactionResult, error) {
	if err := c.check.Ensure(ctx); err != nil {
		return nil, err
	}
	d := tx.Data().Normalize()
	result, err := c.bound.Transact(ctx, opts, "execTransaction",
		d.To, d.Value, []byte(d.Data), uint8(d.Operation),
		d.SafeTxGas, d.BaseGas, d.GasPrice, d.GasToken, d.RefundReceiver,
		signatures)
	if err != nil {
		return nil, fmt.Errorf("execTransaction %s: %w", tx.Hash().Hex(), WrapRevert(err))
	}
	if !result.Success {
		return result, types.ErrExecutionReverted.WithDetail("transaction %s reverted in %s", tx.Hash().Hex(), result.Hash.Hex())
	}
	return result, nil
}

func (c *safeContract) ApproveHash(ctx context.Context, hash common.Hash, opts *types.TransactionOptions) (*types.TransactionResult, error) {
	if err := c.check.Ensure(ctx); err != nil {
		return nil, err
	}
	result, err := c.bound.Transact(ctx, opts, "approveHash", [32]byte(hash))
	if err != nil {
		return nil, fmt.Errorf("approveHash %s: %w", hash.Hex(), WrapRevert(err))
	}
	if !result.Success {
		return result, types.ErrExecutionReverted.WithDetail("approveHash reverted in %s", result.Hash.Hex())
	}
	return result, nil
}

// callSingle 调用只有一个返回值的方法
func (c *safeContract) callSingle(ctx context.Context, out interface{}, method string, args ...interface{}) error {
	res, err := c.Call(ctx, method, args...)
	if err != nil {
		return err
	}
	if len(res) == 0 {
		return fmt.Errorf("%s: empty result", method)
	}
	if err := c.bound.ABI().Methods[method].Outputs.Copy(out, res[:1]); err != nil {
		return fmt.Errorf("%s: decode result: %w", method, err)
	}
	return nil
}

func (c *safeContract) callUint64(ctx context.Context, method string) (uint64, error) {
	var v *big.Int
	if err := c.callSingle(ctx, &v, method); err != nil {
		return 0, err
	}
	if !v.IsUint64() {
		return 0, fmt.Errorf("%s: value %s overflows uint64", method, v)
	}
	return v.Uint64(), nil
}
