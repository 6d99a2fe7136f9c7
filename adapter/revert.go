package adapter

import (
	"errors"
	"strings"

	"github.com/safekit/safe-client-sdk-go/types"
)

// WrapRevert 将节点返回的 revert 错误包装为 ErrExecutionReverted
func WrapRevert(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, types.ErrExecutionReverted) {
		return err
	}
	if strings.Contains(strings.ToLower(err.Error()), "execution reverted") {
		return types.ErrExecutionReverted.Wrap(err)
	}
	return err
}
