package safe

import (
	"fmt"

	"github.com/safekit/safe-client-sdk-go/types"
)

// State 待执行交易的生命周期状态
//
// Built → PartiallySigned → Executable → Executed | Reverted，
// 任何非终态都可以转为 Abandoned；终态不再接受任何转换。
type State int

const (
	StateBuilt State = iota
	StatePartiallySigned
	StateExecutable
	StateExecuted
	StateReverted
	StateAbandoned
)

func (s State) String() string {
	switch s {
	case StateBuilt:
		return "built"
	case StatePartiallySigned:
		return "partially_signed"
	case StateExecutable:
		return "executable"
	case StateExecuted:
		return "executed"
	case StateReverted:
		return "reverted"
	case StateAbandoned:
		return "abandoned"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal 是否为终态
func (s State) Terminal() bool {
	return s == StateExecuted || s == StateReverted || s == StateAbandoned
}

// signedState 根据签名数与门限得到签名阶段的状态
func signedState(count int, threshold uint64) State {
	switch {
	case count == 0:
		return StateBuilt
	case uint64(count) >= threshold:
		return StateExecutable
	default:
		return StatePartiallySigned
	}
}

func invalidTransition(from, to State) error {
	return types.ErrInvalidState.WithDetail("%s -> %s", from, to)
}
