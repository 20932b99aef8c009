package vault

import (
	"strings"

	"github.com/quantumauth-io/ethvault-client/internal/constants"
)

// Action is a state-changing vault call. The value is the ABI method name.
type Action string

const (
	ActionDeposit                Action = "deposit"
	ActionWithdraw               Action = "withdraw"
	ActionEnableAutoCompounding  Action = "enableAutoCompounding"
	ActionDisableAutoCompounding Action = "disableAutoCompounding"
	ActionSendExternal           Action = "sendExternal"
	ActionAutoCompoundAll        Action = "autoCompoundAll"
)

var actions = []Action{
	ActionDeposit,
	ActionWithdraw,
	ActionEnableAutoCompounding,
	ActionDisableAutoCompounding,
	ActionSendExternal,
	ActionAutoCompoundAll,
}

// Actions lists every supported action.
func Actions() []Action {
	return append([]Action(nil), actions...)
}

// ParseAction matches an action name case-insensitively.
func ParseAction(s string) (Action, error) {
	s = strings.TrimSpace(s)
	for _, a := range actions {
		if strings.EqualFold(string(a), s) {
			return a, nil
		}
	}
	return "", fail(ErrInvalidAction, "unknown vault action %q", s)
}

func (a Action) String() string { return string(a) }

// DefaultGasLimit is the gas limit used when neither the request nor the
// session overrides it.
func (a Action) DefaultGasLimit() uint64 {
	switch a {
	case ActionDeposit:
		return constants.GasLimitDeposit
	case ActionWithdraw:
		return constants.GasLimitWithdraw
	case ActionEnableAutoCompounding, ActionDisableAutoCompounding:
		return constants.GasLimitAutoCompounding
	case ActionSendExternal:
		return constants.GasLimitSendExternal
	case ActionAutoCompoundAll:
		return constants.GasLimitAutoCompoundAll
	default:
		return 0
	}
}

// AdminOnly reports whether the contract restricts the action to its admin.
// Used for UX gating only; the contract enforces it.
func (a Action) AdminOnly() bool {
	return a == ActionSendExternal || a == ActionAutoCompoundAll
}

// TakesAmount reports whether the action carries a positive amount.
func (a Action) TakesAmount() bool {
	return a == ActionDeposit || a == ActionWithdraw || a == ActionSendExternal
}

func (a Action) valid() bool {
	return a.DefaultGasLimit() != 0
}
