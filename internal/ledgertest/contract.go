package ledgertest

import (
	"math/big"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// Revert reasons emitted by the emulated vault.
const (
	ReasonOnlyAdmin         = "Only admin can call this function"
	ReasonZeroDeposit       = "Deposit must be greater than 0"
	ReasonZeroAmount        = "Amount must be greater than 0"
	ReasonInsufficient      = "Insufficient balance"
	ReasonInsufficientPool  = "Insufficient donation pool"
	ReasonNotPayable        = "function is not payable"
	ReasonUnknownSelector   = ""
	revertErrorCode         = 3
	insufficientFundsReason = "insufficient funds for gas * price + value"
)

var (
	errInsufficientFunds = errors.New(insufficientFundsReason)

	revertSelector = crypto.Keccak256([]byte("Error(string)"))[:4]
	stringArgs     = abi.Arguments{{Type: mustType("string")}}
)

// revertError is what geth returns for a reverted eth_call: code 3 with the
// ABI-encoded Error(string) payload as data.
type revertError struct {
	reason string
}

func (e *revertError) Error() string {
	if e.reason == "" {
		return "execution reverted"
	}
	return "execution reverted: " + e.reason
}

func (e *revertError) ErrorCode() int { return revertErrorCode }

func (e *revertError) ErrorData() interface{} {
	if e.reason == "" {
		return "0x"
	}
	packed, err := stringArgs.Pack(e.reason)
	if err != nil {
		return "0x"
	}
	return hexutil.Encode(append(append([]byte{}, revertSelector...), packed...))
}

func revert(reason string) error { return &revertError{reason: reason} }

// execute runs a message against the ledger. With commit=false nothing is mutated,
// which is how eth_call and the pre-flight simulation behave.
func (l *Ledger) execute(from common.Address, to *common.Address, value *big.Int, data []byte, commit bool) ([]byte, error) {
	if value == nil {
		value = new(big.Int)
	}
	if value.Sign() > 0 && l.balanceOf(from).Cmp(value) < 0 {
		return nil, errInsufficientFunds
	}
	if to == nil {
		return nil, revert("contract creation is not supported")
	}

	if *to != l.vault {
		if commit {
			l.move(from, *to, value)
		}
		return nil, nil
	}

	if len(data) == 0 {
		// receive(): plain ether sent to the vault feeds the donation pool
		if commit {
			l.balances[from] = new(big.Int).Sub(l.balanceOf(from), value)
			l.donationPool = new(big.Int).Add(l.donationPool, value)
		}
		return nil, nil
	}
	if len(data) < 4 {
		return nil, revert(ReasonUnknownSelector)
	}

	method, err := l.vaultABI.MethodById(data[:4])
	if err != nil || l.removed[method.Name] {
		return nil, revert(ReasonUnknownSelector)
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, revert(ReasonUnknownSelector)
	}
	if value.Sign() > 0 && !method.IsPayable() {
		return nil, revert(ReasonNotPayable)
	}

	switch method.Name {
	case "admin":
		return method.Outputs.Pack(l.admin)

	case "getTotalETH":
		return method.Outputs.Pack(l.totalLocked())

	case "getDonationPool":
		return method.Outputs.Pack(new(big.Int).Set(l.donationPool))

	case "getUserInfo":
		who := args[0].(common.Address)
		return method.Outputs.Pack(
			new(big.Int).Set(bigOr0(l.deposits[who])),
			new(big.Int).Set(bigOr0(l.rewards[who])),
			l.autoCompound[who],
		)

	case "calculateRewards":
		who := args[0].(common.Address)
		return method.Outputs.Pack(new(big.Int).Set(bigOr0(l.rewards[who])))

	case "getAllUsers":
		return method.Outputs.Pack(append([]common.Address{}, l.users...))

	case "deposit":
		if value.Sign() == 0 {
			return nil, revert(ReasonZeroDeposit)
		}
		if commit {
			l.balances[from] = new(big.Int).Sub(l.balanceOf(from), value)
			l.deposits[from] = new(big.Int).Add(bigOr0(l.deposits[from]), value)
			l.addUser(from)
		}

	case "withdraw":
		amount := args[0].(*big.Int)
		if amount.Sign() == 0 {
			return nil, revert(ReasonZeroAmount)
		}
		if bigOr0(l.deposits[from]).Cmp(amount) < 0 {
			return nil, revert(ReasonInsufficient)
		}
		if commit {
			l.deposits[from] = new(big.Int).Sub(l.deposits[from], amount)
			l.balances[from] = new(big.Int).Add(l.balanceOf(from), amount)
		}

	case "enableAutoCompounding", "disableAutoCompounding":
		if commit {
			l.autoCompound[from] = method.Name == "enableAutoCompounding"
		}

	case "sendExternal":
		if from != l.admin {
			return nil, revert(ReasonOnlyAdmin)
		}
		target := args[0].(common.Address)
		amount := args[1].(*big.Int)
		if amount.Sign() == 0 {
			return nil, revert(ReasonZeroAmount)
		}
		if l.donationPool.Cmp(amount) < 0 {
			return nil, revert(ReasonInsufficientPool)
		}
		if commit {
			l.donationPool = new(big.Int).Sub(l.donationPool, amount)
			l.balances[target] = new(big.Int).Add(l.balanceOf(target), amount)
		}

	case "autoCompoundAll":
		if from != l.admin {
			return nil, revert(ReasonOnlyAdmin)
		}
		if commit {
			for _, u := range l.users {
				if !l.autoCompound[u] {
					continue
				}
				r := bigOr0(l.rewards[u])
				l.deposits[u] = new(big.Int).Add(bigOr0(l.deposits[u]), r)
				l.rewards[u] = new(big.Int)
			}
		}

	default:
		return nil, revert(ReasonUnknownSelector)
	}
	return nil, nil
}

func (l *Ledger) totalLocked() *big.Int {
	total := new(big.Int).Set(l.donationPool)
	for _, d := range l.deposits {
		total.Add(total, d)
	}
	return total
}

func (l *Ledger) addUser(a common.Address) {
	for _, u := range l.users {
		if u == a {
			return
		}
	}
	l.users = append(l.users, a)
}

func (l *Ledger) move(from, to common.Address, value *big.Int) {
	l.balances[from] = new(big.Int).Sub(l.balanceOf(from), value)
	l.balances[to] = new(big.Int).Add(l.balanceOf(to), value)
}

func mustType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return typ
}
