package vault

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Request describes one user-initiated write.
type Request struct {
	Action Action
	// Amount in wei. Required (> 0) for deposit, withdraw and sendExternal.
	Amount *big.Int
	// Target receives the funds of sendExternal.
	Target common.Address

	// Optional overrides; zero / nil take the session or protocol defaults.
	GasLimit uint64
	GasPrice *big.Int
}

// PendingTransaction is a built, unsigned legacy transaction.
type PendingTransaction struct {
	Action   Action
	ChainID  *big.Int
	From     common.Address
	To       common.Address
	Value    *big.Int
	Data     []byte
	Gas      uint64
	GasPrice *big.Int
	Nonce    uint64
}

// call is the encoded part of a request, independent of nonce and fees.
type call struct {
	value *big.Int
	data  []byte
	gas   uint64
}

// Build validates req, fetches a fresh pending nonce for the session account and
// fills gas from overrides or defaults. It never enforces admin-only actions; the
// contract does.
func Build(ctx context.Context, s *Session, req Request) (*PendingTransaction, error) {
	c, err := s.encode(req)
	if err != nil {
		return nil, err
	}
	if s.account == (common.Address{}) {
		return nil, fail(ErrNoSigner, "build %s: session has no account", req.Action)
	}

	gasPrice, err := s.resolveGasPrice(ctx, req.GasPrice)
	if err != nil {
		return nil, err
	}

	// re-fetched for every build so repeated attempts never reuse a stale nonce
	nonce, err := s.backend.PendingNonceAt(ctx, s.account)
	if err != nil {
		return nil, mark(err, ErrConnection, "eth_getTransactionCount")
	}

	return &PendingTransaction{
		Action:   req.Action,
		ChainID:  new(big.Int).Set(s.chainID),
		From:     s.account,
		To:       s.vault,
		Value:    c.value,
		Data:     c.data,
		Gas:      c.gas,
		GasPrice: gasPrice,
		Nonce:    nonce,
	}, nil
}

// encode validates a request and ABI-encodes its calldata. No network access.
func (s *Session) encode(req Request) (call, error) {
	if !req.Action.valid() {
		return call{}, fail(ErrInvalidAction, "unknown action %q", req.Action)
	}
	if req.Action.TakesAmount() && (req.Amount == nil || req.Amount.Sign() <= 0) {
		return call{}, fail(ErrInvalidAmount, "%s amount must be greater than zero, got %s", req.Action, amountString(req.Amount))
	}
	// uint256 arguments are packed modulo 2^256
	if req.Amount != nil && req.Amount.BitLen() > 256 {
		return call{}, fail(ErrInvalidAmount, "%s amount %s does not fit in uint256", req.Action, req.Amount)
	}
	if req.Action == ActionSendExternal && req.Target == (common.Address{}) {
		return call{}, fail(ErrInvalidAddress, "sendExternal target is the zero address")
	}
	if err := s.require(string(req.Action)); err != nil {
		return call{}, err
	}

	var (
		args  []interface{}
		value = new(big.Int)
	)
	switch req.Action {
	case ActionDeposit:
		value = new(big.Int).Set(req.Amount)
	case ActionWithdraw:
		args = []interface{}{new(big.Int).Set(req.Amount)}
	case ActionSendExternal:
		args = []interface{}{req.Target, new(big.Int).Set(req.Amount)}
	}

	data, err := s.abi.Pack(string(req.Action), args...)
	if err != nil {
		return call{}, mark(err, ErrInvalidAction, "encode "+string(req.Action))
	}

	gas := req.GasLimit
	if gas == 0 {
		gas = s.gasLimits[req.Action]
	}
	if gas == 0 {
		gas = req.Action.DefaultGasLimit()
	}
	return call{value: value, data: data, gas: gas}, nil
}

func (s *Session) resolveGasPrice(ctx context.Context, override *big.Int) (*big.Int, error) {
	switch {
	case override != nil && override.Sign() > 0:
		return new(big.Int).Set(override), nil
	case s.gasPrice != nil:
		return new(big.Int).Set(s.gasPrice), nil
	}
	gp, err := s.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, mark(err, ErrConnection, "eth_gasPrice")
	}
	return gp, nil
}

func amountString(v *big.Int) string {
	if v == nil {
		return "nil"
	}
	return v.String()
}
