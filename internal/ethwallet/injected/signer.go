// Package injected talks to an externally held wallet (browser extension bridge,
// remote signer) over JSON-RPC using the EIP-1193 method set. The wallet keeps the key;
// this process only asks for accounts and hands over unsigned transactions.
package injected

import (
	"context"
	"math/big"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/quantumauth-io/ethvault-client/internal/constants"
	"github.com/quantumauth-io/ethvault-client/internal/ethwallet/wtypes"
)

var ErrNoAccounts = errors.New("wallet exposed no accounts")

// Signer implements wtypes.Delegate.
type Signer struct {
	client *rpc.Client
}

var _ wtypes.Delegate = (*Signer)(nil)

// Dial connects to a provider endpoint.
func Dial(ctx context.Context, url string) (*Signer, error) {
	c, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, errors.Wrapf(err, "dial wallet at %s", url)
	}
	return New(c), nil
}

func New(c *rpc.Client) *Signer {
	return &Signer{client: c}
}

func (s *Signer) Close() {
	s.client.Close()
}

// RequestAccount asks the wallet for its active account (eth_requestAccounts), falling
// back to eth_accounts for providers that do not implement the prompt.
func (s *Signer) RequestAccount(ctx context.Context) (common.Address, error) {
	var accounts []common.Address
	err := s.client.CallContext(ctx, &accounts, "eth_requestAccounts")
	if err != nil {
		if rejected(err) {
			return common.Address{}, errors.Mark(errors.Wrap(err, "eth_requestAccounts"), wtypes.ErrUserRejected)
		}
		if !methodMissing(err) {
			return common.Address{}, errors.Wrap(err, "eth_requestAccounts")
		}
		if err := s.client.CallContext(ctx, &accounts, "eth_accounts"); err != nil {
			return common.Address{}, errors.Wrap(err, "eth_accounts")
		}
	}
	if len(accounts) == 0 {
		return common.Address{}, ErrNoAccounts
	}
	return accounts[0], nil
}

// SendTransaction hands an unsigned call to the wallet, which signs and broadcasts it.
func (s *Signer) SendTransaction(ctx context.Context, req wtypes.TxRequest) (common.Hash, error) {
	var hash common.Hash
	if err := s.client.CallContext(ctx, &hash, "eth_sendTransaction", toTxArg(req)); err != nil {
		if rejected(err) {
			return common.Hash{}, errors.Mark(errors.Wrap(err, "eth_sendTransaction"), wtypes.ErrUserRejected)
		}
		return common.Hash{}, errors.Wrap(err, "eth_sendTransaction")
	}
	return hash, nil
}

func toTxArg(req wtypes.TxRequest) map[string]interface{} {
	arg := map[string]interface{}{
		"from": req.From,
		"to":   req.To,
	}
	if len(req.Data) > 0 {
		arg["data"] = hexutil.Bytes(req.Data)
	}
	if req.Value != nil && req.Value.Sign() > 0 {
		arg["value"] = (*hexutil.Big)(new(big.Int).Set(req.Value))
	}
	if req.Gas != 0 {
		arg["gas"] = hexutil.Uint64(req.Gas)
	}
	if req.GasPrice != nil {
		arg["gasPrice"] = (*hexutil.Big)(req.GasPrice)
	}
	return arg
}

func rejected(err error) bool {
	var rpcErr rpc.Error
	return errors.As(err, &rpcErr) && rpcErr.ErrorCode() == constants.UserRejectedCode
}

// -32601 is "method not found".
func methodMissing(err error) bool {
	var rpcErr rpc.Error
	return errors.As(err, &rpcErr) && rpcErr.ErrorCode() == -32601
}
