package vault

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/quantumauth-io/quantum-go-utils/log"

	"github.com/quantumauth-io/ethvault-client/internal/ethwallet/wtypes"
)

// Execute runs one write end to end and returns its hash once broadcast. With a
// local key, build -> sign -> submit runs under the account's lock so concurrent
// callers never collide on a nonce. With a delegate, the unsigned call is handed to
// the external wallet, which signs and broadcasts itself.
func Execute(ctx context.Context, s *Session, req Request) (common.Hash, error) {
	switch {
	case s.wallet != nil:
		unlock := nonceLocks.lock(s.chainID, s.account)
		defer unlock()

		ptx, err := Build(ctx, s, req)
		if err != nil {
			return common.Hash{}, err
		}
		stx, err := Sign(ctx, s, ptx)
		if err != nil {
			return common.Hash{}, err
		}
		return Submit(ctx, s, stx)

	case s.delegate != nil:
		return executeDelegated(ctx, s, req)

	default:
		return common.Hash{}, fail(ErrNoSigner, "%s needs a signing key or a connected wallet", req.Action)
	}
}

func executeDelegated(ctx context.Context, s *Session, req Request) (common.Hash, error) {
	c, err := s.encode(req)
	if err != nil {
		return common.Hash{}, err
	}
	gasPrice := req.GasPrice
	if gasPrice == nil || gasPrice.Sign() <= 0 {
		gasPrice = s.gasPrice // nil lets the wallet choose
	}

	hash, err := s.delegate.SendTransaction(ctx, wtypes.TxRequest{
		From:     s.account,
		To:       s.vault,
		Value:    c.value,
		Data:     c.data,
		Gas:      c.gas,
		GasPrice: gasPrice,
	})
	if err != nil {
		if errors.Is(err, wtypes.ErrUserRejected) {
			log.Info("vault transaction rejected in wallet", "action", req.Action, "account", s.account.Hex())
			return common.Hash{}, mark(err, ErrUserRejected, "delegate "+string(req.Action))
		}
		return common.Hash{}, mark(err, ErrSubmission, "delegate "+string(req.Action))
	}

	log.Info("vault transaction submitted via wallet",
		"action", req.Action,
		"from", s.account.Hex(),
		"hash", hash.Hex(),
	)
	return hash, nil
}
