package vault

import (
	"context"
	"math/big"
	"time"

	"github.com/cockroachdb/errors"
	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/quantumauth-io/quantum-go-utils/log"

	"github.com/quantumauth-io/ethvault-client/internal/constants"
)

// Receipt is the ledger's record of an included transaction.
type Receipt struct {
	TxHash            common.Hash
	Success           bool
	GasUsed           uint64
	EffectiveGasPrice *big.Int
	BlockNumber       *big.Int
	BlockHash         common.Hash
}

// AwaitConfirmation polls for the receipt of hash until it is included or timeout
// elapses. A timeout <= 0 checks exactly once. ErrPendingTimeout (also returned when
// ctx ends) means "not observed yet", never "failed": the transaction may still land.
func AwaitConfirmation(ctx context.Context, s *Session, hash common.Hash, timeout time.Duration) (*Receipt, error) {
	deadline := time.Now().Add(timeout)
	delay := constants.ReceiptPollInitial

	for {
		r, err := s.backend.TransactionReceipt(ctx, hash)
		if err == nil {
			rcpt := toReceipt(r)
			log.Info("vault transaction confirmed",
				"hash", hash.Hex(),
				"success", rcpt.Success,
				"block", rcpt.BlockNumber,
				"gas_used", rcpt.GasUsed,
			)
			return rcpt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			if ctx.Err() != nil {
				return nil, mark(ctx.Err(), ErrPendingTimeout, "await confirmation of "+hash.Hex())
			}
			return nil, mark(err, ErrQueryFailed, "eth_getTransactionReceipt")
		}

		remaining := time.Until(deadline)
		if timeout <= 0 || remaining <= 0 {
			return nil, fail(ErrPendingTimeout, "transaction %s not confirmed within %s", hash.Hex(), timeout)
		}
		if delay > remaining {
			delay = remaining
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, mark(ctx.Err(), ErrPendingTimeout, "await confirmation of "+hash.Hex())
		case <-timer.C:
		}

		delay += constants.ReceiptPollStep
		if delay > constants.ReceiptPollMax {
			delay = constants.ReceiptPollMax
		}
	}
}

func toReceipt(r *types.Receipt) *Receipt {
	out := &Receipt{
		TxHash:    r.TxHash,
		Success:   r.Status == types.ReceiptStatusSuccessful,
		GasUsed:   r.GasUsed,
		BlockHash: r.BlockHash,
	}
	if r.EffectiveGasPrice != nil {
		out.EffectiveGasPrice = new(big.Int).Set(r.EffectiveGasPrice)
	}
	if r.BlockNumber != nil {
		out.BlockNumber = new(big.Int).Set(r.BlockNumber)
	}
	return out
}
