package vault

import (
	"context"

	"github.com/cockroachdb/errors"
	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/quantumauth-io/quantum-go-utils/log"
)

// Submit simulates the call from the sender against the pending state, then
// broadcasts. Reverts and node rejections are ErrSubmission. Each SignedTransaction
// is accepted once: after any attempt, successful or not, the caller rebuilds with
// a fresh nonce.
func Submit(ctx context.Context, s *Session, st *SignedTransaction) (common.Hash, error) {
	if st == nil {
		return common.Hash{}, fail(ErrSubmission, "nil transaction")
	}
	if !st.submitted.CompareAndSwap(false, true) {
		return common.Hash{}, fail(ErrSubmission, "transaction %s was already submitted; rebuild with a fresh nonce", st.Hash().Hex())
	}

	tx := st.tx
	msg := ethereum.CallMsg{
		From:     st.from,
		To:       tx.To(),
		Gas:      tx.Gas(),
		GasPrice: tx.GasPrice(),
		Value:    tx.Value(),
		Data:     tx.Data(),
	}
	// pending, so a call queued behind this sender's unmined transactions sees their effects
	if _, err := s.backend.PendingCallContract(ctx, msg); err != nil {
		if reason := RevertReason(err); reason != "" {
			err = errors.Wrapf(err, "reverted: %s", reason)
		}
		log.Warn("vault transaction rejected by simulation",
			"action", st.action, "from", st.from.Hex(), "error", err)
		return common.Hash{}, mark(err, ErrSubmission, "pre-flight eth_call")
	}

	if err := s.backend.SendTransaction(ctx, tx); err != nil {
		log.Warn("vault transaction rejected by node",
			"action", st.action, "from", st.from.Hex(), "nonce", tx.Nonce(), "error", err)
		return common.Hash{}, mark(err, ErrSubmission, "eth_sendRawTransaction")
	}

	log.Info("vault transaction submitted",
		"action", st.action,
		"from", st.from.Hex(),
		"nonce", tx.Nonce(),
		"hash", tx.Hash().Hex(),
	)
	return tx.Hash(), nil
}

// RevertReason extracts the Error(string) message carried by a node's revert error,
// or "" when there is none.
func RevertReason(err error) string {
	var de rpc.DataError
	if !errors.As(err, &de) {
		return ""
	}
	hexData, ok := de.ErrorData().(string)
	if !ok {
		return ""
	}
	data, err := hexutil.Decode(hexData)
	if err != nil {
		return ""
	}
	reason, err := abi.UnpackRevert(data)
	if err != nil {
		return ""
	}
	return reason
}
