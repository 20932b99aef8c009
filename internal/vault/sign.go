package vault

import (
	"context"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/quantumauth-io/ethvault-client/internal/ethwallet/wtypes"
)

// SignedTransaction is a signed payload ready for a single Submit.
type SignedTransaction struct {
	tx        *types.Transaction
	from      common.Address
	action    Action
	submitted atomic.Bool
}

func (st *SignedTransaction) Hash() common.Hash    { return st.tx.Hash() }
func (st *SignedTransaction) From() common.Address { return st.from }
func (st *SignedTransaction) Nonce() uint64        { return st.tx.Nonce() }
func (st *SignedTransaction) Action() Action       { return st.action }

// Raw returns the RLP encoding broadcast by Submit.
func (st *SignedTransaction) Raw() ([]byte, error) {
	return st.tx.MarshalBinary()
}

// Sign signs ptx with the session's local wallet.
func Sign(ctx context.Context, s *Session, ptx *PendingTransaction) (*SignedTransaction, error) {
	if s.wallet == nil {
		return nil, fail(ErrSigning, "session has no local signing key")
	}
	return SignWith(ctx, s.wallet, ptx)
}

// SignWith produces an EIP-155 legacy transaction. The signature is deterministic
// (RFC 6979), and a wallet whose address differs from ptx.From is refused.
func SignWith(ctx context.Context, w wtypes.Wallet, ptx *PendingTransaction) (*SignedTransaction, error) {
	if ptx == nil {
		return nil, fail(ErrSigning, "nil transaction")
	}
	if w.Address() != ptx.From {
		return nil, fail(ErrSigning, "signer %s does not match sender %s", w.Address().Hex(), ptx.From.Hex())
	}

	to := ptx.To
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    ptx.Nonce,
		To:       &to,
		Value:    ptx.Value,
		Gas:      ptx.Gas,
		GasPrice: ptx.GasPrice,
		Data:     ptx.Data,
	})

	signer := types.LatestSignerForChainID(ptx.ChainID)
	digest := signer.Hash(tx).Bytes()

	sig, err := w.SignHash(ctx, digest) // 65 bytes R||S||V (V=0/1)
	if err != nil {
		return nil, mark(err, ErrSigning, "sign hash")
	}
	signed, err := tx.WithSignature(signer, sig)
	if err != nil {
		return nil, mark(err, ErrSigning, "with signature")
	}

	from, err := types.Sender(signer, signed)
	if err != nil {
		return nil, mark(err, ErrSigning, "recover sender")
	}
	if from != ptx.From {
		return nil, fail(ErrSigning, "signature recovers to %s, want %s", from.Hex(), ptx.From.Hex())
	}

	return &SignedTransaction{tx: signed, from: from, action: ptx.Action}, nil
}
