package ledgertest

import (
	"crypto/ecdsa"
	"math/big"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"
)

const (
	userRejectedCode = 4001
	unauthorizedCode = 4100

	defaultWalletGas uint64 = 300_000
)

type providerError struct {
	code int
	msg  string
}

func (e *providerError) Error() string  { return e.msg }
func (e *providerError) ErrorCode() int { return e.code }

// Wallet emulates a browser-injected provider (EIP-1193) in front of the ledger: it
// owns the key, fills nonce / gas / price itself and broadcasts.
type Wallet struct {
	l    *Ledger
	key  *ecdsa.PrivateKey
	addr common.Address

	mu        sync.Mutex
	reject    bool
	connected bool
	sent      []common.Hash

	server *rpc.Server
}

func (l *Ledger) NewWallet(key *ecdsa.PrivateKey) *Wallet {
	w := &Wallet{
		l:    l,
		key:  key,
		addr: crypto.PubkeyToAddress(key.PublicKey),
	}
	w.server = rpc.NewServer()
	if err := w.server.RegisterName("eth", &walletService{w: w}); err != nil {
		panic(err)
	}
	return w
}

func (w *Wallet) Address() common.Address { return w.addr }

// RPCClient opens an in-process connection to the provider.
func (w *Wallet) RPCClient() *rpc.Client { return rpc.DialInProc(w.server) }

func (w *Wallet) Close() { w.server.Stop() }

// SetReject makes every prompt answer "user rejected".
func (w *Wallet) SetReject(on bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.reject = on
}

func (w *Wallet) Sent() []common.Hash {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]common.Hash{}, w.sent...)
}

func (w *Wallet) rejecting() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reject
}

type walletService struct {
	w *Wallet
}

// RequestAccounts prompts for connection.
func (s *walletService) RequestAccounts() ([]common.Address, error) {
	if s.w.rejecting() {
		return nil, &providerError{code: userRejectedCode, msg: "User rejected the request."}
	}
	s.w.mu.Lock()
	s.w.connected = true
	s.w.mu.Unlock()
	return []common.Address{s.w.addr}, nil
}

// Accounts lists connected accounts without prompting.
func (s *walletService) Accounts() []common.Address {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	if !s.w.connected {
		return []common.Address{}
	}
	return []common.Address{s.w.addr}
}

func (s *walletService) SendTransaction(args CallArgs) (common.Hash, error) {
	if s.w.rejecting() {
		return common.Hash{}, &providerError{code: userRejectedCode, msg: "User denied transaction signature."}
	}
	if args.From != nil && *args.From != s.w.addr {
		return common.Hash{}, &providerError{code: unauthorizedCode, msg: "The requested account has not been authorized by the user."}
	}
	if args.To == nil {
		return common.Hash{}, errors.New("missing to")
	}

	l := s.w.l
	l.mu.Lock()
	nonce := l.nonces[s.w.addr]
	gasPrice := new(big.Int).Set(l.gasPrice)
	chainID := new(big.Int).Set(l.chainID)
	l.mu.Unlock()

	if args.GasPrice != nil {
		gasPrice = args.GasPrice.ToInt()
	}
	gas := defaultWalletGas
	if args.Gas != nil {
		gas = uint64(*args.Gas)
	}

	tx, err := types.SignTx(types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       args.To,
		Value:    args.value(),
		Gas:      gas,
		GasPrice: gasPrice,
		Data:     args.data(),
	}), types.LatestSignerForChainID(chainID), s.w.key)
	if err != nil {
		return common.Hash{}, err
	}

	h, err := l.submit(tx)
	if err != nil {
		return common.Hash{}, err
	}
	s.w.mu.Lock()
	s.w.sent = append(s.w.sent, h)
	s.w.mu.Unlock()
	return h, nil
}
