package vault

import (
	"context"
	"math/big"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/quantumauth-io/quantum-go-utils/log"

	"github.com/quantumauth-io/ethvault-client/internal/contracts/bindings/go/ethvault"
	"github.com/quantumauth-io/ethvault-client/internal/ethwallet/userwallet"
	"github.com/quantumauth-io/ethvault-client/internal/ethwallet/wtypes"
)

// Options configures a Session. At most one of PrivateKey, Wallet and Delegate is used;
// Wallet wins over PrivateKey, and either wins over Delegate.
type Options struct {
	Endpoint     string
	VaultAddress string

	PrivateKey string
	Wallet     wtypes.Wallet
	Delegate   wtypes.Delegate

	// GasPrice overrides the node's suggestion for every build; nil asks the node.
	GasPrice *big.Int
	// GasLimits overrides the per-action defaults.
	GasLimits map[Action]uint64

	SkipProbe bool
}

// Session is the explicit connection state every client call takes: the ledger
// handle, the vault it targets and the optional signing identity.
type Session struct {
	backend Backend
	closer  func()

	chainID *big.Int
	vault   common.Address
	abi     *abi.ABI
	caller  *ethvault.EthVaultCaller
	caps    Capabilities

	wallet   wtypes.Wallet
	delegate wtypes.Delegate
	account  common.Address

	gasPrice  *big.Int
	gasLimits map[Action]uint64
}

// Connect dials opts.Endpoint and opens a session on it. The session owns the
// connection and releases it on Close.
func Connect(ctx context.Context, opts Options) (*Session, error) {
	// validate locally before any network round-trip
	if _, err := ParseAddress(opts.VaultAddress); err != nil {
		return nil, err
	}
	if opts.Wallet == nil && opts.PrivateKey != "" {
		if _, err := DeriveAccount(opts.PrivateKey); err != nil {
			return nil, err
		}
	}

	client, err := Dial(ctx, opts.Endpoint)
	if err != nil {
		return nil, err
	}
	s, err := NewSession(ctx, client, opts)
	if err != nil {
		client.Close()
		return nil, err
	}
	s.closer = client.Close
	return s, nil
}

// NewSession opens a session on an existing backend. The liveness handshake is
// eth_chainId; the vault interface is then probed unless opts.SkipProbe is set.
func NewSession(ctx context.Context, backend Backend, opts Options) (*Session, error) {
	vaultAddr, err := ParseAddress(opts.VaultAddress)
	if err != nil {
		return nil, err
	}

	s := &Session{
		backend:   backend,
		vault:     vaultAddr,
		gasLimits: make(map[Action]uint64, len(opts.GasLimits)),
	}
	for a, g := range opts.GasLimits {
		if g > 0 {
			s.gasLimits[a] = g
		}
	}
	if opts.GasPrice != nil && opts.GasPrice.Sign() > 0 {
		s.gasPrice = new(big.Int).Set(opts.GasPrice)
	}

	switch {
	case opts.Wallet != nil:
		s.wallet = opts.Wallet
		s.account = opts.Wallet.Address()
	case opts.PrivateKey != "":
		w, err := userwallet.FromPrivateKeyHex(opts.PrivateKey)
		if err != nil {
			return nil, mark(err, ErrInvalidKey, "parse signing key")
		}
		s.wallet = w
		s.account = w.Address()
	}

	s.chainID, err = backend.ChainID(ctx)
	if err != nil {
		return nil, mark(err, ErrConnection, "eth_chainId")
	}

	if s.wallet == nil && opts.Delegate != nil {
		acct, err := opts.Delegate.RequestAccount(ctx)
		if err != nil {
			if errors.Is(err, wtypes.ErrUserRejected) {
				return nil, mark(err, ErrUserRejected, "request wallet account")
			}
			return nil, mark(err, ErrConnection, "request wallet account")
		}
		s.delegate = opts.Delegate
		s.account = acct
	}

	s.abi, err = ethvault.EthVaultMetaData.GetAbi()
	if err != nil {
		return nil, errors.Wrap(err, "parse vault abi")
	}
	s.caller, err = ethvault.NewEthVaultCaller(vaultAddr, backend)
	if err != nil {
		return nil, errors.Wrap(err, "bind vault")
	}

	if !opts.SkipProbe {
		s.caps, err = probe(ctx, backend, vaultAddr, s.abi)
		if err != nil {
			return nil, err
		}
	}

	log.Info("vault session established",
		"chain_id", s.chainID.String(),
		"vault", s.vault.Hex(),
		"account", s.accountLabel(),
		"signer", s.signerKind(),
	)
	return s, nil
}

// DeriveAccount returns the address controlled by a hex private key. No network call.
func DeriveAccount(privateKey string) (common.Address, error) {
	addr, err := userwallet.DeriveAddress(privateKey)
	if err != nil {
		return common.Address{}, mark(err, ErrInvalidKey, "derive account")
	}
	return addr, nil
}

func (s *Session) ChainID() *big.Int { return new(big.Int).Set(s.chainID) }

// Account is the connected account, or the zero address for read-only sessions.
func (s *Session) Account() common.Address { return s.account }

func (s *Session) VaultAddress() common.Address { return s.vault }

// HasSigner reports whether the session can issue transactions.
func (s *Session) HasSigner() bool { return s.wallet != nil || s.delegate != nil }

func (s *Session) Delegated() bool { return s.delegate != nil }

func (s *Session) Capabilities() Capabilities { return s.caps }

// Close releases the connection when the session owns it. Safe to call twice.
func (s *Session) Close() {
	if s.closer != nil {
		s.closer()
		s.closer = nil
	}
}

func (s *Session) callOpts(ctx context.Context) *bind.CallOpts {
	return &bind.CallOpts{Context: ctx, From: s.account}
}

func (s *Session) accountLabel() string {
	if s.account == (common.Address{}) {
		return "none"
	}
	return s.account.Hex()
}

func (s *Session) signerKind() string {
	switch {
	case s.wallet != nil:
		return "local"
	case s.delegate != nil:
		return "delegate"
	default:
		return "read-only"
	}
}
