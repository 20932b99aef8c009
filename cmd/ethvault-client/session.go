package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/quantumauth-io/quantum-go-utils/log"
	"golang.org/x/term"

	"github.com/quantumauth-io/ethvault-client/internal/ethwallet/injected"
	"github.com/quantumauth-io/ethvault-client/internal/networks"
	"github.com/quantumauth-io/ethvault-client/internal/vault"
)

// openSession connects to the configured vault. With withSigner the session gets the
// configured key, the delegate wallet, or a key read from the terminal, in that order.
func (a *app) openSession(ctx context.Context, withSigner bool) (*vault.Session, func(), error) {
	opts, err := a.cfg.SessionOptions()
	if err != nil {
		return nil, nil, err
	}
	opts.SkipProbe = a.flags.noProbe

	cleanup := func() {}
	if withSigner {
		switch {
		case a.cfg.Signer.PrivateKey != "":
			opts.PrivateKey = a.cfg.Signer.PrivateKey
		case a.cfg.Signer.DelegateURL != "":
			delegate, err := injected.Dial(ctx, a.cfg.Signer.DelegateURL)
			if err != nil {
				return nil, nil, err
			}
			opts.Delegate = delegate
			cleanup = delegate.Close
		default:
			key, err := promptKey()
			if err != nil {
				return nil, nil, err
			}
			opts.PrivateKey = key
		}
	}

	s, err := vault.Connect(ctx, opts)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	if !networks.Matches(a.cfg.Ethereum.Network, s.ChainID()) {
		log.Warn("configured network does not match the node",
			"network", a.cfg.Ethereum.Network,
			"chain", networks.Label(s.ChainID()),
		)
	}
	return s, func() {
		s.Close()
		cleanup()
	}, nil
}

// promptKey reads a private key from the terminal without echo.
func promptKey() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.Mark(
			errors.New("no signing key configured: set ETHVAULT_SIGNER_PRIVATEKEY or use --delegate"),
			vault.ErrNoSigner,
		)
	}
	_, _ = fmt.Fprint(os.Stderr, "Private key (hex): ")
	raw, err := term.ReadPassword(fd)
	_, _ = fmt.Fprintln(os.Stderr)
	defer zeroBytes(raw)
	if err != nil {
		return "", errors.Wrap(err, "read private key")
	}
	key := strings.TrimSpace(string(raw))
	if key == "" {
		return "", errors.Mark(errors.New("empty private key"), vault.ErrInvalidKey)
	}
	return key, nil
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
