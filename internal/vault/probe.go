package vault

import (
	"bytes"
	"context"
	"sort"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/quantumauth-io/quantum-go-utils/log"
)

// Vault methods some deployments do not carry.
const (
	MethodGetDonationPool  = "getDonationPool"
	MethodAutoCompoundAll  = "autoCompoundAll"
	MethodGetAllUsers      = "getAllUsers"
	MethodCalculateRewards = "calculateRewards"
)

var optionalMethods = []string{
	MethodGetDonationPool,
	MethodAutoCompoundAll,
	MethodGetAllUsers,
	MethodCalculateRewards,
}

// solidity opcodes used by the function dispatcher
const (
	opPush3 = 0x62
	opPush4 = 0x63
)

// Capabilities records which optional vault methods the deployed code exposes.
// The zero value (no probe) reports everything as supported.
type Capabilities struct {
	probed  bool
	present map[string]bool
}

// Supports reports whether calls to method may be issued. Required methods and
// everything on an unprobed session are assumed present.
func (c Capabilities) Supports(method string) bool {
	if !c.probed || !isOptional(method) {
		return true
	}
	return c.present[method]
}

// Optional lists every optional method with its availability.
func (c Capabilities) Optional() map[string]bool {
	out := make(map[string]bool, len(optionalMethods))
	for _, m := range optionalMethods {
		out[m] = c.Supports(m)
	}
	return out
}

// Unsupported returns the optional methods missing from this deployment, sorted.
func (c Capabilities) Unsupported() []string {
	var out []string
	for _, m := range optionalMethods {
		if !c.Supports(m) {
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out
}

func isOptional(method string) bool {
	for _, m := range optionalMethods {
		if m == method {
			return true
		}
	}
	return false
}

// probe matches the ABI selectors against the deployed runtime code.
func probe(ctx context.Context, backend Backend, vault common.Address, vaultABI *abi.ABI) (Capabilities, error) {
	code, err := backend.CodeAt(ctx, vault, nil)
	if err != nil {
		return Capabilities{}, mark(err, ErrConnection, "eth_getCode")
	}
	if len(code) == 0 {
		return Capabilities{}, fail(ErrConnection, "no contract code at %s", vault.Hex())
	}

	caps := Capabilities{probed: true, present: make(map[string]bool, len(vaultABI.Methods))}
	for name, m := range vaultABI.Methods {
		found := hasSelector(code, m.ID)
		caps.present[name] = found
		if !found && !isOptional(name) {
			// proxies and unusual dispatchers hide selectors, so this is not fatal
			log.Warn("vault method selector not found in contract code", "method", name, "vault", vault.Hex())
		}
	}
	if missing := caps.Unsupported(); len(missing) > 0 {
		log.Info("vault deployment lacks optional methods", "vault", vault.Hex(), "methods", missing)
	}
	return caps, nil
}

func hasSelector(code []byte, selector []byte) bool {
	if bytes.Contains(code, append([]byte{opPush4}, selector...)) {
		return true
	}
	// the optimizer shortens selectors with a leading zero byte
	return selector[0] == 0 && bytes.Contains(code, append([]byte{opPush3}, selector[1:]...))
}

func (s *Session) require(method string) error {
	if !s.caps.Supports(method) {
		return fail(ErrUnsupportedMethod, "%s is not available on vault %s", method, s.vault.Hex())
	}
	return nil
}
