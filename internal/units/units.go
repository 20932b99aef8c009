// Package units converts between integer base units and human decimal strings.
//
// Amounts are carried as *big.Int base units everywhere in the client; the
// helpers here are only meant for the presentation boundary (CLI flags, HTTP
// payloads, dashboard output).
package units

import (
	"math/big"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"

	"github.com/quantumauth-io/ethvault-client/internal/constants"
)

const (
	gweiDecimals = 9

	// 2^256 has 78 decimal digits.
	maxUint256Digits = 78
)

// ParseUnits converts a decimal string such as "1.25" into base units for a
// currency with the given number of decimals. The conversion is exact: input
// with more fractional digits than decimals is rejected instead of rounded.
func ParseUnits(s string, decimals int32) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("units: empty amount")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, errors.Wrapf(err, "units: parse amount %q", s)
	}

	// bound the exponent before materializing: "1e50000000" is a short string
	exp := int64(d.Exponent()) + int64(decimals)
	if exp > maxUint256Digits {
		return nil, errors.Newf("units: amount %q exceeds uint256", s)
	}
	if exp < -int64(len(s)) {
		return nil, errors.Newf("units: amount %q has more than %d fractional digits", s, decimals)
	}

	shifted := d.Shift(decimals)
	if !shifted.IsInteger() {
		return nil, errors.Newf("units: amount %q has more than %d fractional digits", s, decimals)
	}
	out := shifted.BigInt()
	if out.BitLen() > 256 {
		return nil, errors.Newf("units: amount %q exceeds uint256", s)
	}
	return out, nil
}

// ParseEther converts an ether amount into wei.
func ParseEther(s string) (*big.Int, error) {
	return ParseUnits(s, constants.EtherDecimals)
}

// ParseGwei converts a gwei amount into wei.
func ParseGwei(s string) (*big.Int, error) {
	return ParseUnits(s, gweiDecimals)
}

// FormatUnits renders base units as an exact decimal string with trailing
// zeros removed. A nil amount renders as "0".
func FormatUnits(amount *big.Int, decimals int32) string {
	if amount == nil {
		return "0"
	}
	return decimal.NewFromBigInt(amount, -decimals).String()
}

// FormatEther renders wei as an exact ether string.
func FormatEther(wei *big.Int) string {
	return FormatUnits(wei, constants.EtherDecimals)
}

// FormatTrim renders base units truncated to at most maxFrac fractional
// digits, for display only.
//
//	amount=1234500000000000000, decimals=18, maxFrac=6 -> "1.2345"
//	amount=1,                   decimals=18, maxFrac=6 -> "0"
func FormatTrim(amount *big.Int, decimals int32, maxFrac int32) string {
	if amount == nil || amount.Sign() == 0 {
		return "0"
	}
	if maxFrac < 0 {
		maxFrac = 0
	}
	return decimal.NewFromBigInt(amount, -decimals).Truncate(maxFrac).String()
}
