package http

import (
	"math/big"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/quantumauth-io/quantum-go-utils/log"

	"github.com/quantumauth-io/ethvault-client/internal/constants"
	"github.com/quantumauth-io/ethvault-client/internal/units"
	"github.com/quantumauth-io/ethvault-client/internal/vault"
)

// statusFor maps the vault error categories onto HTTP.
func statusFor(err error) int {
	switch {
	case errors.Is(err, vault.ErrInvalidAddress),
		errors.Is(err, vault.ErrInvalidAmount),
		errors.Is(err, vault.ErrInvalidAction),
		errors.Is(err, vault.ErrInvalidKey):
		return http.StatusBadRequest
	case errors.Is(err, vault.ErrNoSigner):
		return http.StatusPreconditionRequired
	case errors.Is(err, vault.ErrUnsupportedMethod):
		return http.StatusNotImplemented
	case errors.Is(err, vault.ErrUserRejected):
		return http.StatusConflict
	case errors.Is(err, vault.ErrPendingTimeout):
		return http.StatusAccepted
	case errors.Is(err, vault.ErrSubmission):
		return http.StatusUnprocessableEntity
	case errors.Is(err, vault.ErrQueryFailed),
		errors.Is(err, vault.ErrConnection):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	body := gin.H{JSONKeyError: err.Error()}
	if reason := vault.RevertReason(err); reason != "" {
		body[JSONKeyRevertReason] = reason
	}
	if status >= http.StatusInternalServerError {
		log.Error("request failed",
			"request_id", c.GetString(requestIDContextKey),
			"path", c.FullPath(),
			"status", status,
			"error", err,
		)
	}
	c.JSON(status, body)
}

func toAmount(wei *big.Int) amount {
	if wei == nil {
		wei = new(big.Int)
	}
	return amount{
		Wei:   wei.String(),
		Ether: units.FormatTrim(wei, constants.EtherDecimals, EtherDisplayMaxDecimals),
	}
}

func toUserRes(addr common.Address, info vault.UserInfo) userRes {
	return userRes{
		Address:         addr.Hex(),
		Deposit:         toAmount(info.DepositBalance),
		Rewards:         toAmount(info.CurrentRewards),
		AutoCompounding: info.AutoCompounding,
	}
}

func isTxHash(s string) bool {
	if len(s) != 66 || !strings.HasPrefix(s, "0x") {
		return false
	}
	for _, c := range s[2:] {
		if !(c >= '0' && c <= '9') && !(c >= 'a' && c <= 'f') && !(c >= 'A' && c <= 'F') {
			return false
		}
	}
	return true
}
