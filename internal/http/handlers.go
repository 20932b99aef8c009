package http

import (
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"github.com/quantumauth-io/ethvault-client/internal/networks"
	"github.com/quantumauth-io/ethvault-client/internal/units"
	"github.com/quantumauth-io/ethvault-client/internal/vault"
)

type Handler struct {
	session *vault.Session
}

func NewHandler(session *vault.Session) *Handler {
	return &Handler{session: session}
}

func (h *Handler) Health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// GET /api/vault
func (h *Handler) Overview(c *gin.Context) {
	ctx := c.Request.Context()
	s := h.session

	ov, err := vault.GetOverview(ctx, s)
	if err != nil {
		writeError(c, err)
		return
	}

	res := overviewRes{
		Vault:        s.VaultAddress().Hex(),
		ChainID:      s.ChainID().String(),
		Admin:        ov.Admin.Hex(),
		TotalLocked:  toAmount(ov.TotalLocked),
		Capabilities: s.Capabilities().Optional(),
	}
	if n, ok := networks.Lookup(s.ChainID()); ok {
		res.Network = n.Name
		res.Explorer = n.AddressURL(s.VaultAddress())
	}
	if ov.DonationPool != nil {
		pool := toAmount(ov.DonationPool)
		res.DonationPool = &pool
	}
	if s.HasSigner() {
		res.Account = s.Account().Hex()
		res.AccountIsAdmin = ov.Admin == s.Account()
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/users/:address
func (h *Handler) User(c *gin.Context) {
	ctx := c.Request.Context()

	addr, err := vault.ParseAddress(c.Param("address"))
	if err != nil {
		writeError(c, err)
		return
	}
	info, err := vault.GetUserInfo(ctx, h.session, addr.Hex())
	if err != nil {
		writeError(c, err)
		return
	}

	res := toUserRes(addr, info)
	if h.session.Capabilities().Supports(vault.MethodCalculateRewards) {
		pending, err := vault.CalculateRewards(ctx, h.session, addr.Hex())
		if err != nil {
			writeError(c, err)
			return
		}
		p := toAmount(pending)
		res.PendingRewards = &p
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/participants lists depositors with a non-zero balance.
func (h *Handler) Participants(c *gin.Context) {
	contributors, err := vault.ListContributors(c.Request.Context(), h.session)
	if err != nil {
		writeError(c, err)
		return
	}
	res := participantsRes{Participants: make([]userRes, 0, len(contributors))}
	for _, ct := range contributors {
		res.Participants = append(res.Participants, toUserRes(ct.Address, ct.Info))
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/admin/:address
func (h *Handler) Admin(c *gin.Context) {
	parsed, err := vault.ParseAddress(c.Param("address"))
	if err != nil {
		writeError(c, err)
		return
	}
	ok, err := vault.IsAdmin(c.Request.Context(), h.session, parsed.Hex())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, adminRes{Address: parsed.Hex(), IsAdmin: ok})
}

// POST /api/tx submits a write with the session signer.
func (h *Handler) SubmitTx(c *gin.Context) {
	ctx := c.Request.Context()
	s := h.session

	var req txReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{JSONKeyError: HTTPErrorInvalidJSONText + ": " + err.Error()})
		return
	}

	vreq, err := toVaultRequest(req)
	if err != nil {
		writeError(c, err)
		return
	}
	if !s.HasSigner() {
		c.JSON(http.StatusPreconditionRequired, gin.H{JSONKeyError: HTTPErrorNoSignerText})
		return
	}

	// UX convenience only: the contract is the authority on admin actions
	if vreq.Action.AdminOnly() && !req.Force {
		isAdmin, err := vault.IsAdmin(ctx, s, s.Account().Hex())
		if err != nil {
			writeError(c, err)
			return
		}
		if !isAdmin {
			c.JSON(http.StatusForbidden, gin.H{JSONKeyError: HTTPErrorNotAdminText})
			return
		}
	}

	hash, err := vault.Execute(ctx, s, vreq)
	if err != nil {
		writeError(c, err)
		return
	}
	res := txRes{Hash: hash.Hex(), Action: vreq.Action.String(), From: s.Account().Hex()}
	if n, ok := networks.Lookup(s.ChainID()); ok {
		res.ExplorerURL = n.TxURL(hash)
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/tx/:hash?timeoutMs=
func (h *Handler) TxReceipt(c *gin.Context) {
	raw := c.Param("hash")
	if !isTxHash(raw) {
		c.JSON(http.StatusBadRequest, gin.H{JSONKeyError: HTTPErrorInvalidHashText})
		return
	}
	hash := common.HexToHash(raw)

	var timeout time.Duration
	if v := strings.TrimSpace(c.Query("timeoutMs")); v != "" {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil || ms < 0 {
			c.JSON(http.StatusBadRequest, gin.H{JSONKeyError: "timeoutMs must be a non-negative integer"})
			return
		}
		timeout = time.Duration(ms) * time.Millisecond
		if timeout > TxReceiptMaxWait {
			timeout = TxReceiptMaxWait
		}
	}

	rcpt, err := vault.AwaitConfirmation(c.Request.Context(), h.session, hash, timeout)
	if err != nil {
		if errors.Is(err, vault.ErrPendingTimeout) {
			c.JSON(http.StatusAccepted, receiptRes{Hash: hash.Hex(), Status: TxReceiptStatusPendingText})
			return
		}
		writeError(c, err)
		return
	}

	res := receiptRes{
		Hash:      rcpt.TxHash.Hex(),
		Status:    TxReceiptStatusConfirmedText,
		Success:   rcpt.Success,
		GasUsed:   rcpt.GasUsed,
		BlockHash: rcpt.BlockHash.Hex(),
	}
	if !rcpt.Success {
		res.Status = TxReceiptStatusFailedText
	}
	if rcpt.EffectiveGasPrice != nil {
		res.EffectiveGasPrice = rcpt.EffectiveGasPrice.String()
	}
	if rcpt.BlockNumber != nil {
		res.BlockNumber = rcpt.BlockNumber.String()
	}
	c.JSON(http.StatusOK, res)
}

func toVaultRequest(req txReq) (vault.Request, error) {
	action, err := vault.ParseAction(req.Action)
	if err != nil {
		return vault.Request{}, err
	}
	out := vault.Request{Action: action, GasLimit: req.GasLimit}

	if action.TakesAmount() {
		wei, err := units.ParseEther(req.AmountEth)
		if err != nil {
			return vault.Request{}, errors.Mark(errors.Wrap(err, "amountEth"), vault.ErrInvalidAmount)
		}
		out.Amount = wei
	}
	if action == vault.ActionSendExternal {
		if out.Target, err = vault.ParseAddress(req.Target); err != nil {
			return vault.Request{}, err
		}
	}
	if strings.TrimSpace(req.GasPriceGwei) != "" {
		gp, err := units.ParseGwei(req.GasPriceGwei)
		if err != nil || gp.Cmp(big.NewInt(0)) <= 0 {
			return vault.Request{}, errors.Mark(errors.Newf("invalid gasPriceGwei %q", req.GasPriceGwei), vault.ErrInvalidAmount)
		}
		out.GasPrice = gp
	}
	return out, nil
}
