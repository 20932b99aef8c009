package http

// amount carries a value both exactly (wei) and for display (ether, truncated).
type amount struct {
	Wei   string `json:"wei"`
	Ether string `json:"ether"`
}

type overviewRes struct {
	Vault          string          `json:"vault"`
	ChainID        string          `json:"chainId"`
	Network        string          `json:"network,omitempty"`
	Explorer       string          `json:"explorer,omitempty"`
	Admin          string          `json:"admin"`
	TotalLocked    amount          `json:"totalLocked"`
	DonationPool   *amount         `json:"donationPool,omitempty"`
	Capabilities   map[string]bool `json:"capabilities"`
	Account        string          `json:"account,omitempty"`
	AccountIsAdmin bool            `json:"accountIsAdmin"`
}

type userRes struct {
	Address         string  `json:"address"`
	Deposit         amount  `json:"deposit"`
	Rewards         amount  `json:"rewards"`
	AutoCompounding bool    `json:"autoCompounding"`
	PendingRewards  *amount `json:"pendingRewards,omitempty"`
}

type participantsRes struct {
	Participants []userRes `json:"participants"`
}

type adminRes struct {
	Address string `json:"address"`
	IsAdmin bool   `json:"isAdmin"`
}

type txReq struct {
	Action       string `json:"action"       binding:"required"`
	AmountEth    string `json:"amountEth"`
	Target       string `json:"target"`
	GasLimit     uint64 `json:"gasLimit"`
	GasPriceGwei string `json:"gasPriceGwei"`
	// Force skips the admin check for admin-only actions; the contract still enforces it.
	Force bool `json:"force"`
}

type txRes struct {
	Hash        string `json:"hash"`
	Action      string `json:"action"`
	From        string `json:"from"`
	ExplorerURL string `json:"explorerUrl,omitempty"`
}

type receiptRes struct {
	Hash              string `json:"hash"`
	Status            string `json:"status"`
	Success           bool   `json:"success,omitempty"`
	GasUsed           uint64 `json:"gasUsed,omitempty"`
	EffectiveGasPrice string `json:"effectiveGasPrice,omitempty"`
	BlockNumber       string `json:"blockNumber,omitempty"`
	BlockHash         string `json:"blockHash,omitempty"`
}
