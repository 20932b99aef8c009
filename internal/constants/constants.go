package constants

import "time"

const (
	AppName = "ethvault-client"

	// EtherDecimals is the number of base units (wei) per ether, as a power of ten.
	EtherDecimals = 18

	// Gas limits used when the caller does not override them.
	GasLimitDeposit         uint64 = 300_000
	GasLimitWithdraw        uint64 = 300_000
	GasLimitAutoCompounding uint64 = 200_000
	GasLimitSendExternal    uint64 = 300_000
	GasLimitAutoCompoundAll uint64 = 1_500_000

	// Receipt polling cadence.
	ReceiptPollInitial = 750 * time.Millisecond
	ReceiptPollStep    = 250 * time.Millisecond
	ReceiptPollMax     = 3 * time.Second

	DefaultConfirmTimeout = 2 * time.Minute

	// EIP-1193 "user rejected request".
	UserRejectedCode = 4001
)
