package http

import "time"

// Generic HTTP / JSON strings
const (
	HTTPErrorInvalidJSONText = "invalid JSON"
	HTTPErrorNotAdminText    = "connected account is not the vault admin; set force to submit anyway"
	HTTPErrorNoSignerText    = "no signing key or wallet is connected"
	HTTPErrorInvalidHashText = "invalid transaction hash"
)

// Common JSON keys
const (
	JSONKeyError        = "error"
	JSONKeyRevertReason = "revertReason"
)

// Transaction receipt constants
const (
	TxReceiptStatusPendingText   = "pending"
	TxReceiptStatusConfirmedText = "confirmed"
	TxReceiptStatusFailedText    = "failed"

	// TxReceiptMaxWait caps the timeoutMs a caller may ask the server to block for.
	TxReceiptMaxWait = 30 * time.Second
)

// Request tracing
const (
	RequestIDHeader     = "X-Request-ID"
	requestIDContextKey = "request_id"
)

// Display
const (
	EtherDisplayMaxDecimals = 6
	ShutdownTimeout         = 5 * time.Second
)
