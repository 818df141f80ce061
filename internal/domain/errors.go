package domain

import "errors"

var (
	// Account errors
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountUnavailable = errors.New("account is inactive or blocked")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrPartyNotFound      = errors.New("party not found")

	// Mass payment errors
	ErrMassPaymentNotFound     = errors.New("mass payment not found")
	ErrItemNotFound            = errors.New("mass payment item not found")
	ErrInitiatorUnavailable    = errors.New("initiator account not found or inactive")
	ErrNoRecipients            = errors.New("at least one recipient is required")
	ErrInvalidRecipient        = errors.New("invalid recipient")
	ErrDuplicateReference      = errors.New("reference code already exists")
	ErrInsufficientBatchFunds  = errors.New("insufficient funds for the total amount and fees")
	ErrInvalidAmount           = errors.New("amount must be positive")
	ErrTransactionNotFound     = errors.New("transaction not found")
	ErrBankProviderNotFound    = errors.New("bank provider not found")
	ErrBatchInconsistent       = errors.New("mass payment counters are inconsistent")
	ErrInvalidStatusTransition = errors.New("invalid status transition")

	// Recipient group errors
	ErrGroupNotFound          = errors.New("recipient group not found")
	ErrGroupInactive          = errors.New("recipient group is inactive")
	ErrRecipientExists        = errors.New("recipient already exists in the group")
	ErrNoGroupRecipients      = errors.New("no recipients found in the group")
	ErrNoValidGroupRecipients = errors.New("no valid recipients found in the group")
	ErrInvalidCSV             = errors.New("invalid CSV file")

	// Processing errors
	ErrQueueFull       = errors.New("dispatch queue is full")
	ErrGatewayRejected = errors.New("gateway rejected transfer")
)

// Failure reasons stored on items and recipients.
const (
	ReasonInsufficientFunds     = "Insufficient funds"
	ReasonBankNotSupported      = "Bank provider not supported"
	ReasonInitiatorUnavailable  = "Initiator account unavailable"
	ReasonSelfTransfer          = "Cannot transfer to the initiator account"
	ReasonPartyNotFound         = "User not found with the provided phone number"
	ReasonNoActiveAccount       = "No active account found for the user with the provided bank code"
	ReasonProcessingInterrupted = "Processing interrupted"
	ReasonExternalUnconfirmed   = "External transfer interrupted; outcome unknown, manual reconciliation required"
	ReasonInternalFailedPrefix  = "Internal transfer failed: "
	ReasonExternalFailedPrefix  = "External transfer failed: "
	ReasonTransferFailedPrefix  = "Transfer failed: "
)
