package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MessageType identifies an ISO 20022 payments clearing and settlement message.
type MessageType string

// Supported message types.
const (
	Pacs008 MessageType = "pacs.008.001.10"
	Pacs002 MessageType = "pacs.002.001.12"
	Pacs004 MessageType = "pacs.004.001.11"
	Pacs007 MessageType = "pacs.007.001.11"
)

// Message is a rendered ISO 20022 document together with the facts it was
// rendered from. It is never modified after creation.
type Message struct {
	Type          MessageType
	TransferID    string
	MsgID         string
	CreatedAt     time.Time
	OriginalMsgID string
	EndToEndID    string
	TxID          string
	// ReferenceID is the return id of a pacs.004 or the reversal id of a pacs.007.
	ReferenceID string
	Amount      decimal.Decimal
	Currency    string
	StatusCode  string
	ReasonCode  string
	XML         string
}
