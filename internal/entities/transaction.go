package entities

import "encoding/json"

// TransactionType is the top-level classification tag the history provider
// assigns to an enriched transaction.
type TransactionType string

const (
	TypeTransfer TransactionType = "TRANSFER"
	TypeSwap     TransactionType = "SWAP"
	TypeNFTMint  TransactionType = "NFT_MINT"
)

// NativeTransfer is a movement of the native asset between two accounts,
// denominated in lamports.
type NativeTransfer struct {
	FromUserAccount string `json:"fromUserAccount"`
	ToUserAccount   string `json:"toUserAccount"`
	Amount          int64  `json:"amount"`
}

// FungibleTransfer is an SPL token transfer event. Amount is in raw token
// units and must be scaled by Decimals.
type FungibleTransfer struct {
	TokenAddress string  `json:"tokenAddress"`
	Amount       float64 `json:"amount"`
	Decimals     int     `json:"decimals"`
}

// TransactionEvents groups the event substructures the provider attaches to
// a transaction. The NFT event payload is kept raw: only its presence
// matters for classification.
type TransactionEvents struct {
	Fungible []FungibleTransfer `json:"fungible,omitempty"`
	NFT      json.RawMessage    `json:"nft,omitempty"`
}

// HasNFT reports whether the transaction carries an NFT transfer event.
func (e TransactionEvents) HasNFT() bool {
	return len(e.NFT) > 0 && string(e.NFT) != "null"
}

// TransactionPayload is the decoded provider payload for one transaction.
// Unrecognized types and event shapes simply leave all fields at their zero
// values.
type TransactionPayload struct {
	Type            TransactionType   `json:"type,omitempty"`
	NativeTransfers []NativeTransfer  `json:"nativeTransfers,omitempty"`
	Events          TransactionEvents `json:"events,omitempty"`
}

// TransactionEnvelope pairs a transaction signature with its decoded
// payload. Envelopes are immutable once fetched.
type TransactionEnvelope struct {
	Signature string             `json:"signature"`
	Payload   TransactionPayload `json:"full_data"`
}
