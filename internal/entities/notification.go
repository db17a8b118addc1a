package entities

// NotificationEvent is the payload pushed to websocket subscribers. Error
// notifications carry only a message; transaction notifications fill in the
// enrichment fields as well.
type NotificationEvent struct {
	Message       string          `json:"message"`
	WalletAddress string          `json:"wallet_address,omitempty"`
	Signature     string          `json:"signature,omitempty"`
	Actions       []string        `json:"actions,omitempty"`
	TokenInfo     []TokenMovement `json:"token_info,omitempty"`
	TotalValueUSD float64         `json:"total_value_usd,omitempty"`
	Link          string          `json:"link,omitempty"`
}
