package entities

// TokenMovement is a single token's quantity and USD value change within
// one transaction. Amount is already scaled by the token's decimals.
type TokenMovement struct {
	TokenName   string  `json:"token_name"`
	TokenSymbol string  `json:"token_symbol"`
	Amount      float64 `json:"amount"`
	ValueUSD    float64 `json:"value_usd"`
}

// EnrichmentResult is the output of transaction analysis. Actions is never
// empty: unclassifiable payloads yield a single "Unknown" action.
type EnrichmentResult struct {
	Actions       []string
	Movements     []TokenMovement
	TotalValueUSD float64
}

// EnrichedTransaction is the API view of a transaction after enrichment.
type EnrichedTransaction struct {
	Signature     string          `json:"signature"`
	Actions       []string        `json:"actions"`
	TokenInfo     []TokenMovement `json:"token_info"`
	TotalValueUSD float64         `json:"total_value_usd"`
	Link          string          `json:"link"`
}
