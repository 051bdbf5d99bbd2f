package model

// Balance is one asset line of an account.
type Balance struct {
	AssetType string `json:"assetType"`
	AssetCode string `json:"assetCode,omitempty"`
	Amount    string `json:"amount"`
}

// BalanceResponse represents response for GET /wallet/balance
type BalanceResponse struct {
	PublicKey string    `json:"publicKey"`
	Balances  []Balance `json:"balances"`
}
