package model

// SendRequest represents request for POST /wallet/send
type SendRequest struct {
	DestinationPublicKey string `json:"destinationPublicKey" binding:"required"`
	Amount               string `json:"amount" binding:"required"`
	AssetCode            string `json:"assetCode,omitempty"`
	AssetIssuer          string `json:"assetIssuer,omitempty"`
	Memo                 string `json:"memo,omitempty"`
}

// SendResponse represents response for POST /wallet/send
type SendResponse struct {
	TransactionHash string `json:"transactionHash"`
}
