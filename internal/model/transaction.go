package model

import "time"

// TxStatus is the application-side status of a submitted transaction.
type TxStatus string

const (
	TxStatusPending    TxStatus = "pending"
	TxStatusSuccessful TxStatus = "successful"
	TxStatusFailed     TxStatus = "failed"
	// TxStatusNotFoundAfterRetries means the confirmation budget was
	// exhausted without the transaction becoming visible. Operationally
	// distinct from failed: it needs manual reconciliation.
	TxStatusNotFoundAfterRetries TxStatus = "not_found_after_retries"
)

// Terminal reports whether a status admits no further transitions.
func (s TxStatus) Terminal() bool {
	return s == TxStatusSuccessful || s == TxStatusFailed || s == TxStatusNotFoundAfterRetries
}

// SubmittedTransaction is the durable record of a payment this service
// built, signed and submitted. The hash is assigned only after a
// successful build+sign.
type SubmittedTransaction struct {
	Hash                 string     `json:"hash"`
	SourcePublicKey      string     `json:"sourcePublicKey"`
	DestinationPublicKey string     `json:"destinationPublicKey"`
	Amount               string     `json:"amount"`
	AssetCode            string     `json:"assetCode"`
	Memo                 string     `json:"memo,omitempty"`
	Status               TxStatus   `json:"status"`
	ResultCode           string     `json:"resultCode,omitempty"`
	SubmittedAt          time.Time  `json:"submittedAt"`
	ConfirmedAt          *time.Time `json:"confirmedAt,omitempty"`
	LedgerSequence       *int32     `json:"ledgerSequence,omitempty"`
}

// DonationsResponse represents response for GET /wallet/donations.
// Total and Largest cover the native-asset donations only; non-native
// payments are listed but not aggregated.
type DonationsResponse struct {
	Payments []Payment `json:"payments"`
	Count    int       `json:"count"`
	Total    string    `json:"total"`
	Largest  string    `json:"largest,omitempty"`
}

// Payment is an inbound payment observed by the central-account watcher.
// Records are a cache rebuilt from the ledger; the network stays the
// source of truth.
type Payment struct {
	ID              string    `json:"id"`
	PagingToken     string    `json:"pagingToken"`
	From            string    `json:"from"`
	To              string    `json:"to"`
	Amount          string    `json:"amount"`
	AssetType       string    `json:"assetType"`
	AssetCode       string    `json:"assetCode,omitempty"`
	TransactionHash string    `json:"transactionHash"`
	ReceivedAt      time.Time `json:"receivedAt"`
}
