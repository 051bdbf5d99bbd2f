package stellar

import "errors"

// Permanent, caller-facing errors. None of these are retried.
var (
	ErrOnlyStudents          = errors.New("only students can send payments from their accounts")
	ErrNoSecretKey           = errors.New("account has no stored secret key")
	ErrMemoTooLong           = errors.New("text memo exceeds 28 bytes")
	ErrInvalidAmount         = errors.New("amount must be a positive decimal with at most 7 decimal places")
	ErrInvalidAsset          = errors.New("non-native asset requires an issuer")
	ErrInvalidDestination    = errors.New("invalid destination account")
	ErrSourceAccountNotFound = errors.New("source account not found or not yet funded")
	ErrSigning               = errors.New("secret key is malformed")
	ErrKeyMismatch           = errors.New("secret key does not match the account's public key")
)
