package model

// KeyPair is a freshly generated ledger keypair. The secret key must never
// be stored in plaintext outside of transient memory during signing.
type KeyPair struct {
	PublicKey string
	SecretKey string
}
