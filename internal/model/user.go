package model

import "time"

// Role of an authenticated caller.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDonor   Role = "donor"
	RoleStudent Role = "student"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleDonor || r == RoleStudent
}

// User is the stored user record. The secret key is kept only in
// encrypted form; this service never writes a plaintext secret back.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"passwordHash"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`

	StellarPublicKey          string `json:"stellar_public_key"`
	StellarSecretKeyEncrypted string `json:"stellar_secret_key_encrypted"`

	// Funded records whether provisioning succeeded. A false value is
	// not an error state: funding can be retried later.
	Funded bool `json:"funded"`
}
