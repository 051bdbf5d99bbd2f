package model

// RegisterRequest represents request for POST /auth/register
type RegisterRequest struct {
	Email    string `json:"email" binding:"required"`
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     Role   `json:"role,omitempty"`
}

// RegisterResponse represents response for POST /auth/register.
// QR is a base64 PNG of the public key, for receiving donations.
// Funded is false when account funding failed; registration still
// succeeds and funding can be retried via POST /wallet/provision.
type RegisterResponse struct {
	Token     string `json:"token"`
	PublicKey string `json:"publicKey"`
	QR        string `json:"qr,omitempty"`
	Funded    bool   `json:"funded"`
}

// LoginRequest represents request for POST /auth/login
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents response for POST /auth/login
type LoginResponse struct {
	Token     string `json:"token"`
	PublicKey string `json:"publicKey"`
}

// ProvisionResponse represents response for POST /wallet/provision
type ProvisionResponse struct {
	PublicKey string `json:"publicKey"`
	Funded    bool   `json:"funded"`
	Warning   string `json:"warning,omitempty"`
}
