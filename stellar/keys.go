// Package stellar implements the custodial core: keypair provisioning,
// payment building and signing, submission, and confirmation monitoring
// against a Stellar network.
package stellar

import (
	"encoding/base64"
	"fmt"

	"github.com/skip2/go-qrcode"
	"github.com/stellar/go/keypair"

	"github.com/fundlift/custody/internal/model"
)

// GenerateKeypair produces a new random keypair for account provisioning.
// Randomness comes from crypto/rand; an error here means the CSPRNG is
// unavailable and callers should treat it as fatal.
func GenerateKeypair() (model.KeyPair, error) {
	full, err := keypair.Random()
	if err != nil {
		return model.KeyPair{}, fmt.Errorf("keypair generation failed: %w", err)
	}
	return model.KeyPair{
		PublicKey: full.Address(),
		SecretKey: full.Seed(),
	}, nil
}

// ReceiveQR renders a public key as a base64 PNG QR code so donors can
// scan the receive address.
func ReceiveQR(publicKey string) (string, error) {
	qr, err := qrcode.New(publicKey, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("failed to create QR code: %w", err)
	}
	png, err := qr.PNG(256)
	if err != nil {
		return "", fmt.Errorf("failed to generate PNG: %w", err)
	}
	return base64.StdEncoding.EncodeToString(png), nil
}
