package models

import (
	"time"
)

// ToolKey is an RSA keypair the tool signs messages with. All keys appear in
// the published JWKS; only the active key is used for new signatures.
type ToolKey struct {
	ID            string    `db:"id"              json:"id"`
	Kid           string    `db:"kid"             json:"kid"`
	PrivateKeyPEM string    `db:"private_key_pem" json:"-"`
	PublicKeyPEM  string    `db:"public_key_pem"  json:"public_key_pem"`
	IsActive      bool      `db:"is_active"       json:"is_active"`
	CreatedAt     time.Time `db:"created_at"      json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"      json:"updated_at"`
}
