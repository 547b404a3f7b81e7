package models

import (
	"time"
)

// LaunchState is a one-time OIDC login state record. It binds the state token
// sent to the platform to the nonce we expect back in the id_token.
type LaunchState struct {
	ID            string    `db:"id"              json:"id"`
	State         string    `db:"state"           json:"state"`
	Nonce         string    `db:"nonce"           json:"nonce"`
	PlatformID    string    `db:"platform_id"     json:"platform_id"`
	TargetLinkURI string    `db:"target_link_uri" json:"target_link_uri"`
	Consumed      bool      `db:"consumed"        json:"consumed"`
	ExpiresAt     time.Time `db:"expires_at"      json:"expires_at"`
	CreatedAt     time.Time `db:"created_at"      json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"      json:"updated_at"`
}
