package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// LaunchClaims is the verified id_token payload of a message launch, stored as
// JSONB so follow-up requests (deep link completion, AGS, NRPS) can read the
// service claims without re-validating the token.
type LaunchClaims map[string]any

func (c LaunchClaims) Value() (driver.Value, error) {
	if c == nil {
		return nil, nil
	}
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal launch claims: %w", err)
	}
	return data, nil
}

func (c *LaunchClaims) Scan(src any) error {
	if src == nil {
		*c = nil
		return nil
	}

	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for launch claims: %T", src)
	}

	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to unmarshal launch claims: %w", err)
	}
	return nil
}

// GetString returns the string value of a top-level claim, or "" when absent.
func (c LaunchClaims) GetString(claim string) string {
	value, _ := c[claim].(string)
	return value
}

// GetMap returns the object value of a top-level claim, or an empty map when absent.
func (c LaunchClaims) GetMap(claim string) map[string]any {
	value, ok := c[claim].(map[string]any)
	if !ok {
		return map[string]any{}
	}
	return value
}

// GetStrings returns the string-array value of a top-level claim.
func (c LaunchClaims) GetStrings(claim string) []string {
	raw, ok := c[claim].([]any)
	if !ok {
		return nil
	}
	values := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			values = append(values, s)
		}
	}
	return values
}

// Launch is a validated message launch, retrievable by launch ID for the
// lifetime of the user's session with the tool.
type Launch struct {
	ID           string       `db:"id"            json:"id"`
	PlatformID   string       `db:"platform_id"   json:"platform_id"`
	Subject      string       `db:"subject"       json:"subject"`
	MessageType  string       `db:"message_type"  json:"message_type"`
	DeploymentID string       `db:"deployment_id" json:"deployment_id"`
	Claims       LaunchClaims `db:"claims"        json:"claims"`
	ExpiresAt    time.Time    `db:"expires_at"    json:"expires_at"`
	CreatedAt    time.Time    `db:"created_at"    json:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at"    json:"updated_at"`
}
