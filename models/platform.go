package models

import (
	"time"

	"github.com/lib/pq"
)

// Platform is a registered LTI platform (issuer + client) this tool can
// accept launches from. Rows are created either manually or through the
// dynamic registration flow.
type Platform struct {
	ID            string         `db:"id"              json:"id"`
	Issuer        string         `db:"issuer"          json:"issuer"`
	ClientID      string         `db:"client_id"       json:"client_id"`
	Name          string         `db:"name"            json:"name"`
	AuthLoginURL  string         `db:"auth_login_url"  json:"auth_login_url"`
	AuthTokenURL  string         `db:"auth_token_url"  json:"auth_token_url"`
	KeySetURL     string         `db:"key_set_url"     json:"key_set_url"`
	Audience      *string        `db:"audience"        json:"audience,omitempty"`
	DeploymentIDs pq.StringArray `db:"deployment_ids"  json:"deployment_ids"`
	CreatedAt     time.Time      `db:"created_at"      json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"      json:"updated_at"`
}

// HasDeploymentID reports whether the given deployment ID is accepted by this
// platform. An empty deployment_ids list means the platform does not pin
// deployments and any deployment ID is accepted.
func (p *Platform) HasDeploymentID(deploymentID string) bool {
	if len(p.DeploymentIDs) == 0 {
		return true
	}
	for _, id := range p.DeploymentIDs {
		if id == deploymentID {
			return true
		}
	}
	return false
}
