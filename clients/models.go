package clients

import (
	"github.com/shopspring/decimal"
)

// OpenIDConfiguration is the platform's OpenID discovery document, fetched
// during dynamic registration.
type OpenIDConfiguration struct {
	Issuer                string                 `json:"issuer"`
	AuthorizationEndpoint string                 `json:"authorization_endpoint"`
	TokenEndpoint         string                 `json:"token_endpoint"`
	JWKSURI               string                 `json:"jwks_uri"`
	RegistrationEndpoint  string                 `json:"registration_endpoint"`
	ScopesSupported       []string               `json:"scopes_supported,omitempty"`
	ClaimsSupported       []string               `json:"claims_supported,omitempty"`
	PlatformConfiguration *PlatformConfiguration `json:"https://purl.imsglobal.org/spec/lti-platform-configuration,omitempty"`
}

// PlatformConfiguration is the LTI-specific part of the platform's OpenID
// configuration.
type PlatformConfiguration struct {
	ProductFamilyCode string            `json:"product_family_code,omitempty"`
	Version           string            `json:"version,omitempty"`
	MessagesSupported []PlatformMessage `json:"messages_supported,omitempty"`
}

type PlatformMessage struct {
	Type       string   `json:"type"`
	Placements []string `json:"placements,omitempty"`
}

// ToolConfiguration is the LTI tool configuration claim exchanged during
// dynamic registration.
type ToolConfiguration struct {
	Domain        string        `json:"domain"`
	TargetLinkURI string        `json:"target_link_uri"`
	Description   string        `json:"description,omitempty"`
	Claims        []string      `json:"claims"`
	Messages      []ToolMessage `json:"messages"`
	DeploymentID  string        `json:"deployment_id,omitempty"`
}

type ToolMessage struct {
	Type          string `json:"type"`
	TargetLinkURI string `json:"target_link_uri,omitempty"`
	Label         string `json:"label,omitempty"`
}

// ClientRegistrationRequest is the OpenID client registration body the tool
// POSTs to the platform's registration endpoint.
type ClientRegistrationRequest struct {
	ApplicationType         string             `json:"application_type"`
	ResponseTypes           []string           `json:"response_types"`
	GrantTypes              []string           `json:"grant_types"`
	InitiateLoginURI        string             `json:"initiate_login_uri"`
	RedirectURIs            []string           `json:"redirect_uris"`
	ClientName              string             `json:"client_name"`
	JWKSURI                 string             `json:"jwks_uri"`
	LogoURI                 string             `json:"logo_uri,omitempty"`
	TokenEndpointAuthMethod string             `json:"token_endpoint_auth_method"`
	Scope                   string             `json:"scope"`
	ToolConfiguration       *ToolConfiguration `json:"https://purl.imsglobal.org/spec/lti-tool-configuration"`
}

// ClientRegistrationResponse is the platform's answer to a registration
// request. The tool configuration echo may carry the deployment ID the
// platform assigned.
type ClientRegistrationResponse struct {
	ClientID          string             `json:"client_id"`
	ClientName        string             `json:"client_name,omitempty"`
	ToolConfiguration *ToolConfiguration `json:"https://purl.imsglobal.org/spec/lti-tool-configuration,omitempty"`
}

// AccessToken is an OAuth2 token response from the platform's token endpoint.
type AccessToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Scope       string `json:"scope,omitempty"`
}

// LineItem is an AGS gradebook column.
type LineItem struct {
	ID             string          `json:"id,omitempty"`
	Label          string          `json:"label"`
	ScoreMaximum   decimal.Decimal `json:"scoreMaximum"`
	Tag            string          `json:"tag,omitempty"`
	ResourceID     string          `json:"resourceId,omitempty"`
	ResourceLinkID string          `json:"resourceLinkId,omitempty"`
}

// Score is an AGS score publish payload.
type Score struct {
	UserID           string          `json:"userId"`
	ScoreGiven       decimal.Decimal `json:"scoreGiven"`
	ScoreMaximum     decimal.Decimal `json:"scoreMaximum"`
	ActivityProgress string          `json:"activityProgress"`
	GradingProgress  string          `json:"gradingProgress"`
	Timestamp        string          `json:"timestamp"`
	Comment          string          `json:"comment,omitempty"`
}

// Result is an AGS result as returned by the results endpoint.
type Result struct {
	ID            string          `json:"id"`
	UserID        string          `json:"userId"`
	ResultScore   decimal.Decimal `json:"resultScore"`
	ResultMaximum decimal.Decimal `json:"resultMaximum"`
	ScoreOf       string          `json:"scoreOf"`
	Comment       string          `json:"comment,omitempty"`
}

// Member is a course member from the NRPS membership container.
type Member struct {
	UserID string   `json:"user_id"`
	Roles  []string `json:"roles"`
	Name   string   `json:"name,omitempty"`
	Email  string   `json:"email,omitempty"`
	Status string   `json:"status,omitempty"`
}
