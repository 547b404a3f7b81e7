// Package lti implements the LTI 1.3 message-level protocol: claim
// vocabulary, id_token validation, role classification, the tool JWKS and
// deep linking response signing.
package lti

// Claim URIs from the IMS LTI 1.3 and LTI Advantage specifications.
const (
	ClaimMessageType   = "https://purl.imsglobal.org/spec/lti/claim/message_type"
	ClaimVersion       = "https://purl.imsglobal.org/spec/lti/claim/version"
	ClaimDeploymentID  = "https://purl.imsglobal.org/spec/lti/claim/deployment_id"
	ClaimTargetLinkURI = "https://purl.imsglobal.org/spec/lti/claim/target_link_uri"
	ClaimRoles         = "https://purl.imsglobal.org/spec/lti/claim/roles"
	ClaimCustom        = "https://purl.imsglobal.org/spec/lti/claim/custom"
	ClaimResourceLink  = "https://purl.imsglobal.org/spec/lti/claim/resource_link"
	ClaimContext       = "https://purl.imsglobal.org/spec/lti/claim/context"

	ClaimDeepLinkingSettings = "https://purl.imsglobal.org/spec/lti-dl/claim/deep_linking_settings"
	ClaimContentItems        = "https://purl.imsglobal.org/spec/lti-dl/claim/content_items"
	ClaimDeepLinkingData     = "https://purl.imsglobal.org/spec/lti-dl/claim/data"

	ClaimAGSEndpoint = "https://purl.imsglobal.org/spec/lti-ags/claim/endpoint"
	ClaimNRPS        = "https://purl.imsglobal.org/spec/lti-nrps/claim/namesroleservice"

	ClaimToolConfiguration     = "https://purl.imsglobal.org/spec/lti-tool-configuration"
	ClaimPlatformConfiguration = "https://purl.imsglobal.org/spec/lti-platform-configuration"
)

// LTI message types.
const (
	MessageTypeResourceLink        = "LtiResourceLinkRequest"
	MessageTypeDeepLinkingRequest  = "LtiDeepLinkingRequest"
	MessageTypeDeepLinkingResponse = "LtiDeepLinkingResponse"

	VersionLTI1p3 = "1.3.0"
)

// OAuth2 scopes for the LTI Advantage services.
const (
	ScopeLineItem                  = "https://purl.imsglobal.org/spec/lti-ags/scope/lineitem"
	ScopeLineItemReadonly          = "https://purl.imsglobal.org/spec/lti-ags/scope/lineitem.readonly"
	ScopeResultReadonly            = "https://purl.imsglobal.org/spec/lti-ags/scope/result.readonly"
	ScopeScore                     = "https://purl.imsglobal.org/spec/lti-ags/scope/score"
	ScopeContextMembershipReadonly = "https://purl.imsglobal.org/spec/lti-nrps/scope/contextmembership.readonly"
)
