package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	jose "github.com/go-jose/go-jose/v3"

	"ltitool/clients"
)

// IMS media types for the LTI Advantage service endpoints.
const (
	mediaTypeLineItemContainer   = "application/vnd.ims.lis.v2.lineitemcontainer+json"
	mediaTypeLineItem            = "application/vnd.ims.lis.v2.lineitem+json"
	mediaTypeScore               = "application/vnd.ims.lis.v1.score+json"
	mediaTypeResultContainer     = "application/vnd.ims.lis.v2.resultcontainer+json"
	mediaTypeMembershipContainer = "application/vnd.ims.lti-nrps.v2.membershipcontainer+json"
)

// PlatformHTTPClient implements the clients.PlatformClient interface
type PlatformHTTPClient struct {
	httpClient *http.Client
}

func NewPlatformHTTPClient() *PlatformHTTPClient {
	return &PlatformHTTPClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *PlatformHTTPClient) FetchOpenIDConfiguration(
	ctx context.Context,
	configURL string,
) (*clients.OpenIDConfiguration, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", configURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch OpenID configuration: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("OpenID configuration fetch failed: status %d, body: %s", resp.StatusCode, string(body))
	}

	var config clients.OpenIDConfiguration
	if err := json.NewDecoder(resp.Body).Decode(&config); err != nil {
		return nil, fmt.Errorf("failed to decode OpenID configuration: %w", err)
	}

	if config.Issuer == "" {
		return nil, fmt.Errorf("OpenID configuration has no issuer")
	}

	return &config, nil
}

func (c *PlatformHTTPClient) RegisterClient(
	ctx context.Context,
	registrationEndpoint, registrationToken string,
	registration *clients.ClientRegistrationRequest,
) (*clients.ClientRegistrationResponse, error) {
	body, err := json.Marshal(registration)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal registration request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", registrationEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if registrationToken != "" {
		req.Header.Set("Authorization", "Bearer "+registrationToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to register client: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("client registration failed: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	var registrationResp clients.ClientRegistrationResponse
	if err := json.NewDecoder(resp.Body).Decode(&registrationResp); err != nil {
		return nil, fmt.Errorf("failed to decode registration response: %w", err)
	}

	if registrationResp.ClientID == "" {
		return nil, fmt.Errorf("no client_id in registration response")
	}

	return &registrationResp, nil
}

func (c *PlatformHTTPClient) FetchKeySet(ctx context.Context, keySetURL string) (*jose.JSONWebKeySet, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", keySetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch platform key set: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("platform key set fetch failed: status %d, body: %s", resp.StatusCode, string(body))
	}

	var keySet jose.JSONWebKeySet
	if err := json.NewDecoder(resp.Body).Decode(&keySet); err != nil {
		return nil, fmt.Errorf("failed to decode platform key set: %w", err)
	}

	return &keySet, nil
}

func (c *PlatformHTTPClient) RequestAccessToken(
	ctx context.Context,
	tokenURL, clientAssertion string,
	scopes []string,
) (*clients.AccessToken, error) {
	form := url.Values{
		"grant_type":            {"client_credentials"},
		"client_assertion_type": {"urn:ietf:params:oauth:client-assertion-type:jwt-bearer"},
		"client_assertion":      {clientAssertion},
		"scope":                 {strings.Join(scopes, " ")},
	}

	req, err := http.NewRequestWithContext(ctx, "POST", tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to request access token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("access token request failed: status %d, body: %s", resp.StatusCode, string(body))
	}

	var token clients.AccessToken
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, fmt.Errorf("failed to decode access token response: %w", err)
	}

	if token.AccessToken == "" {
		return nil, fmt.Errorf("no access token in response")
	}

	return &token, nil
}

func (c *PlatformHTTPClient) GetLineItems(
	ctx context.Context,
	accessToken, lineItemsURL, tag string,
) ([]*clients.LineItem, error) {
	requestURL := lineItemsURL
	if tag != "" {
		parsed, err := url.Parse(lineItemsURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse line items URL: %w", err)
		}
		query := parsed.Query()
		query.Set("tag", tag)
		parsed.RawQuery = query.Encode()
		requestURL = parsed.String()
	}

	req, err := http.NewRequestWithContext(ctx, "GET", requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", mediaTypeLineItemContainer)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get line items: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("line items request failed: status %d, body: %s", resp.StatusCode, string(body))
	}

	var lineItems []*clients.LineItem
	if err := json.NewDecoder(resp.Body).Decode(&lineItems); err != nil {
		return nil, fmt.Errorf("failed to decode line items: %w", err)
	}

	return lineItems, nil
}

func (c *PlatformHTTPClient) CreateLineItem(
	ctx context.Context,
	accessToken, lineItemsURL string,
	item *clients.LineItem,
) (*clients.LineItem, error) {
	body, err := json.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal line item: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", lineItemsURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", mediaTypeLineItem)
	req.Header.Set("Accept", mediaTypeLineItem)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to create line item: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("line item creation failed: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	var created clients.LineItem
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("failed to decode created line item: %w", err)
	}

	return &created, nil
}

func (c *PlatformHTTPClient) PostScore(
	ctx context.Context,
	accessToken, lineItemURL string,
	score *clients.Score,
) error {
	scoresURL, err := appendServicePath(lineItemURL, "scores")
	if err != nil {
		return err
	}

	body, err := json.Marshal(score)
	if err != nil {
		return fmt.Errorf("failed to marshal score: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", scoresURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", mediaTypeScore)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post score: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("score publish failed: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

func (c *PlatformHTTPClient) GetResults(
	ctx context.Context,
	accessToken, lineItemURL string,
) ([]*clients.Result, error) {
	resultsURL, err := appendServicePath(lineItemURL, "results")
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "GET", resultsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", mediaTypeResultContainer)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get results: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("results request failed: status %d, body: %s", resp.StatusCode, string(body))
	}

	var results []*clients.Result
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("failed to decode results: %w", err)
	}

	return results, nil
}

// membershipContainer is the NRPS response envelope.
type membershipContainer struct {
	ID      string            `json:"id"`
	Members []*clients.Member `json:"members"`
}

func (c *PlatformHTTPClient) GetMemberships(
	ctx context.Context,
	accessToken, membershipsURL string,
) ([]*clients.Member, error) {
	var members []*clients.Member

	// Follow Link rel="next" headers until the platform stops paginating
	nextURL := membershipsURL
	for nextURL != "" {
		req, err := http.NewRequestWithContext(ctx, "GET", nextURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+accessToken)
		req.Header.Set("Accept", mediaTypeMembershipContainer)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to get memberships: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return nil, fmt.Errorf("memberships request failed: status %d, body: %s", resp.StatusCode, string(body))
		}

		var container membershipContainer
		if err := json.NewDecoder(resp.Body).Decode(&container); err != nil {
			resp.Body.Close()
			return nil, fmt.Errorf("failed to decode membership container: %w", err)
		}
		resp.Body.Close()

		members = append(members, container.Members...)
		nextURL = nextLinkURL(resp.Header.Get("Link"))
	}

	return members, nil
}

// nextLinkURL extracts the rel="next" URL from a Link header, or "" when the
// header carries none.
func nextLinkURL(linkHeader string) string {
	for _, link := range strings.Split(linkHeader, ",") {
		parts := strings.Split(strings.TrimSpace(link), ";")
		if len(parts) < 2 {
			continue
		}
		target := strings.Trim(strings.TrimSpace(parts[0]), "<>")
		for _, param := range parts[1:] {
			if strings.EqualFold(strings.TrimSpace(param), `rel="next"`) {
				return target
			}
		}
	}
	return ""
}

// appendServicePath appends a path segment to a service URL, keeping any
// query string the platform included (Moodle puts type hints there).
func appendServicePath(rawURL, segment string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse service URL: %w", err)
	}
	parsed.Path = strings.TrimSuffix(parsed.Path, "/") + "/" + segment
	return parsed.String(), nil
}
