// Package caclient implements the HTTP client for the external CA
// issuance endpoint. It performs a single request per call; retry
// policy, if any, belongs to the caller.
package caclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Validity bounds enforced before a request reaches the CA. Values
// outside the bounds fall back to the default.
const (
	MinValidityDays     = 15
	MaxValidityDays     = 365
	DefaultValidityDays = 60
)

const (
	issuePath      = "/api/v1/certificates/issue"
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 64 * 1024
)

var (
	// ErrIssuanceRejected indicates the CA received the request and
	// declined it (validation failure or policy violation).
	ErrIssuanceRejected = errors.New("certificate authority rejected the request")

	// ErrIssuanceUnreachable indicates the CA could not be reached
	// (network failure or timeout).
	ErrIssuanceUnreachable = errors.New("certificate authority unreachable")
)

// IssuanceRequest is the wire request for the CA issuance endpoint.
// Field names are a contract with the CA service.
type IssuanceRequest struct {
	// UserID is the recipient identifier.
	UserID string `json:"user_id"`

	// FullName is the recipient display name.
	FullName string `json:"full_name"`

	// DeviceSecret is the base64-encoded device-binding secret.
	DeviceSecret string `json:"device_secret"`

	// RSAPublicKeySPKI is the base64-encoded DER SubjectPublicKeyInfo.
	RSAPublicKeySPKI string `json:"rsa_public_key_spki"`

	// ValidityDays is the requested certificate validity (15-365).
	ValidityDays int `json:"validity_days"`

	// AutoGenerateMLKEM requests supplementary post-quantum
	// key-encapsulation material.
	AutoGenerateMLKEM bool `json:"auto_generate_mlkem"`

	// Role is the recipient's role within the banking system.
	Role string `json:"role"`
}

// Validate checks the fields the client can verify locally.
func (r *IssuanceRequest) Validate() error {
	if r.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	if r.RSAPublicKeySPKI == "" {
		return fmt.Errorf("rsa_public_key_spki is required")
	}
	if r.DeviceSecret == "" {
		return fmt.Errorf("device_secret is required")
	}
	return nil
}

// IssuanceResult is the wire response from the CA issuance endpoint.
// It is treated as opaque apart from inclusion in the credential bundle.
type IssuanceResult struct {
	// CertificatePEM is the issued certificate.
	CertificatePEM string `json:"certificate_pem"`

	// MLKEMPrivateKeyB64 is the supplementary key-encapsulation
	// material, present only when requested.
	MLKEMPrivateKeyB64 string `json:"ml_kem_private_key_b64,omitempty"`

	// CertificatePath is a CA-side reference for later retrieval.
	CertificatePath string `json:"certificate_path,omitempty"`
}

// apiError mirrors the CA's error response body.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NormalizeValidityDays clamps the requested validity to the CA contract:
// values outside [MinValidityDays, MaxValidityDays] become the default.
func NormalizeValidityDays(days int) int {
	if days < MinValidityDays || days > MaxValidityDays {
		return DefaultValidityDays
	}
	return days
}

// Client talks to one CA issuance endpoint.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) { c.httpc = httpc }
}

// WithTimeout sets the request timeout on the underlying HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpc.Timeout = d }
}

// New creates a Client for the CA service at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Issue sends an issuance request to the CA and returns the issued
// certificate plus any supplementary key material. The validity period
// is normalized before sending. Issue never retries.
func (c *Client) Issue(ctx context.Context, req *IssuanceRequest) (*IssuanceResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIssuanceRejected, err)
	}

	wire := *req
	wire.ValidityDays = NormalizeValidityDays(req.ValidityDays)

	body, err := json.Marshal(&wire)
	if err != nil {
		return nil, fmt.Errorf("failed to encode issuance request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+issuePath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build issuance request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIssuanceUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, c.rejectionError(resp)
	}

	var result IssuanceResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", ErrIssuanceRejected, err)
	}
	if result.CertificatePEM == "" {
		return nil, fmt.Errorf("%w: response missing certificate_pem", ErrIssuanceRejected)
	}
	return &result, nil
}

// rejectionError turns a non-2xx CA response into an ErrIssuanceRejected
// carrying the CA's own error message when one is available.
func (c *Client) rejectionError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var apiErr apiError
	if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Message != "" {
		if apiErr.Code != "" {
			return fmt.Errorf("%w: %s (%s)", ErrIssuanceRejected, apiErr.Message, apiErr.Code)
		}
		return fmt.Errorf("%w: %s", ErrIssuanceRejected, apiErr.Message)
	}
	return fmt.Errorf("%w: HTTP %d", ErrIssuanceRejected, resp.StatusCode)
}
