package dto

// RecipientInput identifies one operator selected for issuance.
type RecipientInput struct {
	// UserID is the recipient identifier known to the CA.
	UserID string `json:"user_id"`

	// FullName is the recipient display name.
	FullName string `json:"full_name"`

	// Role is the recipient's role within the banking system.
	Role string `json:"role,omitempty"`
}

// BatchIssueRequest starts a credential issuance batch.
type BatchIssueRequest struct {
	// Recipients are processed strictly in the given order.
	Recipients []RecipientInput `json:"recipients"`

	// ValidityDays is the requested certificate validity (15-365,
	// defaulting to 60 if unset or out of range).
	ValidityDays int `json:"validity_days,omitempty"`

	// AutoGenerateMLKEM requests supplementary post-quantum
	// key-encapsulation material.
	AutoGenerateMLKEM bool `json:"auto_generate_mlkem,omitempty"`
}

// BundleInfo describes one emitted credential bundle.
type BundleInfo struct {
	// UserID is the recipient the bundle was issued for.
	UserID string `json:"user_id"`

	// Filename is the suggested download filename.
	Filename string `json:"filename"`

	// Entries lists the archive entry names.
	Entries []string `json:"entries"`

	// Archive is the ZIP archive, base64-encoded.
	Archive BinaryData `json:"archive"`
}

// FailureInfo describes why and where a batch stopped.
type FailureInfo struct {
	// UserID is the recipient whose pipeline failed.
	UserID string `json:"user_id"`

	// Reason is the failure reason.
	Reason string `json:"reason"`

	// NotAttempted lists recipients that were never attempted.
	NotAttempted []string `json:"not_attempted,omitempty"`
}

// BatchIssueResponse reports the outcome of a batch run. On failure it
// still carries the bundles emitted before the batch stopped.
type BatchIssueResponse struct {
	// RunID correlates this run with audit log events.
	RunID string `json:"run_id"`

	// Status is "completed" or "failed".
	Status string `json:"status"`

	// Total is the number of selected recipients.
	Total int `json:"total"`

	// Succeeded is the number of bundles emitted.
	Succeeded int `json:"succeeded"`

	// Bundles are the emitted bundles in selection order.
	Bundles []BundleInfo `json:"bundles"`

	// Failure is set when the batch stopped early.
	Failure *FailureInfo `json:"failure,omitempty"`
}
