package handler

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/opencorebank/pki-console/internal/api/dto"
	apierrors "github.com/opencorebank/pki-console/internal/api/errors"
	"github.com/opencorebank/pki-console/internal/audit"
	"github.com/opencorebank/pki-console/internal/issuance"
)

// Handler holds the dependencies for the API handlers.
type Handler struct {
	issuer       issuance.CertificateIssuer
	audit        audit.Writer
	version      string
	validityDays int
	mlkemDefault bool
}

// New creates a Handler backed by the given CA issuer and audit writer.
func New(issuer issuance.CertificateIssuer, auditWriter audit.Writer, version string, validityDays int, mlkemDefault bool) *Handler {
	if auditWriter == nil {
		auditWriter = &audit.NopWriter{}
	}
	return &Handler{
		issuer:       issuer,
		audit:        auditWriter,
		version:      version,
		validityDays: validityDays,
		mlkemDefault: mlkemDefault,
	}
}

// BatchIssue handles POST /api/v1/issuance/batch. It runs the batch
// synchronously and returns the emitted bundles inline, including the
// partial set when the batch stops early.
func (h *Handler) BatchIssue(w http.ResponseWriter, r *http.Request) {
	var req dto.BatchIssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, &dto.APIError{
			Code:    apierrors.CodeBadRequest,
			Message: "invalid request body: " + err.Error(),
		})
		return
	}

	recipients := make([]issuance.Recipient, 0, len(req.Recipients))
	for _, in := range req.Recipients {
		recipients = append(recipients, issuance.Recipient{
			ID:          in.UserID,
			DisplayName: in.FullName,
			Role:        in.Role,
		})
	}

	validity := req.ValidityDays
	if validity == 0 {
		validity = h.validityDays
	}
	mlkem := req.AutoGenerateMLKEM || h.mlkemDefault

	sink := &issuance.MemorySink{}
	orch := issuance.New(h.issuer, sink, issuance.Options{
		ValidityDays: validity,
		IncludeMLKEM: mlkem,
		Audit:        h.audit,
	})

	outcome, runErr := orch.Run(r.Context(), recipients)
	if outcome == nil {
		status, apiErr := apierrors.MapError(runErr)
		respondError(w, status, apiErr)
		return
	}

	resp := outcomeToResponse(outcome, recipients)
	respondJSON(w, http.StatusOK, resp)
}

func outcomeToResponse(outcome *issuance.BatchOutcome, recipients []issuance.Recipient) *dto.BatchIssueResponse {
	resp := &dto.BatchIssueResponse{
		RunID:     outcome.RunID,
		Status:    string(outcome.State),
		Total:     len(recipients),
		Succeeded: outcome.Succeeded,
		Bundles:   make([]dto.BundleInfo, 0, len(outcome.Bundles)),
	}

	for i, b := range outcome.Bundles {
		info := dto.BundleInfo{
			Filename: b.Filename(),
			Entries:  b.EntryNames(),
			Archive: dto.BinaryData{
				Data:     base64.StdEncoding.EncodeToString(b.Bytes()),
				Encoding: "base64",
			},
		}
		if i < len(recipients) {
			info.UserID = recipients[i].ID
		}
		resp.Bundles = append(resp.Bundles, info)
	}

	if outcome.FailedRecipient != nil {
		failure := &dto.FailureInfo{
			UserID: outcome.FailedRecipient.ID,
		}
		if outcome.Err != nil {
			failure.Reason = outcome.Err.Error()
		}
		for _, r := range outcome.Remaining {
			failure.NotAttempted = append(failure.NotAttempted, r.ID)
		}
		resp.Failure = failure
	}
	return resp
}
