// Package issuance orchestrates privileged credential bundle issuance
// across a batch of selected recipients.
//
// Recipients are processed strictly sequentially: key generation, the CA
// request, and bundle assembly for one recipient all complete before the
// next recipient starts. The first failure halts the batch; bundles
// already emitted are retained and reported as partial success.
package issuance

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/opencorebank/pki-console/internal/audit"
	"github.com/opencorebank/pki-console/internal/bundle"
	"github.com/opencorebank/pki-console/internal/caclient"
	"github.com/opencorebank/pki-console/internal/keys"
)

// ErrEmptySelection indicates a batch was started with no recipients.
// It is rejected before any key generation or CA traffic happens.
var ErrEmptySelection = errors.New("no recipients selected")

// State is the lifecycle state of a batch run.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Recipient identifies one operator selected for credential issuance.
type Recipient struct {
	// ID is the recipient identifier known to the CA.
	ID string

	// DisplayName is the human-readable name; it also seeds the
	// sanitized archive entry labels.
	DisplayName string

	// Role is the recipient's role within the banking system.
	Role string
}

// CertificateIssuer abstracts the CA request client.
type CertificateIssuer interface {
	Issue(ctx context.Context, req *caclient.IssuanceRequest) (*caclient.IssuanceResult, error)
}

// Sink receives each assembled bundle immediately after its issuance
// succeeds, before the next recipient is attempted.
type Sink interface {
	Emit(b *bundle.Bundle) error
}

// KeyPairSource produces a fresh signing key pair for one recipient.
type KeyPairSource func() (*keys.KeyPair, error)

// SecretSource produces a device-binding secret.
type SecretSource func() (string, error)

// Progress is invoked before each recipient's pipeline starts. It exists
// for UI feedback only and is not part of the correctness contract.
type Progress func(index, total int, r Recipient)

// Options configures an Orchestrator.
type Options struct {
	// ValidityDays is the requested certificate validity. Out-of-range
	// values fall back to the CA contract default.
	ValidityDays int

	// IncludeMLKEM requests supplementary post-quantum
	// key-encapsulation material from the CA.
	IncludeMLKEM bool

	// Audit receives batch lifecycle events. Defaults to a no-op writer.
	Audit audit.Writer

	// Progress observes per-recipient progress. Optional.
	Progress Progress

	// KeyPairs overrides the key pair source. Defaults to
	// keys.GenerateKeyPair.
	KeyPairs KeyPairSource

	// Secrets overrides the device secret source. Defaults to
	// keys.GenerateDeviceSecret.
	Secrets SecretSource
}

// Orchestrator runs issuance batches against one CA.
type Orchestrator struct {
	issuer CertificateIssuer
	sink   Sink
	opts   Options
	state  State
}

// BatchOutcome reports the result of a batch run. It is populated even
// when the run fails: Bundles holds everything emitted before the
// failure, and Remaining lists the recipients never attempted.
type BatchOutcome struct {
	// RunID correlates audit events and API responses for this run.
	RunID string

	// State is StateCompleted or StateFailed.
	State State

	// Bundles are the successfully emitted bundles, in selection order.
	Bundles []*bundle.Bundle

	// Succeeded is the number of bundles emitted.
	Succeeded int

	// FailedRecipient is the recipient whose pipeline failed, if any.
	FailedRecipient *Recipient

	// Err is the failure reason, if any.
	Err error

	// Remaining lists recipients that were never attempted.
	Remaining []Recipient
}

// New creates an Orchestrator. The issuer and sink are required.
func New(issuer CertificateIssuer, sink Sink, opts Options) *Orchestrator {
	if opts.Audit == nil {
		opts.Audit = audit.NopWriter{}
	}
	if opts.KeyPairs == nil {
		opts.KeyPairs = keys.GenerateKeyPair
	}
	if opts.Secrets == nil {
		opts.Secrets = keys.GenerateDeviceSecret
	}
	return &Orchestrator{
		issuer: issuer,
		sink:   sink,
		opts:   opts,
		state:  StateIdle,
	}
}

// State returns the current batch state.
func (o *Orchestrator) State() State {
	return o.state
}

// Run processes the selected recipients strictly sequentially. The first
// error halts the batch: no further recipients are attempted, and
// bundles already emitted are retained in the returned outcome. The
// returned outcome is non-nil whenever work started; the error mirrors
// outcome.Err for callers that only care about success.
//
// There is no cancellation once a batch starts; ctx is passed through to
// the CA call for dial and timeout purposes only.
func (o *Orchestrator) Run(ctx context.Context, recipients []Recipient) (*BatchOutcome, error) {
	if len(recipients) == 0 {
		return nil, ErrEmptySelection
	}

	o.state = StateRunning
	outcome := &BatchOutcome{
		RunID: uuid.NewString(),
		State: StateRunning,
	}

	if err := o.auditBatchStarted(outcome.RunID, len(recipients)); err != nil {
		o.state = StateFailed
		return nil, err
	}

	for i, r := range recipients {
		if o.opts.Progress != nil {
			o.opts.Progress(i, len(recipients), r)
		}

		b, err := o.issueOne(ctx, r)
		if err != nil {
			o.state = StateFailed
			outcome.State = StateFailed
			failed := r
			outcome.FailedRecipient = &failed
			outcome.Err = err
			outcome.Remaining = append([]Recipient(nil), recipients[i+1:]...)
			_ = o.auditBatchFailed(outcome.RunID, r, outcome.Succeeded, err)
			return outcome, err
		}

		outcome.Bundles = append(outcome.Bundles, b)
		outcome.Succeeded++
		if err := o.auditBundleIssued(outcome.RunID, r, b); err != nil {
			o.state = StateFailed
			outcome.State = StateFailed
			failed := r
			outcome.FailedRecipient = &failed
			outcome.Err = err
			outcome.Remaining = append([]Recipient(nil), recipients[i+1:]...)
			return outcome, err
		}
	}

	o.state = StateCompleted
	outcome.State = StateCompleted
	if err := o.auditBatchCompleted(outcome.RunID, outcome.Succeeded); err != nil {
		return outcome, err
	}
	return outcome, nil
}

// issueOne runs the full pipeline for a single recipient: key pair,
// device secret, CA request, bundle assembly, emission.
func (o *Orchestrator) issueOne(ctx context.Context, r Recipient) (*bundle.Bundle, error) {
	kp, err := o.opts.KeyPairs()
	if err != nil {
		return nil, fmt.Errorf("recipient %s: %w", r.ID, err)
	}

	secret, err := o.opts.Secrets()
	if err != nil {
		return nil, fmt.Errorf("recipient %s: %w", r.ID, err)
	}

	req := &caclient.IssuanceRequest{
		UserID:            r.ID,
		FullName:          r.DisplayName,
		DeviceSecret:      secret,
		RSAPublicKeySPKI:  kp.PublicKeySPKI,
		ValidityDays:      o.opts.ValidityDays,
		AutoGenerateMLKEM: o.opts.IncludeMLKEM,
		Role:              r.Role,
	}

	result, err := o.issuer.Issue(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("recipient %s: %w", r.ID, err)
	}

	if result.MLKEMPrivateKeyB64 != "" {
		if err := keys.ValidateMLKEMPrivateKey(result.MLKEMPrivateKeyB64); err != nil {
			return nil, fmt.Errorf("recipient %s: %w", r.ID, err)
		}
	}

	b, err := bundle.Assemble(r.DisplayName, bundle.Artifacts{
		CertificatePEM:  result.CertificatePEM,
		PrivateKeyPEM:   kp.PrivateKeyPEM,
		MLKEMPrivateKey: result.MLKEMPrivateKeyB64,
		DeviceSecret:    secret,
	})
	if err != nil {
		return nil, fmt.Errorf("recipient %s: %w", r.ID, err)
	}

	if err := o.sink.Emit(b); err != nil {
		return nil, fmt.Errorf("recipient %s: failed to emit bundle: %w", r.ID, err)
	}
	return b, nil
}

func (o *Orchestrator) auditBatchStarted(runID string, total int) error {
	event := audit.NewEvent(audit.EventBatchStarted, audit.ResultSuccess).
		WithObject(audit.Object{Type: "batch"}).
		WithContext(audit.Context{
			RunID:        runID,
			Recipients:   total,
			ValidityDays: o.opts.ValidityDays,
			MLKEM:        o.opts.IncludeMLKEM,
		})
	if err := o.opts.Audit.Write(event); err != nil {
		return fmt.Errorf("audit write failed: %w", err)
	}
	return nil
}

func (o *Orchestrator) auditBundleIssued(runID string, r Recipient, b *bundle.Bundle) error {
	event := audit.NewEvent(audit.EventBundleIssued, audit.ResultSuccess).
		WithObject(audit.Object{Type: "bundle", Recipient: r.ID, Bundle: b.Filename()}).
		WithContext(audit.Context{
			RunID:        runID,
			Role:         r.Role,
			ValidityDays: o.opts.ValidityDays,
			MLKEM:        o.opts.IncludeMLKEM,
		})
	if err := o.opts.Audit.Write(event); err != nil {
		return fmt.Errorf("audit write failed: %w", err)
	}
	return nil
}

func (o *Orchestrator) auditBatchFailed(runID string, r Recipient, succeeded int, cause error) error {
	event := audit.NewEvent(audit.EventBatchFailed, audit.ResultFailure).
		WithObject(audit.Object{Type: "batch", Recipient: r.ID}).
		WithContext(audit.Context{
			RunID:     runID,
			Succeeded: succeeded,
			Reason:    cause.Error(),
		})
	return o.opts.Audit.Write(event)
}

func (o *Orchestrator) auditBatchCompleted(runID string, succeeded int) error {
	event := audit.NewEvent(audit.EventBatchCompleted, audit.ResultSuccess).
		WithObject(audit.Object{Type: "batch"}).
		WithContext(audit.Context{
			RunID:     runID,
			Succeeded: succeeded,
		})
	if err := o.opts.Audit.Write(event); err != nil {
		return fmt.Errorf("audit write failed: %w", err)
	}
	return nil
}
