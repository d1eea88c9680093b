package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/opencorebank/pki-console/internal/audit"
	"github.com/opencorebank/pki-console/internal/caclient"
	"github.com/opencorebank/pki-console/internal/config"
	"github.com/opencorebank/pki-console/internal/issuance"
)

var issueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue credential bundles for a batch of recipients",
	Long: `Issue credential bundles for the recipients listed in a YAML file.

Recipients are processed strictly in file order. The first failure stops
the batch; bundles already written to the output directory are kept.

The recipients file is a YAML list:
  - user_id: op-001
    full_name: Alice Smith
    role: treasury_admin
  - user_id: op-002
    full_name: Bob Jones
    role: auditor

Examples:
  # Issue with defaults (60-day validity, no post-quantum material)
  bankpki issue --ca-url https://ca.internal.bank:8443 --recipients ops.yaml

  # Custom validity and ML-KEM material, bundles under ./out
  bankpki issue --recipients ops.yaml --validity-days 90 --mlkem --out ./out

  # With a tamper-evident audit trail
  bankpki issue --recipients ops.yaml --audit-log /var/log/bankpki/audit.jsonl`,
	RunE: runIssue,
}

var (
	issueCAURL        string
	issueRecipients   string
	issueValidityDays int
	issueMLKEM        bool
	issueOutDir       string
	issueAuditLog     string
)

func init() {
	flags := issueCmd.Flags()
	flags.StringVar(&issueCAURL, "ca-url", "", "Base URL of the CA service")
	flags.StringVarP(&issueRecipients, "recipients", "r", "", "YAML file listing recipients (required)")
	_ = issueCmd.MarkFlagRequired("recipients")
	flags.IntVar(&issueValidityDays, "validity-days", 0, "Requested certificate validity in days (15-365, default 60)")
	flags.BoolVar(&issueMLKEM, "mlkem", false, "Request supplementary ML-KEM key material")
	flags.StringVarP(&issueOutDir, "out", "o", "", "Output directory for credential archives")
	flags.StringVar(&issueAuditLog, "audit-log", "", "Path to audit log file (or set BANKPKI_AUDIT_LOG)")
}

func runIssue(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfigWithFlags(cmd)
	if err != nil {
		return err
	}
	if cfg.CAURL == "" {
		return fmt.Errorf("CA URL is required (--ca-url, config file, or BANKPKI_CA_URL)")
	}

	recipients, err := loadRecipients(issueRecipients)
	if err != nil {
		return err
	}

	auditWriter, closeAudit, err := openAuditWriter(cfg.AuditLog)
	if err != nil {
		return err
	}
	defer closeAudit()

	client := caclient.New(cfg.CAURL, caclient.WithTimeout(cfg.CATimeout))
	sink := issuance.NewDirSink(cfg.OutputDir)

	orch := issuance.New(client, sink, issuance.Options{
		ValidityDays: cfg.ValidityDays,
		IncludeMLKEM: cfg.AutoGenerateMLKEM,
		Audit:        auditWriter,
		Progress: func(index, total int, r issuance.Recipient) {
			fmt.Printf("[%d/%d] issuing for %s (%s)...\n", index+1, total, r.DisplayName, r.ID)
		},
	})

	start := time.Now()
	outcome, runErr := orch.Run(cmd.Context(), recipients)
	if outcome == nil {
		return runErr
	}

	printOutcome(outcome, sink.Dir(), time.Since(start))
	return runErr
}

// loadConfigWithFlags loads the config file and applies command-line
// flag overrides on top of it.
func loadConfigWithFlags(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if issueCAURL != "" {
		cfg.CAURL = issueCAURL
	}
	if cmd.Flags().Changed("validity-days") {
		cfg.ValidityDays = issueValidityDays
	}
	if issueMLKEM {
		cfg.AutoGenerateMLKEM = true
	}
	if issueOutDir != "" {
		cfg.OutputDir = issueOutDir
	}
	if issueAuditLog != "" {
		cfg.AuditLog = issueAuditLog
	}
	return cfg, nil
}

// openAuditWriter opens the file-backed audit writer when a path is
// configured, and a no-op writer otherwise.
func openAuditWriter(path string) (audit.Writer, func(), error) {
	if path == "" {
		return audit.NopWriter{}, func() {}, nil
	}
	fw, err := audit.NewFileWriter(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	return fw, func() { _ = fw.Close() }, nil
}
