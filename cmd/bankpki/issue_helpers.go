package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/opencorebank/pki-console/internal/cli"
	"github.com/opencorebank/pki-console/internal/issuance"
)

// recipientEntry is one entry of the recipients YAML file.
type recipientEntry struct {
	UserID   string `yaml:"user_id"`
	FullName string `yaml:"full_name"`
	Role     string `yaml:"role"`
}

// loadRecipients parses a recipients YAML file into selection order.
func loadRecipients(path string) ([]issuance.Recipient, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read recipients file: %w", err)
	}

	var entries []recipientEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse recipients file: %w", err)
	}

	recipients := make([]issuance.Recipient, 0, len(entries))
	for i, e := range entries {
		if e.UserID == "" {
			return nil, fmt.Errorf("recipient %d: user_id is required", i+1)
		}
		if e.FullName == "" {
			return nil, fmt.Errorf("recipient %d (%s): full_name is required", i+1, e.UserID)
		}
		recipients = append(recipients, issuance.Recipient{
			ID:          e.UserID,
			DisplayName: e.FullName,
			Role:        e.Role,
		})
	}
	return recipients, nil
}

// printOutcome prints a human-readable batch summary.
func printOutcome(outcome *issuance.BatchOutcome, outDir string, elapsed time.Duration) {
	fmt.Println()
	fmt.Printf("Batch %s: %s\n", outcome.RunID, cli.FormatStatus(string(outcome.State)))
	fmt.Printf("  Bundles written: %d (%s)\n", outcome.Succeeded, outDir)
	for _, b := range outcome.Bundles {
		fmt.Printf("    %s✓%s %s\n", cli.ColorGreen, cli.ColorReset, b.Filename())
	}
	if outcome.FailedRecipient != nil {
		fmt.Printf("  %s✗%s failed at %s: %v\n", cli.ColorRed, cli.ColorReset,
			outcome.FailedRecipient.ID, outcome.Err)
		if len(outcome.Remaining) > 0 {
			fmt.Printf("  Not attempted: %d recipient(s)\n", len(outcome.Remaining))
		}
	}
	fmt.Printf("  Elapsed: %s\n", elapsed.Round(time.Millisecond))
}
