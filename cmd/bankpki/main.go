// Command bankpki is the admin console CLI for privileged credential
// bundle issuance.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Build-time variables (injected by GoReleaser)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Global flags
var configFile string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "bankpki",
	Short: "Admin console for CA-backed credential bundle issuance",
	Long: `bankpki is the operator console for issuing privileged credential
bundles against the bank's certificate authority.

For each selected recipient it generates a fresh RSA-3072 key pair and a
device-binding secret, requests a certificate from the CA, and packages
everything into a single ZIP credential bundle. Batches run strictly
sequentially and halt on the first failure; bundles already written are
kept.

Examples:
  # Issue bundles for the recipients listed in a YAML file
  bankpki issue --ca-url https://ca.internal.bank:8443 --recipients ops.yaml --out ./bundles

  # Request post-quantum key material alongside the certificate
  bankpki issue --recipients ops.yaml --mlkem --validity-days 90

  # Start the REST API server
  bankpki serve --port 8444

  # Verify the audit log hash chain
  bankpki audit verify --log /var/log/bankpki/audit.jsonl`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"Path to YAML config file (env vars with BANKPKI_ prefix override it)")

	rootCmd.AddCommand(issueCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(auditCmd)
}
