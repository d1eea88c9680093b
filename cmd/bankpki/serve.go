package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/opencorebank/pki-console/internal/api/handler"
	"github.com/opencorebank/pki-console/internal/api/router"
	"github.com/opencorebank/pki-console/internal/api/server"
	"github.com/opencorebank/pki-console/internal/caclient"
	"github.com/opencorebank/pki-console/internal/config"
)

var (
	serveHost     string
	servePort     int
	serveCAURL    string
	serveAuditLog string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the issuance REST API server",
	Long: `Start the REST API server for browser-based console clients.

Endpoints:
  GET  /health                  Liveness probe
  GET  /ready                   Readiness probe
  POST /api/v1/issuance/batch   Run an issuance batch

Batch requests run synchronously; the response carries the emitted
credential archives inline, base64-encoded.

Examples:
  # Start with a config file
  bankpki serve --config /etc/bankpki/config.yaml

  # Override the bind address
  bankpki serve --port 9444 --ca-url https://ca.internal.bank:8443`,
	RunE: runServe,
}

func init() {
	flags := serveCmd.Flags()
	flags.StringVar(&serveHost, "host", "", "Host to bind to (default: all interfaces)")
	flags.IntVar(&servePort, "port", 0, "Port to listen on")
	flags.StringVar(&serveCAURL, "ca-url", "", "Base URL of the CA service")
	flags.StringVar(&serveAuditLog, "audit-log", "", "Path to audit log file")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if serveHost != "" {
		cfg.Host = serveHost
	}
	if servePort != 0 {
		cfg.Port = servePort
	}
	if serveCAURL != "" {
		cfg.CAURL = serveCAURL
	}
	if serveAuditLog != "" {
		cfg.AuditLog = serveAuditLog
	}
	if cfg.CAURL == "" {
		return fmt.Errorf("CA URL is required (--ca-url, config file, or BANKPKI_CA_URL)")
	}

	auditWriter, closeAudit, err := openAuditWriter(cfg.AuditLog)
	if err != nil {
		return err
	}
	defer closeAudit()

	client := caclient.New(cfg.CAURL, caclient.WithTimeout(cfg.CATimeout))
	h := handler.New(client, auditWriter, version, cfg.ValidityDays, cfg.AutoGenerateMLKEM)

	srvCfg := server.DefaultConfig()
	srvCfg.Address = cfg.Address()
	srv := server.New(srvCfg, router.New(h))

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Starting issuance API on %s (CA: %s)\n", srv.Address(), cfg.CAURL)
	return srv.Start(ctx)
}
