package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.ValidityDays != 60 {
		t.Errorf("expected default validity of 60 days, got %d", cfg.ValidityDays)
	}
	if cfg.Port != 8444 {
		t.Errorf("unexpected default port: %d", cfg.Port)
	}
	if cfg.CATimeout != 30*time.Second {
		t.Errorf("unexpected default CA timeout: %s", cfg.CATimeout)
	}
}

func TestLoad_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
ca_url: https://ca.internal.bank:8443
validity_days: 90
auto_generate_mlkem: true
output_dir: /var/lib/bankpki/bundles
audit_log: /var/log/bankpki/audit.jsonl
port: 9000
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.CAURL != "https://ca.internal.bank:8443" {
		t.Errorf("ca_url = %s", cfg.CAURL)
	}
	if cfg.ValidityDays != 90 {
		t.Errorf("validity_days = %d", cfg.ValidityDays)
	}
	if !cfg.AutoGenerateMLKEM {
		t.Error("auto_generate_mlkem should be true")
	}
	if cfg.Port != 9000 {
		t.Errorf("port = %d", cfg.Port)
	}
	if cfg.Address() != ":9000" {
		t.Errorf("address = %s", cfg.Address())
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("BANKPKI_CA_URL", "https://ca.example.com")
	t.Setenv("BANKPKI_VALIDITY_DAYS", "120")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.CAURL != "https://ca.example.com" {
		t.Errorf("env override not applied: %s", cfg.CAURL)
	}
	if cfg.ValidityDays != 120 {
		t.Errorf("env override not applied: %d", cfg.ValidityDays)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Port = 70000
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for out-of-range port")
	}

	cfg = Default()
	cfg.CATimeout = -time.Second
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for negative timeout")
	}
}
