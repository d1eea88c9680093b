package caclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func validRequest() *IssuanceRequest {
	return &IssuanceRequest{
		UserID:           "op-001",
		FullName:         "Alice Smith",
		DeviceSecret:     "c2VjcmV0",
		RSAPublicKeySPKI: "c3BraQ==",
		ValidityDays:     60,
		Role:             "auditor",
	}
}

func TestClient_Issue_Success(t *testing.T) {
	var received IssuanceRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/certificates/issue" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type: %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(IssuanceResult{
			CertificatePEM:     "-----BEGIN CERTIFICATE-----\nabc\n-----END CERTIFICATE-----\n",
			MLKEMPrivateKeyB64: "a2Vt",
			CertificatePath:    "certs/op-001.pem",
		})
	}))
	defer srv.Close()

	client := New(srv.URL)
	result, err := client.Issue(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if received.UserID != "op-001" {
		t.Errorf("user_id not forwarded: %q", received.UserID)
	}
	if received.ValidityDays != 60 {
		t.Errorf("validity_days = %d, want 60", received.ValidityDays)
	}
	if result.CertificatePEM == "" {
		t.Error("certificate missing from result")
	}
	if result.MLKEMPrivateKeyB64 != "a2Vt" {
		t.Errorf("unexpected ML-KEM material: %q", result.MLKEMPrivateKeyB64)
	}
	if result.CertificatePath != "certs/op-001.pem" {
		t.Errorf("unexpected certificate path: %q", result.CertificatePath)
	}
}

func TestClient_Issue_NormalizesValidity(t *testing.T) {
	tests := []struct {
		name string
		in   int
		want int
	}{
		{"unset", 0, DefaultValidityDays},
		{"below minimum", 14, DefaultValidityDays},
		{"minimum", 15, 15},
		{"maximum", 365, 365},
		{"above maximum", 366, DefaultValidityDays},
		{"negative", -5, DefaultValidityDays},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var received IssuanceRequest
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewDecoder(r.Body).Decode(&received)
				_ = json.NewEncoder(w).Encode(IssuanceResult{CertificatePEM: "CERT"})
			}))
			defer srv.Close()

			req := validRequest()
			req.ValidityDays = tt.in
			if _, err := New(srv.URL).Issue(context.Background(), req); err != nil {
				t.Fatalf("Issue failed: %v", err)
			}
			if received.ValidityDays != tt.want {
				t.Errorf("validity_days = %d, want %d", received.ValidityDays, tt.want)
			}
			// The caller's request must not be mutated.
			if req.ValidityDays != tt.in {
				t.Errorf("caller request mutated: %d", req.ValidityDays)
			}
		})
	}
}

func TestClient_Issue_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"code":    "POLICY_VIOLATION",
			"message": "role not entitled to privileged credentials",
		})
	}))
	defer srv.Close()

	_, err := New(srv.URL).Issue(context.Background(), validRequest())
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrIssuanceRejected) {
		t.Errorf("expected ErrIssuanceRejected, got %v", err)
	}
}

func TestClient_Issue_RejectedPlainBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Issue(context.Background(), validRequest())
	if !errors.Is(err, ErrIssuanceRejected) {
		t.Errorf("expected ErrIssuanceRejected, got %v", err)
	}
}

func TestClient_Issue_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	_, err := New(srv.URL).Issue(context.Background(), validRequest())
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrIssuanceUnreachable) {
		t.Errorf("expected ErrIssuanceUnreachable, got %v", err)
	}
}

func TestClient_Issue_MissingCertificate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(IssuanceResult{})
	}))
	defer srv.Close()

	_, err := New(srv.URL).Issue(context.Background(), validRequest())
	if !errors.Is(err, ErrIssuanceRejected) {
		t.Errorf("expected ErrIssuanceRejected for empty certificate, got %v", err)
	}
}

func TestClient_Issue_ValidatesLocally(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	req := validRequest()
	req.UserID = ""
	_, err := New(srv.URL).Issue(context.Background(), req)
	if !errors.Is(err, ErrIssuanceRejected) {
		t.Errorf("expected ErrIssuanceRejected, got %v", err)
	}
	if called {
		t.Error("CA must not be contacted for locally invalid requests")
	}
}
