package handler_test

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/opencorebank/pki-console/internal/api/dto"
	"github.com/opencorebank/pki-console/internal/api/handler"
	"github.com/opencorebank/pki-console/internal/api/router"
	"github.com/opencorebank/pki-console/internal/caclient"
)

// newFakeCA returns a CA stub that issues a certificate for every
// request until failAfter requests have been served, then rejects.
func newFakeCA(t *testing.T, failAfter int) *httptest.Server {
	t.Helper()
	served := 0
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req caclient.IssuanceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("fake CA received malformed request: %v", err)
		}
		served++
		if failAfter > 0 && served > failAfter {
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(map[string]string{
				"code":    "ROLE_DENIED",
				"message": "role not entitled to certificates",
			})
			return
		}
		json.NewEncoder(w).Encode(caclient.IssuanceResult{
			CertificatePEM:  fmt.Sprintf("-----BEGIN CERTIFICATE-----\ncert-for-%s\n-----END CERTIFICATE-----\n", req.UserID),
			CertificatePath: "/var/lib/ca/certs/" + req.UserID + ".pem",
		})
	}))
}

func newTestAPI(t *testing.T, caURL string) http.Handler {
	t.Helper()
	h := handler.New(caclient.New(caURL), nil, "test", 60, false)
	return router.New(h)
}

func postBatch(t *testing.T, api http.Handler, req dto.BatchIssueRequest) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	rec := httptest.NewRecorder()
	httpReq := httptest.NewRequest(http.MethodPost, "/api/v1/issuance/batch", bytes.NewReader(body))
	httpReq.Header.Set("Content-Type", "application/json")
	api.ServeHTTP(rec, httpReq)
	return rec
}

func TestBatchIssue_Completed(t *testing.T) {
	if testing.Short() {
		t.Skip("generates real RSA-3072 keys")
	}

	ca := newFakeCA(t, 0)
	defer ca.Close()
	api := newTestAPI(t, ca.URL)

	rec := postBatch(t, api, dto.BatchIssueRequest{
		Recipients: []dto.RecipientInput{
			{UserID: "op-001", FullName: "Alice Smith", Role: "treasury_admin"},
			{UserID: "op-002", FullName: "Bob Jones", Role: "auditor"},
		},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp dto.BatchIssueResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if resp.Status != "completed" {
		t.Errorf("status = %s", resp.Status)
	}
	if resp.RunID == "" {
		t.Error("run_id should be set")
	}
	if resp.Succeeded != 2 || len(resp.Bundles) != 2 {
		t.Fatalf("succeeded = %d, bundles = %d", resp.Succeeded, len(resp.Bundles))
	}
	if resp.Failure != nil {
		t.Errorf("unexpected failure: %+v", resp.Failure)
	}

	first := resp.Bundles[0]
	if first.UserID != "op-001" {
		t.Errorf("first bundle user_id = %s", first.UserID)
	}
	if first.Filename != "credential_alice-smith.zip" {
		t.Errorf("filename = %s", first.Filename)
	}

	raw, err := base64.StdEncoding.DecodeString(first.Archive.Data)
	if err != nil {
		t.Fatalf("archive is not valid base64: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		t.Fatalf("archive is not a valid zip: %v", err)
	}
	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	joined := strings.Join(names, ",")
	for _, want := range []string{"certificate_alice-smith.pem", "rsa_private_alice-smith.pem", "device_secret_alice-smith.txt"} {
		if !strings.Contains(joined, want) {
			t.Errorf("archive missing entry %s (got %s)", want, joined)
		}
	}
}

func TestBatchIssue_PartialFailure(t *testing.T) {
	if testing.Short() {
		t.Skip("generates real RSA-3072 keys")
	}

	ca := newFakeCA(t, 1)
	defer ca.Close()
	api := newTestAPI(t, ca.URL)

	rec := postBatch(t, api, dto.BatchIssueRequest{
		Recipients: []dto.RecipientInput{
			{UserID: "op-001", FullName: "Alice Smith"},
			{UserID: "op-002", FullName: "Bob Jones"},
			{UserID: "op-003", FullName: "Carol White"},
		},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp dto.BatchIssueResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if resp.Status != "failed" {
		t.Errorf("status = %s", resp.Status)
	}
	if resp.Succeeded != 1 || len(resp.Bundles) != 1 {
		t.Fatalf("succeeded = %d, bundles = %d", resp.Succeeded, len(resp.Bundles))
	}
	if resp.Failure == nil {
		t.Fatal("failure info should be set")
	}
	if resp.Failure.UserID != "op-002" {
		t.Errorf("failed user_id = %s", resp.Failure.UserID)
	}
	if !strings.Contains(resp.Failure.Reason, "ROLE_DENIED") {
		t.Errorf("reason = %s", resp.Failure.Reason)
	}
	if len(resp.Failure.NotAttempted) != 1 || resp.Failure.NotAttempted[0] != "op-003" {
		t.Errorf("not_attempted = %v", resp.Failure.NotAttempted)
	}
}

func TestBatchIssue_EmptySelection(t *testing.T) {
	ca := newFakeCA(t, 0)
	defer ca.Close()
	api := newTestAPI(t, ca.URL)

	rec := postBatch(t, api, dto.BatchIssueRequest{})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var apiErr dto.APIError
	if err := json.Unmarshal(rec.Body.Bytes(), &apiErr); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if apiErr.Code != "EMPTY_SELECTION" {
		t.Errorf("code = %s", apiErr.Code)
	}
}

func TestBatchIssue_MalformedBody(t *testing.T) {
	ca := newFakeCA(t, 0)
	defer ca.Close()
	api := newTestAPI(t, ca.URL)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/issuance/batch", strings.NewReader("{not json"))
	api.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestHealthAndReady(t *testing.T) {
	ca := newFakeCA(t, 0)
	defer ca.Close()
	api := newTestAPI(t, ca.URL)

	rec := httptest.NewRecorder()
	api.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d", rec.Code)
	}
	var health dto.HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if health.Status != "ok" {
		t.Errorf("health.status = %s", health.Status)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header should be set")
	}

	rec = httptest.NewRecorder()
	api.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("ready status = %d", rec.Code)
	}
}
