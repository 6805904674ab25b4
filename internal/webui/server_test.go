package webui

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := NewServer(Config{Addr: ":0", Version: "test"})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func uploadCSV(t *testing.T, url, body string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "batch.csv")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write([]byte(body)); err != nil {
		t.Fatal(err)
	}
	mw.Close()

	resp, err := http.Post(url+"/api/process", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestProcess_ValidBatch(t *testing.T) {
	ts := newTestServer(t)
	csv := strings.Join([]string{
		"transaction_id,amount,timestamp,country",
		"TXN_001_ABC,100.50,2025-01-13T14:30:00Z,US",
		"TXN_002_DEF,-50.00,2025-01-12T10:15:00,GB",
	}, "\n")

	resp := uploadCSV(t, ts.URL, csv)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var out processResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !out.Validation.IsValid {
		t.Error("expected valid response")
	}
	if out.Statistics.IngestionSummary.ValidRows != 1 || out.Statistics.IngestionSummary.InvalidRows != 1 {
		t.Errorf("summary = %+v", out.Statistics.IngestionSummary)
	}
	if len(out.CleanedPreview) != 1 {
		t.Errorf("preview = %v", out.CleanedPreview)
	}
	if len(out.InvalidRows) != 1 {
		t.Errorf("invalid rows = %v", out.InvalidRows)
	}
	if out.Insights.DataProfile.Rows != 2 {
		t.Errorf("insights profile = %+v", out.Insights.DataProfile)
	}
}

func TestProcess_MissingColumnIs400(t *testing.T) {
	ts := newTestServer(t)
	resp := uploadCSV(t, ts.URL, "transaction_id,amount\nTXN_001_ABC,1.00\n")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	var out map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out["error"], "missing required columns") {
		t.Errorf("error = %q", out["error"])
	}
}

func TestProcess_EmptyCSVIs400(t *testing.T) {
	ts := newTestServer(t)
	resp := uploadCSV(t, ts.URL, "transaction_id,amount,timestamp,country\n")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestProcess_NoFileIs400(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Post(ts.URL+"/api/process", "multipart/form-data; boundary=x", strings.NewReader("--x--\r\n"))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var out map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out["status"] != "ok" || out["version"] != "test" {
		t.Errorf("health = %v", out)
	}
}

func TestIndexServesForm(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(body), "/api/process") {
		t.Error("form target missing from index page")
	}
}
