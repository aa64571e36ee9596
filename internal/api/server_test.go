package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vedakosh/rigveda/core/record"
	"github.com/vedakosh/rigveda/internal/store"
)

func strPtr(s string) *string { return &s }

func newTestServer(t *testing.T) (*httptest.Server, *Handlers) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "records.db")
	s, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}

	agni := record.New(1, 1, 1, "अग्निमीळे पुरोहितं यज्ञस्य देवमृत्विजम्।", "m1.json")
	agni.Deity = strPtr("अग्निः")
	agni.Translation = strPtr("I Laud Agni, the chosen Priest.")
	vayu := record.New(2, 1, 1, "वायवा याहि दर्शतेमे सोमा अरंकृताः।", "m2.json")
	vayu.Deity = strPtr("वायुः")
	if _, err := s.Load([]*record.Record{agni, vayu}); err != nil {
		t.Fatalf("loading records: %v", err)
	}

	srv, h, _ := NewServer(Config{Host: "127.0.0.1", Port: 0, Version: "test"}, s)
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(func() {
		ts.Close()
		h.Store().Close()
	})
	return ts, h
}

func getJSON(t *testing.T, url string) (*http.Response, APIResponse) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()

	var body APIResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return resp, body
}

func dataRecords(t *testing.T, body APIResponse) []record.Record {
	t.Helper()
	raw, err := json.Marshal(body.Data)
	if err != nil {
		t.Fatalf("re-encoding data: %v", err)
	}
	var records []record.Record
	if err := json.Unmarshal(raw, &records); err != nil {
		t.Fatalf("decoding records: %v", err)
	}
	return records
}

func TestRecordsEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, body := getJSON(t, ts.URL+"/api/records")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if !body.Success {
		t.Fatalf("success = false: %+v", body.Error)
	}
	records := dataRecords(t, body)
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if body.Meta == nil || body.Meta.Total != 2 {
		t.Errorf("meta total = %+v, want 2", body.Meta)
	}
}

func TestRecordsFilter(t *testing.T) {
	ts, _ := newTestServer(t)

	_, body := getJSON(t, ts.URL+"/api/records?mandala=2")
	records := dataRecords(t, body)
	if len(records) != 1 || records[0].ID != "RV-02-001-01" {
		t.Errorf("filtered records = %v, want only RV-02-001-01", records)
	}

	resp, body := getJSON(t, ts.URL+"/api/records?mandala=x")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	if body.Success || body.Error == nil || body.Error.Code != "bad_request" {
		t.Errorf("error envelope = %+v", body.Error)
	}
}

func TestRecordByID(t *testing.T) {
	ts, _ := newTestServer(t)

	tests := []struct {
		name string
		path string
	}{
		{"canonical id", "/api/records/RV-01-001-01"},
		{"dotted ref", "/api/records/1.1.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := getJSON(t, ts.URL+tt.path)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d, want 200", resp.StatusCode)
			}
			raw, _ := json.Marshal(body.Data)
			var rec record.Record
			if err := json.Unmarshal(raw, &rec); err != nil {
				t.Fatalf("decoding record: %v", err)
			}
			if rec.ID != "RV-01-001-01" {
				t.Errorf("id = %q, want RV-01-001-01", rec.ID)
			}
		})
	}
}

func TestRecordNotFound(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, body := getJSON(t, ts.URL+"/api/records/RV-09-099-09")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	if body.Success || body.Error.Code != "not_found" {
		t.Errorf("error = %+v, want not_found", body.Error)
	}
}

func TestSearchEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	_, body := getJSON(t, ts.URL+"/api/search?q=chosen+Priest")
	records := dataRecords(t, body)
	if len(records) != 1 || records[0].ID != "RV-01-001-01" {
		t.Errorf("search results = %v, want RV-01-001-01", records)
	}

	resp, _ := getJSON(t, ts.URL+"/api/search")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing q status = %d, want 400", resp.StatusCode)
	}
}

func TestStatsEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, body := getJSON(t, ts.URL+"/api/stats")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	raw, _ := json.Marshal(body.Data)
	var stats store.Stats
	if err := json.Unmarshal(raw, &stats); err != nil {
		t.Fatalf("decoding stats: %v", err)
	}
	if stats.Records != 2 || len(stats.ByMandala) != 2 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestVersionEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	_, body := getJSON(t, ts.URL+"/api/version")
	raw, _ := json.Marshal(body.Data)
	var info VersionInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		t.Fatalf("decoding version info: %v", err)
	}
	if info.Version != "test" {
		t.Errorf("version = %q, want %q", info.Version, "test")
	}
	if info.Driver == "" {
		t.Error("driver missing from version info")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/records", "application/json", strings.NewReader("{}"))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}

func TestRequestIDEcho(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/version")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("response missing generated X-Request-ID")
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/version", nil)
	req.Header.Set("X-Request-ID", "fixed-id")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("X-Request-ID"); got != "fixed-id" {
		t.Errorf("request id = %q, want %q", got, "fixed-id")
	}
}

func TestReloadBroadcast(t *testing.T) {
	ts, h := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dialing websocket: %v", err)
	}
	defer conn.Close()

	// Wait for registration before triggering the reload.
	deadline := time.Now().Add(2 * time.Second)
	for h.hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered with hub")
		}
		time.Sleep(10 * time.Millisecond)
	}

	resp, err := http.Post(ts.URL+"/api/reload", "application/json", nil)
	if err != nil {
		t.Fatalf("POST reload: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reload status = %d, want 200", resp.StatusCode)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("reading event: %v", err)
	}
	var msg EventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decoding event: %v", err)
	}
	if msg.Type != "dataset_reloaded" {
		t.Errorf("event type = %q, want dataset_reloaded", msg.Type)
	}
}
