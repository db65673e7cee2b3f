package mesosmock

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/clusterops/mesosctl/internal/logger"
	"github.com/clusterops/mesosctl/internal/model"
)

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(raw)
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestPostScheduleReplacesDocument(t *testing.T) {
	master := NewMaster(logger.New())
	ts := httptest.NewServer(master.Router())
	defer ts.Close()

	doc := `{"windows":[{"machine_ids":[{"ip":"10.0.0.1","hostname":"10.0.0.1"}],` +
		`"unavailability":{"start":{"nanoseconds":0},"duration":{"nanoseconds":1}}}]}`
	if resp := post(t, ts.URL+"/maintenance/schedule", doc); resp.StatusCode != http.StatusOK {
		t.Fatalf("post schedule: status %d", resp.StatusCode)
	}

	// Posting an empty document wipes the previous one: full replace.
	if resp := post(t, ts.URL+"/maintenance/schedule", `{}`); resp.StatusCode != http.StatusOK {
		t.Fatalf("post empty schedule: status %d", resp.StatusCode)
	}

	schedule, _ := master.Snapshot()
	if len(schedule.Windows) != 0 {
		t.Fatalf("schedule not replaced: %+v", schedule.Windows)
	}
}

func TestMachineDownRequiresActiveWindow(t *testing.T) {
	master := NewMaster(logger.New())
	ts := httptest.NewServer(master.Router())
	defer ts.Close()

	resp := post(t, ts.URL+"/machine/down", `[{"ip":"10.0.0.1","hostname":"10.0.0.1"}]`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for machine outside a window, got %d", resp.StatusCode)
	}
}

func TestMachineDownInsideExpiredWindowRejected(t *testing.T) {
	master := NewMaster(logger.New())
	ts := httptest.NewServer(master.Router())
	defer ts.Close()

	// Window started two hours ago and lasted one hour.
	start := time.Now().Add(-2 * time.Hour)
	schedule := model.Schedule{}
	schedule = schedule.Append(model.NewMachineID("10.0.0.1", ""), start, time.Hour)

	if resp := post(t, ts.URL+"/maintenance/schedule",
		mustJSON(t, schedule)); resp.StatusCode != http.StatusOK {
		t.Fatalf("post schedule failed: %d", resp.StatusCode)
	}

	resp := post(t, ts.URL+"/machine/down", `[{"ip":"10.0.0.1","hostname":"10.0.0.1"}]`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for expired window, got %d", resp.StatusCode)
	}
}
