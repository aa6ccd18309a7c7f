package metrics

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"bike-rental/auth"
	"bike-rental/rental"
)

func gatherValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metric:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					continue metric
				}
			}
			switch {
			case m.GetCounter() != nil:
				return m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				return m.GetGauge().GetValue()
			}
		}
	}
	t.Fatalf("metric %s %v not found", name, labels)
	return 0
}

func TestRecordCommand(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordCommand("add bike", time.Millisecond, nil)
	c.RecordCommand("add bike", time.Millisecond, nil)
	c.RecordCommand("delete bike", time.Millisecond, fmt.Errorf("guard: %w", auth.ErrInvalidPassword))
	c.RecordCommand("delete bike", time.Millisecond, errors.New("no such bike"))

	if v := gatherValue(t, reg, "bikerental_commands_total", map[string]string{"command": "add bike", "result": "ok"}); v != 2 {
		t.Errorf("add bike ok = %v, want 2", v)
	}
	if v := gatherValue(t, reg, "bikerental_commands_total", map[string]string{"command": "delete bike", "result": "error"}); v != 2 {
		t.Errorf("delete bike error = %v, want 2", v)
	}
	if v := gatherValue(t, reg, "bikerental_auth_failures_total", nil); v != 1 {
		t.Errorf("auth failures = %v, want 1", v)
	}
}

func TestObserveSnapshot(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	last := 2
	end := time.Now()
	c.ObserveSnapshot(rental.Snapshot{
		Bikes: []rental.Bike{{Name: "a"}, {Name: "b"}},
		Loans: []rental.Loan{
			{ID: 0, Status: rental.StatusOngoing},
			{ID: 1, Status: rental.StatusReturned, EndTime: &end},
			{ID: 2, Status: rental.StatusOngoing},
		},
		LastLoanID: &last,
	})

	if v := gatherValue(t, reg, "bikerental_bikes", nil); v != 2 {
		t.Errorf("bikes = %v, want 2", v)
	}
	if v := gatherValue(t, reg, "bikerental_loans", map[string]string{"status": "ONGOING"}); v != 2 {
		t.Errorf("ongoing = %v, want 2", v)
	}
	if v := gatherValue(t, reg, "bikerental_last_loan_id", nil); v != 2 {
		t.Errorf("last loan id = %v, want 2", v)
	}

	c.ObserveSnapshot(rental.Snapshot{})
	if v := gatherValue(t, reg, "bikerental_last_loan_id", nil); v != -1 {
		t.Errorf("last loan id = %v, want -1", v)
	}
}

func TestServerServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordCommand("list bikes", time.Millisecond, nil)

	srv := NewServer("127.0.0.1:0", reg)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "bikerental_commands_total") {
		t.Error("response should contain bikerental_commands_total metric")
	}
}
