package health

import (
	"context"
	"testing"
	"time"
)

// mockChecker is a test double for health checks
type mockChecker struct {
	name   string
	result *Result
	delay  time.Duration
}

func (m *mockChecker) Name() string {
	return m.name
}

func (m *mockChecker) Check(ctx context.Context) *Result {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return Unhealthy("check cancelled").
				WithDetail("error", ctx.Err().Error())
		}
	}
	return m.result
}

func TestNewManager(t *testing.T) {
	manager := NewManager()

	if manager.timeout != 5*time.Second {
		t.Errorf("timeout = %v, want %v", manager.timeout, 5*time.Second)
	}
	if manager.Count() != 0 {
		t.Errorf("Count() = %d, want 0", manager.Count())
	}
}

func TestWithTimeout(t *testing.T) {
	manager := NewManager()

	if returned := manager.WithTimeout(time.Second); returned != manager {
		t.Error("WithTimeout should return same manager for chaining")
	}
	if manager.timeout != time.Second {
		t.Errorf("timeout = %v, want %v", manager.timeout, time.Second)
	}
}

func TestCheckKeepsRegistrationOrder(t *testing.T) {
	manager := NewManager()
	manager.AddChecker(&mockChecker{name: "slow", result: Healthy("ok"), delay: 20 * time.Millisecond})
	manager.AddChecker(&mockChecker{name: "fast", result: Degraded("meh")})

	reports := manager.Check(context.Background())

	if len(reports) != 2 {
		t.Fatalf("len(reports) = %d, want 2", len(reports))
	}
	if reports[0].Name != "slow" || reports[1].Name != "fast" {
		t.Errorf("order = [%s %s], want [slow fast]", reports[0].Name, reports[1].Name)
	}
	if reports[1].Status != StatusDegraded {
		t.Errorf("fast status = %s, want degraded", reports[1].Status)
	}
	if reports[0].Latency <= 0 {
		t.Error("latency should be recorded when the checker leaves it unset")
	}
}

func TestCheckTimeout(t *testing.T) {
	manager := NewManager().WithTimeout(10 * time.Millisecond)
	manager.AddChecker(&mockChecker{name: "hang", result: Healthy("ok"), delay: time.Second})

	reports := manager.Check(context.Background())

	if reports[0].Status != StatusUnhealthy {
		t.Errorf("status = %s, want unhealthy", reports[0].Status)
	}
	if reports[0].Details["error"] != context.DeadlineExceeded.Error() {
		t.Errorf("error detail = %v", reports[0].Details["error"])
	}
}

func TestCheckNilResult(t *testing.T) {
	manager := NewManager()
	manager.AddChecker(&mockChecker{name: "broken"})

	reports := manager.Check(context.Background())

	if reports[0].Status != StatusUnhealthy {
		t.Errorf("status = %s, want unhealthy", reports[0].Status)
	}
}

func TestOverallStatus(t *testing.T) {
	tests := []struct {
		name     string
		statuses []Status
		want     Status
	}{
		{"none", nil, StatusHealthy},
		{"all healthy", []Status{StatusHealthy, StatusHealthy}, StatusHealthy},
		{"one degraded", []Status{StatusHealthy, StatusDegraded}, StatusDegraded},
		{"unhealthy wins", []Status{StatusDegraded, StatusUnhealthy, StatusHealthy}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reports := make([]Report, len(tt.statuses))
			for i, s := range tt.statuses {
				reports[i] = Report{Result: Result{Status: s}}
			}
			if got := OverallStatus(reports); got != tt.want {
				t.Errorf("OverallStatus() = %s, want %s", got, tt.want)
			}
		})
	}
}
