// Package health runs the diagnostics behind 'smartevents doctor'.
//
// Each Checker inspects one thing the client depends on: the API server,
// the configuration file or the stored session. A Manager runs them in
// parallel and reports the results in registration order:
//
//	manager := health.NewManager()
//	manager.AddChecker(health.NewAPIChecker(client))
//	manager.AddChecker(health.NewSessionChecker(store, path))
//
//	for _, report := range manager.Check(ctx) {
//	    fmt.Println(report.Name, report.Status)
//	}
package health

import (
	"context"
	"time"
)

// Checker inspects one dependency.
type Checker interface {
	// Name is a short lowercase label, e.g. "api" or "session".
	Name() string

	// Check must respect the context deadline.
	Check(ctx context.Context) *Result
}

// Status is the outcome of a check.
type Status string

const (
	// StatusHealthy means the dependency works.
	StatusHealthy Status = "healthy"

	// StatusDegraded means the client works with reduced functionality,
	// for example when nobody is logged in.
	StatusDegraded Status = "degraded"

	// StatusUnhealthy means commands depending on it will fail.
	StatusUnhealthy Status = "unhealthy"
)

func (s Status) String() string {
	return string(s)
}

// Result is what a Checker found.
type Result struct {
	Status  Status                 `json:"status" yaml:"status"`
	Message string                 `json:"message" yaml:"message"`
	Details map[string]interface{} `json:"details,omitempty" yaml:"details,omitempty"`
	Latency time.Duration          `json:"latency" yaml:"latency"`
}

// NewResult creates a result with an empty detail map.
func NewResult(status Status, message string) *Result {
	return &Result{
		Status:  status,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// WithDetail adds a detail and returns the result for chaining.
func (r *Result) WithDetail(key string, value interface{}) *Result {
	r.Details[key] = value
	return r
}

// WithLatency sets the latency and returns the result for chaining.
func (r *Result) WithLatency(latency time.Duration) *Result {
	r.Latency = latency
	return r
}

func Healthy(message string) *Result {
	return NewResult(StatusHealthy, message)
}

func Degraded(message string) *Result {
	return NewResult(StatusDegraded, message)
}

func Unhealthy(message string) *Result {
	return NewResult(StatusUnhealthy, message)
}
