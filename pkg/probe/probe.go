// Package probe runs startup health checks before the server binds.
package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// checkTimeout bounds each individual probe so a hung provider cannot
// stall startup.
const checkTimeout = 5 * time.Second

// Probe is a single startup check.
type Probe struct {
	Name  string
	Check func(ctx context.Context) error
	// Critical failures abort startup; non-critical ones only log.
	// A missing API key is non-critical: the server runs degraded and
	// answers 503 for the affected endpoints.
	Critical bool
}

// Result is the outcome of one probe.
type Result struct {
	Probe    Probe
	Err      error
	Duration time.Duration
}

// Run executes the probes in order and returns all results.
func Run(ctx context.Context, probes []Probe) []Result {
	results := make([]Result, len(probes))
	for i, p := range probes {
		start := time.Now()

		checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := p.Check(checkCtx)
		cancel()

		results[i] = Result{Probe: p, Err: err, Duration: time.Since(start)}
	}
	return results
}

// AnalyzeResults logs every outcome and returns a joined error if any
// critical probe failed.
func AnalyzeResults(results []Result) error {
	var critical []error

	slog.Info("Startup Checks Summary")
	for _, r := range results {
		rounded := r.Duration.Round(time.Millisecond)
		if r.Err == nil {
			slog.Info(fmt.Sprintf("[PASS] %-16s (%v)", r.Probe.Name, rounded))
			continue
		}
		slog.Error(fmt.Sprintf("[FAIL] %-16s (%v)", r.Probe.Name, rounded), "error", r.Err)
		if r.Probe.Critical {
			critical = append(critical, fmt.Errorf("%s: %w", r.Probe.Name, r.Err))
		}
	}

	return errors.Join(critical...)
}
