package health

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// ProbeResult is the outcome of the most recent scheduled probe.
type ProbeResult struct {
	Healthy bool
	Err     error
	At      time.Time
}

// ProberOption configures a Prober.
type ProberOption func(*Prober)

// WithOnResult registers a callback invoked after every probe.
func WithOnResult(fn func(healthy bool, err error)) ProberOption {
	return func(p *Prober) {
		p.onResult = fn
	}
}

// WithProbeTimeout bounds each probe. Default: DefaultCheckTimeout.
func WithProbeTimeout(d time.Duration) ProberOption {
	return func(p *Prober) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithProberLogger sets the logger used for probe transitions.
func WithProberLogger(logger *slog.Logger) ProberOption {
	return func(p *Prober) {
		p.logger = logger
	}
}

// Prober runs a health check on a cron schedule.
type Prober struct {
	name     string
	schedule string
	check    CheckFunc
	timeout  time.Duration
	onResult func(healthy bool, err error)
	logger   *slog.Logger

	cron *cron.Cron

	mu      sync.Mutex
	last    ProbeResult
	probed  bool
	running bool
}

// NewProber creates a prober for check. The schedule is validated here so
// that a bad expression fails at startup rather than silently never firing.
func NewProber(schedule, name string, check CheckFunc, opts ...ProberOption) (*Prober, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}

	p := &Prober{
		name:     name,
		schedule: schedule,
		check:    check,
		timeout:  DefaultCheckTimeout,
		cron:     cron.New(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	p.logger = p.logger.With("component", "health.prober", "check", name)

	return p, nil
}

// Start schedules the probe and runs it once immediately. The prober stops
// when ctx is cancelled or Stop is called.
func (p *Prober) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return nil
	}

	if _, err := p.cron.AddFunc(p.schedule, func() { p.Probe(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule probe: %w", err)
	}
	p.cron.Start()
	p.running = true

	p.logger.Info("health prober started", "schedule", p.schedule)

	go p.Probe(ctx)
	go func() {
		<-ctx.Done()
		p.Stop()
	}()

	return nil
}

// Probe runs the check once and records the result.
func (p *Prober) Probe(ctx context.Context) ProbeResult {
	probeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.check(probeCtx)
	result := ProbeResult{Healthy: err == nil, Err: err, At: time.Now()}

	p.mu.Lock()
	changed := !p.probed || p.last.Healthy != result.Healthy
	p.last = result
	p.probed = true
	p.mu.Unlock()

	if changed {
		if err != nil {
			p.logger.Warn("health probe failing", "error", err)
		} else {
			p.logger.Info("health probe passing")
		}
	} else if err != nil {
		p.logger.Debug("health probe still failing", "error", err)
	}

	if p.onResult != nil {
		p.onResult(result.Healthy, err)
	}
	return result
}

// Last returns the most recent probe result and whether any probe has run.
func (p *Prober) Last() (ProbeResult, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last, p.probed
}

// Stop stops the schedule and waits for a running probe to finish.
func (p *Prober) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.mu.Unlock()

	<-p.cron.Stop().Done()
	p.logger.Info("health prober stopped")
}

// IsRunning returns true if the prober is scheduled.
func (p *Prober) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}
