// Package health serves liveness and readiness probes.
//
// Every registered probe runs in its own goroutine. A probe turns unhealthy
// after failureThreshold consecutive failures and healthy again after
// successThreshold consecutive successes.
package health

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/jx"
)

// CheckFunc reports nil when the checked component is healthy.
type CheckFunc func(ctx context.Context) error

// Option configures a Health.
type Option func(h *Health)

// WithThresholds sets how many consecutive failures mark a probe unhealthy
// and how many consecutive successes mark it healthy again. Defaults are 3
// and 1.
func WithThresholds(failure, success int) Option {
	return func(h *Health) {
		h.failureThreshold = max(failure, 1)
		h.successThreshold = max(success, 1)
	}
}

type probe struct {
	name    string
	timeout time.Duration
	check   CheckFunc

	failureThreshold int
	successThreshold int

	healthy atomic.Bool
	lastErr atomic.Pointer[error]

	// Owned by the probe's goroutine.
	fails, passes int
}

func (p *probe) run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.check(ctx)
	p.lastErr.Store(&err)

	if err != nil {
		p.passes = 0
		p.fails++
		if p.fails >= p.failureThreshold {
			p.healthy.Store(false)
		}
		return
	}
	p.fails = 0
	p.passes++
	if p.passes >= p.successThreshold {
		p.healthy.Store(true)
	}
}

func (p *probe) failure() (string, bool) {
	if p.healthy.Load() {
		return "", false
	}
	if errp := p.lastErr.Load(); errp != nil && *errp != nil {
		return (*errp).Error(), true
	}
	return "unhealthy", true
}

// Health tracks liveness and readiness of the process.
type Health struct {
	failureThreshold int
	successThreshold int

	ready atomic.Bool

	mu        sync.RWMutex
	liveness  []*probe
	readiness []*probe
	cancel    context.CancelFunc
}

// New creates a Health that is not ready until SetReady(true).
func New(opts ...Option) *Health {
	h := &Health{failureThreshold: 3, successThreshold: 1}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Health) newProbe(name string, timeout time.Duration, check CheckFunc) *probe {
	p := &probe{
		name:             name,
		timeout:          timeout,
		check:            check,
		failureThreshold: h.failureThreshold,
		successThreshold: h.successThreshold,
	}
	p.healthy.Store(true)
	return p
}

// AddLivenessCheck registers a check of the process itself.
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.liveness = append(h.liveness, h.newProbe(name, timeout, check))
}

// AddReadinessCheck registers a check of a dependency needed to serve
// traffic, such as the catalog source.
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readiness = append(h.readiness, h.newProbe(name, timeout, check))
}

// Start runs every registered check once immediately and then every interval
// until ctx is done or Stop is called.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.cancel = cancel
	probes := slices.Concat(h.liveness, h.readiness)
	h.mu.Unlock()

	for _, p := range probes {
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			p.run(ctx)
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					p.run(ctx)
				}
			}
		}()
	}
}

// Stop cancels the background checks. It is safe to call more than once.
func (h *Health) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

// SetReady marks the service ready or not ready to receive traffic.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports whether the service is marked ready and every readiness
// check passes.
func (h *Health) IsReady() bool {
	return h.ready.Load() && len(h.failures(h.readinessProbes())) == 0
}

func (h *Health) livenessProbes() []*probe {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Clone(h.liveness)
}

func (h *Health) readinessProbes() []*probe {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Clone(h.readiness)
}

type failure struct {
	name, reason string
}

func (h *Health) failures(probes []*probe) []failure {
	var out []failure
	for _, p := range probes {
		if reason, failed := p.failure(); failed {
			out = append(out, failure{name: p.name, reason: reason})
		}
	}
	return out
}

// LiveEndpoint serves /livez: 200 when every liveness check passes, 503 with
// the failing checks otherwise.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	writeStatus(w, h.failures(h.livenessProbes()))
}

// ReadyEndpoint serves /readyz: 200 when the service is marked ready and every
// readiness check passes, 503 with the reasons otherwise.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	failures := h.failures(h.readinessProbes())
	if !h.ready.Load() {
		failures = append(failures, failure{name: "_readiness", reason: "service is not ready"})
	}
	writeStatus(w, failures)
}

// writeStatus renders {"status":"ok"} or
// {"status":"unhealthy","checks":{"name":"reason"}}.
func writeStatus(w http.ResponseWriter, failures []failure) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	status := http.StatusOK
	e.Obj(func(e *jx.Encoder) {
		if len(failures) == 0 {
			e.Field("status", func(e *jx.Encoder) { e.Str("ok") })
			return
		}
		status = http.StatusServiceUnavailable
		e.Field("status", func(e *jx.Encoder) { e.Str("unhealthy") })
		e.Field("checks", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				for _, f := range failures {
					e.Field(f.name, func(e *jx.Encoder) { e.Str(f.reason) })
				}
			})
		})
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}
