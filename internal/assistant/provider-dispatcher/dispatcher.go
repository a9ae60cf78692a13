package providerdispatcher

import (
	"context"
	"fmt"
	"sync"

	"shopping-assistant/internal/common/logger"
	"shopping-assistant/internal/common/metrics"
)

// Dispatcher routes prompts to the current primary backend and swaps the pair on
// failure. The ordering is shared by every caller and survives across calls.
type Dispatcher struct {
	mu         sync.RWMutex
	backends   [2]Backend
	primaryIdx int
	maxRetries int
	logger     logger.Logger
}

// New builds a dispatcher. A nil secondary makes primary serve both slots.
func New(primary, secondary Backend, maxRetries int, log logger.Logger) (*Dispatcher, error) {
	if primary == nil {
		return nil, fmt.Errorf("primary backend is required")
	}
	if secondary == nil {
		secondary = primary
	}
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &Dispatcher{
		backends:   [2]Backend{primary, secondary},
		maxRetries: maxRetries,
		logger:     log,
	}, nil
}

func (d *Dispatcher) Primary() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.backends[d.primaryIdx].Name()
}

func (d *Dispatcher) Secondary() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.backends[1-d.primaryIdx].Name()
}

func (d *Dispatcher) Generate(ctx context.Context, prompt string) (string, error) {
	return d.GenerateWithRetries(ctx, prompt, d.maxRetries)
}

// GenerateWithRetries spends at most maxRetries attempts. A rate limit swaps the pair and
// retries; any other failure swaps and retries only on the first attempt.
func (d *Dispatcher) GenerateWithRetries(ctx context.Context, prompt string, maxRetries int) (string, error) {
	if maxRetries <= 0 {
		maxRetries = 1
	}

	var last Result
	for attempt := 0; attempt < maxRetries; attempt++ {
		idx, backend := d.current()
		last = d.attempt(ctx, backend, prompt)
		if last.OK {
			return last.Value, nil
		}

		if ctx.Err() != nil {
			// caller gave up; the backend is not at fault
			return "", &ExhaustedError{Attempts: attempt + 1, Backend: last.Backend, LastKind: last.Kind, Last: ctx.Err()}
		}

		switch last.Kind {
		case ErrorKindRateLimited:
			d.swapFrom(idx, last)
		default:
			if attempt > 0 {
				return "", &ExhaustedError{Attempts: attempt + 1, Backend: last.Backend, LastKind: last.Kind, Last: last.Err}
			}
			d.swapFrom(idx, last)
		}
	}

	return "", &ExhaustedError{Attempts: maxRetries, Backend: last.Backend, LastKind: last.Kind, Last: last.Err}
}

func (d *Dispatcher) current() (int, Backend) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.primaryIdx, d.backends[d.primaryIdx]
}

func (d *Dispatcher) attempt(ctx context.Context, backend Backend, prompt string) Result {
	text, err := backend.Generate(ctx, prompt)
	if err != nil {
		kind := ClassifyError(err)
		metrics.ProviderRequests.WithLabelValues(backend.Name(), kind.String()).Inc()
		return Result{Kind: kind, Err: err, Backend: backend.Name()}
	}
	metrics.ProviderRequests.WithLabelValues(backend.Name(), "success").Inc()
	return Result{OK: true, Value: text, Kind: ErrorKindNone, Backend: backend.Name()}
}

// swapFrom promotes the secondary only if failedIdx is still primary, so concurrent
// failures of the same backend redirect traffic once instead of flipping it back.
func (d *Dispatcher) swapFrom(failedIdx int, res Result) {
	d.mu.Lock()
	if d.primaryIdx != failedIdx {
		d.mu.Unlock()
		return
	}
	d.primaryIdx = 1 - failedIdx
	from := d.backends[failedIdx].Name()
	to := d.backends[d.primaryIdx].Name()
	d.mu.Unlock()

	metrics.ProviderFailovers.WithLabelValues(from, to, res.Kind.String()).Inc()
	d.logger.Warn("Switching generation provider", map[string]interface{}{
		"from":   from,
		"to":     to,
		"reason": res.Kind.String(),
		"error":  res.Err.Error(),
	})
}
