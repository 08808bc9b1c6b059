// package health reports whether the backing store is reachable
package health

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
)

// Pinger performs a trivial round-trip against the store
type Pinger interface {
	Ping(ctx context.Context) error
}

// Report is the outcome of a single probe
type Report struct {
	Healthy   bool
	Err       error
	CheckedAt time.Time
}

// Checker probes the store once per check, without retries. Retry and
// backoff policy belongs to whoever polls the health endpoint.
type Checker struct {
	pinger  Pinger
	timeout time.Duration
	now     func() time.Time
	group   singleflight.Group
}

// NewChecker creates a Checker whose probes give up after timeout
func NewChecker(pinger Pinger, timeout time.Duration) *Checker {
	return &Checker{
		pinger:  pinger,
		timeout: timeout,
		now:     time.Now,
	}
}

// Check runs one probe. Concurrent callers share the probe already in
// flight, so a burst of checks costs a single round-trip.
func (c *Checker) Check(ctx context.Context) Report {
	v, _, _ := c.group.Do("ping", func() (any, error) {
		// detached from the first caller so its disconnect does not fail the others
		probeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()

		err := c.pinger.Ping(probeCtx)
		return Report{
			Healthy:   err == nil,
			Err:       err,
			CheckedAt: c.now().UTC(),
		}, nil
	})

	return v.(Report)
}
