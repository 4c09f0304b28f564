package trace

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Heartbeat periodically emits heartbeat events. If heartbeats keep coming
// but no end events do, the innermost open frame is likely stuck.
type Heartbeat struct {
	tracer   Tracer
	interval time.Duration
	started  time.Time
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	once     sync.Once
}

// StartHeartbeat starts a heartbeat goroutine that runs until Stop is
// called or ctx is done. It returns nil when tracing is off or interval
// is not positive; Stop on a nil Heartbeat is a no-op.
func StartHeartbeat(ctx context.Context, tracer Tracer, interval time.Duration) *Heartbeat {
	if tracer == nil || !tracer.Enabled() || interval <= 0 {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	h := &Heartbeat{
		tracer:   tracer,
		interval: interval,
		started:  now(),
		cancel:   cancel,
	}

	h.wg.Add(1)
	go h.run(ctx)

	return h
}

func (h *Heartbeat) run(ctx context.Context) {
	defer h.wg.Done()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	gid := getGoroutineID()
	var beats uint64
	for {
		select {
		case <-ticker.C:
			beats++
			h.tracer.Emit(&Event{
				Time:   now(),
				Kind:   KindHeartbeat,
				GID:    gid,
				Name:   "heartbeat",
				Detail: fmt.Sprintf("#%d", beats),
				Extra: map[string]string{
					"uptime": time.Since(h.started).Round(time.Millisecond).String(),
				},
			})
		case <-ctx.Done():
			return
		}
	}
}

// Stop stops the heartbeat goroutine and waits for it to finish.
func (h *Heartbeat) Stop() {
	if h == nil {
		return
	}
	h.once.Do(func() {
		h.cancel()
		h.wg.Wait()
	})
}
