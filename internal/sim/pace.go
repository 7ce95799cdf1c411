package sim

import (
	"context"
	"time"
)

// pacer holds a run to a fixed tick rate, sleeping once per batch of ticks.
type pacer struct {
	rate  float64
	batch int
	start time.Time
}

func newPacer(rate float64, start time.Time) *pacer {
	if rate <= 0 {
		return nil
	}
	batch := int(rate / 100)
	if batch < 1 {
		batch = 1
	}
	return &pacer{rate: rate, batch: batch, start: start}
}

// wait blocks until tick i is due.
func (p *pacer) wait(ctx context.Context, i int) error {
	if p == nil || i%p.batch != 0 {
		return nil
	}
	due := p.start.Add(time.Duration(float64(i) / p.rate * float64(time.Second)))
	d := time.Until(due)
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
