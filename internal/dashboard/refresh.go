package dashboard

import (
	"context"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"
)

type refreshable interface {
	Refresh(ctx context.Context) State
}

// Refresher re-fetches the selected location on a fixed interval. After a
// failed refresh the next one comes sooner, backing off exponentially up to
// the interval.
type Refresher struct {
	ctrl         refreshable
	interval     time.Duration
	retryInitial time.Duration
}

func NewRefresher(ctrl *Controller, interval time.Duration) *Refresher {
	retry := interval / 10
	if retry < time.Second {
		retry = time.Second
	}
	return &Refresher{ctrl: ctrl, interval: interval, retryInitial: retry}
}

// Run blocks until ctx is cancelled. It does not fetch on entry.
func (r *Refresher) Run(ctx context.Context) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.retryInitial
	b.MaxInterval = r.interval
	b.MaxElapsedTime = 0
	b.Reset()

	wait := r.interval
	timer := time.NewTimer(wait)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("refresher: shutting down")
			return
		case <-timer.C:
		}

		st := r.ctrl.Refresh(ctx)

		if st.Status == StatusErrored {
			wait = b.NextBackOff()
			log.Printf("refresher: refresh of %s failed, retrying in %v: %s", st.Selected.Label(), wait.Round(time.Second), st.Message)
		} else {
			b.Reset()
			wait = r.interval
		}
		timer.Reset(wait)
	}
}
