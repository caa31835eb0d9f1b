// Package obs provides the minimal timing hook fetch.Entities calls once
// per batch. It does not implement metrics
// export; it only logs, matching the log.Printf convention.
package obs

import (
	"log"
	"time"
)

// RequestTimer counts batches and logs elapsed time on Stop. A fresh timer
// must be created per fetch call.
type RequestTimer struct {
	label   string
	started time.Time
	batches int
}

// NewRequestTimer starts a timer labeled for the given root entity.
func NewRequestTimer(label string) *RequestTimer {
	return &RequestTimer{label: label, started: time.Now()}
}

// OnRequest is passed as the onRequest hook to fetch.Entities; it records
// one more batch having been issued.
func (t *RequestTimer) OnRequest() {
	t.batches++
}

// Stop logs batch count and elapsed time. Safe to call on both the success
// and failure path.
func (t *RequestTimer) Stop() {
	log.Printf("fetch %s: %d batch(es) in %s", t.label, t.batches, time.Since(t.started))
}
