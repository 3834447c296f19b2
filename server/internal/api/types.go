package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/ttlpool/ttlpool/pkg/types"
)

// maxLifetimeSeconds is the largest lifetime a time.Duration can hold.
const maxLifetimeSeconds = float64(math.MaxInt64) / float64(time.Second)

// Lifetime is a duration accepted either as a Go duration string ("90s",
// "2m") or as a number of seconds.
type Lifetime struct {
	time.Duration
	Set bool
}

func (l *Lifetime) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}

	var secs float64
	if err := json.Unmarshal(b, &secs); err == nil {
		if secs < 0 {
			return fmt.Errorf("lifetime must not be negative")
		}
		if secs >= maxLifetimeSeconds {
			return fmt.Errorf("lifetime %g seconds is too large", secs)
		}
		l.Duration, l.Set = time.Duration(secs*float64(time.Second)), true
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("lifetime must be a duration string or seconds")
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("lifetime: %w", err)
	}
	if d < 0 {
		return fmt.Errorf("lifetime must not be negative")
	}
	l.Duration, l.Set = d, true
	return nil
}

// InsertRequest is the body of POST /api/v1/entries.
type InsertRequest struct {
	Payload  string   `json:"payload"`
	Lifetime Lifetime `json:"lifetime"`
}

// InsertResponse is returned by POST /api/v1/entries.
type InsertResponse struct {
	ID       string        `json:"id"`
	Lifetime time.Duration `json:"lifetime"`
}

// ActionResponse is returned by POST /api/v1/collector/{action}.
type ActionResponse struct {
	Action  string                `json:"action"`
	Removed *int                  `json:"removed,omitempty"` // sweep only
	Status  types.CollectorStatus `json:"status"`
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
