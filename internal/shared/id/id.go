// Package id generates identifiers for pipeline runs.
//
// Run IDs are prefixed, time-ordered UUIDv7 strings (run_0190...), so report
// files sort by creation and log lines are greppable.
package id

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RunID identifies one validation or repair pass
type RunID string

// RunPrefix tags run identifiers
const RunPrefix = "run"

// NewRunID generates a new run ID
func NewRunID() RunID {
	u, err := uuid.NewV7()
	if err != nil {
		u = uuid.New()
	}
	return RunID(fmt.Sprintf("%s_%s", RunPrefix, u.String()))
}

func (id RunID) String() string { return string(id) }

// NewTraceID generates a time-ordered trace identifier
func NewTraceID() string {
	u, err := uuid.NewV7()
	if err != nil {
		u = uuid.New()
	}
	return u.String()
}

// NewSpanID generates a short random span identifier
func NewSpanID() string {
	u := uuid.New()
	return strings.ReplaceAll(u.String(), "-", "")[:16]
}

// ParseRunID validates a run ID and returns its UUID part
func ParseRunID(s string) (uuid.UUID, error) {
	rest, ok := strings.CutPrefix(s, RunPrefix+"_")
	if !ok {
		return uuid.Nil, fmt.Errorf("run id %q lacks %q prefix", s, RunPrefix)
	}
	return uuid.Parse(rest)
}

// Timestamp extracts the creation time of a v7 run ID
func Timestamp(s string) (time.Time, error) {
	u, err := ParseRunID(s)
	if err != nil {
		return time.Time{}, err
	}
	if u.Version() != 7 {
		return time.Time{}, fmt.Errorf("run id %q is not time ordered", s)
	}
	sec, nsec := u.Time().UnixTime()
	return time.Unix(sec, nsec), nil
}
