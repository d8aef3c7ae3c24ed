package suggest

import (
	"context"
	"fmt"
)

// Unavailable stands in when no backend can be built. Every call fails
// with ErrNotConfigured and the reason.
type Unavailable struct {
	reason string
}

// NewUnavailable returns a provider that always fails with reason.
func NewUnavailable(reason string) *Unavailable {
	return &Unavailable{reason: reason}
}

// Name implements Provider.
func (u *Unavailable) Name() string { return NameNone }

// Suggest implements Provider.
func (u *Unavailable) Suggest(context.Context, Request) (*Reply, error) {
	return nil, fmt.Errorf("%w: %s", ErrNotConfigured, u.reason)
}
