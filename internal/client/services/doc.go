// Package services contains the user-facing application services of the
// device: consultations (submit, history, manual sync), reference lookups and
// the signed-in profile. Each service decides between the remote service and
// local data based on the current connectivity state.
package services

import "context"

// Connectivity reports the current network state.
type Connectivity interface {
	Online() bool
}

// Drainer runs one sync queue drain. Exclusive runs fn with drains held off.
type Drainer interface {
	Drain(ctx context.Context) (int, error)
	Exclusive(ctx context.Context, fn func(ctx context.Context) error) error
}

// StaticConnectivity is a fixed Connectivity, handy for one-shot commands that
// probe once at startup.
type StaticConnectivity bool

func (s StaticConnectivity) Online() bool { return bool(s) }
