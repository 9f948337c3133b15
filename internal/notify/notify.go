// Package notify publishes focus state changes so other processes can react without
// polling the status endpoint.
package notify

import (
	"context"
	"time"

	"git.home.luguber.info/inful/focusd/internal/focus"
)

// Transition names what changed.
type Transition string

const (
	TransitionStarted  Transition = "started"
	TransitionStopped  Transition = "stopped"
	TransitionReplaced Transition = "replaced"
	TransitionReset    Transition = "reset"
)

// StateChange is the message published on every transition.
type StateChange struct {
	Transition Transition           `json:"transition"`
	Status     focus.StatusSnapshot `json:"status"`
	Timestamp  time.Time            `json:"timestamp"`
}

// Publisher delivers state changes. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, change StateChange) error
	Close() error
}

// NopPublisher drops every message.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, StateChange) error { return nil }
func (NopPublisher) Close() error                              { return nil }
