package daemon

import (
	"context"
	"log/slog"
	"sync"

	ferrors "git.home.luguber.info/inful/focusd/internal/foundation/errors"
	"git.home.luguber.info/inful/focusd/internal/logfields"
)

// Loop serializes every command onto a single goroutine that owns the Controller.
// A reconciliation pass therefore never overlaps another, and the state needs no lock.
type Loop struct {
	ctrl     *Controller
	cmds     chan Command
	done     chan struct{}
	stopOnce sync.Once
	stop     chan struct{}
}

// NewLoop returns a loop for ctrl with a command buffer of size buffer.
func NewLoop(ctrl *Controller, buffer int) *Loop {
	if buffer <= 0 {
		buffer = 16
	}
	return &Loop{
		ctrl: ctrl,
		cmds: make(chan Command, buffer),
		done: make(chan struct{}),
		stop: make(chan struct{}),
	}
}

// Run drains commands until ctx ends or Stop is called. It must be called once.
func (l *Loop) Run(ctx context.Context) {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-l.stop:
			return
		case cmd := <-l.cmds:
			l.execute(ctx, cmd)
		}
	}
}

func (l *Loop) execute(ctx context.Context, cmd Command) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("Command panicked", logfields.Command(cmd.Name()), slog.Any("panic", rec))
		}
	}()
	slog.Debug("Executing command", logfields.Command(cmd.Name()))
	cmd.execute(ctx, l.ctrl)
}

// Stop ends Run and waits for the in-flight command to finish.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
	<-l.done
}

// Submit enqueues cmd. It fails when ctx ends first or the loop has stopped.
func (l *Loop) Submit(ctx context.Context, cmd Command) error {
	select {
	case <-l.done:
		return errLoopStopped(cmd)
	default:
	}
	select {
	case l.cmds <- cmd:
		return nil
	case <-l.done:
		return errLoopStopped(cmd)
	case <-ctx.Done():
		return ferrors.DaemonError("command not accepted").
			WithCause(ctx.Err()).
			WithContext("command", cmd.Name()).
			Build()
	}
}

func errLoopStopped(cmd Command) error {
	return ferrors.DaemonError("controller is not running").WithContext("command", cmd.Name()).Build()
}

// call submits the command built around a fresh reply channel and waits for the answer.
func call[T any](ctx context.Context, l *Loop, build func(chan T) Command) (T, error) {
	var zero T
	ch := make(chan T, 1)
	cmd := build(ch)
	if err := l.Submit(ctx, cmd); err != nil {
		return zero, err
	}
	select {
	case v := <-ch:
		return v, nil
	case <-l.done:
		// The loop may have answered just before stopping.
		select {
		case v := <-ch:
			return v, nil
		default:
		}
		return zero, errLoopStopped(cmd)
	case <-ctx.Done():
		return zero, ferrors.DaemonError("command timed out").
			WithCause(ctx.Err()).
			WithContext("command", cmd.Name()).
			Build()
	}
}
