package daemon

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"git.home.luguber.info/inful/focusd/internal/logfields"
	"git.home.luguber.info/inful/focusd/internal/notify"
)

const notifyPublishTimeout = 5 * time.Second

// Notifier hands state changes to a Publisher off the loop goroutine. When the queue is
// full the change is dropped.
type Notifier struct {
	pub   notify.Publisher
	queue chan notify.StateChange
	wg    sync.WaitGroup
	once  sync.Once
}

// NewNotifier starts the delivery goroutine.
func NewNotifier(pub notify.Publisher, buffer int) *Notifier {
	if buffer <= 0 {
		buffer = 32
	}
	n := &Notifier{pub: pub, queue: make(chan notify.StateChange, buffer)}
	n.wg.Add(1)
	go n.run()
	return n
}

func (n *Notifier) run() {
	defer n.wg.Done()
	for change := range n.queue {
		ctx, cancel := context.WithTimeout(context.Background(), notifyPublishTimeout)
		if err := n.pub.Publish(ctx, change); err != nil {
			slog.Warn("Failed to publish state change",
				slog.String("transition", string(change.Transition)),
				logfields.Error(err))
		}
		cancel()
	}
}

// Enqueue queues change without blocking.
func (n *Notifier) Enqueue(change notify.StateChange) {
	select {
	case n.queue <- change:
	default:
		slog.Warn("State change dropped; publisher queue full", slog.String("transition", string(change.Transition)))
	}
}

// Close drains the queue and closes the publisher. Enqueue must not be called afterwards.
func (n *Notifier) Close() error {
	var err error
	n.once.Do(func() {
		close(n.queue)
		n.wg.Wait()
		err = n.pub.Close()
	})
	return err
}
