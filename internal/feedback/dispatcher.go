package feedback

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

const deliverTimeout = 15 * time.Second

// Dispatcher moves relay deliveries off the response critical path. A single
// worker goroutine drains a buffered channel; Enqueue never blocks and drops
// the interaction when the queue is full. Failures are logged only.
type Dispatcher struct {
	relay Relay
	queue chan Interaction

	closed    atomic.Bool
	closeOnce sync.Once
	stop      chan struct{}
	done      chan struct{}
}

func NewDispatcher(relay Relay, queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 64
	}
	d := &Dispatcher{
		relay: relay,
		queue: make(chan Interaction, queueSize),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go d.run()
	return d
}

// Enqueue hands the interaction to the worker. Safe to call from the turn
// path: it returns immediately regardless of relay health.
func (d *Dispatcher) Enqueue(interaction Interaction) {
	if d.closed.Load() {
		log.Printf("feedback dispatcher closed, dropping interaction")
		return
	}
	if interaction.Timestamp.IsZero() {
		interaction.Timestamp = time.Now()
	}
	select {
	case d.queue <- interaction:
	default:
		log.Printf("feedback queue full, dropping interaction")
	}
}

// Close stops accepting work and waits for queued deliveries to finish.
// Later Enqueue calls drop their interaction. The queue channel is never
// closed so a racing Enqueue cannot panic.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.stop)
		<-d.done
	})
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for {
		select {
		case interaction := <-d.queue:
			d.deliver(interaction)
		case <-d.stop:
			for {
				select {
				case interaction := <-d.queue:
					d.deliver(interaction)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) deliver(interaction Interaction) {
	ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
	defer cancel()
	if err := d.relay.Record(ctx, interaction); err != nil {
		log.Printf("failed to relay interaction: %v", err)
	}
}
