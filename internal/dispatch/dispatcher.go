package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"postwatch/pkg/logger"
)

const (
	// DefaultQueueSize bounds how many updates a single chat may have
	// waiting before further ones are dropped
	DefaultQueueSize = 16

	// DefaultIdleAfter is how long a chat queue may sit empty before its
	// goroutine is reaped
	DefaultIdleAfter = 5 * time.Minute
)

// Job is one unit of chat work. Jobs for the same chat run strictly in
// submission order; jobs for different chats run concurrently.
type Job func(ctx context.Context)

// Dispatcher routes jobs to per-chat FIFO queues, each drained by its
// own goroutine.
type Dispatcher struct {
	queueSize int
	idleAfter time.Duration
	logger    logger.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	queues  map[int64]chan Job
	stopped bool
	wg      sync.WaitGroup
}

// New creates a dispatcher. Zero values for queueSize and idleAfter
// select the defaults.
func New(queueSize int, idleAfter time.Duration, log logger.Logger) *Dispatcher {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if idleAfter <= 0 {
		idleAfter = DefaultIdleAfter
	}
	if log == nil {
		log = logger.GetLogger()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Dispatcher{
		queueSize: queueSize,
		idleAfter: idleAfter,
		logger:    log,
		ctx:       ctx,
		cancel:    cancel,
		queues:    make(map[int64]chan Job),
	}
}

// Submit enqueues a job for the given chat. When the chat's queue is
// full the job is dropped with a warning rather than blocking the
// polling loop.
func (d *Dispatcher) Submit(chatID int64, job Job) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return fmt.Errorf("dispatcher is shutting down")
	}

	queue, ok := d.queues[chatID]
	if !ok {
		queue = make(chan Job, d.queueSize)
		d.queues[chatID] = queue
		d.wg.Add(1)
		go d.drain(chatID, queue)

		d.logger.DebugWithFields("chat queue started", map[string]interface{}{
			"chat_id": chatID,
		})
	}

	select {
	case queue <- job:
		return nil
	default:
		d.logger.WarnWithFields("chat queue full, dropping update", map[string]interface{}{
			"chat_id":    chatID,
			"queue_size": d.queueSize,
		})
		return fmt.Errorf("queue full for chat %d", chatID)
	}
}

// Stop drains all queues, waits for in-flight jobs to finish and then
// cancels the job context.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	for _, queue := range d.queues {
		close(queue)
	}
	d.mu.Unlock()

	d.wg.Wait()
	d.cancel()

	d.logger.Info("dispatcher stopped")
}

// ActiveChats returns the number of chats with a live queue.
func (d *Dispatcher) ActiveChats() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queues)
}

// drain runs jobs for one chat in FIFO order until the queue is closed
// or sits idle long enough to be reaped.
func (d *Dispatcher) drain(chatID int64, queue chan Job) {
	defer d.wg.Done()

	idle := time.NewTimer(d.idleAfter)
	defer idle.Stop()

	for {
		select {
		case job, ok := <-queue:
			if !ok {
				return
			}
			job(d.ctx)

			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(d.idleAfter)

		case <-idle.C:
			// Reap only if nothing arrived between the timer firing and
			// taking the lock. Submissions hold the lock while enqueuing,
			// so an empty queue here cannot gain a job we would lose.
			d.mu.Lock()
			if d.stopped {
				d.mu.Unlock()
				continue
			}
			if len(queue) == 0 {
				delete(d.queues, chatID)
				d.mu.Unlock()

				d.logger.DebugWithFields("chat queue reaped", map[string]interface{}{
					"chat_id": chatID,
				})
				return
			}
			d.mu.Unlock()
			idle.Reset(d.idleAfter)
		}
	}
}
