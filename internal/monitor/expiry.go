package monitor

import (
	"container/heap"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

type expiryEntry struct {
	id       string
	deadline time.Time
	index    int
}

// expiryQueue is a min-heap of entries ordered by deadline
type expiryQueue []*expiryEntry

func (q expiryQueue) Len() int { return len(q) }

func (q expiryQueue) Less(i, j int) bool {
	return q[i].deadline.Before(q[j].deadline)
}

func (q expiryQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *expiryQueue) Push(x interface{}) {
	e := x.(*expiryEntry)
	e.index = len(*q)
	*q = append(*q, e)
}

func (q *expiryQueue) Pop() interface{} {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*q = old[:n-1]
	return e
}

// ExpiryWheel schedules one-shot removals of alerts. All pending deadlines
// share a single timer armed for the earliest one.
type ExpiryWheel struct {
	logger   *zap.Logger
	clock    clock.Clock
	onExpire func(id string)

	mu      sync.Mutex
	queue   expiryQueue
	byID    map[string]*expiryEntry
	running bool
	stopped bool

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
}

// NewExpiryWheel creates a wheel calling onExpire for each due ID
func NewExpiryWheel(clk clock.Clock, onExpire func(id string), logger *zap.Logger) *ExpiryWheel {
	return &ExpiryWheel{
		logger:   logger.Named("expiry"),
		clock:    clk,
		onExpire: onExpire,
		byID:     make(map[string]*expiryEntry),
		wake:     make(chan struct{}, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs the timer loop
func (w *ExpiryWheel) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running || w.stopped {
		return
	}
	w.running = true
	go w.run()
}

// Stop cancels every pending deadline and waits for the loop to exit
func (w *ExpiryWheel) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	wasRunning := w.running
	pending := len(w.queue)
	w.queue = nil
	w.byID = make(map[string]*expiryEntry)
	w.mu.Unlock()

	close(w.stop)
	if wasRunning {
		<-w.done
	}
	w.logger.Debug("Expiry wheel stopped", zap.Int("cancelled", pending))
}

// Schedule arranges for id to expire after d. Scheduling an ID again moves
// its deadline. Calls after Stop are ignored.
func (w *ExpiryWheel) Schedule(id string, d time.Duration) {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	deadline := w.clock.Now().Add(d)
	if e, ok := w.byID[id]; ok {
		e.deadline = deadline
		heap.Fix(&w.queue, e.index)
	} else {
		e := &expiryEntry{id: id, deadline: deadline}
		heap.Push(&w.queue, e)
		w.byID[id] = e
	}
	w.mu.Unlock()
	w.notify()
}

// Cancel drops the pending deadline for id, if any
func (w *ExpiryWheel) Cancel(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	e, ok := w.byID[id]
	if !ok {
		return false
	}
	heap.Remove(&w.queue, e.index)
	delete(w.byID, id)
	return true
}

// Pending returns the number of scheduled deadlines
func (w *ExpiryWheel) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.queue)
}

func (w *ExpiryWheel) notify() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// next returns the earliest deadline
func (w *ExpiryWheel) next() (time.Time, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.queue) == 0 {
		return time.Time{}, false
	}
	return w.queue[0].deadline, true
}

// popDue removes and returns every ID whose deadline is not after now
func (w *ExpiryWheel) popDue(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var ids []string
	for len(w.queue) > 0 && !w.queue[0].deadline.After(now) {
		e := heap.Pop(&w.queue).(*expiryEntry)
		delete(w.byID, e.id)
		ids = append(ids, e.id)
	}
	return ids
}

func (w *ExpiryWheel) run() {
	defer close(w.done)

	for {
		var timer *clock.Timer
		var fire <-chan time.Time

		if deadline, ok := w.next(); ok {
			d := deadline.Sub(w.clock.Now())
			if d <= 0 {
				w.expire()
				continue
			}
			timer = w.clock.Timer(d)
			fire = timer.C
		}

		select {
		case <-w.stop:
			if timer != nil {
				timer.Stop()
			}
			return
		case <-w.wake:
			if timer != nil {
				timer.Stop()
			}
		case <-fire:
			w.expire()
		}
	}
}

func (w *ExpiryWheel) expire() {
	for _, id := range w.popDue(w.clock.Now()) {
		w.onExpire(id)
	}
}
