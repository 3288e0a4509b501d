package feed

import (
	"context"
	"sync"
)

// Executor is the context completions are delivered on.
type Executor interface {
	Post(fn func())
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(fn func())

func (f ExecutorFunc) Post(fn func()) { f(fn) }

// Immediate runs callbacks on whichever goroutine produced the result.
var Immediate Executor = ExecutorFunc(func(fn func()) { fn() })

// Loop is a serial event loop. Post may be called from any goroutine and
// never blocks; posted callbacks run one at a time, in order, on the
// goroutine that calls Run.
type Loop struct {
	mu    sync.Mutex
	queue []func()

	// running serializes concurrent Run calls.
	running sync.Mutex

	wake     chan struct{}
	stop     chan struct{}
	stopOnce sync.Once
}

func NewLoop() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
		stop: make(chan struct{}),
	}
}

func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Run executes posted callbacks until ctx is done or Stop is called.
// Callbacks still queued at that point are run before Run returns.
func (l *Loop) Run(ctx context.Context) {
	l.running.Lock()
	defer l.running.Unlock()

	for {
		l.drain()
		select {
		case <-ctx.Done():
			l.drain()
			return
		case <-l.stop:
			l.drain()
			return
		case <-l.wake:
		}
	}
}

// Stop makes Run return after draining. A stopped loop stays stopped:
// later Run calls only drain the queue.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// Pending reports how many callbacks are queued.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

func (l *Loop) drain() {
	for {
		l.mu.Lock()
		if len(l.queue) == 0 {
			l.mu.Unlock()
			return
		}
		fn := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()

		fn()
	}
}
