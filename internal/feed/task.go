package feed

import "context"

// Result carries either a value or the error that prevented producing it.
// Err is always an *APIError when set by this package.
type Result[T any] struct {
	Value T
	Err   error
}

func (r Result[T]) Get() (T, error) {
	return r.Value, r.Err
}

// Task is the pending outcome of one fetch. It completes exactly once.
type Task[T any] struct {
	done   chan struct{}
	result Result[T]
}

func newTask[T any]() *Task[T] {
	return &Task[T]{done: make(chan struct{})}
}

func (t *Task[T]) succeed(v T) {
	t.result = Result[T]{Value: v}
	close(t.done)
}

func (t *Task[T]) fail(err *APIError) {
	t.result = Result[T]{Err: err}
	close(t.done)
}

// Done is closed once the result is available.
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task completes or ctx is done.
func (t *Task[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-t.done:
		return t.result.Get()
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Then schedules fn onto exec once the task has completed.
func (t *Task[T]) Then(exec Executor, fn func(Result[T])) {
	go func() {
		<-t.done
		r := t.result
		exec.Post(func() { fn(r) })
	}()
}
