package feed

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTaskWait(t *testing.T) {
	task := newTask[int]()
	go task.succeed(42)

	v, err := task.Wait(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 42 {
		t.Errorf("expected 42, got %d", v)
	}
}

func TestTaskWaitFailure(t *testing.T) {
	task := newTask[int]()
	task.fail(statusError(KindServer, 502))

	_, err := task.Wait(context.Background())
	if !errors.Is(err, ErrServer) {
		t.Fatalf("expected server error, got %v", err)
	}
}

func TestTaskWaitContextDone(t *testing.T) {
	task := newTask[int]()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := task.Wait(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}

	select {
	case <-task.Done():
		t.Error("expected task to still be pending")
	default:
	}
}

func TestTaskThenPostsToExecutor(t *testing.T) {
	task := newTask[string]()

	posted := make(chan func(), 1)
	exec := ExecutorFunc(func(fn func()) { posted <- fn })

	got := make(chan Result[string], 1)
	task.Then(exec, func(r Result[string]) { got <- r })

	select {
	case <-posted:
		t.Fatal("continuation posted before completion")
	case <-time.After(20 * time.Millisecond):
	}

	task.succeed("done")

	var fn func()
	select {
	case fn = <-posted:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for continuation to be posted")
	}

	select {
	case <-got:
		t.Fatal("continuation ran outside the executor")
	default:
	}

	fn()
	r := <-got
	if r.Value != "done" || r.Err != nil {
		t.Errorf("unexpected result %+v", r)
	}
}
