package actorutil

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/primetalk/goio/io"
)

// SafeBackgroundTask runs a blocking call off the actor goroutine and delivers
// the result (or its recovered error) as a message.
type SafeBackgroundTask[T any] struct {
	root    *actor.RootContext
	fn      func(context.Context) (*T, error)
	timeout *time.Duration
	onError func(error)
	recover func(error) T
}

// TaskDone is the result of tasks that only report success.
type TaskDone struct{}

func NewBackgroundTask[T any](ctx actor.Context, fn func(context.Context) (*T, error)) *SafeBackgroundTask[T] {
	return &SafeBackgroundTask[T]{
		root: ctx.ActorSystem().Root,
		fn:   fn,
	}
}

func NewBackgroundTaskErr(ctx actor.Context, fn func(context.Context) error) *SafeBackgroundTask[TaskDone] {
	return NewBackgroundTask(ctx, func(c context.Context) (*TaskDone, error) {
		if err := fn(c); err != nil {
			return nil, err
		}
		return &TaskDone{}, nil
	})
}

func (t *SafeBackgroundTask[T]) WithTimeout(timeout time.Duration) *SafeBackgroundTask[T] {
	t.timeout = &timeout
	return t
}

// OnError runs on the task goroutine, it must not touch actor state.
func (t *SafeBackgroundTask[T]) OnError(fn func(error)) *SafeBackgroundTask[T] {
	t.onError = fn
	return t
}

func (t *SafeBackgroundTask[T]) Recover(fn func(error) T) *SafeBackgroundTask[T] {
	t.recover = fn
	return t
}

func (t *SafeBackgroundTask[T]) PipeTo(pid *actor.PID) {
	go func() {
		if value, ok := t.Run(); ok {
			t.root.Send(pid, value)
		}
	}()
}

// Detach runs the task for its side effects only.
func (t *SafeBackgroundTask[T]) Detach() {
	go t.Run()
}

// Run blocks until the task finishes. ok is false when the error was not recovered.
func (t *SafeBackgroundTask[T]) Run() (T, bool) {
	ctx := context.Background()
	cancel := context.CancelFunc(func() {})
	if t.timeout != nil {
		ctx, cancel = context.WithTimeout(ctx, *t.timeout)
	}
	defer cancel()

	bgFn := io.Eval(func() (*T, error) { return t.fn(ctx) })
	bg := io.Map(bgFn, func(a *T) T {
		if a != nil {
			return *a
		}
		panic(errors.New("result is nil"))
	})
	if t.timeout != nil {
		bg = io.WithTimeout[T](*t.timeout)(bg)
	}
	result := io.RunSync(bg)
	if result.Error == nil {
		return result.Value, true
	}
	err := result.Error
	if ctx.Err() != nil && !errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
	}
	if t.recover != nil {
		return t.recover(err), true
	}
	if t.onError != nil {
		t.onError(err)
	}
	var zero T
	return zero, false
}
