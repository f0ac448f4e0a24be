package notifier

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu    sync.Mutex
	texts []string
	fail  map[string]bool
	block chan struct{}
}

func (r *recordingSender) Send(ctx context.Context, text string) error {
	if r.block != nil {
		select {
		case <-r.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail[text] {
		return errors.New("telegram down")
	}
	r.texts = append(r.texts, text)
	return nil
}

func (r *recordingSender) sent() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.texts...)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDispatcherKeepsOrder(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(sender, newTestLogger())

	for _, msg := range []string{"first", "second", "third"} {
		d.Notify(msg)
	}
	require.NoError(t, d.Close(context.Background()))
	require.Equal(t, []string{"first", "second", "third"}, sender.sent())
}

func TestDispatcherFailureDoesNotStopQueue(t *testing.T) {
	sender := &recordingSender{fail: map[string]bool{"broken": true}}
	d := NewDispatcher(sender, newTestLogger())

	d.Notify("broken")
	d.Notify("after")
	require.NoError(t, d.Close(context.Background()))
	require.Equal(t, []string{"after"}, sender.sent())
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	sender := &recordingSender{block: make(chan struct{})}
	d := NewDispatcher(sender, newTestLogger(), WithQueueSize(1))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10; i++ {
			d.Notify("msg")
		}
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked")
	}

	close(sender.block)
	require.NoError(t, d.Close(context.Background()))
	require.LessOrEqual(t, len(sender.sent()), 2)
}

func TestDispatcherSendTimeout(t *testing.T) {
	sender := &recordingSender{block: make(chan struct{})}
	d := NewDispatcher(sender, newTestLogger(), WithSendTimeout(10*time.Millisecond))

	d.Notify("stuck")
	require.NoError(t, d.Close(context.Background()))
	require.Empty(t, sender.sent())
}

func TestDispatcherNotifyAfterClose(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(sender, newTestLogger())
	require.NoError(t, d.Close(context.Background()))
	require.NoError(t, d.Close(context.Background()))

	d.Notify("late")
	require.Empty(t, sender.sent())
}

func TestDispatcherCloseHonorsDeadline(t *testing.T) {
	sender := &recordingSender{block: make(chan struct{})}
	defer close(sender.block)
	d := NewDispatcher(sender, newTestLogger())
	d.Notify("slow")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, d.Close(ctx), context.DeadlineExceeded)
}
