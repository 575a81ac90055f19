package listener

import (
	"context"
	"testing"
	"time"

	"github.com/grovetools/layman/errors"
	"github.com/grovetools/layman/internal/daemon/queue"
	"github.com/grovetools/layman/logging"
	"github.com/grovetools/layman/pkg/compositor"
	"github.com/grovetools/layman/pkg/compositor/mocks"
	"github.com/grovetools/layman/pkg/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccept(t *testing.T) {
	tests := []struct {
		ev   compositor.Event
		want bool
	}{
		{compositor.Event{Type: compositor.WindowEvent, Change: "new"}, true},
		{compositor.Event{Type: compositor.WindowEvent, Change: "focus"}, true},
		{compositor.Event{Type: compositor.WindowEvent, Change: "title"}, false},
		{compositor.Event{Type: compositor.WindowEvent, Change: "fullscreen_mode"}, false},
		{compositor.Event{Type: compositor.WorkspaceEvent, Change: "init"}, true},
		{compositor.Event{Type: compositor.WorkspaceEvent, Change: "focus"}, false},
		{compositor.Event{Type: compositor.BindingEvent, Change: "run"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.ev.Key(), func(t *testing.T) {
			assert.Equal(t, tt.want, Accept(tt.ev))
		})
	}
}

func TestRunForwardsAcceptedEvents(t *testing.T) {
	src := make(chan compositor.Event, 4)
	client := mocks.NewMockClient(mocks.Root())
	var subscribed []compositor.EventType
	client.SubscribeFunc = func(ctx context.Context, types ...compositor.EventType) (<-chan compositor.Event, error) {
		subscribed = types
		return src, nil
	}

	q := queue.New(8)
	l := New(client, q, logging.NewLogger("test"))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, l.Arm(ctx))
	assert.Equal(t, Subscriptions, subscribed)

	src <- compositor.Event{Type: compositor.WindowEvent, Change: "title", Container: &tree.Node{ID: 1}}
	src <- compositor.Event{Type: compositor.WindowEvent, Change: "new", Container: &tree.Node{ID: 2}}
	src <- compositor.Event{Type: compositor.WorkspaceEvent, Change: "init", Current: &tree.Node{Name: "3"}}

	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	first := receive(t, q)
	assert.Equal(t, int64(2), first.Event.ContainerID())
	second := receive(t, q)
	assert.Equal(t, "init", second.Event.Change)

	cancel()
	assert.NoError(t, <-done)
}

func TestRunReportsLostSubscription(t *testing.T) {
	src := make(chan compositor.Event)
	client := mocks.NewMockClient(mocks.Root())
	client.SubscribeFunc = func(ctx context.Context, types ...compositor.EventType) (<-chan compositor.Event, error) {
		return src, nil
	}
	close(src)

	err := New(client, queue.New(1), logging.NewLogger("test")).Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeIPCFailed))
}

func receive(t *testing.T, q *queue.Queue) *queue.EventMessage {
	t.Helper()
	select {
	case m := <-q.C():
		return m.(*queue.EventMessage)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for queued event")
		return nil
	}
}
