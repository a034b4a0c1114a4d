package state

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/malonaz/shopchat/model"
)

func latest(t *testing.T, subscription *Subscription) model.ChatbotState {
	t.Helper()
	select {
	case state, ok := <-subscription.C():
		require.True(t, ok)
		return state
	default:
		t.Fatal("no state delivered")
		return model.ChatbotState{}
	}
}

func TestSubscribeReceivesCurrent(t *testing.T) {
	machine := New()
	machine.Toggle()
	subscription := machine.Subscribe()
	defer subscription.Close()
	assert.True(t, latest(t, subscription).IsOpen)
}

func TestLatestWins(t *testing.T) {
	machine := New()
	subscription := machine.Subscribe()
	defer subscription.Close()

	machine.NotifyUnread()
	machine.NotifyUnread()
	machine.NotifyUnread()
	state := latest(t, subscription)
	assert.Equal(t, 3, state.UnreadCount)
	assert.True(t, state.HasUnreadMessages)
}

func TestOpenResetsUnread(t *testing.T) {
	machine := New()
	for i := 0; i < 5; i++ {
		machine.NotifyUnread()
	}
	assert.Equal(t, 5, machine.Snapshot().UnreadCount)

	machine.Toggle()
	state := machine.Snapshot()
	assert.True(t, state.IsOpen)
	assert.False(t, state.HasUnreadMessages)
	assert.Zero(t, state.UnreadCount)
}

func TestNotifyUnreadIgnoredWhileOpen(t *testing.T) {
	machine := New()
	machine.Open()
	machine.NotifyUnread()
	assert.Zero(t, machine.Snapshot().UnreadCount)
	assert.False(t, machine.Snapshot().HasUnreadMessages)
}

func TestBeginReply(t *testing.T) {
	machine := New()
	assert.True(t, machine.BeginReply())
	assert.False(t, machine.BeginReply())
	assert.True(t, machine.Snapshot().IsTyping)
	machine.EndReply()
	assert.False(t, machine.Snapshot().IsTyping)
	assert.True(t, machine.BeginReply())
}

func TestBeginReplyConcurrent(t *testing.T) {
	machine := New()
	var wg sync.WaitGroup
	var mu sync.Mutex
	began := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if machine.BeginReply() {
				mu.Lock()
				began++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, began)
}

func TestMarkReadAndMinimize(t *testing.T) {
	machine := New()
	machine.NotifyUnread()
	machine.MarkRead()
	assert.Zero(t, machine.Snapshot().UnreadCount)

	machine.SetMinimized(true)
	assert.True(t, machine.Snapshot().IsMinimized)
	machine.SetMinimized(false)
	assert.False(t, machine.Snapshot().IsMinimized)
}

func TestUnchangedStateIsNotPublished(t *testing.T) {
	machine := New()
	subscription := machine.Subscribe()
	defer subscription.Close()
	latest(t, subscription)

	machine.Close()
	machine.EndReply()
	machine.MarkRead()
	select {
	case <-subscription.C():
		t.Fatal("unexpected publication")
	default:
	}
}

func TestCloseIdempotent(t *testing.T) {
	machine := New()
	subscription := machine.Subscribe()
	subscription.Close()
	subscription.Close()

	machine.Toggle()
	for range subscription.C() {
		// Drain the snapshot delivered before Close.
	}
}
