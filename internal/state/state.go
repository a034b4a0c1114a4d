// Package state holds the chat window's UI state and fans changes out to observers.
package state

import (
	"sync"

	"github.com/malonaz/shopchat/model"
)

// Machine owns the chatbot UI state.
// Every transition publishes the new snapshot to all subscribers.
type Machine struct {
	mu          sync.Mutex
	state       model.ChatbotState
	subscribers map[*Subscription]struct{}
}

// New returns a machine in the closed state.
func New() *Machine {
	return &Machine{subscribers: map[*Subscription]struct{}{}}
}

// Snapshot returns the current state.
func (m *Machine) Snapshot() model.ChatbotState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe returns a handle that receives the current state immediately, then every change.
// Slow subscribers only see the latest state.
func (m *Machine) Subscribe() *Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()

	subscription := &Subscription{
		machine: m,
		ch:      make(chan model.ChatbotState, 1),
	}
	subscription.ch <- m.state
	m.subscribers[subscription] = struct{}{}
	return subscription
}

// Toggle opens or closes the window. Opening it marks everything read.
func (m *Machine) Toggle() {
	m.update(func(s *model.ChatbotState) bool {
		s.IsOpen = !s.IsOpen
		if s.IsOpen {
			s.HasUnreadMessages = false
			s.UnreadCount = 0
		}
		return true
	})
}

// Open opens the window if it is closed.
func (m *Machine) Open() {
	m.update(func(s *model.ChatbotState) bool {
		if s.IsOpen {
			return false
		}
		s.IsOpen = true
		s.HasUnreadMessages = false
		s.UnreadCount = 0
		return true
	})
}

// Close closes the window if it is open.
func (m *Machine) Close() {
	m.update(func(s *model.ChatbotState) bool {
		if !s.IsOpen {
			return false
		}
		s.IsOpen = false
		return true
	})
}

// BeginReply marks a reply as pending. It returns false if one already is.
func (m *Machine) BeginReply() bool {
	began := false
	m.update(func(s *model.ChatbotState) bool {
		if s.IsTyping {
			return false
		}
		s.IsTyping = true
		began = true
		return true
	})
	return began
}

// EndReply clears the pending reply.
func (m *Machine) EndReply() {
	m.update(func(s *model.ChatbotState) bool {
		if !s.IsTyping {
			return false
		}
		s.IsTyping = false
		return true
	})
}

// NotifyUnread counts a new bot message. Nothing happens while the window is open.
func (m *Machine) NotifyUnread() {
	m.update(func(s *model.ChatbotState) bool {
		if s.IsOpen {
			return false
		}
		s.HasUnreadMessages = true
		s.UnreadCount++
		return true
	})
}

// MarkRead clears the unread badge.
func (m *Machine) MarkRead() {
	m.update(func(s *model.ChatbotState) bool {
		if !s.HasUnreadMessages && s.UnreadCount == 0 {
			return false
		}
		s.HasUnreadMessages = false
		s.UnreadCount = 0
		return true
	})
}

// SetMinimized minimizes or restores the window.
func (m *Machine) SetMinimized(minimized bool) {
	m.update(func(s *model.ChatbotState) bool {
		if s.IsMinimized == minimized {
			return false
		}
		s.IsMinimized = minimized
		return true
	})
}

// update applies fn under the lock and publishes when fn reports a change.
func (m *Machine) update(fn func(*model.ChatbotState) bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !fn(&m.state) {
		return
	}
	for subscription := range m.subscribers {
		subscription.publish(m.state)
	}
}

func (m *Machine) unsubscribe(subscription *Subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subscribers, subscription)
	close(subscription.ch)
}

// Subscription is an observer's handle on the machine.
type Subscription struct {
	machine *Machine
	ch      chan model.ChatbotState
	once    sync.Once
}

// C delivers state snapshots. It is closed by Close.
func (s *Subscription) C() <-chan model.ChatbotState {
	return s.ch
}

// Close releases the subscription. It is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.machine.unsubscribe(s)
	})
}

// publish replaces any undelivered snapshot with state. Called with the machine lock held.
func (s *Subscription) publish(state model.ChatbotState) {
	select {
	case <-s.ch:
	default:
	}
	s.ch <- state
}
