// Package recall remembers submitted inputs so they can be brought back with a key press.
package recall

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/malonaz/shopchat/internal/debug"
	"github.com/malonaz/shopchat/internal/kv"
)

const (
	// Key under which the entries are stored.
	Key            = "chatbot_input_recall"
	defaultMaxSize = 100
)

// Recall manages input history persisted on a storage medium.
type Recall struct {
	mu      sync.Mutex
	medium  kv.Medium
	maxSize int
	entries []string
	index   int    // Current position in history (-1 means new input)
	current string // Stores current input when navigating history
}

// New loads the entries stored on medium. A non-positive maxSize uses the default.
func New(medium kv.Medium, maxSize int) *Recall {
	if maxSize <= 0 {
		maxSize = defaultMaxSize
	}
	r := &Recall{
		medium:  medium,
		maxSize: maxSize,
		index:   -1,
	}
	r.load()
	return r
}

func (r *Recall) load() {
	value, found, err := r.medium.GetItem(Key)
	if err != nil {
		debug.GetLogger().WithError(err).WithField("key", Key).Warn("loading input recall")
		return
	}
	if !found {
		return
	}
	if err := json.Unmarshal([]byte(value), &r.entries); err != nil {
		debug.GetLogger().WithError(err).Warn("discarding corrupt input recall")
		r.entries = nil
		return
	}
	r.trim()
}

// save writes the entries. Called with the lock held.
func (r *Recall) save() {
	bytes, err := json.Marshal(r.entries)
	if err != nil {
		return
	}
	if err := r.medium.SetItem(Key, string(bytes)); err != nil {
		debug.GetLogger().WithError(err).WithField("key", Key).Warn("saving input recall")
	}
}

func (r *Recall) trim() {
	if len(r.entries) > r.maxSize {
		r.entries = r.entries[len(r.entries)-r.maxSize:]
	}
}

// Add adds a new entry.
func (r *Recall) Add(entry string) {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.index = -1
	r.current = ""
	// Don't add duplicates of the last entry
	if len(r.entries) > 0 && r.entries[len(r.entries)-1] == entry {
		return
	}
	r.entries = append(r.entries, entry)
	r.trim()
	r.save()
}

// Entries returns a copy of the entries, oldest first.
func (r *Recall) Entries() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.entries...)
}

// Previous returns the previous entry.
// currentInput is the current input content (saved when first navigating).
func (r *Recall) Previous(currentInput string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.entries) == 0 {
		return "", false
	}

	// If we're at the newest position, save current input
	if r.index == -1 {
		r.current = currentInput
		r.index = len(r.entries) - 1
	} else if r.index > 0 {
		r.index--
	} else {
		// Already at oldest entry
		return r.entries[0], false
	}

	return r.entries[r.index], true
}

// Next returns the next entry (toward present).
func (r *Recall) Next() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.index == -1 {
		return "", false
	}

	r.index++
	if r.index >= len(r.entries) {
		// Return to current input
		r.index = -1
		return r.current, true
	}
	return r.entries[r.index], true
}

// Reset resets the navigation index (call when input is modified).
func (r *Recall) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.index = -1
	r.current = ""
}
