package store

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/malonaz/shopchat/internal/kv"
	"github.com/malonaz/shopchat/model"
)

var epoch = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestLoadEmpty(t *testing.T) {
	s := New(kv.NewMemory(), WithClock(fixedClock(epoch)))
	history := s.Load()
	assert.Empty(t, history.Messages)
	assert.Equal(t, "", history.SessionID)
	assert.Equal(t, epoch, history.LastUpdated)
}

func TestLoadCorrupt(t *testing.T) {
	medium := kv.NewMemory()
	require.NoError(t, medium.SetItem(HistoryKey, "{not json"))
	require.NoError(t, medium.SetItem(SessionKey, "s-9"))

	s := New(medium, WithClock(fixedClock(epoch)))
	history := s.Load()
	assert.Empty(t, history.Messages)
	assert.Equal(t, "s-9", history.SessionID)
	assert.False(t, s.Degraded())
}

func TestAppendPreservesOrder(t *testing.T) {
	s := New(kv.NewMemory())
	texts := []string{"a", "b", "c", "d", "e"}
	for _, text := range texts {
		s.Append(model.NewUserMessage(text, time.Now()))
	}

	history := s.Load()
	require.Len(t, history.Messages, len(texts))
	for i, text := range texts {
		assert.Equal(t, text, history.Messages[i].Text)
		if i > 0 {
			assert.Less(t, history.Messages[i-1].LocalID, history.Messages[i].LocalID)
			assert.False(t, history.Messages[i].CreatedAt.Before(history.Messages[i-1].CreatedAt))
		}
	}
}

func TestAppendClampsTimestamps(t *testing.T) {
	s := New(kv.NewMemory())
	s.Append(model.NewUserMessage("later", epoch.Add(time.Minute)))
	stored := s.Append(model.NewBotMessage("earlier", epoch, nil))
	assert.Equal(t, epoch.Add(time.Minute), stored.CreatedAt)
}

func TestAppendReturnsCopy(t *testing.T) {
	s := New(kv.NewMemory())
	products := []model.ProductSuggestion{{ID: 7, Name: "Phone"}}
	stored := s.Append(model.NewBotMessage("here", epoch, products))
	stored.Products[0].Name = "mutated"
	stored.ProductRefs[0] = 99

	history := s.Load()
	assert.Equal(t, "Phone", history.Messages[0].Products[0].Name)
	assert.Equal(t, []int64{7}, history.Messages[0].ProductRefs)
}

func TestRoundTripAcrossInstances(t *testing.T) {
	medium, err := kv.OpenSQLite(filepath.Join(t.TempDir(), "chat.db"))
	require.NoError(t, err)
	defer medium.Close()

	first := New(medium)
	first.SetSessionID("s-1")
	const n = 12
	for i := 0; i < n; i++ {
		sender := model.NewUserMessage
		if i%2 == 1 {
			sender = func(text string, t time.Time) model.Message { return model.NewBotMessage(text, t, nil) }
		}
		first.Append(sender(fmt.Sprintf("m%d", i), epoch.Add(time.Duration(i)*time.Second)))
	}
	expected := first.Load()

	second := New(medium)
	history := second.Load()
	require.Len(t, history.Messages, n)
	assert.Equal(t, "s-1", history.SessionID)
	for i := range expected.Messages {
		assert.Equal(t, expected.Messages[i].Text, history.Messages[i].Text)
		assert.Equal(t, expected.Messages[i].Sender, history.Messages[i].Sender)
		assert.True(t, expected.Messages[i].CreatedAt.Equal(history.Messages[i].CreatedAt))
		assert.Equal(t, expected.Messages[i].LocalID, history.Messages[i].LocalID)
	}
}

func TestClear(t *testing.T) {
	medium := kv.NewMemory()
	s := New(medium)
	s.SetSessionID("s-1")
	s.Append(model.NewUserMessage("hi", epoch))

	s.Clear()
	history := s.Load()
	assert.Empty(t, history.Messages)
	_, found := s.SessionID()
	assert.False(t, found)

	_, found, err := medium.GetItem(HistoryKey)
	require.NoError(t, err)
	assert.False(t, found)
	_, found, err = medium.GetItem(SessionKey)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSessionID(t *testing.T) {
	s := New(kv.NewMemory())
	_, found := s.SessionID()
	assert.False(t, found)

	s.SetSessionID("abc")
	id, found := s.SessionID()
	assert.True(t, found)
	assert.Equal(t, "abc", id)

	s.RemoveSessionID()
	_, found = s.SessionID()
	assert.False(t, found)
}

func TestPersistedShape(t *testing.T) {
	medium := kv.NewMemory()
	s := New(medium, WithClock(fixedClock(epoch)))
	s.SetSessionID("s-1")
	s.Append(model.NewUserMessage("hello", epoch))

	value, found, err := medium.GetItem(HistoryKey)
	require.NoError(t, err)
	require.True(t, found)
	payload := map[string]any{}
	require.NoError(t, json.Unmarshal([]byte(value), &payload))
	assert.Equal(t, "s-1", payload["sessionId"])
	assert.Contains(t, payload, "lastUpdated")
	messages := payload["messages"].([]any)
	require.Len(t, messages, 1)
	assert.Equal(t, "hello", messages[0].(map[string]any)["message"])
	assert.Equal(t, "USER", messages[0].(map[string]any)["sender"])
}

func TestStorageFailureKeepsConversation(t *testing.T) {
	medium := kv.NewMemory()
	s := New(medium)
	s.Append(model.NewUserMessage("before", epoch))

	medium.Disable()
	s.Append(model.NewUserMessage("during", epoch))
	assert.True(t, s.Degraded())
	history := s.Load()
	require.Len(t, history.Messages, 2)
	assert.Equal(t, "during", history.Messages[1].Text)

	medium.Enable()
	s.Append(model.NewUserMessage("after", epoch))
	assert.False(t, s.Degraded())

	reloaded := New(medium).Load()
	require.Len(t, reloaded.Messages, 3)
	assert.Equal(t, "during", reloaded.Messages[1].Text)
}

func TestQuotaExceeded(t *testing.T) {
	s := New(kv.NewMemory(kv.WithQuota(400)))
	for i := 0; i < 20; i++ {
		s.Append(model.NewUserMessage(fmt.Sprintf("message number %d", i), epoch))
	}
	assert.True(t, s.Degraded())
	assert.Len(t, s.Load().Messages, 20)
}

func TestFailedHistoryWriteSurvivesSessionWrite(t *testing.T) {
	s := New(kv.NewMemory(kv.WithQuota(600)))
	s.Append(model.NewUserMessage("first", epoch))
	s.Append(model.NewUserMessage(strings.Repeat("x", 700), epoch))
	require.True(t, s.Degraded())

	s.SetSessionID("s-1")
	assert.True(t, s.Degraded())
	s.Append(model.NewBotMessage("reply", epoch, nil))

	history := s.Load()
	require.Len(t, history.Messages, 3)
	assert.Equal(t, "first", history.Messages[0].Text)
	assert.Equal(t, strings.Repeat("x", 700), history.Messages[1].Text)
	assert.Equal(t, "reply", history.Messages[2].Text)
}

func TestPendingHistoryFlushesAfterSessionWrite(t *testing.T) {
	medium := kv.NewMemory()
	s := New(medium)
	s.Append(model.NewUserMessage("before", epoch))

	medium.Disable()
	s.Append(model.NewUserMessage("during", epoch))
	medium.Enable()

	s.SetSessionID("s-1")
	assert.True(t, s.Degraded())
	require.Len(t, s.Load().Messages, 2)

	s.Append(model.NewBotMessage("after", epoch, nil))
	assert.False(t, s.Degraded())

	reloaded := New(medium).Load()
	require.Len(t, reloaded.Messages, 3)
	assert.Equal(t, []string{"before", "during", "after"}, []string{
		reloaded.Messages[0].Text, reloaded.Messages[1].Text, reloaded.Messages[2].Text,
	})
	id, ok := New(medium).SessionID()
	assert.True(t, ok)
	assert.Equal(t, "s-1", id)
}
