package session

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/malonaz/shopchat/chat"
	"github.com/malonaz/shopchat/internal/chatapi"
	"github.com/malonaz/shopchat/internal/configuration"
	"github.com/malonaz/shopchat/internal/kv"
	"github.com/malonaz/shopchat/internal/recall"
	"github.com/malonaz/shopchat/internal/state"
	"github.com/malonaz/shopchat/model"
	chatsession "github.com/malonaz/shopchat/session"
	"github.com/malonaz/shopchat/store"
	"github.com/malonaz/shopchat/window"
)

type fakeAPI struct {
	requests []string
}

func (f *fakeAPI) CreateSession(context.Context, *int64) (string, error) { return "s-1", nil }

func (f *fakeAPI) Chat(_ context.Context, request *chatapi.ChatRequest) (*chatapi.ChatResponse, error) {
	f.requests = append(f.requests, request.Message)
	return &chatapi.ChatResponse{
		SessionID: "s-1",
		Message:   "Gợi ý cho bạn",
		Products:  []model.ProductSuggestion{{ID: 7, Name: "Galaxy A15", Price: decimal.NewFromInt(3_990_000)}},
	}, nil
}

func (f *fakeAPI) History(context.Context, string) (*chatapi.ChatResponse, error) {
	return &chatapi.ChatResponse{}, nil
}

func (f *fakeAPI) Health(context.Context) (string, error) { return "OK", nil }

type fixture struct {
	api     *fakeAPI
	store   *store.Store
	machine *state.Machine
	window  *window.Controller
	recall  *recall.Recall
	model   *Model
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{api: &fakeAPI{}, store: store.New(kv.NewMemory()), machine: state.New()}
	sessions := chatsession.NewManager(f.api, f.store, nil)
	client := chat.NewClient(f.api, sessions, f.store, f.machine)
	f.window = window.New(client, f.store, sessions, f.machine, "http://shop.local")
	f.recall = recall.New(kv.NewMemory(), 10)

	m, err := New(context.Background(), configuration.Default(), f.window, f.machine.Snapshot(), f.recall)
	require.NoError(t, err)
	f.model = m
	f.model.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return f
}

// sync feeds the current machine state to the window and the model, as Activate and OnStateChange do.
func (f *fixture) sync() {
	s := f.machine.Snapshot()
	f.window.Observe(s)
	f.model.Update(stateMsg{state: s})
}

func (f *fixture) open() {
	f.machine.Open()
	f.sync()
}

func altKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}, Alt: true}
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestClosedWindowShowsUnreadBadge(t *testing.T) {
	f := newFixture(t)
	f.machine.NotifyUnread()
	f.machine.NotifyUnread()
	f.sync()

	view := f.model.View()
	assert.Contains(t, view, "Chat")
	assert.Contains(t, view, "2")
}

func TestToggleOpensWindow(t *testing.T) {
	f := newFixture(t)
	f.model.Update(tea.KeyMsg{Type: tea.KeyCtrlO})
	assert.True(t, f.machine.Snapshot().IsOpen)

	f.sync()
	assert.Contains(t, f.model.View(), "Trợ lý mua sắm")
}

func TestEnterSendsAndShowsReply(t *testing.T) {
	f := newFixture(t)
	f.open()

	f.model.textarea.SetValue("điện thoại")
	f.model.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.True(t, f.window.IsBusy())
	assert.Equal(t, "", f.model.textarea.Value())
	assert.Equal(t, []string{"điện thoại"}, f.recall.Entries())
	require.Len(t, f.window.Messages(), 1)

	msg := f.model.deliver("điện thoại")()
	f.model.Update(msg)

	messages := f.window.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, model.SenderBot, messages[1].Sender)
	assert.False(t, f.window.IsBusy())
	assert.Equal(t, []string{"điện thoại"}, f.api.requests)

	content := f.model.renderMessages()
	assert.Contains(t, content, "Galaxy A15")
	assert.Contains(t, content, "4.0 triệu")
}

func TestEnterIgnoresBlankInput(t *testing.T) {
	f := newFixture(t)
	f.open()
	f.model.textarea.SetValue("   ")
	f.model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, f.window.IsBusy())
	assert.Empty(t, f.window.Messages())
	assert.NoError(t, f.model.err)
}

func TestQuickSuggestion(t *testing.T) {
	f := newFixture(t)
	f.open()
	assert.True(t, f.model.showSuggestions())
	assert.Contains(t, f.model.View(), "Laptop cho sinh viên")

	f.model.Update(altKey('2'))
	messages := f.window.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, "Laptop cho sinh viên", messages[0].Text)
	assert.False(t, f.model.showSuggestions())

	_, ok := f.model.quickSuggestion("alt+9")
	assert.False(t, ok)
	_, ok = f.model.quickSuggestion("ctrl+1")
	assert.False(t, ok)
}

func TestClearAsksForConfirmation(t *testing.T) {
	f := newFixture(t)
	f.open()
	f.window.SetInput("hello")
	_, err := f.window.SendMessage(context.Background())
	require.NoError(t, err)
	f.model.refreshMessages()

	f.model.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	assert.True(t, f.model.awaitingConfirm)
	assert.Contains(t, f.model.View(), window.ClearQuestion)

	f.model.Update(runeKey('n'))
	assert.False(t, f.model.awaitingConfirm)
	assert.Len(t, f.window.Messages(), 2)

	f.model.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	f.model.Update(runeKey('y'))
	assert.False(t, f.model.awaitingConfirm)
	assert.Empty(t, f.window.Messages())
	assert.Empty(t, f.store.Load().Messages)
}

func TestRecallNavigation(t *testing.T) {
	f := newFixture(t)
	f.open()
	f.recall.Add("first")
	f.recall.Add("second")

	f.model.Update(altKey('p'))
	assert.Equal(t, "second", f.model.textarea.Value())
	f.model.Update(altKey('p'))
	assert.Equal(t, "first", f.model.textarea.Value())
	f.model.Update(altKey('n'))
	assert.Equal(t, "second", f.model.textarea.Value())
}

func TestEscClosesWindow(t *testing.T) {
	f := newFixture(t)
	f.open()
	f.model.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, f.machine.Snapshot().IsOpen)
}
