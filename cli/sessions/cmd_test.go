package sessions

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/malonaz/shopchat/app"
	"github.com/malonaz/shopchat/internal/configuration"
	"github.com/malonaz/shopchat/internal/kv"
	"github.com/malonaz/shopchat/mockserver"
	"github.com/malonaz/shopchat/model"
)

func newApp(t *testing.T) *app.App {
	t.Helper()
	catalog, err := mockserver.LoadCatalog("")
	require.NoError(t, err)
	server := httptest.NewServer(mockserver.New(catalog).Handler())
	t.Cleanup(server.Close)

	config := configuration.Default()
	config.APIBaseURL = server.URL + mockserver.APIPrefix
	return app.NewWithMedium(config, kv.NewMemory())
}

func run(t *testing.T, a *app.App, args ...string) {
	t.Helper()
	cmd := NewCmd(a)
	cmd.SetArgs(args)
	require.NoError(t, cmd.ExecuteContext(context.Background()))
}

func TestNewReplacesSession(t *testing.T) {
	a := newApp(t)
	run(t, a, "new")
	first, ok := a.Sessions.Current()
	require.True(t, ok)

	run(t, a, "new")
	second, ok := a.Sessions.Current()
	require.True(t, ok)
	assert.NotEqual(t, first, second)

	run(t, a, "show")
}

func TestClearWithoutPrompt(t *testing.T) {
	a := newApp(t)
	run(t, a, "new")
	a.Store.Append(model.NewUserMessage("hello", time.Now()))

	run(t, a, "clear", "--yes")
	_, ok := a.Sessions.Current()
	assert.False(t, ok)
	assert.Empty(t, a.Store.Load().Messages)
}
