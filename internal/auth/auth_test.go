package auth

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	return token
}

type recorded struct {
	authorization string
	skipHeader    string
}

func recordingServer(t *testing.T, out *recorded) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		out.authorization = r.Header.Get("Authorization")
		out.skipHeader = r.Header.Get(SkipAuthHeader)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestTransport(t *testing.T) {
	var got recorded
	server := recordingServer(t, &got)
	client := &http.Client{Transport: NewTransport(StaticToken("tok"), nil)}

	t.Run("attaches token", func(t *testing.T) {
		response, err := client.Get(server.URL + "/api/v1/orders")
		require.NoError(t, err)
		response.Body.Close()
		assert.Equal(t, "Bearer tok", got.authorization)
	})

	t.Run("skips chat paths", func(t *testing.T) {
		response, err := client.Get(server.URL + "/api/v1/chatbot/health")
		require.NoError(t, err)
		response.Body.Close()
		assert.Empty(t, got.authorization)
	})

	t.Run("skip header is honored and stripped", func(t *testing.T) {
		request, err := http.NewRequest(http.MethodGet, server.URL+"/api/v1/products", nil)
		require.NoError(t, err)
		request.Header.Set(SkipAuthHeader, "true")
		response, err := client.Do(request)
		require.NoError(t, err)
		response.Body.Close()
		assert.Empty(t, got.authorization)
		assert.Empty(t, got.skipHeader)
		// The caller's request is left untouched.
		assert.Equal(t, "true", request.Header.Get(SkipAuthHeader))
	})

	t.Run("anonymous without token", func(t *testing.T) {
		anonymous := &http.Client{Transport: NewTransport(StaticToken(""), nil)}
		response, err := anonymous.Get(server.URL + "/api/v1/orders")
		require.NoError(t, err)
		response.Body.Close()
		assert.Empty(t, got.authorization)
	})
}

func TestFileToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	source := NewTokenSource("ignored", path)

	token, err := source.Token()
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, os.WriteFile(path, []byte("abc\n"), 0600))
	token, err = source.Token()
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	token, err = NewTokenSource("static", "").Token()
	require.NoError(t, err)
	assert.Equal(t, "static", token)
}

func TestIdentity(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		expected int64
		ok       bool
	}{
		{"numeric claim", signedToken(t, jwt.MapClaims{"userId": 12}), 12, true},
		{"string claim", signedToken(t, jwt.MapClaims{"userId": "34"}), 34, true},
		{"subject fallback", signedToken(t, jwt.MapClaims{"sub": "56"}), 56, true},
		{"non numeric subject", signedToken(t, jwt.MapClaims{"sub": "0987654321-phone"}), 0, false},
		{"zero id", signedToken(t, jwt.MapClaims{"userId": 0}), 0, false},
		{"not a jwt", "garbage", 0, false},
		{"anonymous", "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := NewIdentity(StaticToken(tt.token)).UserID()
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected, id)
			}
		})
	}

	var nilIdentity *Identity
	_, ok := nilIdentity.UserID()
	assert.False(t, ok)
}
