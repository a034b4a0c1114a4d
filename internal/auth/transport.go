package auth

import (
	"net/http"
	"strings"

	"github.com/malonaz/shopchat/internal/debug"
)

// SkipAuthHeader marks a request that must be sent without credentials.
// The header itself never leaves the process.
const SkipAuthHeader = "X-Skip-Auth"

// chatPathSegment identifies chat API calls, which are always anonymous.
const chatPathSegment = "/chatbot/"

// Transport is an http.RoundTripper adding the bearer token to requests.
type Transport struct {
	Source TokenSource
	// Base defaults to http.DefaultTransport.
	Base http.RoundTripper
}

// NewTransport wraps base. A nil base uses http.DefaultTransport.
func NewTransport(source TokenSource, base http.RoundTripper) *Transport {
	return &Transport{Source: source, Base: base}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(request *http.Request) (*http.Response, error) {
	skip := false
	if request.Header.Get(SkipAuthHeader) != "" {
		skip = true
		request = request.Clone(request.Context())
		request.Header.Del(SkipAuthHeader)
	}
	if strings.Contains(request.URL.Path, chatPathSegment) {
		skip = true
	}

	if !skip && t.Source != nil {
		token, err := t.Source.Token()
		if err != nil {
			debug.GetLogger().WithError(err).Warn("resolving token, sending anonymously")
		} else if token != "" {
			request = request.Clone(request.Context())
			request.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return t.base().RoundTrip(request)
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}
