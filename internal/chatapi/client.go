// Package chatapi is a client for the storefront chatbot REST API.
package chatapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/malonaz/shopchat/internal/debug"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "shopchat"
	maxErrorBody     = 64 << 10
)

// Client talks to the chatbot endpoints under a base url such as http://host/api/v1.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	log        *logrus.Logger
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout bounds every request.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(userAgent string) ClientOption {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// NewClient returns a client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		userAgent:  defaultUserAgent,
		log:        debug.GetLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateSession asks the backend for a new session, optionally bound to a user.
func (c *Client) CreateSession(ctx context.Context, userID *int64) (string, error) {
	endpoint := c.baseURL + "/chatbot/session/new"
	if userID != nil {
		endpoint += "?" + url.Values{"userId": {strconv.FormatInt(*userID, 10)}}.Encode()
	}
	var sessionID string
	if err := c.do(ctx, http.MethodPost, endpoint, nil, &sessionID); err != nil {
		return "", errors.Wrap(err, "creating session")
	}
	return sessionID, nil
}

// Chat sends a message and returns the assistant's reply.
func (c *Client) Chat(ctx context.Context, request *ChatRequest) (*ChatResponse, error) {
	response := &ChatResponse{}
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/chatbot/chat", request, response); err != nil {
		return nil, errors.Wrap(err, "sending chat")
	}
	return response, nil
}

// History returns the server-side transcript of a session.
func (c *Client) History(ctx context.Context, sessionID string) (*ChatResponse, error) {
	response := &ChatResponse{}
	endpoint := c.baseURL + "/chatbot/history/" + url.PathEscape(sessionID)
	if err := c.do(ctx, http.MethodGet, endpoint, nil, response); err != nil {
		return nil, errors.Wrap(err, "getting history")
	}
	return response, nil
}

// Health returns the backend's health payload.
func (c *Client) Health(ctx context.Context) (string, error) {
	var health string
	if err := c.do(ctx, http.MethodGet, c.baseURL+"/chatbot/health", nil, &health); err != nil {
		return "", errors.Wrap(err, "checking health")
	}
	return health, nil
}

// do performs a request and decodes the envelope's data into out.
func (c *Client) do(ctx context.Context, method, endpoint string, in, out any) error {
	log := c.log.WithFields(logrus.Fields{"method": method, "url": endpoint})

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "marshaling request")
		}
		body = bytes.NewReader(payload)
	}
	request, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return errors.Wrap(err, "creating request")
	}
	request.Header.Set("Accept", "application/json")
	request.Header.Set("User-Agent", c.userAgent)
	if in != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	response, err := c.httpClient.Do(request)
	if err != nil {
		log.WithError(err).Error("request failed")
		return errors.Wrap(err, "sending request")
	}
	defer response.Body.Close()
	log = log.WithFields(logrus.Fields{"status": response.StatusCode, "duration": time.Since(start)})

	if response.StatusCode < 200 || response.StatusCode > 299 {
		apiErr := handleError(response)
		log.WithError(apiErr).Error("request rejected")
		return apiErr
	}

	envelope := &Envelope{}
	if err := json.NewDecoder(response.Body).Decode(envelope); err != nil {
		log.WithError(err).Error("decoding envelope")
		return errors.Wrap(err, "decoding envelope")
	}
	if out != nil {
		if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
			return errors.New("response has no data")
		}
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			log.WithError(err).Error("decoding data")
			return errors.Wrap(err, "decoding data")
		}
	}
	log.Debug("request completed")
	return nil
}

func handleError(response *http.Response) error {
	apiErr := &APIError{StatusCode: response.StatusCode, Status: response.Status}
	body, err := io.ReadAll(io.LimitReader(response.Body, maxErrorBody))
	if err != nil {
		return apiErr
	}
	envelope := &Envelope{}
	if err := json.Unmarshal(body, envelope); err == nil && envelope.Message != "" {
		apiErr.Message = envelope.Message
	} else {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	return apiErr
}
