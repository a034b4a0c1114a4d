package chatapi

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/malonaz/shopchat/model"
)

// Envelope wraps every backend response.
type Envelope struct {
	Status  Status          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Status is the envelope status. The backend sends either a name ("OK") or a code (200).
type Status string

// UnmarshalJSON implements json.Unmarshaler.
func (s *Status) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*s = Status(name)
		return nil
	}
	var code int
	if err := json.Unmarshal(data, &code); err != nil {
		return errors.Wrap(err, "decoding status")
	}
	*s = Status(strconv.Itoa(code))
	return nil
}

// ChatRequest is the body of a chat call.
type ChatRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
	UserID    *int64 `json:"user_id,omitempty"`
}

// ChatResponse is the assistant's reply, or a session's history.
type ChatResponse struct {
	SessionID   string                    `json:"session_id"`
	Message     string                    `json:"message"`
	Timestamp   Timestamp                 `json:"timestamp"`
	Products    []model.ProductSuggestion `json:"products"`
	MessageType model.MessageType         `json:"message_type"`
}

// Timestamp decodes the date formats the backend may emit.
// A zero Timestamp means the backend did not send one.
type Timestamp struct {
	time.Time
}

var localDateTimeLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}

	// Jackson without JavaTimeModule settings writes [y, m, d, h, min, s, nanos].
	if len(data) > 0 && data[0] == '[' {
		var parts []int
		if err := json.Unmarshal(data, &parts); err != nil {
			return errors.Wrap(err, "decoding timestamp array")
		}
		if len(parts) < 3 {
			return errors.Errorf("timestamp array too short: %v", parts)
		}
		for len(parts) < 7 {
			parts = append(parts, 0)
		}
		t.Time = time.Date(parts[0], time.Month(parts[1]), parts[2], parts[3], parts[4], parts[5], parts[6], time.Local)
		return nil
	}

	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return errors.Wrap(err, "decoding timestamp")
	}
	if value == "" {
		t.Time = time.Time{}
		return nil
	}
	if parsed, err := time.Parse(time.RFC3339Nano, value); err == nil {
		t.Time = parsed
		return nil
	}
	// Zone-less values are wall-clock times of the server, assumed to share our zone.
	for _, layout := range localDateTimeLayouts {
		if parsed, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return errors.Errorf("unrecognized timestamp %q", value)
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}
