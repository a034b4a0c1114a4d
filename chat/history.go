package chat

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/malonaz/shopchat/model"
)

// RemoteHistory fetches the server-side transcript of a session.
// An empty sessionID means the current session.
func (c *Client) RemoteHistory(ctx context.Context, sessionID string) ([]model.Message, error) {
	if sessionID == "" {
		current, ok := c.sessions.Current()
		if !ok {
			return nil, ErrNoSession
		}
		sessionID = current
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	response, err := c.api.History(ctx, sessionID)
	if err != nil {
		return nil, errors.Wrap(err, "fetching remote history")
	}
	return ParseTranscript(response.Message, response.Timestamp.Time), nil
}

// ParseTranscript splits a "SENDER: text" transcript into messages.
// Lines without a sender prefix continue the previous message.
func ParseTranscript(transcript string, at time.Time) []model.Message {
	var messages []model.Message
	for _, line := range strings.Split(strings.TrimRight(transcript, "\n"), "\n") {
		sender, text, ok := splitSender(line)
		if ok {
			messages = append(messages, model.Message{Sender: sender, Text: text, CreatedAt: at})
			continue
		}
		if len(messages) > 0 {
			messages[len(messages)-1].Text += "\n" + line
			continue
		}
		if strings.TrimSpace(line) != "" {
			messages = append(messages, model.Message{Sender: model.SenderBot, Text: line, CreatedAt: at})
		}
	}
	return messages
}

func splitSender(line string) (model.Sender, string, bool) {
	for _, sender := range []model.Sender{model.SenderUser, model.SenderBot} {
		if text, ok := strings.CutPrefix(line, string(sender)+": "); ok {
			return sender, text, true
		}
	}
	return "", "", false
}
