package message

import (
	"strings"
	"time"
)

// Callback carries an inline keyboard button press.
type Callback struct {
	ID        string `json:"id"`
	Data      string `json:"data"`
	MessageID int    `json:"message_id,omitempty"`
}

// InboundMessage represents a message or callback received from a channel.
type InboundMessage struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Channel   string    `json:"channel"`
	Sender    Sender    `json:"sender"`
	Chat      Chat      `json:"chat"`
	Text      string    `json:"text,omitempty"`
	PhotoID   string    `json:"photo_id,omitempty"`
	Callback  *Callback `json:"callback,omitempty"`
}

// IsCallback reports whether the message is an inline button press.
func (m *InboundMessage) IsCallback() bool {
	return m.Callback != nil
}

// Command returns the bot command in the text ("/start", "/cancel") with any
// @botname suffix stripped, or an empty string if the text is not a command.
func (m *InboundMessage) Command() string {
	if !strings.HasPrefix(m.Text, "/") {
		return ""
	}
	cmd := m.Text
	if i := strings.IndexAny(cmd, " \n"); i >= 0 {
		cmd = cmd[:i]
	}
	if i := strings.Index(cmd, "@"); i >= 0 {
		cmd = cmd[:i]
	}
	return cmd
}
