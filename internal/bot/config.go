package bot

import (
	"fmt"
	"time"
)

const (
	defaultRateLimit   = 5
	defaultSessionIdle = 30 * time.Minute
)

// Config holds the submission bot settings.
type Config struct {
	// AdminChatID is the chat where moderation cards are sent and
	// moderation buttons are honored.
	AdminChatID int64 `yaml:"admin_chat_id"`

	// ChannelID is the broadcast channel approved applications are
	// published to.
	ChannelID int64 `yaml:"channel_id"`

	// WordsFile is an optional path to the censor word list, one word per
	// line. The file is re-read when its modification time changes.
	WordsFile string `yaml:"words_file"`

	// RateLimit is the maximum submissions per user per rolling hour.
	RateLimit int `yaml:"rate_limit"`

	// SessionIdle is how long an unfinished form survives without input.
	SessionIdle time.Duration `yaml:"session_idle"`
}

func (c *Config) defaults() {
	if c.RateLimit == 0 {
		c.RateLimit = defaultRateLimit
	}
	if c.SessionIdle == 0 {
		c.SessionIdle = defaultSessionIdle
	}
}

func (c *Config) validate() error {
	if c.AdminChatID == 0 {
		return fmt.Errorf("bot: admin_chat_id is required")
	}
	if c.ChannelID == 0 {
		return fmt.Errorf("bot: channel_id is required")
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("bot: rate_limit must not be negative")
	}
	return nil
}
