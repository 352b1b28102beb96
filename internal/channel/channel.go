// Package channel defines the bridge between messaging platforms and the bot.
// It provides the Channel interface, message chunking, and a mock
// implementation for tests.
package channel

import (
	"context"

	"github.com/vestnik-bot/vestnik/internal/core"
	"github.com/vestnik-bot/vestnik/pkg/message"
)

// Channel is the bridge between a messaging platform and the bot.
// Every concrete channel (Telegram today, others later) must implement
// this interface.
//
// A channel receives updates from its platform and pushes them to the bot
// via the inbox callback. It also receives outbound messages from the bot
// via Send().
//
// Channels may optionally implement CallbackAnswerer or KeyboardEditor for
// inline-keyboard interactions.
type Channel interface {
	core.Module

	// Send delivers an outbound message to the platform.
	Send(ctx context.Context, msg message.OutboundMessage) error

	// SetInbox gives the channel a function to push inbound messages to the bot.
	// The bot calls this during wiring, before Start().
	SetInbox(fn func(msg message.InboundMessage) error)
}

// CallbackAnswerer is implemented by channels that can acknowledge an
// inline-keyboard button press so the client stops showing a spinner.
type CallbackAnswerer interface {
	// AnswerCallback acknowledges the callback identified by callbackID.
	// text, if non-empty, is shown to the user as a toast.
	AnswerCallback(ctx context.Context, callbackID, text string) error
}

// KeyboardEditor is implemented by channels that can replace the inline
// keyboard attached to an already-sent message. A nil or empty rows slice
// removes the keyboard.
type KeyboardEditor interface {
	EditKeyboard(ctx context.Context, chat message.Chat, messageID int, rows [][]message.Button) error
}

// MessageEditor is implemented by channels that can rewrite the text of an
// already-sent plain-text message. Editing drops any inline keyboard the
// message carried.
type MessageEditor interface {
	EditText(ctx context.Context, chat message.Chat, messageID int, text string) error
}
