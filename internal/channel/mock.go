package channel

import (
	"context"
	"sync"

	"github.com/vestnik-bot/vestnik/internal/core"
	"github.com/vestnik-bot/vestnik/pkg/message"
)

// MockChannel is a test double that implements Channel. It records sent
// messages and allows simulating inbound messages via SimulateMessage.
type MockChannel struct {
	name  string
	inbox func(msg message.InboundMessage) error

	mu        sync.Mutex
	sent      []message.OutboundMessage
	answered  []string
	keyboards []KeyboardEdit
	textEdits []TextEdit

	// SendFunc, if set, is called instead of the default recording behavior.
	SendFunc func(ctx context.Context, msg message.OutboundMessage) error
}

// KeyboardEdit records a single EditKeyboard call.
type KeyboardEdit struct {
	Chat      message.Chat
	MessageID int
	Rows      [][]message.Button
}

// TextEdit records a single EditText call.
type TextEdit struct {
	Chat      message.Chat
	MessageID int
	Text      string
}

// Compile-time interface guards.
var (
	_ Channel          = (*MockChannel)(nil)
	_ CallbackAnswerer = (*MockChannel)(nil)
	_ KeyboardEditor   = (*MockChannel)(nil)
	_ MessageEditor    = (*MockChannel)(nil)
)

// NewMockChannel creates a MockChannel with the given name.
func NewMockChannel(name string) *MockChannel {
	return &MockChannel{name: name}
}

// ModuleInfo implements core.Module.
func (m *MockChannel) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID: core.ModuleID("channel." + m.name),
		New: func() core.Module {
			return NewMockChannel(m.name)
		},
	}
}

// Send records the outbound message. If SendFunc is set, it delegates to it.
func (m *MockChannel) Send(ctx context.Context, msg message.OutboundMessage) error {
	if m.SendFunc != nil {
		return m.SendFunc(ctx, msg)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

// SetInbox stores the inbox callback provided by the bot.
func (m *MockChannel) SetInbox(fn func(msg message.InboundMessage) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inbox = fn
}

// AnswerCallback records the acknowledged callback ID.
func (m *MockChannel) AnswerCallback(_ context.Context, callbackID, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answered = append(m.answered, callbackID)
	return nil
}

// EditKeyboard records the keyboard replacement.
func (m *MockChannel) EditKeyboard(_ context.Context, chat message.Chat, messageID int, rows [][]message.Button) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keyboards = append(m.keyboards, KeyboardEdit{Chat: chat, MessageID: messageID, Rows: rows})
	return nil
}

// EditText records the text replacement.
func (m *MockChannel) EditText(_ context.Context, chat message.Chat, messageID int, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.textEdits = append(m.textEdits, TextEdit{Chat: chat, MessageID: messageID, Text: text})
	return nil
}

// SimulateMessage pushes an inbound message into the inbox. It returns
// ErrNoInbox if SetInbox has not been called.
func (m *MockChannel) SimulateMessage(msg message.InboundMessage) error {
	m.mu.Lock()
	inbox := m.inbox
	m.mu.Unlock()

	if inbox == nil {
		return ErrNoInbox
	}

	// Tag the message with this channel's name.
	msg.Channel = m.name
	return inbox(msg)
}

// SentMessages returns a copy of all outbound messages recorded by Send.
func (m *MockChannel) SentMessages() []message.OutboundMessage {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := make([]message.OutboundMessage, len(m.sent))
	copy(cp, m.sent)
	return cp
}

// AnsweredCallbacks returns a copy of all callback IDs acknowledged so far.
func (m *MockChannel) AnsweredCallbacks() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := make([]string, len(m.answered))
	copy(cp, m.answered)
	return cp
}

// KeyboardEdits returns a copy of all recorded EditKeyboard calls.
func (m *MockChannel) KeyboardEdits() []KeyboardEdit {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := make([]KeyboardEdit, len(m.keyboards))
	copy(cp, m.keyboards)
	return cp
}

// TextEdits returns a copy of all recorded EditText calls.
func (m *MockChannel) TextEdits() []TextEdit {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := make([]TextEdit, len(m.textEdits))
	copy(cp, m.textEdits)
	return cp
}

// Reset clears all recorded interactions.
func (m *MockChannel) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
	m.answered = nil
	m.keyboards = nil
	m.textEdits = nil
}
