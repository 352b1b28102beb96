package message

// OutboundMessage represents a message to be sent through a channel.
type OutboundMessage struct {
	Chat     Chat       `json:"chat"`
	Text     string     `json:"text,omitempty"`
	PhotoID  string     `json:"photo_id,omitempty"`
	Keyboard [][]Button `json:"keyboard,omitempty"`
	Hints    *Hints     `json:"hints,omitempty"`
}

// Hints carries optional delivery hints for channels.
// Zero value means no hints are set.
type Hints struct {
	DisablePreview      bool   `json:"disable_preview,omitempty"`
	DisableNotification bool   `json:"disable_notification,omitempty"`
	ParseMode           string `json:"parse_mode,omitempty"`
}

// NewTextMessage creates an outbound text message addressed to chat.
func NewTextMessage(chat Chat, text string) OutboundMessage {
	return OutboundMessage{Chat: chat, Text: text}
}

// NewPhotoMessage creates an outbound photo message with an optional caption.
func NewPhotoMessage(chat Chat, photoID, caption string) OutboundMessage {
	return OutboundMessage{Chat: chat, PhotoID: photoID, Text: caption}
}

// WithKeyboard returns a copy of the message with an inline keyboard attached.
func (m OutboundMessage) WithKeyboard(rows ...[]Button) OutboundMessage {
	m.Keyboard = rows
	return m
}

// HasPhoto reports whether the message carries a photo attachment.
func (m *OutboundMessage) HasPhoto() bool {
	return m.PhotoID != ""
}
