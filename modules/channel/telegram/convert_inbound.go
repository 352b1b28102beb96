package telegram

import (
	"fmt"
	"time"

	"github.com/vestnik-bot/vestnik/pkg/message"
)

// convertInbound transforms a Telegram Update into a platform-agnostic
// InboundMessage. Callback queries produce a message with Callback set;
// plain messages carry text and, if present, the largest photo's file_id.
func convertInbound(update *Update, channelName string) (message.InboundMessage, error) {
	if update.CallbackQuery != nil {
		return convertCallback(update.CallbackQuery, channelName), nil
	}

	msg := update.Message
	if msg == nil {
		msg = update.EditedMessage
	}
	if msg == nil {
		return message.InboundMessage{}, fmt.Errorf("telegram: update %d contains no message", update.UpdateID)
	}

	inbound := message.InboundMessage{
		ID:        fmt.Sprintf("%d", msg.MessageID),
		Timestamp: time.Unix(int64(msg.Date), 0),
		Channel:   channelName,
		Sender:    convertSender(msg.From),
		Chat:      convertChat(msg.Chat),
		Text:      msg.Text,
	}

	if len(msg.Photo) > 0 {
		// Telegram lists photo sizes smallest first.
		inbound.PhotoID = msg.Photo[len(msg.Photo)-1].FileID
		if inbound.Text == "" {
			inbound.Text = msg.Caption
		}
	}

	return inbound, nil
}

// convertCallback maps a CallbackQuery to an InboundMessage with Callback set.
// The chat and message ID come from the message the keyboard was attached to,
// so handlers can edit or clear that keyboard.
func convertCallback(q *CallbackQuery, channelName string) message.InboundMessage {
	inbound := message.InboundMessage{
		ID:        q.ID,
		Timestamp: time.Now(),
		Channel:   channelName,
		Sender:    convertSender(&q.From),
		Callback: &message.Callback{
			ID:   q.ID,
			Data: q.Data,
		},
	}

	if q.Message != nil {
		inbound.Chat = convertChat(q.Message.Chat)
		inbound.Callback.MessageID = q.Message.MessageID
	}

	return inbound
}

// convertSender maps a Telegram User to a platform-agnostic Sender.
func convertSender(user *User) message.Sender {
	if user == nil {
		return message.Sender{}
	}
	displayName := user.FirstName
	if user.LastName != "" {
		displayName += " " + user.LastName
	}
	return message.Sender{
		ID:          user.ID,
		Username:    user.Username,
		DisplayName: displayName,
	}
}

// convertChat maps a Telegram Chat to a platform-agnostic Chat.
func convertChat(chat Chat) message.Chat {
	return message.Chat{
		ID:    chat.ID,
		Type:  mapChatType(chat.Type),
		Title: chat.Title,
	}
}

// mapChatType converts Telegram chat type strings to message.ChatType.
func mapChatType(tgType string) message.ChatType {
	switch tgType {
	case "private":
		return message.ChatDM
	case "group", "supergroup":
		return message.ChatGroup
	case "channel":
		return message.ChatBroadcast
	default:
		return message.ChatGroup
	}
}
