package telegram

import (
	"context"
	"fmt"

	"github.com/vestnik-bot/vestnik/internal/channel"
	"github.com/vestnik-bot/vestnik/pkg/message"
)

// sendOutbound sends an OutboundMessage through the Telegram API, splitting
// the text if it exceeds the platform limit.
func (t *Telegram) sendOutbound(ctx context.Context, msg message.OutboundMessage) error {
	chunks := channel.SplitMessage(msg, channel.ChunkConfig{
		MaxLength: t.config.MaxMessageLength,
	})

	for _, chunk := range chunks {
		if err := t.sendChunk(ctx, chunk); err != nil {
			return err
		}
	}

	return nil
}

// sendChunk dispatches a single chunk to sendPhoto or sendMessage.
// Fail-fast: if a chunk send fails, remaining chunks are skipped so partial
// delivery is not silently treated as success by the caller.
func (t *Telegram) sendChunk(ctx context.Context, chunk message.OutboundMessage) error {
	parseMode := ""
	disablePreview := false
	disableNotification := false
	if chunk.Hints != nil {
		parseMode = chunk.Hints.ParseMode
		disablePreview = chunk.Hints.DisablePreview
		disableNotification = chunk.Hints.DisableNotification
	}

	markup := convertKeyboard(chunk.Keyboard)

	if chunk.HasPhoto() {
		_, err := t.client.SendPhoto(ctx, SendPhotoRequest{
			ChatID:              chunk.Chat.ID,
			Photo:               chunk.PhotoID,
			Caption:             chunk.Text,
			ParseMode:           parseMode,
			DisableNotification: disableNotification,
			ReplyMarkup:         markup,
		})
		if err != nil {
			return fmt.Errorf("telegram: send photo: %w", err)
		}
		return nil
	}

	_, err := t.client.SendMessage(ctx, SendMessageRequest{
		ChatID:                chunk.Chat.ID,
		Text:                  chunk.Text,
		ParseMode:             parseMode,
		DisableWebPagePreview: disablePreview,
		DisableNotification:   disableNotification,
		ReplyMarkup:           markup,
	})
	if err != nil {
		return fmt.Errorf("telegram: send message: %w", err)
	}
	return nil
}

// convertKeyboard maps platform-agnostic button rows to Telegram inline
// keyboard markup. Returns nil for an empty keyboard.
func convertKeyboard(rows [][]message.Button) *InlineKeyboardMarkup {
	if len(rows) == 0 {
		return nil
	}

	markup := &InlineKeyboardMarkup{
		InlineKeyboard: make([][]InlineKeyboardButton, 0, len(rows)),
	}
	for _, row := range rows {
		buttons := make([]InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, InlineKeyboardButton{
				Text:         b.Text,
				CallbackData: b.Data,
			})
		}
		markup.InlineKeyboard = append(markup.InlineKeyboard, buttons)
	}
	return markup
}
