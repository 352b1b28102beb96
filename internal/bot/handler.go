package bot

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/vestnik-bot/vestnik/internal/channel"
	"github.com/vestnik-bot/vestnik/internal/flow"
	"github.com/vestnik-bot/vestnik/internal/moderation"
	"github.com/vestnik-bot/vestnik/pkg/message"
)

const handleTimeout = 30 * time.Second

const (
	textMenu = "Что вы хотите опубликовать?"
	textHint = "Чтобы подать заявку, отправьте /start и выберите тип публикации."

	textCancelled   = "Заявка отменена."
	textNothingToDo = "Нет активной заявки."
	textRateLimited = "Слишком много заявок. Попробуйте снова через час."
	textUnknownForm = "Неизвестный тип заявки."
	textFormExpired = "Форма устарела, начните заново: /start"
)

// HandleInbound is the channel inbox: it routes every inbound message to
// the moderation workflow or the form engine.
func (m *Module) HandleInbound(msg message.InboundMessage) error {
	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	if msg.Callback != nil {
		return m.handleCallback(ctx, msg)
	}
	return m.handleMessage(ctx, msg)
}

func (m *Module) handleCallback(ctx context.Context, msg message.InboundMessage) error {
	data := msg.Callback.Data

	if moderation.IsModerationCallback(data) {
		return m.moderator.HandleCallback(ctx, msg)
	}

	// Everything below is form interaction; forms only run in direct chats.
	if !msg.Chat.IsDirectMessage() {
		m.answerCallback(ctx, msg.Callback.ID, "")
		return nil
	}

	if formType, ok := strings.CutPrefix(data, "form:"); ok {
		return m.startForm(ctx, msg, formType)
	}

	if !m.engine.Active(msg.Sender.ID) {
		m.answerCallback(ctx, msg.Callback.ID, textFormExpired)
		return nil
	}

	m.answerCallback(ctx, msg.Callback.ID, "")
	return m.feedEngine(ctx, msg)
}

func (m *Module) handleMessage(ctx context.Context, msg message.InboundMessage) error {
	if !msg.Chat.IsDirectMessage() {
		return nil
	}

	switch msg.Command() {
	case "/start":
		m.engine.Cancel(msg.Sender.ID)
		return m.send(ctx, menuMessage(msg.Chat))
	case "/cancel":
		if m.engine.Cancel(msg.Sender.ID) {
			return m.send(ctx, message.OutboundMessage{Chat: msg.Chat, Text: textCancelled})
		}
		return m.send(ctx, message.OutboundMessage{Chat: msg.Chat, Text: textNothingToDo})
	}

	if !m.engine.Active(msg.Sender.ID) {
		return m.send(ctx, message.OutboundMessage{Chat: msg.Chat, Text: textHint})
	}
	return m.feedEngine(ctx, msg)
}

func (m *Module) startForm(ctx context.Context, msg message.InboundMessage, formType string) error {
	prompt, err := m.engine.Start(ctx, msg.Sender, msg.Chat, formType)
	switch {
	case errors.Is(err, flow.ErrRateLimited):
		m.answerCallback(ctx, msg.Callback.ID, "")
		return m.send(ctx, message.OutboundMessage{Chat: msg.Chat, Text: textRateLimited})
	case errors.Is(err, flow.ErrUnknownForm):
		m.answerCallback(ctx, msg.Callback.ID, textUnknownForm)
		return nil
	case err != nil:
		return err
	}

	m.answerCallback(ctx, msg.Callback.ID, "")
	return m.send(ctx, prompt)
}

// feedEngine passes one input to the form engine and delivers its replies.
// A returned application means the user confirmed submission, so the
// moderation card goes out to the admin chat.
func (m *Module) feedEngine(ctx context.Context, msg message.InboundMessage) error {
	replies, app, err := m.engine.Input(ctx, msg)
	if errors.Is(err, flow.ErrNoSession) {
		return m.send(ctx, message.OutboundMessage{Chat: msg.Chat, Text: textHint})
	}
	if err != nil {
		return err
	}

	for _, reply := range replies {
		if err := m.send(ctx, reply); err != nil {
			return err
		}
	}

	if app != nil {
		if err := m.moderator.NotifyAdmin(ctx, app); err != nil {
			// The application is already stored; the admin can still find
			// it through the next card or the status endpoint.
			m.logger.Error("admin notification failed", "app_id", app.ID, "error", err)
		}
	}
	return nil
}

func (m *Module) send(ctx context.Context, out message.OutboundMessage) error {
	if err := m.ch.Send(ctx, out); err != nil {
		if m.metrics != nil {
			m.metrics.RecordSendFailure()
		}
		return err
	}
	return nil
}

func (m *Module) answerCallback(ctx context.Context, callbackID, text string) {
	answerer, ok := m.ch.(channel.CallbackAnswerer)
	if !ok {
		return
	}
	if err := answerer.AnswerCallback(ctx, callbackID, text); err != nil {
		m.logger.Warn("callback answer failed", "error", err)
	}
}

func menuMessage(chat message.Chat) message.OutboundMessage {
	return message.OutboundMessage{
		Chat: chat,
		Text: textMenu,
		Keyboard: [][]message.Button{
			message.Row(
				message.Button{Text: "🎉 Поздравление", Data: "form:congrat"},
				message.Button{Text: "📢 Объявление", Data: "form:announcement"},
			),
			message.Row(
				message.Button{Text: "📰 Новость", Data: "form:news"},
				message.Button{Text: "🚗 Попутчики", Data: "form:carpool"},
			),
		},
	}
}
