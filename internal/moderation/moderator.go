package moderation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/vestnik-bot/vestnik/internal/channel"
	"github.com/vestnik-bot/vestnik/internal/store"
	"github.com/vestnik-bot/vestnik/pkg/message"
)

// ErrNotModeration indicates callback data that does not belong to the
// moderation workflow.
var ErrNotModeration = errors.New("moderation: not a moderation callback")

// Moderator processes admin decisions on pending applications.
type Moderator struct {
	apps      store.Store
	ch        channel.Channel
	publisher *Publisher
	adminChat message.Chat
	logger    *slog.Logger
	metrics   Metrics

	// now is injectable for testing. Defaults to time.Now.
	now func() time.Time
}

// NewModerator creates a Moderator. Decisions are accepted only from
// adminChatID.
func NewModerator(apps store.Store, ch channel.Channel, publisher *Publisher, adminChatID int64, logger *slog.Logger, metrics Metrics) *Moderator {
	return &Moderator{
		apps:      apps,
		ch:        ch,
		publisher: publisher,
		adminChat: message.Chat{ID: adminChatID, Type: message.ChatGroup},
		logger:    logger,
		metrics:   metrics,
		now:       time.Now,
	}
}

// IsModerationCallback reports whether the callback data belongs to the
// moderation workflow.
func IsModerationCallback(data string) bool {
	return strings.HasPrefix(data, callbackPrefix)
}

// NotifyAdmin sends the moderation card for a new application to the admin
// chat.
func (m *Moderator) NotifyAdmin(ctx context.Context, app *store.Application) error {
	if err := m.ch.Send(ctx, AdminCard(app, m.adminChat)); err != nil {
		if m.metrics != nil {
			m.metrics.RecordSendFailure()
		}
		return fmt.Errorf("moderation: notify admin about #%d: %w", app.ID, err)
	}
	return nil
}

// HandleCallback processes a moderation button press. Presses from chats
// other than the admin chat are acknowledged silently and ignored.
func (m *Moderator) HandleCallback(ctx context.Context, msg message.InboundMessage) error {
	if !msg.IsCallback() || !IsModerationCallback(msg.Callback.Data) {
		return ErrNotModeration
	}

	if msg.Chat.ID != m.adminChat.ID {
		m.logger.Warn("moderation callback from non-admin chat",
			"chat", msg.Chat.ID,
			"sender", msg.Sender.ID,
		)
		m.answer(ctx, msg.Callback.ID, "")
		return nil
	}

	action, id, err := parseCallback(msg.Callback.Data)
	if err != nil {
		m.answer(ctx, msg.Callback.ID, "")
		return err
	}

	ctx, span := otel.Tracer("moderation").Start(ctx, "moderation.decision")
	defer span.End()
	span.SetAttributes(
		attribute.String("moderation.action", action),
		attribute.Int64("application.id", id),
	)

	switch action {
	case actionApprove:
		err = m.approve(ctx, msg, id)
	case actionReject:
		err = m.reject(ctx, msg, id)
	case actionFull:
		err = m.sendFull(ctx, msg, id)
	default:
		m.answer(ctx, msg.Callback.ID, "")
		err = fmt.Errorf("moderation: unknown action %q", action)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "decision failed")
	}
	return err
}

// approve marks the application approved, notifies the submitter, and
// publishes immediately unless it is scheduled for a future date.
func (m *Moderator) approve(ctx context.Context, msg message.InboundMessage, id int64) error {
	if err := m.apps.SetStatus(ctx, id, store.StatusPending, store.StatusApproved); err != nil {
		m.answerDecisionError(ctx, msg.Callback.ID, err)
		return fmt.Errorf("moderation: approve #%d: %w", id, err)
	}
	if m.metrics != nil {
		m.metrics.RecordModeration("approved")
	}
	m.logger.Info("application approved", "id", id, "admin", msg.Sender.ID)

	m.answer(ctx, msg.Callback.ID, "Одобрено")

	app, err := m.apps.ByID(ctx, id)
	if err != nil {
		m.clearButtons(ctx, msg)
		return fmt.Errorf("moderation: load approved #%d: %w", id, err)
	}
	m.markDecided(ctx, msg, app, "✅ Одобрено")

	m.notifySubmitter(ctx, app, "✅ Ваша заявка одобрена и будет опубликована.")

	if app.Due(m.now()) {
		if err := m.publisher.Publish(ctx, app); err != nil {
			// Leave it approved — the scheduled sweep retries.
			m.logger.Error("immediate publish failed", "id", id, "error", err)
		}
	}
	return nil
}

// reject marks the application rejected and notifies the submitter with a
// generic message.
func (m *Moderator) reject(ctx context.Context, msg message.InboundMessage, id int64) error {
	if err := m.apps.SetStatus(ctx, id, store.StatusPending, store.StatusRejected); err != nil {
		m.answerDecisionError(ctx, msg.Callback.ID, err)
		return fmt.Errorf("moderation: reject #%d: %w", id, err)
	}
	if m.metrics != nil {
		m.metrics.RecordModeration("rejected")
	}
	m.logger.Info("application rejected", "id", id, "admin", msg.Sender.ID)

	m.answer(ctx, msg.Callback.ID, "Отклонено")

	app, err := m.apps.ByID(ctx, id)
	if err != nil {
		m.clearButtons(ctx, msg)
		return fmt.Errorf("moderation: load rejected #%d: %w", id, err)
	}
	m.markDecided(ctx, msg, app, "❌ Отклонено")

	m.notifySubmitter(ctx, app, "К сожалению, ваша заявка отклонена модератором.")
	return nil
}

// sendFull sends the untruncated application text to the admin chat.
func (m *Moderator) sendFull(ctx context.Context, msg message.InboundMessage, id int64) error {
	m.answer(ctx, msg.Callback.ID, "")

	app, err := m.apps.ByID(ctx, id)
	if err != nil {
		return fmt.Errorf("moderation: load #%d: %w", id, err)
	}

	out := message.NewTextMessage(m.adminChat,
		fmt.Sprintf("📄 Заявка #%d, полный текст:\n\n%s", app.ID, app.Text))
	if err := m.ch.Send(ctx, out); err != nil {
		return fmt.Errorf("moderation: send full text of #%d: %w", id, err)
	}
	return nil
}

// notifySubmitter sends a status update to the user's direct chat.
// Failures are logged, not returned: the moderation decision already stands.
func (m *Moderator) notifySubmitter(ctx context.Context, app *store.Application, text string) {
	out := message.NewTextMessage(message.Chat{ID: app.UserID, Type: message.ChatDM}, text)
	if err := m.ch.Send(ctx, out); err != nil {
		if m.metrics != nil {
			m.metrics.RecordSendFailure()
		}
		m.logger.Warn("submitter notification failed",
			"id", app.ID,
			"user", app.UserID,
			"error", err,
		)
	}
}

// answer acknowledges the callback so the admin's client stops its spinner.
func (m *Moderator) answer(ctx context.Context, callbackID, text string) {
	answerer, ok := m.ch.(channel.CallbackAnswerer)
	if !ok {
		return
	}
	if err := answerer.AnswerCallback(ctx, callbackID, text); err != nil {
		m.logger.Debug("answer callback failed", "error", err)
	}
}

// answerDecisionError tells the admin why the button press had no effect.
func (m *Moderator) answerDecisionError(ctx context.Context, callbackID string, err error) {
	switch {
	case errors.Is(err, store.ErrInvalidTransition):
		m.answer(ctx, callbackID, "Заявка уже рассмотрена")
	case errors.Is(err, store.ErrNotFound):
		m.answer(ctx, callbackID, "Заявка не найдена")
	default:
		m.answer(ctx, callbackID, "Ошибка, попробуйте ещё раз")
	}
}

// markDecided rewrites the decided card so the verdict stays visible in the
// admin chat. Photo cards keep their caption unchanged, only the keyboard is
// removed: editing a caption is a separate Bot API method.
func (m *Moderator) markDecided(ctx context.Context, msg message.InboundMessage, app *store.Application, verdict string) {
	if msg.Callback.MessageID == 0 {
		return
	}

	editor, ok := m.ch.(channel.MessageEditor)
	if !ok || app.PhotoID != "" {
		m.clearButtons(ctx, msg)
		return
	}

	card := AdminCard(app, m.adminChat)
	if err := editor.EditText(ctx, msg.Chat, msg.Callback.MessageID, card.Text+"\n\n"+verdict); err != nil {
		m.logger.Debug("mark decided failed", "error", err)
		m.clearButtons(ctx, msg)
	}
}

// clearButtons removes the inline keyboard from the decided card.
func (m *Moderator) clearButtons(ctx context.Context, msg message.InboundMessage) {
	editor, ok := m.ch.(channel.KeyboardEditor)
	if !ok || msg.Callback.MessageID == 0 {
		return
	}
	if err := editor.EditKeyboard(ctx, msg.Chat, msg.Callback.MessageID, nil); err != nil {
		m.logger.Debug("clear keyboard failed", "error", err)
	}
}

// parseCallback splits "mod:<action>:<id>" into its parts.
func parseCallback(data string) (action string, id int64, err error) {
	parts := strings.Split(data, ":")
	if len(parts) != 3 || parts[0] != "mod" {
		return "", 0, fmt.Errorf("moderation: malformed callback %q", data)
	}
	id, err = strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("moderation: malformed callback id %q", parts[2])
	}
	return parts[1], id, nil
}
