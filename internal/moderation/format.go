// Package moderation implements the admin review workflow: application
// cards with approve/reject buttons, decision handling, and publication to
// the community channel.
package moderation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/vestnik-bot/vestnik/internal/store"
	"github.com/vestnik-bot/vestnik/pkg/message"
)

// adminCardTextLimit caps the text shown on the admin card. The full text
// is available via the "Показать целиком" button.
const adminCardTextLimit = 500

// Callback data prefixes for moderation buttons.
const (
	callbackPrefix  = "mod:"
	actionApprove   = "approve"
	actionReject    = "reject"
	actionFull      = "full"
	callbackApprove = callbackPrefix + actionApprove + ":"
	callbackReject  = callbackPrefix + actionReject + ":"
	callbackFull    = callbackPrefix + actionFull + ":"
)

// typeLabels maps application types to their Russian display names.
var typeLabels = map[store.Type]string{
	store.TypeCongrat:      "Поздравление",
	store.TypeAnnouncement: "Объявление",
	store.TypeNews:         "Новость",
	store.TypeCarpool:      "Попутчики",
}

// subtypeLabels maps announcement subtypes to their Russian display names.
var subtypeLabels = map[string]string{
	"buy":     "куплю",
	"sell":    "продам",
	"service": "услуги",
	"other":   "другое",
}

// AdminCard renders the moderation card for a new application, addressed to
// the admin chat.
func AdminCard(app *store.Application, adminChat message.Chat) message.OutboundMessage {
	var b strings.Builder

	fmt.Fprintf(&b, "📋 Заявка #%d: %s", app.ID, typeLabel(app))
	if app.Username != "" {
		fmt.Fprintf(&b, "\nОт: @%s (id %d)", app.Username, app.UserID)
	} else {
		fmt.Fprintf(&b, "\nОт: id %d", app.UserID)
	}
	if app.PublishDate != nil {
		fmt.Fprintf(&b, "\nПубликация: %s", app.PublishDate.Format("02.01.2006"))
	}
	b.WriteString("\n\n")
	b.WriteString(truncate(app.Text, adminCardTextLimit))

	out := message.NewTextMessage(adminChat, b.String())
	if app.PhotoID != "" {
		out.PhotoID = app.PhotoID
	}

	id := fmt.Sprintf("%d", app.ID)
	rows := [][]message.Button{
		message.Row(
			message.Button{Text: "✅ Одобрить", Data: callbackApprove + id},
			message.Button{Text: "❌ Отклонить", Data: callbackReject + id},
		),
	}
	if utf8.RuneCountInString(app.Text) > adminCardTextLimit {
		rows = append(rows, message.Row(
			message.Button{Text: "📄 Показать целиком", Data: callbackFull + id},
		))
	}
	out.Keyboard = rows
	return out
}

// ChannelPost renders the application for publication in the community
// channel.
func ChannelPost(app *store.Application, channelChat message.Chat) message.OutboundMessage {
	var b strings.Builder

	switch app.Type {
	case store.TypeCongrat:
		// Congrat text is already fully rendered by the form engine.
		b.WriteString(app.Text)
	case store.TypeAnnouncement:
		fmt.Fprintf(&b, "📢 Объявление (%s)\n\n%s", subtypeLabel(app.Subtype), app.Text)
	case store.TypeNews:
		fmt.Fprintf(&b, "📰 %s", app.Text)
	case store.TypeCarpool:
		fmt.Fprintf(&b, "🚗 Попутчики\n\n%s", app.Text)
	default:
		b.WriteString(app.Text)
	}

	out := message.NewTextMessage(channelChat, b.String())
	if app.PhotoID != "" {
		out.PhotoID = app.PhotoID
	}
	return out
}

func typeLabel(app *store.Application) string {
	label, ok := typeLabels[app.Type]
	if !ok {
		return string(app.Type)
	}
	if app.Type == store.TypeAnnouncement && app.Subtype != "" {
		label += " (" + subtypeLabel(app.Subtype) + ")"
	}
	return label
}

func subtypeLabel(subtype string) string {
	if label, ok := subtypeLabels[subtype]; ok {
		return label
	}
	return subtype
}

// truncate shortens text to limit runes, appending an ellipsis when cut.
func truncate(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return string(runes[:limit]) + "…"
}
