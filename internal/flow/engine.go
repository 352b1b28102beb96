package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vestnik-bot/vestnik/internal/censor"
	"github.com/vestnik-bot/vestnik/internal/store"
	"github.com/vestnik-bot/vestnik/pkg/message"
)

// Sentinel errors for form operations.
var (
	// ErrRateLimited indicates the user exceeded the submission rate limit.
	ErrRateLimited = errors.New("flow: rate limit exceeded")

	// ErrNoSession indicates the user has no form in progress.
	ErrNoSession = errors.New("flow: no active session")

	// ErrUnknownForm indicates an unrecognized form type.
	ErrUnknownForm = errors.New("flow: unknown form")
)

// Callback data values used by the confirmation step.
const (
	confirmSend   = "confirm:send"
	confirmEdit   = "confirm:edit"
	confirmCancel = "confirm:cancel"
)

// Metrics receives counters from the engine. Implemented by gateway.Metrics.
type Metrics interface {
	RecordSubmission(appType string)
	RecordRateLimited()
}

// Engine walks users through submission forms and persists the result as a
// pending application on final confirmation.
type Engine struct {
	sessions SessionStore
	apps     store.Store
	filter   *censor.Filter
	logger   *slog.Logger
	forms    map[string]*Form

	rateLimit  int
	rateWindow time.Duration
	metrics    Metrics

	// now is injectable for testing. Defaults to time.Now.
	now func() time.Time
}

// Options configures optional Engine settings.
type Options struct {
	// RateLimit is the maximum submissions per RateWindow per user.
	// Zero disables the limit.
	RateLimit int

	// RateWindow is the rolling window for RateLimit. Defaults to one hour.
	RateWindow time.Duration

	// Metrics, if set, receives submission counters.
	Metrics Metrics
}

// NewEngine creates a form engine.
func NewEngine(sessions SessionStore, apps store.Store, filter *censor.Filter, logger *slog.Logger, opts Options) *Engine {
	if opts.RateWindow <= 0 {
		opts.RateWindow = time.Hour
	}
	return &Engine{
		sessions:   sessions,
		apps:       apps,
		filter:     filter,
		logger:     logger,
		forms:      Forms(),
		rateLimit:  opts.RateLimit,
		rateWindow: opts.RateWindow,
		metrics:    opts.Metrics,
		now:        time.Now,
	}
}

// Start begins a form for the user, replacing any form in progress.
// It returns the first prompt, or ErrRateLimited / ErrUnknownForm.
func (e *Engine) Start(ctx context.Context, sender message.Sender, chat message.Chat, formType string) (message.OutboundMessage, error) {
	form, ok := e.forms[formType]
	if !ok {
		return message.OutboundMessage{}, fmt.Errorf("%w: %q", ErrUnknownForm, formType)
	}

	if e.rateLimit > 0 {
		n, err := e.apps.CountRecentByUser(ctx, sender.ID, e.rateWindow)
		if err != nil {
			return message.OutboundMessage{}, fmt.Errorf("flow: rate limit check: %w", err)
		}
		if n >= e.rateLimit {
			if e.metrics != nil {
				e.metrics.RecordRateLimited()
			}
			return message.OutboundMessage{}, ErrRateLimited
		}
	}

	sess := &Session{
		UserID:   sender.ID,
		Username: sender.Username,
		Chat:     chat,
		Form:     formType,
		Values:   make(map[string]string),
	}
	e.sessions.Put(sess)

	return e.prompt(form, sess), nil
}

// Cancel aborts the user's form in progress. It reports whether a session
// existed.
func (e *Engine) Cancel(userID int64) bool {
	if e.sessions.Get(userID) == nil {
		return false
	}
	e.sessions.Delete(userID)
	return true
}

// Active reports whether the user has a form in progress.
func (e *Engine) Active(userID int64) bool {
	return e.sessions.Get(userID) != nil
}

// Input processes the user's answer to the current step. It returns the
// replies to send and, when the form completed, the persisted application.
func (e *Engine) Input(ctx context.Context, msg message.InboundMessage) ([]message.OutboundMessage, *store.Application, error) {
	sess := e.sessions.Get(msg.Sender.ID)
	if sess == nil {
		return nil, nil, ErrNoSession
	}
	e.sessions.Touch(msg.Sender.ID)

	form := e.forms[sess.Form]

	input := msg.Text
	if msg.IsCallback() {
		input = msg.Callback.Data
	}
	if msg.PhotoID != "" {
		sess.PhotoID = msg.PhotoID
	}

	// Confirmation stage: all steps answered, preview shown.
	if sess.Step >= len(form.Steps) {
		return e.handleConfirm(ctx, form, sess, input)
	}

	step := form.Steps[sess.Step]

	value := input
	if step.Validate != nil {
		v, err := step.Validate(input, e.now())
		if err != nil {
			reply := e.prompt(form, sess)
			reply.Text = userErrorText(err) + "\n\n" + reply.Text
			return []message.OutboundMessage{reply}, nil, nil
		}
		value = v
	}
	sess.Values[step.Field] = value

	e.advance(form, sess)

	if sess.Step >= len(form.Steps) {
		return []message.OutboundMessage{e.preview(form, sess)}, nil, nil
	}
	return []message.OutboundMessage{e.prompt(form, sess)}, nil, nil
}

// advance moves the session to the next applicable step.
func (e *Engine) advance(form *Form, sess *Session) {
	sess.Step++
	for sess.Step < len(form.Steps) {
		skip := form.Steps[sess.Step].SkipIf
		if skip == nil || !skip(sess) {
			return
		}
		sess.Step++
	}
}

// prompt builds the outbound message for the session's current step.
func (e *Engine) prompt(form *Form, sess *Session) message.OutboundMessage {
	step := form.Steps[sess.Step]
	out := message.NewTextMessage(sess.Chat, step.Prompt)
	if step.Keyboard != nil {
		out.Keyboard = step.Keyboard
	}
	return out
}

// preview renders the final text through the censor and asks the user to
// confirm, edit, or cancel.
func (e *Engine) preview(form *Form, sess *Session) message.OutboundMessage {
	text := renderText(form, sess)

	filtered := text
	found := false
	if e.filter != nil {
		filtered, found = e.filter.Censor(text)
	}
	sess.Values["final_text"] = filtered

	body := "Проверьте заявку перед отправкой:\n\n" + filtered
	if found {
		body += "\n\n⚠️ Часть слов была заменена фильтром."
	}

	out := message.NewTextMessage(sess.Chat, body)
	if sess.PhotoID != "" {
		out.PhotoID = sess.PhotoID
	}
	out.Keyboard = [][]message.Button{
		message.Row(message.Button{Text: "✅ Отправить", Data: confirmSend}),
		message.Row(
			message.Button{Text: "✏️ Изменить", Data: confirmEdit},
			message.Button{Text: "❌ Отменить", Data: confirmCancel},
		),
	}
	return out
}

// handleConfirm processes the user's choice on the preview.
func (e *Engine) handleConfirm(ctx context.Context, form *Form, sess *Session, input string) ([]message.OutboundMessage, *store.Application, error) {
	switch input {
	case confirmSend:
		app, err := e.submit(ctx, form, sess)
		if err != nil {
			return nil, nil, err
		}
		e.sessions.Delete(sess.UserID)
		reply := message.NewTextMessage(sess.Chat,
			"Заявка отправлена на модерацию. Мы сообщим, когда её рассмотрят.")
		return []message.OutboundMessage{reply}, app, nil

	case confirmEdit:
		sess.Step = 0
		sess.Values = make(map[string]string)
		sess.PhotoID = ""
		return []message.OutboundMessage{e.prompt(form, sess)}, nil, nil

	case confirmCancel:
		e.sessions.Delete(sess.UserID)
		reply := message.NewTextMessage(sess.Chat, "Заявка отменена.")
		return []message.OutboundMessage{reply}, nil, nil

	default:
		// Anything else re-shows the preview.
		return []message.OutboundMessage{e.preview(form, sess)}, nil, nil
	}
}

// submit persists the completed form as a pending application.
func (e *Engine) submit(ctx context.Context, form *Form, sess *Session) (*store.Application, error) {
	app := &store.Application{
		UserID:   sess.UserID,
		Username: sess.Username,
		Type:     form.Type,
		Subtype:  sess.Values["subtype"],
		FromName: sess.Values["from_name"],
		ToName:   sess.Values["to_name"],
		Text:     sess.Values["final_text"],
		PhotoID:  sess.PhotoID,
		Phone:    sess.Values["phone"],
		Status:   store.StatusPending,
	}

	if d := sess.Values["publish_date"]; d != "" {
		t, err := time.Parse("2006-01-02", d)
		if err != nil {
			return nil, fmt.Errorf("flow: parse publish date: %w", err)
		}
		app.PublishDate = &t
	}

	id, err := e.apps.Add(ctx, app)
	if err != nil {
		return nil, fmt.Errorf("flow: save application: %w", err)
	}
	app.ID = id

	if e.metrics != nil {
		e.metrics.RecordSubmission(string(form.Type))
	}
	e.logger.Info("application submitted",
		"id", id,
		"type", form.Type,
		"user", sess.UserID,
	)
	return app, nil
}

// renderText assembles the channel-ready text from the session values.
func renderText(form *Form, sess *Session) string {
	switch form.Type {
	case store.TypeCongrat:
		text := sess.Values["text"]
		if tmpl, ok := holidayTemplates[sess.Values["greeting"]]; ok {
			text = tmpl
		}
		return fmt.Sprintf("🎉 %s!\n%s\n\nОт %s",
			sess.Values["to_name"], text, sess.Values["from_name"])

	default:
		return fmt.Sprintf("%s\n\n📞 %s", sess.Values["text"], sess.Values["phone"])
	}
}

// userErrorText strips the package prefix from validator errors so users see
// only the Russian message.
func userErrorText(err error) string {
	const prefix = "flow: "
	s := err.Error()
	if len(s) > len(prefix) && s[:len(prefix)] == prefix {
		s = s[len(prefix):]
	}
	return "⚠️ " + s
}
