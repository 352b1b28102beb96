package bot

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/vestnik-bot/vestnik/internal/channel"
	"github.com/vestnik-bot/vestnik/internal/core"
	"github.com/vestnik-bot/vestnik/internal/store"
	"github.com/vestnik-bot/vestnik/pkg/message"
	"gopkg.in/yaml.v3"
)

const (
	testAdminChat = int64(-500)
	testChannel   = int64(-600)
	userChat      = int64(42)
)

type fakeStore struct {
	apps   map[int64]*store.Application
	nextID int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{apps: make(map[int64]*store.Application)}
}

func (f *fakeStore) Add(_ context.Context, app *store.Application) (int64, error) {
	f.nextID++
	app.ID = f.nextID
	app.Status = store.StatusPending
	cp := *app
	f.apps[app.ID] = &cp
	return app.ID, nil
}

func (f *fakeStore) ByID(_ context.Context, id int64) (*store.Application, error) {
	app, ok := f.apps[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return app, nil
}

func (f *fakeStore) SetStatus(_ context.Context, id int64, current, next store.Status) error {
	app, ok := f.apps[id]
	if !ok {
		return store.ErrNotFound
	}
	if app.Status != current || !current.CanTransition(next) {
		return store.ErrInvalidTransition
	}
	app.Status = next
	return nil
}

func (f *fakeStore) ApprovedUnpublished(_ context.Context, now time.Time) ([]store.Application, error) {
	var out []store.Application
	for _, app := range f.apps {
		if app.Status == store.StatusApproved && app.Due(now) {
			out = append(out, *app)
		}
	}
	return out, nil
}

func (f *fakeStore) MarkPublished(_ context.Context, id int64) error {
	app, ok := f.apps[id]
	if !ok {
		return store.ErrNotFound
	}
	now := time.Now()
	app.Status = store.StatusPublished
	app.PublishedAt = &now
	return nil
}

func (f *fakeStore) CountRecentByUser(_ context.Context, _ int64, _ time.Duration) (int, error) {
	return 0, nil
}

func (f *fakeStore) CountByStatus(_ context.Context) (map[store.Status]int64, error) {
	counts := make(map[store.Status]int64)
	for _, app := range f.apps {
		counts[app.Status]++
	}
	return counts, nil
}

func (f *fakeStore) PurgeTerminal(_ context.Context, _ time.Duration) (int64, error) {
	return 0, nil
}

// newTestBot builds a provisioned module bound to a mock channel.
func newTestBot(t *testing.T) (*Module, *channel.MockChannel, *fakeStore) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	appCtx := core.NewAppContext(logger, t.TempDir())

	apps := newFakeStore()
	appCtx.RegisterService("store.applications", apps)

	m := &Module{}
	raw := []byte("admin_chat_id: -500\nchannel_id: -600\n")
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshal config: %v", err)
	}
	if err := m.Configure(doc.Content[0]); err != nil {
		t.Fatalf("Configure() error: %v", err)
	}
	if err := m.Provision(appCtx); err != nil {
		t.Fatalf("Provision() error: %v", err)
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}

	mc := channel.NewMockChannel("test")
	m.SetChannel(mc)
	return m, mc, apps
}

func dm(text string) message.InboundMessage {
	return message.InboundMessage{
		Sender: message.Sender{ID: userChat, Username: "ivanov"},
		Chat:   message.Chat{ID: userChat, Type: message.ChatDM},
		Text:   text,
	}
}

func dmCallback(data string) message.InboundMessage {
	return message.InboundMessage{
		Sender:   message.Sender{ID: userChat, Username: "ivanov"},
		Chat:     message.Chat{ID: userChat, Type: message.ChatDM},
		Callback: &message.Callback{ID: "cb", Data: data},
	}
}

func lastSent(t *testing.T, mc *channel.MockChannel) message.OutboundMessage {
	t.Helper()
	sent := mc.SentMessages()
	if len(sent) == 0 {
		t.Fatal("no messages sent")
	}
	return sent[len(sent)-1]
}

func TestStartupNoticeReachesAdmin(t *testing.T) {
	m, mc, _ := newTestBot(t)

	if err := m.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	notice := lastSent(t, mc)
	if notice.Chat.ID != testAdminChat {
		t.Errorf("notice chat = %d, want %d", notice.Chat.ID, testAdminChat)
	}
	if !strings.Contains(notice.Text, "запущен") {
		t.Errorf("notice = %q", notice.Text)
	}
}

func TestStartWithoutChannelFails(t *testing.T) {
	m := &Module{}
	if err := m.Start(); err == nil {
		t.Fatal("Start() without a bound channel should fail")
	}
}

func TestStartShowsMenu(t *testing.T) {
	m, mc, _ := newTestBot(t)

	if err := m.HandleInbound(dm("/start")); err != nil {
		t.Fatalf("HandleInbound() error: %v", err)
	}

	menu := lastSent(t, mc)
	if menu.Chat.ID != userChat {
		t.Errorf("menu chat = %d, want %d", menu.Chat.ID, userChat)
	}
	var buttons int
	for _, row := range menu.Keyboard {
		buttons += len(row)
	}
	if buttons != 4 {
		t.Errorf("menu has %d buttons, want 4", buttons)
	}
}

func TestNewsSubmissionReachesAdmin(t *testing.T) {
	m, mc, apps := newTestBot(t)

	steps := []message.InboundMessage{
		dmCallback("form:news"),
		dm("+79991234567"),
		dm("В субботу на площади пройдёт ярмарка выходного дня"),
		dmCallback("confirm:send"),
	}
	for _, msg := range steps {
		if err := m.HandleInbound(msg); err != nil {
			t.Fatalf("HandleInbound(%q) error: %v", msg.Text, err)
		}
	}

	app, err := apps.ByID(context.Background(), 1)
	if err != nil {
		t.Fatalf("application not stored: %v", err)
	}
	if app.Status != store.StatusPending || app.Type != store.TypeNews {
		t.Errorf("stored app = %s/%s, want pending news", app.Status, app.Type)
	}

	var adminCard *message.OutboundMessage
	sent := mc.SentMessages()
	for i := range sent {
		if sent[i].Chat.ID == testAdminChat {
			adminCard = &sent[i]
		}
	}
	if adminCard == nil {
		t.Fatal("no moderation card sent to admin chat")
	}
	if !strings.Contains(adminCard.Text, "@ivanov") {
		t.Errorf("card %q missing submitter", adminCard.Text)
	}
	if len(adminCard.Keyboard) == 0 {
		t.Error("moderation card has no decision buttons")
	}
}

func TestApproveFromAdminChatPublishes(t *testing.T) {
	m, mc, apps := newTestBot(t)

	for _, msg := range []message.InboundMessage{
		dmCallback("form:news"),
		dm("+79991234567"),
		dm("Открылся новый продуктовый магазин на центральной улице"),
		dmCallback("confirm:send"),
	} {
		if err := m.HandleInbound(msg); err != nil {
			t.Fatalf("HandleInbound() error: %v", err)
		}
	}

	approve := message.InboundMessage{
		Sender:   message.Sender{ID: 7},
		Chat:     message.Chat{ID: testAdminChat, Type: message.ChatGroup},
		Callback: &message.Callback{ID: "cb-adm", Data: "mod:approve:1", MessageID: 3},
	}
	if err := m.HandleInbound(approve); err != nil {
		t.Fatalf("approve error: %v", err)
	}

	if apps.apps[1].Status != store.StatusPublished {
		t.Errorf("Status = %q, want published", apps.apps[1].Status)
	}
	var posted bool
	for _, out := range mc.SentMessages() {
		if out.Chat.ID == testChannel && strings.Contains(out.Text, "магазин") {
			posted = true
		}
	}
	if !posted {
		t.Error("approved application was not posted to the channel")
	}
}

func TestCancelEndsForm(t *testing.T) {
	m, mc, _ := newTestBot(t)

	if err := m.HandleInbound(dmCallback("form:carpool")); err != nil {
		t.Fatalf("start form: %v", err)
	}
	if err := m.HandleInbound(dm("/cancel")); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got := lastSent(t, mc).Text; got != textCancelled {
		t.Errorf("reply = %q, want %q", got, textCancelled)
	}

	// A second /cancel has nothing to abort.
	if err := m.HandleInbound(dm("/cancel")); err != nil {
		t.Fatalf("second cancel: %v", err)
	}
	if got := lastSent(t, mc).Text; got != textNothingToDo {
		t.Errorf("reply = %q, want %q", got, textNothingToDo)
	}
}

func TestFreeTextWithoutFormHints(t *testing.T) {
	m, mc, _ := newTestBot(t)

	if err := m.HandleInbound(dm("привет")); err != nil {
		t.Fatalf("HandleInbound() error: %v", err)
	}
	if got := lastSent(t, mc).Text; got != textHint {
		t.Errorf("reply = %q, want hint", got)
	}
}

func TestGroupChatterIgnored(t *testing.T) {
	m, mc, _ := newTestBot(t)

	msg := message.InboundMessage{
		Sender: message.Sender{ID: 9},
		Chat:   message.Chat{ID: -700, Type: message.ChatGroup},
		Text:   "/start",
	}
	if err := m.HandleInbound(msg); err != nil {
		t.Fatalf("HandleInbound() error: %v", err)
	}
	if len(mc.SentMessages()) != 0 {
		t.Error("group messages should not trigger replies")
	}
}

func TestStaleFormCallback(t *testing.T) {
	m, mc, _ := newTestBot(t)

	if err := m.HandleInbound(dmCallback("confirm:send")); err != nil {
		t.Fatalf("HandleInbound() error: %v", err)
	}
	if len(mc.SentMessages()) != 0 {
		t.Error("stale callback should only be answered, not replied to")
	}
	if len(mc.AnsweredCallbacks()) != 1 {
		t.Error("stale callback should be acknowledged")
	}
}

func TestUnknownFormType(t *testing.T) {
	m, mc, _ := newTestBot(t)

	if err := m.HandleInbound(dmCallback("form:nonsense")); err != nil {
		t.Fatalf("HandleInbound() error: %v", err)
	}
	if len(mc.SentMessages()) != 0 {
		t.Error("unknown form should not produce a prompt")
	}
	if len(mc.AnsweredCallbacks()) != 1 {
		t.Error("unknown form press should be acknowledged")
	}
}
