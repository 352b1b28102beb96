// Package bot wires the submission forms, the moderation workflow and the
// channel together into the "bot.submissions" module.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vestnik-bot/vestnik/internal/censor"
	"github.com/vestnik-bot/vestnik/internal/channel"
	"github.com/vestnik-bot/vestnik/internal/core"
	"github.com/vestnik-bot/vestnik/internal/flow"
	"github.com/vestnik-bot/vestnik/internal/gateway"
	"github.com/vestnik-bot/vestnik/internal/moderation"
	"github.com/vestnik-bot/vestnik/internal/store"
	"github.com/vestnik-bot/vestnik/pkg/message"
	"gopkg.in/yaml.v3"
)

// startupNoticeTimeout bounds the admin liveness notice sent from Start.
const startupNoticeTimeout = 10 * time.Second

func init() {
	core.RegisterModule(&Module{})
}

// Compile-time interface guards.
var (
	_ core.Configurable = (*Module)(nil)
	_ core.Provisioner  = (*Module)(nil)
	_ core.Validator    = (*Module)(nil)
	_ core.Starter      = (*Module)(nil)
)

// Module is the submission bot: it owns the form engine, the censor filter
// and the moderation workflow, and dispatches inbound messages between them.
type Module struct {
	config Config
	logger *slog.Logger
	appCtx *core.AppContext

	apps     store.Store
	metrics  *gateway.Metrics
	filter   *censor.Filter
	sessions *flow.InMemorySessionStore
	engine   *flow.Engine

	ch        channel.Channel
	moderator *moderation.Moderator
	publisher *moderation.Publisher
}

// ModuleInfo implements core.Module.
func (m *Module) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "bot.submissions",
		New: func() core.Module { return &Module{} },
	}
}

// Configure implements core.Configurable.
func (m *Module) Configure(node *yaml.Node) error {
	if err := node.Decode(&m.config); err != nil {
		return fmt.Errorf("bot: decode config: %w", err)
	}
	m.config.defaults()
	return nil
}

// Provision implements core.Provisioner. The store module must be loaded
// before this one; the metrics service is optional.
func (m *Module) Provision(ctx *core.AppContext) error {
	m.config.defaults()
	m.logger = ctx.Logger
	m.appCtx = ctx

	svc, ok := ctx.Service("store.applications")
	if !ok {
		return fmt.Errorf("bot: service store.applications not available, load a store module first")
	}
	apps, ok := svc.(store.Store)
	if !ok {
		return fmt.Errorf("bot: service store.applications has unexpected type %T", svc)
	}
	m.apps = apps

	if svc, ok := ctx.Service("gateway.metrics"); ok {
		if metrics, ok := svc.(*gateway.Metrics); ok {
			m.metrics = metrics
		}
	}

	m.filter = censor.New(m.logger)
	if m.config.WordsFile != "" {
		m.filter.AttachFile(m.config.WordsFile)
	}

	m.sessions = flow.NewInMemorySessionStore()
	ctx.RegisterService("bot.sessions", m.sessions)

	var flowMetrics flow.Metrics
	if m.metrics != nil {
		flowMetrics = m.metrics
	}
	m.engine = flow.NewEngine(m.sessions, m.apps, m.filter, m.logger, flow.Options{
		RateLimit: m.config.RateLimit,
		Metrics:   flowMetrics,
	})

	m.logger.Info("submission bot provisioned",
		"admin_chat", m.config.AdminChatID,
		"channel", m.config.ChannelID,
		"rate_limit", m.config.RateLimit,
	)

	return nil
}

// Validate implements core.Validator.
func (m *Module) Validate() error {
	return m.config.validate()
}

// Start implements core.Starter. The channel module starts before this one,
// so the admin chat gets a liveness notice as soon as the bot is up. A failed
// notice is logged, not fatal: the admin chat may simply be unreachable yet.
func (m *Module) Start() error {
	if m.ch == nil {
		return fmt.Errorf("bot: no channel bound, wiring did not run")
	}

	ctx, cancel := context.WithTimeout(context.Background(), startupNoticeTimeout)
	defer cancel()

	notice := message.NewTextMessage(
		message.Chat{ID: m.config.AdminChatID, Type: message.ChatGroup},
		"🟢 Бот запущен и принимает заявки.",
	)
	if err := m.ch.Send(ctx, notice); err != nil {
		m.logger.Warn("startup notice to admin chat failed", "error", err)
	}
	return nil
}

// SetChannel binds the bot to its messaging channel, builds the moderation
// workflow on top of it and routes the channel's inbox to the bot. Called
// once during application wiring, before Start.
func (m *Module) SetChannel(ch channel.Channel) {
	m.ch = ch

	var modMetrics moderation.Metrics
	if m.metrics != nil {
		modMetrics = m.metrics
	}
	m.publisher = moderation.NewPublisher(m.apps, ch, m.config.ChannelID, m.logger, modMetrics)
	m.moderator = moderation.NewModerator(m.apps, ch, m.publisher, m.config.AdminChatID, m.logger, modMetrics)

	if m.appCtx != nil {
		m.appCtx.RegisterService("bot.publisher", m.publisher)
	}

	ch.SetInbox(m.HandleInbound)
}

// Publisher returns the channel publisher, available after SetChannel.
func (m *Module) Publisher() *moderation.Publisher {
	return m.publisher
}

// Sessions returns the in-memory session store.
func (m *Module) Sessions() *flow.InMemorySessionStore {
	return m.sessions
}

// SessionIdle returns the configured idle timeout for form sessions.
func (m *Module) SessionIdle() time.Duration {
	return m.config.SessionIdle
}
