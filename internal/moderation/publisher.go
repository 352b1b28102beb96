package moderation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vestnik-bot/vestnik/internal/channel"
	"github.com/vestnik-bot/vestnik/internal/store"
	"github.com/vestnik-bot/vestnik/pkg/message"
)

// Metrics receives counters from the moderation workflow. Implemented by
// gateway.Metrics.
type Metrics interface {
	RecordModeration(outcome string)
	RecordPublished()
	RecordSendFailure()
}

// Publisher delivers approved applications to the community channel and
// marks them published.
type Publisher struct {
	apps    store.Store
	ch      channel.Channel
	channel message.Chat
	logger  *slog.Logger
	metrics Metrics
}

// NewPublisher creates a Publisher posting to channelID.
func NewPublisher(apps store.Store, ch channel.Channel, channelID int64, logger *slog.Logger, metrics Metrics) *Publisher {
	return &Publisher{
		apps:    apps,
		ch:      ch,
		channel: message.Chat{ID: channelID, Type: message.ChatBroadcast},
		logger:  logger,
		metrics: metrics,
	}
}

// Publish sends the application to the channel and marks it published.
// The send happens before the mark, so a crash in between can produce a
// duplicate post on the next sweep; a failed send leaves the row approved
// for retry.
func (p *Publisher) Publish(ctx context.Context, app *store.Application) error {
	if err := p.ch.Send(ctx, ChannelPost(app, p.channel)); err != nil {
		if p.metrics != nil {
			p.metrics.RecordSendFailure()
		}
		return fmt.Errorf("moderation: publish #%d: %w", app.ID, err)
	}

	if err := p.apps.MarkPublished(ctx, app.ID); err != nil {
		return fmt.Errorf("moderation: mark #%d published: %w", app.ID, err)
	}

	if p.metrics != nil {
		p.metrics.RecordPublished()
	}
	p.logger.Info("application published", "id", app.ID, "type", app.Type)
	return nil
}
