package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vestnik-bot/vestnik/internal/bot"
	"github.com/vestnik-bot/vestnik/internal/channel"
	"github.com/vestnik-bot/vestnik/internal/core"
	"github.com/vestnik-bot/vestnik/internal/cron"
	"github.com/vestnik-bot/vestnik/internal/store"
)

// schedulerModule wraps the cron scheduler so it participates in the App
// lifecycle.
type schedulerModule struct {
	sched *cron.Scheduler
}

func (m *schedulerModule) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{ID: "cron"}
}

func (m *schedulerModule) Start() error {
	return m.sched.Start()
}

func (m *schedulerModule) Stop(ctx context.Context) error {
	return m.sched.Stop(ctx)
}

// wireBot binds the bot module to the loaded channel and registers the
// background jobs. Must be called after LoadModules and before Start.
func wireBot(app *core.App, appCtx *core.AppContext, ids []string, logger *slog.Logger) error {
	var botMod *bot.Module
	var ch channel.Channel
	var chID string

	for _, id := range ids {
		mod, ok := app.Module(id)
		if !ok {
			continue
		}
		if b, ok := mod.(*bot.Module); ok {
			botMod = b
		}
		if c, ok := mod.(channel.Channel); ok {
			ch = c
			chID = id
		}
	}

	if botMod == nil {
		logger.Info("no bot module configured, skipping wiring")
		return nil
	}
	if ch == nil {
		return fmt.Errorf("bot.submissions requires a channel module")
	}

	botMod.SetChannel(ch)
	logger.Info("bot bound to channel", "channel", chID)

	svc, ok := appCtx.Service("store.applications")
	if !ok {
		return fmt.Errorf("service store.applications not available")
	}
	apps, ok := svc.(store.Store)
	if !ok {
		return fmt.Errorf("service store.applications has unexpected type %T", svc)
	}

	sched := cron.NewScheduler(logger)
	jobs := []cron.Job{
		&cron.PublishSweepJob{Apps: apps, Publisher: botMod.Publisher(), Logger: logger},
		&cron.RetentionJob{Apps: apps, Logger: logger},
		&cron.SessionPruneJob{Sessions: botMod.Sessions(), MaxIdle: botMod.SessionIdle(), Logger: logger},
	}
	for _, j := range jobs {
		if err := sched.RegisterJob(j); err != nil {
			return err
		}
	}

	app.AppendModule("cron", &schedulerModule{sched: sched})
	return nil
}
