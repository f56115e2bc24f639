// Package app assembles dana: config, logging, storage, the telegram
// adapter, the scheduler loop and the meeting registry, and runs the inbound
// update pump.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tmichela/dana/internal/config"
	"github.com/tmichela/dana/internal/eventbus"
	"github.com/tmichela/dana/internal/holiday"
	"github.com/tmichela/dana/internal/meeting"
	"github.com/tmichela/dana/internal/router"
	rtsup "github.com/tmichela/dana/internal/runtime/supervisor"
	"github.com/tmichela/dana/internal/scheduler"
	"github.com/tmichela/dana/internal/storage"
	"github.com/tmichela/dana/internal/transport"
	"github.com/tmichela/dana/internal/transport/telegram"
	"github.com/tmichela/dana/pkg/logx"
)

type App struct {
	cfgMgr *config.Manager
	logSvc *logx.Service
	log    logx.Logger

	store    storage.Store
	adapter  transport.Adapter
	sched    *scheduler.Service
	registry *meeting.Registry
	router   *router.Router
	bus      eventbus.Bus

	sup     *rtsup.Supervisor
	updates chan transport.Update
}

// New builds the application from a config file path. Nothing is started;
// Run does that.
func New(cfgPath string) (*App, error) {
	mgr := config.NewManager(cfgPath)
	cfg, err := mgr.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	mgr.SetLogger(log.With(logx.String("component", "config")))

	a := &App{
		cfgMgr:  mgr,
		logSvc:  logSvc,
		log:     log.With(logx.String("component", "app")),
		bus:     eventbus.New(),
		updates: make(chan transport.Update, 64),
	}
	if err := a.build(cfg); err != nil {
		logSvc.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(cfg *config.Config) error {
	busyTimeout, err := config.ParseDurationOrDefault("storage.busy_timeout", cfg.Storage.BusyTimeout, 0)
	if err != nil {
		return err
	}
	store, err := storage.Open(storage.Config{
		Driver:      cfg.Storage.Driver,
		Path:        cfg.Storage.Path,
		BusyTimeout: busyTimeout,
	}, a.logSvc.Logger().With(logx.String("component", "storage")))
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	a.store = store

	pollTimeout, err := config.ParseDurationOrDefault("telegram.poll_timeout", cfg.Telegram.PollTimeout, 10*time.Second)
	if err != nil {
		return err
	}
	adapter, err := telegram.New(telegram.Config{
		Token:          cfg.Telegram.Token,
		PollTimeout:    pollTimeout,
		SendRatePerSec: cfg.Telegram.SendRatePerSec,
	}, a.logSvc.Logger())
	if err != nil {
		return fmt.Errorf("telegram: %w", err)
	}
	a.adapter = adapter

	var holidays meeting.HolidayChecker
	if cfg.Holidays.Country != "" {
		cal, err := holiday.New(cfg.Holidays.Country)
		if err != nil {
			return err
		}
		holidays = cal
	}

	loc := time.Local
	if tz := cfg.Scheduler.Timezone; tz != "" {
		loc, err = time.LoadLocation(tz)
		if err != nil {
			return fmt.Errorf("scheduler.timezone: %w", err)
		}
	}

	a.sched = scheduler.New(scheduler.WithLogger(a.logSvc.Logger()))
	a.registry = meeting.NewRegistry(meeting.Options{
		Store:     store,
		Transport: &payloadSender{adapter: a.adapter, log: a.logSvc.Logger()},
		Directory: &rosterDirectory{mgr: a.cfgMgr},
		Scheduler: a.sched,
		Holidays:  holidays,
		Bus:       a.bus,
		Logger:    a.logSvc.Logger(),
	})
	a.router = router.New(a.registry, a.logSvc.Logger(), loc)
	return nil
}

// Run starts every component and blocks until ctx is cancelled or a fatal
// component error occurs.
func (a *App) Run(ctx context.Context) error {
	a.sup = rtsup.New(ctx,
		rtsup.WithLogger(a.logSvc.Logger()),
		rtsup.WithCancelOnError(true),
	)

	if err := a.registry.Load(ctx); err != nil {
		return err
	}
	if err := a.adapter.Start(a.sup.Context(), a.updates); err != nil {
		return fmt.Errorf("transport: %w", err)
	}

	a.sup.Go("scheduler", a.sched.Run)
	a.sup.Go0("updates", a.consumeUpdates)
	a.sup.Go("config.watch", a.cfgMgr.Watch)
	a.sup.Go0("config.apply", a.applyConfigChanges)

	a.log.Info("dana running")
	<-a.sup.Context().Done()

	err := a.shutdown()
	if serr := a.sup.Err(); serr != nil {
		return serr
	}
	return err
}

func (a *App) shutdown() error {
	a.log.Info("shutting down")
	a.sup.Cancel()

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.adapter.Stop(stopCtx); err != nil {
		a.log.Warn("transport stop", logx.Err(err))
	}
	if err := a.sup.Wait(stopCtx); err != nil {
		a.log.Warn("components still active at shutdown", logx.Err(err))
	}

	err := a.store.Close()
	a.logSvc.Close()
	return err
}

// consumeUpdates is the inbound pump: every group/private text message goes
// through the router, and the reply lands in the chat it came from.
func (a *App) consumeUpdates(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case up := <-a.updates:
			if up.Kind != transport.UpdateMessage || up.Message == nil {
				continue
			}
			msg := up.Message
			reply := a.router.Handle(ctx, msg.Text)
			if reply == "" {
				continue
			}
			_, err := a.adapter.SendText(ctx, transport.ChatTarget{ChatID: msg.ChatID}, reply,
				&transport.SendOptions{ParseMode: "Markdown", DisablePreview: true})
			if err != nil {
				a.log.Warn("reply delivery failed",
					logx.Int64("chat", msg.ChatID), logx.Err(err))
			}
		}
	}
}

// applyConfigChanges reacts to hot-reloaded config: logging settings are
// re-applied in place; everything else requires a restart and is only noted.
func (a *App) applyConfigChanges(ctx context.Context) {
	ch := a.cfgMgr.Subscribe(4)
	defer a.cfgMgr.Unsubscribe(ch)

	for {
		select {
		case <-ctx.Done():
			return
		case cfg := <-ch:
			if cfg == nil {
				continue
			}
			a.logSvc.Apply(logx.Config{
				Level:   cfg.Logging.Level,
				Console: cfg.Logging.Console,
				File: logx.FileConfig{
					Enabled: cfg.Logging.File.Enabled,
					Path:    cfg.Logging.File.Path,
				},
			})
			a.bus.Publish(eventbus.Event{Type: eventbus.TypeConfigReloaded, Time: time.Now()})
			a.log.Info("config reloaded", logx.Int("roster", len(cfg.Chat.Members)))
		}
	}
}

// payloadSender fans a meeting payload out as direct messages.
type payloadSender struct {
	adapter transport.Adapter
	log     logx.Logger
}

func (s *payloadSender) Send(ctx context.Context, p meeting.Payload) error {
	var errs []error
	for _, userID := range p.To {
		_, err := s.adapter.SendPrivate(ctx, userID, p.Content,
			&transport.SendOptions{ParseMode: "Markdown", DisablePreview: true})
		if err != nil {
			s.log.Warn("private delivery failed", logx.Int64("user", userID), logx.Err(err))
			errs = append(errs, fmt.Errorf("user %d: %w", userID, err))
		}
	}
	return errors.Join(errs...)
}

// rosterDirectory resolves display names against the operator-maintained
// member roster in the config file. Reading through the manager means a
// hot-reloaded roster is picked up by the next command.
type rosterDirectory struct {
	mgr *config.Manager
}

func (d *rosterDirectory) Members(context.Context) ([]meeting.Member, error) {
	cfg := d.mgr.Get()
	if cfg == nil {
		return nil, errors.New("configuration not loaded")
	}
	out := make([]meeting.Member, 0, len(cfg.Chat.Members))
	for _, m := range cfg.Chat.Members {
		out = append(out, meeting.Member{Name: m.Name, ID: m.ID})
	}
	return out, nil
}
