package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"cargas/auth"
	"cargas/config"
	"cargas/db/db"
	"cargas/db/mem"
	"cargas/db/pg"
	"cargas/db/sp"
	"cargas/fleet"
	"cargas/libs/logging"
	"cargas/mq/gcppubsub"
	"cargas/mq/goch"
	"cargas/mq/mq"
	"cargas/mq/rabbit"
	"cargas/notify"
	"cargas/syncer"
)

// app owns every long-lived component of one process. Close releases them
// in reverse order of construction.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	store    db.Store
	lookup   *fleet.Lookup
	events   mq.RecordMessageQueueWrapper
	spClient *sp.Client
	sync     *syncer.Synchronizer

	closers []func()
}

type appOptions struct {
	// withEvents starts the configured message queue
	withEvents bool
	// override adjusts the loaded config before anything is built
	override func(*app)
}

func newApp(ctx context.Context, opts appOptions) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger}
	if opts.override != nil {
		opts.override(a)
	}
	a.closers = append(a.closers, func() { logger.Sync() })

	if err := a.initStore(); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.initFleet(); err != nil {
		a.Close()
		return nil, err
	}
	if opts.withEvents {
		if err := a.initEvents(ctx); err != nil {
			a.Close()
			return nil, err
		}
	}

	syncOpts := []syncer.Option{syncer.WithLogger(logger), syncer.WithEvents(a.events)}
	if cfg.Webhooks.NotifyFleetURL != "" || cfg.Webhooks.AISelectorURL != "" {
		trigger := notify.NewWebhookClient(cfg.Webhooks.NotifyFleetURL, cfg.Webhooks.AISelectorURL, nil, logger)
		syncOpts = append(syncOpts, syncer.WithTrigger(trigger))
	}
	a.sync = syncer.New(a.store, a.lookup, syncOpts...)
	return a, nil
}

func (a *app) initStore() error {
	switch a.cfg.Store.Backend {
	case config.StoreMemory:
		a.store = mem.NewInMemoryStore()
	case config.StorePostgres:
		gdb, err := pg.InitPostgresGORM(pg.CreateDSN(a.cfg.Database))
		if err != nil {
			return err
		}
		a.closers = append(a.closers, func() { pg.CloseGORM(gdb) })
		a.store = pg.NewGORMStore(gdb)
	case config.StoreSharePoint:
		spc := a.cfg.SharePoint
		session := auth.NewClientCredentialsSession(spc.TenantID, spc.ClientID, spc.ClientSecret, spc.TokenURL,
			auth.WithLogger(a.logger))
		a.spClient = sp.NewClient(spc.GraphURL, spc.SiteID, session, a.logger)
		a.store = sp.NewStore(a.spClient, spc.Lists, a.logger)
	default:
		return fmt.Errorf("unknown store backend %q", a.cfg.Store.Backend)
	}
	a.logger.Info("store ready", zap.String("backend", string(a.cfg.Store.Backend)))
	return nil
}

func (a *app) initFleet() error {
	var source fleet.Source
	switch a.cfg.Fleet.Source {
	case config.FleetNone, "":
	case config.FleetWebhook:
		source = fleet.NewWebhookSource(a.cfg.Fleet.WebhookURL, nil)
	case config.FleetPGView:
		gdb, err := pg.InitPostgresGORM(a.cfg.FleetDSN())
		if err != nil {
			return fmt.Errorf("failed to open fleet database: %w", err)
		}
		a.closers = append(a.closers, func() { pg.CloseGORM(gdb) })
		view, err := fleet.NewPGViewSource(gdb, a.cfg.Fleet.View)
		if err != nil {
			return err
		}
		source = view
	default:
		return fmt.Errorf("unknown fleet source %q", a.cfg.Fleet.Source)
	}
	a.lookup = fleet.NewLookup(source, a.logger)
	return nil
}

func (a *app) initEvents(ctx context.Context) error {
	switch mq.Mode(a.cfg.MQ.Mode) {
	case mq.ModeNone, "":
		return nil
	case mq.ModeGoChan:
		a.events = goch.NewGoChanRecordMessageQueueWrapper(64)
	case mq.ModeRabbitMQ:
		conn, err := rabbit.NewRabbitConnection(a.cfg.MQ.RabbitURL)
		if err != nil {
			return err
		}
		wrapper, err := rabbit.NewRabbitRecordMessageQueueWrapper(conn, a.logger)
		if err != nil {
			conn.Close()
			return err
		}
		a.events = wrapper
	case mq.ModeGCPPubSub:
		wrapper, err := gcppubsub.NewGCPRecordMessageQueueWrapper(ctx, a.cfg.MQ.GCPProject, a.logger)
		if err != nil {
			return err
		}
		a.events = wrapper
	default:
		return fmt.Errorf("unknown mq mode %q", a.cfg.MQ.Mode)
	}
	events := a.events
	a.closers = append(a.closers, events.Close)
	a.logger.Info("record events enabled", zap.String("mode", a.cfg.MQ.Mode))
	return nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
