package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/five82/shelf/internal/browse"
	"github.com/five82/shelf/internal/cache"
	"github.com/five82/shelf/internal/config"
	"github.com/five82/shelf/internal/inventory"
	"github.com/five82/shelf/internal/logging"
	"github.com/five82/shelf/internal/prefs"
	"github.com/five82/shelf/internal/session"
	"github.com/five82/shelf/internal/state"
	"github.com/five82/shelf/internal/ui"
)

// Options configure the shelf application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/shelf/prefs.toml
	LogLevel   string // empty means info
}

// Env is the wiring shared by the TUI and the one-shot commands.
type Env struct {
	Config  config.Config
	Logger  *zap.Logger
	Session *session.Store
	Client  *inventory.Client
	Cache   *cache.Cache
}

// Open loads configuration and builds the logger, session store, API client
// and list cache.
func Open(opts Options) (*Env, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(logging.Options{Path: cfg.LogFile, Level: opts.LogLevel})
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	sess, err := session.Open(cfg.CredentialsFile, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("open session: %w", err)
	}

	client, err := inventory.NewClient(cfg.APIURL, inventory.ClientOptions{
		Timeout: cfg.RequestTimeout,
		Tokens:  sess,
		Logger:  logger,
	})
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("init api client: %w", err)
	}

	c := cache.New(client, cache.Options{
		StaleAfter: cfg.StaleAfter,
		EvictAfter: cfg.EvictAfter,
		Logger:     logger,
	})

	logger.Info("starting",
		zap.String("api_url", cfg.APIURL),
		zap.String("config", cfg.Source),
		zap.Bool("signed_in", sess.Token() != ""),
	)

	return &Env{Config: cfg, Logger: logger, Session: sess, Client: client, Cache: c}, nil
}

// Close waits for background cache work and flushes the logger.
func (e *Env) Close() {
	e.Cache.Wait()
	_ = e.Logger.Sync()
}

// Run boots the shelf TUI until the user quits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	env, err := Open(opts)
	if err != nil {
		return err
	}
	defer env.Close()

	cfg := env.Config
	logger := env.Logger

	userPrefs, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		logger.Warn("load prefs failed", zap.Error(err))
	}

	store := &state.Store{}
	if user, ok := env.Session.User(); ok {
		store.SignedIn(user)
	}

	bridge := ui.NewBridge(0)
	env.Cache.Subscribe(bridge.CacheNotify)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sync := browse.NewSynchronizer(ctx, env.Cache, browse.NewLocation(userPrefs.LastLocation), bridge.SyncNotify, browse.SyncOptions{
		Debounce: cfg.SearchDebounce,
		PageSize: cfg.PageSize,
		Logger:   logger,
	})
	coord := browse.NewCoordinator(env.Client, env.Cache, sync, logger)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		runRevalidator(gctx, store, env.Client, env.Cache, cfg.RevalidateEvery, logger)
		return nil
	})

	var result ui.Result
	g.Go(func() error {
		// The revalidator stops with the UI.
		defer cancel()
		var err error
		result, err = ui.Run(ui.Options{
			Context:      gctx,
			Client:       env.Client,
			Session:      env.Session,
			Store:        store,
			Cache:        env.Cache,
			Sync:         sync,
			Coordinator:  coord,
			Bridge:       bridge,
			Logger:       logger,
			LastLocation: userPrefs.LastLocation,
			LogFile:      cfg.LogFile,
			ThemeName:    userPrefs.Theme,
		})
		return err
	})

	runErr := g.Wait()
	sync.Close()

	if result.ThemeName != "" {
		userPrefs.Theme = result.ThemeName
	}
	userPrefs.LastLocation = result.Location
	saveErr := prefs.Save(opts.PrefsPath, userPrefs)
	if saveErr != nil {
		logger.Warn("save prefs failed", zap.Error(saveErr))
		saveErr = fmt.Errorf("save prefs: %w", saveErr)
	}

	if bridge.Dropped() > 0 {
		logger.Debug("bridge dropped events", zap.Uint64("count", bridge.Dropped()))
	}
	logger.Info("exiting", zap.String("location", result.Location))

	if runErr != nil {
		return fmt.Errorf("run ui: %w", runErr)
	}
	return saveErr
}
