package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	domainauth "soxmonitor/internal/domain/auth"
	authstore "soxmonitor/internal/domain/auth/store"
	"soxmonitor/internal/domain/monitor"
	platformconfig "soxmonitor/internal/platform/config"
	platformerrors "soxmonitor/internal/platform/errors"
	platformlogging "soxmonitor/internal/platform/logging"
	platformstorage "soxmonitor/internal/platform/storage"
	httptransport "soxmonitor/internal/transport/http"
	httpauthapi "soxmonitor/internal/transport/http/authapi"
	httpmonitorapi "soxmonitor/internal/transport/http/monitorapi"
)

type stepFn func(context.Context, *appState) error

type initStep struct {
	ID        string
	Title     string
	DependsOn []string
	Kind      platformerrors.Kind
	Execute   stepFn
}

type appState struct {
	config     *platformconfig.Config
	configPath string
	logger     *platformlogging.Logger
	authority  *domainauth.Manager
	provider   monitor.Provider
	evaluator  *monitor.Evaluator
}

// Run starts the whole service lifecycle: configuration, dependency
// initialisation, HTTP serving and graceful shutdown.
func Run(ctx context.Context) error {
	state := &appState{}

	if err := executeInitSteps(ctx, InitGraph(), state); err != nil {
		return err
	}

	config := state.config
	logger := state.logger
	if config == nil || logger == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"bootstrap state validation",
			"config/logger not initialised",
		)
	}
	if state.authority == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"bootstrap state validation",
			"session authority not initialised",
		)
	}

	defer func() {
		if closeErr := state.authority.Close(); closeErr != nil {
			logger.ErrorTag("AUTH", "session authority did not close cleanly: %v", closeErr)
		}
	}()

	rootCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	signalCtx, stop := signal.NotifyContext(rootCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(rootCtx)

	if _, err := startHTTPServer(state, group, groupCtx); err != nil {
		cancel()
		return err
	}

	if err := waitForShutdown(signalCtx, cancel, logger, group); err != nil {
		return err
	}

	logger.InfoTag("BOOT", "service stopped")
	logger.Close()
	return nil
}

func executeInitSteps(ctx context.Context, steps []initStep, state *appState) error {
	if state == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"execute init steps",
			"nil bootstrap state",
		)
	}

	completed := make(map[string]struct{}, len(steps))
	for _, step := range steps {
		for _, dep := range step.DependsOn {
			if _, ok := completed[dep]; !ok {
				return platformerrors.New(
					platformerrors.KindBootstrap,
					step.ID,
					fmt.Sprintf("dependency %s not satisfied", dep),
				)
			}
		}
		if step.Execute == nil {
			return platformerrors.New(
				platformerrors.KindBootstrap,
				step.ID,
				"missing execute function",
			)
		}
		if err := step.Execute(ctx, state); err != nil {
			var typed *platformerrors.Error
			if errors.As(err, &typed) {
				return err
			}

			kind := step.Kind
			if kind == "" {
				kind = platformerrors.KindBootstrap
			}
			return platformerrors.Wrap(kind, step.ID, "bootstrap step failed", err)
		}
		completed[step.ID] = struct{}{}
	}
	return nil
}

// InitGraph declares the ordered initialisation steps and their dependencies.
func InitGraph() []initStep {
	return []initStep{
		{
			ID:      "config:load",
			Title:   "Load configuration",
			Kind:    platformerrors.KindConfig,
			Execute: loadConfigStep,
		},
		{
			ID:        "logging:init-provider",
			Title:     "Initialise logging provider",
			DependsOn: []string{"config:load"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initLoggingStep,
		},
		{
			ID:        "auth:init-authority",
			Title:     "Initialise session authority",
			DependsOn: []string{"config:load", "logging:init-provider"},
			Kind:      platformerrors.KindAuth,
			Execute:   initAuthorityStep,
		},
		{
			ID:        "monitor:init-collector",
			Title:     "Initialise metrics collector",
			DependsOn: []string{"config:load", "logging:init-provider"},
			Kind:      platformerrors.KindMonitor,
			Execute:   initMonitorStep,
		},
	}
}

func loadConfigStep(_ context.Context, state *appState) error {
	result, err := platformconfig.NewLoader().Load()
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindConfig, "config:load", "failed to load config", err)
	}
	state.config = result.Config
	state.configPath = result.Path
	return nil
}

func initLoggingStep(_ context.Context, state *appState) error {
	if state == nil || state.config == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"logging:init-provider",
			"config not loaded",
		)
	}
	logger, err := platformlogging.New(platformlogging.Config{
		Level:    state.config.Log.Level,
		Dir:      state.config.Log.Dir,
		Filename: state.config.Log.File,
	})
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "logging:init-provider", "failed to create logger", err)
	}
	state.logger = logger

	if state.configPath != "" {
		logger.InfoTag("BOOT", "configuration loaded from %s", state.configPath)
	} else {
		logger.InfoTag("BOOT", "no config file found, using defaults")
	}
	return nil
}

func initAuthorityStep(_ context.Context, state *appState) error {
	if state == nil || state.config == nil || state.logger == nil {
		return platformerrors.New(
			platformerrors.KindAuth,
			"auth:init-authority",
			"missing config/logger",
		)
	}

	authority, err := buildAuthority(state.config, state.logger)
	if err != nil {
		return err
	}
	state.authority = authority
	state.logger.InfoTag("AUTH", "session authority ready (%d accounts, ttl %s)",
		len(state.config.Auth.Accounts), authority.SessionTTL())
	return nil
}

func buildAuthority(config *platformconfig.Config, logger *platformlogging.Logger) (*domainauth.Manager, error) {
	storeType := strings.ToLower(strings.TrimSpace(config.Auth.Store.Type))
	storeCfg := authstore.Config{Driver: storeType}
	deps := authstore.Dependencies{}

	cleanupInterval := config.Auth.Store.Cleanup
	if cleanupInterval <= 0 {
		cleanupInterval = 10 * time.Minute
	}

	switch storeType {
	case "", authstore.DriverMemory:
		storeCfg.Driver = authstore.DriverMemory
		storeCfg.Memory = &authstore.MemoryConfig{GCInterval: cleanupInterval}
	case authstore.DriverSQLite:
		db, err := platformstorage.Open(config.Auth.Store.SQLite.Path)
		if err != nil {
			return nil, platformerrors.Wrap(platformerrors.KindStorage, "auth:init-authority", "failed to open session database", err)
		}
		deps.SQLiteDB = db
	case authstore.DriverRedis:
		if config.Auth.Store.Redis.Addr == "" {
			return nil, platformerrors.New(platformerrors.KindConfig, "auth:init-authority", "redis store addr is required")
		}
		storeCfg.Redis = &authstore.RedisConfig{
			Addr:     config.Auth.Store.Redis.Addr,
			Username: config.Auth.Store.Redis.Username,
			Password: config.Auth.Store.Redis.Password,
			DB:       config.Auth.Store.Redis.DB,
			Prefix:   config.Auth.Store.Redis.Prefix,
		}
	default:
		logger.WarnTag("AUTH", "unsupported store type %q, falling back to memory", storeType)
		storeCfg.Driver = authstore.DriverMemory
		storeCfg.Memory = &authstore.MemoryConfig{GCInterval: cleanupInterval}
	}

	sessionStore, err := authstore.New(storeCfg, deps)
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindAuth, "auth:init-authority", "failed to create session store", err)
	}

	accounts := make([]domainauth.Account, 0, len(config.Auth.Accounts))
	for _, account := range config.Auth.Accounts {
		accounts = append(accounts, domainauth.Account{
			Username: account.Username,
			Password: account.Password,
			Role:     account.Role,
		})
	}

	authority, err := domainauth.NewManager(domainauth.Options{
		Credentials:     domainauth.NewCredentialStore(accounts),
		Store:           sessionStore,
		Logger:          logger,
		SessionTTL:      config.Auth.SessionTTL,
		CleanupInterval: cleanupInterval,
	})
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindAuth, "auth:init-authority", "failed to create session authority", err)
	}
	return authority, nil
}

func initMonitorStep(_ context.Context, state *appState) error {
	if state == nil || state.config == nil {
		return platformerrors.New(
			platformerrors.KindMonitor,
			"monitor:init-collector",
			"config not loaded",
		)
	}
	state.provider = monitor.NewCollector(monitor.CollectorOptions{
		DiskPath:      state.config.Monitor.DiskPath,
		CPUSampleTime: state.config.Monitor.CPUSampleTime,
	})
	state.evaluator = monitor.NewEvaluator(monitor.Thresholds{
		CPU:    state.config.Monitor.CPUThreshold,
		Memory: state.config.Monitor.MemoryThreshold,
		Disk:   state.config.Monitor.DiskThreshold,
	})
	return nil
}

func startHTTPServer(
	state *appState,
	g *errgroup.Group,
	groupCtx context.Context,
) (*http.Server, error) {
	config := state.config
	logger := state.logger

	httpRouter, err := httptransport.Build(httptransport.Options{
		Config:         config,
		Logger:         logger,
		AuthMiddleware: httptransport.RequireSession(state.authority),
	})
	if err != nil {
		return nil, err
	}
	engine := httpRouter.Engine

	engine.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			httptransport.RespondError(c, http.StatusNotFound, "Not found")
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found"})
	})

	authService, err := httpauthapi.NewService(state.authority, logger)
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindTransport, "authapi:new-service", "failed to create auth service", err)
	}
	monitorService, err := httpmonitorapi.NewService(state.provider, state.evaluator, logger)
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindTransport, "monitorapi:new-service", "failed to create monitor service", err)
	}

	if err := authService.Register(groupCtx, engine); err != nil {
		return nil, err
	}
	if err := monitorService.Register(groupCtx, engine, httpRouter.Secured); err != nil {
		return nil, err
	}

	addr := config.Server.IP + ":" + strconv.Itoa(config.Server.Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: engine,
	}

	g.Go(func() error {
		logger.InfoTag("HTTP", "serving on http://%s", addr)

		go func() {
			<-groupCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.ErrorTag("HTTP", "server shutdown failed: %v", err)
			} else {
				logger.InfoTag("HTTP", "server shut down cleanly")
			}
		}()

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorTag("HTTP", "server failed: %v", err)
			return err
		}
		return nil
	})

	return httpServer, nil
}

func waitForShutdown(
	ctx context.Context,
	cancel context.CancelFunc,
	logger *platformlogging.Logger,
	g *errgroup.Group,
) error {
	<-ctx.Done()
	logger.InfoTag("BOOT", "received shutdown signal, draining")

	cancel()

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			logger.ErrorTag("BOOT", "error during shutdown: %v", err)
			return err
		}
		logger.InfoTag("BOOT", "all services stopped")
	case <-time.After(15 * time.Second):
		timeoutErr := errors.New("shutdown timed out")
		logger.ErrorTag("BOOT", "shutdown timed out, exiting")
		return timeoutErr
	}
	return nil
}
