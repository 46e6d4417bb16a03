package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/guestbook/internal/api"
	"github.com/charlesng35/guestbook/internal/app"
	"github.com/charlesng35/guestbook/internal/app/maintenance"
	"github.com/charlesng35/guestbook/internal/auth"
	"github.com/charlesng35/guestbook/internal/cache"
	"github.com/charlesng35/guestbook/internal/csrf"
	"github.com/charlesng35/guestbook/internal/database"
	"github.com/charlesng35/guestbook/internal/guestbook"
	"github.com/charlesng35/guestbook/internal/monitoring"
	"github.com/charlesng35/guestbook/internal/monitoring/checks"
	"github.com/charlesng35/guestbook/internal/services"
	"github.com/charlesng35/guestbook/pkg/logger"
)

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	DB      *gorm.DB
	Tokens  cache.Store
	Entries *services.EntryService
	Cleaner *maintenance.Cleaner
	Router  *gin.Engine
}

// bootstrapRuntime opens the database, wires the guestbook services and builds the HTTP router.
func bootstrapRuntime(ctx context.Context, cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			stack.Shutdown(context.Background(), log)
		}
	}()

	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.DB, err = initialiseDatabase(cfg)
	if err != nil {
		return nil, err
	}

	stack.Tokens = selectTokenStore(cfg, stack.DB)
	log.Info("token store selected", zap.String("backend", cfg.Session.TokenStore))

	guard, err := csrf.NewGuard(stack.Tokens, csrf.WithTTL(cfg.Session.TTL))
	if err != nil {
		return nil, fmt.Errorf("initialise token guard: %w", err)
	}

	stack.Entries, err = services.NewEntryService(stack.DB)
	if err != nil {
		return nil, fmt.Errorf("initialise entry service: %w", err)
	}

	dispatcher, err := guestbook.NewDispatcher(stack.Entries, guard)
	if err != nil {
		return nil, fmt.Errorf("initialise dispatcher: %w", err)
	}

	signer, err := auth.NewSessionSigner(auth.SignerConfig{
		Secret: cfg.Session.Secret,
		Issuer: "guestbook",
		TTL:    cfg.Session.TTL,
	})
	if err != nil {
		return nil, fmt.Errorf("initialise session signer: %w", err)
	}

	tracker := monitoring.NewJobTracker()
	stack.Cleaner = maintenance.NewCleaner(stack.Tokens, stack.Entries,
		maintenance.WithTracker(tracker),
		maintenance.WithTokenSchedule(cfg.Maintenance.TokenCleanupSchedule),
		maintenance.WithStatsSchedule(cfg.Maintenance.StatsSchedule),
	)
	if err := stack.Cleaner.RunOnce(ctx); err != nil {
		log.Warn("initial maintenance run failed", zap.Error(err))
	}
	if err := stack.Cleaner.Start(); err != nil {
		return nil, fmt.Errorf("start maintenance jobs: %w", err)
	}

	health := monitoring.NewHealthManager(monitoring.WithProbeTimeout(cfg.Monitoring.Health.Timeout))
	health.RegisterReadiness(checks.Database(stack.DB))
	health.RegisterLiveness(checks.Maintenance(tracker, 0))

	stack.Router, err = api.NewRouter(api.Dependencies{
		Config:     cfg,
		Dispatcher: dispatcher,
		Sessions:   signer,
		Health:     health,
	})
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

// selectTokenStore keeps tokens in process memory unless the database backend is
// configured, which lets several instances share sessions.
func selectTokenStore(cfg *app.Config, db *gorm.DB) cache.Store {
	if cfg.Session.TokenStore == app.TokenStoreDatabase {
		return cache.NewDatabaseStore(db)
	}
	return cache.NewMemoryStore()
}

// Shutdown gracefully stops background jobs and releases resources.
func (s *runtimeStack) Shutdown(ctx context.Context, log *zap.Logger) {
	if s == nil {
		return
	}

	if s.Cleaner != nil {
		<-s.Cleaner.Stop().Done()
		if err := s.Cleaner.RunOnce(ctx); err != nil {
			log.Warn("maintenance shutdown cleanup failed", zap.Error(err))
		}
	}

	if s.DB != nil {
		if err := database.Close(s.DB); err != nil {
			log.Warn("failed to close database", zap.Error(err))
		}
	}
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := cfg.Database.DatabaseSettings()
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.Prepare(db); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("prepare database: %w", err)
	}

	logger.WithModule("database").Info("database connected", zap.String("driver", strings.ToLower(strings.TrimSpace(dbCfg.Driver))))
	return db, nil
}
