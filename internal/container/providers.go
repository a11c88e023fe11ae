// Package container provides dependency injection and lifecycle management
// for the EHS tracker.
package container

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/ehs-tracker/internal/application/dispatcher"
	"github.com/garyjia/ehs-tracker/internal/application/port"
	"github.com/garyjia/ehs-tracker/internal/application/service"
	"github.com/garyjia/ehs-tracker/internal/config"
	"github.com/garyjia/ehs-tracker/internal/domain/event"
	"github.com/garyjia/ehs-tracker/internal/infrastructure/identity"
	"github.com/garyjia/ehs-tracker/internal/infrastructure/persistence/postgres"
	"github.com/garyjia/ehs-tracker/internal/infrastructure/persistence/repository"
	"github.com/garyjia/ehs-tracker/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/ehs-tracker/internal/infrastructure/storage"
	httpapi "github.com/garyjia/ehs-tracker/internal/interfaces/http"
	"github.com/garyjia/ehs-tracker/pkg/database"
)

// DatabaseBundle holds the opened store and its repositories.
type DatabaseBundle struct {
	Driver    string
	TxManager port.TransactionManager
	Repos     *RepositoryBundle
	Ping      func(ctx context.Context) error
	Close     func() error
}

// ProvideDatabase opens the configured store, applies pending migrations and
// builds the repositories on top of it.
func ProvideDatabase(ctx context.Context, cfg *config.DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	switch cfg.Driver {
	case config.DriverSQLite:
		return provideSQLite(ctx, cfg, logger)
	case config.DriverPostgres:
		return providePostgres(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func provideSQLite(ctx context.Context, cfg *config.DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	applied, err := database.NewMigrator(db, logger).Run(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.Info("SQLite migrations complete", zap.Int("applied", applied))

	return &DatabaseBundle{
		Driver:    config.DriverSQLite,
		TxManager: sqlite.NewDB(db.DB, logger),
		Repos: &RepositoryBundle{
			Workflow: repository.NewWorkflowRepository(db.DB, logger),
			History:  repository.NewHistoryRepository(db.DB, logger),
			Roles:    repository.NewRoleRepository(db.DB, logger),
		},
		Ping:  db.PingContext,
		Close: db.Close,
	}, nil
}

func providePostgres(ctx context.Context, cfg *config.DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	db, err := postgres.Open(ctx, postgres.Config{
		DSN:      cfg.DSN,
		MaxConns: int32(cfg.MaxOpenConns),
	}, logger)
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DatabaseBundle{
		Driver:    config.DriverPostgres,
		TxManager: db,
		Repos: &RepositoryBundle{
			Workflow: postgres.NewWorkflowRepository(db),
			History:  postgres.NewHistoryRepository(db),
			Roles:    postgres.NewRoleRepository(db),
		},
		Ping: db.Pool.Ping,
		Close: func() error {
			db.Close()
			return nil
		},
	}, nil
}

// ProvideEvidenceStore creates the local photo evidence store.
func ProvideEvidenceStore(cfg *config.EvidenceConfig, logger *zap.Logger) (port.EvidenceStore, error) {
	if cfg == nil || cfg.BaseDir == "" {
		return nil, fmt.Errorf("evidence base directory is required")
	}
	return storage.NewLocalEvidenceStore(cfg.BaseDir, logger), nil
}

// ProvideDispatcher creates the event dispatcher and subscribes the audit log
// handler to every event type.
func ProvideDispatcher(logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	d := dispatcher.NewDispatcher(
		dispatcher.WithLogger(&dispatcherLoggerAdapter{logger: logger}),
	)
	d.SubscribeAll(event.AllTypes(), "audit_log", createEventLogHandler(logger))

	return d, nil
}

// ServiceDeps holds dependencies required for creating services.
type ServiceDeps struct {
	Repos      *RepositoryBundle
	TxManager  port.TransactionManager
	Evidence   port.EvidenceStore
	EvidenceCfg *config.EvidenceConfig
	Dispatcher dispatcher.Dispatcher
	Logger     *zap.Logger
}

// ProvideServices creates all application services.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.TxManager == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}
	if deps.Evidence == nil || deps.EvidenceCfg == nil {
		return nil, fmt.Errorf("evidence store is required")
	}

	serviceLogger := &zapLoggerAdapter{logger: deps.Logger}

	opts := []service.WorkflowOption{service.WithEvidenceStore(deps.Evidence)}
	if deps.Dispatcher != nil {
		opts = append(opts, service.WithDispatcher(deps.Dispatcher))
	}

	return &ServiceBundle{
		Workflow: service.NewWorkflowService(
			deps.Repos.Workflow,
			deps.Repos.History,
			deps.TxManager,
			serviceLogger,
			opts...,
		),
		Evidence: service.NewEvidenceService(
			deps.Evidence,
			service.EvidenceConfig{
				MaxBytes:     deps.EvidenceCfg.MaxBytes,
				AllowedTypes: deps.EvidenceCfg.AllowedTypes,
			},
			deps.Dispatcher,
			serviceLogger,
		),
		Report: service.NewReportService(deps.Repos.Workflow, serviceLogger),
	}, nil
}

// ProvideServer creates the HTTP server bound to the services.
func ProvideServer(cfg *config.Config, services *ServiceBundle, roles port.RoleRepository, logger *zap.Logger) (*httpapi.Server, error) {
	if services == nil {
		return nil, fmt.Errorf("services are required")
	}
	if roles == nil {
		return nil, fmt.Errorf("role repository is required")
	}

	serverCfg := httpapi.DefaultServerConfig()
	serverCfg.Host = cfg.Server.Host
	serverCfg.Port = cfg.Server.Port
	serverCfg.ReadTimeout = cfg.Server.ReadTimeout
	serverCfg.WriteTimeout = cfg.Server.WriteTimeout
	serverCfg.MaxUploadBytes = cfg.Evidence.MaxBytes
	if cfg.Server.Mode != "" {
		serverCfg.Mode = cfg.Server.Mode
	}

	return httpapi.NewServer(
		serverCfg,
		httpapi.Services{
			Workflow: services.Workflow,
			Evidence: services.Evidence,
			Report:   services.Report,
		},
		identity.NewResolver(roles, logger),
		&zapLoggerAdapter{logger: logger},
	), nil
}

// createEventLogHandler writes one structured line per workflow event.
func createEventLogHandler(logger *zap.Logger) dispatcher.Handler {
	return func(ctx context.Context, evt *event.Event) error {
		fields := []zap.Field{
			zap.String("event_id", evt.ID),
			zap.String("event_type", evt.Type.String()),
			zap.String("item_id", evt.ItemID),
			zap.String("actor_id", evt.ActorID),
			zap.Time("timestamp", evt.Timestamp),
		}
		for k, v := range evt.Payload {
			fields = append(fields, zap.Any("payload."+k, v))
		}
		logger.Info("Workflow event", fields...)
		return nil
	}
}
