package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"

	cmdhandlers "lineage-backend/application/commands/handlers"
	"lineage-backend/application/ports"
	qryhandlers "lineage-backend/application/queries/handlers"
	"lineage-backend/application/services"
	"lineage-backend/infrastructure/config"
	"lineage-backend/infrastructure/observability"
	"lineage-backend/infrastructure/persistence"
	"lineage-backend/infrastructure/persistence/dynamodb"
	"lineage-backend/infrastructure/persistence/memory"
	"lineage-backend/interfaces/http/rest"
	"lineage-backend/pkg/retry"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := buildLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	watcher, err := config.NewWatcher(cfg, os.Getenv("CONFIG_FILE"), logger)
	if err != nil {
		logger.Fatal("Failed to start config watcher", zap.Error(err))
	}
	defer watcher.Stop()

	nodeRepo, assocRepo, err := buildRepositories(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to build storage provider", zap.Error(err))
	}

	var metrics *observability.Collector
	if cfg.Metrics.Enabled {
		metrics = observability.NewCollector(cfg.Metrics.Namespace)
		nodeRepo = observability.NewMeteredNodeRepository(nodeRepo, metrics)
		assocRepo = observability.NewMeteredAssociationRepository(assocRepo, metrics)
	}

	cascade := services.NewCascadeDeleter(nodeRepo, assocRepo, cascadeConfigSource(watcher), logger)

	handlers := rest.Handlers{
		Nodes: rest.NewNodeHandler(
			cmdhandlers.NewCreateNodeHandler(nodeRepo, logger),
			cmdhandlers.NewUpdatePropertiesHandler(nodeRepo, logger),
			cmdhandlers.NewDeleteNodeHandler(nodeRepo, logger),
			qryhandlers.NewGetNodeHandler(nodeRepo, logger),
			qryhandlers.NewListNodesHandler(nodeRepo, logger),
			cascade,
			logger,
		),
		Associations: rest.NewAssociationHandler(
			cmdhandlers.NewCreateAssociationHandler(nodeRepo, assocRepo, logger),
			cmdhandlers.NewDeleteAssociationHandler(assocRepo, logger),
			qryhandlers.NewListAssociationsHandler(assocRepo, logger),
			logger,
		),
		Lineage: rest.NewLineageHandler(
			qryhandlers.NewNeighborsHandler(nodeRepo, assocRepo, logger),
			qryhandlers.NewTraverseGraphHandler(nodeRepo, assocRepo, logger),
			logger,
		),
	}

	srv := &http.Server{
		Addr:         cfg.Server.Host + ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      rest.NewRouter(handlers, metrics, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("Starting server",
			zap.String("address", srv.Addr),
			zap.String("environment", string(cfg.Environment)),
			zap.String("provider", cfg.Database.Provider),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}
}

// buildLogger constructs the zap logger from the logging configuration
func buildLogger(cfg config.Logging) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	zapCfg.Level = level
	return zapCfg.Build()
}

// buildRepositories constructs the configured storage provider wrapped in the
// circuit breaker decorators.
func buildRepositories(ctx context.Context, cfg config.Config, logger *zap.Logger) (ports.NodeRepository, ports.AssociationRepository, error) {
	var nodeRepo ports.NodeRepository
	var assocRepo ports.AssociationRepository

	switch cfg.Database.Provider {
	case "dynamodb":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Database.Region))
		if err != nil {
			return nil, nil, err
		}
		client := awsdynamodb.NewFromConfig(awsCfg, func(o *awsdynamodb.Options) {
			if cfg.Database.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Database.Endpoint)
			}
		})
		nodeRepo = dynamodb.NewNodeRepository(client, cfg.Database.TableName, cfg.Database.GSI1Name, cfg.Database.GSI2Name, logger)
		assocRepo = dynamodb.NewAssociationRepository(client, cfg.Database.TableName, cfg.Database.GSI1Name, cfg.Database.GSI2Name, logger)
	default:
		store := memory.NewStore()
		nodeRepo = store
		assocRepo = store
	}

	breakerCfg := persistence.BreakerConfig{
		Name:             "storage",
		MaxRequests:      cfg.Breaker.MaxRequests,
		Interval:         cfg.Breaker.Interval,
		Timeout:          cfg.Breaker.Timeout,
		FailureThreshold: cfg.Breaker.FailureThreshold,
		MinRequests:      cfg.Breaker.MinRequests,
	}
	nodeRepo = persistence.NewNodeRepositoryBreaker(nodeRepo, breakerCfg, logger)
	assocRepo = persistence.NewAssociationRepositoryBreaker(assocRepo, breakerCfg, logger)
	return nodeRepo, assocRepo, nil
}

// cascadeConfigSource reads the cascade settings through the watcher so a
// config reload adjusts pacing on the live deleter.
func cascadeConfigSource(watcher *config.Watcher) services.ConfigSource {
	return func() services.CascadeConfig {
		cfg := watcher.Get().Cascade
		return services.CascadeConfig{
			Retry: retry.Config{
				MaxAttempts:   cfg.MaxAttempts,
				BaseDelay:     cfg.BaseDelay,
				MaxDelay:      cfg.MaxDelay,
				BackoffFactor: cfg.BackoffFactor,
				JitterFactor:  cfg.JitterFactor,
			},
			Pacing: cfg.Pacing,
		}
	}
}
