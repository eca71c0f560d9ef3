package internal

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"strings"

	"mlx-scraper-service/internal/adapters/debugrecorder"
	"mlx-scraper-service/internal/adapters/detailfetcher"
	"mlx-scraper-service/internal/adapters/filestorage"
	logger_adapter "mlx-scraper-service/internal/adapters/logger"
	"mlx-scraper-service/internal/adapters/mlxhttp"
	postgres_adapter "mlx-scraper-service/internal/adapters/postgres"
	rabbitmq_adapter "mlx-scraper-service/internal/adapters/rabbitmq"
	"mlx-scraper-service/internal/adapters/ratelimiter"
	"mlx-scraper-service/internal/configs"
	"mlx-scraper-service/internal/constants"
	"mlx-scraper-service/internal/contextkeys"
	"mlx-scraper-service/internal/core/domain"
	"mlx-scraper-service/internal/core/port"
	"mlx-scraper-service/internal/core/usecase"
	"mlx-scraper-service/pkg/fluentlogger"
	"mlx-scraper-service/pkg/postgres"

	"github.com/fluent/fluent-logger-golang/fluent"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// App – структура приложения
type App struct {
	config       *configs.AppConfig
	dbPool       *pgxpool.Pool
	fluentClient *fluent.Fluent
	logger       port.LoggerPort
	baseLogger   port.LoggerPort

	transport *mlxhttp.MLXTransportAdapter
	sink      port.RecordSinkPort
	pgAdapter *postgres_adapter.PostgresStorageAdapter

	fetchUseCase     *usecase.FetchYearsUseCase
	locationsUseCase *usecase.SearchLocationsUseCase
}

// NewApp создает новый экземпляр приложения.
// Это "Composition Root", где все зависимости создаются и связываются.
func NewApp() (*App, error) {
	appConfig, err := configs.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading application configuration: %w", err)
	}

	// --- 1. ИНИЦИАЛИЗАЦИЯ ЛОГГЕРОВ ---
	var activeLoggers []port.LoggerPort

	stdoutLogger := logger_adapter.NewSlogAdapter(logger_adapter.SlogConfig{
		Level:    parseLogLevel(appConfig.StdoutLogger.Level),
		IsJSON:   false,
		UseColor: true,
	})
	activeLoggers = append(activeLoggers, stdoutLogger)

	var fluentClient *fluent.Fluent
	if appConfig.FluentBit.Enabled {
		fluentClient, err = fluentlogger.NewClient(fluentlogger.Config{
			Host:      appConfig.FluentBit.Host,
			Port:      appConfig.FluentBit.Port,
			TagPrefix: appConfig.AppName,
		})
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit client", err, nil)
			return nil, fmt.Errorf("failed to create fluentbit client: %w", err)
		}

		fluentAdapter, err := logger_adapter.NewFluentLoggerAdapter(fluentClient, parseLogLevel(appConfig.FluentBit.Level))
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit adapter", err, nil)
			fluentClient.Close()
			return nil, err
		}
		activeLoggers = append(activeLoggers, fluentAdapter)
	}

	multiLogger, err := logger_adapter.NewMultiloggerAdapter(activeLoggers...)
	if err != nil {
		return nil, fmt.Errorf("failed to create multi-logger: %w", err)
	}

	// --- 2. БАЗОВЫЙ ЛОГГЕР ПРИЛОЖЕНИЯ С КОНТЕКСТОМ ---
	baseLogger := multiLogger.WithFields(port.Fields{
		"service_name": appConfig.AppName,
	})

	appLogger := baseLogger.WithFields(port.Fields{"component": "app"})
	appLogger.Info("Logger system initialized", port.Fields{
		"active_loggers": len(activeLoggers), "fluent_enabled": appConfig.FluentBit.Enabled,
	})

	application := &App{
		config:       appConfig,
		fluentClient: fluentClient,
		logger:       appLogger,
		baseLogger:   baseLogger,
	}

	// --- 3. ИСХОДЯЩИЕ АДАПТЕРЫ ---
	searchURL := appConfig.MLX.SearchURL
	if searchURL == "" {
		searchURL = constants.SearchURL
	}
	homeURL := appConfig.MLX.HomeURL
	if homeURL == "" {
		homeURL = constants.HomeURL
	}

	transport, err := mlxhttp.NewMLXTransportAdapter(mlxhttp.Config{
		SearchURL:  searchURL,
		HomeURL:    homeURL,
		CookieFile: appConfig.MLX.CookieFile,
		Timeout:    appConfig.Scrape.RequestTimeout,
	})
	if err != nil {
		appLogger.Error("Failed to create MLX transport adapter", err, nil)
		return nil, fmt.Errorf("failed to initialize transport: %w", err)
	}
	application.transport = transport
	appLogger.Info("MLX Transport Adapter initialized.", nil)

	limiter, err := ratelimiter.NewRandomDelayLimiter(
		appConfig.Scrape.RateLimitMinDelay,
		appConfig.Scrape.RateLimitMaxDelay,
	)
	if err != nil {
		appLogger.Error("Failed to create rate limiter", err, nil)
		return nil, fmt.Errorf("failed to initialize rate limiter: %w", err)
	}

	var recorder port.DebugRecorderPort = debugrecorder.NewNoopRecorderAdapter()
	if appConfig.Debug.Enabled {
		fileRecorder, err := debugrecorder.NewFileRecorderAdapter(appConfig.Debug.Dir, baseLogger)
		if err != nil {
			appLogger.Error("Failed to create debug recorder", err, nil)
			return nil, fmt.Errorf("failed to initialize debug recorder: %w", err)
		}
		recorder = fileRecorder
		appLogger.Info("Debug recorder enabled", port.Fields{"dir": appConfig.Debug.Dir})
	}

	sink, err := application.buildSink(appConfig)
	if err != nil {
		appLogger.Error("Failed to assemble output sinks", err, nil)
		return nil, err
	}

	// Обогащение года постройки встраивается перед записью,
	// чтобы все получатели видели уже дополненные записи.
	if appConfig.Scrape.EnrichBuiltYear {
		detailAdapter, err := detailfetcher.NewCollyDetailFetcherAdapter("calgarymlx.com")
		if err != nil {
			appLogger.Error("Failed to create detail fetcher", err, nil)
			return nil, fmt.Errorf("failed to initialize detail fetcher: %w", err)
		}
		enrichUseCase, err := usecase.NewEnrichBuiltYearsUseCase(detailAdapter)
		if err != nil {
			return nil, err
		}
		sink = &enrichingSink{inner: sink, enricher: enrichUseCase}
		appLogger.Info("Built year enrichment enabled.", nil)
	}
	application.sink = sink

	typeaheadURL := constants.TypeaheadURL
	typeaheadAdapter, err := mlxhttp.NewTypeaheadClientAdapter(typeaheadURL, appConfig.Scrape.RequestTimeout)
	if err != nil {
		appLogger.Error("Failed to create typeahead client", err, nil)
		return nil, fmt.Errorf("failed to initialize typeahead client: %w", err)
	}

	appLogger.Info("All outgoing adapters initialized.", nil)

	// --- 4. USE CASES (ядро бизнес-логики) ---
	fetchUseCase, err := usecase.NewFetchYearsUseCase(transport, limiter, recorder, sink, usecase.FetchConfig{
		MaxRetries:       appConfig.Scrape.MaxRetries,
		RetryBackoffBase: appConfig.Scrape.RetryBackoffBase,
		MaxPagesPerYear:  appConfig.Scrape.MaxPagesPerYear,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create fetch use case: %w", err)
	}
	application.fetchUseCase = fetchUseCase

	locationsUseCase, err := usecase.NewSearchLocationsUseCase(typeaheadAdapter)
	if err != nil {
		return nil, fmt.Errorf("failed to create locations use case: %w", err)
	}
	application.locationsUseCase = locationsUseCase

	appLogger.Info("All use cases initialized.", nil)

	return application, nil
}

// buildSink собирает получателей записей по конфигурации вывода.
func (a *App) buildSink(cfg *configs.AppConfig) (port.RecordSinkPort, error) {
	var sinks []port.RecordSinkPort

	for _, name := range cfg.Output.Sinks {
		switch name {
		case "csv":
			csvSink, err := filestorage.NewCSVSinkAdapter(cfg.Output.CSVFile)
			if err != nil {
				return nil, fmt.Errorf("failed to create csv sink: %w", err)
			}
			sinks = append(sinks, csvSink)

		case "json":
			jsonSink, err := filestorage.NewJSONLinesSinkAdapter(cfg.Output.JSONFile)
			if err != nil {
				return nil, fmt.Errorf("failed to create json sink: %w", err)
			}
			sinks = append(sinks, jsonSink)

		case "postgres":
			dbPool, err := postgres.NewClient(context.Background(), postgres.Config{DatabaseURL: cfg.Database.URL})
			if err != nil {
				return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
			}
			a.dbPool = dbPool
			a.logger.Info("Successfully connected to PostgreSQL pool!", nil)

			pgAdapter, err := postgres_adapter.NewPostgresStorageAdapter(dbPool)
			if err != nil {
				return nil, fmt.Errorf("failed to create postgres sink: %w", err)
			}
			a.pgAdapter = pgAdapter
			sinks = append(sinks, pgAdapter)

		case "rabbitmq":
			queueAdapter, err := rabbitmq_adapter.NewRabbitMQScrapedPropertyQueueAdapter(
				cfg.RabbitMQ.URL,
				cfg.RabbitMQ.Exchange,
				cfg.RabbitMQ.RoutingKey,
			)
			if err != nil {
				return nil, fmt.Errorf("failed to create rabbitmq sink: %w", err)
			}
			a.logger.Info("RabbitMQ publisher initialized.", port.Fields{"exchange": cfg.RabbitMQ.Exchange})
			sinks = append(sinks, queueAdapter)

		default:
			return nil, fmt.Errorf("unknown output sink %q", name)
		}
	}

	if len(sinks) == 0 {
		a.logger.Warn("No output sinks configured, records will be discarded", nil)
		return filestorage.NewNoopSinkAdapter(), nil
	}
	if len(sinks) == 1 {
		return sinks[0], nil
	}
	return filestorage.NewMultiSinkAdapter(sinks...)
}

// Run выполняет один полный проход по настроенным годам и возвращает итог.
func (a *App) Run(ctx context.Context) (*domain.RunSummary, error) {
	runID := uuid.New()
	ctx = contextkeys.ContextWithLogger(ctx, a.baseLogger)
	ctx = contextkeys.ContextWithTraceID(ctx, runID.String())

	if err := a.transport.Bootstrap(ctx); err != nil {
		a.logger.Error("Session bootstrap failed", err, nil)
		return nil, fmt.Errorf("session bootstrap failed: %w", err)
	}

	if a.pgAdapter != nil {
		if err := a.pgAdapter.EnsureSchema(ctx); err != nil {
			a.logger.Error("Failed to ensure database schema", err, nil)
			return nil, err
		}
	}

	criteria := domain.SearchCriteria{
		Name:         a.config.Scrape.SearchName,
		PriceFrom:    a.config.Scrape.PriceFrom,
		PriceTo:      a.config.Scrape.PriceTo,
		DwellingType: a.config.Scrape.DwellingType,
		Omni:         a.config.Scrape.Omni,
		ListingType:  a.config.Scrape.ListingType,
	}
	years := a.config.Scrape.YearSequence()

	return a.fetchUseCase.Execute(ctx, criteria, years, runID)
}

// SearchLocations ищет коды подрайонов и комьюнити для omni-фильтра.
func (a *App) SearchLocations(ctx context.Context, query string) ([]domain.Location, []domain.Location, error) {
	ctx = contextkeys.ContextWithLogger(ctx, a.baseLogger)
	ctx = contextkeys.ContextWithTraceID(ctx, uuid.NewString())
	return a.locationsUseCase.Execute(ctx, query)
}

// Close освобождает все ресурсы приложения.
func (a *App) Close() {
	if a.sink != nil {
		if err := a.sink.Close(); err != nil {
			a.logger.Error("Error closing record sinks", err, nil)
		}
	}
	if a.dbPool != nil {
		a.dbPool.Close()
		a.logger.Info("PostgreSQL pool closed.", nil)
	}
	if a.fluentClient != nil {
		a.logger.Info("Closing Fluent Bit connection...", nil)
		if err := a.fluentClient.Close(); err != nil {
			log.Printf("App: Error closing fluent client: %v\n", err)
		}
	}
}

// enrichingSink дополняет записи годом постройки перед передачей дальше.
// Ошибки обогащения не фатальны: запись уходит как есть.
type enrichingSink struct {
	inner    port.RecordSinkPort
	enricher *usecase.EnrichBuiltYearsUseCase
}

func (s *enrichingSink) WriteOutcome(ctx context.Context, outcome domain.FetchOutcome) error {
	if _, err := s.enricher.Execute(ctx, outcome.Records); err != nil {
		contextkeys.LoggerFromContext(ctx).Warn("Built year enrichment failed", port.Fields{
			"year":  outcome.Year,
			"error": err.Error(),
		})
	}
	return s.inner.WriteOutcome(ctx, outcome)
}

func (s *enrichingSink) Close() error {
	return s.inner.Close()
}

func parseLogLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		log.Printf("Warning: Unknown log level '%s'. Defaulting to 'info'.", levelStr)
		return slog.LevelInfo
	}
}
