// Package server wires configuration, the verifier and its transports into a
// runnable service.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/iris/config"
	"github.com/Ramsey-B/iris/pkg/kafka"
	"github.com/Ramsey-B/iris/pkg/middleware"
	"github.com/Ramsey-B/iris/pkg/normalizers"
	"github.com/Ramsey-B/iris/pkg/processor"
	"github.com/Ramsey-B/iris/pkg/routes/health"
	verificationroutes "github.com/Ramsey-B/iris/pkg/routes/verification"
	"github.com/Ramsey-B/iris/pkg/startup"
	"github.com/Ramsey-B/iris/pkg/tracing"
	"github.com/Ramsey-B/iris/pkg/tracing/exporters"
	"github.com/Ramsey-B/iris/pkg/verification"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
)

const (
	dependencyTracing       = "tracing"
	dependencyHTTP          = "http"
	dependencyKafkaProducer = "kafka-producer"
	dependencyKafkaConsumer = "kafka-consumer"

	shutdownTimeout = 15 * time.Second
)

type Server struct {
	config   config.Config
	echo     *echo.Echo
	verifier *verification.Verifier
	checker  *health.Checker
	startup  *startup.Startup
	logger   ectologger.Logger

	tracingShutdown func(context.Context) error
	producer        *kafka.Producer
	consumer        *kafka.Consumer
	processor       *processor.Processor
}

// New builds the service from cfg. Nothing is started until Run.
func New(cfg config.Config, logger ectologger.Logger) (*Server, error) {
	policy, err := LoadPolicy(cfg)
	if err != nil {
		return nil, err
	}

	verifier, err := verification.NewVerifier(policy, logger)
	if err != nil {
		return nil, fmt.Errorf("invalid verification policy: %w", err)
	}

	checker := health.NewChecker(cfg.AppVersion)
	checker.AddCheck("verifier", VerifierCheck(verifier))

	s := &Server{
		config:   cfg,
		echo:     NewEcho(cfg, verificationroutes.NewHandler(verifier), checker, logger),
		verifier: verifier,
		checker:  checker,
		startup:  startup.NewStartup(logger, cfg.StartupMaxAttempts),
		logger:   logger,
	}

	s.startup.AddDependency(&startup.Dependency{
		Name:      dependencyTracing,
		StartFunc: s.startTracing,
		StopFunc:  s.stopTracing,
	})
	s.startup.AddDependency(&startup.Dependency{
		Name:      dependencyHTTP,
		Needs:     []string{dependencyTracing},
		StartFunc: s.startHTTP,
		StopFunc:  s.echo.Shutdown,
	})

	if cfg.KafkaConsumerEnabled {
		s.startup.AddDependency(&startup.Dependency{
			Name:      dependencyKafkaProducer,
			Needs:     []string{dependencyTracing},
			StartFunc: s.startProducer,
			StopFunc:  s.stopProducer,
		})
		s.startup.AddDependency(&startup.Dependency{
			Name:      dependencyKafkaConsumer,
			Needs:     []string{dependencyKafkaProducer},
			StartFunc: s.startConsumer,
			StopFunc:  s.stopConsumer,
		})
	}

	return s, nil
}

// Echo returns the HTTP router.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Run starts every dependency, serves until ctx is cancelled, then shuts
// down in reverse order.
func (s *Server) Run(ctx context.Context) error {
	if err := s.startup.Start(ctx); err != nil {
		s.shutdown()
		return err
	}

	s.checker.SetReady(true)
	s.logger.Infof("%s %s listening on :%d", s.config.AppName, s.config.AppVersion, s.config.Port)

	<-ctx.Done()

	s.checker.SetReady(false)
	return s.shutdown()
}

func (s *Server) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.startup.Stop(ctx)
}

// LoadPolicy builds the decision policy from the environment and the optional
// policy file.
func LoadPolicy(cfg config.Config) (verification.Config, error) {
	policy := verification.DefaultConfig()

	order, err := normalizers.ParseDateOrder(cfg.DateOrder)
	if err != nil {
		return policy, err
	}
	policy.DateOrder = order
	if cfg.BatchConcurrency > 0 {
		policy.BatchConcurrency = cfg.BatchConcurrency
	}

	if cfg.VerificationConfigFile != "" {
		return verification.LoadConfigFile(cfg.VerificationConfigFile, policy)
	}
	return policy, nil
}

// NewEcho builds the router with the standard middleware stack.
func NewEcho(cfg config.Config, handler *verificationroutes.Handler, checker *health.Checker, logger ectologger.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.Error(logger)

	e.Use(echomiddleware.Recover())
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))
	if cfg.BodyLimit != "" {
		e.Use(echomiddleware.BodyLimit(cfg.BodyLimit))
	}

	if cfg.MetricsPath != "" {
		e.GET(cfg.MetricsPath, echo.WrapHandler(promhttp.Handler()))
	}
	checker.RegisterRoutes(e)
	handler.RegisterRoutes(e)

	return e
}

// VerifierCheck runs the canned example through the verifier without
// recording verification metrics.
func VerifierCheck(verifier *verification.Verifier) health.CheckFunc {
	return func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		result, err := verifier.CheckExample()
		if err != nil {
			return err
		}
		if result.Verification.Decision != verification.DecisionMatch {
			return fmt.Errorf("example verification decided %s", result.Verification.Decision)
		}
		return nil
	}
}

func (s *Server) startTracing(ctx context.Context) error {
	shutdown, err := tracing.Setup(ctx, tracing.Config{
		ServiceName: s.config.AppName,
		Exporter:    s.config.TraceExporter,
		OTLP: exporters.OTLPConfig{
			Endpoint: s.config.OTLPEndpoint,
			Protocol: s.config.OTLPProtocol,
			Insecure: s.config.OTLPInsecure,
			Headers:  s.config.OTLPHeaders,
			Timeout:  s.config.OTLPTimeout,
		},
		Logger: s.logger,
	})
	if err != nil {
		return err
	}
	s.tracingShutdown = shutdown
	return nil
}

func (s *Server) stopTracing(ctx context.Context) error {
	if s.tracingShutdown == nil {
		return nil
	}
	return s.tracingShutdown(ctx)
}

func (s *Server) startHTTP(_ context.Context) error {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", s.config.Port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", s.config.Port, err)
	}
	s.echo.Listener = listener

	srv := &http.Server{
		ReadTimeout:       time.Duration(s.config.HttpServerReadTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(s.config.HttpServerWriteTimeoutSeconds) * time.Second,
		IdleTimeout:       time.Duration(s.config.HttpServerIdleTimeoutSeconds) * time.Second,
		ReadHeaderTimeout: time.Duration(s.config.ReadHeaderTimeoutSeconds) * time.Second,
		MaxHeaderBytes:    s.config.MaxHeaderBytes,
	}

	go func() {
		if err := s.echo.StartServer(srv); err != nil && err != http.ErrServerClosed {
			s.logger.WithError(err).Error("HTTP server stopped")
		}
	}()
	return nil
}

func (s *Server) startProducer(_ context.Context) error {
	cfg := kafka.DefaultProducerConfig()
	cfg.Brokers = s.config.KafkaBrokers
	cfg.Topic = s.config.KafkaOutputTopic
	cfg.ErrorTopic = s.config.KafkaErrorTopic
	cfg.BatchSize = s.config.KafkaBatchSize
	cfg.BatchTimeout = time.Duration(s.config.KafkaBatchTimeout) * time.Millisecond
	cfg.RequiredAcks = s.config.KafkaRequiredAcks
	cfg.Compression = s.config.KafkaCompression

	producer, err := kafka.NewProducer(cfg, s.logger)
	if err != nil {
		return err
	}
	s.producer = producer
	return nil
}

func (s *Server) stopProducer(_ context.Context) error {
	if s.producer == nil {
		return nil
	}
	return s.producer.Close()
}

func (s *Server) startConsumer(ctx context.Context) error {
	procCfg := processor.DefaultProcessorConfig()
	procCfg.ProcessTimeout = time.Duration(s.config.ProcessorTimeoutSeconds) * time.Second
	procCfg.Paths = processor.Paths{
		RawText:       s.config.StreamRawTextPath,
		DocumentType:  s.config.StreamDocumentTypePath,
		UserRecord:    s.config.StreamUserRecordPath,
		ReferenceDate: s.config.StreamReferenceDatePath,
		RequestID:     s.config.StreamRequestIDPath,
	}

	proc, err := processor.NewProcessor(procCfg, s.verifier, s.producer, s.logger)
	if err != nil {
		return err
	}

	consumerCfg := kafka.DefaultConsumerConfig()
	consumerCfg.Brokers = s.config.KafkaBrokers
	consumerCfg.Topic = s.config.KafkaInputTopic
	consumerCfg.GroupID = s.config.KafkaConsumerGroup

	consumer, err := kafka.NewConsumer(consumerCfg, s.logger)
	if err != nil {
		return err
	}

	// The consume loop outlives the startup context.
	if err := consumer.Start(context.WithoutCancel(ctx), proc.MessageHandler()); err != nil {
		return err
	}

	s.processor = proc
	s.consumer = consumer
	s.checker.AddCheck("kafka_consumer", func(context.Context) error {
		if !consumer.Running() {
			return fmt.Errorf("consumer is not running")
		}
		return nil
	})
	return nil
}

func (s *Server) stopConsumer(_ context.Context) error {
	if s.consumer == nil {
		return nil
	}
	if s.processor != nil {
		stats := s.processor.Stats()
		s.logger.WithFields(map[string]any{
			"processed": stats.MessagesProcessed,
			"failed":    stats.MessagesFailed,
			"skipped":   stats.MessagesSkipped,
		}).Info("Stream processor stopped")
	}
	return s.consumer.Stop()
}
