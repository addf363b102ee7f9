package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adactor "github.com/berfenger/smarthq2mqtt/internal/adapter/actor"
	"github.com/berfenger/smarthq2mqtt/internal/config"
	"github.com/berfenger/smarthq2mqtt/internal/core/actor"
	"github.com/berfenger/smarthq2mqtt/internal/core/domain"
	"github.com/berfenger/smarthq2mqtt/internal/core/port"
	"github.com/berfenger/smarthq2mqtt/internal/core/service"
	"github.com/berfenger/smarthq2mqtt/internal/metrics"
	"github.com/berfenger/smarthq2mqtt/internal/server"
	"github.com/berfenger/smarthq2mqtt/internal/util/actorutil"
	"github.com/berfenger/smarthq2mqtt/pkg/smarthq"

	pactor "github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/cenkalti/backoff/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func gracefulShutdown(ctx context.Context, apiServer *http.Server, rootContext *pactor.RootContext, master *pactor.PID, done chan bool) {
	// Listen for the interrupt signal or a fatal setup error.
	<-ctx.Done()

	log.Println("shutting down gracefully, press Ctrl+C again to force")

	// stop the cloud session before the http server
	if _, err := rootContext.RequestFuture(master, domain.CoordinatorShutdownRequest{}, 5*time.Second).Result(); err != nil {
		log.Printf("Coordinator shutdown error: %v", err)
	}

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown with error: %v", err)
	}

	log.Println("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

func main() {

	// load and print config
	cfg, err := initConfig()
	if err != nil {
		slog.Error("config errors", "error", err)
		os.Exit(1)
	}
	safePrintConfig(*cfg)

	// zap logger
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)

	logger := zap.Must(zapCfg.Build())
	defer logger.Sync()

	// metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	coordinatorMetrics := metrics.NewCoordinatorMetrics()
	if err := coordinatorMetrics.Register(registry); err != nil {
		logger.Fatal("cannot register metrics", zap.Error(err))
	}

	// init actor system
	as := actorutil.NewActorSystemWithZapLogger(logger)
	rootContext := as.Root

	policy := coordinatorPolicy(cfg)

	props := pactor.PropsFromProducer(func() pactor.Actor {
		return actor.NewMasterOfPuppetsActor(*cfg,
			coordinatorActorProvider(cfg, policy, coordinatorMetrics, logger),
			mqttActorProvider(cfg, logger), nil, logger)
	})
	pid, err := rootContext.SpawnNamed(props, domain.ACTOR_ID_MASTER)
	if err != nil {
		logger.Fatal("cannot spawn master actor", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := server.NewServer(*cfg, rootContext, pid, registry)
	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(ctx, server, rootContext, pid, done)

	// Run the setup loop, an authentication failure stops the bridge
	setupErr := make(chan error, 1)
	go func() {
		err := runSetup(ctx, rootContext, pid, cfg.Coordinator, logger)
		setupErr <- err
		if errors.Is(err, domain.ErrAuthFailure) {
			stop()
		}
	}()

	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		panic(fmt.Sprintf("http server error: %s", err))
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Println("Graceful shutdown complete.")

	rootContext.Stop(pid)
	as.Shutdown()

	select {
	case err := <-setupErr:
		if errors.Is(err, domain.ErrAuthFailure) {
			os.Exit(1)
		}
	default:
	}
}

// runSetup requests a coordinator setup until it succeeds. Connect failures are
// retried with exponential backoff, authentication failures are returned.
func runSetup(ctx context.Context, rootContext *pactor.RootContext, master *pactor.PID, cfg config.CoordinatorConfig,
	logger *zap.Logger) error {
	timeout := cfg.SetupTimeout() + cfg.AsyncTimeout() + 5*time.Second

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = cfg.MinRetryDelay()
	expBackoff.MaxInterval = cfg.MaxRetryDelay()
	expBackoff.Multiplier = 2
	expBackoff.RandomizationFactor = 0

	attempt := 0
	_, err := backoff.Retry(ctx, func() (domain.CoordinatorSetupResponse, error) {
		attempt++
		res, err := rootContext.RequestFuture(master, domain.CoordinatorSetupRequest{}, timeout).Result()
		if err != nil {
			return domain.CoordinatorSetupResponse{}, err
		}
		resp, ok := res.(domain.CoordinatorSetupResponse)
		if !ok {
			return resp, fmt.Errorf("unexpected setup response %T", res)
		}
		if resp.HasResponseError() {
			err = resp.GetResponseError()
			if errors.Is(err, domain.ErrAuthFailure) {
				return resp, backoff.Permanent(err)
			}
			return resp, err
		}
		logger.Info("smarthq setup complete", zap.Uint64("session", resp.Session), zap.Int("attempts", attempt))
		return resp, nil
	}, backoff.WithBackOff(expBackoff), backoff.WithMaxElapsedTime(0), backoff.WithNotify(func(err error, delay time.Duration) {
		logger.Warn("smarthq setup failed, retrying", zap.Error(err), zap.Int("attempt", attempt), zap.Duration("delay", delay))
	}))
	if errors.Is(err, domain.ErrAuthFailure) {
		logger.Error("smarthq authentication failed, check credentials", zap.Error(err))
	}
	return err
}

func initConfig() (*config.Config, error) {

	// alias PORT => SMARTHQ_PORT
	if port := os.Getenv("PORT"); port != "" {
		os.Setenv("SMARTHQ_PORT", port)
	}

	setConfigDefaults()

	viper.SetEnvPrefix("smarthq")
	viper.AutomaticEnv()

	// if defined, try to load config from yaml file
	if cfgFile := os.Getenv("CONFIG_FILE"); cfgFile != "" {
		if _, err := os.Stat(cfgFile); err == nil {
			slog.Info("Using config", "file", cfgFile)
			viper.SetConfigFile(cfgFile)

			err = viper.ReadInConfig()
			if err != nil {
				slog.Error("Error reading config file", "error", err)
			}
		}
	}

	var cfg config.Config

	err := viper.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	// parse log level
	switch viper.GetString("log_level") {
	case "trace":
		cfg.LogLevel = zap.DebugLevel
	case "debug":
		cfg.LogLevel = zap.DebugLevel
	case "info":
		cfg.LogLevel = zap.InfoLevel
	case "error":
		cfg.LogLevel = zap.ErrorLevel
	case "warn":
		cfg.LogLevel = zap.WarnLevel
	case "fatal":
		cfg.LogLevel = zap.FatalLevel
	default:
		cfg.LogLevel = zap.InfoLevel
	}

	// check and fix base topic
	baseTopic, err := config.CheckMQTTTopic(cfg.MQTT.BaseTopic)
	if err != nil {
		return nil, errors.New("invalid base topic. can only contain letters, numbers and underscores")
	}
	cfg.MQTT.BaseTopic = baseTopic

	// check and fix homeassistant discovery topic
	hadBaseTopic, err := config.CheckMQTTTopic(cfg.MQTT.HADiscoveryTopic)
	if err != nil {
		return nil, errors.New("invalid homeassistant discovery topic. can only contain letters, numbers and underscores")
	}
	cfg.MQTT.HADiscoveryTopic = hadBaseTopic

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func coordinatorPolicy(cfg *config.Config) port.CoordinatorPolicy {
	return service.DefaultCoordinatorPolicy{
		MinRetryDelay:     cfg.Coordinator.MinRetryDelay(),
		MaxRetryDelay:     cfg.Coordinator.MaxRetryDelay(),
		RetryOfflineCount: cfg.Coordinator.RetryOfflineCount,
	}
}

func coordinatorActorProvider(cfg *config.Config, policy port.CoordinatorPolicy, m *metrics.CoordinatorMetrics,
	logger *zap.Logger) actor.CoordinatorActorProvider {
	creds := smarthq.Credentials{
		Username:     cfg.SmartHQ.Username,
		Password:     cfg.SmartHQ.Password,
		ClientID:     cfg.SmartHQ.ClientID,
		ClientSecret: cfg.SmartHQ.ClientSecret,
		Region:       cfg.SmartHQ.Region,
		TokenFile:    cfg.SmartHQ.TokenFile,
	}
	factory := func(handlers smarthq.EventHandlers) port.SmartHQClient {
		return smarthq.NewWebsocketClient(creds, handlers, logger)
	}
	return func(es *eventstream.EventStream) *actor.CoordinatorActor {
		return actor.NewCoordinatorActor(cfg, policy, factory, es, m, logger)
	}
}

func mqttActorProvider(cfg *config.Config, logger *zap.Logger) actor.MQTTActorProvider {
	return func(es *eventstream.EventStream) *adactor.MQTTActor {
		return adactor.NewMQTTActor(cfg, es, logger)
	}
}

func setConfigDefaults() {
	viper.SetDefault("log_level", "warn")
	viper.SetDefault("smarthq.region", "US")
	viper.SetDefault("mqtt.ha_discovery_enable", false)
	viper.SetDefault("mqtt.base_topic", "smarthq")
	viper.SetDefault("mqtt.ha_discovery_topic", "homeassistant")
	viper.SetDefault("coordinator.update_interval_millis", 30000)
	viper.SetDefault("coordinator.async_timeout_millis", 30000)
	viper.SetDefault("coordinator.setup_timeout_millis", 30000)
	viper.SetDefault("coordinator.roster_settle_millis", 5000)
	viper.SetDefault("coordinator.ready_settle_millis", 2000)
	viper.SetDefault("coordinator.min_retry_delay_millis", 15000)
	viper.SetDefault("coordinator.max_retry_delay_millis", 1800000)
	viper.SetDefault("coordinator.retry_offline_count", 5)
	viper.SetDefault("coordinator.appliance_list_interval_millis", 900000)
	viper.SetDefault("coordinator.appliance_list_cron", "")
	viper.SetDefault("port", 8080)
}

func safePrintConfig(cfg config.Config) {
	cfg.MQTT.Username = "*redacted*"
	cfg.MQTT.Password = "*redacted*"
	cfg.SmartHQ.Password = "*redacted*"
	cfg.SmartHQ.ClientSecret = "*redacted*"
	slog.Info("Using", "config", cfg)
}
