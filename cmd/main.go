package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"hotel-beacon-monitor/internal/config"
	"hotel-beacon-monitor/internal/domain/beacon"
	"hotel-beacon-monitor/internal/engine"
	"hotel-beacon-monitor/internal/ingestion"
	"hotel-beacon-monitor/internal/logger"
	"hotel-beacon-monitor/internal/routes"
	"hotel-beacon-monitor/pkg/clock"
	pkgmqtt "hotel-beacon-monitor/pkg/mqtt"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("Failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	env := cfg.Server.Environment
	if env == "" {
		env = "development"
	}
	if err := logger.Init(env); err != nil {
		os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("environment", env),
	)

	clk := clock.New()

	eng := engine.New(clk,
		engine.WithActivityLogCap(cfg.Engine.ActivityLogCap),
		engine.WithInitialSettings(beacon.Settings{
			Endpoint:               cfg.MQTT.Broker,
			ClientID:               cfg.MQTT.ClientID,
			Topic:                  cfg.MQTT.Topic,
			CertFile:               cfg.MQTT.CertFile,
			KeyFile:                cfg.MQTT.KeyFile,
			CAFile:                 cfg.MQTT.CAFile,
			AutoRefresh:            cfg.Engine.AutoRefresh,
			RefreshIntervalSeconds: cfg.Engine.RefreshIntervalSeconds,
		}),
		engine.WithLogger(logger.Logger),
	)

	source, mqttSource := buildSource(cfg, eng)
	if mqttSource != nil {
		defer mqttSource.Stop()
	}

	loop := ingestion.NewLoop(eng, source, clk, ingestion.WithLoopLogger(logger.Logger))
	defer loop.Close()

	eng.SetReconfigure(loop.Reconfigure)

	settings := eng.Settings()
	loop.Reconfigure(settings.AutoRefresh,
		time.Duration(settings.RefreshIntervalSeconds)*time.Second)

	router := routes.SetupRoutes(cfg, eng, loop)

	host := cfg.Server.Host
	if host == "" {
		host = "0.0.0.0"
	}
	port := cfg.Server.Port
	if port == "" {
		port = "8080"
	}
	addr := net.JoinHostPort(host, port)

	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting",
			zap.String("address", addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutdown Server ...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Failed to shutdown server", zap.Error(err))
	}

	logger.Info("Server exited")
}

// buildSource picks the telemetry source: a live MQTT uplink subscription
// when a broker is configured, the simulator otherwise.
func buildSource(cfg *config.Config, eng *engine.Engine) (ingestion.Source, *ingestion.MQTTSource) {
	if cfg.MQTT.Broker == "" {
		logger.Info("No MQTT broker configured, using simulated telemetry")
		return ingestion.NewSimulator(cfg.Engine.SimulatorSeed), nil
	}

	src, err := ingestion.NewMQTTSource(&ingestion.MQTTSourceConfig{
		Client: &pkgmqtt.Config{
			Broker:               cfg.MQTT.Broker,
			ClientID:             cfg.MQTT.ClientID,
			Username:             cfg.MQTT.Username,
			Password:             cfg.MQTT.Password,
			CertFile:             cfg.MQTT.CertFile,
			KeyFile:              cfg.MQTT.KeyFile,
			CAFile:               cfg.MQTT.CAFile,
			CleanSession:         true,
			KeepAlive:            cfg.MQTT.KeepAlive,
			ConnectTimeout:       cfg.MQTT.ConnectTimeout,
			AutoReconnect:        true,
			MaxReconnectInterval: time.Minute,
		},
		Topic:         cfg.MQTT.Topic,
		QoS:           byte(cfg.MQTT.QoS),
		AlarmInterval: cfg.MQTT.AlarmInterval,
	}, logger.Logger, func(connected bool) {
		eng.SetConnected(connected)
	})
	if err != nil {
		logger.Fatal("Failed to build MQTT source", zap.Error(err))
	}

	eng.SetConnecting()
	if err := src.Start(); err != nil {
		logger.Warn("MQTT source failed to start, continuing disconnected", zap.Error(err))
		eng.SetConnected(false)
	}

	return src, src
}
