package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"i4.energy/across/espwifi/esp"
	"i4.energy/across/espwifi/wifidb"
)

func main() {
	configFile := flag.String("config", "", "Path of a YAML configuration file")
	flag.String("serial-port", "/dev/ttyUSB0", "Serial port the ESP module is attached to")
	flag.Int("baud-rate", esp.DefaultBaudRate, "Baud rate for serial communication")
	flag.String("bind-address", "0.0.0.0:8080", "Bind address for the HTTP server")
	flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.String("data-dir", "/var/lib/espwifi", "Directory of the credentials database")
	flag.String("wifi-mode", "station", "WiFi mode set at startup (station, ap, ap+station)")
	flag.Duration("at-timeout", 10*time.Second, "Timeout for a single AT command")
	flag.String("mqtt-broker", "", "MQTT broker URL, empty disables MQTT")
	flag.String("mqtt-topic", "espwifi", "Prefix of the MQTT state and connect topics")
	flag.Parse()

	config, err := LoadConfig(
		WithDefaults(),
		WithFile(*configFile),
		WithEnv(),
		WithFlags(flag.CommandLine),
	)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logLevel := slog.LevelInfo
	switch config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	mode, err := esp.ParseMode(config.WifiMode)
	if err != nil {
		logger.Error("Invalid WiFi mode", "error", err)
		os.Exit(1)
	}

	db, err := wifidb.Open(config.DataDir)
	if err != nil {
		logger.Error("Failed to open credentials database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	espConfig, err := esp.NewConfigBuilder().
		WithATTimeout(config.ATTimeout).
		WithLogger(logger.With("component", "esp")).
		WithDialer(esp.SerialDialer{
			PortName: config.SerialPort,
			BaudRate: config.BaudRate,
		}).
		Build()
	if err != nil {
		logger.Error("Failed to create module config", "error", err)
		os.Exit(1)
	}

	client, err := esp.Open(context.Background(), espConfig)
	if err != nil {
		logger.Error("Failed to open module", "error", err)
		os.Exit(1)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	driver := NewDriver(client, logger.With("component", "driver"), espConfig.PollInterval)
	if config.MqttBroker != "" {
		bridge := &Bridge{
			Topic:  config.MqttTopic,
			Driver: driver,
			DB:     db,
			Logger: logger.With("component", "mqtt"),
		}
		bridge.Client = NewMQTTClient(config, func(mqtt.Client) {
			if err := bridge.Subscribe(); err != nil {
				bridge.Logger.Error("Failed to subscribe", "error", err)
			}
		})
		driver.OnStateChange = bridge.PublishState

		if token := bridge.Client.Connect(); token.Wait() && token.Error() != nil {
			logger.Error("Failed to connect to MQTT broker", "error", token.Error())
		}
		defer bridge.Client.Disconnect(500)
	}

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		if err := driver.Loop(ctx); err != nil && err != context.Canceled {
			logger.Error("Driver stopped", "error", err)
		}
	}()

	logger.Info("Starting ESP WiFi daemon", "serial_port", config.SerialPort, "mode", config.WifiMode)

	go func() {
		setupCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		if err := driver.Do(setupCtx, Setup(logger.With("component", "setup"), mode, db)); err != nil {
			logger.Error("Module setup failed", "error", err)
		}
	}()

	httpServer := &http.Server{
		Addr: config.BindAddress,
		Handler: &Server{
			Logger: logger.With("component", "server"),
			Driver: driver,
			DB:     db,
		},
	}

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info("Starting HTTP server", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	sig := <-sigChan
	logger.Info("Received shutdown signal", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Info("Closing HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to gracefully shutdown server", "error", err)
	}

	// The driver must stop before the client it owns is closed.
	stop()
	<-loopDone
	logger.Info("Closing module connection")
	if err := client.Close(); err != nil {
		logger.Error("Failed to close module", "error", err)
	}
}
