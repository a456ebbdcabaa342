package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/itohio/gotec/pkg/config"
	"github.com/itohio/gotec/pkg/device"
	"github.com/itohio/gotec/pkg/logging"
	"github.com/itohio/gotec/pkg/telemetry"
)

const appName = "tecctl"

func main() {
	var (
		portFlag     = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
		configFlag   = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag     = flag.Bool("mock", false, "Use mocked device instead of serial port")
		modeFlag     = flag.String("mode", "", "Run a single step in this mode (heat or cool), overrides the schedule")
		dutyFlag     = flag.Int("duty", 0, "Duty (0-255) for -mode")
		cyclesFlag   = flag.Int("cycles", 0, "Cycles for -mode (0 = until interrupted)")
		intervalFlag = flag.Duration("interval", 0, "Delay between cycles (overrides config)")
		listFlag     = flag.Bool("list", false, "List serial ports and exit")
		saveFlag     = flag.String("save", "", "Write the effective configuration to this path and exit")
	)
	flag.Parse()

	if *listFlag {
		if err := listPorts(); err != nil {
			fmt.Fprintf(os.Stderr, "list ports: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}
	if *intervalFlag > 0 {
		cfg.CycleInterval = *intervalFlag
	}
	if *modeFlag != "" {
		steps, err := scheduleOverride(*modeFlag, *dutyFlag, *cyclesFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(2)
		}
		cfg.Schedule = steps
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(2)
	}

	if *saveFlag != "" {
		if err := cfg.Save(*saveFlag); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to save configuration: %v\n", err)
			os.Exit(1)
		}
		return
	}

	logger, err := logging.New(os.Stdout, cfg.Log, appName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(2)
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	n, err := run(ctx, cfg, *mockFlag, logger)
	if err != nil {
		logger.Error("run failed", "batches", n, "error", err)
		os.Exit(1)
	}
	logger.Info("shutting down", "batches", n)
}

// run connects, drives the schedule to completion or cancellation and returns
// the number of batches processed.
func run(ctx context.Context, cfg *config.Config, useMock bool, logger *slog.Logger) (int, error) {
	dev := openDevice(cfg, useMock)
	if err := dev.Connect(); err != nil {
		if useMock {
			return 0, fmt.Errorf("failed to connect to mocked device: %w", err)
		}
		return 0, fmt.Errorf("failed to connect to %s: %w", cfg.Serial.Port, err)
	}
	defer dev.Close()

	if useMock {
		logger.Info("using mocked device")
	} else {
		logger.Info("connected", "port", cfg.Serial.Port, "baud", cfg.Serial.BaudRate)
	}

	sink := openSink(ctx, cfg, logger)
	defer sink.Close()

	chain := startChain(ctx, cfg, dev, sink, logger)
	n := chain.wait()

	if err := chain.runner.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return n, err
	}
	return n, nil
}

func openDevice(cfg *config.Config, useMock bool) device.Device {
	if useMock {
		return device.NewMock(cfg)
	}
	return device.New(cfg.Serial.Port, cfg.Serial.BaudRate, cfg.Protocol.BatchSize, cfg.Serial.ReadTimeout)
}

// openSink returns the MQTT publisher when enabled and reachable, a no-op
// sink otherwise. Telemetry never stops the control loop.
func openSink(ctx context.Context, cfg *config.Config, logger *slog.Logger) telemetry.Sink {
	if !cfg.MQTT.Enabled {
		return telemetry.Nop{}
	}

	p := telemetry.NewPublisher(cfg.MQTT, logger)

	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := p.Connect(cctx); err != nil {
		logger.Warn("telemetry disabled", "broker", cfg.MQTT.Broker, "error", err)
		p.Close()
		return telemetry.Nop{}
	}
	return p
}

func listPorts() error {
	ports, err := device.Ports()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		fmt.Println("No serial ports found")
		return nil
	}
	for _, p := range ports {
		if p.Description != "" {
			fmt.Printf("%s\t%s\n", p.Name, p.Description)
		} else {
			fmt.Println(p.Name)
		}
	}
	return nil
}
