// Command robofocusd runs the Robofocus-to-ASCOM-Alpaca bridge: it
// loads configuration, opens the focuser transport (real serial or
// in-process simulator), and serves the Alpaca HTTP and discovery
// surfaces until interrupted. Grounded on
// host/cmd/gopper-host/main.go's flag-based entry point, replacing
// its interactive dictionary console with a long-running service.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/robofocus/alpaca-bridge/internal/alpaca"
	"github.com/robofocus/alpaca-bridge/internal/alpacahttp"
	"github.com/robofocus/alpaca-bridge/internal/config"
	"github.com/robofocus/alpaca-bridge/internal/focuser"
	"github.com/robofocus/alpaca-bridge/internal/logging"
	"github.com/robofocus/alpaca-bridge/internal/transport"
)

var (
	configPath       = flag.String("config", "robofocusd.json", "Path to the JSON configuration document")
	userSettingsPath = flag.String("user-settings", "robofocusd.user.json", "Path to the per-operator settings document")
	simulate         = flag.Bool("simulate", false, "Force simulator mode regardless of the config file")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "robofocusd: failed to load config: %v\n", err)
		os.Exit(1)
	}
	userSettings, err := config.LoadUserSettings(*userSettingsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "robofocusd: failed to load user settings: %v\n", err)
		os.Exit(1)
	}
	if *simulate {
		cfg.Focuser.UseSimulator = true
	}

	log, ring := logging.New(logging.Options{
		Level:        cfg.Logging.Level,
		Development:  cfg.Logging.Development,
		RingCapacity: cfg.Logging.RingCapacity,
	})
	defer log.Sync()

	port := buildPort(cfg, userSettings)
	controller := focuser.New(port, cfg.Focuser.ToFocuserConfig(), log)

	descriptor := cfg.Serial.Port
	if userSettings.LastComPort != "" && !cfg.Focuser.UseSimulator {
		descriptor = userSettings.LastComPort
	}
	if cfg.Focuser.UseSimulator {
		descriptor = "simulator"
	}

	device := alpaca.NewDevice("robofocus-0", "Robofocus Focuser", descriptor, cfg.Serial.BaudRate, cfg.Server.ServerVersion, cfg.Focuser.StepSizeUM, controller, log)

	if err := controller.Connect(descriptor, cfg.Serial.BaudRate); err != nil {
		log.Warn("initial connect failed; device will report Connected=false until retried", zap.Error(err))
	} else if !cfg.Focuser.UseSimulator {
		userSettings.LastComPort = descriptor
		if err := config.SaveUserSettings(*userSettingsPath, userSettings); err != nil {
			log.Warn("failed to persist last COM port", zap.Error(err))
		}
	}

	router := alpacahttp.NewRouter(device, ring, log, cfg.Server.ServerVersion)
	srv := &http.Server{Addr: cfg.Server.ListenAddress, Handler: router}

	discoveryStop := make(chan struct{})
	go func() {
		_, apiPort := splitPort(cfg.Server.ListenAddress)
		if err := alpacahttp.RunDiscoveryResponder(apiPort, discoveryStop, log); err != nil {
			log.Error("discovery responder stopped", zap.Error(err))
		}
	}()

	go func() {
		log.Info("serving Alpaca API", zap.String("address", cfg.Server.ListenAddress))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")
	close(discoveryStop)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn("http server shutdown error", zap.Error(err))
	}
	if controller.IsConnected() {
		if err := controller.Disconnect(); err != nil {
			log.Warn("controller disconnect error", zap.Error(err))
		}
	}
}

// buildPort selects the real serial transport or the simulator per
// config, grounded on core.StepperBackend's role as the
// compile-time-polymorphic hardware handle in the teacher.
func buildPort(cfg *config.Config, userSettings *config.UserSettings) transport.Port {
	if cfg.Focuser.UseSimulator {
		return transport.NewSimulator(transport.SimulatorConfig{
			Firmware:         cfg.Simulator.Firmware,
			InitialPosition:  cfg.Simulator.InitialPosition,
			MaxTravel:        cfg.Simulator.MaxTravel,
			Backlash:         cfg.Simulator.Backlash,
			SpeedStepsPerSec: cfg.Simulator.SpeedStepsPerSec,
			BaseTempCelsius:  cfg.Simulator.BaseTempCelsius,
			TempNoise:        cfg.Simulator.TempNoise,
			TempDriftPerMin:  cfg.Simulator.TempDriftPerMin,
			Seed:             cfg.Simulator.Seed,
		})
	}
	return transport.NewSerialTransport()
}

// splitPort pulls the numeric port out of a "host:port" listen
// address for the discovery responder's AlpacaPort field.
func splitPort(listenAddress string) (string, int) {
	host, portStr := "127.0.0.1", "11111"
	for i := len(listenAddress) - 1; i >= 0; i-- {
		if listenAddress[i] == ':' {
			host = listenAddress[:i]
			portStr = listenAddress[i+1:]
			break
		}
	}
	var port int
	fmt.Sscanf(portStr, "%d", &port)
	return host, port
}
