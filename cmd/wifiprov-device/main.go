// Command wifiprov-device runs a simulated device through one Wi-Fi
// provisioning session.
//
// The device brings up the provisioning manager on the selected scheme,
// waits for a companion to deliver station credentials, joins the network on
// the simulated radio, and exits with status 0 on success and 1 otherwise.
// The companion is either the interactive console (-interactive) or a
// scripted one configured with -companion-ssid.
//
// Usage:
//
//	wifiprov-device [flags]
//
// Flags:
//
//	-config string          YAML configuration file (flags override it)
//	-scheme string          Transport scheme: ble, softap (default "softap")
//	-security uint          Security level: 0 or 1 (default 1)
//	-pop string             Proof-of-possession for security 1
//	-name string            Service name (default "PROV_TOIT")
//	-key string             SoftAP passphrase (ignored for BLE)
//	-timeout duration       Session timeout (default 5m0s)
//	-grace duration         Channel grace window after success (default 5s)
//	-store string           Credential store file (default "wifiprov-nvs.json")
//	-capture string         Capture file (.plog) for session events
//	-metrics-addr string    Serve Prometheus metrics on this address
//	-network ssid=pass      Network reachable by the simulated radio (repeatable)
//	-mdns                   Advertise the SoftAP endpoint over mDNS
//	-interface string       Network interface for mDNS (default all)
//	-port uint              Advertised endpoint port (default 80)
//	-interactive            Run the interactive companion console
//	-companion-ssid string  Scripted companion: SSID to send
//	-companion-pass string  Scripted companion: passphrase to send
//	-companion-pop string   Scripted companion: proof-of-possession to present
//	-log-level string       Log level: debug, info, warn, error (default "info")
//
// Examples:
//
//	# SoftAP with a scripted companion
//	wifiprov-device -pop abcd1234 -network home=hunter22 \
//	    -companion-ssid home -companion-pass hunter22 -companion-pop abcd1234
//
//	# BLE, driven from the console
//	wifiprov-device -scheme ble -security 0 -network home=hunter22 -interactive
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mash-protocol/wifiprov/cmd/wifiprov-device/interactive"
	"github.com/mash-protocol/wifiprov/pkg/discovery"
	"github.com/mash-protocol/wifiprov/pkg/eventloop"
	plog "github.com/mash-protocol/wifiprov/pkg/log"
	"github.com/mash-protocol/wifiprov/pkg/manager"
	"github.com/mash-protocol/wifiprov/pkg/metrics"
	"github.com/mash-protocol/wifiprov/pkg/persistence"
	"github.com/mash-protocol/wifiprov/pkg/provision"
	"github.com/mash-protocol/wifiprov/pkg/radio"
	"github.com/mash-protocol/wifiprov/pkg/security"
)

var config = defaultConfig()

func init() {
	config.Networks = make(map[string]string)

	flag.StringVar(&config.ConfigFile, "config", "", "YAML configuration file (flags override it)")
	flag.StringVar(&config.Scheme, "scheme", config.Scheme, "Transport scheme: ble, softap")
	flag.UintVar(&config.Security, "security", config.Security, "Security level: 0 or 1")
	flag.StringVar(&config.PoP, "pop", "", "Proof-of-possession for security 1")
	flag.StringVar(&config.ServiceName, "name", "", "Service name (default \"PROV_TOIT\")")
	flag.StringVar(&config.ServiceKey, "key", "", "SoftAP passphrase (ignored for BLE)")
	flag.DurationVar(&config.Timeout, "timeout", config.Timeout, "Session timeout")
	flag.DurationVar(&config.Grace, "grace", config.Grace, "Channel grace window after success")
	flag.StringVar(&config.StorePath, "store", config.StorePath, "Credential store file")
	flag.StringVar(&config.CapturePath, "capture", "", "Capture file (.plog) for session events")
	flag.StringVar(&config.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	flag.Var(networksFlag(config.Networks), "network", "Network reachable by the simulated radio, ssid=pass (repeatable)")
	flag.BoolVar(&config.MDNS, "mdns", false, "Advertise the SoftAP endpoint over mDNS")
	flag.StringVar(&config.Interface, "interface", "", "Network interface for mDNS (default all)")
	flag.Func("port", "Advertised endpoint port (default 80)", func(s string) error {
		var p uint16
		if _, err := fmt.Sscan(s, &p); err != nil {
			return fmt.Errorf("invalid port %q", s)
		}
		config.Port = p
		return nil
	})
	flag.BoolVar(&config.Interactive, "interactive", false, "Run the interactive companion console")
	flag.StringVar(&config.CompanionSSID, "companion-ssid", "", "Scripted companion: SSID to send")
	flag.StringVar(&config.CompanionPass, "companion-pass", "", "Scripted companion: passphrase to send")
	flag.StringVar(&config.CompanionPoP, "companion-pop", "", "Scripted companion: proof-of-possession to present")
	flag.StringVar(&config.LogLevel, "log-level", config.LogLevel, "Log level: debug, info, warn, error")
}

func main() {
	flag.Parse()

	if config.ConfigFile != "" {
		if err := loadConfigFile(config.ConfigFile, &config); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		// Explicit flags win over the file.
		_ = flag.CommandLine.Parse(os.Args[1:])
	}

	if err := config.validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(2)
	}

	ok, err := run(config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Provisioning failed: %v\n", err)
		os.Exit(1)
	}
	if !ok {
		os.Exit(1)
	}
}

func run(cfg Config) (bool, error) {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var console *interactive.Console
	var out io.Writer = os.Stderr
	if cfg.Interactive {
		c, err := interactive.New()
		if err != nil {
			return false, err
		}
		console = c
		out = c.Stderr()
	}

	level, _ := parseLevel(cfg.LogLevel)
	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))

	capture, closeCapture, err := setupCapture(cfg, logger)
	if err != nil {
		return false, err
	}
	defer closeCapture()

	recorder, stopMetrics, err := setupMetrics(cfg, logger)
	if err != nil {
		return false, err
	}
	defer stopMetrics()

	loop := eventloop.New(eventloop.WithLogger(logger))
	if err := loop.Start(ctx); err != nil {
		return false, err
	}
	defer loop.Stop()

	store := persistence.NewFileStore(cfg.StorePath)
	sim := radio.NewSim(loop, radio.SimConfig{
		Networks: cfg.Networks,
		Saver:    store,
		Logger:   logger,
	})
	defer sim.Stop()

	mgrCfg := manager.Config{
		Bus:            loop,
		Radio:          sim,
		Port:           cfg.Port,
		Logger:         logger,
		ProtocolLogger: capture,
	}
	if cfg.MDNS {
		advCfg := discovery.DefaultAdvertiserConfig()
		advCfg.Interface = cfg.Interface
		mgrCfg.Advertiser = discovery.NewMDNSAdvertiser(advCfg)
	}
	svc, err := manager.New(mgrCfg)
	if err != nil {
		return false, err
	}

	provCfg := provision.DefaultConfig()
	provCfg.Store = store
	provCfg.Radio = sim
	provCfg.Bus = loop
	provCfg.Manager = svc
	provCfg.GraceWindow = cfg.Grace
	provCfg.Timeout = cfg.Timeout
	provCfg.Logger = logger
	provCfg.ProtocolLogger = capture
	provCfg.Metrics = recorder

	prov, err := provision.New(provCfg)
	if err != nil {
		return false, err
	}

	req, _ := cfg.request()
	logger.Info("starting provisioning",
		"scheme", req.Scheme.String(),
		"security", req.Security.String(),
		"store", cfg.StorePath)

	switch {
	case console != nil:
		go console.Run(ctx, cancel, svc, sim)
	case cfg.CompanionSSID != "":
		svc.OnStateChange(func(_, st manager.State) {
			if st == manager.StateRunning {
				go runScriptedCompanion(cfg, svc, logger)
			}
		})
	default:
		logger.Info("waiting for a companion; use -interactive or -companion-ssid")
	}

	outcome, err := prov.Begin(ctx, req)
	if console != nil {
		console.Close()
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return false, err
	}

	logger.Info("provisioning finished", "outcome", outcome.String())
	if outcome == provision.OutcomeSucceeded {
		// Let the manager close the channel after the grace window.
		time.Sleep(cfg.Grace)
	}
	return outcome == provision.OutcomeSucceeded, nil
}

func runScriptedCompanion(cfg Config, svc *manager.Service, logger *slog.Logger) {
	level := svc.Security()
	comp, err := manager.NewCompanion(level, cfg.CompanionPoP)
	if err != nil {
		logger.Error("companion setup failed", "error", err)
		return
	}
	ch, err := svc.Connect()
	if err != nil {
		logger.Error("companion connect failed", "error", err)
		return
	}
	if level == security.Security1 {
		if err := comp.Handshake(ch); err != nil {
			logger.Warn("companion handshake failed", "error", err)
			return
		}
	}
	status, err := comp.SendConfig(ch, cfg.CompanionSSID, cfg.CompanionPass)
	if err != nil {
		logger.Warn("companion send failed", "error", err)
		return
	}
	logger.Info("companion config sent", "ssid", cfg.CompanionSSID, "status", status.String())
}

func setupCapture(cfg Config, logger *slog.Logger) (plog.Logger, func(), error) {
	adapter := plog.NewSlogAdapter(logger)
	if cfg.CapturePath == "" {
		return adapter, func() {}, nil
	}

	fl, err := plog.NewFileLogger(cfg.CapturePath)
	if err != nil {
		return nil, nil, fmt.Errorf("open capture file: %w", err)
	}
	return plog.NewMultiLogger(adapter, fl), func() {
		written, dropped := fl.Stats()
		logger.Debug("capture closed", "written", written, "dropped", dropped)
		_ = fl.Close()
	}, nil
}

func setupMetrics(cfg Config, logger *slog.Logger) (*metrics.Recorder, func(), error) {
	if cfg.MetricsAddr == "" {
		return nil, func() {}, nil
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder, err := metrics.NewRecorder(reg)
	if err != nil {
		return nil, nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", cfg.MetricsAddr)

	return recorder, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
