package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/an1noX/techpinoyv3-sub002/common/config"
	"github.com/kardianos/service"
)

// program implements service.Interface
type program struct {
	configPath string
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
	svcLogger  service.Logger
}

func (p *program) Start(s service.Service) error {
	p.svcLogger, _ = s.Logger(nil)
	if p.svcLogger != nil {
		p.svcLogger.Info("PrintFleet Server service starting")
	}

	p.ctx, p.cancel = context.WithCancel(context.Background())
	p.done = make(chan struct{})

	go p.run()
	return nil
}

func (p *program) run() {
	defer close(p.done)

	err := runFromConfig(p.ctx, p.configPath, true)
	if p.svcLogger == nil {
		return
	}
	if err != nil {
		p.svcLogger.Errorf("PrintFleet Server stopped with error: %v", err)
		return
	}
	p.svcLogger.Info("PrintFleet Server service stopping")
}

func (p *program) Stop(s service.Service) error {
	if p.svcLogger != nil {
		p.svcLogger.Info("PrintFleet Server service stop requested")
	}
	if p.cancel != nil {
		p.cancel()
	}

	select {
	case <-p.done:
		if p.svcLogger != nil {
			p.svcLogger.Info("PrintFleet Server service stopped gracefully")
		}
	case <-time.After(30 * time.Second):
		if p.svcLogger != nil {
			p.svcLogger.Warning("PrintFleet Server service stopped with timeout")
		}
	}
	return nil
}

// serviceWorkingDir is the data directory used when running as a service.
func serviceWorkingDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("ProgramData"), "PrintFleet", "server")
	case "darwin":
		return "/Library/Application Support/PrintFleet/server"
	default:
		return filepath.Join("/var/lib", config.AppName, "server")
	}
}

// serviceConfigPath is where `service install` writes the default config.
func serviceConfigPath() string {
	switch runtime.GOOS {
	case "windows", "darwin":
		return filepath.Join(serviceWorkingDir(), "config.toml")
	default:
		return filepath.Join("/etc", config.AppName, "server", "config.toml")
	}
}

// getServiceConfig returns the service configuration for the current platform
func getServiceConfig(configPath string) *service.Config {
	args := []string{"service", "run"}
	if configPath != "" {
		args = append(args, "--config", configPath)
	}
	return &service.Config{
		Name:             "PrintFleetServer",
		DisplayName:      "PrintFleet Server",
		Description:      "PrintFleet printer rental registry: printers, clients, toner catalogue and history over HTTP.",
		WorkingDirectory: serviceWorkingDir(),
		Arguments:        args,
		Option: service.KeyValue{
			// Windows
			"StartType":              "automatic",
			"DelayedAutoStart":       true,
			"OnFailure":              "restart",
			"OnFailureDelayDuration": "5s",
			"OnFailureResetPeriod":   30,

			// systemd
			"Restart":           "on-failure",
			"RestartSec":        5,
			"SuccessExitStatus": "0 SIGTERM",
			"KillMode":          "mixed",
			"KillSignal":        "SIGTERM",

			// launchd
			"RunAtLoad": true,
			"KeepAlive": true,
		},
	}
}

func newService(configPath string) (service.Service, error) {
	prg := &program{configPath: configPath}
	return service.New(prg, getServiceConfig(configPath))
}

// setupServiceDirectories creates the data and log directories and a default
// config file when none exists.
func setupServiceDirectories(configPath string) error {
	dirs := []string{serviceWorkingDir(), filepath.Dir(configPath)}
	if logDir, err := config.GetLogDirectory("server", true); err == nil {
		dirs = append(dirs, logDir)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	err := WriteDefaultConfig(configPath)
	switch {
	case err == nil:
		fmt.Printf("Generated default configuration at: %s\n", configPath)
	case errors.Is(err, config.ErrConfigExists):
		fmt.Printf("Configuration already exists at: %s\n", configPath)
	default:
		return fmt.Errorf("failed to generate default config at %s: %w", configPath, err)
	}
	return nil
}
