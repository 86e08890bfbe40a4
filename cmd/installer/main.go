package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/rouletted/roulette-tracker/internal/config"
	"github.com/rouletted/roulette-tracker/internal/logging"
	"github.com/rouletted/roulette-tracker/internal/provision"
)

func main() {
	sourceDir := flag.String("source", ".", "directory holding the application files to install")
	serviceName := flag.String("service", "", "systemd service name (overrides config)")
	installDir := flag.String("install-dir", "", "install directory (overrides config)")
	port := flag.Int("port", 0, "service port (overrides config)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if *serviceName != "" {
		cfg.Provision.ServiceName = *serviceName
	}
	if *installDir != "" {
		cfg.Provision.InstallDir = *installDir
	}
	if *port != 0 {
		cfg.Provision.Port = *port
	}

	if _, err := logging.Init(cfg.Logging); err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logging.Close()

	if os.Geteuid() != 0 {
		log.Fatal("The installer must run as root")
	}

	sys, err := provision.NewDBusSystemd()
	if err != nil {
		log.Fatalf("Failed to connect to systemd: %v", err)
	}
	defer sys.Close()

	installer := provision.NewInstaller(cfg.Provision, sys,
		provision.WithSourceDir(*sourceDir),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := installer.Execute(ctx); err != nil {
		log.Fatalf("Install failed: %v", err)
	}
}
