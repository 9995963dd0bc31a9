package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hiyakothari/Smart-Garden-System/internal/config"
	"github.com/hiyakothari/Smart-Garden-System/internal/device"
	"github.com/hiyakothari/Smart-Garden-System/internal/hardware"
	"github.com/hiyakothari/Smart-Garden-System/pkg/mqttclient"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// Missing or unreadable identity material is the one fatal condition.
	client, err := mqttclient.NewClient(&mqttclient.Config{
		Host:       cfg.BrokerHost,
		Port:       cfg.BrokerPort,
		CACertFile: cfg.CACertFile,
		CertFile:   cfg.CertFile,
		KeyFile:    cfg.KeyFile,
	})
	if err != nil {
		log.Fatalf("device identity: %v", err)
	}

	registry, err := device.NewRegistry(cfg.Zones)
	if err != nil {
		log.Fatalf("zones: %v", err)
	}

	board, link, err := buildHardware(cfg)
	if err != nil {
		log.Fatalf("hardware: %v", err)
	}
	defer func() {
		if cerr := board.Close(); cerr != nil {
			log.Printf("board close: %v", cerr)
		}
	}()

	metrics := device.NewMetrics()
	metrics.Serve(cfg.MetricsAddr)

	agent := device.NewAgent(cfg, registry, board, link, client, metrics)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigc
		log.Printf("shutdown signal received")
		cancel()
	}()

	if err := agent.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("agent: %v", err)
	}
}

func buildHardware(cfg *config.Config) (hardware.Board, device.Link, error) {
	brokerAddr := net.JoinHostPort(cfg.BrokerHost, fmt.Sprintf("%d", cfg.BrokerPort))
	switch cfg.Hardware {
	case "sim":
		board := hardware.NewSimBoard(time.Now)
		for _, z := range cfg.Zones {
			seed := (z.DryThreshold + z.WetThreshold) / 2
			board.AddChannel(z.SensorChannel, z.PumpPin, seed, z.DryThreshold, z.WetThreshold)
		}
		return board, &hardware.SimLink{RSSI: -55}, nil
	case "gpio":
		board, err := hardware.NewGPIOBoard()
		if err != nil {
			return nil, nil, err
		}
		return board, hardware.NewWifiLink(cfg.LinkIface, brokerAddr), nil
	default:
		return nil, nil, fmt.Errorf("unknown hardware backend %q", cfg.Hardware)
	}
}
