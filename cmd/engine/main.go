package main

import (
	"KeyFold/internal/config"
	"KeyFold/internal/engine/manager"
	"KeyFold/internal/ingest"
	"KeyFold/internal/model"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	log.Println("Starting keyfold-engine...")

	// 1. Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Println("Configuration loaded successfully.")

	// 2. Initialize the aggregation manager
	mgr, err := manager.NewManager(cfg)
	if err != nil {
		log.Fatalf("Failed to create manager: %v", err)
	}

	// 3. Start the manager's worker pool and snapshotters
	mgr.Start()

	// 4. Subscribe to the event stream and feed the manager
	subscriber, err := ingest.NewSubscriber(cfg.Ingest)
	if err != nil {
		log.Fatalf("Failed to create subscriber: %v", err)
	}
	err = subscriber.Start(func(event model.Event) {
		mgr.Input() <- &event
	})
	if err != nil {
		log.Fatalf("Failed to subscribe to event stream: %v", err)
	}

	// 5. Wait for a shutdown signal for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan

	log.Println("Shutdown signal received, stopping engine...")
	subscriber.Close()
	mgr.Stop()
	log.Println("Shutdown complete.")
}
