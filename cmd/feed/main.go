package main

import (
	"KeyFold/internal/config"
	"KeyFold/internal/ingest"
	"KeyFold/internal/model"
	"KeyFold/pkg/textio"
	"flag"
	"log"
	"sync"
)

// feed reads a text file and publishes one unit-valued event per word, the
// producer half of a word-count pipeline.
func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	filePath := flag.String("file", "", "path to the text file to feed")
	flag.Parse()

	if *filePath == "" {
		log.Fatal("missing required -file flag")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	publisher, err := ingest.NewPublisher(cfg.Ingest)
	if err != nil {
		log.Fatalf("Failed to create publisher: %v", err)
	}
	defer publisher.Close()

	reader, err := textio.NewReader(*filePath)
	if err != nil {
		log.Fatalf("Failed to open '%s': %v", *filePath, err)
	}
	defer reader.Close()

	events := make(chan *model.Event, 1024)
	var wg sync.WaitGroup
	wg.Add(1)

	published := 0
	go func() {
		defer wg.Done()
		for event := range events {
			if err := publisher.Publish(event); err != nil {
				log.Printf("Error publishing event for key '%s': %v", event.Key, err)
				continue
			}
			published++
		}
	}()

	log.Printf("Feeding words from '%s'...", *filePath)
	if err := reader.ReadWords(events); err != nil {
		log.Fatalf("Error reading '%s': %v", *filePath, err)
	}
	wg.Wait()

	log.Printf("Done. Published %d events.", published)
}
