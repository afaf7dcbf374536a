package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/viper"

	"github.com/jexdex/aggregator-engine/domain"
	applogger "github.com/jexdex/aggregator-engine/log"
)

// main wires configuration, logging, and the server together, grounded on
// the teacher's app/main.go flag/viper/signal-handling shape.
func main() {
	configPath := flag.String("config", "config.json", "config file location")
	flag.Parse()

	fmt.Println("configPath", *configPath)

	viper.SetConfigFile(*configPath)
	if err := viper.ReadInConfig(); err != nil {
		log.Printf("no config file read (%s): using defaults", err)
	}

	config := domain.DefaultConfig()
	if err := viper.Unmarshal(&config); err != nil {
		log.Fatalf("error unmarshalling config: %s", err)
	}
	config = mergeDefaults(config)

	exitChan := make(chan os.Signal, 1)
	signal.Notify(exitChan, os.Interrupt, syscall.SIGTERM)

	defer func() {
		if err := recover(); err != nil {
			log.Println(err)
			exitChan <- syscall.SIGTERM
		}
	}()

	logger, err := applogger.New(config.LoggerIsProduction, config.LoggerLevel)
	if err != nil {
		log.Fatalf("error while creating logger: %s", err)
	}
	logger.Info("starting aggregator engine")

	server, err := NewServer(config, logger)
	if err != nil {
		log.Fatalf("error while creating server: %s", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		<-exitChan
		cancel()

		if err := server.Shutdown(context.Background()); err != nil {
			log.Fatal(err)
		}
		os.Exit(0)
	}()

	if err := server.Start(ctx); err != nil {
		log.Fatal(err)
	}
}
