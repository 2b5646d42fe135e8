package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jr-dreamview/ingest-bulk/internal/config"
	"github.com/jr-dreamview/ingest-bulk/internal/log"
	"github.com/jr-dreamview/ingest-bulk/internal/models/ingest"
	"github.com/jr-dreamview/ingest-bulk/internal/models/queue"
	"github.com/jr-dreamview/ingest-bulk/internal/models/user"
	"github.com/jr-dreamview/ingest-bulk/internal/services"
	"github.com/jr-dreamview/ingest-bulk/internal/web"
)

func main() {
	envPath := flag.String("env", config.DefaultEnvPath, "Path to the .env file. Empty to read the environment only.")
	flag.Parse()

	cfg, err := config.Load(*envPath)
	if err != nil {
		panic(fmt.Sprintf("Error loading configuration: %s", err))
	}

	// Create ingest server logger
	logger, err := log.NewLogger(true, cfg.Debug)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	rules, err := config.LoadRules(cfg.RulesPath)
	if err != nil {
		logger.Fatal("Error loading grouping rules:", err)
	}

	// Create a MongoDB client
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI()))
	if err != nil {
		logger.Fatal("Error creating MongoDB client:", err)
	}
	defer client.Disconnect(context.Background())

	// Create separate managers with the MongoDB client
	ingestManager := ingest.NewIngestManager(client, logger, false)
	queueManager := queue.NewQueueListManager(client, logger, false)
	userManager := user.NewUserManager(client, logger, false)

	// Initialize services
	mqService, err := services.NewAMPQService(cfg.RabbitMQURL(), ingestManager, queueManager, logger)
	if err != nil {
		logger.Panic("Error initializing AMPQ service:", err)
	}
	clientService := services.NewClientService(ingestManager, mqService, userManager, queueManager, rules, logger)
	mqService.Start(clientService)
	defer mqService.Shutdown()

	// Initialize web server
	server := web.NewWebServer(cfg.JWTSecret, clientService, logger)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stop
		logger.Info("Shutting down web server...")
		if err := server.Shutdown(); err != nil {
			logger.Error("Error shutting down web server:", err)
		}
	}()

	logger.Infof("Starting ingest server on %s:%d", cfg.WebserverIP, cfg.WebserverPort)
	if err := server.Run(cfg.WebserverIP, cfg.WebserverPort); err != nil {
		logger.Fatal("Error starting web server:", err)
	}
}
