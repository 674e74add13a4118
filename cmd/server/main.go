package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ecomledger/internal/config"
	"ecomledger/internal/db"
	"ecomledger/internal/events"
	"ecomledger/internal/export"
	"ecomledger/internal/ingestion"
	"ecomledger/internal/merge"
	"ecomledger/internal/metrics"
	"ecomledger/internal/middleware"
	"ecomledger/internal/normalization"
	"ecomledger/internal/repository"

	"github.com/rs/cors"
)

func main() {
	// Create context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load configuration
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Setup database connection
	conn, err := db.NewConnection(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close()

	// Run migrations
	if err := db.RunMigrations(cfg.Database); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Create repositories
	rawRepo := repository.NewRawRecordRepository(conn.Pool)
	orderRepo := repository.NewOrderRepository(conn.Pool)
	paymentRepo := repository.NewPaymentRepository(conn.Pool)
	normalizedOrderRepo := repository.NewNormalizedOrderRepository(conn.Pool)
	normalizedPaymentRepo := repository.NewNormalizedPaymentRepository(conn.Pool)
	mergedRepo := repository.NewMergedRecordRepository(conn.Pool)
	logRepo := repository.NewIngestionLogRepository(conn.Pool)

	// Create metrics registry
	registry := metrics.NewRegistry()

	// Create batch event publisher
	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
	}

	// Create services
	engine := merge.NewEngine(orderRepo, paymentRepo, mergedRepo, registry)
	importer := ingestion.NewImporter(orderRepo, paymentRepo)
	ingestionService := ingestion.NewService(rawRepo, logRepo, importer, publisher, registry, engine)
	processor := normalization.NewProcessor(
		rawRepo,
		normalizedOrderRepo,
		normalizedPaymentRepo,
		registry,
		cfg.Pipeline.ChunkSize,
		cfg.Pipeline.SkipLimit,
	)
	exporter := export.NewService(mergedRepo)

	// Setup CORS
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	mux := http.NewServeMux()
	mux.Handle("/api/ingestion/upload", ingestion.NewHTTPHandler(ingestionService))
	mux.Handle("/api/ingestion/logs", ingestion.NewLogsHandler(logRepo))
	mux.Handle("/api/normalization/", normalization.NewHTTPHandler(processor, "/api/normalization/"))
	mux.Handle("/api/merge/", merge.NewHTTPHandler(engine, "/api/merge/"))
	mux.Handle("/api/export/merged", export.NewHTTPHandler(exporter))
	mux.Handle("/metrics", registry.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	handler := corsHandler.Handler(middleware.LoggingMiddleware(mux))

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting ingestion server on :%d", cfg.Server.Port)
		log.Printf("Upload endpoint available at http://localhost:%d/api/ingestion/upload", cfg.Server.Port)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
