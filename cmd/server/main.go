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

	"passprint-service/config"
	"passprint-service/internal/api"
	"passprint-service/internal/broker"
	"passprint-service/internal/chat"
	"passprint-service/internal/redisclient"
	"passprint-service/internal/stock"
	"passprint-service/internal/store"
	"passprint-service/internal/util"
	"passprint-service/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting passprint service")

	tp, err := util.InitTracer("passprint-service", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	stockProducer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicStock)
	defer stockProducer.Close()
	chatProducer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicChat)
	defer chatProducer.Close()
	log.Println("Kafka producers initialized")

	eventPublisher := broker.NewEventPublisher(stockProducer, chatProducer)

	stockManager := stock.NewManager(db, redisClient, eventPublisher, broker.NewBaseEvent, stock.Options{
		AlertRetention: cfg.Stock.AlertRetention,
		LookbackDays:   cfg.Stock.LookbackDays,
		RestockBuffer:  cfg.Stock.RestockBuffer,
		SnapshotTTL:    cfg.Stock.SnapshotTTL,
	})

	chatRegistry := chat.NewRegistry(eventPublisher, redisClient, broker.NewBaseEvent, chat.Options{
		DefaultMessageCap: cfg.Chat.DefaultMessageCap,
	})

	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	defer sweepCancel()

	stockSweeper := stock.NewSweeper(stockManager, cfg.Stock.SweepInterval)
	go stockSweeper.Start(sweepCtx)

	chatSweeper := chat.NewSweeper(chatRegistry, cfg.Chat.SweepInterval, cfg.Chat.InactivityTimeout, cfg.Chat.ClosedRetention)
	go chatSweeper.Start(sweepCtx)

	alertConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicStock, cfg.Kafka.ConsumerGroup)
	notificationWorker := worker.NewNotificationWorker(alertConsumer, redisClient)
	go func() {
		if err := notificationWorker.Start(sweepCtx); err != nil {
			log.Printf("Notification worker error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	handler := api.NewHandler(stockManager, chatRegistry)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	sweepCancel()
	notificationWorker.Stop()

	log.Println("Server exited")
}
