package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"platewatch/config"
	"platewatch/engine"
	"platewatch/livecache"
	"platewatch/messaging"
	"platewatch/metrics"
	"platewatch/store"
	"platewatch/www"
)

var Version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "platewatch.yaml", "path to config file")
	flag.Parse()

	if *showVersion {
		fmt.Println("platewatch", Version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Database
	db, err := store.Open(&cfg.Database)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()
	log.Printf("platewatch: database open (%s)", cfg.Database.Driver)

	// Redis mirror
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	cache := livecache.New(redisClient)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("platewatch: redis not available (%v), running without cache", err)
		cache = livecache.New(nil)
	} else {
		log.Printf("platewatch: redis connected (%s)", cfg.Redis.Address)
	}
	cancel()
	defer redisClient.Close()

	// Engine
	eng := engine.New(engine.Config{
		AppConfig: cfg,
		DB:        db,
		Cache:     cache,
	})
	eng.Start()
	defer eng.Stop()

	metrics.Init(eng)

	// Order feed
	msgClient := messaging.NewClient(&cfg.Messaging)
	if err := msgClient.Connect(); err != nil {
		log.Printf("platewatch: messaging connect failed (%v)", err)
		eng.Events.Emit(engine.Event{Type: engine.EventFeedDisconnected, Payload: engine.ConnectionEvent{Detail: err.Error()}})
	} else {
		log.Printf("platewatch: messaging connected (%s)", cfg.Messaging.Backend)
		eng.Events.Emit(engine.Event{Type: engine.EventFeedConnected, Payload: engine.ConnectionEvent{Detail: cfg.Messaging.Backend}})
	}
	defer msgClient.Close()

	consumer := messaging.NewConsumer(msgClient, cfg.Messaging.FeedTopic, cfg.Messaging.EventTopic, eng)
	if err := consumer.Start(); err != nil {
		log.Printf("platewatch: feed subscribe failed: %v", err)
	} else {
		log.Printf("platewatch: feed listening on %s, %s", cfg.Messaging.FeedTopic, cfg.Messaging.EventTopic)
	}

	// Web server
	handler, stopWeb := www.NewRouter(eng, msgClient)

	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		log.Printf("platewatch: web server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("web server: %v", err)
		}
	}()

	log.Printf("platewatch: ready")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Printf("platewatch: shutting down...")
	stopWeb()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)

	log.Printf("platewatch: stopped")
}
