package main

import (
	"fmt"
	"log"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"go-compass/internal/api"
	"go-compass/internal/config"
	"go-compass/internal/db"
	"go-compass/internal/evolution"
	"go-compass/internal/notify"
	"go-compass/internal/policy"
	"go-compass/internal/retrieval"
	"go-compass/internal/telemetry"
)

func main() {
	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if err := db.Init(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "DB init error: %v\n", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	metrics := telemetry.NewMetrics(registry)
	feed := telemetry.NewFeed()
	history := telemetry.NewHistoryStore(db.DB)
	recorder := telemetry.NewRecorder(history, metrics, feed, cfg.Telemetry.BufferSize)
	defer recorder.Close()

	decider := policy.NewHeuristicEngine(cfg.Engine)
	evoStore := evolution.NewStore(db.DB)

	var notifier evolution.Notifier
	if cfg.Redis.Addr != "" {
		notifier = notify.NewRedisNotifier(cfg)
		log.Printf("[Main] Notifications via Redis channel %s", cfg.Analyzer.NotifyChannel)
	} else {
		notifier = notify.NewLogNotifier()
		log.Printf("[Main] Redis not configured, notifications go to the log")
	}

	analyzer := evolution.NewAnalyzer(recorder, evoStore, notifier, metrics, cfg.Analyzer)
	worker := evolution.NewWorker(analyzer, cfg.Analyzer.ScheduleHours)
	go worker.Start()
	defer worker.Stop()
	log.Printf("[Main] Analyzer worker started (schedule: every %d hours)", cfg.Analyzer.ScheduleHours)

	var retriever retrieval.Retriever
	if cfg.Qdrant.URL != "" {
		embedder := retrieval.NewEmbedder(cfg.Embedding.URL, cfg.Embedding.Model)
		qr, err := retrieval.NewQdrantRetriever(cfg.Qdrant.URL, cfg.Qdrant.Collection, cfg.Qdrant.APIKey, embedder)
		if err != nil {
			log.Printf("[Main] WARNING: vector store unavailable: %v", err)
		} else {
			retriever = qr
			log.Printf("[Main] Retrieval backed by Qdrant collection %s", cfg.Qdrant.Collection)
		}
	}

	r := api.SetupRouter(api.Deps{
		Config:    cfg,
		Decider:   decider,
		Recorder:  recorder,
		Feed:      feed,
		Evolution: evoStore,
		Worker:    worker,
		Retriever: retriever,
		Registry:  registry,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("Starting server on %s%s\n", addr, cfg.Server.Subpath)
	if err := r.Run(addr); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
