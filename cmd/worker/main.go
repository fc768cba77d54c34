/**
 * OCR Verification Worker - Main Entry Point
 *
 * Redis-backed worker that recognizes scanned documents with a parallel
 * multi-engine ensemble, fuses the outputs into one calibrated result
 * and verifies user-supplied field values against the extracted text.
 *
 * Architecture:
 * - Asynq consumer for the Redis-backed job queue
 * - Recognition ensemble (local Tesseract + remote recognition services)
 * - Confidence-weighted fusion with edit-distance and dictionary passes
 * - Field verification with multi-metric similarity scoring
 * - PostgreSQL persistence, Redis per-image result cache
 */

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/1004-Akash/mosip-decode/internal/config"
	"github.com/1004-Akash/mosip-decode/internal/engines"
	"github.com/1004-Akash/mosip-decode/internal/ocr"
	"github.com/1004-Akash/mosip-decode/internal/pipeline"
	"github.com/1004-Akash/mosip-decode/internal/queue"
	"github.com/1004-Akash/mosip-decode/internal/storage"
	"github.com/1004-Akash/mosip-decode/internal/verification"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env not found, using system environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("OCR verification worker starting...")
	log.Printf("Configuration loaded: Redis=%s, Workers=%d, RemoteEngines=%d, Tesseract=%v",
		cfg.RedisURL, cfg.WorkerConcurrency, len(cfg.RemoteEngines), cfg.TesseractEnabled)

	// Engine set in declaration order; this order fixes fusion tie-breaks.
	engineSet, err := buildEngines(cfg)
	if err != nil {
		log.Fatalf("Failed to build recognition engines: %v", err)
	}

	ensemble, err := ocr.NewEnsemble(engineSet, time.Duration(cfg.EngineTimeoutSec)*time.Second)
	if err != nil {
		log.Fatalf("Failed to initialize ensemble: %v", err)
	}
	log.Printf("Ensemble initialized with engines: %v", ensemble.EngineIDs())

	fuser := ocr.NewFuser(ocr.FusionConfig{
		MinConfidence:        cfg.FusionMinConfidence,
		TokenSimilarity:      cfg.FusionTokenSimilarity,
		DictionarySimilarity: cfg.FusionDictSimilarity,
		BoxOverlap:           cfg.FusionBoxOverlap,
	}, ocr.NewDefaultDictionary(), ensemble.EngineIDs())

	verifier := verification.NewVerifier(verification.Config{
		SimilarityThreshold: cfg.SimilarityThreshold,
		PartialThreshold:    cfg.PartialThreshold,
		ContainmentBoost:    cfg.ContainmentBoost,
		OCRConfidenceWeight: cfg.OCRConfidenceWeight,
		SimilarityWeight:    cfg.SimilarityWeight,
		CompletenessWeight:  cfg.CompletenessWeight,
	}, nil)

	var storageManager *storage.Manager
	if cfg.DatabaseURL != "" {
		log.Printf("Connecting to storage (PostgreSQL + Redis cache)...")
		cacheTTL := time.Duration(0)
		if cfg.CacheEnabled {
			cacheTTL = time.Duration(cfg.CacheTTLSec) * time.Second
		}
		storageManager, err = storage.NewManager(cfg.DatabaseURL, cfg.RedisURL, cacheTTL)
		if err != nil {
			log.Fatalf("Failed to initialize storage manager: %v", err)
		}
		defer storageManager.Close()
		log.Printf("Storage manager initialized")
	} else {
		log.Printf("Warning: DATABASE_URL not set, results will not be persisted")
	}

	proc, err := pipeline.NewDocumentProcessor(&pipeline.ProcessorConfig{
		Ensemble: ensemble,
		Fuser:    fuser,
		Detector: ocr.NewLanguageDetector(),
		Verifier: verifier,
		Storage:  storageManager,
	})
	if err != nil {
		log.Fatalf("Failed to initialize document processor: %v", err)
	}
	log.Printf("Document processor initialized")

	log.Printf("Connecting to Redis queue...")
	queueConsumer, err := queue.NewConsumer(&queue.ConsumerConfig{
		RedisURL:          cfg.RedisURL,
		QueueName:         cfg.QueueName,
		Concurrency:       cfg.WorkerConcurrency,
		Processor:         proc,
		ProcessingTimeout: int64(cfg.ProcessingTimeout),
	})
	if err != nil {
		log.Fatalf("Failed to initialize queue consumer: %v", err)
	}

	ctx := context.Background()
	if err := queueConsumer.Start(ctx); err != nil {
		log.Fatalf("Failed to start queue consumer: %v", err)
	}

	log.Printf("===========================================")
	log.Printf("OCR Verification Worker is READY")
	log.Printf("===========================================")
	log.Printf("Queue: %s", cfg.QueueName)
	log.Printf("Workers: %d", cfg.WorkerConcurrency)
	log.Printf("Engines: %v", ensemble.EngineIDs())
	log.Printf("Per-engine timeout: %ds", cfg.EngineTimeoutSec)
	log.Printf("===========================================")
	log.Printf("Waiting for jobs...")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	log.Printf("Received signal %v, initiating graceful shutdown...", sig)

	if err := queueConsumer.Stop(ctx); err != nil {
		log.Printf("Error stopping queue consumer: %v", err)
	} else {
		log.Printf("Queue consumer stopped successfully")
	}

	log.Printf("Shutdown complete")
}

// buildEngines assembles the configured engine adapters in declaration
// order: Tesseract first when enabled, then remote services as declared.
func buildEngines(cfg *config.Config) ([]ocr.Engine, error) {
	var set []ocr.Engine
	if cfg.TesseractEnabled {
		set = append(set, engines.NewTesseractEngine(&engines.TesseractConfig{
			Language: cfg.TesseractLanguage,
		}))
	}
	for _, re := range cfg.RemoteEngines {
		eng, err := engines.NewRemoteEngine(engines.RemoteEngineConfig{
			ID:       re.ID,
			URL:      re.URL,
			Language: cfg.TesseractLanguage,
		})
		if err != nil {
			return nil, err
		}
		set = append(set, eng)
	}
	return set, nil
}
