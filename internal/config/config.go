/**
 * Configuration for the OCR verification worker
 *
 * Loads configuration from environment variables; .env loading happens
 * in main via godotenv.
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// RemoteEngine identifies one remote recognition service.
type RemoteEngine struct {
	ID  string
	URL string
}

// Config holds worker configuration
type Config struct {
	// Redis configuration (job queue + result cache)
	RedisURL string

	// PostgreSQL configuration
	DatabaseURL string

	// Recognition engines
	TesseractEnabled  bool
	TesseractLanguage string
	RemoteEngines     []RemoteEngine
	EngineTimeoutSec  int

	// Fusion thresholds
	FusionMinConfidence    float64
	FusionTokenSimilarity  float64
	FusionDictSimilarity   float64
	FusionBoxOverlap       float64

	// Verification thresholds and weights
	SimilarityThreshold float64
	PartialThreshold    float64
	ContainmentBoost    float64
	OCRConfidenceWeight float64
	SimilarityWeight    float64
	CompletenessWeight  float64

	// Worker configuration
	WorkerConcurrency int
	ProcessingTimeout int // whole-job timeout in milliseconds
	QueueName         string

	// Result cache
	CacheEnabled bool
	CacheTTLSec  int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		RedisURL:    getEnvOrDefault("REDIS_URL", "redis://localhost:6379"),
		DatabaseURL: getEnvOrDefault("DATABASE_URL", ""),

		TesseractEnabled:  getEnvAsBoolOrDefault("TESSERACT_ENABLED", true),
		TesseractLanguage: getEnvOrDefault("TESSERACT_LANGUAGE", "eng"),
		EngineTimeoutSec:  getEnvAsIntOrDefault("ENGINE_TIMEOUT_SEC", 300),

		FusionMinConfidence:   getEnvAsFloatOrDefault("FUSION_MIN_CONFIDENCE", 0.5),
		FusionTokenSimilarity: getEnvAsFloatOrDefault("FUSION_TOKEN_SIMILARITY", 0.7),
		FusionDictSimilarity:  getEnvAsFloatOrDefault("FUSION_DICT_SIMILARITY", 0.7),
		FusionBoxOverlap:      getEnvAsFloatOrDefault("FUSION_BOX_OVERLAP", 0.3),

		SimilarityThreshold: getEnvAsFloatOrDefault("VERIFY_SIMILARITY_THRESHOLD", 0.85),
		PartialThreshold:    getEnvAsFloatOrDefault("VERIFY_PARTIAL_THRESHOLD", 0.6),
		ContainmentBoost:    getEnvAsFloatOrDefault("VERIFY_CONTAINMENT_BOOST", 0.7),
		OCRConfidenceWeight: getEnvAsFloatOrDefault("VERIFY_OCR_WEIGHT", 0.4),
		SimilarityWeight:    getEnvAsFloatOrDefault("VERIFY_SIMILARITY_WEIGHT", 0.4),
		CompletenessWeight:  getEnvAsFloatOrDefault("VERIFY_COMPLETENESS_WEIGHT", 0.2),

		WorkerConcurrency: getEnvAsIntOrDefault("WORKER_CONCURRENCY", 10),
		ProcessingTimeout: getEnvAsIntOrDefault("PROCESSING_TIMEOUT", 300000),
		QueueName:         getEnvOrDefault("QUEUE_NAME", "ocr:jobs"),

		CacheEnabled: getEnvAsBoolOrDefault("CACHE_ENABLED", true),
		CacheTTLSec:  getEnvAsIntOrDefault("CACHE_TTL_SEC", 3600),
	}

	var err error
	cfg.RemoteEngines, err = parseRemoteEngines(os.Getenv("REMOTE_ENGINES"))
	if err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// parseRemoteEngines parses "id=url;id=url" declarations. Order matters:
// it becomes the engine declaration order fusion uses for tie-breaks.
func parseRemoteEngines(spec string) ([]RemoteEngine, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, nil
	}
	var engines []RemoteEngine
	seen := make(map[string]bool)
	for _, entry := range strings.Split(spec, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		id, url, found := strings.Cut(entry, "=")
		id = strings.TrimSpace(id)
		url = strings.TrimSpace(url)
		if !found || id == "" || url == "" {
			return nil, fmt.Errorf("REMOTE_ENGINES entry %q must be id=url", entry)
		}
		if seen[id] {
			return nil, fmt.Errorf("REMOTE_ENGINES entry %q duplicates engine id", entry)
		}
		seen[id] = true
		engines = append(engines, RemoteEngine{ID: id, URL: url})
	}
	return engines, nil
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if !c.TesseractEnabled && len(c.RemoteEngines) == 0 {
		return fmt.Errorf("no recognition engines configured: enable tesseract or declare REMOTE_ENGINES")
	}

	if c.WorkerConcurrency < 1 || c.WorkerConcurrency > 100 {
		return fmt.Errorf("WORKER_CONCURRENCY must be between 1 and 100, got %d", c.WorkerConcurrency)
	}

	if c.EngineTimeoutSec < 1 {
		return fmt.Errorf("ENGINE_TIMEOUT_SEC must be positive, got %d", c.EngineTimeoutSec)
	}

	for name, v := range map[string]float64{
		"FUSION_MIN_CONFIDENCE":       c.FusionMinConfidence,
		"FUSION_TOKEN_SIMILARITY":     c.FusionTokenSimilarity,
		"FUSION_DICT_SIMILARITY":      c.FusionDictSimilarity,
		"FUSION_BOX_OVERLAP":          c.FusionBoxOverlap,
		"VERIFY_SIMILARITY_THRESHOLD": c.SimilarityThreshold,
		"VERIFY_PARTIAL_THRESHOLD":    c.PartialThreshold,
		"VERIFY_CONTAINMENT_BOOST":    c.ContainmentBoost,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be within [0,1], got %v", name, v)
		}
	}

	weightSum := c.OCRConfidenceWeight + c.SimilarityWeight + c.CompletenessWeight
	if weightSum <= 0 {
		return fmt.Errorf("verification confidence weights must sum to a positive value, got %v", weightSum)
	}

	return nil
}

// getEnvOrDefault gets environment variable or returns default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault gets environment variable as int or returns default
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsFloatOrDefault gets environment variable as float64 or returns default
func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsBoolOrDefault gets environment variable as bool or returns default
func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}
