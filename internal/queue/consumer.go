/**
 * Queue Consumer for the OCR verification worker
 *
 * Consumes document jobs from a Redis-backed queue via Asynq and runs
 * them through the processing pipeline.
 */

package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"github.com/1004-Akash/mosip-decode/internal/errors"
	"github.com/1004-Akash/mosip-decode/internal/pipeline"
)

// TaskProcessDocument is the task type the worker handles.
const TaskProcessDocument = "document:process"

// JobData represents the structure of a queued document job. Pages are
// base64-encoded by encoding/json automatically ([]byte fields).
type JobData struct {
	JobID    string                 `json:"jobId"`
	UserID   string                 `json:"userId"`
	Filename string                 `json:"filename"`
	Pages    [][]byte               `json:"pages"`
	Fields   map[string]string      `json:"fields,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Consumer handles job consumption from Redis queue
type Consumer struct {
	client    *asynq.Client
	server    *asynq.Server
	mux       *asynq.ServeMux
	processor pipeline.DocumentProcessorInterface
	config    *ConsumerConfig
}

// ConsumerConfig holds consumer configuration
type ConsumerConfig struct {
	RedisURL          string
	QueueName         string
	Concurrency       int
	Processor         pipeline.DocumentProcessorInterface
	ProcessingTimeout int64 // whole-job timeout in milliseconds (default 300000)
}

// NewConsumer creates a new queue consumer
func NewConsumer(cfg *ConsumerConfig) (*Consumer, error) {
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("RedisURL is required")
	}
	if cfg.QueueName == "" {
		return nil, fmt.Errorf("QueueName is required")
	}
	if cfg.Processor == nil {
		return nil, fmt.Errorf("Processor is required")
	}

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := asynq.NewClient(redisOpt)

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: cfg.Concurrency,
			Queues: map[string]int{
				cfg.QueueName: 10,
				"default":     1,
			},
			// Exponential backoff: 5s, 10s, 20s, capped at 60s
			RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
				delay := time.Duration(5*(1<<uint(n))) * time.Second
				if delay > 60*time.Second {
					delay = 60 * time.Second
				}
				return delay
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Printf("Task processing error: type=%s, error=%v", task.Type(), err)
			}),
		},
	)

	mux := asynq.NewServeMux()

	consumer := &Consumer{
		client:    client,
		server:    server,
		mux:       mux,
		processor: cfg.Processor,
		config:    cfg,
	}

	mux.HandleFunc(TaskProcessDocument, consumer.handleProcessDocument)

	return consumer, nil
}

// Start starts the queue consumer
func (c *Consumer) Start(ctx context.Context) error {
	log.Printf("Starting queue consumer (concurrency=%d, queue=%s)...",
		c.config.Concurrency, c.config.QueueName)

	go func() {
		if err := c.server.Run(c.mux); err != nil {
			log.Printf("Queue consumer error: %v", err)
		}
	}()

	return nil
}

// Stop stops the queue consumer gracefully
func (c *Consumer) Stop(ctx context.Context) error {
	log.Printf("Stopping queue consumer...")

	c.server.Shutdown()

	if err := c.client.Close(); err != nil {
		return fmt.Errorf("failed to close client: %w", err)
	}

	log.Printf("Queue consumer stopped")
	return nil
}

// handleProcessDocument processes one queued document job
func (c *Consumer) handleProcessDocument(ctx context.Context, task *asynq.Task) error {
	startTime := time.Now()

	var jobData JobData
	if err := json.Unmarshal(task.Payload(), &jobData); err != nil {
		return fmt.Errorf("failed to unmarshal job data: %w", err)
	}

	log.Printf("[Job %s] Processing document: filename=%s, pages=%d, fields=%d, user=%s",
		jobData.JobID, jobData.Filename, len(jobData.Pages), len(jobData.Fields), jobData.UserID)

	if err := c.processor.UpdateJobStatus(ctx, jobData.JobID, "processing", nil); err != nil {
		log.Printf("[Job %s] Warning: Failed to update status to processing: %v", jobData.JobID, err)
	}

	timeout := time.Duration(300000) * time.Millisecond
	if c.config.ProcessingTimeout > 0 {
		timeout = time.Duration(c.config.ProcessingTimeout) * time.Millisecond
	}

	processCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := c.processor.ProcessDocument(processCtx, &pipeline.ProcessRequest{
		JobID:    jobData.JobID,
		UserID:   jobData.UserID,
		Filename: jobData.Filename,
		Pages:    jobData.Pages,
		Fields:   jobData.Fields,
		Metadata: jobData.Metadata,
	})

	duration := time.Since(startTime)

	if err != nil {
		if processCtx.Err() == context.DeadlineExceeded {
			log.Printf("[Job %s] Processing timed out after %v (timeout: %v)", jobData.JobID, duration, timeout)

			timeoutErr := errors.NewProcessingTimeoutError(jobData.JobID, timeout, err)
			if updateErr := c.processor.UpdateJobStatus(ctx, jobData.JobID, "failed", timeoutErr.ToMap()); updateErr != nil {
				log.Printf("[Job %s] Warning: Failed to update status to failed: %v", jobData.JobID, updateErr)
			}

			return fmt.Errorf("processing timeout: %w", timeoutErr)
		}

		log.Printf("[Job %s] Processing failed after %v: %v", jobData.JobID, duration, err)

		if updateErr := c.processor.UpdateJobStatus(ctx, jobData.JobID, "failed", map[string]interface{}{
			"error":          err.Error(),
			"processingTime": duration.Milliseconds(),
		}); updateErr != nil {
			log.Printf("[Job %s] Warning: Failed to update status to failed: %v", jobData.JobID, updateErr)
		}

		return fmt.Errorf("document processing failed: %w", err)
	}

	log.Printf("[Job %s] Processing completed in %v: confidence=%.2f, pages=%d, cacheHits=%d",
		jobData.JobID, duration, result.Document.FusedResult.Confidence,
		result.Document.PageCount, result.CacheHits)

	completedMeta := map[string]interface{}{
		"confidence":     result.Document.FusedResult.Confidence,
		"processingTime": duration.Milliseconds(),
		"pageCount":      result.Document.PageCount,
		"language":       result.Document.DetectedLanguage,
		"resultId":       result.ResultID,
	}
	if result.Verification != nil {
		completedMeta["matchRate"] = result.Verification.Summary.MatchRate
		completedMeta["verifiedFields"] = result.Verification.Summary.TotalFields
	}
	if err := c.processor.UpdateJobStatus(ctx, jobData.JobID, "completed", completedMeta); err != nil {
		log.Printf("[Job %s] Warning: Failed to update status to completed: %v", jobData.JobID, err)
	}

	return nil
}

// GetStatistics returns consumer statistics
func (c *Consumer) GetStatistics() map[string]interface{} {
	return map[string]interface{}{
		"concurrency": c.config.Concurrency,
		"queue":       c.config.QueueName,
	}
}
