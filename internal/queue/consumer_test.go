/**
 * Queue Consumer Tests
 *
 * Exercises job handling against a fake processor: payload decoding,
 * status transitions and the processing error path. No Redis required;
 * Asynq clients connect lazily.
 */

package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/hibiken/asynq"

	"github.com/1004-Akash/mosip-decode/internal/ocr"
	"github.com/1004-Akash/mosip-decode/internal/pipeline"
)

// fakeProcessor records status transitions and returns a scripted result.
type fakeProcessor struct {
	result   *pipeline.ProcessResult
	err      error
	statuses []string
	lastReq  *pipeline.ProcessRequest
}

func (f *fakeProcessor) ProcessDocument(ctx context.Context, req *pipeline.ProcessRequest) (*pipeline.ProcessResult, error) {
	f.lastReq = req
	return f.result, f.err
}

func (f *fakeProcessor) UpdateJobStatus(ctx context.Context, jobID string, status string, metadata map[string]interface{}) error {
	f.statuses = append(f.statuses, status)
	return nil
}

func newTestConsumer(t *testing.T, proc pipeline.DocumentProcessorInterface) *Consumer {
	t.Helper()
	c, err := NewConsumer(&ConsumerConfig{
		RedisURL:    "redis://localhost:6379",
		QueueName:   "ocr:jobs",
		Concurrency: 1,
		Processor:   proc,
	})
	if err != nil {
		t.Fatalf("NewConsumer failed: %v", err)
	}
	return c
}

func TestNewConsumerValidation(t *testing.T) {
	proc := &fakeProcessor{}

	cases := []*ConsumerConfig{
		{QueueName: "q", Processor: proc},
		{RedisURL: "redis://localhost:6379", Processor: proc},
		{RedisURL: "redis://localhost:6379", QueueName: "q"},
	}
	for i, cfg := range cases {
		if _, err := NewConsumer(cfg); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}

func TestHandleProcessDocumentSuccess(t *testing.T) {
	proc := &fakeProcessor{
		result: &pipeline.ProcessResult{
			Document: ocr.DocumentResult{
				PageCount:   1,
				FusedResult: ocr.FusedResult{Text: "hello", Confidence: 0.9},
			},
			ResultID: "res-1",
		},
	}
	c := newTestConsumer(t, proc)

	payload, _ := json.Marshal(JobData{
		JobID:    "job-1",
		Filename: "scan.pdf",
		Pages:    [][]byte{[]byte("img")},
		Fields:   map[string]string{"name": "John"},
	})

	if err := c.handleProcessDocument(context.Background(), asynq.NewTask(TaskProcessDocument, payload)); err != nil {
		t.Fatalf("handler failed: %v", err)
	}

	if proc.lastReq == nil || proc.lastReq.JobID != "job-1" {
		t.Fatalf("request not forwarded: %+v", proc.lastReq)
	}
	if len(proc.lastReq.Pages) != 1 {
		t.Errorf("expected 1 page forwarded, got %d", len(proc.lastReq.Pages))
	}

	want := []string{"processing", "completed"}
	if len(proc.statuses) != len(want) {
		t.Fatalf("expected statuses %v, got %v", want, proc.statuses)
	}
	for i := range want {
		if proc.statuses[i] != want[i] {
			t.Errorf("status[%d]: expected %q, got %q", i, want[i], proc.statuses[i])
		}
	}
}

func TestHandleProcessDocumentFailure(t *testing.T) {
	proc := &fakeProcessor{err: fmt.Errorf("engine meltdown")}
	c := newTestConsumer(t, proc)

	payload, _ := json.Marshal(JobData{JobID: "job-2", Pages: [][]byte{[]byte("img")}})

	err := c.handleProcessDocument(context.Background(), asynq.NewTask(TaskProcessDocument, payload))
	if err == nil {
		t.Fatal("expected handler error so the job can be retried")
	}

	want := []string{"processing", "failed"}
	if len(proc.statuses) != len(want) || proc.statuses[1] != "failed" {
		t.Errorf("expected statuses %v, got %v", want, proc.statuses)
	}
}

func TestHandleProcessDocumentBadPayload(t *testing.T) {
	c := newTestConsumer(t, &fakeProcessor{})

	err := c.handleProcessDocument(context.Background(), asynq.NewTask(TaskProcessDocument, []byte("{not json")))
	if err == nil {
		t.Fatal("expected error for malformed payload")
	}
}
