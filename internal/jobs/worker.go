package jobs

import (
	"context"
	"log"
	"time"
)

// JobProcessor is one unit of periodic background work. ProcessJobs runs
// once per tick and must be safe to call again after returning an error.
type JobProcessor interface {
	ProcessJobs(ctx context.Context) error
}

// Worker drives a JobProcessor on a fixed interval until stopped. The
// daemon runs one to keep index snapshots current.
type Worker struct {
	processor    JobProcessor
	pollInterval time.Duration
	stopChan     chan struct{}
	doneChan     chan struct{}
}

// NewWorker creates a new Worker instance
func NewWorker(processor JobProcessor, pollInterval time.Duration) *Worker {
	return &Worker{
		processor:    processor,
		pollInterval: pollInterval,
		stopChan:     make(chan struct{}),
		doneChan:     make(chan struct{}),
	}
}

// Start runs the polling loop. A tick whose processing fails is logged and
// the loop keeps going; the processor owns its own retry semantics.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	defer close(w.doneChan)

	log.Printf("background worker started: interval=%v", w.pollInterval)

	for {
		select {
		case <-ctx.Done():
			log.Println("background worker stopped: context cancelled")
			return
		case <-w.stopChan:
			log.Println("background worker stopped")
			return
		case <-ticker.C:
			if err := w.processor.ProcessJobs(ctx); err != nil {
				log.Printf("background job failed: %v", err)
			}
		}
	}
}

// Stop signals the loop to exit and blocks until a tick in flight finishes.
func (w *Worker) Stop() {
	close(w.stopChan)
	<-w.doneChan
	log.Println("background worker drained")
}
