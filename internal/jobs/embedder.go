package jobs

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"ai-character-chat/backend/ai"
	"ai-character-chat/backend/internal/repository"
	"ai-character-chat/backend/pkg/logger"
	"ai-character-chat/backend/pkg/vector"
)

// ErrQueueFull is returned when the embedding backlog bound is hit. The
// story stays without an embedding and can be re-enqueued later.
var ErrQueueFull = errors.New("embedding queue is full")

// Job is one pending embedding request.
type Job struct {
	ID      string
	StoryID uint
	Content string
}

// Embedder runs embedding jobs on a fixed worker pool, detached from the
// callers that enqueue them. A job's outcome is never reported back to the
// caller: successes are written to the story record, failures are logged and
// counted.
type Embedder struct {
	inference  ai.Inference
	stories    *repository.StoryRepository
	log        *logger.Logger
	jobTimeout time.Duration

	queue chan Job
	wg    sync.WaitGroup

	mu      sync.Mutex
	closed  bool
	entropy *rand.Rand
}

// NewEmbedder starts workers consuming from a queue bounded at queueSize.
func NewEmbedder(inference ai.Inference, stories *repository.StoryRepository, log *logger.Logger, workers, queueSize int, jobTimeout time.Duration) *Embedder {
	if workers <= 0 {
		workers = 2
	}
	if queueSize <= 0 {
		queueSize = 100
	}
	if jobTimeout <= 0 {
		jobTimeout = 60 * time.Second
	}

	e := &Embedder{
		inference:  inference,
		stories:    stories,
		log:        log,
		jobTimeout: jobTimeout,
		queue:      make(chan Job, queueSize),
		entropy:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	e.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go e.worker(i)
	}

	return e
}

// Enqueue schedules an embedding job and returns immediately. It never
// blocks: when the backlog bound is hit the job is rejected with
// ErrQueueFull. The mutex is held across the send so Close cannot close the
// queue between the closed check and the send.
func (e *Embedder) Enqueue(storyID uint, content string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return "", ErrQueueFull
	}
	jobID := ulid.MustNew(ulid.Timestamp(time.Now()), e.entropy).String()

	select {
	case e.queue <- Job{ID: jobID, StoryID: storyID, Content: content}:
		jobsQueued.Inc()
		queueDepth.Inc()
		return jobID, nil
	default:
		jobsRejected.Inc()
		return "", ErrQueueFull
	}
}

// Pending returns the number of jobs waiting in the queue.
func (e *Embedder) Pending() int {
	return len(e.queue)
}

// Close stops accepting jobs and waits for in-flight ones to finish. The
// queue is closed under the mutex so no Enqueue can be mid-send.
func (e *Embedder) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	close(e.queue)
	e.mu.Unlock()

	e.wg.Wait()
}

func (e *Embedder) worker(id int) {
	defer e.wg.Done()

	for job := range e.queue {
		queueDepth.Dec()
		e.process(job, id)
	}
}

// process runs one job to completion or failure. Errors stay inside the
// pipeline: the story is simply left without an embedding for a later retry.
func (e *Embedder) process(job Job, workerID int) {
	ctx, cancel := context.WithTimeout(context.Background(), e.jobTimeout)
	defer cancel()

	start := time.Now()

	vec, err := e.inference.Embed(ctx, job.Content)
	if err != nil {
		jobsFailed.Inc()
		e.log.LogError(err, "embedding job failed",
			"job_id", job.ID, "story_id", job.StoryID, "worker", workerID)
		return
	}

	blob, err := vector.Encode(vec)
	if err != nil {
		jobsFailed.Inc()
		e.log.LogError(err, "embedding job produced unusable vector",
			"job_id", job.ID, "story_id", job.StoryID, "worker", workerID)
		return
	}

	if err := e.stories.UpdateEmbedding(ctx, job.StoryID, blob); err != nil {
		jobsFailed.Inc()
		e.log.LogError(err, "failed to persist embedding",
			"job_id", job.ID, "story_id", job.StoryID, "worker", workerID)
		return
	}

	jobsProcessed.Inc()
	e.log.Info("embedding job completed",
		"job_id", job.ID, "story_id", job.StoryID, "worker", workerID,
		"cost_ms", time.Since(start).Milliseconds())
}
