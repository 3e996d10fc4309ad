package worker

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/pyronlaboratory/grapelock-sub001/internal/queue"
)

// Pool runs a fixed number of goroutines that poll the queue, dispatch
// each leased job to its processor and report the outcome back. A job
// executes on one worker at a time; the only cross-job shared state is
// whatever the processors share (the checkpoint cache).
type Pool struct {
	queue       queue.Queue
	registry    *Registry
	concurrency int
	pollEvery   time.Duration
	visibility  time.Duration
	required    []queue.Kind

	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

type PoolOption func(*Pool)

func WithConcurrency(n int) PoolOption {
	return func(p *Pool) { p.concurrency = n }
}

func WithPollInterval(d time.Duration) PoolOption {
	return func(p *Pool) { p.pollEvery = d }
}

// WithVisibilityTimeout sets how long a lease lasts before the job is
// considered abandoned and redelivered.
func WithVisibilityTimeout(d time.Duration) PoolOption {
	return func(p *Pool) { p.visibility = d }
}

// WithRequiredKinds lists the kinds Start checks against the registry. A
// missing processor is a deployment misconfiguration and fails startup
// rather than failing jobs one at a time.
func WithRequiredKinds(kinds ...queue.Kind) PoolOption {
	return func(p *Pool) { p.required = kinds }
}

func NewPool(q queue.Queue, registry *Registry, opts ...PoolOption) *Pool {
	p := &Pool{
		queue:       q,
		registry:    registry,
		concurrency: 4,
		pollEvery:   time.Second,
		visibility:  2 * time.Minute,
		stopCh:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start verifies the registry covers every required kind, then launches
// the worker goroutines and returns immediately.
func (p *Pool) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return nil
	}

	for _, kind := range p.required {
		if _, ok := p.registry.Get(kind); !ok {
			return fmt.Errorf("no processor registered for kind %q", kind)
		}
	}
	p.running = true

	log.Printf("Worker pool starting with %d workers", p.concurrency)

	for i := 0; i < p.concurrency; i++ {
		p.wg.Add(1)
		go p.loop()
	}
	return nil
}

// Stop signals the workers and waits for in-flight jobs to finish or the
// context to expire. Jobs are never cancelled mid-run; an abandoned lease
// is redelivered by the queue.
func (p *Pool) Stop(ctx context.Context) {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.mu.Unlock()

	close(p.stopCh)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("Worker pool stopped")
	case <-ctx.Done():
		log.Println("Worker pool shutdown timed out; leases will expire and jobs will be redelivered")
	}
}

func (p *Pool) loop() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopCh:
			return
		default:
		}

		j, err := p.queue.FetchAndLease(context.Background(), p.visibility)
		if err != nil {
			log.Printf("Failed to fetch job: %v", err)
			p.sleep()
			continue
		}
		if j == nil {
			p.sleep()
			continue
		}

		p.execute(j)
	}
}

func (p *Pool) execute(j *queue.Job) {
	ctx := context.Background()

	processor, ok := p.registry.Get(j.Kind)
	if !ok {
		// A kind with no processor is a deployment misconfiguration, not
		// a bad job. Fail it so it burns through its attempt budget and
		// surfaces instead of spinning through redeliveries forever.
		log.Printf("Configuration error: no processor registered for kind %q (job %s)", j.Kind, j.ID)
		if err := p.queue.MarkFailed(ctx, j.ID, "no processor registered for kind "+string(j.Kind)); err != nil {
			log.Printf("Failed to mark job %s failed: %v", j.ID, err)
		}
		return
	}

	result, err := processor.Process(ctx, j.Payload)
	if err != nil {
		log.Printf("Job %s (%s) attempt %d/%d failed: %v", j.ID, j.Kind, j.Attempt, j.MaxAttempts, err)
		if markErr := p.queue.MarkFailed(ctx, j.ID, err.Error()); markErr != nil {
			log.Printf("Failed to mark job %s failed: %v", j.ID, markErr)
		}
		return
	}

	if err := p.queue.MarkCompleted(ctx, j.ID, result); err != nil {
		log.Printf("Failed to mark job %s completed: %v", j.ID, err)
		return
	}
	log.Printf("Job %s (%s) completed", j.ID, j.Kind)
}

func (p *Pool) sleep() {
	select {
	case <-p.stopCh:
	case <-time.After(p.pollEvery):
	}
}
