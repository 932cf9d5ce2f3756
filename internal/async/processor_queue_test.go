package async

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/loan-intake/constants"
	"github.com/joseph-ayodele/loan-intake/internal/common"
	"github.com/joseph-ayodele/loan-intake/internal/pipeline"
	"github.com/joseph-ayodele/loan-intake/internal/provision"
)

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

type fakeProcessor struct {
	mu    sync.Mutex
	seen  []pipeline.Request
	block chan struct{}
	fn    func(ctx context.Context, req pipeline.Request) (pipeline.Outcome, error)
}

func (f *fakeProcessor) Process(ctx context.Context, req pipeline.Request) (pipeline.Outcome, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	f.seen = append(f.seen, req)
	f.mu.Unlock()
	if f.fn != nil {
		return f.fn(ctx, req)
	}
	return pipeline.Outcome{Status: constants.OutcomeComplete, DocumentID: req.DocumentID}, nil
}

func TestProcessorQueue_ProcessesAllJobs(t *testing.T) {
	proc := &fakeProcessor{}
	var mu sync.Mutex
	results := map[uuid.UUID]pipeline.Outcome{}
	q := NewProcessorQueue(proc, quietLogger(),
		WithWorkers(3),
		WithQueueSize(2),
		WithResultHandler(func(job Job, out pipeline.Outcome, err error) {
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				t.Errorf("job %s: %v", job.DocumentID, err)
			}
			results[job.DocumentID] = out
		}))

	account := uuid.New()
	ids := make([]uuid.UUID, 10)
	for i := range ids {
		ids[i] = uuid.New()
		job := Job{DocumentID: ids[i], Identity: provision.Identity{Authenticated: true, AccountID: &account}}
		if err := q.Enqueue(context.Background(), job); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}
	q.Shutdown(context.Background())

	if len(results) != len(ids) {
		t.Fatalf("got %d results, want %d", len(results), len(ids))
	}
	for _, id := range ids {
		if results[id].Status != constants.OutcomeComplete {
			t.Errorf("document %s status = %q", id, results[id].Status)
		}
	}
	for _, req := range proc.seen {
		if !req.Identity.Authenticated || *req.Identity.AccountID != account {
			t.Fatalf("identity not forwarded: %+v", req.Identity)
		}
	}
}

func TestProcessorQueue_EnqueueAfterShutdown(t *testing.T) {
	q := NewProcessorQueue(&fakeProcessor{}, quietLogger(), WithWorkers(1))
	q.Shutdown(context.Background())
	q.Shutdown(context.Background())
	if err := q.Enqueue(context.Background(), Job{DocumentID: uuid.New()}); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("Enqueue after shutdown = %v, want ErrQueueClosed", err)
	}
}

func TestProcessorQueue_BackpressureHonoursContext(t *testing.T) {
	proc := &fakeProcessor{block: make(chan struct{})}
	q := NewProcessorQueue(proc, quietLogger(), WithWorkers(1), WithQueueSize(1))
	defer func() {
		close(proc.block)
		q.Shutdown(context.Background())
	}()

	// one job held by the worker, one in the buffer
	if err := q.Enqueue(context.Background(), Job{DocumentID: uuid.New()}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for len(q.ch) != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if err := q.Enqueue(context.Background(), Job{DocumentID: uuid.New()}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := q.Enqueue(ctx, Job{DocumentID: uuid.New()}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Enqueue on full queue = %v, want deadline exceeded", err)
	}
}

func TestProcessorQueue_TimeoutAndPanic(t *testing.T) {
	var gotDeadline bool
	var gotTrace string
	proc := &fakeProcessor{fn: func(ctx context.Context, req pipeline.Request) (pipeline.Outcome, error) {
		if req.DocumentID == uuid.Nil {
			panic("boom")
		}
		_, gotDeadline = ctx.Deadline()
		gotTrace = common.RequestIDFromContext(ctx)
		return pipeline.Outcome{Status: constants.OutcomeNoData}, nil
	}}

	var errs []error
	q := NewProcessorQueue(proc, quietLogger(),
		WithWorkers(1),
		WithProcessTimeout(time.Second),
		WithResultHandler(func(_ Job, _ pipeline.Outcome, err error) { errs = append(errs, err) }))

	_ = q.Enqueue(context.Background(), Job{DocumentID: uuid.New(), TraceID: "req-42"})
	_ = q.Enqueue(context.Background(), Job{})
	q.Shutdown(context.Background())

	if !gotDeadline || gotTrace != "req-42" {
		t.Fatalf("deadline=%v trace=%q", gotDeadline, gotTrace)
	}
	if len(errs) != 2 || errs[0] != nil || !errors.Is(errs[1], common.ErrInternal) {
		t.Fatalf("errs = %v", errs)
	}
}
