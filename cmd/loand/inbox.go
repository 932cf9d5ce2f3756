package main

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/joseph-ayodele/loan-intake/constants"
	"github.com/joseph-ayodele/loan-intake/internal/async"
	"github.com/joseph-ayodele/loan-intake/internal/ingest"
	"github.com/joseph-ayodele/loan-intake/internal/repository"
)

const rescanBatch = 100

// inflight remembers documents that are queued or running so the periodic
// rescan does not enqueue them twice.
type inflight struct {
	mu  sync.Mutex
	ids map[uuid.UUID]struct{}
}

func newInflight() *inflight { return &inflight{ids: map[uuid.UUID]struct{}{}} }

func (f *inflight) add(id uuid.UUID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.ids[id]; ok {
		return false
	}
	f.ids[id] = struct{}{}
	return true
}

func (f *inflight) done(id uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.ids, id)
}

// inboxLoop registers files dropped into dir and feeds pending documents to
// the queue. Inbox uploads are anonymous.
type inboxLoop struct {
	dir      string
	category constants.DocumentType
	interval time.Duration
	intake   *ingest.Intake
	docs     repository.DocumentRepository
	queue    async.Queue
	inflight *inflight
	logger   *slog.Logger
}

func (l *inboxLoop) run(ctx context.Context) error {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return err
	}
	events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       []string{l.dir},
		InitialScan: true,
		Debounce:    500 * time.Millisecond,
		SkipHidden:  true,
	}, l.logger)
	if err != nil {
		return err
	}

	interval := l.interval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(l.logger.Handler(), slog.LevelWarn))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)))
	if _, err := c.AddFunc("@every "+interval.String(), func() { l.rescan(ctx) }); err != nil {
		return err
	}
	l.rescan(ctx)
	c.Start()
	defer func() { <-c.Stop().Done() }()

	for {
		select {
		case <-ctx.Done():
			return nil
		case path, ok := <-events:
			if !ok {
				return nil
			}
			l.register(ctx, path)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			l.logger.Warn("inbox watcher error", "error", err)
		}
	}
}

func (l *inboxLoop) register(ctx context.Context, path string) {
	res, err := l.intake.Register(ctx, nil, l.category, path)
	if err != nil {
		l.logger.Error("inbox registration failed", "path", path, "error", err)
		return
	}
	if res.Deduplicated {
		return
	}
	if l.inflight.add(res.DocumentID) {
		l.enqueue(ctx, res.DocumentID)
	}
}

// rescan picks up pending documents left behind by a restart.
func (l *inboxLoop) rescan(ctx context.Context) {
	docs, err := l.docs.ListByStatus(ctx, constants.OCRStatusPending, rescanBatch)
	if err != nil {
		l.logger.Error("inbox rescan failed", "error", err)
		return
	}
	for _, d := range docs {
		if !l.inflight.add(d.ID) {
			continue
		}
		// a worker may have finished it since the listing
		cur, err := l.docs.GetByID(ctx, d.ID)
		if err != nil || cur.OCRStatus != constants.OCRStatusPending {
			l.inflight.done(d.ID)
			continue
		}
		l.enqueue(ctx, d.ID)
	}
}

// enqueue expects id to be marked in flight already.
func (l *inboxLoop) enqueue(ctx context.Context, id uuid.UUID) {
	job := async.Job{DocumentID: id, SubmittedAt: time.Now(), TraceID: uuid.NewString()}
	if err := l.queue.Enqueue(ctx, job); err != nil {
		l.inflight.done(id)
		l.logger.Warn("failed to enqueue document", "document_id", id, "error", err)
	}
}
