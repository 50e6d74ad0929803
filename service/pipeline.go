package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/tieubaoca/docflow/types"
)

// PipelineController owns the lifecycle of the watching pipeline:
// stage directories, the vector collection handshake, the startup scan,
// and the background watcher goroutine. Start and Stop are idempotent.
type PipelineController struct {
	stages         *Stages
	watcher        *WatcherService
	ingest         *IngestService
	baseCollection string

	mu        sync.Mutex
	running   bool
	cancel    context.CancelFunc
	done      chan struct{}
	startedAt time.Time
}

func NewPipelineController(stages *Stages, watcher *WatcherService, ingest *IngestService, baseCollection string) *PipelineController {
	return &PipelineController{
		stages:         stages,
		watcher:        watcher,
		ingest:         ingest,
		baseCollection: baseCollection,
	}
}

// Start brings the pipeline up: ensures stage directories, resolves the
// vector collection, establishes the filesystem watch, sweeps pre-existing
// incoming contents, then launches the event-loop goroutine. The watch is
// live before Start returns. Calling Start on a running pipeline is a
// no-op.
func (p *PipelineController) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		log.Println("[PIPELINE] already running")
		return nil
	}

	if err := p.stages.EnsureDirs(); err != nil {
		return fmt.Errorf("preparing stage directories: %w", err)
	}
	if err := p.ingest.EnsureCollection(ctx, p.baseCollection); err != nil {
		return fmt.Errorf("resolving vector collection: %w", err)
	}

	// Subscribe before the sweep: once the watch is live, anything the
	// scan misses raises an event, so nothing dropped during startup is
	// lost. A path seen by both sides is gone by the second stat.
	fsWatcher, err := p.watcher.Subscribe()
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(context.Background())

	if err := p.watcher.ScanExisting(runCtx); err != nil {
		fsWatcher.Close()
		cancel()
		return err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := p.watcher.Run(runCtx, fsWatcher); err != nil {
			log.Printf("[PIPELINE] watcher stopped: %v", err)
		}
	}()

	p.running = true
	p.cancel = cancel
	p.done = done
	p.startedAt = time.Now()
	log.Println("[PIPELINE] started")
	return nil
}

// Stop cancels the watcher and waits for it to quiesce. Stopping a
// stopped pipeline is a no-op.
func (p *PipelineController) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	p.cancel()
	<-p.done

	p.running = false
	p.cancel = nil
	p.done = nil
	log.Println("[PIPELINE] stopped")
}

func (p *PipelineController) Restart(ctx context.Context) error {
	p.Stop()
	return p.Start(ctx)
}

// Status reports whether the pipeline is nominally running and whether
// the watcher goroutine is actually still alive.
func (p *PipelineController) Status() types.PipelineStatusResponse {
	p.mu.Lock()
	defer p.mu.Unlock()

	status := types.PipelineStatusResponse{Running: p.running}
	if !p.running {
		return status
	}

	status.Alive = true
	select {
	case <-p.done:
		status.Alive = false
	default:
	}

	startedAt := p.startedAt
	uptime := time.Since(p.startedAt).Seconds()
	status.StartedAt = &startedAt
	status.UptimeSeconds = &uptime
	return status
}
