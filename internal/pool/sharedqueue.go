package pool

import "go.uber.org/zap"

// SharedQueuePool runs a fixed number of long-lived worker goroutines
// pulling from one shared job queue. If a job panics, the worker that
// ran it exits, but its replacement is spawned immediately, so the
// pool's worker count never drops — the Go counterpart of
// SharedQueueThreadPool's Worker::drop respawn.
type SharedQueuePool struct {
	queue *unboundedQueue
	log   *zap.SugaredLogger
}

// NewSharedQueuePool starts threads worker goroutines draining a
// shared, unbounded job queue.
func NewSharedQueuePool(threads int, logger *zap.SugaredLogger) (*SharedQueuePool, error) {
	if threads < 1 {
		threads = 1
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	p := &SharedQueuePool{queue: newUnboundedQueue(), log: logger}
	for i := 0; i < threads; i++ {
		p.spawnWorker()
	}
	return p, nil
}

func (p *SharedQueuePool) spawnWorker() {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				p.log.Errorw("worker panicked, respawning", "panic", r)
				p.spawnWorker()
			}
		}()
		for {
			job, ok := p.queue.Pop()
			if !ok {
				return
			}
			job()
		}
	}()
}

// Spawn enqueues job for the next free worker. It never blocks.
func (p *SharedQueuePool) Spawn(job func()) {
	p.queue.Push(job)
}

// Close stops accepting new jobs and lets queued jobs drain naturally
// as workers pick them up; it does not wait for them to finish.
func (p *SharedQueuePool) Close() error {
	p.queue.Close()
	return nil
}
