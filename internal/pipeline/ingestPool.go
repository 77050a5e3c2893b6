package pipeline

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/clauselens/clauselens/internal/config"
	"github.com/clauselens/clauselens/internal/metrics"
	"github.com/clauselens/clauselens/pkg/logger_i"
)

// ingestPool fans document processing out over a small elastic worker pool.
// The dispatcher adds workers up to MaxIngestWorkers while tasks queue up;
// idle workers retire down to MinIngestWorkers.
type ingestPool struct {
	tasks    chan func()
	dispatch chan bool
	stop     chan bool
	group    sync.WaitGroup
	count    int64
	stopOnce sync.Once
	logger   *logger_i.Logger
}

func newIngestPool() *ingestPool {
	p := &ingestPool{
		tasks:    make(chan func(), config.IngestTaskBufferSize),
		dispatch: make(chan bool, 1),
		stop:     make(chan bool),
		logger:   logger_i.NewLogger("ingest_pool"),
	}
	go p.dispatcher()
	return p
}

func (p *ingestPool) dispatcher() {
	p.createWorker()
	p.logger.Info("dispatcher started")
	for range p.dispatch {
		if atomic.LoadInt64(&p.count) < config.MaxIngestWorkers {
			p.logger.Info("creating new worker", "workerCount", atomic.LoadInt64(&p.count))
			p.createWorker()
		}
	}
}

func (p *ingestPool) createWorker() {
	p.group.Add(1)
	atomic.AddInt64(&p.count, 1)
	metrics.IncrementActiveIngestWorkers()
	go p.worker()
}

func (p *ingestPool) worker() {
	for {
		select {
		case task := <-p.tasks:
			task()
			metrics.DecrementDocumentsInFlight()

		case <-p.stop:
			p.removeWorker("stop signal received")
			return

		case <-time.After(config.IdleWorkerTimeout):
			if atomic.LoadInt64(&p.count) > config.MinIngestWorkers {
				p.removeWorker("idle timeout, retiring worker")
				return
			}
		}
	}
}

func (p *ingestPool) removeWorker(reason string) {
	atomic.AddInt64(&p.count, -1)
	metrics.DecrementActiveIngestWorkers()
	p.group.Done()
	p.logger.Info(reason, "workerCount", atomic.LoadInt64(&p.count))
}

// Submit queues a task and nudges the dispatcher to scale up if the pool is
// busy. Blocks only when the task buffer is full.
func (p *ingestPool) Submit(task func()) {
	metrics.IncrementDocumentsInFlight()
	p.tasks <- task
	select {
	case p.dispatch <- true:
	default:
	}
}

// Shutdown retires all workers after in-flight tasks finish.
func (p *ingestPool) Shutdown() {
	p.stopOnce.Do(func() {
		close(p.stop)
		p.group.Wait()
		close(p.dispatch)
	})
}
