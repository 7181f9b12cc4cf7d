// Package listener contains the adapters turning platform events into faucet
// messages and the dispatcher feeding them to the executor
package listener // import "github.com/joincivil/civil-social-faucet/pkg/listener"

import (
	"context"
	"sync"

	log "github.com/golang/glog"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"github.com/joincivil/civil-social-faucet/pkg/model"
)

const (
	defaultWorkers        = 4
	defaultQueueSize      = 100
	defaultDedupCacheSize = 1024
)

// Listener receives messages from a platform until ctx is done
type Listener interface {
	Listen(ctx context.Context) error
}

// MessageProcessor processes a single message, implemented by the executor
type MessageProcessor interface {
	ProcessMessage(ctx context.Context, message *model.Message) model.Status
}

// Reactor reports the status of a processed message back to its platform
type Reactor interface {
	React(ctx context.Context, message *model.Message, status model.Status) error
}

// Submitter accepts messages from listeners
type Submitter interface {
	Submit(ctx context.Context, message *model.Message, reactor Reactor) bool
}

// DispatcherMetrics receives dispatcher outcomes
type DispatcherMetrics interface {
	RecordDuplicateMessage()
}

// NewDispatcherParams are the params to init a Dispatcher
type NewDispatcherParams struct {
	Processor      MessageProcessor
	Workers        int
	QueueSize      int
	DedupCacheSize int
	Metrics        DispatcherMetrics
}

// NewDispatcher is a convenience function to init a Dispatcher
func NewDispatcher(params *NewDispatcherParams) (*Dispatcher, error) {
	workers := params.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	queueSize := params.QueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	cacheSize := params.DedupCacheSize
	if cacheSize <= 0 {
		cacheSize = defaultDedupCacheSize
	}
	seen, err := lru.New(cacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "Error creating dedup cache")
	}
	return &Dispatcher{
		processor: params.Processor,
		workers:   workers,
		inbound:   make(chan *job, queueSize),
		outbound:  make(chan *result, queueSize),
		seen:      seen,
		metrics:   params.Metrics,
	}, nil
}

type job struct {
	message *model.Message
	reactor Reactor
}

type result struct {
	job    *job
	status model.Status
}

// Dispatcher queues inbound messages for a pool of workers calling the
// processor. Reactions are posted from a separate outbound queue so a slow
// platform API does not hold up processing.
type Dispatcher struct {
	processor MessageProcessor
	workers   int
	inbound   chan *job
	outbound  chan *result
	seen      *lru.Cache
	metrics   DispatcherMetrics
}

// Submit queues message, blocking while the queue is full. Returns false if the
// message was already seen or ctx is done.
func (d *Dispatcher) Submit(ctx context.Context, message *model.Message, reactor Reactor) bool {
	if message.ID() != "" {
		key := string(message.Source()) + ":" + message.ID()
		if seen, _ := d.seen.ContainsOrAdd(key, struct{}{}); seen {
			log.Infof("Dropping duplicate message %v from %v", message.ID(), message.Source())
			if d.metrics != nil {
				d.metrics.RecordDuplicateMessage()
			}
			return false
		}
	}
	select {
	case d.inbound <- &job{message: message, reactor: reactor}:
		return true
	case <-ctx.Done():
		return false
	}
}

// Run starts the workers and the reaction worker and blocks until ctx is done
// and every worker has exited
func (d *Dispatcher) Run(ctx context.Context) {
	reactDone := make(chan struct{})
	go func() {
		defer close(reactDone)
		d.react(ctx)
	}()

	wg := &sync.WaitGroup{}
	for i := 0; i < d.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.work(ctx)
		}()
	}
	wg.Wait()
	close(d.outbound)
	<-reactDone
	log.Infof("Dispatcher stopped")
}

func (d *Dispatcher) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-d.inbound:
			status := d.processor.ProcessMessage(ctx, j.message)
			if j.reactor != nil {
				d.outbound <- &result{job: j, status: status}
			}
		}
	}
}

func (d *Dispatcher) react(ctx context.Context) {
	for res := range d.outbound {
		err := res.job.reactor.React(ctx, res.job.message, res.status)
		if err != nil {
			log.Errorf("Error reacting to message %v from %v: err: %v", res.job.message.ID(),
				res.job.message.Source(), err)
		}
	}
}
