// Package worker implements the background chain audit for the registry
// node.
package worker

import (
	"sync"
	"time"

	"github.com/startrail/starregistry/foundation/ledger/state"
)

// defaultAuditInterval represents the interval for running the full chain
// validation when no interval is configured.
const defaultAuditInterval = time.Minute

// Worker manages the background workflows for the registry node.
type Worker struct {
	state       *state.State
	wg          sync.WaitGroup
	ticker      *time.Ticker
	shut        chan struct{}
	signalAudit chan bool
	evHandler   state.EventHandler
}

// Run creates a worker, registers the worker with the state package, and
// starts up all the background processes.
func Run(st *state.State, auditInterval time.Duration, evHandler state.EventHandler) {
	if auditInterval <= 0 {
		auditInterval = defaultAuditInterval
	}

	w := Worker{
		state:       st,
		ticker:      time.NewTicker(auditInterval),
		shut:        make(chan struct{}),
		signalAudit: make(chan bool, 1),
		evHandler:   evHandler,
	}

	// Register this worker with the state package.
	st.Worker = &w

	// Load the set of operations we need to run.
	operations := []func(){
		w.auditOperations,
	}

	// Set waitgroup to match the number of G's we need for the set
	// of operations we have.
	g := len(operations)
	w.wg.Add(g)

	// We don't want to return until we know all the G's are up and running.
	hasStarted := make(chan bool)

	// Start all the operational G's.
	for _, op := range operations {
		go func(op func()) {
			defer w.wg.Done()
			hasStarted <- true
			op()
		}(op)
	}

	// Wait for the G's to report they are running.
	for i := 0; i < g; i++ {
		<-hasStarted
	}
}

// =============================================================================
// These methods implement the state.Worker interface.

// Shutdown terminates the goroutines performing work.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	w.evHandler("worker: shutdown: stop ticker")
	w.ticker.Stop()

	w.evHandler("worker: shutdown: terminate goroutines")
	close(w.shut)
	w.wg.Wait()
}

// SignalAudit requests a chain audit outside the regular interval. If a
// signal is already pending the request is dropped since an audit will run.
func (w *Worker) SignalAudit() {
	select {
	case w.signalAudit <- true:
		w.evHandler("worker: SignalAudit: audit signaled")
	default:
	}
}

// =============================================================================

// isShutdown is used to test if a shutdown has been signaled.
func (w *Worker) isShutdown() bool {
	select {
	case <-w.shut:
		return true
	default:
		return false
	}
}
