package worker

// auditOperations runs the full chain validation on the configured interval
// and whenever an audit is signaled.
func (w *Worker) auditOperations() {
	w.evHandler("worker: auditOperations: G started")
	defer w.evHandler("worker: auditOperations: G completed")

	for {
		select {
		case <-w.signalAudit:
			if !w.isShutdown() {
				w.runAuditOperation()
			}
		case <-w.ticker.C:
			if !w.isShutdown() {
				w.runAuditOperation()
			}
		case <-w.shut:
			w.evHandler("worker: auditOperations: received shut signal")
			return
		}
	}
}

// runAuditOperation validates the whole chain and reports every broken
// block. The chain is never mutated here; a failed audit is surfaced
// through the event handler for the operator.
func (w *Worker) runAuditOperation() {
	w.evHandler("worker: runAuditOperation: AUDIT: started")
	defer w.evHandler("worker: runAuditOperation: AUDIT: completed")

	errs := w.state.ValidateChain()
	if len(errs) == 0 {
		w.evHandler("worker: runAuditOperation: AUDIT: chain valid: height[%d]", w.state.Height())
		return
	}

	for _, err := range errs {
		w.evHandler("worker: runAuditOperation: AUDIT: ERROR: blk[%d]: %s", err.Number, err.Err)
	}
}
