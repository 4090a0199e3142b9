package service

// PollTick exposes the poll fallback to tests so they can drive it
// deterministically instead of waiting on the scheduler.
func (e *ReconcileService) PollTick() {
	e.pollTick()
}
