package kernel

// PanicInfo contains details about a recovered task panic.
type PanicInfo struct {
	TaskID TaskID
	Task   string
	Value  any
	Stack  []byte
}

// SetPanicHandler installs the handler called when a task panics.
//
// The panicking task is parked, so the handler runs at most once per task.
// It must not panic.
func (k *Kernel) SetPanicHandler(fn func(PanicInfo)) {
	k.onPanic = fn
}

func (k *Kernel) reportPanic(info PanicInfo) {
	if k.onPanic != nil {
		k.onPanic(info)
	}
}
