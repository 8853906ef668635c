// Package kernel is a cooperative scheduler for a fixed set of periodic tasks.
//
// Tasks are registered once at startup and then stepped from a single loop;
// an action must return quickly and keep its own state between calls.
package kernel

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const maxTasks = 16

var (
	// ErrSealed is returned by AddTask once the kernel has started stepping.
	ErrSealed = errors.New("kernel: task table sealed")
	// ErrTooManyTasks is returned when the task table is full.
	ErrTooManyTasks = errors.New("kernel: too many tasks")
)

// TaskID identifies a scheduled task.
type TaskID uint8

// Action is a task body. now is the millisecond counter read at the start of
// the current step.
type Action func(now uint32)

// Clock is the monotonic millisecond counter the kernel schedules against.
//
// It wraps after ~49 days.
type Clock interface {
	Millis() uint32
}

// ScheduledTask is one row of the task table.
type ScheduledTask struct {
	Name     string
	Interval uint32
	Last     uint32
	Action   Action

	parked bool
}

// Due reports whether the task should fire at now.
func (t *ScheduledTask) Due(now uint32) bool {
	return !t.parked && now-t.Last >= t.Interval
}

// Kernel owns the task table.
type Kernel struct {
	clock  Clock
	tasks  []ScheduledTask
	sealed bool

	onPanic func(PanicInfo)
}

// New returns an empty kernel driven by clock.
func New(clock Clock) *Kernel {
	return &Kernel{clock: clock, tasks: make([]ScheduledTask, 0, maxTasks)}
}

// AddTask appends a task firing every interval milliseconds. Tasks fire in
// the order they were added.
func (k *Kernel) AddTask(name string, interval uint32, action Action) (TaskID, error) {
	if k.sealed {
		return 0, ErrSealed
	}
	if len(k.tasks) >= maxTasks {
		return 0, ErrTooManyTasks
	}
	if action == nil {
		return 0, fmt.Errorf("kernel: task %q has no action", name)
	}
	k.tasks = append(k.tasks, ScheduledTask{
		Name:     name,
		Interval: interval,
		Last:     k.clock.Millis(),
		Action:   action,
	})
	return TaskID(len(k.tasks) - 1), nil
}

// Tasks returns a copy of the task table.
func (k *Kernel) Tasks() []ScheduledTask {
	return append([]ScheduledTask(nil), k.tasks...)
}

// Parked reports whether the task was stopped after a panic.
func (k *Kernel) Parked(id TaskID) bool {
	if int(id) >= len(k.tasks) {
		return false
	}
	return k.tasks[id].parked
}

// Step reads the clock once and fires every due task at most once.
//
// It returns the number of tasks that fired.
func (k *Kernel) Step() int {
	k.sealed = true
	now := k.clock.Millis()
	fired := 0
	for i := range k.tasks {
		t := &k.tasks[i]
		if !t.Due(now) {
			continue
		}
		t.Last = now
		k.run(TaskID(i), t, now)
		fired++
	}
	return fired
}

func (k *Kernel) run(id TaskID, t *ScheduledTask, now uint32) {
	defer func() {
		if v := recover(); v != nil {
			t.parked = true
			k.reportPanic(PanicInfo{TaskID: id, Task: t.Name, Value: v, Stack: captureStack()})
		}
	}()
	t.Action(now)
}

// Run steps the kernel until ctx is done.
func (k *Kernel) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if k.Step() == 0 {
			time.Sleep(time.Millisecond)
		}
	}
}
