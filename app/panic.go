package app

import (
	"fmt"
	"strings"

	"watch/watchos/kernel"
)

// panicLines is how many stack lines fit under the header on the panic screen.
const panicLines = 18

// panicked logs the panic and replaces the display with a text panic screen.
// The kernel parks the task; the remaining tasks keep running but nothing
// draws over the screen any more.
func (s *system) panicked(info kernel.PanicInfo) {
	s.log.WriteLineString(fmt.Sprintf("watch panic: task=%d (%s) panic=%v", info.TaskID, info.Task, info.Value))
	stack := stackLines(info.Stack)
	for _, line := range stack {
		s.log.WriteLineString(line)
	}

	s.halted = true
	s.console.Clear()
	s.console.Println("watch panic:")
	s.console.Println(fmt.Sprintf("task: %d (%s)", info.TaskID, info.Task))
	s.console.Println(fmt.Sprintf("panic: %v", info.Value))
	if len(stack) == 0 {
		s.console.Println("stack: unavailable")
	} else {
		s.console.Println("stack:")
		if len(stack) > panicLines {
			stack = stack[:panicLines]
		}
		for _, line := range stack {
			s.console.Println(strings.TrimSpace(line))
		}
	}
	if err := s.console.Refresh(); err != nil {
		s.log.WriteLineString("app: present: " + err.Error())
	}
}

func stackLines(stack []byte) []string {
	var out []string
	for _, line := range strings.Split(string(stack), "\n") {
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
