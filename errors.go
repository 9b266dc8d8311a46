package prismvk

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"

	vk "github.com/vulkan-go/vulkan"
)

func isError(ret vk.Result) bool {
	return ret != vk.Success
}

// NewError wraps a non-success vk.Result with the call site that produced it.
func NewError(ret vk.Result) error {
	if ret != vk.Success {
		pc, _, _, ok := runtime.Caller(1)
		if !ok {
			return fmt.Errorf("vulkan error: %s (%d)",
				vk.Error(ret).Error(), ret)
		}
		frame := newStackFrame(pc)
		return fmt.Errorf("vulkan error: %s (%d) on %s",
			vk.Error(ret).Error(), ret, frame.String())
	}
	return nil
}

type stackFrame struct {
	file     string
	line     int
	function string
}

func newStackFrame(pc uintptr) *stackFrame {
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return &stackFrame{file: "unknown", function: "unknown"}
	}
	file, line := fn.FileLine(pc)
	return &stackFrame{
		file:     filepath.Base(file),
		line:     line,
		function: fn.Name(),
	}
}

func (s *stackFrame) String() string {
	return fmt.Sprintf("%s:%d %s", s.file, s.line, s.function)
}

// Fatal runs the given finalizers and exits, appending the error to the
// fatal log file so crashes in a windowed session are not lost with the
// console.
func Fatal(err error, finalizers ...func()) {
	if err != nil {
		for _, fn := range finalizers {
			fn()
		}

		file, ferr := os.OpenFile("fatal_log.txt", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
		if ferr != nil {
			log.Fatal(err)
		}
		fatal_log := log.New(file, "FATAL: ", log.Ldate|log.Ltime|log.Lshortfile)
		fatal_log.Fatal(err)
	}
}

func orPanic(err error, finalizers ...func()) {
	if err != nil {
		for _, fn := range finalizers {
			fn()
		}
		panic(err)
	}
}

// checkErr recovers a panic raised by orPanic into the named error result.
func checkErr(err *error) {
	if v := recover(); v != nil {
		*err = fmt.Errorf("%+v", v)
	}
}
